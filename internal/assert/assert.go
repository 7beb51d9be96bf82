// Package assert provides debug-only invariant checks. Grounded on the
// teacher's comment-driven "should never happen" markers in its order book
// code (recast per DESIGN.md as an actual runtime check, gated behind a
// build tag so release builds pay nothing for it).
package assert

// Invariant panics with msg if cond is false. In non-debug builds
// (without the "debugassert" build tag) this file's release variant makes
// it a no-op; see assert_release.go.
func Invariant(cond bool, msg string) {
	invariant(cond, msg)
}
