package conn

import "net"

// NewTestSession and StartWriteLoop expose just enough of Session's
// internals for other packages' tests to drive the real framing path
// without spinning up a full Server.

// NewTestSession constructs a Session directly from a net.Conn, for tests
// outside this package that need to exercise Send/SendLarge against a real
// connection without an accept loop.
func NewTestSession(id uint32, c net.Conn) *Session {
	return newSession(id, c)
}

// StartWriteLoop runs the session's writer goroutine. Callers own the
// returned goroutine's lifetime via Session.Close.
func (s *Session) StartWriteLoop() {
	s.writeLoop()
}
