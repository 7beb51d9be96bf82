// Package book implements the exchange's central limit order book: a
// price-indexed array of levels per side, a fixed-capacity order pool with
// a free-list allocator, and strict price-time-priority matching.
//
// Grounded on original_source/src/order_book.cpp, order_book.hpp,
// pricelevel.hpp, and order.hpp for exact semantics (index formula, the
// empty-sentinel value, per-side best-price rescan direction, amend-up
// rejection), and on ejyy-femto_go/exchange.go for the idiomatic Go
// rendition of an intrusive FIFO over an array-backed pool: handles
// (slice indices) replace the original's raw Order* pointers, per
// DESIGN NOTES ("arena+index variant... preferred to raw pointers").
package book

import "errors"

// Wire-level side/price-domain constants, matching
// original_source/src/types.hpp.
const (
	MinBid                = 1
	MaxAsk                = 10_000
	NumBookLevels         = MaxAsk - MinBid + 1
	OrderBookMessageDepth = 10
	// MaxOrders bounds the fixed order pool. The spec calls this
	// "implementation-tunable (e.g., 100 000)"; original_source/src/types.hpp
	// uses 1,000 for its own test fixture size, but the exchange's external
	// interface documents 100,000 as an example capacity, which is what we use.
	MaxOrders = 100_000
)

// Side of an order or a price level.
type Side uint8

const (
	Sell Side = 0
	Buy  Side = 1
)

// Lifespan controls whether an order's unmatched residual rests on the book.
type Lifespan uint8

const (
	FillAndKill Lifespan = 0
	GoodForDay  Lifespan = 1
)

// emptySentinel marks a side with no resting levels: best_price_index equals
// NumBookLevels, one past the last valid index.
const emptySentinel = NumBookLevels

// nullHandle marks "no order" in an intrusive prev/next/head/tail slot.
const nullHandle = ^uint32(0)

var (
	ErrOrderBookFull = errors.New("book: order pool exhausted")
	ErrInvalidVolume = errors.New("book: invalid volume")
	ErrOrderNotFound = errors.New("book: order not found")
	ErrUnauthorised  = errors.New("book: unauthorised")
	ErrInvalidPrice  = errors.New("book: invalid price")
)

// Error codes carried to Sink.OnError, matching wire.ErrorType's numeric
// values so the engine can forward them to PayloadError.Code unchanged.
const (
	ErrCodeOrderBookFull uint16 = 1
	ErrCodeInvalidVolume uint16 = 2
	ErrCodeOrderNotFound uint16 = 3
	ErrCodeUnauthorised  uint16 = 4
	ErrCodeInvalidPrice  uint16 = 5
)

// idx maps a tick price to its dense array index. Callers must have already
// validated price is within [MinBid, MaxAsk].
func idx(price int64) int {
	return int(price - MinBid)
}

// priceAt is the inverse of idx.
func priceAt(index int) int64 {
	return int64(index) + MinBid
}
