package book

// OrderInfo is a read-only view of an order handed to Sink callbacks, so
// callers never see pool internals (handles, intrusive links).
type OrderInfo struct {
	OrderID    uint32
	ClientID   uint32
	Side       Side
	Price      int64
	Quantity   uint32
	Remaining  uint32
	Cumulative uint32
	LastPrice  int64
}

// LevelInfo is a read-only view of a price level's aggregate state.
type LevelInfo struct {
	Side          Side
	Price         int64
	TotalQuantity uint32
}

// Sink receives every observable effect of a book mutation. The book calls
// it synchronously and only from the goroutine driving Submit/Cancel/Amend.
//
// Grounded on original_source/src/callbacks.hpp's OrderBookCallbacks;
// recast per DESIGN NOTES ("recast as either an explicit sink trait/variant
// or message passing") as a plain Go interface implemented once by the
// engine, supplied at construction time (never late-assigned).
type Sink interface {
	// OnTrade fires once per matched pair, for every maker consumed while
	// walking a crossed level. takerOrderID/takerClientID identify the
	// incoming order; maker is the resting order that was hit.
	OnTrade(maker OrderInfo, takerClientID, takerOrderID uint32, price int64, takerRemaining, takerCumulative, tradedQuantity uint32, timestamp uint64)
	// OnOrderInserted fires once, when a residual rests on the book (never
	// fired for the fully-matched or fill-and-kill-dropped portion).
	OnOrderInserted(clientRequestID uint32, o OrderInfo, timestamp uint64)
	OnOrderCancelled(clientRequestID uint32, o OrderInfo, timestamp uint64)
	OnOrderAmended(clientRequestID uint32, oldTotalQuantity uint32, o OrderInfo, timestamp uint64)
	OnLevelUpdate(l LevelInfo, timestamp uint64)
	OnError(clientID, clientRequestID uint32, code uint16, message string, timestamp uint64)
}

// NoopSink discards every callback; useful in tests that only assert on
// return values or on direct book introspection.
type NoopSink struct{}

func (NoopSink) OnTrade(OrderInfo, uint32, uint32, int64, uint32, uint32, uint32, uint64) {}
func (NoopSink) OnOrderInserted(uint32, OrderInfo, uint64)                                {}
func (NoopSink) OnOrderCancelled(uint32, OrderInfo, uint64)                               {}
func (NoopSink) OnOrderAmended(uint32, uint32, OrderInfo, uint64)                         {}
func (NoopSink) OnLevelUpdate(LevelInfo, uint64)                                          {}
func (NoopSink) OnError(uint32, uint32, uint16, string, uint64)                           {}
