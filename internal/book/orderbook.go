package book

import (
	"clob/internal/assert"
	"clob/internal/clock"
)

// OrderBook holds both sides of a single instrument's book, the client-id
// authorization index, and the monotonic id counters. All exported methods
// must be called from a single goroutine (the engine's dispatch loop); the
// book itself takes no locks, per the spec's single-writer design.
type OrderBook struct {
	bids *side
	asks *side

	nextOrderID uint32
	nextTradeID uint32
	index       map[uint32]orderLocation

	wall clock.Wall
	sink Sink
}

type orderLocation struct {
	handle uint32
	isBid  bool
}

// New constructs an empty book with a fixed-capacity pool of maxOrders per
// side. Callers that don't need a tunable capacity can pass MaxOrders.
func New(wall clock.Wall, sink Sink, maxOrders int) *OrderBook {
	return &OrderBook{
		bids:        newSide(true, maxOrders),
		asks:        newSide(false, maxOrders),
		nextOrderID: 1,
		nextTradeID: 1,
		index:       make(map[uint32]orderLocation, maxOrders),
		wall:        wall,
		sink:        sink,
	}
}

func (b *OrderBook) sideFor(s Side) *side {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) opposite(s Side) *side {
	if s == Buy {
		return b.asks
	}
	return b.bids
}

func sideOf(isBid bool) Side {
	if isBid {
		return Buy
	}
	return Sell
}

func toOrderInfo(o *order, isBid bool) OrderInfo {
	return OrderInfo{
		OrderID:    o.orderID,
		ClientID:   o.clientID,
		Side:       sideOf(isBid),
		Price:      o.price,
		Quantity:   o.quantity,
		Remaining:  o.remaining,
		Cumulative: o.cumulative,
		LastPrice:  o.lastPrice,
	}
}

// Submit validates and inserts a new order, matching it against the
// opposite side first. Grounded on original_source/src/order_book.cpp's
// submit_order.
func (b *OrderBook) Submit(clientID, clientRequestID uint32, s Side, price int64, quantity uint32, lifespan Lifespan) {
	ts := b.wall.NowUnixNano()
	if quantity == 0 {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeInvalidVolume), "invalid volume", ts)
		return
	}
	if price < MinBid || price > MaxAsk {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeInvalidPrice), "invalid price", ts)
		return
	}

	own := b.sideFor(s)
	opp := b.opposite(s)

	h, ok := own.pool.allocate()
	if !ok {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeOrderBookFull), "order book full", ts)
		return
	}

	orderID := b.nextOrderID
	b.nextOrderID++

	o := own.pool.get(h)
	o.orderID = orderID
	o.clientID = clientID
	o.price = price
	o.quantity = quantity
	o.remaining = quantity
	o.cumulative = 0
	o.lifespan = lifespan

	o.remaining = b.match(opp, o, s, price, ts)

	if o.remaining == 0 || lifespan == FillAndKill {
		own.pool.free(h)
		return
	}

	levelIdx := idx(price)
	own.pushBack(levelIdx, h)
	b.index[orderID] = orderLocation{handle: h, isBid: s == Buy}

	info := toOrderInfo(o, s == Buy)
	b.sink.OnOrderInserted(clientRequestID, info, ts)
	b.sink.OnLevelUpdate(LevelInfo{Side: s, Price: price, TotalQuantity: own.levels[levelIdx].totalQuantity}, ts)
}

// match walks the opposite side's crossing levels in strict price-time
// priority, consuming makers until the incoming order is filled or no
// crossing level remains. Returns the incoming order's leftover quantity.
// Grounded on original_source/src/order_book.cpp's match_buy/match_sell.
func (b *OrderBook) match(opp *side, incoming *order, incomingSide Side, limit int64, ts uint64) uint32 {
	remaining := incoming.remaining
	incomingIsBuy := incomingSide == Buy
	oppIsBid := !incomingIsBuy

	for remaining > 0 && !opp.empty() {
		levelIdx := opp.bestPriceIndex
		if !crosses(opp, levelIdx, limit, incomingIsBuy) {
			break
		}
		lvl := &opp.levels[levelIdx]

		h := lvl.head
		for remaining > 0 && h != nullHandle {
			maker := opp.pool.get(h)
			next := maker.next

			traded := maker.remaining
			if remaining < traded {
				traded = remaining
			}
			assert.Invariant(traded <= lvl.totalQuantity, "traded quantity exceeds level total")
			maker.remaining -= traded
			maker.cumulative += traded
			maker.lastPrice = limit
			remaining -= traded
			incoming.cumulative += traded
			incoming.lastPrice = limit
			lvl.totalQuantity -= traded

			makerInfo := toOrderInfo(maker, oppIsBid)
			b.nextTradeID++
			b.sink.OnTrade(makerInfo, incoming.clientID, incoming.orderID, limit, remaining, incoming.cumulative, traded, ts)

			filled := maker.remaining == 0
			if filled {
				b.unlinkFilledMaker(opp, lvl, h, maker)
			}
			if lvl.head != nullHandle {
				b.sink.OnLevelUpdate(LevelInfo{Side: sideOf(oppIsBid), Price: lvl.price, TotalQuantity: lvl.totalQuantity}, ts)
			}
			h = next
		}

		if opp.levels[levelIdx].head == nullHandle && levelIdx == opp.bestPriceIndex {
			b.sink.OnLevelUpdate(LevelInfo{Side: sideOf(oppIsBid), Price: lvl.price, TotalQuantity: 0}, ts)
			opp.advanceBestPriceAfterEmpty(levelIdx)
		}
	}
	return remaining
}

// unlinkFilledMaker removes a fully-filled maker from its level's FIFO,
// drops it from the order index, and returns its handle to the pool.
func (b *OrderBook) unlinkFilledMaker(s *side, lvl *priceLevel, h uint32, maker *order) {
	if maker.prev != nullHandle {
		s.pool.get(maker.prev).next = maker.next
	} else {
		lvl.head = maker.next
	}
	if maker.next != nullHandle {
		s.pool.get(maker.next).prev = maker.prev
	} else {
		lvl.tail = maker.prev
	}
	delete(b.index, maker.orderID)
	s.pool.free(h)
}

// Cancel removes a resting order. Rejects with ErrOrderNotFound if the id is
// unknown, ErrUnauthorised if clientID does not own it.
func (b *OrderBook) Cancel(clientID, clientRequestID, orderID uint32) {
	ts := b.wall.NowUnixNano()
	loc, ok := b.index[orderID]
	if !ok {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeOrderNotFound), "order not found", ts)
		return
	}
	s := b.sideFor(sideOf(loc.isBid))
	o := s.pool.get(loc.handle)
	if o.clientID != clientID {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeUnauthorised), "unauthorised", ts)
		return
	}

	info := toOrderInfo(o, loc.isBid)
	price := o.price
	levelIdx := o.levelIdx
	delete(b.index, orderID)
	s.unlink(loc.handle)

	info.Remaining = 0
	b.sink.OnOrderCancelled(clientRequestID, info, ts)
	b.sink.OnLevelUpdate(LevelInfo{Side: sideOf(loc.isBid), Price: price, TotalQuantity: s.levels[levelIdx].totalQuantity}, ts)
}

// Amend changes a resting order's total quantity. Only a decrease (or a
// no-op equal value) is allowed: amend-up is rejected with
// ErrInvalidVolume, per DESIGN NOTES' resolution of the spec's open
// question on amend-up priority.
func (b *OrderBook) Amend(clientID, clientRequestID, orderID, newTotalQuantity uint32) {
	ts := b.wall.NowUnixNano()
	loc, ok := b.index[orderID]
	if !ok {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeOrderNotFound), "order not found", ts)
		return
	}
	s := b.sideFor(sideOf(loc.isBid))
	o := s.pool.get(loc.handle)
	if o.clientID != clientID {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeUnauthorised), "unauthorised", ts)
		return
	}

	if newTotalQuantity < o.cumulative {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeInvalidVolume), "invalid volume", ts)
		return
	}
	newRemaining := newTotalQuantity - o.cumulative
	if newRemaining > o.remaining {
		b.sink.OnError(clientID, clientRequestID, uint16(ErrCodeInvalidVolume), "invalid volume", ts)
		return
	}

	oldTotal := o.quantity
	delta := o.remaining - newRemaining
	lvl := &s.levels[o.levelIdx]
	lvl.totalQuantity -= delta
	o.remaining = newRemaining
	o.quantity = newTotalQuantity

	if newRemaining == 0 {
		info := toOrderInfo(o, loc.isBid)
		delete(b.index, orderID)
		s.unlink(loc.handle)
		b.sink.OnOrderAmended(clientRequestID, oldTotal, info, ts)
		b.sink.OnLevelUpdate(LevelInfo{Side: sideOf(loc.isBid), Price: lvl.price, TotalQuantity: lvl.totalQuantity}, ts)
		return
	}

	info := toOrderInfo(o, loc.isBid)
	b.sink.OnOrderAmended(clientRequestID, oldTotal, info, ts)
	b.sink.OnLevelUpdate(LevelInfo{Side: sideOf(loc.isBid), Price: lvl.price, TotalQuantity: lvl.totalQuantity}, ts)
}

// Status answers an ORDER_STATUS_REQUEST. Returns ok=false if the order is
// unknown or owned by a different client, in which case the caller is
// responsible for emitting the ErrorType via the sink.
func (b *OrderBook) Status(clientID, orderID uint32) (OrderInfo, bool) {
	loc, ok := b.index[orderID]
	if !ok {
		return OrderInfo{}, false
	}
	s := b.sideFor(sideOf(loc.isBid))
	o := s.pool.get(loc.handle)
	if o.clientID != clientID {
		return OrderInfo{}, false
	}
	return toOrderInfo(o, loc.isBid), true
}

// Snapshot walks up to OrderBookMessageDepth non-empty levels per side,
// descending on bid and ascending on ask, per original_source's snapshot
// construction. Unused trailing slots are zero.
type SnapshotLevel struct {
	Price  int64
	Volume uint32
}

func (b *OrderBook) Snapshot() (asks, bids [OrderBookMessageDepth]SnapshotLevel) {
	fill := func(s *side, ascending bool) [OrderBookMessageDepth]SnapshotLevel {
		var out [OrderBookMessageDepth]SnapshotLevel
		if s.empty() {
			return out
		}
		n := 0
		if ascending {
			for i := s.bestPriceIndex; i < NumBookLevels && n < OrderBookMessageDepth; i++ {
				if s.levels[i].totalQuantity > 0 {
					out[n] = SnapshotLevel{Price: s.levels[i].price, Volume: s.levels[i].totalQuantity}
					n++
				}
			}
		} else {
			for i := s.bestPriceIndex; i >= 0 && n < OrderBookMessageDepth; i-- {
				if s.levels[i].totalQuantity > 0 {
					out[n] = SnapshotLevel{Price: s.levels[i].price, Volume: s.levels[i].totalQuantity}
					n++
				}
			}
		}
		return out
	}
	asks = fill(b.asks, true)
	bids = fill(b.bids, false)
	return asks, bids
}

// BestBid and BestAsk expose top-of-book for tests and for the engine's
// own bookkeeping; ok is false when the side is empty.
func (b *OrderBook) BestBid() (price int64, volume uint32, ok bool) {
	lvl := b.bids.bestLevel()
	if lvl == nil {
		return 0, 0, false
	}
	return lvl.price, lvl.totalQuantity, true
}

func (b *OrderBook) BestAsk() (price int64, volume uint32, ok bool) {
	lvl := b.asks.bestLevel()
	if lvl == nil {
		return 0, 0, false
	}
	return lvl.price, lvl.totalQuantity, true
}

// LevelVolume returns the resting volume at a given price on a given side,
// for invariant checks in tests.
func (b *OrderBook) LevelVolume(s Side, price int64) uint32 {
	return b.sideFor(s).levels[idx(price)].totalQuantity
}
