package book

// priceLevel is a FIFO of orders resting at one tick. Invariant:
// totalQuantity == sum of remaining over every linked order.
type priceLevel struct {
	price         int64
	totalQuantity uint32
	head, tail    uint32 // handles, nullHandle when empty
	idx           int
}

func (l *priceLevel) empty() bool {
	return l.head == nullHandle
}

// side is one book side: a dense array of levels indexed by idx(price), an
// order-handle pool, and a cached best-price index (emptySentinel when the
// side has no resting volume).
type side struct {
	isBid          bool
	levels         []priceLevel
	pool           *pool
	bestPriceIndex int
}

func newSide(isBid bool, capacity int) *side {
	s := &side{
		isBid:          isBid,
		levels:         make([]priceLevel, NumBookLevels),
		pool:           newPool(capacity),
		bestPriceIndex: emptySentinel,
	}
	for i := range s.levels {
		s.levels[i] = priceLevel{price: priceAt(i), head: nullHandle, tail: nullHandle, idx: i}
	}
	return s
}

// pushBack appends a newly allocated order handle to the tail of the level's
// FIFO and updates aggregate volume and best-price tracking.
func (s *side) pushBack(levelIdx int, h uint32) {
	lvl := &s.levels[levelIdx]
	o := s.pool.get(h)
	o.levelIdx = levelIdx
	o.prev = lvl.tail
	o.next = nullHandle
	if lvl.tail != nullHandle {
		s.pool.get(lvl.tail).next = h
	} else {
		lvl.head = h
	}
	lvl.tail = h
	lvl.totalQuantity += o.remaining

	if s.isBid {
		if s.bestPriceIndex == emptySentinel || levelIdx > s.bestPriceIndex {
			s.bestPriceIndex = levelIdx
		}
	} else {
		if s.bestPriceIndex == emptySentinel || levelIdx < s.bestPriceIndex {
			s.bestPriceIndex = levelIdx
		}
	}
}

// unlink removes an order handle from its level's FIFO, adjusts aggregate
// volume by the order's current remaining quantity, and frees the handle.
// If the level becomes empty and it was the best price, rescans for the
// next-best non-empty level in the side's priority direction.
func (s *side) unlink(h uint32) {
	o := s.pool.get(h)
	lvl := &s.levels[o.levelIdx]
	lvl.totalQuantity -= o.remaining

	if o.prev != nullHandle {
		s.pool.get(o.prev).next = o.next
	} else {
		lvl.head = o.next
	}
	if o.next != nullHandle {
		s.pool.get(o.next).prev = o.prev
	} else {
		lvl.tail = o.prev
	}

	emptied := lvl.head == nullHandle
	levelIdx := lvl.idx
	s.pool.free(h)

	if emptied && levelIdx == s.bestPriceIndex {
		s.advanceBestPriceAfterEmpty(levelIdx)
	}
}

// advanceBestPriceAfterEmpty linearly rescans toward the next-best
// non-empty level: downward (toward lower index / lower price) for the bid
// side, upward for the ask side, matching original_source's per-side scan
// direction. Sets emptySentinel if none remain.
func (s *side) advanceBestPriceAfterEmpty(fromIdx int) {
	if s.isBid {
		for i := fromIdx - 1; i >= 0; i-- {
			if s.levels[i].totalQuantity > 0 {
				s.bestPriceIndex = i
				return
			}
		}
	} else {
		for i := fromIdx + 1; i < NumBookLevels; i++ {
			if s.levels[i].totalQuantity > 0 {
				s.bestPriceIndex = i
				return
			}
		}
	}
	s.bestPriceIndex = emptySentinel
}

func (s *side) empty() bool {
	return s.bestPriceIndex == emptySentinel
}

func (s *side) bestLevel() *priceLevel {
	if s.empty() {
		return nil
	}
	return &s.levels[s.bestPriceIndex]
}

// crosses reports whether a level at levelIdx crosses (is marketable
// against) an incoming limit price on the opposite side: for a level on the
// ask side, price <= limit (a buy sweeps up to and including limit); for a
// level on the bid side, price >= limit (a sell sweeps down to limit).
func crosses(levelSide *side, levelIdx int, limit int64, incomingIsBuy bool) bool {
	lvlPrice := levelSide.levels[levelIdx].price
	if incomingIsBuy {
		return lvlPrice <= limit
	}
	return lvlPrice >= limit
}
