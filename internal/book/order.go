package book

// order is one resting or in-flight limit order. prev/next are handle
// indices into the owning side's pool (nullHandle when absent), forming an
// intrusive doubly-linked FIFO per price level. Side is implicit: callers
// always know which side's pool a handle came from.
type order struct {
	orderID    uint32
	clientID   uint32
	price      int64
	quantity   uint32 // original total quantity
	remaining  uint32
	cumulative uint32
	lastPrice  int64 // price of the most recent trade this order participated in, 0 if never traded
	lifespan   Lifespan
	prev, next uint32
	levelIdx   int // index into the owning side's levels array
	inUse      bool
}

// pool is a fixed-capacity free-list allocator of orders, grounded on
// original_source/src/order.hpp's OrderPool and on
// ejyy-femto_go/exchange.go's array-of-orders-plus-handle pattern.
type pool struct {
	slots    []order
	freeHead uint32 // handle of the first free slot, nullHandle if exhausted
}

func newPool(capacity int) *pool {
	p := &pool{slots: make([]order, capacity)}
	for i := 0; i < capacity-1; i++ {
		p.slots[i].next = uint32(i + 1)
	}
	if capacity > 0 {
		p.slots[capacity-1].next = nullHandle
	}
	p.freeHead = 0
	if capacity == 0 {
		p.freeHead = nullHandle
	}
	return p
}

// allocate returns a fresh handle, or (0, false) if the pool is exhausted.
func (p *pool) allocate() (uint32, bool) {
	if p.freeHead == nullHandle {
		return 0, false
	}
	h := p.freeHead
	p.freeHead = p.slots[h].next
	p.slots[h] = order{prev: nullHandle, next: nullHandle, inUse: true}
	return h, true
}

func (p *pool) free(h uint32) {
	p.slots[h].inUse = false
	p.slots[h].next = p.freeHead
	p.freeHead = h
}

func (p *pool) get(h uint32) *order {
	return &p.slots[h]
}
