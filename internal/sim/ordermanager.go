package sim

import "container/heap"

// hazardEntry is one scheduled cancellation: the cumulative-hazard clock
// value at which the order becomes due, and the exchange order id it
// belongs to.
type hazardEntry struct {
	threshold float64
	orderID   uint32
}

// hazardHeap is a container/heap min-heap ordered by threshold. No pack
// example implements a hazard-threshold scheduler; container/heap is the
// standard, dependency-free choice for a one-off binary heap in Go.
type hazardHeap []hazardEntry

func (h hazardHeap) Len() int            { return len(h) }
func (h hazardHeap) Less(i, j int) bool  { return h[i].threshold < h[j].threshold }
func (h hazardHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *hazardHeap) Push(x interface{}) { *h = append(*h, x.(hazardEntry)) }
func (h *hazardHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// OrderManager tracks the simulator's own resting orders: which exchange
// order ids are currently active, and when each is due to be cancelled
// under the shared cumulative-hazard clock. It also holds pending inserts
// whose exchange order id is not yet known, keyed by client_request_id
// until CONFIRM_ORDER_INSERTED arrives.
type OrderManager struct {
	active  map[uint32]struct{}
	pending map[uint32]float64 // client_request_id -> hazard_threshold
	heap    hazardHeap

	hCum float64
}

// NewOrderManager returns an empty manager with no resting orders.
func NewOrderManager() *OrderManager {
	return &OrderManager{
		active:  make(map[uint32]struct{}),
		pending: make(map[uint32]float64),
	}
}

// RegisterPendingInsert records a new insert's hazard threshold before its
// exchange order id is known.
func (m *OrderManager) RegisterPendingInsert(clientRequestID uint32, hazardThreshold float64) {
	m.pending[clientRequestID] = hazardThreshold
}

// ConfirmInsert translates a pending insert into an active, scheduled
// order once CONFIRM_ORDER_INSERTED names its exchange order id. A
// clientRequestID with no matching pending entry is ignored (the
// simulator only ever confirms its own inserts).
func (m *OrderManager) ConfirmInsert(clientRequestID, exchangeOrderID uint32) {
	threshold, ok := m.pending[clientRequestID]
	if !ok {
		return
	}
	delete(m.pending, clientRequestID)
	m.active[exchangeOrderID] = struct{}{}
	heap.Push(&m.heap, hazardEntry{threshold: threshold, orderID: exchangeOrderID})
}

// Remove drops an order from the active set on cancel-ack or full fill.
// Its heap entry is left in place and discarded as stale when it would
// otherwise fire (Advance skips ids no longer active), since container/heap has no O(log n)
// arbitrary-element delete.
func (m *OrderManager) Remove(exchangeOrderID uint32) {
	delete(m.active, exchangeOrderID)
}

// IsActive reports whether the given exchange order id is still tracked
// as one of the simulator's own resting orders.
func (m *OrderManager) IsActive(exchangeOrderID uint32) bool {
	_, ok := m.active[exchangeOrderID]
	return ok
}

// ActiveCount returns the number of currently resting orders owned by the
// simulator, an input to the insert/cancel intensity functions.
func (m *OrderManager) ActiveCount() int {
	return len(m.active)
}

// Advance moves the cumulative hazard clock forward by lambdaCancel*dt and
// pops every due order, skipping stale entries for orders already removed
// from the active set (already cancelled, or filled). Grounded on
// RandomBidBot's per-order cancelAfter timer (internal/sim doc), collapsed
// here into one shared hazard clock instead of one timer per order.
func (m *OrderManager) Advance(dtSeconds, lambdaCancel float64) []uint32 {
	if lambdaCancel > 0 {
		m.hCum += lambdaCancel * dtSeconds
	}
	var due []uint32
	for m.heap.Len() > 0 && m.heap[0].threshold <= m.hCum {
		entry := heap.Pop(&m.heap).(hazardEntry)
		if !m.IsActive(entry.orderID) {
			continue
		}
		delete(m.active, entry.orderID)
		due = append(due, entry.orderID)
	}
	return due
}

// NextDeadline returns the simulated-time distance to the next scheduled
// cancellation under the current hazard rate, mirroring the spec's
// (H_top - H_cum)/lambda_cancel timer-arming formula; ok is false with an
// empty heap or a non-positive rate.
func (m *OrderManager) NextDeadline(lambdaCancel float64) (dtSeconds float64, ok bool) {
	if m.heap.Len() == 0 || lambdaCancel <= 0 {
		return 0, false
	}
	return (m.heap[0].threshold - m.hCum) / lambdaCancel, true
}

// HCum exposes the current cumulative hazard clock value, mainly for
// tests asserting monotonic advancement.
func (m *OrderManager) HCum() float64 { return m.hCum }
