package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderManager_ConfirmInsertActivatesOrder(t *testing.T) {
	m := NewOrderManager()
	m.RegisterPendingInsert(1, 5.0)
	m.ConfirmInsert(1, 100)

	assert.True(t, m.IsActive(100))
	assert.Equal(t, 1, m.ActiveCount())
}

func TestOrderManager_ConfirmInsert_UnknownClientRequestIsIgnored(t *testing.T) {
	m := NewOrderManager()
	m.ConfirmInsert(99, 100)
	assert.False(t, m.IsActive(100))
}

func TestOrderManager_AdvancePopsDueOrders(t *testing.T) {
	m := NewOrderManager()
	m.RegisterPendingInsert(1, 1.0)
	m.ConfirmInsert(1, 100)
	m.RegisterPendingInsert(2, 5.0)
	m.ConfirmInsert(2, 200)

	due := m.Advance(1.0, 1.0) // hCum = 1.0, pops threshold<=1.0
	assert.Equal(t, []uint32{100}, due)
	assert.False(t, m.IsActive(100))
	assert.True(t, m.IsActive(200))

	due = m.Advance(4.0, 1.0) // hCum = 5.0
	assert.Equal(t, []uint32{200}, due)
}

func TestOrderManager_Advance_SkipsStaleRemovedOrders(t *testing.T) {
	m := NewOrderManager()
	m.RegisterPendingInsert(1, 1.0)
	m.ConfirmInsert(1, 100)
	m.Remove(100) // cancelled/filled before the hazard threshold fires

	due := m.Advance(10.0, 1.0)
	assert.Empty(t, due)
}

func TestOrderManager_NextDeadline(t *testing.T) {
	m := NewOrderManager()
	_, ok := m.NextDeadline(1.0)
	assert.False(t, ok)

	m.RegisterPendingInsert(1, 3.0)
	m.ConfirmInsert(1, 100)

	dt, ok := m.NextDeadline(2.0)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, dt, 1e-9)
}

func TestOrderManager_HCumMonotonic(t *testing.T) {
	m := NewOrderManager()
	m.Advance(1.0, 2.0)
	assert.InDelta(t, 2.0, m.HCum(), 1e-9)
	m.Advance(1.0, 2.0)
	assert.InDelta(t, 4.0, m.HCum(), 1e-9)
}
