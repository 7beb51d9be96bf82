package book

import (
	"testing"

	"clob/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink captures every callback invocation for assertions, grounded
// on the teacher's table-driven reporter-stub test style.
type recordingSink struct {
	trades     []tradeRec
	inserted   []OrderInfo
	cancelled  []OrderInfo
	amended    []amendRec
	levels     []LevelInfo
	errors     []errRec
}

type tradeRec struct {
	maker           OrderInfo
	takerClientID   uint32
	takerOrderID    uint32
	price           int64
	takerRemaining  uint32
	takerCumulative uint32
	traded          uint32
}

type amendRec struct {
	oldTotal uint32
	info     OrderInfo
}

type errRec struct {
	clientID, clientRequestID uint32
	code                      uint16
}

func (r *recordingSink) OnTrade(maker OrderInfo, takerClientID, takerOrderID uint32, price int64, takerRemaining, takerCumulative, traded uint32, _ uint64) {
	r.trades = append(r.trades, tradeRec{maker, takerClientID, takerOrderID, price, takerRemaining, takerCumulative, traded})
}
func (r *recordingSink) OnOrderInserted(_ uint32, o OrderInfo, _ uint64) { r.inserted = append(r.inserted, o) }
func (r *recordingSink) OnOrderCancelled(_ uint32, o OrderInfo, _ uint64) {
	r.cancelled = append(r.cancelled, o)
}
func (r *recordingSink) OnOrderAmended(_ uint32, oldTotal uint32, o OrderInfo, _ uint64) {
	r.amended = append(r.amended, amendRec{oldTotal, o})
}
func (r *recordingSink) OnLevelUpdate(l LevelInfo, _ uint64) { r.levels = append(r.levels, l) }
func (r *recordingSink) OnError(clientID, clientRequestID uint32, code uint16, _ string, _ uint64) {
	r.errors = append(r.errors, errRec{clientID, clientRequestID, code})
}

func newTestBook() (*OrderBook, *recordingSink) {
	sink := &recordingSink{}
	return New(clock.NewFixed(0), sink, MaxOrders), sink
}

func TestSubmit_RestingBuy(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 100, Buy, 50, 10, GoodForDay)

	require.Len(t, sink.inserted, 1)
	assert.Equal(t, uint32(10), sink.inserted[0].Remaining)
	price, volume, ok := b.BestBid()
	assert.True(t, ok)
	assert.Equal(t, int64(50), price)
	assert.Equal(t, uint32(10), volume)
}

func TestSubmit_FullCross(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Sell, 50, 10, GoodForDay)
	b.Submit(2, 2, Buy, 50, 10, GoodForDay)

	require.Len(t, sink.trades, 1)
	tr := sink.trades[0]
	assert.Equal(t, uint32(10), tr.traded)
	assert.Equal(t, uint32(0), tr.takerRemaining)
	assert.Equal(t, uint32(10), tr.takerCumulative)
	_, _, ok := b.BestAsk()
	assert.False(t, ok)
	_, _, ok = b.BestBid()
	assert.False(t, ok)
}

func TestSubmit_PartialRest(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Sell, 50, 10, GoodForDay)
	b.Submit(2, 2, Buy, 50, 4, GoodForDay)

	require.Len(t, sink.trades, 1)
	assert.Equal(t, uint32(4), sink.trades[0].traded)
	assert.Len(t, sink.inserted, 1) // only the resting sell; the fully filled taker is not inserted
	_, vol, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, uint32(6), vol)
}

func TestSubmit_FillAndKill_NoCrossLeavesNothing(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, FillAndKill)

	assert.Empty(t, sink.inserted)
	_, _, ok := b.BestBid()
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, GoodForDay)
	orderID := sink.inserted[0].OrderID

	b.Cancel(1, 2, orderID)
	require.Len(t, sink.cancelled, 1)
	_, _, ok := b.BestBid()
	assert.False(t, ok)
}

func TestCancel_WrongOwnerRejected(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, GoodForDay)
	orderID := sink.inserted[0].OrderID

	b.Cancel(2, 2, orderID)
	assert.Empty(t, sink.cancelled)
	require.Len(t, sink.errors, 1)
	assert.Equal(t, ErrCodeUnauthorised, sink.errors[0].code)
}

func TestCancel_UnknownOrderRejected(t *testing.T) {
	b, sink := newTestBook()
	b.Cancel(1, 1, 9999)
	require.Len(t, sink.errors, 1)
	assert.Equal(t, ErrCodeOrderNotFound, sink.errors[0].code)
}

func TestAmend_Down(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, GoodForDay)
	orderID := sink.inserted[0].OrderID

	b.Amend(1, 2, orderID, 6)
	require.Len(t, sink.amended, 1)
	assert.Equal(t, uint32(10), sink.amended[0].oldTotal)
	assert.Equal(t, uint32(6), sink.amended[0].info.Remaining)
	assert.Equal(t, uint32(6), b.LevelVolume(Buy, 50))
}

func TestAmend_Up_Rejected(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, GoodForDay)
	orderID := sink.inserted[0].OrderID

	b.Amend(1, 2, orderID, 20)
	assert.Empty(t, sink.amended)
	require.Len(t, sink.errors, 1)
	assert.Equal(t, ErrCodeInvalidVolume, sink.errors[0].code)
}

func TestAmend_ToZero_RemovesOrder(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, GoodForDay)
	orderID := sink.inserted[0].OrderID

	b.Amend(1, 2, orderID, 0)
	require.Len(t, sink.amended, 1)
	_, _, ok := b.BestBid()
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, GoodForDay)
	orderID := sink.inserted[0].OrderID

	info, ok := b.Status(1, orderID)
	require.True(t, ok)
	assert.Equal(t, uint32(10), info.Remaining)

	_, ok = b.Status(2, orderID)
	assert.False(t, ok)
}

func TestSubscribe_SnapshotDepth(t *testing.T) {
	b, _ := newTestBook()
	for i := int64(0); i < 15; i++ {
		b.Submit(1, uint32(i), Buy, 100-i, 1, GoodForDay)
	}
	_, bids := b.Snapshot()
	// best bid (highest price) first, capped at depth 10
	assert.Equal(t, int64(100), bids[0].Price)
	assert.Equal(t, int64(91), bids[9].Price)
}

func TestInvariant_LevelTotalMatchesSumOfOrders(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 10, GoodForDay)
	b.Submit(1, 2, Buy, 50, 5, GoodForDay)
	assert.Equal(t, uint32(15), b.LevelVolume(Buy, 50))

	b.Cancel(1, 3, sink.inserted[0].OrderID)
	assert.Equal(t, uint32(5), b.LevelVolume(Buy, 50))
}

func TestPriceTimePriority_FIFOAtSameLevel(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 5, GoodForDay)  // first in
	b.Submit(2, 2, Buy, 50, 5, GoodForDay)  // second in
	b.Submit(3, 3, Sell, 50, 7, GoodForDay) // fills the first fully, the second partially

	require.Len(t, sink.trades, 2)
	assert.Equal(t, uint32(1), sink.trades[0].maker.ClientID) // first resting order hit first
	assert.Equal(t, uint32(5), sink.trades[0].traded)
	assert.Equal(t, uint32(2), sink.trades[1].maker.ClientID)
	assert.Equal(t, uint32(2), sink.trades[1].traded)
}

func TestStatus_LastPriceReflectsMostRecentTrade(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Sell, 50, 10, GoodForDay)
	orderID := sink.inserted[0].OrderID

	info, ok := b.Status(1, orderID)
	require.True(t, ok)
	assert.Equal(t, int64(0), info.LastPrice) // never traded yet

	b.Submit(2, 2, Buy, 50, 4, GoodForDay)
	info, ok = b.Status(1, orderID)
	require.True(t, ok)
	assert.Equal(t, int64(50), info.LastPrice)
}

func TestInvalidPriceRejected(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 0, 10, GoodForDay)
	require.Len(t, sink.errors, 1)
	assert.Equal(t, ErrCodeInvalidPrice, sink.errors[0].code)
}

func TestInvalidVolumeRejected(t *testing.T) {
	b, sink := newTestBook()
	b.Submit(1, 1, Buy, 50, 0, GoodForDay)
	require.Len(t, sink.errors, 1)
	assert.Equal(t, ErrCodeInvalidVolume, sink.errors[0].code)
}
