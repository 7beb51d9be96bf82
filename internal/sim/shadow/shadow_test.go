package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadSnapshot_SkipsZeroPadding(t *testing.T) {
	b := New()
	asks := []Level{{Price: 51, Volume: 10}, {Price: 52, Volume: 5}, {Price: 0, Volume: 0}}
	bids := []Level{{Price: 50, Volume: 8}, {Price: 0, Volume: 0}}
	b.LoadSnapshot(asks, bids)

	bestAsk, ok := b.BestAsk()
	assert.True(t, ok)
	assert.Equal(t, int64(51), bestAsk.Price)

	bestBid, ok := b.BestBid()
	assert.True(t, ok)
	assert.Equal(t, int64(50), bestBid.Price)
}

func TestApplyLevelUpdate_ZeroRemoves(t *testing.T) {
	b := New()
	b.ApplyLevelUpdate(true, 50, 10)
	assert.Equal(t, uint32(10), b.VolumeAt(true, 50))

	b.ApplyLevelUpdate(true, 50, 0)
	assert.Equal(t, uint32(0), b.VolumeAt(true, 50))
	_, ok := b.BestBid()
	assert.False(t, ok)
}

func TestMidAndSpread(t *testing.T) {
	b := New()
	b.ApplyLevelUpdate(true, 49, 10)
	b.ApplyLevelUpdate(false, 51, 10)

	mid, ok := b.Mid()
	assert.True(t, ok)
	assert.Equal(t, float64(50), mid)

	spread, ok := b.Spread()
	assert.True(t, ok)
	assert.Equal(t, int64(2), spread)
}

func TestDepth_OrderedBestFirst(t *testing.T) {
	b := New()
	b.ApplyLevelUpdate(true, 48, 1)
	b.ApplyLevelUpdate(true, 50, 1)
	b.ApplyLevelUpdate(true, 49, 1)

	depth := b.Depth(true, 2)
	assert.Equal(t, []Level{{Price: 50, Volume: 1}, {Price: 49, Volume: 1}}, depth)
}
