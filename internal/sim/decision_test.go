package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clob/internal/book"
	"clob/internal/rng"
	"clob/internal/sim/market"
	"clob/internal/sim/shadow"
)

func TestDecide_PriceWithinBookBounds(t *testing.T) {
	src := rng.New(123)
	s := market.NewState(8, 10, 1.0)
	s.OnTradeEvent(1, 50, 10, true)
	s.Liquidity.AddLevel(true, 50, 49, 20)
	s.Liquidity.AddLevel(false, 50, 51, 15)
	b := shadow.New()
	b.LoadSnapshot([]shadow.Level{{Price: 51, Volume: 15}}, []shadow.Level{{Price: 49, Volume: 20}})
	mgr := NewOrderManager()

	for i := 0; i < 200; i++ {
		ins := Decide(src, s, b, mgr, 50, 1, 10, uint32(i+1))
		assert.GreaterOrEqual(t, ins.Price, int64(book.MinBid))
		assert.LessOrEqual(t, ins.Price, int64(book.MaxAsk))
		assert.Greater(t, ins.Quantity, uint32(0))
		assert.Greater(t, ins.HazardThreshold, float64(0))
	}
}

func TestHazardThreshold_StrictlyPositiveAndMonotoneInHCum(t *testing.T) {
	src := rng.New(1)
	h1 := hazardThreshold(src, 10, Noise, Passive, 0)
	assert.Greater(t, h1, float64(10))

	h2 := hazardThreshold(src, 20, Noise, Passive, 0)
	assert.Greater(t, h2, float64(20))
}

func TestArchetypeWeights_TakerFavouredUnderUrgency(t *testing.T) {
	calm := archetypeWeights(0)
	urgent := archetypeWeights(4)
	// Taker weight (index 1) should grow relative to MarketMaker (index 0)
	// as urgency rises.
	assert.Greater(t, urgent[1]/urgent[0], calm[1]/calm[0])
}

func TestStochasticRound_StaysWithinOneTick(t *testing.T) {
	src := rng.New(9)
	for i := 0; i < 50; i++ {
		x := 100.3
		r := stochasticRound(src, x, 1)
		assert.True(t, r == 100 || r == 101)
	}
}

func TestSampleQuantity_NeverZero(t *testing.T) {
	src := rng.New(5)
	s := market.NewState(8, 10, 1.0)
	in := inputsFromState(s, shadow.New(), NewOrderManager(), 100, 1)
	for i := 0; i < 100; i++ {
		q := sampleQuantity(src, 10, in, 0.5)
		assert.Greater(t, q, uint32(0))
	}
}
