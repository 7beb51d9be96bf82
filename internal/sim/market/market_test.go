package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeState_AdvanceComputesDT(t *testing.T) {
	var ts TimeState
	ts.Advance(10)
	assert.Equal(t, float64(0), ts.DT)

	ts.Advance(10.5)
	assert.InDelta(t, 0.5, ts.DT, 1e-9)
	assert.Equal(t, 10.5, ts.SinceStartSeconds)
}

func TestPriceState_OnTrade(t *testing.T) {
	var ps PriceState
	ps.OnTrade(105)
	assert.True(t, ps.HasTrade)
	assert.Equal(t, int64(105), ps.LastTrade)
}

func TestLiquidityState_BucketsByDistance(t *testing.T) {
	ls := NewLiquidityState(3, 5)
	ls.AddLevel(true, 100, 100, 10) // distance 0, near
	ls.AddLevel(true, 100, 94, 20)  // distance 6, bucket 1
	ls.AddLevel(false, 100, 100, 8) // distance 0, near
	ls.AddLevel(false, 100, 112, 4) // distance 12, bucket 2

	near0, _, _, _ := ls.Bucket(true, 0)
	assert.Equal(t, float64(10), near0)

	bucket1, mean, _, _ := ls.Bucket(true, 1)
	assert.Equal(t, float64(20), bucket1)
	assert.InDelta(t, 6, mean, 1e-9)

	imbalance := ls.NearTouchImbalance()
	// near bid volume 10, near ask volume 8
	assert.InDelta(t, (10.0-8.0)/(10.0+8.0+epsilon), imbalance, 1e-9)
}

func TestLiquidityState_Reset(t *testing.T) {
	ls := NewLiquidityState(2, 5)
	ls.AddLevel(true, 100, 100, 10)
	ls.Reset()
	v, _, _, _ := ls.Bucket(true, 0)
	assert.Equal(t, float64(0), v)
	assert.Equal(t, float64(0), ls.NearTouchImbalance())
}

func TestVolatilityState_OnTrade_FirstCallSeedsOnly(t *testing.T) {
	var vs VolatilityState
	vs.OnTrade(100, 1.0)
	assert.Equal(t, float64(0), vs.RealisedVarianceShort())
}

func TestVolatilityState_OnTrade_AccumulatesVariance(t *testing.T) {
	var vs VolatilityState
	vs.OnTrade(100, 1.0)
	vs.OnTrade(101, 1.0)
	assert.Greater(t, vs.RealisedVarianceShort(), float64(0))
	assert.Greater(t, vs.RealisedVarianceLong(), float64(0))
	assert.Greater(t, vs.SemivarianceUp(), float64(0))
	assert.Equal(t, float64(0), vs.SemivarianceDown())
}

func TestVolatilityState_JumpIntensitySpikesOnLargeReturn(t *testing.T) {
	var vs VolatilityState
	vs.OnTrade(100, 1.0)
	for i := 0; i < 20; i++ {
		vs.OnTrade(100.05, 1.0)
	}
	before := vs.JumpIntensity()
	vs.OnTrade(200, 1.0)
	assert.Greater(t, vs.JumpIntensity(), before)
}

func TestFlowState_FlowImbalanceClampedAndSigned(t *testing.T) {
	fs := NewFlowState(1.0)
	fs.OnTrade(10, true, 1.0)
	assert.Greater(t, fs.FlowImbalance(), float64(0))

	fs2 := NewFlowState(1.0)
	fs2.OnTrade(10, false, 1.0)
	assert.Less(t, fs2.FlowImbalance(), float64(0))
}

func TestFlowState_FlowImbalanceNeverExceedsUnitRange(t *testing.T) {
	fs := NewFlowState(0.001)
	for i := 0; i < 50; i++ {
		fs.OnTrade(1000, true, 1.0)
	}
	imbalance := fs.FlowImbalance()
	assert.LessOrEqual(t, imbalance, float64(1))
	assert.GreaterOrEqual(t, imbalance, float64(-1))
}

func TestState_SideScoreCombinesFlowAndLiquidity(t *testing.T) {
	s := NewState(3, 5, 1.0)
	s.OnTradeEvent(1, 100, 10, true)
	s.Liquidity.AddLevel(true, 100, 100, 50)
	s.Liquidity.AddLevel(false, 100, 100, 10)

	score := s.SideScore()
	assert.False(t, math.IsNaN(score))
	assert.Greater(t, score, float64(0))
}

func TestAlpha_SamplingRateInvariantBounds(t *testing.T) {
	a := alpha(1.0, 1.0)
	assert.InDelta(t, 1-math.Exp(-1), a, 1e-9)

	assert.Equal(t, float64(1), alpha(0, 1.0))
	assert.Equal(t, float64(1), alpha(1.0, 0))
}
