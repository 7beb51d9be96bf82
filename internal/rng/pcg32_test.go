package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPCG32_Deterministic(t *testing.T) {
	a := NewPCG32(42, 1)
	b := NewPCG32(42, 1)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint32(), b.Uint32())
	}
}

func TestPCG32_DifferentSeeds(t *testing.T) {
	a := NewPCG32(1, 1)
	b := NewPCG32(2, 1)
	same := true
	for i := 0; i < 10; i++ {
		if a.Uint32() != b.Uint32() {
			same = false
		}
	}
	assert.False(t, same)
}

func TestFloat64_InUnitRange(t *testing.T) {
	g := NewPCG32(7, 3)
	for i := 0; i < 10_000; i++ {
		v := g.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestSource_UniformMoments(t *testing.T) {
	s := New(123)
	sum := 0.0
	const n = 50_000
	for i := 0; i < n; i++ {
		sum += s.Uniform()
	}
	mean := sum / n
	assert.InDelta(t, 0.5, mean, 0.02)
}

func TestSource_NormalMoments(t *testing.T) {
	s := New(456)
	sum, sumSq := 0.0, 0.0
	const n = 50_000
	for i := 0; i < n; i++ {
		v := s.Normal(10, 2)
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	assert.InDelta(t, 10.0, mean, 0.1)
	assert.InDelta(t, 4.0, variance, 0.3)
}

func TestSource_ExponentialMean(t *testing.T) {
	s := New(789)
	sum := 0.0
	const n = 50_000
	const rate = 2.0
	for i := 0; i < n; i++ {
		sum += s.Exponential(rate)
	}
	assert.InDelta(t, 1.0/rate, sum/n, 0.02)
}

func TestSource_PoissonMean(t *testing.T) {
	s := New(321)
	sum := 0
	const n = 50_000
	const lambda = 4.0
	for i := 0; i < n; i++ {
		sum += s.Poisson(lambda)
	}
	mean := float64(sum) / n
	assert.InDelta(t, lambda, mean, 0.1)
}

func TestSource_PoissonLargeLambda(t *testing.T) {
	s := New(322)
	v := s.Poisson(500)
	assert.Greater(t, v, 0)
}

func TestSource_PoissonZero(t *testing.T) {
	s := New(1)
	assert.Equal(t, 0, s.Poisson(0))
}

func TestSource_Categorical(t *testing.T) {
	s := New(654)
	counts := make([]int, 3)
	weights := []float64{1, 2, 7}
	const n = 20_000
	for i := 0; i < n; i++ {
		counts[s.Categorical(weights)]++
	}
	assert.InDelta(t, 0.1, float64(counts[0])/n, 0.03)
	assert.InDelta(t, 0.2, float64(counts[1])/n, 0.03)
	assert.InDelta(t, 0.7, float64(counts[2])/n, 0.03)
}

func TestSource_CategoricalAllNonPositive(t *testing.T) {
	s := New(1)
	assert.Equal(t, 0, s.Categorical([]float64{0, -1, 0}))
}

func TestSource_IntN(t *testing.T) {
	s := New(999)
	for i := 0; i < 1000; i++ {
		v := s.IntN(5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}
	assert.Equal(t, 0, s.IntN(0))
}

func TestExponential_NonPositiveRate(t *testing.T) {
	s := New(1)
	assert.True(t, math.IsInf(s.Exponential(0), 1))
}
