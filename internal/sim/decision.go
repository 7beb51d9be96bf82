package sim

import (
	"math"

	"clob/internal/book"
	"clob/internal/rng"
	"clob/internal/sim/market"
	"clob/internal/sim/shadow"
)

// Archetype is one of the trader profiles the insert decision samples
// from, each weighted differently by the current urgency score.
type Archetype int

const (
	MarketMaker Archetype = iota
	Taker
	Deep
	Noise
)

// Regime is the price-placement strategy chosen conditional on archetype,
// urgency, spread, and book one-sidedness.
type Regime int

const (
	Marketable Regime = iota
	ImproveInSpread
	Passive
)

// typeMult scales an archetype's hazard-threshold draw, so a smaller
// multiplier means an earlier cancellation: market makers requote fast
// (short-lived quotes, small multiplier), deep resting orders are patient
// (large multiplier).
func (a Archetype) typeMult() float64 {
	switch a {
	case MarketMaker:
		return 0.4
	case Taker:
		return 0.67
	case Deep:
		return 3.3
	default: // Noise
		return 1.0
	}
}

// Insert is a decided new order ready to be framed as INSERT_ORDER.
type Insert struct {
	ClientRequestID uint32
	Side            book.Side
	Price           int64
	Quantity        uint32
	Lifespan        uint8 // wire.Lifespan value
	HazardThreshold float64
	Archetype       Archetype
	Regime          Regime
}

// decisionInputs bundles the state the insert decision reads, so it stays
// a pure function of its arguments and is easy to test deterministically.
type decisionInputs struct {
	bestBid, bestAsk int64
	hasBid, hasAsk   bool
	tickSize         int64
	sideScore        float64
	urgency          float64
	volShort         float64
	jumpIntensity    float64
	latentFairValue  float64
	nearBidVolume    float64
	nearAskVolume    float64
	activeOrders     int
	hCum             float64
}

func inputsFromState(s *market.State, b *shadow.Book, mgr *OrderManager, latentFairValue float64, tickSize int64) decisionInputs {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	return decisionInputs{
		bestBid:         bid.Price,
		bestAsk:         ask.Price,
		hasBid:          hasBid,
		hasAsk:          hasAsk,
		tickSize:        tickSize,
		sideScore:       s.SideScore(),
		urgency:         urgencyScore(s),
		volShort:        s.Volatility.RealisedVarianceShort(),
		jumpIntensity:   s.Volatility.JumpIntensity(),
		latentFairValue: latentFairValue,
		nearBidVolume:   s.Liquidity.NearBidVolume,
		nearAskVolume:   s.Liquidity.NearAskVolume,
		activeOrders:    mgr.ActiveCount(),
		hCum:            mgr.HCum(),
	}
}

// urgencyScore combines volatility and flow surprise into a single [0, 5]
// signal that shifts archetype weights toward takers and wider passive
// placement under stress.
func urgencyScore(s *market.State) float64 {
	vol := math.Sqrt(s.Volatility.RealisedVarianceShort())
	surprise := s.Flow.VolumeSurpriseEWMA() / (s.Flow.AbsVolumeEWMA() + epsilonFlow)
	return clamp(2*vol+0.5*surprise+s.Volatility.JumpIntensity(), 0, 5)
}

const epsilonFlow = 1e-9

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// archetypeWeights modulates the base archetype mixture by urgency: higher
// urgency shifts mass toward taker, lower urgency favours deep/market-maker.
func archetypeWeights(urgency float64) []float64 {
	return []float64{
		1.0 + 0.5/(1+urgency),     // MarketMaker: favoured when calm
		0.3 + 1.2*urgency,         // Taker: favoured when urgent
		0.6 + 0.3/(1+urgency),     // Deep: favoured when calm
		0.8,                       // Noise: flat baseline
	}
}

// chooseRegime picks marketable/improve/passive conditional on archetype,
// urgency, spread width in ticks, and how one-sided the book currently is.
func chooseRegime(src rng.Source, a Archetype, urgency float64, spreadTicks int64, oneSidedness float64) Regime {
	marketableW := 0.1
	improveW := 0.3
	passiveW := 0.6

	switch a {
	case Taker:
		marketableW += 0.6 * urgency
	case MarketMaker:
		improveW += 0.4
		passiveW += 0.2
	case Deep:
		passiveW += 0.6
		marketableW *= 0.3
	}

	if spreadTicks <= 1 {
		marketableW += 0.2
	}
	marketableW += 0.3 * math.Abs(oneSidedness)

	idx := src.Categorical([]float64{marketableW, improveW, passiveW})
	return Regime(idx)
}

// priceAnchor blends the relevant best quote toward the latent fair value,
// then stochastically rounds the blend to the nearest tick so the anchor
// does not always land exactly on the quote.
func priceAnchor(src rng.Source, in decisionInputs, isBuy bool) float64 {
	var quote float64
	switch {
	case isBuy && in.hasBid:
		quote = float64(in.bestBid)
	case !isBuy && in.hasAsk:
		quote = float64(in.bestAsk)
	default:
		quote = in.latentFairValue
	}
	blendWeight := 0.7
	anchor := blendWeight*quote + (1-blendWeight)*in.latentFairValue
	return stochasticRound(src, anchor, float64(in.tickSize))
}

func stochasticRound(src rng.Source, x, tick float64) float64 {
	if tick <= 0 {
		tick = 1
	}
	units := x / tick
	floor := math.Floor(units)
	frac := units - floor
	if src.Uniform() < frac {
		floor++
	}
	return floor * tick
}

// displacePrice applies the regime-specific offset from the anchor:
// marketable crosses the spread, improve steps one tick inside it, passive
// sits an exponentially distributed distance back, wider when the spread
// is wide, volatility is elevated, or jump risk is live.
func displacePrice(src rng.Source, in decisionInputs, isBuy bool, regime Regime, anchor float64) int64 {
	tick := float64(in.tickSize)
	switch regime {
	case Marketable:
		if isBuy && in.hasAsk {
			return in.bestAsk
		}
		if !isBuy && in.hasBid {
			return in.bestBid
		}
		return int64(math.Round(anchor))
	case ImproveInSpread:
		if isBuy {
			return int64(math.Round(anchor)) + int64(tick)
		}
		return int64(math.Round(anchor)) - int64(tick)
	default: // Passive
		spread := tick
		if in.hasBid && in.hasAsk {
			spread = float64(in.bestAsk - in.bestBid)
		}
		volRegime := 1 + 3*math.Sqrt(in.volShort)
		jumpBoost := 1 + in.jumpIntensity
		meanTicks := (spread/tick + 1) * volRegime * jumpBoost
		distance := src.Exponential(1 / meanTicks)
		if isBuy {
			return int64(math.Round(anchor)) - int64(math.Round(distance))*int64(tick)
		}
		return int64(math.Round(anchor)) + int64(math.Round(distance))*int64(tick)
	}
}

// sampleQuantity draws a lognormal order size: base size scaled up when
// near-touch depth is thin (liquidity-providing incentive) and when
// urgency/pressure is high, with an occasional large "child" order from a
// heavier-tailed mixture component.
func sampleQuantity(src rng.Source, baseSize float64, in decisionInputs, urgency float64) uint32 {
	nearTotal := in.nearBidVolume + in.nearAskVolume
	depthFactor := 1.0
	if nearTotal > 0 {
		depthFactor = 1 + 2/(1+nearTotal/baseSize)
	}
	pressureFactor := 1 + 0.5*urgency

	mu := math.Log(baseSize * depthFactor * pressureFactor)
	sigma := 0.5
	if src.Uniform() < 0.05 {
		mu += math.Log(5) // occasional large child, ~5x the usual scale
		sigma = 0.8
	}
	q := math.Exp(src.Normal(mu, sigma))
	if q < 1 {
		q = 1
	}
	return uint32(math.Round(q))
}

// hazardThreshold draws H_i = H_cum + m, m = -ln(U)*dist_mult*type_mult*
// adverse_mult: strictly positive since U ∈ (0, 1) and every multiplier is
// positive, and bounded by capping the draw before scaling.
func hazardThreshold(src rng.Source, hCum float64, a Archetype, regime Regime, distanceTicks float64) float64 {
	u := src.Uniform()
	for u <= 0 {
		u = src.Uniform()
	}
	base := -math.Log(u)
	if base > 10 {
		base = 10 // bounded: caps the rare extreme draw from the log tail
	}

	distMult := 1 + 0.1*distanceTicks
	typeMult := a.typeMult()
	adverseMult := 1.0
	if regime == Marketable {
		adverseMult = 0.5 // marketable fills are expected to leave quickly anyway
	}

	return hCum + base*distMult*typeMult*adverseMult
}

// Decide produces one insert decision from the current aggregated state.
// b is the simulator's shadow book, the authoritative source of best
// bid/ask. clientRequestID is supplied by the caller, which owns the
// monotonic counter shared with cancellations.
func Decide(src rng.Source, s *market.State, b *shadow.Book, mgr *OrderManager, latentFairValue float64, tickSize int64, baseSize float64, clientRequestID uint32) Insert {
	in := inputsFromState(s, b, mgr, latentFairValue, tickSize)

	buyProbability := clamp(0.5+0.35*math.Tanh(in.sideScore), 0, 1)
	isBuy := src.Uniform() < buyProbability

	weights := archetypeWeights(in.urgency)
	archetype := Archetype(src.Categorical(weights))

	spreadTicks := int64(1)
	if in.hasBid && in.hasAsk {
		spreadTicks = (in.bestAsk - in.bestBid) / tickSize
		if spreadTicks < 1 {
			spreadTicks = 1
		}
	}
	oneSidedness := s.Liquidity.NearTouchImbalance()
	regime := chooseRegime(src, archetype, in.urgency, spreadTicks, oneSidedness)

	anchor := priceAnchor(src, in, isBuy)
	price := displacePrice(src, in, isBuy, regime, anchor)
	if price < book.MinBid {
		price = book.MinBid
	}
	if price > book.MaxAsk {
		price = book.MaxAsk
	}

	distanceTicks := math.Abs(float64(price)-anchor) / float64(tickSize)
	quantity := sampleQuantity(src, baseSize, in, in.urgency)
	threshold := hazardThreshold(src, in.hCum, archetype, regime, distanceTicks)

	side := book.Sell
	if isBuy {
		side = book.Buy
	}
	lifespan := uint8(1) // GoodForDay: the simulator always rests unless it crosses
	if regime == Marketable {
		lifespan = 0 // FillAndKill: marketable intent should not leave a stray resting child
	}

	return Insert{
		ClientRequestID: clientRequestID,
		Side:            side,
		Price:           price,
		Quantity:        quantity,
		Lifespan:        lifespan,
		HazardThreshold: threshold,
		Archetype:       archetype,
		Regime:          regime,
	}
}
