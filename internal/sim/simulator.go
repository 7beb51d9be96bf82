// Package sim implements the liquidity simulator: a tick-driven process
// that reads TRADE_EVENT/PRICE_LEVEL_UPDATE/confirmation feedback from the
// exchange, folds it into a market.State aggregator and a sim/shadow.Book
// mirror of resting depth, and decides what INSERT_ORDER/CANCEL_ORDER
// frames to emit next. market.State owns volatility, flow, and bucketed
// liquidity; shadow.Book owns the authoritative best-bid/ask and full
// depth, since only a full ordered view can recover the next-best price
// once the touch empties.
//
// Grounded structurally on realmfikri-Limitless/bots (Supervisor driving
// multiple Bots against a shared EngineClient via a time.Ticker-throttled
// loop, RandomBidBot's per-order cancelAfter timer); the spec's
// hazard-threshold scheme replaces each bot's fixed per-order Lifetime
// timer with one shared cumulative-hazard clock (OrderManager), and the
// Supervisor's fixed bot roster collapses into one archetype-mixture
// insert stream sampled fresh every tick instead of running as separate
// goroutines.
//
// The accuracy bound called out in the spec's open questions is accepted
// as-is: H_cum only advances at Advance() call boundaries (once per tick),
// not continuously, so a cancellation that becomes due mid-tick fires up
// to one tick late.
package sim

import (
	"clob/internal/rng"
	"clob/internal/sim/market"
	"clob/internal/sim/shadow"
)

// MessagesPerDrain bounds how many inbound feed messages the caller's tick
// loop should drain before calling Tick, so one slow tick cannot starve
// the simulator's own drive loop under a message burst.
const MessagesPerDrain = 256

// refoldDepth bounds how many levels per side RefoldLiquidity walks out of
// the shadow book. The shadow book can accumulate more depth than the
// wire's own OrderBookMessageDepth over a run of incremental updates; this
// keeps the bucket refold bounded regardless.
const refoldDepth = 32

// Config holds the simulator's tunable parameters. Defaults are sized for
// a single-instrument book with MIN_BID=1..MAX_ASK=10000 and a 1-tick
// price granularity.
type Config struct {
	TickSizeTicks     int64
	BaseOrderSize     float64
	BaseInsertRate    float64 // orders/sec at baseline conditions
	BaseCancelRate    float64 // hazard units/sec at baseline conditions
	MaxIntensityMult  float64
	MinIntensityMult  float64
	FairValueVol      float64 // stddev of the latent fair value's per-second random walk
}

// DefaultConfig returns reasonable defaults for a thinly-traded simulated
// single-instrument book.
func DefaultConfig() Config {
	return Config{
		TickSizeTicks:    1,
		BaseOrderSize:    10,
		BaseInsertRate:   20,
		BaseCancelRate:   5,
		MaxIntensityMult: 4,
		MinIntensityMult: 0.1,
		FairValueVol:     0.05,
	}
}

// Simulator is the single-goroutine driver: Tick is the only entry point
// that mutates decision state, mirroring the exchange engine's own
// single-writer design.
type Simulator struct {
	cfg    Config
	src    rng.Source
	state  *market.State
	shadow *shadow.Book
	mgr    *OrderManager

	latentFairValue float64
	haveFairValue   bool
	nextClientReqID uint32
}

// NewSimulator seeds a simulator deterministically from seed, so a test or
// replay run is fully reproducible.
func NewSimulator(seed uint64, cfg Config) *Simulator {
	return &Simulator{
		cfg:             cfg,
		src:             rng.New(seed),
		state:           market.NewState(8, 10, 1.0),
		shadow:          shadow.New(),
		mgr:             NewOrderManager(),
		nextClientReqID: 1,
	}
}

// State exposes the underlying aggregator, mainly for tests.
func (s *Simulator) State() *market.State { return s.state }

// Shadow exposes the simulator's mirror of the exchange's resting depth,
// the authoritative source for best bid/ask and full-book queries.
func (s *Simulator) Shadow() *shadow.Book { return s.shadow }

// Manager exposes the order manager, mainly for tests.
func (s *Simulator) Manager() *OrderManager { return s.mgr }

func (s *Simulator) allocClientRequestID() uint32 {
	id := s.nextClientReqID
	s.nextClientReqID++
	return id
}

// OnTradeEvent folds an exchange trade print into market state. The first
// print seeds the latent fair value; later prints do not move it (it
// drifts only through walkFairValue).
func (s *Simulator) OnTradeEvent(nowSeconds float64, price int64, quantity uint32, takerIsBuy bool) {
	s.state.OnTradeEvent(nowSeconds, price, quantity, takerIsBuy)
	if !s.haveFairValue {
		s.latentFairValue = float64(price)
		s.haveFairValue = true
	}
}

// OnLevelUpdate folds a resting-depth change into the shadow book (the
// authoritative view of resting depth) and advances elapsed time. Full
// bucket refolding (for LiquidityState) happens separately via
// RefoldLiquidity, since one level update alone cannot recompute
// volume-weighted distance moments across the whole book.
func (s *Simulator) OnLevelUpdate(nowSeconds float64, isBid bool, price int64, volume uint32) {
	s.state.OnLevelUpdate(nowSeconds)
	s.shadow.ApplyLevelUpdate(isBid, price, volume)
}

// OnSnapshot loads an ORDER_BOOK_SNAPSHOT wholesale into the shadow book,
// replacing both sides, then refolds the bucketed liquidity metrics from
// the freshly loaded depth.
func (s *Simulator) OnSnapshot(nowSeconds float64, asks, bids []shadow.Level) {
	s.state.OnLevelUpdate(nowSeconds)
	s.shadow.LoadSnapshot(asks, bids)
	s.RefoldLiquidity()
}

// RefoldLiquidity rebuilds the bucketed depth metrics from the shadow
// book's current resting levels on both sides.
func (s *Simulator) RefoldLiquidity() {
	s.state.Liquidity.Reset()
	touch, ok := s.touchPrice()
	if !ok {
		return
	}
	for _, l := range s.shadow.Depth(true, refoldDepth) {
		s.state.Liquidity.AddLevel(true, touch, l.Price, l.Volume)
	}
	for _, l := range s.shadow.Depth(false, refoldDepth) {
		s.state.Liquidity.AddLevel(false, touch, l.Price, l.Volume)
	}
}

func (s *Simulator) touchPrice() (int64, bool) {
	mid, ok := s.shadow.Mid()
	if ok {
		return int64(mid), true
	}
	if bid, ok := s.shadow.BestBid(); ok {
		return bid.Price, true
	}
	if ask, ok := s.shadow.BestAsk(); ok {
		return ask.Price, true
	}
	return 0, false
}

// OnConfirmOrderInserted translates a pending insert into a scheduled,
// active order.
func (s *Simulator) OnConfirmOrderInserted(clientRequestID, exchangeOrderID uint32) {
	s.mgr.ConfirmInsert(clientRequestID, exchangeOrderID)
}

// OnOrderRemoved drops an order from the active set on cancel-ack or full
// fill, so a stale hazard-heap entry for it is ignored when it fires.
func (s *Simulator) OnOrderRemoved(exchangeOrderID uint32) {
	s.mgr.Remove(exchangeOrderID)
}

// walkFairValue advances the latent fair value by a small random walk
// step, so passive-regime anchors drift independently of the last trade.
func (s *Simulator) walkFairValue(dtSeconds float64) {
	if !s.haveFairValue {
		return
	}
	step := s.src.Normal(0, s.cfg.FairValueVol*dtSeconds)
	s.latentFairValue += step
}

// intensities computes the bounded multiplicative lambda_insert and
// lambda_cancel for the current tick, per spec §4.7: functions of flow,
// volatility, near-touch thinness, and open-order count.
func (s *Simulator) intensities() (lambdaInsert, lambdaCancel float64) {
	vol := s.state.Volatility.RealisedVarianceShort()
	flowPressure := 1 + 2*absf(s.state.Flow.FlowImbalance())
	volMult := 1 + 5*vol
	thinness := 1.0
	near := s.state.Liquidity.NearBidVolume + s.state.Liquidity.NearAskVolume
	if near > 0 {
		thinness = 1 + s.cfg.BaseOrderSize/near
	} else {
		thinness = 2
	}

	insertMult := clamp(flowPressure*volMult*thinness, s.cfg.MinIntensityMult, s.cfg.MaxIntensityMult)
	lambdaInsert = s.cfg.BaseInsertRate * insertMult

	openOrders := float64(s.mgr.ActiveCount())
	cancelMult := clamp(volMult*(1+openOrders/20), s.cfg.MinIntensityMult, s.cfg.MaxIntensityMult)
	lambdaCancel = s.cfg.BaseCancelRate * cancelMult
	return lambdaInsert, lambdaCancel
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Action is one outbound decision for the tick loop's caller to frame and
// send: either an insert or a cancel.
type Action struct {
	Insert *Insert
	Cancel *Cancel
}

// Cancel is a decided cancellation of one of the simulator's own resting
// orders.
type Cancel struct {
	ClientRequestID uint32
	ExchangeOrderID uint32
}

// Tick advances the simulator by dtSeconds of simulated time: recomputes
// intensities, samples a Poisson insert count, generates that many insert
// decisions, advances the hazard clock, and emits cancellations for orders
// that became due. The caller is responsible for framing and sending each
// returned Action and for calling RegisterPendingInsert's effects back in
// via OnConfirmOrderInserted once the exchange replies.
func (s *Simulator) Tick(dtSeconds float64) []Action {
	s.walkFairValue(dtSeconds)
	lambdaInsert, lambdaCancel := s.intensities()

	k := s.src.Poisson(lambdaInsert * dtSeconds)
	actions := make([]Action, 0, k+4)
	for i := 0; i < k; i++ {
		clientRequestID := s.allocClientRequestID()
		insert := Decide(s.src, s.state, s.shadow, s.mgr, s.latentFairValue, s.cfg.TickSizeTicks, s.cfg.BaseOrderSize, clientRequestID)
		s.mgr.RegisterPendingInsert(clientRequestID, insert.HazardThreshold)
		ins := insert
		actions = append(actions, Action{Insert: &ins})
	}

	for _, orderID := range s.mgr.Advance(dtSeconds, lambdaCancel) {
		clientRequestID := s.allocClientRequestID()
		actions = append(actions, Action{Cancel: &Cancel{ClientRequestID: clientRequestID, ExchangeOrderID: orderID}})
	}

	return actions
}
