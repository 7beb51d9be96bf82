// Command clob-simulator connects to the exchange over TCP and drives a
// stochastic liquidity process against it: a mixture of market-maker,
// taker, deep, and noise archetypes inserting and cancelling orders on a
// fixed ~1ms tick, per internal/sim.
//
// Grounded on realmfikri-Limitless/bots' ThrottledClient (a thin owned
// transport wrapping the matching surface) and ejyy-femto_go's client
// dialer for the read-loop/decode-frame shape, adapted to this repo's
// wire framing and single-goroutine simulator design: one reader goroutine
// only ever forwards decoded frames to a channel, every simulator mutation
// and every socket write happens on the tick-driving goroutine.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"clob/internal/config"
	"clob/internal/sim"
	"clob/internal/sim/shadow"
	"clob/internal/wire"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const tickInterval = time.Millisecond

// feedFrame is one decoded inbound frame handed from the reader goroutine
// to the tick loop.
type feedFrame struct {
	t       wire.MessageType
	payload []byte
}

func main() {
	cfg, err := config.ParseSimulator(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("clob-simulator: invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.ExchangeAddress, strconv.Itoa(cfg.ExchangePort))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("address", addr).Msg("clob-simulator: dial failed")
	}
	defer conn.Close()
	log.Info().Str("address", addr).Uint64("seed", cfg.Seed).Msg("clob-simulator: connected")

	feed := make(chan feedFrame, sim.MessagesPerDrain*4)
	go readLoop(conn, feed)

	if err := sendSubscribe(conn, 0); err != nil {
		log.Fatal().Err(err).Msg("clob-simulator: subscribe failed")
	}

	simulator := sim.NewSimulator(cfg.Seed, sim.DefaultConfig())
	drive(ctx, conn, simulator, feed)
}

// drive runs the fixed ~1ms tick loop: drain feedback, fold it into the
// simulator, tick, frame and send whatever actions the tick decided on.
func drive(ctx context.Context, conn net.Conn, s *sim.Simulator, feed <-chan feedFrame) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			drainFeed(s, feed)

			for _, action := range s.Tick(dt) {
				if err := sendAction(conn, action); err != nil {
					log.Error().Err(err).Msg("clob-simulator: send failed")
					return
				}
			}
		}
	}
}

// drainFeed applies up to MessagesPerDrain buffered feedback frames to the
// simulator's state and order manager, matching the spec's bounded-drain
// requirement so one slow tick cannot starve the tick loop under a burst.
func drainFeed(s *sim.Simulator, feed <-chan feedFrame) {
	nowSeconds := float64(time.Now().UnixNano()) / 1e9
	for i := 0; i < sim.MessagesPerDrain; i++ {
		select {
		case f := <-feed:
			applyFeedFrame(s, nowSeconds, f)
		default:
			return
		}
	}
}

func applyFeedFrame(s *sim.Simulator, nowSeconds float64, f feedFrame) {
	switch f.t {
	case wire.TradeEvent:
		p := wire.DecodePayloadTradeEvent(f.payload)
		s.OnTradeEvent(nowSeconds, p.Price, p.Quantity, p.TakerSide == wire.Buy)
	case wire.PriceLevelUpdate:
		p := wire.DecodePayloadPriceLevelUpdate(f.payload)
		s.OnLevelUpdate(nowSeconds, p.Side == wire.Buy, p.Price, p.TotalVolume)
	case wire.ConfirmOrderInserted:
		p := wire.DecodePayloadConfirmOrderInserted(f.payload)
		s.OnConfirmOrderInserted(p.ClientRequestID, p.ExchangeOrderID)
	case wire.ConfirmOrderCancelled:
		p := wire.DecodePayloadConfirmOrderCancelled(f.payload)
		s.OnOrderRemoved(p.ExchangeOrderID)
	case wire.PartialFillOrder:
		p := wire.DecodePayloadPartialFill(f.payload)
		if p.LeavesQuantity == 0 {
			s.OnOrderRemoved(p.ExchangeOrderID)
		}
	case wire.OrderCancelledEvent:
		p := wire.DecodePayloadOrderCancelledEvent(f.payload)
		if p.RemainingQuantity == 0 {
			s.OnOrderRemoved(p.OrderID)
		}
	case wire.ErrorMsg:
		p := wire.DecodePayloadError(f.payload)
		log.Debug().Uint32("client_request_id", p.ClientRequestID).Uint16("code", p.Code).Msg("clob-simulator: request rejected")
	case wire.OrderBookSnapshot:
		applySnapshot(s, nowSeconds, f.payload)
	}
}

func applySnapshot(s *sim.Simulator, nowSeconds float64, payload []byte) {
	p := wire.DecodePayloadOrderBookSnapshot(payload)
	bids := make([]shadow.Level, 0, wire.OrderBookMessageDepth)
	asks := make([]shadow.Level, 0, wire.OrderBookMessageDepth)
	for i := 0; i < wire.OrderBookMessageDepth; i++ {
		if p.BidVolumes[i] > 0 {
			bids = append(bids, shadow.Level{Price: p.BidPrices[i], Volume: p.BidVolumes[i]})
		}
		if p.AskVolumes[i] > 0 {
			asks = append(asks, shadow.Level{Price: p.AskPrices[i], Volume: p.AskVolumes[i]})
		}
	}
	s.OnSnapshot(nowSeconds, asks, bids)
}

func sendAction(conn net.Conn, action sim.Action) error {
	if action.Insert != nil {
		return sendInsert(conn, *action.Insert)
	}
	return sendCancel(conn, *action.Cancel)
}

func sendInsert(conn net.Conn, ins sim.Insert) error {
	payload := wire.PayloadInsertOrder{
		ClientRequestID: ins.ClientRequestID,
		Side:            wire.Side(ins.Side),
		Price:           ins.Price,
		Quantity:        ins.Quantity,
		Lifespan:        wire.Lifespan(ins.Lifespan),
	}
	return writeFrame(conn, wire.InsertOrder, payload)
}

func sendCancel(conn net.Conn, c sim.Cancel) error {
	payload := wire.PayloadCancelOrder{ClientRequestID: c.ClientRequestID, ExchangeOrderID: c.ExchangeOrderID}
	return writeFrame(conn, wire.CancelOrder, payload)
}

func sendSubscribe(conn net.Conn, clientRequestID uint32) error {
	return writeFrame(conn, wire.Subscribe, wire.PayloadSubscribe{ClientRequestID: clientRequestID})
}

type encoder interface {
	Encode(buf []byte)
}

func writeFrame(conn net.Conn, t wire.MessageType, payload encoder) error {
	size := wire.PayloadSizeForType(t)
	buf := make([]byte, wire.HeaderSize+size)
	wire.EncodeHeader(buf, t, uint16(size))
	payload.Encode(buf[wire.HeaderSize:])
	_, err := conn.Write(buf)
	return err
}

// readLoop decodes frames off conn and forwards them to feed until the
// connection closes. The tick loop is the only goroutine that mutates
// simulator state; this goroutine only ever produces feedFrame values.
func readLoop(conn net.Conn, feed chan<- feedFrame) {
	defer close(feed)
	header := make([]byte, wire.HeaderSize)
	for {
		if _, err := readFull(conn, header); err != nil {
			log.Info().Err(err).Msg("clob-simulator: feed closed")
			return
		}
		t, size := wire.DecodeHeader(header)
		payload := make([]byte, size)
		if size > 0 {
			if _, err := readFull(conn, payload); err != nil {
				log.Info().Err(err).Msg("clob-simulator: feed closed mid-payload")
				return
			}
		}
		feed <- feedFrame{t: t, payload: payload}
	}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
