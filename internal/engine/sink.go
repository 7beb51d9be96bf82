package engine

import (
	"clob/internal/book"
	"clob/internal/eventlog"
	"clob/internal/wire"

	"github.com/rs/zerolog/log"
)

// Engine implements book.Sink: every book mutation arrives here on the
// dispatch goroutine and is translated into wire confirmations sent to the
// originator and market-data events broadcast to subscribers, in that
// order, per the spec's fanout ordering guarantee.
var _ book.Sink = (*Engine)(nil)

func (e *Engine) send(clientID uint32, t wire.MessageType, payload []byte) {
	e.tee(t, payload)
	session, ok := e.bus.SessionByID(clientID)
	if !ok {
		return
	}
	if err := session.Send(t, payload); err != nil {
		log.Debug().Err(err).Uint32("client_id", clientID).Msg("engine: send failed")
	}
}

func (e *Engine) broadcast(t wire.MessageType, payload []byte) {
	e.tee(t, payload)
	ids := e.subscriberIDs()
	if len(ids) == 0 {
		return
	}
	e.bus.Broadcast(ids, t, payload)
}

// tee appends the frame to the optional event log, if one was set via
// SetEventLog. Persisted state is off by default, per the spec.
func (e *Engine) tee(t wire.MessageType, payload []byte) {
	if e.eventLog == nil {
		return
	}
	if err := e.eventLog.Append(t, payload); err != nil {
		log.Warn().Err(err).Msg("engine: event log append failed")
	}
}

// SetEventLog wires an optional persisted-event sink. Nil disables it,
// the default.
func (e *Engine) SetEventLog(w *eventlog.Writer) {
	e.eventLog = w
}

// OnTrade reports the trade to both the maker and the taker via
// PARTIAL_FILL_ORDER, and broadcasts one TRADE_EVENT to subscribers.
func (e *Engine) OnTrade(maker book.OrderInfo, takerClientID, takerOrderID uint32, price int64, takerRemaining, takerCumulative, tradedQuantity uint32, timestamp uint64) {
	tradeID := e.nextTradeID()

	makerFill := wire.PayloadPartialFill{
		ExchangeOrderID:    maker.OrderID,
		TradeID:            tradeID,
		LastPrice:          price,
		LastQuantity:       tradedQuantity,
		LeavesQuantity:     maker.Remaining,
		CumulativeQuantity: maker.Cumulative,
		Timestamp:          timestamp,
	}
	buf := make([]byte, wire.PayloadSizeForType(wire.PartialFillOrder))
	makerFill.Encode(buf)
	e.send(maker.ClientID, wire.PartialFillOrder, buf)

	takerFill := wire.PayloadPartialFill{
		ExchangeOrderID:    takerOrderID,
		TradeID:            tradeID,
		LastPrice:          price,
		LastQuantity:       tradedQuantity,
		LeavesQuantity:     takerRemaining,
		CumulativeQuantity: takerCumulative,
		Timestamp:          timestamp,
	}
	buf2 := make([]byte, wire.PayloadSizeForType(wire.PartialFillOrder))
	takerFill.Encode(buf2)
	e.send(takerClientID, wire.PartialFillOrder, buf2)

	event := wire.PayloadTradeEvent{
		SequenceNumber: e.nextSequence(),
		TradeID:        tradeID,
		Price:          price,
		Quantity:       tradedQuantity,
		TakerSide:      oppositeWireSide(maker.Side),
		Timestamp:      timestamp,
	}
	ebuf := make([]byte, wire.PayloadSizeForType(wire.TradeEvent))
	event.Encode(ebuf)
	e.broadcast(wire.TradeEvent, ebuf)
}

// OnOrderInserted confirms the residual rest to its owner and broadcasts
// ORDER_INSERTED_EVENT to subscribers.
func (e *Engine) OnOrderInserted(clientRequestID uint32, o book.OrderInfo, timestamp uint64) {
	confirm := wire.PayloadConfirmOrderInserted{
		ClientRequestID: clientRequestID,
		ExchangeOrderID: o.OrderID,
		Side:            wire.Side(o.Side),
		Price:           o.Price,
		TotalQuantity:   o.Quantity,
		LeavesQuantity:  o.Remaining,
		Timestamp:       timestamp,
	}
	buf := make([]byte, wire.PayloadSizeForType(wire.ConfirmOrderInserted))
	confirm.Encode(buf)
	e.send(o.ClientID, wire.ConfirmOrderInserted, buf)

	event := wire.PayloadOrderInsertedEvent{
		SequenceNumber: e.nextSequence(),
		OrderID:        o.OrderID,
		Side:           wire.Side(o.Side),
		Price:          o.Price,
		Quantity:       o.Remaining,
		Timestamp:      timestamp,
	}
	ebuf := make([]byte, wire.PayloadSizeForType(wire.OrderInsertedEvent))
	event.Encode(ebuf)
	e.broadcast(wire.OrderInsertedEvent, ebuf)
}

// OnOrderCancelled confirms the cancel to its owner and broadcasts
// ORDER_CANCELLED_EVENT.
func (e *Engine) OnOrderCancelled(clientRequestID uint32, o book.OrderInfo, timestamp uint64) {
	confirm := wire.PayloadConfirmOrderCancelled{
		ClientRequestID: clientRequestID,
		ExchangeOrderID: o.OrderID,
		LeavesQuantity:  o.Remaining,
		Price:           o.Price,
		Side:            wire.Side(o.Side),
		Timestamp:       timestamp,
	}
	buf := make([]byte, wire.PayloadSizeForType(wire.ConfirmOrderCancelled))
	confirm.Encode(buf)
	e.send(o.ClientID, wire.ConfirmOrderCancelled, buf)

	event := wire.PayloadOrderCancelledEvent{
		SequenceNumber:    e.nextSequence(),
		OrderID:           o.OrderID,
		RemainingQuantity: o.Remaining,
		Timestamp:         timestamp,
	}
	ebuf := make([]byte, wire.PayloadSizeForType(wire.OrderCancelledEvent))
	event.Encode(ebuf)
	e.broadcast(wire.OrderCancelledEvent, ebuf)
}

// OnOrderAmended confirms the amend to its owner and broadcasts
// ORDER_AMENDED_EVENT.
func (e *Engine) OnOrderAmended(clientRequestID uint32, oldTotalQuantity uint32, o book.OrderInfo, timestamp uint64) {
	confirm := wire.PayloadConfirmOrderAmended{
		ClientRequestID:  clientRequestID,
		ExchangeOrderID:  o.OrderID,
		OldTotalQuantity: oldTotalQuantity,
		NewTotalQuantity: o.Quantity,
		LeavesQuantity:   o.Remaining,
		Timestamp:        timestamp,
	}
	buf := make([]byte, wire.PayloadSizeForType(wire.ConfirmOrderAmended))
	confirm.Encode(buf)
	e.send(o.ClientID, wire.ConfirmOrderAmended, buf)

	event := wire.PayloadOrderAmendedEvent{
		SequenceNumber: e.nextSequence(),
		OrderID:        o.OrderID,
		QuantityNew:    o.Quantity,
		QuantityOld:    oldTotalQuantity,
		Timestamp:      timestamp,
	}
	ebuf := make([]byte, wire.PayloadSizeForType(wire.OrderAmendedEvent))
	event.Encode(ebuf)
	e.broadcast(wire.OrderAmendedEvent, ebuf)
}

// OnLevelUpdate broadcasts PRICE_LEVEL_UPDATE to subscribers whenever a
// level's aggregate volume changes.
func (e *Engine) OnLevelUpdate(l book.LevelInfo, timestamp uint64) {
	event := wire.PayloadPriceLevelUpdate{
		SequenceNumber: e.nextSequence(),
		Side:           wire.Side(l.Side),
		Price:          l.Price,
		TotalVolume:    l.TotalQuantity,
		Timestamp:      timestamp,
	}
	buf := make([]byte, wire.PayloadSizeForType(wire.PriceLevelUpdate))
	event.Encode(buf)
	e.broadcast(wire.PriceLevelUpdate, buf)
}

// OnError forwards a request-scoped failure to its originator only.
func (e *Engine) OnError(clientID, clientRequestID uint32, code uint16, message string, timestamp uint64) {
	e.sendError(clientID, clientRequestID, code, message, timestamp)
}

func oppositeWireSide(makerSide book.Side) wire.Side {
	if makerSide == book.Buy {
		return wire.Sell
	}
	return wire.Buy
}

func (e *Engine) nextTradeID() uint32 {
	e.tradeSeq++
	return e.tradeSeq
}
