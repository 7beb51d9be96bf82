package wire

import "encoding/binary"

// Fixed encoded sizes, little-endian scalars, matching
// original_source/src/protocol.hpp field-for-field.
const (
	disconnectSize            = 4
	insertOrderSize           = 4 + 1 + 8 + 4 + 1
	cancelOrderSize           = 4 + 4
	amendOrderSize            = 4 + 4 + 4
	subscribeSize             = 4
	unsubscribeSize           = 4
	orderStatusRequestSize    = 4 + 4
	errorSize                 = 4 + 2 + ErrorTextLen + 8
	confirmOrderInsertedSize  = 4 + 4 + 1 + 8 + 4 + 4 + 8
	confirmOrderCancelledSize = 4 + 4 + 4 + 8 + 1 + 8
	confirmOrderAmendedSize   = 4 + 4 + 4 + 4 + 4 + 8
	partialFillSize           = 4 + 4 + 8 + 4 + 4 + 4 + 8
	orderStatusSize           = 4 + 4 + 1 + 8 + 8 + 4 + 4 + 4 + 8
	orderBookSnapshotSize     = 8*OrderBookMessageDepth + 4*OrderBookMessageDepth + 8*OrderBookMessageDepth + 4*OrderBookMessageDepth + 4
	tradeEventSize            = 4 + 4 + 8 + 4 + 1 + 8
	orderInsertedEventSize    = 4 + 4 + 1 + 8 + 4 + 8
	orderCancelledEventSize   = 4 + 4 + 4 + 8
	orderAmendedEventSize     = 4 + 4 + 4 + 4 + 8
	priceLevelUpdateSize      = 4 + 1 + 8 + 4 + 8
)

// PayloadDisconnect carries the requester's correlation id for an
// explicit client-initiated disconnect.
type PayloadDisconnect struct {
	ClientRequestID uint32
}

func (p PayloadDisconnect) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
}

func DecodePayloadDisconnect(buf []byte) PayloadDisconnect {
	return PayloadDisconnect{ClientRequestID: binary.LittleEndian.Uint32(buf[0:4])}
}

// PayloadInsertOrder requests a new limit order.
type PayloadInsertOrder struct {
	ClientRequestID uint32
	Side            Side
	Price           int64
	Quantity        uint32
	Lifespan        Lifespan
}

func (p PayloadInsertOrder) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	buf[4] = byte(p.Side)
	binary.LittleEndian.PutUint64(buf[5:13], uint64(p.Price))
	binary.LittleEndian.PutUint32(buf[13:17], p.Quantity)
	buf[17] = byte(p.Lifespan)
}

func DecodePayloadInsertOrder(buf []byte) PayloadInsertOrder {
	return PayloadInsertOrder{
		ClientRequestID: binary.LittleEndian.Uint32(buf[0:4]),
		Side:            Side(buf[4]),
		Price:           int64(binary.LittleEndian.Uint64(buf[5:13])),
		Quantity:        binary.LittleEndian.Uint32(buf[13:17]),
		Lifespan:        Lifespan(buf[17]),
	}
}

// PayloadCancelOrder requests cancellation of a resting order.
type PayloadCancelOrder struct {
	ClientRequestID uint32
	ExchangeOrderID uint32
}

func (p PayloadCancelOrder) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint32(buf[4:8], p.ExchangeOrderID)
}

func DecodePayloadCancelOrder(buf []byte) PayloadCancelOrder {
	return PayloadCancelOrder{
		ClientRequestID: binary.LittleEndian.Uint32(buf[0:4]),
		ExchangeOrderID: binary.LittleEndian.Uint32(buf[4:8]),
	}
}

// PayloadAmendOrder requests a quantity change on a resting order.
type PayloadAmendOrder struct {
	ClientRequestID  uint32
	ExchangeOrderID  uint32
	NewTotalQuantity uint32
}

func (p PayloadAmendOrder) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint32(buf[4:8], p.ExchangeOrderID)
	binary.LittleEndian.PutUint32(buf[8:12], p.NewTotalQuantity)
}

func DecodePayloadAmendOrder(buf []byte) PayloadAmendOrder {
	return PayloadAmendOrder{
		ClientRequestID:  binary.LittleEndian.Uint32(buf[0:4]),
		ExchangeOrderID:  binary.LittleEndian.Uint32(buf[4:8]),
		NewTotalQuantity: binary.LittleEndian.Uint32(buf[8:12]),
	}
}

// PayloadSubscribe requests market-data delivery for the session.
type PayloadSubscribe struct {
	ClientRequestID uint32
}

func (p PayloadSubscribe) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
}

func DecodePayloadSubscribe(buf []byte) PayloadSubscribe {
	return PayloadSubscribe{ClientRequestID: binary.LittleEndian.Uint32(buf[0:4])}
}

// PayloadUnsubscribe cancels market-data delivery for the session.
type PayloadUnsubscribe struct {
	ClientRequestID uint32
}

func (p PayloadUnsubscribe) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
}

func DecodePayloadUnsubscribe(buf []byte) PayloadUnsubscribe {
	return PayloadUnsubscribe{ClientRequestID: binary.LittleEndian.Uint32(buf[0:4])}
}

// PayloadOrderStatusRequest asks for the current state of one order.
type PayloadOrderStatusRequest struct {
	ClientRequestID uint32
	ExchangeOrderID uint32
}

func (p PayloadOrderStatusRequest) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint32(buf[4:8], p.ExchangeOrderID)
}

func DecodePayloadOrderStatusRequest(buf []byte) PayloadOrderStatusRequest {
	return PayloadOrderStatusRequest{
		ClientRequestID: binary.LittleEndian.Uint32(buf[0:4]),
		ExchangeOrderID: binary.LittleEndian.Uint32(buf[4:8]),
	}
}

// PayloadError reports a request-scoped failure back to its originator.
type PayloadError struct {
	ClientRequestID uint32
	Code            uint16
	Message         string
	Timestamp       uint64
}

func (p PayloadError) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint16(buf[4:6], p.Code)
	var msg [ErrorTextLen]byte
	n := copy(msg[:], p.Message)
	_ = n
	copy(buf[6:6+ErrorTextLen], msg[:])
	binary.LittleEndian.PutUint64(buf[6+ErrorTextLen:6+ErrorTextLen+8], p.Timestamp)
}

func DecodePayloadError(buf []byte) PayloadError {
	raw := buf[6 : 6+ErrorTextLen]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return PayloadError{
		ClientRequestID: binary.LittleEndian.Uint32(buf[0:4]),
		Code:            binary.LittleEndian.Uint16(buf[4:6]),
		Message:         string(raw[:n]),
		Timestamp:       binary.LittleEndian.Uint64(buf[6+ErrorTextLen : 6+ErrorTextLen+8]),
	}
}

// PayloadConfirmOrderInserted confirms a successful insert to its owner.
type PayloadConfirmOrderInserted struct {
	ClientRequestID uint32
	ExchangeOrderID uint32
	Side            Side
	Price           int64
	TotalQuantity   uint32
	LeavesQuantity  uint32
	Timestamp       uint64
}

func (p PayloadConfirmOrderInserted) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint32(buf[4:8], p.ExchangeOrderID)
	buf[8] = byte(p.Side)
	binary.LittleEndian.PutUint64(buf[9:17], uint64(p.Price))
	binary.LittleEndian.PutUint32(buf[17:21], p.TotalQuantity)
	binary.LittleEndian.PutUint32(buf[21:25], p.LeavesQuantity)
	binary.LittleEndian.PutUint64(buf[25:33], p.Timestamp)
}

func DecodePayloadConfirmOrderInserted(buf []byte) PayloadConfirmOrderInserted {
	return PayloadConfirmOrderInserted{
		ClientRequestID: binary.LittleEndian.Uint32(buf[0:4]),
		ExchangeOrderID: binary.LittleEndian.Uint32(buf[4:8]),
		Side:            Side(buf[8]),
		Price:           int64(binary.LittleEndian.Uint64(buf[9:17])),
		TotalQuantity:   binary.LittleEndian.Uint32(buf[17:21]),
		LeavesQuantity:  binary.LittleEndian.Uint32(buf[21:25]),
		Timestamp:       binary.LittleEndian.Uint64(buf[25:33]),
	}
}

// PayloadConfirmOrderCancelled confirms a successful cancel to its owner.
type PayloadConfirmOrderCancelled struct {
	ClientRequestID uint32
	ExchangeOrderID uint32
	LeavesQuantity  uint32
	Price           int64
	Side            Side
	Timestamp       uint64
}

func (p PayloadConfirmOrderCancelled) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint32(buf[4:8], p.ExchangeOrderID)
	binary.LittleEndian.PutUint32(buf[8:12], p.LeavesQuantity)
	binary.LittleEndian.PutUint64(buf[12:20], uint64(p.Price))
	buf[20] = byte(p.Side)
	binary.LittleEndian.PutUint64(buf[21:29], p.Timestamp)
}

func DecodePayloadConfirmOrderCancelled(buf []byte) PayloadConfirmOrderCancelled {
	return PayloadConfirmOrderCancelled{
		ClientRequestID: binary.LittleEndian.Uint32(buf[0:4]),
		ExchangeOrderID: binary.LittleEndian.Uint32(buf[4:8]),
		LeavesQuantity:  binary.LittleEndian.Uint32(buf[8:12]),
		Price:           int64(binary.LittleEndian.Uint64(buf[12:20])),
		Side:            Side(buf[20]),
		Timestamp:       binary.LittleEndian.Uint64(buf[21:29]),
	}
}

// PayloadConfirmOrderAmended confirms a successful amend to its owner.
type PayloadConfirmOrderAmended struct {
	ClientRequestID  uint32
	ExchangeOrderID  uint32
	OldTotalQuantity uint32
	NewTotalQuantity uint32
	LeavesQuantity   uint32
	Timestamp        uint64
}

func (p PayloadConfirmOrderAmended) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint32(buf[4:8], p.ExchangeOrderID)
	binary.LittleEndian.PutUint32(buf[8:12], p.OldTotalQuantity)
	binary.LittleEndian.PutUint32(buf[12:16], p.NewTotalQuantity)
	binary.LittleEndian.PutUint32(buf[16:20], p.LeavesQuantity)
	binary.LittleEndian.PutUint64(buf[20:28], p.Timestamp)
}

func DecodePayloadConfirmOrderAmended(buf []byte) PayloadConfirmOrderAmended {
	return PayloadConfirmOrderAmended{
		ClientRequestID:  binary.LittleEndian.Uint32(buf[0:4]),
		ExchangeOrderID:  binary.LittleEndian.Uint32(buf[4:8]),
		OldTotalQuantity: binary.LittleEndian.Uint32(buf[8:12]),
		NewTotalQuantity: binary.LittleEndian.Uint32(buf[12:16]),
		LeavesQuantity:   binary.LittleEndian.Uint32(buf[16:20]),
		Timestamp:        binary.LittleEndian.Uint64(buf[20:28]),
	}
}

// PayloadPartialFill reports one side of a trade to a participant (maker or
// taker); the engine sends one instance to each party.
type PayloadPartialFill struct {
	ExchangeOrderID    uint32
	TradeID            uint32
	LastPrice          int64
	LastQuantity       uint32
	LeavesQuantity     uint32
	CumulativeQuantity uint32
	Timestamp          uint64
}

func (p PayloadPartialFill) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ExchangeOrderID)
	binary.LittleEndian.PutUint32(buf[4:8], p.TradeID)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.LastPrice))
	binary.LittleEndian.PutUint32(buf[16:20], p.LastQuantity)
	binary.LittleEndian.PutUint32(buf[20:24], p.LeavesQuantity)
	binary.LittleEndian.PutUint32(buf[24:28], p.CumulativeQuantity)
	binary.LittleEndian.PutUint64(buf[28:36], p.Timestamp)
}

func DecodePayloadPartialFill(buf []byte) PayloadPartialFill {
	return PayloadPartialFill{
		ExchangeOrderID:    binary.LittleEndian.Uint32(buf[0:4]),
		TradeID:            binary.LittleEndian.Uint32(buf[4:8]),
		LastPrice:          int64(binary.LittleEndian.Uint64(buf[8:16])),
		LastQuantity:       binary.LittleEndian.Uint32(buf[16:20]),
		LeavesQuantity:     binary.LittleEndian.Uint32(buf[20:24]),
		CumulativeQuantity: binary.LittleEndian.Uint32(buf[24:28]),
		Timestamp:          binary.LittleEndian.Uint64(buf[28:36]),
	}
}

// PayloadOrderStatus answers an ORDER_STATUS_REQUEST.
type PayloadOrderStatus struct {
	ClientRequestID uint32
	ExchangeOrderID uint32
	Side            Side
	LimitPrice      int64
	LastPrice       int64
	TotalQuantity   uint32
	FilledQuantity  uint32
	LeavesQuantity  uint32
	Timestamp       uint64
}

func (p PayloadOrderStatus) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.ClientRequestID)
	binary.LittleEndian.PutUint32(buf[4:8], p.ExchangeOrderID)
	buf[8] = byte(p.Side)
	binary.LittleEndian.PutUint64(buf[9:17], uint64(p.LimitPrice))
	binary.LittleEndian.PutUint64(buf[17:25], uint64(p.LastPrice))
	binary.LittleEndian.PutUint32(buf[25:29], p.TotalQuantity)
	binary.LittleEndian.PutUint32(buf[29:33], p.FilledQuantity)
	binary.LittleEndian.PutUint32(buf[33:37], p.LeavesQuantity)
	binary.LittleEndian.PutUint64(buf[37:45], p.Timestamp)
}

func DecodePayloadOrderStatus(buf []byte) PayloadOrderStatus {
	return PayloadOrderStatus{
		ClientRequestID: binary.LittleEndian.Uint32(buf[0:4]),
		ExchangeOrderID: binary.LittleEndian.Uint32(buf[4:8]),
		Side:            Side(buf[8]),
		LimitPrice:      int64(binary.LittleEndian.Uint64(buf[9:17])),
		LastPrice:       int64(binary.LittleEndian.Uint64(buf[17:25])),
		TotalQuantity:   binary.LittleEndian.Uint32(buf[25:29]),
		FilledQuantity:  binary.LittleEndian.Uint32(buf[29:33]),
		LeavesQuantity:  binary.LittleEndian.Uint32(buf[33:37]),
		Timestamp:       binary.LittleEndian.Uint64(buf[37:45]),
	}
}

// PayloadOrderBookSnapshot carries up to OrderBookMessageDepth levels per
// side. Unused trailing slots are zero (price 0, volume 0).
type PayloadOrderBookSnapshot struct {
	AskPrices      [OrderBookMessageDepth]int64
	AskVolumes     [OrderBookMessageDepth]uint32
	BidPrices      [OrderBookMessageDepth]int64
	BidVolumes     [OrderBookMessageDepth]uint32
	SequenceNumber uint32
}

func (p PayloadOrderBookSnapshot) Encode(buf []byte) {
	off := 0
	for i := 0; i < OrderBookMessageDepth; i++ {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.AskPrices[i]))
		off += 8
	}
	for i := 0; i < OrderBookMessageDepth; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], p.AskVolumes[i])
		off += 4
	}
	for i := 0; i < OrderBookMessageDepth; i++ {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.BidPrices[i]))
		off += 8
	}
	for i := 0; i < OrderBookMessageDepth; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], p.BidVolumes[i])
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], p.SequenceNumber)
}

func DecodePayloadOrderBookSnapshot(buf []byte) PayloadOrderBookSnapshot {
	var p PayloadOrderBookSnapshot
	off := 0
	for i := 0; i < OrderBookMessageDepth; i++ {
		p.AskPrices[i] = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	for i := 0; i < OrderBookMessageDepth; i++ {
		p.AskVolumes[i] = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
	}
	for i := 0; i < OrderBookMessageDepth; i++ {
		p.BidPrices[i] = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	for i := 0; i < OrderBookMessageDepth; i++ {
		p.BidVolumes[i] = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
	}
	p.SequenceNumber = binary.LittleEndian.Uint32(buf[off : off+4])
	return p
}

// PayloadTradeEvent is broadcast to market-data subscribers on every trade.
type PayloadTradeEvent struct {
	SequenceNumber uint32
	TradeID        uint32
	Price          int64
	Quantity       uint32
	TakerSide      Side
	Timestamp      uint64
}

func (p PayloadTradeEvent) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.SequenceNumber)
	binary.LittleEndian.PutUint32(buf[4:8], p.TradeID)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.Price))
	binary.LittleEndian.PutUint32(buf[16:20], p.Quantity)
	buf[20] = byte(p.TakerSide)
	binary.LittleEndian.PutUint64(buf[21:29], p.Timestamp)
}

func DecodePayloadTradeEvent(buf []byte) PayloadTradeEvent {
	return PayloadTradeEvent{
		SequenceNumber: binary.LittleEndian.Uint32(buf[0:4]),
		TradeID:        binary.LittleEndian.Uint32(buf[4:8]),
		Price:          int64(binary.LittleEndian.Uint64(buf[8:16])),
		Quantity:       binary.LittleEndian.Uint32(buf[16:20]),
		TakerSide:      Side(buf[20]),
		Timestamp:      binary.LittleEndian.Uint64(buf[21:29]),
	}
}

// PayloadOrderInsertedEvent is broadcast when a residual rests on the book.
type PayloadOrderInsertedEvent struct {
	SequenceNumber uint32
	OrderID        uint32
	Side           Side
	Price          int64
	Quantity       uint32
	Timestamp      uint64
}

func (p PayloadOrderInsertedEvent) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.SequenceNumber)
	binary.LittleEndian.PutUint32(buf[4:8], p.OrderID)
	buf[8] = byte(p.Side)
	binary.LittleEndian.PutUint64(buf[9:17], uint64(p.Price))
	binary.LittleEndian.PutUint32(buf[17:21], p.Quantity)
	binary.LittleEndian.PutUint64(buf[21:29], p.Timestamp)
}

func DecodePayloadOrderInsertedEvent(buf []byte) PayloadOrderInsertedEvent {
	return PayloadOrderInsertedEvent{
		SequenceNumber: binary.LittleEndian.Uint32(buf[0:4]),
		OrderID:        binary.LittleEndian.Uint32(buf[4:8]),
		Side:           Side(buf[8]),
		Price:          int64(binary.LittleEndian.Uint64(buf[9:17])),
		Quantity:       binary.LittleEndian.Uint32(buf[17:21]),
		Timestamp:      binary.LittleEndian.Uint64(buf[21:29]),
	}
}

// PayloadOrderCancelledEvent is broadcast when a resting order is removed.
type PayloadOrderCancelledEvent struct {
	SequenceNumber    uint32
	OrderID           uint32
	RemainingQuantity uint32
	Timestamp         uint64
}

func (p PayloadOrderCancelledEvent) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.SequenceNumber)
	binary.LittleEndian.PutUint32(buf[4:8], p.OrderID)
	binary.LittleEndian.PutUint32(buf[8:12], p.RemainingQuantity)
	binary.LittleEndian.PutUint64(buf[12:20], p.Timestamp)
}

func DecodePayloadOrderCancelledEvent(buf []byte) PayloadOrderCancelledEvent {
	return PayloadOrderCancelledEvent{
		SequenceNumber:    binary.LittleEndian.Uint32(buf[0:4]),
		OrderID:           binary.LittleEndian.Uint32(buf[4:8]),
		RemainingQuantity: binary.LittleEndian.Uint32(buf[8:12]),
		Timestamp:         binary.LittleEndian.Uint64(buf[12:20]),
	}
}

// PayloadOrderAmendedEvent is broadcast when a resting order's quantity changes.
type PayloadOrderAmendedEvent struct {
	SequenceNumber uint32
	OrderID        uint32
	QuantityNew    uint32
	QuantityOld    uint32
	Timestamp      uint64
}

func (p PayloadOrderAmendedEvent) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.SequenceNumber)
	binary.LittleEndian.PutUint32(buf[4:8], p.OrderID)
	binary.LittleEndian.PutUint32(buf[8:12], p.QuantityNew)
	binary.LittleEndian.PutUint32(buf[12:16], p.QuantityOld)
	binary.LittleEndian.PutUint64(buf[16:24], p.Timestamp)
}

func DecodePayloadOrderAmendedEvent(buf []byte) PayloadOrderAmendedEvent {
	return PayloadOrderAmendedEvent{
		SequenceNumber: binary.LittleEndian.Uint32(buf[0:4]),
		OrderID:        binary.LittleEndian.Uint32(buf[4:8]),
		QuantityNew:    binary.LittleEndian.Uint32(buf[8:12]),
		QuantityOld:    binary.LittleEndian.Uint32(buf[12:16]),
		Timestamp:      binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// PayloadPriceLevelUpdate is broadcast whenever a level's aggregate volume changes.
type PayloadPriceLevelUpdate struct {
	SequenceNumber uint32
	Side           Side
	Price          int64
	TotalVolume    uint32
	Timestamp      uint64
}

func (p PayloadPriceLevelUpdate) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], p.SequenceNumber)
	buf[4] = byte(p.Side)
	binary.LittleEndian.PutUint64(buf[5:13], uint64(p.Price))
	binary.LittleEndian.PutUint32(buf[13:17], p.TotalVolume)
	binary.LittleEndian.PutUint64(buf[17:25], p.Timestamp)
}

func DecodePayloadPriceLevelUpdate(buf []byte) PayloadPriceLevelUpdate {
	return PayloadPriceLevelUpdate{
		SequenceNumber: binary.LittleEndian.Uint32(buf[0:4]),
		Side:           Side(buf[4]),
		Price:          int64(binary.LittleEndian.Uint64(buf[5:13])),
		TotalVolume:    binary.LittleEndian.Uint32(buf[13:17]),
		Timestamp:      binary.LittleEndian.Uint64(buf[17:25]),
	}
}
