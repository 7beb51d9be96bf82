// Package wire implements the exchange's binary framing protocol: a 3-byte
// header (type, big-endian size) followed by a type-specific little-endian
// payload. Every message struct below has a fixed wire size, so payloads
// never need length prefixes of their own.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// MessageType identifies the payload that follows a frame header.
type MessageType uint8

const (
	Connect               MessageType = 1
	Disconnect            MessageType = 2
	InsertOrder           MessageType = 3
	CancelOrder           MessageType = 4
	AmendOrder            MessageType = 5
	Subscribe             MessageType = 6
	Unsubscribe           MessageType = 7
	OrderStatusRequest    MessageType = 8
	ConfirmConnected      MessageType = 11
	ConfirmOrderInserted  MessageType = 12
	ConfirmOrderCancelled MessageType = 13
	ConfirmOrderAmended   MessageType = 14
	PartialFillOrder      MessageType = 15
	OrderStatus           MessageType = 16
	ErrorMsg              MessageType = 17
	OrderBookSnapshot     MessageType = 21
	TradeEvent            MessageType = 23
	OrderInsertedEvent    MessageType = 24
	OrderCancelledEvent   MessageType = 25
	OrderAmendedEvent     MessageType = 26
	PriceLevelUpdate      MessageType = 27
)

// Side mirrors the wire-level buy/sell flag. Byte value matches
// original_source/src/types.hpp: SELL=0, BUY=1.
type Side uint8

const (
	Sell Side = 0
	Buy  Side = 1
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

// Lifespan controls whether an unmatched residual rests on the book.
type Lifespan uint8

const (
	FillAndKill Lifespan = 0
	GoodForDay  Lifespan = 1
)

// ErrorType codes carried in PayloadError.Code.
type ErrorType uint16

const (
	ErrOrderBookFull ErrorType = 1
	ErrInvalidVolume ErrorType = 2
	ErrOrderNotFound ErrorType = 3
	ErrUnauthorised  ErrorType = 4
	ErrInvalidPrice  ErrorType = 5
)

// HeaderSize is the fixed 3-byte frame header: type (1) + size (2, big-endian).
const HeaderSize = 3

// ErrorTextLen bounds the inline error message carried in PayloadError.
const ErrorTextLen = 64

// ORDER_BOOK_MESSAGE_DEPTH from the spec: number of price levels carried in
// a snapshot, per side.
const OrderBookMessageDepth = 10

var (
	// ErrUnknownType is returned when decoding a header whose type has no
	// known payload layout.
	ErrUnknownType = errors.New("wire: unknown message type")
	// ErrShortPayload is returned when a payload buffer is smaller than the
	// type-expected size.
	ErrShortPayload = errors.New("wire: payload shorter than expected")
	// ErrSizeMismatch is a protocol violation: the declared frame size does
	// not match the type-expected payload size for a known message type.
	ErrSizeMismatch = errors.New("wire: frame size does not match type")
)

// PayloadSizeForType returns the fixed encoded payload length for a known
// message type, or 0 if the type is unknown.
func PayloadSizeForType(t MessageType) int {
	switch t {
	case Disconnect:
		return disconnectSize
	case InsertOrder:
		return insertOrderSize
	case CancelOrder:
		return cancelOrderSize
	case AmendOrder:
		return amendOrderSize
	case Subscribe:
		return subscribeSize
	case Unsubscribe:
		return unsubscribeSize
	case OrderStatusRequest:
		return orderStatusRequestSize
	case ErrorMsg:
		return errorSize
	case ConfirmOrderInserted:
		return confirmOrderInsertedSize
	case ConfirmOrderCancelled:
		return confirmOrderCancelledSize
	case ConfirmOrderAmended:
		return confirmOrderAmendedSize
	case PartialFillOrder:
		return partialFillSize
	case OrderStatus:
		return orderStatusSize
	case OrderBookSnapshot:
		return orderBookSnapshotSize
	case TradeEvent:
		return tradeEventSize
	case OrderInsertedEvent:
		return orderInsertedEventSize
	case OrderCancelledEvent:
		return orderCancelledEventSize
	case OrderAmendedEvent:
		return orderAmendedEventSize
	case PriceLevelUpdate:
		return priceLevelUpdateSize
	default:
		return 0
	}
}

// MaxPayloadSize is the largest payload any known type can encode (the
// order-book snapshot, which travels the unbuffered path).
const MaxPayloadSize = orderBookSnapshotSize

// MaxPayloadSizeBuffer is the largest payload among the types that travel
// through the buffered SPSC path (everything except the snapshot).
const MaxPayloadSizeBuffer = errorSize

// EncodeHeader writes a 3-byte frame header into buf[0:3].
func EncodeHeader(buf []byte, t MessageType, size uint16) {
	buf[0] = byte(t)
	binary.BigEndian.PutUint16(buf[1:3], size)
}

// DecodeHeader reads a 3-byte frame header from buf[0:3].
func DecodeHeader(buf []byte) (MessageType, uint16) {
	return MessageType(buf[0]), binary.BigEndian.Uint16(buf[1:3])
}

// ValidateFrame checks that a decoded header's declared size matches the
// type's expected payload size. Unknown types are always a violation.
func ValidateFrame(t MessageType, size uint16) error {
	expected := PayloadSizeForType(t)
	if expected == 0 {
		return fmt.Errorf("%w: type=%d", ErrUnknownType, t)
	}
	if int(size) != expected {
		return fmt.Errorf("%w: type=%d expected=%d got=%d", ErrSizeMismatch, t, expected, size)
	}
	return nil
}
