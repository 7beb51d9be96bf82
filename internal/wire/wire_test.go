package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPayloadSizeForType_MatchesUpperBounds guards MaxPayloadSize and
// MaxPayloadSizeBuffer against drift if a payload struct changes shape.
func TestPayloadSizeForType_MatchesUpperBounds(t *testing.T) {
	bufferedTypes := []MessageType{
		Disconnect, InsertOrder, CancelOrder, AmendOrder, Subscribe, Unsubscribe,
		OrderStatusRequest, ErrorMsg, ConfirmOrderInserted, ConfirmOrderCancelled,
		ConfirmOrderAmended, PartialFillOrder, OrderStatus, TradeEvent,
		OrderInsertedEvent, OrderCancelledEvent, OrderAmendedEvent, PriceLevelUpdate,
	}
	max := 0
	for _, mt := range bufferedTypes {
		if s := PayloadSizeForType(mt); s > max {
			max = s
		}
	}
	assert.Equal(t, max, MaxPayloadSizeBuffer)
	assert.Equal(t, orderBookSnapshotSize, MaxPayloadSize)
	assert.Greater(t, MaxPayloadSize, MaxPayloadSizeBuffer)
}

func TestValidateFrame(t *testing.T) {
	require.NoError(t, ValidateFrame(InsertOrder, uint16(insertOrderSize)))
	assert.ErrorIs(t, ValidateFrame(InsertOrder, uint16(insertOrderSize+1)), ErrSizeMismatch)
	assert.ErrorIs(t, ValidateFrame(MessageType(200), 4), ErrUnknownType)
}

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderSize)
	EncodeHeader(buf, InsertOrder, 18)
	typ, size := DecodeHeader(buf)
	assert.Equal(t, InsertOrder, typ)
	assert.Equal(t, uint16(18), size)
}

// TestRoundTrip_AllTypes encodes then decodes every known payload type and
// checks the original value survives, per the spec's round-trip invariant.
func TestRoundTrip_AllTypes(t *testing.T) {
	t.Run("InsertOrder", func(t *testing.T) {
		want := PayloadInsertOrder{ClientRequestID: 7, Side: Buy, Price: 995, Quantity: 10, Lifespan: GoodForDay}
		buf := make([]byte, insertOrderSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadInsertOrder(buf))
	})
	t.Run("CancelOrder", func(t *testing.T) {
		want := PayloadCancelOrder{ClientRequestID: 1, ExchangeOrderID: 99}
		buf := make([]byte, cancelOrderSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadCancelOrder(buf))
	})
	t.Run("AmendOrder", func(t *testing.T) {
		want := PayloadAmendOrder{ClientRequestID: 2, ExchangeOrderID: 3, NewTotalQuantity: 12}
		buf := make([]byte, amendOrderSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadAmendOrder(buf))
	})
	t.Run("Error", func(t *testing.T) {
		want := PayloadError{ClientRequestID: 5, Code: uint16(ErrInvalidPrice), Message: "bad price", Timestamp: 123456789}
		buf := make([]byte, errorSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadError(buf))
	})
	t.Run("ConfirmOrderInserted", func(t *testing.T) {
		want := PayloadConfirmOrderInserted{
			ClientRequestID: 1, ExchangeOrderID: 2, Side: Buy, Price: 995,
			TotalQuantity: 10, LeavesQuantity: 10, Timestamp: 42,
		}
		buf := make([]byte, confirmOrderInsertedSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadConfirmOrderInserted(buf))
	})
	t.Run("ConfirmOrderCancelled", func(t *testing.T) {
		want := PayloadConfirmOrderCancelled{ClientRequestID: 1, ExchangeOrderID: 2, LeavesQuantity: 4, Price: 990, Side: Sell, Timestamp: 7}
		buf := make([]byte, confirmOrderCancelledSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadConfirmOrderCancelled(buf))
	})
	t.Run("ConfirmOrderAmended", func(t *testing.T) {
		want := PayloadConfirmOrderAmended{ClientRequestID: 1, ExchangeOrderID: 2, OldTotalQuantity: 20, NewTotalQuantity: 12, LeavesQuantity: 12, Timestamp: 7}
		buf := make([]byte, confirmOrderAmendedSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadConfirmOrderAmended(buf))
	})
	t.Run("PartialFill", func(t *testing.T) {
		want := PayloadPartialFill{ExchangeOrderID: 1, TradeID: 9, LastPrice: 995, LastQuantity: 4, LeavesQuantity: 6, CumulativeQuantity: 4, Timestamp: 7}
		buf := make([]byte, partialFillSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadPartialFill(buf))
	})
	t.Run("OrderStatus", func(t *testing.T) {
		want := PayloadOrderStatus{ClientRequestID: 1, ExchangeOrderID: 2, Side: Buy, LimitPrice: 995, LastPrice: 995, TotalQuantity: 10, FilledQuantity: 4, LeavesQuantity: 6, Timestamp: 7}
		buf := make([]byte, orderStatusSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadOrderStatus(buf))
	})
	t.Run("OrderBookSnapshot", func(t *testing.T) {
		var want PayloadOrderBookSnapshot
		want.SequenceNumber = 55
		for i := range want.AskPrices {
			want.AskPrices[i] = int64(1000 + i)
			want.AskVolumes[i] = uint32(i + 1)
		}
		buf := make([]byte, orderBookSnapshotSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadOrderBookSnapshot(buf))
	})
	t.Run("TradeEvent", func(t *testing.T) {
		want := PayloadTradeEvent{SequenceNumber: 3, TradeID: 1, Price: 995, Quantity: 4, TakerSide: Sell, Timestamp: 7}
		buf := make([]byte, tradeEventSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadTradeEvent(buf))
	})
	t.Run("OrderInsertedEvent", func(t *testing.T) {
		want := PayloadOrderInsertedEvent{SequenceNumber: 1, OrderID: 2, Side: Buy, Price: 995, Quantity: 10, Timestamp: 7}
		buf := make([]byte, orderInsertedEventSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadOrderInsertedEvent(buf))
	})
	t.Run("OrderCancelledEvent", func(t *testing.T) {
		want := PayloadOrderCancelledEvent{SequenceNumber: 1, OrderID: 2, RemainingQuantity: 0, Timestamp: 7}
		buf := make([]byte, orderCancelledEventSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadOrderCancelledEvent(buf))
	})
	t.Run("OrderAmendedEvent", func(t *testing.T) {
		want := PayloadOrderAmendedEvent{SequenceNumber: 1, OrderID: 2, QuantityNew: 12, QuantityOld: 20, Timestamp: 7}
		buf := make([]byte, orderAmendedEventSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadOrderAmendedEvent(buf))
	})
	t.Run("PriceLevelUpdate", func(t *testing.T) {
		want := PayloadPriceLevelUpdate{SequenceNumber: 1, Side: Buy, Price: 995, TotalVolume: 6, Timestamp: 7}
		buf := make([]byte, priceLevelUpdateSize)
		want.Encode(buf)
		assert.Equal(t, want, DecodePayloadPriceLevelUpdate(buf))
	})
}
