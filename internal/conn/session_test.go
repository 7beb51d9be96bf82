package conn

import (
	"net"
	"testing"
	"time"

	"clob/internal/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ReadLoop_ParsesFramedMessages(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	s := newSession(1, server)
	dispatch := make(chan sessionFrame, 8)
	go s.pump(dispatch)
	go s.readLoop()

	payload := wire.PayloadCancelOrder{ClientRequestID: 42, ExchangeOrderID: 7}
	buf := make([]byte, wire.PayloadSizeForType(wire.CancelOrder))
	payload.Encode(buf)

	header := make([]byte, wire.HeaderSize)
	wire.EncodeHeader(header, wire.CancelOrder, uint16(len(buf)))

	go func() {
		client.Write(header)
		client.Write(buf)
	}()

	select {
	case sf := <-dispatch:
		assert.Equal(t, wire.CancelOrder, sf.frame.Type)
		got := wire.DecodePayloadCancelOrder(sf.frame.Payload)
		assert.Equal(t, uint32(42), got.ClientRequestID)
		assert.Equal(t, uint32(7), got.ExchangeOrderID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched frame")
	}
}

func TestSession_Send_WritesFramedBytes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	s := newSession(1, server)
	go s.writeLoop()

	payload := wire.PayloadConfirmOrderCancelled{ClientRequestID: 5, ExchangeOrderID: 6, Timestamp: 100}
	buf := make([]byte, wire.PayloadSizeForType(wire.ConfirmOrderCancelled))
	payload.Encode(buf)

	require.NoError(t, s.Send(wire.ConfirmOrderCancelled, buf))

	header := make([]byte, wire.HeaderSize)
	_, err := readAll(client, header)
	require.NoError(t, err)
	typ, size := wire.DecodeHeader(header)
	assert.Equal(t, wire.ConfirmOrderCancelled, typ)

	got := make([]byte, size)
	_, err = readAll(client, got)
	require.NoError(t, err)
	decoded := wire.DecodePayloadConfirmOrderCancelled(got)
	assert.Equal(t, uint32(5), decoded.ClientRequestID)
}

func readAll(c net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := c.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
