package eventlog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clob/internal/wire"
)

func TestWriter_AppendWritesFramedRecords(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(dir)
	require.NoError(t, err)

	payload := make([]byte, wire.PayloadSizeForType(wire.CancelOrder))
	wire.PayloadCancelOrder{ClientRequestID: 1, ExchangeOrderID: 2}.Encode(payload)

	require.NoError(t, w.Append(wire.CancelOrder, payload))
	require.NoError(t, w.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)

	msgType, size := wire.DecodeHeader(data)
	assert.Equal(t, wire.CancelOrder, msgType)
	assert.Equal(t, len(payload), int(size))

	decoded := wire.DecodePayloadCancelOrder(data[wire.HeaderSize:])
	assert.Equal(t, uint32(1), decoded.ClientRequestID)
	assert.Equal(t, uint32(2), decoded.ExchangeOrderID)
}

func TestOpen_TwoRunsDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	w1, err := Open(dir)
	require.NoError(t, err)
	defer w1.Close()

	w2, err := Open(dir)
	require.NoError(t, err)
	defer w2.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
