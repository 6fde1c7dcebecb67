package fabricclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloadEmpty(t *testing.T) {
	assert.Equal(t, DecodeEmpty, decodePayload(nil).State)
	assert.Equal(t, DecodeEmpty, decodePayload([]byte("")).State)
	assert.Equal(t, DecodeEmpty, decodePayload([]byte("  \n")).State)
}

func TestDecodePayloadRecord(t *testing.T) {
	res := decodePayload(sampleRecord("COL-1"))
	assert.Equal(t, DecodeDecoded, res.State)
	require.NotNil(t, res.Record)
	assert.Equal(t, "COL-1", res.Record.ID)
	assert.Equal(t, StatusActive, res.Record.Status)
}

func TestDecodePayloadRawFallback(t *testing.T) {
	// Malformed JSON is preserved verbatim, not mistaken for an empty result.
	res := decodePayload([]byte("committed: peer0"))
	assert.Equal(t, DecodeRawFallback, res.State)
	assert.Equal(t, "committed: peer0", res.Raw)
	assert.Nil(t, res.Record)

	// Valid JSON that is not a record falls back too.
	res = decodePayload([]byte(`{"ok":true}`))
	assert.Equal(t, DecodeRawFallback, res.State)
}

func TestDecodeHistory(t *testing.T) {
	events, err := decodeHistory([]byte(`[{"from":"a","to":"b","type":"CLAIM","timestamp":1,"tx_id":"t1"}]`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "b", events[0].To)

	_, err = decodeHistory([]byte("not json"))
	assert.Error(t, err)
}
