package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRecordsRoundTrip(t *testing.T) {
	records := []Record{
		{Offset: 0, Payload: []byte("a")},
		{Offset: 1, Payload: []byte("b")},
		{Offset: 2, Payload: []byte("c")},
	}
	buf := EncodeRecords(records)
	got, err := DecodeRecords(buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestDecodeRecordsRejectsTornHeader(t *testing.T) {
	buf := EncodeRecords([]Record{{Offset: 0, Payload: []byte("hello")}})
	_, err := DecodeRecords(buf[:RecordHeaderSize-2])
	assert.Error(t, err)
}

func TestDecodeRecordsRejectsTornPayload(t *testing.T) {
	buf := EncodeRecords([]Record{{Offset: 0, Payload: []byte("hello")}})
	_, err := DecodeRecords(buf[:len(buf)-2])
	assert.Error(t, err)
}

func TestRewriteOffsetsOverwritesClientSuppliedOffsets(t *testing.T) {
	// The client frames records with bogus offsets; per spec §9, the
	// engine-assigned offsets always win.
	buf := EncodeRecords([]Record{
		{Offset: 999, Payload: []byte("a")},
		{Offset: 999, Payload: []byte("b")},
		{Offset: 999, Payload: []byte("c")},
	})

	n, err := RewriteOffsets(buf, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := DecodeRecords(buf)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, int64(42), got[0].Offset)
	assert.Equal(t, int64(43), got[1].Offset)
	assert.Equal(t, int64(44), got[2].Offset)
}

func TestDecodeRecordHeaderShortBuffer(t *testing.T) {
	_, _, ok := DecodeRecordHeader([]byte{1, 2, 3})
	assert.False(t, ok)
}
