package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionCodecsRoundTrip(t *testing.T) {
	raw := EncodeRecords([]Record{
		{Offset: 0, Payload: []byte("the quick brown fox jumps over the lazy dog")},
		{Offset: 1, Payload: []byte("the quick brown fox jumps over the lazy dog")},
	})

	for _, codec := range []CompressionCodec{CompressionNone, CompressionGZIP, CompressionSnappy, CompressionLZ4} {
		codec := codec
		t.Run("", func(t *testing.T) {
			compressed, err := CompressRecordSet(codec, raw)
			require.NoError(t, err)

			got, err := DecompressRecordSet(compressed)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}
}

func TestDecompressRecordSetUnknownCodec(t *testing.T) {
	_, err := DecompressRecordSet([]byte{99, 1, 2, 3})
	assert.ErrorIs(t, err, ErrUnknownCompressionCodec)
}
