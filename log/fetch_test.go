package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonnegut/vonnegut/protocol"
)

func TestFetchBoundedByMaxBytesAlwaysReturnsOneRecord(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir, NewConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.Append(payloads("0123456789", "abcdefghij", "klmnopqrst"))
	require.NoError(t, err)

	res, err := p.Fetch(0, 1)
	require.NoError(t, err)
	records, err := protocol.DecodeRecords(res.RecordSet)
	require.NoError(t, err)
	require.Len(t, records, 1, "progress guarantee: at least one whole record even under maxBytes")
	assert.Equal(t, "0123456789", string(records[0].Payload))
}

func TestFetchUnboundedReturnsEverythingInSegment(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir, NewConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.Append(payloads("a", "b", "c", "d", "e"))
	require.NoError(t, err)

	res, err := p.Fetch(1, 0)
	require.NoError(t, err)
	records, err := protocol.DecodeRecords(res.RecordSet)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "e"}, payloadStrings(records))
}

func TestFetchAcrossSegmentBoundary(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.SegmentBytes = 40
	cfg.IndexIntervalBytes = 20
	cfg.IndexMaxBytes = 12
	p, err := Open(dir, cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	for i := 0; i < 10; i++ {
		_, _, err := p.Append([][]byte{make([]byte, 10)})
		require.NoError(t, err)
	}
	require.Greater(t, len(p.Segments()), 1)

	// Fetch spanning the last record of one segment into the next: the
	// result must still only contain whole records from a single segment
	// (Fetch stops at the segment it locates the offset in).
	res, err := p.Fetch(0, 0)
	require.NoError(t, err)
	records, err := protocol.DecodeRecords(res.RecordSet)
	require.NoError(t, err)
	assert.NotEmpty(t, records)
	for i, r := range records {
		assert.Equal(t, int64(i), r.Offset)
	}
}

func TestConcurrentFetchDuringAppend(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir, NewConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.Append(payloads("seed"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _, err := p.Append(payloads("x"))
			assert.NoError(t, err)
		}
	}()

	for i := 0; i < 50; i++ {
		_, err := p.Fetch(0, 0)
		assert.NoError(t, err)
	}
	<-done

	assert.Equal(t, int64(51), p.HighWaterMark())
}
