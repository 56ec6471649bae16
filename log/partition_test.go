package log

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vonnegut/vonnegut/protocol"
)

func payloads(strs ...string) [][]byte {
	out := make([][]byte, len(strs))
	for i, s := range strs {
		out[i] = []byte(s)
	}
	return out
}

// Seed scenario 1 (spec §8): fresh partition, two produces, full fetch.
func TestAppendAndFetchSeedScenario1(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	p, err := Open(dir, cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	first, n, err := p.Append(payloads("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), first)
	assert.Equal(t, 3, n)

	first, n, err = p.Append(payloads("d"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), first)
	assert.Equal(t, 1, n)

	assert.Equal(t, int64(4), p.HighWaterMark())

	res, err := p.Fetch(0, 0)
	require.NoError(t, err)
	records, err := protocol.DecodeRecords(res.RecordSet)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, payloadStrings(records))
	assert.Equal(t, int64(4), res.HighWaterMark)
}

func payloadStrings(records []protocol.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r.Payload)
	}
	return out
}

// Seed scenario 2 (spec §8): small segment/index caps force multiple
// segments with predictable base offsets, and the index file never
// exceeds its cap.
func TestRollingProducesMultipleSegments(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.SegmentBytes = 40
	cfg.IndexIntervalBytes = 20
	cfg.IndexMaxBytes = 12
	p, err := Open(dir, cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	for i := 0; i < 10; i++ {
		payload := make([]byte, 10)
		binary.BigEndian.PutUint16(payload, uint16(i))
		_, _, err := p.Append([][]byte{payload})
		require.NoError(t, err)
	}

	segs := p.Segments()
	require.Greater(t, len(segs), 1)
	assert.Equal(t, int64(0), segs[0].baseOffset)
	for _, seg := range segs {
		assert.LessOrEqual(t, seg.index.Size(), cfg.IndexMaxBytes)
	}

	res, err := p.Fetch(5, 0)
	require.NoError(t, err)
	records, err := protocol.DecodeRecords(res.RecordSet)
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, int64(5), records[0].Offset)
}

// Seed scenario 3 (spec §8): a torn trailing record is truncated on
// restart, and the next produce resumes from the correct offset.
func TestRecoveryTruncatesTornTrailingRecord(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	p, err := Open(dir, cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		_, _, err := p.Append(payloads("x"))
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())

	// Corrupt the active segment's tail.
	logPath := filepath.Join(dir, segmentFileName(0, ".log"))
	info, err := os.Stat(logPath)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(logPath, info.Size()-5))

	p2, err := Open(dir, cfg, nil)
	require.NoError(t, err)
	defer p2.Close()

	assert.Equal(t, int64(99), p2.HighWaterMark())

	first, _, err := p2.Append(payloads("y"))
	require.NoError(t, err)
	assert.Equal(t, int64(99), first)
}

// Seed scenario 4 (spec §8): deleting the base-0 index forces a full scan
// on recovery.
func TestRecoveryWithoutIndexFullScan(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	p, err := Open(dir, cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, _, err := p.Append(payloads("x"))
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())

	require.NoError(t, os.Remove(filepath.Join(dir, segmentFileName(0, ".index"))))

	p2, err := Open(dir, cfg, nil)
	require.NoError(t, err)
	defer p2.Close()

	assert.Equal(t, int64(10), p2.HighWaterMark())
}

func TestFetchOffsetOutOfRange(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir, NewConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.Append(payloads("a", "b"))
	require.NoError(t, err)

	_, err = p.Fetch(-1, 0)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)

	_, err = p.Fetch(5, 0)
	assert.ErrorIs(t, err, ErrOffsetOutOfRange)

	res, err := p.Fetch(2, 0)
	require.NoError(t, err)
	assert.Empty(t, res.RecordSet)
	assert.Equal(t, int64(2), res.HighWaterMark)
}

func TestAppendEmptyBatchRejected(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir, NewConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.Append(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestConfigValidateRejectsOversizedSegment(t *testing.T) {
	cfg := NewConfig()
	cfg.SegmentBytes = maxOffsetWidth + 1
	assert.Error(t, cfg.Validate())
}

// Recovery fixed point (spec §8): stop and restart without writing more
// must reproduce identical high-water mark and file contents.
func TestRecoveryFixedPoint(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	p, err := Open(dir, cfg, nil)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, _, err := p.Append(payloads("record"))
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())

	before, err := os.ReadFile(filepath.Join(dir, segmentFileName(0, ".log")))
	require.NoError(t, err)

	p2, err := Open(dir, cfg, nil)
	require.NoError(t, err)
	hwm := p2.HighWaterMark()
	require.NoError(t, p2.Close())

	after, err := os.ReadFile(filepath.Join(dir, segmentFileName(0, ".log")))
	require.NoError(t, err)

	assert.Equal(t, int64(20), hwm)
	assert.Equal(t, before, after)
}

// AppendRecordSet is the path a Produce request's already-framed record_set
// bytes take (server.Dispatcher.produceOne); client-supplied offsets must
// be discarded in favor of engine-assigned ones (spec §9).
func TestAppendRecordSetRewritesClientOffsetsAndAppends(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir, NewConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.Append(payloads("a", "b"))
	require.NoError(t, err)

	wireSet := protocol.EncodeRecords([]protocol.Record{
		{Offset: 999, Payload: []byte("c")},
		{Offset: 999, Payload: []byte("d")},
	})

	first, n, err := p.AppendRecordSet(wireSet)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(4), p.HighWaterMark())

	res, err := p.Fetch(0, 0)
	require.NoError(t, err)
	records, err := protocol.DecodeRecords(res.RecordSet)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"a", "b", "c", "d"}, payloadStrings(records))
	for i, r := range records {
		assert.Equal(t, int64(i), r.Offset)
	}
}

func TestAppendRecordSetRejectsEmptyAndTornBuffers(t *testing.T) {
	dir := t.TempDir()
	p, err := Open(dir, NewConfig(), nil)
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.AppendRecordSet(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	valid := protocol.EncodeRecords([]protocol.Record{{Offset: 0, Payload: []byte("x")}})
	torn := valid[:len(valid)-1]
	_, _, err = p.AppendRecordSet(torn)
	assert.Error(t, err)
}
