package log

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentFileNameZeroPadded(t *testing.T) {
	assert.Equal(t, "00000000000000000000.log", segmentFileName(0, ".log"))
	assert.Equal(t, "00000000000000000042.index", segmentFileName(42, ".index"))
}

func TestWouldRollOnSegmentBytes(t *testing.T) {
	dir := t.TempDir()
	seg, err := openSegment(dir, 0)
	require.NoError(t, err)
	defer seg.Close()

	cfg := NewConfig()
	cfg.SegmentBytes = 10
	cfg.IndexIntervalBytes = 1000
	cfg.IndexMaxBytes = 1000

	assert.False(t, seg.wouldRoll(10, 0, cfg))
	assert.True(t, seg.wouldRoll(11, 0, cfg))

	_, err = seg.store.Append(make([]byte, 5))
	require.NoError(t, err)
	assert.True(t, seg.wouldRoll(6, 0, cfg))
	assert.False(t, seg.wouldRoll(5, 0, cfg))
}

func TestWouldRollOnIndexMaxBytes(t *testing.T) {
	dir := t.TempDir()
	seg, err := openSegment(dir, 0)
	require.NoError(t, err)
	defer seg.Close()

	cfg := NewConfig()
	cfg.SegmentBytes = 1 << 30
	cfg.IndexIntervalBytes = 10
	cfg.IndexMaxBytes = 6

	require.NoError(t, seg.index.Write(0, 0))
	assert.True(t, seg.wouldRoll(10, 0, cfg), "one more index entry would overflow IndexMaxBytes")
	assert.False(t, seg.wouldRoll(5, 0, cfg), "batch doesn't cross IndexIntervalBytes, no new entry needed")
}

func TestOpenSegmentCreatesBothFiles(t *testing.T) {
	dir := t.TempDir()
	seg, err := openSegment(dir, 7)
	require.NoError(t, err)
	defer seg.Close()

	assert.FileExists(t, filepath.Join(dir, segmentFileName(7, ".log")))
	assert.FileExists(t, filepath.Join(dir, segmentFileName(7, ".index")))
}
