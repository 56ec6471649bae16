package log

import (
	"fmt"
)

// maxOffsetWidth is the 24-bit signed width the on-disk sparse index uses
// for both rel_offset and file_pos (spec §3 "Offsets encoding width").
// A conservative implementation must refuse to start a partition whose
// SegmentBytes could overflow it (spec §9).
const maxOffsetWidth = 1<<23 - 1

// Config holds the process-wide, per-init options spec §6 enumerates.
// This follows the teacher's own Config shape (a plain struct built by
// NewConfig with a Validate method) rather than a config-file library —
// sarama has no such library either, and this spec's ambient config
// surface is the same size.
type Config struct {
	// LogDirs is the ordered list of base directories a partition's
	// directory may be created under. The first configured directory is
	// used unless the caller picks another (spec §6 "one is selected per
	// partition").
	LogDirs []string

	// SegmentBytes is the per-segment log-file soft cap. Must be
	// <= 2^23-1 so the sparse index's 24-bit file_pos field cannot
	// overflow (spec §3, §9).
	SegmentBytes int64

	// IndexMaxBytes is the per-segment index-file hard cap.
	IndexMaxBytes int64

	// IndexIntervalBytes is the minimum log-byte gap between sparse index
	// entries.
	IndexIntervalBytes int64

	// FlushEveryAppend forces a File.Sync after every append when set.
	// Spec §9 leaves the fsync policy optional; the default (false)
	// matches the spec's default OS-writeback-only durability.
	FlushEveryAppend bool
}

// NewConfig returns a Config with the teacher-style sane defaults.
func NewConfig() *Config {
	return &Config{
		LogDirs:            []string{"."},
		SegmentBytes:       1 << 20, // 1MiB, comfortably under the 24-bit cap
		IndexMaxBytes:      64 << 10,
		IndexIntervalBytes: 4 << 10,
		FlushEveryAppend:   false,
	}
}

// Validate refuses configuration that would violate the engine's on-disk
// invariants, per spec §7 "Configuration violation" and §9.
func (c *Config) Validate() error {
	if len(c.LogDirs) == 0 {
		return fmt.Errorf("log: at least one log_dir is required")
	}
	if c.SegmentBytes <= 0 {
		return fmt.Errorf("log: segment_bytes must be positive")
	}
	if c.SegmentBytes > maxOffsetWidth {
		return fmt.Errorf("log: segment_bytes %d exceeds the 24-bit index file_pos cap of %d", c.SegmentBytes, maxOffsetWidth)
	}
	if c.IndexMaxBytes <= 0 {
		return fmt.Errorf("log: index_max_bytes must be positive")
	}
	if c.IndexMaxBytes > maxOffsetWidth {
		return fmt.Errorf("log: index_max_bytes %d exceeds the 24-bit index file_pos cap of %d", c.IndexMaxBytes, maxOffsetWidth)
	}
	if c.IndexIntervalBytes <= 0 {
		return fmt.Errorf("log: index_interval_bytes must be positive")
	}
	if indexEntrySize > c.IndexMaxBytes {
		return fmt.Errorf("log: index_max_bytes %d cannot hold even one %d-byte index entry", c.IndexMaxBytes, indexEntrySize)
	}
	return nil
}
