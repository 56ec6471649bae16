package log

import "errors"

var (
	// ErrEmptyBatch is returned by Append for a zero-record batch; spec §3
	// requires a record batch to be non-empty.
	ErrEmptyBatch = errors.New("log: append requires a non-empty batch")

	// ErrOffsetOutOfRange is returned by Fetch when start_offset is below
	// the lowest retained base offset or above the high-water mark,
	// spec §4.4 / §8. A start_offset equal to the high-water mark is not
	// an error: Fetch returns an empty record set for it.
	ErrOffsetOutOfRange = errors.New("log: start_offset is outside the partition's retained range")

	// ErrClosed is returned by any operation attempted after Close.
	ErrClosed = errors.New("log: partition is closed")
)
