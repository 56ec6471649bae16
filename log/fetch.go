package log

import (
	"os"

	"github.com/pkg/errors"

	"github.com/vonnegut/vonnegut/protocol"
)

// FetchResult is the outcome of a successful Fetch.
type FetchResult struct {
	// RecordSet is zero or more whole, spec §3-framed records
	// concatenated in offset order, starting at the requested offset.
	RecordSet []byte
	// HighWaterMark is the next offset that will be assigned.
	HighWaterMark int64
}

// Fetch resolves startOffset to a (segment, file position) via the
// sparse index and returns up to maxBytes (0 = unbounded-to-segment-end)
// of whole records starting there, per spec §4.4. It may run concurrently
// with Append: it only holds Partition's lock long enough to snapshot the
// segment list and high-water mark, then does its I/O through a fresh,
// independently-opened file descriptor (spec §5).
func (p *Partition) Fetch(startOffset int64, maxBytes int32) (FetchResult, error) {
	p.mu.RLock()
	segments := make([]*segment, len(p.segments))
	copy(segments, p.segments)
	hwm := p.id
	p.mu.RUnlock()

	if startOffset < 0 || startOffset > hwm {
		return FetchResult{HighWaterMark: hwm}, ErrOffsetOutOfRange
	}
	if startOffset == hwm {
		return FetchResult{HighWaterMark: hwm}, nil
	}
	if len(segments) == 0 || startOffset < segments[0].baseOffset {
		return FetchResult{HighWaterMark: hwm}, ErrOffsetOutOfRange
	}

	segIdx := segmentContaining(segments, startOffset)
	if segIdx < 0 {
		return FetchResult{HighWaterMark: hwm}, ErrOffsetOutOfRange
	}

	for segIdx < len(segments) {
		seg := segments[segIdx]
		data, startPos, found, err := locateInSegment(seg, startOffset)
		if err != nil {
			return FetchResult{HighWaterMark: hwm}, err
		}
		if found {
			recordSet := sliceRecordSet(data[startPos:], maxBytes)
			return FetchResult{RecordSet: recordSet, HighWaterMark: hwm}, nil
		}
		segIdx++
	}
	return FetchResult{HighWaterMark: hwm}, ErrOffsetOutOfRange
}

// segmentContaining returns the index of the segment whose base offset is
// the largest <= offset (spec §4.4 step 1), or -1.
func segmentContaining(segments []*segment, offset int64) int {
	idx := -1
	for i, seg := range segments {
		if seg.baseOffset <= offset {
			idx = i
		} else {
			break
		}
	}
	return idx
}

// locateInSegment opens a fresh read-only descriptor onto seg's `.log`,
// uses the sparse index to jump close to offset, then scans headers
// forward to find it exactly (spec §4.4 steps 2-3). It returns the whole
// file contents from the index hint onward plus the byte position within
// that slice where offset's record begins, so the caller can bound the
// subsequent read by maxBytes without a second file round-trip.
func locateInSegment(seg *segment, offset int64) (data []byte, pos int, found bool, err error) {
	f, err := os.Open(seg.store.Name())
	if err != nil {
		return nil, 0, false, errors.Wrapf(err, "log: open %s for fetch", seg.store.Name())
	}
	defer f.Close()

	rel := int32(offset - seg.baseOffset)
	hintPos, ok := seg.index.Lookup(rel)
	var start int64
	if ok {
		start = int64(hintPos)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, 0, false, errors.Wrap(err, "log: stat segment for fetch")
	}
	if start > info.Size() {
		return nil, 0, false, nil
	}
	buf := make([]byte, info.Size()-start)
	if _, err := f.ReadAt(buf, start); err != nil {
		return nil, 0, false, errors.Wrap(err, "log: read segment for fetch")
	}

	cur := 0
	for cur+protocol.RecordHeaderSize <= len(buf) {
		off, size, okHdr := protocol.DecodeRecordHeader(buf[cur : cur+protocol.RecordHeaderSize])
		if !okHdr || size < 0 || cur+protocol.RecordHeaderSize+int(size) > len(buf) {
			break
		}
		if off == offset {
			return buf, cur, true, nil
		}
		cur += protocol.RecordHeaderSize + int(size)
	}
	return buf, 0, false, nil
}

// sliceRecordSet returns a prefix of data made of whole records, bounded
// by maxBytes (0 = unbounded), per spec §4.4 step 4. It always returns at
// least the first record even if that record alone exceeds maxBytes (the
// "progress guarantee").
func sliceRecordSet(data []byte, maxBytes int32) []byte {
	limit := len(data)
	if maxBytes > 0 && int(maxBytes) < limit {
		limit = int(maxBytes)
	}

	end := 0
	for end < len(data) {
		if end+protocol.RecordHeaderSize > len(data) {
			break
		}
		_, size, ok := protocol.DecodeRecordHeader(data[end : end+protocol.RecordHeaderSize])
		if !ok || size < 0 {
			break
		}
		next := end + protocol.RecordHeaderSize + int(size)
		if next > len(data) {
			break
		}
		if next > limit && end > 0 {
			// Would exceed maxBytes and we already have at least one
			// whole record: stop here.
			break
		}
		end = next
		if end >= limit {
			break
		}
	}

	out := make([]byte, end)
	copy(out, data[:end])
	return out
}
