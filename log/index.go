package log

import (
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// indexEntrySize is the fixed 6-byte width of one sparse-index entry:
// `{rel_offset:int24, file_pos:int24}`, both big-endian signed (spec §3).
const indexEntrySize = 6

func putInt24(b []byte, v int32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func getInt24(b []byte) int32 {
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	if b[0]&0x80 != 0 {
		v |= -1 << 24 // sign-extend the 24-bit value into a 32-bit int32
	}
	return v
}

type indexEntry struct {
	relOffset int32
	filePos   int32
}

// index wraps one segment's `.index` file. The whole file is kept buffered
// in memory as a slice of entries — spec caps index_max_bytes modestly
// (it must leave room for the 24-bit position field anyway), so this is
// simpler than mmap-ing it the way some segment-log implementations do,
// and it makes the binary search in Lookup plain slice code.
type index struct {
	mu      sync.Mutex
	file    *os.File
	entries []indexEntry
}

func openIndex(path string) (*index, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "log: open index %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "log: stat index %s", path)
	}

	n := info.Size() / indexEntrySize
	entries := make([]indexEntry, 0, n)
	buf := make([]byte, info.Size())
	if _, err := f.ReadAt(buf, 0); err != nil && len(buf) > 0 {
		f.Close()
		return nil, errors.Wrapf(err, "log: read index %s", path)
	}
	for off := int64(0); off+indexEntrySize <= int64(len(buf)); off += indexEntrySize {
		entries = append(entries, indexEntry{
			relOffset: getInt24(buf[off : off+3]),
			filePos:   getInt24(buf[off+3 : off+6]),
		})
	}

	return &index{file: f, entries: entries}, nil
}

// Write appends one entry. Callers (partition.go) are the single writer
// and are responsible for only calling this when the roll predicate has
// already confirmed there's room under index_max_bytes.
func (idx *index) Write(relOffset, filePos int32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	buf := make([]byte, indexEntrySize)
	putInt24(buf[0:3], relOffset)
	putInt24(buf[3:6], filePos)

	pos := int64(len(idx.entries)) * indexEntrySize
	if _, err := idx.file.WriteAt(buf, pos); err != nil {
		return errors.Wrap(err, "log: index append")
	}
	idx.entries = append(idx.entries, indexEntry{relOffset: relOffset, filePos: filePos})
	return nil
}

// Size returns the current on-disk size of the index in bytes.
func (idx *index) Size() int64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return int64(len(idx.entries)) * indexEntrySize
}

// Last returns the final entry written, or ok=false for an empty index.
func (idx *index) Last() (entry indexEntry, ok bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if len(idx.entries) == 0 {
		return indexEntry{}, false
	}
	return idx.entries[len(idx.entries)-1], true
}

// Lookup binary-searches for the largest entry whose relOffset is <= rel,
// per spec §4.4 step 2. ok is false when the index is empty or when every
// entry's relOffset exceeds rel (the caller then starts its scan at file
// position 0, per spec).
func (idx *index) Lookup(rel int32) (filePos int32, ok bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(idx.entries) == 0 {
		return 0, false
	}
	// sort.Search finds the first index for which the predicate is true;
	// we want the last entry with relOffset <= rel, i.e. one before the
	// first entry with relOffset > rel.
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].relOffset > rel
	})
	if i == 0 {
		// Every entry's relOffset exceeds rel: no usable hint, scan from 0.
		return 0, false
	}
	return idx.entries[i-1].filePos, true
}

func (idx *index) Close() error {
	return idx.file.Close()
}

func (idx *index) Name() string {
	return idx.file.Name()
}
