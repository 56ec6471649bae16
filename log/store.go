package log

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

// store wraps one segment's `.log` file. Writes are positional (WriteAt at
// the writer's own tracked size) rather than relying on O_APPEND, so the
// writer's notion of "current size" is always exactly the byte offset its
// next write will land at — needed because the index records file
// positions that must match exactly (spec §3 sparse-index invariants).
//
// Reads happen through a second, independently-opened file descriptor
// (spec §5 "Open file descriptors are owned by the writer for append and
// by each fetch call for its read"); store itself only exposes the path
// and current size for that purpose, see fetch.go.
type store struct {
	mu   sync.Mutex
	file *os.File
	size int64
}

func openStore(path string) (*store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "log: open store %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "log: stat store %s", path)
	}
	return &store{file: f, size: info.Size()}, nil
}

// Append writes p at the current end of the store and returns the byte
// position the write started at (the header of the first record of a
// batch lands there, matching spec §4.3 step 4's `pos_before_write`).
func (s *store) Append(p []byte) (pos int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos = s.size
	n, err := s.file.WriteAt(p, pos)
	if err != nil {
		return 0, errors.Wrap(err, "log: store append")
	}
	s.size += int64(n)
	return pos, nil
}

// Truncate shrinks the store to size bytes, used by crash recovery to drop
// a torn trailing record (spec §4.3 step 3).
func (s *store) Truncate(size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.file.Truncate(size); err != nil {
		return errors.Wrap(err, "log: store truncate")
	}
	s.size = size
	return nil
}

func (s *store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *store) Sync() error {
	return s.file.Sync()
}

func (s *store) Close() error {
	return s.file.Close()
}

func (s *store) Name() string {
	return s.file.Name()
}
