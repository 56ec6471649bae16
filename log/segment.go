package log

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// baseOffsetWidth matches spec §3's "zero-padded to 20 decimal digits".
const baseOffsetWidth = 20

func segmentFileName(baseOffset int64, ext string) string {
	return fmt.Sprintf("%0*d%s", baseOffsetWidth, baseOffset, ext)
}

// segment is one `.log`/`.index` file pair, identified by its base offset
// (spec §3). It owns no notion of "next offset to assign" itself — that is
// partition-wide state (spec "Partition state") owned by partition.go;
// segment only wraps the two files.
type segment struct {
	dir        string
	baseOffset int64
	store      *store
	index      *index
}

func openSegment(dir string, baseOffset int64) (*segment, error) {
	s := &segment{dir: dir, baseOffset: baseOffset}

	st, err := openStore(filepath.Join(dir, segmentFileName(baseOffset, ".log")))
	if err != nil {
		return nil, err
	}
	s.store = st

	idx, err := openIndex(filepath.Join(dir, segmentFileName(baseOffset, ".index")))
	if err != nil {
		st.Close()
		return nil, err
	}
	s.index = idx

	return s, nil
}

// wouldRoll implements spec §4.3's rolling predicate: roll BEFORE
// appending a batch of size s iff either the store would exceed
// segmentBytes, or the next index entry (were byteCount to cross
// indexIntervalBytes with this batch) would overflow indexMaxBytes.
func (s *segment) wouldRoll(size int64, byteCount int64, cfg *Config) bool {
	if s.store.Size()+size > cfg.SegmentBytes {
		return true
	}
	if byteCount+size >= cfg.IndexIntervalBytes && s.index.Size()+indexEntrySize > cfg.IndexMaxBytes {
		return true
	}
	return false
}

func (s *segment) Close() error {
	var merr *multierror.Error
	if err := s.index.Close(); err != nil {
		merr = multierror.Append(merr, err)
	}
	if err := s.store.Close(); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}
