package log

import (
	"sync"

	gokitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/vonnegut/vonnegut/protocol"
)

// SegmentRegistry lets readers discover new sealed/active segments
// without rescanning the partition directory (spec §6). Partition is its
// own default, in-process implementation of this collaborator interface —
// it is invoked by Partition itself on every roll and consulted by Fetch.
type SegmentRegistry interface {
	Register(seg *segment)
	Segments() []*segment
}

// Partition is the single-writer state machine owning one (topic,
// partition)'s segments: append, roll, recover (spec §4.3). Exactly one
// goroutine is expected to call Append (enforced by the caller, e.g.
// server.worker's single-goroutine request loop, not by Partition itself);
// Fetch may run concurrently with Append from any number of goroutines.
type Partition struct {
	mu     sync.RWMutex
	dir    string
	cfg    *Config
	logger gokitlog.Logger

	segments []*segment // ordered by baseOffset; sealed + active
	active   *segment

	// id is the next offset to assign, i.e. the high-water mark (spec
	// "Partition state").
	id int64
	// byteCount is log bytes written since the last index entry.
	byteCount int64
}

// Open recovers (or creates) the partition directory at dir and returns a
// ready-to-use Partition, per spec §4.3 "Recovery".
func Open(dir string, cfg *Config, logger gokitlog.Logger) (*Partition, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = gokitlog.NewNopLogger()
	}

	p := &Partition{dir: dir, cfg: cfg, logger: logger}
	if err := p.recover(); err != nil {
		return nil, err
	}
	return p, nil
}

// Register implements SegmentRegistry.
func (p *Partition) Register(seg *segment) {
	p.segments = append(p.segments, seg)
}

// Segments implements SegmentRegistry.
func (p *Partition) Segments() []*segment {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// HighWaterMark is the next offset that will be assigned.
func (p *Partition) HighWaterMark() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

// Append assigns sequential offsets to payloads, writes them to the active
// segment, conditionally writes a sparse-index entry, conditionally rolls
// to a new segment, and returns the first assigned offset plus the record
// count — spec §4.3's "Append algorithm", steps 1-4.
func (p *Partition) Append(payloads [][]byte) (firstOffset int64, count int, err error) {
	if len(payloads) == 0 {
		return 0, 0, ErrEmptyBatch
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	records := make([]protocol.Record, len(payloads))
	for i, payload := range payloads {
		records[i] = protocol.Record{Offset: p.id + int64(i), Payload: payload}
	}
	encoded := protocol.EncodeRecords(records)

	firstOffset, err = p.appendEncodedLocked(encoded, len(payloads))
	if err != nil {
		return 0, 0, err
	}
	return firstOffset, len(payloads), nil
}

// AppendRecordSet accepts an already spec-§3-framed record batch, such as
// the `record_set` bytes a Produce request carries straight off the wire,
// and appends it after overwriting its headers' offsets with engine-
// assigned ones via protocol.RewriteOffsets (spec §9: engine-assigned
// offsets always win over whatever the client framed the batch with).
// Unlike Append, it never decodes individual payloads out of buf, so a
// dispatcher sitting in front of many partitions can forward a produce
// request's record_set straight through without a decode/re-encode
// round trip.
func (p *Partition) AppendRecordSet(buf []byte) (firstOffset int64, count int, err error) {
	if len(buf) == 0 {
		return 0, 0, ErrEmptyBatch
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	count, err = protocol.RewriteOffsets(buf, p.id)
	if err != nil {
		return 0, 0, errors.Wrap(err, "log: rewrite record set offsets")
	}

	firstOffset, err = p.appendEncodedLocked(buf, count)
	if err != nil {
		return 0, 0, err
	}
	return firstOffset, count, nil
}

// appendEncodedLocked writes an already-framed record batch of count
// records to the active segment, conditionally rolling first and
// conditionally indexing after, per spec §4.3's "Append algorithm" steps
// 2-4. Callers must hold p.mu and must have already assigned/rewritten the
// batch's record offsets starting at p.id.
func (p *Partition) appendEncodedLocked(encoded []byte, count int) (firstOffset int64, err error) {
	size := int64(len(encoded))

	if p.active.wouldRoll(size, p.byteCount, p.cfg) {
		if err := p.roll(); err != nil {
			return 0, err
		}
	}

	firstOffset = p.id
	pos, err := p.active.store.Append(encoded)
	if err != nil {
		return 0, errors.Wrap(err, "log: append")
	}
	if p.cfg.FlushEveryAppend {
		if err := p.active.store.Sync(); err != nil {
			err = errors.Wrap(err, "log: sync after append")
			if terr := p.active.store.Truncate(pos); terr != nil {
				return 0, multierror.Append(err, terr)
			}
			return 0, err
		}
	}

	p.id += int64(count)
	p.byteCount += size

	if p.byteCount >= p.cfg.IndexIntervalBytes {
		rel := int32(firstOffset - p.active.baseOffset)
		if err := p.active.index.Write(rel, int32(pos)); err != nil {
			err = errors.Wrap(err, "log: write index entry")
			p.id = firstOffset
			p.byteCount -= size
			if terr := p.active.store.Truncate(pos); terr != nil {
				return 0, multierror.Append(err, terr)
			}
			return 0, err
		}
		p.byteCount = 0
	}

	level.Debug(p.logger).Log("msg", "appended batch", "first_offset", firstOffset, "count", count, "bytes", size)
	return firstOffset, nil
}

// roll closes nothing (the old active segment stays open for reads) and
// opens a fresh segment based at the offset about to be assigned, per spec
// §4.3 "Rolling predicate" / "When rolling".
func (p *Partition) roll() error {
	base := p.id
	seg, err := openSegment(p.dir, base)
	if err != nil {
		return errors.Wrapf(err, "log: roll to new segment at base offset %d", base)
	}
	p.Register(seg)
	p.active = seg
	p.byteCount = 0
	level.Info(p.logger).Log("msg", "rolled segment", "base_offset", base)
	return nil
}

// Close flushes and closes every open segment's files, per spec "Partition
// state" lifecycle.
func (p *Partition) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var merr *multierror.Error
	for _, seg := range p.segments {
		if err := seg.Close(); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
