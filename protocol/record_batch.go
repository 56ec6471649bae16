package protocol

import "encoding/binary"

// RecordHeaderSize is the fixed 12-byte `{offset:int64,size:int32}` header
// that precedes every record's payload, per spec §3. This framing is used
// both on disk (the `.log` file) and on the wire (the `record_set` bytes
// field of Produce/Fetch) — they are byte-for-byte the same format.
const RecordHeaderSize = 12

// Record is a single append unit: an offset plus an opaque payload.
type Record struct {
	Offset  int64
	Payload []byte
}

// EncodedSize returns the on-disk/wire size of r, header included.
func (r Record) EncodedSize() int {
	return RecordHeaderSize + len(r.Payload)
}

// AppendRecord appends r's wire encoding to buf and returns the grown
// slice, the way the teacher's MessageSet.encode appends one message at a
// time onto a shared packetEncoder.
func AppendRecord(buf []byte, r Record) []byte {
	hdr := make([]byte, RecordHeaderSize)
	binary.BigEndian.PutUint64(hdr[0:8], uint64(r.Offset))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(r.Payload)))
	buf = append(buf, hdr...)
	buf = append(buf, r.Payload...)
	return buf
}

// EncodeRecords concatenates records in order into a single record_set.
func EncodeRecords(records []Record) []byte {
	size := 0
	for _, r := range records {
		size += r.EncodedSize()
	}
	buf := make([]byte, 0, size)
	for _, r := range records {
		buf = AppendRecord(buf, r)
	}
	return buf
}

// DecodeRecordHeader reads the 12-byte header at the start of buf. ok is
// false if buf is shorter than RecordHeaderSize (a torn header).
func DecodeRecordHeader(buf []byte) (offset int64, size int32, ok bool) {
	if len(buf) < RecordHeaderSize {
		return 0, 0, false
	}
	offset = int64(binary.BigEndian.Uint64(buf[0:8]))
	size = int32(binary.BigEndian.Uint32(buf[8:12]))
	return offset, size, true
}

// DecodeRecords parses a complete, untruncated record_set (as received
// whole over the wire) into individual records. It is stricter than the
// on-disk recovery scan: any torn trailing record is an error here, since
// a wire record_set is expected to be exactly as long as its header
// claims (spec §8 seed scenario 6 is about frame-level truncation, not
// this).
func DecodeRecords(buf []byte) ([]Record, error) {
	var records []Record
	for len(buf) > 0 {
		offset, size, ok := DecodeRecordHeader(buf)
		if !ok {
			return nil, ErrCorruptRecordSet
		}
		buf = buf[RecordHeaderSize:]
		if size < 0 || int(size) > len(buf) {
			return nil, ErrCorruptRecordSet
		}
		records = append(records, Record{Offset: offset, Payload: buf[:size]})
		buf = buf[size:]
	}
	return records, nil
}

// RewriteOffsets reassigns sequential offsets starting at startOffset to
// every record in buf, overwriting whatever offset the client supplied.
// This implements spec §9's resolution of the client-vs-engine-offset
// ambiguity: engine-assigned offsets always win. It mutates buf in place
// and returns the number of records rewritten.
func RewriteOffsets(buf []byte, startOffset int64) (int, error) {
	n := 0
	id := startOffset
	rest := buf
	for len(rest) > 0 {
		_, size, ok := DecodeRecordHeader(rest)
		if !ok {
			return 0, ErrCorruptRecordSet
		}
		if size < 0 || int(size) > len(rest)-RecordHeaderSize {
			return 0, ErrCorruptRecordSet
		}
		binary.BigEndian.PutUint64(rest[0:8], uint64(id))
		id++
		n++
		rest = rest[RecordHeaderSize+int(size):]
	}
	return n, nil
}
