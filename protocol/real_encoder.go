package protocol

import (
	"encoding/binary"

	"github.com/rcrowley/go-metrics"
)

func binaryPutInt32(buf []byte, in int32) {
	binary.BigEndian.PutUint32(buf, uint32(in))
}

// realEncoder encodes a request/response body into a single pre-sized
// buffer, the way the teacher's realEncoder walks a []byte with an offset
// rather than growing a bytes.Buffer on every field.
type realEncoder struct {
	raw      []byte
	off      int
	stack    []pushEncoder
	registry metrics.Registry
}

func (e *realEncoder) putInt8(in int8) {
	e.raw[e.off] = byte(in)
	e.off++
}

func (e *realEncoder) putInt16(in int16) {
	binary.BigEndian.PutUint16(e.raw[e.off:], uint16(in))
	e.off += 2
}

func (e *realEncoder) putInt32(in int32) {
	binaryPutInt32(e.raw[e.off:], in)
	e.off += 4
}

func (e *realEncoder) putInt64(in int64) {
	binary.BigEndian.PutUint64(e.raw[e.off:], uint64(in))
	e.off += 8
}

func (e *realEncoder) putArrayLength(in int) error {
	if in > 2147483647 {
		return ErrArrayTooLarge
	}
	e.putInt32(int32(in))
	return nil
}

func (e *realEncoder) putRawBytes(in []byte) error {
	copy(e.raw[e.off:], in)
	e.off += len(in)
	return nil
}

func (e *realEncoder) putBytes(in []byte) error {
	if in == nil {
		e.putInt32(-1)
		return nil
	}
	e.putInt32(int32(len(in)))
	return e.putRawBytes(in)
}

func (e *realEncoder) putNullableString(in *string) error {
	if in == nil {
		e.putInt16(-1)
		return nil
	}
	return e.putString(*in)
}

func (e *realEncoder) putString(in string) error {
	e.putInt16(int16(len(in)))
	copy(e.raw[e.off:], in)
	e.off += len(in)
	return nil
}

func (e *realEncoder) putStringArray(in []string) error {
	if err := e.putArrayLength(len(in)); err != nil {
		return err
	}
	for _, s := range in {
		if err := e.putString(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *realEncoder) offset() int {
	return e.off
}

// stack

func (e *realEncoder) push(in pushEncoder) {
	in.saveOffset(e.off)
	e.off += in.reserveLength()
	e.stack = append(e.stack, in)
}

func (e *realEncoder) pop() error {
	in := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return in.run(e.off, e.raw)
}

func (e *realEncoder) metricRegistry() metrics.Registry {
	return e.registry
}
