package protocol

import "github.com/rcrowley/go-metrics"

// prepEncoder is a packetEncoder that only tracks the size an encoded
// value would take, used as the first pass of a two-pass encode: size it,
// allocate exactly that many bytes, then run a realEncoder over the same
// value. This mirrors the teacher's own two-pass encode/sizing split.
type prepEncoder struct {
	length int
	stack  []pushEncoder
}

func (e *prepEncoder) putInt8(in int8) { e.length++ }

func (e *prepEncoder) putInt16(in int16) { e.length += 2 }

func (e *prepEncoder) putInt32(in int32) { e.length += 4 }

func (e *prepEncoder) putInt64(in int64) { e.length += 8 }

func (e *prepEncoder) putArrayLength(in int) error {
	e.length += 4
	return nil
}

func (e *prepEncoder) putRawBytes(in []byte) error {
	e.length += len(in)
	return nil
}

func (e *prepEncoder) putBytes(in []byte) error {
	e.length += 4
	if in == nil {
		return nil
	}
	return e.putRawBytes(in)
}

func (e *prepEncoder) putNullableString(in *string) error {
	if in == nil {
		e.length += 2
		return nil
	}
	return e.putString(*in)
}

func (e *prepEncoder) putString(in string) error {
	e.length += 2 + len(in)
	return nil
}

func (e *prepEncoder) putStringArray(in []string) error {
	e.length += 4
	for _, s := range in {
		if err := e.putString(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *prepEncoder) offset() int {
	return e.length
}

func (e *prepEncoder) push(in pushEncoder) {
	e.stack = append(e.stack, in)
	e.length += in.reserveLength()
}

func (e *prepEncoder) pop() error {
	e.stack = e.stack[:len(e.stack)-1]
	return nil
}

func (e *prepEncoder) metricRegistry() metrics.Registry {
	return nil
}
