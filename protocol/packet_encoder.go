package protocol

import "github.com/rcrowley/go-metrics"

// packetEncoder is the interface providing helpers for writing with Kafka's
// encoding rules. Types encoding through a packetEncoder only need to worry
// about calling methods like putString, not about how a string is actually
// encoded on the wire.
type packetEncoder interface {
	// Primitives
	putInt8(in int8)
	putInt16(in int16)
	putInt32(in int32)
	putInt64(in int64)
	putArrayLength(in int) error

	// Collections
	putBytes(in []byte) error
	putRawBytes(in []byte) error
	putNullableString(in *string) error
	putString(in string) error
	putStringArray(in []string) error

	// Stacks, see pushEncoder
	push(in pushEncoder)
	pop() error

	// Misc
	offset() int
	metricRegistry() metrics.Registry
}

// pushEncoder is the interface for encoding fields that need to calculate
// their value based on what they encapsulate, such as a length field that
// needs to be calculated once the body it's describing has been fully
// encoded. The stack of pushEncoders is unwound as a packetEncoder is
// popped, most-recently-pushed first.
type pushEncoder interface {
	// saveOffset is called at the beginning of the content to save the
	// offset that will later be used to compute the field's value.
	saveOffset(in int)

	// reserveLength returns the number of bytes that need to be reserved
	// for this field; it will always be called just once, immediately
	// after saveOffset.
	reserveLength() int

	// run is called once the value to compute is ready, and should write
	// the calculated value to the provided packetEncoder. currOffset is
	// the offset of the current position, which is needed to calculate the
	// value in some cases.
	run(currOffset int, buf []byte) error
}

// lengthField implements the pushEncoder interface for calculating 4-byte
// (int32) length fields, the most common form of length field in the
// protocol.
type lengthField struct {
	startOffset int
}

func (l *lengthField) saveOffset(in int) {
	l.startOffset = in
}

func (l *lengthField) reserveLength() int {
	return 4
}

func (l *lengthField) run(curOffset int, buf []byte) error {
	binaryPutInt32(buf[l.startOffset:], int32(curOffset-l.startOffset-4))
	return nil
}
