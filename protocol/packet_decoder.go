package protocol

import "encoding/binary"

// packetDecoder is the interface providing helpers for reading with Kafka's
// encoding rules. Types decoding through a packetDecoder only need to worry
// about calling methods like getString, not about how a string is actually
// decoded from the wire.
type packetDecoder interface {
	// Primitives
	getInt8() (int8, error)
	getInt16() (int16, error)
	getInt32() (int32, error)
	getInt64() (int64, error)
	getArrayLength() (int, error)

	// Collections
	getBytes() ([]byte, error)
	getRawBytes(length int) ([]byte, error)
	getNullableString() (*string, error)
	getString() (string, error)
	getStringArray() ([]string, error)

	// Subsets
	remaining() int
	getSubset(length int) (packetDecoder, error)

	// Stacks, see pushDecoder
	push(in pushDecoder) error
	pop() error
}

// pushDecoder is the interface for decoding fields that need to calculate
// their value based on something read from the decoder, such as a length
// field that needs to check the actual number of bytes that follow it
// against its claimed value.
type pushDecoder interface {
	// saveOffset is called at the beginning of the content to save the
	// offset that will later be used to check the length of the body.
	saveOffset(in int)

	// check is called at the end of decoding to verify the length field.
	check(curOffset int, buf []byte) error
}

// lengthFieldDecoder implements the pushDecoder interface and checks that
// the following body is not longer than the length stated.
type lengthFieldDecoder struct {
	startOffset int
}

func (l *lengthFieldDecoder) saveOffset(in int) {
	l.startOffset = in
}

func (l *lengthFieldDecoder) check(curOffset int, buf []byte) error {
	actual := curOffset - l.startOffset - 4
	if actual < 0 {
		return ErrInsufficientData
	}
	if stated := int(int32(binary.BigEndian.Uint32(buf[l.startOffset:]))); actual > stated {
		return ErrInvalidLength
	}
	return nil
}
