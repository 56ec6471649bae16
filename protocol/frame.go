package protocol

import "encoding/binary"

// MaxFrameSize bounds a single frame's payload to guard against a corrupt
// or hostile length prefix (spec §8 seed scenario 6: a claimed 1MiB frame
// that never arrives must not pin unbounded memory).
const MaxFrameSize = 100 * 1024 * 1024

// FrameStatus reports whether ParseFrame found a complete frame in buf.
type FrameStatus int

const (
	// FrameIncomplete means buf does not yet contain a full frame.
	FrameIncomplete FrameStatus = iota
	FrameReady
)

// ParseFrame implements the incremental length-prefixed frame decode of
// spec §4.1: `{size:int32 big-endian}{payload: size bytes}`. If fewer than
// 4 bytes are buffered it reports FrameIncomplete with Needed=4. If the
// size is known but the payload hasn't fully arrived, it reports
// FrameIncomplete with Needed set to the total byte count (header +
// payload) the caller should wait for. Payload aliases buf; callers that
// retain it across the next read must copy.
func ParseFrame(buf []byte) (status FrameStatus, payload []byte, needed int, err error) {
	if len(buf) < 4 {
		return FrameIncomplete, nil, 4, nil
	}
	size := int32(binary.BigEndian.Uint32(buf))
	if size < 0 || int64(size) > MaxFrameSize {
		return FrameIncomplete, nil, 0, ErrShortFrame
	}
	total := 4 + int(size)
	if len(buf) < total {
		return FrameIncomplete, nil, total, nil
	}
	return FrameReady, buf[4:total], total, nil
}

// EncodeFrame prepends the 4-byte big-endian length prefix to payload.
func EncodeFrame(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}
