package protocol

import (
	"bytes"
	"io"

	snappy "github.com/eapache/go-xerial-snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// CompressionCodec selects how a wire-transport record_set is compressed.
// This is a wire-boundary concern only (spec SPEC_FULL §2.1): the on-disk
// `.log` format defined by spec §3 never carries this byte, it is always
// raw record framing.
type CompressionCodec int8

const (
	CompressionNone CompressionCodec = iota
	CompressionGZIP
	CompressionSnappy
	CompressionLZ4
)

// CompressRecordSet wraps a raw, already-framed record_set with a one-byte
// codec tag followed by the (possibly compressed) bytes, mirroring the
// teacher's real Kafka compression attribute but carried inline in the
// existing `bytes` field rather than a dedicated attributes byte, since
// spec §3's on-disk framing has no room for one.
func CompressRecordSet(codec CompressionCodec, raw []byte) ([]byte, error) {
	var body []byte
	switch codec {
	case CompressionNone:
		body = raw
	case CompressionGZIP:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
	case CompressionSnappy:
		body = snappy.Encode(raw)
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()
	default:
		return nil, ErrUnknownCompressionCodec
	}

	out := make([]byte, 1+len(body))
	out[0] = byte(codec)
	copy(out[1:], body)
	return out, nil
}

// DecompressRecordSet strips and interprets the codec tag written by
// CompressRecordSet, returning the raw, uncompressed record_set bytes
// ready for protocol.DecodeRecords.
func DecompressRecordSet(in []byte) ([]byte, error) {
	if len(in) == 0 {
		return in, nil
	}
	codec := CompressionCodec(in[0])
	body := in[1:]

	switch codec {
	case CompressionNone:
		return body, nil
	case CompressionGZIP:
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionSnappy:
		return snappy.Decode(body)
	case CompressionLZ4:
		r := lz4.NewReader(bytes.NewReader(body))
		return io.ReadAll(r)
	default:
		return nil, ErrUnknownCompressionCodec
	}
}
