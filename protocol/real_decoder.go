package protocol

import "encoding/binary"

// realDecoder walks a []byte with an offset, the mirror image of
// realEncoder.
type realDecoder struct {
	raw   []byte
	off   int
	stack []pushDecoder
}

func (d *realDecoder) remaining() int {
	return len(d.raw) - d.off
}

func (d *realDecoder) getInt8() (int8, error) {
	if d.remaining() < 1 {
		return 0, ErrInsufficientData
	}
	tmp := int8(d.raw[d.off])
	d.off++
	return tmp, nil
}

func (d *realDecoder) getInt16() (int16, error) {
	if d.remaining() < 2 {
		return 0, ErrInsufficientData
	}
	tmp := int16(binary.BigEndian.Uint16(d.raw[d.off:]))
	d.off += 2
	return tmp, nil
}

func (d *realDecoder) getInt32() (int32, error) {
	if d.remaining() < 4 {
		return 0, ErrInsufficientData
	}
	tmp := int32(binary.BigEndian.Uint32(d.raw[d.off:]))
	d.off += 4
	return tmp, nil
}

func (d *realDecoder) getInt64() (int64, error) {
	if d.remaining() < 8 {
		return 0, ErrInsufficientData
	}
	tmp := int64(binary.BigEndian.Uint64(d.raw[d.off:]))
	d.off += 8
	return tmp, nil
}

func (d *realDecoder) getArrayLength() (int, error) {
	if d.remaining() < 4 {
		return 0, ErrInsufficientData
	}
	tmp := int(int32(binary.BigEndian.Uint32(d.raw[d.off:])))
	d.off += 4
	if tmp > d.remaining() {
		return 0, ErrInsufficientData
	}
	return tmp, nil
}

func (d *realDecoder) getRawBytes(length int) ([]byte, error) {
	if length < 0 {
		return nil, ErrInvalidLength
	} else if length > d.remaining() {
		return nil, ErrInsufficientData
	}
	tmp := d.raw[d.off : d.off+length]
	d.off += length
	return tmp, nil
}

func (d *realDecoder) getBytes() ([]byte, error) {
	tmp, err := d.getInt32()
	if err != nil {
		return nil, err
	}
	n := int(tmp)
	if n < 0 {
		return nil, nil
	}
	return d.getRawBytes(n)
}

func (d *realDecoder) getString() (string, error) {
	tmp, err := d.getInt16()
	if err != nil {
		return "", err
	}
	n := int(tmp)
	if n < 0 {
		return "", ErrInvalidLength
	}
	raw, err := d.getRawBytes(n)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (d *realDecoder) getNullableString() (*string, error) {
	tmp, err := d.getInt16()
	if err != nil {
		return nil, err
	}
	n := int(tmp)
	if n < 0 {
		return nil, nil
	}
	raw, err := d.getRawBytes(n)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func (d *realDecoder) getStringArray() ([]string, error) {
	n, err := d.getArrayLength()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	ret := make([]string, n)
	for i := range ret {
		if ret[i], err = d.getString(); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (d *realDecoder) getSubset(length int) (packetDecoder, error) {
	raw, err := d.getRawBytes(length)
	if err != nil {
		return nil, err
	}
	return &realDecoder{raw: raw}, nil
}

func (d *realDecoder) push(in pushDecoder) error {
	in.saveOffset(d.off)
	d.stack = append(d.stack, in)
	return nil
}

func (d *realDecoder) pop() error {
	in := d.stack[len(d.stack)-1]
	d.stack = d.stack[:len(d.stack)-1]
	return in.check(d.off, d.raw)
}
