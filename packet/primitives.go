package packet

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"
)

// reader is a bounds-checked cursor over a byte slice. Every read method
// reports ErrNotEnoughData instead of panicking or silently truncating,
// which is what lets the packets' decodeBody implementations satisfy the truncation
// safety invariant (spec property P3) without each one re-deriving bounds
// checks by hand.
type reader struct {
	b   []byte
	off int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) remaining() int { return len(r.b) - r.off }

func (r *reader) byte() (byte, error) {
	if r.remaining() < 1 {
		return 0, ErrNotEnoughData
	}
	v := r.b[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, ErrNotEnoughData
	}
	v := binary.BigEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, ErrNotEnoughData
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v, nil
}

// bytesN returns the next n bytes without copying; callers that retain the
// slice beyond the current decode must clone it.
func (r *reader) bytesN(n int) ([]byte, error) {
	if n < 0 || r.remaining() < n {
		return nil, ErrNotEnoughData
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v, nil
}

func (r *reader) binary() ([]byte, error) {
	n, err := r.u16()
	if err != nil {
		return nil, err
	}
	v, err := r.bytesN(int(n))
	if err != nil {
		return nil, err
	}
	return bytes.Clone(v), nil
}

// utf8string reads a length-prefixed UTF-8 string. When validate is true,
// malformed UTF-8 is rejected per spec property P5; when false the raw
// bytes pass through unchanged.
func (r *reader) utf8string(validate bool) (string, error) {
	n, err := r.u16()
	if err != nil {
		return "", err
	}
	v, err := r.bytesN(int(n))
	if err != nil {
		return "", err
	}
	if validate && !utf8.Valid(v) {
		return "", ErrMalformedInvalidUTF8
	}
	return string(v), nil
}

func (r *reader) stringPair(validate bool) (k, v string, err error) {
	if k, err = r.utf8string(validate); err != nil {
		return "", "", err
	}
	if v, err = r.utf8string(validate); err != nil {
		return "", "", err
	}
	return k, v, nil
}

// varint reads a Variable Byte Integer from the current offset.
func (r *reader) varint() (uint32, error) {
	v, n, err := decodeVarInt(r.b[r.off:])
	if err != nil {
		return 0, err
	}
	r.off += n
	return v, nil
}

// Writer-side helpers. These append to a *bytes.Buffer drawn from the
// shared pool (see pool.go); they never fail on a short write since
// bytes.Buffer grows as needed, so they return no error. The exception is
// putVarInt, which returns an error for a value too large to encode.

func putU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putBinary(buf *bytes.Buffer, v []byte) {
	putU16(buf, uint16(len(v)))
	buf.Write(v)
}

func putString(buf *bytes.Buffer, v string) {
	putU16(buf, uint16(len(v)))
	buf.WriteString(v)
}

func putStringPair(buf *bytes.Buffer, k, v string) {
	putString(buf, k)
	putString(buf, v)
}

func putVarInt(buf *bytes.Buffer, v uint32) error {
	b, err := encodeVarInt(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
