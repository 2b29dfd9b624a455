// Package wire provides little-endian binary encoding and decoding
// primitives for the atlas snapshot format.
//
// The snapshot format uses little-endian byte order for all multi-byte
// values. Reads are bounds-checked; a short buffer surfaces as an error
// instead of a panic so corrupt snapshots fail cleanly.
package wire

import (
	"encoding/binary"
	"errors"
)

var (
	// ErrShortBuffer is returned when a read cannot complete because the
	// buffer has fewer bytes than the value requires.
	ErrShortBuffer = errors.New("wire: buffer too short")

	// ErrNegativeSize is returned when a length prefix decodes to a size
	// larger than the remaining data.
	ErrNegativeSize = errors.New("wire: invalid size")
)

// ByteOrder is the byte order used by the snapshot format.
var ByteOrder = binary.LittleEndian

// Reader decodes little-endian values from a byte slice, maintaining a
// read position with bounds checking on every operation.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	if r.Len() < 1 {
		return 0, ErrShortBuffer
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// Uint16 reads a little-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	if r.Len() < 2 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// Uint32 reads a little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	if r.Len() < 4 {
		return 0, ErrShortBuffer
	}
	v := ByteOrder.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// Bytes reads exactly n bytes. The returned slice aliases the underlying
// data and must not be modified.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if r.Len() < n {
		return nil, ErrShortBuffer
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// String reads a uint16 length prefix followed by that many bytes.
func (r *Reader) String() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Writer encodes little-endian values into a growing byte slice.
type Writer struct {
	buf []byte
}

// NewWriter creates a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Uint8 appends one byte.
func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

// Uint16 appends a little-endian uint16.
func (w *Writer) Uint16(v uint16) {
	w.buf = ByteOrder.AppendUint16(w.buf, v)
}

// Uint32 appends a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	w.buf = ByteOrder.AppendUint32(w.buf, v)
}

// Bytes appends raw bytes without a length prefix.
func (w *Writer) Bytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// String appends a uint16 length prefix followed by the string bytes.
func (w *Writer) String(s string) {
	w.Uint16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// Data returns the encoded bytes.
func (w *Writer) Data() []byte {
	return w.buf
}
