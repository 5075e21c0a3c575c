package binary

import (
	"errors"
	"fmt"
	"io"
)

// ErrWidth is returned when an octet width outside 1..8 is requested.
var ErrWidth = errors.New("octet width out of range")

// Reader wraps a byte slice with position tracking and GRIB2-specific read
// methods. All multi-octet integers are big-endian; signed integers use the
// GRIB2 sign-and-magnitude convention (high bit of the leading octet is the
// sign).
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a new Reader over the given bytes.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the count of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// Skip advances the position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || r.pos+n > len(r.buf) {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}

// ReadUint reads an unsigned big-endian integer of width octets (1..8).
func (r *Reader) ReadUint(width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, r.wrapError(ErrWidth)
	}
	data, err := r.ReadBytes(width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// ReadInt reads a sign-and-magnitude big-endian integer of width octets.
// The high bit of the leading octet carries the sign; the remaining bits
// carry the magnitude.
func (r *Reader) ReadInt(width int) (int64, error) {
	v, err := r.ReadUint(width)
	if err != nil {
		return 0, err
	}
	sign := uint64(1) << (uint(width)*8 - 1)
	if v&sign != 0 {
		return -int64(v &^ sign), nil
	}
	return int64(v), nil
}

// ReadU16 reads a fixed 2-octet unsigned integer.
func (r *Reader) ReadU16() (uint16, error) {
	v, err := r.ReadUint(2)
	return uint16(v), err
}

// ReadU32 reads a fixed 4-octet unsigned integer.
func (r *Reader) ReadU32() (uint32, error) {
	v, err := r.ReadUint(4)
	return uint32(v), err
}

// ReadU64 reads a fixed 8-octet unsigned integer.
func (r *Reader) ReadU64() (uint64, error) {
	return r.ReadUint(8)
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.pos, err)
}

// ParseError represents an error during section parsing with position information.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("grib2: %s at position %d: %v", e.Section, e.Position, e.Err)
	}
	return fmt.Sprintf("grib2: at position %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// WrapError creates a ParseError with the current position.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{
		Position: r.pos,
		Section:  section,
		Err:      err,
	}
}
