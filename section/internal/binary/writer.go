package binary

import (
	"bytes"
)

// Writer provides buffered writing utilities for GRIB2 section encoding.
type Writer struct {
	buf *bytes.Buffer
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: &bytes.Buffer{}}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// WriteBytes writes a byte slice.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// WriteUint writes an unsigned big-endian integer in width octets.
func (w *Writer) WriteUint(v uint64, width int) {
	for i := width - 1; i >= 0; i-- {
		w.buf.WriteByte(byte(v >> (uint(i) * 8)))
	}
}

// WriteInt writes a sign-and-magnitude big-endian integer in width octets.
func (w *Writer) WriteInt(v int64, width int) {
	sign := uint64(1) << (uint(width)*8 - 1)
	if v < 0 {
		w.WriteUint(uint64(-v)|sign, width)
		return
	}
	w.WriteUint(uint64(v), width)
}

// WriteU16 writes a fixed 2-octet unsigned integer.
func (w *Writer) WriteU16(v uint16) {
	w.WriteUint(uint64(v), 2)
}

// WriteU32 writes a fixed 4-octet unsigned integer.
func (w *Writer) WriteU32(v uint32) {
	w.WriteUint(uint64(v), 4)
}

// WriteU64 writes a fixed 8-octet unsigned integer.
func (w *Writer) WriteU64(v uint64) {
	w.WriteUint(v, 8)
}
