package grib2

import (
	"bytes"
	stdbinary "encoding/binary"
	"io"
	"os"

	"github.com/meteokit/grib2/errors"
	"github.com/meteokit/grib2/scanner"
)

// Writer appends whole GRIB2 messages to a sink. Messages are written
// strictly sequentially; a Writer must not be shared across goroutines.
type Writer struct {
	dst    io.Writer
	closer io.Closer
	count  int
}

// NewWriter returns a Writer appending to dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

// Create opens path for writing (truncating an existing file) and returns a
// Writer over it.
func Create(path string) (*Writer, error) {
	h, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseWrite, errors.KindInvalidInput, err, "create file")
	}
	return &Writer{dst: h, closer: h}, nil
}

// WriteMessage appends one complete message. The bytes must carry the "GRIB"
// magic, a declared total length matching len(raw) and the "7777" trailer;
// anything else would corrupt the output stream for every later reader.
func (w *Writer) WriteMessage(raw []byte) error {
	if len(raw) < 20 {
		return errors.InvalidInput(errors.PhaseWrite, "message shorter than section 0 plus trailer")
	}
	if !bytes.HasPrefix(raw, []byte("GRIB")) {
		return errors.Format(errors.PhaseWrite, 0, "message does not start with GRIB")
	}
	if !bytes.HasSuffix(raw, []byte("7777")) {
		return errors.Format(errors.PhaseWrite, int64(len(raw)-4), "message does not end with 7777")
	}
	if declared := stdbinary.BigEndian.Uint64(raw[8:16]); declared != uint64(len(raw)) {
		return errors.New(errors.PhaseWrite, errors.KindInvalidData).
			Detail("declared length %d does not match %d bytes", declared, len(raw)).
			Build()
	}
	if _, err := w.dst.Write(raw); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindInvalidInput, err, "write message")
	}
	w.count++
	return nil
}

// CopyMessage appends a message read out of an open file, preserving its
// bytes exactly.
func (w *Writer) CopyMessage(src *File, m *scanner.Message) error {
	raw, err := src.RawMessage(m)
	if err != nil {
		return err
	}
	return w.WriteMessage(raw)
}

// Count returns the number of messages written so far.
func (w *Writer) Count() int { return w.count }

// Close closes the underlying file, if Create opened one.
func (w *Writer) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
