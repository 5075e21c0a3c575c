package scanner

import (
	"bytes"
	"context"
	stdbinary "encoding/binary"
	stderrors "errors"
	"io"

	"go.uber.org/zap"

	"github.com/meteokit/grib2/errors"
	"github.com/meteokit/grib2/section"
)

const (
	magic   = "GRIB"
	trailer = "7777"

	section0Len = 16
	headerLen   = 5

	// DefaultLookahead bounds the search for the "GRIB" magic from the
	// current position. Junk runs longer than this fail the scan.
	DefaultLookahead = 2048
)

// Scanner walks a seekable byte stream and produces one Message per GRIB2
// message or submessage, in stream order. A Scanner is single-pass: section
// N's start is only known once section N-1 is parsed, so there is no
// parallelism and no restart short of reseeking and constructing a new
// Scanner. Not safe for concurrent use.
type Scanner struct {
	src    io.ReadSeeker
	pos    int64
	size   int64
	count  int
	window int

	// lastBitmap is the bitmap carry accumulator for the scan pass: a
	// section 6 with indicator 0 retains its location here, and a later
	// indicator 254 resolves to it. Scoped to this Scanner so concurrent
	// scans of different streams cannot interfere.
	lastBitmap SectionOffset

	cur *messageState
	err error
}

// messageState accumulates one message across its submessages. A restart
// overwrites sections from the restart point on; earlier sections carry over.
type messageState struct {
	start      int64
	total      int64
	discipline uint8
	expected   int

	isSubmessage bool
	beginSection int
	beginOffset  int64

	sections   [8]SectionOffset
	ident      *section.Identification
	grid       *section.GridDefinition
	product    *section.ProductDefinition
	packing    *section.DataRepresentation
	localUse   []byte
	bitmapFlag uint8
	bitmap     SectionOffset
	decodeErr  error
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLookahead sets the magic-search window in bytes.
func WithLookahead(n int) Option {
	return func(s *Scanner) {
		if n >= len(magic) {
			s.window = n
		}
	}
}

// New returns a Scanner positioned at the start of src.
func New(src io.ReadSeeker, opts ...Option) *Scanner {
	s := &Scanner{src: src, size: -1, window: DefaultLookahead}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Next returns the next message or submessage in the stream. It returns
// io.EOF when the stream is cleanly exhausted. Any other error is sticky:
// the scan cannot continue past a structural violation.
func (s *Scanner) Next() (*Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	msg, err := s.next()
	if err != nil {
		s.err = err
		return nil, err
	}
	return msg, nil
}

func (s *Scanner) next() (*Message, error) {
	for {
		if s.cur == nil {
			if err := s.begin(); err != nil {
				return nil, err
			}
			if s.cur == nil {
				// Legacy message skipped; keep looking.
				continue
			}
		}
		return s.scanBody()
	}
}

// ScanAll drains the scanner, checking ctx between completed messages. On a
// structural error partway through the stream it returns every message
// produced so far together with the error.
func (s *Scanner) ScanAll(ctx context.Context) ([]*Message, error) {
	var msgs []*Message
	for {
		if err := ctx.Err(); err != nil {
			return msgs, err
		}
		msg, err := s.Next()
		if stderrors.Is(err, io.EOF) {
			return msgs, nil
		}
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, msg)
	}
}

// streamSize reports the stream length, measured once on first use.
func (s *Scanner) streamSize() (int64, error) {
	if s.size < 0 {
		n, err := s.src.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, err
		}
		s.size = n
	}
	return s.size, nil
}

// readAt seeks to off and reads exactly n bytes. Declared lengths come from
// the stream itself, so the read is bounded by the real stream size before
// any allocation: a malformed header must not drive an arbitrarily large
// make.
func (s *Scanner) readAt(off int64, n int) ([]byte, error) {
	size, err := s.streamSize()
	if err != nil {
		return nil, err
	}
	if off < 0 || n < 0 || off+int64(n) > size {
		return nil, io.ErrUnexpectedEOF
	}
	if _, err := s.src.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.src, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// findMagic searches a bounded window from the current position for the
// "GRIB" magic. Exhausting the stream without finding it ends the scan
// cleanly; exhausting the window with stream left is a format error.
func (s *Scanner) findMagic() (int64, error) {
	if _, err := s.src.Seek(s.pos, io.SeekStart); err != nil {
		return 0, err
	}
	buf := make([]byte, s.window)
	n, err := io.ReadFull(s.src, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		// A short window means end of stream only when the stream actually
		// ended; any other read failure is reported as-is.
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	buf = buf[:n]
	if i := bytes.Index(buf, []byte(magic)); i >= 0 {
		if i > 0 {
			Logger().Debug("skipped leading bytes before magic",
				zap.Int64("offset", s.pos), zap.Int("skipped", i))
		}
		return s.pos + int64(i), nil
	}
	if n < s.window {
		return 0, io.EOF
	}
	return 0, errors.Format(errors.PhaseScan, s.pos, "GRIB magic not found within lookahead window")
}

// begin locates the next message and parses section 0. A legacy edition 1
// message is skipped in full, leaving s.cur nil.
func (s *Scanner) begin() error {
	off, err := s.findMagic()
	if err != nil {
		return err
	}
	hdr, err := s.readAt(off, section0Len)
	if err != nil {
		return errors.Truncated(errors.PhaseScan, 0, off, err)
	}

	discipline, edition := hdr[6], hdr[7]
	switch edition {
	case 2:
	case 1:
		// GRIB1 carries a 3-octet total length right after the magic.
		skip := int64(hdr[4])<<16 | int64(hdr[5])<<8 | int64(hdr[6])
		if skip < 8 {
			return errors.Format(errors.PhaseScan, off, "edition 1 message with impossible length")
		}
		Logger().Debug("skipping edition 1 message",
			zap.Int64("offset", off), zap.Int64("length", skip))
		s.pos = off + skip
		return nil
	default:
		return errors.UnsupportedEdition(off, int(edition))
	}

	total := int64(stdbinary.BigEndian.Uint64(hdr[8:16]))
	if total < int64(section0Len+len(trailer)) {
		return errors.Format(errors.PhaseScan, off, "declared message length too small")
	}

	c := &messageState{start: off, total: total, discipline: discipline, expected: 1}
	c.sections[0] = SectionOffset{Number: 0, Offset: off, Length: section0Len}
	s.cur = c
	s.pos = off + section0Len
	return nil
}

// scanBody walks section headers until a (sub)message completes. Emits at
// every section 7; only the final submessage is followed by the trailer.
func (s *Scanner) scanBody() (*Message, error) {
	c := s.cur
	end := c.start + c.total

	for {
		if s.pos == end-int64(len(trailer)) {
			tb, err := s.readAt(s.pos, len(trailer))
			if err != nil {
				return nil, errors.Truncated(errors.PhaseScan, -1, s.pos, err)
			}
			if !bytes.Equal(tb, []byte(trailer)) {
				return nil, errors.Format(errors.PhaseScan, s.pos, "message trailer is not 7777")
			}
			s.pos = end
			msg := s.emit(c)
			s.cur = nil
			return msg, nil
		}

		hdr, err := s.readAt(s.pos, headerLen)
		if err != nil {
			return nil, errors.Truncated(errors.PhaseScan, c.expected, s.pos, err)
		}
		length := int64(stdbinary.BigEndian.Uint32(hdr[:4]))
		num := int(hdr[4])

		switch {
		case num == c.expected, num == 3 && c.expected == 2:
			// In sequence; section 2 is optional.
		case num >= 2 && num <= 4 && num < c.expected:
			// Submessage restart: the sequence begins again without a new
			// section 0/1. Restarts only ever begin at sections 2, 3 or 4.
			c.isSubmessage = true
			c.beginSection = num
			c.beginOffset = s.pos
			Logger().Debug("submessage restart",
				zap.Int64("offset", s.pos), zap.Int("section", num))
		default:
			return nil, errors.SectionOrder(s.pos, num, c.expected)
		}

		if length < headerLen || s.pos+length > end-int64(len(trailer)) {
			return nil, errors.Format(errors.PhaseScan, s.pos, "section length overruns message bounds")
		}

		if err := s.consume(c, num, length); err != nil {
			return nil, err
		}
		c.expected = num + 1

		if num == 7 && s.pos != end-int64(len(trailer)) {
			// More submessages follow; emit this one and keep the state.
			msg := s.emit(c)
			c.decodeErr = nil
			return msg, nil
		}
	}
}

// consume records section num at the current position and decodes the
// metadata sections. An unregistered template is fatal only to the message's
// field access, never to the scan.
func (s *Scanner) consume(c *messageState, num int, length int64) error {
	off := s.pos
	rec := SectionOffset{Number: num, Offset: off, Length: length}

	read := func() ([]byte, error) {
		data, err := s.readAt(off, int(length))
		if err != nil {
			return nil, errors.Truncated(errors.PhaseScan, num, off, err)
		}
		return data, nil
	}
	unknownTemplate := &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindUnknownTemplate}

	switch num {
	case 1:
		data, err := read()
		if err != nil {
			return err
		}
		ident, err := section.DecodeIdentification(data)
		if err != nil {
			return err
		}
		c.ident = ident
	case 2:
		data, err := read()
		if err != nil {
			return err
		}
		c.localUse = data[headerLen:]
	case 3:
		data, err := read()
		if err != nil {
			return err
		}
		g, err := section.DecodeGrid(data)
		switch {
		case stderrors.Is(err, unknownTemplate):
			c.grid, c.decodeErr = nil, err
		case err != nil:
			return err
		default:
			c.grid = g
		}
	case 4:
		data, err := read()
		if err != nil {
			return err
		}
		p, err := section.DecodeProduct(data)
		switch {
		case stderrors.Is(err, unknownTemplate):
			c.product, c.decodeErr = nil, err
		case err != nil:
			return err
		default:
			c.product = p
		}
	case 5:
		data, err := read()
		if err != nil {
			return err
		}
		d, err := section.DecodePacking(data)
		switch {
		case stderrors.Is(err, unknownTemplate):
			c.packing, c.decodeErr = nil, err
		case err != nil:
			return err
		default:
			c.packing = d
		}
	case 6:
		flag, err := s.readAt(off+headerLen, 1)
		if err != nil {
			return errors.Truncated(errors.PhaseScan, 6, off, err)
		}
		c.bitmapFlag = flag[0]
		switch flag[0] {
		case 0:
			c.bitmap = rec
			s.lastBitmap = rec
		case 254:
			c.bitmap = s.lastBitmap
		default:
			c.bitmap = SectionOffset{}
		}
	case 7:
		// Located only; unpacking the payload is the codec's concern.
	}

	c.sections[num] = rec
	s.pos = off + length
	return nil
}

func (s *Scanner) emit(c *messageState) *Message {
	s.count++
	m := &Message{
		Offset:                 c.start,
		Length:                 c.total,
		Number:                 s.count,
		Discipline:             c.discipline,
		Edition:                2,
		IsSubmessage:           c.isSubmessage,
		SubmessageBeginSection: c.beginSection,
		SubmessageOffset:       c.beginOffset,
		Sections:               c.sections,
		Identification:         c.ident,
		Grid:                   c.grid,
		Product:                c.product,
		Packing:                c.packing,
		LocalUse:               c.localUse,
		BitmapFlag:             c.bitmapFlag,
		Bitmap:                 c.bitmap,
		Err:                    c.decodeErr,
	}
	Logger().Debug("message scanned",
		zap.Int("number", m.Number),
		zap.Int64("offset", m.Offset),
		zap.Int64("length", m.Length),
		zap.Bool("submessage", m.IsSubmessage))
	return m
}
