package grib2

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"

	"github.com/meteokit/grib2/errors"
	"github.com/meteokit/grib2/index"
	"github.com/meteokit/grib2/scanner"
)

// File is an open GRIB2 byte source together with the index built by
// scanning it once at open time. Positional reads through RawMessage and
// RawMessages are safe for concurrent use; Read/Seek/Tell share one cursor
// and are not.
type File struct {
	mu     sync.Mutex // guards the seek-then-read pair on src
	src    io.ReadSeeker
	closer io.Closer
	idx    *index.Index
}

// Open opens and indexes the GRIB2 file at path. Gzip-compressed files are
// detected by magic and inflated into memory.
func Open(path string) (*File, error) {
	h, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseOpen, errors.KindInvalidInput, err, "open file")
	}
	f, err := NewFile(h)
	if f == nil {
		h.Close()
		return nil, err
	}
	f.closer = h
	return f, err
}

// NewFile scans and indexes src. On a structural error partway through the
// stream the returned File still holds every message scanned before the
// error, alongside the error itself; a nil File means nothing was usable.
func NewFile(src io.ReadSeeker) (*File, error) {
	src, err := inflateIfGzip(src)
	if err != nil {
		return nil, err
	}
	msgs, scanErr := scanner.New(src).ScanAll(context.Background())
	if scanErr != nil && len(msgs) == 0 {
		return nil, scanErr
	}
	return &File{src: src, idx: index.New(msgs)}, scanErr
}

// inflateIfGzip sniffs the 2-byte gzip magic and, when present, inflates the
// whole stream into a seekable buffer.
func inflateIfGzip(src io.ReadSeeker) (io.ReadSeeker, error) {
	sniff := make([]byte, 2)
	n, err := io.ReadFull(src, sniff)
	if _, serr := src.Seek(0, io.SeekStart); serr != nil {
		return nil, errors.Wrap(errors.PhaseOpen, errors.KindInvalidInput, serr, "rewind source")
	}
	if n < 2 || err != nil || sniff[0] != 0x1f || sniff[1] != 0x8b {
		return src, nil
	}

	zr, err := gzip.NewReader(src)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseOpen, errors.KindFormat, err, "gzip header")
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseOpen, errors.KindFormat, err, "inflate gzip source")
	}
	return bytes.NewReader(raw), nil
}

// Close releases the underlying file handle, if Open created one.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Index returns the message index built at open time.
func (f *File) Index() *index.Index { return f.idx }

// Len returns the number of indexed messages.
func (f *File) Len() int { return f.idx.Len() }

// Message returns message n (1-based); n = 0 yields nil.
func (f *File) Message(n int) *scanner.Message { return f.idx.Get(n) }

// Read returns up to n messages starting after the current position,
// advancing the position past the last one returned. It works in message
// units, mirroring Seek and Tell.
func (f *File) Read(n int) []*scanner.Message {
	var out []*scanner.Message
	for i := 0; i < n; i++ {
		m := f.idx.Get(f.idx.Tell() + 1)
		if m == nil {
			break
		}
		out = append(out, m)
		f.idx.Seek(m.Number)
	}
	return out
}

// Seek positions the message cursor at message n, returning the byte offset
// of that message's section 0.
func (f *File) Seek(n int) (int64, error) { return f.idx.Seek(n) }

// Tell returns the current position in message units.
func (f *File) Tell() int { return f.idx.Tell() }

// Select returns, in scan order, the indexed messages satisfying every
// predicate.
func (f *File) Select(predicates map[string]any) []*scanner.Message {
	return f.idx.Select(predicates)
}

// RawMessage reads the message's full byte range. The seek-then-read pair
// runs under the handle lock, so concurrent callers never interleave.
func (f *File) RawMessage(m *scanner.Message) ([]byte, error) {
	if m == nil {
		return nil, errors.InvalidInput(errors.PhaseIndex, "nil message")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.src.Seek(m.Offset, io.SeekStart); err != nil {
		return nil, errors.Wrap(errors.PhaseIndex, errors.KindInvalidInput, err, "seek to message")
	}
	raw := make([]byte, m.Length)
	if _, err := io.ReadFull(f.src, raw); err != nil {
		return nil, errors.Truncated(errors.PhaseIndex, -1, m.Offset, err)
	}
	return raw, nil
}

// RawMessages fetches several messages' byte ranges concurrently. Each fetch
// still serializes on the handle lock; the fan-out only overlaps allocation
// and scheduling with I/O of other fetches.
func (f *File) RawMessages(ctx context.Context, msgs []*scanner.Message) ([][]byte, error) {
	g, ctx := errgroup.WithContext(ctx)
	out := make([][]byte, len(msgs))
	for i, m := range msgs {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := f.RawMessage(m)
			if err != nil {
				return err
			}
			out[i] = raw
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
