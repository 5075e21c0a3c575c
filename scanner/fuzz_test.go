package scanner

import (
	"bytes"
	"context"
	"testing"
)

// FuzzScan feeds arbitrary byte streams to the scanner. Whatever the input,
// the scan must terminate without panicking, and every message it does
// produce must satisfy the location invariants.
func FuzzScan(f *testing.F) {
	f.Add(simpleMessage())
	f.Add(append([]byte("junk before "), simpleMessage()...))
	f.Add(message(0,
		sec1(), sec3(), sec4(0, 0), sec5(), sec6(255, nil), sec7([]byte{1}),
		sec4(2, 0), sec5(), sec6(255, nil), sec7([]byte{2}),
	))
	f.Add([]byte("GRIB"))
	f.Add([]byte("GRIB\x00\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x14"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		msgs, _ := New(bytes.NewReader(data)).ScanAll(context.Background())
		var prev int64 = -1
		for _, m := range msgs {
			// Submessages share their outer message's offset.
			if m.Offset < prev || (m.Offset == prev && !m.IsSubmessage) {
				t.Errorf("offsets out of order: %d after %d", m.Offset, prev)
			}
			prev = m.Offset
			if m.Offset < 0 || m.Length < int64(section0Len+len(trailer)) {
				t.Errorf("impossible location: offset %d length %d", m.Offset, m.Length)
			}
			if !bytes.Equal(data[m.Offset:m.Offset+4], []byte(magic)) {
				t.Errorf("message at %d does not start with the magic", m.Offset)
			}
			end := m.Offset + m.Length
			if end > int64(len(data)) {
				t.Errorf("message at %d overruns the input", m.Offset)
				continue
			}
			if !bytes.Equal(data[end-4:end], []byte(trailer)) {
				t.Errorf("message at %d does not end with the trailer", m.Offset)
			}
		}
	})
}
