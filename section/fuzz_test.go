package section

import (
	"bytes"
	"testing"
)

// fuzzRoundTrip decodes arbitrary bytes and, when decoding succeeds, checks
// that encode is stable: re-decoding the encoded form must succeed and
// produce identical bytes. (The first encode may canonicalize, e.g. a
// sign-magnitude negative zero.)
func fuzzRoundTrip[S interface{ Encode() []byte }](t *testing.T, decode func([]byte) (S, error), data []byte) {
	s, err := decode(data)
	if err != nil {
		return
	}
	first := s.Encode()
	s2, err := decode(first)
	if err != nil {
		t.Fatalf("re-decoding encoded section failed: %v", err)
	}
	if second := s2.Encode(); !bytes.Equal(first, second) {
		t.Fatalf("encode not stable:\n first %x\nsecond %x", first, second)
	}
}

func FuzzDecodeIdentification(f *testing.F) {
	f.Add(encodeIdentification(nil))
	f.Add(encodeIdentification([]byte{1, 2, 3}))
	f.Add([]byte{0, 0, 0, 21, 1})
	f.Fuzz(func(t *testing.T, data []byte) {
		fuzzRoundTrip(t, DecodeIdentification, data)
	})
}

func FuzzDecodeGrid(f *testing.F) {
	f.Add(encodeLatLonGrid())
	f.Add([]byte{0, 0, 0, 72, 3})
	f.Fuzz(func(t *testing.T, data []byte) {
		fuzzRoundTrip(t, DecodeGrid, data)
	})
}

func FuzzDecodeProduct(f *testing.F) {
	f.Add(encodeStatProduct())
	f.Add([]byte{0, 0, 0, 34, 4})
	f.Fuzz(func(t *testing.T, data []byte) {
		fuzzRoundTrip(t, DecodeProduct, data)
	})
}

func FuzzDecodePacking(f *testing.F) {
	f.Add(encodeSimplePacking())
	f.Add([]byte{0, 0, 0, 21, 5})
	f.Fuzz(func(t *testing.T, data []byte) {
		fuzzRoundTrip(t, DecodePacking, data)
	})
}
