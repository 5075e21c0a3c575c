package scanner

import (
	"time"

	"github.com/meteokit/grib2/section"
)

// SectionOffset locates one section inside the source stream. Immutable once
// recorded.
type SectionOffset struct {
	Number int
	Offset int64
	Length int64
}

// Valid reports whether the section was actually observed.
func (o SectionOffset) Valid() bool { return o.Length > 0 }

// Message describes one GRIB2 message (or one submessage) found by a scan:
// where it lives in the stream plus the decoded metadata sections. Section 7
// is located but never decoded here; unpacking the data payload is the
// caller's codec's concern.
type Message struct {
	// Offset is the position of the "GRIB" magic in the stream.
	Offset int64
	// Length is the declared total message length from section 0. Submessages
	// of one message share Offset and Length.
	Length int64
	// Number is the 1-based position of this record in scan order.
	Number int

	Discipline uint8
	Edition    uint8

	// IsSubmessage is set when this record was produced by a section-sequence
	// restart inside an already-open message.
	IsSubmessage bool
	// SubmessageBeginSection is the section number the restart began at,
	// 0 when IsSubmessage is false.
	SubmessageBeginSection int
	// SubmessageOffset is the stream position of the restart's first section
	// header, 0 when IsSubmessage is false.
	SubmessageOffset int64

	// Sections holds the observed section locations indexed by section
	// number. A zero Length marks a section not present in this (sub)message.
	Sections [8]SectionOffset

	Identification *section.Identification
	Grid           *section.GridDefinition
	Product        *section.ProductDefinition
	Packing        *section.DataRepresentation

	// LocalUse is the section 2 payload, nil when the section is absent.
	LocalUse []byte

	// BitmapFlag is the section 6 indicator: 0 bitmap follows, 254 reuse the
	// previous bitmap, 255 no bitmap.
	BitmapFlag uint8
	// Bitmap locates the bitmap section this message's data refers to. For
	// flag 254 it points at an earlier message's section 6; zero when the
	// message carries no bitmap.
	Bitmap SectionOffset

	// Err records a per-message metadata decode failure (typically an
	// unregistered template). The location data is still valid; the message
	// just cannot answer field queries.
	Err error
}

// RefTime returns the reference time from section 1, or the zero time when
// section 1 failed to decode.
func (m *Message) RefTime() time.Time {
	if m.Identification == nil {
		return time.Time{}
	}
	return m.Identification.RefTime()
}

// ParameterIdentity returns the (discipline, category, number) triple
// identifying the parameter. ok is false when section 4 is not decoded.
func (m *Message) ParameterIdentity() (discipline, category, number uint8, ok bool) {
	if m.Product == nil {
		return 0, 0, 0, false
	}
	return m.Discipline, m.Product.ParameterCategory(), m.Product.ParameterNumber(), true
}

// GridPointCount returns the number of data points from section 3, 0 when
// section 3 is not decoded.
func (m *Message) GridPointCount() uint32 {
	if m.Grid == nil {
		return 0
	}
	return m.Grid.NumberOfDataPoints
}
