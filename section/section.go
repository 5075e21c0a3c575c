package section

import (
	"time"

	"github.com/meteokit/grib2/errors"
	"github.com/meteokit/grib2/section/internal/binary"
)

// HeaderLen is the size of the common section header: a 4-octet length
// followed by a 1-octet section number.
const HeaderLen = 5

// missing is the decoded stand-in for an all-ones 4-octet unsigned entry.
const missing = -1

// readHeader consumes the common section header and checks that the declared
// length covers exactly the bytes handed in.
func readHeader(r *binary.Reader, data []byte, want int) error {
	length, err := r.ReadU32()
	if err != nil {
		return errors.Truncated(errors.PhaseDecode, want, 0, err)
	}
	num, err := r.ReadByte()
	if err != nil {
		return errors.Truncated(errors.PhaseDecode, want, 0, err)
	}
	if int(num) != want {
		return errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Section(int(num)).
			Detail("expected section %d header", want).
			Build()
	}
	if int(length) != len(data) {
		return errors.New(errors.PhaseDecode, errors.KindTruncated).
			Section(want).
			Detail("section declares %d bytes, %d supplied", length, len(data)).
			Build()
	}
	return nil
}

// readEntries decodes octet-mapped template entries. mapMissing converts
// all-ones 4-octet unsigned entries to -1, matching the convention for grid
// and packing sections.
func readEntries(r *binary.Reader, widths []int8, mapMissing bool) ([]int64, error) {
	raw := make([]int64, len(widths))
	for i, w := range widths {
		if w < 0 {
			v, err := r.ReadInt(int(-w))
			if err != nil {
				return nil, err
			}
			raw[i] = v
			continue
		}
		v, err := r.ReadUint(int(w))
		if err != nil {
			return nil, err
		}
		if mapMissing && w == 4 && v == 0xFFFFFFFF {
			raw[i] = missing
			continue
		}
		raw[i] = int64(v)
	}
	return raw, nil
}

func writeEntries(w *binary.Writer, widths []int8, raw []int64) {
	for i, width := range widths {
		if width < 0 {
			w.WriteInt(raw[i], int(-width))
			continue
		}
		v := raw[i]
		if v < 0 {
			// Missing marker round-trips to all ones.
			v = int64(uint64(1)<<(uint(width)*8) - 1)
		}
		w.WriteUint(uint64(v), int(width))
	}
}

// decodeTemplate reads a template's fixed entries plus any extension the
// fixed part implies. Short reads are wrapped in a binary.ParseError so the
// failing octet position survives in the error chain.
func decodeTemplate(r *binary.Reader, t *Template, mapMissing bool) ([]int64, error) {
	raw, err := readEntries(r, t.Octets, mapMissing)
	if err != nil {
		return nil, r.WrapError(t.Kind.String(), err)
	}
	if t.Extend != nil {
		if extra := t.Extend(raw); len(extra) > 0 {
			ext, err := readEntries(r, extra, mapMissing)
			if err != nil {
				return nil, r.WrapError(t.Kind.String(), err)
			}
			raw = append(raw, ext...)
		}
	}
	return raw, nil
}

func encodeTemplate(w *binary.Writer, t *Template, raw []int64) {
	writeEntries(w, t.Octets, raw[:t.Len()])
	if t.Extend != nil {
		if extra := t.Extend(raw[:t.Len()]); len(extra) > 0 {
			writeEntries(w, extra, raw[t.Len():])
		}
	}
}

// finish prefixes the payload with the common section header.
func finish(section int, payload []byte) []byte {
	w := binary.NewWriter()
	w.WriteU32(uint32(HeaderLen + len(payload)))
	w.Byte(byte(section))
	w.WriteBytes(payload)
	return w.Bytes()
}

// Identification is the decoded Identification Section (section 1). The
// layout is fixed, so the section is a single-variant view.
type Identification struct {
	View

	// Reserved holds octets past the fixed layout, preserved for
	// byte-exact re-encoding.
	Reserved []byte
}

// DecodeIdentification decodes a full section 1, header included.
func DecodeIdentification(data []byte) (*Identification, error) {
	r := binary.NewReader(data)
	if err := readHeader(r, data, 1); err != nil {
		return nil, err
	}
	t, _ := Lookup(KindIdentification, 0)
	raw, err := decodeTemplate(r, t, false)
	if err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 1, int64(r.Position()), err)
	}
	rest, _ := r.ReadBytes(r.Remaining())
	return &Identification{View: *newView(t, raw), Reserved: rest}, nil
}

// Encode re-encodes the section, header included.
func (s *Identification) Encode() []byte {
	w := binary.NewWriter()
	encodeTemplate(w, s.tmpl, s.raw)
	w.WriteBytes(s.Reserved)
	return finish(1, w.Bytes())
}

// RefTime returns the reference time assembled from the date entries.
func (s *Identification) RefTime() time.Time {
	return time.Date(
		int(s.raw[5]), time.Month(s.raw[6]), int(s.raw[7]),
		int(s.raw[8]), int(s.raw[9]), int(s.raw[10]),
		0, time.UTC,
	)
}

// Center returns the originating center.
func (s *Identification) Center() uint16 { return uint16(s.raw[0]) }

// SubCenter returns the originating sub-center.
func (s *Identification) SubCenter() uint16 { return uint16(s.raw[1]) }

// GridDefinition is the decoded Grid Definition Section (section 3).
type GridDefinition struct {
	Source                uint8
	NumberOfDataPoints    uint32
	OptListOctets         uint8
	OptListInterpretation uint8

	View

	// OptionalList carries the list of numbers defining extra grid points
	// (quasi-regular grids), decoded at OptListOctets per entry.
	OptionalList []uint32
}

// DecodeGrid decodes a full section 3, header included.
func DecodeGrid(data []byte) (*GridDefinition, error) {
	r := binary.NewReader(data)
	if err := readHeader(r, data, 3); err != nil {
		return nil, err
	}
	g := &GridDefinition{}
	var err error
	if g.Source, err = r.ReadByte(); err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 3, int64(r.Position()), err)
	}
	if g.NumberOfDataPoints, err = r.ReadU32(); err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 3, int64(r.Position()), err)
	}
	if g.OptListOctets, err = r.ReadByte(); err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 3, int64(r.Position()), err)
	}
	if g.OptListInterpretation, err = r.ReadByte(); err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 3, int64(r.Position()), err)
	}
	gdtn, err := r.ReadU16()
	if err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 3, int64(r.Position()), err)
	}
	t, ok := Lookup(KindGrid, gdtn)
	if !ok {
		return nil, errors.UnknownTemplate(3, gdtn)
	}
	raw, err := decodeTemplate(r, t, true)
	if err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 3, int64(r.Position()), err)
	}
	g.View = *newView(t, raw)
	if g.OptListOctets > 0 {
		if r.Remaining()%int(g.OptListOctets) != 0 {
			return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Section(3).
				Detail("optional list of %d bytes not divisible by %d-octet entries", r.Remaining(), g.OptListOctets).
				Build()
		}
		n := r.Remaining() / int(g.OptListOctets)
		g.OptionalList = make([]uint32, n)
		for i := 0; i < n; i++ {
			v, err := r.ReadUint(int(g.OptListOctets))
			if err != nil {
				return nil, errors.Truncated(errors.PhaseDecode, 3, int64(r.Position()), err)
			}
			g.OptionalList[i] = uint32(v)
		}
	}
	if r.Remaining() != 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Section(3).
			Detail("%d trailing bytes after grid template", r.Remaining()).
			Build()
	}
	return g, nil
}

// Encode re-encodes the section, header included.
func (g *GridDefinition) Encode() []byte {
	w := binary.NewWriter()
	w.Byte(g.Source)
	w.WriteU32(g.NumberOfDataPoints)
	w.Byte(g.OptListOctets)
	w.Byte(g.OptListInterpretation)
	w.WriteU16(g.tmpl.Number)
	encodeTemplate(w, g.tmpl, g.raw)
	for _, v := range g.OptionalList {
		w.WriteUint(uint64(v), int(g.OptListOctets))
	}
	return finish(3, w.Bytes())
}

// ProductDefinition is the decoded Product Definition Section (section 4).
type ProductDefinition struct {
	NumCoordValues uint16

	View

	// CoordValues carries the optional vertical coordinate values verbatim;
	// their interpretation is the caller's concern.
	CoordValues []byte
}

// DecodeProduct decodes a full section 4, header included.
func DecodeProduct(data []byte) (*ProductDefinition, error) {
	r := binary.NewReader(data)
	if err := readHeader(r, data, 4); err != nil {
		return nil, err
	}
	p := &ProductDefinition{}
	var err error
	if p.NumCoordValues, err = r.ReadU16(); err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 4, int64(r.Position()), err)
	}
	pdtn, err := r.ReadU16()
	if err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 4, int64(r.Position()), err)
	}
	t, ok := Lookup(KindProduct, pdtn)
	if !ok {
		return nil, errors.UnknownTemplate(4, pdtn)
	}
	raw, err := decodeTemplate(r, t, false)
	if err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 4, int64(r.Position()), err)
	}
	p.View = *newView(t, raw)
	p.CoordValues, _ = r.ReadBytes(r.Remaining())
	return p, nil
}

// Encode re-encodes the section, header included.
func (p *ProductDefinition) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU16(p.NumCoordValues)
	w.WriteU16(p.tmpl.Number)
	encodeTemplate(w, p.tmpl, p.raw)
	w.WriteBytes(p.CoordValues)
	return finish(4, w.Bytes())
}

// ParameterCategory returns the parameter category code.
func (p *ProductDefinition) ParameterCategory() uint8 { return uint8(p.raw[0]) }

// ParameterNumber returns the parameter number code.
func (p *ProductDefinition) ParameterNumber() uint8 { return uint8(p.raw[1]) }

// DataRepresentation is the decoded Data Representation Section (section 5).
type DataRepresentation struct {
	NumberOfPackedValues uint32

	View
}

// DecodePacking decodes a full section 5, header included.
func DecodePacking(data []byte) (*DataRepresentation, error) {
	r := binary.NewReader(data)
	if err := readHeader(r, data, 5); err != nil {
		return nil, err
	}
	d := &DataRepresentation{}
	var err error
	if d.NumberOfPackedValues, err = r.ReadU32(); err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 5, int64(r.Position()), err)
	}
	drtn, err := r.ReadU16()
	if err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 5, int64(r.Position()), err)
	}
	t, ok := Lookup(KindPacking, drtn)
	if !ok {
		return nil, errors.UnknownTemplate(5, drtn)
	}
	raw, err := decodeTemplate(r, t, true)
	if err != nil {
		return nil, errors.Truncated(errors.PhaseDecode, 5, int64(r.Position()), err)
	}
	d.View = *newView(t, raw)
	if r.Remaining() != 0 {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Section(5).
			Detail("%d trailing bytes after representation template", r.Remaining()).
			Build()
	}
	return d, nil
}

// Encode re-encodes the section, header included.
func (d *DataRepresentation) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32(d.NumberOfPackedValues)
	w.WriteU16(d.tmpl.Number)
	encodeTemplate(w, d.tmpl, d.raw)
	return finish(5, w.Bytes())
}

// Decode dispatches on the section kind and returns the selected template
// number with the decoded field view.
func Decode(kind Kind, data []byte) (uint16, FieldView, error) {
	switch kind {
	case KindIdentification:
		s, err := DecodeIdentification(data)
		if err != nil {
			return 0, nil, err
		}
		return 0, s, nil
	case KindGrid:
		s, err := DecodeGrid(data)
		if err != nil {
			return 0, nil, err
		}
		return s.TemplateNumber(), s, nil
	case KindProduct:
		s, err := DecodeProduct(data)
		if err != nil {
			return 0, nil, err
		}
		return s.TemplateNumber(), s, nil
	case KindPacking:
		s, err := DecodePacking(data)
		if err != nil {
			return 0, nil, err
		}
		return s.TemplateNumber(), s, nil
	default:
		return 0, nil, errors.InvalidInput(errors.PhaseDecode, "section kind not templated")
	}
}
