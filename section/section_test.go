package section

import (
	"bytes"
	stderrors "errors"
	"math"
	"testing"
	"time"

	griberrors "github.com/meteokit/grib2/errors"
	"github.com/meteokit/grib2/section/internal/binary"
)

// encodeLatLonGrid builds a section 3 for a global 0.25-degree regular
// lat-lon grid (GDT 0), the layout used by the GFS output files.
func encodeLatLonGrid() []byte {
	w := binary.NewWriter()
	w.WriteU32(72)
	w.Byte(3)
	w.Byte(0)           // grid definition source
	w.WriteU32(1038240) // 1440 * 721
	w.Byte(0)           // no optional list
	w.Byte(0)
	w.WriteU16(0)
	w.Byte(6) // spherical earth, radius 6,371,229 m
	w.Byte(0)
	w.WriteU32(0)
	w.Byte(0)
	w.WriteU32(0)
	w.Byte(0)
	w.WriteU32(0)
	w.WriteU32(1440)
	w.WriteU32(721)
	w.WriteU32(0)          // basic angle
	w.WriteU32(0xFFFFFFFF) // subdivisions: missing
	w.WriteInt(90000000, 4)
	w.WriteU32(0)
	w.Byte(48)
	w.WriteInt(-90000000, 4)
	w.WriteU32(359750000)
	w.WriteU32(250000)
	w.WriteU32(250000)
	w.Byte(0)
	return w.Bytes()
}

func TestDecodeGrid_LatLon(t *testing.T) {
	g, err := DecodeGrid(encodeLatLonGrid())
	if err != nil {
		t.Fatalf("DecodeGrid() error: %v", err)
	}

	if g.TemplateNumber() != 0 {
		t.Errorf("template number = %d, want 0", g.TemplateNumber())
	}
	if g.NumberOfDataPoints != 1038240 {
		t.Errorf("NumberOfDataPoints = %d, want 1038240", g.NumberOfDataPoints)
	}
	if g.Raw()[10] != -1 {
		t.Errorf("missing subdivisions decoded as %d, want -1", g.Raw()[10])
	}

	fields := []struct {
		name string
		want float64
	}{
		{"nx", 1440},
		{"ny", 721},
		{"shapeOfEarth", 6},
		{"latitudeFirstGridpoint", 90},
		{"longitudeFirstGridpoint", 0},
		{"latitudeLastGridpoint", -90},
		{"longitudeLastGridpoint", 359.75},
		{"gridlengthXDirection", 0.25},
		{"gridlengthYDirection", -0.25}, // scans north to south
		{"scanModeFlags", 0},
	}
	for _, f := range fields {
		got, err := g.Get(f.name)
		if err != nil {
			t.Errorf("Get(%q) error: %v", f.name, err)
			continue
		}
		if got != f.want {
			t.Errorf("Get(%q) = %v, want %v", f.name, got, f.want)
		}
	}
}

func TestGridRoundTrip(t *testing.T) {
	data := encodeLatLonGrid()

	g, err := DecodeGrid(data)
	if err != nil {
		t.Fatalf("DecodeGrid() error: %v", err)
	}
	out := g.Encode()
	if !bytes.Equal(out, data) {
		t.Fatalf("re-encoded section differs:\n got %x\nwant %x", out, data)
	}
}

func TestDecodeGrid_OptionalList(t *testing.T) {
	w := binary.NewWriter()
	w.WriteU32(72 + 6)
	w.Byte(3)
	w.Byte(0)
	w.WriteU32(1038240)
	w.Byte(2) // two octets per list entry
	w.Byte(1)
	w.WriteBytes(encodeLatLonGrid()[12:]) // reuse template number and body
	w.WriteU16(100)
	w.WriteU16(200)
	w.WriteU16(300)
	data := w.Bytes()

	g, err := DecodeGrid(data)
	if err != nil {
		t.Fatalf("DecodeGrid() error: %v", err)
	}
	want := []uint32{100, 200, 300}
	if len(g.OptionalList) != len(want) {
		t.Fatalf("optional list length = %d, want %d", len(g.OptionalList), len(want))
	}
	for i, v := range want {
		if g.OptionalList[i] != v {
			t.Errorf("OptionalList[%d] = %d, want %d", i, g.OptionalList[i], v)
		}
	}
	if out := g.Encode(); !bytes.Equal(out, data) {
		t.Fatalf("re-encoded section differs:\n got %x\nwant %x", out, data)
	}
}

func TestDecodeGrid_UnknownTemplate(t *testing.T) {
	data := encodeLatLonGrid()
	data[12] = 0x30 // GDT 12345
	data[13] = 0x39

	_, err := DecodeGrid(data)
	if err == nil {
		t.Fatal("expected unknown template error")
	}
	want := &griberrors.Error{Phase: griberrors.PhaseDecode, Kind: griberrors.KindUnknownTemplate}
	if !stderrors.Is(err, want) {
		t.Fatalf("error = %v, want kind %s", err, griberrors.KindUnknownTemplate)
	}
}

// encodeStatProduct builds a section 4 for PDT 8 (statistically processed
// values) with two time ranges, which exercises the template extension.
func encodeStatProduct() []byte {
	w := binary.NewWriter()
	w.WriteU32(70)
	w.Byte(4)
	w.WriteU16(0) // no coordinate values
	w.WriteU16(8)
	w.Byte(0) // temperature
	w.Byte(0)
	w.Byte(2)
	w.Byte(0)
	w.Byte(96)
	w.WriteU16(0)
	w.Byte(0)
	w.Byte(1)
	w.WriteU32(0)
	w.Byte(103) // height above ground
	w.WriteInt(0, 1)
	w.WriteInt(2, 4)
	w.Byte(255)
	w.WriteBytes([]byte{0xFF})                   // scale factor: missing
	w.WriteBytes([]byte{0xFF, 0xFF, 0xFF, 0xFF}) // scaled value: missing
	w.WriteU16(2022)
	w.Byte(11)
	w.Byte(7)
	w.Byte(6)
	w.Byte(0)
	w.Byte(0)
	w.Byte(2) // two time ranges
	w.WriteU32(0)
	w.Byte(1) // accumulation
	w.Byte(2)
	w.Byte(1)
	w.WriteU32(6)
	w.Byte(255)
	w.WriteU32(0)
	// second time range
	w.Byte(0)
	w.Byte(1)
	w.Byte(1)
	w.WriteU32(3)
	w.Byte(255)
	w.WriteU32(0)
	return w.Bytes()
}

func TestDecodeProduct_Statistical(t *testing.T) {
	p, err := DecodeProduct(encodeStatProduct())
	if err != nil {
		t.Fatalf("DecodeProduct() error: %v", err)
	}

	if p.TemplateNumber() != 8 {
		t.Errorf("template number = %d, want 8", p.TemplateNumber())
	}
	if p.ParameterCategory() != 0 || p.ParameterNumber() != 0 {
		t.Errorf("parameter = (%d, %d), want (0, 0)", p.ParameterCategory(), p.ParameterNumber())
	}
	if got := len(p.Raw()); got != 35 {
		t.Fatalf("raw entry count = %d, want 35 (29 fixed + 6 extension)", got)
	}

	fields := []struct {
		name string
		want float64
	}{
		{"numberOfTimeRanges", 2},
		{"typeOfFirstFixedSurface", 103},
		{"valueOfFirstFixedSurface", 2},
		{"valueOfSecondFixedSurface", 0}, // -127 scale factor sentinel
		{"yearOfEndOfTimePeriod", 2022},
		{"statisticalProcess", 1},
		{"timeRangeOfStatisticalProcess", 6},
	}
	for _, f := range fields {
		got, err := p.Get(f.name)
		if err != nil {
			t.Errorf("Get(%q) error: %v", f.name, err)
			continue
		}
		if got != f.want {
			t.Errorf("Get(%q) = %v, want %v", f.name, got, f.want)
		}
	}

	// The second time range is reachable through Raw only.
	ext := p.Raw()[29:]
	if ext[3] != 3 {
		t.Errorf("second time range length = %d, want 3", ext[3])
	}
}

func TestProductRoundTrip(t *testing.T) {
	data := encodeStatProduct()

	p, err := DecodeProduct(data)
	if err != nil {
		t.Fatalf("DecodeProduct() error: %v", err)
	}
	if out := p.Encode(); !bytes.Equal(out, data) {
		t.Fatalf("re-encoded section differs:\n got %x\nwant %x", out, data)
	}
}

func encodeSimplePacking() []byte {
	w := binary.NewWriter()
	w.WriteU32(21)
	w.Byte(5)
	w.WriteU32(1038240)
	w.WriteU16(0)
	w.WriteU32(math.Float32bits(1.5))
	w.WriteInt(4, 2)
	w.WriteInt(-2, 2)
	w.Byte(12)
	w.Byte(0)
	return w.Bytes()
}

func TestDecodePacking_Simple(t *testing.T) {
	d, err := DecodePacking(encodeSimplePacking())
	if err != nil {
		t.Fatalf("DecodePacking() error: %v", err)
	}

	if d.TemplateNumber() != 0 {
		t.Errorf("template number = %d, want 0", d.TemplateNumber())
	}
	if d.NumberOfPackedValues != 1038240 {
		t.Errorf("NumberOfPackedValues = %d, want 1038240", d.NumberOfPackedValues)
	}

	fields := []struct {
		name string
		want float64
	}{
		{"refValue", 1.5},
		{"binScaleFactor", 4},
		{"decScaleFactor", -2},
		{"nBitsPacking", 12},
	}
	for _, f := range fields {
		got, err := d.Get(f.name)
		if err != nil {
			t.Errorf("Get(%q) error: %v", f.name, err)
			continue
		}
		if got != f.want {
			t.Errorf("Get(%q) = %v, want %v", f.name, got, f.want)
		}
	}
}

func TestPackingRoundTrip(t *testing.T) {
	data := encodeSimplePacking()

	d, err := DecodePacking(data)
	if err != nil {
		t.Fatalf("DecodePacking() error: %v", err)
	}
	if out := d.Encode(); !bytes.Equal(out, data) {
		t.Fatalf("re-encoded section differs:\n got %x\nwant %x", out, data)
	}
}

func encodeIdentification(reserved []byte) []byte {
	w := binary.NewWriter()
	w.WriteU32(uint32(21 + len(reserved)))
	w.Byte(1)
	w.WriteU16(7) // NCEP
	w.WriteU16(0)
	w.Byte(2)
	w.Byte(1)
	w.Byte(1)
	w.WriteU16(2022)
	w.Byte(11)
	w.Byte(7)
	w.Byte(0)
	w.Byte(0)
	w.Byte(0)
	w.Byte(0)
	w.Byte(1)
	w.WriteBytes(reserved)
	return w.Bytes()
}

func TestDecodeIdentification(t *testing.T) {
	s, err := DecodeIdentification(encodeIdentification(nil))
	if err != nil {
		t.Fatalf("DecodeIdentification() error: %v", err)
	}

	if s.Center() != 7 {
		t.Errorf("Center() = %d, want 7", s.Center())
	}
	want := time.Date(2022, time.November, 7, 0, 0, 0, 0, time.UTC)
	if got := s.RefTime(); !got.Equal(want) {
		t.Errorf("RefTime() = %v, want %v", got, want)
	}
	if got, err := s.Get("significanceOfReferenceTime"); err != nil || got != 1 {
		t.Errorf("Get(significanceOfReferenceTime) = %v, %v, want 1", got, err)
	}
}

func TestIdentificationRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name     string
		reserved []byte
	}{
		{"fixed layout", nil},
		{"trailing reserved octets", []byte{0xDE, 0xAD}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := encodeIdentification(tc.reserved)
			s, err := DecodeIdentification(data)
			if err != nil {
				t.Fatalf("DecodeIdentification() error: %v", err)
			}
			if out := s.Encode(); !bytes.Equal(out, data) {
				t.Fatalf("re-encoded section differs:\n got %x\nwant %x", out, data)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	full := encodeLatLonGrid()

	tests := []struct {
		name string
		data []byte
	}{
		{"declared length exceeds supply", full[:40]},
		{"template cut short", func() []byte {
			short := append([]byte(nil), full[:40]...)
			short[0], short[1], short[2], short[3] = 0, 0, 0, 40
			return short
		}()},
	}
	want := &griberrors.Error{Phase: griberrors.PhaseDecode, Kind: griberrors.KindTruncated}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeGrid(tc.data)
			if err == nil {
				t.Fatal("expected truncation error")
			}
			if !stderrors.Is(err, want) {
				t.Fatalf("error = %v, want kind %s", err, griberrors.KindTruncated)
			}
		})
	}
}

func TestTruncatedTemplateCarriesPosition(t *testing.T) {
	short := append([]byte(nil), encodeLatLonGrid()[:40]...)
	short[0], short[1], short[2], short[3] = 0, 0, 0, 40

	_, err := DecodeGrid(short)
	var pe *binary.ParseError
	if !stderrors.As(err, &pe) {
		t.Fatalf("error chain %v carries no ParseError", err)
	}
	if pe.Position == 0 {
		t.Error("ParseError reports position 0 inside the template")
	}
	if pe.Section != KindGrid.String() {
		t.Errorf("ParseError section = %q, want %q", pe.Section, KindGrid.String())
	}
}

func TestDecodeWrongSectionNumber(t *testing.T) {
	data := encodeLatLonGrid()
	data[4] = 4

	if _, err := DecodeGrid(data); err == nil {
		t.Fatal("expected section number mismatch error")
	}
}

func TestDecodeDispatch(t *testing.T) {
	tests := []struct {
		kind     Kind
		data     []byte
		number   uint16
		field    string
		fieldVal float64
	}{
		{KindIdentification, encodeIdentification(nil), 0, "originatingCenter", 7},
		{KindGrid, encodeLatLonGrid(), 0, "nx", 1440},
		{KindProduct, encodeStatProduct(), 8, "numberOfTimeRanges", 2},
		{KindPacking, encodeSimplePacking(), 0, "nBitsPacking", 12},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			number, view, err := Decode(tc.kind, tc.data)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			if number != tc.number {
				t.Errorf("template number = %d, want %d", number, tc.number)
			}
			if view.Kind() != tc.kind {
				t.Errorf("view kind = %s, want %s", view.Kind(), tc.kind)
			}
			got, err := view.Get(tc.field)
			if err != nil {
				t.Fatalf("Get(%q) error: %v", tc.field, err)
			}
			if got != tc.fieldVal {
				t.Errorf("Get(%q) = %v, want %v", tc.field, got, tc.fieldVal)
			}
		})
	}
}
