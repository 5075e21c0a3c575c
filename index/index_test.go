package index

import (
	stdbinary "encoding/binary"
	"testing"
	"time"

	"github.com/meteokit/grib2/scanner"
	"github.com/meteokit/grib2/section"
)

// product builds a decoded PDT 0 section for the given parameter identity.
func product(t *testing.T, category, number byte) *section.ProductDefinition {
	t.Helper()
	data := []byte{
		0, 0, 0, 34, 4, // header
		0, 0, 0, 0, // numCoordValues, PDT 0
		category, number, 2, 0, 96, 0, 0, 0, 1, 0, 0, 0, 6,
		103, 0, 0, 0, 0, 2,
		255, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
	p, err := section.DecodeProduct(data)
	if err != nil {
		t.Fatalf("DecodeProduct() error: %v", err)
	}
	return p
}

// identification builds a decoded section 1 for the given year.
func identification(t *testing.T, year uint16) *section.Identification {
	t.Helper()
	data := []byte{
		0, 0, 0, 21, 1,
		0, 7, 0, 0, 2, 1, 1,
		0, 0, 11, 7, 0, 0, 0,
		0, 1,
	}
	stdbinary.BigEndian.PutUint16(data[12:14], year)
	s, err := section.DecodeIdentification(data)
	if err != nil {
		t.Fatalf("DecodeIdentification() error: %v", err)
	}
	return s
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	return New([]*scanner.Message{
		{Number: 1, Offset: 0, Length: 200, Discipline: 0, Edition: 2,
			Identification: identification(t, 2022), Product: product(t, 0, 0)},
		{Number: 2, Offset: 200, Length: 300, Discipline: 0, Edition: 2,
			Identification: identification(t, 2022), Product: product(t, 2, 2)},
		{Number: 3, Offset: 500, Length: 250, Discipline: 10, Edition: 2,
			Identification: identification(t, 2023), Product: product(t, 0, 3)},
		{Number: 4, Offset: 750, Length: 100, Discipline: 0, Edition: 2, IsSubmessage: true,
			Identification: identification(t, 2022)},
	})
}

func TestGet(t *testing.T) {
	x := testIndex(t)

	if x.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", x.Len())
	}
	if got := x.Get(0); got != nil {
		t.Errorf("Get(0) = %+v, want nil sentinel", got)
	}
	if got := x.Get(5); got != nil {
		t.Errorf("Get(5) = %+v, want nil", got)
	}
	if got := x.Get(2); got == nil || got.Offset != 200 {
		t.Errorf("Get(2) = %+v, want the message at offset 200", got)
	}
}

func TestSeekTell(t *testing.T) {
	x := testIndex(t)

	if got := x.Tell(); got != 0 {
		t.Errorf("Tell() = %d before any Seek, want 0", got)
	}
	off, err := x.Seek(3)
	if err != nil {
		t.Fatalf("Seek(3) error: %v", err)
	}
	if off != 500 {
		t.Errorf("Seek(3) = %d, want byte offset 500", off)
	}
	if got := x.Tell(); got != 3 {
		t.Errorf("Tell() = %d, want 3", got)
	}
	for _, n := range []int{0, -1, 5} {
		if _, err := x.Seek(n); err == nil {
			t.Errorf("Seek(%d) succeeded, want error", n)
		}
	}
	if got := x.Tell(); got != 3 {
		t.Errorf("Tell() = %d after failed Seek, want 3", got)
	}
}

func TestSelectConjunction(t *testing.T) {
	x := testIndex(t)

	// Message 2 matches parameterCategory=2 only; message 3 matches
	// discipline=10 only. No message matches both: true AND, never a union.
	got := x.Select(map[string]any{"discipline": 10, "parameterCategory": 2})
	if len(got) != 0 {
		t.Fatalf("Select() returned %d messages, want 0", len(got))
	}
}

func TestSelectPreservesScanOrder(t *testing.T) {
	x := testIndex(t)

	got := x.Select(map[string]any{"parameterCategory": 0})
	if len(got) != 2 {
		t.Fatalf("Select() returned %d messages, want 2", len(got))
	}
	if got[0].Number != 1 || got[1].Number != 3 {
		t.Errorf("Select() order = [%d, %d], want [1, 3]", got[0].Number, got[1].Number)
	}
}

func TestSelectAbsentAttributeExcludes(t *testing.T) {
	x := testIndex(t)

	// Message 4 has no decoded section 4, so it cannot satisfy a parameter
	// predicate even though its other attributes match.
	got := x.Select(map[string]any{"discipline": 0, "parameterNumber": 0})
	if len(got) != 1 || got[0].Number != 1 {
		t.Fatalf("Select() = %d messages, want only message 1", len(got))
	}

	if got := x.Select(map[string]any{"noSuchAttribute": 1}); len(got) != 0 {
		t.Errorf("Select() on unknown attribute returned %d messages, want 0", len(got))
	}
}

func TestSelectLocationAttributes(t *testing.T) {
	x := testIndex(t)

	tests := []struct {
		name  string
		preds map[string]any
		want  []int
	}{
		{"discipline", map[string]any{"discipline": 10}, []int{3}},
		{"submessage flag", map[string]any{"isSubmessage": true}, []int{4}},
		{"reference time", map[string]any{"refTime": time.Date(2023, 11, 7, 0, 0, 0, 0, time.UTC)}, []int{3}},
		{"field view year", map[string]any{"year": 2023}, []int{3}},
		{"template number", map[string]any{"productDefinitionTemplateNumber": 0}, []int{1, 2, 3}},
		{"empty predicates select all", map[string]any{}, []int{1, 2, 3, 4}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := x.Select(tc.preds)
			if len(got) != len(tc.want) {
				t.Fatalf("Select() returned %d messages, want %d", len(got), len(tc.want))
			}
			for i, n := range tc.want {
				if got[i].Number != n {
					t.Errorf("result[%d] = message %d, want %d", i, got[i].Number, n)
				}
			}
		})
	}
}

func TestSelectValueTypes(t *testing.T) {
	x := testIndex(t)

	// Numeric predicate values compare by value regardless of Go type.
	for _, v := range []any{int(10), int64(10), uint8(10), float64(10)} {
		got := x.Select(map[string]any{"discipline": v})
		if len(got) != 1 || got[0].Number != 3 {
			t.Errorf("Select(discipline=%T) = %d messages, want message 3", v, len(got))
		}
	}
	if got := x.Select(map[string]any{"discipline": "ten"}); len(got) != 0 {
		t.Errorf("Select() with non-numeric value returned %d messages, want 0", len(got))
	}
}
