package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseScan,
				Kind:    KindSectionOrder,
				Section: 5,
				Offset:  1024,
				Detail:  "got section 5, expected section 4",
			},
			contains: []string{"[scan]", "section_order", "section 5", "offset 1024", "expected section 4"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase:   PhaseDecode,
				Kind:    KindOutOfBounds,
				Section: -1,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with path",
			err: &Error{
				Phase:   PhaseDecode,
				Kind:    KindFieldUnknown,
				Section: -1,
				Path:    []string{"product", "perturbationNumber"},
			},
			contains: []string{"[decode]", "field_unknown", "product.perturbationNumber"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:   PhaseScan,
				Kind:    KindTruncated,
				Section: 7,
				Detail:  "short read",
				Cause:   errors.New("unexpected EOF"),
			},
			contains: []string{"[scan]", "truncated", "short read", "caused by", "unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Truncated(PhaseScan, 3, 512, cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("expected Unwrap to return the cause")
	}
}

func TestError_Is(t *testing.T) {
	a := UnknownTemplate(4, 254)
	b := UnknownTemplate(4, 7)
	if !errors.Is(a, b) {
		t.Error("errors with same phase and kind should match")
	}
	c := SectionOrder(0, 6, 4)
	if errors.Is(a, c) {
		t.Error("errors with different kinds should not match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("io failure")
	err := New(PhaseScan, KindTruncated).
		Section(7).
		Offset(99).
		Detail("declared %d bytes", 40).
		Cause(cause).
		Build()

	if err.Phase != PhaseScan || err.Kind != KindTruncated {
		t.Errorf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Section != 7 {
		t.Errorf("Section = %d, want 7", err.Section)
	}
	if err.Detail != "declared 40 bytes" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	if e := UnsupportedEdition(12, 3); e.Kind != KindUnsupportedEdition || e.Value != 3 {
		t.Errorf("UnsupportedEdition: %+v", e)
	}
	if e := FieldUnknown(PhaseDecode, []string{"grid"}, "nope"); !strings.Contains(e.Error(), `"nope"`) {
		t.Errorf("FieldUnknown: %v", e)
	}
	if e := Format(PhaseScan, 40, "trailer mismatch"); !strings.Contains(e.Error(), "trailer mismatch") {
		t.Errorf("Format: %v", e)
	}
}
