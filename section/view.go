package section

import (
	"math"
	"sort"

	"github.com/meteokit/grib2/errors"
)

// FieldView is the capability set shared by every decoded template variant.
// Variants are distinguished by template number within a section kind; the
// set of variants is closed by the registry.
//
// A FieldView is owned by the caller that decoded it and must not be shared
// mutably across goroutines.
type FieldView interface {
	// Kind returns the section kind the view was decoded from.
	Kind() Kind
	// TemplateNumber returns the template number selecting this variant.
	TemplateNumber() uint16
	// Raw returns the backing decoded integer array. The slice is live:
	// writes through Set are visible in it.
	Raw() []int64
	// Get returns a named field, applying any derived-field computation.
	Get(name string) (float64, error)
	// Set writes a named field. For derived fields every backing raw entry
	// is back-computed and written in the one call.
	Set(name string, value float64) error
	// Names returns the readable field names in sorted order.
	Names() []string
}

// View is the concrete FieldView over one decoded template instance.
type View struct {
	tmpl *Template
	raw  []int64

	// Directional signs for grid-length fields, fixed once at decode by
	// comparing first and last gridpoint coordinates.
	dxSign float64
	dySign float64
}

// NewView builds a view over an already-decoded raw array, for callers
// constructing sections programmatically. The raw length must cover the
// template's fixed entries (plus any extension the fixed part implies).
func NewView(kind Kind, number uint16, raw []int64) (*View, error) {
	t, ok := Lookup(kind, number)
	if !ok {
		return nil, errors.UnknownTemplate(int(kind), number)
	}
	want := t.Len()
	if t.Extend != nil && len(raw) >= want {
		want += len(t.Extend(raw[:t.Len()]))
	}
	if len(raw) != want {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Section(int(kind)).
			Detail("template %d expects %d entries, got %d", number, want, len(raw)).
			Build()
	}
	v := &View{tmpl: t, raw: raw}
	v.fixSigns()
	return v, nil
}

func newView(t *Template, raw []int64) *View {
	v := &View{tmpl: t, raw: raw}
	v.fixSigns()
	return v
}

// fixSigns caches the grid-length signs. The sign is negative when the grid
// runs from a larger to a smaller coordinate.
func (v *View) fixSigns() {
	v.dxSign, v.dySign = 1, 1
	ll := v.tmpl.ll
	if ll.dxFirst >= 0 && v.raw[ll.dxFirst] > v.raw[ll.dxLast] {
		v.dxSign = -1
	}
	if ll.dyFirst >= 0 && v.raw[ll.dyFirst] > v.raw[ll.dyLast] {
		v.dySign = -1
	}
}

// Kind returns the section kind.
func (v *View) Kind() Kind { return v.tmpl.Kind }

// TemplateNumber returns the template number of this variant.
func (v *View) TemplateNumber() uint16 { return v.tmpl.Number }

// Raw returns the backing decoded integer array.
func (v *View) Raw() []int64 { return v.raw }

// Template returns the layout descriptor backing this view.
func (v *View) Template() *Template { return v.tmpl }

// Get returns the named field.
func (v *View) Get(name string) (float64, error) {
	if d, ok := v.tmpl.Derived[name]; ok {
		return d.Get(v), nil
	}
	if idx, ok := v.tmpl.Fields[name]; ok {
		return float64(v.raw[idx]), nil
	}
	return 0, errors.FieldUnknown(errors.PhaseDecode, []string{v.tmpl.Kind.String()}, name)
}

// Set writes the named field. Writing a gridpoint coordinate can flip a
// scan direction, so the cached signs are refreshed afterwards.
func (v *View) Set(name string, value float64) error {
	if d, ok := v.tmpl.Derived[name]; ok {
		if err := d.Set(v, value); err != nil {
			return err
		}
		v.fixSigns()
		return nil
	}
	if idx, ok := v.tmpl.Fields[name]; ok {
		v.raw[idx] = int64(math.Round(value))
		v.fixSigns()
		return nil
	}
	return errors.FieldUnknown(errors.PhaseEncode, []string{v.tmpl.Kind.String()}, name)
}

// Names returns every readable field name in sorted order.
func (v *View) Names() []string {
	names := make([]string, 0, len(v.tmpl.Fields)+len(v.tmpl.Derived))
	for n := range v.tmpl.Fields {
		names = append(names, n)
	}
	for n := range v.tmpl.Derived {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
