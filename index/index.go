package index

import (
	"time"

	"github.com/meteokit/grib2/errors"
	"github.com/meteokit/grib2/scanner"
	"github.com/meteokit/grib2/section"
)

// Index is the ordered catalog of one stream's scanned messages. Message
// numbering is 1-based: slot 0 is reserved and never holds a record, so
// Get(0) is the "no message" sentinel. An Index lives for the duration of
// the open stream that produced it.
type Index struct {
	msgs []*scanner.Message
	pos  int
}

// New builds an index over messages in scan order.
func New(msgs []*scanner.Message) *Index {
	all := make([]*scanner.Message, len(msgs)+1)
	copy(all[1:], msgs)
	return &Index{msgs: all}
}

// Len returns the number of indexed messages.
func (x *Index) Len() int { return len(x.msgs) - 1 }

// Get returns message n (1-based). n = 0 and out-of-range n return nil.
func (x *Index) Get(n int) *scanner.Message {
	if n < 1 || n >= len(x.msgs) {
		return nil
	}
	return x.msgs[n]
}

// Messages returns the indexed messages in scan order.
func (x *Index) Messages() []*scanner.Message {
	return x.msgs[1:]
}

// Seek positions the index at message n and returns the byte offset of that
// message's section 0, for reuse by a positioned read.
func (x *Index) Seek(n int) (int64, error) {
	if n < 1 || n >= len(x.msgs) {
		return 0, errors.OutOfBounds(errors.PhaseIndex, nil, n, len(x.msgs)-1)
	}
	x.pos = n
	return x.msgs[n].Offset, nil
}

// Tell returns the current position in message units, 0 before any Seek.
func (x *Index) Tell() int { return x.pos }

// Select returns, in scan order, the messages satisfying every predicate.
// A record that cannot resolve a predicate's attribute (section missing,
// template unregistered, name unknown) does not satisfy it and is excluded.
func (x *Index) Select(predicates map[string]any) []*scanner.Message {
	var out []*scanner.Message
	for _, m := range x.msgs[1:] {
		all := true
		for name, want := range predicates {
			if !matches(m, name, want) {
				all = false
				break
			}
		}
		if all {
			out = append(out, m)
		}
	}
	return out
}

// matches resolves one attribute on one message and compares it against the
// wanted value. Location attributes are checked first, then the decoded
// sections' field views in section order.
func matches(m *scanner.Message, name string, want any) bool {
	switch name {
	case "discipline":
		return numEqual(want, float64(m.Discipline))
	case "edition":
		return numEqual(want, float64(m.Edition))
	case "messageNumber":
		return numEqual(want, float64(m.Number))
	case "isSubmessage":
		b, ok := want.(bool)
		return ok && b == m.IsSubmessage
	case "refTime":
		tv, ok := want.(time.Time)
		return ok && m.Identification != nil && tv.Equal(m.RefTime())
	case "gridDefinitionTemplateNumber":
		return m.Grid != nil && numEqual(want, float64(m.Grid.TemplateNumber()))
	case "productDefinitionTemplateNumber":
		return m.Product != nil && numEqual(want, float64(m.Product.TemplateNumber()))
	case "dataRepresentationTemplateNumber":
		return m.Packing != nil && numEqual(want, float64(m.Packing.TemplateNumber()))
	case "numberOfDataPoints":
		return m.Grid != nil && numEqual(want, float64(m.Grid.NumberOfDataPoints))
	case "bitmapFlag":
		return numEqual(want, float64(m.BitmapFlag))
	}

	for _, view := range fieldViews(m) {
		got, err := view.Get(name)
		if err == nil {
			return numEqual(want, got)
		}
	}
	return false
}

func fieldViews(m *scanner.Message) []section.FieldView {
	views := make([]section.FieldView, 0, 4)
	if m.Identification != nil {
		views = append(views, m.Identification)
	}
	if m.Grid != nil {
		views = append(views, m.Grid)
	}
	if m.Product != nil {
		views = append(views, m.Product)
	}
	if m.Packing != nil {
		views = append(views, m.Packing)
	}
	return views
}

func numEqual(want any, got float64) bool {
	w, ok := toFloat(want)
	return ok && w == got
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
