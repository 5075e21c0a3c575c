package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseOpen   Phase = "open"   // opening/sniffing a byte source
	PhaseScan   Phase = "scan"   // walking the byte stream for messages
	PhaseDecode Phase = "decode" // section payload to typed fields
	PhaseEncode Phase = "encode" // typed fields back to section bytes
	PhaseIndex  Phase = "index"  // message index operations
	PhaseWrite  Phase = "write"  // appending messages to a sink
)

// Kind categorizes the error
type Kind string

const (
	KindFormat             Kind = "format"
	KindUnsupportedEdition Kind = "unsupported_edition"
	KindSectionOrder       Kind = "section_order"
	KindTruncated          Kind = "truncated"
	KindUnknownTemplate    Kind = "unknown_template"
	KindInvalidData        Kind = "invalid_data"
	KindOutOfBounds        Kind = "out_of_bounds"
	KindFieldUnknown       Kind = "field_unknown"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Section int // GRIB2 section number, -1 when not section-scoped
	Offset  int64
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Section >= 0 {
		fmt.Fprintf(&b, " section %d", e.Section)
	}
	if e.Offset > 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:   phase,
			Kind:    kind,
			Section: -1,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Section sets the GRIB2 section number
func (b *Builder) Section(n int) *Builder {
	b.err.Section = n
	return b
}

// Offset sets the byte offset in the source stream
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Format creates a structural format error (bad magic, trailer mismatch).
func Format(phase Phase, offset int64, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindFormat,
		Section: -1,
		Offset:  offset,
		Detail:  detail,
	}
}

// UnsupportedEdition creates an error for a GRIB edition that is neither 2
// nor a skippable legacy edition 1.
func UnsupportedEdition(offset int64, edition int) *Error {
	return &Error{
		Phase:   PhaseScan,
		Kind:    KindUnsupportedEdition,
		Section: 0,
		Offset:  offset,
		Detail:  fmt.Sprintf("GRIB edition %d", edition),
		Value:   edition,
	}
}

// SectionOrder creates an error for a section number that violates the
// monotonic-or-submessage-restart rule.
func SectionOrder(offset int64, got, want int) *Error {
	return &Error{
		Phase:   PhaseScan,
		Kind:    KindSectionOrder,
		Section: got,
		Offset:  offset,
		Detail:  fmt.Sprintf("got section %d, expected section %d", got, want),
		Value:   got,
	}
}

// Truncated creates an error for EOF inside a declared section's bounds.
func Truncated(phase Phase, section int, offset int64, cause error) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTruncated,
		Section: section,
		Offset:  offset,
		Detail:  "short read inside declared section bounds",
		Cause:   cause,
	}
}

// UnknownTemplate creates an error for a template number absent from the registry.
func UnknownTemplate(section int, number uint16) *Error {
	return &Error{
		Phase:   PhaseDecode,
		Kind:    KindUnknownTemplate,
		Section: section,
		Detail:  fmt.Sprintf("template %d not registered", number),
		Value:   number,
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindFieldUnknown,
		Section: -1,
		Path:    path,
		Detail:  fmt.Sprintf("unknown field %q", fieldName),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindOutOfBounds,
		Section: -1,
		Path:    path,
		Detail:  fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:   index,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInvalidData,
		Section: -1,
		Path:    path,
		Detail:  detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindInvalidInput,
		Section: -1,
		Detail:  detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindNotFound,
		Section: -1,
		Detail:  fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    kind,
		Section: -1,
		Detail:  detail,
		Cause:   cause,
	}
}
