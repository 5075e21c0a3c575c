// Package section decodes and re-encodes the templated GRIB2 sections:
// Identification (1), Grid Definition (3), Product Definition (4) and Data
// Representation (5).
//
// Each templated section carries a template number selecting one of a closed
// set of octet layouts. The package keeps a registry keyed by section kind
// and template number; every registered template pairs an octet map (entry
// widths, negative meaning sign-magnitude signed) with a table of field
// names and a set of derived accessors that expose physically meaningful
// values (scaled coordinates, IEEE reference values, grid lengths with the
// scan-direction sign applied).
//
// Decoded sections satisfy FieldView: callers read and write entries by
// field name without knowing which template was selected. Unknown template
// numbers fail decoding with an unknown-template error so callers can skip
// the message rather than misparse it.
//
// Encode methods reproduce the section bytes exactly, header included, so a
// decode/encode round trip is byte-identical.
package section
