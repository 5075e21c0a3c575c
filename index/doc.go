// Package index catalogs the messages found by one scan pass and answers
// positional and predicate queries over them. Message numbering is 1-based,
// matching the convention of GRIB tooling; selection is a true conjunction
// over named attributes, resolved against the message location record and
// the decoded sections' field views.
package index
