// Package errors provides structured error types for the grib2 module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: GRIB2 section number, byte
// offset in the source stream, field path, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseScan, errors.KindTruncated).
//		Section(4).
//		Offset(pos).
//		Detail("section declares %d bytes", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.UnsupportedEdition(pos, 3)
//	err := errors.UnknownTemplate(5, drtn)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
