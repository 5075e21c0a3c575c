// Package grib2 reads and catalogs GRIB2 files, the WMO binary container
// for gridded meteorological fields.
//
// A GRIB2 file is a concatenation of self-describing messages. The library
// scans a byte stream for message boundaries (tolerating leading junk,
// embedded legacy edition 1 messages and internal submessage restarts),
// decodes each message's metadata sections through a template-dispatched
// registry, and builds an ordered, queryable index of the results. Unpacking
// the data values themselves is delegated to an external codec through the
// collaborator interfaces in this package.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	grib2/               Root package with the File session and codec interfaces
//	├── scanner/         Message boundary scanner and location records
//	├── section/         Template registry and section decode/encode
//	├── index/           Ordered message catalog with predicate selection
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Open a file and list its messages:
//
//	f, err := grib2.Open("gfs.t00z.pgrb2.0p25.f024")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	for _, msg := range f.Select(map[string]any{"parameterCategory": 0}) {
//	    fmt.Println(msg.Number, msg.RefTime(), msg.GridPointCount())
//	}
//
// Gzip-compressed files are detected and inflated transparently. Raw message
// bytes can be fetched concurrently with RawMessages; the underlying stream
// handle is guarded so parallel fetches never interleave their seeks.
package grib2
