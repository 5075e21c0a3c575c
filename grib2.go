package grib2

import "github.com/meteokit/grib2/section"

// BitmapDecoder expands a section 6 bitmap payload into a per-gridpoint
// presence mask.
type BitmapDecoder interface {
	DecodeBitmap(data []byte, numPoints int) ([]bool, error)
}

// DataDecoder unpacks a section 7 payload using the data representation
// parameters decoded from section 5.
type DataDecoder interface {
	DecodeData(packing section.FieldView, data []byte) ([]float64, error)
}

// ParameterTable resolves a parameter identity against the WMO/originator
// code tables.
type ParameterTable interface {
	LookupParameter(discipline, category, number uint8) (fullName, units, shortName string, ok bool)
}
