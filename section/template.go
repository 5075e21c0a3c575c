package section

import (
	"fmt"
	"math"
	"sort"
)

// Kind identifies a templated GRIB2 section.
type Kind uint8

const (
	KindIdentification Kind = 1 // section 1
	KindGrid           Kind = 3 // section 3
	KindProduct        Kind = 4 // section 4
	KindPacking        Kind = 5 // section 5
)

func (k Kind) String() string {
	switch k {
	case KindIdentification:
		return "identification"
	case KindGrid:
		return "grid"
	case KindProduct:
		return "product"
	case KindPacking:
		return "packing"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Derived is a named accessor computed from two or more raw template entries.
// Get must be a pure function of the backing raw array; Set writes every
// backing entry it derives from.
type Derived struct {
	Get func(v *View) float64
	Set func(v *View, val float64) error
}

// llSpec describes how a grid template scales lat/lon and grid-length
// entries, and which entry pairs determine the grid-length signs.
type llSpec struct {
	scaleIdx int // basic angle entry, -1 when the template has none
	divIdx   int // basic angle subdivisions entry, -1 when none
	xyFromLL bool // grid lengths share the lat/lon divisor (lat-lon family)

	// first/last gridpoint entries compared to fix the grid-length sign;
	// -1 means the sign is always +1 for this template.
	dxFirst, dxLast int
	dyFirst, dyLast int
}

var noLL = llSpec{scaleIdx: -1, divIdx: -1, dxFirst: -1, dxLast: -1, dyFirst: -1, dyLast: -1}

// Template describes the fixed field layout selected by one template number
// within one section kind. Octet widths follow the g2c map convention:
// the magnitude is the entry's width in octets and a negative width marks a
// sign-and-magnitude signed entry.
type Template struct {
	Kind   Kind
	Number uint16
	Octets []int8

	// Fields maps a name to its raw array index.
	Fields map[string]int
	// Derived maps a name to a computed accessor.
	Derived map[string]Derived

	// Extend returns entry widths implied by the fixed part (repeated time
	// ranges in statistical product templates), or nil.
	Extend func(raw []int64) []int8

	ll llSpec
}

// Len returns the fixed entry count of the template.
func (t *Template) Len() int { return len(t.Octets) }

func (t *Template) llScale(raw []int64) float64 {
	if t.ll.scaleIdx < 0 {
		return 1
	}
	if s := float64(raw[t.ll.scaleIdx]); s > 0 {
		return s
	}
	return 1
}

func (t *Template) llDivisor(raw []int64) float64 {
	if t.ll.divIdx < 0 {
		return 1e6
	}
	if d := float64(raw[t.ll.divIdx]); d > 0 {
		return d
	}
	return 1e6
}

func (t *Template) xyDivisor(raw []int64) float64 {
	if t.ll.xyFromLL {
		return t.llDivisor(raw)
	}
	return 1e3
}

type registryKey struct {
	kind   Kind
	number uint16
}

// registry is populated once at package init; read-only afterwards.
var registry = make(map[registryKey]*Template)

func register(t *Template) *Template {
	key := registryKey{t.Kind, t.Number}
	if _, dup := registry[key]; dup {
		panic(fmt.Sprintf("section: duplicate template %s/%d", t.Kind, t.Number))
	}
	if t.Fields == nil {
		t.Fields = map[string]int{}
	}
	if t.Derived == nil {
		t.Derived = map[string]Derived{}
	}
	registry[key] = t
	return t
}

// Lookup returns the template registered for (kind, number).
func Lookup(kind Kind, number uint16) (*Template, bool) {
	t, ok := registry[registryKey{kind, number}]
	return t, ok
}

// TemplateNumbers returns the registered template numbers for a kind in
// ascending order.
func TemplateNumbers(kind Kind) []uint16 {
	var nums []uint16
	for key := range registry {
		if key.kind == kind {
			nums = append(nums, key.number)
		}
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

// fieldTable builds a name->index map from a positional name list.
// Empty names mark entries reachable only through Raw() or a derived accessor.
func fieldTable(names ...string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		if n != "" {
			m[n] = i
		}
	}
	return m
}

// join merges positional name lists into one field table.
func join(lists ...[]string) map[string]int {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return fieldTable(all...)
}

// decimalScaleFor picks the smallest decimal scale factor that makes
// val*10^scale integral, capped at 127.
func decimalScaleFor(val float64) int64 {
	const eps = 1e-9
	var scale int64
	for scale < 127 {
		scaled := val * math.Pow(10, float64(scale))
		if math.Abs(scaled-math.Round(scaled)) <= eps*math.Max(1, math.Abs(scaled)) {
			return scale
		}
		scale++
	}
	return scale
}

// scaledValue derives value = scaledValue / 10^scaleFactor. A scale factor of
// -127 is the "no scaling" sentinel and yields 0. Set back-computes and
// writes both backing entries.
func scaledValue(factorIdx, valueIdx int) Derived {
	return Derived{
		Get: func(v *View) float64 {
			factor := v.raw[factorIdx]
			if factor == scaleFactorMissing {
				return 0
			}
			return float64(v.raw[valueIdx]) / math.Pow(10, float64(factor))
		},
		Set: func(v *View, val float64) error {
			factor := decimalScaleFor(val)
			v.raw[factorIdx] = factor
			v.raw[valueIdx] = int64(math.Round(val * math.Pow(10, float64(factor))))
			return nil
		},
	}
}

// scaleFactorMissing is the sentinel scale factor meaning "no scaling".
const scaleFactorMissing = -127

// ieeeValue derives an IEEE-754 single stored in a 4-octet raw entry.
func ieeeValue(idx int) Derived {
	return Derived{
		Get: func(v *View) float64 {
			return float64(math.Float32frombits(uint32(v.raw[idx])))
		},
		Set: func(v *View, val float64) error {
			v.raw[idx] = int64(math.Float32bits(float32(val)))
			return nil
		},
	}
}

// scaledLL derives a latitude/longitude entry scaled by the template's basic
// angle parameters.
func scaledLL(idx int) Derived {
	return Derived{
		Get: func(v *View) float64 {
			t := v.tmpl
			return t.llScale(v.raw) * float64(v.raw[idx]) / t.llDivisor(v.raw)
		},
		Set: func(v *View, val float64) error {
			t := v.tmpl
			v.raw[idx] = int64(math.Round(val * t.llDivisor(v.raw) / t.llScale(v.raw)))
			return nil
		},
	}
}

// gridLength derives a grid-length entry with the cached directional sign.
// axisY selects the Y sign; the sign itself is computed once per decoded view.
func gridLength(idx int, axisY bool) Derived {
	return Derived{
		Get: func(v *View) float64 {
			t := v.tmpl
			sign := v.dxSign
			if axisY {
				sign = v.dySign
			}
			return t.llScale(v.raw) * float64(v.raw[idx]) / t.xyDivisor(v.raw) * sign
		},
		Set: func(v *View, val float64) error {
			t := v.tmpl
			v.raw[idx] = int64(math.Round(val * t.xyDivisor(v.raw) / t.llScale(v.raw)))
			return nil
		},
	}
}

// Shared field-name prefixes. Variants compose these lists; the shared
// entries are never re-declared per variant.
var (
	earthNames = []string{
		"shapeOfEarth",
		"scaleFactorOfEarthRadius", "scaledValueOfEarthRadius",
		"scaleFactorOfEarthMajorAxis", "scaledValueOfEarthMajorAxis",
		"scaleFactorOfEarthMinorAxis", "scaledValueOfEarthMinorAxis",
	}

	productCommonNames = []string{
		"parameterCategory", "parameterNumber",
		"typeOfGeneratingProcess", "backgroundGeneratingProcessIdentifier",
		"generatingProcess", "hoursAfterDataCutoff", "minutesAfterDataCutoff",
		"unitOfForecastTime", "valueOfForecastTime",
		"typeOfFirstFixedSurface",
		"scaleFactorOfFirstFixedSurface", "scaledValueOfFirstFixedSurface",
		"typeOfSecondFixedSurface",
		"scaleFactorOfSecondFixedSurface", "scaledValueOfSecondFixedSurface",
	}

	statNames = []string{
		"yearOfEndOfTimePeriod", "monthOfEndOfTimePeriod", "dayOfEndOfTimePeriod",
		"hourOfEndOfTimePeriod", "minuteOfEndOfTimePeriod", "secondOfEndOfTimePeriod",
		"numberOfTimeRanges", "numberOfMissingValues",
		"statisticalProcess", "typeOfTimeIncrementOfStatisticalProcess",
		"unitOfTimeRangeOfStatisticalProcess", "timeRangeOfStatisticalProcess",
		"unitOfTimeIncrementOfSuccessiveFields", "timeIncrementOfSuccessiveFields",
	}

	packingCommonNames = []string{
		"", "binScaleFactor", "decScaleFactor", "nBitsPacking",
	}

	complexNames = []string{
		"typeOfOriginalFieldValues", "groupSplittingMethod",
		"typeOfMissingValueManagement", "priMissingValue", "secMissingValue",
		"nGroups", "refGroupWidth", "nBitsGroupWidth", "refGroupLength",
		"groupLengthIncrement", "lengthOfLastGroup", "nBitsScaledGroupLength",
	}
)

// Octet width maps, per the g2c template tables.
var (
	identOctets = []int8{2, 2, 1, 1, 1, 2, 1, 1, 1, 1, 1, 1, 1}

	earthOctets = []int8{1, 1, 4, 1, 4, 1, 4}

	gdtLatLonOctets  = append(append([]int8{}, earthOctets...), 4, 4, 4, 4, -4, 4, 1, -4, 4, 4, 4, 1)
	gdtRotatedExtra  = []int8{-4, 4, 4}
	gdtMercatorOct   = append(append([]int8{}, earthOctets...), 4, 4, -4, 4, 1, -4, -4, 4, 1, 4, 4, 4)
	gdtPolarOctets   = append(append([]int8{}, earthOctets...), 4, 4, -4, 4, 1, -4, 4, 4, 4, 1, 1)
	gdtLambertOctets = append(append([]int8{}, earthOctets...), 4, 4, -4, 4, 1, -4, 4, 4, 4, 1, 1, -4, -4, -4, 4)
	gdtSpectralOct   = []int8{4, 4, 4, 1, 4}

	pdtCommonOctets = []int8{1, 1, 1, 1, 1, 2, 1, 1, 4, 1, -1, -4, 1, -1, -4}
	statOctets      = []int8{2, 1, 1, 1, 1, 1, 1, 4, 1, 1, 1, 4, 1, 4}
	timeRangeOctets = []int8{1, 1, 1, 4, 1, 4}
	probOctets      = []int8{1, 1, 1, -1, -4, -1, -4}

	drtCommonOctets  = []int8{4, -2, -2, 1}
	drtComplexOctets = []int8{1, 1, 1, 4, 4, 4, 1, 1, 4, 1, 4, 1}
)

func cat(parts ...[]int8) []int8 {
	var all []int8
	for _, p := range parts {
		all = append(all, p...)
	}
	return all
}

// statExtend returns the extra octet widths implied by numberOfTimeRanges
// beyond the first specification.
func statExtend(ntrIdx int) func(raw []int64) []int8 {
	return func(raw []int64) []int8 {
		n := raw[ntrIdx]
		if n <= 1 {
			return nil
		}
		var extra []int8
		for i := int64(1); i < n; i++ {
			extra = append(extra, timeRangeOctets...)
		}
		return extra
	}
}

// latLonDerived builds the derived accessor set shared by the lat-lon grid
// family (GDT 0, 1, 40, 41). ownYLength is false for the Gaussian family,
// where entry 17 holds the parallel count and the Y length mirrors X.
func latLonDerived(ownYLength bool) map[string]Derived {
	d := map[string]Derived{
		"latitudeFirstGridpoint":  scaledLL(11),
		"longitudeFirstGridpoint": scaledLL(12),
		"latitudeLastGridpoint":   scaledLL(14),
		"longitudeLastGridpoint":  scaledLL(15),
		"gridlengthXDirection":    gridLength(16, false),
	}
	if ownYLength {
		d["gridlengthYDirection"] = gridLength(17, true)
	} else {
		d["gridlengthYDirection"] = gridLength(16, false)
	}
	return d
}

// projDerived builds the derived accessor set shared by the projected grid
// family (GDT 20, 30, 31).
func projDerived() map[string]Derived {
	return map[string]Derived{
		"latitudeFirstGridpoint":  scaledLL(9),
		"longitudeFirstGridpoint": scaledLL(10),
		"latitudeTrueScale":       scaledLL(12),
		"gridOrientation":         scaledLL(13),
		"gridlengthXDirection":    gridLength(14, false),
		"gridlengthYDirection":    gridLength(15, true),
	}
}

func withDerived(base map[string]Derived, extra map[string]Derived) map[string]Derived {
	out := make(map[string]Derived, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var (
	latLonNames = []string{
		"nx", "ny", "basicAngle", "basicAngleSubdivisions",
		"", "", "resolutionAndComponentFlags", "", "", "", "", "scanModeFlags",
	}
	rotatedNames = []string{"", "", "anglePoleRotation"}

	latLonLL = llSpec{scaleIdx: 9, divIdx: 10, xyFromLL: true, dxFirst: 12, dxLast: 15, dyFirst: 11, dyLast: 14}
	gaussLL  = llSpec{scaleIdx: 9, divIdx: 10, xyFromLL: true, dxFirst: -1, dxLast: -1, dyFirst: -1, dyLast: -1}
)

func init() {
	// Section 1 has a single fixed layout; register it as template 0 of its
	// kind so the one dispatch path serves all four section kinds.
	register(&Template{
		Kind: KindIdentification, Number: 0,
		Octets: identOctets,
		Fields: fieldTable(
			"originatingCenter", "originatingSubCenter",
			"masterTableVersion", "localTableVersion",
			"significanceOfReferenceTime",
			"year", "month", "day", "hour", "minute", "second",
			"productionStatus", "typeOfData",
		),
		ll: noLL,
	})

	// Grid definition templates (section 3).
	register(&Template{
		Kind: KindGrid, Number: 0,
		Octets:  gdtLatLonOctets,
		Fields:  join(earthNames, latLonNames),
		Derived: latLonDerived(true),
		ll:      latLonLL,
	})
	register(&Template{
		Kind: KindGrid, Number: 1,
		Octets: cat(gdtLatLonOctets, gdtRotatedExtra),
		Fields: join(earthNames, latLonNames, rotatedNames),
		Derived: withDerived(latLonDerived(true), map[string]Derived{
			"latitudeSouthernPole":  scaledLL(19),
			"longitudeSouthernPole": scaledLL(20),
		}),
		ll: latLonLL,
	})
	register(&Template{
		Kind: KindGrid, Number: 10,
		Octets: gdtMercatorOct,
		Fields: join(earthNames, []string{
			"nx", "ny", "", "", "resolutionAndComponentFlags",
			"", "", "", "scanModeFlags", "", "", "",
		}),
		Derived: map[string]Derived{
			"latitudeFirstGridpoint":  scaledLL(9),
			"longitudeFirstGridpoint": scaledLL(10),
			"latitudeTrueScale":       scaledLL(12),
			"latitudeLastGridpoint":   scaledLL(13),
			"longitudeLastGridpoint":  scaledLL(14),
			"gridOrientation":         scaledLL(16),
			"gridlengthXDirection":    gridLength(17, false),
			"gridlengthYDirection":    gridLength(18, true),
		},
		ll: noLL,
	})
	register(&Template{
		Kind: KindGrid, Number: 20,
		Octets: gdtPolarOctets,
		Fields: join(earthNames, []string{
			"nx", "ny", "", "", "resolutionAndComponentFlags",
			"", "", "", "", "projectionCenterFlag", "scanModeFlags",
		}),
		Derived: projDerived(),
		ll:      noLL,
	})
	lambertFields := join(earthNames, []string{
		"nx", "ny", "", "", "resolutionAndComponentFlags",
		"", "", "", "", "projectionCenterFlag", "scanModeFlags",
		"", "", "", "",
	})
	lambertDerived := withDerived(projDerived(), map[string]Derived{
		"standardLatitude1":     scaledLL(18),
		"standardLatitude2":     scaledLL(19),
		"latitudeSouthernPole":  scaledLL(20),
		"longitudeSouthernPole": scaledLL(21),
	})
	register(&Template{
		Kind: KindGrid, Number: 30,
		Octets:  gdtLambertOctets,
		Fields:  lambertFields,
		Derived: lambertDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindGrid, Number: 31,
		Octets:  gdtLambertOctets,
		Fields:  lambertFields,
		Derived: lambertDerived,
		ll:      noLL,
	})
	gaussNames := []string{
		"nx", "ny", "basicAngle", "basicAngleSubdivisions",
		"", "", "resolutionAndComponentFlags", "", "", "", "numberOfParallels", "scanModeFlags",
	}
	register(&Template{
		Kind: KindGrid, Number: 40,
		Octets:  gdtLatLonOctets,
		Fields:  join(earthNames, gaussNames),
		Derived: latLonDerived(false),
		ll:      gaussLL,
	})
	register(&Template{
		Kind: KindGrid, Number: 41,
		Octets: cat(gdtLatLonOctets, gdtRotatedExtra),
		Fields: join(earthNames, gaussNames, rotatedNames),
		Derived: withDerived(latLonDerived(false), map[string]Derived{
			"latitudeSouthernPole":  scaledLL(19),
			"longitudeSouthernPole": scaledLL(20),
		}),
		ll: gaussLL,
	})
	register(&Template{
		Kind: KindGrid, Number: 50,
		Octets: gdtSpectralOct,
		Fields: fieldTable(
			"pentagonalResolutionJ", "pentagonalResolutionK", "pentagonalResolutionM",
			"typeOfSpectralRepresentation", "modeOfSpectralRepresentation",
		),
		ll: noLL,
	})

	// Product definition templates (section 4).
	productDerived := map[string]Derived{
		"valueOfFirstFixedSurface":  scaledValue(10, 11),
		"valueOfSecondFixedSurface": scaledValue(13, 14),
	}
	register(&Template{
		Kind: KindProduct, Number: 0,
		Octets:  pdtCommonOctets,
		Fields:  join(productCommonNames),
		Derived: productDerived,
		ll:      noLL,
	})
	ensembleNames := []string{"typeOfEnsembleForecast", "perturbationNumber", "numberOfEnsembleForecasts"}
	register(&Template{
		Kind: KindProduct, Number: 1,
		Octets:  cat(pdtCommonOctets, []int8{1, 1, 1}),
		Fields:  join(productCommonNames, ensembleNames),
		Derived: productDerived,
		ll:      noLL,
	})
	derivedEnsNames := []string{"typeOfDerivedForecast", "numberOfEnsembleForecasts"}
	register(&Template{
		Kind: KindProduct, Number: 2,
		Octets:  cat(pdtCommonOctets, []int8{1, 1}),
		Fields:  join(productCommonNames, derivedEnsNames),
		Derived: productDerived,
		ll:      noLL,
	})
	probNames := []string{
		"forecastProbabilityNumber", "totalNumberOfForecastProbabilities",
		"typeOfProbability",
		"scaleFactorOfThresholdLowerLimit", "scaledValueOfThresholdLowerLimit",
		"scaleFactorOfThresholdUpperLimit", "scaledValueOfThresholdUpperLimit",
	}
	probDerived := withDerived(productDerived, map[string]Derived{
		"thresholdLowerLimit": scaledValue(18, 19),
		"thresholdUpperLimit": scaledValue(20, 21),
	})
	register(&Template{
		Kind: KindProduct, Number: 5,
		Octets:  cat(pdtCommonOctets, probOctets),
		Fields:  join(productCommonNames, probNames),
		Derived: probDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindProduct, Number: 6,
		Octets:  cat(pdtCommonOctets, []int8{1}),
		Fields:  join(productCommonNames, []string{"percentileValue"}),
		Derived: productDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindProduct, Number: 8,
		Octets:  cat(pdtCommonOctets, statOctets),
		Fields:  join(productCommonNames, statNames),
		Derived: productDerived,
		Extend:  statExtend(21),
		ll:      noLL,
	})
	register(&Template{
		Kind: KindProduct, Number: 9,
		Octets:  cat(pdtCommonOctets, probOctets, statOctets),
		Fields:  join(productCommonNames, probNames, statNames),
		Derived: probDerived,
		Extend:  statExtend(28),
		ll:      noLL,
	})
	register(&Template{
		Kind: KindProduct, Number: 10,
		Octets:  cat(pdtCommonOctets, []int8{1}, statOctets),
		Fields:  join(productCommonNames, []string{"percentileValue"}, statNames),
		Derived: productDerived,
		Extend:  statExtend(22),
		ll:      noLL,
	})
	register(&Template{
		Kind: KindProduct, Number: 11,
		Octets:  cat(pdtCommonOctets, []int8{1, 1, 1}, statOctets),
		Fields:  join(productCommonNames, ensembleNames, statNames),
		Derived: productDerived,
		Extend:  statExtend(24),
		ll:      noLL,
	})
	register(&Template{
		Kind: KindProduct, Number: 12,
		Octets:  cat(pdtCommonOctets, []int8{1, 1}, statOctets),
		Fields:  join(productCommonNames, derivedEnsNames, statNames),
		Derived: productDerived,
		Extend:  statExtend(23),
		ll:      noLL,
	})

	// Data representation templates (section 5).
	refDerived := map[string]Derived{"refValue": ieeeValue(0)}
	register(&Template{
		Kind: KindPacking, Number: 0,
		Octets:  cat(drtCommonOctets, []int8{1}),
		Fields:  join(packingCommonNames, []string{"typeOfOriginalFieldValues"}),
		Derived: refDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindPacking, Number: 2,
		Octets:  cat(drtCommonOctets, drtComplexOctets),
		Fields:  join(packingCommonNames, complexNames),
		Derived: refDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindPacking, Number: 3,
		Octets:  cat(drtCommonOctets, drtComplexOctets, []int8{1, 1}),
		Fields:  join(packingCommonNames, complexNames, []string{"spatialDifferenceOrder", "nBytesSpatialDifference"}),
		Derived: refDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindPacking, Number: 4,
		Octets: []int8{1},
		Fields: fieldTable("precision"),
		ll:     noLL,
	})
	register(&Template{
		Kind: KindPacking, Number: 40,
		Octets:  cat(drtCommonOctets, []int8{1, 1, 1}),
		Fields:  join(packingCommonNames, []string{"typeOfOriginalFieldValues", "typeOfCompression", "targetCompressionRatio"}),
		Derived: refDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindPacking, Number: 41,
		Octets:  cat(drtCommonOctets, []int8{1}),
		Fields:  join(packingCommonNames, []string{"typeOfOriginalFieldValues"}),
		Derived: refDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindPacking, Number: 42,
		Octets:  cat(drtCommonOctets, []int8{1, 1, 1, 2}),
		Fields:  join(packingCommonNames, []string{"typeOfOriginalFieldValues", "compressionOptionsMask", "blockSize", "refSampleInterval"}),
		Derived: refDerived,
		ll:      noLL,
	})
	register(&Template{
		Kind: KindPacking, Number: 50,
		Octets: cat(drtCommonOctets, []int8{4}),
		Fields: join(packingCommonNames, []string{""}),
		Derived: withDerived(refDerived, map[string]Derived{
			"realOfCoefficient": ieeeValue(4),
		}),
		ll: noLL,
	})
}
