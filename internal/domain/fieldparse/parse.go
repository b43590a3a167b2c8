// Package fieldparse turns scraped, human formatted text into typed values.
//
// Every parser returns ErrEmpty for a declared null and an *Error matching
// ErrUnparseable for anything else it cannot read. Parsers never panic.
package fieldparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	metersPerKilometer = 1000.0
	kmhPerMeterSecond  = 3.6
)

var durationSteps = pipeline{trim, lower, dropSpaces, disambiguateSuffix, padColons}

// Duration returns total seconds for "H:MM:SS", "MM:SS", "SS", "Xs", "Xm",
// "XmYs", "Xh" and "XhYm" forms.
func Duration(raw string) (int64, error) {
	if isPlaceholder(raw) {
		return 0, ErrEmpty
	}
	normalized := durationSteps.apply(raw)
	parts := strings.Split(normalized, ":")
	if len(parts) != 3 {
		return 0, unparseable("duration", raw, nil)
	}

	var total int64
	for i, weight := range [3]int64{3600, 60, 1} {
		n, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil || n < 0 {
			return 0, unparseable("duration", raw, err)
		}
		total += n * weight
	}
	return total, nil
}

var paceSteps = pipeline{trim, lower, stripSuffix("/km", "/ km")}

// Pace returns seconds per kilometre for values like "5:12 /km".
func Pace(raw string) (int64, error) {
	if isPlaceholder(raw) {
		return 0, ErrEmpty
	}
	v, err := Duration(paceSteps.apply(raw))
	if err != nil {
		return 0, unparseable("pace", raw, err)
	}
	return v, nil
}

var distanceSteps = pipeline{trim, lower, stripThousands}

// Distance returns metres. "km" values are scaled by 1000, an explicit "m"
// suffix is taken as metres, and a bare number is read as kilometres.
// Dash placeholders mean zero distance.
func Distance(raw string) (float64, error) {
	if isPlaceholder(raw) {
		return 0, nil
	}
	s := distanceSteps.apply(raw)

	factor := metersPerKilometer
	switch {
	case strings.HasSuffix(s, "km"):
		s = stripSuffix("km")(s)
	case strings.HasSuffix(s, "m"):
		s = stripSuffix("m")(s)
		factor = 1
	}
	v, err := nonNegative("distance", raw, s)
	if err != nil {
		return 0, err
	}
	return v * factor, nil
}

var elevationSteps = pipeline{trim, lower, stripThousands, stripSuffix("m")}

// Elevation returns metres. Dash placeholders mean zero gain.
func Elevation(raw string) (float64, error) {
	if isPlaceholder(raw) {
		return 0, nil
	}
	return nonNegative("elevation", raw, elevationSteps.apply(raw))
}

var speedSteps = pipeline{trim, lower, stripThousands, stripSuffix("km/h", "kmh")}

// Speed converts "X km/h" to metres per second.
func Speed(raw string) (float64, error) {
	if isPlaceholder(raw) {
		return 0, ErrEmpty
	}
	v, err := nonNegative("speed", raw, speedSteps.apply(raw))
	if err != nil {
		return 0, err
	}
	return v / kmhPerMeterSecond, nil
}

var leadingNumber = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)`)

var numberSteps = pipeline{trim, stripThousands}

// Number reads the leading numeric token, ignoring a trailing unit such as
// "bpm", "W" or "℃".
func Number(raw string) (float64, error) {
	if isPlaceholder(raw) {
		return 0, ErrEmpty
	}
	s := numberSteps.apply(raw)
	token := leadingNumber.FindString(s)
	if token == "" {
		return 0, unparseable("number", raw, nil)
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, unparseable("number", raw, err)
	}
	return v, nil
}

// Count reads a non-negative integer such as a kudos or activity count.
func Count(raw string) (int64, error) {
	v, err := Number(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 || v != math.Trunc(v) {
		return 0, unparseable("count", raw, nil)
	}
	return int64(v), nil
}

func nonNegative(kind, raw, cleaned string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, unparseable(kind, raw, err)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, unparseable(kind, raw, nil)
	}
	return v, nil
}
