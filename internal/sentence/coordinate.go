package sentence

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// coordinateFormat matches a field.Format naming a DDMM.MMMM-style value:
// one or more degree/minute digits, a dot, one or more fractional digits.
var coordinateFormat = regexp.MustCompile(`(?i)^[d]+[m]+\.[m]+$`)

// isCoordinateFormat reports whether format names a DDMM.MMMM coordinate.
func isCoordinateFormat(format string) bool {
	return coordinateFormat.MatchString(format)
}

// convertCoordinate converts a DDMM.MMMM-formatted value (degrees, then two
// minute digits, then a dot, then fractional minutes — optionally signed)
// into decimal degrees. The two whole-minute digits are the two characters
// immediately before the dot; everything before them is degrees.
//
// Output precision matches the source: the number of digits printed after
// the decimal point equals the number of digits after the dot in the input
// string, e.g. "-12324.2691" (4 digits after the dot) yields a result
// rounded to 4 decimal places.
func convertCoordinate(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	dot := strings.IndexByte(trimmed, '.')
	if dot <= 2 {
		return 0, fmt.Errorf("sentence: coordinate %q has no usable decimal point", value)
	}

	degreesPart := trimmed[:dot-2]
	minutesPart := trimmed[dot-2:]

	negative := strings.HasPrefix(trimmed, "-")

	degrees, err := strconv.ParseFloat(degreesPart, 64)
	if err != nil {
		return 0, fmt.Errorf("sentence: invalid coordinate degrees in %q: %w", value, err)
	}
	minutes, err := strconv.ParseFloat(minutesPart, 64)
	if err != nil {
		return 0, fmt.Errorf("sentence: invalid coordinate minutes in %q: %w", value, err)
	}
	if minutes < 0 || minutes >= 60 {
		return 0, fmt.Errorf("sentence: coordinate minutes %v out of range [0,60) in %q", minutes, value)
	}

	result := math.Abs(degrees) + minutes/60
	if negative {
		result = -result
	}

	precision := len(trimmed) - dot - 1
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(result, 'f', precision, 64), 64)
	if err != nil {
		return result, nil
	}
	return rounded, nil
}
