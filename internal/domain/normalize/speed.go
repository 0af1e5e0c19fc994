package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Normalizer speed bounds in km/h.
const (
	MinSpeed = 5.0
	MaxSpeed = 25.0
)

var (
	speedUnit = regexp.MustCompile(`(?i)\s*km\s*/\s*h$`)
	hundred   = decimal.NewFromInt(100)
	// Integers in this range are speeds that lost their decimal point.
	missingPointLow  = decimal.NewFromInt(100)
	missingPointHigh = decimal.NewFromInt(3000)
)

// ParseSpeed parses a speed in km/h inside [MinSpeed, MaxSpeed].
func ParseSpeed(s string) (float64, error) {
	return ParseSpeedWithin(s, MinSpeed, MaxSpeed)
}

// ParseSpeedWithin parses a speed and checks it against [lo, hi].
// Both '.' and ',' are decimal separators and a trailing km/h is ignored.
// "1250" is read as 12.5.
func ParseSpeedWithin(s string, lo, hi float64) (float64, error) {
	raw := speedUnit.ReplaceAllString(strings.TrimSpace(s), "")
	d, err := ParseDecimal(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSpeed, s)
	}
	if !strings.ContainsAny(raw, ".,") && d.GreaterThanOrEqual(missingPointLow) && d.LessThanOrEqual(missingPointHigh) {
		d = d.Div(hundred)
	}
	v := d.InexactFloat64()
	if v < lo || v > hi {
		return 0, fmt.Errorf("%w: %q outside [%v, %v]", ErrInvalidSpeed, s, lo, hi)
	}
	return v, nil
}

// ParseDecimal parses a number written with either decimal separator.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
