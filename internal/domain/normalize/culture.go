package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Culture selects the decimal separator used when rendering numbers.
type Culture int

const (
	// Invariant renders 12.5.
	Invariant Culture = iota
	// French renders 12,5.
	French
)

// ParseCulture maps "fr", "fr-BE" and similar to French; anything else is Invariant.
func ParseCulture(name string) Culture {
	if strings.HasPrefix(strings.ToLower(name), "fr") {
		return French
	}
	return Invariant
}

// FormatDecimal renders v with the given number of decimals.
func FormatDecimal(v float64, places int32, c Culture) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	if c == French {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}
