// Package normalize holds the stateless field cleanup helpers shared by every
// result layout: diacritics folding, time and speed parsing, name cleaning,
// sex and category codes, and disqualification markers.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks: "Liège" becomes "Liege".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold returns the comparison form of s: no diacritics, lower case, single spaces.
func Fold(s string) string {
	return CollapseSpaces(strings.ToLower(StripDiacritics(s)))
}

// CollapseSpaces trims s and replaces every whitespace run with one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var disqualificationMarkers = []string{"dsq", "dnf", "dns", "abandon", "disqualifie"}

// IsDisqualified reports whether text carries a disqualification marker.
// Matching is a substring test on the folded text.
func IsDisqualified(text string) bool {
	folded := Fold(text)
	for _, m := range disqualificationMarkers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

// NormalizeSex maps H to M and D to F; M and F pass through.
// Anything else reports false so the field stays absent.
func NormalizeSex(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "H":
		return "M", true
	case "F", "D":
		return "F", true
	}
	return "", false
}

const maxCategoryLen = 5

// NormalizeCategory accepts short alphanumeric codes such as SH, V1 or ESPH.
func NormalizeCategory(s string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(StripDiacritics(s)))
	if c == "" || len(c) > maxCategoryLen {
		return "", false
	}
	hasLetter := false
	for _, r := range c {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
		default:
			return "", false
		}
	}
	if !hasLetter {
		return "", false
	}
	return c, true
}

// IsUpperWord reports whether w has letters and all of them are upper case.
// Used to split "DUPONT Jean" style names.
func IsUpperWord(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 0
}
