package normalize

import (
	"regexp"
	"strings"
)

const maxTrailingPasses = 4

var (
	timeFragment    = regexp.MustCompile(`\d*:\d+(?::\d+)?(?:[.,]\d+)?`)
	speedFragment   = regexp.MustCompile(`(?i)\d+[.,]?\d*\s*km/h`)
	teamPrefix      = regexp.MustCompile(`(?i)(?:^|\s)(?:team|equipe|équipe|club)\s+\S+`)
	categoryToken   = regexp.MustCompile(`(?i)(?:^|\s)(?:espoirs?|seniors?|juniors?|cadets?|masters?|v[eé]t[eé]rans?|v\d+|m\d+|w\d+)(?:\s+[mfhd])?(?:\s|$)`)
	trailingDecimal = regexp.MustCompile(`\s+\d+[.,]\d+$`)
	trailingInteger = regexp.MustCompile(`\s+\d+$`)
	trailingSexCode = regexp.MustCompile(`(?i)\s+[mfhd]$`)
	leadingInteger  = regexp.MustCompile(`^\d+\s+`)
)

const edgePunctuation = " -,;/()"

// CleanName strips times, speeds, team prefixes, age categories and trailing
// codes from a noisy span and returns what remains with single spaces.
// Word order is left untouched.
func CleanName(s string) string {
	s = CollapseSpaces(s)
	s = speedFragment.ReplaceAllString(s, " ")
	s = timeFragment.ReplaceAllString(s, " ")
	s = teamPrefix.ReplaceAllString(s, " ")
	// Category tokens may be adjacent and share the separating space.
	for i := 0; i < maxTrailingPasses && categoryToken.MatchString(s); i++ {
		s = categoryToken.ReplaceAllString(s, " ")
	}
	s = CollapseSpaces(s)
	s = leadingInteger.ReplaceAllString(s, "")
	for i := 0; i < maxTrailingPasses; i++ {
		before := s
		s = trailingDecimal.ReplaceAllString(s, "")
		s = trailingInteger.ReplaceAllString(s, "")
		s = trailingSexCode.ReplaceAllString(s, "")
		if s == before {
			break
		}
	}
	return strings.Trim(CollapseSpaces(s), edgePunctuation)
}

// SplitUpperFirst splits "DUPONT DE MAN Jean Marc" into last "DUPONT DE MAN"
// and first "Jean Marc". Without an upper-case prefix the last word is the
// first name.
func SplitUpperFirst(s string) (last, first string) {
	words := strings.Fields(s)
	n := 0
	for n < len(words) && IsUpperWord(words[n]) {
		n++
	}
	switch {
	case n == 0 || n == len(words):
		return SplitLastFirst(s)
	default:
		return strings.Join(words[:n], " "), strings.Join(words[n:], " ")
	}
}

// SplitLastFirst treats the final word as the first name: "de Backer Jean"
// gives last "de Backer" and first "Jean".
func SplitLastFirst(s string) (last, first string) {
	words := strings.Fields(s)
	switch len(words) {
	case 0:
		return "", ""
	case 1:
		return words[0], ""
	}
	return strings.Join(words[:len(words)-1], " "), words[len(words)-1]
}

// SplitFirstUpper splits "Jean Marc DUPONT" into last "DUPONT" and first
// "Jean Marc". Without an upper-case suffix the first word is the first name.
func SplitFirstUpper(s string) (last, first string) {
	words := strings.Fields(s)
	n := len(words)
	for n > 0 && IsUpperWord(words[n-1]) {
		n--
	}
	switch {
	case n == len(words) || n == 0:
		if len(words) < 2 {
			return SplitLastFirst(s)
		}
		return strings.Join(words[1:], " "), words[0]
	default:
		return strings.Join(words[n:], " "), strings.Join(words[:n], " ")
	}
}
