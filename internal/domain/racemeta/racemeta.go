// Package racemeta recovers race metadata from result file names.
//
// Recognized names:
//
//	2025-04-21_RaceName_Location_Category_10km.pdf
//	20250421RaceNameGC.pdf
//	Classement-10km-RaceName.pdf
package racemeta

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/okian/racerank/internal/domain/normalize"
)

// Convention names the filename pattern that matched.
type Convention string

// Known conventions.
const (
	ConventionNone       Convention = ""
	ConventionDashed     Convention = "dated"
	ConventionCompact    Convention = "compact"
	ConventionClassement Convention = "classement"
)

// CategoryGC is the fixed category of compact names.
const CategoryGC = "GC"

// Metadata is what a filename reveals about a race.
type Metadata struct {
	RaceName   string
	Date       time.Time
	Location   string
	Category   string
	DistanceKm int
	Convention Convention
}

var (
	dashedName     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})_([^_]+)_([^_]*)_([^_]*)_([^_]+)\.(?i:pdf|xlsx|xlsm|csv)$`)
	compactName    = regexp.MustCompile(`^(\d{8})(.+?)GC\.(?i:pdf|xlsx|xlsm|csv)$`)
	classementName = regexp.MustCompile(`^(?i:classement)-(\d+(?:[.,]\d+)?)\s*(?i:km)-(.+)\.(?i:pdf|xlsx|xlsm|csv)$`)
	distanceToken  = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(?i:km|k)?$`)
)

// Resolve parses the base name of path. It reports false when no convention matches
// or when the embedded date is not a calendar date.
func Resolve(path string) (Metadata, bool) {
	name := filepath.Base(path)

	if m := dashedName.FindStringSubmatch(name); m != nil {
		date, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return Metadata{}, false
		}
		dist, _ := ParseDistance(m[5])
		return Metadata{
			RaceName:   m[2],
			Date:       date,
			Location:   m[3],
			Category:   m[4],
			DistanceKm: dist,
			Convention: ConventionDashed,
		}, true
	}

	if m := compactName.FindStringSubmatch(name); m != nil {
		date, err := time.Parse("20060102", m[1])
		if err != nil {
			return Metadata{}, false
		}
		return Metadata{
			RaceName:   m[2],
			Date:       date,
			Category:   CategoryGC,
			Convention: ConventionCompact,
		}, true
	}

	if m := classementName.FindStringSubmatch(name); m != nil {
		dist, _ := ParseDistance(m[1])
		return Metadata{
			RaceName:   normalize.CollapseSpaces(strings.NewReplacer("-", " ", "_", " ").Replace(m[2])),
			DistanceKm: dist,
			Convention: ConventionClassement,
		}, true
	}

	return Metadata{}, false
}

// ParseDistance reads 10, 10km, 10K or 10,5km and rounds to whole km.
func ParseDistance(s string) (int, bool) {
	m := distanceToken.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	d, err := normalize.ParseDecimal(m[1])
	if err != nil {
		return 0, false
	}
	km := int(d.Round(0).IntPart())
	if km <= 0 {
		return 0, false
	}
	return km, true
}
