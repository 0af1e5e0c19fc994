// Package formats recognizes organizer result layouts and maps their tables
// to canonical records.
//
// Each layout is a Parser with a header signature. The Detector picks the
// first layout whose signature covers enough of a header row and falls back
// to the Generic parser otherwise.
package formats

import (
	"context"
	"strings"

	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/normalize"
	"github.com/okian/racerank/internal/domain/racemeta"
	"github.com/okian/racerank/internal/domain/record"
	"github.com/okian/racerank/internal/extract"
)

// Document is the input of a layout parser.
type Document struct {
	Pages    []extract.Page
	Filename string
	Members  []model.Member
}

// Parser maps one organizer layout to canonical records.
type Parser interface {
	Name() string
	Signature() []string
	Parse(ctx context.Context, doc Document) (record.Set, error)
}

// headerFor builds the header record from filename metadata.
func headerFor(format, filename string) record.Header {
	h := record.Header{Format: format}
	if m, ok := racemeta.Resolve(filename); ok {
		h.RaceName = m.RaceName
		h.Date = m.Date
		h.Location = m.Location
		h.Category = m.Category
		h.DistanceKm = m.DistanceKm
	}
	return h
}

// isRosterMember reports whether a member's first and last name both occur in text.
func isRosterMember(members []model.Member, text string) bool {
	folded := normalize.Fold(text)
	for _, m := range members {
		if m.Matches(folded) {
			return true
		}
	}
	return false
}

// coverage is the share of signature terms found in the row.
func coverage(signature []string, row extract.Row) float64 {
	if len(signature) == 0 {
		return 0
	}
	text := " " + foldRow(row) + " "
	matched := 0
	for _, term := range signature {
		if strings.Contains(text, " "+normalize.Fold(term)+" ") {
			matched++
		}
	}
	return float64(matched) / float64(len(signature))
}

func foldRow(row extract.Row) string {
	return normalize.Fold(row.Text())
}
