package formats

import (
	"context"
	"regexp"
	"strings"

	"github.com/okian/racerank/internal/domain/normalize"
	"github.com/okian/racerank/internal/domain/record"
	"github.com/okian/racerank/internal/extract"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

var speedText = regexp.MustCompile(`(?i)\d+(?:[.,]\d+)?\s*km\s*/\s*h`)

// Generic reads any row holding a time as "[pos] name ... time".
type Generic struct {
	log logger.Logger
}

// NewGeneric returns the fallback parser.
func NewGeneric(log logger.Logger) *Generic {
	if log == nil {
		log = logger.Nop()
	}
	return &Generic{log: log}
}

// Name returns "Generic".
func (g *Generic) Name() string { return NameGeneric }

// Signature is empty; Generic is never detected, only fallen back to.
func (g *Generic) Signature() []string { return nil }

// Parse emits one record per row with a plausible time and a name.
func (g *Generic) Parse(ctx context.Context, doc Document) (record.Set, error) {
	b := record.NewBuilder(headerFor(NameGeneric, doc.Filename))
	last := 0
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, row := range page.Rows {
			rec, reason := g.record(row, doc, last)
			if rec == nil {
				metrics.RecordRowDropped(reason)
				g.log.Debug(ctx, "row dropped",
					logger.String("format", NameGeneric),
					logger.String("reason", reason),
					logger.Int("page", page.Number),
					logger.Int("row", row.Index))
				continue
			}
			last, _ = rec.Position()
			b.Add(rec)
		}
	}
	return b.Set(), nil
}

func (g *Generic) record(row extract.Row, doc Document, last int) (*record.Record, string) {
	text := row.Text()
	if normalize.IsDisqualified(text) {
		return nil, dropDisqualified
	}
	raceTime := firstTime(text)
	if raceTime == "" {
		return nil, dropNoTime
	}

	tokens := row.Tokens
	pos := last + 1
	if len(tokens) > 0 {
		if n, ok := leadingInt(tokens[0].Text); ok && isNumber(tokens[0].Text) {
			pos = n
			tokens = tokens[1:]
		}
	}

	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = tok.Text
	}
	rest := strings.Join(words, " ")
	speed := ""
	if m := speedText.FindString(rest); m != "" {
		if v, err := normalize.ParseSpeed(m); err == nil {
			speed = normalize.FormatDecimal(v, 2, normalize.Invariant)
		}
	}
	lastName, firstName := splitGuess(normalize.CleanName(rest))
	if lastName == "" {
		return nil, dropNoName
	}

	rec := record.NewParticipant(pos, lastName, firstName, raceTime)
	rec.Set(record.KeySpeed, speed)
	if isRosterMember(doc.Members, firstName+" "+lastName) {
		rec.Set(record.KeyIsMember, "true")
	}
	return rec, ""
}

// splitGuess picks a split from where the upper-case words sit.
func splitGuess(name string) (last, first string) {
	words := strings.Fields(name)
	switch {
	case len(words) == 0:
		return "", ""
	case normalize.IsUpperWord(words[0]):
		return normalize.SplitUpperFirst(name)
	case normalize.IsUpperWord(words[len(words)-1]):
		return normalize.SplitFirstUpper(name)
	default:
		return normalize.SplitLastFirst(name)
	}
}

func isNumber(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
