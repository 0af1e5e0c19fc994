// Package raceresult turns the canonical records of one result file into
// scored classification updates.
//
// A file is processed in two passes. The extraction pass walks records in
// key order, resolves each record's time and metadata and finds the
// reference time. The scoring pass matches every record against the roster
// and applies points to the classification.
package raceresult

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/internal/domain/model"
	"github.com/okian/racerank/internal/domain/normalize"
	"github.com/okian/racerank/internal/domain/record"
	"github.com/okian/racerank/internal/domain/scoring"
	"github.com/okian/racerank/pkg/logger"
)

// Domain speed bound in km/h. Looser than the normalizer's on purpose.
const defaultMaxSpeed = 30.0

// Repository supplies the canonical records of a result file.
type Repository interface {
	GetRaceResults(ctx context.Context, path string, members []model.Member) (record.Set, error)
}

// Summary reports what happened to one file.
type Summary struct {
	Header    record.Header
	Race      model.RaceDistance
	Records   int
	Scored    int
	Dropped   int
	Updates   int
	External  int
	Reference time.Duration
	PaceMode  bool
}

// Parser is the race result parser.
type Parser struct {
	repo     Repository
	scorer   scoring.Scorer
	log      logger.Logger
	maxSpeed float64
}

// NewParser creates a parser reading records from repo.
func NewParser(repo Repository, opts ...Option) *Parser {
	p := &Parser{
		repo:     repo,
		scorer:   scoring.NewCalculator(),
		log:      logger.Nop(),
		maxSpeed: defaultMaxSpeed,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads path and applies its results to c. An empty race name or
// distance is filled from the file's header record; a race name still empty
// after that becomes the file name without extension. Errors from the
// repository are returned unchanged in their chain; rows without a usable
// time are dropped and counted in the summary.
func (p *Parser) Parse(ctx context.Context, path string, race model.RaceDistance, members []model.Member, c *classification.Classification) (Summary, error) {
	if strings.TrimSpace(path) == "" {
		return Summary{}, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	if c == nil {
		return Summary{}, fmt.Errorf("%w: nil classification", ErrInvalidArgument)
	}

	set, err := p.repo.GetRaceResults(ctx, path, members)
	if err != nil {
		return Summary{}, fmt.Errorf("read results %s: %w", path, err)
	}
	header, err := set.Header()
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %s: %w", ErrMissingHeader, path, err)
	}
	if race.Name == "" {
		race.Name = header.RaceName
	}
	if race.Name == "" {
		race.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if race.DistanceKm == 0 {
		race.DistanceKm = header.DistanceKm
	}
	sum := Summary{Header: header, Race: race}

	entries, ref := p.extractAll(ctx, set, &sum)
	if ref == nil {
		p.log.Warn(ctx, "no reference time in file", logger.String("path", path))
		return sum, nil
	}
	sum.Reference = ref.scoreTime

	p.score(ctx, entries, ref, race, members, c, &sum)

	p.log.Debug(ctx, "race results parsed",
		logger.String("path", path),
		logger.String("race", race.Name),
		logger.Int("records", sum.Records),
		logger.Int("scored", sum.Scored),
		logger.Int("dropped", sum.Dropped),
		logger.Int("updates", sum.Updates),
		logger.Duration("reference", sum.Reference),
	)
	return sum, nil
}

// extractAll runs the extraction pass. The reference is the first record at
// position 1, or the first record with a valid time when none is ranked first.
func (p *Parser) extractAll(ctx context.Context, set record.Set, sum *Summary) ([]entry, *entry) {
	var (
		entries  []entry
		paceMode bool
		refIdx   = -1
	)
	for _, key := range set.Keys() {
		if key == record.HeaderKey {
			continue
		}
		sum.Records++
		rec := record.Decode(set[key])
		e, mode, err := p.extract(key, rec, paceMode)
		paceMode = mode
		if err != nil {
			sum.Dropped++
			p.log.Debug(ctx, "record dropped", logger.Int("key", key), logger.Error(err))
			continue
		}
		entries = append(entries, e)
		if refIdx < 0 && e.position == 1 {
			refIdx = len(entries) - 1
		}
	}
	sum.PaceMode = paceMode
	sum.Scored = len(entries)
	if len(entries) == 0 {
		return nil, nil
	}
	if refIdx < 0 {
		refIdx = 0
	}
	return entries, &entries[refIdx]
}

// score matches entries to members and applies one update per (record,
// matched participant) in key order.
func (p *Parser) score(ctx context.Context, entries []entry, ref *entry, race model.RaceDistance, members []model.Member, c *classification.Classification, sum *Summary) {
	for _, e := range entries {
		t, ok := e.comparable(ref.scoreIsPace, race.DistanceKm)
		if !ok {
			sum.Dropped++
			p.log.Debug(ctx, "record dropped", logger.Int("key", e.key),
				logger.Error(fmt.Errorf("%w: pace and total time mixed without distance", ErrMalformedRecord)))
			continue
		}
		points, err := p.scorer.Score(ref.scoreTime, t)
		if err != nil {
			sum.Dropped++
			p.log.Debug(ctx, "record not scored", logger.Int("key", e.key), logger.Error(err))
			continue
		}

		for _, part := range p.match(e, ref, members) {
			c.AddOrUpdateResult(part, race, e.result(points))
			sum.Updates++
			if part.IsExternal() {
				sum.External++
			}
		}
	}
}

// match returns every roster member whose first and last name both appear in
// the record text. An unmatched winner line yields an external placeholder.
func (p *Parser) match(e entry, ref *entry, members []model.Member) []model.Participant {
	text := normalize.Fold(e.rec.Text())
	var out []model.Participant
	for _, m := range members {
		if m.Matches(text) {
			out = append(out, model.RosterParticipant(m))
		}
	}
	if len(out) == 0 && (e.rec.Kind == record.KindWinner || e.key == ref.key) {
		out = append(out, model.ExternalWinner(e.rec.Field(1)+" "+e.rec.Field(2)))
	}
	return out
}
