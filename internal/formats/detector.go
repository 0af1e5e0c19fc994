package formats

import (
	"context"
	"time"

	"github.com/okian/racerank/internal/domain/record"
	"github.com/okian/racerank/internal/extract"
	"github.com/okian/racerank/pkg/logger"
	"github.com/okian/racerank/pkg/metrics"
)

// Detection is the outcome of layout detection.
type Detection struct {
	Parser   Parser
	Coverage float64
	Fallback bool
}

// Err returns ErrFormatUnrecognized when detection fell back to Generic.
func (d Detection) Err() error {
	if d.Fallback {
		return ErrFormatUnrecognized
	}
	return nil
}

// Detector selects a layout parser from a document's leading rows.
type Detector struct {
	parsers   []Parser
	fallback  Parser
	threshold float64
	scanRows  int
	log       logger.Logger
}

// NewDetector creates a detector over DefaultParsers.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		threshold: DefaultThreshold,
		scanRows:  DefaultScanRows,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.parsers == nil {
		d.parsers = DefaultParsers(d.threshold, d.log)
	}
	d.fallback = NewGeneric(d.log)
	return d
}

// Detect returns the first parser, in declaration order, whose signature
// covers at least the threshold share of some leading row.
func (d *Detector) Detect(ctx context.Context, pages []extract.Page) Detection {
	rows := leadingRows(pages, d.scanRows)
	best := 0.0
	for _, p := range d.parsers {
		c := maxCoverage(p.Signature(), rows)
		if c >= d.threshold {
			metrics.RecordFormatDetection(p.Name(), false)
			d.log.Debug(ctx, "format detected",
				logger.String("format", p.Name()),
				logger.Float64("coverage", c))
			return Detection{Parser: p, Coverage: c}
		}
		if c > best {
			best = c
		}
	}
	metrics.RecordFormatDetection(d.fallback.Name(), true)
	d.log.Debug(ctx, "falling back to generic parser",
		logger.Error(ErrFormatUnrecognized),
		logger.Float64("best_coverage", best))
	return Detection{Parser: d.fallback, Coverage: best, Fallback: true}
}

// Parse detects the layout and parses the document with it.
func (d *Detector) Parse(ctx context.Context, doc Document) (record.Set, Detection, error) {
	start := time.Now()
	det := d.Detect(ctx, doc.Pages)
	metrics.RecordStageLatency("detect", float64(time.Since(start).Milliseconds()))

	start = time.Now()
	set, err := det.Parser.Parse(ctx, doc)
	metrics.RecordStageLatency("parse", float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, det, err
	}
	if c := Consistency(set); c < MinConsistency {
		d.log.Warn(ctx, "inconsistent record field counts",
			logger.String("file", doc.Filename),
			logger.String("format", det.Parser.Name()),
			logger.Float64("consistency", c))
	}
	return set, det, nil
}

// Consistency is the share of participant records having the most common
// field count. An empty set is fully consistent.
func Consistency(set record.Set) float64 {
	lines := set.Participants()
	if len(lines) == 0 {
		return 1
	}
	counts := make(map[int]int)
	top := 0
	for _, l := range lines {
		n := record.FieldCount(l)
		counts[n]++
		if counts[n] > top {
			top = counts[n]
		}
	}
	return float64(top) / float64(len(lines))
}

func leadingRows(pages []extract.Page, limit int) []extract.Row {
	var rows []extract.Row
	for _, p := range pages {
		for _, r := range p.Rows {
			if len(rows) >= limit {
				return rows
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func maxCoverage(signature []string, rows []extract.Row) float64 {
	best := 0.0
	for _, r := range rows {
		if c := coverage(signature, r); c > best {
			best = c
		}
	}
	return best
}
