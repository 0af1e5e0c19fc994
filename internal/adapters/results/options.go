package results

import (
	"github.com/okian/racerank/internal/formats"
	"github.com/okian/racerank/pkg/logger"
)

// Option applies a configuration option to the DocumentRepository.
type Option func(*DocumentRepository)

// WithDetector replaces the default layout detector.
func WithDetector(d *formats.Detector) Option {
	return func(r *DocumentRepository) {
		if d != nil {
			r.detector = d
		}
	}
}

// WithPDFLayout sets the row tolerance and word gap, in points, used when
// grouping PDF glyphs.
func WithPDFLayout(rowTolerance, wordGap float64) Option {
	return func(r *DocumentRepository) {
		r.rowTolerance = rowTolerance
		r.wordGap = wordGap
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *DocumentRepository) {
		if l != nil {
			r.log = l
		}
	}
}
