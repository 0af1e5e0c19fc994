package raceresult

import (
	"github.com/okian/racerank/internal/domain/scoring"
	"github.com/okian/racerank/pkg/logger"
)

// Option applies a configuration option to the Parser.
type Option func(*Parser)

// WithScorer replaces the default points calculator.
func WithScorer(s scoring.Scorer) Option {
	return func(p *Parser) {
		if s != nil {
			p.scorer = s
		}
	}
}

// WithLogger sets the logger used for dropped records and summaries.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithSpeedLimit sets the upper speed bound (km/h) accepted from SPEED values.
func WithSpeedLimit(kmh float64) Option {
	return func(p *Parser) {
		if kmh > 0 {
			p.maxSpeed = kmh
		}
	}
}
