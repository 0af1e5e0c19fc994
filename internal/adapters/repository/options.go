package repository

import (
	"github.com/okian/racerank/internal/domain/classification"
	"github.com/okian/racerank/pkg/logger"
)

// Option applies a configuration option to the SeasonStore.
type Option func(*SeasonStore)

// WithSeason seeds the store with an existing classification.
func WithSeason(c *classification.Classification) Option {
	return func(s *SeasonStore) {
		if c != nil {
			s.season = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SeasonStore) {
		if l != nil {
			s.log = l
		}
	}
}
