// Package scoring turns a participant time into season points relative to
// the race reference time.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const defaultScale = 1000

// ErrInvalidArgument is returned for non-positive times.
var ErrInvalidArgument = errors.New("invalid argument")

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithScale sets the points awarded for matching the reference time.
func WithScale(scale int) Option {
	return func(c *Calculator) {
		if scale > 0 {
			c.scale = float64(scale)
		}
	}
}

// Scorer computes points for a participant.
type Scorer interface {
	Score(reference, participant time.Duration) (int, error)
}

// Calculator implements Scorer as round(reference / participant * scale).
type Calculator struct {
	scale float64
}

// NewCalculator creates a calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{scale: defaultScale}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score returns the points for participant. Both times must be positive;
// callers filter zero times before scoring.
func (c *Calculator) Score(reference, participant time.Duration) (int, error) {
	if participant <= 0 {
		return 0, fmt.Errorf("%w: participant time %v", ErrInvalidArgument, participant)
	}
	if reference <= 0 {
		return 0, fmt.Errorf("%w: reference time %v", ErrInvalidArgument, reference)
	}
	return int(math.Round(reference.Seconds() / participant.Seconds() * c.scale)), nil
}

var defaultCalculator = NewCalculator()

// Points scores with the default scale of 1000.
func Points(reference, participant time.Duration) (int, error) {
	return defaultCalculator.Score(reference, participant)
}
