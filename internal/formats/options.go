package formats

import "github.com/okian/racerank/pkg/logger"

const (
	// DefaultThreshold is the signature coverage a layout needs.
	DefaultThreshold = 0.6
	// DefaultScanRows is how many rows detection inspects.
	DefaultScanRows = 60
	// MinConsistency is the share of participant records expected to have
	// the same field count.
	MinConsistency = 0.8
)

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithThreshold sets the signature coverage threshold.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// WithScanRows sets how many leading rows are inspected.
func WithScanRows(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.scanRows = n
		}
	}
}

// WithParsers replaces the layout parsers, checked in the given order.
func WithParsers(parsers ...Parser) Option {
	return func(d *Detector) {
		if len(parsers) > 0 {
			d.parsers = parsers
		}
	}
}

// WithLogger sets the logger for the detector and the default parsers.
func WithLogger(l logger.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}
