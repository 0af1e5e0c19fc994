// Package config defines racerank configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load(ctx) layers file and env on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory parse job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of parse workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the capacity of the job id deduplication set.
	DedupeSize int `koanf:"dedupe_size"`

	// SignatureThreshold is the header coverage a layout needs to be selected.
	SignatureThreshold float64 `koanf:"signature_threshold"`

	// FileTimeoutMS is the wall-clock budget for processing one file.
	FileTimeoutMS int `koanf:"file_timeout_ms"`

	// RosterPath points at a YAML member roster loaded at startup.
	RosterPath string `koanf:"roster_path"`

	// PathRoot is the directory JSON POST /races may name files under.
	// Empty disables path submissions; uploads are always accepted.
	PathRoot string `koanf:"path_root"`

	// MaxStandingsLimit caps GET /standings?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit"`

	// PDFRowTolerance is the vertical distance (points) under which glyphs share a row.
	PDFRowTolerance float64 `koanf:"pdf_row_tolerance"`

	// PDFWordGap is the horizontal gap (points) under which glyphs join one word.
	PDFWordGap float64 `koanf:"pdf_word_gap"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		QueueSize:          1_000,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         10_000,
		SignatureThreshold: 0.6,
		FileTimeoutMS:      30_000,
		MaxStandingsLimit:  100,
		PDFRowTolerance:    2.0,
		PDFWordGap:         1.5,
	}
}

// FileTimeout returns FileTimeoutMS as a duration.
func (c *Config) FileTimeout() time.Duration {
	return time.Duration(c.FileTimeoutMS) * time.Millisecond
}
