package service

import "errors"

// Error constants.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrBackpressure    = errors.New("job queue is full")
	ErrInvalidJob      = errors.New("invalid job")
	ErrUnsupportedFile = errors.New("unsupported result file")
	ErrJobNotFound     = errors.New("job not found")
)
