package repository

import "errors"

// Sentinel kinds for season store errors.
var (
	ErrNotFound          = errors.New("member not found")
	ErrInvalidLimit      = errors.New("invalid standings limit")
	ErrNilClassification = errors.New("nil classification")
)
