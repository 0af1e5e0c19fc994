package normalize

import "errors"

// Sentinel errors returned by the parsing helpers.
var (
	ErrInvalidTime  = errors.New("invalid time")
	ErrInvalidSpeed = errors.New("invalid speed")
)
