package results

import "errors"

// Sentinel errors.
var (
	ErrNotFound        = errors.New("result file not found")
	ErrInvalidArgument = errors.New("invalid argument")
)
