package batch

import "errors"

// Error constants.
var (
	ErrNoFiles   = errors.New("no result files found")
	ErrUnhealthy = errors.New("service health check failed")
	ErrStatus    = errors.New("unexpected response status")
)
