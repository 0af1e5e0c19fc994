package raceresult

import "errors"

// Sentinel errors. ErrMalformedRecord is only logged and counted; it never
// fails a file.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingHeader   = errors.New("result set has no header record")
	ErrMalformedRecord = errors.New("malformed record")
)
