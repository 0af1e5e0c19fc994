package record

import "errors"

// ErrNotHeader is returned when a line fails the header check.
var ErrNotHeader = errors.New("not a header record")
