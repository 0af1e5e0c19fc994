package formats

import "errors"

// ErrFormatUnrecognized marks a document no layout signature matched. It is
// reported through Detection and never fails a parse.
var ErrFormatUnrecognized = errors.New("format unrecognized")
