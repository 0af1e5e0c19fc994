package extract

import "errors"

// Sentinel errors.
var (
	// ErrDocumentUnreadable means the file exists but cannot be opened or decoded.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrNotFound means the source file does not exist.
	ErrNotFound = errors.New("document not found")
)
