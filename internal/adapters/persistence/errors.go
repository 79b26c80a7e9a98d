package persistence

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound = errors.New("document not found")
	ErrClosed   = errors.New("store closed")
)
