package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrNoCatalog     = errors.New("catalog client is required")
	ErrFetchInFlight = errors.New("a page fetch is already in flight")
	ErrStaleResult   = errors.New("page result discarded by reset")
)
