package storelink

import "errors"

// Sentinel kinds for store lookups.
var (
	ErrEmptyName    = errors.New("game name is required")
	ErrTokenFetch   = errors.New("store token fetch failed")
	ErrLookupFailed = errors.New("store lookup failed")
)
