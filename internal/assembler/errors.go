package assembler

import "errors"

// Contract violations surfaced to callers.
var (
	ErrInvalidPage     = errors.New("page must be >= 1")
	ErrInvalidPageSize = errors.New("page size must be >= 1")
)
