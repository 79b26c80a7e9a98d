package catalog

import (
	"errors"
	"fmt"
)

// ErrBadPayload marks an upstream response that did not decode.
var ErrBadPayload = errors.New("malformed catalog response")

// StatusError carries a non-200 upstream status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog returned status %d: %s", e.Code, e.Message)
}
