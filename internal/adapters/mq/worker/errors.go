package worker

import "errors"

// ErrUnknownKind marks an interaction kind the worker cannot apply.
var ErrUnknownKind = errors.New("unknown interaction kind")
