package model

import "errors"

var (
	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("todo not found")
	// ErrBackendUnavailable means the storage or transport layer failed.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrValidation means the input was rejected before reaching a backend.
	ErrValidation = errors.New("invalid todo")
)
