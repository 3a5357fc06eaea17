package storage

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrNotFound is returned when a previously written artifact is missing.
	ErrNotFound = errors.New("artifact not found")
)
