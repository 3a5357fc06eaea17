package rank

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrDrained is returned by Add after Drain has sealed the selector.
	ErrDrained = errors.New("selector already drained")
)
