package fetch

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrAuth      = errors.New("authorization failed")
	ErrRequest   = errors.New("request failed")
	ErrBadStatus = errors.New("unexpected response status")
)
