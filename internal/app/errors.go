package service

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrPipeFull signals the record pipe rejected an enqueue; the pipe is
	// sized for whole pages, so this is misconfiguration rather than load.
	ErrPipeFull = errors.New("record pipe full")
)
