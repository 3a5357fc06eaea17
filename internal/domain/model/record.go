// Package model contains domain models passed between layers.
package model

// Record represents a validated restaurant observation.
// Field names mirror the upstream dataset schema.
type Record struct {
	ID       int64   `json:"id"`
	Name     string  `json:"restaurant_name"`
	Rating   float64 `json:"rating"`
	Distance float64 `json:"distance_from_me"`
}

// ScoredRecord is a Record stamped with its derived score. The score is
// computed exactly once, when the record is offered to a selector, and is
// immutable afterwards.
type ScoredRecord struct {
	Record
	Score float64 `json:"score"`
}

// Raw is a record as decoded from an upstream dataset page, before
// validation. Only the validator should inspect it.
type Raw = map[string]any
