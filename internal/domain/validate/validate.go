// Package validate decides whether a raw record belongs in the ranking domain.
//
// The schema is fixed: four required fields, each with a type and range
// constraint. Records failing any rule are filtered, not errors.
package validate

import (
	"math"
	"regexp"
	"strings"

	"github.com/okian/savor/internal/domain/model"
)

// Field names of the upstream dataset schema.
const (
	FieldID       = "id"
	FieldName     = "restaurant_name"
	FieldRating   = "rating"
	FieldDistance = "distance_from_me"
)

// Valid range bounds, inclusive.
const (
	MinRating   = 1.00
	MaxRating   = 10.00
	MinDistance = 10.00
	MaxDistance = 1000.00
)

// namePattern accepts ASCII letters and spaces only.
var namePattern = regexp.MustCompile(`^[A-Za-z ]+$`)

// Valid reports whether a raw record satisfies all four schema rules.
// It is pure and total: any missing field or type mismatch yields false.
func Valid(raw model.Raw) bool {
	_, ok := Coerce(raw)
	return ok
}

// Coerce converts an accepted raw record into the typed model.Record.
// The returned bool mirrors Valid.
func Coerce(raw model.Raw) (model.Record, bool) {
	if raw == nil {
		return model.Record{}, false
	}

	// id: a JSON number with no fractional part. encoding/json decodes
	// numbers as float64, so integer-ness is a truncation check.
	id, ok := number(raw[FieldID])
	if !ok || id != math.Trunc(id) {
		return model.Record{}, false
	}

	// restaurant_name: non-empty after trimming, letters and spaces only.
	name, ok := raw[FieldName].(string)
	if !ok || strings.TrimSpace(name) == "" || !namePattern.MatchString(name) {
		return model.Record{}, false
	}

	rating, ok := number(raw[FieldRating])
	if !ok || rating < MinRating || rating > MaxRating {
		return model.Record{}, false
	}

	distance, ok := number(raw[FieldDistance])
	if !ok || distance < MinDistance || distance > MaxDistance {
		return model.Record{}, false
	}

	return model.Record{
		ID:       int64(id),
		Name:     name,
		Rating:   rating,
		Distance: distance,
	}, true
}

// number extracts a finite numeric value from a decoded JSON field.
func number(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
