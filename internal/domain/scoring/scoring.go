// Package scoring computes the derived ranking score for a record.
//
// The formula is fixed:
//
//	raw   = rating*10 - distance*0.5 + sin(id)*2
//	score = round((raw*100 + 0.5) / 100, 2)
//
// sin operates in radians and the +0.5 offset is part of the formula, not a
// rounding idiom. Rounding is to two decimals, half away from zero
// (math.Round). Scoring is deterministic and idempotent: the same record
// always yields the same score.
package scoring

import (
	"math"

	"github.com/okian/savor/internal/domain/model"
)

// Fixed formula coefficients.
const (
	ratingWeight   = 10.0
	distanceWeight = 0.5
	oscillation    = 2.0 // amplitude of the sin(id) term
	centsPerUnit   = 100.0
	formulaOffset  = 0.5
)

// Score computes the derived score for a validated record.
//
// Records reaching this function have passed the validator, so non-finite
// inputs indicate the contract was bypassed upstream; that is a programming
// error and panics rather than producing a silent NaN ranking.
func Score(rec model.Record) float64 {
	if !finite(rec.Rating) || !finite(rec.Distance) {
		panic("scoring: record bypassed validation")
	}

	raw := rec.Rating*ratingWeight - rec.Distance*distanceWeight + math.Sin(float64(rec.ID))*oscillation
	v := (raw*centsPerUnit + formulaOffset) / centsPerUnit
	return round2(v)
}

// Stamp returns the record with its score populated.
func Stamp(rec model.Record) model.ScoredRecord {
	return model.ScoredRecord{Record: rec, Score: Score(rec)}
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*centsPerUnit) / centsPerUnit
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
