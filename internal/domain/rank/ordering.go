package rank

import (
	"strings"

	"github.com/okian/savor/internal/domain/model"
)

// Compare orders two scored records under the composite ranking key.
// It returns a negative value when a ranks below b, a positive value when a
// ranks above b, and zero only when the full key ties.
//
// Key, most significant first: score desc, rating desc, distance desc
// (farther wins among equals, a property of the formula), name asc.
func Compare(a, b model.ScoredRecord) int {
	switch {
	case a.Score < b.Score:
		return -1
	case a.Score > b.Score:
		return 1
	}
	switch {
	case a.Rating < b.Rating:
		return -1
	case a.Rating > b.Rating:
		return 1
	}
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance > b.Distance:
		return 1
	}
	// Alphabetically earlier name ranks higher.
	return strings.Compare(b.Name, a.Name)
}
