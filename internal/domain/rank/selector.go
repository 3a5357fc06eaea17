// Package rank maintains the K highest-ranked records of an unbounded
// record stream.
//
// A Selector holds a bounded min-heap (worst-ranked record at the root) of
// at most K scored records. Each Add costs O(log K); Drain performs the
// single O(K log K) sort that produces the final best-first sequence. The
// selector moves through EMPTY -> FILLING -> FULL -> DRAINED; Drain is
// terminal and later Adds fail fast with ErrDrained.
package rank

import (
	"container/heap"
	"sort"

	"github.com/okian/savor/internal/domain/model"
	"github.com/okian/savor/internal/domain/scoring"
)

// DefaultK is the candidate-set bound used when none is configured.
const DefaultK = 10

// Stats counts admission outcomes over the selector's lifetime.
type Stats struct {
	Offered   int64 // records offered to Add
	Admitted  int64 // records that entered the candidate set
	Evicted   int64 // incumbents displaced by a better candidate
	Discarded int64 // candidates that did not beat the current minimum
}

// Selector is the bounded top-K selection engine. It is not safe for
// concurrent use; parallel ingestion runs one Selector per shard and merges
// the drained results (see Merge).
type Selector struct {
	k       int
	heap    minHeap
	drained bool
	stats   Stats
}

// New creates a Selector keeping the k highest-ranked records.
// Non-positive k falls back to DefaultK.
func New(k int) *Selector {
	if k <= 0 {
		k = DefaultK
	}
	return &Selector{
		k:    k,
		heap: make(minHeap, 0, k),
	}
}

// Add scores the record and offers it to the candidate set. The score is
// computed exactly once, here; the stamped record is immutable afterwards.
// It reports whether the record was admitted. Calling Add after Drain
// returns ErrDrained.
func (s *Selector) Add(rec model.Record) (bool, error) {
	if s.drained {
		return false, ErrDrained
	}
	s.stats.Offered++

	cand := scoring.Stamp(rec)

	// Filling: insert and sift up.
	if len(s.heap) < s.k {
		heap.Push(&s.heap, cand)
		s.stats.Admitted++
		return true, nil
	}

	// Full: replace the minimum only when the candidate ranks strictly
	// better under the full composite key. An exact tie keeps the
	// incumbent, so output never depends on insertion order.
	if Compare(cand, s.heap[0]) > 0 {
		s.heap[0] = cand
		heap.Fix(&s.heap, 0)
		s.stats.Admitted++
		s.stats.Evicted++
		return true, nil
	}

	s.stats.Discarded++
	return false, nil
}

// Drain seals the selector and returns its candidate set sorted best-first.
// Subsequent calls return nil.
func (s *Selector) Drain() []model.ScoredRecord {
	if s.drained {
		return nil
	}
	s.drained = true

	out := make([]model.ScoredRecord, len(s.heap))
	copy(out, s.heap)
	s.heap = nil

	sort.Slice(out, func(i, j int) bool {
		return Compare(out[i], out[j]) > 0
	})
	return out
}

// Len returns the current size of the candidate set.
func (s *Selector) Len() int { return len(s.heap) }

// K returns the configured bound.
func (s *Selector) K() int { return s.k }

// Drained reports whether Drain has been called.
func (s *Selector) Drained() bool { return s.drained }

// Stats returns admission counters for observability.
func (s *Selector) Stats() Stats { return s.stats }

// Merge combines drained shard outputs into one top-k sequence by re-running
// Add for every shard record through a combining selector. Selection only
// ever needs the best K of its input, so it is associative over shards and
// the merge is exact.
func Merge(k int, shards ...[]model.ScoredRecord) []model.ScoredRecord {
	combined := New(k)
	for _, shard := range shards {
		for _, rec := range shard {
			// Rescoring is deterministic, so the stamped score is
			// reproduced bit-for-bit.
			combined.Add(rec.Record) //nolint:errcheck // fresh selector cannot be drained
		}
	}
	return combined.Drain()
}

// minHeap implements heap.Interface with the worst-ranked record at the root.
type minHeap []model.ScoredRecord

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return Compare(h[i], h[j]) < 0 }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) {
	*h = append(*h, x.(model.ScoredRecord))
}

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	rec := old[n-1]
	*h = old[:n-1]
	return rec
}
