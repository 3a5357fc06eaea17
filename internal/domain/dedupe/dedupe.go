// Package dedupe tracks record ids seen across dataset pages.
//
// The upstream API may repeat records between pages. Deduplication before
// selection is optional and off by default: the reference behavior ranks
// duplicates independently.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen record ids.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id int64) bool

	Size() int
}

// inMemoryDeduper implements Deduper with a bounded map. When the bound is
// reached the oldest recorded ids are evicted FIFO via a ring buffer; an
// unbounded deduper (maxSize <= 0) keeps every id.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[int64]struct{}
	ring    []int64 // insertion order, bounded mode only
	next    int     // ring cursor
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	// Apply all options
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[int64]struct{})
	if d.maxSize > 0 {
		d.ring = make([]int64, 0, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		if len(d.ring) < d.maxSize {
			d.ring = append(d.ring, id)
		} else {
			// Evict the oldest id to make room.
			delete(d.seen, d.ring[d.next])
			d.ring[d.next] = id
			d.next = (d.next + 1) % d.maxSize
		}
	}
	d.seen[id] = struct{}{}
	return false
}

// Size returns the number of ids currently tracked.
func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
