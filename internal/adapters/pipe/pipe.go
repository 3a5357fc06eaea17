// Package pipe provides the bounded in-memory record queue that decouples
// page download from validation and selection.
package pipe

import (
	"context"
	"sync"

	"github.com/okian/savor/internal/domain/model"
	"github.com/okian/savor/pkg/metrics"
)

// Default pipe configuration constants.
const (
	defaultCapacity = 10000
)

// Pipe provides non-blocking enqueue and channel-based dequeue semantics.
type Pipe interface {
	// Enqueue adds a record to the pipe.
	// Returns false if the pipe is full or closed and the record was dropped.
	Enqueue(ctx context.Context, rec model.Record) bool

	// Dequeue returns a channel that receives records as they become
	// available. The channel is closed when the pipe is closed and drained.
	Dequeue(ctx context.Context) <-chan model.Record

	// Len returns the current number of buffered records.
	Len(ctx context.Context) int

	// Close stops the pipe. After closing, no new records can be enqueued.
	Close() error
}

// InMemoryPipe implements Pipe using a buffered channel.
type InMemoryPipe struct {
	records  chan model.Record
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryPipe creates a new in-memory pipe with configuration options.
func NewInMemoryPipe(opts ...Option) *InMemoryPipe {
	p := &InMemoryPipe{
		capacity: defaultCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(p)
	}

	p.records = make(chan model.Record, p.capacity)

	metrics.UpdatePipeCapacity(p.capacity)
	metrics.UpdatePipeSize(0)

	return p
}

// Enqueue adds a record to the pipe.
func (p *InMemoryPipe) Enqueue(ctx context.Context, rec model.Record) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		metrics.RecordPipeEnqueueError()
		return false
	}

	select {
	case p.records <- rec:
		metrics.UpdatePipeSize(len(p.records))
		return true
	case <-ctx.Done():
		metrics.RecordPipeEnqueueError()
		return false
	default:
		// Full pipe means the consumer stalled; dropping is fatal for a
		// batch run, so the caller treats false as misconfiguration.
		metrics.RecordPipeEnqueueError()
		return false
	}
}

// Dequeue returns a channel that receives records as they become available.
func (p *InMemoryPipe) Dequeue(ctx context.Context) <-chan model.Record {
	out := make(chan model.Record)
	go func() {
		defer close(out)
		for rec := range p.records {
			select {
			case out <- rec:
				metrics.UpdatePipeSize(len(p.records))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of buffered records.
func (p *InMemoryPipe) Len(_ context.Context) int {
	return len(p.records)
}

// Close stops the pipe.
func (p *InMemoryPipe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	close(p.records)
	p.closed = true
	return nil
}
