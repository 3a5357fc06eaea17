package pipe

// Option applies a configuration option to the InMemoryPipe.
type Option func(*InMemoryPipe)

// WithCapacity sets the buffer size of the pipe.
func WithCapacity(capacity int) Option {
	return func(p *InMemoryPipe) {
		if capacity > 0 {
			p.capacity = capacity
		}
	}
}
