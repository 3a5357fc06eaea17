package service

import (
	"github.com/okian/savor/internal/domain/dedupe"
	"github.com/okian/savor/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTopK sets the candidate-set bound.
func WithTopK(k int) Option {
	return func(s *Service) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithWorkerCount sets the number of shard selectors.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithPipeSize bounds the in-memory record pipe.
func WithPipeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pipeSize = size
		}
	}
}

// WithDedupe enables cross-page id deduplication with the given cache bound.
func WithDedupe(size int) Option {
	return func(s *Service) {
		s.dedupeWanted = true
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDeduper injects a deduper, enabling deduplication.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
			s.dedupeWanted = true
		}
	}
}

// WithVerifyRemote posts artifacts to the API's check endpoints.
func WithVerifyRemote(verify bool) Option {
	return func(s *Service) {
		s.verifyRemote = verify
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
