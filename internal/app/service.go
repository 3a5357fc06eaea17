// Package service wires the pipeline stages together: paginated ingestion,
// validation, bounded top-K selection, and artifact persistence.
package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/savor/internal/adapters/fetch"
	"github.com/okian/savor/internal/adapters/pipe"
	"github.com/okian/savor/internal/adapters/storage"
	"github.com/okian/savor/internal/domain/dedupe"
	"github.com/okian/savor/internal/domain/model"
	"github.com/okian/savor/internal/domain/rank"
	"github.com/okian/savor/internal/domain/validate"
	"github.com/okian/savor/pkg/logger"
	"github.com/okian/savor/pkg/metrics"
)

// Ingestor walks the remote dataset and verifies artifacts remotely.
// *fetch.Fetcher satisfies it.
type Ingestor interface {
	Run(ctx context.Context, fn fetch.PageFunc) error
	CheckDataValidation(ctx context.Context, records []model.Record) (string, error)
	CheckTopKSort(ctx context.Context, results []model.ScoredRecord) (string, error)
}

// Service orchestrates the restaurant ranking pipeline.
type Service struct {
	fetcher Ingestor
	store   storage.Store
	deduper dedupe.Deduper

	// Configuration
	topK         int
	workerCount  int
	pipeSize     int
	dedupeWanted bool
	dedupeSize   int
	verifyRemote bool

	// Counters for observability
	fetched   atomic.Int64
	filtered  atomic.Int64
	deduped   atomic.Int64
	offered   atomic.Int64
	admitted  atomic.Int64
	evicted   atomic.Int64
	discarded atomic.Int64

	log logger.Logger
}

// New constructs a Service over the ingestion and persistence collaborators.
func New(fetcher Ingestor, store storage.Store, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		store:       store,
		topK:        rank.DefaultK,
		workerCount: 1, // the reference pipeline is single-threaded
		pipeSize:    10_000,
		dedupeSize:  50_000,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.Named("pipeline")
	}
	if s.deduper == nil && s.dedupeEnabled() {
		s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}

	return s
}

func (s *Service) dedupeEnabled() bool { return s.dedupeSize > 0 && s.dedupeWanted }

// Fetch downloads every dataset page, validates the records, and writes the
// per-page cleaned files plus the combined validated set.
func (s *Service) Fetch(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	s.log.Info(ctx, "starting fetch", logger.String("run_id", runID))

	var combined []model.Record
	err := s.fetcher.Run(ctx, func(ctx context.Context, name string, raw []model.Raw) error {
		cleaned := s.cleanPage(ctx, raw)
		if err := s.store.SaveClean(ctx, name, cleaned); err != nil {
			return fmt.Errorf("save clean page: %w", err)
		}
		combined = append(combined, cleaned...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	if err := s.store.SaveValidated(ctx, combined); err != nil {
		return fmt.Errorf("save validated set: %w", err)
	}
	metrics.ObserveStage("fetch", time.Since(start).Seconds())

	s.log.Info(ctx, "fetch complete",
		logger.String("run_id", runID),
		logger.Int64("records", s.fetched.Load()),
		logger.Int64("filtered", s.filtered.Load()),
		logger.Int("validated", len(combined)),
		logger.Duration("elapsed", time.Since(start)))

	if s.verifyRemote {
		verdict, err := s.fetcher.CheckDataValidation(ctx, combined)
		if err != nil {
			return fmt.Errorf("remote validation check: %w", err)
		}
		s.log.Info(ctx, "remote validation verdict", logger.String("verdict", verdict))
	}
	return nil
}

// Rank loads a previously fetched validated set, selects the top-K, and
// writes the ranked results.
func (s *Service) Rank(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	s.log.Info(ctx, "starting rank", logger.String("run_id", runID), logger.Int("k", s.topK))

	records, err := s.store.LoadValidated(ctx)
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	results, err := s.selectRecords(ctx, func(ctx context.Context, emit func(model.Record) error) error {
		for _, rec := range records {
			if err := emit(rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rank: %w", err)
	}

	if err := s.persistResults(ctx, results); err != nil {
		return err
	}
	metrics.ObserveStage("select", time.Since(start).Seconds())

	s.log.Info(ctx, "rank complete",
		logger.String("run_id", runID),
		logger.Int("input", len(records)),
		logger.Int("output", len(results)),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

// Run executes the full pipeline in one pass: pages feed selection directly
// while every artifact (datasets, clean pages, validated set, results) is
// still written.
func (s *Service) Run(ctx context.Context) error {
	runID := uuid.NewString()
	start := time.Now()
	s.log.Info(ctx, "starting pipeline run",
		logger.String("run_id", runID),
		logger.Int("k", s.topK),
		logger.Int("workers", s.workerCount))

	var combined []model.Record
	results, err := s.selectRecords(ctx, func(ctx context.Context, emit func(model.Record) error) error {
		err := s.fetcher.Run(ctx, func(ctx context.Context, name string, raw []model.Raw) error {
			cleaned := s.cleanPage(ctx, raw)
			if err := s.store.SaveClean(ctx, name, cleaned); err != nil {
				return fmt.Errorf("save clean page: %w", err)
			}
			combined = append(combined, cleaned...)
			for _, rec := range cleaned {
				if err := emit(rec); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("fetch: %w", err)
		}
		return s.store.SaveValidated(ctx, combined)
	})
	if err != nil {
		return err
	}

	if err := s.persistResults(ctx, results); err != nil {
		return err
	}
	metrics.ObserveStage("run", time.Since(start).Seconds())

	s.log.Info(ctx, "pipeline run complete",
		logger.String("run_id", runID),
		logger.Int64("records", s.fetched.Load()),
		logger.Int64("filtered", s.filtered.Load()),
		logger.Int("validated", len(combined)),
		logger.Int("output", len(results)),
		logger.Duration("elapsed", time.Since(start)))

	if s.verifyRemote {
		verdict, err := s.fetcher.CheckDataValidation(ctx, combined)
		if err != nil {
			return fmt.Errorf("remote validation check: %w", err)
		}
		s.log.Info(ctx, "remote validation verdict", logger.String("verdict", verdict))
	}
	return nil
}

// cleanPage validates one page of raw records, applying the optional id
// deduper. Invalid records are filtered silently: that is expected input,
// not an error.
func (s *Service) cleanPage(ctx context.Context, raw []model.Raw) []model.Record {
	cleaned := make([]model.Record, 0, len(raw))
	for _, r := range raw {
		s.fetched.Add(1)
		rec, ok := validate.Coerce(r)
		if !ok {
			s.filtered.Add(1)
			metrics.RecordFiltered()
			continue
		}
		if s.deduper != nil && s.deduper.SeenAndRecord(ctx, rec.ID) {
			s.deduped.Add(1)
			metrics.RecordDeduped()
			continue
		}
		cleaned = append(cleaned, rec)
	}
	return cleaned
}

// feedFunc produces validated records into the selection stage.
type feedFunc func(ctx context.Context, emit func(model.Record) error) error

// selectRecords runs the bounded top-K selection over the records produced
// by feed. Each worker owns an independent selector over the records it
// dequeues; the drained shards merge exactly because selection is
// associative over shards.
func (s *Service) selectRecords(ctx context.Context, feed feedFunc) ([]model.ScoredRecord, error) {
	p := pipe.NewInMemoryPipe(pipe.WithCapacity(s.pipeSize))
	source := p.Dequeue(ctx)

	g, gctx := errgroup.WithContext(ctx)

	shards := make([][]model.ScoredRecord, s.workerCount)
	for i := 0; i < s.workerCount; i++ {
		i := i
		g.Go(func() error {
			shard := strconv.Itoa(i)
			sel := rank.New(s.topK)
			for rec := range source {
				admitted, err := sel.Add(rec)
				if err != nil {
					return fmt.Errorf("shard %s: %w", shard, err)
				}
				if admitted {
					metrics.RecordAdmitted()
				}
				metrics.UpdateSelectorSize(shard, sel.Len())
			}
			st := sel.Stats()
			s.offered.Add(st.Offered)
			s.admitted.Add(st.Admitted)
			s.evicted.Add(st.Evicted)
			s.discarded.Add(st.Discarded)
			for n := int64(0); n < st.Evicted; n++ {
				metrics.RecordEvicted()
			}
			for n := int64(0); n < st.Discarded; n++ {
				metrics.RecordDiscarded()
			}
			shards[i] = sel.Drain()
			return nil
		})
	}

	g.Go(func() error {
		defer p.Close() //nolint:errcheck // close is idempotent
		return feed(gctx, func(rec model.Record) error {
			if !p.Enqueue(gctx, rec) {
				// A full pipe means the consumers stalled; for a batch
				// run that is misconfiguration, not backpressure.
				return ErrPipeFull
			}
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rank.Merge(s.topK, shards...), nil
}

// persistResults writes the ranked output and optionally verifies it
// against the remote check endpoint.
func (s *Service) persistResults(ctx context.Context, results []model.ScoredRecord) error {
	if err := s.store.SaveResults(ctx, results); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	if s.verifyRemote {
		verdict, err := s.fetcher.CheckTopKSort(ctx, results)
		if err != nil {
			return fmt.Errorf("remote top-k check: %w", err)
		}
		s.log.Info(ctx, "remote top-k verdict", logger.String("verdict", verdict))
	}
	return nil
}

// Stats returns pipeline counters for observability.
func (s *Service) Stats() map[string]int64 {
	return map[string]int64{
		"fetched":   s.fetched.Load(),
		"filtered":  s.filtered.Load(),
		"deduped":   s.deduped.Load(),
		"offered":   s.offered.Load(),
		"admitted":  s.admitted.Load(),
		"evicted":   s.evicted.Load(),
		"discarded": s.discarded.Load(),
	}
}
