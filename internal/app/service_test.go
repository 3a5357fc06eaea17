package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/okian/savor/internal/adapters/fetch"
	"github.com/okian/savor/internal/adapters/storage"
	app "github.com/okian/savor/internal/app"
	"github.com/okian/savor/internal/domain/model"
	"github.com/okian/savor/internal/domain/rank"
	"github.com/okian/savor/internal/domain/scoring"
	"github.com/okian/savor/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

// fakeIngestor replays canned pages and records check calls.
type fakeIngestor struct {
	pages   [][]model.Raw
	runErr  error
	checked struct {
		validation bool
		topk       bool
	}
}

func (f *fakeIngestor) Run(ctx context.Context, fn fetch.PageFunc) error {
	if f.runErr != nil {
		return f.runErr
	}
	for i, page := range f.pages {
		if err := fn(ctx, fmt.Sprintf("page_%d.json", i), page); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeIngestor) CheckDataValidation(context.Context, []model.Record) (string, error) {
	f.checked.validation = true
	return `{"result":"pass"}`, nil
}

func (f *fakeIngestor) CheckTopKSort(context.Context, []model.ScoredRecord) (string, error) {
	f.checked.topk = true
	return `{"result":"pass"}`, nil
}

// memStore keeps every artifact in memory.
type memStore struct {
	mu        sync.Mutex
	datasets  map[string][]byte
	clean     map[string][]model.Record
	validated []model.Record
	hasValid  bool
	results   []model.ScoredRecord
}

func newMemStore() *memStore {
	return &memStore{
		datasets: map[string][]byte{},
		clean:    map[string][]model.Record{},
	}
}

func (m *memStore) SaveDataset(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[name] = data
	return nil
}

func (m *memStore) SaveClean(_ context.Context, name string, records []model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clean[name] = records
	return nil
}

func (m *memStore) SaveValidated(_ context.Context, records []model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validated = records
	m.hasValid = true
	return nil
}

func (m *memStore) LoadValidated(context.Context) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasValid {
		return nil, storage.ErrNotFound
	}
	return m.validated, nil
}

func (m *memStore) SaveResults(_ context.Context, results []model.ScoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = results
	return nil
}

// raw builds a valid raw record.
func raw(id int64, name string, rating, distance float64) model.Raw {
	return model.Raw{
		"id":               float64(id),
		"restaurant_name":  name,
		"rating":           rating,
		"distance_from_me": distance,
	}
}

// oracle computes the expected top-k by full sort and truncate.
func oracle(k int, recs []model.Record) []model.ScoredRecord {
	stamped := make([]model.ScoredRecord, len(recs))
	for i, r := range recs {
		stamped[i] = scoring.Stamp(r)
	}
	sort.SliceStable(stamped, func(i, j int) bool {
		return rank.Compare(stamped[i], stamped[j]) > 0
	})
	if len(stamped) > k {
		stamped = stamped[:k]
	}
	return stamped
}

func testPages() [][]model.Raw {
	pageOne := []model.Raw{
		raw(1, "Apple", 8.0, 50.0),
		raw(2, "Banana", 3.5, 400.0),
		{"id": 2.5, "restaurant_name": "Fractional", "rating": 5.0, "distance_from_me": 100.0},
		raw(3, "Cherry", 9.9, 12.0),
	}
	pageTwo := []model.Raw{
		raw(4, "Durian", 1.0, 1000.0),
		{"id": float64(5), "restaurant_name": "Bad1Name", "rating": 5.0, "distance_from_me": 100.0},
		raw(6, "Elderberry", 7.2, 88.0),
		raw(7, "Fig", 6.6, 240.0),
	}
	return [][]model.Raw{pageOne, pageTwo}
}

// validRecords mirrors testPages minus the two invalid entries.
func validRecords() []model.Record {
	return []model.Record{
		{ID: 1, Name: "Apple", Rating: 8.0, Distance: 50.0},
		{ID: 2, Name: "Banana", Rating: 3.5, Distance: 400.0},
		{ID: 3, Name: "Cherry", Rating: 9.9, Distance: 12.0},
		{ID: 4, Name: "Durian", Rating: 1.0, Distance: 1000.0},
		{ID: 6, Name: "Elderberry", Rating: 7.2, Distance: 88.0},
		{ID: 7, Name: "Fig", Rating: 6.6, Distance: 240.0},
	}
}

func TestServiceRun(t *testing.T) {
	Convey("Given a pipeline over two pages with invalid records", t, func() {
		ingestor := &fakeIngestor{pages: testPages()}
		store := newMemStore()
		svc := app.New(ingestor, store, app.WithTopK(3))

		Convey("When the full pipeline runs", func() {
			err := svc.Run(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the validated set excludes filtered records", func() {
				So(store.validated, ShouldResemble, validRecords())
			})

			Convey("And each page's clean file was written", func() {
				So(store.clean, ShouldHaveLength, 2)
				So(store.clean["page_0.json"], ShouldHaveLength, 3)
				So(store.clean["page_1.json"], ShouldHaveLength, 3)
			})

			Convey("And the results are the top-K best-first", func() {
				So(store.results, ShouldResemble, oracle(3, validRecords()))
			})

			Convey("And the counters add up", func() {
				stats := svc.Stats()
				So(stats["fetched"], ShouldEqual, 8)
				So(stats["filtered"], ShouldEqual, 2)
				So(stats["offered"], ShouldEqual, 6)
				So(stats["admitted"]-stats["evicted"], ShouldEqual, 3)
			})

			Convey("And remote checks were not called by default", func() {
				So(ingestor.checked.validation, ShouldBeFalse)
				So(ingestor.checked.topk, ShouldBeFalse)
			})
		})

		Convey("When remote verification is enabled", func() {
			svc := app.New(ingestor, store, app.WithTopK(3), app.WithVerifyRemote(true))
			So(svc.Run(context.Background()), ShouldBeNil)

			Convey("Then both check endpoints were exercised", func() {
				So(ingestor.checked.validation, ShouldBeTrue)
				So(ingestor.checked.topk, ShouldBeTrue)
			})
		})

		Convey("When ingestion fails", func() {
			bad := &fakeIngestor{runErr: fmt.Errorf("network down")}
			svc := app.New(bad, newMemStore())

			Convey("Then the run surfaces the error", func() {
				So(svc.Run(context.Background()), ShouldNotBeNil)
			})
		})
	})

	Convey("Given duplicate record ids across pages", t, func() {
		dup := [][]model.Raw{
			{raw(1, "Apple", 8.0, 50.0), raw(2, "Banana", 6.0, 100.0)},
			{raw(1, "Apple", 8.0, 50.0)},
		}

		Convey("By default duplicates rank independently", func() {
			store := newMemStore()
			svc := app.New(&fakeIngestor{pages: dup}, store)
			So(svc.Run(context.Background()), ShouldBeNil)

			So(store.validated, ShouldHaveLength, 3)
			So(store.results, ShouldHaveLength, 3)
		})

		Convey("With dedupe enabled the repeated id is dropped", func() {
			store := newMemStore()
			svc := app.New(&fakeIngestor{pages: dup}, store, app.WithDedupe(100))
			So(svc.Run(context.Background()), ShouldBeNil)

			So(store.validated, ShouldHaveLength, 2)
			So(store.results, ShouldHaveLength, 2)
			So(svc.Stats()["deduped"], ShouldEqual, 1)
		})
	})

	Convey("Given parallel shard selection", t, func() {
		pages := make([][]model.Raw, 10)
		for p := range pages {
			page := make([]model.Raw, 30)
			for i := range page {
				id := int64(p*30 + i)
				page[i] = raw(id, "Restaurant", 1+float64(id%90)/10, 10+float64(id%900))
			}
			pages[p] = page
		}

		run := func(workers int) []model.ScoredRecord {
			store := newMemStore()
			svc := app.New(&fakeIngestor{pages: pages}, store,
				app.WithTopK(10),
				app.WithWorkerCount(workers),
			)
			So(svc.Run(context.Background()), ShouldBeNil)
			return store.results
		}

		Convey("Then sharded selection matches the single-threaded result", func() {
			So(run(4), ShouldResemble, run(1))
		})
	})
}

func TestServiceFetchAndRank(t *testing.T) {
	Convey("Given the two-stage flow", t, func() {
		ingestor := &fakeIngestor{pages: testPages()}
		store := newMemStore()

		Convey("When fetch runs alone", func() {
			svc := app.New(ingestor, store)
			So(svc.Fetch(context.Background()), ShouldBeNil)

			Convey("Then the validated set is persisted and no results exist", func() {
				So(store.validated, ShouldResemble, validRecords())
				So(store.results, ShouldBeNil)
			})

			Convey("And rank picks up where fetch left off", func() {
				ranker := app.New(ingestor, store, app.WithTopK(3))
				So(ranker.Rank(context.Background()), ShouldBeNil)
				So(store.results, ShouldResemble, oracle(3, validRecords()))
			})
		})

		Convey("When rank runs without a fetched set", func() {
			svc := app.New(ingestor, newMemStore())

			Convey("Then it fails with the storage error", func() {
				So(svc.Rank(context.Background()), ShouldNotBeNil)
			})
		})
	})
}
