package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/savor/internal/domain/model"
	"github.com/okian/savor/pkg/logger"
	"github.com/okian/savor/pkg/metrics"
)

// defaultPageDelay spaces page requests to stay under the API rate limit.
const defaultPageDelay = 10 * time.Second

// Store persists raw dataset pages as they are downloaded.
type Store interface {
	SaveDataset(ctx context.Context, name string, data []byte) error
}

// PageFunc receives the decoded records of one dataset page.
type PageFunc func(ctx context.Context, name string, records []model.Raw) error

// Fetcher walks the paginated download-dataset endpoint and hands each
// page's records to a callback.
type Fetcher struct {
	client *Client
	store  Store
	delay  time.Duration
	log    logger.Logger
}

// NewFetcher creates a Fetcher with configuration options.
func NewFetcher(client *Client, store Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: client,
		store:  store,
		delay:  defaultPageDelay,
	}

	// Apply all options
	for _, opt := range opts {
		opt(f)
	}

	if f.log == nil {
		f.log = logger.Named("fetch")
	}

	return f
}

// downloadResponse mirrors the /download-dataset payload.
type downloadResponse struct {
	Data struct {
		DatasetURL string `json:"dataset_url"`
		NextID     string `json:"next_id"`
	} `json:"data"`
}

// Run pages through the dataset until the API reports no next page.
// Each page body is persisted verbatim, decoded, and passed to fn.
func (f *Fetcher) Run(ctx context.Context, fn PageFunc) error {
	pageID := ""
	for page := 0; ; page++ {
		f.log.Info(ctx, "downloading dataset page", logger.Int("page", page), logger.String("next_id", pageID))

		nextID, err := f.fetchPage(ctx, pageID, fn)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		metrics.RecordPageFetched()

		if nextID == "" {
			f.log.Info(ctx, "no more dataset pages", logger.Int("pages", page+1))
			return nil
		}
		pageID = nextID

		// Space out requests to avoid hitting rate limits.
		f.log.Debug(ctx, "waiting before next page", logger.Duration("delay", f.delay))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.delay):
		}
	}
}

// fetchPage downloads one page and returns the next page id.
func (f *Fetcher) fetchPage(ctx context.Context, pageID string, fn PageFunc) (string, error) {
	resp, err := f.client.Do(ctx, http.MethodPost, f.client.Endpoint("download-dataset"), map[string]string{
		"next_id": pageID,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFetchError()
		return "", fmt.Errorf("%w: download-dataset returned %d", ErrBadStatus, resp.StatusCode)
	}

	var dl downloadResponse
	if err := json.NewDecoder(resp.Body).Decode(&dl); err != nil {
		return "", fmt.Errorf("%w: decode download response: %w", ErrRequest, err)
	}

	name := datasetName(dl.Data.DatasetURL)
	f.log.Info(ctx, "dataset page located", logger.String("file", name))

	body, err := f.download(ctx, dl.Data.DatasetURL)
	if err != nil {
		return "", err
	}

	if err := f.store.SaveDataset(ctx, name, body); err != nil {
		return "", fmt.Errorf("save dataset %s: %w", name, err)
	}

	var records []model.Raw
	if err := json.Unmarshal(body, &records); err != nil {
		return "", fmt.Errorf("%w: decode dataset %s: %w", ErrRequest, name, err)
	}
	metrics.RecordRecordsFetched(len(records))

	if err := fn(ctx, name, records); err != nil {
		return "", err
	}
	return dl.Data.NextID, nil
}

// download retrieves the dataset body from its (pre-signed) URL.
func (f *Fetcher) download(ctx context.Context, datasetURL string) ([]byte, error) {
	resp, err := f.client.Do(ctx, http.MethodGet, datasetURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordFetchError()
		return nil, fmt.Errorf("%w: dataset download returned %d", ErrBadStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read dataset body: %w", ErrRequest, err)
	}
	return body, nil
}

// datasetName extracts the JSON filename from the dataset URL, falling back
// to a generated name when the URL carries none.
func datasetName(datasetURL string) string {
	if u, err := url.Parse(datasetURL); err == nil {
		if base := path.Base(u.Path); strings.HasSuffix(base, ".json") {
			return base
		}
	}
	return "dataset-" + uuid.NewString() + ".json"
}

// CheckDataValidation posts the validated set to the API's validation
// endpoint and returns its verdict body.
func (f *Fetcher) CheckDataValidation(ctx context.Context, records []model.Record) (string, error) {
	return f.check(ctx, "test/check-data-validation", map[string]any{"Data": records})
}

// CheckTopKSort posts the ranked output to the API's top-k verification
// endpoint and returns its verdict body.
func (f *Fetcher) CheckTopKSort(ctx context.Context, results []model.ScoredRecord) (string, error) {
	return f.check(ctx, "test/check-topk-sort", map[string]any{"data": results})
}

func (f *Fetcher) check(ctx context.Context, endpoint string, payload any) (string, error) {
	resp, err := f.client.Do(ctx, http.MethodPost, f.client.Endpoint(endpoint), payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read %s response: %w", ErrRequest, endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned %d", ErrBadStatus, endpoint, resp.StatusCode)
	}
	return string(body), nil
}
