// Package storage implements the persistence collaborator: dataset pages,
// cleaned pages, the combined validated set, and the ranked results are all
// written as indented JSON files.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/savor/internal/domain/model"
)

// Well-known artifact filenames.
const (
	ValidatedFile = "validated_dataset.json"
	ResultsFile   = "topk_results.json"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store persists pipeline artifacts.
type Store interface {
	// SaveDataset writes one raw dataset page verbatim.
	SaveDataset(ctx context.Context, name string, data []byte) error

	// SaveClean writes the validated records of one page.
	SaveClean(ctx context.Context, name string, records []model.Record) error

	// SaveValidated writes the combined validated set.
	SaveValidated(ctx context.Context, records []model.Record) error

	// LoadValidated reads back a previously written validated set.
	LoadValidated(ctx context.Context) ([]model.Record, error)

	// SaveResults writes the ranked top-K output.
	SaveResults(ctx context.Context, results []model.ScoredRecord) error
}

// FileStore implements Store on the local filesystem.
type FileStore struct {
	datasetDir   string
	cleanDir     string
	validatedDir string
	outputDir    string
}

// NewFileStore creates a FileStore with configuration options.
func NewFileStore(opts ...Option) *FileStore {
	s := &FileStore{
		datasetDir:   "datasets",
		cleanDir:     "clean",
		validatedDir: "validated",
		outputDir:    ".",
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SaveDataset writes one raw dataset page verbatim.
func (s *FileStore) SaveDataset(_ context.Context, name string, data []byte) error {
	return writeFile(filepath.Join(s.datasetDir, filepath.Base(name)), data)
}

// SaveClean writes the validated records of one page.
func (s *FileStore) SaveClean(_ context.Context, name string, records []model.Record) error {
	return writeJSON(filepath.Join(s.cleanDir, filepath.Base(name)), records)
}

// SaveValidated writes the combined validated set.
func (s *FileStore) SaveValidated(_ context.Context, records []model.Record) error {
	return writeJSON(filepath.Join(s.validatedDir, ValidatedFile), records)
}

// LoadValidated reads back a previously written validated set.
func (s *FileStore) LoadValidated(_ context.Context) ([]model.Record, error) {
	path := filepath.Join(s.validatedDir, ValidatedFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// SaveResults writes the ranked top-K output.
func (s *FileStore) SaveResults(_ context.Context, results []model.ScoredRecord) error {
	return writeJSON(filepath.Join(s.outputDir, ResultsFile), results)
}

// ResultsPath returns where SaveResults writes.
func (s *FileStore) ResultsPath() string {
	return filepath.Join(s.outputDir, ResultsFile)
}

// writeJSON marshals v with four-space indentation and writes it to path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFile(path, data)
}

// writeFile creates the parent directory on demand and writes data.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
