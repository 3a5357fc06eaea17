package storage

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithDatasetDir sets where raw dataset pages are written.
func WithDatasetDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.datasetDir = dir
		}
	}
}

// WithCleanDir sets where per-page cleaned records are written.
func WithCleanDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.cleanDir = dir
		}
	}
}

// WithValidatedDir sets where the combined validated set is written.
func WithValidatedDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.validatedDir = dir
		}
	}
}

// WithOutputDir sets where the ranked results are written.
func WithOutputDir(dir string) Option {
	return func(s *FileStore) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}
