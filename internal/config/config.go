// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the dataset API root.
	BaseURL string `koanf:"base_url"`

	// DatasetDir receives raw dataset pages.
	DatasetDir string `koanf:"dataset_dir"`

	// CleanDir receives per-page cleaned records.
	CleanDir string `koanf:"clean_dir"`

	// ValidatedDir receives the combined validated set.
	ValidatedDir string `koanf:"validated_dir"`

	// OutputDir receives the ranked results.
	OutputDir string `koanf:"output_dir"`

	// TopK bounds the candidate set.
	TopK int `koanf:"top_k"`

	// WorkerCount sets the number of shard selectors. The reference
	// pipeline is single-threaded, so the default is 1.
	WorkerCount int `koanf:"worker_count"`

	// PipeSize bounds the in-memory record pipe.
	PipeSize int `koanf:"pipe_size"`

	// PageDelayMS spaces page requests to respect API rate limits.
	PageDelayMS int `koanf:"page_delay_ms"`

	// DedupeIDs enables cross-page record-id deduplication.
	DedupeIDs bool `koanf:"dedupe_ids"`

	// DedupeSize bounds the id cache when DedupeIDs is enabled.
	DedupeSize int `koanf:"dedupe_size"`

	// VerifyRemote posts artifacts to the API's check endpoints.
	VerifyRemote bool `koanf:"verify_remote"`

	// MetricsAddr exposes /metrics for the duration of the run.
	// Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		BaseURL:      "https://u8whitimu7.execute-api.ap-southeast-1.amazonaws.com/prod",
		DatasetDir:   "datasets",
		CleanDir:     "clean",
		ValidatedDir: "validated",
		OutputDir:    ".",
		TopK:         10,
		WorkerCount:  1,
		PipeSize:     10_000,
		PageDelayMS:  10_000,
		DedupeIDs:    false,
		DedupeSize:   50_000,
		VerifyRemote: false,
		MetricsAddr:  "",
	}
}
