// Command savor runs the restaurant ranking pipeline: fetch the paginated
// dataset, validate it, select the top-K, and persist the artifacts.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/savor/internal/adapters/fetch"
	"github.com/okian/savor/internal/adapters/storage"
	app "github.com/okian/savor/internal/app"
	"github.com/okian/savor/internal/config"
	"github.com/okian/savor/pkg/logger"
	"github.com/okian/savor/pkg/metrics"
)

// Metrics listener timeout constants.
const (
	metricsReadHeaderTimeout = 5 * time.Second
)

// Flag overrides; zero values defer to config.
var (
	flagTopK         int
	flagWorkers      int
	flagVerifyRemote bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the savor command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "savor",
		Short:        "Fetch, validate, and rank restaurant records",
		SilenceUsage: true,
	}
	root.PersistentFlags().IntVar(&flagTopK, "top-k", 0, "override the candidate-set bound")
	root.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "override the number of shard selectors")
	root.PersistentFlags().BoolVar(&flagVerifyRemote, "verify-remote", false, "post artifacts to the API check endpoints")

	root.AddCommand(
		&cobra.Command{
			Use:   "fetch",
			Short: "Download all dataset pages and write the validated set",
			RunE:  func(cmd *cobra.Command, _ []string) error { return runStage(cmd, stageFetch) },
		},
		&cobra.Command{
			Use:   "rank",
			Short: "Rank a previously fetched validated set",
			RunE:  func(cmd *cobra.Command, _ []string) error { return runStage(cmd, stageRank) },
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run the full pipeline end to end",
			RunE:  func(cmd *cobra.Command, _ []string) error { return runStage(cmd, stageRun) },
		},
	)

	return root
}

type stage int

const (
	stageFetch stage = iota
	stageRank
	stageRun
)

func runStage(cmd *cobra.Command, st stage) error {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return err
	}
	defer logger.Sync() //nolint:errcheck // nothing buffered

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	applyFlagOverrides(cmd, cfg)

	// Optional /metrics listener for the duration of the run.
	if cfg.MetricsAddr != "" {
		startMetricsListener(ctx, log, cfg.MetricsAddr)
	}

	client := fetch.NewClient(cfg.BaseURL)
	store := storage.NewFileStore(
		storage.WithDatasetDir(cfg.DatasetDir),
		storage.WithCleanDir(cfg.CleanDir),
		storage.WithValidatedDir(cfg.ValidatedDir),
		storage.WithOutputDir(cfg.OutputDir),
	)
	fetcher := fetch.NewFetcher(client, store,
		fetch.WithPageDelay(time.Duration(cfg.PageDelayMS)*time.Millisecond),
	)

	opts := []app.Option{
		app.WithLogger(log),
		app.WithTopK(cfg.TopK),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithPipeSize(cfg.PipeSize),
		app.WithVerifyRemote(cfg.VerifyRemote),
	}
	if cfg.DedupeIDs {
		opts = append(opts, app.WithDedupe(cfg.DedupeSize))
	}
	svc := app.New(fetcher, store, opts...)

	switch st {
	case stageFetch:
		err = svc.Fetch(ctx)
	case stageRank:
		err = svc.Rank(ctx)
	case stageRun:
		err = svc.Run(ctx)
	}
	if err != nil {
		log.Error(ctx, "pipeline failed", logger.Error(err))
		return err
	}
	return nil
}

// applyFlagOverrides lets CLI flags win over file/env configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if flagTopK > 0 {
		cfg.TopK = flagTopK
	}
	if flagWorkers > 0 {
		cfg.WorkerCount = flagWorkers
	}
	if cmd.Flags().Changed("verify-remote") {
		cfg.VerifyRemote = flagVerifyRemote
	}
}

// startMetricsListener exposes prometheus metrics while the pipeline runs.
func startMetricsListener(ctx context.Context, log logger.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "metrics listener started", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(ctx, "metrics listener failed", logger.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close() //nolint:errcheck // process is exiting
	}()
}
