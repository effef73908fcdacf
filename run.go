package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"uuid-bench/bench"
	"uuid-bench/config"
	"uuid-bench/keygen"
	"uuid-bench/lite"
	"uuid-bench/my"
	"uuid-bench/pg"
	"uuid-bench/results"
	"uuid-bench/store"
	"uuid-bench/upload"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the benchmark",
	Long: `Create an ephemeral database, run every configured key generation
variant run-count times and print the median of every measurement.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.String("engine", config.DefaultDriver, "engine under test (postgres, mysql, sqlite)")
	f.Int("insert-count", bench.DefaultInsertCount, "rows inserted per trial")
	f.Int("run-count", bench.DefaultRunCount, "trials per variant")
	f.String("table-size", "narrow", "table profile (narrow|small, wide|big)")
	f.Bool("batch", false, "insert in multi-row batches instead of row by row")
	f.Int("batch-size", bench.DefaultBatchSize, "rows per batch statement")
	f.StringSlice("variants", keygen.DefaultVariants,
		"key generation variants (comma-separated or repeated flag)")
	f.Int64("seed", 0, "seed for synthetic data and sampling (0 picks one from the clock)")
	f.Bool("cleanup-on-start", false, "drop a benchmark database left by an earlier run")
	f.String("results-dir", "", "directory for the JSON result file (empty disables it)")

	for flag, key := range map[string]string{
		"engine":           "engine.driver",
		"insert-count":     "benchmark.insert_count",
		"run-count":        "benchmark.run_count",
		"table-size":       "benchmark.table_size",
		"batch":            "benchmark.batch",
		"batch-size":       "benchmark.batch_size",
		"variants":         "benchmark.variants",
		"seed":             "benchmark.seed",
		"cleanup-on-start": "benchmark.cleanup_on_start",
		"results-dir":      "results.dir",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	session, err := newSession(cfg)
	if err != nil {
		return err
	}
	session.Out = cmd.OutOrStdout()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var uploader upload.Uploader
	if cfg.Results.Upload.S3.Enabled {
		uploader = upload.NewS3Uploader(log, &cfg.Results.Upload.S3)
		if err := uploader.Preflight(ctx); err != nil {
			return fmt.Errorf("%w: s3 preflight: %w", bench.ErrConfiguration, err)
		}
	}

	var history store.Store
	if cfg.Results.Store.Driver != "" {
		history = store.NewStore(log, &cfg.Results.Store)
		if err := history.Start(ctx); err != nil {
			return fmt.Errorf("starting result store: %w", err)
		}
		defer func() {
			if err := history.Stop(); err != nil {
				log.WithError(err).Warn("Failed to close result store")
			}
		}()
	}

	report, err := session.Launch(ctx)
	if err != nil {
		return err
	}

	return persist(ctx, cfg, report, history, uploader)
}

// newSession builds the session for the configured engine.
func newSession(cfg *config.Config) (*bench.Session, error) {
	engine, err := newEngine(cfg)
	if err != nil {
		return nil, err
	}

	profile, err := bench.ParseProfile(cfg.Benchmark.TableSize)
	if err != nil {
		return nil, err
	}

	variants, err := keygen.Variants(cfg.Benchmark.Variants, engine.Name())
	if err != nil {
		return nil, err
	}

	seed := cfg.Benchmark.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	b := cfg.Benchmark
	log.WithFields(logrus.Fields{
		"engine":   engine.Name(),
		"profile":  profile.Name(),
		"strategy": cfg.Strategy().String(),
		"seed":     seed,
	}).Debug("Session configured")

	return &bench.Session{
		Engine:          engine,
		Database:        b.Database,
		Table:           b.Table,
		Profile:         profile,
		Strategy:        cfg.Strategy(),
		InsertCount:     b.InsertCount,
		RunCount:        b.RunCount,
		BatchSize:       b.BatchSize,
		SampleEvery:     b.SampleEvery,
		SampleLimit:     b.SampleLimit,
		Cooldown:        b.Cooldown,
		SteadyTolerance: b.SteadyStateTolerance,
		CleanupOnStart:  b.CleanupOnStart,
		Seed:            seed,
		Variants:        variants,
		Log:             log,
	}, nil
}

func newEngine(cfg *config.Config) (bench.Engine, error) {
	switch cfg.Engine.Driver {
	case "postgres":
		return pg.New(cfg.ConnConfig(), log), nil
	case "mysql":
		return my.New(cfg.ConnConfig(), log), nil
	case "sqlite":
		return lite.New(cfg.Engine.SQLiteDir, log), nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", bench.ErrConfiguration, cfg.Engine.Driver)
	}
}

// persist writes, records and uploads a finished report. The session has
// already succeeded, so failures here are reported but the measurements on
// screen stay valid.
func persist(
	ctx context.Context,
	cfg *config.Config,
	report *bench.Report,
	history store.Store,
	uploader upload.Uploader,
) error {
	var path string
	if cfg.Results.Dir != "" {
		p, err := results.Write(cfg.Results.Dir, report)
		if err != nil {
			return err
		}
		path = p

		abs, _ := filepath.Abs(path)
		log.WithField("path", abs).Info("Result file written")
	}

	if history != nil {
		if _, err := history.SaveReport(ctx, report); err != nil {
			return err
		}
	}

	if uploader != nil && path != "" {
		if _, err := uploader.UploadFile(ctx, path); err != nil {
			return fmt.Errorf("uploading result file: %w", err)
		}
	}

	return nil
}
