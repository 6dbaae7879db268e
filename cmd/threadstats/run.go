package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mercator-hq/threadstats/pkg/cli"
	"mercator-hq/threadstats/pkg/config"
	"mercator-hq/threadstats/pkg/stageanalysis"
	"mercator-hq/threadstats/pkg/telemetry/logging"
	"mercator-hq/threadstats/pkg/telemetry/metrics"
	"mercator-hq/threadstats/pkg/telemetry/reporter"
	"mercator-hq/threadstats/pkg/threadstats"
	"mercator-hq/threadstats/pkg/workerpool"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var runFlags struct {
	logLevel string
	workers  int
	duration time.Duration
	output   string
	progress bool
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a tracked worker pool under synthetic load",
	Long: `Start a worker pool whose threads are measured by threadstats trackers and
feed it synthetic CPU-bound jobs at the configured rate.

Collection starts when the first job is submitted, or immediately with
collection.activate_on_start. Reports are logged on telemetry.report.schedule
and once more on shutdown, followed by a summary on stdout.

Examples:
  # Run with built-in defaults until Ctrl+C
  threadstats run

  # Run with custom config for 30 seconds
  threadstats run --config /etc/threadstats/config.yaml --duration 30s

  # Override worker count and print CSV
  threadstats run --workers 8 --duration 10s --output csv

  # Validate config without starting workers
  threadstats run --dry-run`,
	RunE: runThreadstats,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().IntVarP(&runFlags.workers, "workers", "w", 0, "override worker count")
	runCmd.Flags().DurationVarP(&runFlags.duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	runCmd.Flags().StringVarP(&runFlags.output, "output", "o", "text", "summary format: text, json, csv")
	runCmd.Flags().BoolVar(&runFlags.progress, "progress", false, "show a progress bar on stderr (requires --duration)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting workers")
}

// loadConfiguration reads path, or builds defaults when path is empty, and
// stores the result as the global configuration.
func loadConfiguration(path string) (*config.Config, error) {
	if path == "" {
		cfg, err := config.LoadDefaultsWithEnvOverrides()
		if err != nil {
			return nil, err
		}
		config.SetConfig(cfg)
		return cfg, nil
	}

	if err := config.Initialize(path); err != nil {
		return nil, err
	}
	return config.GetConfig(), nil
}

func runThreadstats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfiguration(cfgFile)
	if err != nil {
		return cli.NewConfigError("config", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	} else if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.workers > 0 {
		cfg.Workers.Count = runFlags.workers
	}

	format, err := cli.ParseOutputFormat(runFlags.output)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    os.Stderr,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	if runFlags.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, runFlags.duration)
		defer cancel()
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())

	metricsRegistry := metrics.NewRegistry(&cfg.Telemetry.Metrics, promRegistry, logger.Slog())
	stats := threadstats.NewRegistry(metricsRegistry, threadstats.Options{Logger: logger.Slog()})
	analyzer := stageanalysis.NewAnalyzer(stats)

	if cfg.Collection.ActivateOnStart {
		stats.ActivateCollection()
	}

	pool := workerpool.NewPool(stats, workerpool.PoolConfig{
		NumWorkers:       cfg.Workers.Count,
		QueueFactor:      cfg.Workers.QueueFactor,
		Stage:            cfg.Workers.Stage,
		Verbosity:        cfg.Collection.Verbosity,
		ActivateOnSubmit: true,
	})
	pool.Start(ctx)

	reports := reporter.NewScheduler(&cfg.Telemetry.Report, stats, analyzer)
	if err := reports.Start(ctx); err != nil {
		pool.Stop()
		return cli.NewConfigError("telemetry.report.schedule", err.Error())
	}
	defer reports.Stop()

	if cfgFile != "" {
		startConfigWatcher(ctx, cfgFile, cfg, logger)
	}

	logger.Info("threadstats running",
		"workers", pool.NumWorkers(),
		"stage", cfg.Workers.Stage,
		"verbosity", cfg.Collection.Verbosity,
		"rate_per_second", cfg.Workers.RatePerSecond,
		"duration", runFlags.duration,
	)

	var progressDone chan struct{}
	if runFlags.progress && runFlags.duration > 0 && cfg.Workers.RatePerSecond > 0 {
		progressDone = startProgress(ctx, pool, int64(cfg.Workers.RatePerSecond*runFlags.duration.Seconds()))
	}

	gen := newLoadGenerator(pool, cfg.Workers)
	submitted, dropped := gen.Run(ctx)

	pool.Stop()
	if progressDone != nil {
		<-progressDone
	}

	logger.Info("load finished", "submitted", submitted, "dropped", dropped)
	reports.RunOnce(context.Background())

	summary := buildSummary(stats, analyzer, submitted, dropped)
	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), summary); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// startConfigWatcher applies log level changes from the config file.
// Collection verbosity is read when trackers are built, so a new value only
// affects the next run.
func startConfigWatcher(ctx context.Context, path string, current *config.Config, logger *logging.Logger) {
	watcher, err := config.NewWatcher(path, config.DefaultDebounceInterval, logger.Slog())
	if err != nil {
		logger.Warn("config watcher disabled", "error", err)
		return
	}

	verbosity := current.Collection.Verbosity
	go func() {
		defer watcher.Stop()
		err := watcher.Watch(ctx, func(cfg *config.Config) {
			if err := logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
				logger.Warn("ignoring reloaded log level", "error", err)
			}
			if cfg.Collection.Verbosity != verbosity {
				logger.Warn("collection verbosity changed, restart to apply",
					"current", verbosity,
					"configured", cfg.Collection.Verbosity,
				)
			}
		})
		if err != nil {
			logger.Warn("config watcher stopped", "error", err)
		}
	}()
}

func startProgress(ctx context.Context, pool *workerpool.Pool, expected int64) chan struct{} {
	done := make(chan struct{})
	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(expected)

	go func() {
		defer close(done)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				progress.Update(int64(pool.Submitted()))
				progress.Finish()
				return
			case <-ticker.C:
				progress.Update(int64(pool.Submitted()))
			}
		}
	}()
	return done
}
