// Package telemetry groups the observability packages of threadstats.
//
// # Components
//
//   - logging: structured slog logging with level, format and context fields
//   - metrics: named, labelled metric handles on an injected Prometheus
//     registry, with log-only storage and a series limit
//   - reporter: cron-scheduled reports of thread statistics and stage analysis
//
// # Usage
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json"})
//	slog.SetDefault(logger.Slog())
//
//	m := metrics.NewRegistry(&cfg.Telemetry.Metrics, prometheus.NewRegistry(), logger.Slog())
//	stats := threadstats.NewRegistry(m, threadstats.Options{})
//
//	reports := reporter.NewScheduler(&cfg.Telemetry.Report, stats, nil)
//	_ = reports.Start(ctx)
//	defer reports.Stop()
package telemetry
