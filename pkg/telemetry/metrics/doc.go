// Package metrics provides the named-metric registry used by threadstats.
//
// # Overview
//
// A Registry stores metrics whose values are produced on demand by a
// function. Each metric is created once with FindOrCreate and identified by
// its fully-qualified name plus const labels; asking again returns the
// existing Handle.
//
// # Storage Modes
//
//   - Persist: the metric is registered as a Prometheus GaugeFunc (or
//     CounterFunc) and can be gathered at any time through Prometheus().
//   - TransientLogOnly: the metric is kept out of Prometheus. Its producer
//     runs only when the registry is logged or snapshotted.
//
// # Usage
//
//	r := metrics.NewRegistry(&cfg.Telemetry.Metrics, prometheus.NewRegistry(), logger)
//
//	h := r.FindOrCreate(metrics.Opts{
//		Name:        "thread_processing_wall_seconds",
//		Help:        "Wall-clock time spent processing",
//		ConstLabels: prometheus.Labels{"thread": "decode-0"},
//	}, tracker.ProcessingWallSeconds, metrics.Persist)
//
//	r.Log(ctx, logger, slog.LevelInfo)
//
// # Cardinality Management
//
// Labelled Persist series are admitted by a CardinalityLimiter capped at
// MetricsConfig.MaxSeries. Series beyond the cap stay log-only and a warning
// is logged. Unlabelled series (the cross-thread aggregates) are never capped.
package metrics
