package config

import "time"

// Default values for configuration fields.
const (
	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsNamespace = "mercator"
	DefaultMetricsSubsystem = "threadstats"
	DefaultMetricsMaxSeries = 10000
	DefaultReportSchedule   = "@every 30s"

	// Collection defaults
	DefaultCollectionVerbosity = VerbosityBasic

	// Worker defaults
	DefaultWorkersQueueFactor   = 100
	DefaultWorkersStage         = "worker"
	DefaultWorkersRatePerSecond = 100.0
	DefaultWorkersBatchSize     = 1
	DefaultWorkersJobDuration   = 2 * time.Millisecond
)

// Collection verbosity levels.
const (
	// VerbosityBasic keeps per-thread metrics in log-only mode.
	VerbosityBasic = "basic"

	// VerbosityDetailed persists per-thread metrics in the registry.
	VerbosityDetailed = "detailed"
)

// ReportScheduleOff disables the periodic metric report.
const ReportScheduleOff = "off"

// Unlimited disables a numeric cap such as telemetry.metrics.max_series or
// workers.rate_per_second. Zero means "use the default" for those fields.
const Unlimited = -1

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if cfg.Telemetry.Metrics.MaxSeries == 0 {
		cfg.Telemetry.Metrics.MaxSeries = DefaultMetricsMaxSeries
	}
	if cfg.Telemetry.Report.Schedule == "" {
		cfg.Telemetry.Report.Schedule = DefaultReportSchedule
	}

	// Collection defaults
	if cfg.Collection.Verbosity == "" {
		cfg.Collection.Verbosity = DefaultCollectionVerbosity
	}

	// Worker defaults. Count stays zero so the pool sizes itself from the CPU count.
	if cfg.Workers.QueueFactor == 0 {
		cfg.Workers.QueueFactor = DefaultWorkersQueueFactor
	}
	if cfg.Workers.Stage == "" {
		cfg.Workers.Stage = DefaultWorkersStage
	}
	if cfg.Workers.RatePerSecond == 0 {
		cfg.Workers.RatePerSecond = DefaultWorkersRatePerSecond
	}
	if cfg.Workers.BatchSize == 0 {
		cfg.Workers.BatchSize = DefaultWorkersBatchSize
	}
	if cfg.Workers.JobDuration == 0 {
		cfg.Workers.JobDuration = DefaultWorkersJobDuration
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
