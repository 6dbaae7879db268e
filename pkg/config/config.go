package config

import "time"

// Config is the root configuration structure for threadstats.
// It contains the telemetry settings, the collection policy for per-thread
// trackers, and the worker pool used by the run command.
type Config struct {
	// Telemetry contains configuration for logging, the metric registry,
	// and periodic log reporting.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Collection controls how per-thread trackers store their values and
	// when measurement begins.
	Collection CollectionConfig `yaml:"collection"`

	// Workers contains configuration for the tracked worker pool and the
	// synthetic load that drives it.
	Workers WorkersConfig `yaml:"workers"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metric registry configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Report contains periodic reporting configuration.
	Report ReportConfig `yaml:"report"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metric registry configuration.
type MetricsConfig struct {
	// Namespace is the metric name prefix.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "threadstats"
	Subsystem string `yaml:"subsystem"`

	// MaxSeries caps the number of persisted series. Handles registered
	// beyond the cap are kept in log-only mode. -1 disables the cap.
	// Default: 10000
	MaxSeries int `yaml:"max_series"`
}

// ReportConfig contains configuration for the periodic metric report.
type ReportConfig struct {
	// Schedule is a cron expression (standard or descriptor form such as
	// "@every 30s"). "off" disables periodic reports.
	// Default: "@every 30s"
	Schedule string `yaml:"schedule"`
}

// CollectionConfig controls tracker storage and activation.
type CollectionConfig struct {
	// Verbosity selects the storage mode of per-thread metrics.
	// Options: "basic" (log only), "detailed" (persisted in the registry)
	// Aggregate metrics are always persisted.
	// Default: "basic"
	Verbosity string `yaml:"verbosity"`

	// ActivateOnStart turns collection on at startup instead of waiting for
	// the first submitted job.
	// Default: false
	ActivateOnStart bool `yaml:"activate_on_start"`
}

// WorkersConfig contains configuration for the tracked worker pool.
type WorkersConfig struct {
	// Count is the number of worker goroutines, each locked to its own OS
	// thread. Zero means runtime.NumCPU().
	// Default: 0
	Count int `yaml:"count"`

	// QueueFactor sizes the job queue as Count * QueueFactor.
	// Default: 100
	QueueFactor int `yaml:"queue_factor"`

	// Stage names the worker group. Threads are named "<stage>-<index>".
	// Default: "worker"
	Stage string `yaml:"stage"`

	// RatePerSecond paces the synthetic load generator. -1 submits as fast
	// as the queue accepts jobs.
	// Default: 100
	RatePerSecond float64 `yaml:"rate_per_second"`

	// BatchSize is the maximum number of items handled by one synthetic job.
	// Default: 1
	BatchSize int `yaml:"batch_size"`

	// JobDuration is the CPU time each synthetic item spins for.
	// Default: 2ms
	JobDuration time.Duration `yaml:"job_duration"`
}
