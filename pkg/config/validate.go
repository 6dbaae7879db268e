package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "workers.count").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateCollection(&cfg.Collection)...)
	errs = append(errs, validateWorkers(&cfg.Workers)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "metrics namespace is required",
		})
	}
	if cfg.Metrics.MaxSeries < 0 && cfg.Metrics.MaxSeries != Unlimited {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.max_series",
			Message: "max series must be non-negative, or -1 for no limit",
		})
	}

	if schedule := cfg.Report.Schedule; schedule != "" && schedule != ReportScheduleOff {
		if _, err := cron.ParseStandard(schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.report.schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", schedule, err),
			})
		}
	}

	return errs
}

func validateCollection(cfg *CollectionConfig) []FieldError {
	var errs []FieldError

	switch cfg.Verbosity {
	case VerbosityBasic, VerbosityDetailed:
	case "":
		errs = append(errs, FieldError{
			Field:   "collection.verbosity",
			Message: "verbosity is required",
		})
	default:
		errs = append(errs, FieldError{
			Field:   "collection.verbosity",
			Message: fmt.Sprintf("invalid verbosity %q: must be 'basic' or 'detailed'", cfg.Verbosity),
		})
	}

	return errs
}

func validateWorkers(cfg *WorkersConfig) []FieldError {
	var errs []FieldError

	if cfg.Count < 0 {
		errs = append(errs, FieldError{
			Field:   "workers.count",
			Message: "worker count must be non-negative",
		})
	}
	if cfg.QueueFactor < 0 {
		errs = append(errs, FieldError{
			Field:   "workers.queue_factor",
			Message: "queue factor must be non-negative",
		})
	}
	if cfg.Stage == "" {
		errs = append(errs, FieldError{
			Field:   "workers.stage",
			Message: "stage name is required",
		})
	}
	if cfg.RatePerSecond < 0 && cfg.RatePerSecond != Unlimited {
		errs = append(errs, FieldError{
			Field:   "workers.rate_per_second",
			Message: "rate must be non-negative, or -1 for no limit",
		})
	}
	if cfg.BatchSize < 0 {
		errs = append(errs, FieldError{
			Field:   "workers.batch_size",
			Message: "batch size must be non-negative",
		})
	}
	if cfg.JobDuration < 0 {
		errs = append(errs, FieldError{
			Field:   "workers.job_duration",
			Message: "job duration must be non-negative",
		})
	}

	return errs
}
