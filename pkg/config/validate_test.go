package config

import (
	"strings"
	"testing"
)

func TestValidate_DefaultConfig(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("expected default config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		wantError  bool
		errorField string
	}{
		{
			name:   "valid detailed verbosity",
			mutate: func(c *Config) { c.Collection.Verbosity = VerbosityDetailed },
		},
		{
			name:       "unknown verbosity",
			mutate:     func(c *Config) { c.Collection.Verbosity = "loud" },
			wantError:  true,
			errorField: "collection.verbosity",
		},
		{
			name:       "unknown log level",
			mutate:     func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantError:  true,
			errorField: "telemetry.logging.level",
		},
		{
			name:       "unknown log format",
			mutate:     func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			wantError:  true,
			errorField: "telemetry.logging.format",
		},
		{
			name:   "console log format",
			mutate: func(c *Config) { c.Telemetry.Logging.Format = "console" },
		},
		{
			name:       "negative max series",
			mutate:     func(c *Config) { c.Telemetry.Metrics.MaxSeries = -2 },
			wantError:  true,
			errorField: "telemetry.metrics.max_series",
		},
		{
			name:   "unlimited max series",
			mutate: func(c *Config) { c.Telemetry.Metrics.MaxSeries = Unlimited },
		},
		{
			name:       "invalid cron schedule",
			mutate:     func(c *Config) { c.Telemetry.Report.Schedule = "every now and then" },
			wantError:  true,
			errorField: "telemetry.report.schedule",
		},
		{
			name:   "standard cron schedule",
			mutate: func(c *Config) { c.Telemetry.Report.Schedule = "*/5 * * * *" },
		},
		{
			name:   "reports disabled",
			mutate: func(c *Config) { c.Telemetry.Report.Schedule = ReportScheduleOff },
		},
		{
			name:       "negative worker count",
			mutate:     func(c *Config) { c.Workers.Count = -2 },
			wantError:  true,
			errorField: "workers.count",
		},
		{
			name:       "empty stage",
			mutate:     func(c *Config) { c.Workers.Stage = "" },
			wantError:  true,
			errorField: "workers.stage",
		},
		{
			name:       "negative rate",
			mutate:     func(c *Config) { c.Workers.RatePerSecond = -0.5 },
			wantError:  true,
			errorField: "workers.rate_per_second",
		},
		{
			name:   "unlimited rate",
			mutate: func(c *Config) { c.Workers.RatePerSecond = Unlimited },
		},
		{
			name:       "negative job duration",
			mutate:     func(c *Config) { c.Workers.JobDuration = -1 },
			wantError:  true,
			errorField: "workers.job_duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantError && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantError && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
			if !tt.wantError {
				return
			}

			validationErr, ok := err.(ValidationError)
			if !ok {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range validationErr.Errors {
				if fe.Field == tt.errorField {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.errorField, validationErr.Errors)
			}
		})
	}
}

func TestFieldError_Error(t *testing.T) {
	fe := FieldError{Field: "workers.count", Message: "worker count must be non-negative"}

	want := "workers.count: worker count must be non-negative"
	if fe.Error() != want {
		t.Errorf("expected %q, got %q", want, fe.Error())
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if first.Telemetry != cfg.Telemetry || first.Collection != cfg.Collection || first.Workers != cfg.Workers {
		t.Error("expected second ApplyDefaults call to be a no-op")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Collection: CollectionConfig{Verbosity: VerbosityDetailed},
		Workers:    WorkersConfig{Stage: "encode", BatchSize: 8},
	}
	ApplyDefaults(cfg)

	if cfg.Collection.Verbosity != VerbosityDetailed {
		t.Errorf("expected verbosity %q, got %q", VerbosityDetailed, cfg.Collection.Verbosity)
	}
	if cfg.Workers.Stage != "encode" {
		t.Errorf("expected stage %q, got %q", "encode", cfg.Workers.Stage)
	}
	if cfg.Workers.BatchSize != 8 {
		t.Errorf("expected batch size 8, got %d", cfg.Workers.BatchSize)
	}
	if cfg.Workers.Count != 0 {
		t.Errorf("expected worker count to stay 0, got %d", cfg.Workers.Count)
	}
}
