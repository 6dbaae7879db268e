package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML bytes and applies defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention THREADSTATS_SECTION_FIELD (e.g., THREADSTATS_WORKERS_COUNT).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadDefaultsWithEnvOverrides builds the configuration without a file:
// built-in defaults plus environment variable overrides, validated.
func LoadDefaultsWithEnvOverrides() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format THREADSTATS_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Telemetry overrides
	if val := os.Getenv("THREADSTATS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("THREADSTATS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("THREADSTATS_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
	if val := os.Getenv("THREADSTATS_TELEMETRY_METRICS_MAX_SERIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Telemetry.Metrics.MaxSeries = i
		}
	}
	if val := os.Getenv("THREADSTATS_TELEMETRY_REPORT_SCHEDULE"); val != "" {
		cfg.Telemetry.Report.Schedule = val
	}

	// Collection overrides
	if val := os.Getenv("THREADSTATS_COLLECTION_VERBOSITY"); val != "" {
		cfg.Collection.Verbosity = val
	}
	if val := os.Getenv("THREADSTATS_COLLECTION_ACTIVATE_ON_START"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Collection.ActivateOnStart = b
		}
	}

	// Worker overrides
	if val := os.Getenv("THREADSTATS_WORKERS_COUNT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Workers.Count = i
		}
	}
	if val := os.Getenv("THREADSTATS_WORKERS_STAGE"); val != "" {
		cfg.Workers.Stage = val
	}
	if val := os.Getenv("THREADSTATS_WORKERS_RATE_PER_SECOND"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Workers.RatePerSecond = f
		}
	}
	if val := os.Getenv("THREADSTATS_WORKERS_JOB_DURATION"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Workers.JobDuration = d
		}
	}
}
