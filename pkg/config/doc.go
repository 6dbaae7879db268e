// Package config provides configuration management for threadstats.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment, and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention THREADSTATS_SECTION_FIELD:
//
//   - THREADSTATS_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//   - THREADSTATS_COLLECTION_VERBOSITY overrides collection.verbosity
//   - THREADSTATS_WORKERS_COUNT overrides workers.count
//
// # Collection Verbosity
//
// collection.verbosity is read once, when a tracker is constructed. "detailed"
// persists per-thread metrics in the registry so they can be gathered later;
// "basic" keeps them in log-only mode. Aggregate metrics are always persisted.
// A reload changes the mode of trackers created afterwards only.
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and swaps in the new
// configuration when it loads and validates:
//
//	w, _ := config.NewWatcher("config.yaml", 0, logger)
//	go w.Watch(ctx, func(cfg *config.Config) {
//	    log.SetLevel(cfg.Telemetry.Logging.Level)
//	})
//
// # Example Configuration
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    namespace: "mercator"
//	    subsystem: "threadstats"
//	  report:
//	    schedule: "@every 30s"
//
//	collection:
//	  verbosity: "detailed"
//
//	workers:
//	  count: 4
//	  stage: "decode"
//	  rate_per_second: 200
package config
