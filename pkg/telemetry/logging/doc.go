// Package logging provides structured logging for threadstats.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON, text, and console output formats
//   - A runtime-adjustable level shared by all derived loggers
//   - Context-aware logging with stage, thread, and tracker fields
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logger.Info("worker started", "thread", "decode-0")
//
//	ctx = logging.WithThread(ctx, "decode-0")
//	logger.WithContext(ctx).Info("processing")  // includes thread automatically
//
//	// Apply a configuration reload
//	_ = logger.SetLevel("debug")
package logging
