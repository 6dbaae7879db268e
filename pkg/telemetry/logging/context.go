package logging

import (
	"context"
)

// Context keys for common log fields.
type contextKey string

const (
	// ThreadKey is the context key for the tracked thread name.
	ThreadKey contextKey = "thread"

	// TrackerIDKey is the context key for the tracker instance id.
	TrackerIDKey contextKey = "tracker_id"

	// StageKey is the context key for the worker stage name.
	StageKey contextKey = "stage"
)

// WithThread adds a thread name to the context.
func WithThread(ctx context.Context, thread string) context.Context {
	return context.WithValue(ctx, ThreadKey, thread)
}

// GetThread retrieves the thread name from the context.
func GetThread(ctx context.Context) string {
	if thread, ok := ctx.Value(ThreadKey).(string); ok {
		return thread
	}
	return ""
}

// WithTrackerID adds a tracker id to the context.
func WithTrackerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TrackerIDKey, id)
}

// GetTrackerID retrieves the tracker id from the context.
func GetTrackerID(ctx context.Context) string {
	if id, ok := ctx.Value(TrackerIDKey).(string); ok {
		return id
	}
	return ""
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// GetStage retrieves the stage name from the context.
func GetStage(ctx context.Context) string {
	if stage, ok := ctx.Value(StageKey).(string); ok {
		return stage
	}
	return ""
}

// extractContextFields returns the thread fields stored in ctx as key-value
// pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if stage := GetStage(ctx); stage != "" {
		fields = append(fields, "stage", stage)
	}
	if thread := GetThread(ctx); thread != "" {
		fields = append(fields, "thread", thread)
	}
	if id := GetTrackerID(ctx); id != "" {
		fields = append(fields, "tracker_id", id)
	}

	return fields
}
