package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/threadstats/pkg/config"
	"mercator-hq/threadstats/pkg/stageanalysis"
	"mercator-hq/threadstats/pkg/threadstats"

	"github.com/robfig/cron/v3"
)

// Scheduler logs thread statistics on a cron schedule. Each report holds
// the cross-thread summary, every metric value including log-only ones,
// and the stage analysis when an analyzer is attached.
type Scheduler struct {
	schedule string
	registry *threadstats.Registry
	analyzer *stageanalysis.Analyzer

	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	reports int
}

// NewScheduler creates a report scheduler. analyzer may be nil.
func NewScheduler(cfg *config.ReportConfig, reg *threadstats.Registry, analyzer *stageanalysis.Analyzer) *Scheduler {
	schedule := ""
	if cfg != nil {
		schedule = cfg.Schedule
	}
	return &Scheduler{
		schedule: schedule,
		registry: reg,
		analyzer: analyzer,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "telemetry.reporter"),
	}
}

// Start schedules the report. Standard cron expressions and descriptors
// such as "@every 30s" are accepted.
//
// If the schedule is empty or "off", the scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" || s.schedule == config.ReportScheduleOff {
		s.logger.Info("report schedule disabled, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule report: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("report scheduler started", "schedule", s.schedule)

	// Wait for context cancellation in background
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce writes one report immediately.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if !s.registry.Active() {
		s.logger.Debug("collection not active, skipping report")
		return
	}

	averages := s.registry.Averages()
	s.logger.InfoContext(ctx, "thread statistics",
		"trackers", s.registry.TrackerCount(),
		"requests", s.registry.RequestTotal(),
		"executing_cpu_per_request", seconds(averages[threadstats.ExecutingCPU]),
		"executing_wall_per_request", seconds(averages[threadstats.ExecutingWall]),
		"processing_cpu_per_request", seconds(averages[threadstats.ProcessingCPU]),
		"processing_wall_per_request", seconds(averages[threadstats.ProcessingWall]),
	)

	s.registry.Metrics().Log(ctx, s.logger, slog.LevelDebug)

	if s.analyzer != nil {
		s.analyzer.Log(ctx, s.logger, slog.LevelInfo)
	}

	s.mu.Lock()
	s.reports++
	s.mu.Unlock()
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Stop stops the scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		s.running = false
		ctx := s.cron.Stop()

		// A running report takes s.mu when it finishes.
		s.mu.Unlock()
		<-ctx.Done()
		s.mu.Lock()

		s.logger.Info("report scheduler stopped", "reports", s.reports)
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Reports returns the number of reports written.
func (s *Scheduler) Reports() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reports
}

// NextRun returns the next scheduled report time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
