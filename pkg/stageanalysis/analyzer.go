package stageanalysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mercator-hq/threadstats/pkg/threadstats"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Histogram bounds in microseconds.
const (
	lowestMicros  = 1
	highestMicros = 60_000_000
	sigFigs       = 3
)

// Percentiles summarises a distribution of per-request costs.
type Percentiles struct {
	P50 time.Duration
	P90 time.Duration
	P99 time.Duration
	Max time.Duration
}

// StageReport describes the threads of one stage.
type StageReport struct {
	Stage string

	// Threads is the number of trackers in the stage; ActiveThreads counts
	// those with at least one processed request.
	Threads       int
	ActiveThreads int
	Requests      uint64

	// Per-thread processing time divided by that thread's request count.
	// Threads without requests are left out.
	ProcessingWallPerRequest Percentiles
	ProcessingCPUPerRequest  Percentiles
}

// Analyzer groups trackers into stages by thread name and reports how the
// per-request cost is distributed across the threads of each stage.
type Analyzer struct {
	logger *slog.Logger

	mu     sync.RWMutex
	stages map[string][]*threadstats.Tracker
	order  []string
}

// NewAnalyzer creates an analyzer subscribed to reg. Trackers constructed
// before the call are picked up from reg.Trackers.
func NewAnalyzer(reg *threadstats.Registry) *Analyzer {
	a := &Analyzer{
		logger: slog.Default().With("component", "stageanalysis"),
		stages: make(map[string][]*threadstats.Tracker),
	}
	reg.Subscribe(a.Observe)
	for _, t := range reg.Trackers() {
		a.Observe(t)
	}
	return a
}

// StageName strips a trailing "-N" worker index: "decode-3" is in stage
// "decode". Names without a numeric suffix are their own stage.
func StageName(thread string) string {
	i := strings.LastIndexByte(thread, '-')
	if i <= 0 || i == len(thread)-1 {
		return thread
	}
	for _, c := range thread[i+1:] {
		if c < '0' || c > '9' {
			return thread
		}
	}
	return thread[:i]
}

// Observe adds a tracker to its stage. Adding the same tracker twice is a
// no-op.
func (a *Analyzer) Observe(t *threadstats.Tracker) {
	stage := StageName(t.Name())

	a.mu.Lock()
	defer a.mu.Unlock()

	trackers, ok := a.stages[stage]
	if !ok {
		a.order = append(a.order, stage)
	}
	for _, existing := range trackers {
		if existing == t {
			return
		}
	}
	a.stages[stage] = append(trackers, t)
}

// Stages returns the known stage names in order of first appearance.
func (a *Analyzer) Stages() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Analyze builds one report per stage from the trackers' current values.
func (a *Analyzer) Analyze() []StageReport {
	a.mu.RLock()
	stages := make([]string, len(a.order))
	copy(stages, a.order)
	members := make(map[string][]*threadstats.Tracker, len(stages))
	for _, s := range stages {
		members[s] = a.stages[s]
	}
	a.mu.RUnlock()

	reports := make([]StageReport, 0, len(stages))
	for _, s := range stages {
		reports = append(reports, a.analyzeStage(s, members[s]))
	}
	return reports
}

func (a *Analyzer) analyzeStage(stage string, trackers []*threadstats.Tracker) StageReport {
	wall := hdrhistogram.New(lowestMicros, highestMicros, sigFigs)
	cpu := hdrhistogram.New(lowestMicros, highestMicros, sigFigs)

	report := StageReport{Stage: stage, Threads: len(trackers)}
	for _, t := range trackers {
		n := t.Processed()
		if n == 0 {
			continue
		}
		report.ActiveThreads++
		report.Requests += n

		if err := record(wall, t.Elapsed(threadstats.ProcessingWall)/time.Duration(n)); err != nil {
			a.logger.Debug("dropped wall sample", "stage", stage, "thread", t.Name(), "error", err)
		}
		if err := record(cpu, t.Elapsed(threadstats.ProcessingCPU)/time.Duration(n)); err != nil {
			a.logger.Debug("dropped cpu sample", "stage", stage, "thread", t.Name(), "error", err)
		}
	}

	report.ProcessingWallPerRequest = percentiles(wall)
	report.ProcessingCPUPerRequest = percentiles(cpu)
	return report
}

// record adds d in microseconds, clamped to the histogram's range.
func record(h *hdrhistogram.Histogram, d time.Duration) error {
	us := d.Microseconds()
	if us < h.LowestTrackableValue() {
		us = h.LowestTrackableValue()
	}
	if us > h.HighestTrackableValue() {
		us = h.HighestTrackableValue()
	}
	if err := h.RecordValue(us); err != nil {
		return fmt.Errorf("record %v: %w", d, err)
	}
	return nil
}

func percentiles(h *hdrhistogram.Histogram) Percentiles {
	if h.TotalCount() == 0 {
		return Percentiles{}
	}
	return Percentiles{
		P50: time.Duration(h.ValueAtQuantile(50)) * time.Microsecond,
		P90: time.Duration(h.ValueAtQuantile(90)) * time.Microsecond,
		P99: time.Duration(h.ValueAtQuantile(99)) * time.Microsecond,
		Max: time.Duration(h.Max()) * time.Microsecond,
	}
}

// Log writes one record per stage at level.
func (a *Analyzer) Log(ctx context.Context, logger *slog.Logger, level slog.Level) {
	if logger == nil {
		logger = a.logger
	}
	if !logger.Enabled(ctx, level) {
		return
	}

	for _, r := range a.Analyze() {
		logger.LogAttrs(ctx, level, "stage report",
			slog.String("stage", r.Stage),
			slog.Int("threads", r.Threads),
			slog.Int("active_threads", r.ActiveThreads),
			slog.Uint64("requests", r.Requests),
			slog.Duration("wall_per_request_p50", r.ProcessingWallPerRequest.P50),
			slog.Duration("wall_per_request_p99", r.ProcessingWallPerRequest.P99),
			slog.Duration("wall_per_request_max", r.ProcessingWallPerRequest.Max),
			slog.Duration("cpu_per_request_p50", r.ProcessingCPUPerRequest.P50),
			slog.Duration("cpu_per_request_p99", r.ProcessingCPUPerRequest.P99),
		)
	}
}
