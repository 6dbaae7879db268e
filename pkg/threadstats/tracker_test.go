package threadstats

import (
	"bytes"
	"log/slog"
	"math"
	"testing"
	"time"

	"mercator-hq/threadstats/pkg/config"
	"mercator-hq/threadstats/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeClock, *prometheus.Registry) {
	t.Helper()
	clock := newFakeClock()
	prom := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	m := metrics.NewRegistry(&config.MetricsConfig{Namespace: "test", Subsystem: "ts"}, prom, logger)
	reg := NewRegistry(m, Options{WallClock: clock.Wall, CPUClock: clock.CPU, Logger: logger})
	return reg, clock, prom
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTracker_NoOpBeforeActivation(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartExecution()
	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.IncrementProcessed(3)
	tr.OnStopProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.OnStopExecution()

	for _, kind := range TimerKinds {
		if tr.Elapsed(kind) != 0 {
			t.Errorf("expected %s to stay at 0, got %v", kind, tr.Elapsed(kind))
		}
	}
	if tr.Processed() != 0 {
		t.Errorf("expected processed 0, got %d", tr.Processed())
	}
	if tr.State() != NotStarted {
		t.Errorf("expected state %s, got %s", NotStarted, tr.State())
	}
}

func TestTracker_IncrementProcessed(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want uint64
	}{
		{"positive", 4, 4},
		{"one", 1, 1},
		{"zero ignored", 0, 0},
		{"negative ignored", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _, _ := newTestRegistry(t)
			reg.ActivateCollection()
			tr := NewTracker(reg, "W1", config.VerbosityBasic)

			tr.IncrementProcessed(tt.n)

			if tr.Processed() != tt.want {
				t.Errorf("expected %d, got %d", tt.want, tr.Processed())
			}
		})
	}
}

func TestTracker_ExecutionIndependentOfProcessing(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartExecution()
	if tr.State() != Executing {
		t.Fatalf("expected %s, got %s", Executing, tr.State())
	}
	clock.Advance(20 * time.Millisecond)
	tr.OnStopExecution()

	if tr.State() != Stopped {
		t.Errorf("expected %s, got %s", Stopped, tr.State())
	}
	if tr.Elapsed(ExecutingWall) != 20*time.Millisecond {
		t.Errorf("expected executing wall 20ms, got %v", tr.Elapsed(ExecutingWall))
	}
	if tr.Elapsed(ExecutingCPU) != 10*time.Millisecond {
		t.Errorf("expected executing cpu 10ms, got %v", tr.Elapsed(ExecutingCPU))
	}
	if tr.Elapsed(ProcessingWall) != 0 || tr.Elapsed(ProcessingCPU) != 0 {
		t.Errorf("expected processing timers untouched, got wall=%v cpu=%v",
			tr.Elapsed(ProcessingWall), tr.Elapsed(ProcessingCPU))
	}
}

func TestTracker_FirstProcessingStartsExecution(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartProcessing()
	if tr.State() != ExecutingAndProcessing {
		t.Fatalf("expected %s, got %s", ExecutingAndProcessing, tr.State())
	}

	clock.Advance(10 * time.Millisecond)
	if tr.Elapsed(ExecutingWall) != 10*time.Millisecond {
		t.Errorf("expected executing wall to run from the first processing span, got %v",
			tr.Elapsed(ExecutingWall))
	}

	tr.OnStopProcessing()
	tr.OnStopExecution()
	if tr.Elapsed(ExecutingCPU) != 5*time.Millisecond {
		t.Errorf("expected executing cpu 5ms, got %v", tr.Elapsed(ExecutingCPU))
	}
}

func TestTracker_LaterProcessingKeepsWallTotal(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.OnStopProcessing()
	clock.Advance(6 * time.Millisecond)

	tr.OnStartProcessing()
	if tr.Elapsed(ExecutingWall) != 16*time.Millisecond {
		t.Errorf("expected executing wall 16ms after second start, got %v", tr.Elapsed(ExecutingWall))
	}
	if tr.Elapsed(ExecutingCPU) != 8*time.Millisecond {
		t.Errorf("expected executing cpu settled at 8ms, got %v", tr.Elapsed(ExecutingCPU))
	}

	clock.Advance(4 * time.Millisecond)
	tr.OnStopProcessing()

	if tr.Elapsed(ExecutingWall) != 20*time.Millisecond {
		t.Errorf("expected executing wall 20ms, got %v", tr.Elapsed(ExecutingWall))
	}
	if tr.Elapsed(ProcessingWall) != 14*time.Millisecond {
		t.Errorf("expected processing wall 14ms, got %v", tr.Elapsed(ProcessingWall))
	}
	if tr.Elapsed(ProcessingCPU) != 7*time.Millisecond {
		t.Errorf("expected processing cpu 7ms, got %v", tr.Elapsed(ProcessingCPU))
	}
}

func TestTracker_ExplicitStartThenProcessing(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartExecution()
	clock.Advance(10 * time.Millisecond)
	tr.OnStartProcessing()

	// The first span only repeats the start, so the cpu segment keeps running.
	if tr.Elapsed(ExecutingWall) != 10*time.Millisecond {
		t.Errorf("expected executing wall to keep running, got %v", tr.Elapsed(ExecutingWall))
	}
	if tr.Elapsed(ExecutingCPU) != 0 {
		t.Errorf("expected executing cpu still unsettled, got %v", tr.Elapsed(ExecutingCPU))
	}

	tr.OnStopProcessing()
	clock.Advance(4 * time.Millisecond)
	tr.OnStartProcessing()

	if tr.Elapsed(ExecutingWall) != 14*time.Millisecond {
		t.Errorf("expected executing wall 14ms, got %v", tr.Elapsed(ExecutingWall))
	}
	if tr.Elapsed(ExecutingCPU) != 7*time.Millisecond {
		t.Errorf("expected executing cpu toggled and settled at 7ms, got %v", tr.Elapsed(ExecutingCPU))
	}
}

func TestTracker_ActivationDuringSpan(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartProcessing()
	reg.ActivateCollection()
	tr.OnStopProcessing()

	if tr.State() != NotStarted {
		t.Fatalf("expected unmatched stop to keep %s, got %s", NotStarted, tr.State())
	}

	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.OnStopProcessing()

	if tr.State() != Executing {
		t.Errorf("expected %s, got %s", Executing, tr.State())
	}
	if tr.Elapsed(ExecutingWall) != 10*time.Millisecond {
		t.Errorf("expected executing wall 10ms, got %v", tr.Elapsed(ExecutingWall))
	}
	if tr.Elapsed(ProcessingWall) != 10*time.Millisecond {
		t.Errorf("expected processing wall 10ms, got %v", tr.Elapsed(ProcessingWall))
	}
	if tr.Elapsed(ExecutingWall) < tr.Elapsed(ProcessingWall) {
		t.Errorf("expected processing to nest inside executing, got executing %v < processing %v",
			tr.Elapsed(ExecutingWall), tr.Elapsed(ProcessingWall))
	}
}

func TestTracker_UnmatchedStopsKeepState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(tr *Tracker)
		stop  func(tr *Tracker)
		want  State
	}{
		{
			name:  "stop execution before any start",
			setup: func(tr *Tracker) {},
			stop:  (*Tracker).OnStopExecution,
			want:  NotStarted,
		},
		{
			name:  "stop processing before any start",
			setup: func(tr *Tracker) {},
			stop:  (*Tracker).OnStopProcessing,
			want:  NotStarted,
		},
		{
			name:  "stop processing while only executing",
			setup: (*Tracker).OnStartExecution,
			stop:  (*Tracker).OnStopProcessing,
			want:  Executing,
		},
		{
			name: "stop processing after execution stopped",
			setup: func(tr *Tracker) {
				tr.OnStartExecution()
				tr.OnStopExecution()
			},
			stop: (*Tracker).OnStopProcessing,
			want: Stopped,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _, _ := newTestRegistry(t)
			reg.ActivateCollection()
			tr := NewTracker(reg, "W1", config.VerbosityBasic)

			tt.setup(tr)
			tt.stop(tr)

			if tr.State() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tr.State())
			}
		})
	}
}

func TestTracker_StrayStopDoesNotSkipImplicitStart(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStopExecution()
	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.OnStopProcessing()

	if tr.Elapsed(ExecutingWall) != 10*time.Millisecond {
		t.Errorf("expected implicit start after a stray stop, got executing wall %v", tr.Elapsed(ExecutingWall))
	}
}

func TestTracker_RestartAfterStop(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartExecution()
	clock.Advance(10 * time.Millisecond)
	tr.OnStopExecution()
	clock.Advance(time.Second)

	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.OnStopProcessing()
	tr.OnStopExecution()

	if tr.Elapsed(ExecutingWall) != 20*time.Millisecond {
		t.Errorf("expected gap while stopped to be excluded, got %v", tr.Elapsed(ExecutingWall))
	}
}

func TestTracker_ProcessingAfterStopReopensExecution(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.OnStopProcessing()
	tr.OnStopExecution()
	clock.Advance(time.Second)

	tr.OnStartProcessing()
	if tr.State() != ExecutingAndProcessing {
		t.Fatalf("expected %s, got %s", ExecutingAndProcessing, tr.State())
	}
	clock.Advance(6 * time.Millisecond)
	tr.OnStopProcessing()
	tr.OnStopExecution()

	if tr.Elapsed(ExecutingWall) != 16*time.Millisecond {
		t.Errorf("expected executing wall 16ms, got %v", tr.Elapsed(ExecutingWall))
	}
	if tr.Elapsed(ProcessingWall) != 16*time.Millisecond {
		t.Errorf("expected processing wall 16ms, got %v", tr.Elapsed(ProcessingWall))
	}
	if tr.Elapsed(ExecutingCPU) != 8*time.Millisecond {
		t.Errorf("expected executing cpu 8ms, got %v", tr.Elapsed(ExecutingCPU))
	}
}

func TestTracker_ScenarioTwoSpans(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.IncrementProcessed(3)
	tr.OnStopProcessing()

	tr.OnStartProcessing()
	clock.Advance(10 * time.Millisecond)
	tr.IncrementProcessed(2)
	tr.OnStopProcessing()

	if tr.Processed() != 5 {
		t.Errorf("expected count 5, got %d", tr.Processed())
	}
	if reg.RequestTotal() != 5 {
		t.Errorf("expected aggregate requests 5, got %f", reg.RequestTotal())
	}
	if reg.Aggregate(Requests).CurrentValue() != 5 {
		t.Errorf("expected aggregate handle 5, got %f", reg.Aggregate(Requests).CurrentValue())
	}
	if reg.Average(ProcessingWall) <= 0 {
		t.Errorf("expected processing wall average > 0, got %f", reg.Average(ProcessingWall))
	}
	if reg.Average(ProcessingCPU) <= 0 {
		t.Errorf("expected processing cpu average > 0, got %f", reg.Average(ProcessingCPU))
	}
	if !almostEqual(reg.Average(ProcessingWall), 0.020/5) {
		t.Errorf("expected 4ms per request, got %f", reg.Average(ProcessingWall))
	}
}

func TestTracker_IdleThreadDoesNotSkewAverage(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	t1 := NewTracker(reg, "W1", config.VerbosityBasic)
	t2 := NewTracker(reg, "W2", config.VerbosityBasic)

	reg.ActivateCollection()

	t1.OnStartProcessing()
	clock.Advance(30 * time.Millisecond)
	t1.IncrementProcessed(3)
	t1.OnStopProcessing()

	if t2.Processed() != 0 || t2.Elapsed(ProcessingWall) != 0 {
		t.Fatalf("expected idle tracker to stay empty")
	}
	if reg.RequestTotal() != 3 {
		t.Errorf("expected combined requests 3, got %f", reg.RequestTotal())
	}

	want := t1.Elapsed(ProcessingWall).Seconds() / float64(t1.Processed())
	if !almostEqual(reg.Average(ProcessingWall), want) {
		t.Errorf("expected average %f, got %f", want, reg.Average(ProcessingWall))
	}
}

func TestTracker_Identity(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	a := NewTracker(reg, "decode-0", config.VerbosityBasic)
	b := NewTracker(reg, "decode-0", config.VerbosityBasic)

	if a.Name() != "decode-0" {
		t.Errorf("expected name decode-0, got %q", a.Name())
	}
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
	if a.Handle(ProcessingWall) == b.Handle(ProcessingWall) {
		t.Error("expected trackers sharing a thread name to get separate series")
	}
	if a.Handle(Kind(42)) != nil {
		t.Error("expected nil handle for unknown kind")
	}
}

func TestTracker_ValueUnits(t *testing.T) {
	reg, clock, _ := newTestRegistry(t)
	reg.ActivateCollection()
	tr := NewTracker(reg, "W1", config.VerbosityBasic)

	tr.OnStartProcessing()
	clock.Advance(1500 * time.Millisecond)
	tr.IncrementProcessed(2)
	tr.OnStopProcessing()

	if tr.Value(ProcessingWall) != 1.5 {
		t.Errorf("expected 1.5 seconds, got %f", tr.Value(ProcessingWall))
	}
	if tr.Value(Requests) != 2 {
		t.Errorf("expected 2 requests, got %f", tr.Value(Requests))
	}
	if tr.Handle(Requests).CurrentValue() != 2 {
		t.Errorf("expected handle to read 2, got %f", tr.Handle(Requests).CurrentValue())
	}
}
