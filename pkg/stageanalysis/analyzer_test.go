package stageanalysis

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/threadstats/pkg/config"
	"mercator-hq/threadstats/pkg/threadstats"

	"github.com/HdrHistogram/hdrhistogram-go"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Wall() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) CPU() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.now.UnixNano())
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newRegistry() (*threadstats.Registry, *testClock) {
	clock := &testClock{now: time.Unix(0, 0)}
	reg := threadstats.NewRegistry(nil, threadstats.Options{
		WallClock: clock.Wall,
		CPUClock:  clock.CPU,
		Logger:    slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	return reg, clock
}

// process runs one processing span of d covering n items.
func process(t *threadstats.Tracker, clock *testClock, d time.Duration, n int) {
	t.OnStartProcessing()
	clock.Advance(d)
	t.IncrementProcessed(n)
	t.OnStopProcessing()
}

func TestStageName(t *testing.T) {
	tests := []struct {
		thread string
		want   string
	}{
		{"decode-3", "decode"},
		{"decode-12", "decode"},
		{"io-read-0", "io-read"},
		{"worker", "worker"},
		{"worker-", "worker-"},
		{"-1", "-1"},
		{"pool-a", "pool-a"},
	}

	for _, tt := range tests {
		t.Run(tt.thread, func(t *testing.T) {
			if got := StageName(tt.thread); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAnalyzer_GroupsByStage(t *testing.T) {
	reg, _ := newRegistry()
	early := threadstats.NewTracker(reg, "encode-0", config.VerbosityBasic)

	a := NewAnalyzer(reg)
	threadstats.NewTracker(reg, "decode-0", config.VerbosityBasic)
	threadstats.NewTracker(reg, "decode-1", config.VerbosityBasic)
	a.Observe(early)

	stages := a.Stages()
	if len(stages) != 2 || stages[0] != "encode" || stages[1] != "decode" {
		t.Fatalf("expected [encode decode], got %v", stages)
	}

	reports := a.Analyze()
	if reports[0].Threads != 1 {
		t.Errorf("expected encode to keep a single tracker, got %d", reports[0].Threads)
	}
	if reports[1].Threads != 2 {
		t.Errorf("expected decode to have 2 trackers, got %d", reports[1].Threads)
	}
}

func TestAnalyzer_Distribution(t *testing.T) {
	reg, clock := newRegistry()
	a := NewAnalyzer(reg)
	reg.ActivateCollection()

	fast := threadstats.NewTracker(reg, "decode-0", config.VerbosityBasic)
	slow := threadstats.NewTracker(reg, "decode-1", config.VerbosityBasic)
	idle := threadstats.NewTracker(reg, "decode-2", config.VerbosityBasic)

	process(fast, clock, 10*time.Millisecond, 10) // 1ms per request
	process(slow, clock, 40*time.Millisecond, 4)  // 10ms per request

	reports := a.Analyze()
	if len(reports) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(reports))
	}
	r := reports[0]

	if r.Threads != 3 || r.ActiveThreads != 2 {
		t.Errorf("expected 3 threads with 2 active, got %d/%d", r.Threads, r.ActiveThreads)
	}
	if r.Requests != 14 {
		t.Errorf("expected 14 requests, got %d", r.Requests)
	}
	if r.ProcessingWallPerRequest.P50 < 990*time.Microsecond || r.ProcessingWallPerRequest.P50 > 1010*time.Microsecond {
		t.Errorf("expected p50 near 1ms, got %v", r.ProcessingWallPerRequest.P50)
	}
	if r.ProcessingWallPerRequest.Max < 9990*time.Microsecond || r.ProcessingWallPerRequest.Max > 10010*time.Microsecond {
		t.Errorf("expected max near 10ms, got %v", r.ProcessingWallPerRequest.Max)
	}
	if r.ProcessingCPUPerRequest.Max == 0 {
		t.Error("expected cpu distribution to be recorded")
	}
	_ = idle
}

func TestAnalyzer_EmptyStage(t *testing.T) {
	reg, _ := newRegistry()
	a := NewAnalyzer(reg)
	threadstats.NewTracker(reg, "decode-0", config.VerbosityBasic)

	r := a.Analyze()[0]
	if r.ActiveThreads != 0 || r.Requests != 0 {
		t.Errorf("expected no activity, got %+v", r)
	}
	if r.ProcessingWallPerRequest != (Percentiles{}) {
		t.Errorf("expected zero percentiles, got %+v", r.ProcessingWallPerRequest)
	}
}

func TestAnalyzer_Log(t *testing.T) {
	reg, clock := newRegistry()
	a := NewAnalyzer(reg)
	reg.ActivateCollection()

	tr := threadstats.NewTracker(reg, "decode-0", config.VerbosityBasic)
	process(tr, clock, 5*time.Millisecond, 5)

	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	a.Log(context.Background(), logger, slog.LevelInfo)

	out := buf.String()
	if !strings.Contains(out, "stage=decode") || !strings.Contains(out, "requests=5") {
		t.Errorf("expected stage report in output, got %s", out)
	}
}

func TestRecord_ClampsToRange(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want int64
	}{
		{"below lowest", 0, lowestMicros},
		{"in range", 250 * time.Microsecond, 250},
		{"above highest", 2 * time.Minute, highestMicros},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := hdrhistogram.New(lowestMicros, highestMicros, sigFigs)
			if err := record(h, tt.d); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if h.TotalCount() != 1 {
				t.Fatalf("expected 1 sample, got %d", h.TotalCount())
			}
			if !h.ValuesAreEquivalent(h.Max(), tt.want) {
				t.Errorf("expected max equivalent to %d, got %d", tt.want, h.Max())
			}
		})
	}
}
