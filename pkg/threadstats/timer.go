package threadstats

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Timer is an accumulating stopwatch. Start on a running timer and Stop on
// a stopped timer are no-ops.
type Timer interface {
	Start()
	Stop()
	Elapsed() time.Duration
}

// WallClock returns the current wall-clock time.
type WallClock func() time.Time

// CPUClock returns the CPU time consumed so far by the calling OS thread.
type CPUClock func() time.Duration

// stopwatch holds the accumulated total and the running segment. Only the
// owner starts and stops it; any goroutine may read.
//
// Writes are bracketed by seq, odd while a write is in progress. The owner
// reads its clock inside the bracket, so a reader whose snapshot validates
// took its own clock reading before the owner's and never reports more than
// the owner later settles.
type stopwatch struct {
	seq     atomic.Uint64
	running atomic.Bool
	start   atomic.Int64
	total   atomic.Int64
}

func (s *stopwatch) begin(clock func() int64) {
	if s.running.Load() {
		return
	}
	s.seq.Add(1)
	s.start.Store(clock())
	s.running.Store(true)
	s.seq.Add(1)
}

func (s *stopwatch) end(clock func() int64) {
	if !s.running.Load() {
		return
	}
	s.seq.Add(1)
	if d := clock() - s.start.Load(); d > 0 {
		s.total.Add(d)
	}
	s.running.Store(false)
	s.seq.Add(1)
}

// read returns the total plus the running segment measured with clock.
func (s *stopwatch) read(clock func() int64) time.Duration {
	for {
		seq := s.seq.Load()
		if seq&1 == 1 {
			runtime.Gosched()
			continue
		}
		total := s.total.Load()
		if s.running.Load() {
			if d := clock() - s.start.Load(); d > 0 {
				total += d
			}
		}
		if s.seq.Load() == seq {
			return time.Duration(total)
		}
	}
}

// settled returns the total of finished segments. It only grows.
func (s *stopwatch) settled() time.Duration {
	return time.Duration(s.total.Load())
}

// WallTimer measures wall-clock time. Elapsed includes the running segment
// and may be called from any goroutine.
type WallTimer struct {
	clock WallClock
	base  time.Time
	sw    stopwatch
}

// NewWallTimer creates a stopped wall-clock timer. A nil clock uses time.Now.
func NewWallTimer(clock WallClock) *WallTimer {
	if clock == nil {
		clock = time.Now
	}
	return &WallTimer{clock: clock, base: clock()}
}

func (t *WallTimer) now() int64 {
	return int64(t.clock().Sub(t.base))
}

// Start begins a segment.
func (t *WallTimer) Start() { t.sw.begin(t.now) }

// Stop settles the running segment into the total.
func (t *WallTimer) Stop() { t.sw.end(t.now) }

// Elapsed returns the settled total plus the running segment, if any.
// Successive calls never decrease.
func (t *WallTimer) Elapsed() time.Duration { return t.sw.read(t.now) }

// CPUTimer measures CPU time of the OS thread that calls Start and Stop.
//
// The thread CPU clock can only be read on the thread being measured, so
// Elapsed reports settled segments only. A long-running segment becomes
// visible to readers once its owner stops (or stops and restarts) the timer.
type CPUTimer struct {
	clock CPUClock
	sw    stopwatch
}

// NewCPUTimer creates a stopped CPU timer. A nil clock reads the calling
// thread's CPU clock.
func NewCPUTimer(clock CPUClock) *CPUTimer {
	if clock == nil {
		clock = ThreadCPUTime
	}
	return &CPUTimer{clock: clock}
}

// Start begins a segment. Must be called on the measured thread.
func (t *CPUTimer) Start() { t.sw.begin(t.now) }

// Stop settles the running segment. Must be called on the measured thread.
func (t *CPUTimer) Stop() { t.sw.end(t.now) }

func (t *CPUTimer) now() int64 { return int64(t.clock()) }

// Elapsed returns the settled CPU time.
func (t *CPUTimer) Elapsed() time.Duration { return t.sw.settled() }
