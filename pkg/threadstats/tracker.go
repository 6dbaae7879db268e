package threadstats

import (
	"sync/atomic"
	"time"

	"mercator-hq/threadstats/pkg/config"
	"mercator-hq/threadstats/pkg/telemetry/metrics"

	"github.com/google/uuid"
)

// Tracker measures one worker thread: CPU and wall-clock time while the
// thread is executing, the same pair while it is processing work items, and
// the number of items processed.
//
// A Tracker may be constructed on any goroutine. Every lifecycle method
// (OnStart*, OnStop*, IncrementProcessed) must then be called from the one
// OS thread being measured, which in Go means a goroutine holding
// runtime.LockOSThread. Start and stop calls must be paired by the caller;
// overlapping processing spans are not detected.
//
// All lifecycle methods are no-ops until the registry's collection is
// activated.
type Tracker struct {
	registry *Registry
	name     string
	id       string

	executingCPU   *CPUTimer
	executingWall  *WallTimer
	processingCPU  *CPUTimer
	processingWall *WallTimer

	processed atomic.Uint64
	state     atomic.Int32

	// startedOnce is set by the first active OnStartProcessing only.
	startedOnce atomic.Bool

	handles [numKinds]*metrics.Handle
}

// NewTracker creates a tracker for threadName and publishes its five series
// into reg. With config.VerbosityDetailed the series are persisted;
// otherwise they are log-only. No timer is started.
func NewTracker(reg *Registry, threadName, verbosity string) *Tracker {
	t := &Tracker{
		registry:       reg,
		name:           threadName,
		id:             uuid.NewString(),
		executingCPU:   NewCPUTimer(reg.cpuClock),
		executingWall:  NewWallTimer(reg.wallClock),
		processingCPU:  NewCPUTimer(reg.cpuClock),
		processingWall: NewWallTimer(reg.wallClock),
	}

	mode := metrics.TransientLogOnly
	if verbosity == config.VerbosityDetailed {
		mode = metrics.Persist
	}
	reg.attach(t, mode)

	return t
}

// Name returns the thread name the tracker was created with.
func (t *Tracker) Name() string { return t.name }

// ID returns the unique tracker id used as the tracker_id label.
func (t *Tracker) ID() string { return t.id }

// State returns the current lifecycle state.
func (t *Tracker) State() State { return State(t.state.Load()) }

// Processed returns the number of work items counted so far.
func (t *Tracker) Processed() uint64 { return t.processed.Load() }

// Handle returns the per-thread metric handle for kind.
func (t *Tracker) Handle(kind Kind) *metrics.Handle {
	if !kind.valid() {
		return nil
	}
	return t.handles[kind]
}

// Elapsed returns the accumulated time for a timer kind. CPU kinds include
// settled segments only. Requests has no timer and reports zero.
func (t *Tracker) Elapsed(kind Kind) time.Duration {
	switch kind {
	case ExecutingCPU:
		return t.executingCPU.Elapsed()
	case ExecutingWall:
		return t.executingWall.Elapsed()
	case ProcessingCPU:
		return t.processingCPU.Elapsed()
	case ProcessingWall:
		return t.processingWall.Elapsed()
	default:
		return 0
	}
}

// Value returns the series value for kind: seconds for timers, a count
// for Requests.
func (t *Tracker) Value(kind Kind) float64 {
	if kind == Requests {
		return float64(t.Processed())
	}
	return t.Elapsed(kind).Seconds()
}

func (t *Tracker) producer(kind Kind) func() float64 {
	return func() float64 { return t.Value(kind) }
}

func (t *Tracker) active() bool {
	return t.registry.gate.Active()
}

func (t *Tracker) setState(s State) {
	t.state.Store(int32(s))
}

// OnStartExecution starts the executing timers. Call once when the bound
// thread begins running.
func (t *Tracker) OnStartExecution() {
	if !t.active() {
		return
	}
	t.startExecution()
}

func (t *Tracker) startExecution() {
	t.executingCPU.Start()
	t.executingWall.Start()
	t.setState(Executing)
}

// OnStopExecution stops the executing timers. Call once before the bound
// thread exits. A tracker that never started stays NotStarted.
func (t *Tracker) OnStopExecution() {
	if !t.active() {
		return
	}
	t.executingCPU.Stop()
	t.executingWall.Stop()
	if t.State() != NotStarted {
		t.setState(Stopped)
	}
}

// OnStartProcessing starts the processing timers.
//
// The first processing span starts the executing timers too: a tracker
// built off-thread cannot observe its thread starting, so that span stands
// in for it. A span that begins after OnStopExecution reopens the executing
// span. Otherwise the executing CPU timer is stopped and restarted so its
// running segment is settled and readable, and the executing wall timer is
// left running.
func (t *Tracker) OnStartProcessing() {
	if !t.active() {
		return
	}

	switch {
	case !t.startedOnce.Swap(true), t.State() == Stopped:
		t.startExecution()
	default:
		t.executingCPU.Stop()
		t.executingCPU.Start()
	}

	t.processingCPU.Start()
	t.processingWall.Start()
	t.setState(ExecutingAndProcessing)
}

// OnStopProcessing stops the processing timers. A span may cover one item
// or a batch. Only an open processing span returns the tracker to
// Executing; a stop whose start happened before activation leaves the
// state alone.
func (t *Tracker) OnStopProcessing() {
	if !t.active() {
		return
	}
	t.processingCPU.Stop()
	t.processingWall.Stop()
	t.state.CompareAndSwap(int32(ExecutingAndProcessing), int32(Executing))
}

// IncrementProcessed adds n to the processed count. Non-positive n is
// ignored.
func (t *Tracker) IncrementProcessed(n int) {
	if !t.active() || n <= 0 {
		return
	}
	t.processed.Add(uint64(n))
}
