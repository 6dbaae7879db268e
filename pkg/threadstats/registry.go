package threadstats

import (
	"log/slog"
	"sync"
	"time"

	"mercator-hq/threadstats/pkg/telemetry/metrics"
)

// Options configures a Registry. Zero values select the real clocks and
// slog.Default.
type Options struct {
	// WallClock backs every WallTimer created for this registry.
	WallClock WallClock

	// CPUClock backs every CPUTimer created for this registry.
	CPUClock CPUClock

	Logger *slog.Logger
}

// Registry owns the per-thread series of every tracker, the cross-thread
// aggregates derived from them, and the collection gate.
//
// Per-thread lists only grow. Handles of trackers whose thread has exited
// stay in the lists, frozen at their last value.
type Registry struct {
	metrics   *metrics.Registry
	gate      Gate
	wallClock WallClock
	cpuClock  CPUClock
	logger    *slog.Logger

	mu          sync.RWMutex
	perThread   [numKinds][]*metrics.Handle
	trackers    []*Tracker
	subscribers []func(*Tracker)

	aggregateOnce sync.Once
	aggregates    [numKinds]*metrics.Handle
}

// NewRegistry creates an empty registry publishing into m. A nil m gets a
// private metrics registry.
func NewRegistry(m *metrics.Registry, opts Options) *Registry {
	if m == nil {
		m = metrics.NewRegistry(nil, nil, opts.Logger)
	}
	if opts.WallClock == nil {
		opts.WallClock = time.Now
	}
	if opts.CPUClock == nil {
		opts.CPUClock = ThreadCPUTime
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Registry{
		metrics:   m,
		wallClock: opts.WallClock,
		cpuClock:  opts.CPUClock,
		logger:    opts.Logger.With("component", "threadstats.registry"),
	}
}

// Metrics returns the metric registry trackers publish into.
func (r *Registry) Metrics() *metrics.Registry {
	return r.metrics
}

// ActivateCollection turns measurement on for every tracker of this
// registry. It is idempotent and cannot be undone.
func (r *Registry) ActivateCollection() {
	if r.gate.Activate() {
		r.logger.Info("thread statistics collection activated",
			"trackers", r.TrackerCount(),
		)
	}
}

// Active reports whether collection has been activated.
func (r *Registry) Active() bool {
	return r.gate.Active()
}

// Subscribe registers fn to be called after each tracker is constructed.
// Trackers constructed before the call are not replayed.
func (r *Registry) Subscribe(fn func(*Tracker)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.subscribers = append(r.subscribers, fn)
	r.mu.Unlock()
}

// Trackers returns every tracker constructed so far, in construction order.
func (r *Registry) Trackers() []*Tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tracker, len(r.trackers))
	copy(out, r.trackers)
	return out
}

// TrackerCount returns the number of trackers constructed so far.
func (r *Registry) TrackerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trackers)
}

// attach publishes the tracker's five series, creates the aggregates on the
// first call, and notifies subscribers outside the lock.
func (r *Registry) attach(t *Tracker, mode metrics.StorageMode) {
	labels := map[string]string{
		LabelThread:    t.name,
		LabelTrackerID: t.id,
	}

	r.mu.Lock()
	for _, kind := range Kinds {
		h := r.metrics.FindOrCreate(metrics.Opts{
			Name:        kind.ThreadMetricName(),
			Help:        kindTable[kind].threadHelp,
			ConstLabels: labels,
			Counter:     kind == Requests,
		}, t.producer(kind), mode)
		t.handles[kind] = h
		r.perThread[kind] = append(r.perThread[kind], h)
	}
	r.aggregateOnce.Do(r.createAggregates)
	r.trackers = append(r.trackers, t)
	subscribers := r.subscribers
	r.mu.Unlock()

	r.logger.Debug("tracker registered",
		"thread", t.name,
		"tracker_id", t.id,
		"mode", mode.String(),
	)

	for _, fn := range subscribers {
		fn(t)
	}
}

// handlesOf returns the current prefix of the per-thread list for kind.
// The backing array is never rewritten below its length, so the caller may
// iterate without the lock.
func (r *Registry) handlesOf(kind Kind) []*metrics.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.perThread[kind]
}
