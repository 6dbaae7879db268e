package workerpool

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"mercator-hq/threadstats/pkg/config"
	"mercator-hq/threadstats/pkg/threadstats"
)

// Job is a unit of work. It returns the number of items it handled, which
// is added to the worker's processed count.
type Job func() int

// PoolConfig configures a Pool.
type PoolConfig struct {
	// NumWorkers is the number of workers. Zero or negative uses the CPU count.
	NumWorkers int

	// QueueFactor sizes the job queue as NumWorkers * QueueFactor.
	QueueFactor int

	// Stage prefixes worker thread names: "<stage>-<index>".
	Stage string

	// Verbosity is passed to every tracker (config.VerbosityBasic or
	// config.VerbosityDetailed).
	Verbosity string

	// ActivateOnSubmit activates collection when the first job is submitted.
	ActivateOnSubmit bool
}

// DefaultPoolConfig returns the default configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers:       0,
		QueueFactor:      config.DefaultWorkersQueueFactor,
		Stage:            config.DefaultWorkersStage,
		Verbosity:        config.DefaultCollectionVerbosity,
		ActivateOnSubmit: true,
	}
}

// Pool runs jobs on a fixed set of tracked workers. Each worker goroutine
// is locked to its OS thread for its whole life so its tracker's CPU timers
// read the right clock.
type Pool struct {
	registry *threadstats.Registry
	config   PoolConfig
	logger   *slog.Logger

	// mu serializes Start and Stop. queueMu guards the queue and its
	// context, which submitters snapshot without waiting on a Stop.
	mu      sync.Mutex
	queueMu sync.RWMutex
	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup

	trackers  []*threadstats.Tracker
	submitted atomic.Uint64
	panics    atomic.Uint64
}

// NewPool creates a pool whose workers report into reg.
func NewPool(reg *threadstats.Registry, cfg PoolConfig) *Pool {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	if cfg.QueueFactor <= 0 {
		cfg.QueueFactor = config.DefaultWorkersQueueFactor
	}
	if cfg.Stage == "" {
		cfg.Stage = config.DefaultWorkersStage
	}

	return &Pool{
		registry: reg,
		config:   cfg,
		logger:   slog.Default().With("component", "workerpool", "stage", cfg.Stage),
	}
}

// Start creates one tracker per worker on the calling goroutine and then
// launches the workers. Calling Start on a running pool is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning() {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	jobs := make(chan Job, p.config.NumWorkers*p.config.QueueFactor)

	trackers := make([]*threadstats.Tracker, p.config.NumWorkers)
	for i := range trackers {
		name := fmt.Sprintf("%s-%d", p.config.Stage, len(p.trackers)+i)
		trackers[i] = threadstats.NewTracker(p.registry, name, p.config.Verbosity)
	}
	p.trackers = append(p.trackers, trackers...)

	for _, t := range trackers {
		p.wg.Add(1)
		go p.worker(runCtx, jobs, t)
	}

	p.queueMu.Lock()
	p.jobs, p.ctx, p.cancel = jobs, runCtx, cancel
	p.running = true
	p.queueMu.Unlock()

	p.logger.Info("worker pool started",
		"workers", p.config.NumWorkers,
		"queue_size", cap(jobs),
	)
}

func (p *Pool) isRunning() bool {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()
	return p.running
}

// queue returns the job channel and its context while the pool runs.
func (p *Pool) queue() (chan<- Job, context.Context, bool) {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()
	if !p.running {
		return nil, nil, false
	}
	return p.jobs, p.ctx, true
}

func (p *Pool) worker(ctx context.Context, jobs <-chan Job, t *threadstats.Tracker) {
	defer p.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	t.OnStartExecution()
	defer t.OnStopExecution()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-jobs:
			p.run(t, job)
		}
	}
}

func (p *Pool) run(t *threadstats.Tracker, job Job) {
	t.OnStartProcessing()
	defer t.OnStopProcessing()

	n := func() (n int) {
		defer func() {
			if r := recover(); r != nil {
				p.panics.Add(1)
				p.logger.Error("job panicked",
					"thread", t.Name(),
					"tracker_id", t.ID(),
					"panic", fmt.Sprint(r),
				)
				n = 0
			}
		}()
		return job()
	}()

	t.IncrementProcessed(n)
}

// Submit queues a job without blocking. It returns false when the pool is
// not running or the queue is full. With ActivateOnSubmit the first
// submission activates collection.
//
// The queue is never closed, so a Submit racing a Stop either fails or
// leaves its job queued on a stopped pool, where it is dropped like any
// other job not yet started.
func (p *Pool) Submit(job Job) bool {
	if job == nil {
		return false
	}
	jobs, ctx, ok := p.queue()
	if !ok || ctx.Err() != nil {
		return false
	}

	p.activate()

	select {
	case jobs <- job:
		p.submitted.Add(1)
		return true
	default:
		return false
	}
}

// SubmitWait queues a job, blocking while the queue is full. It returns
// false if the pool stops first.
func (p *Pool) SubmitWait(job Job) bool {
	if job == nil {
		return false
	}
	jobs, ctx, ok := p.queue()
	if !ok || ctx.Err() != nil {
		return false
	}

	p.activate()

	select {
	case <-ctx.Done():
		return false
	case jobs <- job:
		p.submitted.Add(1)
		return true
	}
}

// activate runs before the job is queued so the worker that picks it up
// already sees collection as active.
func (p *Pool) activate() {
	if p.config.ActivateOnSubmit && !p.registry.Active() {
		p.logger.Debug("first job submitted, activating collection")
		p.registry.ActivateCollection()
	}
}

// Stop cancels the workers and waits for in-flight jobs. Queued jobs that
// have not started are dropped.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queueMu.Lock()
	if !p.running {
		p.queueMu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.queueMu.Unlock()

	p.wg.Wait()

	p.logger.Info("worker pool stopped",
		"submitted", p.submitted.Load(),
		"panics", p.panics.Load(),
	)
}

// Trackers returns the trackers of every worker started so far.
func (p *Pool) Trackers() []*threadstats.Tracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*threadstats.Tracker, len(p.trackers))
	copy(out, p.trackers)
	return out
}

// NumWorkers returns the number of workers.
func (p *Pool) NumWorkers() int {
	return p.config.NumWorkers
}

// QueueSize returns the number of queued jobs.
func (p *Pool) QueueSize() int {
	p.queueMu.RLock()
	defer p.queueMu.RUnlock()
	if !p.running {
		return 0
	}
	return len(p.jobs)
}

// Submitted returns the number of accepted jobs.
func (p *Pool) Submitted() uint64 {
	return p.submitted.Load()
}
