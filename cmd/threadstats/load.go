package main

import (
	"context"
	"time"

	"mercator-hq/threadstats/pkg/config"
	"mercator-hq/threadstats/pkg/workerpool"

	"golang.org/x/time/rate"
)

// loadGenerator feeds synthetic jobs into a pool at a fixed rate. Each job
// busy-spins for the configured duration once per item in its batch, so it
// consumes real CPU on the worker's thread.
type loadGenerator struct {
	pool    *workerpool.Pool
	limiter *rate.Limiter
	batch   int
	work    time.Duration
}

func newLoadGenerator(pool *workerpool.Pool, cfg config.WorkersConfig) *loadGenerator {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 1
	}
	return &loadGenerator{
		pool:    pool,
		limiter: rate.NewLimiter(limit, 1),
		batch:   batch,
		work:    cfg.JobDuration,
	}
}

// Run submits jobs until ctx is done. With a finite rate a full queue drops
// the job; without one Run blocks on the queue instead.
func (g *loadGenerator) Run(ctx context.Context) (submitted, dropped int64) {
	unlimited := g.limiter.Limit() == rate.Inf

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return submitted, dropped
		}

		var ok bool
		if unlimited {
			ok = g.pool.SubmitWait(g.job)
		} else {
			ok = g.pool.Submit(g.job)
		}

		switch {
		case ok:
			submitted++
		case ctx.Err() != nil:
			return submitted, dropped
		default:
			dropped++
		}
	}
}

func (g *loadGenerator) job() int {
	for i := 0; i < g.batch; i++ {
		spin(g.work)
	}
	return g.batch
}

// spin burns CPU on the calling thread for d.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}
