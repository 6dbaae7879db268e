// Package workerpool provides a goroutine pool whose workers are measured
// by threadstats trackers.
//
// Each worker is locked to its OS thread, so its tracker's CPU timers read
// that thread's clock. The pool builds the trackers on the goroutine that
// calls Start, before any worker runs.
//
// # Basic Usage
//
//	pool := workerpool.NewPool(reg, workerpool.PoolConfig{
//	    NumWorkers:       8,
//	    QueueFactor:      200, // Queue size = 8 * 200 = 1600
//	    Stage:            "decode",
//	    ActivateOnSubmit: true,
//	})
//	pool.Start(ctx)
//	defer pool.Stop()
//
//	pool.Submit(func() int {
//	    // handle a batch
//	    return len(batch)
//	})
//
// # Graceful Shutdown
//
// Stop waits for in-flight jobs before returning. Jobs still queued are
// dropped.
package workerpool
