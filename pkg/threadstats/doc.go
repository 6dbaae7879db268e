// Package threadstats measures how worker threads spend their time.
//
// # Overview
//
// Each worker thread owns a Tracker holding four timers:
//
//	executing  cpu / wall   the thread is alive
//	processing cpu / wall   the thread is handling a work item or batch
//
// plus a count of processed items. Trackers publish five per-thread series
// into a Registry, which derives five cross-thread aggregates on demand:
// the processed total and, for each timer kind, the summed time divided by
// that total (zero while the total is zero).
//
// # Activation
//
// Nothing is measured until Registry.ActivateCollection is called. Trackers
// may be constructed earlier; their lifecycle calls are no-ops until then.
//
// # Usage
//
//	reg := threadstats.NewRegistry(metricsRegistry, threadstats.Options{})
//	reg.ActivateCollection()
//
//	go func() {
//		runtime.LockOSThread()
//		defer runtime.UnlockOSThread()
//
//		t := threadstats.NewTracker(reg, "decode-0", config.VerbosityBasic)
//		for item := range items {
//			t.OnStartProcessing()
//			handle(item)
//			t.IncrementProcessed(1)
//			t.OnStopProcessing()
//		}
//		t.OnStopExecution()
//	}()
//
//	avg := reg.Average(threadstats.ProcessingWall) // seconds per item
//
// # Thread CPU Time
//
// On Linux CPU timers read CLOCK_THREAD_CPUTIME_ID. That clock belongs to the
// calling OS thread, so lifecycle calls must come from a goroutine locked to
// its thread. Other platforms report zero CPU time.
package threadstats
