//go:build linux

package threadstats

import (
	"time"

	"golang.org/x/sys/unix"
)

// ThreadCPUSupported reports whether ThreadCPUTime reads a real clock.
const ThreadCPUSupported = true

// ThreadCPUTime returns the CPU time consumed by the calling OS thread.
// Callers that need stable readings must hold runtime.LockOSThread.
func ThreadCPUTime() time.Duration {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_THREAD_CPUTIME_ID, &ts); err != nil {
		return 0
	}
	return time.Duration(ts.Nano())
}
