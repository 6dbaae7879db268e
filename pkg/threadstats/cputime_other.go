//go:build !linux

package threadstats

import "time"

// ThreadCPUSupported reports whether ThreadCPUTime reads a real clock.
const ThreadCPUSupported = false

// ThreadCPUTime always returns zero on platforms without a per-thread CPU clock.
func ThreadCPUTime() time.Duration {
	return 0
}
