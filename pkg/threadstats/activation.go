package threadstats

import "sync/atomic"

// Gate is a one-way switch. The zero value is inactive.
type Gate struct {
	active atomic.Bool
}

// Activate opens the gate. It returns true only for the call that changed
// the state; later calls are no-ops.
func (g *Gate) Activate() bool {
	return g.active.CompareAndSwap(false, true)
}

// Active reports whether the gate has been opened.
func (g *Gate) Active() bool {
	return g.active.Load()
}
