package threadstats

import (
	"mercator-hq/threadstats/pkg/telemetry/metrics"
)

// createAggregates registers the five cross-thread series. Called once,
// under r.mu, by the first tracker construction.
func (r *Registry) createAggregates() {
	for _, kind := range Kinds {
		kind := kind
		producer := func() float64 { return r.Average(kind) }
		if kind == Requests {
			producer = r.RequestTotal
		}
		r.aggregates[kind] = r.metrics.FindOrCreate(metrics.Opts{
			Name:    kind.AggregateMetricName(),
			Help:    kindTable[kind].aggHelp,
			Counter: kind == Requests,
		}, producer, metrics.Persist)
	}
}

// Aggregate returns the cross-thread handle for kind, or nil before the
// first tracker exists.
func (r *Registry) Aggregate(kind Kind) *metrics.Handle {
	if !kind.valid() {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.aggregates[kind]
}

// Sum adds the current values of every per-thread series of kind. Timer
// kinds are in seconds.
func (r *Registry) Sum(kind Kind) float64 {
	if !kind.valid() {
		return 0
	}
	var sum float64
	for _, h := range r.handlesOf(kind) {
		sum += h.CurrentValue()
	}
	return sum
}

// RequestTotal is the number of work items processed by all threads.
func (r *Registry) RequestTotal() float64 {
	return r.Sum(Requests)
}

// Average divides the summed time of a timer kind by RequestTotal. It is
// zero while no request has been counted. For Requests it returns the total.
func (r *Registry) Average(kind Kind) float64 {
	if kind == Requests {
		return r.RequestTotal()
	}
	total := r.RequestTotal()
	if total == 0 {
		return 0
	}
	return r.Sum(kind) / total
}

// Averages returns Average for each timer kind.
func (r *Registry) Averages() map[Kind]float64 {
	out := make(map[Kind]float64, len(TimerKinds))
	total := r.RequestTotal()
	for _, kind := range TimerKinds {
		if total == 0 {
			out[kind] = 0
			continue
		}
		out[kind] = r.Sum(kind) / total
	}
	return out
}
