package threadstats

// Kind identifies one of the five per-thread series.
type Kind int

const (
	ExecutingCPU Kind = iota
	ExecutingWall
	ProcessingCPU
	ProcessingWall
	Requests

	numKinds = int(Requests) + 1
)

// Kinds lists every kind in registration order.
var Kinds = [numKinds]Kind{ExecutingCPU, ExecutingWall, ProcessingCPU, ProcessingWall, Requests}

// TimerKinds lists the four kinds backed by a timer.
var TimerKinds = [4]Kind{ExecutingCPU, ExecutingWall, ProcessingCPU, ProcessingWall}

// Label names attached to per-thread series.
const (
	LabelThread    = "thread"
	LabelTrackerID = "tracker_id"
)

type kindInfo struct {
	name       string
	threadName string
	threadHelp string
	aggName    string
	aggHelp    string
}

var kindTable = [numKinds]kindInfo{
	ExecutingCPU: {
		name:       "executing_cpu",
		threadName: "thread_executing_cpu_seconds",
		threadHelp: "CPU time the thread spent alive",
		aggName:    "all_threads_executing_cpu_seconds_per_request",
		aggHelp:    "Executing CPU time across all threads divided by total requests",
	},
	ExecutingWall: {
		name:       "executing_wall",
		threadName: "thread_executing_wall_seconds",
		threadHelp: "Wall-clock time the thread spent alive",
		aggName:    "all_threads_executing_wall_seconds_per_request",
		aggHelp:    "Executing wall-clock time across all threads divided by total requests",
	},
	ProcessingCPU: {
		name:       "processing_cpu",
		threadName: "thread_processing_cpu_seconds",
		threadHelp: "CPU time the thread spent processing work items",
		aggName:    "all_threads_processing_cpu_seconds_per_request",
		aggHelp:    "Processing CPU time across all threads divided by total requests",
	},
	ProcessingWall: {
		name:       "processing_wall",
		threadName: "thread_processing_wall_seconds",
		threadHelp: "Wall-clock time the thread spent processing work items",
		aggName:    "all_threads_processing_wall_seconds_per_request",
		aggHelp:    "Processing wall-clock time across all threads divided by total requests",
	},
	Requests: {
		name:       "requests",
		threadName: "thread_requests_total",
		threadHelp: "Work items processed by the thread",
		aggName:    "all_threads_requests_total",
		aggHelp:    "Work items processed by all threads",
	},
}

func (k Kind) valid() bool { return k >= 0 && int(k) < numKinds }

// String returns the short kind name.
func (k Kind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kindTable[k].name
}

// IsTimer reports whether the kind is backed by a timer.
func (k Kind) IsTimer() bool { return k.valid() && k != Requests }

// ThreadMetricName returns the per-thread metric name, without namespace.
func (k Kind) ThreadMetricName() string {
	if !k.valid() {
		return ""
	}
	return kindTable[k].threadName
}

// AggregateMetricName returns the cross-thread metric name, without namespace.
func (k Kind) AggregateMetricName() string {
	if !k.valid() {
		return ""
	}
	return kindTable[k].aggName
}
