package threadstats

// State is the lifecycle position of a Tracker.
//
//	NotStarted --OnStartExecution--> Executing
//	NotStarted --OnStartProcessing--> ExecutingAndProcessing (implicit start)
//	Executing --OnStartProcessing--> ExecutingAndProcessing
//	ExecutingAndProcessing --OnStopProcessing--> Executing
//	Executing, ExecutingAndProcessing --OnStopExecution--> Stopped
//	Stopped --OnStartExecution--> Executing
//	Stopped --OnStartProcessing--> ExecutingAndProcessing (reopens execution)
//
// The implicit start happens on the first processing span only, even when
// OnStartExecution ran before it. Reopening from Stopped keeps every
// processing span inside an executing span. OnStopProcessing and
// OnStopExecution never move a tracker out of NotStarted, so a span whose
// start was dropped before activation cannot skip the implicit start.
type State int32

const (
	NotStarted State = iota
	Executing
	ExecutingAndProcessing
	Stopped
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Executing:
		return "executing"
	case ExecutingAndProcessing:
		return "executing_and_processing"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}
