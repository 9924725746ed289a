// Package generation drives one image generation from submission to a
// terminal outcome.
package generation

// State is the lifecycle state of a generation request.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StatePolling    State = "polling"

	// Terminal states
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// IsTerminal reports whether no further transitions follow.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut || s == StateCancelled
}

// IsBusy reports whether the loading indicator should show.
func (s State) IsBusy() bool {
	return s == StateSubmitting || s == StatePolling
}

func (s State) String() string {
	return string(s)
}

// ValidTransitions lists the allowed moves between states.
var ValidTransitions = map[State][]State{
	StateIdle:       {StateSubmitting, StateFailed},
	StateSubmitting: {StatePolling, StateSucceeded, StateFailed, StateCancelled},
	StatePolling:    {StateSucceeded, StateFailed, StateTimedOut, StateCancelled},
	StateSucceeded:  {},
	StateFailed:     {},
	StateTimedOut:   {},
	StateCancelled:  {},
}

// CanTransitionTo checks if a transition from s to target is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TaskStatus is the backend's view of a queued task.
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailure TaskStatus = "FAILURE"
)
