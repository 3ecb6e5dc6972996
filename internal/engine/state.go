package engine

import "fmt"

// State is the Host's state for one build.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateLoadingSources
	StateBuildingIndex
	StateMatching
	StateFinalizing
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateIdle:           "Idle",
	StateStarting:       "Starting",
	StateLoadingSources: "LoadingSources",
	StateBuildingIndex:  "BuildingIndex",
	StateMatching:       "Matching",
	StateFinalizing:     "Finalizing",
	StateCompleted:      "Completed",
	StateFailed:         "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CanTransition reports whether the host may move from s to next.
// Every non-terminal state after Idle may fail.
func (s State) CanTransition(next State) bool {
	if next == StateFailed {
		return s != StateIdle && !s.Terminal()
	}
	switch s {
	case StateIdle:
		return next == StateStarting
	case StateStarting:
		return next == StateLoadingSources
	case StateLoadingSources:
		return next == StateBuildingIndex
	case StateBuildingIndex:
		return next == StateMatching
	case StateMatching:
		return next == StateFinalizing
	case StateFinalizing:
		return next == StateCompleted
	}
	return false
}
