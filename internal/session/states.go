// Package session drives one analysis session through its refinement cycle.
//
// Valid state graph:
//
//	UNCREATED ──► CREATING ──► ACTIVE ──► AWAITING_FEEDBACK ──► REFINING
//	    ▲             │          ▲  │            ▲                  │
//	    └─────────────┘          │  │            └──── failure ─────┤
//	    (creation failed)        │  │                               │
//	                             └──┼──────── success ──────────────┘
//	                                ▼
//	                            TERMINAL
//
// Reaching the iteration ceiling does not end the session. It only stops
// refinement; the session stays readable until it is completed.
package session

import "fmt"

type State string

const (
	StateUncreated        State = "UNCREATED"
	StateCreating         State = "CREATING"
	StateActive           State = "ACTIVE"
	StateAwaitingFeedback State = "AWAITING_FEEDBACK"
	StateRefining         State = "REFINING"
	StateTerminal         State = "TERMINAL"
)

var validTransitions = map[State][]State{
	StateUncreated:        {StateCreating},
	StateCreating:         {StateActive, StateUncreated},
	StateActive:           {StateAwaitingFeedback, StateTerminal},
	StateAwaitingFeedback: {StateRefining, StateTerminal},
	StateRefining:         {StateActive, StateAwaitingFeedback},
	// TERMINAL has no outgoing transitions
}

// IsTransitionAllowed reports whether moving from → to is permitted.
func IsTransitionAllowed(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned when an operation is attempted from a
// state that does not allow it.
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("session cannot move from %s to %s", e.From, e.To)
}

// Is makes every InvalidTransitionError match ErrInvalidTransition.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
