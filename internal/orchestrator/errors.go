package orchestrator

import "errors"

// ErrSuperseded is returned by a run or refinement that finished after a
// newer run started. Its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer analysis run")

// ValidationError is a failed precondition. No network call was made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "cannot start analysis: " + e.Reason
}
