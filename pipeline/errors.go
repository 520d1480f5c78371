package pipeline

import (
	"errors"
	"fmt"
)

// ErrUsage is the sentinel behind every UsageError
var ErrUsage = errors.New("pipeline: invalid usage")

// UsageError reports a pipeline or continuation driven more than once, or
// after the pipeline finished. It is a programming defect.
type UsageError struct {
	Op    string // "execute" or "continue"
	Step  int    // index of the behaviour owning the continuation, -1 for execute
	State State
}

func (e *UsageError) Error() string {
	if e.Op == "execute" {
		return fmt.Sprintf("pipeline: execute called on %s pipeline", e.State)
	}
	if e.State != StateRunning {
		return fmt.Sprintf("pipeline: continuation of step %d invoked on %s pipeline", e.Step, e.State)
	}
	return fmt.Sprintf("pipeline: continuation of step %d invoked more than once", e.Step)
}

func (e *UsageError) Unwrap() error {
	return ErrUsage
}
