package replay

import (
	"errors"
	"fmt"

	"uirecorder/internal/locator"
)

var (
	// ErrElementNotFound is the one per-step failure the runner handles:
	// the locator did not resolve within its wait.
	ErrElementNotFound = errors.New("element not found")
	ErrInvalidStep     = errors.New("invalid step")
)

// StepError reports the step a run stopped at.
type StepError struct {
	Step       int
	Action     Action
	Locator    locator.Locator
	Screenshot string
	Err        error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("Test failed at step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the 1-based step number carried by err, or 0.
func FailedStep(err error) int {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step
	}
	return 0
}
