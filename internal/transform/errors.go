package transform

import (
	"errors"
	"fmt"
)

// Errors returned by steps and transforms.
var (
	// ErrStepFailed indicates a step could not be applied to a document.
	ErrStepFailed = errors.New("step failed")

	// ErrUnknownStep indicates a serialized step of an unregistered type.
	ErrUnknownStep = errors.New("unknown step type")

	// ErrNotApplicable indicates a structural transform that is not
	// possible for the given range.
	ErrNotApplicable = errors.New("transform not applicable")

	// ErrFrozen indicates a step added to a frozen transform.
	ErrFrozen = errors.New("transform is frozen")
)

// StepError describes why a step failed.
type StepError struct {
	Step   string
	Reason string
	Err    error
}

// Error implements error.
func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s step failed: %s: %v", e.Step, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s step failed: %s", e.Step, e.Reason)
}

// Unwrap returns the underlying error and ErrStepFailed.
func (e *StepError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrStepFailed, e.Err}
	}
	return []error{ErrStepFailed}
}

func stepFailed(step, reason string, err error) error {
	return &StepError{Step: step, Reason: reason, Err: err}
}

func notApplicable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotApplicable, fmt.Sprintf(format, args...))
}
