package lua

import "errors"

// Errors for script execution.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrCallLimit is returned when a script makes more host calls than
	// its budget allows.
	ErrCallLimit = errors.New("lua host call limit exceeded")

	// ErrNoEditor is returned when a host is built without an editor.
	ErrNoEditor = errors.New("lua host requires an editor")
)
