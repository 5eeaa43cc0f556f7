package execctx

import "errors"

// Context validation errors.
var (
	// ErrMissingEditor indicates the editor is required but not set.
	ErrMissingEditor = errors.New("execution context: editor is required")

	// ErrReadOnly indicates the editor is read-only.
	ErrReadOnly = errors.New("execution context: editor is read-only")
)
