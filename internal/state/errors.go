package state

import (
	"errors"

	"github.com/dshills/inkwell/internal/transform"
)

// Errors returned by state operations.
var (
	// ErrStaleBaseState indicates a transaction was applied to a state
	// other than the one it was created from.
	ErrStaleBaseState = errors.New("transaction base state is stale")

	// ErrAlreadyApplied indicates a transaction was applied twice.
	ErrAlreadyApplied = errors.New("transaction already applied")

	// ErrInvalidSelection indicates a selection could not be created.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrFrozen indicates a change to an applied transaction.
	ErrFrozen = transform.ErrFrozen
)
