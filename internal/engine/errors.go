package engine

import (
	"errors"

	"github.com/dshills/inkwell/internal/engine/history"
)

// Errors returned by editor operations.
var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo

	// ErrReadOnly indicates a document change was attempted on a read-only editor.
	ErrReadOnly = errors.New("editor is read-only")

	// ErrClosed indicates the editor was closed.
	ErrClosed = errors.New("editor is closed")

	// ErrNotCodeBlock indicates no code block starts at the given position.
	ErrNotCodeBlock = errors.New("no code block at position")

	// ErrUnknownFormat indicates an unsupported document format.
	ErrUnknownFormat = errors.New("unknown document format")
)
