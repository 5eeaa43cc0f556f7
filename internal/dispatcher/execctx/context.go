// Package execctx provides the execution context for action handlers.
package execctx

import (
	"log/slog"

	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/state"
)

// EditorInterface abstracts the editor for handlers.
type EditorInterface interface {
	// State returns the current editor state.
	State() *state.State

	// Execute runs a command and applies its transaction.
	Execute(cmd commands.Command) (bool, error)

	// Enabled reports whether a command applies without running it.
	Enabled(cmd commands.Command) bool

	// History
	Undo() error
	Redo() error
	CanUndo() bool
	CanRedo() bool

	IsReadOnly() bool
}

// ExecutionContext provides context for action execution.
type ExecutionContext struct {
	// Editor is the editor the action runs against.
	Editor EditorInterface

	// Logger receives handler diagnostics.
	Logger *slog.Logger

	// DryRun asks handlers to report applicability without applying changes.
	DryRun bool

	// Data holds handler-specific context data.
	Data map[string]any
}

// New creates a new execution context.
func New(editor EditorInterface) *ExecutionContext {
	return &ExecutionContext{
		Editor: editor,
		Logger: slog.Default(),
		Data:   make(map[string]any),
	}
}

// WithLogger returns the context with the logger set.
func (ctx *ExecutionContext) WithLogger(logger *slog.Logger) *ExecutionContext {
	if logger != nil {
		ctx.Logger = logger
	}
	return ctx
}

// WithDryRun returns the context with dry run set.
func (ctx *ExecutionContext) WithDryRun(dryRun bool) *ExecutionContext {
	ctx.DryRun = dryRun
	return ctx
}

// State returns the editor state, or nil without an editor.
func (ctx *ExecutionContext) State() *state.State {
	if ctx.Editor == nil {
		return nil
	}
	return ctx.Editor.State()
}

// IsReadOnly returns true if the editor is read-only.
func (ctx *ExecutionContext) IsReadOnly() bool {
	return ctx.Editor != nil && ctx.Editor.IsReadOnly()
}

// SetData stores handler-specific data.
func (ctx *ExecutionContext) SetData(key string, value any) {
	if ctx.Data == nil {
		ctx.Data = make(map[string]any)
	}
	ctx.Data[key] = value
}

// GetData retrieves handler-specific data.
func (ctx *ExecutionContext) GetData(key string) (any, bool) {
	if ctx.Data == nil {
		return nil, false
	}
	v, ok := ctx.Data[key]
	return v, ok
}

// GetDataString retrieves a string value from context data.
func (ctx *ExecutionContext) GetDataString(key string) string {
	if v, ok := ctx.GetData(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Validate checks that the context has an editor.
func (ctx *ExecutionContext) Validate() error {
	if ctx.Editor == nil {
		return ErrMissingEditor
	}
	return nil
}

// ValidateForEdit checks that the context can change the document.
func (ctx *ExecutionContext) ValidateForEdit() error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.IsReadOnly() {
		return ErrReadOnly
	}
	return nil
}
