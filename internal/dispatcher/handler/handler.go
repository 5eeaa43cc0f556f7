// Package handler provides the handler interface and types for action dispatch.
package handler

import (
	"fmt"

	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// Handler processes a specific action or set of actions.
type Handler interface {
	// Handle executes the action and returns a result.
	Handle(action input.Action, ctx *execctx.ExecutionContext) Result

	// CanHandle returns true if this handler can process the action.
	CanHandle(actionName string) bool

	// Priority returns the handler priority (higher = checked first).
	Priority() int
}

// Named is implemented by handlers bound to a single action ID.
type Named interface {
	Action() string
}

// Enabler is implemented by handlers that can answer a dry run.
type Enabler interface {
	Enabled(action input.Action, ctx *execctx.ExecutionContext) bool
}

// Activator is implemented by handlers that report whether the current
// selection already carries their effect.
type Activator interface {
	Active(action input.Action, ctx *execctx.ExecutionContext) bool
}

// HandlerFunc is a function adapter for Handler interface.
// It allows using a simple function as a Handler.
type HandlerFunc struct {
	fn   func(action input.Action, ctx *execctx.ExecutionContext) Result
	prio int
}

// NewHandlerFunc creates a HandlerFunc from a function.
func NewHandlerFunc(fn func(action input.Action, ctx *execctx.ExecutionContext) Result) *HandlerFunc {
	return &HandlerFunc{fn: fn, prio: 0}
}

// NewHandlerFuncWithPriority creates a HandlerFunc with a specified priority.
func NewHandlerFuncWithPriority(fn func(action input.Action, ctx *execctx.ExecutionContext) Result, priority int) *HandlerFunc {
	return &HandlerFunc{fn: fn, prio: priority}
}

// Handle implements Handler.Handle.
func (f *HandlerFunc) Handle(action input.Action, ctx *execctx.ExecutionContext) Result {
	if f.fn == nil {
		return Errorf("handler function is nil")
	}
	return f.fn(action, ctx)
}

// CanHandle implements Handler.CanHandle.
// HandlerFunc always returns true; caller must ensure correct routing.
func (f *HandlerFunc) CanHandle(actionName string) bool {
	return true
}

// Priority implements Handler.Priority.
func (f *HandlerFunc) Priority() int {
	return f.prio
}

// BuildFunc builds the command for an action. Parameter errors are
// returned as *input.ParamError.
type BuildFunc func(action input.Action, sc *schema.Schema) (commands.Command, error)

// ActiveFunc reports whether an action's effect is present in st.
type ActiveFunc func(action input.Action, st *state.State) bool

// CommandHandler adapts an editing command to the Handler interface.
type CommandHandler struct {
	// ID is the command ID this handler serves.
	ID string

	// Build creates the command from the action parameters.
	Build BuildFunc

	// IsActive is the optional active query.
	IsActive ActiveFunc

	// Prio is the handler priority.
	Prio int
}

// Command creates a CommandHandler.
func Command(id string, build BuildFunc, active ActiveFunc) *CommandHandler {
	return &CommandHandler{ID: id, Build: build, IsActive: active}
}

// Handle builds the command and executes it against the editor. A command
// that does not apply yields a no-op result.
func (h *CommandHandler) Handle(action input.Action, ctx *execctx.ExecutionContext) Result {
	cmd, err := h.command(action, ctx)
	if err != nil {
		return Error(err)
	}

	if ctx.DryRun {
		if ctx.Editor.Enabled(cmd) {
			return Success()
		}
		return NoOp()
	}

	before := ctx.State().Doc()
	ok, err := ctx.Editor.Execute(cmd)
	if err != nil {
		return Error(err)
	}
	if !ok {
		return NoOpWithMessage(fmt.Sprintf("%s: not applicable", h.ID))
	}
	return Success().WithDocChanged(ctx.State().Doc() != before)
}

// Enabled implements Enabler.
func (h *CommandHandler) Enabled(action input.Action, ctx *execctx.ExecutionContext) bool {
	cmd, err := h.command(action, ctx)
	if err != nil {
		return false
	}
	return ctx.Editor.Enabled(cmd)
}

// Active implements Activator.
func (h *CommandHandler) Active(action input.Action, ctx *execctx.ExecutionContext) bool {
	if h.IsActive == nil || ctx.Validate() != nil {
		return false
	}
	return h.IsActive(action, ctx.State())
}

func (h *CommandHandler) command(action input.Action, ctx *execctx.ExecutionContext) (commands.Command, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if h.Build == nil {
		return nil, fmt.Errorf("%s: no command builder", h.ID)
	}
	return h.Build(action, ctx.State().Schema())
}

// Action implements Named.
func (h *CommandHandler) Action() string {
	return h.ID
}

// CanHandle implements Handler.CanHandle.
func (h *CommandHandler) CanHandle(actionName string) bool {
	return actionName == h.ID
}

// Priority implements Handler.Priority.
func (h *CommandHandler) Priority() int {
	return h.Prio
}
