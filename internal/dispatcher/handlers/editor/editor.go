package editor

import (
	"errors"

	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/schema"
)

// Action IDs for editor operations.
const (
	ActionUndo           = "Undo"
	ActionRedo           = "Redo"
	ActionSelectAll      = "SelectAll"
	ActionSplitBlock     = "SplitBlock"
	ActionDeleteBackward = "DeleteBackward"
	ActionDeleteForward  = "DeleteForward"
)

// Handlers returns the editor handlers.
func Handlers() []handler.Handler {
	return []handler.Handler{
		NewHistoryHandler(ActionUndo),
		NewHistoryHandler(ActionRedo),
		handler.Command(ActionSelectAll, fixed(commands.SelectAll()), nil),
		handler.Command(ActionSplitBlock, fixed(commands.SplitBlock()), nil),
		handler.Command(ActionDeleteBackward, fixed(commands.DeleteBackward()), nil),
		handler.Command(ActionDeleteForward, fixed(commands.DeleteForward()), nil),
	}
}

func fixed(cmd commands.Command) handler.BuildFunc {
	return func(input.Action, *schema.Schema) (commands.Command, error) {
		return cmd, nil
	}
}

// HistoryHandler handles undo and redo.
type HistoryHandler struct {
	action string
}

// NewHistoryHandler creates a handler for ActionUndo or ActionRedo.
func NewHistoryHandler(action string) *HistoryHandler {
	return &HistoryHandler{action: action}
}

// Action implements handler.Named.
func (h *HistoryHandler) Action() string {
	return h.action
}

// CanHandle implements handler.Handler.
func (h *HistoryHandler) CanHandle(actionName string) bool {
	return actionName == h.action
}

// Priority implements handler.Handler.
func (h *HistoryHandler) Priority() int { return 0 }

// Enabled implements handler.Enabler.
func (h *HistoryHandler) Enabled(_ input.Action, ctx *execctx.ExecutionContext) bool {
	if ctx.Validate() != nil {
		return false
	}
	if h.action == ActionUndo {
		return ctx.Editor.CanUndo()
	}
	return ctx.Editor.CanRedo()
}

// Handle implements handler.Handler.
func (h *HistoryHandler) Handle(action input.Action, ctx *execctx.ExecutionContext) handler.Result {
	if err := ctx.ValidateForEdit(); err != nil {
		return handler.Error(err)
	}
	if ctx.DryRun {
		if h.Enabled(action, ctx) {
			return handler.Success()
		}
		return handler.NoOp()
	}

	before := ctx.State().Doc()
	var err error
	if h.action == ActionUndo {
		err = ctx.Editor.Undo()
	} else {
		err = ctx.Editor.Redo()
	}
	switch {
	case errors.Is(err, engine.ErrNothingToUndo), errors.Is(err, engine.ErrNothingToRedo):
		return handler.NoOpWithMessage(err.Error())
	case err != nil:
		return handler.Error(err)
	}
	return handler.Success().WithDocChanged(ctx.State().Doc() != before)
}
