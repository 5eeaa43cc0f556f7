package hook

import (
	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
)

// Hook is the base interface for all dispatch hooks.
type Hook interface {
	// Name identifies the hook. Registering a second hook with the same
	// name replaces the first.
	Name() string

	// Priority orders hooks: 1000+ system, 500-999 server and scripting,
	// 0-499 user hooks.
	Priority() int
}

// PreDispatchHook runs before an action is dispatched. It may rewrite the
// action parameters; returning false cancels the dispatch.
type PreDispatchHook interface {
	Hook
	PreDispatch(action *input.Action, ctx *execctx.ExecutionContext) bool
}

// PostDispatchHook runs after dispatch and may inspect or modify the result.
type PostDispatchHook interface {
	Hook
	PostDispatch(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result)
}

// CombinedHook implements both PreDispatchHook and PostDispatchHook.
type CombinedHook interface {
	PreDispatchHook
	PostDispatchHook
}

type named struct {
	name     string
	priority int
}

func (n named) Name() string  { return n.name }
func (n named) Priority() int { return n.priority }

// PreDispatchFunc wraps a function as a PreDispatchHook.
type PreDispatchFunc struct {
	named
	fn func(action *input.Action, ctx *execctx.ExecutionContext) bool
}

// NewPreDispatchFunc creates a PreDispatchFunc hook. A nil fn always
// continues.
func NewPreDispatchFunc(name string, priority int, fn func(action *input.Action, ctx *execctx.ExecutionContext) bool) *PreDispatchFunc {
	return &PreDispatchFunc{named: named{name, priority}, fn: fn}
}

// PreDispatch implements PreDispatchHook.
func (f *PreDispatchFunc) PreDispatch(action *input.Action, ctx *execctx.ExecutionContext) bool {
	return f.fn == nil || f.fn(action, ctx)
}

// PostDispatchFunc wraps a function as a PostDispatchHook.
type PostDispatchFunc struct {
	named
	fn func(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result)
}

// NewPostDispatchFunc creates a PostDispatchFunc hook.
func NewPostDispatchFunc(name string, priority int, fn func(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result)) *PostDispatchFunc {
	return &PostDispatchFunc{named: named{name, priority}, fn: fn}
}

// PostDispatch implements PostDispatchHook.
func (f *PostDispatchFunc) PostDispatch(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
	if f.fn != nil {
		f.fn(action, ctx, result)
	}
}
