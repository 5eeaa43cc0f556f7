package lua

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/inkwell/internal/dispatcher"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/dispatcher/hook"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/input"
)

// ModuleName is the name of the module scripts use to reach the editor.
const ModuleName = "inkwell"

// Host runs scripts against an editor through a dispatcher. Commands a
// script dispatches carry input.SourceScript.
type Host struct {
	state      *State
	editor     *engine.Editor
	dispatcher *dispatcher.Dispatcher
	logger     *slog.Logger

	stateOpts []StateOption
	rollback  bool
	allowed   []string
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger used by inkwell.log and for script errors.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithTimeout bounds each script execution.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.stateOpts = append(h.stateOpts, WithExecutionTimeout(d))
	}
}

// WithLimit bounds the host calls of each script execution.
func WithLimit(n int64) Option {
	return func(h *Host) {
		h.stateOpts = append(h.stateOpts, WithCallLimit(n))
	}
}

// WithPrintOutput sets where print writes.
func WithPrintOutput(w io.Writer) Option {
	return func(h *Host) {
		h.stateOpts = append(h.stateOpts, WithOutput(w))
	}
}

// WithRollback undoes the changes of a script that fails.
func WithRollback(on bool) Option {
	return func(h *Host) { h.rollback = on }
}

// WithAllowedCommands restricts scripts to the named commands. An empty
// list allows every command.
func WithAllowedCommands(names ...string) Option {
	return func(h *Host) { h.allowed = append(h.allowed, names...) }
}

// NewHost creates a host for ed. A nil dispatcher gets a default one
// bound to ed.
func NewHost(ed *engine.Editor, d *dispatcher.Dispatcher, opts ...Option) (*Host, error) {
	if ed == nil {
		return nil, ErrNoEditor
	}
	h := &Host{editor: ed, dispatcher: d, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	if h.dispatcher == nil {
		h.dispatcher = dispatcher.NewWithDefaults(dispatcher.WithEditor(ed), dispatcher.WithLogger(h.logger))
	}
	if len(h.allowed) > 0 {
		h.dispatcher.Hooks().RegisterPre(hook.NewSourceFilterHook(input.SourceScript, h.allowed...))
	}

	st, err := NewState(h.stateOpts...)
	if err != nil {
		return nil, err
	}
	h.state = st
	st.RegisterModule(ModuleName, h.module())
	return h, nil
}

// Run executes the script at path.
func (h *Host) Run(ctx context.Context, path string) error {
	return h.run(func() error { return h.state.DoFile(ctx, path) }, "path", path)
}

// RunString executes Lua source.
func (h *Host) RunString(ctx context.Context, code string) error {
	return h.run(func() error { return h.state.DoString(ctx, code) })
}

func (h *Host) run(exec func() error, attrs ...any) error {
	cp := h.editor.Checkpoint()
	err := exec()
	if err == nil {
		return nil
	}
	h.logger.Error("script failed", append(attrs, "error", err)...)
	if h.rollback {
		n, uerr := h.editor.UndoToCheckpoint(cp)
		if uerr != nil {
			h.logger.Error("script rollback failed", append(attrs, "error", uerr)...)
		} else if n > 0 {
			h.logger.Info("script changes rolled back", append(attrs, "entries", n)...)
		}
	}
	return err
}

// Call calls a global function a script defined, converting arguments
// and results between Go and Lua.
func (h *Host) Call(ctx context.Context, fn string, params ...any) ([]any, error) {
	lv := make([]lua.LValue, len(params))
	for i, p := range params {
		lv[i] = ToLuaValue(h.state.L, p)
	}
	results, err := h.state.Call(ctx, fn, lv...)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(results))
	for i, r := range results {
		out[i] = ToGoValue(r)
	}
	return out, nil
}

// Dispatcher returns the dispatcher scripts run commands through.
func (h *Host) Dispatcher() *dispatcher.Dispatcher {
	return h.dispatcher
}

// State returns the underlying script state.
func (h *Host) State() *State {
	return h.state
}

// Close releases the script state.
func (h *Host) Close() error {
	return h.state.Close()
}

func (h *Host) module() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"dispatch":     h.luaDispatch,
		"enabled":      h.luaEnabled,
		"active":       h.luaActive,
		"key":          h.luaKey,
		"commands":     h.luaCommands,
		"markdown":     h.luaMarkdown,
		"html":         h.luaHTML,
		"set_markdown": h.luaSetMarkdown,
		"text":         h.luaText,
		"log":          h.luaLog,
	}
}

func scriptAction(L *lua.LState) input.Action {
	return input.NewAction(L.CheckString(1), args(L, 2)...).WithSource(input.SourceScript)
}

// inkwell.dispatch(id, ...) -> {ok, status, changed, message, error}
func (h *Host) luaDispatch(L *lua.LState) int {
	L.Push(resultTable(L, h.dispatcher.DispatchAction(scriptAction(L))))
	return 1
}

// inkwell.enabled(id, ...) -> bool
func (h *Host) luaEnabled(L *lua.LState) int {
	L.Push(lua.LBool(h.dispatcher.EnabledAction(scriptAction(L))))
	return 1
}

// inkwell.active(id, ...) -> bool
func (h *Host) luaActive(L *lua.LState) int {
	a := scriptAction(L)
	L.Push(lua.LBool(h.dispatcher.Active(a.Name, a.Params...)))
	return 1
}

// inkwell.key(keys) -> result table
func (h *Host) luaKey(L *lua.LState) int {
	L.Push(resultTable(L, h.dispatcher.DispatchKey(L.CheckString(1))))
	return 1
}

func (h *Host) luaCommands(L *lua.LState) int {
	L.Push(ToLuaValue(L, h.dispatcher.Commands()))
	return 1
}

func (h *Host) luaMarkdown(L *lua.LState) int {
	L.Push(lua.LString(h.editor.Markdown()))
	return 1
}

func (h *Host) luaHTML(L *lua.LState) int {
	L.Push(lua.LString(h.editor.HTML()))
	return 1
}

func (h *Host) luaText(L *lua.LState) int {
	L.Push(lua.LString(h.editor.Doc().TextContent()))
	return 1
}

// inkwell.set_markdown(src) replaces the document. Errors are raised.
func (h *Host) luaSetMarkdown(L *lua.LState) int {
	if err := h.editor.SetMarkdown(L.CheckString(1)); err != nil {
		L.RaiseError("set_markdown: %v", err)
	}
	return 0
}

// inkwell.log(level, msg, key, value, ...)
func (h *Host) luaLog(L *lua.LState) int {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(L.CheckString(1)))); err != nil {
		L.ArgError(1, "unknown log level")
		return 0
	}
	msg := L.CheckString(2)
	attrs := args(L, 3)
	h.logger.Log(context.Background(), level, msg, append([]any{"source", "script"}, attrs...)...)
	return 0
}

func resultTable(L *lua.LState, r handler.Result) *lua.LTable {
	t := L.CreateTable(0, 5)
	t.RawSetString("ok", lua.LBool(r.IsOK()))
	t.RawSetString("status", lua.LString(r.Status.String()))
	t.RawSetString("changed", lua.LBool(r.DocChanged))
	if r.Message != "" {
		t.RawSetString("message", lua.LString(r.Message))
	}
	if r.Error != nil {
		t.RawSetString("error", lua.LString(r.Error.Error()))
	}
	return t
}
