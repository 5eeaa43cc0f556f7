package dispatcher

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/dispatcher/handlers/block"
	"github.com/dshills/inkwell/internal/dispatcher/handlers/editor"
	"github.com/dshills/inkwell/internal/dispatcher/handlers/insert"
	"github.com/dshills/inkwell/internal/dispatcher/handlers/mark"
	"github.com/dshills/inkwell/internal/dispatcher/handlers/table"
	"github.com/dshills/inkwell/internal/dispatcher/hook"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/input/keymap"
)

// Dispatcher routes actions to handlers and coordinates execution.
type Dispatcher struct {
	mu sync.RWMutex

	registry *Registry
	keymaps  *keymap.Registry
	hooks    *hook.Manager

	editor execctx.EditorInterface

	config Config
	logger *slog.Logger

	metrics    *Metrics
	prometheus *PrometheusMetrics
	regErr     error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithEditor sets the editor actions run against.
func WithEditor(ed execctx.EditorInterface) Option {
	return func(d *Dispatcher) { d.editor = ed }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithKeymaps sets the keymap registry used by DispatchKey.
func WithKeymaps(r *keymap.Registry) Option {
	return func(d *Dispatcher) { d.keymaps = r }
}

// WithHookManager sets the hook manager.
func WithHookManager(m *hook.Manager) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.hooks = m
		}
	}
}

// WithRegisterer exports prometheus metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(d *Dispatcher) {
		d.prometheus, d.regErr = NewPrometheusMetrics(reg)
	}
}

// New creates a dispatcher with the built-in command handlers registered.
func New(config Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(),
		hooks:    hook.NewManager(),
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	if d.regErr != nil {
		d.logger.Warn("prometheus metrics disabled", "error", d.regErr)
	}
	if d.keymaps == nil {
		d.keymaps = keymap.NewRegistry(config.Mac)
		if config.DefaultKeymaps {
			if err := keymap.LoadDefaults(d.keymaps); err != nil {
				d.logger.Error("loading default keymaps", "error", err)
			}
		}
	}

	for _, hs := range [][]handler.Handler{
		mark.Handlers(),
		block.Handlers(),
		insert.Handlers(),
		table.Handlers(),
		editor.Handlers(),
	} {
		if err := d.registry.RegisterAll(hs...); err != nil {
			d.logger.Error("registering handlers", "error", err)
		}
	}
	return d
}

// NewWithDefaults creates a dispatcher with default configuration.
func NewWithDefaults(opts ...Option) *Dispatcher {
	return New(DefaultConfig(), opts...)
}

// SetEditor sets the editor actions run against.
func (d *Dispatcher) SetEditor(ed execctx.EditorInterface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.editor = ed
}

// Editor returns the editor.
func (d *Dispatcher) Editor() execctx.EditorInterface {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.editor
}

// Dispatch runs command id with positional parameters.
func (d *Dispatcher) Dispatch(id string, params ...any) handler.Result {
	return d.DispatchAction(input.NewAction(id, params...))
}

// DispatchAction executes an action synchronously.
func (d *Dispatcher) DispatchAction(action input.Action) handler.Result {
	start := time.Now()
	ctx := d.buildContext(false)

	result := d.run(&action, ctx)

	if d.metrics != nil {
		d.metrics.RecordDispatch(action.Name, time.Since(start), result.Status)
	}
	if d.prometheus != nil {
		d.prometheus.RecordDispatch(action.Name, time.Since(start), result.Status)
	}
	return result
}

func (d *Dispatcher) run(action *input.Action, ctx *execctx.ExecutionContext) handler.Result {
	if action.Name == "" {
		return handler.Error(ErrInvalidAction)
	}
	if !d.hooks.RunPreDispatch(action, ctx) {
		return handler.Result{Status: handler.StatusCancelled, Error: ErrActionCancelled, Message: "cancelled by hook"}
	}

	h := d.registry.Get(action.Name)
	if h == nil {
		return handler.Error(fmt.Errorf("%w: %s", ErrNoHandler, action.Name))
	}

	var result handler.Result
	if d.config.RecoverFromPanic {
		result = d.executeWithRecovery(h, *action, ctx)
	} else {
		result = h.Handle(*action, ctx)
	}

	d.hooks.RunPostDispatch(action, ctx, &result)
	return result
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(h handler.Handler, action input.Action, ctx *execctx.ExecutionContext) (result handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			result = handler.Error(fmt.Errorf("%w for %s: %v", ErrPanic, action.Name, r))
			d.logger.Error("handler panic", "action", action.Name, "panic", r, "stack", string(stack[:n]))

			if d.metrics != nil {
				d.metrics.RecordPanic(action.Name)
			}
			if d.prometheus != nil {
				d.prometheus.RecordPanic(action.Name)
			}
		}
	}()

	return h.Handle(action, ctx)
}

// Enabled reports whether command id would apply with params, without
// changing the document.
func (d *Dispatcher) Enabled(id string, params ...any) bool {
	return d.EnabledAction(input.NewAction(id, params...))
}

// EnabledAction is Enabled for a prepared action. Pre-dispatch hooks that
// would cancel the action make it disabled. Handlers that are not an
// Enabler run with DryRun set.
func (d *Dispatcher) EnabledAction(action input.Action) bool {
	h := d.registry.Get(action.Name)
	if h == nil {
		return false
	}
	ctx := d.buildContext(true)
	if !d.hooks.RunPreDispatch(&action, ctx) {
		return false
	}

	enabled := false
	d.safely(action.Name, func() {
		if e, ok := h.(handler.Enabler); ok {
			enabled = e.Enabled(action, ctx)
			return
		}
		enabled = h.Handle(action, ctx).Status == handler.StatusOK
	})
	return enabled
}

// Active reports whether the selection already carries the effect of
// command id.
func (d *Dispatcher) Active(id string, params ...any) bool {
	h := d.registry.Get(id)
	a, ok := h.(handler.Activator)
	if !ok {
		return false
	}
	active := false
	d.safely(id, func() {
		active = a.Active(input.NewAction(id, params...), d.buildContext(true))
	})
	return active
}

// safely runs a query, logging instead of propagating a panic.
func (d *Dispatcher) safely(id string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("query panic", "action", id, "panic", r)
		}
	}()
	fn()
}

// DispatchKey runs the first enabled command bound to keys.
func (d *Dispatcher) DispatchKey(keys string) handler.Result {
	d.mu.RLock()
	km := d.keymaps
	d.mu.RUnlock()
	if km == nil {
		return handler.Error(ErrNoKeymap)
	}

	for _, b := range km.Lookup(keys) {
		action := input.NewAction(b.Action, b.Params...).WithSource(input.SourceKeyboard)
		if d.EnabledAction(action) {
			return d.DispatchAction(action)
		}
	}
	return handler.Result{Status: handler.StatusNoOp, Error: fmt.Errorf("%w: %s", ErrUnboundKey, keys)}
}

// buildContext builds an execution context around the current editor.
func (d *Dispatcher) buildContext(dryRun bool) *execctx.ExecutionContext {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return execctx.New(d.editor).WithLogger(d.logger).WithDryRun(dryRun)
}

// RegisterHandler registers a handler for an exact action name.
func (d *Dispatcher) RegisterHandler(actionName string, h handler.Handler) {
	d.registry.Register(actionName, h)
}

// RegisterHandlerFunc registers a handler function for an action name.
func (d *Dispatcher) RegisterHandlerFunc(actionName string, fn func(input.Action, *execctx.ExecutionContext) handler.Result) {
	d.registry.Register(actionName, handler.NewHandlerFunc(fn))
}

// UnregisterHandler removes the handlers for an action name.
func (d *Dispatcher) UnregisterHandler(actionName string) {
	d.registry.Unregister(actionName)
}

// Commands returns the registered command IDs, sorted.
func (d *Dispatcher) Commands() []string {
	return d.registry.List()
}

// Registry returns the handler registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Keymaps returns the keymap registry.
func (d *Dispatcher) Keymaps() *keymap.Registry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.keymaps
}

// Hooks returns the hook manager.
func (d *Dispatcher) Hooks() *hook.Manager {
	return d.hooks
}

// Metrics returns the metrics collector (nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}
