package hook

import (
	"log/slog"
	"sync"

	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
)

// Standard hook priorities.
const (
	PriorityAudit  = 1000 // Runs first (pre) / last (post)
	PriorityFilter = 900  // Reject disallowed actions early
)

// AuditHook logs all dispatched actions.
type AuditHook struct {
	logger *slog.Logger
}

// NewAuditHook creates an audit hook with the given logger.
func NewAuditHook(logger *slog.Logger) *AuditHook {
	return &AuditHook{logger: logger}
}

// Name implements Hook.
func (h *AuditHook) Name() string { return "audit" }

// Priority implements Hook.
func (h *AuditHook) Priority() int { return PriorityAudit }

// PreDispatch logs the action being dispatched.
func (h *AuditHook) PreDispatch(action *input.Action, ctx *execctx.ExecutionContext) bool {
	if h.logger != nil {
		h.logger.Debug("dispatch start",
			"action", action.String(),
			"source", action.Source.String(),
			"dryRun", ctx.DryRun,
		)
	}
	return true
}

// PostDispatch logs the dispatch result.
func (h *AuditHook) PostDispatch(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
	if h.logger == nil {
		return
	}
	if result.Error != nil {
		h.logger.Error("dispatch failed",
			"action", action.Name,
			"status", result.Status.String(),
			"error", result.Error,
		)
		return
	}
	h.logger.Debug("dispatch complete",
		"action", action.Name,
		"status", result.Status.String(),
		"docChanged", result.DocChanged,
	)
}

// SourceFilterHook restricts the actions one source may run. Actions from
// other sources pass through.
type SourceFilterHook struct {
	mu      sync.RWMutex
	source  input.ActionSource
	allowed map[string]bool
}

// NewSourceFilterHook creates a filter allowing only the listed actions
// from source.
func NewSourceFilterHook(source input.ActionSource, allowed ...string) *SourceFilterHook {
	h := &SourceFilterHook{source: source, allowed: make(map[string]bool)}
	h.Allow(allowed...)
	return h
}

// Allow adds actions to the allow list.
func (h *SourceFilterHook) Allow(names ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range names {
		h.allowed[n] = true
	}
}

// Name implements Hook.
func (h *SourceFilterHook) Name() string { return "filter-" + h.source.String() }

// Priority implements Hook.
func (h *SourceFilterHook) Priority() int { return PriorityFilter }

// PreDispatch cancels actions from the filtered source that are not allowed.
func (h *SourceFilterHook) PreDispatch(action *input.Action, _ *execctx.ExecutionContext) bool {
	if action.Source != h.source {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.allowed[action.Name]
}
