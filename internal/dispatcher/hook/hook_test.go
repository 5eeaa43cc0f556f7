package hook_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/dispatcher/hook"
	"github.com/dshills/inkwell/internal/input"
)

var errValidationFailed = errors.New("validation failed")

// TestPreDispatchFunc verifies PreDispatchFunc adapter works.
func TestPreDispatchFunc(t *testing.T) {
	called := false
	h := hook.NewPreDispatchFunc("test-pre", 100, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		called = true
		return true
	})

	if h.Name() != "test-pre" {
		t.Errorf("expected name 'test-pre', got %q", h.Name())
	}
	if h.Priority() != 100 {
		t.Errorf("expected priority 100, got %d", h.Priority())
	}

	action := &input.Action{Name: "test"}
	ctx := execctx.New(nil)

	result := h.PreDispatch(action, ctx)
	if !called {
		t.Error("expected PreDispatch to be called")
	}
	if !result {
		t.Error("expected PreDispatch to return true")
	}
}

// TestPostDispatchFunc verifies PostDispatchFunc adapter works.
func TestPostDispatchFunc(t *testing.T) {
	called := false
	h := hook.NewPostDispatchFunc("test-post", 200, func(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
		called = true
	})

	if h.Name() != "test-post" {
		t.Errorf("expected name 'test-post', got %q", h.Name())
	}
	if h.Priority() != 200 {
		t.Errorf("expected priority 200, got %d", h.Priority())
	}

	action := &input.Action{Name: "test"}
	ctx := execctx.New(nil)
	result := handler.Success()

	h.PostDispatch(action, ctx, &result)
	if !called {
		t.Error("expected PostDispatch to be called")
	}
}

// TestManagerPriorityOrdering verifies hooks run in priority order.
func TestManagerPriorityOrdering(t *testing.T) {
	m := hook.NewManager()

	var order []string

	// Register in non-priority order
	m.RegisterPre(hook.NewPreDispatchFunc("low", 10, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		order = append(order, "low")
		return true
	}))
	m.RegisterPre(hook.NewPreDispatchFunc("high", 100, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		order = append(order, "high")
		return true
	}))
	m.RegisterPre(hook.NewPreDispatchFunc("mid", 50, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		order = append(order, "mid")
		return true
	}))

	action := &input.Action{Name: "test"}
	ctx := execctx.New(nil)
	m.RunPreDispatch(action, ctx)

	// High priority should run first
	expected := []string{"high", "mid", "low"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d hooks, got %d", len(expected), len(order))
	}
	for i, name := range expected {
		if order[i] != name {
			t.Errorf("position %d: expected %q, got %q", i, name, order[i])
		}
	}
}

// TestManagerPostHookOrdering verifies post-hooks run in reverse priority order.
func TestManagerPostHookOrdering(t *testing.T) {
	m := hook.NewManager()

	var order []string

	m.RegisterPost(hook.NewPostDispatchFunc("high", 100, func(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
		order = append(order, "high")
	}))
	m.RegisterPost(hook.NewPostDispatchFunc("low", 10, func(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
		order = append(order, "low")
	}))
	m.RegisterPost(hook.NewPostDispatchFunc("mid", 50, func(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
		order = append(order, "mid")
	}))

	action := &input.Action{Name: "test"}
	ctx := execctx.New(nil)
	result := handler.Success()
	m.RunPostDispatch(action, ctx, &result)

	// Low priority should run first for post-hooks (so high can see final result)
	expected := []string{"low", "mid", "high"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d hooks, got %d", len(expected), len(order))
	}
	for i, name := range expected {
		if order[i] != name {
			t.Errorf("position %d: expected %q, got %q", i, name, order[i])
		}
	}
}

// TestManagerCancel verifies hook cancellation.
func TestManagerCancel(t *testing.T) {
	m := hook.NewManager()

	secondCalled := false

	m.RegisterPre(hook.NewPreDispatchFunc("canceller", 100, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		return false // Cancel
	}))
	m.RegisterPre(hook.NewPreDispatchFunc("second", 50, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		secondCalled = true
		return true
	}))

	action := &input.Action{Name: "test"}
	ctx := execctx.New(nil)
	result := m.RunPreDispatch(action, ctx)

	if result {
		t.Error("expected RunPreDispatch to return false when cancelled")
	}
	if secondCalled {
		t.Error("second hook should not be called after cancellation")
	}
}

// TestManagerUnregister verifies hook removal.
func TestManagerUnregister(t *testing.T) {
	m := hook.NewManager()

	m.RegisterPre(hook.NewPreDispatchFunc("hook1", 100, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		return true
	}))
	m.RegisterPre(hook.NewPreDispatchFunc("hook2", 50, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		return true
	}))

	if m.PreHookCount() != 2 {
		t.Fatalf("expected 2 hooks, got %d", m.PreHookCount())
	}

	// Unregister by name
	removed := m.UnregisterPre("hook1")
	if !removed {
		t.Error("expected hook1 to be removed")
	}

	if m.PreHookCount() != 1 {
		t.Errorf("expected 1 hook after removal, got %d", m.PreHookCount())
	}

	names := m.PreHookNames()
	if len(names) != 1 || names[0] != "hook2" {
		t.Errorf("expected hook2 to remain, got %v", names)
	}

	// Try to remove non-existent
	removed = m.UnregisterPre("nonexistent")
	if removed {
		t.Error("should not remove non-existent hook")
	}
}

// TestManagerReplaceDuplicate verifies duplicate names replace existing.
func TestManagerReplaceDuplicate(t *testing.T) {
	m := hook.NewManager()

	callCount := 0

	m.RegisterPre(hook.NewPreDispatchFunc("test", 100, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		callCount++
		return true
	}))

	// Register again with same name
	m.RegisterPre(hook.NewPreDispatchFunc("test", 200, func(action *input.Action, ctx *execctx.ExecutionContext) bool {
		callCount += 10
		return true
	}))

	if m.PreHookCount() != 1 {
		t.Errorf("expected 1 hook (replaced), got %d", m.PreHookCount())
	}

	action := &input.Action{Name: "test"}
	ctx := execctx.New(nil)
	m.RunPreDispatch(action, ctx)

	if callCount != 10 {
		t.Errorf("expected replacement hook to be called, got count %d", callCount)
	}
}

// TestManagerClear verifies clearing all hooks.
func TestManagerClear(t *testing.T) {
	m := hook.NewManager()

	m.RegisterPre(hook.NewPreDispatchFunc("pre1", 100, nil))
	m.RegisterPre(hook.NewPreDispatchFunc("pre2", 50, nil))
	m.RegisterPost(hook.NewPostDispatchFunc("post1", 100, nil))

	m.Clear()

	if m.PreHookCount() != 0 {
		t.Errorf("expected 0 pre-hooks after clear, got %d", m.PreHookCount())
	}
	if m.PostHookCount() != 0 {
		t.Errorf("expected 0 post-hooks after clear, got %d", m.PostHookCount())
	}
}

func TestAuditHook(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := hook.NewAuditHook(logger)

	if h.Priority() != hook.PriorityAudit {
		t.Errorf("expected audit priority, got %d", h.Priority())
	}

	action := input.NewAction("InsertTable", 2, 3).WithSource(input.SourceHTTP)
	ctx := execctx.New(nil)
	if !h.PreDispatch(&action, ctx) {
		t.Error("audit hook cancelled dispatch")
	}
	result := handler.Error(errValidationFailed)
	h.PostDispatch(&action, ctx, &result)

	out := buf.String()
	for _, want := range []string{"dispatch start", "action=\"InsertTable(2, 3)\"", "source=http", "status=error", "validation failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestAuditHookNilLogger(t *testing.T) {
	h := hook.NewAuditHook(nil)
	action := input.NewAction("Undo")
	result := handler.Success()

	if !h.PreDispatch(&action, execctx.New(nil)) {
		t.Error("expected dispatch to continue")
	}
	h.PostDispatch(&action, execctx.New(nil), &result)
}

func TestSourceFilterHook(t *testing.T) {
	h := hook.NewSourceFilterHook(input.SourceScript, "ToggleBold", "InsertText")

	tests := []struct {
		action input.Action
		want   bool
	}{
		{input.NewAction("ToggleBold").WithSource(input.SourceScript), true},
		{input.NewAction("Undo").WithSource(input.SourceScript), false},
		{input.NewAction("Undo").WithSource(input.SourceKeyboard), true},
		{input.NewAction("Undo"), true},
	}

	for _, tc := range tests {
		a := tc.action
		if got := h.PreDispatch(&a, execctx.New(nil)); got != tc.want {
			t.Errorf("PreDispatch(%s from %s) = %v, want %v", a.Name, a.Source, got, tc.want)
		}
	}

	h.Allow("Undo")
	a := input.NewAction("Undo").WithSource(input.SourceScript)
	if !h.PreDispatch(&a, execctx.New(nil)) {
		t.Error("expected Undo to be allowed after Allow")
	}
}

func TestHookPriorityConstants(t *testing.T) {
	if hook.PriorityAudit <= hook.PriorityFilter {
		t.Error("expected audit hooks to run before filters")
	}
}
