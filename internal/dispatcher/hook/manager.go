package hook

import (
	"slices"
	"sync"

	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
)

// Manager manages dispatch hooks with priority-based ordering.
type Manager struct {
	mu   sync.RWMutex
	pre  []PreDispatchHook
	post []PostDispatchHook
}

// NewManager creates a new hook manager.
func NewManager() *Manager {
	return &Manager{}
}

// upsert replaces the hook named like h or appends it, keeping list
// stably sorted; desc sorts higher priorities first.
func upsert[T Hook](list []T, h T, desc bool) []T {
	if i := slices.IndexFunc(list, func(x T) bool { return x.Name() == h.Name() }); i >= 0 {
		list[i] = h
	} else {
		list = append(list, h)
	}
	slices.SortStableFunc(list, func(a, b T) int {
		if desc {
			return b.Priority() - a.Priority()
		}
		return a.Priority() - b.Priority()
	})
	return list
}

func remove[T Hook](list []T, name string) ([]T, bool) {
	i := slices.IndexFunc(list, func(x T) bool { return x.Name() == name })
	if i < 0 {
		return list, false
	}
	return slices.Delete(list, i, i+1), true
}

func names[T Hook](list []T) []string {
	out := make([]string, len(list))
	for i, h := range list {
		out[i] = h.Name()
	}
	return out
}

// RegisterPre adds a pre-dispatch hook. Higher priorities run first.
func (m *Manager) RegisterPre(h PreDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pre = upsert(m.pre, h, true)
}

// RegisterPost adds a post-dispatch hook. Higher priorities run last.
func (m *Manager) RegisterPost(h PostDispatchHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.post = upsert(m.post, h, false)
}

// Register adds h to every list whose interface it implements.
func (m *Manager) Register(h Hook) {
	if pre, ok := h.(PreDispatchHook); ok {
		m.RegisterPre(pre)
	}
	if post, ok := h.(PostDispatchHook); ok {
		m.RegisterPost(post)
	}
}

// UnregisterPre removes a pre-dispatch hook by name.
func (m *Manager) UnregisterPre(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.pre, ok = remove(m.pre, name)
	return ok
}

// UnregisterPost removes a post-dispatch hook by name.
func (m *Manager) UnregisterPost(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ok bool
	m.post, ok = remove(m.post, name)
	return ok
}

// Unregister removes a hook by name from both lists.
func (m *Manager) Unregister(name string) bool {
	pre := m.UnregisterPre(name)
	post := m.UnregisterPost(name)
	return pre || post
}

// RunPreDispatch runs the pre-dispatch hooks and reports whether dispatch
// should continue. The first hook returning false stops the run.
func (m *Manager) RunPreDispatch(action *input.Action, ctx *execctx.ExecutionContext) bool {
	m.mu.RLock()
	hooks := slices.Clone(m.pre)
	m.mu.RUnlock()

	for _, h := range hooks {
		if !h.PreDispatch(action, ctx) {
			return false
		}
	}
	return true
}

// RunPostDispatch runs the post-dispatch hooks.
func (m *Manager) RunPostDispatch(action *input.Action, ctx *execctx.ExecutionContext, result *handler.Result) {
	m.mu.RLock()
	hooks := slices.Clone(m.post)
	m.mu.RUnlock()

	for _, h := range hooks {
		h.PostDispatch(action, ctx, result)
	}
}

// PreHookCount returns the number of registered pre-dispatch hooks.
func (m *Manager) PreHookCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pre)
}

// PostHookCount returns the number of registered post-dispatch hooks.
func (m *Manager) PostHookCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.post)
}

// PreHookNames returns the pre-dispatch hook names in run order.
func (m *Manager) PreHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return names(m.pre)
}

// PostHookNames returns the post-dispatch hook names in run order.
func (m *Manager) PostHookNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return names(m.post)
}

// Clear removes all hooks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pre = nil
	m.post = nil
}
