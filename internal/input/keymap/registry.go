package keymap

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages all keymaps and provides binding lookup.
type Registry struct {
	mu sync.RWMutex

	// mac makes "Mod" mean Meta instead of Ctrl.
	mac bool

	// keymaps holds all registered keymaps in registration order.
	keymaps []*Keymap

	// index maps normalized key names to their bindings.
	index map[string][]entry
}

type entry struct {
	binding  Binding
	keymap   *Keymap
	sequence int
}

// NewRegistry creates a new keymap registry. mac selects what "Mod"
// stands for.
func NewRegistry(mac bool) *Registry {
	return &Registry{
		mac:   mac,
		index: make(map[string][]entry),
	}
}

// Register adds a keymap to the registry.
// If a keymap with the same name already exists, it is replaced.
func (r *Registry) Register(km *Keymap) error {
	if km == nil {
		return fmt.Errorf("cannot register nil keymap")
	}
	if err := km.Validate(); err != nil {
		return fmt.Errorf("keymap %q: %w", km.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unregisterLocked(km.Name)
	r.keymaps = append(r.keymaps, km.Clone())
	r.reindexLocked()
	return nil
}

// Unregister removes a keymap from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unregisterLocked(name) {
		r.reindexLocked()
	}
}

// unregisterLocked removes a keymap without acquiring the lock.
// Caller must hold the write lock.
func (r *Registry) unregisterLocked(name string) bool {
	for i, km := range r.keymaps {
		if km.Name == name {
			r.keymaps = append(r.keymaps[:i:i], r.keymaps[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) reindexLocked() {
	r.index = make(map[string][]entry)
	seq := 0
	for _, km := range r.keymaps {
		for _, b := range km.Bindings {
			// Validated on registration.
			keys, _ := Normalize(b.Keys, r.mac)
			r.index[keys] = append(r.index[keys], entry{binding: b, keymap: km, sequence: seq})
			seq++
		}
	}
	for _, entries := range r.index {
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i], entries[j]
			if a.keymap.Priority != b.keymap.Priority {
				return a.keymap.Priority > b.keymap.Priority
			}
			if a.binding.Priority != b.binding.Priority {
				return a.binding.Priority > b.binding.Priority
			}
			return a.sequence < b.sequence
		})
	}
}

// Get returns a keymap by name.
func (r *Registry) Get(name string) *Keymap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, km := range r.keymaps {
		if km.Name == name {
			return km.Clone()
		}
	}
	return nil
}

// Names returns the registered keymap names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.keymaps))
	for i, km := range r.keymaps {
		names[i] = km.Name
	}
	return names
}

// Lookup returns the bindings of a key in precedence order. Unknown or
// malformed keys have none.
func (r *Registry) Lookup(keys string) []Binding {
	norm, err := Normalize(keys, r.mac)
	if err != nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.index[norm]
	result := make([]Binding, len(entries))
	for i, e := range entries {
		result[i] = e.binding
	}
	return result
}

// BindingsFor returns every binding of action along with its normalized
// key.
func (r *Registry) BindingsFor(action string) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Binding
	for keys, entries := range r.index {
		for _, e := range entries {
			if e.binding.Action == action {
				b := e.binding
				b.Keys = keys
				result = append(result, b)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Keys < result[j].Keys })
	return result
}
