package keymap

// Binding represents a single key-to-action mapping.
type Binding struct {
	// Keys is the key name that triggers this binding, e.g. "Mod-b".
	Keys string

	// Action is the command ID to execute.
	Action string

	// Params are fixed parameters for the action.
	Params []any

	// Description provides documentation for the binding.
	Description string

	// Priority orders bindings of the same key within a keymap.
	// Higher priority is tried first. Default is 0.
	Priority int
}

// NewBinding creates a new binding with the given keys and action.
func NewBinding(keys, action string, params ...any) Binding {
	return Binding{
		Keys:   keys,
		Action: action,
		Params: params,
	}
}

// WithDescription sets the description for this binding.
func (b Binding) WithDescription(desc string) Binding {
	b.Description = desc
	return b
}

// WithPriority sets the priority for this binding.
func (b Binding) WithPriority(priority int) Binding {
	b.Priority = priority
	return b
}
