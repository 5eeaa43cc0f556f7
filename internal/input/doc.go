// Package input defines the actions callers send to the dispatcher.
//
// An action names a command by its stable ID and carries positional
// parameters. Parameters come from Go callers, key bindings, Lua scripts
// and JSON request bodies, so numbers may arrive as int, int64 or float64;
// the typed accessors accept all of them.
//
//	a := input.NewAction("ToggleHeading", 2)
//	level, err := a.Int(0, 1) // 2, nil
//
// Key bindings live in the keymap subpackage.
package input
