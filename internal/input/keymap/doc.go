// Package keymap provides key binding management for the Inkwell editor.
//
// The keymap system maps key names to command IDs. A key may be bound
// several times; the dispatcher tries the bindings in precedence order
// and runs the first whose command applies, so Enter can continue a list
// item in a list and split a paragraph elsewhere.
//
// # Key Names
//
// Key names are dash-separated modifiers followed by a key:
//
//	"Mod-b"       - Ctrl+B, or Cmd+B on macOS
//	"Shift-Mod-z" - Shift+Ctrl+Z
//	"Alt-ArrowUp" - Alt+Up
//	"Mod--"       - Ctrl+minus
//
// Modifiers may be written in any order and are normalized to
// Alt-Ctrl-Meta-Shift order. Single-letter keys with Shift are stored in
// lower case.
//
// # Binding Precedence
//
// When several bindings match a key, they are ordered by:
//  1. Keymap priority (higher first)
//  2. Binding priority (higher first)
//  3. Registration order
package keymap
