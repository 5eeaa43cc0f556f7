// Package mark provides handlers for inline formatting.
//
// Action IDs:
//   - ToggleBold, ToggleItalic, ToggleCode, ToggleStrikethrough
//   - ToggleSubscript, ToggleSuperscript, ToggleInserted, ToggleHighlight
//   - ToggleSpan [class]
//   - SetLink [href, title], Unlink
//   - ClearFormatting
//
// Every toggle reports itself active when the selection already carries
// its mark.
package mark
