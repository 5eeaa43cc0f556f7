package keymap

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Normalize returns the canonical form of a key name. mac selects what
// "Mod" stands for.
func Normalize(name string, mac bool) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty key name")
	}
	parts := strings.Split(name, "-")
	result := parts[len(parts)-1]
	if result == "" && len(parts) > 1 {
		// "Mod--" splits into "Mod", "", "".
		result = "-"
		parts = parts[:len(parts)-1]
	}
	if result == "Space" {
		result = " "
	}
	var alt, ctrl, meta, shift bool
	for _, mod := range parts[:len(parts)-1] {
		switch strings.ToLower(mod) {
		case "cmd", "meta", "m":
			meta = true
		case "a", "alt":
			alt = true
		case "c", "ctrl", "control":
			ctrl = true
		case "s", "shift":
			shift = true
		case "mod":
			if mac {
				meta = true
			} else {
				ctrl = true
			}
		case "":
			return "", fmt.Errorf("key %q: empty modifier", name)
		default:
			return "", fmt.Errorf("key %q: unknown modifier %q", name, mod)
		}
	}
	if shift && utf8.RuneCountInString(result) == 1 {
		result = strings.ToLower(result)
	}
	var sb strings.Builder
	if alt {
		sb.WriteString("Alt-")
	}
	if ctrl {
		sb.WriteString("Ctrl-")
	}
	if meta {
		sb.WriteString("Meta-")
	}
	if shift {
		sb.WriteString("Shift-")
	}
	sb.WriteString(result)
	return sb.String(), nil
}
