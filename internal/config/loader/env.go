package loader

import (
	"os"
	"strings"
)

// DefaultEnvPrefix prefixes the environment variables Env reads.
const DefaultEnvPrefix = "INKWELL_"

// Env reads prefixed environment variables into a configuration map.
// INKWELL_EDITOR_MAX_UNDO=50 becomes editor.max_undo = "50"; values stay
// strings for the decoder to convert. Variables without a section part
// are ignored.
func Env(prefix string) map[string]any {
	return envFrom(prefix, os.Environ())
}

func envFrom(prefix string, environ []string) map[string]any {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	config := make(map[string]any)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, prefix)), "_")
		if !ok || section == "" || key == "" {
			continue
		}
		SetByPath(config, section+"."+key, value)
	}
	return config
}
