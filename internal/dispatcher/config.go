package dispatcher

// Config holds dispatcher configuration options.
type Config struct {
	// EnableMetrics enables in-process dispatch statistics.
	EnableMetrics bool

	// RecoverFromPanic wraps handler execution in panic recovery.
	RecoverFromPanic bool

	// DefaultKeymaps loads the built-in key bindings.
	DefaultKeymaps bool

	// Mac resolves "Mod" key bindings to Meta instead of Ctrl.
	Mac bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableMetrics:    false,
		RecoverFromPanic: true,
		DefaultKeymaps:   true,
	}
}

// WithMetrics returns a copy of the config with metrics enabled.
func (c Config) WithMetrics() Config {
	c.EnableMetrics = true
	return c
}

// WithPanicRecovery returns a copy of the config with panic recovery set.
func (c Config) WithPanicRecovery(recover bool) Config {
	c.RecoverFromPanic = recover
	return c
}

// WithMac returns a copy of the config with Mac key resolution set.
func (c Config) WithMac(mac bool) Config {
	c.Mac = mac
	return c
}
