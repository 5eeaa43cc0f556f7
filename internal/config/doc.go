// Package config provides layered configuration for Inkwell.
//
// Configuration is resolved from four layers, lowest priority first:
//
//  1. Built-in defaults (Default)
//  2. A TOML or YAML file
//  3. INKWELL_* environment variables
//  4. Explicit overrides, such as command-line flags
//
// The merged tree is decoded into Config with mapstructure. Durations are
// written as strings ("300ms") and environment values are converted to
// the field type.
//
// # Example
//
//	# inkwell.toml
//	[editor]
//	max_undo = 200
//	group_delay = "750ms"
//
//	[markdown]
//	bullet = "*"
//	table_padding = true
//
//	[[keymap]]
//	keys = "Mod-k"
//	action = "SetLink"
//	params = ["https://"]
//
// Load it and turn sections into component options:
//
//	cfg, err := config.Load("inkwell.toml")
//	if err != nil {
//	    return err
//	}
//	ed, err := engine.New(cfg.EngineOptions(logger)...)
//
// Watch reloads the file when it changes on disk.
package config
