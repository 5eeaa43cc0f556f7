package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"

	"github.com/dshills/inkwell/internal/config/loader"
)

// EnvConfigPath names the environment variable that points at the
// config file.
const EnvConfigPath = "INKWELL_CONFIG"

// Source identifies a configuration layer.
type Source uint8

const (
	// SourceDefault is the built-in defaults.
	SourceDefault Source = iota
	// SourceFile is the config file.
	SourceFile
	// SourceEnv is INKWELL_* environment variables.
	SourceEnv
	// SourceOverride is explicit overrides such as flags.
	SourceOverride
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceOverride:
		return "override"
	default:
		return "unknown"
	}
}

// Layer is one configuration source in merge order.
type Layer struct {
	Source Source
	Path   string
	Data   map[string]any
}

type loadOptions struct {
	fsys      loader.FileSystem
	env       bool
	envPrefix string
	overrides map[string]any
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithFS reads config files from fsys.
func WithFS(fsys loader.FileSystem) LoadOption {
	return func(o *loadOptions) {
		o.fsys = fsys
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithoutEnv skips the environment layer.
func WithoutEnv() LoadOption {
	return func(o *loadOptions) {
		o.env = false
	}
}

// WithOverride sets a dot-separated path in the override layer.
func WithOverride(path string, value any) LoadOption {
	return func(o *loadOptions) {
		loader.SetByPath(o.overrides, path, value)
	}
}

// Load resolves the configuration from path, the environment and
// overrides on top of the defaults. An empty path loads no file; a named
// file that does not exist is ErrFileNotFound.
func Load(path string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{
		fsys:      loader.OSFS{},
		env:       true,
		envPrefix: loader.DefaultEnvPrefix,
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(&o)
	}

	layers, err := collect(path, o)
	if err != nil {
		return nil, err
	}
	cfg, err := Resolve(layers...)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

func collect(path string, o loadOptions) ([]Layer, error) {
	var layers []Layer
	if path != "" {
		data, err := loader.LoadFile(o.fsys, path)
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		layers = append(layers, Layer{Source: SourceFile, Path: path, Data: data})
	}
	if o.env {
		layers = append(layers, Layer{Source: SourceEnv, Data: loader.Env(o.envPrefix)})
	}
	if len(o.overrides) > 0 {
		layers = append(layers, Layer{Source: SourceOverride, Data: o.overrides})
	}
	return layers, nil
}

// Resolve merges layers in order onto the defaults, decodes and
// validates the result.
func Resolve(layers ...Layer) (*Config, error) {
	merged := make(map[string]any)
	for _, l := range layers {
		loader.DeepMerge(merged, l.Data)
	}

	cfg := Default()
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// DefaultPath returns the first config file that exists among
// $INKWELL_CONFIG, ./inkwell.toml, ./inkwell.yaml and the same names
// under the user config directory. It returns "" when none does.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	candidates := []string{"inkwell.toml", "inkwell.yaml", "inkwell.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
			candidates = append(candidates, filepath.Join(dir, "inkwell", name))
		}
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
