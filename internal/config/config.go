package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/htmlconv"
	"github.com/dshills/inkwell/internal/input/keymap"
	"github.com/dshills/inkwell/internal/markdown"
	"github.com/dshills/inkwell/internal/plugin/lua"
)

// Config is the resolved Inkwell configuration.
type Config struct {
	Editor   EditorConfig   `mapstructure:"editor"`
	Markdown MarkdownConfig `mapstructure:"markdown"`
	HTML     HTMLConfig     `mapstructure:"html"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Scripts  ScriptsConfig  `mapstructure:"scripts"`

	// Keymap holds user key bindings. They take precedence over the
	// default keymaps.
	Keymap []KeyBinding `mapstructure:"keymap"`

	// Path is the file the configuration was loaded from, if any.
	Path string `mapstructure:"-"`
}

// EditorConfig configures the editor facade.
type EditorConfig struct {
	MaxUndo         int           `mapstructure:"max_undo"`
	GroupDelay      time.Duration `mapstructure:"group_delay"`
	ValidationDelay time.Duration `mapstructure:"validation_delay"`
	// Mac binds Mod to Cmd instead of Ctrl.
	Mac bool `mapstructure:"mac"`
}

// MarkdownConfig configures the Markdown serializer.
type MarkdownConfig struct {
	Bullet       string `mapstructure:"bullet"`
	Emphasis     string `mapstructure:"emphasis"`
	Strong       string `mapstructure:"strong"`
	HardBreak    string `mapstructure:"hard_break"`
	TablePadding bool   `mapstructure:"table_padding"`
}

// Hard break styles.
const (
	HardBreakBackslash = "backslash"
	HardBreakSpaces    = "spaces"
)

// HTMLConfig configures HTML output and input.
type HTMLConfig struct {
	Pretty bool   `mapstructure:"pretty"`
	Indent string `mapstructure:"indent"`
	// Sanitize runs HTML input through the sanitizer policy.
	Sanitize bool `mapstructure:"sanitize"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	Metrics      bool          `mapstructure:"metrics"`
	// Allow lists the commands HTTP clients may dispatch. Empty allows all.
	Allow []string `mapstructure:"allow"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ScriptsConfig configures the Lua host.
type ScriptsConfig struct {
	// Path is the directory script names are resolved against.
	Path      string        `mapstructure:"path"`
	CallLimit int64         `mapstructure:"call_limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// Allow lists the commands scripts may dispatch. Empty allows all.
	Allow []string `mapstructure:"allow"`
	// Rollback undoes the changes of a failed script.
	Rollback bool `mapstructure:"rollback"`
}

// KeyBinding binds a key chord to a command.
type KeyBinding struct {
	Keys        string `mapstructure:"keys"`
	Action      string `mapstructure:"action"`
	Params      []any  `mapstructure:"params"`
	Description string `mapstructure:"description"`
}

// UserKeymapName is the keymap that holds configured bindings.
const UserKeymapName = "user"

// UserKeymapPriority ranks user bindings above the default keymaps.
const UserKeymapPriority = 100

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Editor: EditorConfig{
			MaxUndo:         engine.DefaultMaxUndoEntries,
			GroupDelay:      engine.DefaultGroupDelay,
			ValidationDelay: engine.DefaultValidationDelay,
		},
		Markdown: MarkdownConfig{
			Bullet:    "-",
			Emphasis:  "*",
			Strong:    "**",
			HardBreak: HardBreakBackslash,
		},
		HTML: HTMLConfig{
			Pretty:   true,
			Indent:   "  ",
			Sanitize: true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			MaxBodyBytes: 4 << 20,
			Metrics:      true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Scripts: ScriptsConfig{
			Path:      ".",
			CallLimit: lua.DefaultCallLimit,
			Timeout:   lua.DefaultExecutionTimeout,
		},
	}
}

// Validate checks every setting and joins the failures.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, path string, value any, msg string) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Value: value, Message: msg})
		}
	}

	check(c.Editor.MaxUndo >= 0, "editor.max_undo", c.Editor.MaxUndo, "must not be negative")
	check(c.Editor.GroupDelay >= 0, "editor.group_delay", c.Editor.GroupDelay, "must not be negative")
	check(c.Editor.ValidationDelay >= 0, "editor.validation_delay", c.Editor.ValidationDelay, "must not be negative")

	check(slices.Contains([]string{"-", "*", "+"}, c.Markdown.Bullet), "markdown.bullet", c.Markdown.Bullet, `must be "-", "*" or "+"`)
	check(c.Markdown.Emphasis == "*" || c.Markdown.Emphasis == "_", "markdown.emphasis", c.Markdown.Emphasis, `must be "*" or "_"`)
	check(c.Markdown.Strong == "**" || c.Markdown.Strong == "__", "markdown.strong", c.Markdown.Strong, `must be "**" or "__"`)
	check(c.Markdown.HardBreak == HardBreakBackslash || c.Markdown.HardBreak == HardBreakSpaces,
		"markdown.hard_break", c.Markdown.HardBreak, "must be backslash or spaces")

	check(strings.Trim(c.HTML.Indent, " \t") == "", "html.indent", c.HTML.Indent, "must be spaces or tabs")

	check(c.Server.Addr != "", "server.addr", c.Server.Addr, "must not be empty")
	check(c.Server.MaxBodyBytes > 0, "server.max_body_bytes", c.Server.MaxBodyBytes, "must be positive")

	var level slog.Level
	check(level.UnmarshalText([]byte(c.Log.Level)) == nil, "log.level", c.Log.Level, "must be debug, info, warn or error")
	check(c.Log.Format == "text" || c.Log.Format == "json", "log.format", c.Log.Format, "must be text or json")

	check(c.Scripts.CallLimit >= 0, "scripts.call_limit", c.Scripts.CallLimit, "must not be negative")
	check(c.Scripts.Timeout >= 0, "scripts.timeout", c.Scripts.Timeout, "must not be negative")
	check(!slices.Contains(c.Scripts.Allow, ""), "scripts.allow", c.Scripts.Allow, "must not contain empty names")
	check(!slices.Contains(c.Server.Allow, ""), "server.allow", c.Server.Allow, "must not contain empty names")

	for i, b := range c.Keymap {
		path := fmt.Sprintf("keymap[%d]", i)
		check(b.Keys != "", path+".keys", b.Keys, "must not be empty")
		check(b.Action != "", path+".action", b.Action, "must not be empty")
	}
	return errors.Join(errs...)
}

// Options returns the Markdown serializer options for the section.
func (m MarkdownConfig) Options() []markdown.Option {
	style := markdown.BackslashBreak
	if m.HardBreak == HardBreakSpaces {
		style = markdown.SpaceBreak
	}
	return []markdown.Option{
		markdown.WithBullet(m.Bullet),
		markdown.WithEmphasis(m.Emphasis),
		markdown.WithStrong(m.Strong),
		markdown.WithHardBreak(style),
		markdown.WithTablePadding(m.TablePadding),
	}
}

// Options returns the HTML serializer options for the section.
func (h HTMLConfig) Options() []htmlconv.Option {
	if !h.Pretty {
		return []htmlconv.Option{htmlconv.Compact()}
	}
	return []htmlconv.Option{htmlconv.WithIndent(h.Indent)}
}

// ParseOptions returns the HTML parser options for the section.
func (h HTMLConfig) ParseOptions() []htmlconv.ParseOption {
	if !h.Sanitize {
		return nil
	}
	return []htmlconv.ParseOption{htmlconv.WithSanitizer(nil)}
}

// EngineOptions returns the editor options the configuration implies.
func (c *Config) EngineOptions(logger *slog.Logger) []engine.Option {
	return []engine.Option{
		engine.WithMaxUndoEntries(c.Editor.MaxUndo),
		engine.WithGroupDelay(c.Editor.GroupDelay),
		engine.WithValidationDelay(c.Editor.ValidationDelay),
		engine.WithMarkdownOptions(c.Markdown.Options()...),
		engine.WithHTMLOptions(c.HTML.Options()...),
		engine.WithHTMLParseOptions(c.HTML.ParseOptions()...),
		engine.WithLogger(logger),
	}
}

// ScriptOptions returns the Lua host options for the scripts section.
func (c *Config) ScriptOptions(logger *slog.Logger) []lua.Option {
	return []lua.Option{
		lua.WithLogger(logger),
		lua.WithLimit(c.Scripts.CallLimit),
		lua.WithTimeout(c.Scripts.Timeout),
		lua.WithAllowedCommands(c.Scripts.Allow...),
		lua.WithRollback(c.Scripts.Rollback),
	}
}

// NewLogger builds a slog logger writing to w as the log section says.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return nil, &ValidationError{Path: "log.level", Value: l.Level, Message: err.Error()}
	}
	opts := &slog.HandlerOptions{Level: level}
	switch l.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, &ValidationError{Path: "log.format", Value: l.Format, Message: "must be text or json"}
}

// UserKeymap builds the keymap of configured bindings.
func (c *Config) UserKeymap() *keymap.Keymap {
	km := keymap.NewKeymap(UserKeymapName).
		WithPriority(UserKeymapPriority).
		WithSource(keymapSource(c.Path))
	for _, b := range c.Keymap {
		binding := keymap.NewBinding(b.Keys, b.Action, b.Params...)
		binding.Description = b.Description
		km.AddBinding(binding)
	}
	return km
}

// ApplyKeymap registers the configured bindings on r, replacing any
// earlier user keymap. Without bindings the user keymap is removed.
func (c *Config) ApplyKeymap(r *keymap.Registry) error {
	if len(c.Keymap) == 0 {
		r.Unregister(UserKeymapName)
		return nil
	}
	if err := r.Register(c.UserKeymap()); err != nil {
		return fmt.Errorf("registering user keymap: %w", err)
	}
	return nil
}

func keymapSource(path string) string {
	if path == "" {
		return "config"
	}
	return "config:" + path
}
