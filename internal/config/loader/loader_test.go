package loader

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"inkwell.toml", FormatTOML, false},
		{"inkwell.yaml", FormatYAML, false},
		{"/etc/inkwell.YML", FormatYAML, false},
		{"inkwell.json", 0, true},
		{"inkwell", 0, true},
	}
	for _, tc := range tests {
		got, err := FormatOf(tc.path)
		if (err != nil) != tc.err {
			t.Errorf("FormatOf(%q) err = %v", tc.path, err)
		}
		if tc.err && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("FormatOf(%q) err = %v, want ErrUnknownFormat", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("FormatOf(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	fsys := MapFS{
		"a.toml": "[editor]\nmax_undo = 50\ngroup_delay = \"300ms\"\n\n[markdown]\nbullet = \"*\"\n",
		"a.yaml": "editor:\n  max_undo: 50\n  group_delay: 300ms\nmarkdown:\n  bullet: \"*\"\n",
	}

	toml, err := LoadFile(fsys, "a.toml")
	if err != nil {
		t.Fatalf("toml: %v", err)
	}
	yaml, err := LoadFile(fsys, "a.yaml")
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}

	for name, m := range map[string]map[string]any{"toml": toml, "yaml": yaml} {
		if v, _ := GetByPath(m, "markdown.bullet"); v != "*" {
			t.Errorf("%s: markdown.bullet = %v", name, v)
		}
		if v, _ := GetByPath(m, "editor.group_delay"); v != "300ms" {
			t.Errorf("%s: editor.group_delay = %v", name, v)
		}
		if _, ok := GetByPath(m, "editor.max_undo"); !ok {
			t.Errorf("%s: editor.max_undo missing", name)
		}
	}

	missing, err := LoadFile(fsys, "missing.toml")
	if missing != nil || err != nil {
		t.Errorf("missing file = %v, %v; want nil, nil", missing, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		line   int
	}{
		{"toml", FormatTOML, "[editor]\nmax_undo = = 1\n", 2},
		{"yaml", FormatYAML, "editor:\n  max_undo: [1\n", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("cfg", tc.format, []byte(tc.data))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if pe.Path != "cfg" || !strings.Contains(pe.Error(), "parse error in cfg") {
				t.Errorf("ParseError = %v", pe)
			}
			if tc.line > 0 && pe.Line != tc.line {
				t.Errorf("Line = %d, want %d", pe.Line, tc.line)
			}
		})
	}

	if _, err := Parse("cfg", Format(9), nil); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("unknown format err = %v", err)
	}
}

func TestLoadReader(t *testing.T) {
	m, err := LoadReader(strings.NewReader("server:\n  addr: \":9000\"\n"), FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := GetByPath(m, "server.addr"); v != ":9000" {
		t.Errorf("server.addr = %v", v)
	}
}

func TestEnv(t *testing.T) {
	environ := []string{
		"INKWELL_EDITOR_MAX_UNDO=25",
		"INKWELL_LOG_LEVEL=debug",
		"INKWELL_SERVER_ADDR=:9090",
		"INKWELL_NOSECTION=x",
		"OTHER_VALUE=1",
		"INKWELL_=y",
	}
	got := envFrom("INKWELL_", environ)
	want := map[string]any{
		"editor": map[string]any{"max_undo": "25"},
		"log":    map[string]any{"level": "debug"},
		"server": map[string]any{"addr": ":9090"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("envFrom = %#v", got)
	}

	t.Setenv("INKWELL_HTML_PRETTY", "false")
	if v, _ := GetByPath(Env(""), "html.pretty"); v != "false" {
		t.Errorf("Env html.pretty = %v", v)
	}
}

func TestDeepMerge(t *testing.T) {
	base := map[string]any{
		"editor": map[string]any{"max_undo": 100, "group_delay": "500ms"},
		"tags":   []any{"a"},
	}
	over := map[string]any{
		"editor": map[string]any{"max_undo": 10},
		"tags":   []any{"b"},
		"log":    map[string]any{"level": "warn"},
	}

	got := DeepMerge(Clone(base), over)
	want := map[string]any{
		"editor": map[string]any{"max_undo": 10, "group_delay": "500ms"},
		"tags":   []any{"b"},
		"log":    map[string]any{"level": "warn"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DeepMerge = %#v", got)
	}

	// Merged values are copies.
	over["log"].(map[string]any)["level"] = "error"
	if v, _ := GetByPath(got, "log.level"); v != "warn" {
		t.Error("DeepMerge aliased src maps")
	}
	if v, _ := GetByPath(base, "editor.max_undo"); v != 100 {
		t.Error("Clone did not protect base")
	}
}

func TestSetByPath(t *testing.T) {
	m := map[string]any{"a": "scalar"}
	SetByPath(m, "a.b.c", 1)
	SetByPath(m, "d", 2)

	if v, ok := GetByPath(m, "a.b.c"); !ok || v != 1 {
		t.Errorf("a.b.c = %v, %v", v, ok)
	}
	if v, _ := GetByPath(m, "d"); v != 2 {
		t.Errorf("d = %v", v)
	}
	if _, ok := GetByPath(m, "a.x"); ok {
		t.Error("missing path reported present")
	}
	if _, ok := GetByPath(m, "d.x"); ok {
		t.Error("path through a scalar reported present")
	}
	SetByPath(nil, "a", 1)
}
