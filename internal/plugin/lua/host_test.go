package lua

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/inkwell/internal/dispatcher"
	"github.com/dshills/inkwell/internal/dispatcher/hook"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/input"
)

func newTestHost(t *testing.T, md string, opts ...Option) (*Host, *engine.Editor) {
	t.Helper()
	ed, err := engine.New(engine.WithMarkdown(md))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(ed.Close)

	h, err := NewHost(ed, nil, opts...)
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h, ed
}

func TestNewHostRequiresEditor(t *testing.T) {
	if _, err := NewHost(nil, nil); !errors.Is(err, ErrNoEditor) {
		t.Errorf("err = %v, want ErrNoEditor", err)
	}
}

func TestHostDispatch(t *testing.T) {
	h, ed := newTestHost(t, "Hello")

	code := `
		local ink = require("inkwell")
		assert(ink.dispatch("SelectAll").ok)
		assert(ink.enabled("ToggleBold"))
		assert(not ink.active("ToggleBold"))
		local r = ink.dispatch("ToggleBold")
		assert(r.ok and r.changed, r.status)
		assert(ink.active("ToggleBold"))
		md = ink.markdown()
	`
	if err := h.RunString(context.Background(), code); err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if got := ed.Markdown(); got != "**Hello**" {
		t.Errorf("Markdown() = %q", got)
	}
	if got := h.State().GetGlobal("md").String(); got != "**Hello**" {
		t.Errorf("md = %q", got)
	}
}

func TestHostDispatchParams(t *testing.T) {
	h, ed := newTestHost(t, "Hello")

	code := `
		inkwell.dispatch("SetHeadingLevel", 3)
		assert(inkwell.active("SetHeadingLevel", 3))
		local r = inkwell.dispatch("SetHeadingLevel", 9)
		assert(not r.ok)
		assert(r.status == "error")
		assert(string.find(r.error, "heading level"))
		local noop = inkwell.dispatch("Unlink")
		assert(noop.status == "no-op")
	`
	if err := h.RunString(context.Background(), code); err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if got := ed.Markdown(); got != "### Hello" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestHostScriptSource(t *testing.T) {
	ed, err := engine.New(engine.WithMarkdown("Hello"))
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close()

	d := dispatcher.NewWithDefaults(dispatcher.WithEditor(ed))
	filter := hook.NewSourceFilterHook(input.SourceScript, "SelectAll", "ToggleItalic")
	d.Hooks().RegisterPre(filter)

	h, err := NewHost(ed, d)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	code := `
		assert(inkwell.dispatch("SelectAll").ok)
		blocked = inkwell.dispatch("ToggleBold").status
		assert(not inkwell.enabled("ToggleBold"))
		assert(inkwell.dispatch("ToggleItalic").ok)
	`
	if err := h.RunString(context.Background(), code); err != nil {
		t.Fatal(err)
	}
	if got := h.State().GetGlobal("blocked").String(); got != "cancelled" {
		t.Errorf("blocked = %q, want cancelled", got)
	}
	if got := ed.Markdown(); got != "*Hello*" {
		t.Errorf("Markdown() = %q", got)
	}
	// Go callers are not affected by the script filter.
	if res := d.Dispatch("ToggleBold"); !res.IsOK() {
		t.Errorf("Dispatch from Go = %v", res.Status)
	}
}

func TestHostAllowedCommands(t *testing.T) {
	h, ed := newTestHost(t, "Hello", WithAllowedCommands("SelectAll", "ToggleItalic"))

	code := `
		blocked = inkwell.dispatch("ToggleBold").status
		assert(inkwell.dispatch("SelectAll").ok)
		assert(inkwell.dispatch("ToggleItalic").ok)
	`
	if err := h.RunString(context.Background(), code); err != nil {
		t.Fatal(err)
	}
	if got := h.State().GetGlobal("blocked").String(); got != "cancelled" {
		t.Errorf("blocked = %q, want cancelled", got)
	}
	if got := ed.Markdown(); got != "*Hello*" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestHostRollback(t *testing.T) {
	code := `
		inkwell.dispatch("SelectAll")
		inkwell.dispatch("ToggleBold")
		error("boom")
	`
	for _, tt := range []struct {
		rollback bool
		want     string
	}{
		{false, "**Hello**"},
		{true, "Hello"},
	} {
		h, ed := newTestHost(t, "Hello", WithRollback(tt.rollback))
		if err := h.RunString(context.Background(), code); err == nil {
			t.Fatal("expected script error")
		}
		if got := ed.Markdown(); got != tt.want {
			t.Errorf("rollback=%v: Markdown() = %q, want %q", tt.rollback, got, tt.want)
		}
	}
}

func TestHostDocumentFunctions(t *testing.T) {
	var out bytes.Buffer
	h, ed := newTestHost(t, "Hello", WithPrintOutput(&out))

	code := `
		inkwell.set_markdown("# Title\n\nBody")
		print(inkwell.text())
		print(inkwell.html())
		local ids = inkwell.commands()
		count = #ids
	`
	if err := h.RunString(context.Background(), code); err != nil {
		t.Fatal(err)
	}
	if got := ed.Markdown(); got != "# Title\n\nBody" {
		t.Errorf("Markdown() = %q", got)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if lines[0] != "TitleBody" {
		t.Errorf("text() = %q", lines[0])
	}
	if !strings.Contains(out.String(), "<h1>Title</h1>") {
		t.Errorf("html() output = %q", out.String())
	}
	if n, _ := ToGoValue(h.State().GetGlobal("count")).(int); n != len(h.Dispatcher().Commands()) {
		t.Errorf("count = %v", h.State().GetGlobal("count"))
	}
}

func TestHostKey(t *testing.T) {
	h, ed := newTestHost(t, "Hello")

	code := `
		assert(inkwell.key("Mod-a").ok)
		assert(inkwell.key("Mod-i").ok)
		unbound = inkwell.key("F13").status
	`
	if err := h.RunString(context.Background(), code); err != nil {
		t.Fatal(err)
	}
	if got := ed.Markdown(); got != "*Hello*" {
		t.Errorf("Markdown() = %q", got)
	}
	if got := h.State().GetGlobal("unbound").String(); got != "no-op" {
		t.Errorf("unbound = %q", got)
	}
}

func TestHostLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h, _ := newTestHost(t, "Hello", WithLogger(logger))

	if err := h.RunString(context.Background(), `inkwell.log("warn", "checked", "count", 2)`); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{"level=WARN", "msg=checked", "source=script", "count=2"} {
		if !strings.Contains(got, want) {
			t.Errorf("log output %q missing %q", got, want)
		}
	}

	if err := h.RunString(context.Background(), `inkwell.log("loud", "x")`); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestHostCallLimit(t *testing.T) {
	h, _ := newTestHost(t, "Hello", WithLimit(5))

	err := h.RunString(context.Background(), `for i = 1, 100 do inkwell.markdown() end`)
	if !errors.Is(err, ErrCallLimit) {
		t.Errorf("err = %v, want ErrCallLimit", err)
	}
}

func TestHostRunFileAndCall(t *testing.T) {
	h, ed := newTestHost(t, "Hello")

	path := filepath.Join(t.TempDir(), "fmt.lua")
	script := `
		function emphasize(cmd)
			inkwell.dispatch("SelectAll")
			return inkwell.dispatch(cmd).ok, inkwell.markdown()
		end
	`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := h.Run(context.Background(), path); err != nil {
		t.Fatalf("Run: %v", err)
	}

	results, err := h.Call(context.Background(), "emphasize", "ToggleStrikethrough")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(results) != 2 || results[0] != true || results[1] != "~~Hello~~" {
		t.Errorf("results = %v", results)
	}
	if got := ed.Markdown(); got != "~~Hello~~" {
		t.Errorf("Markdown() = %q", got)
	}

	if err := h.Run(context.Background(), filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected error for missing file")
	}
}
