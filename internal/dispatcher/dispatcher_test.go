package dispatcher_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/inkwell/internal/dispatcher"
	"github.com/dshills/inkwell/internal/dispatcher/execctx"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/dispatcher/hook"
	"github.com/dshills/inkwell/internal/engine"
	"github.com/dshills/inkwell/internal/input"
)

func setup(t *testing.T, md string, opts ...engine.Option) (*dispatcher.Dispatcher, *engine.Editor) {
	t.Helper()
	ed, err := engine.New(append([]engine.Option{engine.WithMarkdown(md)}, opts...)...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(ed.Close)
	return dispatcher.NewWithDefaults(dispatcher.WithEditor(ed)), ed
}

func mustOK(t *testing.T, d *dispatcher.Dispatcher, id string, params ...any) handler.Result {
	t.Helper()
	res := d.Dispatch(id, params...)
	if res.Status != handler.StatusOK {
		t.Fatalf("Dispatch(%s, %v) = %v (%v)", id, params, res.Status, res.Error)
	}
	return res
}

func TestNewRegistersCommands(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	ids := []string{
		"ToggleBold", "ToggleItalic", "ToggleCode", "ToggleStrikethrough", "ToggleSubscript",
		"ToggleSuperscript", "ToggleInserted", "ToggleHighlight", "ToggleSpan", "SetLink", "Unlink",
		"SetParagraph", "SetHeadingLevel", "ToggleHeading", "ToggleBlockquote", "ToggleContainer",
		"ToggleBulletList", "ToggleOrderedList", "ToggleTaskList", "SinkListItem", "LiftListItem",
		"InsertHorizontalRule", "InsertImage", "InsertHardBreak", "InsertMath", "InsertCodeBlock",
		"SetCodeBlockSyntax", "InsertTable", "TableAddRowBefore", "TableAddRowAfter",
		"TableAddColumnBefore", "TableAddColumnAfter", "TableDeleteRow", "TableDeleteColumn",
		"TableDeleteTable", "TableMergeCells", "TableSplitCell", "TableToggleHeaderRow",
		"TableToggleHeaderColumn", "Undo", "Redo", "SelectAll", "ClearFormatting", "InsertText",
	}
	for _, id := range ids {
		if !d.Registry().Has(id) {
			t.Errorf("command %s not registered", id)
		}
	}
	if len(d.Commands()) < len(ids) {
		t.Errorf("Commands() lists %d IDs, want at least %d", len(d.Commands()), len(ids))
	}
}

func TestDispatchNoHandler(t *testing.T) {
	d, _ := setup(t, "Hello")

	res := d.Dispatch("Unknown")
	if res.Status != handler.StatusError || !errors.Is(res.Error, dispatcher.ErrNoHandler) {
		t.Errorf("Dispatch(Unknown) = %+v, want ErrNoHandler", res)
	}
	if res := d.Dispatch(""); !errors.Is(res.Error, dispatcher.ErrInvalidAction) {
		t.Errorf("Dispatch(\"\") = %+v, want ErrInvalidAction", res)
	}
	if d.Enabled("Unknown") || d.Active("Unknown") {
		t.Error("unknown command reported enabled or active")
	}
}

func TestDispatchWithoutEditor(t *testing.T) {
	d := dispatcher.NewWithDefaults()

	res := d.Dispatch("ToggleBold")
	if res.Status != handler.StatusError || !errors.Is(res.Error, execctx.ErrMissingEditor) {
		t.Errorf("Dispatch = %+v, want ErrMissingEditor", res)
	}
	if d.Enabled("ToggleBold") {
		t.Error("expected disabled without editor")
	}
}

func TestToggleBold(t *testing.T) {
	d, ed := setup(t, "Hello")

	mustOK(t, d, "SelectAll")
	if !d.Enabled("ToggleBold") {
		t.Fatal("expected ToggleBold enabled")
	}
	if ed.Markdown() != "Hello" {
		t.Fatal("Enabled changed the document")
	}
	if d.Active("ToggleBold") {
		t.Error("bold active before toggling")
	}

	res := mustOK(t, d, "ToggleBold")
	if !res.DocChanged {
		t.Error("expected DocChanged")
	}
	if got := ed.Markdown(); got != "**Hello**" {
		t.Errorf("Markdown() = %q", got)
	}
	if !d.Active("ToggleBold") {
		t.Error("bold inactive after toggling")
	}
}

func TestParamErrors(t *testing.T) {
	d, _ := setup(t, "Hello")
	mustOK(t, d, "SelectAll")

	tests := []struct {
		id     string
		params []any
		want   error
	}{
		{"SetLink", nil, input.ErrMissingParam},
		{"SetLink", []any{42}, input.ErrInvalidParam},
		{"SetHeadingLevel", nil, input.ErrMissingParam},
		{"SetHeadingLevel", []any{7}, input.ErrInvalidParam},
		{"InsertTable", []any{0, 3}, input.ErrInvalidParam},
		{"InsertText", nil, input.ErrMissingParam},
	}

	for _, tc := range tests {
		res := d.Dispatch(tc.id, tc.params...)
		if res.Status != handler.StatusError || !errors.Is(res.Error, tc.want) {
			t.Errorf("Dispatch(%s, %v) = %v %v, want %v", tc.id, tc.params, res.Status, res.Error, tc.want)
		}
		if d.Enabled(tc.id, tc.params...) {
			t.Errorf("Enabled(%s, %v) = true with bad parameters", tc.id, tc.params)
		}
	}
}

func TestSetLink(t *testing.T) {
	d, ed := setup(t, "Hello")
	mustOK(t, d, "SelectAll")

	mustOK(t, d, "SetLink", "https://example.com", "Example")
	if got := ed.Markdown(); got != `[Hello](https://example.com "Example")` {
		t.Errorf("Markdown() = %q", got)
	}
	if !d.Active("SetLink") || !d.Active("Unlink") {
		t.Error("expected link queries active")
	}

	mustOK(t, d, "Unlink")
	if got := ed.Markdown(); got != "Hello" {
		t.Errorf("Markdown() after Unlink = %q", got)
	}
}

func TestNotApplicable(t *testing.T) {
	d, ed := setup(t, "Hello")

	res := d.Dispatch("Unlink")
	if res.Status != handler.StatusNoOp {
		t.Errorf("Unlink without link = %v, want no-op", res.Status)
	}
	if d.Enabled("TableMergeCells") {
		t.Error("TableMergeCells enabled outside a table")
	}
	if ed.CanUndo() {
		t.Error("no-op recorded history")
	}
}

func TestHeadings(t *testing.T) {
	d, ed := setup(t, "Hello")

	mustOK(t, d, "SetHeadingLevel", 2)
	if got := ed.Markdown(); got != "## Hello" {
		t.Errorf("Markdown() = %q", got)
	}
	if !d.Active("SetHeadingLevel", 2) || d.Active("SetHeadingLevel", 3) {
		t.Error("heading level query wrong")
	}
	if !d.Active("ToggleHeading", "2") {
		t.Error("ToggleHeading with numeric string not active")
	}

	mustOK(t, d, "ToggleHeading", 2)
	if got := ed.Markdown(); got != "Hello" {
		t.Errorf("Markdown() after toggle = %q", got)
	}
	if !d.Active("SetParagraph") {
		t.Error("paragraph not active")
	}
}

func TestLists(t *testing.T) {
	d, ed := setup(t, "Hello")

	mustOK(t, d, "ToggleBulletList")
	if got := ed.Markdown(); got != "- Hello" {
		t.Errorf("Markdown() = %q", got)
	}
	if !d.Active("ToggleBulletList") || d.Active("ToggleOrderedList") {
		t.Error("list queries wrong")
	}

	mustOK(t, d, "ToggleOrderedList")
	if got := ed.Markdown(); got != "1. Hello" {
		t.Errorf("Markdown() after convert = %q", got)
	}

	mustOK(t, d, "ToggleOrderedList")
	if got := ed.Markdown(); got != "Hello" {
		t.Errorf("Markdown() after lift = %q", got)
	}
}

func TestTables(t *testing.T) {
	d, ed := setup(t, "Hello")

	res := mustOK(t, d, "InsertTable", 2, 2)
	if !res.DocChanged {
		t.Error("expected DocChanged")
	}
	if !d.Active("InsertTable") {
		t.Fatal("expected selection inside the new table")
	}
	if !d.Active("TableToggleHeaderRow") {
		t.Error("expected header row by default")
	}

	mustOK(t, d, "TableAddRowAfter")
	mustOK(t, d, "TableToggleHeaderRow")
	if d.Active("TableToggleHeaderRow") {
		t.Error("header row still active after toggle")
	}

	mustOK(t, d, "TableDeleteTable")
	if strings.Contains(ed.Markdown(), "|") {
		t.Errorf("table left behind: %q", ed.Markdown())
	}
}

func TestCodeBlock(t *testing.T) {
	d, ed := setup(t, "Hello")

	mustOK(t, d, "InsertCodeBlock", "go")
	if !d.Active("InsertCodeBlock") || !d.Active("SetCodeBlockSyntax", "go") {
		t.Error("code block queries inactive")
	}
	mustOK(t, d, "SetCodeBlockSyntax", "rust")
	if got := ed.Markdown(); got != "```rust\nHello\n```" {
		t.Errorf("Markdown() = %q", got)
	}
	if d.Enabled("SetCodeBlockSyntax", "rust") {
		t.Error("setting the same syntax should not apply")
	}
}

func TestUndoRedo(t *testing.T) {
	d, ed := setup(t, "Hello")

	if d.Enabled("Undo") {
		t.Error("Undo enabled with empty history")
	}
	if res := d.Dispatch("Undo"); res.Status != handler.StatusNoOp {
		t.Errorf("Undo on empty history = %v, want no-op", res.Status)
	}

	mustOK(t, d, "InsertText", "x")
	if got := ed.Markdown(); got != "xHello" {
		t.Fatalf("Markdown() = %q", got)
	}
	if !d.Enabled("Undo") {
		t.Error("Undo disabled after edit")
	}

	if res := mustOK(t, d, "Undo"); !res.DocChanged {
		t.Error("Undo did not report a change")
	}
	if got := ed.Markdown(); got != "Hello" {
		t.Errorf("Markdown() after undo = %q", got)
	}
	mustOK(t, d, "Redo")
	if got := ed.Markdown(); got != "xHello" {
		t.Errorf("Markdown() after redo = %q", got)
	}
}

func TestReadOnly(t *testing.T) {
	d, _ := setup(t, "Hello", engine.WithReadOnly())

	if !d.Enabled("SelectAll") {
		t.Error("SelectAll should stay enabled on a read-only editor")
	}
	mustOK(t, d, "SelectAll")
	if d.Enabled("ToggleBold") {
		t.Error("ToggleBold enabled on a read-only editor")
	}
	if res := d.Dispatch("ToggleBold"); res.Status != handler.StatusError {
		t.Errorf("ToggleBold on read-only = %v, want error", res.Status)
	}
}

func TestPanicRecovery(t *testing.T) {
	d, _ := setup(t, "Hello")
	d = dispatcher.New(dispatcher.DefaultConfig().WithMetrics(), dispatcher.WithEditor(d.Editor()))
	d.RegisterHandler("ToggleBold", handler.NewHandlerFuncWithPriority(func(input.Action, *execctx.ExecutionContext) handler.Result {
		panic("boom")
	}, 100))

	res := d.Dispatch("ToggleBold")
	if res.Status != handler.StatusError || !errors.Is(res.Error, dispatcher.ErrPanic) {
		t.Errorf("Dispatch = %+v, want ErrPanic", res)
	}
	if d.Enabled("ToggleBold") {
		t.Error("panicking handler reported enabled")
	}

	snap := d.Metrics().Snapshot()
	if snap.TotalPanics != 1 || snap.TotalErrors != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHooks(t *testing.T) {
	d, ed := setup(t, "Hello")

	var seen []string
	d.Hooks().RegisterPost(hook.NewPostDispatchFunc("record", 0, func(a *input.Action, _ *execctx.ExecutionContext, r *handler.Result) {
		seen = append(seen, a.Name+":"+r.Status.String())
	}))
	d.Hooks().RegisterPre(hook.NewPreDispatchFunc("no-bold", 10, func(a *input.Action, _ *execctx.ExecutionContext) bool {
		return a.Name != "ToggleBold"
	}))

	mustOK(t, d, "SelectAll")
	res := d.Dispatch("ToggleBold")
	if res.Status != handler.StatusCancelled || !errors.Is(res.Error, dispatcher.ErrActionCancelled) {
		t.Errorf("Dispatch = %+v, want cancelled", res)
	}
	if d.Enabled("ToggleBold") {
		t.Error("cancelled command reported enabled")
	}
	if ed.Markdown() != "Hello" {
		t.Error("cancelled command changed the document")
	}
	if len(seen) != 1 || seen[0] != "SelectAll:ok" {
		t.Errorf("post hooks saw %v", seen)
	}
}

func TestDispatchKey(t *testing.T) {
	d, ed := setup(t, "Hello")

	if res := d.DispatchKey("Ctrl-a"); res.Status != handler.StatusOK {
		t.Fatalf("Ctrl-a = %+v", res)
	}
	if res := d.DispatchKey("Mod-b"); res.Status != handler.StatusOK {
		t.Fatalf("Mod-b = %+v", res)
	}
	if got := ed.Markdown(); got != "**Hello**" {
		t.Errorf("Markdown() = %q", got)
	}

	if res := d.DispatchKey("Mod-z"); res.Status != handler.StatusOK {
		t.Fatalf("Mod-z = %+v", res)
	}
	if got := ed.Markdown(); got != "Hello" {
		t.Errorf("Markdown() after undo key = %q", got)
	}

	res := d.DispatchKey("F13")
	if res.Status != handler.StatusNoOp || !errors.Is(res.Error, dispatcher.ErrUnboundKey) {
		t.Errorf("F13 = %+v, want unbound", res)
	}
}

func TestDispatchKeyFallsThrough(t *testing.T) {
	d, ed := setup(t, "Hello")

	if res := d.DispatchKey("Enter"); res.Status != handler.StatusOK {
		t.Fatalf("Enter = %+v", res)
	}
	if ed.Doc().ChildCount() != 2 {
		t.Errorf("Enter did not split the block: %q", ed.Markdown())
	}
}

func TestMetrics(t *testing.T) {
	ed, err := engine.New(engine.WithMarkdown("Hello"))
	if err != nil {
		t.Fatal(err)
	}
	defer ed.Close()
	d := dispatcher.New(dispatcher.DefaultConfig().WithMetrics(), dispatcher.WithEditor(ed))

	d.Dispatch("SelectAll")
	d.Dispatch("ToggleBold")
	d.Dispatch("ToggleBold")
	d.Dispatch("Unlink")

	m := d.Metrics()
	if got := m.Snapshot().TotalDispatches; got != 4 {
		t.Errorf("TotalDispatches = %d, want 4", got)
	}
	if got := m.Snapshot().TotalNoOps; got != 1 {
		t.Errorf("TotalNoOps = %d, want 1", got)
	}
	stats := m.ActionStats("ToggleBold")
	if stats == nil || stats.DispatchCount != 2 {
		t.Fatalf("ToggleBold stats = %+v", stats)
	}
	if top := m.TopActions(1); len(top) != 1 || top[0].Name != "ToggleBold" {
		t.Errorf("TopActions(1) = %v", top)
	}

	m.Reset()
	if m.Snapshot().TotalDispatches != 0 {
		t.Error("Reset did not clear counters")
	}
}

func TestPrometheus(t *testing.T) {
	_, ed := setup(t, "Hello")
	reg := prometheus.NewRegistry()

	d := dispatcher.NewWithDefaults(dispatcher.WithEditor(ed), dispatcher.WithRegisterer(reg))
	d.Dispatch("SelectAll")
	// A second dispatcher shares the registered collectors.
	other := dispatcher.NewWithDefaults(dispatcher.WithEditor(ed), dispatcher.WithRegisterer(reg))
	other.Dispatch("ToggleBold")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	counts := map[string]float64{}
	for _, f := range families {
		if f.GetName() != "inkwell_dispatcher_actions_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "action" {
					counts[l.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	if counts["SelectAll"] != 1 || counts["ToggleBold"] != 1 {
		t.Errorf("action counts = %v", counts)
	}
}
