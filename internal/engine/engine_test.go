package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/codeblock"
	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/validate"
)

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func selectText(t *testing.T, e *Editor, anchor, head int) {
	t.Helper()
	sel, err := state.TextSelectionAt(e.Doc(), anchor, head)
	if err != nil {
		t.Fatalf("TextSelectionAt(%d, %d) error: %v", anchor, head, err)
	}
	if err := e.SetSelection(sel); err != nil {
		t.Fatalf("SetSelection() error: %v", err)
	}
}

func insertText(text string) func(tr *state.Transaction) error {
	return func(tr *state.Transaction) error { return tr.InsertText(text) }
}

// ============================================================================
// Basic Operations
// ============================================================================

func TestNew(t *testing.T) {
	e := newEditor(t)
	if e.Doc().ChildCount() != 1 {
		t.Errorf("expected one empty block, got %d", e.Doc().ChildCount())
	}
	if e.Doc().TextContent() != "" {
		t.Errorf("expected empty text, got %q", e.Doc().TextContent())
	}
	if e.CanUndo() || e.CanRedo() {
		t.Error("expected empty history")
	}
}

func TestNewWithMarkdown(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"heading", "# Title\n\nHello *world*"},
		{"list", "- one\n- two"},
		{"code", "```go\nfoo()\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(t, WithMarkdown(tt.src))
			if got := e.Markdown(); got != tt.src {
				t.Errorf("Markdown() = %q, want %q", got, tt.src)
			}
		})
	}
}

func TestNewFromReader(t *testing.T) {
	e, err := NewFromReader(strings.NewReader("<p>Hello <strong>there</strong></p>"), FormatHTML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer e.Close()

	if got := e.Markdown(); got != "Hello **there**" {
		t.Errorf("Markdown() = %q", got)
	}
	if _, err := NewFromReader(strings.NewReader(""), Format(9)); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"html", FormatHTML, false},
		{"rtf", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExecute(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))
	selectText(t, e, 1, 6)

	ok, err := e.Execute(commands.ToggleMark(e.Schema().MarkType(schema.MarkStrong), nil))
	if err != nil || !ok {
		t.Fatalf("Execute() = %v, %v", ok, err)
	}
	if got := e.Markdown(); got != "**Hello**" {
		t.Errorf("Markdown() = %q", got)
	}
	if got := e.HTML(); !strings.Contains(got, "<strong>Hello</strong>") {
		t.Errorf("HTML() = %q", got)
	}
}

func TestExecuteNotApplicable(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))
	before := e.State()

	ok, err := e.Execute(func(*state.State, func(*state.Transaction)) bool { return false })
	if err != nil || ok {
		t.Fatalf("Execute() = %v, %v", ok, err)
	}
	if e.State() != before {
		t.Error("state changed by a command that did not apply")
	}
}

func TestUpdateError(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))
	want := errors.New("boom")

	err := e.Update(func(tr *state.Transaction) error {
		if err := tr.InsertText("x"); err != nil {
			return err
		}
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if got := e.Markdown(); got != "Hello" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestApplyStale(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))
	tr := e.State().Tr()
	if err := e.Update(insertText("a")); err != nil {
		t.Fatal(err)
	}
	if err := tr.InsertText("b"); err != nil {
		t.Fatal(err)
	}
	if err := e.Apply(tr); !errors.Is(err, state.ErrStaleBaseState) {
		t.Errorf("expected ErrStaleBaseState, got %v", err)
	}
}

func TestSetMarkdown(t *testing.T) {
	e := newEditor(t, WithMarkdown("old"))

	if err := e.SetMarkdown("# new"); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "# new" {
		t.Errorf("Markdown() = %q", got)
	}
	if err := e.SetHTML("<p>html</p>"); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "html" {
		t.Errorf("Markdown() = %q", got)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "# new" {
		t.Errorf("after undo Markdown() = %q", got)
	}
}

// ============================================================================
// Undo/Redo
// ============================================================================

func TestUndoRedo(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))

	if err := e.Update(insertText("Hi ")); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "Hi Hello" {
		t.Fatalf("Markdown() = %q", got)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "Hello" {
		t.Errorf("after undo Markdown() = %q", got)
	}
	if !e.CanRedo() {
		t.Fatal("expected redo")
	}
	if err := e.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "Hi Hello" {
		t.Errorf("after redo Markdown() = %q", got)
	}
}

func TestUndoEmpty(t *testing.T) {
	e := newEditor(t)
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	if err := e.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestUndoGroup(t *testing.T) {
	e := newEditor(t, WithMarkdown("x"))

	e.BeginUndoGroup("batch")
	for _, s := range []string{"a", "b", "c"} {
		if err := e.Update(insertText(s)); err != nil {
			t.Fatal(err)
		}
	}
	e.EndUndoGroup()

	if e.UndoCount() != 1 {
		t.Fatalf("expected 1 undo entry, got %d", e.UndoCount())
	}
	if info := e.UndoInfo(); info[0].Description != "batch" {
		t.Errorf("description = %q", info[0].Description)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "x" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestGroupCancelledOnError(t *testing.T) {
	e := newEditor(t, WithMarkdown("x"))
	want := errors.New("stop")

	err := e.Group("g", func() error {
		if err := e.Update(insertText("a")); err != nil {
			return err
		}
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if e.UndoCount() != 0 {
		t.Errorf("expected no undo entries, got %d", e.UndoCount())
	}
	if got := e.Markdown(); got != "ax" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestUndoToCheckpoint(t *testing.T) {
	e := newEditor(t, WithMarkdown("x"))
	if err := e.Update(insertText("a")); err != nil {
		t.Fatal(err)
	}
	cp := e.Checkpoint()
	for _, s := range []string{"b", "c"} {
		if err := e.Update(insertText(s)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := e.UndoToCheckpoint(cp)
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("expected entries to be undone")
	}
	if got := e.Markdown(); got != "ax" {
		t.Errorf("Markdown() = %q", got)
	}
	if n, _ := e.UndoToCheckpoint(cp); n != 0 {
		t.Errorf("second UndoToCheckpoint() undid %d entries", n)
	}
}

func TestUntrackedChange(t *testing.T) {
	e := newEditor(t, WithMarkdown("x"))

	err := e.Update(func(tr *state.Transaction) error {
		tr.SetMeta(state.MetaAddToHistory, false)
		return tr.InsertText("a")
	})
	if err != nil {
		t.Fatal(err)
	}
	if e.CanUndo() {
		t.Error("untracked change was recorded")
	}
}

// ============================================================================
// Read-only and Close
// ============================================================================

func TestReadOnly(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"), WithReadOnly())

	if !e.IsReadOnly() {
		t.Error("expected read-only")
	}
	if err := e.Update(insertText("x")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
	if e.Enabled(commands.InsertText("x")) {
		t.Error("InsertText enabled on read-only editor")
	}
	if !e.Enabled(commands.SelectAll()) {
		t.Error("SelectAll disabled on read-only editor")
	}
	if _, err := e.Execute(commands.SelectAll()); err != nil {
		t.Errorf("selection change failed: %v", err)
	}
	if err := e.Undo(); !errors.Is(err, ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestClose(t *testing.T) {
	e, err := New(WithMarkdown("Hello"))
	if err != nil {
		t.Fatal(err)
	}
	e.Close()
	e.Close()

	if err := e.Update(insertText("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := e.CodeBlockEditor(0); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if got := e.Markdown(); got != "Hello" {
		t.Errorf("Markdown() = %q", got)
	}
}

// ============================================================================
// Observers
// ============================================================================

func TestObserve(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))

	var changes []Change
	stop := e.Observe(func(c Change) { changes = append(changes, c) })

	if err := e.Update(insertText("a")); err != nil {
		t.Fatal(err)
	}
	selectText(t, e, 1, 3)
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if !changes[0].DocChanged() || changes[1].DocChanged() {
		t.Error("unexpected DocChanged flags")
	}
	if changes[0].After != changes[1].Before {
		t.Error("changes are not chained")
	}

	stop()
	if err := e.Update(insertText("b")); err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Errorf("observer called after stop")
	}
}

func TestObserverReentry(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))

	var seen string
	e.Observe(func(c Change) { seen = e.Markdown() })
	if err := e.Update(insertText("a")); err != nil {
		t.Fatal(err)
	}
	if seen != "aHello" {
		t.Errorf("observer saw %q", seen)
	}
}

func TestObserverPanic(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))

	calls := 0
	e.Observe(func(Change) { panic("bad observer") })
	e.Observe(func(Change) { calls++ })

	if err := e.Update(insertText("a")); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected the second observer to run, got %d calls", calls)
	}
}

// ============================================================================
// Validation
// ============================================================================

func TestValidation(t *testing.T) {
	var mu sync.Mutex
	var reports []validate.Report
	e := newEditor(t,
		WithMarkdown("Hello"),
		WithValidationDelay(time.Hour),
		WithValidationReport(func(r validate.Report) {
			mu.Lock()
			reports = append(reports, r)
			mu.Unlock()
		}),
	)

	for _, s := range []string{"a", "b"} {
		if err := e.Update(insertText(s)); err != nil {
			t.Fatal(err)
		}
	}
	if !e.FlushValidation() {
		t.Fatal("expected pending validation")
	}
	if e.FlushValidation() {
		t.Error("validation still pending after flush")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	if !reports[0].Valid() {
		t.Errorf("unexpected problems: %v", reports[0].Problems)
	}
	if reports[0].Doc.TextContent() != "abHello" {
		t.Errorf("report doc = %q", reports[0].Doc.TextContent())
	}
	if e.LastReport().Seq != reports[0].Seq {
		t.Error("LastReport does not match delivered report")
	}
	if p := e.Validate(); len(p) != 0 {
		t.Errorf("Validate() = %v", p)
	}
}

// ============================================================================
// Code Blocks
// ============================================================================

func TestCodeBlockEditor(t *testing.T) {
	e := newEditor(t, WithMarkdown("```go\nfoo\n```"))

	ed, err := e.CodeBlockEditor(0)
	if err != nil {
		t.Fatal(err)
	}
	if ed.Text() != "foo" || ed.Syntax() != "go" {
		t.Fatalf("editor = %q/%q", ed.Text(), ed.Syntax())
	}
	again, err := e.CodeBlockEditor(0)
	if err != nil || again != ed {
		t.Error("expected the open editor to be reused")
	}

	if err := ed.SetText(3, 3, "()"); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "```go\nfoo()\n```" {
		t.Errorf("Markdown() = %q", got)
	}
	if err := ed.SetSyntax("rust"); err != nil {
		t.Fatal(err)
	}
	if got := e.Doc().Child(0).Attrs().String("syntax"); got != "rust" {
		t.Errorf("syntax = %q", got)
	}

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if ed.Text() != "foo" || ed.Syntax() != "go" {
		t.Errorf("after undo editor = %q/%q", ed.Text(), ed.Syntax())
	}
}

func TestCodeBlockEditorNoEcho(t *testing.T) {
	e := newEditor(t, WithMarkdown("```\nfoo\n```"))
	ed, err := e.CodeBlockEditor(0)
	if err != nil {
		t.Fatal(err)
	}
	events := 0
	ed.OnChange(func(codeblock.Change) { events++ })

	err = e.Update(func(tr *state.Transaction) error {
		return tr.ReplaceText(1, 4, "bar", nil)
	})
	if err != nil {
		t.Fatal(err)
	}
	if ed.Text() != "bar" {
		t.Errorf("editor text = %q", ed.Text())
	}
	if events != 0 {
		t.Errorf("outer change echoed %d events", events)
	}
}

func TestCodeBlockEditorNotCode(t *testing.T) {
	e := newEditor(t, WithMarkdown("text"))
	if _, err := e.CodeBlockEditor(0); !errors.Is(err, ErrNotCodeBlock) {
		t.Errorf("expected ErrNotCodeBlock, got %v", err)
	}
	if _, err := e.CodeBlockEditor(99); !errors.Is(err, ErrNotCodeBlock) {
		t.Errorf("expected ErrNotCodeBlock, got %v", err)
	}
}

func TestCodeBlockEditorRemap(t *testing.T) {
	e := newEditor(t, WithMarkdown("```\nfoo\n```"))
	ed, err := e.CodeBlockEditor(0)
	if err != nil {
		t.Fatal(err)
	}

	para := model.MustNode(e.Schema().NodeType(schema.NodeParagraph), nil, model.MustText(e.Schema(), "x"))
	err = e.Update(func(tr *state.Transaction) error { return tr.Insert(0, para) })
	if err != nil {
		t.Fatal(err)
	}
	if ed.Closed() {
		t.Fatal("editor closed by an insertion before its block")
	}
	pos, ok := e.CodeBlockEditorPos(ed)
	if !ok || pos != 3 {
		t.Fatalf("CodeBlockEditorPos() = %d, %v", pos, ok)
	}

	if err := ed.SetText(0, 0, "// "); err != nil {
		t.Fatal(err)
	}
	if got := e.Markdown(); got != "x\n\n```\n// foo\n```" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestCodeBlockEditorClosedOnDelete(t *testing.T) {
	e := newEditor(t, WithMarkdown("a\n\n```\nx\n```"))
	ed, err := e.CodeBlockEditor(3)
	if err != nil {
		t.Fatal(err)
	}

	err = e.Update(func(tr *state.Transaction) error { return tr.Delete(3, 6) })
	if err != nil {
		t.Fatal(err)
	}
	if !ed.Closed() {
		t.Error("editor not closed after its block was deleted")
	}
	if e.OpenCodeBlockEditors() != 0 {
		t.Errorf("open editors = %d", e.OpenCodeBlockEditors())
	}
	if got := e.Markdown(); got != "a" {
		t.Errorf("Markdown() = %q", got)
	}
}

func TestCloseCodeBlockEditor(t *testing.T) {
	e := newEditor(t, WithMarkdown("```\nx\n```"))
	ed, err := e.CodeBlockEditor(0)
	if err != nil {
		t.Fatal(err)
	}
	e.CloseCodeBlockEditor(ed)

	if !ed.Closed() {
		t.Error("editor not closed")
	}
	if _, ok := e.CodeBlockEditorPos(ed); ok {
		t.Error("closed editor still registered")
	}
	if err := ed.SetText(0, 0, "y"); err == nil {
		t.Error("expected error editing a closed editor")
	}
	if got := e.Markdown(); got != "```\nx\n```" {
		t.Errorf("Markdown() = %q", got)
	}
}

// ============================================================================
// Concurrency
// ============================================================================

func TestConcurrentReads(t *testing.T) {
	e := newEditor(t, WithMarkdown("Hello"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = e.Markdown()
				_ = e.Selection()
			}
		}()
	}
	for j := 0; j < 50; j++ {
		if err := e.Update(insertText("x")); err != nil {
			t.Error(err)
		}
	}
	wg.Wait()

	if got := e.Doc().TextContent(); got != strings.Repeat("x", 50)+"Hello" {
		t.Errorf("text = %q", got)
	}
}
