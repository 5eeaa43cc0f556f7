package history

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/inkwell/internal/model"
	. "github.com/dshills/inkwell/internal/model/modeltest"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/state/statetest"
	"github.com/dshills/inkwell/internal/transform"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func strong() *model.Mark { return model.MustMark(Schema.MarkType(schema.MarkStrong), nil) }

// edit applies fn to a transaction on st, records it in h and returns the
// new state.
func edit(t *testing.T, h *History, st *state.State, fn func(tr *state.Transaction) error, opts ...func(*state.Transaction)) *state.State {
	t.Helper()
	tr := st.Tr()
	if err := fn(tr); err != nil {
		t.Fatalf("edit: %v", err)
	}
	for _, o := range opts {
		o(tr)
	}
	next, err := st.Apply(tr)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	h.Record(tr)
	return next
}

func typed(at time.Time) func(*state.Transaction) {
	return func(tr *state.Transaction) {
		tr.SetMeta(state.MetaUIEvent, "input")
		tr.SetTime(at)
	}
}

func untracked(tr *state.Transaction) { tr.SetMeta(state.MetaAddToHistory, false) }

func insertAt(pos int, text string) func(tr *state.Transaction) error {
	return func(tr *state.Transaction) error { return tr.Transform.InsertText(pos, text, nil) }
}

func undo(t *testing.T, h *History, st *state.State) *state.State {
	t.Helper()
	tr, err := h.Undo(st)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if tr.AddToHistory() {
		t.Error("undo transaction should not be added to history")
	}
	return statetest.Apply(st, tr)
}

func redo(t *testing.T, h *History, st *state.State) *state.State {
	t.Helper()
	tr, err := h.Redo(st)
	if err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	return statetest.Apply(st, tr)
}

func TestNewHistory(t *testing.T) {
	h := NewHistory(0)
	if h.MaxEntries() != DefaultMaxEntries {
		t.Errorf("MaxEntries() = %d, want %d", h.MaxEntries(), DefaultMaxEntries)
	}
	if h.GroupDelay() != DefaultGroupDelay {
		t.Errorf("GroupDelay() = %v, want %v", h.GroupDelay(), DefaultGroupDelay)
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("new history should be empty")
	}
}

func TestUndoRestoresDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  *Tagged
		edit func(tr *state.Transaction) error
	}{
		{"insert text", Doc(P("ab<a>")), func(tr *state.Transaction) error { return tr.InsertText("cd") }},
		{"delete across blocks", Doc(P("a<a>b"), P("c<b>d")), func(tr *state.Transaction) error { return tr.DeleteSelection() }},
		{"add mark", Doc(P("abc")), func(tr *state.Transaction) error { return tr.AddMark(2, 3, strong()) }},
		{"split", Doc(P("abcd")), func(tr *state.Transaction) error { return tr.Split(3, 1, nil) }},
		{"several steps", Doc(P("one"), P("two")), func(tr *state.Transaction) error {
			if err := tr.Transform.InsertText(1, "x", nil); err != nil {
				return err
			}
			if err := tr.AddMark(1, 3, strong()); err != nil {
				return err
			}
			return tr.Delete(4, 7)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHistory(10)
			st := statetest.New(tt.doc)
			orig := st.Doc()

			edited := edit(t, h, st, tt.edit)
			changed := edited.Doc()
			if changed.Eq(orig) {
				t.Fatal("edit did not change the document")
			}

			undone := undo(t, h, edited)
			if !undone.Doc().Eq(orig) {
				t.Errorf("after undo = %s, want %s", undone.Doc(), orig)
			}
			if !undone.Selection().Eq(st.Selection()) {
				t.Errorf("selection after undo = %v, want %v", undone.Selection(), st.Selection())
			}

			redone := redo(t, h, undone)
			if !redone.Doc().Eq(changed) {
				t.Errorf("after redo = %s, want %s", redone.Doc(), changed)
			}
			if !redone.Selection().Eq(edited.Selection()) {
				t.Errorf("selection after redo = %v, want %v", redone.Selection(), edited.Selection())
			}

			again := undo(t, h, redone)
			if !again.Doc().Eq(orig) {
				t.Errorf("after second undo = %s, want %s", again.Doc(), orig)
			}
		})
	}
}

func TestNothingToUndo(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("a")))

	if _, err := h.Undo(st); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	if _, err := h.Redo(st); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestRecordIgnoresSelectionOnly(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("abc")))
	tr := st.Tr()
	tr.SetSelection(state.TextSelectionBetween(st.Doc().MustResolve(2), st.Doc().MustResolve(2), 1))
	statetest.Apply(st, tr)
	h.Record(tr)

	if h.CanUndo() {
		t.Error("selection-only transaction should not create an entry")
	}
}

func TestTypingMerges(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("<a>")))

	st = edit(t, h, st, insertAt(1, "a"), typed(t0))
	st = edit(t, h, st, insertAt(2, "b"), typed(t0.Add(100*time.Millisecond)))
	st = edit(t, h, st, insertAt(3, "c"), typed(t0.Add(200*time.Millisecond)))
	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}

	// Too late to merge.
	st = edit(t, h, st, insertAt(4, "d"), typed(t0.Add(time.Second)))
	// Not adjacent.
	st = edit(t, h, st, insertAt(1, "z"), typed(t0.Add(1100*time.Millisecond)))
	if h.UndoCount() != 3 {
		t.Fatalf("UndoCount() = %d, want 3", h.UndoCount())
	}

	want := []string{`doc(paragraph("abcd"))`, `doc(paragraph("abc"))`, `doc(paragraph)`}
	for i, w := range want {
		st = undo(t, h, st)
		if got := st.Doc().String(); got != w {
			t.Errorf("undo %d = %s, want %s", i+1, got, w)
		}
	}
}

func TestTypingDoesNotMergeWithOtherEdits(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("<a>")))

	st = edit(t, h, st, insertAt(1, "a"), typed(t0))
	st = edit(t, h, st, insertAt(2, "b"), func(tr *state.Transaction) {
		tr.SetMeta(state.MetaUIEvent, "paste")
		tr.SetTime(t0.Add(10 * time.Millisecond))
	})
	h.Seal()
	edit(t, h, st, insertAt(3, "c"), typed(t0.Add(20*time.Millisecond)))

	if h.UndoCount() != 3 {
		t.Errorf("UndoCount() = %d, want 3", h.UndoCount())
	}
}

func TestZeroGroupDelayDisablesMerging(t *testing.T) {
	h := NewHistory(10)
	h.SetGroupDelay(0)
	st := statetest.New(Doc(P("<a>")))

	st = edit(t, h, st, insertAt(1, "a"), typed(t0))
	edit(t, h, st, insertAt(2, "b"), typed(t0))

	if h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", h.UndoCount())
	}
}

func TestGroup(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))
	orig := st.Doc()

	h.BeginGroup("Replace All")
	if !h.IsGrouping() {
		t.Error("should be grouping")
	}
	st = edit(t, h, st, insertAt(1, "x"))
	st = edit(t, h, st, insertAt(4, "y"))
	h.EndGroup()

	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}
	info, ok := h.PeekUndo()
	if !ok || info.Description != "Replace All" || info.Steps != 2 {
		t.Errorf("PeekUndo() = %+v, %v", info, ok)
	}

	st = undo(t, h, st)
	if !st.Doc().Eq(orig) {
		t.Errorf("after undo = %s, want %s", st.Doc(), orig)
	}
}

func TestGroupScope(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))

	func() {
		g := h.GroupScope("scoped")
		defer g.End()
		st = edit(t, h, st, insertAt(1, "x"))
		st = edit(t, h, st, insertAt(1, "y"))
	}()

	if h.IsGrouping() {
		t.Error("group should be closed")
	}
	if h.UndoCount() != 1 {
		t.Errorf("UndoCount() = %d, want 1", h.UndoCount())
	}
}

func TestTransactionCancelsOnError(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))
	boom := errors.New("boom")

	err := h.Transaction("failing", func() error {
		st = edit(t, h, st, insertAt(1, "x"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Transaction() error = %v, want boom", err)
	}
	if h.CanUndo() {
		t.Error("cancelled group should not be undoable")
	}
}

func TestCancelGroupRemapsEarlierEntries(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))

	st = edit(t, h, st, insertAt(1, "X"))
	h.BeginGroup("cancelled")
	st = edit(t, h, st, insertAt(1, "Y"))
	h.CancelGroup()

	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}
	st = undo(t, h, st)
	if got := st.Doc().String(); got != `doc(paragraph("Yab"))` {
		t.Errorf("after undo = %s, want Yab", got)
	}
}

func TestUntrackedChangesRemapEntries(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("abc")))

	st = edit(t, h, st, insertAt(4, "X"))
	st = edit(t, h, st, insertAt(1, "Z"), untracked)
	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want 1", h.UndoCount())
	}

	st = undo(t, h, st)
	if got := st.Doc().String(); got != `doc(paragraph("Zabc"))` {
		t.Errorf("after undo = %s, want Zabc", got)
	}
	st = redo(t, h, st)
	if got := st.Doc().String(); got != `doc(paragraph("ZabcX"))` {
		t.Errorf("after redo = %s, want ZabcX", got)
	}
}

func TestUntrackedDeletionDropsSteps(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("abc")))

	st = edit(t, h, st, func(tr *state.Transaction) error { return tr.AddMark(2, 3, strong()) })
	st = edit(t, h, st, func(tr *state.Transaction) error { return tr.Delete(1, 4) }, untracked)

	if h.CanUndo() {
		t.Errorf("entry should be dropped, UndoCount() = %d", h.UndoCount())
	}
	if _, err := h.Undo(st); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))

	st = edit(t, h, st, insertAt(1, "x"))
	st = undo(t, h, st)
	if !h.CanRedo() {
		t.Fatal("should be able to redo")
	}
	edit(t, h, st, insertAt(1, "y"))
	if h.CanRedo() {
		t.Error("new edit should clear redo")
	}
}

func TestUndoTransactionsAreNotRecorded(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))

	st = edit(t, h, st, insertAt(1, "x"))
	tr, err := h.Undo(st)
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if got := tr.Meta(state.MetaHistory); got != ActionUndo {
		t.Errorf("Meta(history) = %v, want %s", got, ActionUndo)
	}
	statetest.Apply(st, tr)
	h.Record(tr)

	if h.UndoCount() != 0 || h.RedoCount() != 1 {
		t.Errorf("UndoCount() = %d, RedoCount() = %d, want 0, 1", h.UndoCount(), h.RedoCount())
	}
}

func TestMaxEntries(t *testing.T) {
	h := NewHistory(2)
	st := statetest.New(Doc(P("")))

	for i := 0; i < 3; i++ {
		st = edit(t, h, st, insertAt(1, "x"))
	}
	if h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", h.UndoCount())
	}

	h.SetMaxEntries(1)
	if h.UndoCount() != 1 {
		t.Errorf("UndoCount() after SetMaxEntries = %d, want 1", h.UndoCount())
	}
}

func TestInfo(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("<a>")))

	st = edit(t, h, st, insertAt(1, "a"), typed(t0))
	st = edit(t, h, st, insertAt(2, "b"), func(tr *state.Transaction) {
		tr.SetMeta(MetaDescription, "Insert b")
	})

	infos := h.UndoInfo()
	if len(infos) != 2 {
		t.Fatalf("UndoInfo() len = %d, want 2", len(infos))
	}
	if infos[0].Description != "Typing" || infos[1].Description != "Insert b" {
		t.Errorf("descriptions = %q, %q", infos[0].Description, infos[1].Description)
	}
	if infos[0].ID == "" || infos[0].ID == infos[1].ID {
		t.Errorf("IDs should be unique: %q, %q", infos[0].ID, infos[1].ID)
	}

	undo(t, h, st)
	redoInfo, ok := h.PeekRedo()
	if !ok || redoInfo.ID != infos[1].ID {
		t.Errorf("PeekRedo() = %+v, want ID %s", redoInfo, infos[1].ID)
	}
	if len(h.RedoInfo()) != 1 {
		t.Errorf("RedoInfo() len = %d, want 1", len(h.RedoInfo()))
	}
}

func TestCheckpoint(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))

	st = edit(t, h, st, insertAt(1, "x"))
	cp := h.CreateCheckpoint()
	if got := h.Since(cp); got != 0 {
		t.Errorf("Since() = %d, want 0", got)
	}
	st = edit(t, h, st, insertAt(1, "y"))
	st = edit(t, h, st, insertAt(1, "z"))
	if got := h.Since(cp); got != 2 {
		t.Errorf("Since() = %d, want 2", got)
	}

	for i := 0; i < 3; i++ {
		st = undo(t, h, st)
	}
	if got := h.Since(cp); got != 0 {
		t.Errorf("Since() after undoing past checkpoint = %d, want 0", got)
	}
}

func TestCheckpointSealsTypedText(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))
	st = edit(t, h, st, insertAt(1, "x"), typed(t0))
	cp := h.CreateCheckpoint()
	edit(t, h, st, insertAt(2, "y"), typed(t0.Add(time.Millisecond)))

	if got := h.Since(cp); got != 1 {
		t.Errorf("Since() = %d, want 1", got)
	}
}

func TestTransactionClosesGroup(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))

	err := h.Transaction("pair", func() error {
		st = edit(t, h, st, insertAt(1, "x"))
		st = edit(t, h, st, insertAt(1, "y"))
		return nil
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}
	if h.IsGrouping() {
		t.Error("group should be closed")
	}
	if info, ok := h.PeekUndo(); !ok || info.Description != "pair" {
		t.Errorf("PeekUndo() = %+v, want entry named pair", info)
	}
}

func TestReplayMapsPastSkippedSteps(t *testing.T) {
	st := statetest.New(Doc(P("<a>abcd")))
	block := model.NewSlice(model.FragmentFrom(P("XY").Node), 0, 0)
	e := &entry{
		steps: []transform.Step{
			// Fails: a paragraph cannot sit inside a paragraph.
			transform.NewReplaceStep(1, 1, block, false),
			// Deletes "c", addressed as if the paragraph had been inserted.
			transform.NewReplaceStep(7, 8, model.EmptySlice, false),
		},
		selBefore: st.Selection().Bookmark(),
	}
	tr, back := replay(st, e, ActionUndo)
	if tr == nil || back == nil {
		t.Fatal("replay applied nothing")
	}
	if got := tr.Doc().TextContent(); got != "abd" {
		t.Errorf("doc text = %q, want %q", got, "abd")
	}
	if n, _ := tr.Meta(MetaSkippedSteps).(int); n != 1 {
		t.Errorf("skipped = %v, want 1", tr.Meta(MetaSkippedSteps))
	}
}

func TestReplayNothingApplies(t *testing.T) {
	st := statetest.New(Doc(P("<a>ab")))
	e := &entry{
		steps:     []transform.Step{transform.NewReplaceStep(40, 41, model.EmptySlice, false)},
		selBefore: st.Selection().Bookmark(),
	}
	if tr, _ := replay(st, e, ActionUndo); tr != nil {
		t.Errorf("replay = %v, want nil", tr.Steps())
	}
}

func TestClear(t *testing.T) {
	h := NewHistory(10)
	st := statetest.New(Doc(P("ab")))
	st = edit(t, h, st, insertAt(1, "x"))
	undo(t, h, st)
	h.BeginGroup("g")
	h.Clear()

	if h.CanUndo() || h.CanRedo() || h.IsGrouping() {
		t.Error("Clear should reset everything")
	}
}
