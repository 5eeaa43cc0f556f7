package state

import (
	"errors"
	"time"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/transform"
)

// Meta keys understood by the engine.
const (
	// MetaAddToHistory set to false keeps a transaction out of undo history.
	MetaAddToHistory = "addToHistory"
	// MetaUIEvent names the user interaction that produced a transaction,
	// such as "input", "paste" or "delete".
	MetaUIEvent = "uiEvent"
	// MetaHistory marks transactions produced by undo and redo.
	MetaHistory = "history"
)

// Status is the lifecycle phase of a transaction.
type Status uint8

const (
	// StatusCreated is an empty transaction.
	StatusCreated Status = iota
	// StatusStepped is a transaction with at least one step.
	StatusStepped
	// StatusApplied is a frozen transaction that produced a new state.
	StatusApplied
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusStepped:
		return "stepped"
	case StatusApplied:
		return "applied"
	default:
		return "unknown"
	}
}

// Transaction is a Transform that also tracks the selection, stored marks
// and metadata of the state it will produce.
type Transaction struct {
	*transform.Transform

	base *State
	time time.Time
	meta map[string]any

	sel          Selection
	selFor       int
	selSet       bool
	storedMarks  []*model.Mark
	storedFor    int
	storedSet    bool
	appliedState *State
}

func newTransaction(base *State) *Transaction {
	return &Transaction{
		Transform:   transform.New(base.doc),
		base:        base,
		time:        time.Now(),
		sel:         base.selection,
		storedMarks: base.storedMarks,
	}
}

// Base returns the state the transaction was created from.
func (tr *Transaction) Base() *State { return tr.base }

// Status returns the lifecycle phase.
func (tr *Transaction) Status() Status {
	switch {
	case tr.appliedState != nil:
		return StatusApplied
	case tr.DocChanged() || tr.selSet || tr.storedSet:
		return StatusStepped
	default:
		return StatusCreated
	}
}

// Time returns the transaction time stamp.
func (tr *Transaction) Time() time.Time { return tr.time }

// SetTime overrides the time stamp.
func (tr *Transaction) SetTime(t time.Time) *Transaction {
	tr.time = t
	return tr
}

// Selection returns the selection mapped through every step added so far.
func (tr *Transaction) Selection() Selection {
	n := len(tr.Steps())
	switch {
	case tr.selFor > n:
		tr.sel = tr.base.selection.Map(tr.Doc(), tr.Mapping())
		tr.selSet = false
	case tr.selFor < n:
		tr.sel = tr.sel.Map(tr.Doc(), tr.Mapping().Slice(tr.selFor, -1))
	}
	tr.selFor = n
	return tr.sel
}

// SetSelection replaces the selection. sel must point into the current
// document.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	if tr.Frozen() {
		return tr
	}
	tr.sel = sel
	tr.selFor = len(tr.Steps())
	tr.selSet = true
	tr.storedMarks, tr.storedSet = nil, false
	return tr
}

// SelectionSet reports whether SetSelection was called.
func (tr *Transaction) SelectionSet() bool { return tr.selSet }

// StoredMarks returns the marks queued for the next typed text. Any step
// added after they were set clears them.
func (tr *Transaction) StoredMarks() []*model.Mark {
	if tr.storedFor != len(tr.Steps()) {
		return nil
	}
	return tr.storedMarks
}

// StoredMarksSet reports whether stored marks were explicitly set.
func (tr *Transaction) StoredMarksSet() bool {
	return tr.storedSet && tr.storedFor == len(tr.Steps())
}

// SetStoredMarks queues marks for the next typed text. nil clears them.
func (tr *Transaction) SetStoredMarks(marks []*model.Mark) *Transaction {
	if tr.Frozen() {
		return tr
	}
	tr.storedMarks = marks
	tr.storedFor = len(tr.Steps())
	tr.storedSet = true
	return tr
}

// EnsureMarks sets the stored marks to marks unless the marks at the
// cursor already equal them.
func (tr *Transaction) EnsureMarks(marks []*model.Mark) *Transaction {
	current := tr.StoredMarks()
	if current == nil {
		current = tr.Selection().Ranges()[0].From.Marks()
	}
	if !model.SameMarkSet(current, marks) {
		tr.SetStoredMarks(marks)
	}
	return tr
}

// AddStoredMark adds mark to the effective stored marks.
func (tr *Transaction) AddStoredMark(mark *model.Mark) *Transaction {
	return tr.SetStoredMarks(mark.AddToSet(tr.effectiveMarks()))
}

// RemoveStoredMark removes mark from the effective stored marks.
func (tr *Transaction) RemoveStoredMark(mark *model.Mark) *Transaction {
	return tr.SetStoredMarks(mark.RemoveFromSet(tr.effectiveMarks()))
}

func (tr *Transaction) effectiveMarks() []*model.Mark {
	if marks := tr.StoredMarks(); marks != nil {
		return marks
	}
	return tr.Selection().Ranges()[0].To.Marks()
}

// Meta returns the metadata stored under key.
func (tr *Transaction) Meta(key string) any { return tr.meta[key] }

// SetMeta stores metadata under key.
func (tr *Transaction) SetMeta(key string, value any) *Transaction {
	if tr.meta == nil {
		tr.meta = make(map[string]any)
	}
	tr.meta[key] = value
	return tr
}

// AddToHistory reports whether the transaction should be recorded in undo
// history.
func (tr *Transaction) AddToHistory() bool {
	v, ok := tr.meta[MetaAddToHistory].(bool)
	return !ok || v
}

// ReplaceSelection replaces the selection with slice and places the
// cursor at the end of the inserted content.
func (tr *Transaction) ReplaceSelection(slice model.Slice) error {
	sel := tr.Selection()
	if r, ok := sel.(Replacer); ok {
		return tr.atomically(func() error { return r.Replace(tr, slice) })
	}
	return tr.atomically(func() error { return replaceRanges(tr, sel, slice) })
}

// ReplaceSelectionWith replaces the selection with node. When
// inheritMarks is set an inline node takes the stored marks or the marks
// at the selection.
func (tr *Transaction) ReplaceSelectionWith(node *model.Node, inheritMarks bool) error {
	sel := tr.Selection()
	if inheritMarks && node.IsInline() {
		marks := tr.StoredMarks()
		if marks == nil {
			r := sel.Ranges()[0]
			if sel.Empty() {
				marks = r.From.Marks()
			} else {
				marks = r.From.MarksAcross(r.To)
			}
		}
		parent := sel.Ranges()[0].From.Parent().Type()
		var allowed []*model.Mark
		for _, m := range marks {
			if parent.AllowsMarkType(m.Type()) {
				allowed = append(allowed, m)
			}
		}
		node = node.Mark(allowed)
	}
	return tr.atomically(func() error {
		start := len(tr.Steps())
		for i, r := range sel.Ranges() {
			m := tr.Mapping().Slice(start, -1)
			from, to := m.Map(r.From.Pos(), 1), m.Map(r.To.Pos(), 1)
			if i > 0 {
				if err := tr.DeleteRange(from, to); err != nil {
					return err
				}
				continue
			}
			if err := tr.ReplaceRangeWith(from, to, node); err != nil {
				return err
			}
			bias := 1
			if node.IsInline() {
				bias = -1
			}
			tr.selectionToInsertionEnd(start, bias)
		}
		return nil
	})
}

// DeleteSelection deletes the selected content.
func (tr *Transaction) DeleteSelection() error {
	return tr.ReplaceSelection(model.EmptySlice)
}

// InsertText replaces the selection with text carrying the stored marks or
// the marks at the selection. Empty text deletes the selection.
func (tr *Transaction) InsertText(text string) error {
	if text == "" {
		return tr.DeleteSelection()
	}
	node, err := model.NewText(tr.Doc().Type().Schema(), text, nil)
	if err != nil {
		return err
	}
	return tr.ReplaceSelectionWith(node, true)
}

// InsertTextAt replaces [from, to) with text without touching a cursor
// selection outside the range.
func (tr *Transaction) InsertTextAt(text string, from, to int) error {
	if text == "" {
		return tr.DeleteRange(from, to)
	}
	marks := tr.StoredMarks()
	if marks == nil {
		rf, err := tr.Doc().Resolve(from)
		if err != nil {
			return err
		}
		if to == from {
			marks = rf.Marks()
		} else {
			rt, err := tr.Doc().Resolve(to)
			if err != nil {
				return err
			}
			marks = rf.MarksAcross(rt)
		}
	}
	node, err := model.NewText(tr.Doc().Type().Schema(), text, marks)
	if err != nil {
		return err
	}
	if err := tr.ReplaceRangeWith(from, to, node); err != nil {
		return err
	}
	if sel := tr.Selection(); !sel.Empty() {
		tr.SetSelection(Near(sel.Ranges()[0].To, 1))
	}
	return nil
}

// atomically runs fn and drops its steps when it fails.
func (tr *Transaction) atomically(fn func() error) error {
	if tr.Frozen() {
		return ErrFrozen
	}
	mark := tr.Checkpoint()
	sel, selFor, selSet := tr.sel, tr.selFor, tr.selSet
	marks, marksFor, marksSet := tr.storedMarks, tr.storedFor, tr.storedSet
	if err := fn(); err != nil {
		tr.Rollback(mark)
		tr.sel, tr.selFor, tr.selSet = sel, selFor, selSet
		tr.storedMarks, tr.storedFor, tr.storedSet = marks, marksFor, marksSet
		return err
	}
	return nil
}

// replaceRanges is the default content replacement for selections that
// do not provide their own.
func replaceRanges(tr *Transaction, sel Selection, content model.Slice) error {
	var lastNode, lastParent *model.Node
	if content.Content.ChildCount() > 0 {
		lastNode = content.Content.LastChild()
		for i := 0; i < content.OpenEnd && lastNode != nil; i++ {
			lastParent = lastNode
			lastNode = lastNode.LastChild()
		}
	}
	start := len(tr.Steps())
	for i, r := range sel.Ranges() {
		m := tr.Mapping().Slice(start, -1)
		from, to := m.Map(r.From.Pos(), 1), m.Map(r.To.Pos(), 1)
		slice := content
		if i > 0 {
			slice = model.EmptySlice
		}
		if err := replaceRange(tr, from, to, slice); err != nil {
			return err
		}
		if i == 0 {
			bias := 1
			if (lastNode != nil && lastNode.IsInline()) || (lastNode == nil && lastParent != nil && lastParent.IsTextblock()) {
				bias = -1
			}
			tr.selectionToInsertionEnd(start, bias)
		}
	}
	return nil
}

func replaceRange(tr *Transaction, from, to int, slice model.Slice) error {
	if slice.Size() == 0 {
		return tr.Delete(from, to)
	}
	err := tr.Replace(from, to, slice)
	if err == nil || !errors.Is(err, model.ErrReplacementInvalid) {
		return err
	}
	if slice.OpenStart == 0 && slice.OpenEnd == 0 && slice.Content.ChildCount() == 1 {
		return tr.ReplaceRangeWith(from, to, slice.Content.FirstChild())
	}
	return err
}

// selectionToInsertionEnd moves the cursor to the end of the content
// inserted by the last step, when that step was added after start.
func (tr *Transaction) selectionToInsertionEnd(start, bias int) {
	steps := tr.Steps()
	last := len(steps) - 1
	if last < start {
		return
	}
	switch steps[last].(type) {
	case *transform.ReplaceStep, *transform.ReplaceAroundStep:
	default:
		return
	}
	end := -1
	tr.Mapping().Maps()[last].ForEach(func(_, _, _, newEnd int) {
		if end < 0 {
			end = newEnd
		}
	})
	if end < 0 {
		return
	}
	rp, err := tr.Doc().Resolve(end)
	if err != nil {
		return
	}
	tr.SetSelection(Near(rp, bias))
}
