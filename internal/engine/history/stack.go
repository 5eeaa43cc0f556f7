package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Values of state.MetaHistory on transactions produced by the history.
const (
	ActionUndo = "undo"
	ActionRedo = "redo"
)

// MetaDescription names a transaction in the undo list.
const MetaDescription = "description"

// MetaSkippedSteps holds the number of recorded steps an undo or redo
// transaction could not apply.
const MetaSkippedSteps = "historySkippedSteps"

const (
	// DefaultMaxEntries bounds the undo stack when no limit is given.
	DefaultMaxEntries = 1000
	// DefaultGroupDelay is how close typed text must follow the previous
	// edit to join its entry.
	DefaultGroupDelay = 500 * time.Millisecond
)

// History manages undo/redo state for an editor.
type History struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	// Grouping state
	grouping  bool
	groupName string
	group     *entry

	// Configuration
	maxEntries int
	groupDelay time.Duration
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{
		maxEntries: maxEntries,
		groupDelay: DefaultGroupDelay,
	}
}

// Record adds an applied transaction to the history. Transactions that
// opt out of history have their mapping applied to every stored entry.
// Transactions produced by Undo and Redo are ignored.
func (h *History) Record(tr *state.Transaction) {
	if !tr.DocChanged() {
		return
	}
	if _, ok := tr.Meta(state.MetaHistory).(string); ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !tr.AddToHistory() {
		h.remapLocked(tr.Mapping())
		return
	}

	if h.grouping {
		h.redoStack = nil
		if h.group == nil {
			h.group = newEntry(tr, h.groupName)
		} else {
			h.group.extend(tr)
		}
		return
	}

	if top := h.mergeTarget(tr); top != nil {
		top.extend(tr)
		return
	}
	h.pushLocked(newEntry(tr, describe(tr)))
}

// mergeTarget returns the entry typed text in tr should join, if any.
func (h *History) mergeTarget(tr *state.Transaction) *entry {
	if len(h.undoStack) == 0 || len(h.redoStack) > 0 {
		return nil
	}
	top := h.undoStack[len(h.undoStack)-1]
	if top.sealed || top.event != "input" || uiEvent(tr) != "input" {
		return nil
	}
	if tr.Time().Sub(top.updated) >= h.groupDelay {
		return nil
	}
	from, _, _ := tr.ChangedRange()
	if !top.adjacent(from) {
		return nil
	}
	return top
}

// pushLocked adds an entry without acquiring the lock.
func (h *History) pushLocked(e *entry) {
	h.undoStack = append(h.undoStack, e)

	// Clear redo stack
	h.redoStack = nil

	// Enforce max entries
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// remapLocked maps every stored entry through a change made outside the
// history.
func (h *History) remapLocked(m *transform.Mapping) {
	cur := m
	if h.group != nil {
		var kept []*entry
		kept, cur = rebase([]*entry{h.group}, cur)
		h.group = nil
		if len(kept) > 0 {
			h.group = kept[0]
		}
	}
	h.undoStack, _ = rebase(h.undoStack, cur)
	h.redoStack, _ = rebase(h.redoStack, m)
}

// Undo builds the transaction that reverts the newest entry in st and
// moves the entry to the redo stack. The caller must apply the returned
// transaction to st.
func (h *History) Undo(st *state.State) (*state.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.endGroupLocked()
	for len(h.undoStack) > 0 {
		e := h.undoStack[len(h.undoStack)-1]
		h.undoStack = h.undoStack[:len(h.undoStack)-1]
		tr, redo := replay(st, e, ActionUndo)
		if tr == nil {
			continue
		}
		h.redoStack = append(h.redoStack, redo)
		return tr, nil
	}
	return nil, ErrNothingToUndo
}

// Redo builds the transaction that reapplies the newest undone entry in st
// and moves the entry back to the undo stack. The caller must apply the
// returned transaction to st.
func (h *History) Redo(st *state.State) (*state.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for len(h.redoStack) > 0 {
		e := h.redoStack[len(h.redoStack)-1]
		h.redoStack = h.redoStack[:len(h.redoStack)-1]
		tr, undo := replay(st, e, ActionRedo)
		if tr == nil {
			continue
		}
		undo.sealed = true
		h.undoStack = append(h.undoStack, undo)
		return tr, nil
	}
	return nil, ErrNothingToRedo
}

// replay applies the steps of e to a transaction on st and returns it with
// the entry that reverts it. Steps that no longer apply are skipped and
// the steps after them are mapped past the gap; the count lands in
// MetaSkippedSteps. A nil transaction means no step applied.
func replay(st *state.State, e *entry, action string) (*state.Transaction, *entry) {
	tr := st.Tr()
	// remap carries positions from the recorded step sequence into tr's
	// document. It stays nil until a step is skipped.
	var remap *transform.Mapping
	skipped := 0
	for _, s := range e.steps {
		step := s
		if remap != nil {
			step = s.Map(remap)
		}
		applied := step != nil && tr.Step(step) == nil
		if !applied {
			skipped++
		}
		if remap == nil && applied {
			continue
		}
		next := transform.NewMapping(s.StepMap().Invert())
		if remap != nil {
			next.AppendMapping(remap)
		}
		if applied {
			next.AppendMap(step.StepMap())
		}
		remap = next
	}
	if !tr.DocChanged() {
		return nil, nil
	}
	tr.SetSelection(e.selBefore.Resolve(tr.Doc()))
	tr.SetMeta(state.MetaAddToHistory, false)
	tr.SetMeta(state.MetaHistory, action)
	if skipped > 0 {
		tr.SetMeta(MetaSkippedSteps, skipped)
	}

	back := newEntry(tr, e.description)
	back.id = e.id
	back.event = e.event
	return tr, back
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0 || h.group != nil
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo entries available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Seal stops the newest entry from absorbing further typed text.
func (h *History) Seal() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undoStack) > 0 {
		h.undoStack[len(h.undoStack)-1].sealed = true
	}
}

// BeginGroup starts a group.
// Transactions recorded while grouping are combined into a single undo unit.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		// Already grouping, ignore nested calls
		return
	}

	h.grouping = true
	h.groupName = name
	h.group = nil
}

// EndGroup finishes a group and pushes its entry, if anything was recorded.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.endGroupLocked()
}

func (h *History) endGroupLocked() {
	if !h.grouping {
		return
	}
	h.grouping = false
	if h.group != nil {
		h.group.sealed = true
		h.pushLocked(h.group)
		h.group = nil
	}
}

// CancelGroup ends a group without adding it to history. The grouped
// changes stay in the document and are treated like untracked changes.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.grouping = false
	if h.group != nil {
		fwd := h.group.forward()
		h.group = nil
		h.undoStack, _ = rebase(h.undoStack, fwd)
	}
}

// IsGrouping returns true if currently in a group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.grouping = false
	h.group = nil
}

// UndoInfo returns info about available undo entries, oldest first.
func (h *History) UndoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]Info, len(h.undoStack))
	for i, e := range h.undoStack {
		result[i] = e.info()
	}
	return result
}

// RedoInfo returns info about available redo entries, oldest first.
func (h *History) RedoInfo() []Info {
	h.mu.Lock()
	defer h.mu.Unlock()

	result := make([]Info, len(h.redoStack))
	for i, e := range h.redoStack {
		result[i] = e.info()
	}
	return result
}

// PeekUndo returns info about the next undo entry without removing it.
func (h *History) PeekUndo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return Info{}, false
	}
	return h.undoStack[len(h.undoStack)-1].info(), true
}

// PeekRedo returns info about the next redo entry without removing it.
func (h *History) PeekRedo() (Info, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return Info{}, false
	}
	return h.redoStack[len(h.redoStack)-1].info(), true
}

// SetMaxEntries changes the maximum number of undo entries.
// If the current stack is larger, oldest entries are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max

	if len(h.undoStack) > max {
		excess := len(h.undoStack) - max
		h.undoStack = h.undoStack[excess:]
	}
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}

// SetGroupDelay changes how close typed text must follow the previous edit
// to be merged with it. Zero disables merging.
func (h *History) SetGroupDelay(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.groupDelay = d
}

// GroupDelay returns the typed-text merge window.
func (h *History) GroupDelay() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.groupDelay
}

func describe(tr *state.Transaction) string {
	if d, ok := tr.Meta(MetaDescription).(string); ok && d != "" {
		return d
	}
	switch uiEvent(tr) {
	case "input":
		return "Typing"
	case "delete":
		return "Delete"
	case "paste":
		return "Paste"
	case "drop":
		return "Drop"
	}
	return "Edit"
}
