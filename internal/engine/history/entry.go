package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// entry is one undoable unit. steps undo the change when applied in order
// to the document the entry ends at.
type entry struct {
	id          string
	description string
	created     time.Time
	updated     time.Time
	event       string
	steps       []transform.Step
	selBefore   state.Bookmark
	selAfter    state.Bookmark

	// Range of the last change in the entry's end document, used to decide
	// whether typed text continues the entry.
	from, to int
	sealed   bool
}

// Info provides read-only details about a history entry.
type Info struct {
	ID          string    // Stable entry ID
	Description string    // Human-readable description
	Timestamp   time.Time // When the entry was last extended
	Steps       int       // Number of inverse steps
}

func (e *entry) info() Info {
	return Info{ID: e.id, Description: e.description, Timestamp: e.updated, Steps: len(e.steps)}
}

// newEntry builds the entry that undoes an applied transaction.
func newEntry(tr *state.Transaction, description string) *entry {
	steps := invertSteps(tr.Transform)
	e := &entry{
		id:          uuid.New().String(),
		description: description,
		created:     tr.Time(),
		updated:     tr.Time(),
		event:       uiEvent(tr),
		steps:       steps,
		selBefore:   tr.Base().Selection().Bookmark(),
		selAfter:    tr.Selection().Bookmark(),
	}
	e.from, e.to, _ = tr.ChangedRange()
	return e
}

// invertSteps returns the steps that undo tr, last step first.
func invertSteps(tr *transform.Transform) []transform.Step {
	steps, docs := tr.Steps(), tr.Docs()
	out := make([]transform.Step, 0, len(steps))
	for i := len(steps) - 1; i >= 0; i-- {
		out = append(out, steps[i].Invert(docs[i]))
	}
	return out
}

// extend folds a later transaction into e.
func (e *entry) extend(tr *state.Transaction) {
	e.steps = append(invertSteps(tr.Transform), e.steps...)
	e.selAfter = tr.Selection().Bookmark()
	e.updated = tr.Time()
	if from, to, ok := tr.ChangedRange(); ok {
		e.from = min(tr.Mapping().Map(e.from, -1), from)
		e.to = max(tr.Mapping().Map(e.to, 1), to)
	}
}

// adjacent reports whether a change starting at from continues the last
// change recorded in e.
func (e *entry) adjacent(from int) bool {
	return from >= e.from-1 && from <= e.to
}

// forward returns the mapping from the entry's start document to its end
// document.
func (e *entry) forward() *transform.Mapping {
	m := transform.NewMapping()
	for _, s := range e.steps {
		m.AppendMap(s.StepMap())
	}
	return m.Invert()
}

func uiEvent(tr *state.Transaction) string {
	if ev, ok := tr.Meta(state.MetaUIEvent).(string); ok {
		return ev
	}
	return ""
}

// rebase maps the entries of stack through m, a mapping from the document
// the newest entry applies to. Steps that no longer apply are dropped and
// entries left without steps are removed. The returned mapping continues
// from the document the oldest entry starts at.
func rebase(stack []*entry, m *transform.Mapping) ([]*entry, *transform.Mapping) {
	cur := m
	kept := make([]*entry, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		e := stack[i]
		e.selAfter = e.selAfter.Map(cur)
		e.from, e.to = cur.Map(e.from, -1), cur.Map(e.to, 1)
		var steps []transform.Step
		for _, s := range e.steps {
			mapped := s.Map(cur)
			next := transform.NewMapping(s.StepMap().Invert())
			next.AppendMapping(cur)
			if mapped != nil {
				next.AppendMap(mapped.StepMap())
				steps = append(steps, mapped)
			}
			cur = next
		}
		e.selBefore = e.selBefore.Map(cur)
		e.steps = steps
		if len(steps) > 0 {
			kept = append(kept, e)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept, cur
}
