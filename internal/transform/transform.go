package transform

import (
	"github.com/dshills/inkwell/internal/model"
)

// Transform accumulates steps applied to a document.
type Transform struct {
	doc     *model.Node
	docs    []*model.Node
	steps   []Step
	mapping *Mapping
	frozen  bool
}

// New starts a transform on doc.
func New(doc *model.Node) *Transform {
	return &Transform{doc: doc, mapping: NewMapping()}
}

// Doc returns the current document.
func (tr *Transform) Doc() *model.Node { return tr.doc }

// Before returns the document the transform started from.
func (tr *Transform) Before() *model.Node {
	if len(tr.docs) > 0 {
		return tr.docs[0]
	}
	return tr.doc
}

// Steps returns the applied steps.
func (tr *Transform) Steps() []Step { return tr.steps }

// Docs returns the document before each step.
func (tr *Transform) Docs() []*model.Node { return tr.docs }

// Mapping returns the composed mapping of all steps.
func (tr *Transform) Mapping() *Mapping { return tr.mapping }

// DocChanged reports whether any step was applied.
func (tr *Transform) DocChanged() bool { return len(tr.steps) > 0 }

// Step applies step and records it. The transform is unchanged on error.
func (tr *Transform) Step(step Step) error {
	if tr.frozen {
		return ErrFrozen
	}
	doc, err := step.Apply(tr.doc)
	if err != nil {
		return err
	}
	tr.addStep(step, doc)
	return nil
}

func (tr *Transform) addStep(step Step, doc *model.Node) {
	tr.docs = append(tr.docs, tr.doc)
	tr.steps = append(tr.steps, step)
	tr.mapping.AppendMap(step.StepMap())
	tr.doc = doc
}

// Freeze rejects every further step.
func (tr *Transform) Freeze() { tr.frozen = true }

// Frozen reports whether Freeze was called.
func (tr *Transform) Frozen() bool { return tr.frozen }

// Checkpoint marks the current step count for Rollback.
func (tr *Transform) Checkpoint() int { return len(tr.steps) }

// Rollback drops every step applied after checkpoint n.
func (tr *Transform) Rollback(n int) {
	if tr.frozen || n >= len(tr.steps) {
		return
	}
	tr.doc = tr.docs[n]
	tr.docs = tr.docs[:n]
	tr.steps = tr.steps[:n]
	tr.mapping = NewMapping(tr.mapping.maps[:n]...)
}

// ChangedRange returns the range of the current document touched by the
// steps, or ok=false when nothing changed.
func (tr *Transform) ChangedRange() (from, to int, ok bool) {
	from, to = -1, -1
	for _, sm := range tr.mapping.maps {
		if from >= 0 {
			from = sm.Map(from, -1)
			to = sm.Map(to, 1)
		}
		sm.ForEach(func(_, _, newStart, newEnd int) {
			if from < 0 || newStart < from {
				from = newStart
			}
			if newEnd > to {
				to = newEnd
			}
		})
	}
	return from, to, from >= 0
}
