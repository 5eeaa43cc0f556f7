// Package statetest creates editor states from tagged test documents.
package statetest

import (
	"fmt"

	"github.com/dshills/inkwell/internal/model/modeltest"
	"github.com/dshills/inkwell/internal/state"
)

// New creates a state for d. The selection comes from the tags: "node"
// selects the node after it, "a" and optionally "b" give a text selection,
// and without tags the cursor is at the start.
func New(d *modeltest.Tagged) *state.State {
	var sel state.Selection
	switch {
	case d.Has("node"):
		ns, err := state.NodeSelectionAt(d.Node, d.Tag("node"))
		if err != nil {
			panic(fmt.Sprintf("statetest: %v", err))
		}
		sel = ns
	case d.Has("a"):
		head := d.Tag("a")
		if d.Has("b") {
			head = d.Tag("b")
		}
		ts, err := state.TextSelectionAt(d.Node, d.Tag("a"), head)
		if err != nil {
			panic(fmt.Sprintf("statetest: %v", err))
		}
		sel = ts
	}
	st, err := state.New(state.Config{Doc: d.Node, Selection: sel})
	if err != nil {
		panic(fmt.Sprintf("statetest: %v", err))
	}
	return st
}

// Apply applies tr to st and panics on error.
func Apply(st *state.State, tr *state.Transaction) *state.State {
	next, err := st.Apply(tr)
	if err != nil {
		panic(fmt.Sprintf("statetest: %v", err))
	}
	return next
}
