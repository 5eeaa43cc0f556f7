package commands

import (
	"errors"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// Command is an editing operation. With a nil dispatch it only reports
// whether it applies; otherwise it also passes its transaction to
// dispatch.
type Command func(st *state.State, dispatch func(*state.Transaction)) bool

// errNotApplicable aborts a transaction builder without a real failure.
var errNotApplicable = errors.New("command not applicable")

// Chain returns a command that tries cmds in order and stops at the first
// that applies.
func Chain(cmds ...Command) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		for _, cmd := range cmds {
			if cmd(st, dispatch) {
				return true
			}
		}
		return false
	}
}

// Enabled reports whether cmd applies to st.
func Enabled(st *state.State, cmd Command) bool {
	return cmd(st, nil)
}

// Run executes cmd against st and applies its transaction. It returns st
// unchanged and false when the command does not apply.
func Run(st *state.State, cmd Command) (*state.State, bool, error) {
	var tr *state.Transaction
	if !cmd(st, func(t *state.Transaction) { tr = t }) || tr == nil {
		return st, false, nil
	}
	next, err := st.Apply(tr)
	if err != nil {
		return st, false, err
	}
	return next, true, nil
}

// build runs fn on a fresh transaction. The command applies when fn
// succeeds; the transaction is dispatched only then.
func build(st *state.State, dispatch func(*state.Transaction), fn func(tr *state.Transaction) error) bool {
	tr := st.Tr()
	if err := fn(tr); err != nil {
		return false
	}
	if dispatch != nil {
		dispatch(tr)
	}
	return true
}

// buildChange is build for commands that must change the document.
func buildChange(st *state.State, dispatch func(*state.Transaction), fn func(tr *state.Transaction) error) bool {
	return build(st, dispatch, func(tr *state.Transaction) error {
		if err := fn(tr); err != nil {
			return err
		}
		if !tr.DocChanged() {
			return errNotApplicable
		}
		return nil
	})
}

func cursorOf(sel state.Selection) *model.ResolvedPos {
	if ts, ok := sel.(*state.TextSelection); ok {
		return ts.Cursor()
	}
	return nil
}

func attrsMatch(have, want schema.Attrs) bool {
	for k, v := range want {
		if !schema.ValuesEqual(have.Get(k), v) {
			return false
		}
	}
	return true
}

// findAncestor returns the depth of the innermost ancestor of rp with type
// t and attrs, or -1.
func findAncestor(rp *model.ResolvedPos, t *schema.NodeType, attrs schema.Attrs) int {
	for d := rp.Depth(); d > 0; d-- {
		n := rp.Node(d)
		if n.Type() == t && attrsMatch(n.Attrs(), attrs) {
			return d
		}
	}
	return -1
}

// IsNodeActive reports whether both ends of the selection sit inside a
// node of type t whose attributes include attrs.
func IsNodeActive(st *state.State, t *schema.NodeType, attrs schema.Attrs) bool {
	sel := st.Selection()
	if ns, ok := sel.(*state.NodeSelection); ok && ns.Node().Type() == t {
		return attrsMatch(ns.Node().Attrs(), attrs)
	}
	r := sel.Ranges()[0]
	return findAncestor(r.From, t, attrs) >= 0 && findAncestor(r.To, t, attrs) >= 0
}

// defaultBlockAt returns the first textblock type match accepts that can
// be created without attributes.
func defaultBlockAt(match *schema.ContentMatch) *schema.NodeType {
	for i := 0; i < match.EdgeCount(); i++ {
		t := match.Edge(i).Type
		if t.IsTextblock() && !t.HasRequiredAttrs() {
			return t
		}
	}
	return nil
}

// Build runs fn on a fresh transaction of st and dispatches it when fn
// succeeds. It reports whether fn succeeded. Packages defining their own
// commands use it to keep dry runs and dispatch in step.
func Build(st *state.State, dispatch func(*state.Transaction), fn func(tr *state.Transaction) error) bool {
	return build(st, dispatch, fn)
}

// BuildChange is Build for commands that must change the document.
func BuildChange(st *state.State, dispatch func(*state.Transaction), fn func(tr *state.Transaction) error) bool {
	return buildChange(st, dispatch, fn)
}

// ErrNotApplicable aborts a builder passed to Build without a real failure.
var ErrNotApplicable = errNotApplicable
