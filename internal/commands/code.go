package commands

import (
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

func selectionEnds(sel state.Selection) (anchor, head *model.ResolvedPos) {
	if ts, ok := sel.(*state.TextSelection); ok {
		return ts.ResolvedAnchor(), ts.ResolvedHead()
	}
	r := sel.Ranges()[0]
	return r.From, r.To
}

// inCode returns the head of the selection when both ends sit in the same
// code block.
func inCode(st *state.State) *model.ResolvedPos {
	anchor, head := selectionEnds(st.Selection())
	if !head.Parent().Type().IsCode() || !head.SameParent(anchor) {
		return nil
	}
	return head
}

// NewlineInCode replaces the selection inside a code block with a newline.
func NewlineInCode() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if inCode(st) == nil {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			tr.SetMeta(state.MetaUIEvent, EventInput)
			return tr.InsertText("\n")
		})
	}
}

// ExitCode leaves a code block by creating a default block after it and
// moving the cursor there.
func ExitCode() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		head := inCode(st)
		if head == nil {
			return false
		}
		above, after := head.Node(-1), head.IndexAfter(-1)
		t := defaultBlockAt(above.ContentMatchAt(after))
		if t == nil || !above.CanReplaceWith(after, after, t, nil) {
			return false
		}
		pos := head.After(head.Depth())
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			n, err := model.CreateAndFill(t, nil, model.EmptyFragment, nil)
			if err != nil {
				return err
			}
			if err := tr.Insert(pos, n); err != nil {
				return err
			}
			rp, err := tr.Doc().Resolve(pos)
			if err != nil {
				return err
			}
			tr.SetSelection(state.Near(rp, 1))
			return nil
		})
	}
}

// codeBlockAt returns the position before the code block around rp, or -1.
func codeBlockAt(rp *model.ResolvedPos) int {
	for d := rp.Depth(); d > 0; d-- {
		if rp.Node(d).Type().IsCode() {
			return rp.Before(d)
		}
	}
	return -1
}

// SetCodeBlockSyntax sets the language tag of the code block holding the
// selection. An empty syntax clears it.
func SetCodeBlockSyntax(syntax string) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		sel := st.Selection()
		pos := -1
		if ns, ok := sel.(*state.NodeSelection); ok && ns.Node().Type().IsCode() {
			pos = ns.From()
		} else {
			pos = codeBlockAt(sel.Ranges()[0].From)
		}
		if pos < 0 {
			return false
		}
		node := st.Doc().NodeAt(pos)
		if node.Attr("syntax") == syntax {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return tr.SetNodeAttribute(pos, "syntax", syntax)
		})
	}
}

// InsertCodeBlock turns the selected textblocks into a code block tagged
// with syntax.
func InsertCodeBlock(syntax string) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		t := st.Schema().NodeType(schema.NodeCodeBlock)
		if t == nil {
			return false
		}
		return SetBlockType(t, schema.Attrs{"syntax": syntax})(st, dispatch)
	}
}

// ArrowIntoCodeBlock moves a cursor at the edge of its textblock into the
// adjacent code block in direction dir, landing at the code block's near
// end. The nested editor for that block takes focus from there.
func ArrowIntoCodeBlock(dir int) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		var cursor *model.ResolvedPos
		if dir < 0 {
			cursor = atBlockStart(st)
		} else {
			cursor = atBlockEnd(st)
		}
		if cursor == nil || cursor.Depth() == 0 || cursor.Parent().Type().IsCode() {
			return false
		}
		edge := cursor.Before(cursor.Depth())
		if dir > 0 {
			edge = cursor.After(cursor.Depth())
		}
		rp, err := st.Doc().Resolve(edge)
		if err != nil {
			return false
		}
		target := state.FindFrom(rp, dir, true)
		if target == nil {
			return false
		}
		_, head := selectionEnds(target)
		if !head.Parent().Type().IsCode() {
			return false
		}
		return build(st, dispatch, func(tr *state.Transaction) error {
			tr.SetSelection(target)
			return nil
		})
	}
}

// IsInCodeBlock reports whether the selection lies within one code block.
func IsInCodeBlock(st *state.State) bool {
	return inCode(st) != nil
}
