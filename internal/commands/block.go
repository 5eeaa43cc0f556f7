package commands

import (
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// SetBlockType turns the textblocks in the selection into nodes of type t.
// It applies when at least one of them can change in place.
func SetBlockType(t *schema.NodeType, attrs schema.Attrs) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if t == nil || !t.IsTextblock() {
			return false
		}
		sel := st.Selection()
		applicable := false
		for _, r := range sel.Ranges() {
			if applicable {
				break
			}
			st.Doc().NodesBetween(r.From.Pos(), r.To.Pos(), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
				if applicable {
					return false
				}
				if !n.IsTextblock() || n.HasMarkup(t, attrs, n.Marks()) {
					return true
				}
				if n.Type() == t {
					applicable = true
					return false
				}
				rp := st.Doc().MustResolve(pos)
				index := rp.Index(rp.Depth())
				applicable = rp.Parent().CanReplaceWith(index, index+1, t, nil)
				return false
			})
		}
		if !applicable {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			for _, r := range sel.Ranges() {
				m := tr.Mapping()
				if err := tr.SetBlockType(m.Map(r.From.Pos(), 1), m.Map(r.To.Pos(), -1), t, attrs, nil); err != nil {
					return err
				}
			}
			return nil
		})
	}
}

// SetParagraph turns the selected textblocks into paragraphs.
func SetParagraph() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		return SetBlockType(st.Schema().NodeType(schema.NodeParagraph), nil)(st, dispatch)
	}
}

// SetHeading turns the selected textblocks into headings of level.
func SetHeading(level int) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if level < 1 || level > 6 {
			return false
		}
		return SetBlockType(st.Schema().NodeType(schema.NodeHeading), schema.Attrs{"level": level})(st, dispatch)
	}
}

// ToggleHeading sets a heading of level, or turns it back into a paragraph
// when the selection already is one.
func ToggleHeading(level int) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		heading := st.Schema().NodeType(schema.NodeHeading)
		if IsNodeActive(st, heading, schema.Attrs{"level": level}) {
			return SetParagraph()(st, dispatch)
		}
		return SetHeading(level)(st, dispatch)
	}
}

// Wrap wraps the blocks of the selection in a node of type t.
func Wrap(t *schema.NodeType, attrs schema.Attrs) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if t == nil {
			return false
		}
		r := st.Selection().Ranges()[0]
		rng := r.From.BlockRange(r.To, nil)
		if rng == nil {
			return false
		}
		wrapping := transform.FindWrapping(rng, t, attrs, nil)
		if wrapping == nil {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return tr.Wrap(rng, wrapping)
		})
	}
}

// Lift moves the selected blocks out of their parent node.
func Lift() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		r := st.Selection().Ranges()[0]
		rng := r.From.BlockRange(r.To, nil)
		if rng == nil {
			return false
		}
		target, ok := transform.LiftTarget(rng)
		if !ok {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return tr.Lift(rng, target)
		})
	}
}

// liftOutOf lifts the selected blocks out of the ancestor at depth d.
func liftOutOf(st *state.State, dispatch func(*state.Transaction), d int) bool {
	r := st.Selection().Ranges()[0]
	ancestor := r.From.Node(d)
	rng := r.From.BlockRange(r.To, func(n *model.Node) bool { return n == ancestor })
	if rng == nil {
		return false
	}
	target, ok := transform.LiftTarget(rng)
	if !ok {
		return false
	}
	return buildChange(st, dispatch, func(tr *state.Transaction) error {
		return tr.Lift(rng, target)
	})
}

// ToggleWrap wraps the selection in a node of type t, or lifts it out of
// the enclosing one. Blockquotes and containers use it.
func ToggleWrap(t *schema.NodeType, attrs schema.Attrs) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if t == nil {
			return false
		}
		if d := findAncestor(st.Selection().Ranges()[0].From, t, attrs); d > 0 && IsNodeActive(st, t, attrs) {
			return liftOutOf(st, dispatch, d)
		}
		return Wrap(t, attrs)(st, dispatch)
	}
}
