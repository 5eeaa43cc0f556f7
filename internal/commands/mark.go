package commands

import (
	"unicode"
	"unicode/utf8"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// markApplies reports whether some range of the selection has inline
// content that allows marks of type t.
func markApplies(doc *model.Node, ranges []state.SelectionRange, t *schema.MarkType) bool {
	for _, r := range ranges {
		can := r.From.Depth() == 0 && doc.Type().AllowsMarkType(t)
		doc.NodesBetween(r.From.Pos(), r.To.Pos(), func(n *model.Node, _ int, _ *model.Node, _ int) bool {
			if can {
				return false
			}
			can = n.InlineContent() && n.Type().AllowsMarkType(t)
			return true
		})
		if can {
			return true
		}
	}
	return false
}

// effectiveMarks returns the stored marks of st, or the marks at rp.
func effectiveMarks(st *state.State, rp *model.ResolvedPos) []*model.Mark {
	if marks := st.StoredMarks(); marks != nil {
		return marks
	}
	return rp.Marks()
}

// nonNil keeps an empty mark set distinct from "no stored marks".
func nonNil(marks []*model.Mark) []*model.Mark {
	if marks == nil {
		return []*model.Mark{}
	}
	return marks
}

// IsMarkActive reports whether the selection carries a mark of type t. An
// empty selection consults the stored marks, then the marks at the cursor.
// A range is active when all its non-blank text carries the mark.
func IsMarkActive(st *state.State, t *schema.MarkType) bool {
	sel := st.Selection()
	if sel.Empty() {
		return model.FindMark(t, effectiveMarks(st, sel.Ranges()[0].From)) != nil
	}
	counted, active := false, true
	for _, r := range sel.Ranges() {
		from, to := r.From.Pos(), r.To.Pos()
		st.Doc().NodesBetween(from, to, func(n *model.Node, pos int, _ *model.Node, _ int) bool {
			if !active {
				return false
			}
			if !n.IsInline() {
				return true
			}
			if n.IsText() {
				start, end := max(from, pos)-pos, min(to, pos+n.NodeSize())-pos
				if isBlank(runeSlice(n.Text(), start, end)) {
					return false
				}
			}
			counted = true
			active = model.FindMark(t, n.Marks()) != nil
			return false
		})
	}
	if !counted {
		for _, r := range sel.Ranges() {
			if st.Doc().RangeHasMark(r.From.Pos(), r.To.Pos(), t) {
				return true
			}
		}
		return false
	}
	return active
}

func runeSlice(s string, from, to int) string {
	i, start := 0, len(s)
	for off := range s {
		if i == from {
			start = off
		}
		if i == to {
			return s[start:off]
		}
		i++
	}
	if from >= i {
		return ""
	}
	return s[start:]
}

func isBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func leadingSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}

func trailingSpace(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		if !unicode.IsSpace(r) {
			break
		}
		s = s[:len(s)-size]
		n++
	}
	return n
}

// addMarkTrimmed adds mark to every range of sel, keeping whitespace at the
// range edges unmarked unless the range holds nothing else.
func addMarkTrimmed(tr *state.Transaction, sel state.Selection, mark *model.Mark) error {
	for _, r := range sel.Ranges() {
		from, to := r.From.Pos(), r.To.Pos()
		spaceStart, spaceEnd := 0, 0
		if start := r.From.NodeAfter(); start != nil && start.IsText() {
			spaceStart = leadingSpace(start.Text())
		}
		if end := r.To.NodeBefore(); end != nil && end.IsText() {
			spaceEnd = trailingSpace(end.Text())
		}
		if from+spaceStart < to {
			from += spaceStart
			to -= spaceEnd
		}
		if err := tr.AddMark(from, to, mark); err != nil {
			return err
		}
	}
	return nil
}

func removeMarkType(tr *state.Transaction, sel state.Selection, t *schema.MarkType) error {
	for _, r := range sel.Ranges() {
		if err := tr.RemoveMarkType(r.From.Pos(), r.To.Pos(), t); err != nil {
			return err
		}
	}
	return nil
}

// ToggleMark adds a mark of type t with attrs to the selection, or removes
// it when the selection already carries it. On an empty selection the
// stored marks are toggled instead, affecting only text typed next.
func ToggleMark(t *schema.MarkType, attrs schema.Attrs) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if IsMarkActive(st, t) {
			return UnsetMark(t)(st, dispatch)
		}
		return SetMark(t, attrs)(st, dispatch)
	}
}

// SetMark adds a mark of type t with attrs to the selection, or to the
// stored marks when the selection is a cursor.
func SetMark(t *schema.MarkType, attrs schema.Attrs) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		sel := st.Selection()
		cursor := cursorOf(sel)
		if (sel.Empty() && cursor == nil) || !markApplies(st.Doc(), sel.Ranges(), t) {
			return false
		}
		mark, err := model.NewMark(t, attrs)
		if err != nil {
			return false
		}
		if cursor != nil {
			marks := effectiveMarks(st, cursor)
			if mark.IsInSet(marks) {
				return false
			}
			return build(st, dispatch, func(tr *state.Transaction) error {
				tr.SetStoredMarks(mark.AddToSet(marks))
				return nil
			})
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return addMarkTrimmed(tr, sel, mark)
		})
	}
}

// UnsetMark removes marks of type t from the selection, or from the stored
// marks when the selection is a cursor.
func UnsetMark(t *schema.MarkType) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		sel := st.Selection()
		if cursor := cursorOf(sel); cursor != nil {
			marks := effectiveMarks(st, cursor)
			if model.FindMark(t, marks) == nil {
				return false
			}
			return build(st, dispatch, func(tr *state.Transaction) error {
				tr.SetStoredMarks(nonNil(model.RemoveMarkType(t, marks)))
				return nil
			})
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return removeMarkType(tr, sel, t)
		})
	}
}

// MarkRange returns the extent of the mark of type t around rp.
func MarkRange(rp *model.ResolvedPos, t *schema.MarkType) (from, to int, ok bool) {
	parent := rp.Parent()
	index := rp.Index(rp.Depth())
	var mark *model.Mark
	if child := parent.MaybeChild(index); child != nil {
		mark = model.FindMark(t, child.Marks())
	}
	if mark == nil && rp.TextOffset() == 0 && index > 0 {
		index--
		mark = model.FindMark(t, parent.Child(index).Marks())
	}
	if mark == nil {
		return 0, 0, false
	}
	startIndex, endIndex := index, index+1
	for startIndex > 0 && mark.IsInSet(parent.Child(startIndex-1).Marks()) {
		startIndex--
	}
	for endIndex < parent.ChildCount() && mark.IsInSet(parent.Child(endIndex).Marks()) {
		endIndex++
	}
	start := rp.Start(rp.Depth())
	from, to = start, start
	for i := 0; i < endIndex; i++ {
		size := parent.Child(i).NodeSize()
		if i < startIndex {
			from += size
		}
		to += size
	}
	return from, to, true
}

// ExtendMarkRange selects the whole extent of the mark of type t at the
// start of the selection.
func ExtendMarkRange(t *schema.MarkType) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		sel := st.Selection()
		rp := sel.Ranges()[0].From
		from, to, ok := MarkRange(rp, t)
		if !ok || sel.To() > to {
			return false
		}
		return build(st, dispatch, func(tr *state.Transaction) error {
			ts, err := state.TextSelectionAt(tr.Doc(), from, to)
			if err != nil {
				return err
			}
			tr.SetSelection(ts)
			return nil
		})
	}
}

// SetLink links the selection to href. Inside an existing link with an
// empty selection the whole link is updated.
func SetLink(href, title string) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		t := st.Schema().MarkType(schema.MarkLink)
		if href == "" || t == nil {
			return false
		}
		attrs := schema.Attrs{"href": href, "title": title}
		sel := st.Selection()
		cursor := cursorOf(sel)
		if cursor == nil {
			return buildChange(st, dispatch, func(tr *state.Transaction) error {
				if !markApplies(tr.Doc(), sel.Ranges(), t) {
					return errNotApplicable
				}
				mark, err := model.NewMark(t, attrs)
				if err != nil {
					return err
				}
				if err := removeMarkType(tr, sel, t); err != nil {
					return err
				}
				return addMarkTrimmed(tr, sel, mark)
			})
		}
		from, to, ok := MarkRange(cursor, t)
		if !ok {
			return SetMark(t, attrs)(st, dispatch)
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			mark, err := model.NewMark(t, attrs)
			if err != nil {
				return err
			}
			if err := tr.RemoveMarkType(from, to, t); err != nil {
				return err
			}
			return tr.AddMark(from, to, mark)
		})
	}
}

// Unlink removes links from the selection, or the whole link around a
// cursor.
func Unlink() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		t := st.Schema().MarkType(schema.MarkLink)
		if t == nil {
			return false
		}
		sel := st.Selection()
		if cursor := cursorOf(sel); cursor != nil {
			from, to, ok := MarkRange(cursor, t)
			if !ok {
				return false
			}
			return buildChange(st, dispatch, func(tr *state.Transaction) error {
				return tr.RemoveMarkType(from, to, t)
			})
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return removeMarkType(tr, sel, t)
		})
	}
}

// ClearFormatting removes every mark from the selection and turns its
// textblocks into paragraphs. On a cursor the stored marks are cleared too.
func ClearFormatting() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		para := st.Schema().NodeType(schema.NodeParagraph)
		sel := st.Selection()
		cursor := cursorOf(sel)
		return build(st, dispatch, func(tr *state.Transaction) error {
			for _, r := range sel.Ranges() {
				if err := tr.ClearMarks(r.From.Pos(), r.To.Pos()); err != nil {
					return err
				}
			}
			for _, r := range sel.Ranges() {
				m := tr.Mapping()
				from, to := m.Map(r.From.Pos(), 1), m.Map(r.To.Pos(), -1)
				if err := tr.SetBlockType(from, max(from, to), para, nil, nil); err != nil {
					return err
				}
			}
			if cursor != nil && len(effectiveMarks(st, cursor)) > 0 {
				tr.SetStoredMarks([]*model.Mark{})
				return nil
			}
			if !tr.DocChanged() {
				return errNotApplicable
			}
			return nil
		})
	}
}
