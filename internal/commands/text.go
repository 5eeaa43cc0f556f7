package commands

import (
	"github.com/rivo/uniseg"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// Values of state.MetaUIEvent set by text commands.
const (
	EventInput  = "input"
	EventDelete = "delete"
)

// InsertText replaces the selection with text. Text typed at a cursor
// takes the stored marks, then the marks at the cursor.
func InsertText(text string) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if text == "" {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			tr.SetMeta(state.MetaUIEvent, EventInput)
			return tr.InsertText(text)
		})
	}
}

// InsertNode replaces the selection with node. Block nodes split the
// textblock around the cursor when needed.
func InsertNode(node *model.Node) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if node == nil {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return tr.ReplaceSelectionWith(node, true)
		})
	}
}

// insertNew builds a node of type name with attrs when the command runs.
func insertNew(name string, attrs schema.Attrs) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		t := st.Schema().NodeType(name)
		if t == nil {
			return false
		}
		n, err := model.CreateAndFill(t, attrs, model.EmptyFragment, nil)
		if err != nil {
			return false
		}
		return InsertNode(n)(st, dispatch)
	}
}

// InsertHorizontalRule inserts a thematic break.
func InsertHorizontalRule() Command { return insertNew(schema.NodeHorizontalRule, nil) }

// InsertHardBreak inserts a line break inside a textblock.
func InsertHardBreak() Command { return insertNew(schema.NodeHardBreak, nil) }

// InsertImage inserts an inline image.
func InsertImage(src, alt, title string) Command {
	if src == "" {
		return func(*state.State, func(*state.Transaction)) bool { return false }
	}
	return insertNew(schema.NodeImage, schema.Attrs{"src": src, "alt": alt, "title": title})
}

// InsertMath inserts an inline formula.
func InsertMath(tex string) Command {
	return insertNew(schema.NodeMathInline, schema.Attrs{"tex": tex})
}

// DeleteSelection deletes a non-empty selection.
func DeleteSelection() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if st.Selection().Empty() {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			tr.SetMeta(state.MetaUIEvent, EventDelete)
			return tr.DeleteSelection()
		})
	}
}

// DeleteBackward is the Backspace chain: delete the selection, else the
// grapheme before the cursor, else join with the block before.
func DeleteBackward() Command {
	return Chain(DeleteSelection(), deleteGrapheme(-1), JoinBackward())
}

// DeleteForward is the Delete chain: delete the selection, else the
// grapheme after the cursor, else join with the block after.
func DeleteForward() Command {
	return Chain(DeleteSelection(), deleteGrapheme(1), JoinForward())
}

// objectReplacement stands in for inline leaves when measuring graphemes.
const objectReplacement = "￼"

func leafPlaceholder(*model.Node) string { return objectReplacement }

// deleteGrapheme deletes one grapheme cluster next to the cursor in
// direction dir.
func deleteGrapheme(dir int) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		cursor := cursorOf(st.Selection())
		if cursor == nil || !cursor.Parent().InlineContent() {
			return false
		}
		parent, offset := cursor.Parent(), cursor.ParentOffset()
		var from, to int
		if dir < 0 {
			if offset == 0 {
				return false
			}
			n := lastCluster(parent.TextBetween(0, offset, "", leafPlaceholder))
			from, to = cursor.Pos()-n, cursor.Pos()
		} else {
			if offset == parent.Content().Size() {
				return false
			}
			n := firstCluster(parent.TextBetween(offset, parent.Content().Size(), "", leafPlaceholder))
			from, to = cursor.Pos(), cursor.Pos()+n
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			tr.SetMeta(state.MetaUIEvent, EventDelete)
			return tr.Delete(from, to)
		})
	}
}

// lastCluster returns the length in code points of the last grapheme
// cluster of s.
func lastCluster(s string) int {
	n := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		n = len(g.Runes())
	}
	return max(n, 1)
}

// firstCluster returns the length in code points of the first grapheme
// cluster of s.
func firstCluster(s string) int {
	g := uniseg.NewGraphemes(s)
	if g.Next() {
		return max(len(g.Runes()), 1)
	}
	return 1
}

// MoveGrapheme moves a cursor by one grapheme cluster in direction dir
// within its textblock.
func MoveGrapheme(dir int) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		cursor := cursorOf(st.Selection())
		if cursor == nil || !cursor.Parent().InlineContent() {
			return false
		}
		parent, offset := cursor.Parent(), cursor.ParentOffset()
		pos := cursor.Pos()
		switch {
		case dir < 0 && offset > 0:
			pos -= lastCluster(parent.TextBetween(0, offset, "", leafPlaceholder))
		case dir > 0 && offset < parent.Content().Size():
			pos += firstCluster(parent.TextBetween(offset, parent.Content().Size(), "", leafPlaceholder))
		default:
			return false
		}
		return build(st, dispatch, func(tr *state.Transaction) error {
			ts, err := state.TextSelectionAt(tr.Doc(), pos, pos)
			if err != nil {
				return err
			}
			tr.SetSelection(ts)
			return nil
		})
	}
}

// SelectAll selects the whole document.
func SelectAll() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		return build(st, dispatch, func(tr *state.Transaction) error {
			tr.SetSelection(state.NewAllSelection(tr.Doc()))
			return nil
		})
	}
}

// atBlockStart returns the cursor when it sits at the start of its
// textblock.
func atBlockStart(st *state.State) *model.ResolvedPos {
	cursor := cursorOf(st.Selection())
	if cursor == nil || cursor.ParentOffset() > 0 {
		return nil
	}
	return cursor
}

// atBlockEnd returns the cursor when it sits at the end of its textblock.
func atBlockEnd(st *state.State) *model.ResolvedPos {
	cursor := cursorOf(st.Selection())
	if cursor == nil || cursor.ParentOffset() < cursor.Parent().Content().Size() {
		return nil
	}
	return cursor
}

func findCutBefore(rp *model.ResolvedPos) *model.ResolvedPos {
	if rp.Parent().Type().IsIsolating() {
		return nil
	}
	for d := rp.Depth() - 1; d >= 0; d-- {
		if rp.Index(d) > 0 {
			return rp.Doc().MustResolve(rp.Before(d + 1))
		}
		if rp.Node(d).Type().IsIsolating() {
			break
		}
	}
	return nil
}

func findCutAfter(rp *model.ResolvedPos) *model.ResolvedPos {
	if rp.Parent().Type().IsIsolating() {
		return nil
	}
	for d := rp.Depth() - 1; d >= 0; d-- {
		parent := rp.Node(d)
		if rp.Index(d)+1 < parent.ChildCount() {
			return rp.Doc().MustResolve(rp.After(d + 1))
		}
		if parent.Type().IsIsolating() {
			break
		}
	}
	return nil
}

// textblockAt reports whether node leads to a textblock on side, following
// only single children when only is set.
func textblockAt(node *model.Node, start, only bool) bool {
	for node != nil {
		if node.IsTextblock() {
			return true
		}
		if only && node.ChildCount() != 1 {
			return false
		}
		if start {
			node = node.FirstChild()
		} else {
			node = node.LastChild()
		}
	}
	return false
}

// JoinBackward joins the textblock at the cursor with the block before
// it, lifting it when there is nothing to join with.
func JoinBackward() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		cursor := atBlockStart(st)
		if cursor == nil {
			return false
		}
		cut := findCutBefore(cursor)
		if cut == nil {
			rng := cursor.BlockRange(nil, nil)
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
		if build(st, dispatch, func(tr *state.Transaction) error { return deleteBarrier(tr, cut, -1) }) {
			return true
		}
		before := cut.NodeBefore()
		if cursor.Parent().Content().Size() == 0 && (textblockAt(before, false, false) || state.IsSelectable(before)) {
			if build(st, dispatch, func(tr *state.Transaction) error {
				return deleteEmptyAfter(tr, cursor, cut, before)
			}) {
				return true
			}
		}
		if before.IsAtom() && cut.Depth() == cursor.Depth()-1 {
			return buildChange(st, dispatch, func(tr *state.Transaction) error {
				return tr.Delete(cut.Pos()-before.NodeSize(), cut.Pos())
			})
		}
		return false
	}
}

// JoinForward joins the textblock at the cursor with the block after it.
func JoinForward() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		cursor := atBlockEnd(st)
		if cursor == nil {
			return false
		}
		cut := findCutAfter(cursor)
		if cut == nil {
			return false
		}
		if build(st, dispatch, func(tr *state.Transaction) error { return deleteBarrier(tr, cut, 1) }) {
			return true
		}
		after := cut.NodeAfter()
		if after.IsAtom() && cut.Depth() == cursor.Depth()-1 {
			return buildChange(st, dispatch, func(tr *state.Transaction) error {
				return tr.Delete(cut.Pos(), cut.Pos()+after.NodeSize())
			})
		}
		return false
	}
}

// deleteEmptyAfter removes the empty textblock at cursor and selects the
// end of the node before it.
func deleteEmptyAfter(tr *state.Transaction, cursor, cut *model.ResolvedPos, before *model.Node) error {
	for depth := cursor.Depth(); ; depth-- {
		from, to := cursor.Before(depth), cursor.After(depth)
		mark := tr.Checkpoint()
		if err := tr.Delete(from, to); err == nil && tr.Doc().Content().Size() < cursor.Doc().Content().Size() {
			if textblockAt(before, false, false) {
				sel := state.FindFrom(tr.Doc().MustResolve(tr.Mapping().Map(cut.Pos(), -1)), -1, false)
				if sel != nil {
					tr.SetSelection(sel)
				}
			} else if ns, err := state.NodeSelectionAt(tr.Doc(), cut.Pos()-before.NodeSize()); err == nil {
				tr.SetSelection(ns)
			}
			return nil
		}
		tr.Rollback(mark)
		if depth == 1 || cursor.Node(depth-1).ChildCount() > 1 {
			return errNotApplicable
		}
	}
}

// joinMaybeClear joins the nodes around cut when they have compatible
// content, dropping an empty node before it.
func joinMaybeClear(tr *state.Transaction, cut *model.ResolvedPos) error {
	before, after := cut.NodeBefore(), cut.NodeAfter()
	index := cut.Index(cut.Depth())
	if before == nil || after == nil || !before.Type().CompatibleContent(after.Type()) {
		return errNotApplicable
	}
	if before.Content().Size() == 0 && cut.Parent().CanReplace(index-1, index, model.EmptyFragment, 0, 0) {
		return tr.Delete(cut.Pos()-before.NodeSize(), cut.Pos())
	}
	if !cut.Parent().CanReplace(index, index+1, model.EmptyFragment, 0, 0) ||
		!(after.IsTextblock() || transform.CanJoin(cut.Doc(), cut.Pos())) {
		return errNotApplicable
	}
	return tr.Join(cut.Pos(), 1)
}

// deleteBarrier removes the boundary at cut between two blocks.
func deleteBarrier(tr *state.Transaction, cut *model.ResolvedPos, dir int) error {
	before, after := cut.NodeBefore(), cut.NodeAfter()
	isolated := before.Type().IsIsolating() || after.Type().IsIsolating()
	if !isolated {
		mark := tr.Checkpoint()
		if err := joinMaybeClear(tr, cut); err == nil {
			return nil
		}
		tr.Rollback(mark)
	}

	index := cut.Index(cut.Depth())
	canDelAfter := !isolated && cut.Parent().CanReplace(index, index+1, model.EmptyFragment, 0, 0)
	if canDelAfter {
		match := before.ContentMatchAt(before.ChildCount())
		conn := match.FindWrapping(after.Type())
		fits := conn != nil
		if fits {
			first := after.Type()
			if len(conn) > 0 {
				first = conn[0]
			}
			next := match.MatchType(first)
			fits = next != nil && next.ValidEnd()
		}
		if fits {
			return wrapIntoBefore(tr, cut, before, after, conn)
		}
	}

	if !after.Type().IsIsolating() && !(dir > 0 && isolated) {
		if sel := state.FindFrom(cut, 1, false); sel != nil {
			r := sel.Ranges()[0]
			if rng := r.From.BlockRange(r.To, nil); rng != nil {
				if target, ok := transform.LiftTarget(rng); ok && target >= cut.Depth() {
					return tr.Lift(rng, target)
				}
			}
		}
	}

	if canDelAfter && textblockAt(after, true, true) && textblockAt(before, false, false) {
		var wrap []*model.Node
		for at := before; ; at = at.LastChild() {
			wrap = append(wrap, at)
			if at.IsTextblock() {
				break
			}
		}
		at := wrap[len(wrap)-1]
		afterText, afterDepth := after, 1
		for !afterText.IsTextblock() {
			afterText = afterText.FirstChild()
			afterDepth++
		}
		if at.CanReplace(at.ChildCount(), at.ChildCount(), afterText.Content(), 0, afterText.ChildCount()) {
			end := model.EmptyFragment
			for i := len(wrap) - 1; i >= 0; i-- {
				end = model.FragmentFrom(wrap[i].Copy(end))
			}
			pos := cut.Pos()
			return tr.Step(transform.NewReplaceAroundStep(pos-len(wrap), pos+after.NodeSize(),
				pos+afterDepth, pos+after.NodeSize()-afterDepth,
				model.NewSlice(end, len(wrap), 0), 0, true))
		}
	}
	return errNotApplicable
}

// wrapIntoBefore moves after into the end of before, wrapping it in conn.
func wrapIntoBefore(tr *state.Transaction, cut *model.ResolvedPos, before, after *model.Node, conn []*schema.NodeType) error {
	end := cut.Pos() + after.NodeSize()
	wrap := model.EmptyFragment
	for i := len(conn) - 1; i >= 0; i-- {
		n, err := model.Create(conn[i], nil, wrap, nil)
		if err != nil {
			return err
		}
		wrap = model.FragmentFrom(n)
	}
	wrap = model.FragmentFrom(before.Copy(wrap))
	if err := tr.Step(transform.NewReplaceAroundStep(cut.Pos()-1, end, cut.Pos(), end,
		model.NewSlice(wrap, 1, 0), len(conn), true)); err != nil {
		return err
	}
	joinAt, err := tr.Doc().Resolve(end + 2*len(conn))
	if err != nil {
		return nil
	}
	if next := joinAt.NodeAfter(); next != nil && next.Type() == before.Type() && transform.CanJoin(tr.Doc(), joinAt.Pos()) {
		return tr.Join(joinAt.Pos(), 1)
	}
	return nil
}

// SplitBlock splits the textblock at the selection. Splitting at the end
// of a block whose type should not continue, such as a heading, starts
// the default block type instead.
func SplitBlock() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		sel := st.Selection()
		from := sel.Ranges()[0].From
		if ns, ok := sel.(*state.NodeSelection); ok && ns.Node().IsBlock() {
			if from.ParentOffset() == 0 || !transform.CanSplit(st.Doc(), from.Pos(), 1, nil) {
				return false
			}
			return buildChange(st, dispatch, func(tr *state.Transaction) error {
				return tr.Split(from.Pos(), 1, nil)
			})
		}
		if from.Depth() == 0 {
			return false
		}
		var types []*transform.Wrapping
		var deflt *schema.NodeType
		atEnd, atStart := false, false
		splitDepth := 0
		for d := from.Depth(); ; d-- {
			node := from.Node(d)
			if node.IsBlock() {
				atEnd = from.End(d) == from.Pos()+(from.Depth()-d)
				atStart = from.Start(d) == from.Pos()-(from.Depth()-d)
				deflt = defaultBlockAt(from.Node(d - 1).ContentMatchAt(from.IndexAfter(d - 1)))
				var first *transform.Wrapping
				if atEnd && deflt != nil {
					first = &transform.Wrapping{Type: deflt}
				}
				types = append([]*transform.Wrapping{first}, types...)
				splitDepth = d
				break
			}
			if d == 1 {
				return false
			}
			types = append([]*transform.Wrapping{nil}, types...)
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			if _, ok := sel.(*state.NodeSelection); !ok {
				if err := tr.DeleteSelection(); err != nil {
					return err
				}
			}
			splitPos := tr.Mapping().Map(from.Pos(), 1)
			if !transform.CanSplit(tr.Doc(), splitPos, len(types), types) {
				types[0] = nil
				if deflt != nil {
					types[0] = &transform.Wrapping{Type: deflt}
				}
				if !transform.CanSplit(tr.Doc(), splitPos, len(types), types) {
					return errNotApplicable
				}
			}
			if err := tr.Split(splitPos, len(types), types); err != nil {
				return err
			}
			if !atEnd && atStart && from.Node(splitDepth).Type() != deflt && deflt != nil {
				first := tr.Mapping().Map(from.Before(splitDepth), 1)
				rp := tr.Doc().MustResolve(first)
				index := rp.Index(rp.Depth())
				if from.Node(splitDepth-1).CanReplaceWith(index, index+1, deflt, nil) {
					return tr.SetNodeMarkup(first, deflt, nil, nil)
				}
			}
			return nil
		})
	}
}
