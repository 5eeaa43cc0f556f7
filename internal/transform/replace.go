package transform

import (
	"errors"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Replace replaces [from, to) with slice.
func (tr *Transform) Replace(from, to int, slice model.Slice) error {
	if from == to && slice.Size() == 0 {
		return nil
	}
	return tr.Step(NewReplaceStep(from, to, slice, false))
}

// ReplaceWith replaces [from, to) with nodes.
func (tr *Transform) ReplaceWith(from, to int, nodes ...*model.Node) error {
	return tr.Replace(from, to, model.NewSlice(model.FragmentFrom(nodes...), 0, 0))
}

// Insert inserts nodes at pos.
func (tr *Transform) Insert(pos int, nodes ...*model.Node) error {
	return tr.ReplaceWith(pos, pos, nodes...)
}

// InsertText inserts text with marks at pos. Empty text is a no-op.
func (tr *Transform) InsertText(pos int, text string, marks []*model.Mark) error {
	if text == "" {
		return nil
	}
	node, err := model.NewText(tr.doc.Type().Schema(), text, marks)
	if err != nil {
		return err
	}
	return tr.Insert(pos, node)
}

// ReplaceText replaces [from, to) with text. When marks is nil the text
// takes the marks found at from.
func (tr *Transform) ReplaceText(from, to int, text string, marks []*model.Mark) error {
	if text == "" {
		return tr.Delete(from, to)
	}
	if marks == nil {
		rf, err := tr.doc.Resolve(from)
		if err != nil {
			return err
		}
		if to > from {
			rt, err := tr.doc.Resolve(to)
			if err != nil {
				return err
			}
			marks = rf.MarksAcross(rt)
		} else {
			marks = rf.Marks()
		}
	}
	node, err := model.NewText(tr.doc.Type().Schema(), text, marks)
	if err != nil {
		return err
	}
	return tr.ReplaceWith(from, to, node)
}

// Delete removes [from, to). Ranges whose sides sit at different depths
// are reduced to the largest deletable range around them.
func (tr *Transform) Delete(from, to int) error {
	if from == to {
		return nil
	}
	err := tr.Step(NewReplaceStep(from, to, model.EmptySlice, false))
	if err == nil || !errors.Is(err, model.ErrReplacementInvalid) {
		return err
	}
	return tr.deleteRange(from, to)
}

// DeleteRange deletes [from, to), expanding it to cover whole nodes when
// the range covers their entire content.
func (tr *Transform) DeleteRange(from, to int) error {
	if from == to {
		return nil
	}
	return tr.deleteRange(from, to)
}

func (tr *Transform) deleteRange(from, to int) error {
	rf, err := tr.doc.Resolve(from)
	if err != nil {
		return err
	}
	rt, err := tr.doc.Resolve(to)
	if err != nil {
		return err
	}
	covered := coveredDepths(rf, rt)
	for i, depth := range covered {
		last := i == len(covered)-1
		if (last && depth == 0) || rf.Node(depth).Type().ContentMatch().ValidEnd() {
			return tr.deleteFlat(rf.Start(depth), rt.End(depth))
		}
		if depth > 0 && (last || rf.Node(depth-1).CanReplace(rf.Index(depth-1), rt.IndexAfter(depth-1), model.EmptyFragment, 0, 0)) {
			return tr.deleteFlat(rf.Before(depth), rt.After(depth))
		}
	}
	for d := 1; d <= rf.Depth() && d <= rt.Depth(); d++ {
		if from-rf.Start(d) == rf.Depth()-d && to > rf.End(d) && rt.End(d)-to != rt.Depth()-d &&
			rf.Start(d-1) == rt.Start(d-1) &&
			rf.Node(d-1).CanReplace(rf.Index(d-1), rt.Index(d-1), model.EmptyFragment, 0, 0) {
			return tr.deleteFlat(rf.Before(d), to)
		}
	}
	return tr.deleteFlat(from, to)
}

// deleteFlat deletes [from, to). When the two sides cannot be joined, the
// text on either side is removed separately and the fully covered nodes
// between them are dropped.
func (tr *Transform) deleteFlat(from, to int) error {
	err := tr.Step(NewReplaceStep(from, to, model.EmptySlice, false))
	if err == nil || !errors.Is(err, model.ErrReplacementInvalid) {
		return err
	}
	mark := tr.Checkpoint()
	if err := tr.deleteUnjoined(from, to); err != nil {
		tr.Rollback(mark)
		return err
	}
	return nil
}

func (tr *Transform) deleteUnjoined(from, to int) error {
	rt, err := tr.doc.Resolve(to)
	if err != nil {
		return err
	}
	if start := rt.Start(rt.Depth()); rt.Parent().InlineContent() && start < to && start >= from {
		if err := tr.Step(NewReplaceStep(start, to, model.EmptySlice, false)); err != nil {
			return err
		}
		to = start
	}
	rf, err := tr.doc.Resolve(from)
	if err != nil {
		return err
	}
	if end := rf.End(rf.Depth()); rf.Parent().InlineContent() && end > from && end <= to {
		if err := tr.Step(NewReplaceStep(from, end, model.EmptySlice, false)); err != nil {
			return err
		}
		to -= end - from
	}

	type span struct{ from, to int }
	var whole []span
	tr.doc.NodesBetween(from, to, func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if pos >= from && pos+n.NodeSize() <= to {
			whole = append(whole, span{pos, pos + n.NodeSize()})
			return false
		}
		return true
	})
	for i := len(whole) - 1; i >= 0; i-- {
		// Nodes whose removal would leave a parent invalid stay.
		_ = tr.Step(NewReplaceStep(whole[i].from, whole[i].to, model.EmptySlice, false))
	}
	return nil
}

func coveredDepths(rf, rt *model.ResolvedPos) []int {
	var result []int
	minDepth := min(rf.Depth(), rt.Depth())
	for d := minDepth; d >= 0; d-- {
		start := rf.Start(d)
		if start < rf.Pos()-(rf.Depth()-d) || rt.End(d) > rt.Pos()+(rt.Depth()-d) ||
			rf.Node(d).Type().IsIsolating() || rt.Node(d).Type().IsIsolating() {
			break
		}
		if start == rt.Start(d) || (d == rf.Depth() && d == rt.Depth() && rf.Parent().InlineContent() &&
			rt.Parent().InlineContent() && d > 0 && rt.Start(d-1) == start-1) {
			result = append(result, d)
		}
	}
	return result
}

// InsertPoint finds a position at or around pos where a node of type t
// can be inserted. It returns -1 when there is none.
func InsertPoint(doc *model.Node, pos int, t *schema.NodeType) int {
	rp, err := doc.Resolve(pos)
	if err != nil {
		return -1
	}
	if rp.Parent().CanReplaceWith(rp.Index(rp.Depth()), rp.Index(rp.Depth()), t, nil) {
		return pos
	}
	if rp.ParentOffset() == 0 {
		for d := rp.Depth() - 1; d >= 0; d-- {
			index := rp.Index(d)
			if rp.Node(d).CanReplaceWith(index, index, t, nil) {
				return rp.Before(d + 1)
			}
			if index > 0 {
				return -1
			}
		}
	}
	if rp.ParentOffset() == rp.Parent().Content().Size() {
		for d := rp.Depth() - 1; d >= 0; d-- {
			index := rp.IndexAfter(d)
			if rp.Node(d).CanReplaceWith(index, index, t, nil) {
				return rp.After(d + 1)
			}
			if index < rp.Node(d).ChildCount() {
				return -1
			}
		}
	}
	return -1
}

// ReplaceRangeWith replaces [from, to) with node. Block nodes inserted
// into a textblock split it, or replace it when it is empty.
func (tr *Transform) ReplaceRangeWith(from, to int, node *model.Node) error {
	mark := tr.Checkpoint()
	if err := tr.replaceRangeWith(from, to, node); err != nil {
		tr.Rollback(mark)
		return err
	}
	return nil
}

func (tr *Transform) replaceRangeWith(from, to int, node *model.Node) error {
	if from != to {
		if err := tr.Delete(from, to); err != nil {
			return err
		}
	}
	if node.IsInline() {
		return tr.Insert(from, node)
	}
	rp, err := tr.doc.Resolve(from)
	if err != nil {
		return err
	}
	if rp.Parent().IsTextblock() && rp.Parent().Content().Size() == 0 && rp.Depth() > 0 {
		d := rp.Depth()
		index := rp.Index(d - 1)
		if rp.Node(d-1).CanReplaceWith(index, index+1, node.Type(), nil) {
			return tr.ReplaceWith(rp.Before(d), rp.After(d), node)
		}
	}
	if point := InsertPoint(tr.doc, from, node.Type()); point >= 0 {
		return tr.Insert(point, node)
	}
	if rp.Parent().IsTextblock() && CanSplit(tr.doc, from, 1, nil) {
		if err := tr.Split(from, 1, nil); err != nil {
			return err
		}
		return tr.Insert(from+1, node)
	}
	return notApplicable("cannot place %s at %d", node.Type().Name(), from)
}
