package transform

import (
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// AddMark adds mark to the inline content in [from, to) wherever the
// parent allows it. Marks excluded by mark are removed first.
func (tr *Transform) AddMark(from, to int, mark *model.Mark) error {
	var removed []*RemoveMarkStep
	var added []*AddMarkStep
	var removing *RemoveMarkStep
	var adding *AddMarkStep
	tr.doc.NodesBetween(from, to, func(node *model.Node, pos int, parent *model.Node, _ int) bool {
		if !node.IsInline() {
			return true
		}
		marks := node.Marks()
		if mark.IsInSet(marks) || !parent.Type().AllowsMarkType(mark.Type()) {
			return true
		}
		newSet := mark.AddToSet(marks)
		if !mark.IsInSet(newSet) {
			return true
		}
		start, end := max(pos, from), min(pos+node.NodeSize(), to)
		for _, m := range marks {
			if m.IsInSet(newSet) {
				continue
			}
			if removing != nil && removing.To == start && removing.Mark.Eq(m) {
				removing.To = end
			} else {
				removing = NewRemoveMarkStep(start, end, m)
				removed = append(removed, removing)
			}
		}
		if adding != nil && adding.To == start {
			adding.To = end
		} else {
			adding = NewAddMarkStep(start, end, mark)
			added = append(added, adding)
		}
		return true
	})
	for _, s := range removed {
		if err := tr.Step(s); err != nil {
			return err
		}
	}
	for _, s := range added {
		if err := tr.Step(s); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMark removes mark from the inline content in [from, to).
func (tr *Transform) RemoveMark(from, to int, mark *model.Mark) error {
	return tr.removeMarks(from, to, func(set []*model.Mark) []*model.Mark {
		if mark.IsInSet(set) {
			return []*model.Mark{mark}
		}
		return nil
	})
}

// RemoveMarkType removes every mark of type t from [from, to).
func (tr *Transform) RemoveMarkType(from, to int, t *schema.MarkType) error {
	return tr.removeMarks(from, to, func(set []*model.Mark) []*model.Mark {
		var out []*model.Mark
		for _, m := range set {
			if m.Type() == t {
				out = append(out, m)
			}
		}
		return out
	})
}

// ClearMarks removes all marks from [from, to).
func (tr *Transform) ClearMarks(from, to int) error {
	return tr.removeMarks(from, to, func(set []*model.Mark) []*model.Mark { return set })
}

func (tr *Transform) removeMarks(from, to int, pick func([]*model.Mark) []*model.Mark) error {
	type match struct {
		mark     *model.Mark
		from, to int
		step     int
	}
	var matched []*match
	step := 0
	tr.doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if !node.IsInline() {
			return true
		}
		step++
		toRemove := pick(node.Marks())
		if len(toRemove) == 0 {
			return true
		}
		end := min(pos+node.NodeSize(), to)
		for _, style := range toRemove {
			var found *match
			for _, m := range matched {
				if m.step == step-1 && style.Eq(m.mark) {
					found = m
				}
			}
			if found != nil {
				found.to = end
				found.step = step
			} else {
				matched = append(matched, &match{mark: style, from: max(pos, from), to: end, step: step})
			}
		}
		return true
	})
	for _, m := range matched {
		if err := tr.Step(NewRemoveMarkStep(m.from, m.to, m.mark)); err != nil {
			return err
		}
	}
	return nil
}

// ClearIncompatible removes content and marks of the node at pos that the
// type parentType would not allow, starting the content check at match.
// A nil match starts at parentType's content expression.
func (tr *Transform) ClearIncompatible(pos int, parentType *schema.NodeType, match *schema.ContentMatch) error {
	return tr.clearIncompatible(pos, parentType, match, true)
}

func (tr *Transform) clearIncompatible(pos int, parentType *schema.NodeType, match *schema.ContentMatch, clearNewlines bool) error {
	node := tr.doc.NodeAt(pos)
	if node == nil {
		return notApplicable("no node at %d", pos)
	}
	if match == nil {
		match = parentType.ContentMatch()
	}
	sc := parentType.Schema()
	var replSteps []Step
	cur := pos + 1
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		end := cur + child.NodeSize()
		allowed := match.MatchType(child.Type())
		if allowed == nil {
			replSteps = append(replSteps, NewReplaceStep(cur, end, model.EmptySlice, false))
		} else {
			match = allowed
			for _, m := range child.Marks() {
				if !parentType.AllowsMarkType(m.Type()) {
					if err := tr.Step(NewRemoveMarkStep(cur, end, m)); err != nil {
						return err
					}
				}
			}
			if clearNewlines && child.IsText() && !parentType.IsCode() {
				var space model.Slice
				offset := 0
				for _, r := range child.Text() {
					if r == '\n' || r == '\r' {
						if space.Content.Size() == 0 {
							var marks []*model.Mark
							for _, m := range child.Marks() {
								if parentType.AllowsMarkType(m.Type()) {
									marks = append(marks, m)
								}
							}
							space = model.NewSlice(model.FragmentFrom(model.MustText(sc, " ", marks...)), 0, 0)
						}
						replSteps = append(replSteps, NewReplaceStep(cur+offset, cur+offset+1, space, false))
					}
					offset++
				}
			}
		}
		cur = end
	}
	if !match.ValidEnd() {
		fill, ok := match.FillBefore(nil, true)
		if ok {
			nodes := make([]*model.Node, 0, len(fill))
			for _, t := range fill {
				n, err := model.CreateAndFill(t, nil, model.EmptyFragment, nil)
				if err != nil {
					return err
				}
				nodes = append(nodes, n)
			}
			if err := tr.Insert(cur, nodes...); err != nil {
				return err
			}
		}
	}
	for i := len(replSteps) - 1; i >= 0; i-- {
		if err := tr.Step(replSteps[i]); err != nil {
			return err
		}
	}
	return nil
}
