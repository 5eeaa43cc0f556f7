package transform

import (
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Wrapping is a node type with attributes, used to describe wrappers and
// the types of nodes created by a split.
type Wrapping struct {
	Type  *schema.NodeType
	Attrs schema.Attrs
}

func canCut(node *model.Node, start, end int) bool {
	return (start == 0 || node.CanReplace(start, node.ChildCount(), model.EmptyFragment, 0, 0)) &&
		(end == node.ChildCount() || node.CanReplace(0, end, model.EmptyFragment, 0, 0))
}

// LiftTarget returns the depth to which the content of r can be lifted
// out of its parents, or false when it cannot be lifted.
func LiftTarget(r *model.NodeRange) (int, bool) {
	parent := r.Parent()
	content := parent.Content().CutByIndex(r.StartIndex(), r.EndIndex())
	for depth := r.Depth; ; depth-- {
		node := r.From.Node(depth)
		index, endIndex := r.From.Index(depth), r.To.IndexAfter(depth)
		if depth < r.Depth && node.CanReplace(index, endIndex, content, 0, content.ChildCount()) {
			return depth, true
		}
		if depth == 0 || node.Type().IsIsolating() || !canCut(node, index, endIndex) {
			break
		}
	}
	return 0, false
}

// Lift moves the content of r out of its ancestors down to target depth,
// splitting the ancestors around it when needed.
func (tr *Transform) Lift(r *model.NodeRange, target int) error {
	rf, rt, depth := r.From, r.To, r.Depth
	gapStart, gapEnd := rf.Before(depth+1), rt.After(depth+1)
	start, end := gapStart, gapEnd

	before, openStart := model.EmptyFragment, 0
	splitting := false
	for d := depth; d > target; d-- {
		if splitting || rf.Index(d) > 0 {
			splitting = true
			before = model.FragmentFrom(rf.Node(d).Copy(before))
			openStart++
		} else {
			start--
		}
	}
	after, openEnd := model.EmptyFragment, 0
	splitting = false
	for d := depth; d > target; d-- {
		if splitting || rt.After(d+1) < rt.End(d) {
			splitting = true
			after = model.FragmentFrom(rt.Node(d).Copy(after))
			openEnd++
		} else {
			end++
		}
	}
	return tr.Step(NewReplaceAroundStep(start, end, gapStart, gapEnd,
		model.NewSlice(before.Append(after), openStart, openEnd), before.Size()-openStart, true))
}

// FindWrapping returns the wrappers, outermost first, that place the
// content of r inside a node of type t. It returns nil when no wrapping
// is possible. innerRange defaults to r.
func FindWrapping(r *model.NodeRange, t *schema.NodeType, attrs schema.Attrs, innerRange *model.NodeRange) []Wrapping {
	if innerRange == nil {
		innerRange = r
	}
	around := findWrappingOutside(r, t)
	if around == nil {
		return nil
	}
	inner := findWrappingInside(innerRange, t)
	if inner == nil {
		return nil
	}
	out := make([]Wrapping, 0, len(around)+1+len(inner))
	for _, w := range around {
		out = append(out, Wrapping{Type: w})
	}
	out = append(out, Wrapping{Type: t, Attrs: attrs})
	for _, w := range inner {
		out = append(out, Wrapping{Type: w})
	}
	return out
}

func findWrappingOutside(r *model.NodeRange, t *schema.NodeType) []*schema.NodeType {
	parent := r.Parent()
	match := parent.ContentMatchAt(r.StartIndex())
	if match == nil {
		return nil
	}
	around := match.FindWrapping(t)
	if around == nil {
		return nil
	}
	outer := t
	if len(around) > 0 {
		outer = around[0]
	}
	if !parent.CanReplaceWith(r.StartIndex(), r.EndIndex(), outer, nil) {
		return nil
	}
	return around
}

func findWrappingInside(r *model.NodeRange, t *schema.NodeType) []*schema.NodeType {
	parent := r.Parent()
	inner := parent.Child(r.StartIndex())
	inside := t.ContentMatch().FindWrapping(inner.Type())
	if inside == nil {
		return nil
	}
	last := t
	if len(inside) > 0 {
		last = inside[len(inside)-1]
	}
	match := last.ContentMatch()
	for i := r.StartIndex(); match != nil && i < r.EndIndex(); i++ {
		match = match.MatchType(parent.Child(i).Type())
	}
	if match == nil || !match.ValidEnd() {
		return nil
	}
	return inside
}

// Wrap wraps the content of r in the given wrappers, outermost first.
func (tr *Transform) Wrap(r *model.NodeRange, wrappers []Wrapping) error {
	content := model.EmptyFragment
	for i := len(wrappers) - 1; i >= 0; i-- {
		w := wrappers[i]
		if content.Size() > 0 {
			match, _ := w.Type.ContentMatch().MatchTypes(content.Types())
			if match == nil || !match.ValidEnd() {
				return notApplicable("wrapper type %s not valid here", w.Type.Name())
			}
		}
		node, err := model.Create(w.Type, w.Attrs, content, nil)
		if err != nil {
			return err
		}
		content = model.FragmentFrom(node)
	}
	start, end := r.Start(), r.End()
	return tr.Step(NewReplaceAroundStep(start, end, start, end, model.NewSlice(content, 0, 0), len(wrappers), true))
}

func canChangeType(doc *model.Node, pos int, t *schema.NodeType) bool {
	rp, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := rp.Index(rp.Depth())
	return rp.Parent().CanReplaceWith(index, index+1, t, nil)
}

// SetBlockType changes every textblock in [from, to) to type t. attrs may
// be nil to use defaults; attrFn, when not nil, computes attributes per
// node instead. Line breaks are converted when switching between code
// and regular textblocks.
func (tr *Transform) SetBlockType(from, to int, t *schema.NodeType, attrs schema.Attrs, attrFn func(*model.Node) schema.Attrs) error {
	if !t.IsTextblock() {
		return notApplicable("type %s is not a textblock", t.Name())
	}
	mapFrom := len(tr.steps)
	hardBreak := t.Schema().NodeType(schema.NodeHardBreak)
	var stepErr error
	tr.doc.NodesBetween(from, to, func(node *model.Node, pos int, _ *model.Node, _ int) bool {
		if stepErr != nil {
			return false
		}
		attrsHere := attrs
		if attrFn != nil {
			attrsHere = attrFn(node)
		}
		if !node.IsTextblock() || node.HasMarkup(t, attrsHere, node.Marks()) ||
			!canChangeType(tr.doc, tr.mapping.Slice(mapFrom, -1).Map(pos, 1), t) {
			return true
		}
		// convert: 0 leave newlines, -1 hard breaks become "\n", 1 "\n" becomes hard breaks.
		convert := 0
		if hardBreak != nil {
			supports := t.ContentMatch().MatchType(hardBreak) != nil
			switch {
			case t.IsCode() && !supports:
				convert = -1
			case !t.IsCode() && supports && node.Type().IsCode():
				convert = 1
			}
		}
		if convert == -1 {
			if stepErr = tr.replaceLinebreaks(node, pos, mapFrom, hardBreak); stepErr != nil {
				return false
			}
		}
		if stepErr = tr.clearIncompatible(tr.mapping.Slice(mapFrom, -1).Map(pos, 1), t, nil, convert == 0); stepErr != nil {
			return false
		}
		mapping := tr.mapping.Slice(mapFrom, -1)
		startM, endM := mapping.Map(pos, 1), mapping.Map(pos+node.NodeSize(), 1)
		wrapper, err := model.Create(t, attrsHere, model.EmptyFragment, node.Marks())
		if err != nil {
			stepErr = err
			return false
		}
		if stepErr = tr.Step(NewReplaceAroundStep(startM, endM, startM+1, endM-1,
			model.NewSlice(model.FragmentFrom(wrapper), 0, 0), 1, true)); stepErr != nil {
			return false
		}
		if convert == 1 {
			stepErr = tr.replaceNewlines(node, pos, mapFrom, hardBreak)
		}
		return false
	})
	return stepErr
}

func (tr *Transform) replaceLinebreaks(node *model.Node, pos, mapFrom int, hardBreak *schema.NodeType) error {
	var err error
	sc := hardBreak.Schema()
	node.ForEach(func(child *model.Node, offset, _ int) {
		if err != nil || child.Type() != hardBreak {
			return
		}
		start := tr.mapping.Slice(mapFrom, -1).Map(pos+1+offset, 1)
		err = tr.ReplaceWith(start, start+1, model.MustText(sc, "\n"))
	})
	return err
}

func (tr *Transform) replaceNewlines(node *model.Node, pos, mapFrom int, hardBreak *schema.NodeType) error {
	br, err := model.NewNode(hardBreak, nil, model.EmptyFragment, nil)
	if err != nil {
		return err
	}
	node.ForEach(func(child *model.Node, offset, _ int) {
		if err != nil || !child.IsText() {
			return
		}
		i := 0
		for _, r := range child.Text() {
			if r == '\n' {
				start := tr.mapping.Slice(mapFrom, -1).Map(pos+1+offset+i, 1)
				if err = tr.ReplaceWith(start, start+1, br); err != nil {
					return
				}
			}
			i++
		}
	})
	return err
}

// SetNodeMarkup changes the type, attributes and marks of the node at pos.
// A nil t keeps the node's type, nil marks keep its marks.
func (tr *Transform) SetNodeMarkup(pos int, t *schema.NodeType, attrs schema.Attrs, marks []*model.Mark) error {
	node := tr.doc.NodeAt(pos)
	if node == nil {
		return notApplicable("no node at %d", pos)
	}
	if t == nil {
		t = node.Type()
	}
	if marks == nil {
		marks = node.Marks()
	}
	if node.IsLeaf() {
		newNode, err := model.NewNode(t, attrs, model.EmptyFragment, marks)
		if err != nil {
			return err
		}
		return tr.ReplaceWith(pos, pos+node.NodeSize(), newNode)
	}
	if !model.ValidContent(t, node.Content()) {
		return notApplicable("invalid content for node type %s", t.Name())
	}
	newNode, err := model.Create(t, attrs, model.EmptyFragment, marks)
	if err != nil {
		return err
	}
	return tr.Step(NewReplaceAroundStep(pos, pos+node.NodeSize(), pos+1, pos+node.NodeSize()-1,
		model.NewSlice(model.FragmentFrom(newNode), 0, 0), 1, true))
}

// SetNodeAttribute sets one attribute of the node at pos.
func (tr *Transform) SetNodeAttribute(pos int, attr string, value any) error {
	return tr.Step(NewAttrStep(pos, attr, value))
}

// CanSplit reports whether the node at pos can be split at depth levels.
// typesAfter optionally gives the types of the nodes after the split,
// outermost first; nil entries keep the original type.
func CanSplit(doc *model.Node, pos, depth int, typesAfter []*Wrapping) bool {
	rp, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	base := rp.Depth() - depth
	innerType := rp.Parent().Type()
	if n := len(typesAfter); n > 0 && typesAfter[n-1] != nil {
		innerType = typesAfter[n-1].Type
	}
	parent := rp.Parent()
	index := rp.Index(rp.Depth())
	if base < 0 || parent.Type().IsIsolating() ||
		!parent.CanReplace(index, parent.ChildCount(), model.EmptyFragment, 0, 0) ||
		!model.ValidContent(innerType, parent.Content().CutByIndex(index, parent.ChildCount())) {
		return false
	}
	at := func(i int) *Wrapping {
		if i >= 0 && i < len(typesAfter) {
			return typesAfter[i]
		}
		return nil
	}
	for d, i := rp.Depth()-1, depth-2; d > base; d, i = d-1, i-1 {
		node, index := rp.Node(d), rp.Index(d)
		if node.Type().IsIsolating() {
			return false
		}
		rest := node.Content().CutByIndex(index, node.ChildCount())
		if override := at(i + 1); override != nil {
			replacement, err := model.Create(override.Type, override.Attrs, model.EmptyFragment, nil)
			if err != nil {
				return false
			}
			rest = rest.ReplaceChild(0, replacement)
		}
		after := node.Type()
		if w := at(i); w != nil {
			after = w.Type
		}
		if !node.CanReplace(index+1, node.ChildCount(), model.EmptyFragment, 0, 0) || !model.ValidContent(after, rest) {
			return false
		}
	}
	index = rp.IndexAfter(base)
	baseType := rp.Node(base + 1).Type()
	if w := at(0); w != nil {
		baseType = w.Type
	}
	return rp.Node(base).CanReplaceWith(index, index, baseType, nil)
}

// Split splits the node at pos depth levels up.
func (tr *Transform) Split(pos, depth int, typesAfter []*Wrapping) error {
	rp, err := tr.doc.Resolve(pos)
	if err != nil {
		return err
	}
	before, after := model.EmptyFragment, model.EmptyFragment
	for d, e, i := rp.Depth(), rp.Depth()-depth, depth-1; d > e; d, i = d-1, i-1 {
		before = model.FragmentFrom(rp.Node(d).Copy(before))
		var w *Wrapping
		if i >= 0 && i < len(typesAfter) {
			w = typesAfter[i]
		}
		if w != nil {
			n, err := model.Create(w.Type, w.Attrs, after, nil)
			if err != nil {
				return err
			}
			after = model.FragmentFrom(n)
		} else {
			after = model.FragmentFrom(rp.Node(d).Copy(after))
		}
	}
	return tr.Step(NewReplaceStep(pos, pos, model.NewSlice(before.Append(after), depth, depth), true))
}

func joinable(a, b *model.Node) bool {
	return a != nil && b != nil && !a.IsLeaf() && a.CanAppend(b)
}

// CanJoin reports whether the nodes around pos can be joined.
func CanJoin(doc *model.Node, pos int) bool {
	rp, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	index := rp.Index(rp.Depth())
	return joinable(rp.NodeBefore(), rp.NodeAfter()) &&
		rp.Parent().CanReplace(index, index+1, model.EmptyFragment, 0, 0)
}

// JoinPoint finds a position at or around pos where two blocks can be
// joined, searching upward in direction dir. It returns -1 when none.
func JoinPoint(doc *model.Node, pos, dir int) int {
	rp, err := doc.Resolve(pos)
	if err != nil {
		return -1
	}
	for d := rp.Depth(); ; d-- {
		var before, after *model.Node
		index := rp.Index(d)
		switch {
		case d == rp.Depth():
			before, after = rp.NodeBefore(), rp.NodeAfter()
		case dir > 0:
			before = rp.Node(d + 1)
			index++
			after = rp.Node(d).MaybeChild(index)
		default:
			before = rp.Node(d).MaybeChild(index - 1)
			after = rp.Node(d + 1)
		}
		if before != nil && !before.IsTextblock() && joinable(before, after) &&
			rp.Node(d).CanReplace(index, index+1, model.EmptyFragment, 0, 0) {
			return pos
		}
		if d == 0 {
			break
		}
		if dir < 0 {
			pos = rp.Before(d)
		} else {
			pos = rp.After(d)
		}
	}
	return -1
}

// Join joins the blocks around pos, depth levels deep.
func (tr *Transform) Join(pos, depth int) error {
	before, err := tr.doc.Resolve(pos - depth)
	if err != nil {
		return err
	}
	mapFrom := len(tr.steps)
	beforeType := before.Parent().Type()
	if beforeType.InlineContent() {
		match := before.Parent().ContentMatchAt(before.Index(before.Depth()))
		if err := tr.clearIncompatible(pos+depth-1, beforeType, match, true); err != nil {
			return err
		}
	}
	mapping := tr.mapping.Slice(mapFrom, -1)
	start := mapping.Map(pos-depth, 1)
	return tr.Step(NewReplaceStep(start, mapping.Map(pos+depth, -1), model.EmptySlice, true))
}
