package commands

import (
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// itemRange returns the block range of list items of itemType covering the
// selection.
func itemRange(st *state.State, itemType *schema.NodeType) *model.NodeRange {
	r := st.Selection().Ranges()[0]
	return r.From.BlockRange(r.To, func(n *model.Node) bool {
		return n.ChildCount() > 0 && n.FirstChild().Type() == itemType
	})
}

// WrapInList wraps the selected blocks in a list of type listType. Inside
// a list item that is not the first, the blocks join the previous item.
func WrapInList(listType *schema.NodeType, attrs schema.Attrs) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if listType == nil {
			return false
		}
		doc := st.Doc()
		r := st.Selection().Ranges()[0]
		from, to := r.From, r.To
		rng := from.BlockRange(to, nil)
		if rng == nil {
			return false
		}
		doJoin := false
		outer := rng
		if rng.Depth >= 2 && from.Node(rng.Depth-1).Type().CompatibleContent(listType) && rng.StartIndex() == 0 {
			if from.Index(rng.Depth-1) == 0 {
				return false
			}
			insert := doc.MustResolve(rng.Start() - 2)
			outer = &model.NodeRange{From: insert, To: insert, Depth: rng.Depth}
			if rng.EndIndex() < rng.Parent().ChildCount() {
				rng = &model.NodeRange{From: from, To: doc.MustResolve(to.End(rng.Depth)), Depth: rng.Depth}
			}
			doJoin = true
		}
		wrap := transform.FindWrapping(outer, listType, attrs, rng)
		if wrap == nil {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return wrapInList(tr, rng, wrap, doJoin, listType)
		})
	}
}

func wrapInList(tr *state.Transaction, rng *model.NodeRange, wrappers []transform.Wrapping, joinBefore bool, listType *schema.NodeType) error {
	content := model.EmptyFragment
	for i := len(wrappers) - 1; i >= 0; i-- {
		n, err := model.Create(wrappers[i].Type, wrappers[i].Attrs, content, nil)
		if err != nil {
			return err
		}
		content = model.FragmentFrom(n)
	}
	shift := 0
	if joinBefore {
		shift = 2
	}
	if err := tr.Step(transform.NewReplaceAroundStep(rng.Start()-shift, rng.End(), rng.Start(), rng.End(),
		model.NewSlice(content, 0, 0), len(wrappers), true)); err != nil {
		return err
	}
	found := 0
	for i, w := range wrappers {
		if w.Type == listType {
			found = i + 1
		}
	}
	splitDepth := len(wrappers) - found
	splitPos := rng.Start() + len(wrappers) - shift
	parent := rng.Parent()
	for i, first := rng.StartIndex(), true; i < rng.EndIndex(); i, first = i+1, false {
		if !first && transform.CanSplit(tr.Doc(), splitPos, splitDepth, nil) {
			if err := tr.Split(splitPos, splitDepth, nil); err != nil {
				return err
			}
			splitPos += 2 * splitDepth
		}
		splitPos += parent.Child(i).NodeSize()
	}
	return nil
}

// LiftListItem moves the selected list items of itemType out of their
// list. Nested items move to the outer list; top-level items become plain
// blocks, and lifting every item removes the list.
func LiftListItem(itemType *schema.NodeType) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if itemType == nil {
			return false
		}
		rng := itemRange(st, itemType)
		if rng == nil || rng.Depth < 1 {
			return false
		}
		if rng.From.Node(rng.Depth-1).Type() == itemType {
			return buildChange(st, dispatch, func(tr *state.Transaction) error {
				return liftToOuterList(tr, itemType, rng)
			})
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return liftOutOfList(tr, rng)
		})
	}
}

func liftToOuterList(tr *state.Transaction, itemType *schema.NodeType, rng *model.NodeRange) error {
	end, endOfList := rng.End(), rng.To.End(rng.Depth)
	if end < endOfList {
		// Siblings after the lifted items become children of the last one.
		item, err := model.Create(itemType, nil, model.FragmentFrom(rng.Parent().Copy(model.EmptyFragment)), nil)
		if err != nil {
			return err
		}
		if err := tr.Step(transform.NewReplaceAroundStep(end-1, endOfList, end, endOfList,
			model.NewSlice(model.FragmentFrom(item), 1, 0), 1, true)); err != nil {
			return err
		}
		rng = &model.NodeRange{
			From:  tr.Doc().MustResolve(rng.From.Pos()),
			To:    tr.Doc().MustResolve(endOfList),
			Depth: rng.Depth,
		}
	}
	target, ok := transform.LiftTarget(rng)
	if !ok {
		return errNotApplicable
	}
	if err := tr.Lift(rng, target); err != nil {
		return err
	}
	after := tr.Doc().MustResolve(tr.Mapping().Map(end, -1) - 1)
	if transform.CanJoin(tr.Doc(), after.Pos()) && after.NodeBefore().Type() == after.NodeAfter().Type() {
		return tr.Join(after.Pos(), 1)
	}
	return nil
}

func liftOutOfList(tr *state.Transaction, rng *model.NodeRange) error {
	list := rng.Parent()
	// Merge the items into a single big item.
	for pos, i := rng.End(), rng.EndIndex()-1; i > rng.StartIndex(); i-- {
		pos -= list.Child(i).NodeSize()
		if err := tr.Delete(pos-1, pos+1); err != nil {
			return err
		}
	}
	start := tr.Doc().MustResolve(rng.Start())
	item := start.NodeAfter()
	if item == nil || tr.Mapping().Map(rng.End(), 1) != rng.Start()+item.NodeSize() {
		return errNotApplicable
	}
	atStart, atEnd := rng.StartIndex() == 0, rng.EndIndex() == list.ChildCount()
	parent := start.Node(start.Depth() - 1)
	indexBefore := start.Index(start.Depth() - 1)
	rest := item.Content()
	if !atEnd {
		rest = rest.Append(model.FragmentFrom(list))
	}
	from := indexBefore + 1
	if atStart {
		from = indexBefore
	}
	if !parent.CanReplace(from, indexBefore+1, rest, 0, rest.ChildCount()) {
		return errNotApplicable
	}
	s, e := start.Pos(), start.Pos()+item.NodeSize()
	wrap := model.EmptyFragment
	openStart, openEnd := 0, 0
	if !atStart {
		wrap = wrap.Append(model.FragmentFrom(list.Copy(model.EmptyFragment)))
		openStart = 1
	}
	if !atEnd {
		wrap = wrap.Append(model.FragmentFrom(list.Copy(model.EmptyFragment)))
		openEnd = 1
	}
	outerFrom, outerTo := s, e
	if atStart {
		outerFrom--
	}
	if atEnd {
		outerTo++
	}
	return tr.Step(transform.NewReplaceAroundStep(outerFrom, outerTo, s+1, e-1,
		model.NewSlice(wrap, openStart, openEnd), openStart, true))
}

// SinkListItem nests the selected list items inside the item before them.
func SinkListItem(itemType *schema.NodeType) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if itemType == nil {
			return false
		}
		rng := itemRange(st, itemType)
		if rng == nil || rng.StartIndex() == 0 {
			return false
		}
		parent := rng.Parent()
		before := parent.Child(rng.StartIndex() - 1)
		if before.Type() != itemType {
			return false
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			nested := before.LastChild() != nil && before.LastChild().Type() == parent.Type()
			inner := model.EmptyFragment
			open := 1
			if nested {
				empty, err := model.Create(itemType, nil, model.EmptyFragment, nil)
				if err != nil {
					return err
				}
				inner = model.FragmentFrom(empty)
				open = 3
			}
			sub, err := model.Create(parent.Type(), nil, inner, nil)
			if err != nil {
				return err
			}
			item, err := model.Create(itemType, nil, model.FragmentFrom(sub), nil)
			if err != nil {
				return err
			}
			s, e := rng.Start(), rng.End()
			return tr.Step(transform.NewReplaceAroundStep(s-open, e, s, e,
				model.NewSlice(model.FragmentFrom(item), open, 0), 1, true))
		})
	}
}

// splitAttrs returns the attributes of a fresh item of itemType.
func splitAttrs(itemType *schema.NodeType) schema.Attrs {
	if itemType.Name() == schema.NodeTaskItem {
		return schema.Attrs{"checked": false}
	}
	return nil
}

// SplitListItem splits the list item around the cursor. In an empty
// top-level item the item is lifted out of the list instead.
func SplitListItem(itemType *schema.NodeType) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if itemType == nil {
			return false
		}
		sel := st.Selection()
		if ns, ok := sel.(*state.NodeSelection); ok && ns.Node().IsBlock() {
			return false
		}
		r := sel.Ranges()[0]
		from, to := r.From, r.To
		if from.Depth() < 2 || !from.SameParent(to) {
			return false
		}
		depth := from.Depth()
		grandParent := from.Node(depth - 1)
		if grandParent.Type() != itemType {
			return false
		}
		if from.Parent().Content().Size() == 0 && grandParent.ChildCount() == from.IndexAfter(depth-1) {
			if depth == 3 || from.Node(depth-3).Type() != itemType ||
				from.Index(depth-2) != from.Node(depth-2).ChildCount()-1 {
				return LiftListItem(itemType)(st, dispatch)
			}
			return build(st, dispatch, func(tr *state.Transaction) error {
				return splitNestedEmpty(tr, from, itemType)
			})
		}
		var nextType *schema.NodeType
		if to.Pos() == from.End(depth) {
			nextType = grandParent.ContentMatchAt(0).DefaultType()
		}
		var types []*transform.Wrapping
		attrs := splitAttrs(itemType)
		if nextType != nil || attrs != nil {
			types = make([]*transform.Wrapping, 2)
			if attrs != nil {
				types[0] = &transform.Wrapping{Type: itemType, Attrs: attrs}
			}
			if nextType != nil {
				types[1] = &transform.Wrapping{Type: nextType}
			}
		}
		return build(st, dispatch, func(tr *state.Transaction) error {
			if err := tr.Delete(from.Pos(), to.Pos()); err != nil {
				return err
			}
			if !transform.CanSplit(tr.Doc(), from.Pos(), 2, types) {
				return errNotApplicable
			}
			return tr.Split(from.Pos(), 2, types)
		})
	}
}

// splitNestedEmpty moves an empty last item of a nested list out to a new
// item of the outer list.
func splitNestedEmpty(tr *state.Transaction, from *model.ResolvedPos, itemType *schema.NodeType) error {
	depth := from.Depth()
	depthBefore := 3
	switch {
	case from.Index(depth-1) > 0:
		depthBefore = 1
	case from.Index(depth-2) > 0:
		depthBefore = 2
	}
	wrap := model.EmptyFragment
	for d := depth - depthBefore; d >= depth-3; d-- {
		wrap = model.FragmentFrom(from.Node(d).Copy(wrap))
	}
	depthAfter := 3
	switch {
	case from.IndexAfter(depth-1) < from.Node(depth-2).ChildCount():
		depthAfter = 1
	case from.IndexAfter(depth-2) < from.Node(depth-3).ChildCount():
		depthAfter = 2
	}
	item, err := model.CreateAndFill(itemType, splitAttrs(itemType), model.EmptyFragment, nil)
	if err != nil {
		return err
	}
	wrap = wrap.Append(model.FragmentFrom(item))
	start := from.Before(depth - (depthBefore - 1))
	if err := tr.Replace(start, from.After(depth-depthAfter), model.NewSlice(wrap, 4-depthBefore, 0)); err != nil {
		return err
	}
	sel := -1
	tr.Doc().NodesBetween(start, tr.Doc().Content().Size(), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if sel > -1 {
			return false
		}
		if n.IsTextblock() && n.Content().Size() == 0 {
			sel = pos + 1
		}
		return true
	})
	if sel > -1 {
		tr.SetSelection(state.Near(tr.Doc().MustResolve(sel), 1))
	}
	return nil
}

// listAncestor returns the depth of the innermost list around rp, or -1.
func listAncestor(rp *model.ResolvedPos) int {
	for d := rp.Depth(); d > 0; d-- {
		if rp.Node(d).Type().InGroup("list") {
			return d
		}
	}
	return -1
}

// ToggleList wraps the selection in a list of listType, lifts it out when
// it already is one, or converts an enclosing list of another type.
func ToggleList(listType, itemType *schema.NodeType) Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if listType == nil || itemType == nil {
			return false
		}
		r := st.Selection().Ranges()[0]
		d := listAncestor(r.From)
		if d < 0 || listAncestor(r.To) != d || r.To.Before(d) != r.From.Before(d) {
			return WrapInList(listType, nil)(st, dispatch)
		}
		list := r.From.Node(d)
		if list.Type() == listType {
			return LiftListItem(itemType)(st, dispatch)
		}
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			converted, err := convertList(list, listType, itemType)
			if err != nil {
				return err
			}
			return tr.ReplaceWith(r.From.Before(d), r.From.After(d), converted)
		})
	}
}

// convertList rebuilds list as a listType whose items are itemType.
func convertList(list *model.Node, listType, itemType *schema.NodeType) (*model.Node, error) {
	items := make([]*model.Node, 0, list.ChildCount())
	var err error
	list.ForEach(func(item *model.Node, _, _ int) {
		if err != nil {
			return
		}
		var n *model.Node
		attrs := splitAttrs(itemType)
		if item.Type().Name() == schema.NodeTaskItem && itemType.Name() == schema.NodeTaskItem {
			attrs = item.Attrs()
		}
		n, err = model.NewNode(itemType, attrs, item.Content(), nil)
		items = append(items, n)
	})
	if err != nil {
		return nil, err
	}
	var attrs schema.Attrs
	if tight := list.Attr("tight"); tight != nil {
		attrs = schema.Attrs{"tight": tight}
	}
	return model.NewNode(listType, attrs, model.FragmentFrom(items...), nil)
}

// ToggleTaskItem flips the checked state of the task item around the
// selection.
func ToggleTaskItem() Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		t := st.Schema().NodeType(schema.NodeTaskItem)
		if t == nil {
			return false
		}
		rp := st.Selection().Ranges()[0].From
		d := findAncestor(rp, t, nil)
		if d < 0 {
			return false
		}
		checked := rp.Node(d).Attrs().Bool("checked")
		return buildChange(st, dispatch, func(tr *state.Transaction) error {
			return tr.SetNodeAttribute(rp.Before(d), "checked", !checked)
		})
	}
}
