package model

// Replace returns a copy of n with [from, to) replaced by slice. The open
// sides of the slice are joined with the nodes around the range; if their
// types cannot be joined or the result violates a content expression the
// call fails with ErrReplacementInvalid.
func (n *Node) Replace(from, to int, slice Slice) (*Node, error) {
	rf, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rt, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	return replaceResolved(rf, rt, slice)
}

func replaceResolved(rf, rt *ResolvedPos, slice Slice) (*Node, error) {
	if slice.OpenStart > rf.Depth() {
		return nil, replaceErrorf("inserted content deeper than insertion position")
	}
	if rf.Depth()-slice.OpenStart != rt.Depth()-slice.OpenEnd {
		return nil, replaceErrorf("inconsistent open depths")
	}
	if err := checkSlice(slice.Content, slice.OpenStart, slice.OpenEnd); err != nil {
		return nil, err
	}
	return replaceOuter(rf, rt, slice, 0)
}

// checkSlice validates every closed node of a slice. Nodes on the open
// sides are completed by the replacement and checked there.
func checkSlice(content Fragment, openStart, openEnd int) error {
	last := content.ChildCount() - 1
	for i, child := range content.content {
		os, oe := 0, 0
		if i == 0 {
			os = openStart
		}
		if i == last {
			oe = openEnd
		}
		if os == 0 && oe == 0 {
			if err := child.Check(); err != nil {
				return replaceErrorf("%v", err)
			}
			continue
		}
		if err := checkSlice(child.content, max(0, os-1), max(0, oe-1)); err != nil {
			return err
		}
	}
	return nil
}

func replaceOuter(rf, rt *ResolvedPos, slice Slice, depth int) (*Node, error) {
	index, node := rf.Index(depth), rf.Node(depth)
	if index == rt.Index(depth) && depth < rf.Depth()-slice.OpenStart {
		inner, err := replaceOuter(rf, rt, slice, depth+1)
		if err != nil {
			return nil, err
		}
		return node.Copy(node.content.ReplaceChild(index, inner)), nil
	}
	if slice.Content.Size() == 0 {
		content, err := replaceTwoWay(rf, rt, depth)
		if err != nil {
			return nil, err
		}
		return closeNode(node, content)
	}
	if slice.OpenStart == 0 && slice.OpenEnd == 0 && rf.Depth() == depth && rt.Depth() == depth {
		parent := rf.Parent()
		content := parent.content
		joined := content.Cut(0, rf.ParentOffset()).Append(slice.Content).Append(content.Cut(rt.ParentOffset(), content.Size()))
		return closeNode(parent, joined)
	}
	start, end, err := prepareSliceForReplace(slice, rf)
	if err != nil {
		return nil, err
	}
	content, err := replaceThreeWay(rf, start, end, rt, depth)
	if err != nil {
		return nil, err
	}
	return closeNode(node, content)
}

func checkJoin(main, sub *Node) error {
	if !sub.typ.CompatibleContent(main.typ) {
		return replaceErrorf("cannot join %s onto %s", sub.typ.Name(), main.typ.Name())
	}
	return nil
}

func joinable(before, after *ResolvedPos, depth int) (*Node, error) {
	node := before.Node(depth)
	if err := checkJoin(node, after.Node(depth)); err != nil {
		return nil, err
	}
	return node, nil
}

func addNode(child *Node, target []*Node) []*Node {
	if last := len(target) - 1; last >= 0 && child.IsText() && target[last].IsText() && child.SameMarkup(target[last]) {
		target[last] = child.WithText(target[last].text + child.text)
		return target
	}
	return append(target, child)
}

// addRange appends the children between start and end at depth. Either
// bound may be nil to mean the edge of the node.
func addRange(start, end *ResolvedPos, depth int, target []*Node) []*Node {
	ref := end
	if ref == nil {
		ref = start
	}
	node := ref.Node(depth)
	startIndex, endIndex := 0, node.ChildCount()
	if end != nil {
		endIndex = end.Index(depth)
	}
	if start != nil {
		startIndex = start.Index(depth)
		if start.Depth() > depth {
			startIndex++
		} else if start.TextOffset() > 0 {
			target = addNode(start.NodeAfter(), target)
			startIndex++
		}
	}
	for i := startIndex; i < endIndex; i++ {
		target = addNode(node.Child(i), target)
	}
	if end != nil && end.Depth() == depth && end.TextOffset() > 0 {
		target = addNode(end.NodeBefore(), target)
	}
	return target
}

func closeNode(node *Node, content Fragment) (*Node, error) {
	if err := node.typ.CheckContent(typesOf(content)); err != nil {
		return nil, replaceErrorf("%v", err)
	}
	for i, c := range content.content {
		for _, m := range c.marks {
			if !node.typ.AllowsMarkType(m.typ) {
				return nil, replaceErrorf("mark %s not allowed in %s at index %d", m.typ.Name(), node.typ.Name(), i)
			}
		}
	}
	return node.Copy(content), nil
}

func replaceThreeWay(rf, start, end, rt *ResolvedPos, depth int) (Fragment, error) {
	var openStart, openEnd *Node
	var err error
	if rf.Depth() > depth {
		if openStart, err = joinable(rf, start, depth+1); err != nil {
			return EmptyFragment, err
		}
	}
	if rt.Depth() > depth {
		if openEnd, err = joinable(end, rt, depth+1); err != nil {
			return EmptyFragment, err
		}
	}

	var content []*Node
	content = addRange(nil, rf, depth, content)
	if openStart != nil && openEnd != nil && start.Index(depth) == end.Index(depth) {
		if err := checkJoin(openStart, openEnd); err != nil {
			return EmptyFragment, err
		}
		inner, err := replaceThreeWay(rf, start, end, rt, depth+1)
		if err != nil {
			return EmptyFragment, err
		}
		closed, err := closeNode(openStart, inner)
		if err != nil {
			return EmptyFragment, err
		}
		content = addNode(closed, content)
	} else {
		if openStart != nil {
			inner, err := replaceTwoWay(rf, start, depth+1)
			if err != nil {
				return EmptyFragment, err
			}
			closed, err := closeNode(openStart, inner)
			if err != nil {
				return EmptyFragment, err
			}
			content = addNode(closed, content)
		}
		content = addRange(start, end, depth, content)
		if openEnd != nil {
			inner, err := replaceTwoWay(end, rt, depth+1)
			if err != nil {
				return EmptyFragment, err
			}
			closed, err := closeNode(openEnd, inner)
			if err != nil {
				return EmptyFragment, err
			}
			content = addNode(closed, content)
		}
	}
	content = addRange(rt, nil, depth, content)
	return fragmentOf(content), nil
}

func replaceTwoWay(rf, rt *ResolvedPos, depth int) (Fragment, error) {
	var content []*Node
	content = addRange(nil, rf, depth, content)
	if rf.Depth() > depth {
		t, err := joinable(rf, rt, depth+1)
		if err != nil {
			return EmptyFragment, err
		}
		inner, err := replaceTwoWay(rf, rt, depth+1)
		if err != nil {
			return EmptyFragment, err
		}
		closed, err := closeNode(t, inner)
		if err != nil {
			return EmptyFragment, err
		}
		content = addNode(closed, content)
	}
	content = addRange(rt, nil, depth, content)
	return fragmentOf(content), nil
}

// prepareSliceForReplace wraps the slice in copies of the ancestors of
// along so that its open sides can be resolved like document positions.
func prepareSliceForReplace(slice Slice, along *ResolvedPos) (*ResolvedPos, *ResolvedPos, error) {
	extra := along.Depth() - slice.OpenStart
	parent := along.Node(extra)
	node := parent.Copy(slice.Content)
	for i := extra - 1; i >= 0; i-- {
		node = along.Node(i).Copy(FragmentFrom(node))
	}
	start, err := resolvePos(node, slice.OpenStart+extra)
	if err != nil {
		return nil, nil, err
	}
	end, err := resolvePos(node, node.content.Size()-slice.OpenEnd-extra)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
