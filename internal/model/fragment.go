package model

import "strings"

// Fragment is an immutable sequence of sibling nodes.
type Fragment struct {
	content []*Node
	size    int
}

// EmptyFragment is a fragment with no children.
var EmptyFragment = Fragment{}

// FragmentFrom builds a fragment, joining adjacent text nodes with the
// same marks and dropping empty text.
func FragmentFrom(nodes ...*Node) Fragment {
	if len(nodes) == 0 {
		return EmptyFragment
	}
	var joined []*Node
	size := 0
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.IsText() && n.textLen == 0 {
			continue
		}
		size += n.NodeSize()
		if last := len(joined) - 1; last >= 0 && n.IsText() && joined[last].IsText() && n.SameMarkup(joined[last]) {
			joined[last] = joined[last].WithText(joined[last].text + n.text)
			continue
		}
		joined = append(joined, n)
	}
	return Fragment{content: joined, size: size}
}

// Size returns the total token size of the fragment.
func (f Fragment) Size() int { return f.size }

// ChildCount returns the number of children.
func (f Fragment) ChildCount() int { return len(f.content) }

// Child returns the child at index i. It panics when i is out of range.
func (f Fragment) Child(i int) *Node { return f.content[i] }

// MaybeChild returns the child at index i, or nil.
func (f Fragment) MaybeChild(i int) *Node {
	if i < 0 || i >= len(f.content) {
		return nil
	}
	return f.content[i]
}

// FirstChild returns the first child, or nil.
func (f Fragment) FirstChild() *Node { return f.MaybeChild(0) }

// LastChild returns the last child, or nil.
func (f Fragment) LastChild() *Node { return f.MaybeChild(len(f.content) - 1) }

// Children returns a copy of the child slice.
func (f Fragment) Children() []*Node {
	return append([]*Node(nil), f.content...)
}

// ForEach calls fn for every child with its offset and index.
func (f Fragment) ForEach(fn func(child *Node, offset, index int)) {
	pos := 0
	for i, c := range f.content {
		fn(c, pos, i)
		pos += c.NodeSize()
	}
}

// NodesBetween calls fn for every node overlapping [from, to). Returning
// false from fn skips the node's children. nodeStart is the absolute
// position of the fragment's start.
func (f Fragment) NodesBetween(from, to int, fn func(node *Node, pos int, parent *Node, index int) bool, nodeStart int, parent *Node) {
	pos := 0
	for i := 0; pos < to && i < len(f.content); i++ {
		child := f.content[i]
		end := pos + child.NodeSize()
		if end > from && fn(child, nodeStart+pos, parent, i) && child.content.size > 0 {
			start := pos + 1
			child.content.NodesBetween(max(0, from-start), min(child.content.size, to-start), fn, nodeStart+start, child)
		}
		pos = end
	}
}

// Descendants calls fn for every descendant node.
func (f Fragment) Descendants(fn func(node *Node, pos int, parent *Node, index int) bool) {
	f.NodesBetween(0, f.size, fn, 0, nil)
}

// TextBetween returns the text in [from, to), separating blocks with
// blockSep and rendering leaf nodes with leafText.
func (f Fragment) TextBetween(from, to int, blockSep string, leafText func(*Node) string) string {
	var b strings.Builder
	first := true
	f.NodesBetween(from, to, func(n *Node, pos int, _ *Node, _ int) bool {
		var text string
		switch {
		case n.IsText():
			text = sliceRunes(n.text, max(from, pos)-pos, min(n.textLen, to-pos))
		case n.IsLeaf() && leafText != nil:
			text = leafText(n)
		}
		if ((n.IsBlock() && n.IsLeaf() && text != "") || n.IsTextblock()) && blockSep != "" {
			if first {
				first = false
			} else {
				b.WriteString(blockSep)
			}
		}
		b.WriteString(text)
		return true
	}, 0, nil)
	return b.String()
}

// Append concatenates two fragments, joining text at the seam.
func (f Fragment) Append(other Fragment) Fragment {
	if other.size == 0 && len(other.content) == 0 {
		return f
	}
	if f.size == 0 && len(f.content) == 0 {
		return other
	}
	content := append([]*Node(nil), f.content...)
	i := 0
	last, first := f.LastChild(), other.FirstChild()
	if last.IsText() && first.IsText() && last.SameMarkup(first) {
		content[len(content)-1] = last.WithText(last.text + first.text)
		i = 1
	}
	content = append(content, other.content[i:]...)
	return Fragment{content: content, size: f.size + other.size}
}

// Cut returns the part of the fragment between two offsets.
func (f Fragment) Cut(from, to int) Fragment {
	if from == 0 && to == f.size {
		return f
	}
	var result []*Node
	size := 0
	if to > from {
		pos := 0
		for i := 0; pos < to && i < len(f.content); i++ {
			child := f.content[i]
			end := pos + child.NodeSize()
			if end > from {
				if pos < from || end > to {
					if child.IsText() {
						child = child.cutText(max(0, from-pos), min(child.textLen, to-pos))
					} else {
						child = child.Cut(max(0, from-pos-1), min(child.content.size, to-pos-1))
					}
				}
				result = append(result, child)
				size += child.NodeSize()
			}
			pos = end
		}
	}
	return Fragment{content: result, size: size}
}

// CutByIndex returns the children in [from, to).
func (f Fragment) CutByIndex(from, to int) Fragment {
	if from == to {
		return EmptyFragment
	}
	if from == 0 && to == len(f.content) {
		return f
	}
	return fragmentOf(f.content[from:to])
}

// ReplaceChild returns a copy with the child at index replaced.
func (f Fragment) ReplaceChild(index int, node *Node) Fragment {
	current := f.content[index]
	if current == node {
		return f
	}
	content := append([]*Node(nil), f.content...)
	content[index] = node
	return Fragment{content: content, size: f.size + node.NodeSize() - current.NodeSize()}
}

// AddToStart returns a copy with node prepended.
func (f Fragment) AddToStart(node *Node) Fragment {
	return Fragment{content: append([]*Node{node}, f.content...), size: f.size + node.NodeSize()}
}

// AddToEnd returns a copy with node appended.
func (f Fragment) AddToEnd(node *Node) Fragment {
	content := append(append([]*Node(nil), f.content...), node)
	return Fragment{content: content, size: f.size + node.NodeSize()}
}

// Eq reports structural equality.
func (f Fragment) Eq(other Fragment) bool {
	if len(f.content) != len(other.content) {
		return false
	}
	for i := range f.content {
		if !f.content[i].Eq(other.content[i]) {
			return false
		}
	}
	return true
}

// FindIndex returns the index of the child containing pos and that
// child's start offset. With round > 0 a position inside a child rounds up
// to the next index.
func (f Fragment) FindIndex(pos, round int) (index, offset int, err error) {
	if pos == 0 {
		return 0, 0, nil
	}
	if pos == f.size {
		return len(f.content), pos, nil
	}
	if pos > f.size || pos < 0 {
		return 0, 0, rangeErrorf("position %d outside of fragment of size %d", pos, f.size)
	}
	cur := 0
	for i, child := range f.content {
		end := cur + child.NodeSize()
		if end >= pos {
			if end == pos || round > 0 {
				return i + 1, end, nil
			}
			return i, cur, nil
		}
		cur = end
	}
	return len(f.content), f.size, nil
}

// FindDiffStart returns the first position at which the fragments differ,
// or -1 when they are equal.
func (f Fragment) FindDiffStart(other Fragment, pos int) int {
	for i := 0; ; i++ {
		if i == len(f.content) || i == len(other.content) {
			if len(f.content) == len(other.content) {
				return -1
			}
			return pos
		}
		a, b := f.content[i], other.content[i]
		if a == b {
			pos += a.NodeSize()
			continue
		}
		if !a.SameMarkup(b) {
			return pos
		}
		if a.IsText() && a.text != b.text {
			ar, br := []rune(a.text), []rune(b.text)
			j := 0
			for j < len(ar) && j < len(br) && ar[j] == br[j] {
				j++
				pos++
			}
			return pos
		}
		if a.content.size > 0 || b.content.size > 0 {
			if inner := a.content.FindDiffStart(b.content, pos+1); inner != -1 {
				return inner
			}
		}
		pos += a.NodeSize()
	}
}

// String returns a debug representation.
func (f Fragment) String() string {
	parts := make([]string, len(f.content))
	for i, c := range f.content {
		parts[i] = c.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func fragmentOf(nodes []*Node) Fragment {
	if len(nodes) == 0 {
		return EmptyFragment
	}
	size := 0
	for _, n := range nodes {
		size += n.NodeSize()
	}
	return Fragment{content: append([]*Node(nil), nodes...), size: size}
}
