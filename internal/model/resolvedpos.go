package model

import (
	"sync"

	"github.com/dshills/inkwell/internal/schema"
)

type pathEntry struct {
	node   *Node
	index  int
	offset int // absolute position of the start of the child at index
}

// ResolvedPos is a position with its ancestor chain resolved.
type ResolvedPos struct {
	pos          int
	path         []pathEntry
	parentOffset int
}

// Resolve resolves pos inside n's content.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if rp := cachedResolve(n, pos); rp != nil {
		return rp, nil
	}
	rp, err := resolvePos(n, pos)
	if err != nil {
		return nil, err
	}
	storeResolve(n, rp)
	return rp, nil
}

// MustResolve is like Resolve but panics when pos is out of range.
func (n *Node) MustResolve(pos int) *ResolvedPos {
	rp, err := n.Resolve(pos)
	if err != nil {
		panic(err)
	}
	return rp
}

func resolvePos(doc *Node, pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > doc.content.size {
		return nil, rangeErrorf("position %d outside of document of size %d", pos, doc.content.size)
	}
	var path []pathEntry
	start, parentOffset := 0, pos
	for node := doc; ; {
		index, offset := node.content.findIndex(parentOffset, -1)
		rem := parentOffset - offset
		path = append(path, pathEntry{node: node, index: index, offset: start + offset})
		if rem == 0 {
			break
		}
		node = node.Child(index)
		if node.IsText() {
			break
		}
		parentOffset = rem - 1
		start += offset + 1
	}
	return &ResolvedPos{pos: pos, path: path, parentOffset: parentOffset}, nil
}

const resolveCacheSize = 12

type resolveCacheEntry struct {
	doc *Node
	rp  *ResolvedPos
}

var (
	resolveMu    sync.Mutex
	resolveCache [resolveCacheSize]resolveCacheEntry
	resolveNext  int
)

func cachedResolve(doc *Node, pos int) *ResolvedPos {
	resolveMu.Lock()
	defer resolveMu.Unlock()
	for _, e := range resolveCache {
		if e.doc == doc && e.rp != nil && e.rp.pos == pos {
			return e.rp
		}
	}
	return nil
}

func storeResolve(doc *Node, rp *ResolvedPos) {
	resolveMu.Lock()
	defer resolveMu.Unlock()
	resolveCache[resolveNext] = resolveCacheEntry{doc: doc, rp: rp}
	resolveNext = (resolveNext + 1) % resolveCacheSize
}

// Pos returns the position.
func (r *ResolvedPos) Pos() int { return r.pos }

// Depth returns the depth of the innermost parent node.
func (r *ResolvedPos) Depth() int { return len(r.path) - 1 }

// ParentOffset returns the offset into the parent's content.
func (r *ResolvedPos) ParentOffset() int { return r.parentOffset }

func (r *ResolvedPos) depth(d int) int {
	if d < 0 {
		return r.Depth() + d
	}
	return d
}

// Node returns the ancestor at depth d. Negative depths count from the parent.
func (r *ResolvedPos) Node(d int) *Node { return r.path[r.depth(d)].node }

// Parent returns the innermost ancestor.
func (r *ResolvedPos) Parent() *Node { return r.Node(r.Depth()) }

// Doc returns the root node.
func (r *ResolvedPos) Doc() *Node { return r.path[0].node }

// Index returns the index into the ancestor at depth d.
func (r *ResolvedPos) Index(d int) int { return r.path[r.depth(d)].index }

// IndexAfter returns the index pointing after this position in the
// ancestor at depth d.
func (r *ResolvedPos) IndexAfter(d int) int {
	d = r.depth(d)
	if d == r.Depth() && r.TextOffset() == 0 {
		return r.Index(d)
	}
	return r.Index(d) + 1
}

// Start returns the absolute start of the content of the ancestor at depth d.
func (r *ResolvedPos) Start(d int) int {
	d = r.depth(d)
	if d == 0 {
		return 0
	}
	return r.path[d-1].offset + 1
}

// End returns the absolute end of the content of the ancestor at depth d.
func (r *ResolvedPos) End(d int) int {
	d = r.depth(d)
	return r.Start(d) + r.Node(d).content.size
}

// Before returns the position before the ancestor at depth d (d >= 1).
func (r *ResolvedPos) Before(d int) int {
	d = r.depth(d)
	if d == 0 {
		panic("model: there is no position before the top-level node")
	}
	if d == r.Depth()+1 {
		return r.pos
	}
	return r.path[d-1].offset
}

// After returns the position after the ancestor at depth d (d >= 1).
func (r *ResolvedPos) After(d int) int {
	d = r.depth(d)
	if d == 0 {
		panic("model: there is no position after the top-level node")
	}
	if d == r.Depth()+1 {
		return r.pos
	}
	return r.path[d-1].offset + r.path[d].node.NodeSize()
}

// TextOffset returns the offset into a text node, or 0 between nodes.
func (r *ResolvedPos) TextOffset() int {
	return r.pos - r.path[len(r.path)-1].offset
}

// NodeAfter returns the node directly after the position, cut at the
// position for text.
func (r *ResolvedPos) NodeAfter() *Node {
	parent, index := r.Parent(), r.Index(r.Depth())
	if index == parent.ChildCount() {
		return nil
	}
	child := parent.Child(index)
	if off := r.TextOffset(); off > 0 {
		return child.Cut(off, child.textLen)
	}
	return child
}

// NodeBefore returns the node directly before the position.
func (r *ResolvedPos) NodeBefore() *Node {
	index := r.Index(r.Depth())
	if off := r.TextOffset(); off > 0 {
		return r.Parent().Child(index).Cut(0, off)
	}
	if index == 0 {
		return nil
	}
	return r.Parent().Child(index - 1)
}

// PosAtIndex returns the absolute position of child index in the ancestor
// at depth d.
func (r *ResolvedPos) PosAtIndex(index, d int) int {
	d = r.depth(d)
	node := r.path[d].node
	pos := 0
	if d > 0 {
		pos = r.path[d-1].offset + 1
	}
	for i := 0; i < index; i++ {
		pos += node.Child(i).NodeSize()
	}
	return pos
}

// Marks returns the marks at the position, as text typed here would get
// them. Non-inclusive marks only apply when the node after also has them.
func (r *ResolvedPos) Marks() []*Mark {
	parent, index := r.Parent(), r.Index(r.Depth())
	if parent.content.size == 0 {
		return nil
	}
	if r.TextOffset() > 0 {
		return parent.Child(index).marks
	}
	main, other := parent.MaybeChild(index-1), parent.MaybeChild(index)
	if main == nil {
		main, other = other, main
	}
	marks := main.marks
	for i := 0; i < len(marks); i++ {
		m := marks[i]
		if !m.typ.Inclusive() && (other == nil || !m.IsInSet(other.marks)) {
			marks = m.RemoveFromSet(marks)
			i--
		}
	}
	return marks
}

// MarksAcross returns the marks that should be preserved when deleting
// from here to end, or nil when the position is not before inline content.
func (r *ResolvedPos) MarksAcross(end *ResolvedPos) []*Mark {
	after := r.Parent().MaybeChild(r.Index(r.Depth()))
	if after == nil || !after.IsInline() {
		return nil
	}
	marks := after.marks
	next := end.Parent().MaybeChild(end.Index(end.Depth()))
	for i := 0; i < len(marks); i++ {
		m := marks[i]
		if !m.typ.Inclusive() && (next == nil || !m.IsInSet(next.marks)) {
			marks = m.RemoveFromSet(marks)
			i--
		}
	}
	return marks
}

// SharedDepth returns the depth of the deepest ancestor that also
// contains pos.
func (r *ResolvedPos) SharedDepth(pos int) int {
	for d := r.Depth(); d > 0; d-- {
		if r.Start(d) <= pos && r.End(d) >= pos {
			return d
		}
	}
	return 0
}

// SameParent reports whether both positions share a parent node.
func (r *ResolvedPos) SameParent(other *ResolvedPos) bool {
	return r.pos-r.parentOffset == other.pos-other.parentOffset
}

// BlockRange returns the range of block nodes around this position and
// other, at the deepest depth where pred accepts the parent. pred may be nil.
func (r *ResolvedPos) BlockRange(other *ResolvedPos, pred func(*Node) bool) *NodeRange {
	if other == nil {
		other = r
	}
	if other.pos < r.pos {
		return other.BlockRange(r, pred)
	}
	d := r.Depth()
	if r.Parent().InlineContent() || r.pos == other.pos {
		d--
	}
	for ; d >= 0; d-- {
		if other.pos <= r.End(d) && (pred == nil || pred(r.Node(d))) {
			return &NodeRange{From: r, To: other, Depth: d}
		}
	}
	return nil
}

// NodeRange is a flat range of sibling nodes.
type NodeRange struct {
	From  *ResolvedPos
	To    *ResolvedPos
	Depth int
}

// Start returns the position at the start of the range.
func (nr *NodeRange) Start() int { return nr.From.Before(nr.Depth + 1) }

// End returns the position at the end of the range.
func (nr *NodeRange) End() int { return nr.To.After(nr.Depth + 1) }

// Parent returns the node containing the range.
func (nr *NodeRange) Parent() *Node { return nr.From.Node(nr.Depth) }

// StartIndex returns the index of the first node in the range.
func (nr *NodeRange) StartIndex() int { return nr.From.Index(nr.Depth) }

// EndIndex returns the index after the last node in the range.
func (nr *NodeRange) EndIndex() int { return nr.To.IndexAfter(nr.Depth) }

// FindAncestor returns the depth of the innermost ancestor accepted by
// pred, or -1.
func (r *ResolvedPos) FindAncestor(pred func(*Node) bool) int {
	for d := r.Depth(); d >= 0; d-- {
		if pred(r.Node(d)) {
			return d
		}
	}
	return -1
}

// HasAncestorType reports whether any ancestor has type t.
func (r *ResolvedPos) HasAncestorType(t *schema.NodeType) bool {
	return r.FindAncestor(func(n *Node) bool { return n.typ == t }) >= 0
}
