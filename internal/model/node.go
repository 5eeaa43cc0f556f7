package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/inkwell/internal/schema"
)

// Node is an immutable document node. Text nodes carry text and marks,
// other nodes carry a fragment of children.
type Node struct {
	typ     *schema.NodeType
	attrs   schema.Attrs
	content Fragment
	marks   []*Mark
	text    string
	textLen int
}

// NewNode creates a node after validating attributes, content and marks.
// Invalid content yields a *schema.SchemaViolationError.
func NewNode(t *schema.NodeType, attrs schema.Attrs, content Fragment, marks []*Mark) (*Node, error) {
	if t.IsText() {
		return nil, fmt.Errorf("%w: use NewText for text nodes", schema.ErrInvalidSpec)
	}
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	n := &Node{typ: t, attrs: computed, content: content, marks: MarkSetFrom(marks...)}
	if err := n.checkContent(); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNode is like NewNode but panics on error.
func MustNode(t *schema.NodeType, attrs schema.Attrs, children ...*Node) *Node {
	n, err := NewNode(t, attrs, FragmentFrom(children...), nil)
	if err != nil {
		panic(err)
	}
	return n
}

// NewText creates a text node. Text must not be empty.
func NewText(s *schema.Schema, text string, marks []*Mark) (*Node, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text nodes are not allowed", schema.ErrSchemaViolation)
	}
	return &Node{typ: s.TextType(), text: text, textLen: utf8.RuneCountInString(text), marks: MarkSetFrom(marks...)}, nil
}

// MustText is like NewText but panics on error.
func MustText(s *schema.Schema, text string, marks ...*Mark) *Node {
	n, err := NewText(s, text, marks)
	if err != nil {
		panic(err)
	}
	return n
}

// Create creates a node without checking its content against the type's
// content expression. It is used for wrapper nodes whose content is
// completed by a replace step.
func Create(t *schema.NodeType, attrs schema.Attrs, content Fragment, marks []*Mark) (*Node, error) {
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	return &Node{typ: t, attrs: computed, content: content, marks: MarkSetFrom(marks...)}, nil
}

// ValidContent reports whether content is valid for t, including the marks
// of its children.
func ValidContent(t *schema.NodeType, content Fragment) bool {
	if !t.ValidContent(typesOf(content)) {
		return false
	}
	for _, c := range content.content {
		if !t.AllowsMarks(markTypes(c.marks)) {
			return false
		}
	}
	return true
}

// CreateAndFill creates a node of type t, adding required content before
// and after the given content so that it matches t's expression.
func CreateAndFill(t *schema.NodeType, attrs schema.Attrs, content Fragment, marks []*Mark) (*Node, error) {
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	if content.size > 0 || content.ChildCount() > 0 {
		before, ok := t.ContentMatch().FillBefore(typesOf(content), false)
		if !ok {
			return nil, t.CheckContent(typesOf(content))
		}
		filler, err := fillNodes(before)
		if err != nil {
			return nil, err
		}
		content = filler.Append(content)
	}
	matched, _ := t.ContentMatch().MatchTypes(typesOf(content))
	if matched == nil {
		return nil, t.CheckContent(typesOf(content))
	}
	after, ok := matched.FillBefore(nil, true)
	if !ok {
		return nil, t.CheckContent(typesOf(content))
	}
	tail, err := fillNodes(after)
	if err != nil {
		return nil, err
	}
	return NewNode(t, computed, content.Append(tail), marks)
}

func fillNodes(types []*schema.NodeType) (Fragment, error) {
	nodes := make([]*Node, 0, len(types))
	for _, t := range types {
		n, err := CreateAndFill(t, nil, EmptyFragment, nil)
		if err != nil {
			return EmptyFragment, err
		}
		nodes = append(nodes, n)
	}
	return fragmentOf(nodes), nil
}

// Types returns the types of the fragment's children.
func (f Fragment) Types() []*schema.NodeType { return typesOf(f) }

func typesOf(f Fragment) []*schema.NodeType {
	out := make([]*schema.NodeType, len(f.content))
	for i, c := range f.content {
		out[i] = c.typ
	}
	return out
}

// Type returns the node's type.
func (n *Node) Type() *schema.NodeType { return n.typ }

// Attrs returns the node's attributes.
func (n *Node) Attrs() schema.Attrs { return n.attrs }

// Attr returns a single attribute value.
func (n *Node) Attr(name string) any { return n.attrs.Get(name) }

// Content returns the node's children.
func (n *Node) Content() Fragment { return n.content }

// Marks returns the node's marks.
func (n *Node) Marks() []*Mark { return n.marks }

// Text returns the text of a text node.
func (n *Node) Text() string { return n.text }

// IsText reports whether the node is a text node.
func (n *Node) IsText() bool { return n.typ.IsText() }

// IsInline reports whether the node is inline.
func (n *Node) IsInline() bool { return n.typ.IsInline() }

// IsBlock reports whether the node is a block.
func (n *Node) IsBlock() bool { return n.typ.IsBlock() }

// IsTextblock reports whether the node is a block with inline content.
func (n *Node) IsTextblock() bool { return n.typ.IsTextblock() }

// InlineContent reports whether the node's content is inline.
func (n *Node) InlineContent() bool { return n.typ.InlineContent() }

// IsLeaf reports whether the node's type allows no content.
func (n *Node) IsLeaf() bool { return n.typ.IsLeaf() }

// IsAtom reports whether the node is a leaf or an atom.
func (n *Node) IsAtom() bool { return n.typ.IsAtom() }

// NodeSize returns the number of tokens the node occupies.
func (n *Node) NodeSize() int {
	if n.IsText() {
		return n.textLen
	}
	if n.IsLeaf() {
		return 1
	}
	return 2 + n.content.size
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return n.content.ChildCount() }

// Child returns the child at index i.
func (n *Node) Child(i int) *Node { return n.content.Child(i) }

// MaybeChild returns the child at index i, or nil.
func (n *Node) MaybeChild(i int) *Node { return n.content.MaybeChild(i) }

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.content.FirstChild() }

// LastChild returns the last child, or nil.
func (n *Node) LastChild() *Node { return n.content.LastChild() }

// ForEach calls fn for every child.
func (n *Node) ForEach(fn func(child *Node, offset, index int)) { n.content.ForEach(fn) }

// NodesBetween calls fn for every descendant overlapping [from, to).
// Positions are relative to the start of n's content.
func (n *Node) NodesBetween(from, to int, fn func(node *Node, pos int, parent *Node, index int) bool) {
	n.content.NodesBetween(from, to, fn, 0, n)
}

// Descendants calls fn for every descendant.
func (n *Node) Descendants(fn func(node *Node, pos int, parent *Node, index int) bool) {
	n.NodesBetween(0, n.content.size, fn)
}

// TextContent returns all text in the node concatenated.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.text
	}
	return n.TextBetween(0, n.content.size, "", nil)
}

// TextBetween returns the text between two positions.
func (n *Node) TextBetween(from, to int, blockSep string, leafText func(*Node) string) string {
	if n.IsText() {
		return sliceRunes(n.text, from, to)
	}
	return n.content.TextBetween(from, to, blockSep, leafText)
}

// Eq reports structural equality.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if other == nil || !n.SameMarkup(other) {
		return false
	}
	if n.IsText() {
		return n.text == other.text
	}
	return n.content.Eq(other.content)
}

// SameMarkup reports whether both nodes have the same type, attributes
// and marks.
func (n *Node) SameMarkup(other *Node) bool {
	return n.HasMarkup(other.typ, other.attrs, other.marks)
}

// HasMarkup reports whether the node has the given type, attributes and marks.
func (n *Node) HasMarkup(t *schema.NodeType, attrs schema.Attrs, marks []*Mark) bool {
	if n.typ != t {
		return false
	}
	if attrs == nil {
		attrs = t.DefaultAttrs()
	}
	return n.attrs.Equal(attrs) && SameMarkSet(n.marks, marks)
}

// Copy returns a node with the same markup and different content. The
// content is not validated here; Replace and Check validate it when the
// node becomes part of a document.
func (n *Node) Copy(content Fragment) *Node {
	if n.IsText() {
		return n
	}
	return &Node{typ: n.typ, attrs: n.attrs, content: content, marks: n.marks}
}

// Mark returns a copy of the node with a different mark set.
func (n *Node) Mark(marks []*Mark) *Node {
	if SameMarkSet(marks, n.marks) {
		return n
	}
	c := *n
	c.marks = marks
	return &c
}

// WithAttrs returns a copy of the node with different attributes.
func (n *Node) WithAttrs(attrs schema.Attrs) *Node {
	c := *n
	c.attrs = attrs
	return &c
}

// WithText returns a text node with the same marks and new text.
func (n *Node) WithText(text string) *Node {
	if text == n.text {
		return n
	}
	return &Node{typ: n.typ, attrs: n.attrs, text: text, textLen: utf8.RuneCountInString(text), marks: n.marks}
}

// Cut returns the part of the node between two content positions.
func (n *Node) Cut(from, to int) *Node {
	if n.IsText() {
		return n.cutText(from, to)
	}
	if from == 0 && to == n.content.size {
		return n
	}
	return n.Copy(n.content.Cut(from, to))
}

func (n *Node) cutText(from, to int) *Node {
	if from == 0 && to == n.textLen {
		return n
	}
	return n.WithText(sliceRunes(n.text, from, to))
}

// Slice returns the content between two positions as an open slice.
func (n *Node) Slice(from, to int, includeParents bool) (Slice, error) {
	if from == to {
		return EmptySlice, nil
	}
	rf, err := n.Resolve(from)
	if err != nil {
		return EmptySlice, err
	}
	rt, err := n.Resolve(to)
	if err != nil {
		return EmptySlice, err
	}
	depth := 0
	if !includeParents {
		depth = rf.SharedDepth(to)
	}
	start, node := rf.Start(depth), rf.Node(depth)
	content := node.content.Cut(rf.Pos()-start, rt.Pos()-start)
	return Slice{Content: content, OpenStart: rf.Depth() - depth, OpenEnd: rt.Depth() - depth}, nil
}

// SliceBetween returns the detached fragment between two positions.
func (n *Node) SliceBetween(from, to int) (Fragment, error) {
	s, err := n.Slice(from, to, false)
	if err != nil {
		return EmptyFragment, err
	}
	return s.Content, nil
}

// NodeAt returns the node starting at pos, or nil.
func (n *Node) NodeAt(pos int) *Node {
	node := n
	for {
		index, offset, err := node.content.FindIndex(pos, -1)
		if err != nil {
			return nil
		}
		node = node.MaybeChild(index)
		if node == nil {
			return nil
		}
		if offset == pos || node.IsText() {
			return node
		}
		pos -= offset + 1
	}
}

// ChildAfter returns the child starting at or containing pos.
func (n *Node) ChildAfter(pos int) (child *Node, index, offset int) {
	index, offset = n.content.findIndex(pos, -1)
	return n.MaybeChild(index), index, offset
}

// ChildBefore returns the child ending at or containing pos.
func (n *Node) ChildBefore(pos int) (child *Node, index, offset int) {
	if pos == 0 {
		return nil, 0, 0
	}
	index, offset = n.content.findIndex(pos, -1)
	if offset < pos {
		return n.Child(index), index, offset
	}
	c := n.Child(index - 1)
	return c, index - 1, offset - c.NodeSize()
}

// RangeHasMark reports whether any inline node in [from, to) carries a
// mark of type t.
func (n *Node) RangeHasMark(from, to int, t *schema.MarkType) bool {
	found := false
	if to > from {
		n.NodesBetween(from, to, func(node *Node, _ int, _ *Node, _ int) bool {
			if FindMark(t, node.marks) != nil {
				found = true
			}
			return !found
		})
	}
	return found
}

// ContentMatchAt returns the automaton state after the first index children.
func (n *Node) ContentMatchAt(index int) *schema.ContentMatch {
	match, _ := n.typ.ContentMatch().MatchTypes(typesOf(n.content.CutByIndex(0, index)))
	return match
}

// CanReplace reports whether replacing children [from, to) with the
// children [start, end) of replacement keeps the content valid.
func (n *Node) CanReplace(from, to int, replacement Fragment, start, end int) bool {
	match := n.ContentMatchAt(from)
	if match == nil {
		return false
	}
	one, _ := match.MatchTypes(typesOf(replacement.CutByIndex(start, end)))
	if one == nil {
		return false
	}
	two, _ := one.MatchTypes(typesOf(n.content.CutByIndex(to, n.ChildCount())))
	if two == nil || !two.ValidEnd() {
		return false
	}
	for i := start; i < end; i++ {
		if !n.typ.AllowsMarks(markTypes(replacement.Child(i).marks)) {
			return false
		}
	}
	return true
}

// CanReplaceWith reports whether children [from, to) can be replaced by
// a single node of type t with the given marks.
func (n *Node) CanReplaceWith(from, to int, t *schema.NodeType, marks []*Mark) bool {
	if len(marks) > 0 && !n.typ.AllowsMarks(markTypes(marks)) {
		return false
	}
	match := n.ContentMatchAt(from)
	if match == nil {
		return false
	}
	start := match.MatchType(t)
	if start == nil {
		return false
	}
	end, _ := start.MatchTypes(typesOf(n.content.CutByIndex(to, n.ChildCount())))
	return end != nil && end.ValidEnd()
}

// CanAppend reports whether other's content could be appended to n's.
func (n *Node) CanAppend(other *Node) bool {
	if other.content.size > 0 {
		return n.CanReplace(n.ChildCount(), n.ChildCount(), other.content, 0, other.ChildCount())
	}
	return n.typ.CompatibleContent(other.typ)
}

// Check validates the node and all descendants against the schema.
func (n *Node) Check() error {
	if err := n.checkContent(); err != nil {
		return err
	}
	for _, c := range n.content.content {
		if err := c.Check(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) checkContent() error {
	if n.IsText() {
		return nil
	}
	if err := n.typ.CheckContent(typesOf(n.content)); err != nil {
		return err
	}
	for i, c := range n.content.content {
		for _, m := range c.marks {
			if !n.typ.AllowsMarkType(m.typ) {
				return fmt.Errorf("%w: %s in %s at index %d", schema.ErrMarkNotAllowed, m.typ.Name(), n.typ.Name(), i)
			}
		}
	}
	return nil
}

// String returns a debug representation such as paragraph("a", strong("b")).
func (n *Node) String() string {
	if n.IsText() {
		s := strconv.Quote(n.text)
		for i := len(n.marks) - 1; i >= 0; i-- {
			s = n.marks[i].String() + "(" + s + ")"
		}
		return s
	}
	var b strings.Builder
	b.WriteString(n.typ.Name())
	if len(n.attrs) > 0 && !n.attrs.Equal(n.typ.DefaultAttrs()) {
		b.WriteString(formatAttrs(n.attrs))
	}
	if n.content.ChildCount() > 0 {
		parts := make([]string, n.content.ChildCount())
		for i, c := range n.content.content {
			parts[i] = c.String()
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	return b.String()
}

func formatAttrs(a schema.Attrs) string {
	parts := make([]string, 0, len(a))
	for _, k := range a.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%v", k, a[k]))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (f Fragment) findIndex(pos, round int) (int, int) {
	index, offset, _ := f.FindIndex(pos, round)
	return index, offset
}

func sliceRunes(s string, from, to int) string {
	if from <= 0 && to >= utf8.RuneCountInString(s) {
		return s
	}
	r := []rune(s)
	if from < 0 {
		from = 0
	}
	if to > len(r) {
		to = len(r)
	}
	if from >= to {
		return ""
	}
	return string(r[from:to])
}
