package state

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/transform"
)

// SelectionRange is one contiguous range of a selection.
type SelectionRange struct {
	From *model.ResolvedPos
	To   *model.ResolvedPos
}

// Selection is a selection in a document. Implementations are immutable.
type Selection interface {
	// Anchor is the fixed side of the selection.
	Anchor() int
	// Head is the moving side of the selection.
	Head() int
	// From is the lower bound of the main range.
	From() int
	// To is the upper bound of the main range.
	To() int
	// Empty reports whether every range is collapsed.
	Empty() bool
	// Ranges returns all ranges; the first one is the main range.
	Ranges() []SelectionRange
	// Map maps the selection through a change into doc.
	Map(doc *model.Node, mapping transform.Mappable) Selection
	// Eq reports whether both selections are the same.
	Eq(other Selection) bool
	// Bookmark returns a document-independent form of the selection.
	Bookmark() Bookmark
	// JSONType is the type tag used in the JSON form.
	JSONType() string
}

// Bookmark is a lightweight selection that can be mapped without a document
// and resolved again later, as used by undo history.
type Bookmark interface {
	Map(mapping transform.Mappable) Bookmark
	Resolve(doc *model.Node) Selection
}

// Replacer is implemented by selections whose content replacement differs
// from the default range-based behavior.
type Replacer interface {
	Replace(tr *Transaction, content model.Slice) error
}

// Content returns the selected content of the main range.
func Content(sel Selection) model.Slice {
	r := sel.Ranges()[0]
	s, err := r.From.Doc().Slice(sel.From(), sel.To(), true)
	if err != nil {
		return model.EmptySlice
	}
	return s
}

// TextSelection is a selection between two positions in inline content.
// An empty text selection is a cursor.
type TextSelection struct {
	anchor *model.ResolvedPos
	head   *model.ResolvedPos
}

// NewTextSelection creates a text selection. head defaults to anchor.
func NewTextSelection(anchor, head *model.ResolvedPos) *TextSelection {
	if head == nil {
		head = anchor
	}
	return &TextSelection{anchor: anchor, head: head}
}

// TextSelectionAt creates a text selection from positions in doc. Both
// positions must point into inline content.
func TextSelectionAt(doc *model.Node, anchor, head int) (*TextSelection, error) {
	a, err := doc.Resolve(anchor)
	if err != nil {
		return nil, err
	}
	h, err := doc.Resolve(head)
	if err != nil {
		return nil, err
	}
	for _, rp := range []*model.ResolvedPos{a, h} {
		if !rp.Parent().InlineContent() {
			return nil, fmt.Errorf("%w: %d is not in inline content", ErrInvalidSelection, rp.Pos())
		}
	}
	return NewTextSelection(a, h), nil
}

// TextSelectionBetween returns a text selection between anchor and head,
// moving positions that are not in inline content to the nearest valid
// place. bias selects the search direction when anchor and head are
// equal.
func TextSelectionBetween(anchor, head *model.ResolvedPos, bias int) Selection {
	dPos := anchor.Pos() - head.Pos()
	if bias == 0 || dPos != 0 {
		if dPos >= 0 {
			bias = 1
		} else {
			bias = -1
		}
	}
	if !head.Parent().InlineContent() {
		found := FindFrom(head, bias, true)
		if found == nil {
			found = FindFrom(head, -bias, true)
		}
		if found == nil {
			return Near(anchor, bias)
		}
		head = head.Doc().MustResolve(found.Head())
	}
	if !anchor.Parent().InlineContent() {
		if dPos == 0 {
			anchor = head
		} else {
			found := FindFrom(anchor, -bias, true)
			if found == nil {
				found = FindFrom(anchor, bias, true)
			}
			if found != nil {
				anchor = anchor.Doc().MustResolve(found.Anchor())
			}
			if found == nil || (anchor.Pos() < head.Pos()) != (dPos < 0) {
				anchor = head
			}
		}
	}
	return NewTextSelection(anchor, head)
}

// Anchor implements Selection.
func (s *TextSelection) Anchor() int { return s.anchor.Pos() }

// Head implements Selection.
func (s *TextSelection) Head() int { return s.head.Pos() }

// From implements Selection.
func (s *TextSelection) From() int { return min(s.anchor.Pos(), s.head.Pos()) }

// To implements Selection.
func (s *TextSelection) To() int { return max(s.anchor.Pos(), s.head.Pos()) }

// Empty implements Selection.
func (s *TextSelection) Empty() bool { return s.anchor.Pos() == s.head.Pos() }

// ResolvedAnchor returns the resolved anchor.
func (s *TextSelection) ResolvedAnchor() *model.ResolvedPos { return s.anchor }

// ResolvedHead returns the resolved head.
func (s *TextSelection) ResolvedHead() *model.ResolvedPos { return s.head }

// Cursor returns the resolved position of an empty selection, or nil.
func (s *TextSelection) Cursor() *model.ResolvedPos {
	if s.Empty() {
		return s.head
	}
	return nil
}

// Ranges implements Selection.
func (s *TextSelection) Ranges() []SelectionRange {
	if s.anchor.Pos() <= s.head.Pos() {
		return []SelectionRange{{From: s.anchor, To: s.head}}
	}
	return []SelectionRange{{From: s.head, To: s.anchor}}
}

// Map implements Selection.
func (s *TextSelection) Map(doc *model.Node, mapping transform.Mappable) Selection {
	head, err := doc.Resolve(mapping.Map(s.head.Pos(), 1))
	if err != nil {
		return AtStart(doc)
	}
	if !head.Parent().InlineContent() {
		return Near(head, 1)
	}
	anchor, err := doc.Resolve(mapping.Map(s.anchor.Pos(), 1))
	if err != nil {
		anchor = head
	}
	if anchor.Parent().InlineContent() {
		return NewTextSelection(anchor, head)
	}
	return Near(head, 1)
}

// Eq implements Selection.
func (s *TextSelection) Eq(other Selection) bool {
	o, ok := other.(*TextSelection)
	return ok && o.Anchor() == s.Anchor() && o.Head() == s.Head()
}

// Bookmark implements Selection.
func (s *TextSelection) Bookmark() Bookmark {
	return textBookmark{anchor: s.Anchor(), head: s.Head()}
}

// JSONType implements Selection.
func (s *TextSelection) JSONType() string { return "text" }

// String returns a debug representation.
func (s *TextSelection) String() string {
	return fmt.Sprintf("text(%d,%d)", s.Anchor(), s.Head())
}

type textBookmark struct{ anchor, head int }

func (b textBookmark) Map(mapping transform.Mappable) Bookmark {
	return textBookmark{anchor: mapping.Map(b.anchor, 1), head: mapping.Map(b.head, 1)}
}

func (b textBookmark) Resolve(doc *model.Node) Selection {
	size := doc.Content().Size()
	a, err := doc.Resolve(min(b.anchor, size))
	if err != nil {
		return AtStart(doc)
	}
	h := doc.MustResolve(min(b.head, size))
	return TextSelectionBetween(a, h, 0)
}

// NodeSelection selects a single node.
type NodeSelection struct {
	from *model.ResolvedPos
	to   *model.ResolvedPos
	node *model.Node
}

// NewNodeSelection selects the node starting at pos.
func NewNodeSelection(pos *model.ResolvedPos) (*NodeSelection, error) {
	node := pos.NodeAfter()
	if node == nil || node.IsText() {
		return nil, fmt.Errorf("%w: no selectable node at %d", ErrInvalidSelection, pos.Pos())
	}
	to, err := pos.Doc().Resolve(pos.Pos() + node.NodeSize())
	if err != nil {
		return nil, err
	}
	return &NodeSelection{from: pos, to: to, node: node}, nil
}

// NodeSelectionAt selects the node at pos in doc.
func NodeSelectionAt(doc *model.Node, pos int) (*NodeSelection, error) {
	rp, err := doc.Resolve(pos)
	if err != nil {
		return nil, err
	}
	return NewNodeSelection(rp)
}

// IsSelectable reports whether node can be the target of a node selection.
func IsSelectable(node *model.Node) bool {
	return !node.IsText()
}

// Node returns the selected node.
func (s *NodeSelection) Node() *model.Node { return s.node }

// Anchor implements Selection.
func (s *NodeSelection) Anchor() int { return s.from.Pos() }

// Head implements Selection.
func (s *NodeSelection) Head() int { return s.to.Pos() }

// From implements Selection.
func (s *NodeSelection) From() int { return s.from.Pos() }

// To implements Selection.
func (s *NodeSelection) To() int { return s.to.Pos() }

// Empty implements Selection.
func (s *NodeSelection) Empty() bool { return false }

// Ranges implements Selection.
func (s *NodeSelection) Ranges() []SelectionRange {
	return []SelectionRange{{From: s.from, To: s.to}}
}

// Map implements Selection.
func (s *NodeSelection) Map(doc *model.Node, mapping transform.Mappable) Selection {
	res := mapping.MapResult(s.from.Pos(), 1)
	pos, err := doc.Resolve(res.Pos)
	if err != nil {
		return AtStart(doc)
	}
	if res.Deleted() {
		return Near(pos, 1)
	}
	sel, err := NewNodeSelection(pos)
	if err != nil {
		return Near(pos, 1)
	}
	return sel
}

// Eq implements Selection.
func (s *NodeSelection) Eq(other Selection) bool {
	o, ok := other.(*NodeSelection)
	return ok && o.Anchor() == s.Anchor()
}

// Bookmark implements Selection.
func (s *NodeSelection) Bookmark() Bookmark { return nodeBookmark{anchor: s.Anchor()} }

// JSONType implements Selection.
func (s *NodeSelection) JSONType() string { return "node" }

// String returns a debug representation.
func (s *NodeSelection) String() string { return fmt.Sprintf("node(%d)", s.Anchor()) }

type nodeBookmark struct{ anchor int }

func (b nodeBookmark) Map(mapping transform.Mappable) Bookmark {
	res := mapping.MapResult(b.anchor, 1)
	if res.Deleted() {
		return textBookmark{anchor: res.Pos, head: res.Pos}
	}
	return nodeBookmark{anchor: res.Pos}
}

func (b nodeBookmark) Resolve(doc *model.Node) Selection {
	rp, err := doc.Resolve(min(b.anchor, doc.Content().Size()))
	if err != nil {
		return AtStart(doc)
	}
	if node := rp.NodeAfter(); node != nil && IsSelectable(node) {
		if sel, err := NewNodeSelection(rp); err == nil {
			return sel
		}
	}
	return Near(rp, 1)
}

// AllSelection selects the whole document.
type AllSelection struct {
	from *model.ResolvedPos
	to   *model.ResolvedPos
}

// NewAllSelection selects all of doc.
func NewAllSelection(doc *model.Node) *AllSelection {
	return &AllSelection{from: doc.MustResolve(0), to: doc.MustResolve(doc.Content().Size())}
}

// Anchor implements Selection.
func (s *AllSelection) Anchor() int { return 0 }

// Head implements Selection.
func (s *AllSelection) Head() int { return s.to.Pos() }

// From implements Selection.
func (s *AllSelection) From() int { return 0 }

// To implements Selection.
func (s *AllSelection) To() int { return s.to.Pos() }

// Empty implements Selection.
func (s *AllSelection) Empty() bool { return false }

// Ranges implements Selection.
func (s *AllSelection) Ranges() []SelectionRange {
	return []SelectionRange{{From: s.from, To: s.to}}
}

// Map implements Selection.
func (s *AllSelection) Map(doc *model.Node, _ transform.Mappable) Selection {
	return NewAllSelection(doc)
}

// Eq implements Selection.
func (s *AllSelection) Eq(other Selection) bool {
	_, ok := other.(*AllSelection)
	return ok
}

// Bookmark implements Selection.
func (s *AllSelection) Bookmark() Bookmark { return allBookmark{} }

// JSONType implements Selection.
func (s *AllSelection) JSONType() string { return "all" }

// Replace implements Replacer. Replacing everything with nothing leaves an
// empty default textblock.
func (s *AllSelection) Replace(tr *Transaction, content model.Slice) error {
	if content.Size() == 0 {
		doc := tr.Doc()
		filled, err := model.CreateAndFill(doc.Type(), doc.Attrs(), model.EmptyFragment, nil)
		if err != nil {
			return err
		}
		if err := tr.Replace(0, doc.Content().Size(), model.NewSlice(filled.Content(), 0, 0)); err != nil {
			return err
		}
		tr.SetSelection(AtStart(tr.Doc()))
		return nil
	}
	if err := tr.Replace(0, tr.Doc().Content().Size(), content); err != nil {
		return err
	}
	tr.SetSelection(Near(tr.Doc().MustResolve(tr.Doc().Content().Size()), -1))
	return nil
}

type allBookmark struct{}

func (allBookmark) Map(transform.Mappable) Bookmark   { return allBookmark{} }
func (allBookmark) Resolve(doc *model.Node) Selection { return NewAllSelection(doc) }

// FindFrom finds a valid cursor or node selection starting at rp and
// searching in direction dir. The result is nil when none exists.
func FindFrom(rp *model.ResolvedPos, dir int, textOnly bool) Selection {
	if rp.Parent().InlineContent() {
		return NewTextSelection(rp, nil)
	}
	if found := findSelectionIn(rp.Doc(), rp.Parent(), rp.Pos(), rp.Index(rp.Depth()), dir, textOnly); found != nil {
		return found
	}
	for d := rp.Depth() - 1; d >= 0; d-- {
		var found Selection
		if dir < 0 {
			found = findSelectionIn(rp.Doc(), rp.Node(d), rp.Before(d+1), rp.Index(d), dir, textOnly)
		} else {
			found = findSelectionIn(rp.Doc(), rp.Node(d), rp.After(d+1), rp.Index(d)+1, dir, textOnly)
		}
		if found != nil {
			return found
		}
	}
	return nil
}

// Near finds the selection closest to rp, preferring direction bias.
func Near(rp *model.ResolvedPos, bias int) Selection {
	if bias == 0 {
		bias = 1
	}
	if sel := FindFrom(rp, bias, false); sel != nil {
		return sel
	}
	if sel := FindFrom(rp, -bias, false); sel != nil {
		return sel
	}
	return NewAllSelection(rp.Doc())
}

// AtStart returns the first valid selection in doc.
func AtStart(doc *model.Node) Selection {
	if sel := findSelectionIn(doc, doc, 0, 0, 1, false); sel != nil {
		return sel
	}
	return NewAllSelection(doc)
}

// AtEnd returns the last valid selection in doc.
func AtEnd(doc *model.Node) Selection {
	if sel := findSelectionIn(doc, doc, doc.Content().Size(), doc.ChildCount(), -1, false); sel != nil {
		return sel
	}
	return NewAllSelection(doc)
}

// findSelectionIn searches node's children starting at index for a
// selectable place. pos is the position at the search start.
func findSelectionIn(doc, node *model.Node, pos, index, dir int, textOnly bool) Selection {
	if node.InlineContent() {
		return NewTextSelection(doc.MustResolve(pos), nil)
	}
	i := index
	if dir < 0 {
		i = index - 1
	}
	for ; (dir > 0 && i < node.ChildCount()) || (dir < 0 && i >= 0); i += dir {
		child := node.Child(i)
		if !child.IsAtom() {
			inner := 0
			if dir < 0 {
				inner = child.ChildCount()
			}
			start := pos + dir
			if found := findSelectionIn(doc, child, start, inner, dir, textOnly); found != nil {
				return found
			}
		} else if !textOnly && IsSelectable(child) {
			at := pos
			if dir < 0 {
				at = pos - child.NodeSize()
			}
			if sel, err := NodeSelectionAt(doc, at); err == nil {
				return sel
			}
		}
		pos += child.NodeSize() * dir
	}
	return nil
}

type selectionJSON struct {
	Type   string `json:"type"`
	Anchor int    `json:"anchor"`
	Head   int    `json:"head"`
}

// MarshalSelection encodes a selection.
func MarshalSelection(sel Selection) ([]byte, error) {
	return json.Marshal(selectionJSON{Type: sel.JSONType(), Anchor: sel.Anchor(), Head: sel.Head()})
}

// SelectionDecoder rebuilds a selection of a registered JSON type.
type SelectionDecoder func(doc *model.Node, anchor, head int) (Selection, error)

var selectionDecoders = map[string]SelectionDecoder{
	"text": func(doc *model.Node, anchor, head int) (Selection, error) {
		return TextSelectionAt(doc, anchor, head)
	},
	"node": func(doc *model.Node, anchor, _ int) (Selection, error) {
		return NodeSelectionAt(doc, anchor)
	},
	"all": func(doc *model.Node, _, _ int) (Selection, error) {
		return NewAllSelection(doc), nil
	},
}

// RegisterSelectionType registers a decoder for additional selection
// types. It must be called during package initialization.
func RegisterSelectionType(name string, dec SelectionDecoder) {
	selectionDecoders[name] = dec
}

// UnmarshalSelection decodes a selection against doc.
func UnmarshalSelection(doc *model.Node, data []byte) (Selection, error) {
	var raw selectionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	dec, ok := selectionDecoders[raw.Type]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidSelection, raw.Type)
	}
	return dec(doc, raw.Anchor, raw.Head)
}
