package model

import "fmt"

// Slice is a piece of a document. OpenStart and OpenEnd give the depth at
// which the fragment's first and last nodes are open, meaning they continue
// nodes outside of the slice.
type Slice struct {
	Content   Fragment
	OpenStart int
	OpenEnd   int
}

// EmptySlice is the slice with no content.
var EmptySlice = Slice{}

// NewSlice creates a slice.
func NewSlice(content Fragment, openStart, openEnd int) Slice {
	return Slice{Content: content, OpenStart: openStart, OpenEnd: openEnd}
}

// Size returns the number of tokens the slice adds when inserted.
func (s Slice) Size() int {
	return s.Content.Size() - s.OpenStart - s.OpenEnd
}

// Eq reports structural equality.
func (s Slice) Eq(other Slice) bool {
	return s.Content.Eq(other.Content) && s.OpenStart == other.OpenStart && s.OpenEnd == other.OpenEnd
}

// InsertAt inserts fragment at pos inside the slice. The boolean is false
// when the content does not fit.
func (s Slice) InsertAt(pos int, fragment Fragment) (Slice, bool) {
	content, ok := insertInto(s.Content, pos+s.OpenStart, fragment, nil)
	if !ok {
		return EmptySlice, false
	}
	return Slice{Content: content, OpenStart: s.OpenStart, OpenEnd: s.OpenEnd}, true
}

// RemoveBetween removes the flat range [from, to) from the slice.
func (s Slice) RemoveBetween(from, to int) (Slice, error) {
	content, err := removeRange(s.Content, from+s.OpenStart, to+s.OpenStart)
	if err != nil {
		return EmptySlice, err
	}
	return Slice{Content: content, OpenStart: s.OpenStart, OpenEnd: s.OpenEnd}, nil
}

// MaxOpen creates a slice that is open as deep as the fragment allows.
func MaxOpen(fragment Fragment, openIsolating bool) Slice {
	openStart, openEnd := 0, 0
	for n := fragment.FirstChild(); n != nil && !n.IsLeaf() && (openIsolating || !n.typ.IsIsolating()); n = n.FirstChild() {
		openStart++
	}
	for n := fragment.LastChild(); n != nil && !n.IsLeaf() && (openIsolating || !n.typ.IsIsolating()); n = n.LastChild() {
		openEnd++
	}
	return Slice{Content: fragment, OpenStart: openStart, OpenEnd: openEnd}
}

// String returns a debug representation.
func (s Slice) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.Content, s.OpenStart, s.OpenEnd)
}

func removeRange(content Fragment, from, to int) (Fragment, error) {
	index, offset := content.findIndex(from, -1)
	child := content.MaybeChild(index)
	indexTo, offsetTo := content.findIndex(to, -1)
	if offset == from || (child != nil && child.IsText()) {
		if offsetTo != to && !content.Child(indexTo).IsText() {
			return EmptyFragment, replaceErrorf("removing non-flat range")
		}
		return content.Cut(0, from).Append(content.Cut(to, content.Size())), nil
	}
	if index != indexTo {
		return EmptyFragment, replaceErrorf("removing non-flat range")
	}
	inner, err := removeRange(child.content, from-offset-1, to-offset-1)
	if err != nil {
		return EmptyFragment, err
	}
	return content.ReplaceChild(index, child.Copy(inner)), nil
}

func insertInto(content Fragment, dist int, insert Fragment, parent *Node) (Fragment, bool) {
	index, offset := content.findIndex(dist, -1)
	child := content.MaybeChild(index)
	if offset == dist || (child != nil && child.IsText()) {
		if parent != nil && !parent.CanReplace(index, index, insert, 0, insert.ChildCount()) {
			return EmptyFragment, false
		}
		return content.Cut(0, dist).Append(insert).Append(content.Cut(dist, content.Size())), true
	}
	inner, ok := insertInto(child.content, dist-offset-1, insert, child)
	if !ok {
		return EmptyFragment, false
	}
	return content.ReplaceChild(index, child.Copy(inner)), true
}
