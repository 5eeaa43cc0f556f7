package model

import (
	"sort"
	"strings"

	"github.com/dshills/inkwell/internal/schema"
)

// Mark is an instance of a mark type with concrete attributes.
type Mark struct {
	typ   *schema.MarkType
	attrs schema.Attrs
}

// NewMark creates a mark, validating its attributes.
func NewMark(t *schema.MarkType, attrs schema.Attrs) (*Mark, error) {
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	return &Mark{typ: t, attrs: computed}, nil
}

// MustMark is like NewMark but panics on invalid attributes.
func MustMark(t *schema.MarkType, attrs schema.Attrs) *Mark {
	m, err := NewMark(t, attrs)
	if err != nil {
		panic(err)
	}
	return m
}

// Type returns the mark's type.
func (m *Mark) Type() *schema.MarkType { return m.typ }

// Attrs returns the mark's attributes.
func (m *Mark) Attrs() schema.Attrs { return m.attrs }

// Attr returns a single attribute value.
func (m *Mark) Attr(name string) any { return m.attrs.Get(name) }

// Eq reports whether both marks have the same type and attributes.
func (m *Mark) Eq(other *Mark) bool {
	return m == other || (m.typ == other.typ && m.attrs.Equal(other.attrs))
}

// AddToSet returns set with m added in rank order, respecting exclusions.
// Marks excluded by m are removed; if a mark in set excludes m, set is
// returned unchanged.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	var out []*Mark
	copied, placed := false, false
	for i, other := range set {
		if m.Eq(other) {
			return set
		}
		if m.typ.Excludes(other.typ) {
			if !copied {
				out = append([]*Mark(nil), set[:i]...)
				copied = true
			}
			continue
		}
		if other.typ.Excludes(m.typ) {
			return set
		}
		if !placed && other.typ.Rank() > m.typ.Rank() {
			if !copied {
				out = append([]*Mark(nil), set[:i]...)
				copied = true
			}
			out = append(out, m)
			placed = true
		}
		if copied {
			out = append(out, other)
		}
	}
	if !copied {
		out = append([]*Mark(nil), set...)
	}
	if !placed {
		out = append(out, m)
	}
	return out
}

// RemoveFromSet returns set without m.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, other := range set {
		if m.Eq(other) {
			out := append([]*Mark(nil), set[:i]...)
			return append(out, set[i+1:]...)
		}
	}
	return set
}

// IsInSet reports whether m is part of set.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

// String returns a debug representation.
func (m *Mark) String() string {
	if len(m.attrs) == 0 {
		return m.typ.Name()
	}
	var b strings.Builder
	b.WriteString(m.typ.Name())
	b.WriteString(formatAttrs(m.attrs))
	return b.String()
}

// FindMark returns the mark of type t in set, or nil.
func FindMark(t *schema.MarkType, set []*Mark) *Mark {
	for _, m := range set {
		if m.typ == t {
			return m
		}
	}
	return nil
}

// RemoveMarkType returns set without any mark of type t.
func RemoveMarkType(t *schema.MarkType, set []*Mark) []*Mark {
	var out []*Mark
	for i, m := range set {
		if m.typ == t {
			if out == nil {
				out = append([]*Mark{}, set[:i]...)
			}
			continue
		}
		if out != nil {
			out = append(out, m)
		}
	}
	if out == nil {
		return set
	}
	return out
}

// SameMarkSet reports whether two sets hold equal marks.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// MarkSetFrom builds a sorted mark set from arbitrary marks.
func MarkSetFrom(marks ...*Mark) []*Mark {
	if len(marks) == 0 {
		return nil
	}
	out := append([]*Mark(nil), marks...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].typ.Rank() < out[j].typ.Rank()
	})
	return out
}

func markTypes(marks []*Mark) []*schema.MarkType {
	out := make([]*schema.MarkType, len(marks))
	for i, m := range marks {
		out[i] = m.typ
	}
	return out
}
