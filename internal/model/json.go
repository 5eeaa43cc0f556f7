package model

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/inkwell/internal/schema"
)

type markJSON struct {
	Type  string       `json:"type"`
	Attrs schema.Attrs `json:"attrs,omitempty"`
}

type nodeJSON struct {
	Type    string       `json:"type"`
	Attrs   schema.Attrs `json:"attrs,omitempty"`
	Content []nodeJSON   `json:"content,omitempty"`
	Marks   []markJSON   `json:"marks,omitempty"`
	Text    string       `json:"text,omitempty"`
}

// MarshalJSON encodes a mark as {"type": ..., "attrs": ...}.
func (m *Mark) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toJSON())
}

func (m *Mark) toJSON() markJSON {
	out := markJSON{Type: m.typ.Name()}
	if len(m.attrs) > 0 {
		out.Attrs = m.attrs
	}
	return out
}

// MarshalJSON encodes the node tree.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

func (n *Node) toJSON() nodeJSON {
	out := nodeJSON{Type: n.typ.Name()}
	if len(n.attrs) > 0 {
		out.Attrs = n.attrs
	}
	for _, c := range n.content.content {
		out.Content = append(out.Content, c.toJSON())
	}
	for _, m := range n.marks {
		out.Marks = append(out.Marks, m.toJSON())
	}
	out.Text = n.text
	return out
}

// NodeFromJSON decodes a node tree produced by MarshalJSON and validates
// it against s.
func NodeFromJSON(s *schema.Schema, data []byte) (*Node, error) {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nodeFromJSON(s, raw)
}

// MarkFromJSON decodes a single mark.
func MarkFromJSON(s *schema.Schema, data []byte) (*Mark, error) {
	var raw markJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return markFromJSON(s, raw)
}

func markFromJSON(s *schema.Schema, raw markJSON) (*Mark, error) {
	t, err := s.LookupMark(raw.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return NewMark(t, raw.Attrs)
}

func nodeFromJSON(s *schema.Schema, raw nodeJSON) (*Node, error) {
	marks := make([]*Mark, 0, len(raw.Marks))
	for _, rm := range raw.Marks {
		m, err := markFromJSON(s, rm)
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	if raw.Type == s.TextType().Name() {
		return NewText(s, raw.Text, marks)
	}
	t, err := s.LookupNode(raw.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	children := make([]*Node, 0, len(raw.Content))
	for _, rc := range raw.Content {
		c, err := nodeFromJSON(s, rc)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return NewNode(t, raw.Attrs, FragmentFrom(children...), marks)
}

// SliceJSON is the wire form of a Slice.
type SliceJSON struct {
	Content   []json.RawMessage `json:"content,omitempty"`
	OpenStart int               `json:"openStart,omitempty"`
	OpenEnd   int               `json:"openEnd,omitempty"`
}

// MarshalJSON encodes the slice.
func (s Slice) MarshalJSON() ([]byte, error) {
	out := struct {
		Content   []nodeJSON `json:"content,omitempty"`
		OpenStart int        `json:"openStart,omitempty"`
		OpenEnd   int        `json:"openEnd,omitempty"`
	}{OpenStart: s.OpenStart, OpenEnd: s.OpenEnd}
	for _, c := range s.Content.content {
		out.Content = append(out.Content, c.toJSON())
	}
	return json.Marshal(out)
}

// SliceFromJSON decodes a slice. The slice's top-level nodes and its open
// nodes are not checked against their content expressions, since steps
// carry wrapper nodes whose content is completed by the document.
func SliceFromJSON(s *schema.Schema, data []byte) (Slice, error) {
	var raw SliceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return EmptySlice, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	nodes := make([]*Node, 0, len(raw.Content))
	for i, rc := range raw.Content {
		var rn nodeJSON
		if err := json.Unmarshal(rc, &rn); err != nil {
			return EmptySlice, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		open := 0
		if i == 0 {
			open = raw.OpenStart
		}
		if i == len(raw.Content)-1 {
			open = max(open, raw.OpenEnd)
		}
		n, err := looseNodeFromJSON(s, rn, open)
		if err != nil {
			return EmptySlice, err
		}
		nodes = append(nodes, n)
	}
	return NewSlice(FragmentFrom(nodes...), raw.OpenStart, raw.OpenEnd), nil
}

// looseNodeFromJSON decodes a node without checking its own content.
// Children on an open edge are decoded the same way.
func looseNodeFromJSON(s *schema.Schema, raw nodeJSON, open int) (*Node, error) {
	if raw.Type == s.TextType().Name() {
		return nodeFromJSON(s, raw)
	}
	t, err := s.LookupNode(raw.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	marks := make([]*Mark, 0, len(raw.Marks))
	for _, rm := range raw.Marks {
		m, err := markFromJSON(s, rm)
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	children := make([]*Node, 0, len(raw.Content))
	for i, rc := range raw.Content {
		var c *Node
		if open > 0 && (i == 0 || i == len(raw.Content)-1) {
			c, err = looseNodeFromJSON(s, rc, open-1)
		} else {
			c, err = nodeFromJSON(s, rc)
		}
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return Create(t, raw.Attrs, FragmentFrom(children...), marks)
}
