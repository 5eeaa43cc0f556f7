package schema

import (
	"fmt"
	"strings"
)

// Schema is an immutable registry of node and mark types.
type Schema struct {
	nodeList []*NodeType
	nodes    map[string]*NodeType
	markList []*MarkType
	marks    map[string]*MarkType

	topName  string
	textName string

	// excludes[a][b] means adding mark rank a removes mark rank b.
	excludes [][]bool
}

// New compiles a Spec into a Schema.
func New(spec Spec) (*Schema, error) {
	s := &Schema{
		nodes:    make(map[string]*NodeType, len(spec.Nodes)),
		marks:    make(map[string]*MarkType, len(spec.Marks)),
		topName:  spec.TopNode,
		textName: "text",
	}
	if s.topName == "" {
		s.topName = "doc"
	}

	for i, ns := range spec.Nodes {
		if ns.Name == "" {
			return nil, specErrorf("node spec %d has no name", i)
		}
		if _, dup := s.nodes[ns.Name]; dup {
			return nil, specErrorf("duplicate node type %q", ns.Name)
		}
		t := &NodeType{
			name:   ns.Name,
			schema: s,
			spec:   ns,
			groups: strings.Fields(ns.Group),
			rank:   i,
		}
		s.nodes[ns.Name] = t
		s.nodeList = append(s.nodeList, t)
	}
	if _, ok := s.nodes[s.topName]; !ok {
		return nil, specErrorf("schema is missing its top node type %q", s.topName)
	}
	text, ok := s.nodes[s.textName]
	if !ok {
		return nil, specErrorf("schema is missing a text type")
	}
	if len(text.spec.Attrs) > 0 {
		return nil, specErrorf("the text node type should not have attributes")
	}

	for i, ms := range spec.Marks {
		if ms.Name == "" {
			return nil, specErrorf("mark spec %d has no name", i)
		}
		if _, dup := s.marks[ms.Name]; dup {
			return nil, specErrorf("duplicate mark type %q", ms.Name)
		}
		m := &MarkType{
			name:   ms.Name,
			schema: s,
			spec:   ms,
			rank:   i,
			groups: strings.Fields(ms.Group),
		}
		if attrs, err := computeAttrs(m.name, ms.Attrs, nil); err == nil {
			m.defaultAttrs = attrs
		}
		s.marks[ms.Name] = m
		s.markList = append(s.markList, m)
	}
	if err := buildExcludes(s); err != nil {
		return nil, err
	}

	for _, t := range s.nodeList {
		match, err := parseContent(t.spec.Content, s)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", t.name, err)
		}
		t.content = match
		t.inlineContent = match.InlineContent()
		if attrs, err := computeAttrs(t.name, t.spec.Attrs, nil); err == nil {
			t.defaultAttrs = attrs
		}
	}
	for _, t := range s.nodeList {
		if err := t.resolveMarks(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustNew is like New but panics on error. It is meant for package-level
// schema definitions.
func MustNew(spec Spec) *Schema {
	s, err := New(spec)
	if err != nil {
		panic(err)
	}
	return s
}

// TopNodeType returns the root node type.
func (s *Schema) TopNodeType() *NodeType { return s.nodes[s.topName] }

// TextType returns the text node type.
func (s *Schema) TextType() *NodeType { return s.nodes[s.textName] }

// NodeType returns the node type called name, or nil.
func (s *Schema) NodeType(name string) *NodeType { return s.nodes[name] }

// MarkType returns the mark type called name, or nil.
func (s *Schema) MarkType(name string) *MarkType { return s.marks[name] }

// NodeTypes returns all node types in declaration order.
func (s *Schema) NodeTypes() []*NodeType {
	return append([]*NodeType(nil), s.nodeList...)
}

// MarkTypes returns all mark types in rank order.
func (s *Schema) MarkTypes() []*MarkType {
	return append([]*MarkType(nil), s.markList...)
}

// LookupNode returns the node type called name or an ErrUnknownType error.
func (s *Schema) LookupNode(name string) (*NodeType, error) {
	if t := s.nodes[name]; t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: node %q", ErrUnknownType, name)
}

// LookupMark returns the mark type called name or an ErrUnknownType error.
func (s *Schema) LookupMark(name string) (*MarkType, error) {
	if m := s.marks[name]; m != nil {
		return m, nil
	}
	return nil, fmt.Errorf("%w: mark %q", ErrUnknownType, name)
}

// MarksCompatible reports whether marks of types a and b can share a set.
func (s *Schema) MarksCompatible(a, b *MarkType) bool {
	return !s.excludes[a.rank][b.rank] && !s.excludes[b.rank][a.rank]
}

// ResolveContentMatch runs a child type sequence through t's content
// expression. It returns -1 when the sequence is valid, or the index of the
// offending child (the sequence length when content ended too early).
func (s *Schema) ResolveContentMatch(t *NodeType, children []*NodeType) int {
	end, idx := t.content.MatchTypes(children)
	if end == nil {
		return idx
	}
	if !end.validEnd {
		return len(children)
	}
	return -1
}

// resolveName maps a content expression word to node types. A type name
// wins over a group of the same name.
func (s *Schema) resolveName(name string) []*NodeType {
	if t, ok := s.nodes[name]; ok {
		return []*NodeType{t}
	}
	var out []*NodeType
	for _, t := range s.nodeList {
		if t.InGroup(name) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Schema) resolveMarkName(name string) []*MarkType {
	if name == "_" {
		return s.MarkTypes()
	}
	if m, ok := s.marks[name]; ok {
		return []*MarkType{m}
	}
	var out []*MarkType
	for _, m := range s.markList {
		if m.inGroup(name) {
			out = append(out, m)
		}
	}
	return out
}
