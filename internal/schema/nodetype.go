package schema

import (
	"sort"
	"strings"
)

// NodeType is a compiled node spec. Node types are compared by identity.
type NodeType struct {
	name    string
	schema  *Schema
	spec    NodeSpec
	groups  []string
	content *ContentMatch
	rank    int

	inlineContent bool
	allMarks      bool
	markSet       map[*MarkType]bool
	defaultAttrs  Attrs
}

// Name returns the type name.
func (t *NodeType) Name() string { return t.name }

// Schema returns the schema the type belongs to.
func (t *NodeType) Schema() *Schema { return t.schema }

// Spec returns the spec the type was built from.
func (t *NodeType) Spec() NodeSpec { return t.spec }

// Rank returns the declaration index of the type.
func (t *NodeType) Rank() int { return t.rank }

// Groups returns the groups the type belongs to.
func (t *NodeType) Groups() []string { return t.groups }

// InGroup reports whether the type belongs to group.
func (t *NodeType) InGroup(group string) bool {
	for _, g := range t.groups {
		if g == group {
			return true
		}
	}
	return false
}

// ContentMatch returns the start state of the type's content automaton.
func (t *NodeType) ContentMatch() *ContentMatch { return t.content }

// IsText reports whether this is the text type.
func (t *NodeType) IsText() bool { return t.name == t.schema.textName }

// IsInline reports whether nodes of this type are inline.
func (t *NodeType) IsInline() bool { return t.spec.Inline || t.IsText() }

// IsBlock reports whether nodes of this type are block nodes.
func (t *NodeType) IsBlock() bool { return !t.IsInline() }

// IsTextblock reports whether the type is a block with inline content.
func (t *NodeType) IsTextblock() bool { return t.IsBlock() && t.inlineContent }

// InlineContent reports whether the type's content is inline.
func (t *NodeType) InlineContent() bool { return t.inlineContent }

// IsLeaf reports whether the type allows no content.
func (t *NodeType) IsLeaf() bool { return t.content == emptyMatch }

// IsAtom reports whether nodes of this type are treated as a single unit.
func (t *NodeType) IsAtom() bool { return t.IsLeaf() || t.spec.Atom }

// IsCode reports whether nodes of this type hold code.
func (t *NodeType) IsCode() bool { return t.spec.Code }

// IsDefining reports whether the type is defining.
func (t *NodeType) IsDefining() bool { return t.spec.Defining }

// IsIsolating reports whether the type is isolating.
func (t *NodeType) IsIsolating() bool { return t.spec.Isolating }

// TableRole returns the type's table role, or "".
func (t *NodeType) TableRole() string { return t.spec.TableRole }

// HasRequiredAttrs reports whether any attribute lacks a default.
func (t *NodeType) HasRequiredAttrs() bool {
	for _, a := range t.spec.Attrs {
		if a.Required {
			return true
		}
	}
	return false
}

// AttrNames returns the declared attribute names in sorted order.
func (t *NodeType) AttrNames() []string {
	names := make([]string, 0, len(t.spec.Attrs))
	for n := range t.spec.Attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultAttrs returns the attributes used when none are given, or nil
// when the type has required attributes.
func (t *NodeType) DefaultAttrs() Attrs { return t.defaultAttrs }

// ComputeAttrs fills in defaults and validates the given attributes.
func (t *NodeType) ComputeAttrs(attrs Attrs) (Attrs, error) {
	if attrs == nil && t.defaultAttrs != nil {
		return t.defaultAttrs, nil
	}
	return computeAttrs(t.name, t.spec.Attrs, attrs)
}

// AllowsMarkType reports whether marks of type m may appear in this type's content.
func (t *NodeType) AllowsMarkType(m *MarkType) bool {
	return t.allMarks || t.markSet[m]
}

// AllowsMarks reports whether every mark type in marks is allowed.
func (t *NodeType) AllowsMarks(marks []*MarkType) bool {
	if t.allMarks {
		return true
	}
	for _, m := range marks {
		if !t.markSet[m] {
			return false
		}
	}
	return true
}

// CompatibleContent reports whether nodes of t and other can be joined.
func (t *NodeType) CompatibleContent(other *NodeType) bool {
	return t == other || t.content.Compatible(other.content)
}

// CheckContent validates a sequence of child types.
func (t *NodeType) CheckContent(types []*NodeType) error {
	end, idx := t.content.MatchTypes(types)
	if end == nil {
		return &SchemaViolationError{Type: t.name, Index: idx, Child: types[idx].name}
	}
	if !end.validEnd {
		return &SchemaViolationError{Type: t.name, Index: len(types)}
	}
	return nil
}

// ValidContent reports whether types is a valid child sequence.
func (t *NodeType) ValidContent(types []*NodeType) bool {
	return t.CheckContent(types) == nil
}

// String returns the type name.
func (t *NodeType) String() string { return t.name }

func (t *NodeType) resolveMarks(s *Schema) error {
	spec := t.spec
	switch {
	case spec.NoMarks:
		t.markSet = map[*MarkType]bool{}
	case spec.Marks == "_" || (spec.Marks == "" && t.inlineContent):
		t.allMarks = true
	case spec.Marks == "":
		t.markSet = map[*MarkType]bool{}
	default:
		t.markSet = map[*MarkType]bool{}
		for _, name := range strings.Fields(spec.Marks) {
			marks := s.resolveMarkName(name)
			if len(marks) == 0 {
				return specErrorf("node %s: unknown mark %q", t.name, name)
			}
			for _, m := range marks {
				t.markSet[m] = true
			}
		}
	}
	return nil
}
