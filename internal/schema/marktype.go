package schema

import "strings"

// MarkType is a compiled mark spec. Mark types are compared by identity.
type MarkType struct {
	name         string
	schema       *Schema
	spec         MarkSpec
	rank         int
	groups       []string
	defaultAttrs Attrs
}

// Name returns the mark name.
func (m *MarkType) Name() string { return m.name }

// Schema returns the schema the mark belongs to.
func (m *MarkType) Schema() *Schema { return m.schema }

// Spec returns the spec the mark was built from.
func (m *MarkType) Spec() MarkSpec { return m.spec }

// Rank orders marks inside a mark set.
func (m *MarkType) Rank() int { return m.rank }

// Inclusive reports whether text typed at the mark's end inherits it.
func (m *MarkType) Inclusive() bool { return !m.spec.NotInclusive }

// Spanning reports whether the mark may run across adjacent nodes.
func (m *MarkType) Spanning() bool { return !m.spec.NotSpanning }

// Excludes reports whether adding m to a set removes other from it.
func (m *MarkType) Excludes(other *MarkType) bool {
	return m.schema.excludes[m.rank][other.rank]
}

// DefaultAttrs returns default attributes, or nil when some are required.
func (m *MarkType) DefaultAttrs() Attrs { return m.defaultAttrs }

// ComputeAttrs fills in defaults and validates the given attributes.
func (m *MarkType) ComputeAttrs(attrs Attrs) (Attrs, error) {
	if attrs == nil && m.defaultAttrs != nil {
		return m.defaultAttrs, nil
	}
	return computeAttrs(m.name, m.spec.Attrs, attrs)
}

// String returns the mark name.
func (m *MarkType) String() string { return m.name }

func (m *MarkType) inGroup(group string) bool {
	for _, g := range m.groups {
		if g == group {
			return true
		}
	}
	return false
}

// buildExcludes fills the schema's compatibility table.
func buildExcludes(s *Schema) error {
	n := len(s.markList)
	s.excludes = make([][]bool, n)
	for i := range s.excludes {
		s.excludes[i] = make([]bool, n)
	}
	for _, m := range s.markList {
		if m.spec.Excludes == "" {
			s.excludes[m.rank][m.rank] = true
			continue
		}
		for _, name := range strings.Fields(m.spec.Excludes) {
			others := s.resolveMarkName(name)
			if len(others) == 0 {
				return specErrorf("mark %s: unknown excluded mark %q", m.name, name)
			}
			for _, o := range others {
				s.excludes[m.rank][o.rank] = true
			}
		}
	}
	return nil
}
