package schema

import "sync"

// MatchEdge is a transition of the content automaton.
type MatchEdge struct {
	Type *NodeType
	Next *ContentMatch
}

// ContentMatch is a state of a compiled content expression. It tracks how
// far a sequence of child types has progressed through the expression.
type ContentMatch struct {
	validEnd bool
	next     []MatchEdge

	wrapMu    sync.Mutex
	wrapCache map[*NodeType][]*NodeType
}

// emptyMatch is the automaton of leaf nodes.
var emptyMatch = &ContentMatch{validEnd: true}

// ValidEnd reports whether the expression may end at this state.
func (m *ContentMatch) ValidEnd() bool {
	return m.validEnd
}

// EdgeCount returns the number of outgoing transitions.
func (m *ContentMatch) EdgeCount() int {
	return len(m.next)
}

// Edge returns the n-th outgoing transition.
func (m *ContentMatch) Edge(n int) MatchEdge {
	return m.next[n]
}

// IsEmpty reports whether the state accepts no content at all.
func (m *ContentMatch) IsEmpty() bool {
	return len(m.next) == 0
}

// MatchType returns the state after a child of type t, or nil.
func (m *ContentMatch) MatchType(t *NodeType) *ContentMatch {
	for _, e := range m.next {
		if e.Type == t {
			return e.Next
		}
	}
	return nil
}

// MatchTypes feeds a sequence of child types through the automaton.
// It returns nil and the index of the first failing child on mismatch.
func (m *ContentMatch) MatchTypes(types []*NodeType) (*ContentMatch, int) {
	cur := m
	for i, t := range types {
		cur = cur.MatchType(t)
		if cur == nil {
			return nil, i
		}
	}
	return cur, -1
}

// InlineContent reports whether this state expects inline content.
func (m *ContentMatch) InlineContent() bool {
	return len(m.next) != 0 && m.next[0].Type.IsInline()
}

// DefaultType returns the first type that can be generated at this state.
func (m *ContentMatch) DefaultType() *NodeType {
	for _, e := range m.next {
		if !(e.Type.IsText() || e.Type.HasRequiredAttrs()) {
			return e.Type
		}
	}
	return nil
}

// Compatible reports whether both states share an outgoing type.
func (m *ContentMatch) Compatible(other *ContentMatch) bool {
	for _, a := range m.next {
		for _, b := range other.next {
			if a.Type == b.Type {
				return true
			}
		}
	}
	return false
}

// FillBefore finds the types that must be inserted before after so that the
// sequence matches. When toEnd is set the resulting state must also be a
// valid end. The boolean is false when no such filler exists.
func (m *ContentMatch) FillBefore(after []*NodeType, toEnd bool) ([]*NodeType, bool) {
	seen := []*ContentMatch{m}
	var search func(match *ContentMatch, types []*NodeType) ([]*NodeType, bool)
	search = func(match *ContentMatch, types []*NodeType) ([]*NodeType, bool) {
		if finished, _ := match.MatchTypes(after); finished != nil && (!toEnd || finished.validEnd) {
			return types, true
		}
		for _, e := range match.next {
			if e.Type.IsText() || e.Type.HasRequiredAttrs() || containsMatch(seen, e.Next) {
				continue
			}
			seen = append(seen, e.Next)
			next := append(append([]*NodeType(nil), types...), e.Type)
			if found, ok := search(e.Next, next); ok {
				return found, true
			}
		}
		return nil, false
	}
	return search(m, nil)
}

func containsMatch(list []*ContentMatch, m *ContentMatch) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

// FindWrapping returns the list of wrapper types, outermost first, needed to
// place a node of type target at this state. An empty non-nil result means
// target fits directly; nil means no wrapping exists.
func (m *ContentMatch) FindWrapping(target *NodeType) []*NodeType {
	m.wrapMu.Lock()
	if cached, ok := m.wrapCache[target]; ok {
		m.wrapMu.Unlock()
		return cached
	}
	m.wrapMu.Unlock()

	computed := m.computeWrapping(target)

	m.wrapMu.Lock()
	if m.wrapCache == nil {
		m.wrapCache = make(map[*NodeType][]*NodeType)
	}
	m.wrapCache[target] = computed
	m.wrapMu.Unlock()
	return computed
}

func (m *ContentMatch) computeWrapping(target *NodeType) []*NodeType {
	type step struct {
		match *ContentMatch
		typ   *NodeType
		via   *step
	}
	seen := map[*NodeType]bool{}
	active := []*step{{match: m}}
	for len(active) > 0 {
		current := active[0]
		active = active[1:]
		if current.match.MatchType(target) != nil {
			result := []*NodeType{}
			for s := current; s.typ != nil; s = s.via {
				result = append(result, s.typ)
			}
			for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
				result[i], result[j] = result[j], result[i]
			}
			return result
		}
		for _, e := range current.match.next {
			t := e.Type
			if t.IsLeaf() || t.HasRequiredAttrs() || seen[t] || (current.typ != nil && !e.Next.validEnd) {
				continue
			}
			active = append(active, &step{match: t.ContentMatch(), typ: t, via: current})
			seen[t] = true
		}
	}
	return nil
}
