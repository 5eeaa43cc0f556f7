package schema

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// exprKind enumerates content expression node kinds.
type exprKind uint8

const (
	exprChoice exprKind = iota
	exprSeq
	exprPlus
	exprStar
	exprOpt
	exprRange
	exprName
)

// expr is a parsed content expression.
type expr struct {
	kind  exprKind
	exprs []*expr
	inner *expr
	min   int
	max   int // -1 for unbounded
	typ   *NodeType
}

// exprStream tokenizes and parses one content expression.
type exprStream struct {
	source string
	tokens []string
	pos    int
	types  *Schema
	inline int // -1 unknown, 0 block, 1 inline
	err    error
}

func tokenizeExpr(src string) []string {
	var tokens []string
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case isWordRune(r):
			start := i
			for i < len(runes) && isWordRune(runes[i]) {
				i++
			}
			tokens = append(tokens, string(runes[start:i]))
		default:
			tokens = append(tokens, string(r))
			i++
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (s *exprStream) next() string {
	if s.pos < len(s.tokens) {
		return s.tokens[s.pos]
	}
	return ""
}

func (s *exprStream) eat(tok string) bool {
	if s.next() == tok {
		s.pos++
		return true
	}
	return false
}

func (s *exprStream) fail(format string, args ...any) {
	if s.err == nil {
		s.err = specErrorf("content expression %q: "+format, append([]any{s.source}, args...)...)
	}
}

func (s *exprStream) parseExpr() *expr {
	var exprs []*expr
	for {
		exprs = append(exprs, s.parseSeq())
		if s.err != nil || !s.eat("|") {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &expr{kind: exprChoice, exprs: exprs}
}

func (s *exprStream) parseSeq() *expr {
	var exprs []*expr
	for {
		exprs = append(exprs, s.parseSubscript())
		if s.err != nil {
			break
		}
		n := s.next()
		if n == "" || n == ")" || n == "|" {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &expr{kind: exprSeq, exprs: exprs}
}

func (s *exprStream) parseSubscript() *expr {
	e := s.parseAtom()
	for s.err == nil {
		switch {
		case s.eat("+"):
			e = &expr{kind: exprPlus, inner: e}
		case s.eat("*"):
			e = &expr{kind: exprStar, inner: e}
		case s.eat("?"):
			e = &expr{kind: exprOpt, inner: e}
		case s.eat("{"):
			e = s.parseRange(e)
		default:
			return e
		}
	}
	return e
}

func (s *exprStream) parseNum() int {
	tok := s.next()
	n, err := strconv.Atoi(tok)
	if err != nil {
		s.fail("expected number, got %q", tok)
		return 0
	}
	s.pos++
	return n
}

func (s *exprStream) parseRange(e *expr) *expr {
	min := s.parseNum()
	max := min
	if s.eat(",") {
		if s.next() != "}" {
			max = s.parseNum()
		} else {
			max = -1
		}
	}
	if !s.eat("}") {
		s.fail("unclosed braced range")
	}
	if max != -1 && max < min {
		s.fail("range maximum below minimum")
	}
	return &expr{kind: exprRange, min: min, max: max, inner: e}
}

func (s *exprStream) parseAtom() *expr {
	if s.eat("(") {
		e := s.parseExpr()
		if !s.eat(")") {
			s.fail("missing closing paren")
		}
		return e
	}
	tok := s.next()
	if tok == "" || !isWordRune([]rune(tok)[0]) {
		s.fail("unexpected token %q", tok)
		return &expr{kind: exprChoice}
	}
	s.pos++
	types := s.types.resolveName(tok)
	if len(types) == 0 {
		s.fail("no node type or group %q", tok)
		return &expr{kind: exprChoice}
	}
	exprs := make([]*expr, 0, len(types))
	for _, t := range types {
		in := 0
		if t.IsInline() {
			in = 1
		}
		if s.inline == -1 {
			s.inline = in
		} else if s.inline != in {
			s.fail("mixing inline and block content")
		}
		exprs = append(exprs, &expr{kind: exprName, typ: t})
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &expr{kind: exprChoice, exprs: exprs}
}

// nfaEdge is an edge of the intermediate automaton. A nil term is an
// epsilon edge.
type nfaEdge struct {
	term *NodeType
	to   int
}

type nfaBuilder struct {
	states [][]*nfaEdge
}

func (b *nfaBuilder) node() int {
	b.states = append(b.states, nil)
	return len(b.states) - 1
}

func (b *nfaBuilder) edge(from, to int, term *NodeType) *nfaEdge {
	e := &nfaEdge{term: term, to: to}
	b.states[from] = append(b.states[from], e)
	return e
}

func connect(edges []*nfaEdge, to int) {
	for _, e := range edges {
		e.to = to
	}
}

// compile returns the dangling edges leaving the compiled expression.
func (b *nfaBuilder) compile(e *expr, from int) []*nfaEdge {
	switch e.kind {
	case exprChoice:
		var out []*nfaEdge
		for _, sub := range e.exprs {
			out = append(out, b.compile(sub, from)...)
		}
		return out
	case exprSeq:
		for i := 0; ; i++ {
			next := b.compile(e.exprs[i], from)
			if i == len(e.exprs)-1 {
				return next
			}
			from = b.node()
			connect(next, from)
		}
	case exprStar:
		loop := b.node()
		b.edge(from, loop, nil)
		connect(b.compile(e.inner, loop), loop)
		return []*nfaEdge{b.edge(loop, -1, nil)}
	case exprPlus:
		loop := b.node()
		connect(b.compile(e.inner, from), loop)
		connect(b.compile(e.inner, loop), loop)
		return []*nfaEdge{b.edge(loop, -1, nil)}
	case exprOpt:
		return append([]*nfaEdge{b.edge(from, -1, nil)}, b.compile(e.inner, from)...)
	case exprRange:
		cur := from
		for i := 0; i < e.min; i++ {
			next := b.node()
			connect(b.compile(e.inner, cur), next)
			cur = next
		}
		if e.max == -1 {
			connect(b.compile(e.inner, cur), cur)
		} else {
			for i := e.min; i < e.max; i++ {
				next := b.node()
				b.edge(cur, next, nil)
				connect(b.compile(e.inner, cur), next)
				cur = next
			}
		}
		return []*nfaEdge{b.edge(cur, -1, nil)}
	case exprName:
		return []*nfaEdge{b.edge(from, -1, e.typ)}
	}
	return nil
}

// nullFrom returns the sorted set of states reachable from node through
// epsilon edges.
func (b *nfaBuilder) nullFrom(node int) []int {
	var result []int
	seen := map[int]bool{}
	var scan func(n int)
	scan = func(n int) {
		if seen[n] {
			return
		}
		seen[n] = true
		edges := b.states[n]
		if len(edges) == 1 && edges[0].term == nil {
			scan(edges[0].to)
			return
		}
		result = append(result, n)
		for _, e := range edges {
			if e.term == nil {
				scan(e.to)
			}
		}
	}
	scan(node)
	sort.Ints(result)
	return result
}

func stateKey(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

// dfa converts the automaton into ContentMatch states.
func (b *nfaBuilder) dfa() *ContentMatch {
	accept := len(b.states) - 1
	labeled := map[string]*ContentMatch{}
	var explore func(states []int) *ContentMatch
	explore = func(states []int) *ContentMatch {
		type transition struct {
			term *NodeType
			set  []int
		}
		var out []*transition
		for _, node := range states {
			for _, e := range b.states[node] {
				if e.term == nil {
					continue
				}
				var tr *transition
				for _, o := range out {
					if o.term == e.term {
						tr = o
					}
				}
				for _, n := range b.nullFrom(e.to) {
					if tr == nil {
						tr = &transition{term: e.term}
						out = append(out, tr)
					}
					if !containsInt(tr.set, n) {
						tr.set = append(tr.set, n)
					}
				}
			}
		}
		m := &ContentMatch{validEnd: containsInt(states, accept)}
		labeled[stateKey(states)] = m
		for _, tr := range out {
			sort.Ints(tr.set)
			next, ok := labeled[stateKey(tr.set)]
			if !ok {
				next = explore(tr.set)
			}
			m.next = append(m.next, MatchEdge{Type: tr.term, Next: next})
		}
		return m
	}
	return explore(b.nullFrom(0))
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// parseContent compiles a content expression against the schema's types.
func parseContent(src string, s *Schema) (*ContentMatch, error) {
	stream := &exprStream{source: src, tokens: tokenizeExpr(src), types: s, inline: -1}
	if len(stream.tokens) == 0 {
		return emptyMatch, nil
	}
	e := stream.parseExpr()
	if stream.err == nil && stream.next() != "" {
		stream.fail("unexpected trailing text %q", stream.next())
	}
	if stream.err != nil {
		return nil, stream.err
	}
	b := &nfaBuilder{}
	b.node()
	connect(b.compile(e, 0), b.node())
	match := b.dfa()
	if err := checkForDeadEnds(src, match); err != nil {
		return nil, err
	}
	return match, nil
}

// checkForDeadEnds rejects expressions that require content which can
// never be generated automatically.
func checkForDeadEnds(src string, start *ContentMatch) error {
	work := []*ContentMatch{start}
	for i := 0; i < len(work); i++ {
		state := work[i]
		dead := !state.validEnd
		var names []string
		for _, e := range state.next {
			names = append(names, e.Type.Name())
			if dead && !(e.Type.IsText() || e.Type.HasRequiredAttrs()) {
				dead = false
			}
			found := false
			for _, w := range work {
				if w == e.Next {
					found = true
					break
				}
			}
			if !found {
				work = append(work, e.Next)
			}
		}
		if dead {
			return specErrorf("content expression %q: only non-generatable nodes (%s) in a required position",
				src, strings.Join(names, ", "))
		}
	}
	return nil
}
