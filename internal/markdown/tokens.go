package markdown

import (
	"fmt"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// TokenKind classifies a token.
type TokenKind int

const (
	// Open starts a node of Type; its children follow until the matching
	// Close.
	Open TokenKind = iota
	// Close ends the innermost open node.
	Close
	// Text adds text with the active marks.
	Text
	// Leaf adds a childless node of Type.
	Leaf
	// Nodes adds prebuilt nodes.
	Nodes
	// MarkOpen activates a mark of Type.
	MarkOpen
	// MarkClose deactivates the latest mark of Type.
	MarkClose
)

var tokenKindNames = [...]string{"open", "close", "text", "leaf", "nodes", "mark_open", "mark_close"}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one element of a flattened document.
type Token struct {
	Kind  TokenKind
	Type  string
	Attrs schema.Attrs
	Text  string
	Nodes []*model.Node
}

type frame struct {
	t       *schema.NodeType
	attrs   schema.Attrs
	content []*model.Node
	marks   []*model.Mark
}

func (f *frame) active() []*model.Mark {
	var set []*model.Mark
	for _, m := range f.marks {
		if f.t.AllowsMarkType(m.Type()) {
			set = m.AddToSet(set)
		}
	}
	return set
}

func (f *frame) push(n *model.Node) {
	if n.IsText() {
		if last := len(f.content) - 1; last >= 0 && f.content[last].IsText() &&
			model.SameMarkSet(f.content[last].Marks(), n.Marks()) {
			f.content[last] = f.content[last].WithText(f.content[last].Text() + n.Text())
			return
		}
	}
	f.content = append(f.content, n)
}

func (f *frame) build() (*model.Node, error) {
	frag := model.FragmentFrom(f.content...)
	n, err := model.NewNode(f.t, f.attrs, frag, nil)
	if err == nil {
		return n, nil
	}
	if filled, ferr := model.CreateAndFill(f.t, f.attrs, frag, nil); ferr == nil {
		return filled, nil
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrInvalidContent, f.t.Name(), err)
}

// Fold builds a document of sc's top node type from tokens. Nodes still
// open at the end of the stream are closed.
func Fold(sc *schema.Schema, tokens []Token) (*model.Node, error) {
	stack := []*frame{{t: sc.TopNodeType()}}
	top := func() *frame { return stack[len(stack)-1] }
	closeTop := func() error {
		f := top()
		stack = stack[:len(stack)-1]
		n, err := f.build()
		if err != nil {
			return err
		}
		top().push(n)
		return nil
	}
	for _, tok := range tokens {
		switch tok.Kind {
		case Open:
			t := sc.NodeType(tok.Type)
			if t == nil {
				return nil, fmt.Errorf("%w: node %q", ErrUnknownType, tok.Type)
			}
			stack = append(stack, &frame{t: t, attrs: tok.Attrs})
		case Close:
			if len(stack) == 1 {
				return nil, fmt.Errorf("%w: close without open", ErrInvalidContent)
			}
			if err := closeTop(); err != nil {
				return nil, err
			}
		case Text:
			if tok.Text == "" {
				continue
			}
			n, err := model.NewText(sc, tok.Text, top().active())
			if err != nil {
				return nil, err
			}
			top().push(n)
		case Leaf:
			t := sc.NodeType(tok.Type)
			if t == nil {
				return nil, fmt.Errorf("%w: node %q", ErrUnknownType, tok.Type)
			}
			var marks []*model.Mark
			if t.IsInline() {
				marks = top().active()
			}
			n, err := model.NewNode(t, tok.Attrs, model.EmptyFragment, marks)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
			}
			top().push(n)
		case Nodes:
			for _, n := range tok.Nodes {
				if n.IsInline() {
					n = n.Mark(top().active())
				}
				top().push(n)
			}
		case MarkOpen:
			t := sc.MarkType(tok.Type)
			if t == nil {
				return nil, fmt.Errorf("%w: mark %q", ErrUnknownType, tok.Type)
			}
			m, err := model.NewMark(t, tok.Attrs)
			if err != nil {
				return nil, err
			}
			f := top()
			f.marks = append(f.marks, m)
		case MarkClose:
			f := top()
			for i := len(f.marks) - 1; i >= 0; i-- {
				if f.marks[i].Type().Name() == tok.Type {
					f.marks = append(f.marks[:i], f.marks[i+1:]...)
					break
				}
			}
		}
	}
	for len(stack) > 1 {
		if err := closeTop(); err != nil {
			return nil, err
		}
	}
	return stack[0].build()
}
