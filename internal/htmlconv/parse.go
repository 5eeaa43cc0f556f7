package htmlconv

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Parser converts HTML into document content.
type Parser struct {
	schema *schema.Schema
	strict bool
	policy *bluemonday.Policy
	logger *slog.Logger
}

// ParseOption configures a Parser.
type ParseOption func(*Parser)

// WithSchema sets the schema nodes are built in. The default is the
// rich-text schema.
func WithSchema(sc *schema.Schema) ParseOption {
	return func(p *Parser) {
		if sc != nil {
			p.schema = sc
		}
	}
}

// Strict makes elements without a tag rule fail the parse.
func Strict() ParseOption {
	return func(p *Parser) { p.strict = true }
}

// WithSanitizer runs input through policy before parsing. A nil policy
// uses Policy().
func WithSanitizer(policy *bluemonday.Policy) ParseOption {
	return func(p *Parser) {
		if policy == nil {
			policy = Policy()
		}
		p.policy = policy
	}
}

// WithLogger sets the logger for dropped content.
func WithLogger(l *slog.Logger) ParseOption {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a parser.
func NewParser(opts ...ParseOption) *Parser {
	p := &Parser{schema: schema.RichText(), logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses src into a document with the default parser options
// plus opts.
func Parse(src string, opts ...ParseOption) (*model.Node, error) {
	return NewParser(opts...).Parse(src)
}

// Parse parses src into a document.
func (p *Parser) Parse(src string) (*model.Node, error) {
	frag, err := p.ParseFragment(src)
	if err != nil {
		return nil, err
	}
	top := p.schema.TopNodeType()
	doc, err := model.NewNode(top, nil, frag, nil)
	if err != nil {
		doc, err = model.CreateAndFill(top, nil, frag, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	return doc, nil
}

// ParseFragment parses src into a sequence of block nodes.
func (p *Parser) ParseFragment(src string) (model.Fragment, error) {
	if p.policy != nil {
		src = p.policy.Sanitize(src)
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return model.EmptyFragment, fmt.Errorf("htmlconv: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	c := &converter{p: p}
	blocks := c.blocks(body.FirstChild, false)
	if c.err != nil {
		return model.EmptyFragment, c.err
	}
	return model.FragmentFrom(blocks...), nil
}

type converter struct {
	p   *Parser
	err error
}

func (c *converter) unrecognized(n *html.Node) {
	if c.err != nil {
		return
	}
	what := "comment"
	if n.Type == html.ElementNode {
		what = "<" + n.Data + ">"
	}
	c.err = fmt.Errorf("%w: %s", ErrUnrecognized, what)
}

func (c *converter) leaf(name, raw string) *model.Node {
	t := c.p.schema.NodeType(name)
	if t == nil {
		c.p.logger.Warn("dropping markup without a node type", "type", name)
		return nil
	}
	n, err := model.NewNode(t, schema.Attrs{"html": raw}, model.EmptyFragment, nil)
	if err != nil {
		return nil
	}
	return n
}

func render(n *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// blocks converts the siblings starting at first into block nodes. Runs
// of inline content become paragraphs.
func (c *converter) blocks(first *html.Node, inTaskList bool) []*model.Node {
	var out []*model.Node
	var run []*html.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		para := c.p.schema.NodeType(schema.NodeParagraph)
		if inline := c.textblock(run, para); len(inline) > 0 {
			out = append(out, c.create(para, nil, inline)...)
		}
		run = nil
	}
	for n := first; n != nil; n = n.NextSibling {
		switch n.Type {
		case html.TextNode:
			if len(run) == 0 && strings.TrimSpace(n.Data) == "" {
				continue
			}
			run = append(run, n)
		case html.CommentNode:
			flush()
			if c.p.strict {
				c.unrecognized(n)
				continue
			}
			if leaf := c.leaf(schema.NodeHTMLBlock, render(n)); leaf != nil {
				out = append(out, leaf)
			}
		case html.ElementNode:
			if IsInline(n.Data) {
				run = append(run, n)
				continue
			}
			flush()
			out = append(out, c.block(n, inTaskList)...)
		}
	}
	flush()
	return out
}

func (c *converter) block(n *html.Node, inTaskList bool) []*model.Node {
	rule, ok := blockRuleFor(n.Data, n.Attr, inTaskList)
	var t *schema.NodeType
	if ok && !rule.transparent {
		t = c.p.schema.NodeType(rule.node)
	}
	if !ok || (!rule.transparent && t == nil) {
		if c.p.strict {
			c.unrecognized(n)
			return nil
		}
		if leaf := c.leaf(schema.NodeHTMLBlock, render(n)); leaf != nil {
			return []*model.Node{leaf}
		}
		return nil
	}
	if rule.transparent {
		return c.blocks(n.FirstChild, inTaskList)
	}
	var attrs schema.Attrs
	if rule.attrs != nil {
		attrs = rule.attrs(n.Attr)
	}
	var content []*model.Node
	switch {
	case rule.code:
		if t.Name() == schema.NodeCodeBlock {
			attrs = schema.Attrs{"syntax": codeSyntax(n)}
		}
		if text := textContent(n); text != "" {
			content = []*model.Node{model.MustText(c.p.schema, text)}
		}
	case t.InlineContent():
		content = c.textblock(siblings(n.FirstChild), t)
	default:
		content = c.blocks(n.FirstChild, t.Name() == schema.NodeTaskList)
	}
	return c.create(t, attrs, content)
}

func codeSyntax(pre *html.Node) string {
	for ch := pre.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type != html.ElementNode || ch.Data != "code" {
			continue
		}
		for _, class := range strings.Fields(Attr(ch, "class")) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				return lang
			}
		}
	}
	return Attr(pre, "data-syntax")
}

// create builds a node of type t, filling missing required content. When
// the content cannot be arranged, permissive parsing keeps the children.
func (c *converter) create(t *schema.NodeType, attrs schema.Attrs, content []*model.Node) []*model.Node {
	frag := model.FragmentFrom(content...)
	n, err := model.NewNode(t, attrs, frag, nil)
	if err != nil {
		n, err = model.CreateAndFill(t, attrs, frag, nil)
	}
	if err == nil {
		return []*model.Node{n}
	}
	if c.p.strict {
		if c.err == nil {
			c.err = fmt.Errorf("%w: %s: %v", ErrInvalidContent, t.Name(), err)
		}
		return nil
	}
	c.p.logger.Warn("unwrapping element with invalid content", "type", t.Name(), "error", err)
	return content
}

func siblings(first *html.Node) []*html.Node {
	var out []*html.Node
	for n := first; n != nil; n = n.NextSibling {
		out = append(out, n)
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return b.String()
}

// collapse turns whitespace runs that contain a line break or tab into a
// single newline. Plain spaces are kept.
func collapse(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if !isSpace(s[i]) {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i
		broken := false
		for j < len(s) && isSpace(s[j]) {
			if s[j] != ' ' {
				broken = true
			}
			j++
		}
		if broken {
			b.WriteByte('\n')
		} else {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r' || c == '\f'
}

// textblock converts nodes into the inline content of a textblock of type
// parent.
func (c *converter) textblock(nodes []*html.Node, parent *schema.NodeType) []*model.Node {
	inline := c.inline(nodes, nil, parent)
	for len(inline) > 0 && inline[0].IsText() {
		text := strings.TrimLeft(inline[0].Text(), "\n")
		if text != "" {
			inline[0] = inline[0].WithText(text)
			break
		}
		inline = inline[1:]
	}
	for len(inline) > 0 && inline[len(inline)-1].IsText() {
		last := len(inline) - 1
		text := strings.TrimRight(inline[last].Text(), "\n")
		if text != "" {
			inline[last] = inline[last].WithText(text)
			break
		}
		inline = inline[:last]
	}
	var out []*model.Node
	for _, n := range inline {
		if n.IsText() {
			n = n.WithText(strings.ReplaceAll(n.Text(), "\n", " "))
			if prev := len(out) - 1; prev >= 0 && out[prev].IsText() && model.SameMarkSet(out[prev].Marks(), n.Marks()) {
				out[prev] = out[prev].WithText(out[prev].Text() + n.Text())
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

func allowed(parent *schema.NodeType, marks []*model.Mark) []*model.Mark {
	var out []*model.Mark
	for _, m := range marks {
		if parent.AllowsMarkType(m.Type()) {
			out = append(out, m)
		}
	}
	return out
}

func (c *converter) inline(nodes []*html.Node, marks []*model.Mark, parent *schema.NodeType) []*model.Node {
	var out []*model.Node
	for _, n := range nodes {
		switch n.Type {
		case html.TextNode:
			if text := collapse(n.Data); text != "" {
				out = append(out, model.MustText(c.p.schema, text, allowed(parent, marks)...))
			}
		case html.CommentNode:
			if c.p.strict {
				c.unrecognized(n)
				continue
			}
			if leaf := c.leaf(schema.NodeHTMLInline, render(n)); leaf != nil {
				out = append(out, leaf.Mark(allowed(parent, marks)))
			}
		case html.ElementNode:
			if leaf, ok := InlineLeaf(c.p.schema, n.Data, n.Attr, textContent(n)); ok {
				out = append(out, leaf.Mark(allowed(parent, marks)))
				continue
			}
			if m, ok := MarkFor(c.p.schema, n.Data, n.Attr); ok {
				out = append(out, c.inline(siblings(n.FirstChild), m.AddToSet(marks), parent)...)
				continue
			}
			if _, known := blockRuleFor(n.Data, n.Attr, false); known {
				out = append(out, c.inline(siblings(n.FirstChild), marks, parent)...)
				continue
			}
			if c.p.strict {
				c.unrecognized(n)
				continue
			}
			if leaf := c.leaf(schema.NodeHTMLInline, render(n)); leaf != nil {
				out = append(out, leaf.Mark(allowed(parent, marks)))
			}
		}
	}
	return out
}
