package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"

	"github.com/dshills/inkwell/internal/htmlconv"
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Parser reads Markdown into documents.
type Parser struct {
	schema *schema.Schema
	md     goldmark.Markdown
	html   *htmlconv.Parser
	logger *slog.Logger
}

// ParseOption configures a Parser.
type ParseOption func(*Parser)

// WithSchema sets the schema documents are built in.
func WithSchema(sc *schema.Schema) ParseOption {
	return func(p *Parser) {
		if sc != nil {
			p.schema = sc
		}
	}
}

// WithLogger sets the parser's logger.
func WithLogger(l *slog.Logger) ParseOption {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewParser creates a parser for the dialect.
func NewParser(opts ...ParseOption) *Parser {
	p := &Parser{schema: schema.RichText(), logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.md = goldmark.New(goldmark.WithExtensions(
		extension.Table,
		extension.TaskList,
		extension.DefinitionList,
		Dialect,
	))
	p.html = htmlconv.NewParser(htmlconv.WithSchema(p.schema), htmlconv.Strict(), htmlconv.WithLogger(p.logger))
	return p
}

// Parse parses src with a parser built from opts.
func Parse(src string, opts ...ParseOption) (*model.Node, error) {
	return NewParser(opts...).Parse(src)
}

// Parse parses src into a document.
func (p *Parser) Parse(src string) (*model.Node, error) {
	tokens := p.Tokenize(src)
	doc, err := Fold(p.schema, tokens)
	if err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	return doc, nil
}

// Tokenize parses src into a token stream.
func (p *Parser) Tokenize(src string) []Token {
	source := []byte(src)
	root := p.md.Parser().Parse(text.NewReader(source))
	t := &tokenizer{p: p, source: source}
	t.blocks(root)
	return t.out
}

type tokenizer struct {
	p      *Parser
	source []byte
	out    []Token
	// raw inline tags opened in the current textblock
	rawOpen []string
}

func (t *tokenizer) emit(tok Token) { t.out = append(t.out, tok) }

func (t *tokenizer) open(name string, attrs schema.Attrs) {
	t.emit(Token{Kind: Open, Type: name, Attrs: attrs})
}

func (t *tokenizer) close() { t.emit(Token{Kind: Close}) }

func (t *tokenizer) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		t.block(n)
	}
}

func (t *tokenizer) lines(n ast.Node) string { return blockLines(n, t.source) }

func blockLines(n ast.Node, source []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}

// htmlBlockSource returns the text of an HTML block without its final
// line break.
func htmlBlockSource(n *ast.HTMLBlock, source []byte) string {
	raw := blockLines(n, source)
	if n.HasClosure() {
		raw += string(n.ClosureLine.Value(source))
	}
	return strings.TrimRight(raw, "\n")
}

func (t *tokenizer) textblock(name string, attrs schema.Attrs, n ast.Node) {
	t.open(name, attrs)
	t.rawOpen = t.rawOpen[:0]
	t.inlines(n)
	t.close()
}

func (t *tokenizer) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		if strings.TrimSpace(t.lines(n)) == emptyParagraph {
			t.open(schema.NodeParagraph, nil)
			t.close()
			return
		}
		t.textblock(schema.NodeParagraph, nil, n)
	case *ast.Heading:
		t.textblock(schema.NodeHeading, schema.Attrs{"level": n.Level}, n)
	case *ast.ThematicBreak:
		t.emit(Token{Kind: Leaf, Type: schema.NodeHorizontalRule})
	case *ast.FencedCodeBlock:
		syntax := ""
		if n.Info != nil {
			syntax = unescape(n.Language(t.source))
		}
		if syntax == rawHTMLInfo {
			t.emit(Token{Kind: Leaf, Type: schema.NodeHTMLBlock, Attrs: schema.Attrs{"html": strings.TrimSuffix(t.lines(n), "\n")}})
			return
		}
		t.code(schema.NodeCodeBlock, schema.Attrs{"syntax": syntax}, t.lines(n))
	case *ast.CodeBlock:
		t.code(schema.NodeCodeBlock, nil, t.lines(n))
	case *MathBlock:
		t.code(schema.NodeMathBlock, nil, t.lines(n))
	case *ast.Blockquote:
		t.open(schema.NodeBlockquote, nil)
		t.blocks(n)
		t.close()
	case *Container:
		t.open(schema.NodeContainer, schema.Attrs{"kind": n.ContainerKind})
		t.blocks(n)
		t.close()
	case *ast.List:
		t.list(n)
	case *ast.HTMLBlock:
		t.htmlBlock(n)
	case *extast.Table:
		t.table(n)
	case *extast.DefinitionList:
		t.open(schema.NodeDefinitionList, nil)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *extast.DefinitionTerm:
				t.textblock(schema.NodeDefinitionTerm, nil, c)
			case *extast.DefinitionDescription:
				t.open(schema.NodeDefinitionDescription, nil)
				t.blocks(c)
				t.close()
			}
		}
		t.close()
	default:
		t.p.logger.Warn("unknown markdown block", "kind", n.Kind().String())
		t.blocks(n)
	}
}

func (t *tokenizer) code(name string, attrs schema.Attrs, content string) {
	t.open(name, attrs)
	t.emit(Token{Kind: Text, Text: strings.TrimSuffix(content, "\n")})
	t.close()
}

func checkBox(item ast.Node) *extast.TaskCheckBox {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	box, _ := first.FirstChild().(*extast.TaskCheckBox)
	return box
}

func (t *tokenizer) list(n *ast.List) {
	task := n.HasChildren()
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if checkBox(item) == nil {
			task = false
		}
	}
	switch {
	case task && !n.IsOrdered():
		t.open(schema.NodeTaskList, schema.Attrs{"tight": n.IsTight})
	case n.IsOrdered():
		t.open(schema.NodeOrderedList, schema.Attrs{"start": n.Start, "tight": n.IsTight})
	default:
		t.open(schema.NodeBulletList, schema.Attrs{"tight": n.IsTight})
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if task && !n.IsOrdered() {
			t.open(schema.NodeTaskItem, schema.Attrs{"checked": checkBox(item).IsChecked})
		} else {
			t.open(schema.NodeListItem, nil)
		}
		t.blocks(item)
		t.close()
	}
	t.close()
}

// htmlBlock emits the block as document content when every tag in it
// has a rule, and as a verbatim htmlBlock otherwise.
func (t *tokenizer) htmlBlock(n *ast.HTMLBlock) {
	raw := htmlBlockSource(n, t.source)
	frag, err := t.p.html.ParseFragment(raw)
	if err == nil && frag.ChildCount() > 0 {
		t.emit(Token{Kind: Nodes, Nodes: frag.Children()})
		return
	}
	t.emit(Token{Kind: Leaf, Type: schema.NodeHTMLBlock, Attrs: schema.Attrs{"html": raw}})
}

var alignments = map[extast.Alignment]string{
	extast.AlignLeft:   "left",
	extast.AlignRight:  "right",
	extast.AlignCenter: "center",
}

func (t *tokenizer) table(n *extast.Table) {
	t.open(schema.NodeTable, nil)
	hasBody := false
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		if _, ok := row.(*extast.TableRow); ok {
			hasBody = true
		}
	}
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		cellType := schema.NodeTableCell
		if _, header := row.(*extast.TableHeader); header {
			if hasBody && emptyRow(row) {
				continue
			}
			cellType = schema.NodeTableHeader
		}
		t.open(schema.NodeTableRow, nil)
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			cell, ok := c.(*extast.TableCell)
			if !ok {
				continue
			}
			t.open(cellType, schema.Attrs{"align": alignments[cell.Alignment]})
			t.textblock(schema.NodeParagraph, nil, cell)
			t.close()
		}
		t.close()
	}
	t.close()
}

func emptyRow(row ast.Node) bool {
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if c.HasChildren() {
			return false
		}
	}
	return true
}

func (t *tokenizer) inlines(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if raw, ok := n.(*ast.RawHTML); ok {
			if last := t.foreignElement(raw); last != nil {
				n = last
				continue
			}
		}
		t.inline(n)
	}
}

func rawBounds(n *ast.RawHTML) (int, int) {
	return n.Segments.At(0).Start, n.Segments.At(n.Segments.Len() - 1).Stop
}

func firstTag(raw []byte) (html.TokenType, string) {
	z := html.NewTokenizer(bytes.NewReader(raw))
	kind := z.Next()
	return kind, z.Token().Data
}

// foreignElement emits an element without a tag rule, from its start
// tag through the matching end tag, as one htmlInline node when only
// text lies in between. It returns the node holding the end tag, or nil
// when open is handled on its own.
func (t *tokenizer) foreignElement(open *ast.RawHTML) ast.Node {
	if open.Segments.Len() == 0 {
		return nil
	}
	start, stop := rawBounds(open)
	kind, name := firstTag(t.source[start:stop])
	if kind != html.StartTagToken || htmlconv.HasTagRule(name) {
		return nil
	}
	depth := 1
	for n := open.NextSibling(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text, *ast.String:
		case *ast.RawHTML:
			if n.Segments.Len() == 0 {
				return nil
			}
			from, end := rawBounds(n)
			switch k, tag := firstTag(t.source[from:end]); {
			case tag != name:
			case k == html.StartTagToken:
				depth++
			case k == html.EndTagToken:
				depth--
			}
			if depth == 0 {
				t.emit(Token{Kind: Leaf, Type: schema.NodeHTMLInline, Attrs: schema.Attrs{"html": string(t.source[start:end])}})
				return n
			}
		default:
			return nil
		}
	}
	return nil
}

func (t *tokenizer) mark(name string, attrs schema.Attrs, n ast.Node) {
	t.emit(Token{Kind: MarkOpen, Type: name, Attrs: attrs})
	t.inlines(n)
	t.emit(Token{Kind: MarkClose, Type: name})
}

func (t *tokenizer) inline(n ast.Node) {
	switch n := n.(type) {
	case *ast.Text:
		value := unescape(n.Segment.Value(t.source))
		if _, ok := n.PreviousSibling().(*extast.TaskCheckBox); ok {
			value = strings.TrimLeft(value, " \t")
		}
		t.emit(Token{Kind: Text, Text: value})
		switch {
		case n.HardLineBreak():
			t.emit(Token{Kind: Leaf, Type: schema.NodeHardBreak})
		case n.SoftLineBreak():
			t.emit(Token{Kind: Text, Text: " "})
		}
	case *ast.String:
		t.emit(Token{Kind: Text, Text: string(n.Value)})
	case *ast.CodeSpan:
		var b strings.Builder
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c := c.(type) {
			case *ast.Text:
				v := c.Segment.Value(t.source)
				if bytes.HasSuffix(v, []byte("\n")) {
					b.Write(v[:len(v)-1])
					b.WriteByte(' ')
					continue
				}
				b.Write(v)
			case *ast.String:
				b.Write(c.Value)
			}
		}
		t.emit(Token{Kind: MarkOpen, Type: schema.MarkCode})
		t.emit(Token{Kind: Text, Text: b.String()})
		t.emit(Token{Kind: MarkClose, Type: schema.MarkCode})
	case *ast.Emphasis:
		name := schema.MarkEm
		if n.Level >= 2 {
			name = schema.MarkStrong
		}
		t.mark(name, nil, n)
	case *extast.Strikethrough:
		t.mark(schema.MarkStrike, nil, n)
	case *Delimited:
		t.mark(n.Mark, nil, n)
	case *ast.Link:
		t.mark(schema.MarkLink, schema.Attrs{
			"href":  unescape(n.Destination),
			"title": unescape(n.Title),
		}, n)
	case *ast.AutoLink:
		t.emit(Token{Kind: MarkOpen, Type: schema.MarkLink, Attrs: schema.Attrs{"href": string(n.URL(t.source))}})
		t.emit(Token{Kind: Text, Text: string(n.Label(t.source))})
		t.emit(Token{Kind: MarkClose, Type: schema.MarkLink})
	case *ast.Image:
		t.emit(Token{Kind: Leaf, Type: schema.NodeImage, Attrs: schema.Attrs{
			"src":   unescape(n.Destination),
			"alt":   t.plainText(n),
			"title": unescape(n.Title),
		}})
	case *MathInline:
		t.emit(Token{Kind: Leaf, Type: schema.NodeMathInline, Attrs: schema.Attrs{"tex": n.Tex}})
	case *ast.RawHTML:
		var b bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(t.source))
		}
		t.rawHTML(b.String())
	case *extast.TaskCheckBox:
	default:
		t.p.logger.Warn("unknown markdown inline", "kind", n.Kind().String())
		t.inlines(n)
	}
}

func (t *tokenizer) plainText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.WriteString(unescape(c.Segment.Value(t.source)))
			if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// rawHTML turns one inline tag into a mark boundary or leaf when a tag
// rule covers it, and into an htmlInline node otherwise.
func (t *tokenizer) rawHTML(raw string) {
	z := html.NewTokenizer(strings.NewReader(raw))
	kind := z.Next()
	tok := z.Token()
	foreign := Token{Kind: Leaf, Type: schema.NodeHTMLInline, Attrs: schema.Attrs{"html": raw}}
	sc := t.p.schema
	switch kind {
	case html.StartTagToken, html.SelfClosingTagToken:
		if leaf, ok := htmlconv.InlineLeaf(sc, tok.Data, tok.Attr, ""); ok && tok.Data != "span" {
			t.emit(Token{Kind: Nodes, Nodes: []*model.Node{leaf}})
			return
		}
		if kind == html.StartTagToken {
			if m, ok := htmlconv.MarkFor(sc, tok.Data, tok.Attr); ok {
				t.rawOpen = append(t.rawOpen, tok.Data)
				t.emit(Token{Kind: MarkOpen, Type: m.Type().Name(), Attrs: m.Attrs()})
				return
			}
		}
	case html.EndTagToken:
		for i := len(t.rawOpen) - 1; i >= 0; i-- {
			if t.rawOpen[i] != tok.Data {
				continue
			}
			t.rawOpen = append(t.rawOpen[:i], t.rawOpen[i+1:]...)
			m, _ := htmlconv.MarkFor(sc, tok.Data, nil)
			name := schema.MarkSpan
			if m != nil {
				name = m.Type().Name()
			} else if tok.Data == "a" {
				name = schema.MarkLink
			}
			t.emit(Token{Kind: MarkClose, Type: name})
			return
		}
	}
	t.emit(foreign)
}

// unescape resolves backslash escapes and character references in one
// pass.
func unescape(src []byte) string {
	if bytes.IndexByte(src, '\\') < 0 && bytes.IndexByte(src, '&') < 0 {
		return string(src)
	}
	var b strings.Builder
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src) && util.IsPunct(src[i+1]):
			b.WriteByte(src[i+1])
			i++
		case c == '&':
			if r, n := entity(src[i:]); n > 0 {
				b.WriteString(r)
				i += n - 1
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// entity decodes the character reference at the start of src. n is the
// number of bytes consumed, zero when src does not start with one.
func entity(src []byte) (string, int) {
	end := bytes.IndexByte(src, ';')
	if end < 2 || end > 32 {
		return "", 0
	}
	body := string(src[1:end])
	if body[0] == '#' {
		digits, base := body[1:], 10
		if len(digits) > 0 && (digits[0] == 'x' || digits[0] == 'X') {
			digits, base = digits[1:], 16
		}
		if len(digits) == 0 || (base == 10 && len(digits) > 7) || (base == 16 && len(digits) > 6) {
			return "", 0
		}
		var v rune
		for _, d := range digits {
			var x rune
			switch {
			case d >= '0' && d <= '9':
				x = d - '0'
			case base == 16 && d >= 'a' && d <= 'f':
				x = d - 'a' + 10
			case base == 16 && d >= 'A' && d <= 'F':
				x = d - 'A' + 10
			default:
				return "", 0
			}
			v = v*rune(base) + x
		}
		if v == 0 || !utf8.ValidRune(v) {
			v = utf8.RuneError
		}
		return string(v), end + 1
	}
	e, ok := util.LookUpHTML5EntityByName(body)
	if !ok {
		return "", 0
	}
	return string(e.Characters), end + 1
}
