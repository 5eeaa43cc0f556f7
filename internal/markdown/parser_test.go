package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/inkwell/internal/htmlconv"
	"github.com/dshills/inkwell/internal/model"
	mt "github.com/dshills/inkwell/internal/model/modeltest"
	"github.com/dshills/inkwell/internal/schema"
)

func requireDoc(t *testing.T, want *mt.Tagged, got *model.Node) {
	t.Helper()
	require.NotNil(t, got)
	assert.True(t, want.Node.Eq(got), "want %s\ngot  %s", want.Node, got)
}

func mustParse(t *testing.T, src string) *model.Node {
	t.Helper()
	doc, err := Parse(src)
	require.NoError(t, err, src)
	return doc
}

func TestParseRuns(t *testing.T) {
	doc := mustParse(t, "Hello **world**!")
	require.Equal(t, 1, doc.ChildCount())
	para := doc.Child(0)
	assert.Equal(t, schema.NodeParagraph, para.Type().Name())
	require.Equal(t, 3, para.ChildCount())

	assert.Equal(t, "Hello ", para.Child(0).Text())
	assert.Empty(t, para.Child(0).Marks())
	assert.Equal(t, "world", para.Child(1).Text())
	require.Len(t, para.Child(1).Marks(), 1)
	assert.Equal(t, schema.MarkStrong, para.Child(1).Marks()[0].Type().Name())
	assert.Equal(t, "!", para.Child(2).Text())
	assert.Empty(t, para.Child(2).Marks())
}

func TestTokenize(t *testing.T) {
	tokens := NewParser().Tokenize("Hello **world**!")
	kinds := make([]TokenKind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	assert.Equal(t, []TokenKind{Open, Text, MarkOpen, Text, MarkClose, Text, Close}, kinds)
	assert.Equal(t, schema.NodeParagraph, tokens[0].Type)
	assert.Equal(t, schema.MarkStrong, tokens[2].Type)
	assert.Equal(t, "mark_open", MarkOpen.String())
}

func TestParseBlocks(t *testing.T) {
	ordered := mt.Block(schema.NodeOrderedList, schema.Attrs{"start": 3})
	loose := mt.Block(schema.NodeBulletList, schema.Attrs{"tight": false})

	tests := []struct {
		name string
		src  string
		want *mt.Tagged
	}{
		{"heading", "## Title", mt.Doc(mt.H(2, "Title"))},
		{"rule", "a\n\n***\n\nb", mt.Doc(mt.P("a"), mt.HR(), mt.P("b"))},
		{"soft break", "one\ntwo", mt.Doc(mt.P("one two"))},
		{"hard break", "one\\\ntwo", mt.Doc(mt.P("one", mt.BR(), "two"))},
		{"blockquote", "> quoted", mt.Doc(mt.Blockquote(mt.P("quoted")))},
		{"fenced code", "```go\nx := 1\n```", mt.Doc(mt.CodeBlockWith("go", "x := 1"))},
		{"indented code", "    x := 1", mt.Doc(mt.CodeBlock("x := 1"))},
		{"math block", "$$\na^2\n$$", mt.Doc(mt.Block(schema.NodeMathBlock, nil)("a^2"))},
		{"bullet list", "- a\n- b", mt.Doc(mt.BulletList(mt.ListItem(mt.P("a")), mt.ListItem(mt.P("b"))))},
		{"loose list", "- a\n\n- b", mt.Doc(loose(mt.ListItem(mt.P("a")), mt.ListItem(mt.P("b"))))},
		{"ordered list", "3. a", mt.Doc(ordered(mt.ListItem(mt.P("a"))))},
		{"task list", "- [x] done\n- [ ] todo", mt.Doc(mt.TaskList(mt.TaskItem(true, mt.P("done")), mt.TaskItem(false, mt.P("todo"))))},
		{"partial task list", "- [x] done\n- plain", mt.Doc(mt.BulletList(mt.ListItem(mt.P("done")), mt.ListItem(mt.P("plain"))))},
		{"definition list", "Term\n: meaning", mt.Doc(mt.DefList(mt.DefTerm("Term"), mt.DefDesc(mt.P("meaning"))))},
		{"container", "::: note\ninside\n:::", mt.Doc(mt.Container("note", mt.P("inside")))},
		{"nested containers", ":::: outer\n::: inner\nx\n:::\n::::", mt.Doc(mt.Container("outer", mt.Container("inner", mt.P("x"))))},
		{"empty", "", mt.Doc(mt.P())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireDoc(t, tt.want, mustParse(t, tt.src))
		})
	}
}

func TestParseInline(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want *mt.Tagged
	}{
		{"emphasis", "*a* **b**", mt.Doc(mt.P(mt.Em("a"), " ", mt.Strong("b")))},
		{"code", "`a*b`", mt.Doc(mt.P(mt.Code("a*b")))},
		{"strike", "~~gone~~", mt.Doc(mt.P(mt.Strike("gone")))},
		{"subscript", "H~2~O", mt.Doc(mt.P("H", mt.Sub("2"), "O"))},
		{"superscript", "x^2^", mt.Doc(mt.P("x", mt.Sup("2")))},
		{"insert", "++new++", mt.Doc(mt.P(mt.Ins("new")))},
		{"highlight", "==hot==", mt.Doc(mt.P(mt.Highlight("hot")))},
		{"link", `[a](https://example.com "T")`, mt.Doc(mt.P(mt.Marked(schema.MarkLink, schema.Attrs{"href": "https://example.com", "title": "T"})("a")))},
		{"autolink", "<https://example.com>", mt.Doc(mt.P(mt.Link("https://example.com", "https://example.com")))},
		{"image", "![a *b*](cat.png)", mt.Doc(mt.P(mt.Img("cat.png", "a b")))},
		{"math", "so $x^2$ works", mt.Doc(mt.P("so ", mt.MathInline("x^2"), " works"))},
		{"price is not math", "$5 and $6", mt.Doc(mt.P("$5 and $6"))},
		{"escapes", `\*a\* &amp; &#65;`, mt.Doc(mt.P("*a* & A"))},
		{"raw mark tags", "<sub>2</sub> and <span class=\"x\">y</span>", mt.Doc(mt.P(mt.Sub("2"), " and ", mt.Span("x", "y")))},
		{"raw break", "a<br>b", mt.Doc(mt.P("a", mt.BR(), "b"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireDoc(t, tt.want, mustParse(t, tt.src))
		})
	}
}

func TestParseHTML(t *testing.T) {
	t.Run("recognized block", func(t *testing.T) {
		doc := mustParse(t, "<blockquote><p>hi</p></blockquote>")
		requireDoc(t, mt.Doc(mt.Blockquote(mt.P("hi"))), doc)
	})
	t.Run("unknown block", func(t *testing.T) {
		doc := mustParse(t, "<section>x</section>")
		requireDoc(t, mt.Doc(mt.HTMLBlock("<section>x</section>")), doc)
	})
	t.Run("unknown inline", func(t *testing.T) {
		doc := mustParse(t, "press <kbd>k</kbd>")
		requireDoc(t, mt.Doc(mt.P("press ", mt.HTMLInline("<kbd>k</kbd>"))), doc)
	})
	t.Run("unknown inline matches html parser", func(t *testing.T) {
		fromHTML, err := htmlconv.Parse("<p>a <kbd>Ctrl</kbd> b</p>")
		require.NoError(t, err)
		assert.True(t, fromHTML.Eq(mustParse(t, "a <kbd>Ctrl</kbd> b")))
	})
	t.Run("unclosed unknown inline", func(t *testing.T) {
		doc := mustParse(t, "a <kbd>b")
		requireDoc(t, mt.Doc(mt.P("a ", mt.HTMLInline("<kbd>"), "b")), doc)
	})
	t.Run("unknown inline around markup", func(t *testing.T) {
		doc := mustParse(t, "<kbd>*b*</kbd>")
		requireDoc(t, mt.Doc(mt.P(mt.HTMLInline("<kbd>"), mt.Em("b"), mt.HTMLInline("</kbd>"))), doc)
	})
	t.Run("raw html fence", func(t *testing.T) {
		doc := mustParse(t, "```{=html}\n<x-a>\n\nb</x-a>\n```")
		requireDoc(t, mt.Doc(mt.HTMLBlock("<x-a>\n\nb</x-a>")), doc)
	})
	t.Run("empty paragraph", func(t *testing.T) {
		requireDoc(t, mt.Doc(mt.P("a"), mt.P()), mustParse(t, "a\n\n&nbsp;"))
	})
}

func TestParseTable(t *testing.T) {
	center := mt.Block(schema.NodeTableHeader, schema.Attrs{"align": "center"})
	centerCell := mt.Block(schema.NodeTableCell, schema.Attrs{"align": "center"})

	doc := mustParse(t, "| a | b |\n| --- | :-: |\n| c | d |")
	requireDoc(t, mt.Doc(mt.Table(
		mt.Row(mt.Header(mt.P("a")), center(mt.P("b"))),
		mt.Row(mt.Cell(mt.P("c")), centerCell(mt.P("d"))),
	)), doc)

	headless := mustParse(t, "|  |\n| --- |\n| x |")
	requireDoc(t, mt.Doc(mt.Table(mt.Row(mt.Cell(mt.P("x"))))), headless)
}
