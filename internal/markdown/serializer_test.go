package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"

	mt "github.com/dshills/inkwell/internal/model/modeltest"
	"github.com/dshills/inkwell/internal/schema"
)

func TestSerialize(t *testing.T) {
	ordered := mt.Block(schema.NodeOrderedList, schema.Attrs{"start": 9})

	tests := []struct {
		name string
		doc  *mt.Tagged
		opts []Option
		want string
	}{
		{"strong", mt.Doc(mt.P("a ", mt.Strong("b"))), nil, "a **b**"},
		{"heading", mt.Doc(mt.H(1, "Title"), mt.P("x")), nil, "# Title\n\nx"},
		{"expelled whitespace", mt.Doc(mt.P("a", mt.Strong(" b "), "c")), nil, "a **b** c"},
		{"nested marks", mt.Doc(mt.P(mt.Strong("bold ", mt.Em("both")), " x")), nil, "**bold *both*** x"},
		{"underscores", mt.Doc(mt.P("a ", mt.Em("b"), " ", mt.Strong("c"))), []Option{WithEmphasis("_"), WithStrong("__")}, "a _b_ __c__"},
		{"code span", mt.Doc(mt.P(mt.Code("a`b"))), nil, "``a`b``"},
		{"link", mt.Doc(mt.P(mt.Link("https://x.org/a(b)", "x"))), nil, `[x](https://x.org/a\(b\))`},
		{"autolink", mt.Doc(mt.P(mt.Link("https://x.org", "https://x.org"))), nil, "<https://x.org>"},
		{"image", mt.Doc(mt.P(mt.Img("a b.png", "alt"))), nil, "![alt](<a b.png>)"},
		{"hard break", mt.Doc(mt.P("a", mt.BR(), "b")), nil, "a\\\nb"},
		{"space break", mt.Doc(mt.P("a", mt.BR(), "b")), []Option{WithHardBreak(SpaceBreak)}, "a  \nb"},
		{"break in heading", mt.Doc(mt.H(1, "a", mt.BR(), "b")), nil, "# a<br>b"},
		{"trailing break", mt.Doc(mt.P("a", mt.BR())), nil, "a<br>"},
		{"minor marks", mt.Doc(mt.P(mt.Ins("i"), " ", mt.Highlight("h"), " ", mt.Sup("n"), " ", mt.Sub("2"))), nil, "++i++ ==h== ^n^ ~2~"},
		{"sub beside strike", mt.Doc(mt.P(mt.Strike("s"), mt.Sub("2"))), nil, "~~s~~<sub>2</sub>"},
		{"span", mt.Doc(mt.P(mt.Span("", "x"), " ", mt.Span("note", "y"))), nil, `::x:: <span class="note">y</span>`},
		{"math", mt.Doc(mt.P(mt.MathInline("x^2")), mt.Block(schema.NodeMathBlock, nil)("a")), nil, "$x^2$\n\n$$\na\n$$"},
		{"tight list", mt.Doc(mt.BulletList(mt.ListItem(mt.P("one")), mt.ListItem(mt.P("two")))), nil, "- one\n- two"},
		{"bullet option", mt.Doc(mt.BulletList(mt.ListItem(mt.P("one")))), []Option{WithBullet("*")}, "* one"},
		{"adjacent lists", mt.Doc(mt.BulletList(mt.ListItem(mt.P("a"))), mt.BulletList(mt.ListItem(mt.P("b")))), nil, "- a\n\n* b"},
		{"ordered padding", mt.Doc(ordered(mt.ListItem(mt.P("a")), mt.ListItem(mt.P("b")), mt.ListItem(mt.P("c")))), nil, " 9. a\n10. b\n11. c"},
		{"forced loose", mt.Doc(mt.BulletList(mt.ListItem(mt.P("a")), mt.ListItem(mt.P("b")))), []Option{WithTightLists(false)}, "- a\n\n- b"},
		{"task list", mt.Doc(mt.TaskList(mt.TaskItem(true, mt.P("a")), mt.TaskItem(false, mt.P("b")))), nil, "- [x] a\n- [ ] b"},
		{"blockquote", mt.Doc(mt.Blockquote(mt.P("a"), mt.P("b"))), nil, "> a\n>\n> b"},
		{"code block fence", mt.Doc(mt.CodeBlockWith("md", "```\nx\n```")), nil, "````md\n```\nx\n```\n````"},
		{"definition list", mt.Doc(mt.DefList(mt.DefTerm("T"), mt.DefDesc(mt.P("a")), mt.DefDesc(mt.P("b")))), nil, "T\n: a\n: b"},
		{"containers", mt.Doc(mt.Container("outer", mt.Container("", mt.P("x")))), nil, ":::: outer\n:::\nx\n:::\n::::"},
		{"rule", mt.Doc(mt.P("a"), mt.HR()), nil, "a\n\n---"},
		{"overlapping emphasis", mt.Doc(mt.P(mt.Strong("a"), mt.Em(mt.Strong("b")), mt.Em("c"))), nil, "**a*b***<em>c</em>"},
		{"em around punctuation", mt.Doc(mt.P("x", mt.Em("*y"), "z")), nil, `x<em>\*y</em>z`},
		{"strong around quotes", mt.Doc(mt.P("a", mt.Strong(`"b"`), "c")), nil, `a<strong>"b"</strong>c`},
		{"intraword underscore", mt.Doc(mt.P("a", mt.Em("b"), "c")), []Option{WithEmphasis("_")}, "a<em>b</em>c"},
		{"empty paragraph", mt.Doc(mt.P("a"), mt.P()), nil, "a\n\n&nbsp;"},
		{"blank document", mt.Doc(mt.P()), nil, ""},
		{"edge spaces", mt.Doc(mt.P(" a ")), nil, "&#32;a&#32;"},
		{"custom element", mt.Doc(mt.HTMLBlock("<custom-el>x</custom-el>")), nil, "```{=html}\n<custom-el>x</custom-el>\n```"},
		{"tight code in item", mt.Doc(mt.BulletList(mt.ListItem(mt.P("a"), mt.CodeBlock("x")))), nil, "- a\n  ```\n  x\n  ```"},
		{"loose paragraphs in item", mt.Doc(mt.BulletList(mt.ListItem(mt.P("a"), mt.P("b")))), nil, "- a\n\n  b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(tt.doc.Node, tt.opts...))
		})
	}
}

func TestSerializeEscapes(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"*a* [b]", `\*a\* \[b\]`},
		{"# not a heading", `\# not a heading`},
		{"#hashtag", "#hashtag"},
		{"1. not a list", `1\. not a list`},
		{"- not a list", `\- not a list`},
		{"snake_case _x_", `snake_case \_x\_`},
		{"a + b", "a + b"},
		{"a ++ b", `a \+\+ b`},
		{"x < y <b>", `x < y \<b>`},
		{"AT&T &amp;", `AT&T \&amp;`},
		{"cost $5", `cost \$5`},
		{"ends with #", `ends with \#`},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			doc := mt.Doc(mt.P(tt.text))
			if tt.text == "ends with #" {
				doc = mt.Doc(mt.H(2, tt.text))
				assert.Equal(t, "## "+tt.want, Serialize(doc.Node))
				return
			}
			assert.Equal(t, tt.want, Serialize(doc.Node))
		})
	}
}

func TestSerializeTable(t *testing.T) {
	right := mt.Block(schema.NodeTableHeader, schema.Attrs{"align": "right"})
	rightCell := mt.Block(schema.NodeTableCell, schema.Attrs{"align": "right"})

	doc := mt.Doc(mt.Table(
		mt.Row(mt.Header(mt.P("name")), right(mt.P("n"))),
		mt.Row(mt.Cell(mt.P("alpha")), rightCell(mt.P("1"))),
	))
	assert.Equal(t, "| name | n |\n| --- | --: |\n| alpha | 1 |", Serialize(doc.Node))
	assert.Equal(t, "| name  | n   |\n| ----- | --: |\n| alpha | 1   |", Serialize(doc.Node, WithTablePadding(true)))

	headless := mt.Doc(mt.Table(mt.Row(mt.Cell(mt.P("a|b")))))
	assert.Equal(t, "|  |\n| --- |\n| a\\|b |", Serialize(headless.Node))

	merged := mt.Doc(mt.Table(mt.Row(mt.SpanCell(2, 1, mt.P("wide")))))
	out := Serialize(merged.Node)
	assert.Contains(t, out, `<td colspan="2">`)
	assert.NotContains(t, out, "\n\n")
}

func TestProtectBlankLines(t *testing.T) {
	assert.Equal(t, "a&#10;\nb", protectBlankLines("a\n\nb"))
	assert.Equal(t, "a\n&#32; \nb", protectBlankLines("a\n  \nb"))
	assert.Equal(t, "a\nb", protectBlankLines("a\nb"))
}
