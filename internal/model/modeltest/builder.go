// Package modeltest builds rich-text documents for tests.
//
// Builders take strings, nodes and mark runs as children. Strings may
// contain tags such as "<a>" that record a position without adding
// content:
//
//	d := modeltest.Doc(modeltest.P("hel<a>lo ", modeltest.Strong("wor<b>ld")))
//	d.Tag("a") // 4
//
// Tags on the returned document are absolute positions.
package modeltest

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

// Schema is the schema every builder uses.
var Schema = schema.RichText()

var tagPattern = regexp.MustCompile(`<(\w+)>`)

// Tagged is a node with named positions relative to its content start.
type Tagged struct {
	*model.Node
	Tags map[string]int
}

// Tag returns the position recorded for name. It panics when the tag is
// missing.
func (t *Tagged) Tag(name string) int {
	pos, ok := t.Tags[name]
	if !ok {
		panic(fmt.Sprintf("modeltest: no tag %q", name))
	}
	return pos
}

// Has reports whether a tag was recorded.
func (t *Tagged) Has(name string) bool {
	_, ok := t.Tags[name]
	return ok
}

// Run is a sequence of inline nodes that share marks.
type Run struct {
	Nodes []*model.Node
	Tags  map[string]int
}

func flatten(children []any, marks []*model.Mark) ([]*model.Node, map[string]int) {
	var nodes []*model.Node
	tags := map[string]int{}
	pos := 0
	add := func(n *model.Node) {
		if len(marks) > 0 {
			set := n.Marks()
			for _, m := range marks {
				set = m.AddToSet(set)
			}
			n = n.Mark(set)
		}
		nodes = append(nodes, n)
		pos += n.NodeSize()
	}
	for _, c := range children {
		switch v := c.(type) {
		case string:
			for _, piece := range splitTags(v) {
				if piece.tag != "" {
					tags[piece.tag] = pos
					continue
				}
				add(model.MustText(Schema, piece.text))
			}
		case *Tagged:
			for name, p := range v.Tags {
				tags[name] = pos + 1 + p
			}
			add(v.Node)
		case *model.Node:
			add(v)
		case Run:
			for name, p := range v.Tags {
				tags[name] = pos + p
			}
			for _, n := range v.Nodes {
				add(n)
			}
		default:
			panic(fmt.Sprintf("modeltest: unsupported child %T", c))
		}
	}
	return nodes, tags
}

type textPiece struct {
	text string
	tag  string
}

func splitTags(s string) []textPiece {
	var out []textPiece
	last := 0
	for _, loc := range tagPattern.FindAllStringSubmatchIndex(s, -1) {
		if loc[0] > last {
			out = append(out, textPiece{text: s[last:loc[0]]})
		}
		out = append(out, textPiece{tag: s[loc[2]:loc[3]]})
		last = loc[1]
	}
	if last < len(s) {
		out = append(out, textPiece{text: s[last:]})
	}
	return out
}

// Block returns a builder for node type name with attrs.
func Block(name string, attrs schema.Attrs) func(children ...any) *Tagged {
	t := Schema.NodeType(name)
	if t == nil {
		panic(fmt.Sprintf("modeltest: unknown node type %q", name))
	}
	return func(children ...any) *Tagged {
		nodes, tags := flatten(children, nil)
		n, err := model.NewNode(t, attrs, model.FragmentFrom(nodes...), nil)
		if err != nil {
			panic(fmt.Sprintf("modeltest: %v", err))
		}
		return &Tagged{Node: n, Tags: tags}
	}
}

// Marked returns a builder that applies mark type name with attrs to its
// children.
func Marked(name string, attrs schema.Attrs) func(children ...any) Run {
	m := model.MustMark(Schema.MarkType(name), attrs)
	return func(children ...any) Run {
		nodes, tags := flatten(children, []*model.Mark{m})
		return Run{Nodes: nodes, Tags: tags}
	}
}

// Common builders.
var (
	Doc         = Block(schema.NodeDoc, nil)
	P           = Block(schema.NodeParagraph, nil)
	Blockquote  = Block(schema.NodeBlockquote, nil)
	BulletList  = Block(schema.NodeBulletList, nil)
	OrderedList = Block(schema.NodeOrderedList, nil)
	ListItem    = Block(schema.NodeListItem, nil)
	TaskList    = Block(schema.NodeTaskList, nil)
	CodeBlock   = Block(schema.NodeCodeBlock, nil)
	Table       = Block(schema.NodeTable, nil)
	Row         = Block(schema.NodeTableRow, nil)
	Cell        = Block(schema.NodeTableCell, nil)
	Header      = Block(schema.NodeTableHeader, nil)
	DefList     = Block(schema.NodeDefinitionList, nil)
	DefTerm     = Block(schema.NodeDefinitionTerm, nil)
	DefDesc     = Block(schema.NodeDefinitionDescription, nil)

	Strong    = Marked(schema.MarkStrong, nil)
	Em        = Marked(schema.MarkEm, nil)
	Code      = Marked(schema.MarkCode, nil)
	Strike    = Marked(schema.MarkStrike, nil)
	Ins       = Marked(schema.MarkIns, nil)
	Highlight = Marked(schema.MarkHighlight, nil)
	Sub       = Marked(schema.MarkSub, nil)
	Sup       = Marked(schema.MarkSup, nil)
)

// H builds a heading of level.
func H(level int, children ...any) *Tagged {
	return Block(schema.NodeHeading, schema.Attrs{"level": level})(children...)
}

// CodeBlockWith builds a code block with a syntax tag.
func CodeBlockWith(syntax string, children ...any) *Tagged {
	return Block(schema.NodeCodeBlock, schema.Attrs{"syntax": syntax})(children...)
}

// TaskItem builds a task item.
func TaskItem(checked bool, children ...any) *Tagged {
	return Block(schema.NodeTaskItem, schema.Attrs{"checked": checked})(children...)
}

// Container builds a container of kind.
func Container(kind string, children ...any) *Tagged {
	return Block(schema.NodeContainer, schema.Attrs{"kind": kind})(children...)
}

// SpanCell builds a table cell with spans.
func SpanCell(colspan, rowspan int, children ...any) *Tagged {
	return Block(schema.NodeTableCell, schema.Attrs{"colspan": colspan, "rowspan": rowspan})(children...)
}

// Link applies a link mark.
func Link(href string, children ...any) Run {
	return Marked(schema.MarkLink, schema.Attrs{"href": href})(children...)
}

// Span applies a span mark with class.
func Span(class string, children ...any) Run {
	return Marked(schema.MarkSpan, schema.Attrs{"class": class})(children...)
}

// HR builds a horizontal rule.
func HR() *model.Node {
	return model.MustNode(Schema.NodeType(schema.NodeHorizontalRule), nil)
}

// BR builds a hard break.
func BR() *model.Node {
	return model.MustNode(Schema.NodeType(schema.NodeHardBreak), nil)
}

// Img builds an image.
func Img(src, alt string) *model.Node {
	return model.MustNode(Schema.NodeType(schema.NodeImage), schema.Attrs{"src": src, "alt": alt})
}

// MathInline builds an inline formula.
func MathInline(tex string) *model.Node {
	return model.MustNode(Schema.NodeType(schema.NodeMathInline), schema.Attrs{"tex": tex})
}

// HTMLBlock builds a verbatim HTML block.
func HTMLBlock(html string) *model.Node {
	return model.MustNode(Schema.NodeType(schema.NodeHTMLBlock), schema.Attrs{"html": html})
}

// HTMLInline builds a verbatim inline HTML node.
func HTMLInline(html string) *model.Node {
	return model.MustNode(Schema.NodeType(schema.NodeHTMLInline), schema.Attrs{"html": html})
}

// Len returns the number of code points in s.
func Len(s string) int { return utf8.RuneCountInString(s) }
