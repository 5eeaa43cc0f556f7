package model

import (
	"github.com/dshills/inkwell/internal/schema"
)

var rt = schema.RichText()

func node(name string, attrs schema.Attrs, children ...*Node) *Node {
	return MustNode(rt.NodeType(name), attrs, children...)
}

func doc(children ...*Node) *Node { return node(schema.NodeDoc, nil, children...) }
func p(children ...*Node) *Node   { return node(schema.NodeParagraph, nil, children...) }
func bq(children ...*Node) *Node  { return node(schema.NodeBlockquote, nil, children...) }
func ul(children ...*Node) *Node  { return node(schema.NodeBulletList, nil, children...) }
func li(children ...*Node) *Node  { return node(schema.NodeListItem, nil, children...) }
func h(level int, children ...*Node) *Node {
	return node(schema.NodeHeading, schema.Attrs{"level": level}, children...)
}

func txt(s string, marks ...string) *Node {
	ms := make([]*Mark, len(marks))
	for i, name := range marks {
		ms[i] = MustMark(rt.MarkType(name), nil)
	}
	return MustText(rt, s, ms...)
}

func hr() *Node { return node(schema.NodeHorizontalRule, nil) }
