package markdown

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
)

// Node kinds added by the dialect.
var (
	KindDelimited  = ast.NewNodeKind("Delimited")
	KindMathInline = ast.NewNodeKind("MathInline")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
	KindContainer  = ast.NewNodeKind("Container")
)

// Delimited is inline content wrapped in a dialect delimiter. Mark is the
// name of the mark type it applies.
type Delimited struct {
	ast.BaseInline
	Mark string
}

// Kind implements ast.Node.
func (n *Delimited) Kind() ast.NodeKind { return KindDelimited }

// Dump implements ast.Node.
func (n *Delimited) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Mark": n.Mark}, nil)
}

// MathInline is a $tex$ formula.
type MathInline struct {
	ast.BaseInline
	Tex string
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Tex": n.Tex}, nil)
}

// MathBlock is a $$ fenced formula. Its lines hold the source.
type MathBlock struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Container is a ::: fenced block of a named kind.
type Container struct {
	ast.BaseBlock
	ContainerKind string
	fence         int
}

// Kind implements ast.Node.
func (n *Container) Kind() ast.NodeKind { return KindContainer }

// Dump implements ast.Node.
func (n *Container) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Kind":  n.ContainerKind,
		"Fence": strconv.Itoa(n.fence),
	}, nil)
}
