package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dshills/inkwell/internal/schema"
)

// Dialect adds the inline marks, math and containers to a goldmark
// parser.
var Dialect goldmark.Extender = &dialect{}

type dialect struct{}

func (d *dialect) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(
			util.Prioritized(&containerParser{}, 150),
			util.Prioritized(&mathBlockParser{}, 160),
		),
		parser.WithInlineParsers(
			util.Prioritized(newDelimParser('~', 1, 2, schema.MarkSub, ""), 500),
			util.Prioritized(newDelimParser('^', 1, 1, schema.MarkSup, ""), 500),
			util.Prioritized(newDelimParser('+', 2, 2, "", schema.MarkIns), 500),
			util.Prioritized(newDelimParser('=', 2, 2, "", schema.MarkHighlight), 500),
			util.Prioritized(newDelimParser(':', 2, 2, "", schema.MarkSpan), 500),
			util.Prioritized(&mathInlineParser{}, 550),
		),
	)
}

// delimProcessor turns a matched delimiter pair into a mark node. A
// single-character pair applies single, a double pair applies double;
// "~" uses both.
type delimProcessor struct {
	char           byte
	single, double string
}

func (p *delimProcessor) IsDelimiter(b byte) bool { return b == p.char }

func (p *delimProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *delimProcessor) OnMatch(consumes int) ast.Node {
	if consumes >= 2 {
		if p.char == '~' {
			return extast.NewStrikethrough()
		}
		return &Delimited{Mark: p.double}
	}
	return &Delimited{Mark: p.single}
}

type delimParser struct {
	proc     *delimProcessor
	min, max int
}

func newDelimParser(char byte, minLen, maxLen int, single, double string) parser.InlineParser {
	return &delimParser{
		proc: &delimProcessor{char: char, single: single, double: double},
		min:  minLen,
		max:  maxLen,
	}
}

func (s *delimParser) Trigger() []byte { return []byte{s.proc.char} }

func (s *delimParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, s.min, s.proc)
	if node == nil || node.OriginalLength > s.max || before == rune(s.proc.char) {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

// mathInlineParser reads $tex$. The opening $ must be followed by a
// non-space and the closing $ preceded by one and not followed by a digit.
type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte { return []byte{'$'} }

func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 3 || line[1] == '$' || util.IsSpace(line[1]) {
		return nil
	}
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '$':
			if util.IsSpace(line[i-1]) || (i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9') {
				continue
			}
			node := &MathInline{Tex: string(line[1:i])}
			block.Advance(i + 1)
			return node
		case '\n':
			return nil
		}
	}
	return nil
}

func lineNewline(line []byte) int {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		return 1
	}
	return 0
}

// fenceRun counts the run of c at the start of line after indentation.
// It reports the run length and the rest of the line.
func fenceRun(line []byte, offset int, c byte) (int, []byte) {
	w, pos := util.IndentWidth(line, offset)
	if w >= 4 {
		return 0, nil
	}
	i := pos
	for i < len(line) && line[i] == c {
		i++
	}
	return i - pos, line[i:]
}

// mathBlockParser reads blocks fenced by $$ lines.
type mathBlockParser struct{}

func (b *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (b *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	n, rest := fenceRun(line, reader.LineOffset(), '$')
	if n != 2 || !util.IsBlank(rest) {
		return nil, parser.NoChildren
	}
	return &MathBlock{}, parser.NoChildren
}

func (b *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	if n, rest := fenceRun(line, reader.LineOffset(), '$'); n == 2 && util.IsBlank(rest) {
		reader.Advance(segment.Stop - segment.Start - lineNewline(line))
		return parser.Close
	}
	node.Lines().Append(segment)
	reader.AdvanceAndSetPadding(segment.Stop-segment.Start-lineNewline(line), segment.Padding)
	return parser.Continue | parser.NoChildren
}

func (b *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *mathBlockParser) CanInterruptParagraph() bool { return true }

func (b *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// containerParser reads ::: kind blocks. A container closes on a bare
// colon fence at least as long as its opening fence, so nesting uses
// longer fences outside.
type containerParser struct{}

func (b *containerParser) Trigger() []byte { return []byte{':'} }

func (b *containerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	n, rest := fenceRun(line, reader.LineOffset(), ':')
	if n < 3 {
		return nil, parser.NoChildren
	}
	kind := util.TrimRightSpace(util.TrimLeftSpace(rest))
	if bytes.ContainsAny(kind, " \t:") {
		return nil, parser.NoChildren
	}
	return &Container{ContainerKind: string(kind), fence: n}, parser.NoChildren
}

func (b *containerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	c := node.(*Container)
	if n, rest := fenceRun(line, reader.LineOffset(), ':'); n >= c.fence && util.IsBlank(rest) {
		reader.Advance(segment.Stop - segment.Start - lineNewline(line))
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (b *containerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *containerParser) CanInterruptParagraph() bool { return true }

func (b *containerParser) CanAcceptIndentedLine() bool { return false }
