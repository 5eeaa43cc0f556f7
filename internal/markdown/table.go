package markdown

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dshills/inkwell/internal/htmlconv"
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
)

type pipeTable struct {
	header bool
	align  []string
	rows   [][]*model.Node
}

// pipeRows reports whether t can be written as a pipe table and returns
// its cell paragraphs by row.
func pipeRows(t *model.Node) (pipeTable, bool) {
	var pt pipeTable
	if t.ChildCount() == 0 {
		return pt, false
	}
	width := t.Child(0).ChildCount()
	if width == 0 {
		return pt, false
	}
	pt.align = make([]string, width)
	for r, row := range t.Content().Children() {
		if row.ChildCount() != width {
			return pt, false
		}
		cells := make([]*model.Node, width)
		for c, cell := range row.Content().Children() {
			attrs := cell.Attrs()
			if attrs.Int("colspan") > 1 || attrs.Int("rowspan") > 1 || len(htmlconv.ColumnWidths(attrs)) > 0 {
				return pt, false
			}
			header := cell.Type().Name() == schema.NodeTableHeader
			switch {
			case r == 0 && c == 0:
				pt.header = header
			case r == 0 && header != pt.header:
				return pt, false
			case r > 0 && header:
				return pt, false
			}
			if r == 0 {
				pt.align[c] = attrs.String("align")
			} else if attrs.String("align") != pt.align[c] {
				return pt, false
			}
			if cell.ChildCount() != 1 || cell.Child(0).Type().Name() != schema.NodeParagraph {
				return pt, false
			}
			para := cell.Child(0)
			if strings.Contains(para.TextContent(), "\n") {
				return pt, false
			}
			cells[c] = para
		}
		pt.rows = append(pt.rows, cells)
	}
	if pt.header && len(pt.rows) > 1 {
		empty := true
		for _, para := range pt.rows[0] {
			if para.ChildCount() > 0 {
				empty = false
			}
		}
		if empty {
			return pt, false
		}
	}
	return pt, true
}

func (w *writer) table(n *model.Node) {
	pt, ok := pipeRows(n)
	if !ok {
		w.text(protectBlankLines(w.s.html.SerializeNode(n)), false)
		w.closeBlock(n)
		return
	}
	var rows [][]string
	if !pt.header {
		rows = append(rows, make([]string, len(pt.align)))
	}
	for _, cells := range pt.rows {
		row := make([]string, len(cells))
		for i, para := range cells {
			row[i] = w.cell(para)
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(pt.align))
	for i := range widths {
		widths[i] = 3
		if !w.s.padTables {
			continue
		}
		for _, row := range rows {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	lines := make([]string, 0, len(rows)+1)
	for i, row := range rows {
		lines = append(lines, w.pipeLine(row, widths))
		if i == 0 {
			lines = append(lines, delimiterRow(pt.align, widths))
		}
	}
	w.text(strings.Join(lines, "\n"), false)
	w.closeBlock(n)
}

func (w *writer) cell(para *model.Node) string {
	cw := w.s.newWriter()
	cw.inTable = true
	cw.renderInline(para, false)
	return strings.TrimSpace(string(cw.out))
}

func (w *writer) pipeLine(cells []string, widths []int) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, cell := range cells {
		b.WriteByte(' ')
		b.WriteString(cell)
		if w.s.padTables {
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
		}
		b.WriteString(" |")
	}
	return b.String()
}

func delimiterRow(align []string, widths []int) string {
	var b strings.Builder
	b.WriteByte('|')
	for i, a := range align {
		b.WriteByte(' ')
		dashes := widths[i]
		switch a {
		case "left":
			b.WriteString(":" + strings.Repeat("-", dashes-1))
		case "right":
			b.WriteString(strings.Repeat("-", dashes-1) + ":")
		case "center":
			b.WriteString(":" + strings.Repeat("-", max(dashes-2, 1)) + ":")
		default:
			b.WriteString(strings.Repeat("-", dashes))
		}
		b.WriteString(" |")
	}
	return b.String()
}

// protectBlankLines keeps an HTML block from ending early by writing
// blank and whitespace-only lines with an entity in place of their
// first character.
func protectBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			if line == "" {
				b.WriteString("&#10;")
				continue
			}
			b.WriteByte('\n')
		}
		if strings.Trim(line, " \t") == "" && line != "" {
			b.WriteString("&#" + strconv.Itoa(int(line[0])) + ";")
			line = line[1:]
		}
		b.WriteString(line)
	}
	return b.String()
}
