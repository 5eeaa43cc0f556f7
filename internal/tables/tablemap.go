package tables

import (
	"fmt"
	"sync"

	"github.com/dshills/inkwell/internal/model"
)

// Rect is a rectangle of grid slots, right and bottom exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the number of columns in r.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the number of rows in r.
func (r Rect) Height() int { return r.Bottom - r.Top }

// ProblemKind classifies a structural problem in a table.
type ProblemKind string

// Problem kinds reported by a TableMap.
const (
	ProblemCollision       ProblemKind = "collision"
	ProblemOverlongRowspan ProblemKind = "overlong_rowspan"
	ProblemMissing         ProblemKind = "missing"
)

// Problem describes a slot conflict or gap found while mapping a table.
type Problem struct {
	Kind ProblemKind
	// Pos is the cell involved, relative to the table content.
	Pos int
	// Row is the row with missing slots.
	Row int
	// N counts the affected slots.
	N int
}

func (p Problem) String() string {
	switch p.Kind {
	case ProblemMissing:
		return fmt.Sprintf("row %d is missing %d cell(s)", p.Row, p.N)
	case ProblemOverlongRowspan:
		return fmt.Sprintf("cell at %d spans %d row(s) past the table", p.Pos, p.N)
	default:
		return fmt.Sprintf("cell at %d overlaps %d slot(s) in row %d", p.Pos, p.N, p.Row)
	}
}

// TableMap is the grid layout of a table node.
type TableMap struct {
	Width, Height int
	// Map holds, for every slot in row-major order, the position of the
	// cell covering it. Empty slots hold -1.
	Map      []int
	Problems []Problem
}

const mapCacheSize = 8

var (
	mapMu    sync.Mutex
	mapCache [mapCacheSize]struct {
		table *model.Node
		m     *TableMap
	}
	mapNext int
)

// Get returns the map of table, computing it on first use.
func Get(table *model.Node) *TableMap {
	mapMu.Lock()
	for _, e := range mapCache {
		if e.table == table {
			mapMu.Unlock()
			return e.m
		}
	}
	mapMu.Unlock()
	m := Compute(table)
	mapMu.Lock()
	mapCache[mapNext].table, mapCache[mapNext].m = table, m
	mapNext = (mapNext + 1) % mapCacheSize
	mapMu.Unlock()
	return m
}

// Compute builds the map of table without consulting the cache.
func Compute(table *model.Node) *TableMap {
	width, height := findWidth(table), table.ChildCount()
	m := &TableMap{Width: width, Height: height, Map: make([]int, width*height)}
	for i := range m.Map {
		m.Map[i] = -1
	}
	mapPos := 0
	pos := 0
	for row := 0; row < height; row++ {
		rowNode := table.Child(row)
		pos++
		for i := 0; ; i++ {
			for mapPos < len(m.Map) && m.Map[mapPos] >= 0 {
				mapPos++
			}
			if i == rowNode.ChildCount() {
				break
			}
			cell := rowNode.Child(i)
			colspan, rowspan := spans(cell)
			for h := 0; h < rowspan; h++ {
				if h+row >= height {
					m.Problems = append(m.Problems, Problem{Kind: ProblemOverlongRowspan, Pos: pos, N: rowspan - h})
					break
				}
				start := mapPos + h*width
				for w := 0; w < colspan; w++ {
					if start+w >= len(m.Map) {
						break
					}
					if m.Map[start+w] < 0 {
						m.Map[start+w] = pos
					} else {
						m.Problems = append(m.Problems, Problem{Kind: ProblemCollision, Row: row, Pos: pos, N: colspan - w})
					}
				}
			}
			mapPos += colspan
			pos += cell.NodeSize()
		}
		expected, missing := (row+1)*width, 0
		for mapPos < expected {
			if m.Map[mapPos] < 0 {
				missing++
			}
			mapPos++
		}
		if missing > 0 {
			m.Problems = append(m.Problems, Problem{Kind: ProblemMissing, Row: row, N: missing})
		}
		pos++
	}
	return m
}

func spans(cell *model.Node) (colspan, rowspan int) {
	return max(cell.Attrs().Int("colspan"), 1), max(cell.Attrs().Int("rowspan"), 1)
}

func findWidth(table *model.Node) int {
	width := -1
	hasRowspan := false
	for row := 0; row < table.ChildCount(); row++ {
		rowNode := table.Child(row)
		rowWidth := 0
		if hasRowspan {
			for j := 0; j < row; j++ {
				table.Child(j).ForEach(func(cell *model.Node, _, _ int) {
					colspan, rowspan := spans(cell)
					if j+rowspan > row {
						rowWidth += colspan
					}
				})
			}
		}
		rowNode.ForEach(func(cell *model.Node, _, _ int) {
			colspan, rowspan := spans(cell)
			rowWidth += colspan
			if rowspan > 1 {
				hasRowspan = true
			}
		})
		width = max(width, rowWidth)
	}
	return max(width, 0)
}

// FindCell returns the rectangle covered by the cell at pos.
func (m *TableMap) FindCell(pos int) (Rect, error) {
	for i, p := range m.Map {
		if p != pos {
			continue
		}
		left, top := i%m.Width, i/m.Width
		right, bottom := left+1, top+1
		for j := 1; right < m.Width && m.Map[i+j] == pos; j++ {
			right++
		}
		for j := 1; bottom < m.Height && m.Map[i+m.Width*j] == pos; j++ {
			bottom++
		}
		return Rect{Left: left, Top: top, Right: right, Bottom: bottom}, nil
	}
	return Rect{}, fmt.Errorf("%w: no cell at %d", ErrNotInTable, pos)
}

// ColCount returns the leftmost column of the cell at pos, or -1.
func (m *TableMap) ColCount(pos int) int {
	for i, p := range m.Map {
		if p == pos {
			return i % m.Width
		}
	}
	return -1
}

// NextCell returns the cell next to the one at pos along an axis, or -1 at
// the table edge. Horizontal moves when horizontal is set.
func (m *TableMap) NextCell(pos int, horizontal bool, dir int) int {
	r, err := m.FindCell(pos)
	if err != nil {
		return -1
	}
	if horizontal {
		if (dir < 0 && r.Left == 0) || (dir > 0 && r.Right == m.Width) {
			return -1
		}
		col := r.Right
		if dir < 0 {
			col = r.Left - 1
		}
		return m.Map[r.Top*m.Width+col]
	}
	if (dir < 0 && r.Top == 0) || (dir > 0 && r.Bottom == m.Height) {
		return -1
	}
	row := r.Bottom
	if dir < 0 {
		row = r.Top - 1
	}
	return m.Map[r.Left+m.Width*row]
}

// RectBetween returns the smallest rectangle covering the cells at a and b.
func (m *TableMap) RectBetween(a, b int) Rect {
	ra, errA := m.FindCell(a)
	rb, errB := m.FindCell(b)
	switch {
	case errA != nil:
		return rb
	case errB != nil:
		return ra
	}
	return Rect{
		Left:   min(ra.Left, rb.Left),
		Top:    min(ra.Top, rb.Top),
		Right:  max(ra.Right, rb.Right),
		Bottom: max(ra.Bottom, rb.Bottom),
	}
}

// CellsInRect returns the positions of the cells whose top-left slot lies
// in r, in row-major order.
func (m *TableMap) CellsInRect(r Rect) []int {
	var result []int
	seen := make(map[int]bool)
	for row := r.Top; row < r.Bottom; row++ {
		for col := r.Left; col < r.Right; col++ {
			index := row*m.Width + col
			pos := m.Map[index]
			if pos < 0 || seen[pos] {
				continue
			}
			seen[pos] = true
			if (col == r.Left && col > 0 && m.Map[index-1] == pos) ||
				(row == r.Top && row > 0 && m.Map[index-m.Width] == pos) {
				continue
			}
			result = append(result, pos)
		}
	}
	return result
}

// PositionAt returns the position at which a cell starting at row and col
// would be inserted into table, skipping slots covered by cells from
// earlier rows.
func (m *TableMap) PositionAt(row, col int, table *model.Node) int {
	rowStart := 0
	for i := 0; ; i++ {
		rowEnd := rowStart + table.Child(i).NodeSize()
		if i == row {
			index := col + row*m.Width
			rowEndIndex := (row + 1) * m.Width
			for index < rowEndIndex && m.Map[index] < rowStart {
				index++
			}
			if index == rowEndIndex {
				return rowEnd - 1
			}
			return m.Map[index]
		}
		rowStart = rowEnd
	}
}

// OverlapsRect reports whether a cell crosses the boundary of r.
func (m *TableMap) OverlapsRect(r Rect) bool {
	indexTop := r.Top*m.Width + r.Left
	indexLeft := indexTop
	indexBottom := (r.Bottom-1)*m.Width + r.Left
	indexRight := indexTop + (r.Right - r.Left - 1)
	for i := r.Top; i < r.Bottom; i++ {
		if (r.Left > 0 && sameCell(m.Map[indexLeft], m.Map[indexLeft-1])) ||
			(r.Right < m.Width && sameCell(m.Map[indexRight], m.Map[indexRight+1])) {
			return true
		}
		indexLeft += m.Width
		indexRight += m.Width
	}
	for i := r.Left; i < r.Right; i++ {
		if (r.Top > 0 && sameCell(m.Map[indexTop], m.Map[indexTop-m.Width])) ||
			(r.Bottom < m.Height && sameCell(m.Map[indexBottom], m.Map[indexBottom+m.Width])) {
			return true
		}
		indexTop++
		indexBottom++
	}
	return false
}

func sameCell(a, b int) bool { return a >= 0 && a == b }
