package tables

import (
	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// TableRect is a selected rectangle together with the table it lies in.
type TableRect struct {
	Rect
	Map        *TableMap
	Table      *model.Node
	TableStart int
}

// SelectedRect returns the rectangle covered by the selection: the cell
// selection's rectangle, or the cell around the cursor.
func SelectedRect(st *state.State) (TableRect, bool) {
	cell := selectionCell(st)
	if cell == nil || cell.Depth() < 2 {
		return TableRect{}, false
	}
	table := cell.Node(-1)
	start := cell.Start(-1)
	m := Get(table)
	var r Rect
	if cs, ok := st.Selection().(*CellSelection); ok {
		r = m.RectBetween(cs.anchor.Pos()-start, cs.head.Pos()-start)
	} else {
		var err error
		if r, err = m.FindCell(cell.Pos() - start); err != nil {
			return TableRect{}, false
		}
	}
	return TableRect{Rect: r, Map: m, Table: table, TableStart: start}, true
}

// refresh recomputes rect against the table as it is in tr.
func refresh(tr *state.Transaction, rect TableRect) TableRect {
	rect.Table = tr.Doc().NodeAt(rect.TableStart - 1)
	rect.Map = Get(rect.Table)
	return rect
}

func inTable(fn func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool) commands.Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if !IsInTable(st) {
			return false
		}
		rect, ok := SelectedRect(st)
		if !ok {
			return false
		}
		return fn(st, rect, dispatch)
	}
}

// CreateTable builds a table of rows by cols empty cells. withHeader makes
// the first row header cells.
func CreateTable(sc *schema.Schema, rows, cols int, withHeader bool) (*model.Node, error) {
	types := TypesOf(sc)
	cell, err := model.CreateAndFill(types.Cell, nil, model.EmptyFragment, nil)
	if err != nil {
		return nil, err
	}
	header, err := model.CreateAndFill(types.HeaderCell, nil, model.EmptyFragment, nil)
	if err != nil {
		return nil, err
	}
	cells := make([]*model.Node, cols)
	headers := make([]*model.Node, cols)
	for i := range cells {
		cells[i], headers[i] = cell, header
	}
	rowNodes := make([]*model.Node, rows)
	for i := range rowNodes {
		children := cells
		if withHeader && i == 0 {
			children = headers
		}
		if rowNodes[i], err = model.NewNode(types.Row, nil, model.FragmentFrom(children...), nil); err != nil {
			return nil, err
		}
	}
	return model.NewNode(types.Table, nil, model.FragmentFrom(rowNodes...), nil)
}

// InsertTable replaces the selection with a new table and puts the cursor
// in its first cell.
func InsertTable(rows, cols int, withHeader bool) commands.Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if rows < 1 || cols < 1 {
			return false
		}
		table, err := CreateTable(st.Schema(), rows, cols, withHeader)
		if err != nil {
			return false
		}
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			if err := tr.ReplaceSelectionWith(table, false); err != nil {
				return err
			}
			pos := -1
			tr.Doc().Descendants(func(n *model.Node, p int, _ *model.Node, _ int) bool {
				if pos >= 0 {
					return false
				}
				if n == table {
					pos = p
					return false
				}
				return !n.IsTextblock()
			})
			if pos >= 0 {
				tr.SetSelection(state.Near(tr.Doc().MustResolve(pos+4), 1))
			}
			return nil
		})
	}
}

// DeleteTable removes the table around the selection.
func DeleteTable() commands.Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		head := headOf(st.Selection())
		for d := head.Depth(); d > 0; d-- {
			if head.Node(d).Type().TableRole() != schema.TableRoleTable {
				continue
			}
			from, to := head.Before(d), head.After(d)
			parent, index := head.Node(d-1), head.Index(d-1)
			return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
				if parent.CanReplace(index, index+1, model.EmptyFragment, 0, 0) {
					return tr.Delete(from, to)
				}
				t := parent.ContentMatchAt(index).DefaultType()
				if t == nil {
					return commands.ErrNotApplicable
				}
				n, err := model.CreateAndFill(t, nil, model.EmptyFragment, nil)
				if err != nil {
					return err
				}
				if err := tr.ReplaceWith(from, to, n); err != nil {
					return err
				}
				tr.SetSelection(state.Near(tr.Doc().MustResolve(from+1), 1))
				return nil
			})
		}
		return false
	}
}

func nodeTypeAt(table *model.Node, pos int) *schema.NodeType {
	if pos < 0 {
		return nil
	}
	if n := table.NodeAt(pos); n != nil {
		return n.Type()
	}
	return nil
}

func columnIsHeader(m *TableMap, table *model.Node, col int, types Types) bool {
	for row := 0; row < m.Height; row++ {
		if nodeTypeAt(table, m.Map[col+row*m.Width]) != types.HeaderCell {
			return false
		}
	}
	return true
}

func rowIsHeader(m *TableMap, table *model.Node, row int, types Types) bool {
	for col := 0; col < m.Width; col++ {
		if nodeTypeAt(table, m.Map[col+row*m.Width]) != types.HeaderCell {
			return false
		}
	}
	return true
}

// addColumn inserts a column at col. New cells copy the type of the
// neighbouring column unless that is a header column at the table edge.
func addColumn(tr *state.Transaction, rect TableRect, col int) error {
	m, table, start := rect.Map, rect.Table, rect.TableStart
	types := TypesOf(table.Type().Schema())
	refColumn, useRef := 0, true
	if col > 0 {
		refColumn = -1
	}
	if columnIsHeader(m, table, col+refColumn, types) {
		if col == 0 || col == m.Width {
			useRef = false
		} else {
			refColumn = 0
		}
	}
	mapStart := len(tr.Steps())
	for row := 0; row < m.Height; row++ {
		index := row*m.Width + col
		mapping := tr.Mapping().Slice(mapStart, -1)
		if col > 0 && col < m.Width && sameCell(m.Map[index-1], m.Map[index]) {
			pos := m.Map[index]
			cell := table.NodeAt(pos)
			if err := tr.SetNodeMarkup(mapping.Map(start+pos, 1), nil, addColSpan(cell.Attrs(), col-m.ColCount(pos), 1), nil); err != nil {
				return err
			}
			_, rowspan := spans(cell)
			row += rowspan - 1
			continue
		}
		t := types.Cell
		if useRef {
			if ref := nodeTypeAt(table, m.Map[index+refColumn]); ref != nil {
				t = ref
			}
		}
		n, err := model.CreateAndFill(t, nil, model.EmptyFragment, nil)
		if err != nil {
			return err
		}
		if err := tr.Insert(mapping.Map(start+m.PositionAt(row, col, table), 1), n); err != nil {
			return err
		}
	}
	return nil
}

// AddColumnBefore adds a column before the selection.
func AddColumnBefore() commands.Command {
	return inTable(func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool {
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			return addColumn(tr, rect, rect.Left)
		})
	})
}

// AddColumnAfter adds a column after the selection.
func AddColumnAfter() commands.Command {
	return inTable(func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool {
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			return addColumn(tr, rect, rect.Right)
		})
	})
}

// removeColumn removes column col, narrowing cells that span across it.
func removeColumn(tr *state.Transaction, rect TableRect, col int) error {
	m, table, start := rect.Map, rect.Table, rect.TableStart
	mapStart := len(tr.Steps())
	for row := 0; row < m.Height; {
		index := row*m.Width + col
		pos := m.Map[index]
		if pos < 0 {
			row++
			continue
		}
		cell := table.NodeAt(pos)
		mapping := tr.Mapping().Slice(mapStart, -1)
		if (col > 0 && m.Map[index-1] == pos) || (col < m.Width-1 && m.Map[index+1] == pos) {
			if err := tr.SetNodeMarkup(mapping.Map(start+pos, 1), nil, removeColSpan(cell.Attrs(), col-m.ColCount(pos), 1), nil); err != nil {
				return err
			}
		} else {
			from := mapping.Map(start+pos, 1)
			if err := tr.Delete(from, from+cell.NodeSize()); err != nil {
				return err
			}
		}
		_, rowspan := spans(cell)
		row += rowspan
	}
	return nil
}

// DeleteColumn removes the selected columns. It does not apply when every
// column is selected.
func DeleteColumn() commands.Command {
	return inTable(func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool {
		if rect.Left == 0 && rect.Right == rect.Map.Width {
			return false
		}
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			r := rect
			for i := r.Right - 1; ; i-- {
				if err := removeColumn(tr, r, i); err != nil {
					return err
				}
				if i == r.Left {
					return nil
				}
				r = refresh(tr, r)
			}
		})
	})
}

// addRow inserts a row at index row, lengthening cells that span across
// it.
func addRow(tr *state.Transaction, rect TableRect, row int) error {
	m, table, start := rect.Map, rect.Table, rect.TableStart
	types := TypesOf(table.Type().Schema())
	rowPos := start
	for i := 0; i < row; i++ {
		rowPos += table.Child(i).NodeSize()
	}
	refRow, useRef := 0, true
	if row > 0 {
		refRow = -1
	}
	if rowIsHeader(m, table, row+refRow, types) {
		if row == 0 || row == m.Height {
			useRef = false
		} else {
			refRow = 0
		}
	}
	var cells []*model.Node
	for col := 0; col < m.Width; col++ {
		index := row*m.Width + col
		if row > 0 && row < m.Height && sameCell(m.Map[index], m.Map[index-m.Width]) {
			pos := m.Map[index]
			cell := table.NodeAt(pos)
			colspan, rowspan := spans(cell)
			if err := tr.SetNodeMarkup(start+pos, nil, cell.Attrs().With("rowspan", rowspan+1), nil); err != nil {
				return err
			}
			col += colspan - 1
			continue
		}
		t := types.Cell
		if useRef {
			if ref := nodeTypeAt(table, m.Map[index+refRow*m.Width]); ref != nil {
				t = ref
			}
		}
		n, err := model.CreateAndFill(t, nil, model.EmptyFragment, nil)
		if err != nil {
			return err
		}
		cells = append(cells, n)
	}
	rowNode, err := model.NewNode(types.Row, nil, model.FragmentFrom(cells...), nil)
	if err != nil {
		return err
	}
	return tr.Insert(rowPos, rowNode)
}

// AddRowBefore adds a row above the selection.
func AddRowBefore() commands.Command {
	return inTable(func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool {
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			return addRow(tr, rect, rect.Top)
		})
	})
}

// AddRowAfter adds a row below the selection.
func AddRowAfter() commands.Command {
	return inTable(func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool {
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			return addRow(tr, rect, rect.Bottom)
		})
	})
}

// removeRow removes row index row. Cells starting above it shrink and
// cells continuing below it move down.
func removeRow(tr *state.Transaction, rect TableRect, row int) error {
	m, table, start := rect.Map, rect.Table, rect.TableStart
	rowPos := 0
	for i := 0; i < row; i++ {
		rowPos += table.Child(i).NodeSize()
	}
	nextRow := rowPos + table.Child(row).NodeSize()
	mapFrom := len(tr.Steps())
	if err := tr.Delete(rowPos+start, nextRow+start); err != nil {
		return err
	}
	seen := make(map[int]bool)
	for col := 0; col < m.Width; col++ {
		index := row*m.Width + col
		pos := m.Map[index]
		if pos < 0 || seen[pos] {
			continue
		}
		seen[pos] = true
		cell := table.NodeAt(pos)
		colspan, rowspan := spans(cell)
		mapping := tr.Mapping().Slice(mapFrom, -1)
		switch {
		case row > 0 && pos == m.Map[index-m.Width]:
			if err := tr.SetNodeMarkup(mapping.Map(pos+start, 1), nil, cell.Attrs().With("rowspan", rowspan-1), nil); err != nil {
				return err
			}
			col += colspan - 1
		case row+1 < m.Height && pos == m.Map[index+m.Width]:
			moved, err := model.Create(cell.Type(), cell.Attrs().With("rowspan", rowspan-1), cell.Content(), cell.Marks())
			if err != nil {
				return err
			}
			if err := tr.Insert(mapping.Map(start+m.PositionAt(row+1, col, table), 1), moved); err != nil {
				return err
			}
			col += colspan - 1
		}
	}
	return nil
}

// DeleteRow removes the selected rows. It does not apply when every row is
// selected.
func DeleteRow() commands.Command {
	return inTable(func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool {
		if rect.Top == 0 && rect.Bottom == rect.Map.Height {
			return false
		}
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			r := rect
			for i := r.Bottom - 1; ; i-- {
				if err := removeRow(tr, r, i); err != nil {
					return err
				}
				if i == r.Top {
					return nil
				}
				r = refresh(tr, r)
			}
		})
	})
}

// MergeCells merges the cells of a cell selection into its top-left cell.
// It does not apply to a single cell or when a cell crosses the selection
// boundary.
func MergeCells() commands.Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		sel, ok := st.Selection().(*CellSelection)
		if !ok || sel.anchor.Pos() == sel.head.Pos() {
			return false
		}
		rect, ok := SelectedRect(st)
		if !ok || rect.Map.OverlapsRect(rect.Rect) {
			return false
		}
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			seen := make(map[int]bool)
			content := model.EmptyFragment
			mergedPos := -1
			var merged *model.Node
			for row := rect.Top; row < rect.Bottom; row++ {
				for col := rect.Left; col < rect.Right; col++ {
					cellPos := rect.Map.Map[row*rect.Map.Width+col]
					if cellPos < 0 || seen[cellPos] {
						continue
					}
					seen[cellPos] = true
					cell := rect.Table.NodeAt(cellPos)
					if merged == nil {
						mergedPos, merged = cellPos, cell
						continue
					}
					if !isEmptyCell(cell) {
						content = content.Append(cell.Content())
					}
					from := tr.Mapping().Map(cellPos+rect.TableStart, 1)
					if err := tr.Delete(from, from+cell.NodeSize()); err != nil {
						return err
					}
				}
			}
			if merged == nil {
				return commands.ErrNotApplicable
			}
			colspan, _ := spans(merged)
			attrs := addColSpan(merged.Attrs(), colspan, rect.Width()-colspan).With("rowspan", rect.Height())
			if err := tr.SetNodeMarkup(mergedPos+rect.TableStart, nil, attrs, nil); err != nil {
				return err
			}
			if content.Size() > 0 {
				end := mergedPos + 1 + merged.Content().Size()
				from := end
				if isEmptyCell(merged) {
					from = mergedPos + 1
				}
				if err := tr.Replace(from+rect.TableStart, end+rect.TableStart, model.NewSlice(content, 0, 0)); err != nil {
					return err
				}
			}
			if cs, err := NewCellSelection(tr.Doc().MustResolve(mergedPos+rect.TableStart), nil); err == nil {
				tr.SetSelection(cs)
			}
			return nil
		})
	}
}

// SplitCell splits a spanning cell back into single cells. The original
// content stays in the top-left cell.
func SplitCell() commands.Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		sel := st.Selection()
		var cellNode *model.Node
		cellPos := -1
		cs, isCells := sel.(*CellSelection)
		if isCells {
			if cs.anchor.Pos() != cs.head.Pos() {
				return false
			}
			cellNode, cellPos = cs.anchor.NodeAfter(), cs.anchor.Pos()
		} else {
			from := sel.Ranges()[0].From
			cellNode = cellWrapping(from)
			if around := CellAround(from); around != nil {
				cellPos = around.Pos()
			}
		}
		if cellNode == nil || cellPos < 0 {
			return false
		}
		if colspan, rowspan := spans(cellNode); colspan == 1 && rowspan == 1 {
			return false
		}
		rect, ok := SelectedRect(st)
		if !ok {
			return false
		}
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			base := cloneAttrs(cellNode.Attrs())
			base["colspan"], base["rowspan"] = 1, 1
			widths := colwidths(cellNode.Attrs())
			attrs := make([]schema.Attrs, rect.Width())
			for i := range attrs {
				a := cloneAttrs(base)
				if widths != nil {
					a["colwidth"] = nil
					if i < len(widths) && widths[i] > 0 {
						a["colwidth"] = []int{widths[i]}
					}
				}
				attrs[i] = a
			}
			last := -1
			for row := rect.Top; row < rect.Bottom; row++ {
				pos := rect.Map.PositionAt(row, rect.Left, rect.Table)
				if row == rect.Top {
					pos += cellNode.NodeSize()
				}
				for col, i := rect.Left, 0; col < rect.Right; col, i = col+1, i+1 {
					if col == rect.Left && row == rect.Top {
						continue
					}
					n, err := model.CreateAndFill(cellNode.Type(), attrs[i], model.EmptyFragment, nil)
					if err != nil {
						return err
					}
					last = tr.Mapping().Map(pos+rect.TableStart, 1)
					if err := tr.Insert(last, n); err != nil {
						return err
					}
				}
			}
			if err := tr.SetNodeMarkup(cellPos, nil, attrs[0], nil); err != nil {
				return err
			}
			if isCells {
				var head *model.ResolvedPos
				if last >= 0 {
					head = tr.Doc().MustResolve(last)
				}
				if next, err := NewCellSelection(tr.Doc().MustResolve(cs.anchor.Pos()), head); err == nil {
					tr.SetSelection(next)
				}
			}
			return nil
		})
	}
}

// HeaderKind selects what ToggleHeader converts.
type HeaderKind int

// Header kinds.
const (
	HeaderRow HeaderKind = iota
	HeaderColumn
	HeaderCell
)

func headerEnabled(kind HeaderKind, rect TableRect, types Types) bool {
	r := Rect{Right: 1, Bottom: 1}
	if kind == HeaderRow {
		r.Right = rect.Map.Width
	}
	if kind == HeaderColumn {
		r.Bottom = rect.Map.Height
	}
	for _, p := range rect.Map.CellsInRect(r) {
		if nodeTypeAt(rect.Table, p) != types.HeaderCell {
			return false
		}
	}
	return true
}

// HeaderActive reports whether the first row or column of the table
// around the selection is all header cells. HeaderCell checks the
// selected cells.
func HeaderActive(st *state.State, kind HeaderKind) bool {
	rect, ok := SelectedRect(st)
	if !ok {
		return false
	}
	types := TypesOf(st.Schema())
	if kind != HeaderCell {
		return headerEnabled(kind, rect, types)
	}
	for _, p := range rect.Map.CellsInRect(rect.Rect) {
		if nodeTypeAt(rect.Table, p) != types.HeaderCell {
			return false
		}
	}
	return true
}

// ToggleHeader turns the first row, the first column, or the selected
// cells into header cells, or back into plain cells when they already
// are. A header column leaves the corner cell alone while the header row
// is on, and the other way around.
func ToggleHeader(kind HeaderKind) commands.Command {
	return inTable(func(st *state.State, rect TableRect, dispatch func(*state.Transaction)) bool {
		types := TypesOf(st.Schema())
		if types.HeaderCell == nil || types.Cell == nil {
			return false
		}
		rowOn, colOn := headerEnabled(HeaderRow, rect, types), headerEnabled(HeaderColumn, rect, types)
		var cells Rect
		newType := types.HeaderCell
		switch kind {
		case HeaderColumn:
			cells = Rect{Top: 0, Right: 1, Bottom: rect.Map.Height}
			if rowOn {
				cells.Top = 1
			}
			if colOn {
				newType = types.Cell
			}
		case HeaderRow:
			cells = Rect{Right: rect.Map.Width, Bottom: 1}
			if colOn {
				cells.Left = 1
			}
			if rowOn {
				newType = types.Cell
			}
		default:
			cells = rect.Rect
			all := true
			for _, p := range rect.Map.CellsInRect(cells) {
				if nodeTypeAt(rect.Table, p) != types.HeaderCell {
					all = false
				}
			}
			if all {
				newType = types.Cell
			}
		}
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			for _, p := range rect.Map.CellsInRect(cells) {
				pos := p + rect.TableStart
				cell := tr.Doc().NodeAt(pos)
				if cell == nil || cell.Type() == newType {
					continue
				}
				if err := tr.SetNodeMarkup(pos, newType, cell.Attrs(), nil); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// ToggleHeaderRow toggles header cells in the first row.
func ToggleHeaderRow() commands.Command { return ToggleHeader(HeaderRow) }

// ToggleHeaderColumn toggles header cells in the first column.
func ToggleHeaderColumn() commands.Command { return ToggleHeader(HeaderColumn) }

// ToggleHeaderCell toggles the selected cells between header and plain.
func ToggleHeaderCell() commands.Command { return ToggleHeader(HeaderCell) }

// SetCellAttr sets attribute name on the selected cells.
func SetCellAttr(name string, value any) commands.Command {
	return inTable(func(st *state.State, _ TableRect, dispatch func(*state.Transaction)) bool {
		cell := selectionCell(st)
		node := cell.NodeAfter()
		if node == nil || schema.ValuesEqual(node.Attr(name), value) {
			return false
		}
		return commands.BuildChange(st, dispatch, func(tr *state.Transaction) error {
			cs, ok := st.Selection().(*CellSelection)
			if !ok {
				return tr.SetNodeAttribute(cell.Pos(), name, value)
			}
			var err error
			cs.ForEachCell(func(n *model.Node, pos int) {
				if err == nil && !schema.ValuesEqual(n.Attr(name), value) {
					err = tr.SetNodeAttribute(pos, name, value)
				}
			})
			return err
		})
	})
}

// SelectCells selects the cells between the cells containing positions
// anchor and head.
func SelectCells(anchor, head int) commands.Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		a, errA := st.Doc().Resolve(anchor)
		h, errH := st.Doc().Resolve(head)
		if errA != nil || errH != nil {
			return false
		}
		ac, hc := CellAround(a), CellAround(h)
		if ac == nil || hc == nil {
			return false
		}
		sel, err := NewCellSelection(ac, hc)
		if err != nil {
			return false
		}
		return commands.Build(st, dispatch, func(tr *state.Transaction) error {
			tr.SetSelection(sel)
			return nil
		})
	}
}

func findNextCell(cell *model.ResolvedPos, dir int) int {
	if dir < 0 {
		if before := cell.NodeBefore(); before != nil {
			return cell.Pos() - before.NodeSize()
		}
		rowEnd := cell.Before(cell.Depth())
		for row := cell.Index(-1) - 1; row >= 0; row-- {
			rowNode := cell.Node(-1).Child(row)
			if last := rowNode.LastChild(); last != nil {
				return rowEnd - 1 - last.NodeSize()
			}
			rowEnd -= rowNode.NodeSize()
		}
		return -1
	}
	if cell.Index(cell.Depth()) < cell.Parent().ChildCount()-1 {
		return cell.Pos() + cell.NodeAfter().NodeSize()
	}
	table := cell.Node(-1)
	rowStart := cell.After(cell.Depth())
	for row := cell.IndexAfter(-1); row < table.ChildCount(); row++ {
		rowNode := table.Child(row)
		if rowNode.ChildCount() > 0 {
			return rowStart + 1
		}
		rowStart += rowNode.NodeSize()
	}
	return -1
}

// GoToNextCell selects the content of the next cell in direction dir,
// wrapping across rows.
func GoToNextCell(dir int) commands.Command {
	return func(st *state.State, dispatch func(*state.Transaction)) bool {
		if !IsInTable(st) {
			return false
		}
		cell := selectionCell(st)
		if cell == nil {
			return false
		}
		next := findNextCell(cell, dir)
		if next < 0 {
			return false
		}
		return commands.Build(st, dispatch, func(tr *state.Transaction) error {
			rp := tr.Doc().MustResolve(next)
			end := tr.Doc().MustResolve(next + rp.NodeAfter().NodeSize())
			tr.SetSelection(state.TextSelectionBetween(rp, end, 0))
			return nil
		})
	}
}

// Problems reports the structural problems of every table in doc, keyed
// by the position before the table.
func Problems(doc *model.Node) map[int][]Problem {
	out := make(map[int][]Problem)
	doc.Descendants(func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if n.Type().TableRole() == schema.TableRoleTable {
			if p := Get(n).Problems; len(p) > 0 {
				out[pos] = p
			}
		}
		return !n.IsTextblock()
	})
	return out
}
