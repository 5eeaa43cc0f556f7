package tables

import (
	"fmt"

	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/transform"
)

// CellSelection selects the rectangle of cells spanned by an anchor cell
// and a head cell. Both positions point directly before a cell.
type CellSelection struct {
	anchor *model.ResolvedPos
	head   *model.ResolvedPos
	ranges []state.SelectionRange
}

func init() {
	state.RegisterSelectionType("cell", func(doc *model.Node, anchor, head int) (state.Selection, error) {
		a, err := doc.Resolve(anchor)
		if err != nil {
			return nil, err
		}
		h, err := doc.Resolve(head)
		if err != nil {
			return nil, err
		}
		return NewCellSelection(a, h)
	})
}

// NewCellSelection selects the cells between anchorCell and headCell. A nil
// headCell selects the anchor cell alone.
func NewCellSelection(anchorCell, headCell *model.ResolvedPos) (*CellSelection, error) {
	if headCell == nil {
		headCell = anchorCell
	}
	if !pointsAtCell(anchorCell) || !pointsAtCell(headCell) || !inSameTable(anchorCell, headCell) {
		return nil, fmt.Errorf("%w: cell selection needs two cells of one table", state.ErrInvalidSelection)
	}
	table := anchorCell.Node(-1)
	m := Get(table)
	tableStart := anchorCell.Start(-1)
	rect := m.RectBetween(anchorCell.Pos()-tableStart, headCell.Pos()-tableStart)
	doc := anchorCell.Doc()
	headRel := headCell.Pos() - tableStart
	cells := []int{headRel}
	for _, p := range m.CellsInRect(rect) {
		if p != headRel {
			cells = append(cells, p)
		}
	}
	ranges := make([]state.SelectionRange, 0, len(cells))
	for _, pos := range cells {
		cell := table.NodeAt(pos)
		from := pos + tableStart + 1
		ranges = append(ranges, state.SelectionRange{
			From: doc.MustResolve(from),
			To:   doc.MustResolve(from + cell.Content().Size()),
		})
	}
	return &CellSelection{anchor: anchorCell, head: headCell, ranges: ranges}, nil
}

// CellSelectionAt selects the cells between the cells at positions anchor
// and head of doc.
func CellSelectionAt(doc *model.Node, anchor, head int) (*CellSelection, error) {
	a, err := doc.Resolve(anchor)
	if err != nil {
		return nil, err
	}
	h, err := doc.Resolve(head)
	if err != nil {
		return nil, err
	}
	return NewCellSelection(a, h)
}

// AnchorCell returns the position before the anchor cell.
func (s *CellSelection) AnchorCell() *model.ResolvedPos { return s.anchor }

// HeadCell returns the position before the head cell.
func (s *CellSelection) HeadCell() *model.ResolvedPos { return s.head }

// Anchor implements state.Selection.
func (s *CellSelection) Anchor() int { return s.anchor.Pos() }

// Head implements state.Selection.
func (s *CellSelection) Head() int { return s.head.Pos() }

// From implements state.Selection.
func (s *CellSelection) From() int {
	from := s.ranges[0].From.Pos()
	for _, r := range s.ranges[1:] {
		from = min(from, r.From.Pos())
	}
	return from
}

// To implements state.Selection.
func (s *CellSelection) To() int {
	to := s.ranges[0].To.Pos()
	for _, r := range s.ranges[1:] {
		to = max(to, r.To.Pos())
	}
	return to
}

// Empty implements state.Selection.
func (s *CellSelection) Empty() bool { return false }

// Ranges implements state.Selection. The head cell comes first.
func (s *CellSelection) Ranges() []state.SelectionRange { return s.ranges }

// Map implements state.Selection. The selection survives only while both
// cells exist in one table; otherwise it becomes a text selection.
func (s *CellSelection) Map(doc *model.Node, mapping transform.Mappable) state.Selection {
	anchor, errA := doc.Resolve(mapping.Map(s.anchor.Pos(), 1))
	head, errH := doc.Resolve(mapping.Map(s.head.Pos(), 1))
	if errA != nil || errH != nil {
		return state.AtStart(doc)
	}
	if pointsAtCell(anchor) && pointsAtCell(head) && inSameTable(anchor, head) {
		tableChanged := s.anchor.Node(-1) != anchor.Node(-1)
		var sel *CellSelection
		var err error
		switch {
		case tableChanged && s.IsRowSelection():
			sel, err = RowSelection(anchor, head)
		case tableChanged && s.IsColSelection():
			sel, err = ColSelection(anchor, head)
		default:
			sel, err = NewCellSelection(anchor, head)
		}
		if err == nil {
			return sel
		}
	}
	return state.TextSelectionBetween(anchor, head, 0)
}

// Eq implements state.Selection.
func (s *CellSelection) Eq(other state.Selection) bool {
	o, ok := other.(*CellSelection)
	return ok && o.Anchor() == s.Anchor() && o.Head() == s.Head()
}

// Bookmark implements state.Selection.
func (s *CellSelection) Bookmark() state.Bookmark {
	return cellBookmark{anchor: s.Anchor(), head: s.Head()}
}

// JSONType implements state.Selection.
func (s *CellSelection) JSONType() string { return "cell" }

func (s *CellSelection) String() string {
	return fmt.Sprintf("cell(%d,%d)", s.Anchor(), s.Head())
}

// Rect returns the selected rectangle of the table map.
func (s *CellSelection) Rect() Rect {
	m := Get(s.anchor.Node(-1))
	start := s.anchor.Start(-1)
	return m.RectBetween(s.anchor.Pos()-start, s.head.Pos()-start)
}

// IsRectangular reports whether no cell crosses the selection boundary.
func (s *CellSelection) IsRectangular() bool {
	return !Get(s.anchor.Node(-1)).OverlapsRect(s.Rect())
}

// IsColSelection reports whether the selection spans the table from top
// to bottom.
func (s *CellSelection) IsColSelection() bool {
	anchorTop, headTop := s.anchor.Index(-1), s.head.Index(-1)
	if min(anchorTop, headTop) > 0 {
		return false
	}
	_, anchorSpan := spans(s.anchor.NodeAfter())
	_, headSpan := spans(s.head.NodeAfter())
	return max(anchorTop+anchorSpan, headTop+headSpan) == s.head.Node(-1).ChildCount()
}

// IsRowSelection reports whether the selection spans the table from left
// to right.
func (s *CellSelection) IsRowSelection() bool {
	m := Get(s.anchor.Node(-1))
	start := s.anchor.Start(-1)
	anchorLeft := m.ColCount(s.anchor.Pos() - start)
	headLeft := m.ColCount(s.head.Pos() - start)
	if min(anchorLeft, headLeft) > 0 {
		return false
	}
	anchorSpan, _ := spans(s.anchor.NodeAfter())
	headSpan, _ := spans(s.head.NodeAfter())
	return max(anchorLeft+anchorSpan, headLeft+headSpan) == m.Width
}

// ForEachCell calls fn with every selected cell and its position.
func (s *CellSelection) ForEachCell(fn func(cell *model.Node, pos int)) {
	table := s.anchor.Node(-1)
	m := Get(table)
	start := s.anchor.Start(-1)
	for _, p := range m.CellsInRect(m.RectBetween(s.anchor.Pos()-start, s.head.Pos()-start)) {
		fn(table.NodeAt(p), start+p)
	}
}

// Replace implements state.Replacer. Every selected cell is emptied and
// content goes into the head cell.
func (s *CellSelection) Replace(tr *state.Transaction, content model.Slice) error {
	types := TypesOf(tr.Doc().Type().Schema())
	empty, err := model.CreateAndFill(types.Cell, nil, model.EmptyFragment, nil)
	if err != nil {
		return err
	}
	blank := model.NewSlice(empty.Content(), 0, 0)
	start := len(tr.Steps())
	for i, r := range s.ranges {
		m := tr.Mapping().Slice(start, -1)
		from, to := m.Map(r.From.Pos(), 1), m.Map(r.To.Pos(), 1)
		if i == 0 && content.Size() > 0 {
			mark := tr.Checkpoint()
			if err := tr.Replace(from, to, cellContent(tr.Doc().Type().Schema(), content)); err == nil {
				continue
			}
			tr.Rollback(mark)
		}
		if err := tr.Replace(from, to, blank); err != nil {
			return err
		}
	}
	end := tr.Mapping().Slice(start, -1).Map(s.To(), 1)
	if rp, err := tr.Doc().Resolve(end); err == nil {
		if sel := state.FindFrom(rp, -1, false); sel != nil {
			tr.SetSelection(sel)
		}
	}
	return nil
}

// cellContent closes slice into a block-level slice that fits a cell.
func cellContent(sc *schema.Schema, slice model.Slice) model.Slice {
	frag := slice.Content
	if first := frag.FirstChild(); first != nil && first.IsInline() {
		p, err := model.Create(sc.NodeType(schema.NodeParagraph), nil, frag, nil)
		if err != nil {
			return model.EmptySlice
		}
		frag = model.FragmentFrom(p)
	}
	return model.NewSlice(frag, 0, 0)
}

type cellBookmark struct{ anchor, head int }

func (b cellBookmark) Map(mapping transform.Mappable) state.Bookmark {
	return cellBookmark{anchor: mapping.Map(b.anchor, 1), head: mapping.Map(b.head, 1)}
}

func (b cellBookmark) Resolve(doc *model.Node) state.Selection {
	size := doc.Content().Size()
	anchor := doc.MustResolve(min(b.anchor, size))
	head := doc.MustResolve(min(b.head, size))
	if sel, err := NewCellSelection(anchor, head); err == nil {
		return sel
	}
	return state.Near(head, 1)
}

// ColSelection extends the cells at anchorCell and headCell to full
// columns.
func ColSelection(anchorCell, headCell *model.ResolvedPos) (*CellSelection, error) {
	if headCell == nil {
		headCell = anchorCell
	}
	if !pointsAtCell(anchorCell) || !pointsAtCell(headCell) {
		return nil, fmt.Errorf("%w: not a cell", state.ErrInvalidSelection)
	}
	m := Get(anchorCell.Node(-1))
	start := anchorCell.Start(-1)
	ar, err := m.FindCell(anchorCell.Pos() - start)
	if err != nil {
		return nil, err
	}
	hr, err := m.FindCell(headCell.Pos() - start)
	if err != nil {
		return nil, err
	}
	doc := anchorCell.Doc()
	last := m.Width * (m.Height - 1)
	if ar.Top <= hr.Top {
		if ar.Top > 0 {
			anchorCell = doc.MustResolve(start + m.Map[ar.Left])
		}
		if hr.Bottom < m.Height {
			headCell = doc.MustResolve(start + m.Map[last+hr.Right-1])
		}
	} else {
		if hr.Top > 0 {
			headCell = doc.MustResolve(start + m.Map[hr.Left])
		}
		if ar.Bottom < m.Height {
			anchorCell = doc.MustResolve(start + m.Map[last+ar.Right-1])
		}
	}
	return NewCellSelection(anchorCell, headCell)
}

// RowSelection extends the cells at anchorCell and headCell to full rows.
func RowSelection(anchorCell, headCell *model.ResolvedPos) (*CellSelection, error) {
	if headCell == nil {
		headCell = anchorCell
	}
	if !pointsAtCell(anchorCell) || !pointsAtCell(headCell) {
		return nil, fmt.Errorf("%w: not a cell", state.ErrInvalidSelection)
	}
	m := Get(anchorCell.Node(-1))
	start := anchorCell.Start(-1)
	ar, err := m.FindCell(anchorCell.Pos() - start)
	if err != nil {
		return nil, err
	}
	hr, err := m.FindCell(headCell.Pos() - start)
	if err != nil {
		return nil, err
	}
	doc := anchorCell.Doc()
	if ar.Left <= hr.Left {
		if ar.Left > 0 {
			anchorCell = doc.MustResolve(start + m.Map[ar.Top*m.Width])
		}
		if hr.Right < m.Width {
			headCell = doc.MustResolve(start + m.Map[m.Width*(hr.Top+1)-1])
		}
	} else {
		if hr.Left > 0 {
			headCell = doc.MustResolve(start + m.Map[hr.Top*m.Width])
		}
		if ar.Right < m.Width {
			anchorCell = doc.MustResolve(start + m.Map[m.Width*(ar.Top+1)-1])
		}
	}
	return NewCellSelection(anchorCell, headCell)
}
