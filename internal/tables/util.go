package tables

import (
	"github.com/dshills/inkwell/internal/model"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
)

// Types holds the node types that play table roles in a schema.
type Types struct {
	Table, Row, Cell, HeaderCell *schema.NodeType
}

// TypesOf finds the table node types of sc by role.
func TypesOf(sc *schema.Schema) Types {
	var t Types
	for _, nt := range sc.NodeTypes() {
		switch nt.TableRole() {
		case schema.TableRoleTable:
			t.Table = nt
		case schema.TableRoleRow:
			t.Row = nt
		case schema.TableRoleCell:
			t.Cell = nt
		case schema.TableRoleHeaderCell:
			t.HeaderCell = nt
		}
	}
	return t
}

func isCellRole(t *schema.NodeType) bool {
	role := t.TableRole()
	return role == schema.TableRoleCell || role == schema.TableRoleHeaderCell
}

// CellAround returns the position before the cell containing rp, or nil.
func CellAround(rp *model.ResolvedPos) *model.ResolvedPos {
	for d := rp.Depth() - 1; d > 0; d-- {
		if rp.Node(d).Type().TableRole() == schema.TableRoleRow {
			return rp.Doc().MustResolve(rp.Before(d + 1))
		}
	}
	return nil
}

func cellWrapping(rp *model.ResolvedPos) *model.Node {
	for d := rp.Depth(); d > 0; d-- {
		if isCellRole(rp.Node(d).Type()) {
			return rp.Node(d)
		}
	}
	return nil
}

// IsInTable reports whether the selection head is inside a table.
func IsInTable(st *state.State) bool {
	head := headOf(st.Selection())
	for d := head.Depth(); d > 0; d-- {
		if head.Node(d).Type().TableRole() == schema.TableRoleRow {
			return true
		}
	}
	return false
}

func headOf(sel state.Selection) *model.ResolvedPos {
	switch s := sel.(type) {
	case *state.TextSelection:
		return s.ResolvedHead()
	case *CellSelection:
		return s.head
	}
	r := sel.Ranges()[0]
	return r.To
}

// pointsAtCell reports whether rp sits directly before a cell.
func pointsAtCell(rp *model.ResolvedPos) bool {
	return rp.Parent().Type().TableRole() == schema.TableRoleRow && rp.NodeAfter() != nil
}

func inSameTable(a, b *model.ResolvedPos) bool {
	return a.Depth() == b.Depth() && a.Depth() > 0 && a.Pos() >= b.Start(-1) && a.Pos() <= b.End(-1)
}

// selectionCell returns the position before the cell the selection
// starts in, or nil.
func selectionCell(st *state.State) *model.ResolvedPos {
	switch sel := st.Selection().(type) {
	case *CellSelection:
		if sel.anchor.Pos() > sel.head.Pos() {
			return sel.anchor
		}
		return sel.head
	case *state.NodeSelection:
		if isCellRole(sel.Node().Type()) {
			return sel.Ranges()[0].From
		}
	}
	head := headOf(st.Selection())
	if cell := CellAround(head); cell != nil {
		return cell
	}
	return cellNear(head)
}

func cellNear(rp *model.ResolvedPos) *model.ResolvedPos {
	for after, pos := rp.NodeAfter(), rp.Pos(); after != nil; after, pos = after.FirstChild(), pos+1 {
		if isCellRole(after.Type()) {
			return rp.Doc().MustResolve(pos)
		}
	}
	for before, pos := rp.NodeBefore(), rp.Pos(); before != nil; before, pos = before.LastChild(), pos-1 {
		if isCellRole(before.Type()) {
			return rp.Doc().MustResolve(pos - before.NodeSize())
		}
	}
	return nil
}

func cloneAttrs(a schema.Attrs) schema.Attrs {
	out := make(schema.Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func colwidths(a schema.Attrs) []int {
	switch v := a.Get("colwidth").(type) {
	case []int:
		return append([]int(nil), v...)
	case []any:
		out := make([]int, len(v))
		for i, w := range v {
			if n, ok := w.(int); ok {
				out[i] = n
			} else if f, ok := w.(float64); ok {
				out[i] = int(f)
			}
		}
		return out
	}
	return nil
}

// addColSpan widens a cell's attributes by n columns at pos.
func addColSpan(a schema.Attrs, pos, n int) schema.Attrs {
	out := cloneAttrs(a)
	out["colspan"] = max(a.Int("colspan"), 1) + n
	if w := colwidths(a); w != nil {
		pos = min(max(pos, 0), len(w))
		grown := append(append(append([]int(nil), w[:pos]...), make([]int, n)...), w[pos:]...)
		out["colwidth"] = grown
	}
	return out
}

// removeColSpan narrows a cell's attributes by n columns at pos.
func removeColSpan(a schema.Attrs, pos, n int) schema.Attrs {
	out := cloneAttrs(a)
	out["colspan"] = max(a.Int("colspan"), 1) - n
	if w := colwidths(a); w != nil {
		pos = min(max(pos, 0), len(w))
		end := min(pos+n, len(w))
		shrunk := append(append([]int(nil), w[:pos]...), w[end:]...)
		nonZero := false
		for _, x := range shrunk {
			if x > 0 {
				nonZero = true
			}
		}
		if nonZero {
			out["colwidth"] = shrunk
		} else {
			out["colwidth"] = nil
		}
	}
	return out
}

func isEmptyCell(cell *model.Node) bool {
	c := cell.Content()
	return c.ChildCount() == 1 && c.FirstChild().IsTextblock() && c.FirstChild().ChildCount() == 0
}
