// Package table provides handlers for table editing.
//
// Action IDs:
//   - InsertTable [rows=3, cols=3, header=true]
//   - TableAddRowBefore, TableAddRowAfter, TableDeleteRow
//   - TableAddColumnBefore, TableAddColumnAfter, TableDeleteColumn
//   - TableDeleteTable, TableMergeCells, TableSplitCell
//   - TableToggleHeaderRow, TableToggleHeaderColumn, TableToggleHeaderCell
//   - GoToNextCell, GoToPreviousCell
package table
