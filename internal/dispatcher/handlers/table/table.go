package table

import (
	"github.com/dshills/inkwell/internal/commands"
	"github.com/dshills/inkwell/internal/dispatcher/handler"
	"github.com/dshills/inkwell/internal/input"
	"github.com/dshills/inkwell/internal/schema"
	"github.com/dshills/inkwell/internal/state"
	"github.com/dshills/inkwell/internal/tables"
)

// Action IDs for table commands.
const (
	ActionInsertTable             = "InsertTable"
	ActionTableAddRowBefore       = "TableAddRowBefore"
	ActionTableAddRowAfter        = "TableAddRowAfter"
	ActionTableAddColumnBefore    = "TableAddColumnBefore"
	ActionTableAddColumnAfter     = "TableAddColumnAfter"
	ActionTableDeleteRow          = "TableDeleteRow"
	ActionTableDeleteColumn       = "TableDeleteColumn"
	ActionTableDeleteTable        = "TableDeleteTable"
	ActionTableMergeCells         = "TableMergeCells"
	ActionTableSplitCell          = "TableSplitCell"
	ActionTableToggleHeaderRow    = "TableToggleHeaderRow"
	ActionTableToggleHeaderColumn = "TableToggleHeaderColumn"
	ActionTableToggleHeaderCell   = "TableToggleHeaderCell"
	ActionGoToNextCell            = "GoToNextCell"
	ActionGoToPreviousCell        = "GoToPreviousCell"
)

// Default InsertTable dimensions.
const (
	DefaultRows = 3
	DefaultCols = 3
)

// Handlers returns the table handlers.
func Handlers() []handler.Handler {
	return []handler.Handler{
		handler.Command(ActionInsertTable, insertTable, inTable),
		handler.Command(ActionTableAddRowBefore, fixed(tables.AddRowBefore()), nil),
		handler.Command(ActionTableAddRowAfter, fixed(tables.AddRowAfter()), nil),
		handler.Command(ActionTableAddColumnBefore, fixed(tables.AddColumnBefore()), nil),
		handler.Command(ActionTableAddColumnAfter, fixed(tables.AddColumnAfter()), nil),
		handler.Command(ActionTableDeleteRow, fixed(tables.DeleteRow()), nil),
		handler.Command(ActionTableDeleteColumn, fixed(tables.DeleteColumn()), nil),
		handler.Command(ActionTableDeleteTable, fixed(tables.DeleteTable()), nil),
		handler.Command(ActionTableMergeCells, fixed(tables.MergeCells()), nil),
		handler.Command(ActionTableSplitCell, fixed(tables.SplitCell()), nil),
		handler.Command(ActionTableToggleHeaderRow, fixed(tables.ToggleHeaderRow()), header(tables.HeaderRow)),
		handler.Command(ActionTableToggleHeaderColumn, fixed(tables.ToggleHeaderColumn()), header(tables.HeaderColumn)),
		handler.Command(ActionTableToggleHeaderCell, fixed(tables.ToggleHeaderCell()), header(tables.HeaderCell)),
		handler.Command(ActionGoToNextCell, goToCell(1), nil),
		handler.Command(ActionGoToPreviousCell, goToCell(-1), nil),
	}
}

func fixed(cmd commands.Command) handler.BuildFunc {
	return func(input.Action, *schema.Schema) (commands.Command, error) {
		return cmd, nil
	}
}

func inTable(_ input.Action, st *state.State) bool {
	return tables.IsInTable(st)
}

func header(kind tables.HeaderKind) handler.ActiveFunc {
	return func(_ input.Action, st *state.State) bool {
		return tables.HeaderActive(st, kind)
	}
}

// insertTable: [rows=3, cols=3, header=true]
func insertTable(a input.Action, _ *schema.Schema) (commands.Command, error) {
	rows, err := a.Int(0, DefaultRows)
	if err != nil {
		return nil, err
	}
	cols, err := a.Int(1, DefaultCols)
	if err != nil {
		return nil, err
	}
	withHeader, err := a.Bool(2, true)
	if err != nil {
		return nil, err
	}
	if rows < 1 {
		return nil, &input.ParamError{Action: a.Name, Index: 0, Want: "positive row count", Got: rows, Err: input.ErrInvalidParam}
	}
	if cols < 1 {
		return nil, &input.ParamError{Action: a.Name, Index: 1, Want: "positive column count", Got: cols, Err: input.ErrInvalidParam}
	}
	return tables.InsertTable(rows, cols, withHeader), nil
}

func goToCell(dir int) handler.BuildFunc {
	return func(input.Action, *schema.Schema) (commands.Command, error) {
		return tables.GoToNextCell(dir), nil
	}
}
