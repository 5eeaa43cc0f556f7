// Package tables implements table editing on top of the document model.
//
// A TableMap lays the cells of a table node out on a grid, resolving
// colspan and rowspan so that every slot names the cell covering it.
// Positions in a map are relative to the start of the table's content.
//
// CellSelection selects a rectangle of cells. It implements
// state.Selection and registers itself under the JSON type "cell".
//
// The commands follow the commands package convention: they report
// whether they apply with a nil dispatch and build the full transaction
// before deciding.
package tables
