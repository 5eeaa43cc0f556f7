package tables

import "errors"

// ErrNotInTable is returned when a position is not inside a table cell.
var ErrNotInTable = errors.New("tables: not in a table")
