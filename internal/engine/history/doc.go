// Package history provides undo/redo for the editing engine.
//
// Entries store the inverse steps of applied transactions together with
// bookmarks of the selection before and after the change. Key concepts:
//
// # Recording
//
// The engine passes every applied transaction to Record:
//
//	h := history.NewHistory(1000) // Max 1000 undo entries
//	next, _ := st.Apply(tr)
//	h.Record(tr)
//
// Transactions with the addToHistory meta flag set to false are not
// undoable. Their mapping is applied to every stored entry instead, and
// steps that no longer fit the document are dropped.
//
// # Undo and Redo
//
// Undo and Redo return a transaction for the current state. It is marked
// so that Record ignores it:
//
//	tr, err := h.Undo(st)
//	if err == nil {
//	    st, _ = st.Apply(tr)
//	}
//
// # Grouping
//
// Several transactions can be grouped as a single undo unit:
//
//	h.BeginGroup("Find and Replace")
//	// ... multiple transactions ...
//	h.EndGroup()
//
// Typed text (uiEvent "input") that follows the previous typed edit at an
// adjacent position within GroupDelay joins its entry automatically.
package history
