// Package editor provides handlers for history, selection and structural
// editing keys.
//
// Action IDs:
//   - Undo, Redo
//   - SelectAll
//   - SplitBlock, DeleteBackward, DeleteForward
//
// Undo and Redo go through the editor history rather than a command; their
// dry run reports whether the history has an entry to replay.
package editor
