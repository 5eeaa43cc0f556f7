// Package engine provides the rich-text editor facade of Inkwell.
//
// The engine package combines the editor state, undo/redo history,
// change observers, debounced validation and nested code-block editors
// into a unified, thread-safe API.
//
// # Architecture
//
// The editor is built on several packages:
//
//   - state: immutable editor states and the transactions between them
//   - commands: editing commands that build transactions
//   - history: step-inverting undo/redo with grouping
//   - validate: debounced structural validation
//   - codeblock: nested plain-text editors for code blocks
//   - markdown, htmlconv: conversion to and from external text
//
// # Thread Safety
//
// All Editor operations are thread-safe. The editor uses a read-write
// mutex to allow concurrent reads while serializing transactions. States
// are immutable, so a state returned by State can be read freely while
// the editor moves on.
//
// # Basic Usage
//
//	e, err := engine.New(engine.WithMarkdown("# Title\n\nHello"))
//	if err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	// Run a command against the current selection
//	e.Execute(commands.ToggleMark(e.Schema().MarkType(schema.MarkStrong), nil))
//
//	// Or build a transaction directly
//	e.Update(func(tr *state.Transaction) error {
//	    return tr.InsertText("!")
//	})
//
//	md := e.Markdown()
//
// # Undo/Redo
//
// Every document-changing transaction is recorded unless it sets the
// state.MetaAddToHistory meta to false:
//
//	e.Undo()
//	e.Redo()
//
// Group several changes into a single undo unit:
//
//	e.BeginUndoGroup("format")
//	e.Execute(cmdA)
//	e.Execute(cmdB)
//	e.EndUndoGroup()
//
// # Observers
//
// Observe registers a callback that runs after each applied transaction:
//
//	stop := e.Observe(func(c engine.Change) {
//	    if c.DocChanged() {
//	        save(c.After.Doc())
//	    }
//	})
//	defer stop()
//
// # Code Blocks
//
// CodeBlockEditor opens a nested plain-text editor for a code block. Its
// edits are diffed against the block and applied as one replace step;
// document changes to the block flow back without echo.
//
// # Error Handling
//
//   - ErrReadOnly: document change on a read-only editor
//   - ErrClosed: change after Close
//   - ErrNothingToUndo, ErrNothingToRedo: empty history stack
//   - ErrNotCodeBlock: no code block at the requested position
//   - ErrUnknownFormat: unsupported document format
package engine
