// Package dispatcher maps stable command IDs to editor commands.
//
// The dispatcher is the surface hosts use to drive an editor: toolbars ask
// it whether a command is enabled or active, key bindings and scripts ask
// it to run one. Every command is addressed by a string ID such as
// "ToggleBold" or "InsertTable" and takes positional parameters.
//
// # Handler Execution
//
// When an action is dispatched:
//
//  1. Pre-dispatch hooks run and may rewrite or cancel the action
//  2. The registry finds the highest priority handler for the ID
//  3. An ExecutionContext is built around the editor
//  4. The handler runs with panic recovery
//  5. Post-dispatch hooks run
//  6. Metrics are recorded
//
// A command that does not apply yields StatusNoOp. Parameter errors and
// panics yield StatusError.
//
// # Queries
//
//	d.Enabled("SetLink", "https://example.com") // dry run
//	d.Active("ToggleHeading", 2)                // selection already carries it
//
// # Keys
//
// DispatchKey resolves a key name such as "Mod-b" through the keymap
// registry and runs the first bound command that is enabled.
//
// # Usage
//
//	ed, _ := engine.New(engine.WithMarkdown("Hello"))
//	d := dispatcher.New(dispatcher.DefaultConfig(), dispatcher.WithEditor(ed))
//
//	res := d.Dispatch("SelectAll")
//	res = d.Dispatch("ToggleBold")
//	if res.IsOK() {
//	    fmt.Println(ed.Markdown()) // **Hello**
//	}
//
// # Thread Safety
//
// All dispatcher operations are thread-safe. Handlers run against the
// editor, which serializes transactions.
package dispatcher
