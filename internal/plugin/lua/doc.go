// Package lua runs Lua scripts against an editor.
//
// Scripts run in a sandboxed gopher-lua state: io, os and debug are not
// opened, the file loaders are removed and require only resolves the
// string, table and math libraries and the modules the host registers.
// Each execution has a timeout and a budget of host calls.
//
// # Host
//
// A Host binds a state to an editor and its dispatcher and registers the
// inkwell module, available both as a global and through require:
//
//	h, err := lua.NewHost(ed, d, lua.WithTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	err = h.RunString(ctx, `
//	    inkwell.dispatch("SelectAll")
//	    if inkwell.enabled("ToggleBold") then
//	        inkwell.dispatch("ToggleBold")
//	    end
//	    print(inkwell.markdown())
//	`)
//
// Module functions:
//   - dispatch(id, ...): run a command, returning {ok, status, changed, message, error}
//   - enabled(id, ...), active(id, ...): command queries
//   - key(keys): run the command bound to a key chord
//   - commands(): the registered command IDs
//   - markdown(), html(), text(): the document
//   - set_markdown(src): replace the document
//   - log(level, msg, ...): structured logging
package lua
