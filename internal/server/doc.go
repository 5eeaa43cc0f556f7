// Package server exposes the Inkwell editor over HTTP.
//
// The server is stateless: every request carries its document, is loaded
// into a fresh engine.Editor and answered with the resulting document.
// Routes:
//
//	GET  /healthz   liveness
//	GET  /commands  command IDs and their key bindings
//	POST /convert   Markdown <-> HTML conversion
//	POST /dispatch  run a command or key chord against a document
//	POST /enabled   report whether a command applies
//	POST /active    report whether a command's format is active
//	GET  /metrics   Prometheus metrics, when enabled
//
// Actions dispatched through the server carry input.SourceHTTP, so hooks
// can filter them. Configuration is swapped atomically with Reload.
package server
