package server

import "encoding/json"

// ConvertRequest is the body of POST /convert.
type ConvertRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Content string `json:"content"`
}

// ConvertResponse is the reply to POST /convert.
type ConvertResponse struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

// DocumentRequest carries a document and the command to evaluate against
// it. Format defaults to markdown. A nil Selection leaves the editor's
// initial selection in place.
type DocumentRequest struct {
	Format    string          `json:"format,omitempty"`
	Content   string          `json:"content"`
	Selection json.RawMessage `json:"selection,omitempty"`
	Command   string          `json:"command,omitempty"`
	Params    []any           `json:"params,omitempty"`
	// Key dispatches a key chord instead of Command.
	Key string `json:"key,omitempty"`
}

// DispatchResponse is the reply to POST /dispatch.
type DispatchResponse struct {
	Status    string          `json:"status"`
	Changed   bool            `json:"changed"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	Format    string          `json:"format"`
	Content   string          `json:"content"`
	Selection json.RawMessage `json:"selection,omitempty"`
	Data      map[string]any  `json:"data,omitempty"`
}

// QueryResponse is the reply to POST /enabled and POST /active.
type QueryResponse struct {
	Command string `json:"command"`
	Value   bool   `json:"value"`
}

// CommandInfo describes one registered command.
type CommandInfo struct {
	ID   string   `json:"id"`
	Keys []string `json:"keys,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
