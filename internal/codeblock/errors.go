package codeblock

import "errors"

// Errors returned by editor operations.
var (
	// ErrOffsetOutOfRange indicates an offset outside the text.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrRangeInvalid indicates a range whose end precedes its start.
	ErrRangeInvalid = errors.New("invalid range")

	// ErrClosed indicates an edit on a closed editor.
	ErrClosed = errors.New("code block editor is closed")
)
