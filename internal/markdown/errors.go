package markdown

import "errors"

var (
	// ErrUnknownType is returned when a token names a node or mark type the
	// schema does not define.
	ErrUnknownType = errors.New("markdown: unknown type")

	// ErrInvalidContent is returned when folded content does not fit its
	// parent node.
	ErrInvalidContent = errors.New("markdown: invalid content")
)
