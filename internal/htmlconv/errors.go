package htmlconv

import "errors"

var (
	// ErrUnrecognized is returned in strict mode when the input holds an
	// element or comment no tag rule covers.
	ErrUnrecognized = errors.New("htmlconv: unrecognized markup")

	// ErrInvalidContent is returned when recognized elements cannot be
	// arranged into valid document content.
	ErrInvalidContent = errors.New("htmlconv: invalid content")
)
