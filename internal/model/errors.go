package model

import (
	"errors"
	"fmt"
)

// Errors returned by document operations.
var (
	// ErrReplacementInvalid indicates a range cannot be replaced with the given content.
	ErrReplacementInvalid = errors.New("replacement invalid")

	// ErrPositionOutOfRange indicates a position outside the document.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrInvalidJSON indicates a JSON document that does not describe a valid node.
	ErrInvalidJSON = errors.New("invalid document JSON")
)

// ReplaceError describes why a replacement failed.
type ReplaceError struct {
	Reason string
}

// Error implements error.
func (e *ReplaceError) Error() string {
	return "replacement invalid: " + e.Reason
}

// Unwrap returns ErrReplacementInvalid.
func (e *ReplaceError) Unwrap() error {
	return ErrReplacementInvalid
}

func replaceErrorf(format string, args ...any) error {
	return &ReplaceError{Reason: fmt.Sprintf(format, args...)}
}

func rangeErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPositionOutOfRange, fmt.Sprintf(format, args...))
}
