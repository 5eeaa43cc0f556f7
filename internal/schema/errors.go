package schema

import (
	"errors"
	"fmt"
)

// Errors returned by schema operations.
var (
	// ErrSchemaViolation indicates node content does not satisfy its content expression.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrInvalidSpec indicates a schema spec could not be compiled.
	ErrInvalidSpec = errors.New("invalid schema spec")

	// ErrUnknownType indicates a node or mark type name is not declared.
	ErrUnknownType = errors.New("unknown type")

	// ErrMissingAttr indicates a required attribute has no value.
	ErrMissingAttr = errors.New("missing required attribute")

	// ErrUnknownAttr indicates an attribute that the type does not declare.
	ErrUnknownAttr = errors.New("unknown attribute")

	// ErrMarkNotAllowed indicates a mark is applied where the schema forbids it.
	ErrMarkNotAllowed = errors.New("mark not allowed")
)

// SchemaViolationError describes content that does not match a node type's
// content expression.
type SchemaViolationError struct {
	// Type is the name of the node type whose content is invalid.
	Type string

	// Index is the index of the offending child. It equals the number of
	// children when the sequence ended before the expression was satisfied.
	Index int

	// Child is the type name of the offending child, empty when the content
	// ended too early.
	Child string
}

// Error implements error.
func (e *SchemaViolationError) Error() string {
	if e.Child == "" {
		return fmt.Sprintf("schema violation: %s content incomplete at index %d", e.Type, e.Index)
	}
	return fmt.Sprintf("schema violation: %s cannot contain %s at index %d", e.Type, e.Child, e.Index)
}

// Unwrap returns ErrSchemaViolation.
func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}

func specErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSpec, fmt.Sprintf(format, args...))
}
