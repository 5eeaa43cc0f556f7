package input

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parameter errors.
var (
	// ErrInvalidParam indicates a parameter of the wrong type.
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrMissingParam indicates a required parameter was not given.
	ErrMissingParam = errors.New("missing parameter")
)

// ParamError describes a parameter that could not be decoded.
type ParamError struct {
	Action string
	Index  int
	Want   string
	Got    any
	Err    error
}

func (e *ParamError) Error() string {
	if errors.Is(e.Err, ErrMissingParam) {
		return fmt.Sprintf("%s: parameter %d (%s) is required", e.Action, e.Index, e.Want)
	}
	return fmt.Sprintf("%s: parameter %d: want %s, got %T", e.Action, e.Index, e.Want, e.Got)
}

func (e *ParamError) Unwrap() error { return e.Err }

// ActionSource indicates the origin of an action.
type ActionSource uint8

const (
	// SourceAPI indicates the action originated from a Go call.
	SourceAPI ActionSource = iota
	// SourceKeyboard indicates the action originated from a key binding.
	SourceKeyboard
	// SourceScript indicates the action originated from a script.
	SourceScript
	// SourceHTTP indicates the action originated from an HTTP request.
	SourceHTTP
)

// String returns a string representation of the action source.
func (s ActionSource) String() string {
	switch s {
	case SourceAPI:
		return "api"
	case SourceKeyboard:
		return "keyboard"
	case SourceScript:
		return "script"
	case SourceHTTP:
		return "http"
	default:
		return "unknown"
	}
}

// Action represents a command to be executed by the dispatcher.
type Action struct {
	// Name is the stable command ID (e.g., "ToggleBold", "InsertTable").
	Name string

	// Params are the positional command parameters.
	Params []any

	// Source indicates where this action originated.
	Source ActionSource
}

// NewAction creates an action with positional parameters.
func NewAction(name string, params ...any) Action {
	return Action{Name: name, Params: params}
}

// WithSource returns a copy of the action with the specified source.
func (a Action) WithSource(source ActionSource) Action {
	a.Source = source
	return a
}

// String formats the action as a call, e.g. "InsertTable(2, 3)".
func (a Action) String() string {
	var sb strings.Builder
	sb.WriteString(a.Name)
	sb.WriteByte('(')
	for i, p := range a.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		if s, ok := p.(string); ok {
			sb.WriteString(strconv.Quote(s))
		} else {
			fmt.Fprint(&sb, p)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// Param returns parameter i. A nil parameter counts as absent.
func (a Action) Param(i int) (any, bool) {
	if i < 0 || i >= len(a.Params) || a.Params[i] == nil {
		return nil, false
	}
	return a.Params[i], true
}

func (a Action) invalid(i int, want string, got any) error {
	return &ParamError{Action: a.Name, Index: i, Want: want, Got: got, Err: ErrInvalidParam}
}

// Int returns parameter i as an int, or def when it is absent. Whole
// floats and numeric strings are accepted.
func (a Action) Int(i, def int) (int, error) {
	v, ok := a.Param(i)
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, a.invalid(i, "int", v)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, a.invalid(i, "int", v)
		}
		return parsed, nil
	}
	return 0, a.invalid(i, "int", v)
}

// StringParam returns parameter i as a string, or def when it is absent.
func (a Action) StringParam(i int, def string) (string, error) {
	v, ok := a.Param(i)
	if !ok {
		return def, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", a.invalid(i, "string", v)
}

// RequireString returns parameter i as a non-empty string.
func (a Action) RequireString(i int) (string, error) {
	s, err := a.StringParam(i, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &ParamError{Action: a.Name, Index: i, Want: "string", Err: ErrMissingParam}
	}
	return s, nil
}

// Bool returns parameter i as a bool, or def when it is absent. The
// strings "true" and "false" are accepted.
func (a Action) Bool(i int, def bool) (bool, error) {
	v, ok := a.Param(i)
	if !ok {
		return def, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, a.invalid(i, "bool", v)
		}
		return parsed, nil
	}
	return false, a.invalid(i, "bool", v)
}
