package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Attrs holds attribute values for a node or mark.
// Attrs values are treated as immutable once attached to a node.
type Attrs map[string]any

// AttrSpec declares one attribute of a node or mark type.
type AttrSpec struct {
	// Default is used when no value is given.
	Default any

	// Required means the attribute has no default and must be supplied.
	Required bool
}

// Get returns the raw value for name.
func (a Attrs) Get(name string) any {
	if a == nil {
		return nil
	}
	return a[name]
}

// String returns the value for name as a string. Non-string values are
// formatted with fmt.
func (a Attrs) String(name string) string {
	switch v := a.Get(name).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the value for name as an int, or 0.
func (a Attrs) Int(name string) int {
	n, _ := toInt(a.Get(name))
	return n
}

// Bool returns the value for name as a bool.
func (a Attrs) Bool(name string) bool {
	b, _ := a.Get(name).(bool)
	return b
}

// With returns a copy of a with name set to value.
func (a Attrs) With(name string, value any) Attrs {
	out := make(Attrs, len(a)+1)
	for k, v := range a {
		out[k] = v
	}
	out[name] = value
	return out
}

// Keys returns the attribute names in sorted order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports whether both attribute sets hold the same values.
// Numbers compare by value regardless of their Go type.
func (a Attrs) Equal(b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok || !ValuesEqual(v, w) {
			return false
		}
	}
	return true
}

// ValuesEqual compares two attribute values.
func ValuesEqual(a, b any) bool {
	if ai, ok := toInt(a); ok {
		bi, ok := toInt(b)
		return ok && ai == bi
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// normalizeValue converts JSON decoded numbers to int so that attribute
// values compare and print consistently.
func normalizeValue(v any) any {
	if n, ok := toInt(v); ok {
		return n
	}
	return v
}

// computeAttrs fills defaults and validates names against specs.
func computeAttrs(owner string, specs map[string]AttrSpec, given Attrs) (Attrs, error) {
	out := make(Attrs, len(specs))
	for name, spec := range specs {
		v, ok := given[name]
		if !ok {
			if spec.Required {
				return nil, fmt.Errorf("%w: %s.%s", ErrMissingAttr, owner, name)
			}
			v = spec.Default
		}
		out[name] = normalizeValue(v)
	}
	for name := range given {
		if _, ok := specs[name]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttr, owner, name)
		}
	}
	return out, nil
}
