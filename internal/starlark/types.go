// Package starlark evaluates request scripts and converts their results into
// skobject value trees.
package starlark

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sourcekit/pkg/skobject"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ErrUnsupported is wrapped by conversion errors for values with no request
// representation.
var ErrUnsupported = errors.New("no request representation")

// UID is an identifier value created by the uid() builtin.
// It converts to an interned identifier.
type UID string

var (
	_ starlark.Value      = UID("")
	_ starlark.Comparable = UID("")
)

func (u UID) String() string        { return "uid(" + strconv.Quote(string(u)) + ")" }
func (u UID) Type() string          { return "uid" }
func (u UID) Freeze()               {}
func (u UID) Truth() starlark.Bool  { return u != "" }
func (u UID) Hash() (uint32, error) { return starlark.String(u).Hash() }

// CompareSameType implements starlark.Comparable.
func (u UID) CompareSameType(op syntax.Token, y starlark.Value, _ int) (bool, error) {
	other := y.(UID)
	switch op {
	case syntax.EQL:
		return u == other, nil
	case syntax.NEQ:
		return u != other, nil
	default:
		return false, fmt.Errorf("%s %s %s not implemented", u.Type(), op, y.Type())
	}
}

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]any
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := GoToStarlark(v)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// maxDepth bounds how deep ToRequest descends into lists, tuples and dicts.
const maxDepth = 512

// ToRequest converts a Starlark value into a request value.
//
// Strings stay strings, ints become 64-bit integers, bools become 1 or 0,
// dicts keep insertion order, lists and tuples become arrays and uid()
// values become identifiers. Anything else, including a list or dict that
// contains itself, wraps ErrUnsupported.
func ToRequest(v starlark.Value) (skobject.Convertible, error) {
	c := &converter{active: make(map[starlark.Value]bool)}
	return c.value(v, 0)
}

// converter tracks the lists and dicts on the current path.
type converter struct {
	active map[starlark.Value]bool
}

func (c *converter) value(v starlark.Value, depth int) (skobject.Convertible, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupported, maxDepth)
	}

	switch val := v.(type) {
	case starlark.String:
		return skobject.String(val), nil

	case UID:
		return skobject.Ident(val), nil

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("%w: int %s overflows int64", ErrUnsupported, val)
		}
		return skobject.Int64(i64), nil

	case starlark.Bool:
		if val {
			return skobject.Int64(1), nil
		}
		return skobject.Int64(0), nil

	case *starlark.List:
		if err := c.enter(val); err != nil {
			return nil, err
		}
		defer delete(c.active, val)
		return c.sequence(val, "list", depth)

	case starlark.Tuple:
		return c.sequence(val, "tuple", depth)

	case *starlark.Dict:
		if err := c.enter(val); err != nil {
			return nil, err
		}
		defer delete(c.active, val)
		return c.dict(val, depth)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, v.Type())
	}
}

func (c *converter) enter(v starlark.Value) error {
	if c.active[v] {
		return fmt.Errorf("%w: %s contains itself", ErrUnsupported, v.Type())
	}
	c.active[v] = true
	return nil
}

func (c *converter) dict(val *starlark.Dict, depth int) (skobject.Convertible, error) {
	items := val.Items()
	dict := make(skobject.Dict, 0, len(items))
	for _, item := range items {
		var key string
		switch k := item[0].(type) {
		case starlark.String:
			key = string(k)
		case UID:
			key = string(k)
		default:
			return nil, fmt.Errorf("%w: dict key must be string or uid, got %s", ErrUnsupported, item[0].Type())
		}
		rv, err := c.value(item[1], depth+1)
		if err != nil {
			return nil, fmt.Errorf("dict key %q: %w", key, err)
		}
		dict = append(dict, skobject.Entry(key, rv))
	}
	return dict, nil
}

func (c *converter) sequence(seq starlark.Indexable, kind string, depth int) (skobject.Convertible, error) {
	arr := make(skobject.Array[skobject.Convertible], seq.Len())
	for i := 0; i < seq.Len(); i++ {
		rv, err := c.value(seq.Index(i), depth+1)
		if err != nil {
			return nil, fmt.Errorf("%s index %d: %w", kind, i, err)
		}
		arr[i] = rv
	}
	return arr, nil
}
