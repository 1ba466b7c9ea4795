package skobject

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// maxNesting bounds how deep ValueOf descends into slices and maps.
const maxNesting = 512

var errTooDeep = fmt.Errorf("%w: nesting deeper than %d", ErrKindMismatch, maxNesting)

var (
	convertibleType = reflect.TypeOf((*Convertible)(nil)).Elem()
	uidType         = reflect.TypeOf(UID{})
)

// ValueOf maps a dynamically typed Go value onto the request kinds.
//
// Supported: Convertible values, string, signed and unsigned integers that
// fit in int64, bool (1 or 0), slices and arrays, and maps keyed by strings,
// string-backed types or UID. Map entries are sorted by key.
//
// The whole value is checked before anything is created on the daemon. A
// slice or map whose declared element type has no request representation is
// rejected as a whole, even when it is empty.
func ValueOf(v any) (Convertible, error) {
	return valueOf(v, 0)
}

func valueOf(v any, depth int) (Convertible, error) {
	if depth > maxNesting {
		return nil, tooDeep(v)
	}
	if v == nil {
		return nil, kindMismatch(nil, "nil value")
	}

	switch val := v.(type) {
	case Convertible:
		return val, nil
	case string:
		return String(val), nil
	case int:
		return Int64(val), nil
	case int64:
		return Int64(val), nil
	case bool:
		if val {
			return Int64(1), nil
		}
		return Int64(0), nil
	case []any:
		arr := make(Array[Convertible], len(val))
		for i, item := range val {
			c, err := valueOf(item, depth+1)
			if err != nil {
				return nil, wrapPath(err, "array index %d", i)
			}
			arr[i] = c
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := make(Dict, len(keys))
		for i, k := range keys {
			c, err := valueOf(val[k], depth+1)
			if err != nil {
				return nil, wrapPath(err, "dictionary key %q", k)
			}
			d[i] = Entry(k, c)
		}
		return d, nil
	}

	return reflectValue(reflect.ValueOf(v), depth)
}

func reflectValue(rv reflect.Value, depth int) (Convertible, error) {
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int64(rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, kindMismatch(rv.Interface(), "%d overflows int64", u)
		}
		return Int64(int64(u)), nil

	case reflect.Bool:
		if rv.Bool() {
			return Int64(1), nil
		}
		return Int64(0), nil

	case reflect.Slice, reflect.Array:
		if !convertibleKind(rv.Type().Elem(), nil) {
			return nil, kindMismatch(rv.Interface(), "element type %s", rv.Type().Elem())
		}
		arr := make(Array[Convertible], rv.Len())
		for i := 0; i < rv.Len(); i++ {
			c, err := elemValue(rv.Index(i), depth+1)
			if err != nil {
				return nil, wrapPath(err, "array index %d", i)
			}
			arr[i] = c
		}
		return arr, nil

	case reflect.Map:
		t := rv.Type()
		if t.Key() != uidType && t.Key().Kind() != reflect.String {
			return nil, kindMismatch(rv.Interface(), "key type %s", t.Key())
		}
		if !convertibleKind(t.Elem(), nil) {
			return nil, kindMismatch(rv.Interface(), "value type %s", t.Elem())
		}
		return mapValue(rv, depth)
	}

	if rv.IsValid() {
		return nil, kindMismatch(rv.Interface(), "unsupported type %s", rv.Type())
	}
	return nil, kindMismatch(nil, "invalid value")
}

// elemValue converts a slice element or map value, unwrapping interfaces.
func elemValue(rv reflect.Value, depth int) (Convertible, error) {
	if depth > maxNesting {
		return nil, tooDeep(rv.Type())
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, kindMismatch(nil, "nil value")
		}
		return valueOf(rv.Elem().Interface(), depth)
	}
	if rv.CanInterface() {
		if c, ok := rv.Interface().(Convertible); ok {
			return c, nil
		}
	}
	return reflectValue(rv, depth)
}

func mapValue(rv reflect.Value, depth int) (Convertible, error) {
	type entry struct {
		name string
		key  Key
		val  reflect.Value
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key()
		if k.Type() == uidType {
			u := k.Interface().(UID)
			entries = append(entries, entry{name: u.name, key: u, val: iter.Value()})
			continue
		}
		entries = append(entries, entry{name: k.String(), key: Name(k.String()), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	d := make(Dict, len(entries))
	for i, e := range entries {
		c, err := elemValue(e.val, depth+1)
		if err != nil {
			return nil, wrapPath(err, "dictionary key %q", e.name)
		}
		d[i] = Pair{Key: e.key, Value: c}
	}
	return d, nil
}

// convertibleKind reports whether values of type t can have a request
// representation. Interface types other than Convertible are checked per value.
// Types already on the walk, such as type Tree map[string]Tree, count as
// convertible.
func convertibleKind(t reflect.Type, walking map[reflect.Type]bool) bool {
	if t.Implements(convertibleType) || walking[t] {
		return true
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if walking == nil {
			walking = make(map[reflect.Type]bool)
		}
		walking[t] = true
		defer delete(walking, t)
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	case reflect.Interface:
		return true
	case reflect.Slice, reflect.Array:
		return convertibleKind(t.Elem(), walking)
	case reflect.Map:
		return (t.Key() == uidType || t.Key().Kind() == reflect.String) && convertibleKind(t.Elem(), walking)
	default:
		return false
	}
}

// tooDeep reports a value nested past maxNesting. Only the type of v is
// rendered since the value itself may be cyclic.
func tooDeep(v any) error {
	name := "<nil>"
	switch t := v.(type) {
	case reflect.Type:
		name = t.String()
	case nil:
	default:
		name = reflect.TypeOf(v).String()
	}
	return &ConversionError{Value: name, Err: errTooDeep}
}

// wrapPath prefixes err with the position it was found at. Nesting errors
// are passed up unchanged so the message stays short.
func wrapPath(err error, format string, args ...any) error {
	if errors.Is(err, errTooDeep) {
		return err
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
