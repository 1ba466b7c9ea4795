package skobject

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
)

// Convertible is implemented by values that have a request representation.
//
// SourceKitObject returns a handle holding one reference that the caller
// must release.
type Convertible interface {
	SourceKitObject(b *Builder) (sourcekitd.Object, error)
}

var (
	_ Convertible = Int(0)
	_ Convertible = Int64(0)
	_ Convertible = String("")
	_ Convertible = Ident("")
	_ Convertible = UID{}
	_ Convertible = (*Object)(nil)
	_ Convertible = Array[Int]{}
	_ Convertible = Dict{}
	_ Convertible = Map[string, Int]{}
	_ Convertible = UIDMap[Int]{}
)

// convert runs c's conversion, rejecting nil values.
func convert(b *Builder, c Convertible) (sourcekitd.Object, error) {
	if c == nil {
		return 0, kindMismatch(nil, "nil value")
	}
	return c.SourceKitObject(b)
}

// Int converts through Int64.
type Int int

// SourceKitObject implements Convertible.
func (v Int) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	return Int64(v).SourceKitObject(b)
}

// Int64 is a request integer.
type Int64 int64

// SourceKitObject implements Convertible.
func (v Int64) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	h := b.daemon.NewInt64(int64(v))
	if h == 0 {
		return 0, failedToCreate(v)
	}
	return h, nil
}

// String is a request string. The daemon copies its bytes.
type String string

// SourceKitObject implements Convertible.
func (v String) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	h := b.daemon.NewString(string(v))
	if h == 0 {
		return 0, failedToCreate(v)
	}
	return h, nil
}

// Ident is an identifier value named by its string. It is interned when
// converted, so literals can name UIDs without an Interner in scope.
type Ident string

// SourceKitObject implements Convertible.
func (v Ident) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	u, err := b.intern(string(v))
	if err != nil {
		return 0, err
	}
	return u.SourceKitObject(b)
}

// Array is an ordered sequence of request values.
type Array[T Convertible] []T

// NewArray builds an array object from elems.
func NewArray[T Convertible](b *Builder, elems []T) (*Object, error) {
	return b.Convert(Array[T](elems))
}

// SourceKitObject implements Convertible.
// The first failing element aborts the conversion.
func (a Array[T]) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	elems := make([]sourcekitd.Object, 0, len(a))
	defer func() { b.releaseAll(elems) }()

	for i, e := range a {
		h, err := convert(b, e)
		if err != nil {
			return 0, fmt.Errorf("array index %d: %w", i, err)
		}
		elems = append(elems, h)
	}

	h := b.daemon.NewArray(elems)
	if h == 0 {
		return 0, failedToCreate(a)
	}
	return h, nil
}

// Key names a dictionary entry. It is implemented by UID and Name only.
type Key interface {
	resolve(b *Builder) (UID, error)
}

// Name is a dictionary key given as a raw string; it is interned on use.
type Name string

func (n Name) resolve(b *Builder) (UID, error) { return b.intern(string(n)) }

// Pair is one dictionary entry.
type Pair struct {
	Key   Key
	Value Convertible
}

// Entry returns a pair keyed by a raw string.
func Entry(key string, value Convertible) Pair {
	return Pair{Key: Name(key), Value: value}
}

// Dict is a dictionary given as ordered pairs. The order is passed to the
// daemon unchanged.
type Dict []Pair

// SourceKitObject implements Convertible.
func (d Dict) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	keys := make([]sourcekitd.UID, 0, len(d))
	values := make([]sourcekitd.Object, 0, len(d))
	defer func() { b.releaseAll(values) }()

	for i, p := range d {
		if p.Key == nil {
			return 0, kindMismatch(d, "entry %d has no key", i)
		}
		k, err := p.Key.resolve(b)
		if err != nil {
			return 0, fmt.Errorf("dictionary entry %d: %w", i, err)
		}
		if k.IsZero() {
			return 0, kindMismatch(d, "entry %d has zero UID key", i)
		}
		h, err := convert(b, p.Value)
		if err != nil {
			return 0, fmt.Errorf("dictionary key %q: %w", k.name, err)
		}
		keys = append(keys, k.handle)
		values = append(values, h)
	}

	h := b.daemon.NewDictionary(keys, values)
	if h == 0 {
		return 0, failedToCreate(d)
	}
	return h, nil
}

// Map is a dictionary keyed by strings or string-backed enumerations.
// Entries are sorted by key since Go maps have no order.
type Map[K ~string, V Convertible] map[K]V

// NewMap builds a dictionary object from m.
func NewMap[K ~string, V Convertible](b *Builder, m map[K]V) (*Object, error) {
	return b.Convert(Map[K, V](m))
}

// SourceKitObject implements Convertible.
func (m Map[K, V]) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, string(k))
	}
	sort.Strings(names)

	d := make(Dict, len(names))
	for i, n := range names {
		d[i] = Pair{Key: Name(n), Value: m[K(n)]}
	}
	return d.SourceKitObject(b)
}

// UIDMap is a dictionary keyed by interned identifiers.
// Entries are sorted by the identifiers' strings.
type UIDMap[V Convertible] map[UID]V

// NewUIDMap builds a dictionary object from m.
func NewUIDMap[V Convertible](b *Builder, m map[UID]V) (*Object, error) {
	return b.Convert(UIDMap[V](m))
}

// SourceKitObject implements Convertible.
func (m UIDMap[V]) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	keys := make([]UID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].name < keys[j].name })

	d := make(Dict, len(keys))
	for i, k := range keys {
		d[i] = Pair{Key: k, Value: m[k]}
	}
	return d.SourceKitObject(b)
}
