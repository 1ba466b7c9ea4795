// Package sourcekitd defines the boundary between Go code and the sourcekitd
// request API.
//
// sourcekitd exposes requests as opaque handles built from a closed set of
// kinds: 64-bit integers, UTF-8 strings, interned identifiers (UIDs), arrays
// and UID-keyed dictionaries. This package only describes that surface:
//   - UID and Object are the raw handle types
//   - InternTable is the process-wide identifier table
//   - Daemon is the full set of request primitives
//
// Implementations live in sub-packages: inmem is a pure-Go reference
// implementation, native binds the real library through cgo.
//
// The Golden Rule: pkg/sourcekitd imports ONLY stdlib.
package sourcekitd

import "errors"

// UID is an interned identifier handle. The zero value means "no handle".
type UID uintptr

// Object is a request value handle. The zero value means "no handle".
type Object uintptr

// ErrUnavailable is returned when a daemon backend cannot be opened.
var ErrUnavailable = errors.New("sourcekitd: backend unavailable")

// InternTable interns identifier strings.
// Implementations must be safe for concurrent use.
type InternTable interface {
	// UIDFromString returns the handle interned for s, creating it if needed.
	// Returns 0 if the string cannot be interned.
	UIDFromString(s string) UID

	// UIDString returns the string backing an interned handle.
	UIDString(u UID) string
}

// Daemon is the request-construction surface of sourcekitd.
//
// Every New* primitive returns a handle with one reference owned by the
// caller, or 0 on failure. Composite constructors and SetDictionaryValue
// retain the handles passed to them; the caller keeps its own references.
type Daemon interface {
	InternTable

	NewUIDValue(u UID) Object
	NewInt64(v int64) Object
	NewString(s string) Object
	NewArray(elems []Object) Object
	// NewDictionary takes parallel key/value slices of equal length.
	NewDictionary(keys []UID, values []Object) Object

	// Describe renders the handle as text. Implementations copy the native
	// buffer into a Go string and free it.
	Describe(o Object) string

	// SetDictionaryValue sets key to value on a dictionary handle, replacing
	// any existing entry. Behavior on non-dictionary handles is undefined.
	SetDictionaryValue(dict Object, key UID, value Object)

	Retain(o Object) Object
	Release(o Object)
}
