//go:build cgo && sourcekitd

// Package native binds sourcekitd.Daemon to libsourcekitdInProc through cgo.
//
// Build with -tags sourcekitd and point CGO_CFLAGS/CGO_LDFLAGS at a Swift
// toolchain that ships sourcekitd.h and the in-process library.
package native

/*
#cgo LDFLAGS: -lsourcekitdInProc
#include <stdlib.h>
#include <sourcekitd/sourcekitd.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
)

var (
	initOnce sync.Once
	shared   *Daemon
)

// Daemon calls the in-process sourcekitd library.
type Daemon struct{}

var _ sourcekitd.Daemon = (*Daemon)(nil)

// Open initializes sourcekitd once per process and returns the shared daemon.
// The library is never shut down; its intern table lives for the process.
func Open() (sourcekitd.Daemon, error) {
	initOnce.Do(func() {
		C.sourcekitd_initialize()
		shared = &Daemon{}
	})
	return shared, nil
}

func toObject(o sourcekitd.Object) C.sourcekitd_object_t {
	return C.sourcekitd_object_t(unsafe.Pointer(o)) //nolint:govet // handle owned by C
}

func toUID(u sourcekitd.UID) C.sourcekitd_uid_t {
	return C.sourcekitd_uid_t(unsafe.Pointer(u)) //nolint:govet // handle owned by C
}

// UIDFromString implements sourcekitd.InternTable.
func (*Daemon) UIDFromString(s string) sourcekitd.UID {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return sourcekitd.UID(uintptr(unsafe.Pointer(C.sourcekitd_uid_get_from_cstr(cs))))
}

// UIDString implements sourcekitd.InternTable.
func (*Daemon) UIDString(u sourcekitd.UID) string {
	p := C.sourcekitd_uid_get_string_ptr(toUID(u))
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

// NewUIDValue implements sourcekitd.Daemon.
func (*Daemon) NewUIDValue(u sourcekitd.UID) sourcekitd.Object {
	return sourcekitd.Object(uintptr(unsafe.Pointer(C.sourcekitd_request_uid_create(toUID(u)))))
}

// NewInt64 implements sourcekitd.Daemon.
func (*Daemon) NewInt64(v int64) sourcekitd.Object {
	return sourcekitd.Object(uintptr(unsafe.Pointer(C.sourcekitd_request_int64_create(C.int64_t(v)))))
}

// NewString implements sourcekitd.Daemon.
func (*Daemon) NewString(s string) sourcekitd.Object {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return sourcekitd.Object(uintptr(unsafe.Pointer(C.sourcekitd_request_string_create(cs))))
}

// NewArray implements sourcekitd.Daemon.
func (*Daemon) NewArray(elems []sourcekitd.Object) sourcekitd.Object {
	objs := cObjects(elems)
	defer C.free(unsafe.Pointer(objs))
	return sourcekitd.Object(uintptr(unsafe.Pointer(
		C.sourcekitd_request_array_create(objs, C.size_t(len(elems))))))
}

// NewDictionary implements sourcekitd.Daemon.
func (*Daemon) NewDictionary(keys []sourcekitd.UID, values []sourcekitd.Object) sourcekitd.Object {
	if len(keys) != len(values) {
		return 0
	}
	objs := cObjects(values)
	defer C.free(unsafe.Pointer(objs))

	uids := (*C.sourcekitd_uid_t)(C.calloc(C.size_t(len(keys)+1), C.size_t(unsafe.Sizeof(C.sourcekitd_uid_t(nil)))))
	defer C.free(unsafe.Pointer(uids))
	us := unsafe.Slice(uids, len(keys)+1)
	for i, k := range keys {
		us[i] = toUID(k)
	}
	return sourcekitd.Object(uintptr(unsafe.Pointer(
		C.sourcekitd_request_dictionary_create(uids, objs, C.size_t(len(keys))))))
}

// cObjects copies handles into a C array the caller frees.
func cObjects(elems []sourcekitd.Object) *C.sourcekitd_object_t {
	arr := (*C.sourcekitd_object_t)(C.calloc(C.size_t(len(elems)+1), C.size_t(unsafe.Sizeof(C.sourcekitd_object_t(nil)))))
	out := unsafe.Slice(arr, len(elems)+1)
	for i, e := range elems {
		out[i] = toObject(e)
	}
	return arr
}

// Describe implements sourcekitd.Daemon.
func (*Daemon) Describe(o sourcekitd.Object) string {
	p := C.sourcekitd_request_description_copy(toObject(o))
	if p == nil {
		return ""
	}
	defer C.free(unsafe.Pointer(p))
	return C.GoString(p)
}

// SetDictionaryValue implements sourcekitd.Daemon.
func (*Daemon) SetDictionaryValue(dict sourcekitd.Object, key sourcekitd.UID, value sourcekitd.Object) {
	C.sourcekitd_request_dictionary_set_value(toObject(dict), toUID(key), toObject(value))
}

// Retain implements sourcekitd.Daemon.
func (*Daemon) Retain(o sourcekitd.Object) sourcekitd.Object {
	return sourcekitd.Object(uintptr(unsafe.Pointer(C.sourcekitd_request_retain(toObject(o)))))
}

// Release implements sourcekitd.Daemon.
func (*Daemon) Release(o sourcekitd.Object) {
	C.sourcekitd_request_release(toObject(o))
}
