// Package inmem implements sourcekitd.Daemon in pure Go.
//
// It mirrors the reference-counting rules of the real library and renders
// descriptions the same way, which makes it usable both as an offline backend
// and as a test harness: every primitive call, retain and release is counted,
// and any primitive can be told to fail.
package inmem

import (
	"sync"

	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
)

// Op identifies a daemon primitive.
type Op int

// Primitives that can be counted and failed.
const (
	OpIntern Op = iota
	OpUIDValue
	OpInt64
	OpString
	OpArray
	OpDictionary
	OpSetValue
	OpDescribe
)

var opNames = [...]string{
	OpIntern:     "intern",
	OpUIDValue:   "uid",
	OpInt64:      "int64",
	OpString:     "string",
	OpArray:      "array",
	OpDictionary: "dictionary",
	OpSetValue:   "set_value",
	OpDescribe:   "describe",
}

func (o Op) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// Kind is the kind of a request value node.
type Kind int

// Value kinds.
const (
	KindInt64 Kind = iota
	KindString
	KindUID
	KindArray
	KindDictionary
)

// Stats is a snapshot of handle accounting.
type Stats struct {
	Created  int // handles returned by New* primitives
	Retained int // successful Retain calls
	Released int // Release calls that dropped a reference
	Freed    int // nodes whose last reference was dropped
	Invalid  int // Release or Retain calls on a handle that is not live
	Live     int // nodes currently allocated
	UIDs     int // interned identifiers
}

type node struct {
	kind Kind
	refs int

	i   int64
	s   string
	uid sourcekitd.UID

	elems []sourcekitd.Object

	// dictionary entries in insertion order
	keys   []sourcekitd.UID
	values map[sourcekitd.UID]sourcekitd.Object
}

// Daemon is an in-memory sourcekitd. The zero value is not usable; use New.
type Daemon struct {
	mu sync.Mutex

	uids  map[string]sourcekitd.UID
	names []string // names[h-1] backs UID h

	nodes map[sourcekitd.Object]*node
	next  sourcekitd.Object

	calls map[Op]int
	fail  map[Op]int // remaining failures per op; -1 fails forever
	stats Stats
}

var _ sourcekitd.Daemon = (*Daemon)(nil)

// New creates an empty daemon.
func New() *Daemon {
	return &Daemon{
		uids:  make(map[string]sourcekitd.UID),
		nodes: make(map[sourcekitd.Object]*node),
		next:  1,
		calls: make(map[Op]int),
		fail:  make(map[Op]int),
	}
}

// FailOn makes the next n calls of op return no handle.
// n < 0 fails every call until Reset.
func (d *Daemon) FailOn(op Op, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[op] = n
}

// Reset clears all failure injections.
func (d *Daemon) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = make(map[Op]int)
}

// Calls returns how many times op has been invoked.
func (d *Daemon) Calls(op Op) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

// Stats returns a snapshot of handle accounting.
func (d *Daemon) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.Live = len(d.nodes)
	s.UIDs = len(d.names)
	return s
}

// Live returns the number of allocated value nodes.
func (d *Daemon) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.nodes)
}

// KindOf reports the kind of a live handle.
func (d *Daemon) KindOf(o sourcekitd.Object) (Kind, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[o]
	if !ok {
		return 0, false
	}
	return n.kind, true
}

// RefCount returns the reference count of a handle, 0 if it is not live.
func (d *Daemon) RefCount(o sourcekitd.Object) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.nodes[o]; ok {
		return n.refs
	}
	return 0
}

// enter records a call and reports whether it should fail. Callers hold mu.
func (d *Daemon) enter(op Op) bool {
	d.calls[op]++
	n, ok := d.fail[op]
	if !ok || n == 0 {
		return false
	}
	if n > 0 {
		d.fail[op] = n - 1
	}
	return true
}

func (d *Daemon) alloc(n *node) sourcekitd.Object {
	h := d.next
	d.next++
	n.refs = 1
	d.nodes[h] = n
	d.stats.Created++
	return h
}

// retainLocked increments the count of a live handle.
func (d *Daemon) retainLocked(o sourcekitd.Object) bool {
	n, ok := d.nodes[o]
	if !ok {
		d.stats.Invalid++
		return false
	}
	n.refs++
	return true
}

func (d *Daemon) releaseLocked(o sourcekitd.Object) {
	n, ok := d.nodes[o]
	if !ok {
		d.stats.Invalid++
		return
	}
	d.stats.Released++
	n.refs--
	if n.refs > 0 {
		return
	}
	delete(d.nodes, o)
	d.stats.Freed++
	for _, e := range n.elems {
		d.releaseLocked(e)
	}
	for _, k := range n.keys {
		d.releaseLocked(n.values[k])
	}
}

// UIDFromString implements sourcekitd.InternTable.
func (d *Daemon) UIDFromString(s string) sourcekitd.UID {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enter(OpIntern) {
		return 0
	}
	if u, ok := d.uids[s]; ok {
		return u
	}
	d.names = append(d.names, s)
	u := sourcekitd.UID(len(d.names))
	d.uids[s] = u
	return u
}

// UIDString implements sourcekitd.InternTable.
func (d *Daemon) UIDString(u sourcekitd.UID) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uidName(u)
}

func (d *Daemon) uidName(u sourcekitd.UID) string {
	if u == 0 || int(u) > len(d.names) {
		return ""
	}
	return d.names[u-1]
}

// NewUIDValue implements sourcekitd.Daemon.
func (d *Daemon) NewUIDValue(u sourcekitd.UID) sourcekitd.Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enter(OpUIDValue) || u == 0 || int(u) > len(d.names) {
		return 0
	}
	return d.alloc(&node{kind: KindUID, uid: u})
}

// NewInt64 implements sourcekitd.Daemon.
func (d *Daemon) NewInt64(v int64) sourcekitd.Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enter(OpInt64) {
		return 0
	}
	return d.alloc(&node{kind: KindInt64, i: v})
}

// NewString implements sourcekitd.Daemon.
func (d *Daemon) NewString(s string) sourcekitd.Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enter(OpString) {
		return 0
	}
	return d.alloc(&node{kind: KindString, s: s})
}

// NewArray implements sourcekitd.Daemon.
func (d *Daemon) NewArray(elems []sourcekitd.Object) sourcekitd.Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enter(OpArray) {
		return 0
	}
	for _, e := range elems {
		if _, ok := d.nodes[e]; !ok {
			return 0
		}
	}
	owned := make([]sourcekitd.Object, len(elems))
	for i, e := range elems {
		d.retainLocked(e)
		owned[i] = e
	}
	return d.alloc(&node{kind: KindArray, elems: owned})
}

// NewDictionary implements sourcekitd.Daemon.
// A key supplied twice keeps its first position and its last value.
func (d *Daemon) NewDictionary(keys []sourcekitd.UID, values []sourcekitd.Object) sourcekitd.Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enter(OpDictionary) || len(keys) != len(values) {
		return 0
	}
	for i, k := range keys {
		if k == 0 || int(k) > len(d.names) {
			return 0
		}
		if _, ok := d.nodes[values[i]]; !ok {
			return 0
		}
	}
	n := &node{kind: KindDictionary, values: make(map[sourcekitd.UID]sourcekitd.Object, len(keys))}
	for i, k := range keys {
		d.retainLocked(values[i])
		if old, ok := n.values[k]; ok {
			d.releaseLocked(old)
		} else {
			n.keys = append(n.keys, k)
		}
		n.values[k] = values[i]
	}
	return d.alloc(n)
}

// SetDictionaryValue implements sourcekitd.Daemon.
// Calls on handles that are not live dictionaries are ignored.
func (d *Daemon) SetDictionaryValue(dict sourcekitd.Object, key sourcekitd.UID, value sourcekitd.Object) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.enter(OpSetValue) {
		return
	}
	n, ok := d.nodes[dict]
	if !ok || n.kind != KindDictionary || key == 0 || int(key) > len(d.names) {
		return
	}
	if !d.retainLocked(value) {
		return
	}
	if old, ok := n.values[key]; ok {
		d.releaseLocked(old)
	} else {
		n.keys = append(n.keys, key)
	}
	n.values[key] = value
}

// Retain implements sourcekitd.Daemon.
func (d *Daemon) Retain(o sourcekitd.Object) sourcekitd.Object {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.retainLocked(o) {
		return 0
	}
	d.stats.Retained++
	return o
}

// Release implements sourcekitd.Daemon.
func (d *Daemon) Release(o sourcekitd.Object) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.releaseLocked(o)
}
