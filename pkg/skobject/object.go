package skobject

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
)

// Builder converts Go values into request objects against one daemon.
// A Builder holds no per-request state and may be shared between goroutines
// as long as its daemon and interner allow it.
type Builder struct {
	daemon      sourcekitd.Daemon
	interner    *Interner
	logger      *slog.Logger
	recoverable bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithInterner shares an interner between builders. By default each builder
// creates one over its daemon.
func WithInterner(in *Interner) Option {
	return func(b *Builder) { b.interner = in }
}

// WithRecoverableIntern reports interning failures hit during conversion as
// *ConversionError instead of panicking.
func WithRecoverableIntern() Option {
	return func(b *Builder) { b.recoverable = true }
}

// NewBuilder creates a builder over d.
func NewBuilder(d sourcekitd.Daemon, opts ...Option) *Builder {
	b := &Builder{
		daemon: d,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.interner == nil {
		b.interner = NewInterner(d, WithInternerLogger(b.logger))
	}
	return b
}

// Daemon returns the daemon objects are created on.
func (b *Builder) Daemon() sourcekitd.Daemon { return b.daemon }

// Interner returns the builder's interner.
func (b *Builder) Interner() *Interner { return b.interner }

// Intern is shorthand for b.Interner().Intern(s).
func (b *Builder) Intern(s string) UID { return b.interner.Intern(s) }

func (b *Builder) intern(s string) (UID, error) {
	if !b.recoverable {
		return b.interner.Intern(s), nil
	}
	u, err := b.interner.TryIntern(s)
	if err != nil {
		return UID{}, &ConversionError{Value: render(s), Err: err}
	}
	return u, nil
}

func (b *Builder) releaseAll(hs []sourcekitd.Object) {
	for _, h := range hs {
		b.daemon.Release(h)
	}
}

// Wrap takes ownership of an existing handle.
func (b *Builder) Wrap(h sourcekitd.Object) *Object {
	return &Object{b: b, handle: h}
}

// Convert builds an object from any convertible value.
func (b *Builder) Convert(c Convertible) (*Object, error) {
	h, err := convert(b, c)
	if err != nil {
		b.logger.Debug("request conversion failed", "error", err)
		return nil, err
	}
	return b.Wrap(h), nil
}

// Array builds an array object.
func (b *Builder) Array(elems ...Convertible) (*Object, error) {
	return b.Convert(Array[Convertible](elems))
}

// Dict builds a dictionary object from ordered pairs.
func (b *Builder) Dict(pairs ...Pair) (*Object, error) {
	return b.Convert(Dict(pairs))
}

// Int builds an integer object.
func (b *Builder) Int(n int) (*Object, error) { return b.Convert(Int(n)) }

// Int64 builds an integer object.
func (b *Builder) Int64(n int64) (*Object, error) { return b.Convert(Int64(n)) }

// String builds a string object.
func (b *Builder) String(s string) (*Object, error) { return b.Convert(String(s)) }

// Value builds an object from a dynamically typed Go value; see ValueOf.
func (b *Builder) Value(v any) (*Object, error) {
	c, err := ValueOf(v)
	if err != nil {
		b.logger.Debug("request conversion failed", "error", err)
		return nil, err
	}
	return b.Convert(c)
}

// Describe renders c without keeping the converted handle.
func (b *Builder) Describe(c Convertible) (string, error) {
	h, err := convert(b, c)
	if err != nil {
		return "", err
	}
	defer b.daemon.Release(h)
	return b.daemon.Describe(h), nil
}

// noCopy lets go vet report copies of an Object.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Object owns one reference to a request handle.
//
// Pass Objects by pointer. Release must be called exactly once when the
// object is no longer needed; later calls do nothing.
type Object struct {
	_ noCopy

	b      *Builder
	handle sourcekitd.Object
}

// Handle returns the owned handle without transferring ownership.
// It is 0 after Release or Take.
func (o *Object) Handle() sourcekitd.Object {
	if o == nil {
		return 0
	}
	return o.handle
}

// Take transfers ownership of the handle to the caller, leaving o empty.
func (o *Object) Take() sourcekitd.Object {
	if o == nil {
		return 0
	}
	h := o.handle
	o.handle = 0
	return h
}

// Release gives the handle back to the daemon.
func (o *Object) Release() {
	if o == nil || o.handle == 0 {
		return
	}
	h := o.handle
	o.handle = 0
	o.b.daemon.Release(h)
}

// String renders the object with the daemon's description primitive.
func (o *Object) String() string {
	if o == nil || o.handle == 0 {
		return "<released>"
	}
	return o.b.daemon.Describe(o.handle)
}

// SourceKitObject implements Convertible by retaining the owned handle, so
// objects can be nested in other values without giving up ownership.
func (o *Object) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	if o == nil || o.handle == 0 {
		return 0, &ConversionError{Value: "*skobject.Object", Err: ErrReleased}
	}
	h := b.daemon.Retain(o.handle)
	if h == 0 {
		return 0, failedToCreate(o)
	}
	return h, nil
}

// SetValue sets key to value on a dictionary object, replacing any existing
// entry. The daemon defines what happens when o is not a dictionary.
func (o *Object) SetValue(key UID, value Convertible) error {
	if o == nil || o.handle == 0 {
		return ErrReleased
	}
	if key.IsZero() {
		return kindMismatch(key, "zero UID key")
	}
	if v, ok := value.(*Object); ok && v != nil && v.handle == o.handle {
		return fmt.Errorf("set %q: %w", key.name, kindMismatch(o, "dictionary cannot contain itself"))
	}
	h, err := convert(o.b, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key.name, err)
	}
	defer o.b.daemon.Release(h)
	o.b.daemon.SetDictionaryValue(o.handle, key.handle, h)
	return nil
}

// SetValueForName interns name and sets it to value.
func (o *Object) SetValueForName(name string, value Convertible) error {
	if o == nil || o.handle == 0 {
		return ErrReleased
	}
	key, err := o.b.intern(name)
	if err != nil {
		return err
	}
	return o.SetValue(key, value)
}

// SetValueFor sets a string-backed key, such as an enumerated request key.
func SetValueFor[K ~string](o *Object, key K, value Convertible) error {
	return o.SetValueForName(string(key), value)
}
