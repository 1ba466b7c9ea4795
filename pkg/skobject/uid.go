package skobject

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
)

// DefaultUIDCacheSize is the number of identifiers cached per direction.
const DefaultUIDCacheSize = 1024

// UID is an interned sourcekitd identifier.
//
// UIDs interned from the same string are equal with == and can be used as
// map keys. The zero value is not a valid identifier.
type UID struct {
	handle sourcekitd.UID
	name   string
}

// Handle returns the raw daemon handle.
func (u UID) Handle() sourcekitd.UID { return u.handle }

// String returns the string the identifier was interned from.
func (u UID) String() string { return u.name }

// IsZero reports whether u is the zero UID.
func (u UID) IsZero() bool { return u.handle == 0 }

// SourceKitObject implements Convertible.
func (u UID) SourceKitObject(b *Builder) (sourcekitd.Object, error) {
	if u.handle == 0 {
		return 0, kindMismatch(u, "zero UID")
	}
	h := b.daemon.NewUIDValue(u.handle)
	if h == 0 {
		return 0, failedToCreate(u)
	}
	return h, nil
}

func (u UID) resolve(*Builder) (UID, error) { return u, nil }

// Interner maps strings to identifiers through a sourcekitd intern table.
// It is safe for concurrent use.
type Interner struct {
	table  sourcekitd.InternTable
	logger *slog.Logger

	byName   *lru.Cache[string, sourcekitd.UID]
	byHandle *lru.Cache[sourcekitd.UID, string]
}

type internerConfig struct {
	logger    *slog.Logger
	cacheSize int
}

// InternerOption configures an Interner.
type InternerOption func(*internerConfig)

// WithInternerLogger sets the logger. Defaults to a discard logger.
func WithInternerLogger(l *slog.Logger) InternerOption {
	return func(c *internerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheSize bounds each lookup cache. 0 disables caching.
func WithCacheSize(n int) InternerOption {
	return func(c *internerConfig) {
		if n >= 0 {
			c.cacheSize = n
		}
	}
}

// NewInterner creates an interner backed by table.
func NewInterner(table sourcekitd.InternTable, opts ...InternerOption) *Interner {
	cfg := internerConfig{
		logger:    slog.New(slog.DiscardHandler),
		cacheSize: DefaultUIDCacheSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	in := &Interner{table: table, logger: cfg.logger}
	if cfg.cacheSize > 0 {
		// lru.New only fails for non-positive sizes
		in.byName, _ = lru.New[string, sourcekitd.UID](cfg.cacheSize)
		in.byHandle, _ = lru.New[sourcekitd.UID, string](cfg.cacheSize)
	}
	return in
}

// Intern returns the identifier for s.
//
// It panics if the daemon cannot intern s: a healthy daemon always can, so
// failure means its state is corrupt.
func (in *Interner) Intern(s string) UID {
	u, err := in.TryIntern(s)
	if err != nil {
		in.logger.Error("intern table rejected identifier", "uid", s)
		panic(fmt.Sprintf("skobject: failed to intern UID %q", s))
	}
	return u
}

// TryIntern is Intern returning an error wrapping ErrInternFailed instead of
// panicking.
func (in *Interner) TryIntern(s string) (UID, error) {
	if in.byName != nil {
		if h, ok := in.byName.Get(s); ok {
			return UID{handle: h, name: s}, nil
		}
	}

	h := in.table.UIDFromString(s)
	if h == 0 {
		return UID{}, fmt.Errorf("%w: %q", ErrInternFailed, s)
	}
	if in.byName != nil {
		in.byName.Add(s, h)
		in.byHandle.Add(h, s)
	}
	return UID{handle: h, name: s}, nil
}

// InternKey interns a string-backed key type, such as an enumerated request
// key.
func InternKey[K ~string](in *Interner, key K) UID {
	return in.Intern(string(key))
}

// BackingString reads the identifier's string back from the daemon.
func (in *Interner) BackingString(u UID) string {
	return in.table.UIDString(u.handle)
}

// FromHandle wraps a raw handle obtained from the daemon.
func (in *Interner) FromHandle(h sourcekitd.UID) UID {
	if h == 0 {
		return UID{}
	}
	if in.byHandle != nil {
		if s, ok := in.byHandle.Get(h); ok {
			return UID{handle: h, name: s}
		}
	}
	s := in.table.UIDString(h)
	if in.byHandle != nil {
		in.byHandle.Add(h, s)
	}
	return UID{handle: h, name: s}
}
