package skobject

import (
	"testing"

	"github.com/leapstack-labs/sourcekit/internal/testutil"
	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requestKey string

const keyOffset requestKey = "key.offset"

func TestInterner_Intern(t *testing.T) {
	tests := []struct {
		name      string
		cacheSize int
	}{
		{name: "cached", cacheSize: DefaultUIDCacheSize},
		{name: "uncached", cacheSize: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := inmem.New()
			in := NewInterner(d, WithCacheSize(tt.cacheSize), WithInternerLogger(testutil.NewTestLogger(t)))

			for _, s := range []string{"key.request", "source.lang.swift", "", "ключ.юникод"} {
				a := in.Intern(s)
				b := in.Intern(s)
				assert.Equal(t, a, b, "interning %q twice", s)
				assert.True(t, a == b)
				assert.Equal(t, s, in.BackingString(a))
				assert.Equal(t, s, a.String())
				assert.False(t, a.IsZero())
			}

			assert.NotEqual(t, in.Intern("key.line"), in.Intern("key.column"))
		})
	}
}

func TestInterner_MapKeys(t *testing.T) {
	in := NewInterner(inmem.New())

	m := map[UID]int{in.Intern("key.line"): 1}
	m[in.Intern("key.line")] = 2

	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[in.Intern("key.line")])
}

func TestInterner_CacheSkipsDaemon(t *testing.T) {
	d := inmem.New()
	in := NewInterner(d)

	in.Intern("key.name")
	in.Intern("key.name")
	in.Intern("key.name")
	assert.Equal(t, 1, d.Calls(inmem.OpIntern))

	uncached := NewInterner(d, WithCacheSize(0))
	uncached.Intern("key.name")
	uncached.Intern("key.name")
	assert.Equal(t, 3, d.Calls(inmem.OpIntern))
}

func TestInterner_FromHandle(t *testing.T) {
	d := inmem.New()
	in := NewInterner(d)

	u := in.Intern("source.request.cursorinfo")
	got := in.FromHandle(u.Handle())
	assert.Equal(t, u, got)
	assert.True(t, in.FromHandle(0).IsZero())

	raw := d.UIDFromString("source.lang.swift.decl.class")
	fresh := NewInterner(d)
	assert.Equal(t, "source.lang.swift.decl.class", fresh.FromHandle(raw).String())
}

func TestInterner_InternPanics(t *testing.T) {
	d := inmem.New()
	d.FailOn(inmem.OpIntern, -1)
	in := NewInterner(d, WithInternerLogger(testutil.NewTestLogger(t)))

	assert.PanicsWithValue(t, `skobject: failed to intern UID "key.request"`, func() {
		in.Intern("key.request")
	})
}

func TestInterner_TryIntern(t *testing.T) {
	d := inmem.New()
	in := NewInterner(d)

	d.FailOn(inmem.OpIntern, 1)
	_, err := in.TryIntern("key.request")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternFailed)
	assert.Contains(t, err.Error(), `"key.request"`)

	u, err := in.TryIntern("key.request")
	require.NoError(t, err)
	assert.Equal(t, "key.request", u.String())
}

func TestInternKey(t *testing.T) {
	in := NewInterner(inmem.New())
	assert.Equal(t, in.Intern("key.offset"), InternKey(in, keyOffset))
}

func TestUID_SourceKitObject(t *testing.T) {
	d := inmem.New()
	b := NewBuilder(d)

	o, err := b.Convert(b.Intern("source.lang.swift"))
	require.NoError(t, err)
	assert.Equal(t, "source.lang.swift", o.String())
	o.Release()

	d.FailOn(inmem.OpUIDValue, 1)
	_, err = b.Convert(b.Intern("source.lang.swift"))
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, err, ErrNoHandle)
	assert.Contains(t, convErr.Value, "source.lang.swift")

	_, err = b.Convert(UID{})
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Zero(t, d.Live())
}
