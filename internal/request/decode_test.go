package request

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/sourcekit/internal/testutil"
	"github.com/leapstack-labs/sourcekit/pkg/skobject"
	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describe(t *testing.T, v skobject.Convertible) string {
	t.Helper()
	d := inmem.New()
	b := skobject.NewBuilder(d, skobject.WithLogger(testutil.NewTestLogger(t)))
	out, err := b.Describe(v)
	require.NoError(t, err)
	assert.Zero(t, d.Live(), "describe must not leak handles")
	return out
}

func TestDecode_FormatTextRequest(t *testing.T) {
	doc := `
key.request: source.request.editor.formattext
key.name: /tmp/Sources/App/main.swift
key.line: 10
key.editor.format.options:
  key.editor.format.indentwidth: 4
  key.editor.format.tabwidth: 4
  key.editor.format.usetabs: 1
`
	v, err := Decode([]byte(doc))
	require.NoError(t, err)

	want := `{
  key.request: source.request.editor.formattext,
  key.name: "/tmp/Sources/App/main.swift",
  key.line: 10,
  key.editor.format.options: {
    key.editor.format.indentwidth: 4,
    key.editor.format.tabwidth: 4,
    key.editor.format.usetabs: 1
  }
}`
	assert.Equal(t, want, describe(t, v))
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"key.request": "source.request.editor.open", "key.name": "a.swift", "key.compilerargs": ["-sdk", "/sdk"], "key.enablesyntaxmap": true}`
	v, err := Decode([]byte(doc))
	require.NoError(t, err)

	want := `{
  key.request: source.request.editor.open,
  key.name: "a.swift",
  key.compilerargs: [
    "-sdk",
    "/sdk"
  ],
  key.enablesyntaxmap: 1
}`
	assert.Equal(t, want, describe(t, v))
}

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "int", doc: "42", want: "42"},
		{name: "negative int", doc: "-7", want: "-7"},
		{name: "hex int", doc: "0x10", want: "16"},
		{name: "true", doc: "true", want: "1"},
		{name: "false", doc: "false", want: "0"},
		{name: "string", doc: "hello", want: `"hello"`},
		{name: "quoted int", doc: `"42"`, want: `"42"`},
		{name: "source prefix", doc: "source.lang.swift", want: "source.lang.swift"},
		{name: "uid tag", doc: "!uid key.offset", want: "key.offset"},
		{name: "forced string", doc: "!!str source.lang.swift", want: `"source.lang.swift"`},
		{name: "escaped string", doc: `"tab\there"`, want: `"tab\there"`},
		{name: "empty sequence", doc: "[]", want: "[]"},
		{name: "empty mapping", doc: "{}", want: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, describe(t, v))
		})
	}
}

func TestDecode_Aliases(t *testing.T) {
	doc := `
key.args: &args ["-j4"]
key.more: *args
`
	v, err := Decode([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "{\n  key.args: [\n    \"-j4\"\n  ],\n  key.more: [\n    \"-j4\"\n  ]\n}", describe(t, v))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantLine int
		wantText string
	}{
		{
			name:     "null value",
			doc:      "key.a: 1\nkey.b: ~\n",
			wantLine: 2,
			wantText: "key.b: null has no request representation",
		},
		{
			name:     "float value",
			doc:      "key.ratio: 1.5\n",
			wantLine: 1,
			wantText: "float 1.5",
		},
		{
			name:     "int key",
			doc:      "1: one\n",
			wantLine: 1,
			wantText: "dictionary keys must be strings, got int",
		},
		{
			name:     "nested float",
			doc:      "key.options:\n  key.values: [1, 2.5]\n",
			wantLine: 2,
			wantText: "key.options.key.values[1]",
		},
		{
			name:     "overflow",
			doc:      "key.offset: 18446744073709551615\n",
			wantLine: 1,
			wantText: "does not fit in 64 bits",
		},
		{
			name:     "merge key",
			doc:      "base: &b {key.a: 1}\nkey.c:\n  <<: *b\n",
			wantLine: 3,
			wantText: "merge keys are not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFile("req.yaml", []byte(tt.doc))
			require.Error(t, err)

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, "req.yaml", decErr.File)
			assert.Equal(t, tt.wantLine, decErr.Line)
			assert.Contains(t, err.Error(), tt.wantText)
		})
	}
}

func TestDecode_AliasExpansionLimit(t *testing.T) {
	// Eight levels of ten aliases each expand to 10^8 nodes.
	var sb strings.Builder
	sb.WriteString("l0: &l0 [\"x\", \"x\", \"x\", \"x\", \"x\", \"x\", \"x\", \"x\", \"x\", \"x\"]\n")
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&sb, "l%d: &l%d [", i, i)
		for j := range 10 {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "*l%d", i-1)
		}
		sb.WriteString("]\n")
	}

	start := time.Now()
	_, err := DecodeFile("laughs.yaml", []byte(sb.String()))
	require.Error(t, err)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Contains(t, err.Error(), "document expands to more than 1048576 nodes")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := DecodeFile("bad.yaml", []byte("key.a: [1, 2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml: parsing yaml")
}

type fakeScripts struct {
	calls []string
}

func (f *fakeScripts) Run(_ context.Context, filename string, _ []byte) (skobject.Convertible, error) {
	f.calls = append(f.calls, filename)
	return skobject.Dict{skobject.Entry("key.request", skobject.Ident("source.request.protocol_version"))}, nil
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	yamlPath := write("open.yaml", "key.request: source.request.editor.open\n")
	jsonPath := write("open.json", `{"key.request": "source.request.editor.open"}`)
	starPath := write("version.star", "request = {}\n")
	txtPath := write("notes.txt", "hello")
	emptyPath := write("empty.yml", "")

	scripts := &fakeScripts{}
	l := &Loader{Scripts: scripts}

	for _, p := range []string{yamlPath, jsonPath} {
		v, err := l.Load(t.Context(), p)
		require.NoError(t, err)
		assert.Equal(t, "{\n  key.request: source.request.editor.open\n}", describe(t, v))
	}

	v, err := l.Load(t.Context(), starPath)
	require.NoError(t, err)
	assert.Equal(t, []string{starPath}, scripts.calls)
	assert.Equal(t, "{\n  key.request: source.request.protocol_version\n}", describe(t, v))

	_, err = l.Load(t.Context(), txtPath)
	assert.ErrorContains(t, err, "unknown request file extension")

	_, err = l.Load(t.Context(), emptyPath)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = l.Load(t.Context(), filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading request")

	_, err = (&Loader{}).Load(t.Context(), starPath)
	assert.ErrorContains(t, err, "request scripts are not enabled")
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"a.yaml", FormatYAML},
		{"a.YML", FormatYAML},
		{"dir/a.json", FormatJSON},
		{"a.star", FormatScript},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := FormatOf("Makefile")
	assert.Error(t, err)
}
