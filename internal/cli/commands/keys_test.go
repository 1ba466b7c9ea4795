package commands

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leapstack-labs/sourcekit/internal/cli/config"
	"github.com/leapstack-labs/sourcekit/internal/cli/testutil"
	"github.com/leapstack-labs/sourcekit/pkg/skobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysCommand_Markdown(t *testing.T) {
	useConfig(t, nil)
	file := testutil.WriteRequest(t, t.TempDir(), "format.yaml", testutil.FormatTextYAML)

	out, _, err := execute(t, NewKeysCommand(), file)
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertContains(t, out, "# "+file)
	testutil.AssertContains(t, out, "| key.request | UID | source.request.editor.formattext |")
	testutil.AssertContains(t, out, `| key.name | String | "/tmp/Sources/App/main.swift" |`)
	testutil.AssertContains(t, out, "| key.line | Int | 10 |")
	testutil.AssertContains(t, out, "| key.editor.format.options | Dictionary | { key.editor.format.indentwidth: 4, key.edito... |")
}

func TestKeysCommand_JSON(t *testing.T) {
	useConfig(t, func(cfg *config.Config) { cfg.OutputFormat = "json" })
	file := testutil.WriteRequest(t, t.TempDir(), "open.yaml", `
key.request: source.request.editor.open
key.compilerargs: [-sdk, /sdk]
key.empty: {}
`)

	out, _, err := execute(t, NewKeysCommand(), file)
	require.NoError(t, err)

	var infos []KeyInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	assert.Equal(t, []KeyInfo{
		{Key: "key.request", Kind: "uid", Preview: "source.request.editor.open"},
		{Key: "key.compilerargs", Kind: "array", Preview: `[ "-sdk", "/sdk" ]`},
		{Key: "key.empty", Kind: "dictionary", Preview: "{}"},
	}, infos)
}

func TestKeysCommand_NotADictionary(t *testing.T) {
	useConfig(t, nil)
	file := testutil.WriteRequest(t, t.TempDir(), "list.yaml", "- 1\n- 2\n")

	_, _, err := execute(t, NewKeysCommand(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request must be a dictionary, got array")
}

func TestKindName(t *testing.T) {
	tests := []struct {
		value skobject.Convertible
		want  string
	}{
		{skobject.Int(1), "int"},
		{skobject.Int64(1), "int"},
		{skobject.String("a"), "string"},
		{skobject.Ident("source.lang.swift"), "uid"},
		{skobject.Array[skobject.Convertible]{}, "array"},
		{skobject.Dict{}, "dictionary"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kindName(tt.value))
	}
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "10", preview("10"))
	assert.Equal(t, "{ a: 1, b: 2 }", preview("{\n  a: 1,\n  b: 2\n}"))
	assert.Equal(t, `[ "a  b", "\tc" ]`, preview("[\n  \"a  b\",\n  \"\\tc\"\n]"), "whitespace inside strings is kept")

	long := preview(strings.Repeat("é", 60))
	assert.Len(t, []rune(long), previewLen)
	assert.True(t, strings.HasSuffix(long, "..."))
}
