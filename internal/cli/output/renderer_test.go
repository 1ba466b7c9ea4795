package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(isTTY bool, mode OutputMode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"text", ModeText},
		{"TEXT", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{" json ", ModeJSON},
		{"yaml", ModeAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mode(tt.in), "Mode(%q)", tt.in)
	}
}

func TestRenderer_EffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on tty", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"empty piped", "", false, ModeMarkdown},
		{"text piped", ModeText, false, ModeText},
		{"json on tty", ModeJSON, true, ModeJSON},
		{"markdown on tty", ModeMarkdown, true, ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.Equal(t, tt.isTTY, r.IsTTY())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRenderer(out, out, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_Header(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeMarkdown)
	r.Header(1, "Requests")
	r.Header(2, "format.yaml")
	assert.Equal(t, "# Requests\n\n## format.yaml\n\n", out.String())

	r, out, _ = newTestRenderer(false, ModeText)
	r.Header(1, "Requests")
	assert.Equal(t, "Requests\n", out.String(), "no color without a terminal")
}

func TestRenderer_StatusMessages(t *testing.T) {
	r, out, errOut := newTestRenderer(false, ModeMarkdown)

	r.Success("built 2 requests")
	r.Warning("no files changed")
	r.Error("format.yaml: boom")
	r.Muted("done")

	assert.Equal(t, "✓ built 2 requests\ndone\n", out.String())
	assert.Equal(t, "! no files changed\n✗ format.yaml: boom\n", errOut.String())
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(false, ModeJSON)
	require.NoError(t, r.JSON(map[string]any{"file": "a.yaml", "ok": true}))

	assert.True(t, strings.HasPrefix(out.String(), "{\n  "), "indented: %q", out.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "a.yaml", got["file"])
}

func TestRenderer_Table(t *testing.T) {
	header := []string{"Key", "Kind"}
	rows := [][]string{{"key.request", "uid"}, {"key.offset", "int"}}

	r, out, _ := newTestRenderer(false, ModeMarkdown)
	r.Table(header, rows)
	md := out.String()
	assert.Contains(t, md, "| key.request | uid |")
	assert.Contains(t, md, "| key.offset | int |")
	assert.Contains(t, md, "| --- | --- |")

	r, out, _ = newTestRenderer(true, ModeText)
	r.Table(header, rows)
	text := out.String()
	assert.Contains(t, text, "key.request")
	assert.Contains(t, text, "┌")
	assert.NotContains(t, text, "| --- |")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(1, "Title"))
	assert.Equal(t, "### Deep", FormatHeader(3, "Deep"))
	assert.Equal(t, "# Clamp", FormatHeader(0, "Clamp"))
	assert.Equal(t, "- **Backend:** inmem", FormatKeyValue("Backend", "inmem"))
	assert.Equal(t, "```text\n{\n}\n```", FormatCodeBlock("text", "{\n}\n"))
}
