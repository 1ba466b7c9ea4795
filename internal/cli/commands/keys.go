package commands

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sourcekit/internal/cli/output"
	"github.com/leapstack-labs/sourcekit/pkg/skobject"
	"github.com/spf13/cobra"
)

// previewLen caps the preview column.
const previewLen = 48

// NewKeysCommand creates the keys command.
func NewKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <file>",
		Short: "List the top-level keys of a request document",
		Long: `List each top-level key of a request document with the kind of its
value and a one-line preview of the value's description.

The request must be a dictionary.`,
		Example: `  skreq keys format.yaml
  skreq keys -o json cursorinfo.star`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(cmd, args[0])
		},
	}
}

// KeyInfo describes one top-level request entry.
type KeyInfo struct {
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Preview string `json:"preview"`
}

func runKeys(cmd *cobra.Command, file string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := cmdCtx.Loader.Load(ctx, file)
	if err != nil {
		return err
	}
	dict, ok := req.(skobject.Dict)
	if !ok {
		return fmt.Errorf("%s: request must be a dictionary, got %s", file, kindName(req))
	}

	infos, err := buildKeyInfos(cmdCtx.Builder, dict)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(infos)
	case output.ModeMarkdown:
		r.Header(1, file)
	default:
		r.Println(r.Styles().Path.Render(file))
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Key, kindLabel(info.Kind), info.Preview})
	}
	r.Table([]string{"Key", "Kind", "Preview"}, rows)
	return nil
}

func buildKeyInfos(b *skobject.Builder, dict skobject.Dict) ([]KeyInfo, error) {
	infos := make([]KeyInfo, 0, len(dict))
	for _, p := range dict {
		desc, err := b.Describe(p.Value)
		if err != nil {
			return nil, err
		}
		infos = append(infos, KeyInfo{
			Key:     keyName(p.Key),
			Kind:    kindName(p.Value),
			Preview: preview(desc),
		})
	}
	return infos, nil
}

func keyName(k skobject.Key) string {
	switch k := k.(type) {
	case skobject.Name:
		return string(k)
	case skobject.UID:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}

// kindName names the kind of a decoded request value.
func kindName(c skobject.Convertible) string {
	switch c.(type) {
	case skobject.Int, skobject.Int64:
		return "int"
	case skobject.String:
		return "string"
	case skobject.Ident, skobject.UID:
		return "uid"
	case skobject.Array[skobject.Convertible]:
		return "array"
	case skobject.Dict:
		return "dictionary"
	default:
		return fmt.Sprintf("%T", c)
	}
}

// kindLabel is the table label for a kind name.
func kindLabel(kind string) string {
	if kind == "uid" {
		return "UID"
	}
	return cases.Title(language.English).String(kind)
}

// preview folds a description onto one line. Only the line breaks and
// indentation of the rendering are folded; strings are quoted, so their own
// whitespace is kept.
func preview(desc string) string {
	lines := strings.Split(desc, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimLeft(lines[i], " ")
	}
	s := strings.Join(lines, " ")
	if r := []rune(s); len(r) > previewLen {
		s = string(r[:previewLen-3]) + "..."
	}
	return s
}
