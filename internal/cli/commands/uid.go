package commands

import (
	"fmt"

	"github.com/leapstack-labs/sourcekit/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewUIDCommand creates the uid command.
func NewUIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uid <string>...",
		Short: "Intern identifier strings",
		Long: `Intern each string as a daemon identifier and show its handle and the
string the daemon reports back for it.

Interning the same string twice yields the same handle.`,
		Example: `  skreq uid source.request.editor.open key.name`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUID(cmd, args)
		},
	}
}

// UIDInfo is one interned identifier.
type UIDInfo struct {
	Name    string `json:"name"`
	Handle  string `json:"handle"`
	Backing string `json:"backing"`
}

func runUID(cmd *cobra.Command, names []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	in := cmdCtx.Builder.Interner()

	infos := make([]UIDInfo, 0, len(names))
	for _, name := range names {
		u, err := in.TryIntern(name)
		if err != nil {
			return err
		}
		infos = append(infos, UIDInfo{
			Name:    name,
			Handle:  fmt.Sprintf("%#x", uintptr(u.Handle())),
			Backing: in.BackingString(u),
		})
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, []string{info.Name, info.Handle, info.Backing})
	}
	r.Table([]string{"String", "Handle", "Backing string"}, rows)
	return nil
}
