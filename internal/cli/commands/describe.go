package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sourcekit/internal/cli/output"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// DescribeOptions holds options for the describe command.
type DescribeOptions struct {
	Watch bool
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	opts := &DescribeOptions{}
	cmd := &cobra.Command{
		Use:   "describe <file>...",
		Short: "Build request documents and print their description",
		Long: `Build each request document and print the daemon's description of it.

Request documents can be YAML (.yaml, .yml), JSON (.json) or Starlark
scripts (.star) that bind a global named request. Strings starting with
"source." and values tagged !uid become identifiers.

Files are built concurrently (see the jobs setting); output keeps the order
of the arguments.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Describe a request
  skreq describe format.yaml

  # Describe several requests as JSON
  skreq describe -o json requests/*.yaml

  # Re-render whenever a file changes
  skreq describe --watch cursorinfo.star`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-render files when they change")

	return cmd
}

// DescribeResult is the outcome of building one request file.
type DescribeResult struct {
	File        string `json:"file"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`

	err error
}

func runDescribe(cmd *cobra.Command, files []string, opts *DescribeOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	if !opts.Watch {
		results := describeFiles(cmd.Context(), cmdCtx, files)
		return renderDescribe(cmdCtx.Renderer, results)
	}

	w := &requestWatcher{
		files:    files,
		debounce: cmdCtx.Cfg.Watch.Debounce,
		logger:   cmdCtx.Logger,
		render: func(ctx context.Context, changed []string) {
			results := describeFiles(ctx, cmdCtx, changed)
			if err := renderDescribe(cmdCtx.Renderer, results); err != nil {
				cmdCtx.Renderer.Warning(err.Error())
			}
		},
	}
	return w.Run(cmd.Context())
}

// describeFiles builds every file concurrently. Results follow the order of
// files.
func describeFiles(ctx context.Context, cmdCtx *CommandContext, files []string) []DescribeResult {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]DescribeResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	if cmdCtx.Cfg.Jobs > 0 {
		g.SetLimit(cmdCtx.Cfg.Jobs)
	}
	for i, file := range files {
		g.Go(func() error {
			results[i] = describeFile(gctx, cmdCtx, file)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func describeFile(ctx context.Context, cmdCtx *CommandContext, file string) DescribeResult {
	res := DescribeResult{File: file}
	if err := ctx.Err(); err != nil {
		res.setErr(err)
		return res
	}

	req, err := cmdCtx.Loader.Load(ctx, file)
	if err != nil {
		res.setErr(err)
		return res
	}

	desc, err := cmdCtx.Builder.Describe(req)
	if err != nil {
		res.setErr(fmt.Errorf("%s: %w", file, err))
		return res
	}
	cmdCtx.Logger.Debug("request built", "file", file)
	res.Description = desc
	return res
}

func (res *DescribeResult) setErr(err error) {
	res.err = err
	res.Error = err.Error()
}

func renderDescribe(r *output.Renderer, results []DescribeResult) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(results); err != nil {
			return err
		}
	case output.ModeMarkdown:
		describeMarkdown(r, results)
	default:
		describeText(r, results)
	}

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}

func describeText(r *output.Renderer, results []DescribeResult) {
	styles := r.Styles()
	for i, res := range results {
		if res.err != nil {
			r.Error(res.Error)
			continue
		}
		if len(results) > 1 {
			if i > 0 {
				r.Println("")
			}
			r.Println(styles.Path.Render(res.File))
		}
		r.Println(res.Description)
	}
}

func describeMarkdown(r *output.Renderer, results []DescribeResult) {
	for _, res := range results {
		r.Header(2, res.File)
		if res.err != nil {
			r.Println("**Error:** " + res.Error)
		} else {
			r.Println(output.FormatCodeBlock("", res.Description))
		}
		r.Println("")
	}
}
