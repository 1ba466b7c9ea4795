package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sourcekit/internal/cli/config"
	"github.com/leapstack-labs/sourcekit/internal/cli/output"
	"github.com/leapstack-labs/sourcekit/internal/request"
	"github.com/leapstack-labs/sourcekit/internal/starlark"
	"github.com/leapstack-labs/sourcekit/pkg/skobject"
	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd/inmem"
	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd/native"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Daemon   sourcekitd.Daemon
	Builder  *skobject.Builder
	Loader   *request.Loader
}

// NewCommandContext creates a CommandContext with a daemon, a request
// builder and a request loader.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutDaemon(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger

	d, err := openDaemon(cfg.Backend)
	if err != nil {
		return nil, err
	}
	logger.Debug("daemon ready", "backend", cfg.Backend)

	interner := skobject.NewInterner(d,
		skobject.WithCacheSize(cfg.UIDCacheSize),
		skobject.WithInternerLogger(logger),
	)
	opts := []skobject.Option{
		skobject.WithLogger(logger),
		skobject.WithInterner(interner),
	}
	if !cfg.FailFastIntern {
		opts = append(opts, skobject.WithRecoverableIntern())
	}

	runner, err := starlark.NewRunner(
		starlark.WithLogger(logger),
		starlark.WithEnv(cfg.Environment),
		starlark.WithVars(cfg.Vars),
		starlark.WithPoolSize(max(cfg.Jobs, 1)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up request scripts: %w", err)
	}

	cmdCtx.Daemon = d
	cmdCtx.Builder = skobject.NewBuilder(d, opts...)
	cmdCtx.Loader = &request.Loader{Scripts: runner}
	return cmdCtx, nil
}

// NewCommandContextWithoutDaemon creates a CommandContext with only config,
// logger and renderer. Useful for commands that never touch a daemon.
func NewCommandContextWithoutDaemon(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when none has
// been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func openDaemon(backend string) (sourcekitd.Daemon, error) {
	switch backend {
	case config.BackendInMem, "":
		return inmem.New(), nil
	case config.BackendNative:
		d, err := native.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open native backend: %w", err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
