package commands

import (
	"bytes"
	"testing"

	"github.com/leapstack-labs/sourcekit/internal/cli/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useConfig loads the default configuration and lets the test adjust it.
func useConfig(t *testing.T, adjust func(*config.Config)) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	if adjust != nil {
		adjust(cfg)
	}
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNewDescribeCommand(t *testing.T) {
	cmd := NewDescribeCommand()

	assert.Equal(t, "describe <file>...", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("watch"), "flag watch should exist")
	assert.Error(t, cmd.Args(cmd, nil), "at least one file is required")
}

func TestNewKeysCommand(t *testing.T) {
	cmd := NewKeysCommand()

	assert.Equal(t, "keys <file>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.Error(t, cmd.Args(cmd, []string{"a.yaml", "b.yaml"}))
}

func TestNewUIDCommand(t *testing.T) {
	cmd := NewUIDCommand()

	assert.Equal(t, "uid <string>...", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.Error(t, cmd.Args(cmd, nil))
}

func TestOpenDaemon(t *testing.T) {
	d, err := openDaemon(config.BackendInMem)
	require.NoError(t, err)
	assert.NotNil(t, d)

	_, err = openDaemon("remote")
	assert.ErrorContains(t, err, `unknown backend "remote"`)
}

func TestGetConfig_FallsBackToDefaults(t *testing.T) {
	config.ResetConfig()
	cfg := getConfig()
	assert.Equal(t, config.DefaultBackend, cfg.Backend)
	assert.Equal(t, config.DefaultJobs, cfg.Jobs)
}
