package commands

import (
	"encoding/json"
	"testing"

	"github.com/leapstack-labs/sourcekit/internal/cli/config"
	"github.com/leapstack-labs/sourcekit/internal/cli/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUIDCommand_JSON(t *testing.T) {
	useConfig(t, func(cfg *config.Config) { cfg.OutputFormat = "json" })

	out, _, err := execute(t, NewUIDCommand(), "source.request.editor.open", "key.name", "source.request.editor.open")
	require.NoError(t, err)

	var infos []UIDInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 3)

	for _, info := range infos {
		assert.Equal(t, info.Name, info.Backing)
		assert.NotEqual(t, "0x0", info.Handle)
	}
	assert.Equal(t, infos[0].Handle, infos[2].Handle, "same string, same handle")
	assert.NotEqual(t, infos[0].Handle, infos[1].Handle)
}

func TestUIDCommand_Markdown(t *testing.T) {
	useConfig(t, nil)

	out, _, err := execute(t, NewUIDCommand(), "key.offset")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertContains(t, out, "| key.offset | 0x")
	testutil.AssertContains(t, out, " | key.offset |")
}
