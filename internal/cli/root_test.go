package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "keepmark", cmd.Use)
	assert.Contains(t, cmd.Long, "keep directives")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"mark"}, {"why"}, {"validate"}, {"runs"}, {"runs", "show"}, {"test"}, {"config", "show"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestMarkCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	markCmd, _, err := cmd.Find([]string{"mark"})
	require.NoError(t, err)

	for _, name := range []string{"policy", "explain", "store", "max-passes", "max-hops", "summary"} {
		assert.NotNil(t, markCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "true", markCmd.Flags().Lookup("explain").DefValue)
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := execute(t, "", "--format", "xml", "validate", shapesProgram)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRoot_FormatFromConfig(t *testing.T) {
	out, err := execute(t, "report:\n  format: json\n", "validate", shapesProgram)
	require.NoError(t, err)

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "ok", resp.Status)
}

func TestRoot_FormatFlagOverridesConfig(t *testing.T) {
	out, err := execute(t, "report:\n  format: json\n", "--format", "text", "validate", shapesProgram)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Program valid")
}

func TestRoot_BadConfig(t *testing.T) {
	_, err := execute(t, "policy: reckless\n", "validate", shapesProgram)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeConfig)
	assert.Contains(t, err.Error(), `invalid policy "reckless"`)
}
