package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// copyScenarios copies the test scenarios next to a program and a golden
// directory in a temp tree, so golden updates never touch testdata.
func copyScenarios(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"scenarios", "golden"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	for _, name := range []string{
		"shapes.cue",
		"scenarios/square_kept.yaml",
		"scenarios/circle_unused.yaml",
		"golden/square_kept.golden",
	} {
		data, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(root, name), data, 0o644))
	}
	return root
}

func TestTestCommand_MissingArgs(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommand_NonExistentScenariosDir(t *testing.T) {
	_, err := runTestCommand(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommand_EmptyScenariosDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommand_EmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Scenarios)
}

func TestTestCommand_Pass(t *testing.T) {
	out, err := runTestCommand(t, "text", "testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ circle_unused\n")
	assert.Contains(t, out, "✓ square_kept\n")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := runTestCommand(t, "json", "testdata/scenarios", "--filter", "circle_*")
	require.NoError(t, err)

	var result TestResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "circle_unused", result.Scenarios[0].Name)
	assert.True(t, result.Scenarios[0].Pass)
}

func TestTestCommand_InvalidFilter(t *testing.T) {
	_, err := runTestCommand(t, "text", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter pattern")
}

func TestTestCommand_GoldenMismatch(t *testing.T) {
	root := copyScenarios(t)
	golden := filepath.Join(root, "golden", "square_kept.golden")
	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0o644))

	out, err := runTestCommand(t, "text", filepath.Join(root, "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ square_kept\n")
	assert.Contains(t, out, "do not match golden file")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")

	out, err = runTestCommand(t, "text", filepath.Join(root, "scenarios"), "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ square_kept (golden updated)\n")

	want, err := os.ReadFile(filepath.Join("testdata", "golden", "square_kept.golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestTestCommand_MissingGolden(t *testing.T) {
	root := copyScenarios(t)
	require.NoError(t, os.Remove(filepath.Join(root, "golden", "square_kept.golden")))

	out, err := runTestCommand(t, "text", filepath.Join(root, "scenarios"), "--filter", "square_*")
	require.Error(t, err)
	assert.Contains(t, out, "failed to read golden file")
}

func TestTestCommand_FailingScenarioJSON(t *testing.T) {
	root := copyScenarios(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "scenarios", "wrong.yaml"), []byte(`
name: wrong
description: "Claims the circle is used"
program: ../shapes.cue
assertions:
  - type: state
    state: used
    nodes: [a.Circle]
`), 0o644))

	out, err := runTestCommand(t, "json", filepath.Join(root, "scenarios"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeFailed, resp.Error.Code)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Failed)
}

func TestTestCommand_LoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml\n")
	assert.Contains(t, out, "failed to load scenario")
}
