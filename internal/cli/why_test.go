package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/report"
)

func TestWhy_Fresh(t *testing.T) {
	out, err := execute(t, "", "why", shapesProgram, "a.Shape.area()D")
	require.NoError(t, err)
	assert.Equal(t,
		"a.Shape.area()D is used\n"+
			"  certain=true, depth=2: is implemented by(a.Square): area()D\n"+
			"  certain=true, depth=1: is invoked by(a.Main): main()V\n"+
			"  certain=true, depth=0: is kept by a directive in the configuration(none): none\n",
		out)
}

func TestWhy_FreshIgnoresExplainConfig(t *testing.T) {
	out, err := execute(t, "explain: false\n", "--format", "json", "why", shapesProgram, "a.Square")
	require.NoError(t, err)

	var x report.Explanation
	resp := decodeResponse(t, out, &x)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, report.KindClass, x.Kind)
	assert.Len(t, x.Hops, 2)
}

func TestWhy_Precise(t *testing.T) {
	out, err := execute(t, "", "why", shapesProgram, "a.Shape.area()D", "--policy", "precise")
	require.NoError(t, err)
	assert.Contains(t, out, "a.Shape.area()D is possibly used\n")
	assert.Contains(t, out, "certain=false, depth=3: is declared by(a.Shape)")
}

func TestWhy_Unused(t *testing.T) {
	out, err := execute(t, "", "why", shapesProgram, "unused.txt")
	require.NoError(t, err)
	assert.Equal(t, "unused.txt is not used\n", out)
}

func TestWhy_UnknownNode(t *testing.T) {
	out, err := execute(t, "", "why", shapesProgram, "a.Triangle")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E105]")
	assert.Contains(t, out, `node "a.Triangle" is not in the program`)
}

func TestWhy_ArgumentShapes(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"node_only", []string{"why", "a.Square"}, "give the program and the node"},
		{"run_with_program", []string{"why", "--run", "latest", shapesProgram, "a.Square"}, "with --run, give only the node"},
		{"run_without_store", []string{"why", "--run", "latest", "a.Square"}, "E103"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWhy_StoredRunErrors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, "", "mark", shapesProgram, "--store", db, "--summary")
	require.NoError(t, err)

	t.Run("unknown_run", func(t *testing.T) {
		out, err := execute(t, "", "why", "--store", db, "--run", "nope", "a.Square")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E104]")
	})

	t.Run("unknown_node", func(t *testing.T) {
		out, err := execute(t, "", "why", "--store", db, "--run", "latest", "a.Triangle")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E105]")
	})

	t.Run("missing_store", func(t *testing.T) {
		_, err := execute(t, "", "why", "--store", filepath.Join(t.TempDir(), "none.db"), "--run", "latest", "a.Square")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store not found")
	})
}
