package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/shrink"
	"github.com/roach88/keepmark/internal/testutil"
	"github.com/roach88/keepmark/internal/usage"
)

// createTestStore opens a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// markedApp marks the App fixture from Main.main and returns the run
// with its report.
func markedApp(t *testing.T, id string) (Run, *report.Report) {
	t.Helper()
	app := testutil.NewApp(t)
	m := usage.NewShortestMarker()
	seeds := shrink.Seeds{Members: []shrink.MemberSeed{{Class: testutil.MainName, Name: "main"}}}

	stats, err := shrink.New(m, shrink.WithLogger(slog.New(slog.DiscardHandler))).
		Mark(context.Background(), app.Pools, seeds)
	require.NoError(t, err)
	r, err := report.Build(app.Pools, m, 0)
	require.NoError(t, err)
	stats.Duration = 0
	return Run{ID: id, Policy: "conservative", Explain: true, Stats: *stats}, r
}
