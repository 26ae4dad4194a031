package report

import (
	"context"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/shrink"
	"github.com/roach88/keepmark/internal/testutil"
	"github.com/roach88/keepmark/internal/usage"
)

// markApp runs the App fixture from Main.main with m.
func markApp(t *testing.T, m usage.Marker) *testutil.App {
	t.Helper()
	app := testutil.NewApp(t)
	seeds := shrink.Seeds{Members: []shrink.MemberSeed{{Class: testutil.MainName, Name: "main"}}}
	_, err := shrink.New(m, shrink.WithLogger(slog.New(slog.DiscardHandler))).
		Mark(context.Background(), app.Pools, seeds)
	require.NoError(t, err)
	return app
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
