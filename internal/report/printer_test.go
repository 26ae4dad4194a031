package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/usage"
)

// =============================================================================
// Golden output
// =============================================================================

func TestPrinter_MemberText(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, m).PrintMember(app.WorkerCount))

	newGoldie(t).Assert(t, "worker_count", buf.Bytes())
}

func TestPrinter_ClassJSON(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, m, WithFormat(FormatJSON)).PrintClass(app.Worker))

	newGoldie(t).Assert(t, "worker_class_json", buf.Bytes())
}

func TestPrinter_PoolsText(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, m).PrintPools(app.Pools))

	newGoldie(t).Assert(t, "app_pools", buf.Bytes())
}

func TestPrinter_PoolsSimpleMarker(t *testing.T) {
	m := usage.NewSimpleMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, m).PrintPools(app.Pools))

	newGoldie(t).Assert(t, "app_pools_simple", buf.Bytes())
}

// =============================================================================
// Behavior
// =============================================================================

func TestPrinter_ResourceAndUnused(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	p := NewPrinter(&buf, m)
	require.NoError(t, p.PrintResource(app.Unused))
	require.NoError(t, p.PrintMember(app.WorkerHelper))

	assert.Equal(t, "unused.txt is not used\ncom.example.Worker.helper()V is not used\n", buf.String())
}

func TestPrinter_PossiblyUsed(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)
	m.MarkAsPossiblyUsed(app.WorkerHelper)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, m).PrintMember(app.WorkerHelper))

	assert.Contains(t, buf.String(), "com.example.Worker.helper()V is possibly used\n")
	assert.Contains(t, buf.String(), "certain=false")
}

func TestPrinter_PoolsJSON(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, m, WithFormat(FormatJSON)).PrintPools(app.Pools))

	var r Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &r))
	require.Len(t, r.Classes, 8)
	assert.Equal(t, "com.example.Main", r.Classes[0].Node)
	assert.Equal(t, "used", r.Classes[0].State)
	require.Len(t, r.Classes[0].Hops, 1)
	assert.Equal(t, usage.RootReason, r.Classes[0].Hops[0].Reason)
}

func TestPrinter_MaxHops(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	err := NewPrinter(&buf, m, WithMaxHops(3)).PrintMember(app.WorkerCount)
	require.Error(t, err)
	assert.True(t, usage.IsCycleError(err))
	assert.Empty(t, buf.String())

	err = NewPrinter(&buf, m, WithMaxHops(3)).PrintPools(app.Pools)
	assert.True(t, usage.IsCycleError(err))
}

func TestPrinter_MixedMarksRecovered(t *testing.T) {
	app := markApp(t, usage.NewSimpleMarker())

	var buf bytes.Buffer
	err := NewPrinter(&buf, usage.NewShortestMarker()).PrintClass(app.Main)
	require.Error(t, err)
	assert.True(t, usage.IsFatal(err))
}
