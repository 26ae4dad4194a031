package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/usage"
)

func TestNodes_IndexesEveryKind(t *testing.T) {
	app := markApp(t, usage.NewShortestMarker())
	nodes := Nodes(app.Pools)

	assert.Same(t, app.Dead, nodes["com.example.Dead"])
	assert.Same(t, app.WorkerCount, nodes["com.example.Worker.count:I"])
	assert.Same(t, app.Properties, nodes["app.properties"])
	assert.Contains(t, nodes, "java.lang.Object")
}

func TestExplainNode(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	x, err := ExplainNode(m, app.WorkerCount, 0)
	require.NoError(t, err)
	assert.Equal(t, KindField, x.Kind)
	assert.Equal(t, usage.Used.String(), x.State)
	require.Len(t, x.Hops, 4)

	x, err = ExplainNode(m, app.Dead, 0)
	require.NoError(t, err)
	assert.Equal(t, usage.Unused.String(), x.State)
	assert.Empty(t, x.Hops)
}

func TestExplainNode_SimpleMarkerHasNoHops(t *testing.T) {
	m := usage.NewSimpleMarker()
	app := markApp(t, m)

	x, err := ExplainNode(m, app.WorkerCount, 0)
	require.NoError(t, err)
	assert.Equal(t, usage.Used.String(), x.State)
	assert.Nil(t, x.Hops)
}

func TestPrintNode(t *testing.T) {
	m := usage.NewShortestMarker()
	app := markApp(t, m)

	var buf bytes.Buffer
	p := NewPrinter(&buf, m)
	require.NoError(t, p.PrintNode(app.Unused))
	assert.Equal(t, "unused.txt is not used\n", buf.String())
}
