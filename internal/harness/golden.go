package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/keepmark/internal/report"
)

// RunWithGolden executes a scenario and compares the explanations of its
// Explain nodes against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Scenarios without Explain nodes are run without a golden comparison.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, out, err := New().Explanations(context.Background(), scenario)
	if err != nil || out == nil {
		return result, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, out)
	return result, nil
}

// Explanations runs a scenario and returns its result with the text
// explanations of its Explain nodes. The output is nil when the scenario
// explains nothing.
func (h *Harness) Explanations(ctx context.Context, scenario *Scenario) (*Result, []byte, error) {
	result, run, err := h.execute(ctx, scenario)
	if err != nil {
		return nil, nil, err
	}
	if len(scenario.Explain) == 0 {
		return result, nil, nil
	}
	if run.err != nil {
		return result, nil, fmt.Errorf("explaining %s: run failed: %w", scenario.Name, run.err)
	}

	out, err := explainNodes(run, scenario.Explain)
	if err != nil {
		return result, nil, err
	}
	return result, out, nil
}

// explainNodes prints the explanation of every named node in text form.
func explainNodes(run *markedRun, names []string) ([]byte, error) {
	var buf bytes.Buffer
	p := report.NewPrinter(&buf, run.marker, report.WithMaxHops(run.maxHops))
	for _, name := range names {
		node, ok := run.nodes[name]
		if !ok {
			return nil, fmt.Errorf("explain: node %q is not in the program", name)
		}
		if err := p.PrintNode(node); err != nil {
			return nil, fmt.Errorf("explain %s: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}
