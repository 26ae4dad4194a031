package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/loader"
	"github.com/roach88/keepmark/internal/marker"
	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/shrink"
	"github.com/roach88/keepmark/internal/usage"
)

// Harness runs scenarios. Each scenario is loaded into fresh pools and
// marked with a fresh marker, so scenarios never share state.
type Harness struct {
	loader *loader.Loader
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger handed to the shrinker. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{
		loader: loader.New(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(context.Background(), scenario)
}

// Run loads the scenario's program, marks it, and evaluates the
// assertions. The returned error covers setup problems only: a program
// that does not load or a bad marker choice. A failing marking run is
// reported through the assertions.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result, _, err := h.execute(ctx, scenario)
	return result, err
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, *markedRun, error) {
	run, err := h.mark(ctx, scenario)
	if err != nil {
		return nil, nil, err
	}

	result := NewResult()
	result.RunErr = run.err
	if run.err == nil {
		result.Stats = run.stats
		r, err := report.Build(run.pools, run.marker, run.maxHops)
		if err != nil {
			return nil, nil, fmt.Errorf("building report: %w", err)
		}
		result.Report = r
	}

	obs := &observation{
		marker:    run.marker,
		nodes:     run.nodes,
		resources: run.pools.Resources,
		maxHops:   run.maxHops,
		stats:     run.stats,
		runErr:    run.err,
	}
	for _, msg := range obs.evaluate(scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario complete", "scenario", scenario.Name, "pass", result.Pass)
	return result, run, nil
}

// markedRun is a marked program with a name index over its nodes.
type markedRun struct {
	pools   *classfile.Pools
	marker  usage.Marker
	nodes   map[string]classfile.Processable
	maxHops int
	stats   *shrink.Stats
	err     error
}

func (h *Harness) mark(ctx context.Context, scenario *Scenario) (*markedRun, error) {
	var (
		prog *loader.Program
		err  error
	)
	if scenario.Program != "" {
		prog, err = h.loader.Load(scenario.Program)
	} else {
		prog, err = h.loader.LoadSource(scenario.Name+".cue", []byte(scenario.Source))
	}
	if err != nil {
		return nil, fmt.Errorf("loading program for %s: %w", scenario.Name, err)
	}

	policy, err := marker.ParsePolicy(scenario.Policy)
	if err != nil {
		return nil, err
	}

	var m usage.Marker
	switch scenario.Marker {
	case "", MarkerShortest:
		m = usage.NewShortestMarker()
	case MarkerSimple:
		m = usage.NewSimpleMarker()
	default:
		return nil, fmt.Errorf("unknown marker %q", scenario.Marker)
	}

	seeds := prog.Seeds
	if scenario.Keep != nil {
		seeds = *scenario.Keep
	}

	s := shrink.New(m, shrink.WithPolicy(policy), shrink.WithLogger(h.logger))
	stats, err := s.Mark(ctx, prog.Pools, seeds)
	return &markedRun{
		pools:   prog.Pools,
		marker:  m,
		nodes:   report.Nodes(prog.Pools),
		maxHops: prog.Pools.NodeCount(),
		stats:   stats,
		err:     err,
	}, nil
}
