package shrink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/marker"
	"github.com/roach88/keepmark/internal/usage"
)

// DefaultMaxPasses bounds the number of primary traversals in one run.
// Each traversal that does not reach the fixed point adds at least one
// used node, so a graph of N nodes settles in at most N+1 traversals.
const DefaultMaxPasses = 10000

// ErrPassLimit is returned when the primary pass fails to settle within
// the configured number of traversals.
var ErrPassLimit = errors.New("primary pass did not reach a fixed point")

// Shrinker runs the marking passes over one set of pools.
//
// A Shrinker is not safe for concurrent use: it writes marks into the
// graph it is given.
type Shrinker struct {
	usage     usage.Marker
	policy    marker.Policy
	logger    *slog.Logger
	maxPasses int
}

// Option configures a Shrinker.
type Option func(*Shrinker)

// WithPolicy sets the abstract-method promotion policy.
func WithPolicy(p marker.Policy) Option {
	return func(s *Shrinker) {
		s.policy = p
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Shrinker) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxPasses caps the number of primary traversals per run.
func WithMaxPasses(n int) Option {
	return func(s *Shrinker) {
		if n > 0 {
			s.maxPasses = n
		}
	}
}

// New creates a Shrinker writing marks through m. Use a
// *usage.ShortestMarker when explanations are wanted, a
// *usage.SimpleMarker otherwise.
func New(m usage.Marker, opts ...Option) *Shrinker {
	s := &Shrinker{
		usage:     m,
		policy:    marker.Conservative,
		logger:    slog.Default(),
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Usage returns the marker the Shrinker writes through.
func (s *Shrinker) Usage() usage.Marker { return s.usage }

// Mark seeds the pools and runs both passes to their fixed point. Pools
// must be linked. The context is checked between traversals; a
// cancelled run leaves the marks written so far in place.
func (s *Shrinker) Mark(ctx context.Context, pools *classfile.Pools, seeder Seeder) (stats *Stats, err error) {
	defer usage.Recover(&err)

	start := time.Now()
	cm := marker.NewClassUsageMarker(s.usage, s.policy)
	stats = &Stats{}

	k := &keeper{cm: cm}
	if seeder != nil {
		if err := seeder.Seed(pools, k); err != nil {
			return nil, fmt.Errorf("seeding: %w", err)
		}
	}
	stats.Seeds = k.seeds
	s.logger.Debug("seeds marked", "seeds", k.seeds, "used", s.usage.UsedTransitions())

	for {
		stats.Rounds++
		if err := s.markPrimary(ctx, pools, cm, stats); err != nil {
			return nil, err
		}

		before := usedClassCount(pools, s.usage)
		s.markSecondary(pools, cm)
		after := usedClassCount(pools, s.usage)

		s.logger.Debug("round complete",
			"round", stats.Rounds,
			"passes", stats.Passes,
			"used_classes", after,
		)
		if after == before {
			break
		}
	}

	marker.NewKotlinModuleUsageMarker(s.usage).VisitResourceFiles(pools.Resources)

	stats.collect(pools, s.usage)
	stats.Duration = time.Since(start)

	s.logger.Info("marking finished",
		"policy", s.policy.String(),
		"rounds", stats.Rounds,
		"passes", stats.Passes,
		"used_classes", stats.UsedClasses,
		"used_members", stats.UsedMembers,
		"duration", stats.Duration,
	)
	return stats, nil
}

// markPrimary repeats full traversals of the program and library pools
// until one adds no used node.
func (s *Shrinker) markPrimary(ctx context.Context, pools *classfile.Pools, cm *marker.ClassUsageMarker, stats *Stats) error {
	revisit := marker.NewUsedClassFilter(s.usage, cm.Revisitor(), nil)
	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("marking cancelled after %d passes: %w", stats.Passes, err)
		}
		if n >= s.maxPasses {
			return fmt.Errorf("%w after %d passes", ErrPassLimit, n)
		}

		before := s.usage.UsedTransitions()
		pools.Program.ClassesAccept(revisit)
		pools.Library.ClassesAccept(revisit)
		stats.Passes++

		added := s.usage.UsedTransitions() - before
		s.logger.Debug("pass complete", "pass", stats.Passes, "new_used", added)
		if added == 0 {
			return nil
		}
	}
}

// markSecondary runs each secondary marker once over the used program
// classes.
func (s *Shrinker) markSecondary(pools *classfile.Pools, cm *marker.ClassUsageMarker) {
	secondaries := []classfile.ClassVisitor{
		marker.NewInterfaceUsageMarker(cm),
		marker.NewInnerUsageMarker(cm),
		marker.NewNestUsageMarker(cm),
		marker.NewRecordComponentUsageMarker(cm),
		marker.NewAnnotationUsageMarker(cm),
	}
	for _, v := range secondaries {
		pools.Program.ClassesAccept(marker.NewUsedClassFilter(s.usage, v, nil))
	}
}
