package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/keepmark/internal/loader"
	"github.com/roach88/keepmark/internal/marker"
	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/shrink"
	"github.com/roach88/keepmark/internal/store"
	"github.com/roach88/keepmark/internal/usage"
)

// MarkOptions holds flags for the mark command.
type MarkOptions struct {
	*RootOptions
	Policy    string // overrides config policy
	Explain   bool   // overrides config explain when set
	Store     string // overrides config store.path
	MaxPasses int
	MaxHops   int
	Summary   bool // print stats only

	// RunIDs hands out run ids for stored runs. Default: UUIDv7.
	RunIDs store.RunIDGenerator
}

// MarkResult is the JSON payload of the mark command.
type MarkResult struct {
	RunID      string         `json:"run_id,omitempty"`
	Policy     string         `json:"policy"`
	Explain    bool           `json:"explain"`
	Stats      shrink.Stats   `json:"stats"`
	Unresolved []string       `json:"unresolved,omitempty"`
	Report     *report.Report `json:"report,omitempty"`
}

// NewMarkCommand creates the mark command.
func NewMarkCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarkOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mark <program>",
		Short: "Mark a program from its keep directives",
		Long: `Load a CUE program description, mark everything reachable from its
keep directives, and print the verdict on every program class, member
and resource file.

With --store the run and its explanations are written to a SQLite
database for later inspection with "keepmark why --run".

Exit codes:
  0 - Marking finished
  1 - Marking failed (a keep directive matched nothing, cancelled run)
  2 - Command error (program does not load, store cannot be opened)

Examples:
  keepmark mark ./program.cue
  keepmark mark ./program --policy precise --summary
  keepmark mark ./program.cue --store runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "promotion policy: conservative or precise (default from config)")
	cmd.Flags().BoolVar(&opts.Explain, "explain", true, "keep a cause chain for every mark")
	cmd.Flags().StringVar(&opts.Store, "store", "", "SQLite database to record the run in")
	cmd.Flags().IntVar(&opts.MaxPasses, "max-passes", 0, "cap on marking passes per round (0: default)")
	cmd.Flags().IntVar(&opts.MaxHops, "max-hops", 0, "cap on explanation chain length (0: node count)")
	cmd.Flags().BoolVar(&opts.Summary, "summary", false, "print run statistics only")

	return cmd
}

// markSettings is the effective configuration of one marking run.
type markSettings struct {
	policy    marker.Policy
	explain   bool
	maxPasses int
	maxHops   int
}

func (o *MarkOptions) settings(cmd *cobra.Command) (markSettings, error) {
	cfg := o.config()
	s := markSettings{
		explain:   cfg.Explain,
		maxPasses: cfg.MaxPasses,
		maxHops:   cfg.Report.MaxHops,
	}
	if cmd.Flags().Changed("explain") {
		s.explain = o.Explain
	}
	if o.MaxPasses > 0 {
		s.maxPasses = o.MaxPasses
	}
	if o.MaxHops > 0 {
		s.maxHops = o.MaxHops
	}

	name := cfg.Policy
	if o.Policy != "" {
		name = o.Policy
	}
	p, err := marker.ParsePolicy(name)
	if err != nil {
		return markSettings{}, err
	}
	s.policy = p
	return s, nil
}

// markedProgram is a program after a successful run.
type markedProgram struct {
	program *loader.Program
	marker  usage.Marker
	stats   *shrink.Stats
}

// markProgram loads the program at path and marks it. Errors are
// classified by the caller.
func markProgram(ctx context.Context, path string, s markSettings, logger *slog.Logger) (*markedProgram, string, error) {
	prog, err := loader.New().Load(path)
	if err != nil {
		return nil, "loading program", err
	}
	logger.Debug("program loaded",
		"path", path,
		"classes", len(prog.Pools.Program.Classes()),
		"unresolved", len(prog.Unresolved))

	var m usage.Marker = usage.NewSimpleMarker()
	if s.explain {
		m = usage.NewShortestMarker()
	}
	stats, err := shrink.New(m,
		shrink.WithPolicy(s.policy),
		shrink.WithLogger(logger),
		shrink.WithMaxPasses(s.maxPasses),
	).Mark(ctx, prog.Pools, prog.Seeds)
	if err != nil {
		return nil, "marking", err
	}
	return &markedProgram{program: prog, marker: m, stats: stats}, "", nil
}

func runMark(opts *MarkOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	settings, err := opts.settings(cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid policy", err)
	}

	mp, stage, err := markProgram(cmd.Context(), path, settings, slog.Default())
	if err != nil {
		return formatter.Fail(stage, err)
	}
	for _, name := range mp.program.Unresolved {
		formatter.VerboseLog("unresolved class: %s", name)
	}

	result := MarkResult{
		Policy:     settings.policy.String(),
		Explain:    settings.explain,
		Stats:      *mp.stats,
		Unresolved: mp.program.Unresolved,
	}

	var r *report.Report
	if !opts.Summary || opts.storePath() != "" {
		r, err = report.Build(mp.program.Pools, mp.marker, settings.maxHops)
		if err != nil {
			return formatter.Fail("building report", err)
		}
	}

	if path := opts.storePath(); path != "" {
		runID, err := opts.record(cmd.Context(), path, result, r)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, ErrCodeStore+": recording run", err)
		}
		result.RunID = runID
		formatter.VerboseLog("recorded run %s in %s", runID, path)
	}

	if !opts.Summary {
		result.Report = r
	}

	if opts.Format == "json" {
		return formatter.SuccessWithRun(result, result.RunID)
	}
	return writeMarkText(cmd.OutOrStdout(), mp.marker, result, settings.maxHops)
}

func (o *MarkOptions) storePath() string {
	if o.Store != "" {
		return o.Store
	}
	return o.config().Store.Path
}

// record writes the run and its report to the store at path.
func (o *MarkOptions) record(ctx context.Context, path string, result MarkResult, r *report.Report) (string, error) {
	st, err := store.Open(path, store.WithLogger(slog.Default()))
	if err != nil {
		return "", err
	}
	defer st.Close()

	ids := o.RunIDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	run := store.Run{
		ID:      ids.Generate(),
		Policy:  result.Policy,
		Explain: result.Explain,
		Stats:   result.Stats,
	}
	if _, err := st.WriteRun(ctx, run, r); err != nil {
		return "", err
	}
	return run.ID, nil
}

func writeMarkText(w io.Writer, m usage.Marker, result MarkResult, maxHops int) error {
	if result.Report != nil {
		p := report.NewPrinter(w, m, report.WithMaxHops(maxHops))
		if err := p.WriteReport(result.Report); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	writeStats(w, result.Stats)
	for _, name := range result.Unresolved {
		fmt.Fprintf(w, "unresolved: %s\n", name)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}
	return nil
}

func writeStats(w io.Writer, s shrink.Stats) {
	fmt.Fprintf(w, "Classes:   %d used, %d possibly used, %d total\n", s.UsedClasses, s.PossiblyUsedClasses, s.Classes)
	fmt.Fprintf(w, "Members:   %d used, %d possibly used, %d total\n", s.UsedMembers, s.PossiblyUsedMembers, s.Members)
	fmt.Fprintf(w, "Resources: %d used, %d total\n", s.UsedResources, s.Resources)
	fmt.Fprintf(w, "Library classes used: %d\n", s.UsedLibraryClasses)
	fmt.Fprintf(w, "Rounds: %d, passes: %d, seeds: %d\n", s.Rounds, s.Passes, s.Seeds)
}
