package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/store"
)

// WhyOptions holds flags for the why command.
type WhyOptions struct {
	MarkOptions
	Run string // stored run id, or "latest"
}

// NewWhyCommand creates the why command.
func NewWhyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WhyOptions{MarkOptions: MarkOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "why [program] <node>",
		Short: "Explain why a node is kept",
		Long: `Print the verdict on one class, member or resource file with the chain
of causes back to the keep directive it was reached from.

Nodes are named the way explanations print them: classes by external
name (com.example.Main), members as owner.name plus descriptor
(com.example.Main.main([Ljava/lang/String;)V, com.example.Main.count:I),
resource files by file name.

Without --run the program is marked first. With --run the explanation
is read from a stored run instead.

Examples:
  keepmark why ./program.cue com.example.Worker
  keepmark why --store runs.db --run latest com.example.Worker.count:I`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhy(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Policy, "policy", "", "promotion policy: conservative or precise (default from config)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "SQLite database holding stored runs")
	cmd.Flags().StringVar(&opts.Run, "run", "", `stored run id, or "latest"`)
	cmd.Flags().IntVar(&opts.MaxHops, "max-hops", 0, "cap on explanation chain length (0: node count)")

	return cmd
}

func runWhy(opts *WhyOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	var (
		x   report.Explanation
		err error
	)
	switch {
	case opts.Run != "" && len(args) == 1:
		x, err = opts.stored(cmd.Context(), args[0], formatter)
	case opts.Run == "" && len(args) == 2:
		x, err = opts.fresh(cmd, args[0], args[1], formatter)
	case opts.Run != "":
		return NewExitError(ExitCommandError, "with --run, give only the node")
	default:
		return NewExitError(ExitCommandError, "give the program and the node, or --run and the node")
	}
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return formatter.Success(x)
	}
	return report.NewPrinter(cmd.OutOrStdout(), nil).WriteExplanation(x)
}

// fresh marks the program and explains node. The shortest marker is
// always used so the chain is available.
func (o *WhyOptions) fresh(cmd *cobra.Command, path, node string, formatter *OutputFormatter) (report.Explanation, error) {
	settings, err := o.settings(cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return report.Explanation{}, WrapExitError(ExitCommandError, ErrCodeConfig+": invalid policy", err)
	}
	settings.explain = true

	mp, stage, err := markProgram(cmd.Context(), path, settings, slog.Default())
	if err != nil {
		return report.Explanation{}, formatter.Fail(stage, err)
	}

	p, ok := report.Nodes(mp.program.Pools)[node]
	if !ok {
		msg := fmt.Sprintf("node %q is not in the program", node)
		_ = formatter.Error(ErrCodeNode, msg, nil)
		return report.Explanation{}, NewExitError(ExitCommandError, ErrCodeNode+": "+msg)
	}

	maxHops := settings.maxHops
	if maxHops <= 0 {
		maxHops = mp.program.Pools.NodeCount()
	}
	x, err := report.ExplainNode(mp.marker, p, maxHops)
	if err != nil {
		return report.Explanation{}, formatter.Fail("explaining "+node, err)
	}
	return x, nil
}

// stored reads the explanation of node from a recorded run.
func (o *WhyOptions) stored(ctx context.Context, node string, formatter *OutputFormatter) (report.Explanation, error) {
	path := o.storePath()
	if path == "" {
		_ = formatter.Error(ErrCodeStore, "--run needs a store (--store or store.path)", nil)
		return report.Explanation{}, NewExitError(ExitCommandError, ErrCodeStore+": no store configured")
	}
	st, err := openExistingStore(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return report.Explanation{}, WrapExitError(ExitCommandError, ErrCodeStore+": opening store", err)
	}
	defer st.Close()

	runID, err := resolveRunID(ctx, st, o.Run)
	if err != nil {
		return report.Explanation{}, formatter.Fail("reading run", err)
	}
	x, err := st.ReadExplanation(ctx, runID, node)
	if err != nil {
		return report.Explanation{}, formatter.Fail("reading explanation", err)
	}
	return x, nil
}

// resolveRunID turns "latest" into the id of the last stored run.
func resolveRunID(ctx context.Context, st *store.Store, id string) (string, error) {
	if id != "latest" {
		run, err := st.ReadRun(ctx, id)
		if err != nil {
			return "", err
		}
		return run.ID, nil
	}
	run, err := st.LatestRun(ctx)
	if err != nil {
		return "", err
	}
	return run.ID, nil
}
