package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/store"
)

// RunsOptions holds flags for the runs commands.
type RunsOptions struct {
	*RootOptions
	Store  string
	KeptBy string // class whose direct keeps to list
	Marks  bool   // list every verdict
}

// RunSummary is the JSON payload of "runs show".
type RunSummary struct {
	Run    store.Run                 `json:"run"`
	Counts map[string]map[string]int `json:"counts"`
	KeptBy []store.Mark              `json:"kept_by,omitempty"`
	Marks  []store.Mark              `json:"marks,omitempty"`
}

// NewRunsCommand creates the runs command and its show subcommand.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a store",
		Long: `List the marking runs recorded with "keepmark mark --store", oldest
first.

Examples:
  keepmark runs --store runs.db
  keepmark runs show latest --store runs.db --kept-by com.example.Main`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListRuns(opts, cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "SQLite database holding stored runs")

	show := &cobra.Command{
		Use:           "show <run-id|latest>",
		Short:         "Summarize one stored run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowRun(opts, args[0], cmd)
		},
	}
	show.Flags().StringVar(&opts.KeptBy, "kept-by", "", "list the nodes this class keeps directly")
	show.Flags().BoolVar(&opts.Marks, "marks", false, "list every verdict of the run")
	cmd.AddCommand(show)

	return cmd
}

// openExistingStore opens a store that must already exist, so a mistyped
// path is reported instead of creating an empty database.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("store not found: %s", path)
	}
	return store.Open(path)
}

func (o *RunsOptions) open(formatter *OutputFormatter) (*store.Store, error) {
	path := o.Store
	if path == "" {
		path = o.config().Store.Path
	}
	if path == "" {
		_ = formatter.Error(ErrCodeStore, "no store given (--store or store.path)", nil)
		return nil, NewExitError(ExitCommandError, ErrCodeStore+": no store configured")
	}
	st, err := openExistingStore(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, ErrCodeStore+": opening store", err)
	}
	return st, nil
}

func runListRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	st, err := opts.open(formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return formatter.Fail("listing runs", err)
	}
	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tPOLICY\tEXPLAIN\tCLASSES\tMEMBERS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%d/%d\t%d/%d\n",
			r.Seq, r.ID, r.Policy, r.Explain,
			r.Stats.UsedClasses, r.Stats.Classes,
			r.Stats.UsedMembers, r.Stats.Members)
	}
	return tw.Flush()
}

func runShowRun(opts *RunsOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	st, err := opts.open(formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	runID, err := resolveRunID(ctx, st, id)
	if err != nil {
		return formatter.Fail("reading run", err)
	}
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return formatter.Fail("reading run", err)
	}

	summary := RunSummary{Run: run, Counts: make(map[string]map[string]int)}
	for _, kind := range []string{report.KindClass, report.KindField, report.KindMethod, report.KindResource} {
		counts, err := st.CountStates(ctx, runID, kind)
		if err != nil {
			return formatter.Fail("counting states", err)
		}
		summary.Counts[kind] = counts
	}
	if opts.KeptBy != "" {
		if summary.KeptBy, err = st.ReadKeptBy(ctx, runID, opts.KeptBy); err != nil {
			return formatter.Fail("reading kept-by", err)
		}
	}
	if opts.Marks {
		if summary.Marks, err = st.ReadMarks(ctx, runID); err != nil {
			return formatter.Fail("reading marks", err)
		}
	}

	if opts.Format == "json" {
		return formatter.SuccessWithRun(summary, runID)
	}
	writeRunSummary(cmd, summary, opts.KeptBy)
	return nil
}

func writeRunSummary(cmd *cobra.Command, s RunSummary, keptBy string) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Run: %s (policy %s, explain %t)\n", s.Run.ID, s.Run.Policy, s.Run.Explain)
	for _, kind := range []string{report.KindClass, report.KindField, report.KindMethod, report.KindResource} {
		c := s.Counts[kind]
		fmt.Fprintf(w, "  %-9s %d used, %d possibly used, %d unused\n",
			kind+":", c["used"], c["possibly_used"], c["unused"])
	}
	if keptBy != "" {
		fmt.Fprintf(w, "Kept directly by %s:\n", keptBy)
		for _, m := range s.KeptBy {
			fmt.Fprintf(w, "  %s %s (%s)\n", m.Kind, m.Node, m.State)
		}
	}
	for _, m := range s.Marks {
		fmt.Fprintf(w, "%s %s %s\n", m.Kind, m.Node, m.State)
	}
}
