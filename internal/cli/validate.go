package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/loader"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid          bool     `json:"valid"`
	Classes        int      `json:"classes"`
	LibraryClasses int      `json:"library_classes"`
	Resources      int      `json:"resources"`
	Seeds          int      `json:"seeds"`
	Unresolved     []string `json:"unresolved,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Validate a program description without marking it",
		Long: `Load and link a CUE program description without marking it.

Reports schema errors with their CUE position, malformed member
signatures and duplicate classes. Class names referenced but defined
nowhere are listed as unresolved; they do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	prog, err := loader.New().Load(path)
	if err != nil {
		return formatter.Fail("loading program", err)
	}

	result := ValidationResult{
		Valid:          true,
		Classes:        countPrograms(prog.Pools.Program),
		LibraryClasses: len(prog.Pools.Library.Classes()),
		Resources:      len(prog.Pools.Resources.Files()),
		Seeds:          len(prog.Seeds.Classes) + len(prog.Seeds.Members) + len(prog.Seeds.Resources),
		Unresolved:     prog.Unresolved,
	}
	formatter.VerboseLog("Loaded %d class(es) from %s", result.Classes, path)

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ Program valid: %d class(es), %d library class(es), %d resource file(s), %d keep directive(s)\n",
		result.Classes, result.LibraryClasses, result.Resources, result.Seeds)
	for _, name := range result.Unresolved {
		fmt.Fprintf(w, "  unresolved: %s\n", name)
	}
	return nil
}

func countPrograms(pool *classfile.ClassPool) int {
	n := 0
	for _, c := range pool.Classes() {
		if _, ok := c.(*classfile.ProgramClass); ok {
			n++
		}
	}
	return n
}
