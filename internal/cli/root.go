package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config and ConfigSource are set by the root command before any
	// subcommand runs. Commands built on their own fall back to defaults.
	Config       *Config
	ConfigSource string
}

// config returns the loaded configuration, or the defaults.
func (o *RootOptions) config() *Config {
	if o.Config == nil {
		o.Config = DefaultConfig()
	}
	return o.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the keepmark CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "keepmark",
		Short: "keepmark - reachability marking for JVM programs",
		Long: `Mark which classes, members and resource files of a JVM program are
reachable from its keep directives, and explain why each one is kept.

Programs are described in CUE. Every verdict can carry a chain of causes
back to the keep directive it was reached from.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default: auto-discover keepmark.yaml)")

	cmd.AddCommand(NewMarkCommand(opts))
	cmd.AddCommand(NewWhyCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// setup loads the configuration, resolves the output format and installs
// the default logger.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, source, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig+": loading configuration", err)
	}
	o.Config = cfg
	o.ConfigSource = source

	if !cmd.Flags().Changed("format") {
		o.Format = cfg.Report.Format
	}
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	slog.SetDefault(newLogger(cmd.ErrOrStderr(), o.Verbose))
	return nil
}

// newLogger writes text logs to w: debug and up when verbose, warnings
// and up otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
