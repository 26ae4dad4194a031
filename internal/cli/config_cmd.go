package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigShowOptions holds flags for the config show command.
type ConfigShowOptions struct {
	*RootOptions
	Source bool
}

// ConfigView is the JSON payload of config show.
type ConfigView struct {
	Source string  `json:"source,omitempty"`
	Config *Config `json:"config"`
}

// NewConfigCommand creates the config command and its show subcommand.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the effective configuration after merging defaults, config file, and KEEPMARK_ environment variables.`,
		Example: `  # Show effective configuration
  keepmark config show

  # Show configuration with source file path
  keepmark config show --source`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(opts, cmd)
		},
	}
	show.Flags().BoolVar(&opts.Source, "source", false, "show config file source")
	cmd.AddCommand(show)

	return cmd
}

func runConfigShow(opts *ConfigShowOptions, cmd *cobra.Command) error {
	cfg := opts.config()
	w := cmd.OutOrStdout()

	if opts.Format == "json" {
		view := ConfigView{Config: cfg}
		if opts.Source {
			view.Source = opts.ConfigSource
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: view})
	}

	if opts.Source {
		if opts.ConfigSource != "" {
			fmt.Fprintf(w, "Config file: %s\n\n", opts.ConfigSource)
		} else {
			fmt.Fprintln(w, "Config file: (none, using defaults)")
			fmt.Fprintln(w)
		}
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}
