package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/agentwatch/cli"
	"github.com/grovetools/agentwatch/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd returns the command that prints the effective configuration.
func NewConfigCmd() *cobra.Command {
	var showSchema bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration agentwatch would run with: the nearest
agentwatch.yml (or the file given with --config) with defaults applied.

Examples:
  agentwatch config
  agentwatch config --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showSchema {
				fmt.Fprintln(cmd.OutOrStdout(), string(schema.Raw()))
				return nil
			}

			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if src := cfg.Source(); src != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# Source: %s\n", src)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# Source: defaults")
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSchema, "schema", false, "Print the JSON schema for agentwatch.yml")
	return cmd
}
