package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/grovetools/agentwatch/cli"
	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/pkg/theme"
	"github.com/spf13/cobra"
)

// NewSendCmd returns the command that submits a task to a running server.
func NewSendCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Submit a task to the running agent",
		Long: `Submit a task to the running agent. The task is rejected when another
task is still running.

Examples:
  agentwatch send "Create an index.html with a hello world page"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveAddr(addr)
			if err != nil {
				return err
			}
			message := strings.Join(args, " ")
			cli.GetLogger(cmd).WithField("addr", target).Debug("Submitting message")

			accepted, err := submitMessage(newHTTPClient(), target, message)
			if err != nil {
				return err
			}

			if cli.GetOptions(cmd).JSONOutput {
				data, _ := json.Marshal(map[string]bool{"accepted": accepted})
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			} else if accepted {
				fmt.Fprintln(cmd.OutOrStdout(), theme.DefaultTheme.Success.Render("✓")+" Task accepted")
			}
			if !accepted {
				return errors.TaskBusy()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Server address (host:port); defaults to the running server")
	return cmd
}
