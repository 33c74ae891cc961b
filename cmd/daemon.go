package cmd

import (
	"fmt"

	"github.com/grovetools/agentwatch/cli"
	"github.com/grovetools/agentwatch/internal/daemon/pidfile"
	"github.com/grovetools/agentwatch/pkg/paths"
	"github.com/grovetools/agentwatch/pkg/process"
	"github.com/spf13/cobra"
)

// NewStopCmd returns the command that stops a running server.
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "agentwatch is not running")
				return nil
			}

			if err := process.Terminate(pid); err != nil {
				return err
			}
			cli.GetLogger(cmd).WithField("pid", pid).Debug("Sent SIGTERM")
			fmt.Fprintf(cmd.OutOrStdout(), "Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

// ErrStopped is returned by `status` so the process exits non-zero.
var ErrStopped = fmt.Errorf("agentwatch is not running")

// NewStatusCmd returns the command that reports whether a server is running.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped")
				return ErrStopped
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Running (PID: %d)\n", pid)
			if addr, err := resolveAddr(""); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Address: http://%s\n", addr)
			}
			return nil
		},
	}
}
