// Package cmd holds the agentwatch subcommands.
package cmd

import (
	"github.com/grovetools/agentwatch/cli"
	"github.com/grovetools/agentwatch/version"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the agentwatch command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"agentwatch",
		"Watch an agent work: live chat, reasoning, tool calls and file changes",
	)
	cli.SetVersionTemplate(root, version.GetInfo())

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewSendCmd())
	root.AddCommand(NewWatchCmd())
	root.AddCommand(NewStatusCmd())
	root.AddCommand(NewStopCmd())
	root.AddCommand(NewConfigCmd())
	root.AddCommand(cli.NewVersionCommand("agentwatch"))

	cli.ApplyStyledHelpRecursive(root)
	return root
}
