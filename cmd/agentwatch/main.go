package main

import (
	"errors"
	"os"

	"github.com/grovetools/agentwatch/cli"
	"github.com/grovetools/agentwatch/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cmd.ErrStopped) {
			verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
			cli.NewErrorHandler(verbose).Handle(err)
		}
		os.Exit(1)
	}
}
