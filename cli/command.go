package cli

import (
	"os"

	"github.com/grovetools/agentwatch/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds the flags shared by every agentwatch command.
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a command carrying the standard flags.
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to agentwatch.yml config file")

	return cmd
}

// GetOptions extracts the standard options from a command.
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// GetLogger creates a stderr logger for client-side commands based on the
// standard flags. The server uses the logging package instead.
func GetLogger(cmd *cobra.Command) *logrus.Logger {
	opts := GetOptions(cmd)
	level := logrus.WarnLevel
	if opts.Verbose {
		level = logrus.DebugLevel
	}
	logOpts := []LoggerOption{WithOutput(os.Stderr), WithLevel(level)}
	if opts.JSONOutput {
		logOpts = append(logOpts, WithFormatter(&logrus.JSONFormatter{}))
	}
	return NewLogger(logOpts...)
}

// LoadConfig loads the file named by --config, or searches for one from the
// working directory.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadFromWithLogger(cwd, GetLogger(cmd))
}
