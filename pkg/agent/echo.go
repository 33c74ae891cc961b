package agent

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Echo is a built-in agent that narrates a fixed plan and replies with the
// input. It produces every kind of log record agentwatch understands, which
// makes it useful for trying out observers without a real agent.
type Echo struct {
	Hooks

	name   string
	logger *logrus.Logger
}

// NewEcho creates an Echo agent writing JSON log records to log.
func NewEcho(name string, log io.Writer) *Echo {
	if name == "" {
		name = "agent"
	}
	if log == nil {
		log = io.Discard
	}
	logger := logrus.New()
	logger.SetOutput(log)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)
	return &Echo{name: name, logger: logger}
}

// Name returns the agent's display name.
func (e *Echo) Name() string {
	return e.name
}

// Run narrates the task and appends the reply.
func (e *Echo) Run(ctx context.Context, input string) error {
	e.logger.Infof("✨ %s's thoughts: The user said %q.\nI will repeat it back.", e.name, input)
	if err := ctx.Err(); err != nil {
		return err
	}

	args, _ := json.Marshal(map[string]string{"text": input})
	e.logger.Infof("🧰 Tool arguments: %s", args)
	e.logger.Infof("🔧 Activating tool: 'echo'")
	e.Append(RoleTool, input, map[string]interface{}{"tool": "echo"})
	e.logger.Infof("🎯 Tool 'echo' completed its mission! Result: %s", input)

	words := len(strings.Fields(input))
	e.logger.Infof("Token usage: Input=%d, Completion=%d, Cumulative Input=%d, Cumulative Completion=%d, Total=%d",
		words, words, words, words, 2*words)

	e.Append(RoleAssistant, input, nil)
	return nil
}
