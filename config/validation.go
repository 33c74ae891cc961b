package config

import (
	"fmt"
	"net"

	"github.com/grovetools/agentwatch/errors"
	"github.com/moby/patternmatcher"
)

// Validate checks a configuration after defaults have been applied.
func (c *Config) Validate() error {
	if err := validateServer(&c.Server); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid server configuration")
	}
	if err := validateWorkspace(&c.Workspace); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid workspace configuration")
	}
	if err := validateAgent(&c.Agent); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid agent configuration")
	}
	if c.History.MaxMessages < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "history.max_messages cannot be negative").
			WithDetail("max_messages", c.History.MaxMessages)
	}
	return nil
}

func validateServer(s *ServerConfig) error {
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("invalid listen address %q (must be host:port)", s.Addr)).
			WithDetail("addr", s.Addr)
	}
	if s.EventBuffer < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "event_buffer cannot be negative")
	}
	return nil
}

func validateWorkspace(w *WorkspaceConfig) error {
	if w.DebounceMs < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "debounce_ms cannot be negative")
	}
	if w.MoveWindowMs < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "move_window_ms cannot be negative")
	}
	if _, err := patternmatcher.New(w.Ignore); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ignore pattern")
	}
	return nil
}

func validateAgent(a *AgentConfig) error {
	switch a.Kind {
	case AgentKindCommand:
		if len(a.Command) == 0 || a.Command[0] == "" {
			return errors.New(errors.ErrCodeInvalidInput, "agent.command is required for the command agent")
		}
	case AgentKindEcho:
	default:
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown agent kind %q", a.Kind)).
			WithDetail("kind", a.Kind)
	}

	switch a.Input {
	case InputStdin, InputArg:
	default:
		return errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown agent input mode %q", a.Input)).
			WithDetail("input", a.Input)
	}
	return nil
}
