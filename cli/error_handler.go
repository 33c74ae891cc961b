package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/pkg/theme"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message suited to the error's code and returns err.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	label := theme.DefaultTheme.Error.Render("✗")
	agentErr, _ := err.(*errors.AgentError)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(h.Out, "%s Configuration not found. Create agentwatch.yml or pass --config.\n", label)

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(h.Out, "%s Invalid configuration: %v\n", label, err)
		fmt.Fprintf(h.Out, "Run 'agentwatch config --schema' to see the expected format.\n")

	case errors.ErrCodeFileNotFound:
		fmt.Fprintf(h.Out, "%s %s\n", label, message(err))

	case errors.ErrCodeTaskBusy:
		fmt.Fprintf(h.Out, "%s Task rejected: a task is already running or the message was empty. Try again once it completes.\n", label)

	case errors.ErrCodeAgentFailed:
		if code, ok := detail(agentErr, "exitCode"); ok {
			fmt.Fprintf(h.Out, "%s Agent exited with code %v\n", label, code)
		} else {
			fmt.Fprintf(h.Out, "%s %v\n", label, err)
		}

	case errors.ErrCodeCommandFailed:
		if agentErr != nil {
			fmt.Fprintf(h.Out, "%s Agent command failed (exit code %v)\n", label, agentErr.Details["exitCode"])
		} else {
			fmt.Fprintf(h.Out, "%s %v\n", label, err)
		}

	default:
		fmt.Fprintf(h.Out, "%s Error: %v\n", label, err)
	}

	if h.Verbose && agentErr != nil {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", agentErr.ToJSON())
	}
	return err
}

func message(err error) string {
	if agentErr, ok := err.(*errors.AgentError); ok {
		return agentErr.Message
	}
	return err.Error()
}

func detail(err *errors.AgentError, key string) (interface{}, bool) {
	if err == nil {
		return nil, false
	}
	v, ok := err.Details[key]
	return v, ok
}
