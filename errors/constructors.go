package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *AgentError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *AgentError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// FileNotFound reports a workspace path that does not exist.
func FileNotFound(path string) *AgentError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file or directory does not exist: %s", path)).
		WithDetail("path", path)
}

// FileExists reports a workspace path that is already taken.
func FileExists(path string) *AgentError {
	return New(ErrCodeFileExists, fmt.Sprintf("file or directory already exists: %s", path)).
		WithDetail("path", path)
}

// PathOutsideWorkspace reports a path that resolves outside the workspace root.
func PathOutsideWorkspace(path string) *AgentError {
	return New(ErrCodePathOutsideWorkspace, fmt.Sprintf("path escapes the workspace: %s", path)).
		WithDetail("path", path)
}

// InvalidInput creates an invalid request error
func InvalidInput(reason string) *AgentError {
	return New(ErrCodeInvalidInput, reason)
}

// AgentFailed wraps an error returned by the agent while running a task.
func AgentFailed(err error) *AgentError {
	return Wrap(err, ErrCodeAgentFailed, "agent run failed")
}

// AgentExited reports an agent process that exited unsuccessfully.
func AgentExited(cmd string, err error) *AgentError {
	agentErr := Wrap(err, ErrCodeAgentFailed, fmt.Sprintf("agent exited with an error: %s", cmd)).
		WithDetail("command", cmd)
	if exitErr, ok := err.(*exec.ExitError); ok {
		agentErr = agentErr.WithDetail("exitCode", exitErr.ExitCode())
	}
	return agentErr
}

// TaskBusy reports a submission rejected by the server.
func TaskBusy() *AgentError {
	return New(ErrCodeTaskBusy, "task rejected: the agent is busy or the message was empty")
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *AgentError {
	agentErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		agentErr = agentErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return agentErr
}
