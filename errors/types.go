package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Workspace errors
	ErrCodeFileNotFound         ErrorCode = "FILE_NOT_FOUND"
	ErrCodeFileExists           ErrorCode = "FILE_EXISTS"
	ErrCodePathOutsideWorkspace ErrorCode = "PATH_OUTSIDE_WORKSPACE"

	// Task execution errors
	ErrCodeTaskBusy      ErrorCode = "TASK_BUSY"
	ErrCodeAgentFailed   ErrorCode = "AGENT_FAILED"
	ErrCodeCommandFailed ErrorCode = "COMMAND_FAILED"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// AgentError represents a structured error with context
type AgentError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AgentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AgentError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AgentError) WithDetail(key string, value interface{}) *AgentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *AgentError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new AgentError
func New(code ErrorCode, message string) *AgentError {
	return &AgentError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AgentError
func Wrap(err error, code ErrorCode, message string) *AgentError {
	return &AgentError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error chain contains an AgentError with the given code.
// The outermost AgentError wins, so a wrapped cause with a different code
// does not match.
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var agentErr *AgentError
	if !stderrors.As(err, &agentErr) {
		return ""
	}
	return agentErr.Code
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeFileNotFound:
		return http.StatusNotFound
	case ErrCodeFileExists, ErrCodeTaskBusy:
		return http.StatusConflict
	case ErrCodeInvalidInput, ErrCodePathOutsideWorkspace:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
