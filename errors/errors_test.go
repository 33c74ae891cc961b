package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAgentError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeFileNotFound, "file not found")
	if err.Code != ErrCodeFileNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeFileNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeFileNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	detailed := err.WithDetail("path", "notes.md").WithDetail("size", 12)
	if detailed.Details["path"] != "notes.md" {
		t.Error("WithDetail should add details")
	}
}

func TestIsThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("saving: %w", FileExists("a.txt"))
	if !Is(err, ErrCodeFileExists) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
	if GetCode(fmt.Errorf("plain")) != "" {
		t.Error("GetCode should be empty for foreign errors")
	}
	if Is(nil, "") {
		t.Error("Is(nil) must be false")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := FileNotFound("docs/a.md")
	if err.Code != ErrCodeFileNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeFileNotFound, err.Code)
	}
	if err.Details["path"] != "docs/a.md" {
		t.Error("FileNotFound should include path detail")
	}

	agentErr := AgentFailed(fmt.Errorf("boom"))
	if agentErr.Code != ErrCodeAgentFailed || agentErr.Cause == nil {
		t.Error("AgentFailed should wrap its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		FileNotFound("x"):         http.StatusNotFound,
		FileExists("x"):           http.StatusConflict,
		InvalidInput("bad"):       http.StatusBadRequest,
		PathOutsideWorkspace("x"): http.StatusBadRequest,
		fmt.Errorf("unknown"):     http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := HTTPStatus(err); got != want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", err, got, want)
		}
	}
}
