package models

import (
	"time"
)

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// ChatMessage is one entry of the shared, append-only chat history.
type ChatMessage struct {
	Sender  Sender `json:"sender"`
	Content string `json:"content"`
}

// SessionSnapshot is a read-only view of the task currently (or last) running.
type SessionSnapshot struct {
	TaskID      string    `json:"task_id,omitempty"`
	Busy        bool      `json:"busy"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	Thoughts    *string   `json:"thoughts"`
	ToolArgs    *string   `json:"tool_args"`
	TokenUsage  *string   `json:"token_usage"`
	CurrentTool *string   `json:"current_tool"`
}

// ActiveFile is the file observers currently have open. Content is only
// meaningful when Path is set.
type ActiveFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// IsSet reports whether a file is open.
func (f ActiveFile) IsSet() bool {
	return f.Path != ""
}
