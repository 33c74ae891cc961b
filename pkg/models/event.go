package models

import (
	"encoding/json"
	"fmt"
)

// EventType is the wire name of an observer event.
type EventType string

const (
	EventNewMessage      EventType = "new_message"
	EventAgentThoughts   EventType = "agent_thoughts"
	EventToolArgs        EventType = "tool_args"
	EventTokenUsage      EventType = "token_usage"
	EventActivatingTool  EventType = "activating_tool"
	EventToolResult      EventType = "tool_result"
	EventThinking        EventType = "thinking"
	EventFileUpdate      EventType = "file_update"
	EventWorkspaceChange EventType = "workspace_change"
	EventTaskComplete    EventType = "task_complete"

	// EventMessageHistory is only ever sent to the observer that asked for it.
	EventMessageHistory EventType = "message_history"
)

// Event is the unit delivered to observers. Payload is one of the payload
// structs below and is never mutated after publishing.
type Event struct {
	Type    EventType   `json:"event"`
	Payload interface{} `json:"data"`
}

// ContentPayload carries a single free-text body (thoughts, tool args,
// token usage, thinking).
type ContentPayload struct {
	Content string `json:"content"`
}

// ActivatingToolPayload names the tool the agent is about to run.
type ActivatingToolPayload struct {
	ToolName string `json:"tool_name"`
}

// ToolResultPayload carries a completed tool's result.
type ToolResultPayload struct {
	ToolName string `json:"tool_name"`
	Result   string `json:"result"`
}

// FileUpdatePayload carries the fresh content of a file.
type FileUpdatePayload struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// WorkspaceChangePayload describes a filesystem mutation under the workspace.
type WorkspaceChangePayload struct {
	Type        ChangeType `json:"type"`
	IsDirectory bool       `json:"is_directory"`
	Path        string     `json:"path"`
	DestPath    string     `json:"dest_path,omitempty"`
}

// TaskCompletePayload is sent once a task's agent run has returned.
type TaskCompletePayload struct {
	Message string `json:"message"`
}

// ChangeType enumerates workspace mutations.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeDeleted  ChangeType = "deleted"
	ChangeModified ChangeType = "modified"
	ChangeMoved    ChangeType = "moved"
)

// NewMessageEvent wraps a chat message.
func NewMessageEvent(msg ChatMessage) Event {
	return Event{Type: EventNewMessage, Payload: msg}
}

// AgentThoughtsEvent reports the agent's reasoning text.
func AgentThoughtsEvent(content string) Event {
	return Event{Type: EventAgentThoughts, Payload: ContentPayload{Content: content}}
}

// ToolArgsEvent reports the arguments a tool was invoked with.
func ToolArgsEvent(content string) Event {
	return Event{Type: EventToolArgs, Payload: ContentPayload{Content: content}}
}

// TokenUsageEvent reports token accounting.
func TokenUsageEvent(content string) Event {
	return Event{Type: EventTokenUsage, Payload: ContentPayload{Content: content}}
}

// ActivatingToolEvent reports the tool about to run.
func ActivatingToolEvent(name string) Event {
	return Event{Type: EventActivatingTool, Payload: ActivatingToolPayload{ToolName: name}}
}

// ToolResultEvent reports a finished tool.
func ToolResultEvent(name, result string) Event {
	return Event{Type: EventToolResult, Payload: ToolResultPayload{ToolName: name, Result: result}}
}

// ThinkingEvent carries raw tool output appended to the agent transcript.
func ThinkingEvent(content string) Event {
	return Event{Type: EventThinking, Payload: ContentPayload{Content: content}}
}

// FileUpdateEvent pushes new file content.
func FileUpdateEvent(path, content string) Event {
	return Event{Type: EventFileUpdate, Payload: FileUpdatePayload{Path: path, Content: content}}
}

// WorkspaceChangeEvent reports a filesystem mutation.
func WorkspaceChangeEvent(change WorkspaceChangePayload) Event {
	return Event{Type: EventWorkspaceChange, Payload: change}
}

// TaskCompleteEvent signals the end of a task.
func TaskCompleteEvent(message string) Event {
	return Event{Type: EventTaskComplete, Payload: TaskCompletePayload{Message: message}}
}

// MessageHistoryEvent wraps a history snapshot for a single observer.
func MessageHistoryEvent(history []ChatMessage) Event {
	if history == nil {
		history = []ChatMessage{}
	}
	return Event{Type: EventMessageHistory, Payload: history}
}

// ClientFrame is a request sent by an observer over a bidirectional transport.
type ClientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client frame names.
const (
	FrameSendMessage       = "send_message"
	FrameGetMessageHistory = "get_message_history"
)

// SendMessageData is the payload of a send_message frame.
type SendMessageData struct {
	Message string `json:"message"`
}

// DecodeEvent parses a wire envelope back into a typed Event. It is used by
// clients of the stream; unknown event names keep their raw payload.
func DecodeEvent(data []byte) (Event, error) {
	var raw struct {
		Type    EventType       `json:"event"`
		Payload json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("failed to decode event: %w", err)
	}

	var target interface{}
	switch raw.Type {
	case EventNewMessage:
		target = &ChatMessage{}
	case EventAgentThoughts, EventToolArgs, EventTokenUsage, EventThinking:
		target = &ContentPayload{}
	case EventActivatingTool:
		target = &ActivatingToolPayload{}
	case EventToolResult:
		target = &ToolResultPayload{}
	case EventFileUpdate:
		target = &FileUpdatePayload{}
	case EventWorkspaceChange:
		target = &WorkspaceChangePayload{}
	case EventTaskComplete:
		target = &TaskCompletePayload{}
	case EventMessageHistory:
		target = &[]ChatMessage{}
	default:
		return Event{Type: raw.Type, Payload: raw.Payload}, nil
	}

	if len(raw.Payload) > 0 {
		if err := json.Unmarshal(raw.Payload, target); err != nil {
			return Event{}, fmt.Errorf("failed to decode %s payload: %w", raw.Type, err)
		}
	}

	// Hand back values, not pointers, so decoded events compare equal to
	// the ones built with the constructors above.
	switch p := target.(type) {
	case *ChatMessage:
		return Event{Type: raw.Type, Payload: *p}, nil
	case *ContentPayload:
		return Event{Type: raw.Type, Payload: *p}, nil
	case *ActivatingToolPayload:
		return Event{Type: raw.Type, Payload: *p}, nil
	case *ToolResultPayload:
		return Event{Type: raw.Type, Payload: *p}, nil
	case *FileUpdatePayload:
		return Event{Type: raw.Type, Payload: *p}, nil
	case *WorkspaceChangePayload:
		return Event{Type: raw.Type, Payload: *p}, nil
	case *TaskCompletePayload:
		return Event{Type: raw.Type, Payload: *p}, nil
	case *[]ChatMessage:
		return Event{Type: raw.Type, Payload: *p}, nil
	}
	return Event{Type: raw.Type, Payload: target}, nil
}
