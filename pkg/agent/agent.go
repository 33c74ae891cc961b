// Package agent defines the contract between agentwatch and the agent that
// executes tasks, plus the built-in agent implementations.
package agent

import (
	"context"
	"sync"
)

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Entry is one transcript record.
type Entry struct {
	Role    Role                   `json:"role"`
	Content string                 `json:"content"`
	Extras  map[string]interface{} `json:"extras,omitempty"`
}

// Transcript is the append-only record an agent writes while it works.
// agentwatch swaps in its own Transcript for the duration of a task.
type Transcript interface {
	Append(role Role, content string, extras map[string]interface{})
}

// TranscriptFunc adapts a function to the Transcript interface.
type TranscriptFunc func(role Role, content string, extras map[string]interface{})

// Append calls f.
func (f TranscriptFunc) Append(role Role, content string, extras map[string]interface{}) {
	f(role, content, extras)
}

// Agent runs one task at a time. Run must write every transcript entry
// through the Transcript current at the time of the write.
type Agent interface {
	Name() string
	Run(ctx context.Context, input string) error
	Transcript() Transcript
	SetTranscript(t Transcript)
}

// Memory is an in-process transcript. It is the default for every agent.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an empty transcript.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records an entry.
func (m *Memory) Append(role Role, content string, extras map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Role: role, Content: content, Extras: extras})
}

// Entries returns a copy of everything recorded so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Hooks holds an agent's transcript strategy. Embed it to satisfy the
// Transcript and SetTranscript halves of Agent.
type Hooks struct {
	mu         sync.RWMutex
	transcript Transcript
}

// Transcript returns the installed transcript, creating a Memory on first use.
func (h *Hooks) Transcript() Transcript {
	h.mu.RLock()
	t := h.transcript
	h.mu.RUnlock()
	if t != nil {
		return t
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.transcript == nil {
		h.transcript = NewMemory()
	}
	return h.transcript
}

// SetTranscript replaces the transcript. A nil value restores a fresh Memory
// on the next call to Transcript.
func (h *Hooks) SetTranscript(t Transcript) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transcript = t
}

// Append writes to whichever transcript is installed at call time.
func (h *Hooks) Append(role Role, content string, extras map[string]interface{}) {
	h.Transcript().Append(role, content, extras)
}
