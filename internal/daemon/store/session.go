package store

import (
	"sync"
	"time"

	"github.com/grovetools/agentwatch/pkg/models"
)

// Session holds what is known about the task currently running. It is
// cleared at the start of every task and overwritten as log events arrive.
type Session struct {
	mu          sync.RWMutex
	taskID      string
	busy        bool
	startedAt   time.Time
	thoughts    *string
	toolArgs    *string
	tokenUsage  *string
	currentTool *string
}

// NewSession creates an idle, empty session.
func NewSession() *Session {
	return &Session{}
}

// Reset clears every field and records the start of a new task.
func (s *Session) Reset(taskID string, startedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskID = taskID
	s.busy = true
	s.startedAt = startedAt
	s.thoughts = nil
	s.toolArgs = nil
	s.tokenUsage = nil
	s.currentTool = nil
}

// Finish marks the task as no longer running. The collected fields stay
// readable until the next Reset.
func (s *Session) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
}

func (s *Session) SetThoughts(v string) { s.set(&s.thoughts, v) }

func (s *Session) SetToolArgs(v string) { s.set(&s.toolArgs, v) }

func (s *Session) SetTokenUsage(v string) { s.set(&s.tokenUsage, v) }

func (s *Session) SetCurrentTool(v string) { s.set(&s.currentTool, v) }

func (s *Session) set(field **string, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	*field = &v
}

// Snapshot returns a copy of the session.
func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SessionSnapshot{
		TaskID:      s.taskID,
		Busy:        s.busy,
		StartedAt:   s.startedAt,
		Thoughts:    s.thoughts,
		ToolArgs:    s.toolArgs,
		TokenUsage:  s.tokenUsage,
		CurrentTool: s.currentTool,
	}
}
