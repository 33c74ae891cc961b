// Package store provides the in-memory state shared by the agentwatch daemon:
// the chat history, the running task's session and the active file.
//
// A Store lives for the whole process. It is created once by the serve
// command and handed by reference to every component that needs it.
package store

import (
	"sync"

	"github.com/grovetools/agentwatch/pkg/models"
)

// Store is the in-memory state store for the daemon.
// All of its parts are safe for concurrent use.
type Store struct {
	History *History
	Session *Session
	Active  *ActiveFile
}

// New creates a new Store instance. maxMessages bounds the chat history;
// zero keeps everything.
func New(maxMessages int) *Store {
	return &Store{
		History: NewHistory(maxMessages),
		Session: NewSession(),
		Active:  NewActiveFile(),
	}
}

// History is the chat history seen by every observer. It is append-only
// unless a cap is configured.
// Appends are serialized by mu, so every reader observes the same total order.
type History struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
	max      int
	dropped  int
}

// NewHistory creates an empty history. When max is positive the oldest
// entries are discarded once the history grows beyond it.
func NewHistory(max int) *History {
	return &History{max: max}
}

// Append adds a message and returns its position in the total order.
func (h *History) Append(msg models.ChatMessage) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
	if h.max > 0 && len(h.messages) > h.max {
		excess := len(h.messages) - h.max
		h.messages = append([]models.ChatMessage(nil), h.messages[excess:]...)
		h.dropped += excess
	}
	return h.dropped + len(h.messages) - 1
}

// Snapshot returns a copy of the history in insertion order.
func (h *History) Snapshot() []models.ChatMessage {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]models.ChatMessage, len(h.messages))
	copy(result, h.messages)
	return result
}

// Len returns the number of retained messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}
