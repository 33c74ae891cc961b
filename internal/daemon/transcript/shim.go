// Package transcript taps an agent's transcript so that what the agent
// records is also shown to observers.
package transcript

import (
	"strings"
	"sync/atomic"

	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/pkg/agent"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// FileReader reads workspace-relative files.
type FileReader interface {
	ReadFile(rel string) (string, error)
}

// Shim wraps the agent's own transcript for the duration of one task.
// Every append reaches the wrapped transcript unchanged; while attached,
// assistant entries also become chat messages, tool entries become
// thinking events, and mentions of the active file refresh it.
type Shim struct {
	inner    agent.Transcript
	store    *store.Store
	pub      bus.Publisher
	files    FileReader
	logger   *logrus.Entry
	detached atomic.Bool
}

// New creates a shim around inner.
func New(inner agent.Transcript, st *store.Store, pub bus.Publisher, files FileReader, logger *logrus.Entry) *Shim {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Shim{inner: inner, store: st, pub: pub, files: files, logger: logger}
}

// Detach stops all side effects. Later appends are only forwarded.
func (s *Shim) Detach() {
	s.detached.Store(true)
}

// Append implements agent.Transcript.
func (s *Shim) Append(role agent.Role, content string, extras map[string]interface{}) {
	if s.inner != nil {
		s.inner.Append(role, content, extras)
	}
	if s.detached.Load() {
		return
	}

	switch role {
	case agent.RoleAssistant:
		msg := models.ChatMessage{Sender: models.SenderAssistant, Content: content}
		s.store.History.Append(msg)
		s.pub.Publish(models.NewMessageEvent(msg))
	case agent.RoleTool:
		s.pub.Publish(models.ThinkingEvent(content))
	}

	s.refreshActive(content)
}

// refreshActive re-reads the active file when content mentions its path.
func (s *Shim) refreshActive(content string) {
	path := s.store.Active.Path()
	if path == "" || s.files == nil || !strings.Contains(content, path) {
		return
	}

	updated, err := s.files.ReadFile(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to refresh active file")
		return
	}
	if s.store.Active.UpdateContent(path, updated) {
		s.pub.Publish(models.FileUpdateEvent(path, updated))
	}
}
