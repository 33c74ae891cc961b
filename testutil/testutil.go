package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/stretchr/testify/require"
)

// Recorder collects published events. It satisfies bus.Publisher.
type Recorder struct {
	mu     sync.Mutex
	events []models.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records ev.
func (r *Recorder) Publish(ev models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns everything recorded so far, in publish order.
func (r *Recorder) Events() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Event(nil), r.events...)
}

// OfType returns the recorded events of type typ.
func (r *Recorder) OfType(typ models.EventType) []models.Event {
	var out []models.Event
	for _, ev := range r.Events() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Reset forgets every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// WaitFor blocks until at least n events of type typ were recorded.
func (r *Recorder) WaitFor(t *testing.T, typ models.EventType, n int) []models.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.OfType(typ)) >= n
	}, 3*time.Second, 10*time.Millisecond, "waiting for %d %s events", n, typ)
	return r.OfType(typ)
}

// NewWorkspace creates a temporary workspace populated with files, keyed by
// slash-separated relative path. A key ending in "/" creates a directory.
func NewWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		if rel[len(rel)-1] == '/' {
			require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0755))
			continue
		}
		WriteFile(t, root, rel, content)
	}
	return root
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// RandomString generates a random string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)[:length]
}
