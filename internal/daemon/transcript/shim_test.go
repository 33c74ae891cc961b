package transcript

import (
	"testing"

	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/pkg/agent"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/grovetools/agentwatch/testutil"
	"github.com/stretchr/testify/assert"
)

type mapFiles map[string]string

func (m mapFiles) ReadFile(rel string) (string, error) {
	content, ok := m[rel]
	if !ok {
		return "", errors.FileNotFound(rel)
	}
	return content, nil
}

func TestShimForwardsAndPublishes(t *testing.T) {
	st := store.New(0)
	rec := testutil.NewRecorder()
	inner := agent.NewMemory()
	shim := New(inner, st, rec, mapFiles{}, nil)

	shim.Append(agent.RoleUser, "question", nil)
	shim.Append(agent.RoleTool, "ran ls", map[string]interface{}{"tool": "bash"})
	shim.Append(agent.RoleAssistant, "answer", nil)

	assert.Equal(t, []agent.Entry{
		{Role: agent.RoleUser, Content: "question"},
		{Role: agent.RoleTool, Content: "ran ls", Extras: map[string]interface{}{"tool": "bash"}},
		{Role: agent.RoleAssistant, Content: "answer"},
	}, inner.Entries())

	assistant := models.ChatMessage{Sender: models.SenderAssistant, Content: "answer"}
	assert.Equal(t, []models.Event{
		models.ThinkingEvent("ran ls"),
		models.NewMessageEvent(assistant),
	}, rec.Events())
	assert.Equal(t, []models.ChatMessage{assistant}, st.History.Snapshot())
}

func TestShimRefreshesActiveFile(t *testing.T) {
	st := store.New(0)
	st.Active.Set("notes/todo.md", "old")
	rec := testutil.NewRecorder()
	files := mapFiles{"notes/todo.md": "new"}
	shim := New(nil, st, rec, files, nil)

	shim.Append(agent.RoleTool, "wrote the file /ws/notes/todo.md", nil)

	assert.Equal(t, models.ActiveFile{Path: "notes/todo.md", Content: "new"}, st.Active.Get())
	assert.Equal(t, []models.Event{
		models.ThinkingEvent("wrote the file /ws/notes/todo.md"),
		models.FileUpdateEvent("notes/todo.md", "new"),
	}, rec.Events())
}

func TestShimIgnoresUnrelatedContent(t *testing.T) {
	st := store.New(0)
	st.Active.Set("a.txt", "old")
	rec := testutil.NewRecorder()
	shim := New(nil, st, rec, mapFiles{"a.txt": "new"}, nil)

	shim.Append(agent.RoleUser, "nothing relevant", nil)

	assert.Empty(t, rec.Events())
	assert.Equal(t, "old", st.Active.Get().Content)
}

func TestShimReadFailureIsLogged(t *testing.T) {
	st := store.New(0)
	st.Active.Set("gone.txt", "old")
	rec := testutil.NewRecorder()
	shim := New(nil, st, rec, mapFiles{}, nil)

	shim.Append(agent.RoleUser, "deleted gone.txt", nil)

	assert.Empty(t, rec.Events())
	assert.Equal(t, "old", st.Active.Get().Content)
}

func TestDetachedShimOnlyForwards(t *testing.T) {
	st := store.New(0)
	st.Active.Set("a.txt", "old")
	rec := testutil.NewRecorder()
	inner := agent.NewMemory()
	shim := New(inner, st, rec, mapFiles{"a.txt": "new"}, nil)

	shim.Detach()
	shim.Append(agent.RoleAssistant, "late reply about a.txt", nil)

	assert.Len(t, inner.Entries(), 1)
	assert.Empty(t, rec.Events())
	assert.Zero(t, st.History.Len())
	assert.Equal(t, "old", st.Active.Get().Content)
}
