package store

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendOrder(t *testing.T) {
	h := NewHistory(0)
	for i := 0; i < 5; i++ {
		idx := h.Append(models.ChatMessage{Sender: models.SenderUser, Content: fmt.Sprint(i)})
		assert.Equal(t, i, idx)
	}

	snap := h.Snapshot()
	require.Len(t, snap, 5)
	for i, msg := range snap {
		assert.Equal(t, fmt.Sprint(i), msg.Content)
	}

	// Snapshots are copies
	snap[0].Content = "mutated"
	assert.Equal(t, "0", h.Snapshot()[0].Content)
}

func TestHistoryConcurrentReadersAgree(t *testing.T) {
	h := NewHistory(0)
	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				h.Append(models.ChatMessage{Sender: models.SenderAssistant, Content: fmt.Sprintf("%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	var a, b []models.ChatMessage
	var readers sync.WaitGroup
	readers.Add(2)
	go func() { defer readers.Done(); a = h.Snapshot() }()
	go func() { defer readers.Done(); b = h.Snapshot() }()
	readers.Wait()

	assert.Len(t, a, writers*perWriter)
	assert.Equal(t, a, b)
}

func TestHistoryLimit(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(models.ChatMessage{Sender: models.SenderUser, Content: fmt.Sprint(i)})
	}
	snap := h.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "2", snap[0].Content)
	assert.Equal(t, "4", snap[2].Content)
	assert.Equal(t, 5, h.Append(models.ChatMessage{Content: "5"}))
}

func TestSessionResetClearsFields(t *testing.T) {
	s := NewSession()
	assert.False(t, s.Snapshot().Busy)

	s.Reset("task-1", time.Now())
	s.SetThoughts("hmm")
	s.SetCurrentTool("search")
	s.SetToolArgs(`{"q":"go"}`)
	s.SetTokenUsage("10 in / 2 out")

	snap := s.Snapshot()
	assert.True(t, snap.Busy)
	require.NotNil(t, snap.Thoughts)
	assert.Equal(t, "hmm", *snap.Thoughts)
	assert.Equal(t, "search", *snap.CurrentTool)

	s.Finish()
	assert.False(t, s.Snapshot().Busy)
	assert.NotNil(t, s.Snapshot().Thoughts, "fields survive until the next task")

	s.Reset("task-2", time.Now())
	snap = s.Snapshot()
	assert.Equal(t, "task-2", snap.TaskID)
	assert.Nil(t, snap.Thoughts)
	assert.Nil(t, snap.ToolArgs)
	assert.Nil(t, snap.TokenUsage)
	assert.Nil(t, snap.CurrentTool)
}

func TestActiveFile(t *testing.T) {
	a := NewActiveFile()
	assert.False(t, a.Get().IsSet())

	a.Set("docs/a.md", "alpha")
	assert.Equal(t, models.ActiveFile{Path: "docs/a.md", Content: "alpha"}, a.Get())

	assert.False(t, a.UpdateContent("other.md", "x"))
	assert.True(t, a.UpdateContent("docs/a.md", "beta"))
	assert.Equal(t, "beta", a.Get().Content)

	assert.False(t, a.Rename("nope.md", "x.md"))
	assert.True(t, a.Rename("docs/a.md", "docs/b.md"))
	assert.Equal(t, models.ActiveFile{Path: "docs/b.md", Content: "beta"}, a.Get())

	assert.True(t, a.Relocate("docs", "archive/docs"))
	assert.Equal(t, "archive/docs/b.md", a.Path())
	assert.False(t, a.Relocate("arch", "x"), "prefix must end at a path separator")

	assert.False(t, a.ClearIf(func(p string) bool { return p == "docs/b.md" }))
	assert.True(t, a.ClearIf(func(p string) bool { return strings.HasPrefix(p, "archive/") }))
	assert.Equal(t, models.ActiveFile{}, a.Get())

	// Nothing open: conditional updates never resurrect a file.
	assert.False(t, a.UpdateContent("", "x"))
	assert.False(t, a.Rename("", "x"))
}

func TestActiveFileConcurrentWritersKeepPairsConsistent(t *testing.T) {
	a := NewActiveFile()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("f%d", i)
			for j := 0; j < 100; j++ {
				a.Set(path, path+"-content")
				cur := a.Get()
				if cur.IsSet() {
					assert.Equal(t, cur.Path+"-content", cur.Content)
				}
			}
		}(i)
	}
	wg.Wait()
}
