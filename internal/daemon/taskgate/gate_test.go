package taskgate

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/pkg/agent"
	"github.com/grovetools/agentwatch/pkg/agent/agenttest"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/grovetools/agentwatch/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	gate  *Gate
	agent *agenttest.Scripted
	store *store.Store
	rec   *testutil.Recorder
}

func newFixture(t *testing.T, a *agenttest.Scripted, opts ...Option) *fixture {
	t.Helper()
	st := store.New(0)
	rec := testutil.NewRecorder()
	g := New(a, st, rec, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &fixture{gate: g, agent: a, store: st, rec: rec}
}

func (f *fixture) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return !f.gate.Busy() }, 3*time.Second, 5*time.Millisecond)
}

func systemMessages(history []models.ChatMessage) []string {
	var out []string
	for _, m := range history {
		if m.Sender == models.SenderSystem {
			out = append(out, m.Content)
		}
	}
	return out
}

func TestSubmitSuccess(t *testing.T) {
	a := agenttest.NewScripted(
		agenttest.Step{Role: agent.RoleTool, Content: "working"},
		agenttest.Step{Role: agent.RoleAssistant, Content: "done"},
	)
	f := newFixture(t, a)

	assert.False(t, f.gate.Busy())
	require.True(t, f.gate.Submit("do it"))
	f.rec.WaitFor(t, models.EventTaskComplete, 1)
	f.waitIdle(t)

	assert.Equal(t, []string{"do it"}, a.Inputs())
	assert.Equal(t, []models.Event{
		models.ThinkingEvent("working"),
		models.NewMessageEvent(models.ChatMessage{Sender: models.SenderAssistant, Content: "done"}),
		models.TaskCompleteEvent(CompleteMessage),
	}, f.rec.Events())

	snap := f.store.Session.Snapshot()
	assert.False(t, snap.Busy)
	assert.NotEmpty(t, snap.TaskID)
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	a := agenttest.NewScripted()
	a.Release = make(chan struct{})
	f := newFixture(t, a)

	require.True(t, f.gate.Submit("first"))
	<-a.Started()
	require.True(t, f.gate.Busy())

	assert.False(t, f.gate.Submit("second"))
	assert.True(t, f.gate.Busy())
	assert.Equal(t, []string{BusyMessage}, systemMessages(f.store.History.Snapshot()))
	assert.Len(t, f.rec.OfType(models.EventNewMessage), 1)

	close(a.Release)
	f.rec.WaitFor(t, models.EventTaskComplete, 1)
	f.waitIdle(t)
	assert.Equal(t, []string{"first"}, a.Inputs())
}

func TestConcurrentSubmitsAdmitOne(t *testing.T) {
	a := agenttest.NewScripted()
	a.Release = make(chan struct{})
	f := newFixture(t, a)

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.gate.Submit("go") {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Len(t, systemMessages(f.store.History.Snapshot()), n-1)
	close(a.Release)
	f.waitIdle(t)
}

func TestAgentErrorBecomesSystemMessage(t *testing.T) {
	a := agenttest.NewScripted()
	a.Err = stderrors.New("model unavailable")
	f := newFixture(t, a)

	require.True(t, f.gate.Submit("x"))
	f.rec.WaitFor(t, models.EventNewMessage, 1)
	f.waitIdle(t)

	assert.Equal(t, []string{ErrorPrefix + "model unavailable"}, systemMessages(f.store.History.Snapshot()))
	assert.Empty(t, f.rec.OfType(models.EventTaskComplete))
	assert.False(t, f.store.Session.Snapshot().Busy)
}

func TestPanicIsRecovered(t *testing.T) {
	a := agenttest.NewScripted()
	a.Panic = "boom"
	f := newFixture(t, a)

	require.True(t, f.gate.Submit("x"))
	f.rec.WaitFor(t, models.EventNewMessage, 1)
	f.waitIdle(t)

	assert.Equal(t, []string{ErrorPrefix + "panic: boom"}, systemMessages(f.store.History.Snapshot()))
	assert.IsType(t, &agent.Memory{}, a.Transcript())

	a.Panic = nil
	require.True(t, f.gate.Submit("again"))
	f.rec.WaitFor(t, models.EventTaskComplete, 1)
}

func TestTranscriptRestoredAfterTask(t *testing.T) {
	a := agenttest.NewScripted(agenttest.Step{Role: agent.RoleAssistant, Content: "during"})
	original := a.Transcript()
	f := newFixture(t, a)

	require.True(t, f.gate.Submit("x"))
	f.rec.WaitFor(t, models.EventTaskComplete, 1)
	f.waitIdle(t)

	assert.Same(t, original, a.Transcript())
	before := len(f.rec.Events())

	a.Append(agent.RoleAssistant, "after", nil)
	assert.Len(t, f.rec.Events(), before)
	assert.Equal(t, []agent.Entry{
		{Role: agent.RoleAssistant, Content: "during"},
		{Role: agent.RoleAssistant, Content: "after"},
	}, original.(*agent.Memory).Entries())
}

func TestSessionResetPerTask(t *testing.T) {
	a := agenttest.NewScripted()
	f := newFixture(t, a)
	f.store.Session.SetThoughts("stale")

	require.True(t, f.gate.Submit("x"))
	f.rec.WaitFor(t, models.EventTaskComplete, 1)
	f.waitIdle(t)

	assert.Nil(t, f.store.Session.Snapshot().Thoughts)
}

type countingFlusher struct {
	mu sync.Mutex
	n  int
}

func (c *countingFlusher) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func TestFlusherCalledBeforeCompletion(t *testing.T) {
	flusher := &countingFlusher{}
	f := newFixture(t, agenttest.NewScripted(), WithFlusher(flusher))

	require.True(t, f.gate.Submit("x"))
	f.rec.WaitFor(t, models.EventTaskComplete, 1)

	flusher.mu.Lock()
	defer flusher.mu.Unlock()
	assert.Equal(t, 1, flusher.n)
}

func TestSubmitAfterStopIsRejected(t *testing.T) {
	st := store.New(0)
	rec := testutil.NewRecorder()
	g := New(agenttest.NewScripted(), st, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, g.Run(ctx))

	assert.False(t, g.Submit("too late"))
	assert.False(t, g.Busy())
	assert.Equal(t, []string{StoppedMessage}, systemMessages(st.History.Snapshot()))
}

func TestStopReleasesUnstartedTask(t *testing.T) {
	a := agenttest.NewScripted()
	g := New(a, store.New(0), testutil.NewRecorder())

	require.True(t, g.Submit("queued before the worker started"))
	require.True(t, g.Busy())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, g.Run(ctx))

	assert.False(t, g.Busy())
	assert.Empty(t, a.Inputs())
}
