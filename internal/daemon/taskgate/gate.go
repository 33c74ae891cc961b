// Package taskgate runs agent tasks one at a time. A submission made while
// a task is running is rejected, never queued.
package taskgate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/grovetools/agentwatch/internal/daemon/transcript"
	"github.com/grovetools/agentwatch/pkg/agent"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// Messages shown to observers.
const (
	BusyMessage     = "A task is already running, please try again later."
	CompleteMessage = "Task completed, please review the results."
	ErrorPrefix     = "Error processing message: "
	StoppedMessage  = "The agent is shutting down, the task was not started."
)

// Flusher is notified before a task is reported finished, so buffered log
// records reach observers ahead of the completion event.
type Flusher interface {
	Flush()
}

type job struct {
	id      string
	message string
}

// Gate is a single-flight scheduler in front of one agent.
type Gate struct {
	mu      sync.Mutex
	busy    bool
	stopped bool
	jobs    chan job

	agent    agent.Agent
	store    *store.Store
	pub      bus.Publisher
	files    transcript.FileReader
	flushers []Flusher
	logger   *logrus.Entry
	now      func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithFiles lets the transcript shim refresh the active file.
func WithFiles(files transcript.FileReader) Option {
	return func(g *Gate) { g.files = files }
}

// WithFlusher registers a log router to flush at the end of every task.
// It may be given more than once.
func WithFlusher(f Flusher) Option {
	return func(g *Gate) {
		if f != nil {
			g.flushers = append(g.flushers, f)
		}
	}
}

// WithLogger sets the gate's logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(g *Gate) { g.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// New creates a gate. Call Run to start its worker.
func New(a agent.Agent, st *store.Store, pub bus.Publisher, opts ...Option) *Gate {
	g := &Gate{
		jobs:   make(chan job, 1),
		agent:  a,
		store:  st,
		pub:    pub,
		logger: logrus.NewEntry(logrus.StandardLogger()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Busy reports whether a task is running.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

// Submit hands message to the worker. It returns false, and tells every
// observer, when a task is already running or the worker has stopped.
func (g *Gate) Submit(message string) bool {
	g.mu.Lock()
	switch {
	case g.stopped:
		g.mu.Unlock()
		g.logger.Info("Rejected submission: worker stopped")
		g.system(StoppedMessage)
		return false
	case g.busy:
		g.mu.Unlock()
		g.logger.Info("Rejected submission: task already running")
		g.system(BusyMessage)
		return false
	}
	g.busy = true
	// The buffer holds one job and busy admits only one, so this never blocks.
	g.jobs <- job{id: uuid.NewString(), message: message}
	g.mu.Unlock()
	return true
}

// Run is the worker loop. It executes submitted tasks until ctx is done;
// the same ctx is passed to the agent. Once Run returns, Submit rejects
// every message.
func (g *Gate) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			g.stop()
			return nil
		}
		select {
		case <-ctx.Done():
			g.stop()
			return nil
		case j := <-g.jobs:
			g.execute(ctx, j)
		}
	}
}

// stop marks the gate stopped and drops a job accepted but never started.
func (g *Gate) stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopped = true
	select {
	case j := <-g.jobs:
		g.logger.WithField("task_id", j.id).Warn("Dropped task accepted during shutdown")
		g.busy = false
	default:
	}
}

func (g *Gate) execute(ctx context.Context, j job) {
	logger := g.logger.WithField("task_id", j.id)
	start := g.now()

	var (
		original  agent.Transcript
		shim      *transcript.Shim
		installed bool
	)
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Task panicked")
			g.fail(fmt.Errorf("panic: %v", r))
		}
		if installed {
			g.agent.SetTranscript(original)
			shim.Detach()
		}
		g.store.Session.Finish()

		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
		logger.WithField("duration", g.now().Sub(start)).Info("Task finished")
	}()

	original = g.agent.Transcript()
	shim = transcript.New(original, g.store, g.pub, g.files, logger)
	g.agent.SetTranscript(shim)
	installed = true

	g.store.Session.Reset(j.id, start)
	logger.WithField("agent", g.agent.Name()).Info("Task started")

	if err := g.agent.Run(ctx, j.message); err != nil {
		logger.WithError(err).Error("Task failed")
		g.fail(err)
		return
	}

	g.flush()
	g.pub.Publish(models.TaskCompleteEvent(CompleteMessage))
}

func (g *Gate) fail(err error) {
	g.flush()
	g.system(ErrorPrefix + err.Error())
}

func (g *Gate) flush() {
	for _, f := range g.flushers {
		f.Flush()
	}
}

func (g *Gate) system(content string) {
	msg := models.ChatMessage{Sender: models.SenderSystem, Content: content}
	g.store.History.Append(msg)
	g.pub.Publish(models.NewMessageEvent(msg))
}
