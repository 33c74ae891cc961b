// Package logstream routes the agent's log output through the classifier
// into the session and onto the bus.
package logstream

import (
	"bytes"
	"sync"
	"time"

	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/classify"
	"github.com/grovetools/agentwatch/internal/daemon/store"
	"github.com/sirupsen/logrus"
)

// DefaultIdleFlush is how long a multi-line thoughts record waits for
// further lines before it is emitted.
const DefaultIdleFlush = 200 * time.Millisecond

// Router accepts log lines, either written as a byte stream or handed over
// one at a time, and turns the records it recognizes into events.
type Router struct {
	mu      sync.Mutex
	asm     classify.Assembler
	partial []byte
	timer   *time.Timer
	// gen changes whenever the timer is re-armed or stopped; a callback
	// that lost the race for mu sees a newer gen and does nothing.
	gen uint64

	session *store.Session
	pub     bus.Publisher
	logger  *logrus.Entry
	idle    time.Duration
}

// Option configures a Router.
type Option func(*Router)

// WithIdleFlush sets how long pending thoughts wait for continuation lines.
func WithIdleFlush(d time.Duration) Option {
	return func(r *Router) { r.idle = d }
}

// WithLogger makes the router echo every agent line at debug level.
func WithLogger(logger *logrus.Entry) Option {
	return func(r *Router) { r.logger = logger }
}

// NewRouter creates a router updating session and publishing to pub.
func NewRouter(session *store.Session, pub bus.Publisher, opts ...Option) *Router {
	r := &Router{session: session, pub: pub, idle: DefaultIdleFlush}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Write implements io.Writer. Complete lines are handled immediately; a
// trailing partial line waits for its newline.
func (r *Router) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.partial = append(r.partial, p...)
	for {
		i := bytes.IndexByte(r.partial, '\n')
		if i < 0 {
			break
		}
		line := string(r.partial[:i])
		r.partial = r.partial[i+1:]
		r.handleLocked(line)
	}
	if len(r.partial) == 0 {
		r.partial = nil
	}
	return len(p), nil
}

// HandleLine processes one complete line.
func (r *Router) HandleLine(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handleLocked(line)
}

// Flush emits any pending record, including an unterminated written line.
func (r *Router) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

// Close flushes and stops the idle timer.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	return nil
}

func (r *Router) flushLocked() {
	if len(r.partial) > 0 {
		line := string(r.partial)
		r.partial = nil
		r.handleLocked(line)
	}
	for _, record := range r.asm.Flush() {
		r.dispatch(record)
	}
}

func (r *Router) handleLocked(line string) {
	if r.logger != nil {
		r.logger.WithField("line", line).Debug("Agent log")
	}

	if msg, ok := classify.DecodeRecord(line); ok {
		for _, record := range r.asm.Flush() {
			r.dispatch(record)
		}
		r.dispatch(msg)
		return
	}

	for _, record := range r.asm.Feed(line) {
		r.dispatch(record)
	}
	if r.asm.Pending() {
		r.armTimer()
	}
}

func (r *Router) armTimer() {
	if r.idle <= 0 {
		return
	}
	r.gen++
	gen := r.gen
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.idle, func() { r.idleFlush(gen) })
}

func (r *Router) idleFlush(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	for _, record := range r.asm.Flush() {
		r.dispatch(record)
	}
}

func (r *Router) dispatch(record string) {
	m, ok := classify.Classify(record)
	if !ok {
		return
	}

	switch m.Kind {
	case classify.KindThoughts:
		r.session.SetThoughts(m.Body)
	case classify.KindToolArgs:
		r.session.SetToolArgs(m.Body)
	case classify.KindTokenUsage:
		r.session.SetTokenUsage(m.Body)
	case classify.KindActivatingTool:
		r.session.SetCurrentTool(m.Tool)
	}
	r.pub.Publish(m.Event())
}
