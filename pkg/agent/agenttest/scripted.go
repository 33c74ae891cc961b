// Package agenttest provides a deterministic agent for tests.
package agenttest

import (
	"context"
	"io"
	"sync"

	"github.com/grovetools/agentwatch/pkg/agent"
)

// Step is one action of a Scripted run. A step with Log set writes that
// line to the log stream; otherwise it appends Content under Role.
type Step struct {
	Log     string
	Role    agent.Role
	Content string
}

// Scripted replays Steps on every Run.
type Scripted struct {
	agent.Hooks

	Steps []Step
	// Err is returned after the steps have run.
	Err error
	// Panic, when non-nil, is raised after the steps have run.
	Panic interface{}
	// Release, when non-nil, blocks Run after Started is signalled until it
	// is closed or the context ends.
	Release chan struct{}
	// Log receives Log steps.
	Log io.Writer

	started chan struct{}
	mu      sync.Mutex
	inputs  []string
}

// NewScripted creates a Scripted agent.
func NewScripted(steps ...Step) *Scripted {
	return &Scripted{Steps: steps, started: make(chan struct{}, 16)}
}

// Name implements agent.Agent.
func (s *Scripted) Name() string {
	return "scripted"
}

// Started is signalled at the beginning of every Run.
func (s *Scripted) Started() <-chan struct{} {
	return s.started
}

// Inputs returns the inputs of every Run so far.
func (s *Scripted) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inputs...)
}

// Run implements agent.Agent.
func (s *Scripted) Run(ctx context.Context, input string) error {
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()

	select {
	case s.started <- struct{}{}:
	default:
	}

	if s.Release != nil {
		select {
		case <-s.Release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, step := range s.Steps {
		if step.Log != "" {
			if s.Log != nil {
				_, _ = io.WriteString(s.Log, step.Log+"\n")
			}
			continue
		}
		s.Append(step.Role, step.Content, nil)
	}

	if s.Panic != nil {
		panic(s.Panic)
	}
	return s.Err
}
