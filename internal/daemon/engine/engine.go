// Package engine orchestrates background collectors for the daemon and is
// the single path events take onto the bus.
package engine

import (
	"context"
	"sync"

	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/internal/daemon/collector"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// DefaultQueueSize is the length of the shared update queue.
const DefaultQueueSize = 1024

// Engine manages and runs all collectors. Every event, from collectors and
// from Publisher callers alike, passes through one FIFO queue, so events
// published by one goroutine reach the bus in order.
type Engine struct {
	out        bus.Publisher
	collectors []collector.Collector
	logger     *logrus.Entry
	updates    chan models.Event
	stopped    chan struct{}
	stopOnce   sync.Once
}

// New creates a new Engine forwarding to out.
func New(out bus.Publisher, logger *logrus.Entry) *Engine {
	return &Engine{
		out:     out,
		logger:  logger,
		updates: make(chan models.Event, DefaultQueueSize),
		stopped: make(chan struct{}),
	}
}

// Register adds a collector to the engine.
func (e *Engine) Register(c collector.Collector) {
	e.collectors = append(e.collectors, c)
}

// Publisher returns a bus.Publisher feeding the engine's queue. Events
// published after the engine stopped are dropped.
func (e *Engine) Publisher() bus.Publisher {
	return bus.PublisherFunc(func(ev models.Event) {
		select {
		case e.updates <- ev:
		case <-e.stopped:
		}
	})
}

// Start runs all collectors and blocks until context is canceled.
func (e *Engine) Start(ctx context.Context) {
	defer e.stopOnce.Do(func() { close(e.stopped) })
	var wg sync.WaitGroup

	// 1. Start Update Consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-e.updates:
				e.out.Publish(ev)
			}
		}
	}()

	// 2. Start Collectors
	for _, c := range e.collectors {
		wg.Add(1)
		go func(col collector.Collector) {
			defer wg.Done()
			e.logger.WithField("collector", col.Name()).Info("Starting collector")
			if err := col.Run(ctx, e.updates); err != nil {
				e.logger.WithField("collector", col.Name()).WithError(err).Error("Collector failed")
			}
		}(c)
	}

	wg.Wait()
}
