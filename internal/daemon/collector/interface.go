// Package collector provides background workers that watch the agent's
// surroundings and emit events.
package collector

import (
	"context"

	"github.com/grovetools/agentwatch/internal/daemon/bus"
	"github.com/grovetools/agentwatch/pkg/models"
)

// Collector is a background worker that observes something and emits events.
type Collector interface {
	// Name returns the collector's name for logging.
	Name() string

	// Run starts the collector. It should block until context is canceled.
	// It emits events via the updates channel.
	Run(ctx context.Context, updates chan<- models.Event) error
}

// ChannelPublisher adapts an updates channel to bus.Publisher. Sends give up
// once ctx is done.
func ChannelPublisher(ctx context.Context, updates chan<- models.Event) bus.Publisher {
	return bus.PublisherFunc(func(ev models.Event) {
		select {
		case updates <- ev:
		case <-ctx.Done():
		}
	})
}
