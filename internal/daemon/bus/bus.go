// Package bus fans observer events out to every connected subscriber.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// DefaultBufferSize is the per-subscriber queue length.
const DefaultBufferSize = 256

// Publisher is implemented by anything events can be handed to.
type Publisher interface {
	Publish(ev models.Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ev models.Event)

// Publish calls f(ev).
func (f PublisherFunc) Publish(ev models.Event) { f(ev) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(models.Event) {})

// Bus is a best-effort broadcaster. Publish never blocks: a subscriber whose
// queue is full misses the event. Events published from one goroutine reach
// each subscriber in publish order.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
	bufferSize  int
	logger      *logrus.Entry
}

// Subscription is one observer's view of the bus.
type Subscription struct {
	ID      string
	ch      chan models.Event
	dropped atomic.Int64
	once    sync.Once
}

// C returns the channel events are delivered on. It is closed on Unsubscribe.
func (s *Subscription) C() <-chan models.Event {
	return s.ch
}

// Dropped returns how many events this subscriber missed because it was slow.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// New creates a bus. A non-positive bufferSize selects DefaultBufferSize.
func New(bufferSize int, logger *logrus.Entry) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Bus{
		subscribers: make(map[*Subscription]struct{}),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe registers a new observer.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		ID: uuid.NewString(),
		ch: make(chan models.Event, b.bufferSize),
	}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	count := len(b.subscribers)
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{"subscriber": sub.ID, "subscribers": count}).Debug("Observer subscribed")
	return sub
}

// Unsubscribe removes an observer and closes its channel. It is safe to call
// more than once.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	_, ok := b.subscribers[sub]
	delete(b.subscribers, sub)
	count := len(b.subscribers)
	b.mu.Unlock()

	if !ok {
		return
	}
	sub.once.Do(func() { close(sub.ch) })
	b.logger.WithFields(logrus.Fields{
		"subscriber":  sub.ID,
		"subscribers": count,
		"dropped":     sub.Dropped(),
	}).Debug("Observer unsubscribed")
}

// Publish delivers ev to every current subscriber without waiting.
func (b *Bus) Publish(ev models.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub.ch <- ev:
		default:
			// Non-blocking send to prevent slow observers from stalling the publisher
			if n := sub.dropped.Add(1); n == 1 || n%100 == 0 {
				b.logger.WithFields(logrus.Fields{
					"subscriber": sub.ID,
					"event":      ev.Type,
					"dropped":    n,
				}).Debug("Dropping event for slow observer")
			}
		}
	}
}

// Len returns the number of connected subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
