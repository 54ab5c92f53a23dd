// Package events provides an in-process event bus for routing
// observability. The executor and health oracle publish events here;
// the dashboard boundary subscribes without coupling to router internals.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Type identifies a routing event.
type Type string

const (
	// EventCircuitOpened fires when a backend's error rate trips its breaker.
	EventCircuitOpened Type = "circuit.opened"
	// EventCircuitClosed fires when a backend's cooldown elapses.
	EventCircuitClosed Type = "circuit.closed"
	// EventFailover fires when a backup backend is attempted.
	EventFailover Type = "executor.failover"
	// EventLocalFallback fires when both backends failed and local synthesis answered.
	EventLocalFallback Type = "executor.local_fallback"
	// EventQueueSaturated fires when admission rejects an entry at capacity.
	EventQueueSaturated Type = "queue.saturated"
)

// Event is a single routing event with optional structured data.
type Event struct {
	Type      Type
	Backend   string
	RequestID string
	Timestamp time.Time
	Data      map[string]interface{}
}

// Subscription is a handle for a registered subscriber.
type Subscription struct {
	ID          string
	Event       Type
	Callback    func(*Event)
	Unsubscribe func()
}

// Bus manages event distribution to subscribers. Publishing is
// non-blocking: events flow through a bounded queue and are dropped with
// a warning when the queue is full.
type Bus struct {
	subscribers  map[Type][]*Subscription
	mu           sync.RWMutex
	eventQueue   chan *Event
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	shutdown     bool
}

// NewBus creates an event bus and starts its async processor.
func NewBus() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		subscribers: make(map[Type][]*Subscription),
		eventQueue:  make(chan *Event, 256),
		ctx:         ctx,
		cancel:      cancel,
	}

	go b.processQueue()

	return b
}

// Subscribe registers a callback for a specific event type.
func (b *Bus) Subscribe(event Type, callback func(*Event)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ID:       fmt.Sprintf("%d", time.Now().UnixNano()),
		Event:    event,
		Callback: callback,
	}
	sub.Unsubscribe = func() {
		b.unsubscribe(sub)
	}

	b.subscribers[event] = append(b.subscribers[event], sub)
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[sub.Event]
	for i, s := range subs {
		if s.ID == sub.ID {
			b.subscribers[sub.Event] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}

// Publish distributes an event to all subscribers synchronously.
func (b *Bus) Publish(ev *Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := b.subscribers[ev.Type]
	// Copy slice to avoid holding lock during callbacks
	active := make([]*Subscription, len(subs))
	copy(active, subs)
	b.mu.RUnlock()

	for _, sub := range active {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Panic in event subscriber for %s: %v", ev.Type, r)
				}
			}()
			sub.Callback(ev)
		}()
	}
}

// PublishAsync distributes an event asynchronously via the queue.
func (b *Bus) PublishAsync(ev *Event) {
	b.mu.RLock()
	isShutdown := b.shutdown
	b.mu.RUnlock()

	if isShutdown {
		return
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	select {
	case <-b.ctx.Done():
		return
	case b.eventQueue <- ev:
	default:
		log.Warnf("Event queue full, dropping event: %s", ev.Type)
	}
}

func (b *Bus) processQueue() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case ev, ok := <-b.eventQueue:
			if !ok {
				return
			}
			if ev != nil {
				b.Publish(ev)
			}
		}
	}
}

// Shutdown stops the event bus processing. The queue channel is left
// open: cancelling the context stops the processor, and a closed
// channel could panic a publisher that raced past the shutdown check.
func (b *Bus) Shutdown() {
	b.shutdownOnce.Do(func() {
		b.mu.Lock()
		b.shutdown = true
		b.mu.Unlock()

		b.cancel()
	})
}
