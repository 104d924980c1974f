// Package bus provides an in-process publish/subscribe bus with bounded
// per-subscriber buffers. Publishing never blocks: a slow subscriber's
// buffer drops new events, and the subscriber relies on the next snapshot
// if it reconnects.
package bus

import (
	"sync"

	"pumpfun-radar/internal/domain"
	"pumpfun-radar/internal/observability"
)

// EventType identifies a monitor lifecycle event.
type EventType string

// Monitor lifecycle events.
const (
	EventLoadingHistory EventType = "loadingHistory"
	EventHistoryLoaded  EventType = "historyLoaded"
	EventTokenPassed    EventType = "tokenPassed"
	EventTokenFiltered  EventType = "tokenFiltered"
	EventTokenAnalyzed  EventType = "tokenAnalyzed"
	EventConnected      EventType = "connected"
	EventDisconnected   EventType = "disconnected"
	EventError          EventType = "error"
	EventStopped        EventType = "stopped"
)

// Event is a single bus message. Record is set for token events,
// Count for history events, Err for error events.
type Event struct {
	Type   EventType
	Record *domain.TokenRecord
	Count  int
	Err    error
}

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Bus fans out events to subscribers. Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64
	closed bool
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size (DefaultBuffer
// if <= 0) and returns its channel plus an unsubscribe function. The channel
// is closed on unsubscribe or bus close.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber without blocking.
// Events are dropped per subscriber when its buffer is full.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			observability.RecordBusDrop()
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes all subscriber channels. Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
