// Package event provides the in-process task lifecycle event bus.
package event

import "sync"

// Type identifies the kind of task lifecycle event.
type Type string

const (
	TypeCreated       Type = "created"
	TypeUpdated       Type = "updated"
	TypeStatusChanged Type = "status_changed"
	TypeDeleted       Type = "deleted"
)

// Event is a task lifecycle notification. Task carries the full persisted
// record as it exists after the mutation.
type Event struct {
	Type Type `json:"type"`
	Task any  `json:"task"`
}

// Handler receives published events.
type Handler func(Event)

// Bus fans task lifecycle events out to subscribers. Delivery is
// fire-and-forget: no backlog, no replay, no per-subscriber filtering, and
// publishing with zero subscribers is a no-op.
type Bus interface {
	// Publish delivers the event to every current subscriber.
	Publish(e Event)

	// Subscribe registers a handler. The returned function unsubscribes it.
	Subscribe(handler Handler) (unsubscribe func())
}

// InMemoryBus is a thread-safe in-process event bus.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers []handlerEntry
	nextID   int
}

type handlerEntry struct {
	id      int
	handler Handler
}

// NewInMemoryBus creates an empty bus.
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{}
}

// Publish delivers e to every subscriber. Handlers run synchronously on the
// publishing goroutine; a bus with no subscribers drops the event silently.
func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.handlers))
	for _, entry := range b.handlers {
		targets = append(targets, entry.handler)
	}
	b.mu.RUnlock()

	for _, h := range targets {
		h(e)
	}
}

// Subscribe registers a handler and returns a function that removes it.
func (b *InMemoryBus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		filtered := b.handlers[:0]
		for _, entry := range b.handlers {
			if entry.id != id {
				filtered = append(filtered, entry)
			}
		}
		b.handlers = filtered
	}
}
