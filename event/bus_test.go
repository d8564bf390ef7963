package event

import (
	"sync"
	"testing"
)

func TestInMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewInMemoryBus()

	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) })

	bus.Publish(Event{Type: TypeCreated, Task: "T1"})
	bus.Publish(Event{Type: TypeDeleted, Task: "T1"})

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].Type != TypeCreated || got[1].Type != TypeDeleted {
		t.Errorf("event types = %q, %q, want created, deleted", got[0].Type, got[1].Type)
	}
}

func TestInMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewInMemoryBus()
	// Must not panic or block.
	bus.Publish(Event{Type: TypeUpdated, Task: "T1"})
}

func TestInMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryBus()

	var first, second int
	unsub := bus.Subscribe(func(Event) { first++ })
	bus.Subscribe(func(Event) { second++ })

	bus.Publish(Event{Type: TypeCreated})
	unsub()
	bus.Publish(Event{Type: TypeCreated})

	if first != 1 {
		t.Errorf("unsubscribed handler saw %d events, want 1", first)
	}
	if second != 2 {
		t.Errorf("remaining handler saw %d events, want 2", second)
	}

	// Unsubscribing twice is harmless.
	unsub()
	bus.Publish(Event{Type: TypeCreated})
	if second != 3 {
		t.Errorf("remaining handler saw %d events after double unsubscribe, want 3", second)
	}
}

func TestInMemoryBus_ConcurrentPublish(t *testing.T) {
	bus := NewInMemoryBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(Event{Type: TypeUpdated})
			}
		}()
	}
	wg.Wait()

	if count != 1000 {
		t.Errorf("received %d events, want 1000", count)
	}
}
