// Package bus implements the in-process publish/subscribe registry that fans
// out store mutations to subscribers. It holds no history: a listener only
// sees events broadcast after it subscribed.
package bus

import (
	"log/slog"
	"sync"

	"github.com/btouchard/beacon/internal/metrics"
)

// Kind identifies a notification lifecycle event.
type Kind string

const (
	KindCreated Kind = "created"
	KindRead    Kind = "read"
	KindDeleted Kind = "deleted"
	KindUpdated Kind = "updated"
)

// Listener receives every broadcast event.
type Listener func(kind Kind, payload any)

type entry struct {
	id int
	fn Listener
}

// Bus is a registry of listeners. The zero value is not usable; call New.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []entry
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing more than once is harmless.
func (b *Bus) Subscribe(l Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, entry{id: id, fn: l})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.listeners {
			if b.listeners[i].id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Broadcast synchronously invokes every registered listener in registration
// order. A panicking listener is logged and skipped; the remaining listeners
// still receive the event.
func (b *Bus) Broadcast(kind Kind, payload any) {
	b.mu.Lock()
	current := make([]entry, len(b.listeners))
	copy(current, b.listeners)
	b.mu.Unlock()

	metrics.EventsBroadcast.WithLabelValues(string(kind)).Inc()

	for _, e := range current {
		invoke(e.fn, kind, payload)
	}
}

func invoke(l Listener, kind Kind, payload any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event listener panicked", "kind", kind, "panic", r)
		}
	}()
	l(kind, payload)
}

// Len reports the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
