// Package eventbus provides core.EventSink implementations: an in-process
// fan-out bus for embedding the core in a single binary, and a NATS
// publisher (with optional embedded server) for deployments where other
// processes consume the orchestration event stream.
package eventbus

import (
	"sync"

	"github.com/taskweave/swarmcore/core"
)

// Handler consumes events delivered by the in-process bus.
type Handler func(ev core.Event)

// InProcBus is a synchronous fan-out sink. Handlers run on the publisher's
// goroutine, so they must be fast and must not publish re-entrantly.
type InProcBus struct {
	mu       sync.RWMutex
	handlers map[core.EventType][]Handler
	all      []Handler
}

// NewInProcBus creates an empty bus.
func NewInProcBus() *InProcBus {
	return &InProcBus{handlers: make(map[core.EventType][]Handler)}
}

// Subscribe registers a handler for one event type.
func (b *InProcBus) Subscribe(typ core.EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[typ] = append(b.handlers[typ], h)
}

// SubscribeAll registers a handler for every event type.
func (b *InProcBus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers the event to matching handlers.
func (b *InProcBus) Publish(ev core.Event) error {
	b.mu.RLock()
	typed := b.handlers[ev.Type]
	all := b.all
	b.mu.RUnlock()
	for _, h := range typed {
		h(ev)
	}
	for _, h := range all {
		h(ev)
	}
	return nil
}
