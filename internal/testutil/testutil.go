// Package testutil provides shared test fixtures: a fluent fact builder and
// an event sink recorder.
package testutil

import (
	"sync"
	"time"

	"github.com/taskweave/swarmcore/core"
)

// FactBuilder constructs MemoryFact fixtures with sensible defaults.
type FactBuilder struct {
	fact core.MemoryFact
}

// NewFact starts a builder for a fact about the given entity property.
func NewFact(entityType, entityID, property string) *FactBuilder {
	return &FactBuilder{fact: core.MemoryFact{
		EntityType:  entityType,
		EntityID:    entityID,
		Property:    property,
		SourceAgent: "test",
		Confidence:  0.9,
	}}
}

// Value sets the fact value.
func (b *FactBuilder) Value(v string) *FactBuilder {
	b.fact.Value = v
	return b
}

// Confidence sets the confidence score.
func (b *FactBuilder) Confidence(c float64) *FactBuilder {
	b.fact.Confidence = c
	return b
}

// Source sets the source agent.
func (b *FactBuilder) Source(agent string) *FactBuilder {
	b.fact.SourceAgent = agent
	return b
}

// ValidFrom sets the start of the validity window.
func (b *FactBuilder) ValidFrom(t time.Time) *FactBuilder {
	b.fact.ValidFrom = t
	return b
}

// ValidUntil sets the end of the validity window.
func (b *FactBuilder) ValidUntil(t time.Time) *FactBuilder {
	b.fact.ValidUntil = &t
	return b
}

// Build returns the fact.
func (b *FactBuilder) Build() core.MemoryFact { return b.fact }

// SinkRecorder is a core.EventSink that records everything published to it.
// Safe for concurrent use.
type SinkRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

// NewSinkRecorder creates an empty recorder.
func NewSinkRecorder() *SinkRecorder { return &SinkRecorder{} }

// Publish records the event.
func (r *SinkRecorder) Publish(ev core.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a snapshot of the recorded events in publish order.
func (r *SinkRecorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of one type, in publish order.
func (r *SinkRecorder) OfType(typ core.EventType) []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}
