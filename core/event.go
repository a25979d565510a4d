package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes orchestration events published to the external sink.
type EventType string

const (
	// EventRunTransition is emitted on every run lifecycle transition.
	EventRunTransition EventType = "run.transition"
	// EventHandoff is emitted when control transfers between agents.
	EventHandoff EventType = "swarm.handoff"
	// EventDebateResolved is emitted after a debate reaches a result.
	EventDebateResolved EventType = "debate.resolved"
	// EventConsolidation is emitted after a consolidation sweep.
	EventConsolidation EventType = "memory.consolidated"
)

// Event is the unit published to the external event log/stream. The core
// does not persist its own event history beyond what the run manager keeps
// in AgentRun.Summary. Treat events as immutable after emission.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates an event with a fresh id and UTC timestamp.
func NewEvent(typ EventType, payload map[string]any) Event {
	return Event{
		ID:        NewID(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// NewRunTransitionEvent records a lifecycle transition of a run.
func NewRunTransitionEvent(runID string, from, to RunStatus) Event {
	return NewEvent(EventRunTransition, map[string]any{
		"run_id": runID,
		"from":   string(from),
		"to":     string(to),
	})
}

// NewHandoffEvent records a control transfer between agents.
func NewHandoffEvent(runID, fromAgent, toAgent, reason string) Event {
	return NewEvent(EventHandoff, map[string]any{
		"run_id": runID,
		"from":   fromAgent,
		"to":     toAgent,
		"reason": reason,
	})
}

// NewDebateResolvedEvent records the outcome of a consensus resolution.
func NewDebateResolvedEvent(question, answer string, confidence float64, rounds int, converged bool) Event {
	return NewEvent(EventDebateResolved, map[string]any{
		"question":   question,
		"answer":     answer,
		"confidence": confidence,
		"rounds":     rounds,
		"converged":  converged,
	})
}

// NewConsolidationEvent records the stats of a consolidation sweep.
func NewConsolidationEvent(removed, merged, pruned int) Event {
	return NewEvent(EventConsolidation, map[string]any{
		"removed": removed,
		"merged":  merged,
		"pruned":  pruned,
	})
}

// NewID generates a unique identifier for runs, facts and events.
func NewID() string { return uuid.NewString() }

// EventSink receives every significant orchestration event (lifecycle
// transitions, handoffs, debate resolutions). Implementations must be safe
// for concurrent use; publication failures are logged, never fatal.
type EventSink interface {
	Publish(ev Event) error
}

// NoOpSink discards all events. Useful default for tests and library use.
type NoOpSink struct{}

// Publish discards the event.
func (NoOpSink) Publish(Event) error { return nil }
