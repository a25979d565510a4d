package eventbus

import (
	"fmt"

	"github.com/taskweave/swarmcore/core"
)

// Topic patterns for NATS pub/sub. Consumers subscribe with NATS wildcards,
// e.g. "events.>" for the whole stream or "events.run.*" for run lifecycle.

// TopicFor maps an event type to its NATS subject.
func TopicFor(typ core.EventType) string {
	switch typ {
	case core.EventRunTransition:
		return "events.run.transition"
	case core.EventHandoff:
		return "events.swarm.handoff"
	case core.EventDebateResolved:
		return "events.debate.resolved"
	case core.EventConsolidation:
		return "events.memory.consolidated"
	default:
		return fmt.Sprintf("events.other.%s", typ)
	}
}

const (
	// TopicEventsAll matches the whole orchestration event stream.
	TopicEventsAll = "events.>"
	// TopicEventsRun matches run lifecycle transitions.
	TopicEventsRun = "events.run.*"
	// TopicEventsSwarm matches swarm orchestration events.
	TopicEventsSwarm = "events.swarm.*"
)
