package core

import "testing"

func TestEvent_Constructors(t *testing.T) {
	ev := NewRunTransitionEvent("r1", RunPending, RunRunning)
	if ev.ID == "" || ev.Timestamp.IsZero() {
		t.Fatalf("event not initialized: %+v", ev)
	}
	if ev.Type != EventRunTransition {
		t.Errorf("unexpected type %s", ev.Type)
	}
	if ev.Payload["from"] != "pending" || ev.Payload["to"] != "running" {
		t.Errorf("unexpected payload: %#v", ev.Payload)
	}

	h := NewHandoffEvent("r1", "researcher", "planner", "findings ready")
	if h.Type != EventHandoff || h.Payload["to"] != "planner" {
		t.Errorf("handoff event malformed: %+v", h)
	}

	d := NewDebateResolvedEvent("when?", "saturday", 0.8, 2, true)
	if d.Type != EventDebateResolved || d.Payload["rounds"] != 2 {
		t.Errorf("debate event malformed: %+v", d)
	}

	c := NewConsolidationEvent(1, 2, 3)
	if c.Type != EventConsolidation || c.Payload["merged"] != 2 {
		t.Errorf("consolidation event malformed: %+v", c)
	}
}

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" || seen[id] {
			t.Fatalf("duplicate or empty id: %q", id)
		}
		seen[id] = true
	}
}
