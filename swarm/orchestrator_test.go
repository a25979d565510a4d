package swarm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/internal/testutil"
	"github.com/taskweave/swarmcore/memory"
	"github.com/taskweave/swarmcore/registry"
	"github.com/taskweave/swarmcore/tool"
)

func newTestRegistry(t *testing.T, defs ...core.AgentDefinition) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, def := range defs {
		require.NoError(t, reg.Register(def))
	}
	return reg
}

func TestDelegate_FinalResult(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{Name: "solo", Role: "generalist"})
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	require.NoError(t, orc.BindStep("solo", func(sc *StepContext) (StepResult, error) {
		return Final("done: " + sc.Goal), nil
	}))

	out, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "whatever"})
	require.NoError(t, err)
	assert.Equal(t, "done: whatever", out.Result)
	assert.Equal(t, "solo", out.Agent)
	assert.Zero(t, out.Handoffs)
}

func TestDelegate_RoutesByGoalCategory(t *testing.T) {
	reg := newTestRegistry(t,
		core.AgentDefinition{Name: "researcher", Role: "research"},
		core.AgentDefinition{Name: "generalist", Role: "generalist"},
	)
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	for _, name := range []string{"researcher", "generalist"} {
		agent := name
		require.NoError(t, orc.BindStep(agent, func(*StepContext) (StepResult, error) {
			return Final(agent), nil
		}))
	}

	out, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "research train times"})
	require.NoError(t, err)
	assert.Equal(t, "researcher", out.Agent)

	out, err = orc.Delegate(context.Background(), Request{RunID: "r2", Goal: "something vague"})
	require.NoError(t, err)
	assert.Equal(t, "generalist", out.Agent)
}

func TestDelegate_HandoffCarriesContext(t *testing.T) {
	reg := newTestRegistry(t,
		core.AgentDefinition{Name: "first", Role: "generalist", CanHandoff: true},
		core.AgentDefinition{Name: "second", Role: "execute"},
	)
	sink := testutil.NewSinkRecorder()
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor(), func(o *Options) {
		o.Sink = sink
	})

	require.NoError(t, orc.BindStep("first", func(sc *StepContext) (StepResult, error) {
		return Handoff("second", "over to you", map[string]any{"found": 42}), nil
	}))
	require.NoError(t, orc.BindStep("second", func(sc *StepContext) (StepResult, error) {
		assert.Equal(t, 42, sc.Values["found"])
		assert.Equal(t, "over to you", sc.Values["handoff:first"])
		assert.Equal(t, 1, sc.Hop)
		return Final("finished"), nil
	}))

	out, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "second", out.Agent)
	assert.Equal(t, 1, out.Handoffs)

	events := sink.OfType(core.EventHandoff)
	require.Len(t, events, 1)
	assert.Equal(t, "first", events[0].Payload["from"])
	assert.Equal(t, "second", events[0].Payload["to"])
}

func TestDelegate_HandoffNotPermitted(t *testing.T) {
	reg := newTestRegistry(t,
		core.AgentDefinition{Name: "stuck", Role: "generalist"}, // CanHandoff false
		core.AgentDefinition{Name: "other", Role: "execute"},
	)
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	require.NoError(t, orc.BindStep("stuck", func(*StepContext) (StepResult, error) {
		return Handoff("other", "", nil), nil
	}))

	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	assert.ErrorIs(t, err, ErrHandoffNotPermitted)
}

func TestDelegate_HandoffUnknownTarget(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{Name: "a", Role: "generalist", CanHandoff: true})
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	require.NoError(t, orc.BindStep("a", func(*StepContext) (StepResult, error) {
		return Handoff("ghost", "", nil), nil
	}))

	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	assert.ErrorIs(t, err, registry.ErrUnknownAgent)
}

func TestDelegate_HandoffBudget(t *testing.T) {
	// Two agents ping-pong forever; the budget must stop them after exactly
	// maxHandoffs successful transfers.
	reg := newTestRegistry(t,
		core.AgentDefinition{Name: "ping", Role: "generalist", CanHandoff: true},
		core.AgentDefinition{Name: "pong", Role: "execute", CanHandoff: true},
	)
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())

	steps := 0
	require.NoError(t, orc.BindStep("ping", func(*StepContext) (StepResult, error) {
		steps++
		return Handoff("pong", "", nil), nil
	}))
	require.NoError(t, orc.BindStep("pong", func(*StepContext) (StepResult, error) {
		steps++
		return Handoff("ping", "", nil), nil
	}))

	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	assert.ErrorIs(t, err, ErrHandoffLimitExceeded)
	// 8 transfers succeeded, so 9 steps ran before the 9th transfer failed.
	assert.Equal(t, DefaultMaxHandoffs+1, steps)
}

func TestDelegate_HandoffBudgetExactlyAtLimit(t *testing.T) {
	reg := newTestRegistry(t,
		core.AgentDefinition{Name: "ping", Role: "generalist", CanHandoff: true},
		core.AgentDefinition{Name: "pong", Role: "execute", CanHandoff: true},
	)
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor(), func(o *Options) {
		o.MaxHandoffs = 2
	})

	require.NoError(t, orc.BindStep("ping", func(sc *StepContext) (StepResult, error) {
		if sc.Hop >= 2 {
			return Final("made it"), nil
		}
		return Handoff("pong", "", nil), nil
	}))
	require.NoError(t, orc.BindStep("pong", func(sc *StepContext) (StepResult, error) {
		return Handoff("ping", "", nil), nil
	}))

	out, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Handoffs)
}

func TestDelegate_NoStepBound(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{Name: "a", Role: "generalist"})
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	assert.ErrorIs(t, err, ErrNoStepBound)
}

func TestBindStep_UnknownAgent(t *testing.T) {
	reg := newTestRegistry(t)
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	err := orc.BindStep("ghost", func(*StepContext) (StepResult, error) { return Final(""), nil })
	assert.ErrorIs(t, err, registry.ErrUnknownAgent)
}

func TestDelegate_EmptyStepResultFails(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{Name: "a", Role: "generalist"})
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	require.NoError(t, orc.BindStep("a", func(*StepContext) (StepResult, error) {
		return StepResult{}, nil
	}))
	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty result")
}

func TestDelegate_StepErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	reg := newTestRegistry(t, core.AgentDefinition{Name: "a", Role: "generalist"})
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	require.NoError(t, orc.BindStep("a", func(*StepContext) (StepResult, error) {
		return StepResult{}, boom
	}))
	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestStepContext_ToolScoping(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{
		Name: "worker", Role: "generalist", Tools: []string{"echo"},
	})
	tools := tool.NewExecutor()
	require.NoError(t, tools.Register(tool.NewFunctionTool("echo", "echo",
		func(_ context.Context, args map[string]any) (any, error) { return args["v"], nil })))
	require.NoError(t, tools.Register(tool.NewFunctionTool("forbidden", "not allowed",
		func(context.Context, map[string]any) (any, error) { return nil, nil })))

	orc := New(reg, memory.NewInMemoryStore(), tools)
	require.NoError(t, orc.BindStep("worker", func(sc *StepContext) (StepResult, error) {
		res, err := sc.ExecuteTool("echo", map[string]any{"v": "ok"})
		require.NoError(t, err)
		assert.Equal(t, "ok", res.Output)

		_, err = sc.ExecuteTool("forbidden", nil)
		assert.ErrorIs(t, err, ErrToolNotAllowed)
		return Final("done"), nil
	}))

	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	require.NoError(t, err)
}

func TestStepContext_StoreFactStampsSource(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{Name: "writer", Role: "generalist"})
	store := memory.NewInMemoryStore()
	orc := New(reg, store, tool.NewExecutor())
	require.NoError(t, orc.BindStep("writer", func(sc *StepContext) (StepResult, error) {
		_, err := sc.StoreFact(core.MemoryFact{
			EntityType: "task", EntityID: "t1", Property: "status",
			Value: "open", SourceAgent: "spoofed", Confidence: 0.9,
		})
		return Final("ok"), err
	}))

	_, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	require.NoError(t, err)

	facts, err := store.AllFacts()
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "writer", facts[0].SourceAgent)
}

func TestDelegate_ConflictResolvedByDebate(t *testing.T) {
	reg := newTestRegistry(t,
		core.AgentDefinition{Name: "optimist", Role: "research"},
		core.AgentDefinition{Name: "skeptic", Role: "generalist"},
	)
	store := memory.NewInMemoryStore()
	key := core.FactKey{EntityType: "person", EntityID: "alice", Property: "city"}

	// Contradictory findings already in shared memory.
	seed := func(agent, value string, confidence float64) {
		f := testutil.NewFact(key.EntityType, key.EntityID, key.Property).
			Value(value).Confidence(confidence).Source(agent).Build()
		_, err := store.StoreFact(f)
		require.NoError(t, err)
	}
	seed("optimist", "lisbon", 0.9)
	seed("skeptic", "porto", 0.4)

	orc := New(reg, store, tool.NewExecutor())
	raised := false
	require.NoError(t, orc.BindStep("skeptic", func(sc *StepContext) (StepResult, error) {
		if !raised {
			raised = true
			return StepResult{Conflict: &Conflict{
				Key:          key,
				Question:     "where does alice live?",
				Participants: []string{"optimist", "skeptic"},
			}}, nil
		}
		consensus := sc.Values["consensus:"+key.String()]
		return Final(fmt.Sprintf("settled on %v", consensus)), nil
	}))

	out, err := orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	require.NoError(t, err)
	assert.Equal(t, "settled on lisbon", out.Result)

	// The consensus is persisted as a debate-attributed fact.
	facts, err := store.RetrieveFacts(key.EntityType, key.EntityID, time.Time{})
	require.NoError(t, err)
	var consensusFact *core.MemoryFact
	for i := range facts {
		if facts[i].SourceAgent == "debate" {
			consensusFact = &facts[i]
		}
	}
	require.NotNil(t, consensusFact)
	assert.Equal(t, "lisbon", consensusFact.Value)
}

func TestDelegate_ConflictReRaisedFails(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{Name: "loop", Role: "generalist"})
	store := memory.NewInMemoryStore()
	key := core.FactKey{EntityType: "task", EntityID: "t1", Property: "due"}
	_, err := store.StoreFact(testutil.NewFact(key.EntityType, key.EntityID, key.Property).
		Value("friday").Source("loop").Build())
	require.NoError(t, err)

	orc := New(reg, store, tool.NewExecutor())
	require.NoError(t, orc.BindStep("loop", func(*StepContext) (StepResult, error) {
		return StepResult{Conflict: &Conflict{Key: key, Participants: []string{"loop"}}}, nil
	}))

	_, err = orc.Delegate(context.Background(), Request{RunID: "r1", Goal: "x"})
	assert.ErrorIs(t, err, ErrConflictUnresolved)
}

func TestDelegate_CanceledContextStopsAtCheckpoint(t *testing.T) {
	reg := newTestRegistry(t, core.AgentDefinition{Name: "a", Role: "generalist"})
	orc := New(reg, memory.NewInMemoryStore(), tool.NewExecutor())
	require.NoError(t, orc.BindStep("a", func(*StepContext) (StepResult, error) {
		t.Fatal("step must not run on a canceled context")
		return Final(""), nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orc.Delegate(ctx, Request{RunID: "r1", Goal: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
