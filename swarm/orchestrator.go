// Package swarm implements the supervisor-free orchestration loop: an
// initial agent is selected for the goal, executes its step, and either
// returns a final result or hands control to a named peer carrying the
// accumulated context. Agents exchange findings through the shared fact
// store instead of funneling everything through one coordinator agent.
// Handoff chains are bounded by an explicit budget so cyclic agent graphs
// terminate deterministically instead of ping-ponging forever.
package swarm

import (
	"context"
	"fmt"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/debate"
	"github.com/taskweave/swarmcore/logging"
	"github.com/taskweave/swarmcore/registry"
)

// DefaultMaxHandoffs bounds the handoff chain of one run.
const DefaultMaxHandoffs = 8

// Request carries one delegation into the orchestrator.
type Request struct {
	// RunID correlates events and logs; the run manager supplies it.
	RunID string
	// Goal is the user goal to work on.
	Goal string
	// Values seeds the accumulated context.
	Values map[string]any
	// Control gates execution at step boundaries. Nil means no gating
	// beyond the context.
	Control Control
}

// Outcome is the terminal result of a delegation.
type Outcome struct {
	// Result is the final answer produced by the last agent.
	Result string
	// Agent names the agent that produced the final result.
	Agent string
	// Handoffs is the number of control transfers consumed.
	Handoffs int
}

// DebaterFactory builds a debate participant for an agent involved in a
// conflict over the given key.
type DebaterFactory func(def core.AgentDefinition, key core.FactKey) debate.Participant

// Orchestrator routes control between agents. It holds no per-run state;
// one instance serves any number of concurrent runs.
type Orchestrator struct {
	registry *registry.Registry
	memory   core.FactStore
	tools    core.ToolExecutor
	debate   *debate.Coordinator

	steps       map[string]StepFunc
	maxHandoffs int
	debaterFor  DebaterFactory
	logger      logging.Logger
	sink        core.EventSink
}

// Options customizes orchestrator construction.
type Options struct {
	// MaxHandoffs bounds the handoff chain. Defaults to DefaultMaxHandoffs.
	MaxHandoffs int
	// Debate overrides the debate coordinator.
	Debate *debate.Coordinator
	// DebaterFactory overrides how conflict participants are built.
	DebaterFactory DebaterFactory
	Logger         logging.Logger
	Sink           core.EventSink
}

// New creates an orchestrator over the given registry, shared memory and
// tool executor.
func New(reg *registry.Registry, memory core.FactStore, tools core.ToolExecutor, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxHandoffs: DefaultMaxHandoffs,
		Logger:      logging.NoOpLogger{},
		Sink:        core.NoOpSink{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Debate == nil {
		opts.Debate = debate.NewCoordinator(func(o *debate.Options) {
			o.Logger = opts.Logger
			o.Sink = opts.Sink
		})
	}

	o := &Orchestrator{
		registry:    reg,
		memory:      memory,
		tools:       tools,
		debate:      opts.Debate,
		steps:       make(map[string]StepFunc),
		maxHandoffs: opts.MaxHandoffs,
		logger:      logging.OrNoOp(opts.Logger),
		sink:        opts.Sink,
	}
	o.debaterFor = opts.DebaterFactory
	if o.debaterFor == nil {
		o.debaterFor = func(def core.AgentDefinition, key core.FactKey) debate.Participant {
			return &factParticipant{agent: def, memory: memory, key: key}
		}
	}
	return o
}

// BindStep attaches a step function to a registered agent. Binding an
// unknown agent is a configuration error. Bind during wiring, before any
// run starts; the step table is read without locking afterwards.
func (o *Orchestrator) BindStep(agentName string, fn StepFunc) error {
	if _, err := o.registry.Resolve(agentName); err != nil {
		return err
	}
	o.steps[agentName] = fn
	return nil
}

// Delegate executes a goal to completion: initial agent selection, step
// execution, handoff routing and conflict resolution. It returns the final
// outcome or the error that failed the run. Steps within the run execute
// strictly sequentially.
func (o *Orchestrator) Delegate(ctx context.Context, req Request) (*Outcome, error) {
	control := req.Control
	if control == nil {
		control = noopControl{}
	}

	current, err := o.registry.SelectForGoal(req.Goal)
	if err != nil {
		return nil, fmt.Errorf("select agent for goal: %w", err)
	}

	values := make(map[string]any, len(req.Values))
	for k, v := range req.Values {
		values[k] = v
	}

	// resolved guards against a step re-raising a conflict the debate
	// already settled, which would otherwise loop.
	resolved := make(map[core.FactKey]bool)

	handoffs := 0
	for {
		if err := control.Checkpoint(ctx); err != nil {
			return nil, err
		}

		fn, bound := o.steps[current.Name]
		if !bound {
			return nil, fmt.Errorf("%w: %s", ErrNoStepBound, current.Name)
		}

		sc := &StepContext{
			ctx:     ctx,
			control: control,
			RunID:   req.RunID,
			Goal:    req.Goal,
			Agent:   current,
			Hop:     handoffs,
			Values:  values,
			memory:  o.memory,
			tools:   o.tools,
			logger:  o.logger,
		}

		result, err := fn(sc)
		if err != nil {
			return nil, fmt.Errorf("step of agent %s: %w", current.Name, err)
		}

		switch {
		case result.FinalSet:
			return &Outcome{Result: result.Final, Agent: current.Name, Handoffs: handoffs}, nil

		case result.Conflict != nil:
			key := result.Conflict.Key
			if resolved[key] {
				return nil, fmt.Errorf("%w: %s", ErrConflictUnresolved, key)
			}
			consensus, err := o.resolveConflict(ctx, req.RunID, result.Conflict)
			if err != nil {
				return nil, fmt.Errorf("resolve conflict over %s: %w", key, err)
			}
			resolved[key] = true
			values["consensus:"+key.String()] = consensus.Answer
			// Re-run the same agent's step with the consensus in context.

		case result.Handoff != nil:
			directive := result.Handoff
			if !current.CanHandoff {
				return nil, fmt.Errorf("%w: %s", ErrHandoffNotPermitted, current.Name)
			}
			target, err := o.registry.Resolve(directive.TargetAgent)
			if err != nil {
				return nil, fmt.Errorf("handoff target: %w", err)
			}
			handoffs++
			if handoffs > o.maxHandoffs {
				return nil, fmt.Errorf("%w: limit %d", ErrHandoffLimitExceeded, o.maxHandoffs)
			}
			for k, v := range directive.Context {
				values[k] = v
			}
			if directive.Message != "" {
				values["handoff:"+current.Name] = directive.Message
			}
			o.logger.Info("handoff", "run_id", req.RunID, "from", current.Name, "to", target.Name, "hop", handoffs)
			if err := o.sink.Publish(core.NewHandoffEvent(req.RunID, current.Name, target.Name, directive.Message)); err != nil {
				o.logger.Warn("handoff event publish failed", "error", err)
			}
			current = target

		default:
			return nil, fmt.Errorf("step of agent %s returned an empty result", current.Name)
		}
	}
}
