package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/logging"
)

// Control lets the run owner gate step execution: the orchestrator calls
// Checkpoint at every safe point (before each step and each tool call). An
// implementation may block there while the run is paused and must return the
// context error once the run is canceled. In-flight tool calls are never
// interrupted; cancellation takes effect at the next checkpoint.
type Control interface {
	Checkpoint(ctx context.Context) error
}

type noopControl struct{}

func (noopControl) Checkpoint(ctx context.Context) error { return ctx.Err() }

// HandoffDirective requests transfer of control to another agent. It is a
// transient value, never persisted.
type HandoffDirective struct {
	// TargetAgent names the agent to receive control.
	TargetAgent string
	// Message carries the reason plus accumulated findings.
	Message string
	// Context is merged into the accumulated run context and passed through
	// unchanged.
	Context map[string]any
}

// Conflict signals that contradictory findings about a fact key must be
// reconciled by debate before the run can conclude.
type Conflict struct {
	Key core.FactKey
	// Question is the free-form question put to the debate participants.
	Question string
	// Participants names the agents holding the conflicting positions.
	Participants []string
}

// StepResult is the outcome of one agent step. Exactly one field should be
// set; a zero StepResult fails the run.
type StepResult struct {
	// Final ends the run with this result text.
	Final string
	// FinalSet distinguishes an intentional empty final result from an
	// unset field.
	FinalSet bool
	// Handoff transfers control to another agent.
	Handoff *HandoffDirective
	// Conflict asks the orchestrator to resolve a disagreement, then re-run
	// this agent's step with the consensus in context.
	Conflict *Conflict
}

// Final builds a terminal StepResult.
func Final(result string) StepResult { return StepResult{Final: result, FinalSet: true} }

// Handoff builds a transfer StepResult.
func Handoff(target, message string, ctx map[string]any) StepResult {
	return StepResult{Handoff: &HandoffDirective{TargetAgent: target, Message: message, Context: ctx}}
}

// StepFunc is the behavior bound to an agent. Steps run strictly
// sequentially within a run and exchange findings through the shared fact
// store rather than through a supervisor agent.
type StepFunc func(sc *StepContext) (StepResult, error)

// StepContext is the execution surface handed to a step function. It scopes
// tool access to the agent's declared tool set and exposes the shared
// memory, the accumulated context values and a cancellation checkpoint.
type StepContext struct {
	ctx     context.Context
	control Control

	// RunID identifies the owning run.
	RunID string
	// Goal is the user goal the swarm is working on.
	Goal string
	// Agent is the definition of the executing agent.
	Agent core.AgentDefinition
	// Hop is the number of handoffs consumed so far.
	Hop int
	// Values is the accumulated context, merged across handoffs.
	Values map[string]any

	memory core.FactStore
	tools  core.ToolExecutor
	logger logging.Logger
}

// Context returns the run-scoped context for blocking calls.
func (sc *StepContext) Context() context.Context { return sc.ctx }

// Logger returns the run-scoped logger.
func (sc *StepContext) Logger() logging.Logger { return sc.logger }

// Checkpoint is the cooperative suspension point. Steps performing long
// internal loops should call it between iterations; the orchestrator already
// calls it before each step and each tool call.
func (sc *StepContext) Checkpoint() error { return sc.control.Checkpoint(sc.ctx) }

// ExecuteTool invokes a tool through the external executor, enforcing the
// agent's tool set and the cooperative checkpoint.
func (sc *StepContext) ExecuteTool(name string, args map[string]any) (core.ToolResult, error) {
	if !sc.Agent.HasTool(name) {
		return core.ToolResult{}, fmt.Errorf("%w: %s (agent %s)", ErrToolNotAllowed, name, sc.Agent.Name)
	}
	if err := sc.Checkpoint(); err != nil {
		return core.ToolResult{}, err
	}
	return sc.tools.Execute(sc.ctx, name, args)
}

// StoreFact appends a finding to the shared memory, stamped with the
// executing agent as source.
func (sc *StepContext) StoreFact(f core.MemoryFact) (string, error) {
	f.SourceAgent = sc.Agent.Name
	return sc.memory.StoreFact(f)
}

// RetrieveFacts reads the live facts about an entity from shared memory.
func (sc *StepContext) RetrieveFacts(entityType, entityID string) ([]core.MemoryFact, error) {
	return sc.memory.RetrieveFacts(entityType, entityID, time.Time{})
}
