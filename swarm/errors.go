package swarm

import "errors"

var (
	// ErrHandoffNotPermitted is returned when an agent without handoff
	// rights emits a handoff directive.
	ErrHandoffNotPermitted = errors.New("agent is not permitted to hand off")

	// ErrHandoffLimitExceeded is returned when a run consumes its whole
	// handoff budget, the guard against cyclic agent ping-pong.
	ErrHandoffLimitExceeded = errors.New("handoff chain limit exceeded")

	// ErrNoStepBound is returned when control reaches an agent that has no
	// step function bound.
	ErrNoStepBound = errors.New("no step function bound for agent")

	// ErrToolNotAllowed is returned when a step invokes a tool outside the
	// agent's declared tool set.
	ErrToolNotAllowed = errors.New("tool not in agent's tool set")

	// ErrConflictUnresolved is returned when the same conflict is raised
	// again after a debate already resolved it.
	ErrConflictUnresolved = errors.New("conflict raised again after resolution")
)
