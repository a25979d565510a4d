package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/debate"
)

// factParticipant is the default debate participant: it argues from the
// agent's own most recent fact about the conflicted key. Custom participants
// can be supplied through the DebaterFactory option.
type factParticipant struct {
	agent  core.AgentDefinition
	memory core.FactStore
	key    core.FactKey
}

func (p *factParticipant) Name() string { return p.agent.Name }

// Position returns the agent's latest live fact about the key. Critiques
// from higher-confidence peers shave the participant's own confidence so
// repeated rounds drift toward the strongest supported value.
func (p *factParticipant) Position(_ context.Context, _ string, _ int, received []debate.Critique) (debate.Position, error) {
	facts, err := p.memory.RetrieveFacts(p.key.EntityType, p.key.EntityID, time.Time{})
	if err != nil {
		return debate.Position{}, err
	}
	var own *core.MemoryFact
	for i := range facts {
		if facts[i].Property == p.key.Property && facts[i].SourceAgent == p.agent.Name {
			own = &facts[i]
			break
		}
	}
	if own == nil {
		// No recorded position: abstain with zero confidence.
		return debate.Position{Answer: "", Confidence: 0}, nil
	}
	confidence := own.Confidence
	for range received {
		confidence *= 0.9
	}
	return debate.Position{Answer: own.Value, Confidence: confidence}, nil
}

func (p *factParticipant) Critique(_ context.Context, _ string, other debate.Position) (debate.Critique, error) {
	return debate.Critique{
		Comment: fmt.Sprintf("%s asserts %q with confidence %.2f", other.Agent, other.Answer, other.Confidence),
	}, nil
}

// resolveConflict runs a debate over the conflicted key and writes the
// consensus back to shared memory as a new fact attributed to the debate.
func (o *Orchestrator) resolveConflict(ctx context.Context, runID string, c *Conflict) (debate.ConsensusResult, error) {
	participants := make([]debate.Participant, 0, len(c.Participants))
	for _, name := range c.Participants {
		def, err := o.registry.Resolve(name)
		if err != nil {
			return debate.ConsensusResult{}, fmt.Errorf("debate participant: %w", err)
		}
		participants = append(participants, o.debaterFor(def, c.Key))
	}

	question := c.Question
	if question == "" {
		question = fmt.Sprintf("which value of %s is correct", c.Key)
	}

	result, err := o.debate.Coordinate(ctx, question, participants)
	if err != nil {
		return debate.ConsensusResult{}, err
	}

	if _, err := o.memory.StoreFact(core.MemoryFact{
		EntityType:  c.Key.EntityType,
		EntityID:    c.Key.EntityID,
		Property:    c.Key.Property,
		Value:       result.Answer,
		SourceAgent: "debate",
		Confidence:  result.Confidence,
	}); err != nil {
		return result, fmt.Errorf("store consensus fact: %w", err)
	}

	o.logger.Info("conflict resolved",
		"run_id", runID, "key", c.Key.String(),
		"answer", result.Answer, "rounds", result.Rounds, "converged", result.Converged)
	return result, nil
}
