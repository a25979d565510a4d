// Package debate implements the bounded consensus protocol used when agents
// disagree. A debate runs at most a fixed number of rounds: participants
// state positions, exchange pairwise critiques and may revise; the
// coordinator stops early once a sufficient majority agrees and otherwise
// falls back to a confidence-weighted vote. Non-convergence is not an error,
// the result just carries lower confidence.
package debate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/logging"
)

// Defaults for the consensus protocol.
const (
	DefaultMaxRounds            = 3
	DefaultConvergenceThreshold = 0.8
)

// ErrNoParticipants is returned when a debate is started without anyone to
// debate.
var ErrNoParticipants = errors.New("debate requires at least one participant")

// Position is one participant's structured answer in a given round.
type Position struct {
	Agent      string  `json:"agent"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

// Critique is one participant's comment on another participant's position.
type Critique struct {
	From    string `json:"from"`
	Of      string `json:"of"`
	Comment string `json:"comment"`
}

// Participant is a debate party. Position is called once per round with the
// critiques addressed to this participant from the previous round, allowing
// revision. Critique is called pairwise against every other position.
type Participant interface {
	Name() string
	Position(ctx context.Context, question string, round int, received []Critique) (Position, error)
	Critique(ctx context.Context, question string, other Position) (Critique, error)
}

// ConsensusResult is the outcome of a debate.
type ConsensusResult struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Rounds     int     `json:"rounds"`
	Converged  bool    `json:"converged"`
}

// Coordinator runs debates. Safe for concurrent use.
type Coordinator struct {
	maxRounds int
	// convergence is the agreement share at which a debate stops early.
	convergence float64
	logger      logging.Logger
	sink        core.EventSink
}

// Options customizes coordinator construction.
type Options struct {
	MaxRounds            int
	ConvergenceThreshold float64
	Logger               logging.Logger
	Sink                 core.EventSink
}

// NewCoordinator creates a coordinator with the default round and
// convergence settings.
func NewCoordinator(optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		MaxRounds:            DefaultMaxRounds,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		Logger:               logging.NoOpLogger{},
		Sink:                 core.NoOpSink{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coordinator{
		maxRounds:   opts.MaxRounds,
		convergence: opts.ConvergenceThreshold,
		logger:      logging.OrNoOp(opts.Logger),
		sink:        opts.Sink,
	}
}

// Coordinate runs the debate to a result. It always terminates within
// maxRounds; after the last round the answer is decided by weighted vote
// (each position contributes round(confidence*10) ballots, plurality wins,
// ties break by lexicographic answer order).
func (c *Coordinator) Coordinate(ctx context.Context, question string, participants []Participant) (ConsensusResult, error) {
	if len(participants) == 0 {
		return ConsensusResult{}, ErrNoParticipants
	}

	received := make(map[string][]Critique)
	var positions []Position

	round := 0
	for round < c.maxRounds {
		round++

		positions = positions[:0]
		for _, p := range participants {
			pos, err := p.Position(ctx, question, round, received[p.Name()])
			if err != nil {
				return ConsensusResult{}, fmt.Errorf("position of %s in round %d: %w", p.Name(), round, err)
			}
			pos.Agent = p.Name()
			positions = append(positions, pos)
		}

		if answer, share := majority(positions); share >= c.convergence {
			result := ConsensusResult{
				Answer:     answer,
				Confidence: averageConfidence(positions, answer),
				Rounds:     round,
				Converged:  true,
			}
			c.finish(question, result)
			return result, nil
		}
		c.logger.Debug("debate round without convergence", "question", question, "round", round)

		// No convergence: exchange pairwise critiques so the next round's
		// positions can be revised. Skipped after the final round.
		if round == c.maxRounds {
			break
		}
		next := make(map[string][]Critique)
		for _, p := range participants {
			for _, pos := range positions {
				if pos.Agent == p.Name() {
					continue
				}
				crit, err := p.Critique(ctx, question, pos)
				if err != nil {
					return ConsensusResult{}, fmt.Errorf("critique by %s in round %d: %w", p.Name(), round, err)
				}
				crit.From = p.Name()
				crit.Of = pos.Agent
				next[pos.Agent] = append(next[pos.Agent], crit)
			}
		}
		received = next
	}

	answer, confidence := weightedVote(positions)
	result := ConsensusResult{Answer: answer, Confidence: confidence, Rounds: round}
	c.finish(question, result)
	return result, nil
}

func (c *Coordinator) finish(question string, res ConsensusResult) {
	c.logger.Info("debate resolved",
		"question", question, "answer", res.Answer,
		"confidence", res.Confidence, "rounds", res.Rounds, "converged", res.Converged)
	if err := c.sink.Publish(core.NewDebateResolvedEvent(question, res.Answer, res.Confidence, res.Rounds, res.Converged)); err != nil {
		c.logger.Warn("debate event publish failed", "error", err)
	}
}

// majority returns the most common answer and its share of positions.
func majority(positions []Position) (string, float64) {
	counts := make(map[string]int)
	for _, p := range positions {
		counts[p.Answer]++
	}
	best, bestCount := "", 0
	for answer, count := range counts {
		if count > bestCount || (count == bestCount && answer < best) {
			best, bestCount = answer, count
		}
	}
	return best, float64(bestCount) / float64(len(positions))
}

// weightedVote aggregates by confidence-weighted ballots. The winning
// answer's confidence is the mean confidence of its supporters.
func weightedVote(positions []Position) (string, float64) {
	ballots := make(map[string]int)
	for _, p := range positions {
		ballots[p.Answer] += int(math.Round(p.Confidence * 10))
	}

	answers := make([]string, 0, len(ballots))
	for answer := range ballots {
		answers = append(answers, answer)
	}
	sort.Strings(answers)

	best, bestBallots := "", -1
	for _, answer := range answers {
		if ballots[answer] > bestBallots {
			best, bestBallots = answer, ballots[answer]
		}
	}
	return best, averageConfidence(positions, best)
}

func averageConfidence(positions []Position, answer string) float64 {
	sum, n := 0.0, 0
	for _, p := range positions {
		if p.Answer == answer {
			sum += p.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
