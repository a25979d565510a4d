// Package runner owns the run lifecycle: it creates runs, enforces the
// concurrency ceiling, drives the orchestrator asynchronously and exposes
// the start/pause/resume/cancel/status control surface. Every lifecycle
// transition is published to the external event sink.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/logging"
	"github.com/taskweave/swarmcore/swarm"
)

// DefaultMaxConcurrentRuns is the default running-count ceiling.
const DefaultMaxConcurrentRuns = 4

// Manager owns all AgentRun records. Public methods are safe for concurrent
// use. Terminal runs are retained for status queries; eviction is an
// external concern.
type Manager struct {
	orc *swarm.Orchestrator

	limit int
	// pausedHoldSlot controls whether paused runs keep their concurrency
	// slot. Default true: no eviction policy exists, so a paused run must
	// not silently free capacity it will need again.
	pausedHoldSlot bool
	logger         logging.Logger
	sink           core.EventSink

	mu      sync.Mutex
	runs    map[string]*runState
	running int
}

type runState struct {
	run      core.AgentRun
	cancel   context.CancelFunc
	control  *runControl
	slotHeld bool
}

// Options customizes manager construction.
type Options struct {
	// MaxConcurrentRuns is the running-count ceiling. Defaults to
	// DefaultMaxConcurrentRuns.
	MaxConcurrentRuns int
	// PausedHoldSlot keeps paused runs counted against the ceiling.
	PausedHoldSlot bool
	Logger         logging.Logger
	Sink           core.EventSink
}

// NewManager creates a manager around the given orchestrator.
func NewManager(orc *swarm.Orchestrator, optFns ...func(o *Options)) *Manager {
	opts := Options{
		MaxConcurrentRuns: DefaultMaxConcurrentRuns,
		PausedHoldSlot:    true,
		Logger:            logging.NoOpLogger{},
		Sink:              core.NoOpSink{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		orc:            orc,
		limit:          opts.MaxConcurrentRuns,
		pausedHoldSlot: opts.PausedHoldSlot,
		logger:         logging.OrNoOp(opts.Logger),
		sink:           opts.Sink,
		runs:           make(map[string]*runState),
	}
}

// Start creates a run for the goal and begins executing it asynchronously.
// It fails with ErrConcurrencyLimit when the running-count is at the
// ceiling. The slot is reserved under the same lock that checks the ceiling
// so no interleaving of concurrent starts can exceed it.
func (m *Manager) Start(goal string) (string, error) {
	m.mu.Lock()
	if m.running >= m.limit {
		m.mu.Unlock()
		return "", fmt.Errorf("%w: %d runs already running", ErrConcurrencyLimit, m.limit)
	}

	// The run outlives the caller's request scope; cancellation goes
	// through Cancel, not a caller context.
	runCtx, cancel := context.WithCancel(context.Background())
	state := &runState{
		run: core.AgentRun{
			ID:        core.NewID(),
			Goal:      goal,
			Status:    core.RunPending,
			StartedAt: time.Now().UTC(),
		},
		cancel:   cancel,
		control:  newRunControl(),
		slotHeld: true,
	}
	m.running++
	m.runs[state.run.ID] = state
	m.transitionLocked(state, core.RunRunning)
	m.mu.Unlock()

	go m.execute(runCtx, state)
	return state.run.ID, nil
}

// Pause suspends a run at its next step boundary. Valid only from running.
func (m *Manager) Pause(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, err := m.lookupLocked(runID)
	if err != nil {
		return err
	}
	if state.run.Status != core.RunRunning {
		return fmt.Errorf("%w: pause from %s", ErrInvalidTransition, state.run.Status)
	}
	m.transitionLocked(state, core.RunPaused)
	state.control.pause()
	if !m.pausedHoldSlot {
		m.releaseSlotLocked(state)
	}
	return nil
}

// Resume releases a paused run. Valid only from paused. With
// PausedHoldSlot disabled it re-acquires a slot and can fail with
// ErrConcurrencyLimit.
func (m *Manager) Resume(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, err := m.lookupLocked(runID)
	if err != nil {
		return err
	}
	if state.run.Status != core.RunPaused {
		return fmt.Errorf("%w: resume from %s", ErrInvalidTransition, state.run.Status)
	}
	if !state.slotHeld {
		if m.running >= m.limit {
			return fmt.Errorf("%w: cannot resume, %d runs already running", ErrConcurrencyLimit, m.limit)
		}
		m.running++
		state.slotHeld = true
	}
	m.transitionLocked(state, core.RunRunning)
	state.control.unpause()
	return nil
}

// Cancel requests cooperative termination. Valid from pending, running or
// paused. The executing step observes the cancellation at its next safe
// point; in-flight tool calls are allowed to finish.
func (m *Manager) Cancel(runID string) error {
	m.mu.Lock()
	state, err := m.lookupLocked(runID)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.transitionLocked(state, core.RunCanceled)
	now := time.Now().UTC()
	state.run.FinishedAt = &now
	state.run.Summary = "canceled"
	m.releaseSlotLocked(state)
	m.mu.Unlock()

	// Wake a checkpoint blocked in pause, then cancel the run context.
	state.control.unpause()
	state.cancel()
	return nil
}

// Status returns a read-only snapshot of the run.
func (m *Manager) Status(runID string) (core.AgentRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.runs[runID]
	if !ok {
		return core.AgentRun{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return state.run.Clone(), nil
}

// List returns snapshots of all known runs, terminal ones included.
func (m *Manager) List() []core.AgentRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.AgentRun, 0, len(m.runs))
	for _, state := range m.runs {
		out = append(out, state.run.Clone())
	}
	return out
}

// RunningCount reports the current slot usage.
func (m *Manager) RunningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// execute drives the orchestrator and converts its outcome into the
// terminal transition. Any panic inside orchestration is recovered here so
// no run is ever left perpetually running.
func (m *Manager) execute(ctx context.Context, state *runState) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("run panicked", "run_id", state.run.ID, "panic", r)
			m.finish(state, core.RunFailed, "", fmt.Sprintf("panic: %v", r))
		}
	}()

	outcome, err := m.orc.Delegate(ctx, swarm.Request{
		RunID:   state.run.ID,
		Goal:    state.run.Goal,
		Control: state.control,
	})
	switch {
	case err == nil:
		m.finish(state, core.RunCompleted, outcome.Agent, outcome.Result)
	case errors.Is(err, context.Canceled):
		// Cancel already performed the terminal transition; finish only
		// releases bookkeeping.
		m.finish(state, core.RunCanceled, "", "canceled")
	default:
		m.logger.Warn("run failed", "run_id", state.run.ID, "error", err)
		m.finish(state, core.RunFailed, "", err.Error())
	}
}

// finish applies the terminal transition exactly once and releases the
// concurrency slot. A run already terminal (canceled concurrently) only has
// its slot released.
func (m *Manager) finish(state *runState, to core.RunStatus, agent, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !state.run.Status.IsTerminal() {
		// A failure surfacing while the run is paused passes through
		// running: the pause gate has already been bypassed by the error
		// path, so the intermediate transition keeps the event stream
		// consistent with the lifecycle graph.
		if state.run.Status == core.RunPaused && to != core.RunCanceled {
			m.transitionLocked(state, core.RunRunning)
		}
		m.transitionLocked(state, to)
		now := time.Now().UTC()
		state.run.FinishedAt = &now
		state.run.Summary = summary
		if agent != "" {
			state.run.CurrentAgent = agent
		}
	}
	m.releaseSlotLocked(state)
}

// lookupLocked resolves a run for a mutating operation, mapping unknown ids
// and terminal runs to their sentinel errors.
func (m *Manager) lookupLocked(runID string) (*runState, error) {
	state, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if state.run.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrRunTerminated, runID, state.run.Status)
	}
	return state, nil
}

// transitionLocked moves the run along the lifecycle graph and emits the
// transition event. Callers validate operation-specific preconditions; this
// guards the graph itself.
func (m *Manager) transitionLocked(state *runState, to core.RunStatus) {
	from := state.run.Status
	if !core.CanTransition(from, to) {
		// Lifecycle bugs must not corrupt state silently.
		panic(fmt.Sprintf("runner: illegal transition %s -> %s for run %s", from, to, state.run.ID))
	}
	state.run.Status = to
	m.logger.Debug("run transition", "run_id", state.run.ID, "from", from, "to", to)
	if err := m.sink.Publish(core.NewRunTransitionEvent(state.run.ID, from, to)); err != nil {
		m.logger.Warn("transition event publish failed", "run_id", state.run.ID, "error", err)
	}
}

// releaseSlotLocked returns the run's concurrency slot exactly once.
func (m *Manager) releaseSlotLocked(state *runState) {
	if state.slotHeld {
		state.slotHeld = false
		m.running--
	}
}
