package core

import "time"

// RunStatus enumerates the lifecycle states of an AgentRun.
type RunStatus string

const (
	// RunPending is the initial state of a freshly created run.
	RunPending RunStatus = "pending"
	// RunRunning indicates the run is executing (or eligible to execute).
	RunRunning RunStatus = "running"
	// RunPaused indicates a run suspended at a step boundary.
	RunPaused RunStatus = "paused"
	// RunCanceled is the terminal state after a cooperative cancel.
	RunCanceled RunStatus = "canceled"
	// RunCompleted is the terminal state of a successful run.
	RunCompleted RunStatus = "completed"
	// RunFailed is the terminal state of an unsuccessful run.
	RunFailed RunStatus = "failed"
)

// IsTerminal reports whether the status is absorbing. Terminal runs reject
// every further lifecycle operation.
func (s RunStatus) IsTerminal() bool {
	return s == RunCanceled || s == RunCompleted || s == RunFailed
}

// runTransitions is the forward-only lifecycle graph:
// pending -> running -> {completed, failed, canceled}, running <-> paused.
// Cancel is additionally allowed from pending and paused.
var runTransitions = map[RunStatus][]RunStatus{
	RunPending: {RunRunning, RunCanceled},
	RunRunning: {RunPaused, RunCompleted, RunFailed, RunCanceled},
	RunPaused:  {RunRunning, RunCanceled},
}

// CanTransition reports whether the lifecycle graph permits moving a run
// from one status to another.
func CanTransition(from, to RunStatus) bool {
	for _, next := range runTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AgentRun tracks one active (or retained terminal) goal execution. It is
// owned exclusively by the run manager; orchestration code mutates it only
// through manager-provided accessors. Terminal runs are retained for later
// status queries, eviction is an external concern.
type AgentRun struct {
	ID           string     `json:"id"`
	Goal         string     `json:"goal"`
	CurrentAgent string     `json:"current_agent"`
	Status       RunStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	// Summary carries the final result or failure reason once the run
	// reaches a terminal state.
	Summary string `json:"summary,omitempty"`
}

// Clone returns a copy safe for handing to callers.
func (r AgentRun) Clone() AgentRun {
	cp := r
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		cp.FinishedAt = &t
	}
	return cp
}
