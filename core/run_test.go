package core

import (
	"testing"
	"time"
)

func TestRunStatus_IsTerminal(t *testing.T) {
	terminal := []RunStatus{RunCanceled, RunCompleted, RunFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range []RunStatus{RunPending, RunRunning, RunPaused} {
		if s.IsTerminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]RunStatus{
		{RunPending, RunRunning},
		{RunPending, RunCanceled},
		{RunRunning, RunPaused},
		{RunRunning, RunCompleted},
		{RunRunning, RunFailed},
		{RunRunning, RunCanceled},
		{RunPaused, RunRunning},
		{RunPaused, RunCanceled},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("transition %s -> %s should be allowed", tr[0], tr[1])
		}
	}

	forbidden := [][2]RunStatus{
		{RunPending, RunPaused},
		{RunPending, RunCompleted},
		{RunPaused, RunCompleted},
		{RunPaused, RunFailed},
		{RunCompleted, RunRunning},
		{RunCanceled, RunRunning},
		{RunFailed, RunPending},
	}
	for _, tr := range forbidden {
		if CanTransition(tr[0], tr[1]) {
			t.Errorf("transition %s -> %s must be rejected", tr[0], tr[1])
		}
	}
}

func TestAgentRun_CloneIsolation(t *testing.T) {
	finished := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	run := AgentRun{ID: "r1", Status: RunCompleted, FinishedAt: &finished}
	cp := run.Clone()
	*cp.FinishedAt = cp.FinishedAt.Add(time.Hour)
	if !run.FinishedAt.Equal(finished) {
		t.Error("Clone must deep-copy FinishedAt")
	}
}
