package runner

import "errors"

var (
	// ErrConcurrencyLimit is returned by Start when the running-count is
	// already at the configured ceiling. Runs are rejected immediately, no
	// implicit queueing; callers retry.
	ErrConcurrencyLimit = errors.New("concurrency limit exceeded")

	// ErrInvalidTransition is returned for lifecycle operations the state
	// machine does not permit from the run's current status.
	ErrInvalidTransition = errors.New("invalid run transition")

	// ErrRunTerminated is returned for any operation on a run in a terminal
	// state.
	ErrRunTerminated = errors.New("run already terminated")

	// ErrRunNotFound is returned when the run id is unknown.
	ErrRunNotFound = errors.New("run not found")
)
