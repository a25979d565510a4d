package runner

import (
	"context"
	"sync"
)

// runControl implements swarm.Control for one run. Checkpoint blocks while
// the run is paused and unblocks on resume or cancellation. The zero value
// is not usable; construct with newRunControl.
type runControl struct {
	mu     sync.Mutex
	paused bool
	// resume is replaced on every pause; waiters block on the current one.
	resume chan struct{}
}

func newRunControl() *runControl {
	return &runControl{resume: make(chan struct{})}
}

// pause gates subsequent checkpoints. Idempotent.
func (c *runControl) pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		c.paused = true
		c.resume = make(chan struct{})
	}
}

// unpause releases all blocked checkpoints. Idempotent.
func (c *runControl) unpause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.paused = false
		close(c.resume)
	}
}

// Checkpoint returns nil when the run may proceed, blocks while paused, and
// returns the context error once the run is canceled. It is called by the
// orchestrator before every step and every tool call.
func (c *runControl) Checkpoint(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.mu.Lock()
		paused := c.paused
		resume := c.resume
		c.mu.Unlock()
		if !paused {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-resume:
		}
	}
}
