package tool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taskweave/swarmcore/core"
	"github.com/taskweave/swarmcore/logging"
)

// DefaultTimeout bounds a single tool call.
const DefaultTimeout = 30 * time.Second

// Executor implements core.ToolExecutor over a set of registered tools. Each
// call runs with a deadline; calls that exceed it fail with
// core.ErrToolTimeout and are not retried automatically. The tool goroutine
// is left to finish on its own so external side effects are never
// interrupted mid-call.
type Executor struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	timeout time.Duration
	logger  logging.Logger
}

// ExecutorOptions customizes construction.
type ExecutorOptions struct {
	// Timeout bounds each tool call. Defaults to DefaultTimeout.
	Timeout time.Duration
	Logger  logging.Logger
}

// NewExecutor creates an empty executor.
func NewExecutor(optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{Timeout: DefaultTimeout, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Executor{
		tools:   make(map[string]Tool),
		timeout: opts.Timeout,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Register adds a tool. It fails with ErrDuplicateTool on name collisions.
func (e *Executor) Register(t Tool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.tools[t.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
	}
	e.tools[t.Name()] = t
	return nil
}

// Names returns the registered tool names.
func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.tools))
	for name := range e.tools {
		names = append(names, name)
	}
	return names
}

// Execute runs the named tool with the configured timeout.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (core.ToolResult, error) {
	e.mu.RLock()
	t, ok := e.tools[name]
	e.mu.RUnlock()
	if !ok {
		return core.ToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		out any
		err error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		out, err := t.Call(callCtx, args)
		done <- outcome{out: out, err: err}
	}()

	select {
	case <-callCtx.Done():
		dur := time.Since(start)
		if ctx.Err() != nil {
			// Caller cancellation, not a timeout.
			e.logger.Debug("tool call canceled", "tool", name, "duration", dur)
			return core.ToolResult{}, ctx.Err()
		}
		e.logger.Warn("tool call timed out", "tool", name, "timeout", e.timeout)
		return core.ToolResult{}, fmt.Errorf("%s after %v: %w", name, e.timeout, core.ErrToolTimeout)
	case res := <-done:
		dur := time.Since(start)
		if res.err != nil {
			e.logger.Warn("tool call failed", "tool", name, "duration", dur, "error", res.err)
			return core.ToolResult{}, res.err
		}
		e.logger.Debug("tool call completed", "tool", name, "duration", dur)
		return core.ToolResult{Tool: name, Output: res.out, Duration: dur}, nil
	}
}
