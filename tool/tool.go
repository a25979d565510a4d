// Package tool implements the tool execution subsystem the orchestration
// core consumes: a Tool interface for structured capabilities, a function
// adapter, and an Executor that enforces per-call timeouts and uniform typed
// errors. The core only sees core.ToolExecutor; how tools are implemented
// (task CRUD, attachment fetch, search) stays behind this package.
package tool

import (
	"context"
	"errors"
)

var (
	// ErrUnknownTool is returned when executing a name no tool was
	// registered under.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool is returned when registering a name twice.
	ErrDuplicateTool = errors.New("tool already registered")
)

// Tool defines a structured capability an agent step may invoke.
//
// Implementations should:
//   - Provide clear, descriptive snake_case names
//   - Respect context cancellation and deadlines
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// Call executes the tool. The context carries the per-call deadline set
	// by the Executor.
	Call(ctx context.Context, args map[string]any) (any, error)
}
