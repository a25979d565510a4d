package tool

import (
	"context"
	"errors"

	"github.com/taskweave/swarmcore/core"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// Tool. It has no internal mutable state after construction and is safe for
// concurrent use by multiple goroutines.
//
// Error semantics:
//
//	*core.ToolError (returned directly) -> forwarded unchanged
//	other error                         -> wrapped as EXECUTION_ERROR, not retryable
type FunctionTool struct {
	name        string
	description string
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool.
//
// Example:
//
//	echo := tool.NewFunctionTool("echo", "Echo the input back",
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return args["text"], nil
//	  })
func NewFunctionTool(name, description string, fn func(ctx context.Context, args map[string]any) (any, error)) *FunctionTool {
	return &FunctionTool{name: name, description: description, fn: fn}
}

// Name returns the unique tool name used in routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description.
func (t *FunctionTool) Description() string { return t.description }

// Call invokes the underlying function, normalizing failures to
// *core.ToolError for uniform downstream handling.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	out, err := t.fn(ctx, args)
	if err != nil {
		var te *core.ToolError
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, core.NewToolError(t.name, "EXECUTION_ERROR", err.Error(), false)
	}
	return out, nil
}
