package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrToolTimeout is returned (wrapped) when a tool call exceeds its declared
// timeout. Timed-out calls are not retried automatically; the executing step
// decides whether to retry with adjusted input, hand off, or fail the run.
var ErrToolTimeout = errors.New("tool execution timed out")

// ToolResult captures the successful outcome of a tool invocation.
type ToolResult struct {
	Tool     string        `json:"tool"`
	Output   any           `json:"output"`
	Duration time.Duration `json:"duration"`
}

// ToolError is the typed failure surface of tool execution. Retryable
// distinguishes transient failures (worth retrying with the same input) from
// permanent ones.
type ToolError struct {
	Tool      string `json:"tool"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given details.
func NewToolError(tool, code, message string, retryable bool) *ToolError {
	return &ToolError{Tool: tool, Code: code, Message: message, Retryable: retryable}
}

// ToolExecutor is the narrow interface through which the orchestration core
// reaches external tool implementations (task CRUD, attachment fetch,
// search). The core does not know how tools are implemented, only that each
// call is bounded by a timeout and can fail with a typed error.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (ToolResult, error)
}
