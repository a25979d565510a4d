package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/swarmcore/core"
)

var _ core.ToolExecutor = (*Executor)(nil)

func echoTool() Tool {
	return NewFunctionTool("echo", "Echo the input back",
		func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		})
}

func TestExecutor_RegisterAndExecute(t *testing.T) {
	e := NewExecutor()
	require.NoError(t, e.Register(echoTool()))

	res, err := e.Execute(context.Background(), "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo", res.Tool)
	assert.Equal(t, "hi", res.Output)
	assert.GreaterOrEqual(t, res.Duration, time.Duration(0))
}

func TestExecutor_RegisterDuplicate(t *testing.T) {
	e := NewExecutor()
	require.NoError(t, e.Register(echoTool()))
	err := e.Register(echoTool())
	assert.ErrorIs(t, err, ErrDuplicateTool)
}

func TestExecutor_UnknownTool(t *testing.T) {
	e := NewExecutor()
	_, err := e.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestExecutor_Timeout(t *testing.T) {
	e := NewExecutor(func(o *ExecutorOptions) { o.Timeout = 20 * time.Millisecond })
	require.NoError(t, e.Register(NewFunctionTool("slow", "never finishes",
		func(ctx context.Context, _ map[string]any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})))

	_, err := e.Execute(context.Background(), "slow", nil)
	assert.ErrorIs(t, err, core.ErrToolTimeout)
}

func TestExecutor_CallerCancelIsNotTimeout(t *testing.T) {
	e := NewExecutor()
	require.NoError(t, e.Register(NewFunctionTool("slow", "never finishes",
		func(ctx context.Context, _ map[string]any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := e.Execute(ctx, "slow", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, core.ErrToolTimeout)
}

func TestExecutor_ToolErrorPropagated(t *testing.T) {
	e := NewExecutor()
	require.NoError(t, e.Register(NewFunctionTool("flaky", "fails with a typed error",
		func(context.Context, map[string]any) (any, error) {
			return nil, core.NewToolError("flaky", "RATE_LIMITED", "slow down", true)
		})))

	_, err := e.Execute(context.Background(), "flaky", nil)
	var te *core.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "RATE_LIMITED", te.Code)
	assert.True(t, te.Retryable)
}

func TestFunctionTool_NormalizesPlainErrors(t *testing.T) {
	ft := NewFunctionTool("broken", "fails with a plain error",
		func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("boom")
		})

	_, err := ft.Call(context.Background(), nil)
	var te *core.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "EXECUTION_ERROR", te.Code)
	assert.False(t, te.Retryable)
	assert.Contains(t, te.Message, "boom")
}

func TestTaskList_Lifecycle(t *testing.T) {
	e := NewExecutor()
	list := NewTaskList()
	for _, tl := range list.Tools() {
		require.NoError(t, e.Register(tl))
	}
	assert.Len(t, e.Names(), 3)

	res, err := e.Execute(context.Background(), "task_create", map[string]any{"title": "buy milk"})
	require.NoError(t, err)
	created := res.Output.(taskEntry)
	assert.Equal(t, "open", created.Status)

	_, err = e.Execute(context.Background(), "task_create", map[string]any{})
	var te *core.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "VALIDATION_ERROR", te.Code)

	res, err = e.Execute(context.Background(), "task_complete", map[string]any{"id": created.ID})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Output.(taskEntry).Status)

	// JSON-decoded args carry numbers as float64.
	_, err = e.Execute(context.Background(), "task_complete", map[string]any{"id": float64(99)})
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "NOT_FOUND", te.Code)

	res, err = e.Execute(context.Background(), "task_list", nil)
	require.NoError(t, err)
	assert.Len(t, res.Output.([]taskEntry), 1)
}
