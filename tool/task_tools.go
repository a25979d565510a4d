package tool

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskweave/swarmcore/core"
)

// TaskList is a tiny in-process task backend exposing the task-manager
// vocabulary (task_create, task_list, task_complete) as tools. The real
// system routes these calls to its task service; this implementation backs
// the CLI demo and tests.
type TaskList struct {
	mu    sync.Mutex
	next  int
	tasks map[int]*taskEntry
}

type taskEntry struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// NewTaskList creates an empty task backend.
func NewTaskList() *TaskList {
	return &TaskList{next: 1, tasks: make(map[int]*taskEntry)}
}

// Tools returns the task tool set bound to this list.
func (l *TaskList) Tools() []Tool {
	return []Tool{
		NewFunctionTool("task_create", "Create a task with the given title", l.create),
		NewFunctionTool("task_list", "List all tasks with their status", l.list),
		NewFunctionTool("task_complete", "Mark a task as done by id", l.complete),
	}
}

func (l *TaskList) create(_ context.Context, args map[string]any) (any, error) {
	title, ok := args["title"].(string)
	if !ok || title == "" {
		return nil, core.NewToolError("task_create", "VALIDATION_ERROR", "field 'title' must be a non-empty string", false)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := &taskEntry{ID: l.next, Title: title, Status: "open"}
	l.tasks[entry.ID] = entry
	l.next++
	return *entry, nil
}

func (l *TaskList) list(context.Context, map[string]any) (any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]taskEntry, 0, len(l.tasks))
	for id := 1; id < l.next; id++ {
		if t, ok := l.tasks[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (l *TaskList) complete(_ context.Context, args map[string]any) (any, error) {
	id, ok := args["id"].(int)
	if !ok {
		if f, isFloat := args["id"].(float64); isFloat {
			id, ok = int(f), true
		}
	}
	if !ok {
		return nil, core.NewToolError("task_complete", "VALIDATION_ERROR", "field 'id' must be an integer", false)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t, exists := l.tasks[id]
	if !exists {
		return nil, core.NewToolError("task_complete", "NOT_FOUND", fmt.Sprintf("task %d does not exist", id), false)
	}
	t.Status = "done"
	return *t, nil
}
