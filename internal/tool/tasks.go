package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"davmcp/internal/dav"
	"davmcp/internal/domain"
)

// TaskTools returns the VTODO tool group.
func TaskTools(client *dav.Client) []domain.Tool {
	return []domain.Tool{
		NewListTasksTool(client),
		NewCreateTaskTool(client),
		NewCompleteTaskTool(client),
		NewDeleteTaskTool(client),
	}
}

// --- list_tasks ---

type ListTasksTool struct {
	client *dav.Client
}

func NewListTasksTool(client *dav.Client) *ListTasksTool {
	return &ListTasksTool{client: client}
}

func (t *ListTasksTool) Name() string { return "list_tasks" }
func (t *ListTasksTool) Description() string {
	return "List tasks (VTODO) in a calendar. Completed tasks are hidden unless include_completed is true."
}
func (t *ListTasksTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path":     {Type: "string", Description: "Path of the calendar holding the tasks"},
		"include_completed": {Type: "boolean", Description: "Include completed tasks (default false)"},
	}, []string{"calendar_path"})
}
func (t *ListTasksTool) Category() string     { return domain.CategoryTask }
func (t *ListTasksTool) RequiresRemote() bool { return false }

func (t *ListTasksTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	tasks, err := t.client.ListTasks(ctx, calPath, boolArg(args, "include_completed"))
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "No tasks found.", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d task(s):\n", len(tasks))
	for _, task := range tasks {
		marker := " "
		if task.Completed() {
			marker = "x"
		}
		fmt.Fprintf(&sb, "- [%s] [%s] %s", marker, task.UID, task.Summary)
		if !task.Due.IsZero() {
			fmt.Fprintf(&sb, " (due %s)", task.Due.Format(time.RFC3339))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// --- create_task ---

type CreateTaskTool struct {
	client *dav.Client
}

func NewCreateTaskTool(client *dav.Client) *CreateTaskTool {
	return &CreateTaskTool{client: client}
}

func (t *CreateTaskTool) Name() string { return "create_task" }
func (t *CreateTaskTool) Description() string {
	return "Create a task (VTODO) in a calendar. Returns the UID of the new task."
}
func (t *CreateTaskTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path": {Type: "string", Description: "Path of the target calendar"},
		"summary":       {Type: "string", Description: "Task title"},
		"due":           {Type: "string", Description: "Due time, RFC3339 (optional)"},
		"description":   {Type: "string", Description: "Task description (optional)"},
	}, []string{"calendar_path", "summary"})
}
func (t *CreateTaskTool) Category() string     { return domain.CategoryTask }
func (t *CreateTaskTool) RequiresRemote() bool { return true }

func (t *CreateTaskTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	summary, err := requireArg(args, "summary")
	if err != nil {
		return "", err
	}
	due, err := timeArg(args, "due")
	if err != nil {
		return "", err
	}
	uid, err := t.client.CreateTask(ctx, calPath, dav.Task{
		Summary:     summary,
		Description: ArgsString(args, "description"),
		Due:         due,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Task created with UID %s", uid), nil
}

// --- complete_task ---

type CompleteTaskTool struct {
	client *dav.Client
}

func NewCompleteTaskTool(client *dav.Client) *CompleteTaskTool {
	return &CompleteTaskTool{client: client}
}

func (t *CompleteTaskTool) Name() string { return "complete_task" }
func (t *CompleteTaskTool) Description() string {
	return "Mark a task identified by UID as completed."
}
func (t *CompleteTaskTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path": {Type: "string", Description: "Path of the calendar containing the task"},
		"uid":           {Type: "string", Description: "UID of the task to complete"},
	}, []string{"calendar_path", "uid"})
}
func (t *CompleteTaskTool) Category() string     { return domain.CategoryTask }
func (t *CompleteTaskTool) RequiresRemote() bool { return true }

func (t *CompleteTaskTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	uid, err := requireArg(args, "uid")
	if err != nil {
		return "", err
	}
	if err := t.client.CompleteTask(ctx, calPath, uid); err != nil {
		return "", err
	}
	return fmt.Sprintf("Task %s completed", uid), nil
}

// --- delete_task ---

type DeleteTaskTool struct {
	client *dav.Client
}

func NewDeleteTaskTool(client *dav.Client) *DeleteTaskTool {
	return &DeleteTaskTool{client: client}
}

func (t *DeleteTaskTool) Name() string { return "delete_task" }
func (t *DeleteTaskTool) Description() string {
	return "Delete a task identified by UID from a calendar."
}
func (t *DeleteTaskTool) Parameters() map[string]any {
	return ToolParameters(map[string]Param{
		"calendar_path": {Type: "string", Description: "Path of the calendar containing the task"},
		"uid":           {Type: "string", Description: "UID of the task to delete"},
	}, []string{"calendar_path", "uid"})
}
func (t *DeleteTaskTool) Category() string     { return domain.CategoryTask }
func (t *DeleteTaskTool) RequiresRemote() bool { return true }

func (t *DeleteTaskTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	calPath, err := requireArg(args, "calendar_path")
	if err != nil {
		return "", err
	}
	uid, err := requireArg(args, "uid")
	if err != nil {
		return "", err
	}
	if err := t.client.DeleteTask(ctx, calPath, uid); err != nil {
		return "", err
	}
	return fmt.Sprintf("Task %s deleted", uid), nil
}
