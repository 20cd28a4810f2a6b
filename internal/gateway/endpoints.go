package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tempus-app/tempus/internal/apperrors"
	"github.com/tempus-app/tempus/internal/datetime"
	"github.com/tempus-app/tempus/internal/models"
)

func taskPath(taskID string) string {
	return "/task/" + url.PathEscape(taskID)
}

func requireTaskID(taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return apperrors.NewValidation("task_id", "is required")
	}
	return nil
}

// CreateTask posts a new task and returns the server's copy with its id
func (c *Client) CreateTask(ctx context.Context, in models.CreateTaskInput) (models.Task, error) {
	return do[models.Task](ctx, c, call{
		op: "create_task", method: http.MethodPost, path: "/task",
		body: in, fallback: "Failed to add task",
	})
}

// GetTask fetches one task
func (c *Client) GetTask(ctx context.Context, taskID string) (models.Task, error) {
	if err := requireTaskID(taskID); err != nil {
		return models.Task{}, err
	}
	return do[models.Task](ctx, c, call{
		op: "get_task", method: http.MethodGet, path: taskPath(taskID),
		fallback: "Failed to fetch task",
	})
}

// UpdateTask sends a partial update; only present fields are serialised
func (c *Client) UpdateTask(ctx context.Context, u models.UpdateTaskInput) (models.Task, error) {
	if err := requireTaskID(u.TaskID); err != nil {
		return models.Task{}, err
	}
	return do[models.Task](ctx, c, call{
		op: "update_task", method: http.MethodPatch, path: taskPath(u.TaskID),
		body: u, fallback: "Failed to update task",
	})
}

// DeleteTask removes a task
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if err := requireTaskID(taskID); err != nil {
		return err
	}
	_, err := do[struct{}](ctx, c, call{
		op: "delete_task", method: http.MethodDelete, path: taskPath(taskID),
		fallback: "Failed to delete task",
	})
	return err
}

// TasksByDay lists tasks starting on one day
func (c *Client) TasksByDay(ctx context.Context, day datetime.Date) ([]models.Task, error) {
	return tasks(do[[]models.Task](ctx, c, call{
		op: "tasks_by_day", method: http.MethodGet, path: "/tasks/day/" + day.Key(),
		fallback: "Failed to fetch tasks",
	}))
}

// TasksByMonth lists tasks of a 1-indexed month
func (c *Client) TasksByMonth(ctx context.Context, month, year int) ([]models.Task, error) {
	if err := (datetime.Window{Month: month, Year: year}).Validate(); err != nil {
		return nil, err
	}
	return tasks(do[[]models.Task](ctx, c, call{
		op: "tasks_by_month", method: http.MethodGet, path: fmt.Sprintf("/tasks/month/%d/%d", month, year),
		fallback: "Failed to fetch tasks by month",
	}))
}

// TasksByYear lists tasks of a year
func (c *Client) TasksByYear(ctx context.Context, year int) ([]models.Task, error) {
	return tasks(do[[]models.Task](ctx, c, call{
		op: "tasks_by_year", method: http.MethodGet, path: fmt.Sprintf("/tasks/year/%d", year),
		fallback: "Failed to fetch tasks by year",
	}))
}

// TasksByList lists the tasks of one list
func (c *Client) TasksByList(ctx context.Context, listID int64) ([]models.Task, error) {
	return tasks(do[[]models.Task](ctx, c, call{
		op: "tasks_by_list", method: http.MethodGet, path: fmt.Sprintf("/tasks/list/%d", listID),
		fallback: "Failed to fetch tasks by list ID",
	}))
}

// CreateList posts a new list
func (c *Client) CreateList(ctx context.Context, in models.CreateListInput) (models.List, error) {
	return do[models.List](ctx, c, call{
		op: "create_list", method: http.MethodPost, path: "/list",
		body: in, fallback: "Failed to add list",
	})
}

// GetLists lists every list of the user
func (c *Client) GetLists(ctx context.Context) ([]models.List, error) {
	lists, err := do[[]models.List](ctx, c, call{
		op: "get_lists", method: http.MethodGet, path: "/lists",
		fallback: "Failed to fetch lists",
	})
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []models.List{}
	}
	return lists, nil
}

// tasks turns a null payload into an empty slice
func tasks(ts []models.Task, err error) ([]models.Task, error) {
	if err != nil {
		return nil, err
	}
	if ts == nil {
		ts = []models.Task{}
	}
	return ts, nil
}
