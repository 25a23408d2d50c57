package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tgienger/coreterra/internal/models"
)

// TasksClient covers /api/tasks
type TasksClient struct{ c *Client }

func (c *Client) Tasks() *TasksClient { return &TasksClient{c: c} }

// List returns all tasks, or only those in status when it is not empty
func (t *TasksClient) List(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	var out []models.Task
	if err := t.c.do(ctx, "tasks.list", http.MethodGet, "/api/tasks", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns a single task
func (t *TasksClient) Get(ctx context.Context, id int64) (*models.Task, error) {
	var out models.Task
	if err := t.c.do(ctx, "tasks.get", http.MethodGet, taskPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create captures a new task; the server fills id, timestamps and rewards
func (t *TasksClient) Create(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	var out models.Task
	if err := t.c.do(ctx, "tasks.create", http.MethodPost, "/api/tasks", nil, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update sends a partial update and returns the server's full task
func (t *TasksClient) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	var out models.Task
	if err := t.c.do(ctx, "tasks.update", http.MethodPut, taskPath(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a task
func (t *TasksClient) Delete(ctx context.Context, id int64) error {
	return t.c.do(ctx, "tasks.delete", http.MethodDelete, taskPath(id), nil, nil, nil)
}

// Complete marks a task completed and has the server pay out its reward
func (t *TasksClient) Complete(ctx context.Context, id int64) (*models.Task, error) {
	var out models.Task
	if err := t.c.do(ctx, "tasks.complete", http.MethodPost, taskPath(id)+"/complete", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func taskPath(id int64) string {
	return fmt.Sprintf("/api/tasks/%d", id)
}
