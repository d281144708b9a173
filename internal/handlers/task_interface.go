package handlers

import (
	"context"
	"net/http"
	"taskList/internal/models/task"
	"taskList/internal/service"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	ListTasks(ctx context.Context, status, sort, search string) (*service.ListResult, error)
	GetTaskByID(ctx context.Context, id int64) (*task.Task, error)
	CreateTask(ctx context.Context, form service.TaskForm) (*task.Task, error)
	UpdateTask(ctx context.Context, id int64, form service.TaskForm) (*task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Renderer writes a named page with the given status. It must not write
// anything when it returns an error.
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any) error
}
