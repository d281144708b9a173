package service

import (
	"context"
	"taskList/internal/models/task"
)

// TaskRepository is the storage collaborator. Implementations assign ID,
// CreatedAt and UpdatedAt, return repository.ErrNotFound for unknown ids and
// never hand out pointers to their own state.
type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, int64) (*task.Task, error)
	Delete(context.Context, int64) error
	List(context.Context, task.Query) ([]*task.Task, error)
}
