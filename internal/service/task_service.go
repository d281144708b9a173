package service

import (
	"context"
	"errors"
	"fmt"
	"taskList/internal/logger"
	"taskList/internal/models/task"
	rep "taskList/internal/repository"

	"go.uber.org/zap"
)

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

// ListResult is a filtered, sorted view of the tasks. Query holds the
// parameters that were actually applied, after normalisation.
type ListResult struct {
	Tasks []*task.Task
	Query task.Query
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return NewStorageError("health check", err)
	}
	return nil
}

// ListTasks never fails on bad parameters: an unknown status drops the
// filter and an unknown sort key falls back to task.DefaultSort.
func (s *TaskService) ListTasks(ctx context.Context, status, sort, search string) (*ListResult, error) {
	query := task.NewQuery(status, sort, search)
	if sort != "" && string(query.Sort) != sort {
		logger.Debug("Service: unknown sort key, using default",
			zap.String("requested", sort),
			zap.String("effective", string(query.Sort)))
	}

	tasks, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, NewStorageError("list tasks", err)
	}

	return &ListResult{Tasks: tasks, Query: query}, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("get task", id, err)
	}
	return t, nil
}

func (s *TaskService) CreateTask(ctx context.Context, form TaskForm) (*task.Task, error) {
	options, violations := form.Validate()
	if len(violations) > 0 {
		logger.Info("Service: task form rejected", zap.Int("violations", len(violations)))
		return nil, NewValidationError(violations)
	}

	t := task.New(options...)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, NewStorageError("create task", err)
	}

	logger.Info("Service: task created", zap.Int64("task_id", t.ID))
	return t, nil
}

// UpdateTask replaces every user field of an existing task. Nothing is
// written when the form is invalid.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, form TaskForm) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("get task", id, err)
	}

	options, violations := form.Validate()
	if len(violations) > 0 {
		logger.Info("Service: task form rejected",
			zap.Int64("task_id", id),
			zap.Int("violations", len(violations)))
		return t, NewValidationError(violations)
	}

	task.Apply(t, options...)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.mapRepoError("update task", id, err)
	}

	logger.Info("Service: task updated", zap.Int64("task_id", id))
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError("delete task", id, err)
	}
	logger.Info("Service: task deleted", zap.Int64("task_id", id))
	return nil
}

func (s *TaskService) mapRepoError(operation string, id int64, err error) error {
	if errors.Is(err, rep.ErrNotFound) {
		logger.Info("Service: task not found", zap.Int64("target_id", id))
		return NewNotFound("task", id)
	}
	return NewStorageError(operation, fmt.Errorf("task %d: %w", id, err))
}
