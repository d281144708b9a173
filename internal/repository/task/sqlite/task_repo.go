package sqlite

import (
	"context"
	"errors"
	"fmt"
	"taskList/internal/logger"
	"taskList/internal/models/task"
	repo "taskList/internal/repository"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type taskRow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Title       string    `gorm:"size:200;not null"`
	Description string    `gorm:"not null;default:''"`
	DueDate     time.Time `gorm:"not null;index:idx_tasks_due_date"`
	Priority    int       `gorm:"not null;default:2;index:idx_tasks_status_priority,priority:2,sort:desc"`
	Status      string    `gorm:"size:20;not null;default:'To Do';index:idx_tasks_status_priority,priority:1"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime:false"`

	// SQLite LIKE folds ASCII only, so search runs over pre-folded copies.
	TitleFolded       string `gorm:"not null;default:''"`
	DescriptionFolded string `gorm:"not null;default:''"`
}

func (taskRow) TableName() string {
	return "tasks"
}

func fromTask(t *task.Task) taskRow {
	return taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    int(t.Priority),
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,

		TitleFolded:       task.Fold(t.Title),
		DescriptionFolded: task.Fold(t.Description),
	}
}

func (r taskRow) toTask() *task.Task {
	return &task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     task.DateOf(r.DueDate),
		Priority:    task.Priority(r.Priority),
		Status:      task.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type Storage struct {
	db  *gorm.DB
	now func() time.Time
}

// New opens (or creates) the database file at path and migrates the tasks
// table. Use ":memory:" for a throwaway database.
func New(path string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		logger.Error("Repository: failed to open sqlite", err, zap.String("path", path))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// one connection keeps ":memory:" a single database and serialises writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&taskRow{}); err != nil {
		logger.Error("Repository: sqlite migration failed", err)
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	if err := backfillFolded(db); err != nil {
		logger.Error("Repository: sqlite search backfill failed", err)
		return nil, fmt.Errorf("backfill search columns: %w", err)
	}

	logger.Info("Repository: opened SQLite", zap.String("path", path))
	return &Storage{db: db, now: time.Now}, nil
}

// backfillFolded fills the search columns of rows written before they
// existed. Titles are never empty, so an empty folded title marks such a row.
func backfillFolded(db *gorm.DB) error {
	var rows []taskRow
	if err := db.Where("title_folded = ''").Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		err := db.Model(&taskRow{}).Where("id = ?", row.ID).Updates(map[string]any{
			"title_folded":       task.Fold(row.Title),
			"description_folded": task.Fold(row.Description),
		}).Error
		if err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		logger.Info("Repository: backfilled search columns", zap.Int("rows", len(rows)))
	}
	return nil
}

func (s *Storage) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Repository: closing sqlite", zap.Error(err))
		return
	}
	logger.Info("Repository: SQLite closed")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("sqlite handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	now := s.now().UTC()
	row := fromTask(taskToCreate)
	row.ID = 0
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		logger.Error("Repository: failed to insert task", err)
		return fmt.Errorf("insert task: %w", err)
	}

	taskToCreate.ID = row.ID
	taskToCreate.CreatedAt = row.CreatedAt
	taskToCreate.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing taskRow
		if err := tx.First(&existing, "id = ?", taskToUpdate.ID).Error; err != nil {
			return err
		}

		now := s.now().UTC()
		if !now.After(existing.UpdatedAt) {
			now = existing.UpdatedAt.Add(time.Microsecond)
		}

		err := tx.Model(&taskRow{}).Where("id = ?", taskToUpdate.ID).Updates(map[string]any{
			"title":              taskToUpdate.Title,
			"description":        taskToUpdate.Description,
			"title_folded":       task.Fold(taskToUpdate.Title),
			"description_folded": task.Fold(taskToUpdate.Description),
			"due_date":           taskToUpdate.DueDate,
			"priority":           int(taskToUpdate.Priority),
			"status":             string(taskToUpdate.Status),
			"updated_at":         now,
		}).Error
		if err != nil {
			return err
		}

		taskToUpdate.CreatedAt = existing.CreatedAt
		taskToUpdate.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: failed to update task", err, zap.Int64("task_id", taskToUpdate.ID))
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: failed to get task", err)
		return nil, fmt.Errorf("get task: %w", err)
	}
	return row.toTask(), nil
}

func (s *Storage) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&taskRow{}, "id = ?", id)
	if res.Error != nil {
		logger.Error("Repository: failed to delete task", res.Error)
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) List(ctx context.Context, q task.Query) ([]*task.Task, error) {
	query := s.db.WithContext(ctx).Model(&taskRow{})
	if q.Status != "" {
		query = query.Where("status = ?", string(q.Status))
	}
	if q.Search != "" {
		pattern := task.EscapeLike(task.Fold(q.Search))
		query = query.Where(`(title_folded LIKE ? ESCAPE '\' OR description_folded LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var rows []taskRow
	if err := query.Order(q.Sort.OrderBy()).Find(&rows).Error; err != nil {
		logger.Error("Repository: failed to list tasks", err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks := make([]*task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toTask())
	}
	return tasks, nil
}
