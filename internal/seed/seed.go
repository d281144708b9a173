// Package seed loads sample tasks through the regular service, so fixtures
// go through the same validation as the web form.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strconv"
	"taskList/internal/logger"
	"taskList/internal/models/task"
	"taskList/internal/service"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed sample_tasks.yaml
var sampleTasks []byte

// Entry is one fixture record. DueInDays is relative to the seeding day.
type Entry struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	DueInDays   int    `yaml:"due_in_days"`
	Priority    int    `yaml:"priority"`
	Status      string `yaml:"status"`
}

type Seeder interface {
	CreateTask(ctx context.Context, form service.TaskForm) (*task.Task, error)
	ListTasks(ctx context.Context, status, sort, search string) (*service.ListResult, error)
}

// Summary counts every stored task after seeding, not only the new ones.
type Summary struct {
	Created    int
	Total      int
	ByStatus   map[task.Status]int
	ByPriority map[task.Priority]int
}

func Load(r io.Reader) ([]Entry, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var entries []Entry
	if err := decoder.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return entries, nil
}

// Default returns the built-in sample tasks.
func Default() ([]Entry, error) {
	return Load(bytes.NewReader(sampleTasks))
}

func (e Entry) form(today time.Time) service.TaskForm {
	form := service.TaskForm{
		Title:       e.Title,
		Description: e.Description,
		DueDate:     today.AddDate(0, 0, e.DueInDays).Format(task.DateLayout),
		Status:      e.Status,
	}
	if e.Priority != 0 {
		form.Priority = strconv.Itoa(e.Priority)
	}
	return form
}

// Run stops at the first entry the service rejects. Entries created before
// it stay stored.
func Run(ctx context.Context, seeder Seeder, entries []Entry, today time.Time) (Summary, error) {
	summary := Summary{
		ByStatus:   make(map[task.Status]int),
		ByPriority: make(map[task.Priority]int),
	}

	for i, entry := range entries {
		created, err := seeder.CreateTask(ctx, entry.form(today))
		if err != nil {
			return summary, fmt.Errorf("entry %d (%q): %w", i+1, entry.Title, err)
		}
		summary.Created++
		logger.Info("Seed: task created",
			zap.Int64("task_id", created.ID),
			zap.String("title", created.Title))
	}

	res, err := seeder.ListTasks(ctx, "", "", "")
	if err != nil {
		return summary, fmt.Errorf("count tasks: %w", err)
	}
	summary.Total = len(res.Tasks)
	for _, t := range res.Tasks {
		summary.ByStatus[t.Status]++
		summary.ByPriority[t.Priority]++
	}

	return summary, nil
}
