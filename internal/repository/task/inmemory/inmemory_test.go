package inmemory

import (
	"context"
	"testing"
	"time"

	"taskList/internal/models/task"
	"taskList/internal/repository/repotest"
	"taskList/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStorage(t *testing.T) {
	repotest.Run(t, func(t *testing.T) service.TaskRepository {
		return NewTaskStorage()
	})
}

func TestTaskStorage_UpdatedAtWithFrozenClock(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	storage := NewTaskStorage()
	storage.now = func() time.Time { return frozen }

	tk := task.New(task.WithTitle("Frozen"), task.WithDueDate(frozen))
	require.NoError(t, storage.Create(ctx, tk))

	tk.Status = task.StatusDone
	require.NoError(t, storage.Update(ctx, tk))
	assert.Equal(t, frozen.Add(time.Microsecond), tk.UpdatedAt)

	require.NoError(t, storage.Update(ctx, tk))
	assert.Equal(t, frozen.Add(2*time.Microsecond), tk.UpdatedAt)
	assert.Equal(t, frozen, tk.CreatedAt)
}

func TestTaskStorage_CreatedAtTiesBreakByID(t *testing.T) {
	ctx := context.Background()
	frozen := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	storage := NewTaskStorage()
	storage.now = func() time.Time { return frozen }

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, storage.Create(ctx, task.New(task.WithTitle(title), task.WithDueDate(frozen))))
	}

	newest, err := storage.List(ctx, task.NewQuery("", "", ""))
	require.NoError(t, err)
	oldest, err := storage.List(ctx, task.NewQuery("", "created_at", ""))
	require.NoError(t, err)

	assert.Equal(t, "c", newest[0].Title)
	assert.Equal(t, "a", oldest[0].Title)
}
