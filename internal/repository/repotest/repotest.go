// Package repotest holds the behaviour every task repository must share.
// Adapter tests call Run with a factory that returns an empty repository.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"taskList/internal/models/task"
	"taskList/internal/repository"
	"taskList/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Factory func(t *testing.T) service.TaskRepository

func Run(t *testing.T, newRepo Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newRepo(t)) })
	t.Run("ReturnsCopies", func(t *testing.T) { testReturnsCopies(t, newRepo(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newRepo(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newRepo(t)) })
	t.Run("FilterAndSort", func(t *testing.T) { testFilterAndSort(t, newRepo(t)) })
	t.Run("Search", func(t *testing.T) { testSearch(t, newRepo(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newRepo(t)) })
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTask(title string, status task.Status, priority task.Priority, due time.Time) *task.Task {
	return task.New(
		task.WithTitle(title),
		task.WithStatus(status),
		task.WithPriority(priority),
		task.WithDueDate(due),
	)
}

func mustCreate(t *testing.T, repo service.TaskRepository, tk *task.Task) *task.Task {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), tk))
	return tk
}

func ids(tasks []*task.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func testCreateAndGet(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()
	require.NoError(t, repo.HealthCheck(ctx))

	tk := newTask("Write schema", task.StatusInProgress, task.PriorityHigh, date(2030, 5, 17))
	tk.Description = "tables and indexes"
	mustCreate(t, repo, tk)

	assert.NotZero(t, tk.ID)
	assert.False(t, tk.CreatedAt.IsZero())
	assert.False(t, tk.UpdatedAt.Before(tk.CreatedAt))

	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)
	assert.Equal(t, "Write schema", got.Title)
	assert.Equal(t, "tables and indexes", got.Description)
	assert.True(t, got.DueDate.Equal(date(2030, 5, 17)))
	assert.Equal(t, task.PriorityHigh, got.Priority)
	assert.Equal(t, task.StatusInProgress, got.Status)

	second := mustCreate(t, repo, newTask("Second", task.StatusToDo, task.PriorityLow, date(2030, 1, 1)))
	assert.NotEqual(t, tk.ID, second.ID)
}

func testReturnsCopies(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()
	tk := mustCreate(t, repo, newTask("Original", task.StatusToDo, task.PriorityMedium, date(2030, 1, 1)))

	tk.Title = "changed after create"
	got, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", got.Title)

	got.Title = "changed after get"
	again, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Title)
}

func testUpdate(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()
	tk := mustCreate(t, repo, newTask("Draft", task.StatusToDo, task.PriorityMedium, date(2030, 1, 1)))
	created, err := repo.GetByID(ctx, tk.ID)
	require.NoError(t, err)

	previous := created.UpdatedAt
	for i := 0; i < 3; i++ {
		toUpdate, err := repo.GetByID(ctx, tk.ID)
		require.NoError(t, err)
		toUpdate.Status = task.StatusDone
		toUpdate.Title = "Final"
		toUpdate.CreatedAt = time.Time{}
		require.NoError(t, repo.Update(ctx, toUpdate))

		got, err := repo.GetByID(ctx, tk.ID)
		require.NoError(t, err)
		assert.Equal(t, "Final", got.Title)
		assert.Equal(t, task.StatusDone, got.Status)
		assert.True(t, got.CreatedAt.Equal(created.CreatedAt), "created_at never changes")
		assert.True(t, got.UpdatedAt.After(previous), "updated_at strictly increases")
		previous = got.UpdatedAt
	}
}

func testNotFound(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()

	_, err := repo.GetByID(ctx, 424242)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	ghost := newTask("Ghost", task.StatusToDo, task.PriorityMedium, date(2030, 1, 1))
	ghost.ID = 424242
	assert.True(t, errors.Is(repo.Update(ctx, ghost), repository.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, 424242), repository.ErrNotFound))
}

func testDelete(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()
	keep := mustCreate(t, repo, newTask("Keep", task.StatusToDo, task.PriorityMedium, date(2030, 1, 1)))
	drop := mustCreate(t, repo, newTask("Drop", task.StatusToDo, task.PriorityMedium, date(2030, 1, 1)))

	require.NoError(t, repo.Delete(ctx, drop.ID))

	_, err := repo.GetByID(ctx, drop.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, drop.ID), repository.ErrNotFound))

	all, err := repo.List(ctx, task.NewQuery("", "", ""))
	require.NoError(t, err)
	assert.Equal(t, []int64{keep.ID}, ids(all))
}

// testFilterAndSort uses statuses [To Do, In Progress, Done, To Do] and
// priorities [1, 2, 3, 1] created in that order.
func testFilterAndSort(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()
	t1 := mustCreate(t, repo, newTask("Task 1", task.StatusToDo, task.PriorityHigh, date(2030, 1, 2)))
	t2 := mustCreate(t, repo, newTask("Task 2", task.StatusInProgress, task.PriorityMedium, date(2030, 1, 6)))
	t3 := mustCreate(t, repo, newTask("Task 3", task.StatusDone, task.PriorityLow, date(2030, 1, 11)))
	t4 := mustCreate(t, repo, newTask("Task 4", task.StatusToDo, task.PriorityHigh, date(2030, 1, 4)))

	tests := []struct {
		name     string
		status   string
		sort     string
		expected []int64
	}{
		{name: "default newest first", expected: []int64{t4.ID, t3.ID, t2.ID, t1.ID}},
		{name: "unknown sort", sort: "title", expected: []int64{t4.ID, t3.ID, t2.ID, t1.ID}},
		{name: "oldest first", sort: "created_at", expected: []int64{t1.ID, t2.ID, t3.ID, t4.ID}},
		{name: "priority ascending", sort: "priority", expected: []int64{t4.ID, t1.ID, t2.ID, t3.ID}},
		{name: "priority descending", sort: "-priority", expected: []int64{t3.ID, t2.ID, t4.ID, t1.ID}},
		{name: "due date ascending", sort: "due_date", expected: []int64{t1.ID, t4.ID, t2.ID, t3.ID}},
		{name: "due date descending", sort: "-due_date", expected: []int64{t3.ID, t2.ID, t4.ID, t1.ID}},
		{name: "to do only", status: "To Do", expected: []int64{t4.ID, t1.ID}},
		{name: "done only", status: "Done", expected: []int64{t3.ID}},
		{name: "in progress by due date", status: "In Progress", sort: "due_date", expected: []int64{t2.ID}},
		{name: "unknown status", status: "Blocked", expected: []int64{t4.ID, t3.ID, t2.ID, t1.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, task.NewQuery(tt.status, tt.sort, ""))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func testSearch(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()
	auth := newTask("Implement Authentication", task.StatusToDo, task.PriorityHigh, date(2030, 1, 1))
	auth.Description = "JWT tokens"
	mustCreate(t, repo, auth)
	rollout := newTask("Deploy", task.StatusDone, task.PriorityLow, date(2030, 1, 1))
	rollout.Description = "100% rollout_now"
	mustCreate(t, repo, rollout)
	mustCreate(t, repo, newTask("Plain", task.StatusToDo, task.PriorityLow, date(2030, 1, 1)))
	trip := newTask("ÉCOLE trip", task.StatusToDo, task.PriorityMedium, date(2030, 1, 1))
	trip.Description = "Ärzte und Öffnungszeiten"
	mustCreate(t, repo, trip)

	tests := []struct {
		search   string
		status   string
		expected int
	}{
		{search: "authentication", expected: 1},
		{search: "jwt", expected: 1},
		{search: "%", expected: 1},
		{search: "_", expected: 1},
		{search: "0% r", expected: 1},
		{search: "deploy", status: "To Do", expected: 0},
		{search: "école", expected: 1},
		{search: "École Trip", expected: 1},
		{search: "öffnung", expected: 1},
		{search: "ÄRZTE", expected: 1},
		{search: "", expected: 4},
	}

	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			got, err := repo.List(ctx, task.NewQuery(tt.status, "", tt.search))
			require.NoError(t, err)
			assert.Len(t, got, tt.expected)
		})
	}
}

func testConcurrentCreate(t *testing.T, repo service.TaskRepository) {
	ctx := context.Background()
	const workers = 20

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, newTask("Concurrent", task.StatusToDo, task.PriorityMedium, date(2030, 1, 1)))
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, task.NewQuery("", "", ""))
	require.NoError(t, err)
	assert.Len(t, all, workers)

	seen := make(map[int64]bool, workers)
	for _, tk := range all {
		assert.False(t, seen[tk.ID], "duplicate id %d", tk.ID)
		seen[tk.ID] = true
	}
}
