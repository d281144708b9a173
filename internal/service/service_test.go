package service_test

import (
	"context"
	"errors"
	"strings"
	"taskList/internal/models/task"
	"taskList/internal/repository"
	"taskList/internal/repository/task/inmemory"
	"taskList/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository records calls made by the service.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) List(ctx context.Context, q task.Query) ([]*task.Task, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

func validForm() service.TaskForm {
	return service.TaskForm{
		Title:       "Write database schema",
		Description: "Design and implement the database schema",
		DueDate:     "2030-05-17",
		Priority:    "1",
		Status:      "In Progress",
	}
}

// seedScenario creates four tasks with statuses [To Do, In Progress, Done, To Do]
// and priorities [1, 2, 3, 1], in that creation order.
func seedScenario(t *testing.T, svc *service.TaskService) []*task.Task {
	t.Helper()
	specs := []struct {
		title    string
		status   string
		priority string
		due      string
	}{
		{"Task 1 - To Do", "To Do", "1", "2030-01-02"},
		{"Task 2 - In Progress", "In Progress", "2", "2030-01-06"},
		{"Task 3 - Done", "Done", "3", "2030-01-11"},
		{"Task 4 - To Do", "To Do", "1", "2030-01-04"},
	}

	created := make([]*task.Task, 0, len(specs))
	for _, s := range specs {
		tk, err := svc.CreateTask(context.Background(), service.TaskForm{
			Title:    s.title,
			DueDate:  s.due,
			Priority: s.priority,
			Status:   s.status,
		})
		require.NoError(t, err)
		created = append(created, tk)
	}
	return created
}

func priorities(tasks []*task.Task) []task.Priority {
	out := make([]task.Priority, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Priority)
	}
	return out
}

func ids(tasks []*task.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectError: false,
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)
			svc := service.NewTaskService(mockRepo)

			err := svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, service.HasCode(err, service.CodeStorage))
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_ListTasks_Filter(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(inmemory.NewTaskStorage())
	seedScenario(t, svc)

	tests := []struct {
		name          string
		status        string
		expectedCount int
	}{
		{name: "no filter", status: "", expectedCount: 4},
		{name: "to do", status: "To Do", expectedCount: 2},
		{name: "in progress", status: "In Progress", expectedCount: 1},
		{name: "done", status: "Done", expectedCount: 1},
		{name: "unknown status shows everything", status: "Invalid Status", expectedCount: 4},
		{name: "lower case is not a status", status: "done", expectedCount: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.ListTasks(ctx, tt.status, "", "")
			require.NoError(t, err)
			assert.Len(t, res.Tasks, tt.expectedCount)
			if task.Status(tt.status).Valid() {
				for _, tk := range res.Tasks {
					assert.Equal(t, task.Status(tt.status), tk.Status)
				}
				assert.Equal(t, task.Status(tt.status), res.Query.Status)
			} else {
				assert.Empty(t, res.Query.Status)
			}
		})
	}
}

func TestTaskService_ListTasks_Sort(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(inmemory.NewTaskStorage())
	created := seedScenario(t, svc)

	t.Run("priority ascending keeps newest first among ties", func(t *testing.T) {
		res, err := svc.ListTasks(ctx, "", "priority", "")
		require.NoError(t, err)
		assert.Equal(t, []task.Priority{1, 1, 2, 3}, priorities(res.Tasks))
		assert.Equal(t, created[3].ID, res.Tasks[0].ID)
		assert.Equal(t, task.SortPriorityAsc, res.Query.Sort)
	})

	t.Run("priority descending", func(t *testing.T) {
		res, err := svc.ListTasks(ctx, "", "-priority", "")
		require.NoError(t, err)
		assert.Equal(t, []task.Priority{3, 2, 1, 1}, priorities(res.Tasks))
	})

	t.Run("due date ascending", func(t *testing.T) {
		res, err := svc.ListTasks(ctx, "", "due_date", "")
		require.NoError(t, err)
		for i := 0; i < len(res.Tasks)-1; i++ {
			assert.False(t, res.Tasks[i].DueDate.After(res.Tasks[i+1].DueDate))
		}
	})

	t.Run("due date descending", func(t *testing.T) {
		res, err := svc.ListTasks(ctx, "", "-due_date", "")
		require.NoError(t, err)
		for i := 0; i < len(res.Tasks)-1; i++ {
			assert.False(t, res.Tasks[i].DueDate.Before(res.Tasks[i+1].DueDate))
		}
	})

	t.Run("created_at ascending and descending", func(t *testing.T) {
		asc, err := svc.ListTasks(ctx, "", "created_at", "")
		require.NoError(t, err)
		desc, err := svc.ListTasks(ctx, "", "-created_at", "")
		require.NoError(t, err)

		assert.Equal(t, ids(created), ids(asc.Tasks))
		assert.Equal(t, []int64{created[3].ID, created[2].ID, created[1].ID, created[0].ID}, ids(desc.Tasks))
	})

	t.Run("unknown key falls back to newest first and reports it", func(t *testing.T) {
		fallback, err := svc.ListTasks(ctx, "", "invalid_field", "")
		require.NoError(t, err)
		reference, err := svc.ListTasks(ctx, "", "-created_at", "")
		require.NoError(t, err)

		assert.Equal(t, ids(reference.Tasks), ids(fallback.Tasks))
		assert.Equal(t, task.DefaultSort, fallback.Query.Sort)
		assert.Equal(t, created[3].ID, fallback.Tasks[0].ID)
	})

	t.Run("filter and sort combined", func(t *testing.T) {
		res, err := svc.ListTasks(ctx, "To Do", "priority", "")
		require.NoError(t, err)
		require.Len(t, res.Tasks, 2)
		for _, tk := range res.Tasks {
			assert.Equal(t, task.StatusToDo, tk.Status)
			assert.Equal(t, task.PriorityHigh, tk.Priority)
		}
	})
}

func TestTaskService_ListTasks_Search(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(inmemory.NewTaskStorage())

	for _, form := range []service.TaskForm{
		{Title: "Implement authentication", Description: "JWT tokens", DueDate: "2030-01-01"},
		{Title: "Write unit tests", Description: "Cover the auth module", DueDate: "2030-01-01"},
		{Title: "Deploy", Description: "100% rollout", DueDate: "2030-01-01"},
	} {
		_, err := svc.CreateTask(ctx, form)
		require.NoError(t, err)
	}

	tests := []struct {
		search   string
		expected int
	}{
		{search: "AUTH", expected: 2},
		{search: "jwt", expected: 1},
		{search: "100%", expected: 1},
		{search: "%", expected: 1},
		{search: "nothing like this", expected: 0},
		{search: "   ", expected: 3},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			res, err := svc.ListTasks(ctx, "", "", tt.search)
			require.NoError(t, err)
			assert.Len(t, res.Tasks, tt.expected)
		})
	}
}

func TestTaskService_ListTasks_StorageError(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("List", mock.Anything, task.Query{Sort: task.DefaultSort}).
		Return(nil, errors.New("connection reset"))
	svc := service.NewTaskService(mockRepo)

	res, err := svc.ListTasks(context.Background(), "bogus", "bogus", "")

	assert.Nil(t, res)
	assert.True(t, service.HasCode(err, service.CodeStorage))
	mockRepo.AssertExpectations(t)
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip keeps every user field", func(t *testing.T) {
		svc := service.NewTaskService(inmemory.NewTaskStorage())
		form := validForm()

		created, err := svc.CreateTask(ctx, form)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)

		got, err := svc.GetTaskByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, form.Title, got.Title)
		assert.Equal(t, form.Description, got.Description)
		assert.Equal(t, form.DueDate, got.DueDate.Format(task.DateLayout))
		assert.Equal(t, task.PriorityHigh, got.Priority)
		assert.Equal(t, task.StatusInProgress, got.Status)
		assert.False(t, got.CreatedAt.IsZero())
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
	})

	t.Run("empty priority and status take the defaults", func(t *testing.T) {
		svc := service.NewTaskService(inmemory.NewTaskStorage())
		created, err := svc.CreateTask(ctx, service.TaskForm{Title: "  padded  ", DueDate: "2030-01-01"})
		require.NoError(t, err)
		assert.Equal(t, "padded", created.Title)
		assert.Equal(t, task.PriorityMedium, created.Priority)
		assert.Equal(t, task.StatusToDo, created.Status)
		assert.Equal(t, "", created.Description)
	})

	tests := []struct {
		name           string
		mutate         func(*service.TaskForm)
		expectedFields []string
	}{
		{name: "missing title", mutate: func(f *service.TaskForm) { f.Title = "   " }, expectedFields: []string{"title"}},
		{name: "title too long", mutate: func(f *service.TaskForm) { f.Title = strings.Repeat("x", 201) }, expectedFields: []string{"title"}},
		{name: "missing due date", mutate: func(f *service.TaskForm) { f.DueDate = "" }, expectedFields: []string{"due_date"}},
		{name: "impossible date", mutate: func(f *service.TaskForm) { f.DueDate = "2030-02-30" }, expectedFields: []string{"due_date"}},
		{name: "wrong date format", mutate: func(f *service.TaskForm) { f.DueDate = "17/05/2030" }, expectedFields: []string{"due_date"}},
		{name: "priority out of range", mutate: func(f *service.TaskForm) { f.Priority = "4" }, expectedFields: []string{"priority"}},
		{name: "priority not a number", mutate: func(f *service.TaskForm) { f.Priority = "High" }, expectedFields: []string{"priority"}},
		{name: "unknown status", mutate: func(f *service.TaskForm) { f.Status = "Blocked" }, expectedFields: []string{"status"}},
		{
			name: "every field wrong",
			mutate: func(f *service.TaskForm) {
				*f = service.TaskForm{Title: "", DueDate: "tomorrow", Priority: "0", Status: "done"}
			},
			expectedFields: []string{"title", "due_date", "priority", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			svc := service.NewTaskService(mockRepo)
			form := validForm()
			tt.mutate(&form)

			created, err := svc.CreateTask(ctx, form)

			assert.Nil(t, created)
			violations, ok := service.AsValidation(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			fields := make([]string, 0, len(violations))
			for _, v := range violations {
				fields = append(fields, v.Field)
			}
			assert.Equal(t, tt.expectedFields, fields)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("title of 200 multibyte characters is accepted", func(t *testing.T) {
		svc := service.NewTaskService(inmemory.NewTaskStorage())
		form := validForm()
		form.Title = strings.Repeat("é", 200)
		_, err := svc.CreateTask(ctx, form)
		assert.NoError(t, err)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
		svc := service.NewTaskService(mockRepo)

		created, err := svc.CreateTask(ctx, validForm())

		assert.Nil(t, created)
		assert.True(t, service.HasCode(err, service.CodeStorage))
		mockRepo.AssertExpectations(t)
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("status change refreshes updated_at only", func(t *testing.T) {
		svc := service.NewTaskService(inmemory.NewTaskStorage())
		form := validForm()
		form.Status = "To Do"
		created, err := svc.CreateTask(ctx, form)
		require.NoError(t, err)

		before, err := svc.GetTaskByID(ctx, created.ID)
		require.NoError(t, err)

		form.Status = "Done"
		_, err = svc.UpdateTask(ctx, created.ID, form)
		require.NoError(t, err)

		after, err := svc.GetTaskByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, task.StatusDone, after.Status)
		assert.Equal(t, before.ID, after.ID)
		assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
		assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
		assert.Equal(t, before.Title, after.Title)
	})

	t.Run("invalid form leaves the record untouched", func(t *testing.T) {
		svc := service.NewTaskService(inmemory.NewTaskStorage())
		created, err := svc.CreateTask(ctx, validForm())
		require.NoError(t, err)

		bad := validForm()
		bad.Title = ""
		bad.Status = "Done"
		current, err := svc.UpdateTask(ctx, created.ID, bad)

		_, ok := service.AsValidation(err)
		assert.True(t, ok)
		require.NotNil(t, current)
		assert.Equal(t, created.ID, current.ID)

		stored, err := svc.GetTaskByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Title, stored.Title)
		assert.Equal(t, created.Status, stored.Status)
		assert.True(t, created.UpdatedAt.Equal(stored.UpdatedAt))
	})

	t.Run("unknown id", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(42)).Return(nil, repository.ErrNotFound)
		svc := service.NewTaskService(mockRepo)

		_, err := svc.UpdateTask(ctx, 42, validForm())

		assert.True(t, service.IsNotFound(err))
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("task deleted between read and write", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(7)).Return(&task.Task{ID: 7, Title: "old"}, nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return tk.ID == 7 && tk.Title == validForm().Title
		})).Return(repository.ErrNotFound)
		svc := service.NewTaskService(mockRepo)

		_, err := svc.UpdateTask(ctx, 7, validForm())

		assert.True(t, service.IsNotFound(err))
		mockRepo.AssertExpectations(t)
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted task disappears from list and lookup", func(t *testing.T) {
		svc := service.NewTaskService(inmemory.NewTaskStorage())
		created := seedScenario(t, svc)
		victim := created[1]

		require.NoError(t, svc.DeleteTask(ctx, victim.ID))

		res, err := svc.ListTasks(ctx, "", "", "")
		require.NoError(t, err)
		assert.NotContains(t, ids(res.Tasks), victim.ID)
		assert.Len(t, res.Tasks, 3)

		_, err = svc.GetTaskByID(ctx, victim.ID)
		assert.True(t, service.IsNotFound(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		svc := service.NewTaskService(inmemory.NewTaskStorage())
		err := svc.DeleteTask(ctx, 999)
		assert.True(t, service.IsNotFound(err))
	})

	t.Run("storage failure is not reported as not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Delete", mock.Anything, int64(3)).Return(errors.New("timeout"))
		svc := service.NewTaskService(mockRepo)

		err := svc.DeleteTask(ctx, 3)

		assert.False(t, service.IsNotFound(err))
		assert.True(t, service.HasCode(err, service.CodeStorage))
	})
}

func TestTaskService_InvariantsAfterMutations(t *testing.T) {
	ctx := context.Background()
	svc := service.NewTaskService(inmemory.NewTaskStorage())
	created := seedScenario(t, svc)

	form := validForm()
	form.Priority = "3"
	form.Status = "Done"
	_, err := svc.UpdateTask(ctx, created[0].ID, form)
	require.NoError(t, err)

	res, err := svc.ListTasks(ctx, "", "", "")
	require.NoError(t, err)
	for _, tk := range res.Tasks {
		assert.True(t, tk.Priority.Valid())
		assert.True(t, tk.Status.Valid())
		assert.False(t, tk.UpdatedAt.Before(tk.CreatedAt))
		assert.Equal(t, tk.DueDate, task.DateOf(tk.DueDate))
		assert.WithinDuration(t, time.Now(), tk.CreatedAt, time.Minute)
	}
}

func TestBusinessError_Details(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.BusinessError
		code     string
		expected map[string]any
	}{
		{
			name:     "not found",
			err:      service.NewNotFound("task", 7),
			code:     service.CodeNotFound,
			expected: map[string]any{"resource": "task", "id": int64(7)},
		},
		{
			name:     "storage",
			err:      service.NewStorageError("update task", errors.New("conn reset")),
			code:     service.CodeStorage,
			expected: map[string]any{"operation": "update task"},
		},
		{
			name: "validation",
			err: service.NewValidationError(service.ValidationErrors{
				{Field: "title", Message: "This field is required."},
			}),
			code:     service.CodeValidation,
			expected: map[string]any{"fields": map[string][]string{"title": {"This field is required."}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.expected, tt.err.Details)
		})
	}

	custom := service.NewBusinessError("CONFLICT", "already exists", service.ToDetail("title", "Ship it"))
	assert.Equal(t, "[CONFLICT] already exists", custom.Error())
	assert.Equal(t, "Ship it", custom.Details["title"])
	assert.Nil(t, custom.Unwrap())
}
