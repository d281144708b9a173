package render_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"taskList/internal/handlers/view"
	"taskList/internal/models/task"
	"taskList/internal/render"
	"taskList/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *render.HTMLRenderer {
	t.Helper()
	r, err := render.New()
	require.NoError(t, err)
	return r
}

func sampleTask() *task.Task {
	t := task.New(
		task.WithTitle("Fix <script> bug"),
		task.WithDescription("Investigate"),
		task.WithDueDate(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)),
		task.WithPriority(task.PriorityHigh),
	)
	t.ID = 5
	t.CreatedAt = time.Date(2019, 12, 1, 10, 0, 0, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt
	return t
}

func TestHTMLRenderer_TaskList(t *testing.T) {
	r := newRenderer(t)
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	page := view.NewListPage(&service.ListResult{
		Tasks: []*task.Task{sampleTask()},
		Query: task.NewQuery("To Do", "priority", ""),
	}, "To Do", "priority", "", today)

	w := httptest.NewRecorder()
	require.NoError(t, r.Render(w, http.StatusOK, render.PageTaskList, page))

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "Fix &lt;script&gt; bug")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, `href="/5/edit"`)
	assert.Contains(t, body, `class="overdue"`)
	assert.Contains(t, body, `<option value="priority" selected>`)
	assert.Contains(t, body, `<option value="To Do" selected>`)
}

func TestHTMLRenderer_EmptyList(t *testing.T) {
	r := newRenderer(t)
	page := view.NewListPage(&service.ListResult{Query: task.NewQuery("", "", "")}, "", "", "", time.Now())

	w := httptest.NewRecorder()
	require.NoError(t, r.Render(w, http.StatusOK, render.PageTaskList, page))

	assert.Contains(t, w.Body.String(), "No tasks found.")
	assert.Equal(t, "-created_at", page.CurrentSort)
}

func TestHTMLRenderer_FormWithErrors(t *testing.T) {
	r := newRenderer(t)
	form := service.TaskForm{Title: "", DueDate: "bad", Priority: "2", Status: "To Do"}
	_, violations := form.Validate()
	page := view.NewCreatePage(form, violations)

	w := httptest.NewRecorder()
	require.NoError(t, r.Render(w, http.StatusOK, render.PageTaskForm, page))

	body := w.Body.String()
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Enter a valid date.")
	assert.Contains(t, body, `action="/add"`)
	assert.Contains(t, body, `<option value="2" selected>Medium</option>`)
}

func TestHTMLRenderer_ConfirmDeleteAndError(t *testing.T) {
	r := newRenderer(t)

	w := httptest.NewRecorder()
	require.NoError(t, r.Render(w, http.StatusOK, render.PageConfirmDelete, view.NewConfirmDeletePage(sampleTask(), time.Now())))
	assert.Contains(t, w.Body.String(), `action="/5/delete"`)
	assert.Contains(t, w.Body.String(), "(To Do)")

	w = httptest.NewRecorder()
	require.NoError(t, r.Render(w, http.StatusNotFound, render.PageError, view.ErrorPage{
		Status:    http.StatusNotFound,
		Message:   "Task not found.",
		RequestID: "req-1",
	}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "req-1"))
}

func TestHTMLRenderer_Failures(t *testing.T) {
	r := newRenderer(t)

	w := httptest.NewRecorder()
	err := r.Render(w, http.StatusOK, "missing_page", nil)
	assert.Error(t, err)

	w = httptest.NewRecorder()
	err = r.Render(w, http.StatusOK, render.PageTaskList, struct{}{})
	assert.Error(t, err)
	assert.Empty(t, w.Body.String())
	assert.Empty(t, w.Header().Get("Content-Type"))
}
