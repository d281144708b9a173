package handlers

import (
	"net/http"
	"strconv"
	"taskList/internal/handlers/view"
	"taskList/internal/logger"
	"taskList/internal/models/task"
	"taskList/internal/render"
	"taskList/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	service  Service
	renderer Renderer
	now      func() time.Time
}

func NewTaskHandler(svc Service, renderer Renderer) *TaskHandler {
	return &TaskHandler{
		service:  svc,
		renderer: renderer,
		now:      time.Now,
	}
}

func (h *TaskHandler) today() time.Time {
	return task.DateOf(h.now())
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	status := params.Get("status")
	sort := params.Get("sort")
	search := params.Get("q")

	res, err := h.service.ListTasks(r.Context(), status, sort, search)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	page := view.NewListPage(res, status, sort, search, h.today())
	h.render(w, r, http.StatusOK, render.PageTaskList, page)

	logger.Info("HTTP_OUT: tasks listed",
		zap.Int("count", len(res.Tasks)),
		zap.String("effective_sort", string(res.Query.Sort)),
		zap.Duration("ms", time.Since(start)))
}

func (h *TaskHandler) AddTaskForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, render.PageTaskForm, view.NewCreatePage(view.DefaultForm(), nil))
}

func (h *TaskHandler) AddTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateTask(r.Context(), form)
	if err != nil {
		if violations, isValidation := service.AsValidation(err); isValidation {
			h.render(w, r, http.StatusOK, render.PageTaskForm, view.NewCreatePage(form, violations))
			return
		}
		h.handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: task created",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusSeeOther))
	redirectToList(w, r)
}

func (h *TaskHandler) EditTaskForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTaskByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, render.PageTaskForm,
		view.NewEditPage(t, service.FormFromTask(t), nil, h.today()))
}

func (h *TaskHandler) EditTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	t, err := h.service.UpdateTask(r.Context(), id, form)
	if err != nil {
		if violations, isValidation := service.AsValidation(err); isValidation && t != nil {
			h.render(w, r, http.StatusOK, render.PageTaskForm,
				view.NewEditPage(t, form, violations, h.today()))
			return
		}
		h.handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: task updated",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusSeeOther))
	redirectToList(w, r)
}

// DeleteTaskConfirm only shows the confirmation page. Deleting needs a POST.
func (h *TaskHandler) DeleteTaskConfirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	t, err := h.service.GetTaskByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, render.PageConfirmDelete, view.NewConfirmDeletePage(t, h.today()))
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	logger.Info("HTTP_OUT: task deleted",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusSeeOther))
	redirectToList(w, r)
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: health check failed", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", "task-list"))
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", "task-list"))
}

// taskID parses the {id} path segment. Anything that is not a positive
// integer cannot name a task, so it is answered with 404 like a missing one.
func (h *TaskHandler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("HTTP: malformed task id",
			zap.String("id", raw),
			zap.String("client_ip", r.RemoteAddr))
		h.renderError(w, r, http.StatusNotFound, publicMessage(http.StatusNotFound))
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) parseForm(w http.ResponseWriter, r *http.Request) (service.TaskForm, bool) {
	if err := r.ParseForm(); err != nil {
		logger.Warn("HTTP: unreadable form body",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		h.renderError(w, r, http.StatusBadRequest, publicMessage(http.StatusBadRequest))
		return service.TaskForm{}, false
	}
	return service.TaskForm{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		DueDate:     r.PostForm.Get("due_date"),
		Priority:    r.PostForm.Get("priority"),
		Status:      r.PostForm.Get("status"),
	}, true
}

func (h *TaskHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.handleError(w, r, err)
	}
}
