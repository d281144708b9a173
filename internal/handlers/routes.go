package handlers

import "github.com/go-chi/chi/v5"

func (h *TaskHandler) Register(r chi.Router) {
	r.Get("/", h.ListTasks)

	r.Get("/add", h.AddTaskForm) // GET /add
	r.Post("/add", h.AddTask)    // POST /add

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/edit", h.EditTaskForm)        // GET /{id}/edit
		r.Post("/edit", h.EditTask)           // POST /{id}/edit
		r.Get("/delete", h.DeleteTaskConfirm) // GET /{id}/delete
		r.Post("/delete", h.DeleteTask)       // POST /{id}/delete
	})

	r.Get("/health", h.HealthCheck)
}
