package handlers

import (
	"errors"
	"net/http"
	"sort"
	"taskList/internal/handlers/view"
	"taskList/internal/logger"
	"taskList/internal/middleware"
	"taskList/internal/render"
	"taskList/internal/service"

	"go.uber.org/zap"
)

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "Task not found."
	case http.StatusBadRequest:
		return "The request could not be understood."
	default:
		return "Something went wrong. Please try again later."
	}
}

// handleError renders the error page for err. Internal details stay in the
// log, the page only shows a generic message and the request id.
func (h *TaskHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"

	var busErr *service.BusinessError
	if errors.As(err, &busErr) {
		code = busErr.Code
		status = mapBusinessErrorToHTTP(busErr.Code)
	}

	requestID := middleware.GetRequestID(r.Context())
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("error_code", code),
		zap.Int("http_status", status),
	}
	if busErr != nil {
		fields = append(fields, detailFields(busErr.Details)...)
	}
	if status >= http.StatusInternalServerError {
		logger.Error("HTTP: request failed", err, fields...)
	} else {
		logger.Warn("HTTP: business error", append(fields, zap.Error(err))...)
	}

	h.renderError(w, r, status, publicMessage(status))
}

// detailFields turns error details into log fields in key order.
func detailFields(details map[string]any) []zap.Field {
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, zap.Any(key, details[key]))
	}
	return fields
}

func (h *TaskHandler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	page := view.ErrorPage{
		Status:    status,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
	}
	if err := h.renderer.Render(w, status, render.PageError, page); err != nil {
		logger.Error("HTTP: failed to render error page", err)
		http.Error(w, message, status)
	}
}
