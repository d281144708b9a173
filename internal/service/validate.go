package service

import (
	"fmt"
	"strconv"
	"strings"
	"taskList/internal/models/task"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// TaskForm holds the raw submitted fields of the create and edit forms.
type TaskForm struct {
	Title       string
	Description string
	DueDate     string
	Priority    string
	Status      string
}

// FormFromTask pre-populates a form with the current values of t.
func FormFromTask(t *task.Task) TaskForm {
	return TaskForm{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate.Format(task.DateLayout),
		Priority:    strconv.Itoa(int(t.Priority)),
		Status:      string(t.Status),
	}
}

type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors lists violations in form field order.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// ByField groups messages for rendering next to each input.
func (v ValidationErrors) ByField() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, fe := range v {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

func (v *ValidationErrors) add(field string, messages ...string) {
	for _, msg := range messages {
		*v = append(*v, FieldError{Field: field, Message: msg})
	}
}

// Validate checks every field and returns the options that apply the
// cleaned values. Options are only meaningful when the violations are empty.
func (f TaskForm) Validate() ([]task.TaskOption, ValidationErrors) {
	var violations ValidationErrors

	title, msgs := validateTitle(f.Title)
	violations.add("title", msgs...)

	description := strings.TrimSpace(f.Description)

	dueDate, msgs := validateDueDate(f.DueDate)
	violations.add("due_date", msgs...)

	priority, msgs := validatePriority(f.Priority)
	violations.add("priority", msgs...)

	status, msgs := validateStatus(f.Status)
	violations.add("status", msgs...)

	if len(violations) > 0 {
		return nil, violations
	}

	return []task.TaskOption{
		task.WithTitle(title),
		task.WithDescription(description),
		task.WithDueDate(dueDate),
		task.WithPriority(priority),
		task.WithStatus(status),
	}, nil
}

func validateTitle(raw string) (string, []string) {
	title := strings.TrimSpace(raw)
	if err := validate.Var(title, "required"); err != nil {
		return "", []string{"This field is required."}
	}
	if err := validate.Var(title, fmt.Sprintf("max=%d", task.MaxTitleLength)); err != nil {
		return "", []string{fmt.Sprintf(
			"Ensure this value has at most %d characters (it has %d).",
			task.MaxTitleLength, utf8.RuneCountInString(title),
		)}
	}
	return title, nil
}

func validateDueDate(raw string) (time.Time, []string) {
	raw = strings.TrimSpace(raw)
	if err := validate.Var(raw, "required"); err != nil {
		return time.Time{}, []string{"This field is required."}
	}
	if err := validate.Var(raw, "datetime="+task.DateLayout); err != nil {
		return time.Time{}, []string{"Enter a valid date."}
	}
	dueDate, err := time.Parse(task.DateLayout, raw)
	if err != nil {
		return time.Time{}, []string{"Enter a valid date."}
	}
	return dueDate, nil
}

// validatePriority treats an empty value as the model default.
func validatePriority(raw string) (task.Priority, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return task.PriorityMedium, nil
	}
	if err := validate.Var(raw, "oneof=1 2 3"); err != nil {
		return 0, []string{invalidChoice(raw)}
	}
	n, _ := strconv.Atoi(raw)
	return task.Priority(n), nil
}

// validateStatus treats an empty value as the model default.
func validateStatus(raw string) (task.Status, []string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return task.StatusToDo, nil
	}
	status := task.Status(raw)
	if !status.Valid() {
		return "", []string{invalidChoice(raw)}
	}
	return status, nil
}

func invalidChoice(value string) string {
	return fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", value)
}

