// Package view holds the data handed to the page templates. Nothing here
// touches HTTP or storage.
package view

import (
	"strconv"
	"taskList/internal/models/task"
	"taskList/internal/service"
	"time"
)

const timestampLayout = "2006-01-02 15:04"

type TaskView struct {
	ID            int64
	Title         string
	Description   string
	DueDate       string
	Priority      int
	PriorityLabel string
	Status        string
	CreatedAt     string
	UpdatedAt     string
	IsOverdue     bool
	Display       string
}

func NewTaskView(t *task.Task, today time.Time) TaskView {
	return TaskView{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       t.DueDate.Format(task.DateLayout),
		Priority:      int(t.Priority),
		PriorityLabel: t.Priority.Label(),
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt.UTC().Format(timestampLayout),
		UpdatedAt:     t.UpdatedAt.UTC().Format(timestampLayout),
		IsOverdue:     t.IsOverdue(today),
		Display:       t.String(),
	}
}

func NewTaskViews(tasks []*task.Task, today time.Time) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskView(t, today))
	}
	return views
}

// Choice is one option of a select box.
type Choice struct {
	Value string
	Label string
}

func StatusChoices() []Choice {
	statuses := task.Statuses()
	choices := make([]Choice, 0, len(statuses))
	for _, s := range statuses {
		choices = append(choices, Choice{Value: string(s), Label: string(s)})
	}
	return choices
}

func PriorityChoices() []Choice {
	priorities := task.Priorities()
	choices := make([]Choice, 0, len(priorities))
	for _, p := range priorities {
		choices = append(choices, Choice{Value: strconv.Itoa(int(p)), Label: p.Label()})
	}
	return choices
}

func SortOptions() []Choice {
	keys := task.SortKeys()
	choices := make([]Choice, 0, len(keys))
	for _, k := range keys {
		choices = append(choices, Choice{Value: string(k), Label: k.Label()})
	}
	return choices
}

// ListPage backs the task list. CurrentStatusFilter and CurrentSort echo the
// request verbatim; EffectiveSort is the ordering that was actually applied.
type ListPage struct {
	Tasks               []TaskView
	StatusChoices       []Choice
	PriorityChoices     []Choice
	SortOptions         []Choice
	CurrentStatusFilter string
	CurrentSort         string
	EffectiveSort       string
	Search              string
}

func NewListPage(res *service.ListResult, rawStatus, rawSort, rawSearch string, today time.Time) ListPage {
	if rawSort == "" {
		rawSort = string(task.DefaultSort)
	}
	return ListPage{
		Tasks:               NewTaskViews(res.Tasks, today),
		StatusChoices:       StatusChoices(),
		PriorityChoices:     PriorityChoices(),
		SortOptions:         SortOptions(),
		CurrentStatusFilter: rawStatus,
		CurrentSort:         rawSort,
		EffectiveSort:       string(res.Query.Sort),
		Search:              rawSearch,
	}
}

// FormPage backs both the create and the edit form. Task is nil on create.
type FormPage struct {
	Title           string
	ButtonText      string
	Action          string
	Form            service.TaskForm
	Errors          map[string][]string
	Task            *TaskView
	StatusChoices   []Choice
	PriorityChoices []Choice
}

func NewCreatePage(form service.TaskForm, errs service.ValidationErrors) FormPage {
	return FormPage{
		Title:           "Add Task",
		ButtonText:      "Create",
		Action:          "/add",
		Form:            form,
		Errors:          errs.ByField(),
		StatusChoices:   StatusChoices(),
		PriorityChoices: PriorityChoices(),
	}
}

func NewEditPage(t *task.Task, form service.TaskForm, errs service.ValidationErrors, today time.Time) FormPage {
	tv := NewTaskView(t, today)
	return FormPage{
		Title:           "Edit Task",
		ButtonText:      "Update",
		Action:          "/" + strconv.FormatInt(t.ID, 10) + "/edit",
		Form:            form,
		Errors:          errs.ByField(),
		Task:            &tv,
		StatusChoices:   StatusChoices(),
		PriorityChoices: PriorityChoices(),
	}
}

// DefaultForm is what an empty create form starts with.
func DefaultForm() service.TaskForm {
	return service.TaskForm{
		Priority: strconv.Itoa(int(task.PriorityMedium)),
		Status:   string(task.StatusToDo),
	}
}

type ConfirmDeletePage struct {
	Task   TaskView
	Action string
}

func NewConfirmDeletePage(t *task.Task, today time.Time) ConfirmDeletePage {
	return ConfirmDeletePage{
		Task:   NewTaskView(t, today),
		Action: "/" + strconv.FormatInt(t.ID, 10) + "/delete",
	}
}

type ErrorPage struct {
	Status    int
	Message   string
	RequestID string
}
