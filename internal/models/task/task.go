package task

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of a due date in forms and fixtures.
const DateLayout = "2006-01-02"

// MaxTitleLength is counted in characters, not bytes.
const MaxTitleLength = 200

type Task struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	Priority    Priority  `json:"priority" db:"priority"`
	Status      Status    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func New(options ...TaskOption) *Task {
	t := &Task{
		Priority: PriorityMedium,
		Status:   StatusToDo,
	}
	Apply(t, options...)
	return t
}

func (t *Task) String() string {
	return fmt.Sprintf("%s (%s)", t.Title, t.Status)
}

// IsOverdue reports whether an unfinished task is due before today.
func (t *Task) IsOverdue(today time.Time) bool {
	return t.Status != StatusDone && t.DueDate.Before(DateOf(today))
}

// Clone returns a copy that shares no memory with t.
func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// DateOf truncates a timestamp to its calendar date at midnight UTC.
func DateOf(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Status string

const StatusToDo Status = "To Do"
const StatusInProgress Status = "In Progress"
const StatusDone Status = "Done"

// Statuses returns every valid status in display order.
func Statuses() []Status {
	return []Status{StatusToDo, StatusInProgress, StatusDone}
}

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Priority int

const PriorityHigh Priority = 1
const PriorityMedium Priority = 2
const PriorityLow Priority = 3

// Priorities returns every valid priority from most to least urgent.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func (p Priority) Valid() bool {
	return p >= PriorityHigh && p <= PriorityLow
}

func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityMedium:
		return "Medium"
	case PriorityLow:
		return "Low"
	}
	return "Unknown"
}
