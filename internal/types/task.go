package types

import (
	"fmt"
	"time"
)

// TaskStatus is the state of a legacy task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

// TaskPriority ranks a legacy task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is the record kind kept from the app's to-do list days.
type Task struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Validate checks if the Task has valid field values.
func (t *Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(t.Title) > MaxTitleLength {
		return fmt.Errorf("title must be %d characters or less (got %d)", MaxTitleLength, len(t.Title))
	}
	switch t.Status {
	case TaskPending, TaskInProgress, TaskCompleted:
	default:
		return fmt.Errorf("invalid status %q", t.Status)
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if !t.CreatedAt.IsZero() && t.UpdatedAt.Before(t.CreatedAt) {
		return fmt.Errorf("updated_at must not be before created_at")
	}
	return nil
}

// SetDefaults applies default values for omitted fields.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

// Clone returns a copy.
func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// Touch sets UpdatedAt, never letting it fall behind CreatedAt.
func (t *Task) Touch(now time.Time) {
	t.UpdatedAt = laterOf(now, t.CreatedAt)
}
