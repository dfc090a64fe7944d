package syncer

import (
	"context"
	"time"

	"github.com/doree-nobuu/adventures/internal/local"
	"github.com/doree-nobuu/adventures/internal/types"
	"github.com/doree-nobuu/adventures/internal/wire"
)

// TaskKind describes legacy tasks to a Collection.
var TaskKind = Kind[types.Task]{
	Name:      "tasks",
	Key:       local.KeyTasks,
	NextIDKey: local.KeyTasksNextID,
	ID:        func(t *types.Task) int64 { return t.ID },
	SetID:     func(t *types.Task, id int64) { t.ID = id },
	CreatedAt: func(t *types.Task) time.Time { return t.CreatedAt },
	Stamp: func(t *types.Task, created, now time.Time) {
		t.CreatedAt = created
		t.Touch(now)
	},
	Clone:    func(t *types.Task) *types.Task { return t.Clone() },
	Validate: func(t *types.Task) error { return t.Validate() },
	Prepare:  func(t *types.Task, _ time.Time) { t.SetDefaults() },
	Encode:   wire.EncodeTask,
	Decode:   wire.DecodeTask,
	Seed:     seedTasks,
}

func seedTasks(now time.Time) []*types.Task {
	return []*types.Task{
		{
			ID:          1,
			Title:       "Welcome to Task Tracker",
			Description: "This is a sample task. You can edit or delete it to get started!",
			Status:      types.TaskPending,
			Priority:    types.PriorityMedium,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          2,
			Title:       "Learn Angular",
			Description: "Explore Angular features and best practices",
			Status:      types.TaskInProgress,
			Priority:    types.PriorityHigh,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// Tasks is the legacy task service. It has no remote store unless one is
// passed explicitly.
type Tasks struct {
	*Collection[types.Task]
}

// NewTasks creates the task collection.
func NewTasks(opts Options) *Tasks {
	return &Tasks{Collection: NewCollection(TaskKind, opts)}
}

// Add creates a task from its parts.
func (s *Tasks) Add(ctx context.Context, title, description string, priority types.TaskPriority) (types.Task, error) {
	return s.Create(ctx, types.Task{Title: title, Description: description, Priority: priority})
}

// SetStatus moves a task to status.
func (s *Tasks) SetStatus(ctx context.Context, id int64, status types.TaskStatus) (types.Task, error) {
	return s.Update(ctx, id, func(t *types.Task) error {
		t.Status = status
		return nil
	})
}

// ByStatus returns tasks with status.
func (s *Tasks) ByStatus(status types.TaskStatus) []types.Task {
	return s.Filter(func(t *types.Task) bool { return t.Status == status })
}
