package server

import (
	"context"
	"errors"

	"github.com/questmap/geoquest/internal/task"
)

var ErrNotFound = errors.New("not found")

// Store is the catalog backend: the task list, per-user quest progress, and
// per-user task statuses. Completing a task is the one write — it marks the
// user task done, advances quest progress past the task's order, and counts
// the participant on timed tasks.
type Store interface {
	ListTasks(ctx context.Context) ([]task.Record, error)
	QuestProgress(ctx context.Context, username string) (map[string]int, error)
	UserTasks(ctx context.Context, username string) ([]task.UserTask, error)
	CompleteTask(ctx context.Context, username, taskID string) error
}
