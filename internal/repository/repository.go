package repository

import (
	"context"
	"errors"

	"github.com/adanyl0v/go-task-api/internal/models"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidLabel is returned when the storage engine itself rejects a label.
	ErrInvalidLabel = errors.New("invalid task label")
)

// TaskRepository is the persistence boundary for tasks.
//
// Implementations return copies: mutating a returned task never
// changes stored state.
type TaskRepository interface {
	// FindAll returns every task ordered by creation. It returns an
	// empty slice, not an error, when there are no tasks.
	FindAll(ctx context.Context) ([]*models.Task, error)

	// FindByID returns ErrTaskNotFound if no task has the given id.
	FindByID(ctx context.Context, id int64) (*models.Task, error)

	// Insert stores a new undone task under a freshly allocated id.
	Insert(ctx context.Context, label string) (*models.Task, error)

	// SetStatus overwrites the done flag of the task in place and
	// returns the updated task, or ErrTaskNotFound.
	SetStatus(ctx context.Context, id int64, done bool) (*models.Task, error)

	// Delete reports whether a task was present and removed.
	Delete(ctx context.Context, id int64) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Resetter clears all tasks and restarts id allocation.
// It is kept apart from TaskRepository so that only callers that
// explicitly opt in can reach it.
type Resetter interface {
	Reset(ctx context.Context) error
}
