package services

import (
	"context"
	"errors"

	"github.com/adanyl0v/go-task-api/internal/models"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrResetDisabled = errors.New("reset is disabled")

	ErrEmptyLabel        = &ValidationError{Field: "task", Message: "empty label"}
	ErrInvalidTaskStatus = &ValidationError{Field: "status", Message: "status must be done or undone"}
)

// ValidationError reports input that breaks a business rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

type TaskService interface {
	// ListTasks returns all tasks in creation order.
	ListTasks(ctx context.Context) ([]*models.Task, error)

	// GetTask returns ErrTaskNotFound if the task doesn't exist.
	GetTask(ctx context.Context, id int64) (*models.Task, error)

	// AddTask trims the label and stores a new undone task.
	//
	// It returns ErrEmptyLabel if nothing is left after trimming.
	AddTask(ctx context.Context, rawLabel string) (*models.Task, error)

	// SetTaskStatus sets the task to done or undone. Setting the
	// current status again is a no-op.
	//
	// It returns ErrInvalidTaskStatus for any other status value
	// and ErrTaskNotFound if the task doesn't exist.
	SetTaskStatus(ctx context.Context, params SetTaskStatusParams) (*models.Task, error)

	// DeleteTask removes the task. A missing task is reported through
	// DeleteOutcome.Found, not as an error.
	DeleteTask(ctx context.Context, id int64) (DeleteOutcome, error)

	// ResetTasks removes every task and restarts id allocation.
	// It returns ErrResetDisabled unless reset was enabled.
	ResetTasks(ctx context.Context) error
}

type SetTaskStatusParams struct {
	ID     int64
	Status string
}

type DeleteOutcome struct {
	Found bool
}
