package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-api/internal/models"
	"github.com/adanyl0v/go-task-api/internal/repository"
)

type taskServiceImpl struct {
	logger       zerolog.Logger
	tasks        repository.TaskRepository
	resetEnabled bool
}

type TaskServiceOption func(*taskServiceImpl)

// WithReset lets ResetTasks clear the repository. Without it, or when
// the repository can't reset, ResetTasks returns ErrResetDisabled.
func WithReset() TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.resetEnabled = true
	}
}

func NewTaskService(
	logger zerolog.Logger,
	tasks repository.TaskRepository,
	opts ...TaskServiceOption,
) TaskService {
	s := &taskServiceImpl{
		logger: logger,
		tasks:  tasks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskServiceImpl) ListTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.tasks.FindAll(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("selected tasks")
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			s.logger.Info().
				Int64("task_id", id).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task by id")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", id).
		Msg("selected task by id")
	return task, nil
}

func (s *taskServiceImpl) AddTask(ctx context.Context, rawLabel string) (*models.Task, error) {
	label := strings.TrimSpace(rawLabel)
	if label == "" {
		s.logger.Info().Msg("rejected empty label")
		return nil, ErrEmptyLabel
	}

	task, err := s.tasks.Insert(ctx, label)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidLabel) {
			s.logger.Info().
				Str("label", label).
				Msg("storage rejected label")
			return nil, ErrEmptyLabel
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Str("label", task.Label).
		Msg("inserted task")

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) SetTaskStatus(ctx context.Context, params SetTaskStatusParams) (*models.Task, error) {
	done, err := models.ParseStatus(params.Status)
	if err != nil {
		s.logger.Info().
			Str("status", params.Status).
			Msg("invalid task status")
		return nil, ErrInvalidTaskStatus
	}

	task, err := s.tasks.SetStatus(ctx, params.ID, done)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			s.logger.Info().
				Int64("task_id", params.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", params.ID).
			Msg("failed to update task status")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("status", models.StatusOf(task.Done)).
		Msg("updated task status")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, id int64) (DeleteOutcome, error) {
	found, err := s.tasks.Delete(ctx, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return DeleteOutcome{}, err
	}
	if !found {
		s.logger.Info().
			Int64("task_id", id).
			Msg("task not found")
		return DeleteOutcome{Found: false}, nil
	}

	s.logger.Info().
		Int64("task_id", id).
		Msg("deleted task")
	return DeleteOutcome{Found: true}, nil
}

func (s *taskServiceImpl) ResetTasks(ctx context.Context) error {
	resetter, ok := s.tasks.(repository.Resetter)
	if !s.resetEnabled || !ok {
		s.logger.Warn().
			Bool("enabled", s.resetEnabled).
			Bool("supported", ok).
			Msg("reset refused")
		return ErrResetDisabled
	}

	err := resetter.Reset(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to reset tasks")
		return err
	}

	s.logger.Warn().Msg("reset tasks")
	return nil
}
