package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-api/internal/models"
)

var (
	_ TaskRepository = (*PostgresTaskRepository)(nil)
	_ Resetter       = (*PostgresTaskRepository)(nil)
)

type PostgresTaskRepository struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPostgresTaskRepository(logger zerolog.Logger, pgPool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{
		logger: logger,
		pgPool: pgPool,
	}
}

// EnsureSchema creates the tasks table if it doesn't exist.
func (r *PostgresTaskRepository) EnsureSchema(ctx context.Context) error {
	const createTasksTableQuery = `
CREATE TABLE IF NOT EXISTS tasks (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    label      TEXT        NOT NULL CHECK (btrim(label) <> ''),
    done       BOOLEAN     NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`
	_, err := r.pgPool.Exec(ctx, createTasksTableQuery)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	r.logger.Debug().Msg("ensured tasks schema")
	return nil
}

func (r *PostgresTaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	const selectTasksQuery = `
SELECT id,
       label,
       done,
       created_at,
       updated_at
FROM tasks
ORDER BY id
`
	rows, err := r.pgPool.Query(ctx, selectTasksQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := new(models.Task)
		err = rows.Scan(
			&task.ID,
			&task.Label,
			&task.Done,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return tasks, nil
}

func (r *PostgresTaskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{ID: id}

	const selectTaskByIDQuery = `
SELECT label,
       done,
       created_at,
       updated_at
FROM tasks
WHERE id = $1
`
	err := r.pgPool.QueryRow(
		ctx,
		selectTaskByIDQuery,
		task.ID,
	).Scan(
		&task.Label,
		&task.Done,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to select task by id: %w", err)
	}
	return task, nil
}

func (r *PostgresTaskRepository) Insert(ctx context.Context, label string) (*models.Task, error) {
	task := &models.Task{Label: label}

	const insertTaskQuery = `
INSERT INTO tasks (label)
VALUES ($1)
RETURNING id, done, created_at, updated_at
`
	err := r.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.Label,
	).Scan(
		&task.ID,
		&task.Done,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return nil, ErrInvalidLabel
		}
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return task, nil
}

func (r *PostgresTaskRepository) SetStatus(ctx context.Context, id int64, done bool) (*models.Task, error) {
	task := &models.Task{ID: id, Done: done}

	// updated_at only moves when the flag actually changes.
	const updateTaskStatusQuery = `
UPDATE tasks
SET done = $1,
    updated_at = CASE WHEN done <> $1 THEN now() ELSE updated_at END
WHERE id = $2
RETURNING label, created_at, updated_at
`
	err := r.pgPool.QueryRow(
		ctx,
		updateTaskStatusQuery,
		task.Done,
		task.ID,
	).Scan(
		&task.Label,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	return task, nil
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := r.pgPool.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresTaskRepository) Reset(ctx context.Context) error {
	const truncateTasksQuery = `TRUNCATE tasks RESTART IDENTITY`
	_, err := r.pgPool.Exec(ctx, truncateTasksQuery)
	if err != nil {
		return fmt.Errorf("failed to truncate tasks: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) Ping(ctx context.Context) error {
	return r.pgPool.Ping(ctx)
}

func (r *PostgresTaskRepository) Close() error {
	r.pgPool.Close()
	return nil
}
