package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-api/internal/models"
)

var (
	_ TaskRepository = (*SQLTaskRepository)(nil)
	_ Resetter       = (*SQLTaskRepository)(nil)
)

// mysqlErrCheckConstraintViolated is ER_CHECK_CONSTRAINT_VIOLATED (MySQL 8.0.16+).
const mysqlErrCheckConstraintViolated = 3819

// Dialect holds what differs between database/sql backends.
type Dialect struct {
	Name             string
	DriverName       string
	createTableQuery string
	resetQueries     []string
	isCheckViolation func(err error) bool
}

var SQLiteDialect = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite3",
	createTableQuery: `
CREATE TABLE IF NOT EXISTS tasks (
    id         INTEGER  PRIMARY KEY AUTOINCREMENT,
    label      TEXT     NOT NULL CHECK (trim(label) <> ''),
    done       BOOLEAN  NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)
`,
	resetQueries: []string{
		`DELETE FROM tasks`,
		`DELETE FROM sqlite_sequence WHERE name = 'tasks'`,
	},
	isCheckViolation: func(err error) bool {
		var sqliteErr sqlite3.Error
		return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
	},
}

var MySQLDialect = Dialect{
	Name:       "mysql",
	DriverName: "mysql",
	createTableQuery: `
CREATE TABLE IF NOT EXISTS tasks (
    id         BIGINT      NOT NULL AUTO_INCREMENT PRIMARY KEY,
    label      TEXT        NOT NULL,
    done       BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at DATETIME(6) NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    CONSTRAINT tasks_label_not_blank CHECK (TRIM(label) <> '')
)
`,
	resetQueries: []string{
		`TRUNCATE TABLE tasks`,
	},
	isCheckViolation: func(err error) bool {
		var mysqlErr *mysql.MySQLError
		return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrCheckConstraintViolated
	},
}

// SQLTaskRepository stores tasks through database/sql.
type SQLTaskRepository struct {
	logger  zerolog.Logger
	db      *sql.DB
	dialect Dialect
}

func NewSQLTaskRepository(logger zerolog.Logger, db *sql.DB, dialect Dialect) *SQLTaskRepository {
	return &SQLTaskRepository{
		logger:  logger,
		db:      db,
		dialect: dialect,
	}
}

// OpenSQLite opens the database file at path and ensures the schema.
// SQLite has a single writer, so the pool is capped at one connection.
func OpenSQLite(ctx context.Context, logger zerolog.Logger, path string) (*SQLTaskRepository, error) {
	db, err := sql.Open(SQLiteDialect.DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return openSQL(ctx, logger, db, SQLiteDialect)
}

// OpenMySQL opens a MySQL connection pool. parseTime is forced on so
// that DATETIME columns scan into time.Time.
func OpenMySQL(ctx context.Context, logger zerolog.Logger, dsn string) (*SQLTaskRepository, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}

	return openSQL(ctx, logger, sql.OpenDB(connector), MySQLDialect)
}

func openSQL(ctx context.Context, logger zerolog.Logger, db *sql.DB, dialect Dialect) (*SQLTaskRepository, error) {
	r := NewSQLTaskRepository(logger, db, dialect)

	err := r.Ping(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", dialect.Name, err)
	}

	err = r.EnsureSchema(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLTaskRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, r.dialect.createTableQuery)
	if err != nil {
		return fmt.Errorf("failed to create tasks table: %w", err)
	}
	r.logger.Debug().
		Str("dialect", r.dialect.Name).
		Msg("ensured tasks schema")
	return nil
}

func (r *SQLTaskRepository) FindAll(ctx context.Context) ([]*models.Task, error) {
	const selectTasksQuery = `
SELECT id,
       label,
       done,
       created_at,
       updated_at
FROM tasks
ORDER BY id
`
	rows, err := r.db.QueryContext(ctx, selectTasksQuery)
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

func (r *SQLTaskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	return findTaskByID(ctx, r.db, id)
}

func (r *SQLTaskRepository) Insert(ctx context.Context, label string) (*models.Task, error) {
	now := time.Now().UTC()
	task := &models.Task{
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const insertTaskQuery = `
INSERT INTO tasks (label, done, created_at, updated_at)
VALUES (?, ?, ?, ?)
`
	result, err := r.db.ExecContext(
		ctx,
		insertTaskQuery,
		task.Label,
		task.Done,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if r.dialect.isCheckViolation(err) {
			return nil, ErrInvalidLabel
		}
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	task.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted task id: %w", err)
	}
	return task, nil
}

// SetStatus re-reads the row inside the same transaction because MySQL
// reports zero affected rows for an update that changes nothing.
func (r *SQLTaskRepository) SetStatus(ctx context.Context, id int64, done bool) (*models.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const updateTaskStatusQuery = `
UPDATE tasks
SET updated_at = CASE WHEN done <> ? THEN ? ELSE updated_at END,
    done = ?
WHERE id = ?
`
	_, err = tx.ExecContext(
		ctx,
		updateTaskStatusQuery,
		done,
		time.Now().UTC(),
		done,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	task, err := findTaskByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return task, nil
}

func (r *SQLTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = ?
`
	result, err := r.db.ExecContext(ctx, deleteTaskQuery, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

func (r *SQLTaskRepository) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, query := range r.dialect.resetQueries {
		_, err = tx.ExecContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to reset tasks: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *SQLTaskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLTaskRepository) Close() error {
	return r.db.Close()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findTaskByID(ctx context.Context, q queryRower, id int64) (*models.Task, error) {
	task := &models.Task{ID: id}

	const selectTaskByIDQuery = `
SELECT label,
       done,
       created_at,
       updated_at
FROM tasks
WHERE id = ?
`
	err := q.QueryRowContext(
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to select task by id: %w", err)
	}
	return task, nil
}
