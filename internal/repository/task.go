package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	"github.com/notes/tarefas/internal/model"
)

// Common errors for task repository operations.
var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrConstraintViolation = errors.New("constraint violation")
)

// sqliteConstraint is the primary result code SQLITE_CONSTRAINT.
const sqliteConstraint = 19

// TaskFilter defines filters for listing tasks.
type TaskFilter struct {
	Completed *bool
}

const taskColumns = `id, titulo, descricao, concluida, data_criacao`

const insertTaskQuery = `
	INSERT INTO tarefas (titulo, descricao, concluida, data_criacao)
	VALUES (:titulo, :descricao, :concluida, :data_criacao)
	RETURNING id
`

const updateTaskQuery = `
	UPDATE tarefas
	SET titulo = :titulo, descricao = :descricao, concluida = :concluida
	WHERE id = :id
`

// ListTasks returns all tasks matching the filter, ordered by id.
func (r *Repository) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + taskColumns + ` FROM tarefas`
	var args []any

	if filter.Completed != nil {
		query += ` WHERE concluida = ?`
		args = append(args, *filter.Completed)
	}
	query += ` ORDER BY id`

	tasks := make([]model.Task, 0)
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	for i := range tasks {
		normalize(&tasks[i])
	}

	return tasks, nil
}

// GetTask retrieves a task by its ID.
func (r *Repository) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tarefas WHERE id = ?`)

	var task model.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task by ID: %w", err)
	}

	normalize(&task)
	return &task, nil
}

// CreateTask inserts a new task and returns its generated ID.
func (r *Repository) CreateTask(ctx context.Context, task *model.Task) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := sqlx.Named(insertTaskQuery, task)
	if err != nil {
		return 0, fmt.Errorf("failed to bind task: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, r.db.Rebind(query), args...).Scan(&id); err != nil {
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return 0, fmt.Errorf("failed to create task: %w", err)
	}

	return id, nil
}

// UpdateTask updates a task's mutable fields.
func (r *Repository) UpdateTask(ctx context.Context, task *model.Task) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.db.NamedExecContext(ctx, updateTaskQuery, task)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// DeleteTask removes a task.
func (r *Repository) DeleteTask(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tarefas WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ErrTaskNotFound
	}

	return nil
}

// normalize keeps timestamps in UTC regardless of how the driver decoded them.
func normalize(task *model.Task) {
	task.CreatedAt = task.CreatedAt.UTC()
}

// isConstraintViolation reports integrity errors from either engine.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23 covers integrity constraint violations.
		return strings.HasPrefix(pgErr.Code, "23")
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqliteConstraint
	}

	return false
}
