// Package postgres provides the PostgreSQL implementation of the task
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/maintkeep/maintkeep/internal/pkg/postgres"
	"github.com/maintkeep/maintkeep/internal/tasks"
)

// Repository implements tasks.Repository using PostgreSQL.
type Repository struct {
	db postgres.DB
}

// NewRepository creates a new PostgreSQL task repository.
func NewRepository(db postgres.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new task row.
func (r *Repository) Create(ctx context.Context, task *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO maintenance_task (id, user_id, summary, created_at) VALUES ($1, $2, $3, $4)`,
		task.ID, task.UserID, task.Summary, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List retrieves all tasks in natural storage order.
func (r *Repository) List(ctx context.Context) ([]domain.Task, error) {
	query := `
		SELECT id, user_id, summary, created_at
		FROM maintenance_task
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	taskList := make([]domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Summary,
			&task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		taskList = append(taskList, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return taskList, nil
}

// GetByID retrieves a task by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `
		SELECT id, user_id, summary, created_at
		FROM maintenance_task
		WHERE id = $1
	`
	var task domain.Task
	err := r.db.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.UserID,
		&task.Summary,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	return &task, nil
}

// UpdateSummary updates the summary of an existing task.
func (r *Repository) UpdateSummary(ctx context.Context, id, summary string) (*domain.Task, error) {
	query := `
		UPDATE maintenance_task
		SET summary = $2
		WHERE id = $1
		RETURNING id, user_id, summary, created_at
	`
	var task domain.Task
	err := r.db.QueryRow(ctx, query, id, summary).Scan(
		&task.ID,
		&task.UserID,
		&task.Summary,
		&task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tasks.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &task, nil
}

// Delete removes a task. Returns false when no row matched.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.Exec(ctx,
		`DELETE FROM maintenance_task WHERE id = $1`, id,
	)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	return result.RowsAffected() > 0, nil
}
