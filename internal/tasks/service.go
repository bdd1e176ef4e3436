// Package tasks provides business logic and HTTP handlers for
// maintenance tasks.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/maintkeep/maintkeep/internal/pkg/ctxlog"
)

// MaxSummaryLength is the upper bound for a task summary.
const MaxSummaryLength = 500

// Service implements task business logic.
type Service struct {
	repo Repository
}

// NewService creates a new task service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add creates a task owned by the given user with a generated id and
// the current timestamp.
func (s *Service) Add(ctx context.Context, userID, summary string) (*domain.Task, error) {
	if userID == "" || summary == "" || len(summary) > MaxSummaryLength {
		return nil, ErrInvalidInput
	}

	task := &domain.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	ctxlog.FromContext(ctx).Info("task created", "task_id", task.ID, "user_id", userID)
	return task, nil
}

// List returns all tasks in natural storage order.
func (s *Service) List(ctx context.Context) ([]domain.Task, error) {
	return s.repo.List(ctx)
}

// GetByID returns the task with the given id, or ErrTaskNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return s.repo.GetByID(ctx, id)
}

// Update changes the summary of an existing task. Only the summary is
// mutable.
func (s *Service) Update(ctx context.Context, id, summary string) (*domain.Task, error) {
	if summary == "" || len(summary) > MaxSummaryLength {
		return nil, ErrInvalidInput
	}

	task, err := s.repo.UpdateSummary(ctx, id, summary)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete removes a task. Returns false when no task matched the id;
// absence is not an error here.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	if deleted {
		ctxlog.FromContext(ctx).Info("task deleted", "task_id", id)
	}
	return deleted, nil
}
