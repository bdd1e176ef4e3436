package tasks

import (
	"context"

	"github.com/maintkeep/maintkeep/internal/domain"
)

// Repository defines the interface for task persistence.
//
// Lookups that semantically require existence return ErrTaskNotFound;
// Delete reports no-match as a boolean, not an error.
type Repository interface {
	Create(ctx context.Context, task *domain.Task) error
	List(ctx context.Context) ([]domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// UpdateSummary updates the summary of an existing task and returns
	// the updated record. Ownership and creation time are immutable.
	UpdateSummary(ctx context.Context, id, summary string) (*domain.Task, error)

	// Delete removes a task. Returns false when no row matched.
	Delete(ctx context.Context, id string) (bool, error)
}
