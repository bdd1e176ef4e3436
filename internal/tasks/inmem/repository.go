// Package inmem provides an in-memory implementation of the task
// repository, used in tests and local development.
package inmem

import (
	"context"
	"sync"

	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/maintkeep/maintkeep/internal/tasks"
)

// Repository implements tasks.Repository with a mutex-guarded slice.
// A slice keeps the natural insertion order the postgres variant gets
// for free.
type Repository struct {
	mu    sync.RWMutex
	items []domain.Task
}

// NewRepository creates an empty in-memory task repository.
func NewRepository() *Repository {
	return &Repository{items: make([]domain.Task, 0)}
}

// Create stores a new task.
func (r *Repository) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, *task)
	return nil
}

// List returns all tasks in insertion order.
func (r *Repository) List(_ context.Context) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, len(r.items))
	copy(out, r.items)
	return out, nil
}

// GetByID returns the task with the given id, or ErrTaskNotFound.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.items {
		if t.ID == id {
			task := t
			return &task, nil
		}
	}
	return nil, tasks.ErrTaskNotFound
}

// UpdateSummary updates the summary of an existing task.
func (r *Repository) UpdateSummary(_ context.Context, id, summary string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Summary = summary
			task := r.items[i]
			return &task, nil
		}
	}
	return nil, tasks.ErrTaskNotFound
}

// Delete removes a task. Returns false when no task matched.
func (r *Repository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
