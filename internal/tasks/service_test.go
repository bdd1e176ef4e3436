package tasks

import (
	"context"
	"strings"
	"testing"

	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository with an in-process slice.
type mockRepository struct {
	items     []domain.Task
	createErr error
}

func (m *mockRepository) Create(_ context.Context, task *domain.Task) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.items = append(m.items, *task)
	return nil
}

func (m *mockRepository) List(_ context.Context) ([]domain.Task, error) {
	out := make([]domain.Task, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	for _, t := range m.items {
		if t.ID == id {
			task := t
			return &task, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (m *mockRepository) UpdateSummary(_ context.Context, id, summary string) (*domain.Task, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Summary = summary
			task := m.items[i]
			return &task, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (m *mockRepository) Delete(_ context.Context, id string) (bool, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestAdd_Success(t *testing.T) {
	// Arrange
	repo := &mockRepository{}
	svc := NewService(repo)

	// Act
	task, err := svc.Add(context.Background(), "u1", "replace the air filters")

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "u1", task.UserID)
	assert.Equal(t, "replace the air filters", task.Summary)
	assert.False(t, task.CreatedAt.IsZero())
	assert.Len(t, repo.items, 1)
}

func TestAdd_InvalidInput(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo)

	tests := []struct {
		name    string
		userID  string
		summary string
	}{
		{"empty summary", "u1", ""},
		{"empty owner", "", "replace the air filters"},
		{"summary too long", "u1", strings.Repeat("x", MaxSummaryLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), tt.userID, tt.summary)
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.Empty(t, repo.items, "nothing persisted on invalid input")
}

func TestAdd_SummaryAtMaxLength(t *testing.T) {
	svc := NewService(&mockRepository{})

	task, err := svc.Add(context.Background(), "u1", strings.Repeat("x", MaxSummaryLength))

	require.NoError(t, err)
	assert.Len(t, task.Summary, MaxSummaryLength)
}

func TestUpdate_InvalidSummary(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo)
	task, err := svc.Add(context.Background(), "u1", "replace the air filters")
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), task.ID, "")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(context.Background(), task.ID, strings.Repeat("x", MaxSummaryLength+1))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(&mockRepository{})

	_, err := svc.Update(context.Background(), "missing", "replace the air filters")

	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestDelete_AbsentIsNotAnError(t *testing.T) {
	svc := NewService(&mockRepository{})

	deleted, err := svc.Delete(context.Background(), "missing")

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTaskLifecycle(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo)
	ctx := context.Background()

	task, err := svc.Add(ctx, "u1", "buy filters")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, task.ID, "buy filters and belts")
	require.NoError(t, err)
	assert.Equal(t, task.ID, updated.ID)
	assert.Equal(t, "buy filters and belts", updated.Summary)
	assert.Equal(t, task.UserID, updated.UserID, "owner is immutable")

	deleted, err := svc.Delete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.GetByID(ctx, task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
