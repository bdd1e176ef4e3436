// Package inmem provides an in-memory implementation of the identity
// repository, used in tests and local development.
package inmem

import (
	"context"
	"sync"

	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/maintkeep/maintkeep/internal/identity"
)

// Repository implements identity.Repository with mutex-guarded maps.
type Repository struct {
	mu          sync.RWMutex
	usersByID   map[string]domain.User
	credentials map[string]string // email -> password hash
	tokens      map[string]domain.RefreshToken
}

// NewRepository creates an empty in-memory identity repository.
func NewRepository() *Repository {
	return &Repository{
		usersByID:   make(map[string]domain.User),
		credentials: make(map[string]string),
		tokens:      make(map[string]domain.RefreshToken),
	}
}

// CreateUser stores the user and its credential hash. The two writes
// happen under one lock, mirroring the transactional postgres variant.
func (r *Repository) CreateUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.usersByID {
		if u.Email == user.Email {
			return identity.ErrEmailExists
		}
	}

	stored := *user
	stored.Password = ""
	r.usersByID[user.ID] = stored
	r.credentials[user.Email] = user.Password
	return nil
}

// GetUserByID returns the user without its credential hash.
func (r *Repository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.usersByID[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &user, nil
}

// GetUserByEmail returns the user with its credential hash populated.
func (r *Repository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.usersByID {
		if u.Email == email {
			user := u
			user.Password = r.credentials[email]
			return &user, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

// UpdateUserRole updates the role of an existing user.
func (r *Repository) UpdateUserRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.usersByID[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	user.Role = role
	r.usersByID[id] = user
	return &user, nil
}

// UserExists reports whether a user with the given id exists.
func (r *Repository) UserExists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.usersByID[id]
	return ok, nil
}

// EmailExists reports whether a user with the given email exists.
func (r *Repository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.usersByID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// SaveRefreshToken persists a refresh token against the user id.
func (r *Repository) SaveRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token.Token] = *token
	return nil
}

// GetRefreshToken looks up a stored refresh token by its token string.
func (r *Repository) GetRefreshToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tokens[token]
	if !ok {
		return nil, identity.ErrTokenNotFound
	}
	return &rt, nil
}

// DeleteRefreshToken removes a stored refresh token.
func (r *Repository) DeleteRefreshToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

// DeleteUserRefreshTokens removes all refresh tokens for a user.
func (r *Repository) DeleteUserRefreshTokens(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}
