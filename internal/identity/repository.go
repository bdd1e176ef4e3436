package identity

import (
	"context"

	"github.com/maintkeep/maintkeep/internal/domain"
)

// Repository defines the interface for user and refresh token persistence.
//
// User and credential records live in separate tables joined by email;
// CreateUser must persist both atomically. Lookups that semantically
// require existence return ErrUserNotFound / ErrTokenNotFound; the
// existence checks return a boolean and never fail on absence.
type Repository interface {
	// CreateUser persists the user record and its credential hash in a
	// single transaction. user.Password carries the hash on input.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByID returns the user without its credential hash.
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	// GetUserByEmail returns the user with its credential hash populated
	// from the login table. Used by the login flow only.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdateUserRole updates the role of an existing user and returns
	// the updated record. Email and credentials are immutable here.
	UpdateUserRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)

	UserExists(ctx context.Context, id string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteUserRefreshTokens(ctx context.Context, userID string) error
}
