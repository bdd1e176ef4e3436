// Package identity provides user registration, authentication, and
// session lifecycle management.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/maintkeep/maintkeep/internal/pkg/ctxlog"
	"github.com/maintkeep/maintkeep/internal/pkg/metrics"
)

// TokenPair holds an access token and its companion refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticator issues and verifies signed tokens.
type Authenticator interface {
	// GenerateTokens issues a full access+refresh pair at login.
	GenerateTokens(ctx context.Context, user *domain.User) (*TokenPair, error)

	// RefreshAccessToken issues a short-window access token for an
	// already-authenticated refresh grant.
	RefreshAccessToken(ctx context.Context, user *domain.User) (string, error)

	// ValidateAccessToken returns the subject id and role encoded in a
	// valid access token, or ErrInvalidToken.
	ValidateAccessToken(ctx context.Context, token string) (string, domain.Role, error)

	// ValidateRefreshToken returns the subject id encoded in a valid
	// refresh token, or ErrInvalidToken.
	ValidateRefreshToken(ctx context.Context, token string) (string, error)
}

// Service implements the user session lifecycle: registration, login,
// token refresh, and profile queries.
type Service struct {
	repo   Repository
	hasher Hasher
	auth   Authenticator
}

// NewService creates a new identity service.
func NewService(repo Repository, hasher Hasher, auth Authenticator) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		auth:   auth,
	}
}

// RegisterInput holds data for registering a user.
type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
}

// LoginInput holds login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a new user. The credential hash and the user record
// are persisted atomically; a duplicate email fails with ErrEmailExists
// and leaves no partial state behind.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	exists, err := s.repo.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     input.Email,
		Password:  hash,
		Role:      input.Role,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID)

	user.Password = ""
	return user, nil
}

// Login verifies credentials and issues an access+refresh token pair.
// The refresh token is persisted against the user id. Empty or wrong
// credentials fail with ErrInvalidCredentials before any token is issued.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, *TokenPair, error) {
	if input.Email == "" || input.Password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			metrics.LoginAttempts.WithLabelValues("unknown_email").Inc()
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.Password) {
		metrics.LoginAttempts.WithLabelValues("bad_password").Inc()
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.auth.GenerateTokens(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.repo.SaveRefreshToken(ctx, &domain.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     tokens.RefreshToken,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, nil, fmt.Errorf("save refresh token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	ctxlog.FromContext(ctx).Info("user logged in", "user_id", user.ID)

	user.Password = ""
	return user, tokens, nil
}

// Refresh exchanges a stored, still-valid refresh token for a new
// short-window access token. The refresh token is not rotated. A token
// that was never stored fails with ErrTokenNotFound; a stored but
// expired or tampered token fails with ErrInvalidToken.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	stored, err := s.repo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("get refresh token: %w", err)
	}

	subject, err := s.auth.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", ErrInvalidToken
	}
	if subject != stored.UserID {
		return "", ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, stored.UserID)
	if err != nil {
		return "", fmt.Errorf("find user: %w", err)
	}

	accessToken, err := s.auth.RefreshAccessToken(ctx, user)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}

	return accessToken, nil
}

// Logout deletes the stored refresh token, ending the session.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// UpdateRole updates the role of an existing user. Email and password
// are not mutable through this path. The user's stored refresh tokens
// are revoked; access tokens carrying the old role would otherwise be
// re-issuable until the refresh window closed.
func (s *Service) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	user, err := s.repo.UpdateUserRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.repo.DeleteUserRefreshTokens(ctx, id); err != nil {
		return nil, fmt.Errorf("revoke refresh tokens: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user role updated", "user_id", id, "role", role)
	return user, nil
}

// GetUserByID returns the user with the given id, or ErrUserNotFound.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// Exists reports whether a user with the given id exists.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.UserExists(ctx, id)
}

// EmailExists reports whether a user with the given email exists.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.EmailExists(ctx, email)
}

// ValidateToken verifies an access token and returns its subject id and
// role. It satisfies httputil.TokenValidator.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, domain.Role, error) {
	return s.auth.ValidateAccessToken(ctx, token)
}
