package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	usersByID     map[string]*domain.User
	credentials   map[string]string // email -> password hash
	tokens        map[string]*domain.RefreshToken
	createUserErr error
	saveTokenErr  error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		usersByID:   make(map[string]*domain.User),
		credentials: make(map[string]string),
		tokens:      make(map[string]*domain.RefreshToken),
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	if m.createUserErr != nil {
		return m.createUserErr
	}
	stored := *user
	stored.Password = ""
	m.usersByID[user.ID] = &stored
	m.credentials[user.Email] = user.Password
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.usersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.usersByID {
		if u.Email == email {
			copied := *u
			copied.Password = m.credentials[email]
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) UpdateUserRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	u, ok := m.usersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

func (m *mockRepository) UserExists(_ context.Context, id string) (bool, error) {
	_, ok := m.usersByID[id]
	return ok, nil
}

func (m *mockRepository) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.usersByID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) SaveRefreshToken(_ context.Context, token *domain.RefreshToken) error {
	if m.saveTokenErr != nil {
		return m.saveTokenErr
	}
	copied := *token
	m.tokens[token.Token] = &copied
	return nil
}

func (m *mockRepository) GetRefreshToken(_ context.Context, token string) (*domain.RefreshToken, error) {
	rt, ok := m.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	copied := *rt
	return &copied, nil
}

func (m *mockRepository) DeleteRefreshToken(_ context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

func (m *mockRepository) DeleteUserRefreshTokens(_ context.Context, userID string) error {
	for k, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, k)
		}
	}
	return nil
}

// mockHasher implements Hasher with a reversible marker instead of a
// real KDF so tests stay fast.
type mockHasher struct{}

func (mockHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (mockHasher) Verify(plaintext, hash string) bool {
	return plaintext != "" && hash == "hashed:"+plaintext
}

// mockAuthenticator implements Authenticator and counts issued tokens.
type mockAuthenticator struct {
	generateCalls    int
	refreshCalls     int
	refreshSubject   string
	validateRefresh  error
	generateTokenErr error
}

func (m *mockAuthenticator) GenerateTokens(_ context.Context, user *domain.User) (*TokenPair, error) {
	m.generateCalls++
	if m.generateTokenErr != nil {
		return nil, m.generateTokenErr
	}
	return &TokenPair{
		AccessToken:  "access-" + user.ID,
		RefreshToken: "refresh-" + user.ID,
	}, nil
}

func (m *mockAuthenticator) RefreshAccessToken(_ context.Context, user *domain.User) (string, error) {
	m.refreshCalls++
	return "short-access-" + user.ID, nil
}

func (m *mockAuthenticator) ValidateAccessToken(_ context.Context, _ string) (string, domain.Role, error) {
	return "", "", ErrInvalidToken
}

func (m *mockAuthenticator) ValidateRefreshToken(_ context.Context, _ string) (string, error) {
	if m.validateRefresh != nil {
		return "", m.validateRefresh
	}
	return m.refreshSubject, nil
}

func newTestService(repo *mockRepository, auth *mockAuthenticator) *Service {
	return NewService(repo, mockHasher{}, auth)
}

func registerTestUser(t *testing.T, svc *Service, email, password string, role domain.Role) *domain.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    email,
		Password: password,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestRegister_Success(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	svc := newTestService(repo, &mockAuthenticator{})

	// Act
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "tech@example.com",
		Password: "password123",
		Role:     domain.RoleTechnician,
	})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "tech@example.com", user.Email)
	assert.Equal(t, domain.RoleTechnician, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Empty(t, user.Password, "returned user must not carry the hash")
	assert.Equal(t, "hashed:password123", repo.credentials[user.Email],
		"repository must receive the hash, not the plaintext")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	svc := newTestService(repo, &mockAuthenticator{})
	registerTestUser(t, svc, "dup@example.com", "password123", domain.RoleManager)

	// Act
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dup@example.com",
		Password: "different456",
		Role:     domain.RoleTechnician,
	})

	// Assert
	require.ErrorIs(t, err, ErrEmailExists)
	assert.Len(t, repo.usersByID, 1, "no partial state after a duplicate")
}

func TestRegister_RepositoryError(t *testing.T) {
	repo := newMockRepository()
	repo.createUserErr = errors.New("connection refused")
	svc := newTestService(repo, &mockAuthenticator{})

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "tech@example.com",
		Password: "password123",
		Role:     domain.RoleTechnician,
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestLogin_Success(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)
	registered := registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)

	// Act
	user, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    "tech@example.com",
		Password: "password123",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Empty(t, user.Password)
	assert.Equal(t, "access-"+registered.ID, tokens.AccessToken)
	assert.Equal(t, "refresh-"+registered.ID, tokens.RefreshToken)

	stored, ok := repo.tokens[tokens.RefreshToken]
	require.True(t, ok, "refresh token must be persisted")
	assert.Equal(t, registered.ID, stored.UserID)
}

func TestLogin_EmptyCredentials(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)
	registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "tech@example.com"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), LoginInput{Password: "password123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Zero(t, auth.generateCalls, "no tokens issued for empty credentials")
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	require.ErrorIs(t, err, ErrInvalidCredentials,
		"unknown email must not be distinguishable from a wrong password")
	assert.Zero(t, auth.generateCalls)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)
	registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "tech@example.com",
		Password: "wrongpassword",
	})

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Zero(t, auth.generateCalls)
	assert.Empty(t, repo.tokens, "no refresh token persisted on failure")
}

func TestRefresh_Success(t *testing.T) {
	// Arrange
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)
	user := registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)
	_, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    "tech@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	auth.refreshSubject = user.ID

	// Act
	accessToken, err := svc.Refresh(context.Background(), tokens.RefreshToken)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "short-access-"+user.ID, accessToken)
	assert.Equal(t, 1, auth.refreshCalls)
	assert.Contains(t, repo.tokens, tokens.RefreshToken,
		"refresh must not rotate the stored token")
}

func TestRefresh_UnknownToken(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)

	_, err := svc.Refresh(context.Background(), "never-issued")

	require.ErrorIs(t, err, ErrTokenNotFound)
	assert.Zero(t, auth.refreshCalls)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{validateRefresh: ErrInvalidToken}
	svc := newTestService(repo, auth)
	registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)
	_, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    "tech@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)

	require.ErrorIs(t, err, ErrInvalidToken,
		"a stored but expired token is invalid, not missing")
	assert.Zero(t, auth.refreshCalls)
}

func TestRefresh_SubjectMismatch(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{refreshSubject: "someone-else"}
	svc := newTestService(repo, auth)
	registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)
	_, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    "tech@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)

	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_DeletesStoredToken(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)
	user := registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)
	_, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    "tech@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	auth.refreshSubject = user.ID

	require.NoError(t, svc.Logout(context.Background(), tokens.RefreshToken))

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound, "refresh must fail after logout")
}

func TestLogout_UnknownTokenIsNoop(t *testing.T) {
	svc := newTestService(newMockRepository(), &mockAuthenticator{})

	err := svc.Logout(context.Background(), "never-issued")

	require.NoError(t, err)
}

func TestUpdateRole_Success(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockAuthenticator{})
	user := registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)

	updated, err := svc.UpdateRole(context.Background(), user.ID, domain.RoleManager)

	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, updated.Role)
	assert.Equal(t, user.Email, updated.Email, "email is immutable through role update")
}

func TestUpdateRole_RevokesSessions(t *testing.T) {
	repo := newMockRepository()
	auth := &mockAuthenticator{}
	svc := newTestService(repo, auth)
	user := registerTestUser(t, svc, "tech@example.com", "password123", domain.RoleTechnician)
	_, tokens, err := svc.Login(context.Background(), LoginInput{
		Email:    "tech@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	auth.refreshSubject = user.ID

	_, err = svc.UpdateRole(context.Background(), user.ID, domain.RoleManager)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, ErrTokenNotFound,
		"refresh tokens issued before a role change must be revoked")
}

func TestUpdateRole_UserNotFound(t *testing.T) {
	svc := newTestService(newMockRepository(), &mockAuthenticator{})

	_, err := svc.UpdateRole(context.Background(), "missing-id", domain.RoleManager)

	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetUserByID_NotFound(t *testing.T) {
	svc := newTestService(newMockRepository(), &mockAuthenticator{})

	_, err := svc.GetUserByID(context.Background(), "missing-id")

	require.ErrorIs(t, err, ErrUserNotFound)
}
