package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/maintkeep/maintkeep/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		AccessSecret:         "access-secret",
		RefreshSecret:        "refresh-secret",
		AccessTokenDuration:  2 * time.Hour,
		RefreshTokenDuration: 24 * time.Hour,
		RefreshGrantDuration: 15 * time.Minute,
	}
}

func testUser() *domain.User {
	return &domain.User{
		ID:    "user-123",
		Email: "tech@example.com",
		Role:  domain.RoleTechnician,
	}
}

func TestGenerateTokens_AccessTokenRoundTrip(t *testing.T) {
	auth := NewAuthenticator(testConfig())

	tokens, err := auth.GenerateTokens(context.Background(), testUser())
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)

	subject, role, err := auth.ValidateAccessToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
	assert.Equal(t, domain.RoleTechnician, role)
}

func TestGenerateTokens_RefreshTokenRoundTrip(t *testing.T) {
	auth := NewAuthenticator(testConfig())

	tokens, err := auth.GenerateTokens(context.Background(), testUser())
	require.NoError(t, err)

	subject, err := auth.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
}

func TestValidateAccessToken_RejectsRefreshToken(t *testing.T) {
	auth := NewAuthenticator(testConfig())

	tokens, err := auth.GenerateTokens(context.Background(), testUser())
	require.NoError(t, err)

	// The token kinds are signed with distinct secrets; one must not
	// stand in for the other.
	_, _, err = auth.ValidateAccessToken(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = auth.ValidateRefreshToken(context.Background(), tokens.AccessToken)
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenDuration = -time.Minute
	auth := NewAuthenticator(cfg)

	tokens, err := auth.GenerateTokens(context.Background(), testUser())
	require.NoError(t, err)

	_, _, err = auth.ValidateAccessToken(context.Background(), tokens.AccessToken)
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestValidateRefreshToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenDuration = -time.Minute
	auth := NewAuthenticator(cfg)

	tokens, err := auth.GenerateTokens(context.Background(), testUser())
	require.NoError(t, err)

	_, err = auth.ValidateRefreshToken(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	auth := NewAuthenticator(testConfig())

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, _, err := auth.ValidateAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, identity.ErrInvalidToken, "token %q", token)
	}
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	auth := NewAuthenticator(testConfig())

	tokens, err := auth.GenerateTokens(context.Background(), testUser())
	require.NoError(t, err)

	other := testConfig()
	other.AccessSecret = "a-different-secret"

	_, _, err = NewAuthenticator(other).ValidateAccessToken(context.Background(), tokens.AccessToken)
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestRefreshAccessToken_IssuesValidAccessToken(t *testing.T) {
	auth := NewAuthenticator(testConfig())

	accessToken, err := auth.RefreshAccessToken(context.Background(), testUser())
	require.NoError(t, err)

	subject, role, err := auth.ValidateAccessToken(context.Background(), accessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-123", subject)
	assert.Equal(t, domain.RoleTechnician, role)
}
