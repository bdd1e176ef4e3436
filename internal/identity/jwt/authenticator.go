// Package jwt implements the identity token issuer using signed JWTs.
package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maintkeep/maintkeep/internal/domain"
	"github.com/maintkeep/maintkeep/internal/identity"
)

// Config contains token signing settings. Access and refresh tokens are
// signed with distinct secrets so one cannot stand in for the other.
type Config struct {
	AccessSecret  string
	RefreshSecret string

	// AccessTokenDuration is the window for access tokens issued at login.
	AccessTokenDuration time.Duration
	// RefreshTokenDuration is the window for refresh tokens.
	RefreshTokenDuration time.Duration
	// RefreshGrantDuration is the shorter window for access tokens
	// issued through the refresh flow.
	RefreshGrantDuration time.Duration
}

// Claims are the JWT claims carried by both token kinds. Role is only
// meaningful on access tokens.
type Claims struct {
	Role domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HMAC-signed JWTs. It is a pure
// function of token, secret, and current time; it holds no state.
type Authenticator struct {
	cfg Config
}

// NewAuthenticator creates a new JWT authenticator.
func NewAuthenticator(cfg Config) *Authenticator {
	return &Authenticator{cfg: cfg}
}

// GenerateTokens issues an access+refresh token pair for the user.
func (a *Authenticator) GenerateTokens(_ context.Context, user *domain.User) (*identity.TokenPair, error) {
	accessToken, err := a.sign(user, a.cfg.AccessSecret, a.cfg.AccessTokenDuration, true)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := a.sign(user, a.cfg.RefreshSecret, a.cfg.RefreshTokenDuration, false)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &identity.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshAccessToken issues a short-window access token for the user.
func (a *Authenticator) RefreshAccessToken(_ context.Context, user *domain.User) (string, error) {
	accessToken, err := a.sign(user, a.cfg.AccessSecret, a.cfg.RefreshGrantDuration, true)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return accessToken, nil
}

// ValidateAccessToken verifies an access token against the access secret
// and returns the subject id and role it encodes.
func (a *Authenticator) ValidateAccessToken(_ context.Context, token string) (string, domain.Role, error) {
	claims, err := a.parse(token, a.cfg.AccessSecret)
	if err != nil {
		return "", "", identity.ErrInvalidToken
	}
	return claims.Subject, claims.Role, nil
}

// ValidateRefreshToken verifies a refresh token against the refresh
// secret and returns the subject id it encodes.
func (a *Authenticator) ValidateRefreshToken(_ context.Context, token string) (string, error) {
	claims, err := a.parse(token, a.cfg.RefreshSecret)
	if err != nil {
		return "", identity.ErrInvalidToken
	}
	return claims.Subject, nil
}

func (a *Authenticator) sign(user *domain.User, secret string, ttl time.Duration, withRole bool) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if withRole {
		claims.Role = user.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (a *Authenticator) parse(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}
