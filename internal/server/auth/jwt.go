// Package auth implements the token codec: minting and verifying the signed
// access/refresh token pair. It is pure and stateless; the only state is the
// signing key, fixed at startup.
package auth

import (
	"encoding/base64"
	"time"

	"github.com/dmitrijs2005/myrecipe/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Token type claim values.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// MinKeyBytes is the minimum decoded signing key length accepted at startup.
const MinKeyBytes = 32

// timeNow is a seam for tests that need to move the clock.
var timeNow = time.Now

// Claims is the payload embedded in both tokens of a pair. Subject carries
// the user ID; TokenType distinguishes the two halves.
type Claims struct {
	jwt.RegisteredClaims
	Role      string `json:"role"`
	TokenType string `json:"type"`
}

// TokenPair bundles one freshly minted access/refresh pair. RefreshExpiresAt
// is the instant the refresh half stops being valid; callers persist it next
// to the refresh token string.
type TokenPair struct {
	TokenType              string
	AccessToken            string
	RefreshToken           string
	AccessExpiresInSeconds int64
	RefreshExpiresAt       time.Time
}

// Manager signs and verifies tokens with a single process-wide HS256 key.
// It is immutable after construction and safe for concurrent use.
type Manager struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager decodes the base64 secret and validates it. A missing or short
// key is a startup-fatal configuration error; there is no runtime rotation
// path, so the key a Manager is built with is the key for its lifetime.
func NewManager(secretBase64 string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if secretBase64 == "" {
		return nil, common.E(common.KindConfig, common.CodeConfig, "jwt secret is not configured")
	}
	key, err := base64.StdEncoding.DecodeString(secretBase64)
	if err != nil {
		return nil, common.Wrap(common.KindConfig, common.CodeConfig, "jwt secret is not valid base64", err)
	}
	if len(key) < MinKeyBytes {
		return nil, common.E(common.KindConfig, common.CodeConfig, "jwt secret is too short")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, common.E(common.KindConfig, common.CodeConfig, "token validity durations must be positive")
	}
	return &Manager{key: key, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// IssuePair mints two independently signed tokens for the identity:
// a short-lived access token and a long-lived refresh token.
func (m *Manager) IssuePair(userID, role string) (*TokenPair, error) {
	now := timeNow()
	accessExp := now.Add(m.accessTTL)
	refreshExp := now.Add(m.refreshTTL)

	accessToken, err := m.sign(userID, role, TypeAccess, now, accessExp)
	if err != nil {
		return nil, err
	}
	refreshToken, err := m.sign(userID, role, TypeRefresh, now, refreshExp)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		TokenType:              "Bearer",
		AccessToken:            accessToken,
		RefreshToken:           refreshToken,
		AccessExpiresInSeconds: int64(accessExp.Sub(now).Seconds()),
		RefreshExpiresAt:       refreshExp,
	}, nil
}

func (m *Manager) sign(userID, role, tokenType string, now, exp time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:      role,
		TokenType: tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Verify checks signature integrity and expiry and returns the claims.
// Malformed structure, a bad signature and an expired token are all surfaced
// as the same unauthorized error; callers cannot tell which check failed.
// Expiry is strict: a token expiring at the instant of verification is
// rejected. No leeway, no grace window.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return m.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(timeNow),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, common.Unauthorized(err)
	}
	if !token.Valid {
		return nil, common.Unauthorized(nil)
	}
	return claims, nil
}

// IsAccessToken reports whether the claims belong to the access half of a pair.
func IsAccessToken(c *Claims) bool {
	return c != nil && c.TokenType == TypeAccess
}

// IsRefreshToken reports whether the claims belong to the refresh half of a pair.
func IsRefreshToken(c *Claims) bool {
	return c != nil && c.TokenType == TypeRefresh
}
