// Package auth signs and verifies the server's HS256 access and refresh
// tokens. Access and refresh tokens use separate secrets.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/dmitrijs2005/discbaboons/internal/tokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// Subject is what gets embedded in a freshly minted pair.
type Subject struct {
	UserID       int64
	Username     string
	IsAdmin      bool
	TokenVersion int64
}

// JWTManager mints and verifies token pairs.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source; tests use it to mint expired tokens.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

// IssuePair mints a new access token and a new refresh token for s. Every
// token carries a fresh ULID as jti, so two pairs minted in the same second
// never collide.
func (m *JWTManager) IssuePair(s Subject) (*tokens.Pair, error) {
	now := m.now()

	access, err := GenerateToken(tokens.AccessClaims{
		UserID:           s.UserID,
		Username:         s.Username,
		IsAdmin:          s.IsAdmin,
		RegisteredClaims: registered(now, m.accessTTL),
	}, m.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := GenerateToken(tokens.RefreshClaims{
		UserID:           s.UserID,
		TokenVersion:     s.TokenVersion,
		RegisteredClaims: registered(now, m.refreshTTL),
	}, m.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &tokens.Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccessToken verifies signature and expiry. Any failure maps to
// common.ErrAuthorization.
func (m *JWTManager) ParseAccessToken(tokenString string) (*tokens.AccessClaims, error) {
	claims := &tokens.AccessClaims{}
	if err := m.parse(tokenString, claims, m.accessSecret); err != nil {
		return nil, errors.Join(common.ErrAuthorization, err)
	}
	return claims, nil
}

// ParseRefreshToken verifies signature and expiry. Malformed, expired and
// forged tokens all yield common.ErrInvalidRefreshToken and nothing else.
func (m *JWTManager) ParseRefreshToken(tokenString string) (*tokens.RefreshClaims, error) {
	claims := &tokens.RefreshClaims{}
	if err := m.parse(tokenString, claims, m.refreshSecret); err != nil {
		return nil, common.ErrInvalidRefreshToken
	}
	return claims, nil
}

func (m *JWTManager) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

// GenerateToken signs claims with HS256.
func GenerateToken(claims jwt.Claims, secretKey []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

func registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        ulid.Make().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}
