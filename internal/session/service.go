package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
)

var ErrInvalidToken = fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)

// TokenStore persists a user's active token list.
type TokenStore interface {
	AppendToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	ClearTokens(ctx context.Context, userID string) error
}

// Manager signs session tokens with a process-wide HMAC key and keeps the
// per-user token list in step with what it hands out.
type Manager struct {
	key    []byte
	tokens TokenStore
	newJTI func() string
	now    func() time.Time
}

func NewManager(key []byte, tokens TokenStore) *Manager {
	k := make([]byte, len(key))
	copy(k, key)
	return &Manager{
		key:    k,
		tokens: tokens,
		newJTI: func() string { return uuid.NewString() },
		now:    time.Now,
	}
}

// WithTokens returns a Manager that shares the key but writes to ts,
// typically a transaction-bound user store.
func (m *Manager) WithTokens(ts TokenStore) *Manager {
	c := *m
	c.tokens = ts
	return &c
}

// Issue signs a token for userID and appends it to the user's list. The
// token is only returned once it is persisted.
func (m *Manager) Issue(ctx context.Context, userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       m.newJTI(),
			IssuedAt: jwt.NewNumericDate(m.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := m.tokens.AppendToken(ctx, userID, signed); err != nil {
		return "", apperr.Persistence("append token", err)
	}
	return signed, nil
}

// Verify checks the signature and returns the user id it carries. It does
// not consult the token list.
func (m *Manager) Verify(token string) (string, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// Revoke removes token from the user's list. An absent token is not an error.
func (m *Manager) Revoke(ctx context.Context, userID, token string) error {
	if err := m.tokens.RemoveToken(ctx, userID, token); err != nil {
		return apperr.Persistence("remove token", err)
	}
	return nil
}

// RevokeAll empties the user's list.
func (m *Manager) RevokeAll(ctx context.Context, userID string) error {
	if err := m.tokens.ClearTokens(ctx, userID); err != nil {
		return apperr.Persistence("clear tokens", err)
	}
	return nil
}
