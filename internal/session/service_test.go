package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
)

type fakeTokens struct {
	lists     map[string][]string
	appendErr error
}

func newFakeTokens() *fakeTokens { return &fakeTokens{lists: map[string][]string{}} }

func (f *fakeTokens) AppendToken(_ context.Context, userID, token string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.lists[userID] = append(f.lists[userID], token)
	return nil
}

func (f *fakeTokens) RemoveToken(_ context.Context, userID, token string) error {
	var kept []string
	for _, t := range f.lists[userID] {
		if t != token {
			kept = append(kept, t)
		}
	}
	f.lists[userID] = kept
	return nil
}

func (f *fakeTokens) ClearTokens(_ context.Context, userID string) error {
	delete(f.lists, userID)
	return nil
}

func TestManager_IssueVerifyRoundtrip(t *testing.T) {
	tokens := newFakeTokens()
	m := NewManager([]byte("secret"), tokens)

	tok, err := m.Issue(context.Background(), "42")
	require.NoError(t, err)

	userID, err := m.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "42", userID)
	require.Equal(t, []string{tok}, tokens.lists["42"])
}

func TestManager_IssueTwiceGivesDistinctTokens(t *testing.T) {
	tokens := newFakeTokens()
	m := NewManager([]byte("secret"), tokens)
	frozen := time.Unix(1700000000, 0)
	m.now = func() time.Time { return frozen }

	a, err := m.Issue(context.Background(), "42")
	require.NoError(t, err)
	b, err := m.Issue(context.Background(), "42")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, []string{a, b}, tokens.lists["42"])

	require.NoError(t, m.Revoke(context.Background(), "42", a))
	assert.Equal(t, []string{b}, tokens.lists["42"])

	require.NoError(t, m.Revoke(context.Background(), "42", a))
	require.NoError(t, m.RevokeAll(context.Background(), "42"))
	assert.Empty(t, tokens.lists["42"])
}

func TestManager_IssueFailsWhenNotPersisted(t *testing.T) {
	tokens := newFakeTokens()
	tokens.appendErr = errors.New("db down")
	m := NewManager([]byte("secret"), tokens)

	tok, err := m.Issue(context.Background(), "42")
	require.Error(t, err)
	assert.Empty(t, tok)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Empty(t, tokens.lists["42"])
}

func TestManager_VerifyRejects(t *testing.T) {
	m := NewManager([]byte("secret"), newFakeTokens())
	other := NewManager([]byte("other"), newFakeTokens())

	foreign, err := other.Issue(context.Background(), "42")
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "42"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"malformed":   "not-a-token",
		"empty":       "",
		"wrong key":   foreign,
		"missing _id": noUser,
		"alg none":    none,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(tok)
			require.ErrorIs(t, err, ErrInvalidToken)
			require.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}
}

func TestManager_WithTokensKeepsKey(t *testing.T) {
	first := newFakeTokens()
	second := newFakeTokens()
	m := NewManager([]byte("secret"), first)
	bound := m.WithTokens(second)

	tok, err := bound.Issue(context.Background(), "7")
	require.NoError(t, err)
	assert.Empty(t, first.lists["7"])
	assert.Equal(t, []string{tok}, second.lists["7"])

	userID, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "7", userID)
}
