// Package auth resolves bearer tokens to an authenticated user.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

var (
	errMissingCredential = fmt.Errorf("%w: missing credential", apperr.ErrUnauthenticated)
	errRevoked           = fmt.Errorf("%w: revoked or unknown token", apperr.ErrUnauthenticated)
)

// Verifier checks a token signature and returns the user id inside it.
type Verifier interface {
	Verify(token string) (string, error)
}

// UserLookup finds a user only while token is still in its list.
type UserLookup interface {
	GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error)
}

// Gate is the request guard in front of every protected route.
type Gate struct {
	tokens Verifier
	users  UserLookup
	logger *zap.SugaredLogger
}

func NewGate(tokens Verifier, users UserLookup, logger *zap.SugaredLogger) *Gate {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Gate{tokens: tokens, users: users, logger: logger}
}

// Authenticate walks header -> signature -> user+token lookup. Every
// rejection wraps apperr.ErrUnauthenticated; a failing store comes back as
// apperr.ErrPersistence.
func (g *Gate) Authenticate(ctx context.Context, header string) (Identity, error) {
	token, ok := bearer(header)
	if !ok {
		return Identity{}, errMissingCredential
	}
	userID, err := g.tokens.Verify(token)
	if err != nil {
		return Identity{}, rejected(err)
	}
	u, err := g.users.GetByIDAndToken(ctx, userID, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Identity{}, errRevoked
		}
		return Identity{}, apperr.Persistence("resolve session user", err)
	}
	return Identity{User: u, Token: token}, nil
}

func rejected(err error) error {
	if errors.Is(err, apperr.ErrUnauthenticated) {
		return err
	}
	return fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// Middleware rejects unauthenticated requests with a uniform 401 and
// otherwise stores the identity on the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			status := apperr.Status(err)
			if status >= http.StatusInternalServerError {
				g.logger.Errorw("authentication lookup failed", "path", r.URL.Path, "err", err)
			} else {
				g.logger.Debugw("authentication rejected", "path", r.URL.Path, "reason", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": apperr.Message(err)})
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}
