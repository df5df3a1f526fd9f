package auth

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

// Identity is what the gate attaches to an authenticated request. Token is
// the exact bearer string so logout can revoke only this session.
type Identity struct {
	User  *entity.User
	Token string
}

type ctxKey struct{}

func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity set by the gate, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.User != nil
}
