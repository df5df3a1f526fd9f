package avatar

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
)

// Store keeps one processed image per user. Get returns store.ErrNotFound
// when the user has none.
type Store interface {
	Put(ctx context.Context, userID string, png []byte) error
	Get(ctx context.Context, userID string) ([]byte, error)
	Delete(ctx context.Context, userID string) error
}

// DBStore keeps the image in the user row.
type DBStore struct {
	users store.Users
}

func NewDBStore(users store.Users) *DBStore { return &DBStore{users: users} }

func (s *DBStore) Put(ctx context.Context, userID string, png []byte) error {
	return s.users.SetAvatar(ctx, userID, png)
}

func (s *DBStore) Get(ctx context.Context, userID string) ([]byte, error) {
	return s.users.Avatar(ctx, userID)
}

func (s *DBStore) Delete(ctx context.Context, userID string) error {
	return s.users.SetAvatar(ctx, userID, nil)
}
