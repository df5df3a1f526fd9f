// Package store defines the persistence contract shared by the Postgres
// and in-memory backends.
package store

import (
	"context"
	"errors"

	taskentity "github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrOwnsTasks      = errors.New("user still owns tasks")
)

// Users is the users collection together with its token list and avatar.
type Users interface {
	Create(ctx context.Context, u *entity.User) error
	// GetByID loads the user and its tokens.
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIDAndToken matches only while token is still in the user's list.
	GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error)
	// Update writes name, email, age, password_hash and updated_at.
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error

	AppendToken(ctx context.Context, userID, token string) error
	RemoveToken(ctx context.Context, userID, token string) error
	ClearTokens(ctx context.Context, userID string) error

	// SetAvatar stores img; nil clears it.
	SetAvatar(ctx context.Context, userID string, img []byte) error
	Avatar(ctx context.Context, userID string) ([]byte, error)
}

// Tasks is the tasks collection. Every lookup is keyed by owner as well.
type Tasks interface {
	Create(ctx context.Context, t *taskentity.Task) error
	List(ctx context.Context, ownerID string, opts taskentity.ListOptions) ([]taskentity.Task, error)
	GetOwned(ctx context.Context, id, ownerID string) (*taskentity.Task, error)
	// Update writes description, progress and updated_at of the task
	// matching both t.ID and t.OwnerID.
	Update(ctx context.Context, t *taskentity.Task) error
	DeleteOwned(ctx context.Context, id, ownerID string) (*taskentity.Task, error)
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}

// Store groups the collections. WithTx runs fn against a Store whose
// writes commit together or not at all; nested calls join the outer one.
type Store interface {
	Users() Users
	Tasks() Tasks
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
