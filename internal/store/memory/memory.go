// Package memory is a process-local Store used by tests and the
// STORE_DRIVER=memory mode. All access is serialized by one mutex and
// callers only ever receive copies.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
	taskentity "github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

type userRow struct {
	user   entity.User
	avatar []byte
}

type state struct {
	users  map[string]*userRow
	emails map[string]string
	tasks  []taskentity.Task
}

func newState() *state {
	return &state{users: map[string]*userRow{}, emails: map[string]string{}}
}

func (s *state) clone() *state {
	c := newState()
	for id, row := range s.users {
		u := row.user
		u.Tokens = append([]string(nil), row.user.Tokens...)
		c.users[id] = &userRow{user: u, avatar: append([]byte(nil), row.avatar...)}
	}
	for e, id := range s.emails {
		c.emails[e] = id
	}
	c.tasks = append([]taskentity.Task(nil), s.tasks...)
	return c
}

// Store keeps everything in maps. A transaction holds the mutex for its
// whole run and restores a snapshot if fn fails.
type Store struct {
	mu   sync.Mutex
	data *state
}

func New() *Store { return &Store{data: newState()} }

func (s *Store) Users() store.Users { return &users{view{s: s, lock: true}} }
func (s *Store) Tasks() store.Tasks { return &tasks{view{s: s, lock: true}} }

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(ctx, &txStore{s: s}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// txStore is the Store seen inside WithTx. The mutex is already held.
type txStore struct{ s *Store }

func (t *txStore) Users() store.Users { return &users{view{s: t.s}} }
func (t *txStore) Tasks() store.Tasks { return &tasks{view{s: t.s}} }
func (t *txStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return fn(ctx, t)
}

type view struct {
	s    *Store
	lock bool
}

func (v view) do(fn func(*state) error) error {
	if v.lock {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.data)
}

func copyUser(u entity.User) *entity.User {
	u.Tokens = append([]string(nil), u.Tokens...)
	return &u
}

type users struct{ view }

func (r *users) Create(_ context.Context, u *entity.User) error {
	return r.do(func(st *state) error {
		if _, ok := st.emails[u.Email]; ok {
			return store.ErrDuplicateEmail
		}
		st.users[u.ID] = &userRow{user: *copyUser(*u)}
		st.emails[u.Email] = u.ID
		return nil
	})
}

func (r *users) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.do(func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return store.ErrNotFound
		}
		out = copyUser(row.user)
		return nil
	})
	return out, err
}

func (r *users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.do(func(st *state) error {
		id, ok := st.emails[email]
		if !ok {
			return store.ErrNotFound
		}
		out = copyUser(st.users[id].user)
		return nil
	})
	return out, err
}

func (r *users) GetByIDAndToken(_ context.Context, id, token string) (*entity.User, error) {
	var out *entity.User
	err := r.do(func(st *state) error {
		row, ok := st.users[id]
		if !ok || !row.user.HasToken(token) {
			return store.ErrNotFound
		}
		out = copyUser(row.user)
		return nil
	})
	return out, err
}

func (r *users) Update(_ context.Context, u *entity.User) error {
	return r.do(func(st *state) error {
		row, ok := st.users[u.ID]
		if !ok {
			return store.ErrNotFound
		}
		if u.Email != row.user.Email {
			if _, taken := st.emails[u.Email]; taken {
				return store.ErrDuplicateEmail
			}
			delete(st.emails, row.user.Email)
			st.emails[u.Email] = u.ID
		}
		row.user.Name = u.Name
		row.user.Email = u.Email
		row.user.Age = u.Age
		row.user.PasswordHash = u.PasswordHash
		row.user.UpdatedAt = u.UpdatedAt
		return nil
	})
}

func (r *users) Delete(_ context.Context, id string) error {
	return r.do(func(st *state) error {
		row, ok := st.users[id]
		if !ok {
			return store.ErrNotFound
		}
		for _, t := range st.tasks {
			if t.OwnerID == id {
				return store.ErrOwnsTasks
			}
		}
		delete(st.emails, row.user.Email)
		delete(st.users, id)
		return nil
	})
}

func (r *users) AppendToken(_ context.Context, userID, token string) error {
	return r.do(func(st *state) error {
		row, ok := st.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		row.user.Tokens = append(row.user.Tokens, token)
		return nil
	})
}

func (r *users) RemoveToken(_ context.Context, userID, token string) error {
	return r.do(func(st *state) error {
		row, ok := st.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		kept := row.user.Tokens[:0]
		for _, t := range row.user.Tokens {
			if t != token {
				kept = append(kept, t)
			}
		}
		row.user.Tokens = kept
		return nil
	})
}

func (r *users) ClearTokens(_ context.Context, userID string) error {
	return r.do(func(st *state) error {
		row, ok := st.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		row.user.Tokens = nil
		return nil
	})
}

func (r *users) SetAvatar(_ context.Context, userID string, img []byte) error {
	return r.do(func(st *state) error {
		row, ok := st.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		if img == nil {
			row.avatar = nil
			return nil
		}
		row.avatar = append([]byte{}, img...)
		return nil
	})
}

func (r *users) Avatar(_ context.Context, userID string) ([]byte, error) {
	var out []byte
	err := r.do(func(st *state) error {
		row, ok := st.users[userID]
		if !ok || row.avatar == nil {
			return store.ErrNotFound
		}
		out = append([]byte(nil), row.avatar...)
		return nil
	})
	return out, err
}

type tasks struct{ view }

func (r *tasks) Create(_ context.Context, t *taskentity.Task) error {
	return r.do(func(st *state) error {
		if _, ok := st.users[t.OwnerID]; !ok {
			return store.ErrNotFound
		}
		st.tasks = append(st.tasks, *t)
		return nil
	})
}

func (r *tasks) List(_ context.Context, ownerID string, opts taskentity.ListOptions) ([]taskentity.Task, error) {
	var out []taskentity.Task
	err := r.do(func(st *state) error {
		for _, t := range st.tasks {
			if t.OwnerID != ownerID {
				continue
			}
			if opts.Progress != nil && t.Progress != *opts.Progress {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opts.SortBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			if opts.Desc {
				return less(out[j], out[i], opts.SortBy)
			}
			return less(out[i], out[j], opts.SortBy)
		})
	}
	if opts.Skip > 0 {
		if opts.Skip >= len(out) {
			return []taskentity.Task{}, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	if out == nil {
		out = []taskentity.Task{}
	}
	return out, nil
}

func less(a, b taskentity.Task, col string) bool {
	switch col {
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Before(b.UpdatedAt)
	case "description":
		return a.Description < b.Description
	case "progress":
		return !a.Progress && b.Progress
	}
	return false
}

func (r *tasks) GetOwned(_ context.Context, id, ownerID string) (*taskentity.Task, error) {
	var out *taskentity.Task
	err := r.do(func(st *state) error {
		for _, t := range st.tasks {
			if t.ID == id && t.OwnerID == ownerID {
				found := t
				out = &found
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r *tasks) Update(_ context.Context, t *taskentity.Task) error {
	return r.do(func(st *state) error {
		for i := range st.tasks {
			cur := &st.tasks[i]
			if cur.ID == t.ID && cur.OwnerID == t.OwnerID {
				cur.Description = t.Description
				cur.Progress = t.Progress
				cur.UpdatedAt = t.UpdatedAt
				return nil
			}
		}
		return store.ErrNotFound
	})
}

func (r *tasks) DeleteOwned(_ context.Context, id, ownerID string) (*taskentity.Task, error) {
	var out *taskentity.Task
	err := r.do(func(st *state) error {
		for i, t := range st.tasks {
			if t.ID == id && t.OwnerID == ownerID {
				removed := t
				out = &removed
				st.tasks = append(st.tasks[:i], st.tasks[i+1:]...)
				return nil
			}
		}
		return store.ErrNotFound
	})
	return out, err
}

func (r *tasks) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.do(func(st *state) error {
		kept := st.tasks[:0]
		for _, t := range st.tasks {
			if t.OwnerID == ownerID {
				n++
				continue
			}
			kept = append(kept, t)
		}
		st.tasks = kept
		return nil
	})
	return n, err
}
