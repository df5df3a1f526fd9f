package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

const userColumns = `id, name, email, age, password_hash, created_at, updated_at`

// userRepo provides data access for the users and user_tokens tables.
type userRepo struct {
	q sqlx.ExtContext
}

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, name, email, age, password_hash, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.Age, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepo) GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error) {
	const q = `SELECT u.id, u.name, u.email, u.age, u.password_hash, u.created_at, u.updated_at
		FROM users u JOIN user_tokens t ON t.user_id = u.id
		WHERE u.id = $1 AND t.token = $2`
	return r.getOne(ctx, q, id, token)
}

func (r *userRepo) getOne(ctx context.Context, q string, args ...any) (*entity.User, error) {
	var u entity.User
	if err := sqlx.GetContext(ctx, r.q, &u, q, args...); err != nil {
		return nil, notFound(err)
	}
	tokens, err := r.tokens(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Tokens = tokens
	return &u, nil
}

func (r *userRepo) tokens(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT token FROM user_tokens WHERE user_id = $1 ORDER BY seq`
	var tokens []string
	if err := sqlx.SelectContext(ctx, r.q, &tokens, q, userID); err != nil {
		return nil, fmt.Errorf("select tokens: %w", err)
	}
	return tokens, nil
}

func (r *userRepo) Update(ctx context.Context, u *entity.User) error {
	const q = `UPDATE users SET name = $2, email = $3, age = $4, password_hash = $5, updated_at = $6 WHERE id = $1`
	res, err := r.q.ExecContext(ctx, q, u.ID, u.Name, u.Email, u.Age, u.PasswordHash, u.UpdatedAt)
	if err != nil {
		if pqCode(err) == codeUniqueViolation {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	return affected(res)
}

// Delete removes the user row. Tokens go with it; tasks must be gone first.
func (r *userRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return store.ErrOwnsTasks
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return affected(res)
}

func (r *userRepo) AppendToken(ctx context.Context, userID, token string) error {
	const q = `INSERT INTO user_tokens (user_id, token) VALUES ($1, $2)`
	if _, err := r.q.ExecContext(ctx, q, userID, token); err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return store.ErrNotFound
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *userRepo) RemoveToken(ctx context.Context, userID, token string) error {
	const q = `DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`
	if _, err := r.q.ExecContext(ctx, q, userID, token); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (r *userRepo) ClearTokens(ctx context.Context, userID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete tokens: %w", err)
	}
	return nil
}

func (r *userRepo) SetAvatar(ctx context.Context, userID string, img []byte) error {
	var arg any
	if img != nil {
		arg = img
	}
	res, err := r.q.ExecContext(ctx, `UPDATE users SET avatar = $2 WHERE id = $1`, userID, arg)
	if err != nil {
		return fmt.Errorf("update avatar: %w", err)
	}
	return affected(res)
}

func (r *userRepo) Avatar(ctx context.Context, userID string) ([]byte, error) {
	var img []byte
	if err := r.q.QueryRowxContext(ctx, `SELECT avatar FROM users WHERE id = $1`, userID).Scan(&img); err != nil {
		return nil, notFound(err)
	}
	if img == nil {
		return nil, store.ErrNotFound
	}
	return img, nil
}
