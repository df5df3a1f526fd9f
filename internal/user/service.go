package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

// Notifier sends account emails. Calls must not block or fail the caller.
type Notifier interface {
	Welcome(email, name string)
	Cancellation(email, name string)
}

// AvatarRemover drops avatar data kept outside the user row.
type AvatarRemover interface {
	Delete(ctx context.Context, userID string) error
}

// IDGenerator hands out new user ids.
type IDGenerator interface {
	NewID() string
}

// Service orchestrates registration, login, profile and account deletion.
type Service struct {
	store    store.Store
	sessions *session.Manager
	hasher   PasswordHasher
	ids      IDGenerator
	notifier Notifier
	avatars  AvatarRemover
	now      func() time.Time
	logger   *zap.SugaredLogger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option           { return func(s *Service) { s.notifier = n } }
func WithAvatarRemover(a AvatarRemover) Option { return func(s *Service) { s.avatars = a } }
func WithClock(now func() time.Time) Option    { return func(s *Service) { s.now = now } }

func NewService(st store.Store, sessions *session.Manager, hasher PasswordHasher, ids IDGenerator, logger *zap.SugaredLogger, opts ...Option) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: DefaultBcryptCost}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{
		store:    st,
		sessions: sessions,
		hasher:   hasher,
		ids:      ids,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("email is invalid")
	}
	return email, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.Validation("name is required")
	}
	return name, nil
}

func validateAge(age int) error {
	if age < 0 {
		return apperr.Validation("age must be a non-negative number")
	}
	return nil
}

// Register creates the account and its first session in one transaction.
func (s *Service) Register(ctx context.Context, reg entity.Registration) (*entity.User, string, error) {
	name, err := normalizeName(reg.Name)
	if err != nil {
		return nil, "", err
	}
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return nil, "", err
	}
	if err := validateAge(reg.Age); err != nil {
		return nil, "", err
	}
	pw, err := ValidatePassword(reg.Password)
	if err != nil {
		return nil, "", err
	}
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return nil, "", apperr.Persistence("hash password", err)
	}

	now := s.now()
	u := &entity.User{
		ID:           s.ids.NewID(),
		Name:         name,
		Email:        email,
		Age:          reg.Age,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var token string
	err = s.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		tok, err := s.sessions.WithTokens(tx.Users()).Issue(ctx, u.ID)
		if err != nil {
			return err
		}
		token = tok
		return nil
	})
	if err != nil {
		return nil, "", store.Classify("register", err)
	}
	u.Tokens = []string{token}

	s.logger.Infow("user registered", "user_id", u.ID)
	if s.notifier != nil {
		s.notifier.Welcome(u.Email, u.Name)
	}
	return u, token, nil
}

// Login checks the credentials and opens a new session. Unknown email and
// wrong password fail the same way.
func (s *Service) Login(ctx context.Context, creds entity.Credentials) (*entity.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	u, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", apperr.ErrUnauthenticated
		}
		return nil, "", store.Classify("login", err)
	}
	if !s.hasher.Verify(u.PasswordHash, strings.TrimSpace(creds.Password)) {
		return nil, "", apperr.ErrUnauthenticated
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.rehash(ctx, u, strings.TrimSpace(creds.Password))
	}

	token, err := s.sessions.Issue(ctx, u.ID)
	if err != nil {
		return nil, "", store.Classify("login", err)
	}
	u.Tokens = append(u.Tokens, token)
	return u, token, nil
}

func (s *Service) rehash(ctx context.Context, u *entity.User, pw string) {
	hash, err := s.hasher.Hash(pw)
	if err != nil {
		s.logger.Warnw("rehash failed", "user_id", u.ID, "err", err)
		return
	}
	updated := *u
	updated.PasswordHash = hash
	if err := s.store.Users().Update(ctx, &updated); err != nil {
		s.logger.Warnw("rehash not persisted", "user_id", u.ID, "err", err)
		return
	}
	u.PasswordHash = hash
}

// Logout revokes only the session presenting token.
func (s *Service) Logout(ctx context.Context, userID, token string) error {
	return store.Classify("logout", s.sessions.Revoke(ctx, userID, token))
}

// LogoutAll revokes every session of the user.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	return store.Classify("logout all", s.sessions.RevokeAll(ctx, userID))
}

// Profile loads the user by id.
func (s *Service) Profile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, store.Classify("profile", err)
	}
	return u, nil
}

// UpdateProfile validates every present field before touching the user,
// so a bad field leaves the record unchanged. The password is rehashed
// only when it is part of the update.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd entity.ProfileUpdate) (*entity.User, error) {
	var (
		name, email, hash string
		err               error
	)
	if upd.Name != nil {
		if name, err = normalizeName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Email != nil {
		if email, err = normalizeEmail(*upd.Email); err != nil {
			return nil, err
		}
	}
	if upd.Age != nil {
		if err := validateAge(*upd.Age); err != nil {
			return nil, err
		}
	}
	if upd.Password != nil {
		pw, err := ValidatePassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		if hash, err = s.hasher.Hash(pw); err != nil {
			return nil, apperr.Persistence("hash password", err)
		}
	}

	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, store.Classify("update profile", err)
	}
	if upd.Empty() {
		return u, nil
	}
	if upd.Name != nil {
		u.Name = name
	}
	if upd.Email != nil {
		u.Email = email
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.Password != nil {
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now()
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, store.Classify("update profile", err)
	}
	return u, nil
}

// DeleteAccount removes the user's tasks and then the user in one
// transaction. Avatar cleanup and the goodbye email happen afterwards and
// never fail the call.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (*entity.User, error) {
	var deleted *entity.User
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		n, err := tx.Tasks().DeleteByOwner(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Users().Delete(ctx, userID); err != nil {
			return err
		}
		s.logger.Debugw("cascade deleted tasks", "user_id", userID, "tasks", n)
		deleted = u
		return nil
	})
	if err != nil {
		return nil, store.Classify("delete account", err)
	}

	if s.avatars != nil {
		if err := s.avatars.Delete(ctx, userID); err != nil {
			s.logger.Warnw("avatar cleanup failed", "user_id", userID, "err", err)
		}
	}
	s.logger.Infow("user deleted", "user_id", userID)
	if s.notifier != nil {
		s.notifier.Cancellation(deleted.Email, deleted.Name)
	}
	return deleted, nil
}
