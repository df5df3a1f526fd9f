package user

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 8

const minPasswordLen = 7

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return DefaultBcryptCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports whether hash was produced with a lower cost than the
// one configured now.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return c < b.cost()
}

// ValidatePassword trims pw and applies the password rules. The trimmed
// value is what gets hashed.
func ValidatePassword(pw string) (string, error) {
	pw = strings.TrimSpace(pw)
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return "", fmt.Errorf("%w: password must be longer than %d characters", apperr.ErrInvalidCredential, minPasswordLen-1)
	}
	if strings.Contains(strings.ToLower(pw), "password") {
		return "", fmt.Errorf("%w: password cannot contain \"password\"", apperr.ErrInvalidCredential)
	}
	return pw, nil
}
