package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "exactly six", in: "abcdef", wantErr: true},
		{name: "seven", in: "abcdefg", want: "abcdefg"},
		{name: "trimmed before length check", in: "  abcdef  ", wantErr: true},
		{name: "trimmed value returned", in: " longenough1 ", want: "longenough1"},
		{name: "contains password", in: "mypassword123", wantErr: true},
		{name: "contains password any case", in: "MyPaSsWoRd!!", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "four accented letters", in: "éééé", wantErr: true},
		{name: "five cjk characters", in: "密码密码密", wantErr: true},
		{name: "seven multibyte characters", in: "密码密码密码密", want: "密码密码密码密"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePassword(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrInvalidCredential)
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("longenough1")
	require.NoError(t, err)
	assert.NotEqual(t, "longenough1", hash)
	assert.True(t, h.Verify(hash, "longenough1"))
	assert.False(t, h.Verify(hash, "longenough2"))

	again, err := h.Hash("longenough1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "hashes are salted")

	assert.False(t, h.NeedsRehash(hash))
	assert.True(t, BcryptHasher{Cost: bcrypt.MinCost + 1}.NeedsRehash(hash))
	assert.False(t, h.NeedsRehash("not-a-bcrypt-hash"))
}

func TestBcryptHasherDefaultCost(t *testing.T) {
	hash, err := BcryptHasher{}.Hash("longenough1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}
