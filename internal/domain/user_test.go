package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	t.Run("normalizes email and trims name", func(t *testing.T) {
		t.Parallel()
		user, err := NewUser("  Alice@Example.COM ", "  Alice  ", "s3cret-password")
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "Alice", user.Name)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.False(t, user.HasSession())
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()
		_, err := NewUser("alice@example.com", "", "short")
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("rejects overlong password", func(t *testing.T) {
		t.Parallel()
		_, err := NewUser("alice@example.com", "", strings.Repeat("x", 73))
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()
		for _, email := range []string{"", "no-at-sign", "@nodomain", "user@", "user@nodot"} {
			_, err := NewUser(email, "", "s3cret-password")
			assert.Error(t, err, "expected %q to be rejected", email)
		}
	})
}

func TestUserIsLocked(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	user := &User{}

	assert.False(t, user.IsLocked(now))

	until := now.Add(30 * time.Minute)
	user.LockedUntil = &until
	assert.True(t, user.IsLocked(now))
	assert.True(t, user.IsLocked(now.Add(29*time.Minute)))
	// The boundary instant counts as unlocked.
	assert.False(t, user.IsLocked(until))
	assert.False(t, user.IsLocked(until.Add(time.Second)))
}

func TestValidateStoredUser(t *testing.T) {
	t.Parallel()

	// Users loaded from the store carry only the hash, never the plaintext.
	user := &User{
		ID:             uuid.New(),
		Email:          "alice@example.com",
		HashedPassword: "$2a$10$abcdefghijklmnopqrstuv",
	}
	assert.NoError(t, user.Validate())

	user.HashedPassword = ""
	assert.ErrorIs(t, user.Validate(), ErrEmptyPassword)
}
