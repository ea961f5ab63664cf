package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/domain"
)

// UserStore defines the interface for user data persistence. It is the
// credential store boundary used by the auth service: every state-changing
// operation below is a single atomic statement keyed by user id, so
// concurrent logins and refreshes for the same account resolve to
// last-write-wins on the stored refresh fingerprint.
type UserStore interface {
	// Create saves a new user to the store. The user's HashedPassword must
	// already be populated; plaintext passwords are never persisted.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their normalized email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByRefreshFingerprint retrieves the user whose stored refresh token
	// fingerprint matches the given digest. At most one user can match at
	// any time because fingerprints are overwritten atomically on rotation.
	// Returns ErrUserNotFound if no user holds that fingerprint.
	GetByRefreshFingerprint(ctx context.Context, fingerprint string) (*domain.User, error)

	// UpdateRefreshState atomically replaces the user's refresh token
	// fingerprint and expiry. Passing a nil fingerprint clears the session
	// (logout). The previous fingerprint becomes unusable in the same write.
	// Returns ErrUserNotFound if the user does not exist.
	UpdateRefreshState(ctx context.Context, userID uuid.UUID, fingerprint *string, expiresAt *time.Time) error

	// UpdateLockoutState atomically writes the failed-attempt counter, the
	// last-failure timestamp and the optional lock expiry for the user with
	// the given email. A missing email is not an error: lockout state must
	// never reveal whether an address is registered.
	UpdateLockoutState(ctx context.Context, email string, attempts int, lastFailedAt time.Time, lockedUntil *time.Time) error

	// ResetLockoutState zeroes the failed-attempt counter and clears both
	// lockout timestamps for the given user.
	// Returns ErrUserNotFound if the user does not exist.
	ResetLockoutState(ctx context.Context, userID uuid.UUID) error
}
