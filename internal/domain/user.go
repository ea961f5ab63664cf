package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID      = errors.New("user ID cannot be empty")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword    = errors.New("password cannot be empty")
)

// Password length bounds. The upper bound is bcrypt's practical input limit.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User represents a registered account. Alongside identity fields it carries
// the server-side session state (the fingerprint of the currently valid
// refresh token) and the lockout state maintained by the auth service.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name,omitempty"`
	Password       string    `json:"-"` // Plaintext password, only populated during registration
	HashedPassword string    `json:"-"` // Never expose password hash in JSON

	// RefreshTokenFingerprint holds a one-way digest of the currently valid
	// refresh token. Nil means the user has no active session. The raw token
	// is never stored.
	RefreshTokenFingerprint *string    `json:"-"`
	RefreshTokenExpiresAt   *time.Time `json:"-"`

	// Lockout state. LockedUntil in the future means authentication must be
	// refused regardless of credential correctness.
	FailedLoginAttempts int        `json:"-"`
	LastFailedLoginAt   *time.Time `json:"-"`
	LockedUntil         *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given email, name and plaintext password.
// It generates a new UUID for the user ID, normalizes the email to lower case
// and sets the creation/update timestamps. Returns an error if validation fails.
//
// NOTE: The caller is responsible for hashing the password before storing
// the user.
func NewUser(email, name, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     NormalizeEmail(email),
		Name:      strings.TrimSpace(name),
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail lower-cases and trims an email address so lookups and the
// unique constraint behave case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasSession reports whether the user currently has a refresh token
// fingerprint on record.
func (u *User) HasSession() bool {
	return u.RefreshTokenFingerprint != nil
}

// IsLocked reports whether the account lockout is in effect at the given time.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		if len(u.Password) < MinPasswordLength {
			return ErrPasswordTooShort
		}
		if len(u.Password) > MaxPasswordLength {
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the store carry only the hash.
		return ErrEmptyPassword
	}

	return nil
}

// validEmailFormat performs basic structural validation of an email address:
// a local part, an @, and a domain containing an interior dot. Handlers apply
// stricter validation with the validator package before this is reached.
func validEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}
