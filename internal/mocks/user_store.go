package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/domain"
	"github.com/taskward/taskward-api/internal/store"
)

// MockUserStore implements store.UserStore for testing. The default
// implementation is an in-memory map keyed by email; individual methods can
// be overridden through the function fields. All default operations are
// mutex-guarded so concurrent tests behave like the real store.
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn                  func(ctx context.Context, user *domain.User) error
	GetByEmailFn              func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn                 func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByRefreshFingerprintFn func(ctx context.Context, fingerprint string) (*domain.User, error)
	UpdateRefreshStateFn      func(ctx context.Context, userID uuid.UUID, fingerprint *string, expiresAt *time.Time) error
	UpdateLockoutStateFn      func(ctx context.Context, email string, attempts int, lastFailedAt time.Time, lockedUntil *time.Time) error
	ResetLockoutStateFn       func(ctx context.Context, userID uuid.UUID) error

	mu sync.Mutex

	// Users holds the default in-memory state, keyed by email.
	Users map[string]*domain.User
}

// Ensure MockUserStore implements store.UserStore
var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		Users: make(map[string]*domain.User),
	}
}

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.Users[user.Email]; exists {
		return store.ErrEmailExists
	}

	m.Users[user.Email] = user
	return nil
}

// GetByEmail implements the UserStore interface
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.Users[email]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if user := m.findByID(id); user != nil {
		copied := *user
		return &copied, nil
	}

	return nil, store.ErrUserNotFound
}

// GetByRefreshFingerprint implements the UserStore interface
func (m *MockUserStore) GetByRefreshFingerprint(
	ctx context.Context,
	fingerprint string,
) (*domain.User, error) {
	if m.GetByRefreshFingerprintFn != nil {
		return m.GetByRefreshFingerprintFn(ctx, fingerprint)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.Users {
		if user.RefreshTokenFingerprint != nil && *user.RefreshTokenFingerprint == fingerprint {
			copied := *user
			return &copied, nil
		}
	}

	return nil, store.ErrUserNotFound
}

// UpdateRefreshState implements the UserStore interface
func (m *MockUserStore) UpdateRefreshState(
	ctx context.Context,
	userID uuid.UUID,
	fingerprint *string,
	expiresAt *time.Time,
) error {
	if m.UpdateRefreshStateFn != nil {
		return m.UpdateRefreshStateFn(ctx, userID, fingerprint, expiresAt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user := m.findByID(userID)
	if user == nil {
		return store.ErrUserNotFound
	}

	user.RefreshTokenFingerprint = fingerprint
	user.RefreshTokenExpiresAt = expiresAt
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateLockoutState implements the UserStore interface
func (m *MockUserStore) UpdateLockoutState(
	ctx context.Context,
	email string,
	attempts int,
	lastFailedAt time.Time,
	lockedUntil *time.Time,
) error {
	if m.UpdateLockoutStateFn != nil {
		return m.UpdateLockoutStateFn(ctx, email, attempts, lastFailedAt, lockedUntil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, exists := m.Users[email]
	if !exists {
		// Matches the real store: unknown emails are silently ignored.
		return nil
	}

	user.FailedLoginAttempts = attempts
	user.LastFailedLoginAt = &lastFailedAt
	user.LockedUntil = lockedUntil
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// ResetLockoutState implements the UserStore interface
func (m *MockUserStore) ResetLockoutState(ctx context.Context, userID uuid.UUID) error {
	if m.ResetLockoutStateFn != nil {
		return m.ResetLockoutStateFn(ctx, userID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user := m.findByID(userID)
	if user == nil {
		return store.ErrUserNotFound
	}

	user.FailedLoginAttempts = 0
	user.LastFailedLoginAt = nil
	user.LockedUntil = nil
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// findByID searches the default map for a user ID. Caller must hold mu.
func (m *MockUserStore) findByID(id uuid.UUID) *domain.User {
	for _, user := range m.Users {
		if user.ID == id {
			return user
		}
	}
	return nil
}
