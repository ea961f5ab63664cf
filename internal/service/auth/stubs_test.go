package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskward/taskward-api/internal/config"
	"github.com/taskward/taskward-api/internal/domain"
	"github.com/taskward/taskward-api/internal/store"
)

// testAuthConfig returns a valid AuthConfig for tests. The two signing
// secrets differ, matching the constructor's requirement.
func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:           "access-secret-that-is-32-chars-long!",
		RefreshTokenSecret:          "refresh-secret-that-is-32-chars-long",
		FingerprintSecret:           "fingerprint-secret-that-is-32-chars!",
		AccessTokenLifetimeMinutes:  15,
		RefreshTokenLifetimeMinutes: 24 * 60,
		TokenIssuer:                 "taskward-api",
		TokenAudience:               "taskward-web",
	}
}

// testLockoutConfig returns the default lockout policy settings.
func testLockoutConfig() config.LockoutConfig {
	return config.LockoutConfig{
		MaxFailedAttempts: 5,
		WindowMinutes:     15,
		DurationMinutes:   30,
	}
}

// newTestJWTService creates an hmacJWTService with an injected clock.
func newTestJWTService(t *testing.T, timeFunc func() time.Time) *hmacJWTService {
	t.Helper()

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err, "failed to create test JWT service")

	impl, ok := svc.(*hmacJWTService)
	require.True(t, ok)
	if timeFunc != nil {
		impl.timeFunc = timeFunc
	}
	return impl
}

// memUserStore is an in-memory store.UserStore for exercising the guard and
// service without an import of the shared mocks package (which would cycle
// back into this one). Forced errors simulate an unreachable store.
type memUserStore struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by email

	getByEmailErr    error
	updateLockoutErr error
}

var _ store.UserStore = (*memUserStore)(nil)

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*domain.User)}
}

func (s *memUserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return store.ErrEmailExists
	}
	s.users[user.Email] = user
	return nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.getByEmailErr != nil {
		return nil, s.getByEmailErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[email]
	if !exists {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user := s.findByID(id); user != nil {
		copied := *user
		return &copied, nil
	}
	return nil, store.ErrUserNotFound
}

func (s *memUserStore) GetByRefreshFingerprint(
	_ context.Context,
	fingerprint string,
) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.RefreshTokenFingerprint != nil && *user.RefreshTokenFingerprint == fingerprint {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *memUserStore) UpdateRefreshState(
	_ context.Context,
	userID uuid.UUID,
	fingerprint *string,
	expiresAt *time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.findByID(userID)
	if user == nil {
		return store.ErrUserNotFound
	}
	user.RefreshTokenFingerprint = fingerprint
	user.RefreshTokenExpiresAt = expiresAt
	return nil
}

func (s *memUserStore) UpdateLockoutState(
	_ context.Context,
	email string,
	attempts int,
	lastFailedAt time.Time,
	lockedUntil *time.Time,
) error {
	if s.updateLockoutErr != nil {
		return s.updateLockoutErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[email]
	if !exists {
		return nil
	}
	user.FailedLoginAttempts = attempts
	user.LastFailedLoginAt = &lastFailedAt
	user.LockedUntil = lockedUntil
	return nil
}

func (s *memUserStore) ResetLockoutState(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.findByID(userID)
	if user == nil {
		return store.ErrUserNotFound
	}
	user.FailedLoginAttempts = 0
	user.LastFailedLoginAt = nil
	user.LockedUntil = nil
	return nil
}

// findByID searches by user ID. Caller must hold mu.
func (s *memUserStore) findByID(id uuid.UUID) *domain.User {
	for _, user := range s.users {
		if user.ID == id {
			return user
		}
	}
	return nil
}

// mustUser returns the stored user for an email, failing the test otherwise.
func (s *memUserStore) mustUser(t *testing.T, email string) *domain.User {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[email]
	require.True(t, exists, "expected user %q in store", email)
	copied := *user
	return &copied
}

// addUser inserts a user with a real bcrypt hash of the given password.
// MinCost keeps test runtime reasonable.
func (s *memUserStore) addUser(t *testing.T, email, password string) *domain.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:             uuid.New(),
		Email:          domain.NormalizeEmail(email),
		HashedPassword: string(hashed),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Email] = user
	return user
}

// captureSink is an AuditSink that collects events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

var _ AuditSink = (*captureSink)(nil)

func (s *captureSink) Record(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) ofKind(kind EventKind) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Event
	for _, event := range s.events {
		if event.Kind == kind {
			matched = append(matched, event)
		}
	}
	return matched
}
