package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/domain"
	"github.com/taskward/taskward-api/internal/platform/logger"
	"github.com/taskward/taskward-api/internal/store"
)

// Identity is the verified subject of a valid access token, used by
// protected routes as their authorization gate.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Service orchestrates login, refresh and logout against the credential
// store. It owns the invariant that at most one refresh token is valid per
// account at any time: every issuance atomically overwrites the stored
// fingerprint, so the previous token becomes permanently unusable
// (rotation-on-use).
//
// All dependencies are injected; the service holds no mutable state of its
// own, so a single instance serves concurrent requests. Concurrent logins or
// refreshes for the same account resolve to last-write-wins on the stored
// fingerprint, which is safe: the losing writer's tokens simply fail their
// next refresh.
type Service struct {
	userStore        store.UserStore
	jwtService       JWTService
	passwordHasher   PasswordHasher
	passwordVerifier PasswordVerifier
	fingerprinter    Fingerprinter
	lockout          *LockoutGuard
	sink             AuditSink
	timeFunc         func() time.Time // Injectable for testing
}

// NewService creates a new auth Service with the given dependencies.
func NewService(
	userStore store.UserStore,
	jwtService JWTService,
	passwordHasher PasswordHasher,
	passwordVerifier PasswordVerifier,
	fingerprinter Fingerprinter,
	lockout *LockoutGuard,
	sink AuditSink,
) *Service {
	return &Service{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordHasher:   passwordHasher,
		passwordVerifier: passwordVerifier,
		fingerprinter:    fingerprinter,
		lockout:          lockout,
		sink:             sink,
		timeFunc:         time.Now,
	}
}

// Register creates a new user account with a hashed password.
// Returns store.ErrEmailExists if the email is already taken.
func (s *Service) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, name, password)
	if err != nil {
		return nil, err
	}

	hashed, err := s.passwordHasher.Hash(user.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.sink.Record(ctx, Event{Kind: EventRegister, UserID: user.ID, Email: user.Email})
	return user, nil
}

// Login authenticates the user and starts a fresh session.
//
// The lockout check runs before any credential work so a locked account
// reveals nothing about whether the password was correct. An unknown email
// and a wrong password both fail with ErrInvalidCredentials to prevent
// account enumeration. On success the failure counter is reset, a new token
// pair is issued, and the refresh token's fingerprint is stored atomically.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	log := logger.FromContext(ctx)
	email = domain.NormalizeEmail(email)

	if status := s.lockout.Check(ctx, email); status.Locked {
		s.sink.Record(ctx, Event{
			Kind:   EventLoginFailed,
			Email:  email,
			Reason: "account locked",
		})
		now := s.timeFunc()
		return nil, &LockedError{Until: now.Add(status.RetryAfter), Now: now}
	}

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, s.failLogin(ctx, email, "unknown email")
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.passwordVerifier.Compare(user.HashedPassword, password); err != nil {
		return nil, s.failLogin(ctx, email, "wrong password")
	}

	// Verified success: the counter resets regardless of its prior value.
	// A failed reset is logged but does not fail the login.
	if err := s.lockout.Reset(ctx, user.ID); err != nil {
		log.Warn("failed to reset lockout state after successful login",
			"error", err,
			"user_id", user.ID)
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, Event{Kind: EventLoginSuccess, UserID: user.ID, Email: user.Email})
	return pair, nil
}

// failLogin records the failure with the lockout guard and emits the audit
// event. If this failure crossed the lockout threshold, the lock is surfaced
// immediately; otherwise the caller gets the uniform invalid-credential error.
func (s *Service) failLogin(ctx context.Context, email, reason string) error {
	lockErr := s.lockout.RecordFailure(ctx, email)

	s.sink.Record(ctx, Event{
		Kind:   EventLoginFailed,
		Email:  email,
		Reason: reason,
	})

	if lockErr != nil {
		return lockErr
	}
	return ErrInvalidCredentials
}

// Refresh exchanges a valid refresh token for a brand-new pair.
//
// The fingerprint lookup runs FIRST: a structurally valid token that has
// been rotated away must be rejected before its signature earns any trust.
// Only then is the signature and expiry verified, and finally the decoded
// subject must match the account the fingerprint found. Success overwrites
// the stored fingerprint, so each refresh token works exactly once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	fingerprint := s.fingerprinter.Fingerprint(refreshToken)

	user, err := s.userStore.GetByRefreshFingerprint(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.sink.Record(ctx, Event{
				Kind:   EventTokenRefreshFailed,
				Reason: "unknown fingerprint",
			})
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		s.sink.Record(ctx, Event{
			Kind:   EventTokenRefreshFailed,
			UserID: user.ID,
			Email:  user.Email,
			Reason: "invalid refresh token",
		})
		return nil, err
	}

	// The store's own expiry is authoritative even if the token's exp claim
	// somehow disagrees.
	if user.RefreshTokenExpiresAt != nil && !s.timeFunc().Before(*user.RefreshTokenExpiresAt) {
		s.sink.Record(ctx, Event{
			Kind:   EventTokenRefreshFailed,
			UserID: user.ID,
			Email:  user.Email,
			Reason: "stored session expired",
		})
		return nil, ErrExpiredRefreshToken
	}

	if claims.UserID != user.ID {
		s.sink.Record(ctx, Event{
			Kind:   EventTokenRefreshFailed,
			UserID: user.ID,
			Email:  user.Email,
			Reason: "token subject does not match session owner",
		})
		return nil, ErrPayloadMismatch
	}

	pair, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.sink.Record(ctx, Event{Kind: EventTokenRefresh, UserID: user.ID, Email: user.Email})
	return pair, nil
}

// startSession issues a new token pair and atomically replaces the stored
// refresh fingerprint and expiry. The write commits the rotation: afterwards
// any previously issued refresh token is dead even if it leaked.
func (s *Service) startSession(ctx context.Context, user *domain.User) (*TokenPair, error) {
	pair, err := s.jwtService.IssueTokenPair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token pair: %w", err)
	}

	fingerprint := s.fingerprinter.Fingerprint(pair.RefreshToken)
	if err := s.userStore.UpdateRefreshState(ctx, user.ID, &fingerprint, &pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return pair, nil
}

// Logout unconditionally clears the user's refresh state, returning the
// account to "no session". The caller must already hold a valid access
// token; that gate lives in the API middleware.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.userStore.UpdateRefreshState(ctx, userID, nil, nil); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.sink.Record(ctx, Event{Kind: EventLogout, UserID: userID})
	return nil
}

// CheckAccess validates an access token and returns the identity it carries.
// Protected routes use this as their authorization gate. Every denial emits
// an UnauthorizedAccess audit record.
func (s *Service) CheckAccess(ctx context.Context, accessToken string) (*Identity, error) {
	claims, err := s.jwtService.ValidateToken(ctx, accessToken)
	if err != nil {
		s.sink.Record(ctx, Event{
			Kind:   EventUnauthorizedAccess,
			Reason: err.Error(),
		})
		return nil, err
	}

	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
