package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/config"
	"github.com/taskward/taskward-api/internal/domain"
	"github.com/taskward/taskward-api/internal/platform/logger"
	"github.com/taskward/taskward-api/internal/store"
)

// LockoutPolicy holds the brute-force lockout thresholds.
type LockoutPolicy struct {
	// MaxFailedAttempts is the failure count within the sliding window that
	// triggers a lock.
	MaxFailedAttempts int

	// Window is the sliding window within which failures accumulate.
	// A failure older than the window restarts the counter.
	Window time.Duration

	// LockDuration is how long the account stays locked once triggered.
	LockDuration time.Duration
}

// PolicyFromConfig builds a LockoutPolicy from the loaded configuration.
func PolicyFromConfig(cfg config.LockoutConfig) LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: cfg.MaxFailedAttempts,
		Window:            time.Duration(cfg.WindowMinutes) * time.Minute,
		LockDuration:      time.Duration(cfg.DurationMinutes) * time.Minute,
	}
}

// LockStatus is the result of a lockout check.
type LockStatus struct {
	Locked     bool
	RetryAfter time.Duration
}

// LockoutGuard tracks failed login attempts per account and decides when to
// temporarily lock an account. It is keyed by email rather than user ID
// because the decision must apply before any identity has been verified.
//
// Lockout state lives in the credential store; the guard itself is stateless,
// so any number of concurrent requests share one consistent view. Expired
// locks are cleared lazily on the next Check, no background sweep runs.
type LockoutGuard struct {
	userStore store.UserStore
	sink      AuditSink
	policy    LockoutPolicy
	timeFunc  func() time.Time // Injectable for testing
}

// NewLockoutGuard creates a new LockoutGuard with the given dependencies.
func NewLockoutGuard(userStore store.UserStore, sink AuditSink, policy LockoutPolicy) *LockoutGuard {
	return &LockoutGuard{
		userStore: userStore,
		sink:      sink,
		policy:    policy,
		timeFunc:  time.Now,
	}
}

// Check reports whether the account with the given email is currently locked.
// An unknown email is reported as not locked so the caller proceeds to the
// uniform invalid-credential failure: lockout state must never reveal whether
// an address is registered.
//
// If the store is unreachable the guard fails OPEN (the attempt is allowed)
// and the failure is logged as a monitored condition. Availability wins over
// strictness when the guard itself cannot decide.
func (g *LockoutGuard) Check(ctx context.Context, email string) LockStatus {
	log := logger.FromContext(ctx)
	now := g.timeFunc()

	user, err := g.userStore.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Warn("lockout check failed, failing open",
				"error", err,
				"email", email)
		}
		return LockStatus{Locked: false}
	}

	if user.IsLocked(now) {
		return LockStatus{
			Locked:     true,
			RetryAfter: user.LockedUntil.Sub(now),
		}
	}

	// Lazy expiry: a lock that has elapsed is cleared here, together with
	// the failed-attempt counter.
	if user.LockedUntil != nil {
		if err := g.userStore.ResetLockoutState(ctx, user.ID); err != nil {
			log.Warn("failed to clear expired lockout state",
				"error", err,
				"user_id", user.ID)
		}
	}

	return LockStatus{Locked: false}
}

// RecordFailure registers a failed login attempt for the given email. When
// the incremented count reaches the policy threshold the account is locked
// and an AccountLocked event is emitted; the returned LockedError is non-nil
// in that case so the caller can surface the lock on the attempt that
// crossed the threshold.
//
// Store failures are logged and swallowed: a broken counter must not turn
// every failed login into a server error.
func (g *LockoutGuard) RecordFailure(ctx context.Context, email string) *LockedError {
	log := logger.FromContext(ctx)
	now := g.timeFunc()
	email = domain.NormalizeEmail(email)

	user, err := g.userStore.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Warn("failed to load user for failure recording",
				"error", err,
				"email", email)
		}
		// Unknown accounts accumulate no state; the login flow still fails
		// with the uniform invalid-credential error.
		return nil
	}

	// Sliding window: a failure older than the window restarts the counter.
	attempts := 1
	if user.LastFailedLoginAt != nil && now.Sub(*user.LastFailedLoginAt) <= g.policy.Window {
		attempts = user.FailedLoginAttempts + 1
	}

	var lockedUntil *time.Time
	if attempts >= g.policy.MaxFailedAttempts {
		until := now.Add(g.policy.LockDuration)
		lockedUntil = &until
	}

	if err := g.userStore.UpdateLockoutState(ctx, email, attempts, now, lockedUntil); err != nil {
		log.Warn("failed to record login failure",
			"error", err,
			"email", email)
		return nil
	}

	if lockedUntil != nil {
		g.sink.Record(ctx, Event{
			Kind:   EventAccountLocked,
			UserID: user.ID,
			Email:  email,
			Reason: "failed login threshold reached",
		})
		log.Warn("account locked after repeated login failures",
			"email", email,
			"failed_attempts", attempts,
			"locked_until", *lockedUntil)
		return &LockedError{Until: *lockedUntil, Now: now}
	}

	log.Info("failed login attempt recorded",
		"email", email,
		"failed_attempts", attempts,
		"attempts_remaining", g.policy.MaxFailedAttempts-attempts)
	return nil
}

// Reset zeroes the failed-attempt counter and clears both lockout timestamps.
// Called only after a verified successful login.
func (g *LockoutGuard) Reset(ctx context.Context, userID uuid.UUID) error {
	return g.userStore.ResetLockoutState(ctx, userID)
}
