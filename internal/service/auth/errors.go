package auth

import (
	"errors"
	"fmt"
	"time"
)

// Common authentication service errors
var (
	// ErrInvalidToken indicates the access token format is invalid or the
	// signature doesn't match.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the access token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrInvalidRefreshToken indicates the refresh token format is invalid
	// or the signature doesn't match.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrExpiredRefreshToken indicates the refresh token has expired.
	ErrExpiredRefreshToken = errors.New("refresh token has expired")

	// ErrWrongTokenType indicates a token was presented in the wrong role,
	// e.g. a refresh token offered where an access token is required.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrInvalidCredentials is the uniform failure for a login attempt with
	// an unknown email or a wrong password. The two cases are deliberately
	// indistinguishable to the caller to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionNotFound indicates no account holds the fingerprint of the
	// presented refresh token: it was rotated away, revoked by logout, or
	// never issued.
	ErrSessionNotFound = errors.New("refresh session not found")

	// ErrPayloadMismatch indicates the claims decoded from an otherwise
	// valid refresh token disagree with the account found by fingerprint.
	// This implies tampering or a fingerprint collision and is always fatal
	// to the request.
	ErrPayloadMismatch = errors.New("token payload does not match session")

	// ErrAccountLocked is the sentinel matched by errors.Is for any
	// LockedError. Callers needing the remaining time use errors.As.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrStoreUnavailable indicates the credential store failed. It is
	// surfaced to clients as a generic server error, never with detail.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// LockedError reports an active account lockout together with the time at
// which it expires. It matches ErrAccountLocked under errors.Is.
type LockedError struct {
	Until time.Time
	Now   time.Time
}

// Error implements the error interface.
func (e *LockedError) Error() string {
	return fmt.Sprintf("account temporarily locked for %ds", int(e.Remaining().Seconds()))
}

// Is makes errors.Is(err, ErrAccountLocked) succeed for LockedError values.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// Remaining returns how long the lockout is still in effect, never negative.
func (e *LockedError) Remaining() time.Duration {
	remaining := e.Until.Sub(e.Now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
