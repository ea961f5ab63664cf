package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// IssueTokenPair creates a signed access/refresh token pair for the user.
	// The two tokens are signed with distinct secrets so that possession of
	// one can never forge the other. The reported expiries are decoded back
	// from the signed tokens themselves, guaranteeing the values match what
	// the signatures cover.
	IssueTokenPair(ctx context.Context, userID uuid.UUID, email string) (*TokenPair, error)

	// ValidateToken validates the provided access token string and extracts
	// the claims. Returns the claims containing user information if the token
	// is valid, or an error if validation fails (expired, invalid signature,
	// wrong token type, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// ValidateRefreshToken validates the provided refresh token string and
	// extracts the claims, using the refresh signing secret.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// TokenPair bundles a newly issued access/refresh credential pair together
// with the absolute expiry of each token.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AccessExpiresIn returns the remaining access token lifetime relative to
// now. Handlers expose this duration (in seconds) to clients instead of a
// raw timestamp.
func (p *TokenPair) AccessExpiresIn(now time.Time) time.Duration {
	remaining := p.AccessExpiresAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Claims represents the custom claims structure for the JWT tokens.
// It extends standard JWT registered claims with application-specific fields.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// Email is the user's email at issuance time.
	Email string `json:"email,omitempty"`

	// TokenType indicates the purpose of the token ("access" or "refresh").
	// Used to prevent token misuse across different contexts.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
