package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing
type MockJWTService struct {
	// IssueTokenPairFn allows test cases to mock the IssueTokenPair behavior
	IssueTokenPairFn func(ctx context.Context, userID uuid.UUID, email string) (*auth.TokenPair, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// ValidateRefreshTokenFn allows test cases to mock the ValidateRefreshToken behavior
	ValidateRefreshTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default values used when functions aren't explicitly defined
	Pair        *auth.TokenPair
	IssueErr    error
	Claims      *auth.Claims
	ValidateErr error
}

// Ensure MockJWTService implements auth.JWTService
var _ auth.JWTService = (*MockJWTService)(nil)

// IssueTokenPair implements the auth.JWTService interface
func (m *MockJWTService) IssueTokenPair(
	ctx context.Context,
	userID uuid.UUID,
	email string,
) (*auth.TokenPair, error) {
	if m.IssueTokenPairFn != nil {
		return m.IssueTokenPairFn(ctx, userID, email)
	}
	return m.Pair, m.IssueErr
}

// ValidateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}

// ValidateRefreshToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*auth.Claims, error) {
	if m.ValidateRefreshTokenFn != nil {
		return m.ValidateRefreshTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}
