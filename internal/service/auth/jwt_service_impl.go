package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskward/taskward-api/internal/config"
	"github.com/taskward/taskward-api/internal/platform/logger"
)

// Token type claim values.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA signing
// with distinct secrets for access and refresh tokens.
type hmacJWTService struct {
	accessKey       []byte
	refreshKey      []byte
	accessLifetime  time.Duration
	refreshLifetime time.Duration
	issuer          string
	audience        string
	timeFunc        func() time.Time // Injectable for testing
	clockSkew       time.Duration    // Allowed time difference for validation to handle clock drift
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	Email     string    `json:"email"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacJWTService implements JWTService interface
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.AccessTokenSecret) < 32 {
		return nil, fmt.Errorf("access token secret must be at least 32 characters")
	}
	if len(cfg.RefreshTokenSecret) < 32 {
		return nil, fmt.Errorf("refresh token secret must be at least 32 characters")
	}
	// A shared secret would let an attacker replay a refresh token as an
	// access token and vice versa.
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, fmt.Errorf("access and refresh token secrets must differ")
	}

	return &hmacJWTService{
		accessKey:       []byte(cfg.AccessTokenSecret),
		refreshKey:      []byte(cfg.RefreshTokenSecret),
		accessLifetime:  time.Duration(cfg.AccessTokenLifetimeMinutes) * time.Minute,
		refreshLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		issuer:          cfg.TokenIssuer,
		audience:        cfg.TokenAudience,
		timeFunc:        time.Now,
		clockSkew:       2 * time.Minute, // Allow 2 minutes of clock skew to handle minor time drifts
	}, nil
}

// IssueTokenPair creates a signed access/refresh token pair for the user.
func (s *hmacJWTService) IssueTokenPair(
	ctx context.Context,
	userID uuid.UUID,
	email string,
) (*TokenPair, error) {
	now := s.timeFunc()

	accessToken, err := s.sign(ctx, userID, email, tokenTypeAccess, now, now.Add(s.accessLifetime))
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.sign(ctx, userID, email, tokenTypeRefresh, now, now.Add(s.refreshLifetime))
	if err != nil {
		return nil, err
	}

	// Decode the expiries back out of the signed tokens so the reported
	// values always agree with what the signatures cover.
	accessExpiry, err := decodeExpiry(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode access token expiry: %w", err)
	}
	refreshExpiry, err := decodeExpiry(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decode refresh token expiry: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// sign builds and signs a single token of the given type.
func (s *hmacJWTService) sign(
	ctx context.Context,
	userID uuid.UUID,
	email string,
	tokenType string,
	issuedAt time.Time,
	expiresAt time.Time,
) (string, error) {
	log := logger.FromContext(ctx)

	claims := jwtCustomClaims{
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(), // Unique token ID
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.keyFor(tokenType))
	if err != nil {
		log.Error("failed to sign JWT token",
			"error", err,
			"user_id", userID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	return signedToken, nil
}

func (s *hmacJWTService) keyFor(tokenType string) []byte {
	if tokenType == tokenTypeRefresh {
		return s.refreshKey
	}
	return s.accessKey
}

// decodeExpiry extracts the exp claim from a signed token without verifying
// the signature. Only used on tokens this service just signed itself.
func decodeExpiry(tokenString string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &jwtCustomClaims{})
	if err != nil {
		return time.Time{}, err
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token carries no expiry claim")
	}

	return claims.ExpiresAt.Time, nil
}

// ValidateToken validates a JWT access token and returns the claims if valid.
// It verifies the token has type "access" and returns ErrWrongTokenType if not.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.validate(ctx, tokenString, tokenTypeAccess)
}

// ValidateRefreshToken validates a JWT refresh token and returns the claims
// if valid. Same contract as ValidateToken but against the refresh secret.
func (s *hmacJWTService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	return s.validate(ctx, tokenString, tokenTypeRefresh)
}

func (s *hmacJWTService) validate(
	ctx context.Context,
	tokenString string,
	wantType string,
) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithLeeway(s.clockSkew), // Allow for clock skew when validating time claims
		jwt.WithTimeFunc(func() time.Time {
			return now // Use our injected time function for validation
		}),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method is what we expect
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.keyFor(wantType), nil
		},
		parserOpts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Debug("token validation failed: token expired",
				"error", err,
				"token_type", wantType)
			return nil, s.expiredError(wantType)
		}

		log.Debug("token validation failed",
			"error", err,
			"token_type", wantType,
			"error_type", fmt.Sprintf("%T", err))
		return nil, s.invalidError(wantType)
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims", "token_type", wantType)
		return nil, s.invalidError(wantType)
	}

	if claims.TokenType != wantType {
		log.Debug("token validation failed: wrong token type",
			"expected", wantType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	log.Debug("token validated successfully",
		"user_id", claims.UserID,
		"token_id", claims.ID,
		"token_type", wantType,
		"expiry", claims.ExpiresAt.Time)

	return &Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}

func (s *hmacJWTService) expiredError(tokenType string) error {
	if tokenType == tokenTypeRefresh {
		return ErrExpiredRefreshToken
	}
	return ErrExpiredToken
}

func (s *hmacJWTService) invalidError(tokenType string) error {
	if tokenType == tokenTypeRefresh {
		return ErrInvalidRefreshToken
	}
	return ErrInvalidToken
}
