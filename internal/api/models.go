package api

import (
	"github.com/google/uuid"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"omitempty,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// RegisterResponse defines the successful response for the registration endpoint.
type RegisterResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name,omitempty"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// RefreshRequest defines the payload for the token refresh endpoint.
// The grant_type field follows the OAuth2 refresh grant shape.
type RefreshRequest struct {
	GrantType    string `json:"grant_type"    validate:"required,eq=refresh_token"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenResponse defines the successful response for login and refresh.
// ExpiresIn is the access token lifetime remaining, in seconds - clients get
// a duration rather than a raw timestamp so their own clock never matters.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// TaskRequest defines the payload for creating or updating a task.
type TaskRequest struct {
	Title       string `json:"title"       validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Completed   bool   `json:"completed"`
}
