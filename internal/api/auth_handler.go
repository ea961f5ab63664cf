package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskward/taskward-api/internal/api/shared"
	"github.com/taskward/taskward-api/internal/domain"
	"github.com/taskward/taskward-api/internal/service/auth"
	"github.com/taskward/taskward-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
// If logger is nil, a default logger will be used.
func NewAuthHandler(authService *auth.Service, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService: authService,
		logger:      logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles the POST /api/auth/register endpoint.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email already exists")
			return
		}
		if isDomainValidationError(err) {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid user data: "+err.Error())
			return
		}
		h.logger.Error("failed to register user", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, RegisterResponse{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

// Login handles the POST /api/auth/login endpoint.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tokenResponse(pair))
}

// Refresh handles the POST /api/auth/refresh endpoint, exchanging a valid
// refresh token for a brand-new pair. The presented token is dead afterwards
// regardless of outcome on the client side: rotation happens server-side on
// every successful use.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest

	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, tokenResponse(pair))
}

// Logout handles the DELETE /api/auth/logout endpoint. The route is behind
// the auth middleware, so the identity comes from the validated access token
// rather than the request body.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.authService.Logout(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("failed to log out user", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to log out")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{"message": "logout successful"})
}

// respondAuthError maps auth service failures to the uniform client-facing
// shape. Locked accounts get the 423 treatment with a Retry-After; anything
// unexpected is logged in full and surfaced as a generic server error.
func (h *AuthHandler) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var locked *auth.LockedError
	if errors.As(err, &locked) {
		shared.RespondWithLocked(w, r,
			int(locked.Remaining().Seconds()),
			GetSafeErrorMessage(err))
		return
	}

	status := MapErrorToStatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("auth operation failed", "error", err, "path", r.URL.Path)
	}
	shared.RespondWithError(w, r, status, GetSafeErrorMessage(err))
}

// tokenResponse shapes a token pair for the wire, converting the access
// expiry to a relative duration in seconds.
func tokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int64(pair.AccessExpiresIn(time.Now()).Seconds()),
		TokenType:    "Bearer",
	}
}

// isDomainValidationError reports whether the error is one of the domain
// user validation failures that warrant a 400 response.
func isDomainValidationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrEmptyEmail) ||
		errors.Is(err, domain.ErrPasswordTooShort) ||
		errors.Is(err, domain.ErrPasswordTooLong) ||
		errors.Is(err, domain.ErrEmptyPassword)
}
