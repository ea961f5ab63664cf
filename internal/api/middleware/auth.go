package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskward/taskward-api/internal/api/shared"
	"github.com/taskward/taskward-api/internal/service/auth"
)

// AuthMiddleware provides access-token authentication for protected routes.
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates the Bearer access token from the Authorization
// header and adds the verified identity to the request context for
// authorized requests.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		identity, err := m.authService.CheckAccess(r.Context(), parts[1])
		if err != nil {
			switch {
			case err == auth.ErrExpiredToken:
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case err == auth.ErrInvalidToken || err == auth.ErrWrongTokenType:
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", err)
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, identity.UserID)
		ctx = context.WithValue(ctx, shared.UserEmailContextKey, identity.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
