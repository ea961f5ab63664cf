package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskward/taskward-api/internal/api/shared"
	"github.com/taskward/taskward-api/internal/config"
	"github.com/taskward/taskward-api/internal/mocks"
	"github.com/taskward/taskward-api/internal/service/auth"
)

// newTestAuthService wires a real auth.Service against in-memory mocks so
// handler tests exercise the full request path below the router.
func newTestAuthService(t *testing.T) (*auth.Service, *mocks.MockUserStore, *mocks.MockAuditSink) {
	t.Helper()

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		AccessTokenSecret:           "access-secret-that-is-32-chars-long!",
		RefreshTokenSecret:          "refresh-secret-that-is-32-chars-long",
		FingerprintSecret:           "fingerprint-secret-that-is-32-chars!",
		AccessTokenLifetimeMinutes:  15,
		RefreshTokenLifetimeMinutes: 24 * 60,
		TokenIssuer:                 "taskward-api",
		TokenAudience:               "taskward-web",
	})
	require.NoError(t, err)

	fingerprinter, err := auth.NewHMACFingerprinter("fingerprint-secret-that-is-32-chars!")
	require.NoError(t, err)

	userStore := mocks.NewMockUserStore()
	sink := mocks.NewMockAuditSink()
	guard := auth.NewLockoutGuard(userStore, sink, auth.LockoutPolicy{
		MaxFailedAttempts: 3,
		Window:            15 * time.Minute,
		LockDuration:      30 * time.Minute,
	})
	hasher := auth.NewBcryptHasher()

	return auth.NewService(userStore, jwtService, hasher, hasher, fingerprinter, guard, sink),
		userStore, sink
}

// doJSON runs a handler against a JSON request body and returns the recorder.
func doJSON(handler http.HandlerFunc, method string, body interface{}, ctx context.Context) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, "/", &buf)
	req.Header.Set("Content-Type", "application/json")
	if ctx != nil {
		req = req.WithContext(ctx)
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc, nil)

	t.Run("success", func(t *testing.T) {
		rr := doJSON(handler.Register, http.MethodPost, RegisterRequest{
			Email:    "Alice@Example.com",
			Name:     "Alice",
			Password: "s3cret-password",
		}, nil)
		require.Equal(t, http.StatusCreated, rr.Code)

		var resp RegisterResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.Equal(t, "alice@example.com", resp.Email)
		assert.Equal(t, "Alice", resp.Name)
	})

	t.Run("duplicate email", func(t *testing.T) {
		rr := doJSON(handler.Register, http.MethodPost, RegisterRequest{
			Email:    "alice@example.com",
			Password: "another-password",
		}, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("{not json"))
		rr := httptest.NewRecorder()
		handler.Register(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		rr := doJSON(handler.Register, http.MethodPost, RegisterRequest{
			Email:    "not-an-email",
			Password: "s3cret-password",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("short password", func(t *testing.T) {
		rr := doJSON(handler.Register, http.MethodPost, RegisterRequest{
			Email:    "bob@example.com",
			Password: "tiny",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc, nil)

	_, err := svc.Register(context.Background(), "alice@example.com", "Alice", "s3cret-password")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		rr := doJSON(handler.Login, http.MethodPost, LoginRequest{
			Email:    "alice@example.com",
			Password: "s3cret-password",
		}, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp TokenResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Greater(t, resp.ExpiresIn, int64(0))
		assert.LessOrEqual(t, resp.ExpiresIn, int64(15*60))
	})

	t.Run("wrong password", func(t *testing.T) {
		rr := doJSON(handler.Login, http.MethodPost, LoginRequest{
			Email:    "alice@example.com",
			Password: "not-the-password",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid credentials", decodeError(t, rr).Error)
	})

	t.Run("unknown email looks identical", func(t *testing.T) {
		rr := doJSON(handler.Login, http.MethodPost, LoginRequest{
			Email:    "ghost@example.com",
			Password: "whatever-password",
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid credentials", decodeError(t, rr).Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := doJSON(handler.Login, http.MethodPost, LoginRequest{Email: "alice@example.com"}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLoginLockoutResponse(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc, nil)

	_, err := svc.Register(context.Background(), "bob@example.com", "Bob", "s3cret-password")
	require.NoError(t, err)

	wrong := LoginRequest{Email: "bob@example.com", Password: "not-the-password"}

	// Two failures below the threshold of three.
	for i := 0; i < 2; i++ {
		rr := doJSON(handler.Login, http.MethodPost, wrong, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	// The third crosses the threshold: 423 with Retry-After.
	rr := doJSON(handler.Login, http.MethodPost, wrong, nil)
	require.Equal(t, http.StatusLocked, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	resp := decodeError(t, rr)
	assert.Greater(t, resp.RetryAfter, 0)
	assert.Contains(t, resp.Error, "locked")

	// Correct credentials are refused while the lock holds.
	rr = doJSON(handler.Login, http.MethodPost, LoginRequest{
		Email:    "bob@example.com",
		Password: "s3cret-password",
	}, nil)
	assert.Equal(t, http.StatusLocked, rr.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc, nil)

	_, err := svc.Register(context.Background(), "alice@example.com", "Alice", "s3cret-password")
	require.NoError(t, err)
	pair, err := svc.Login(context.Background(), "alice@example.com", "s3cret-password")
	require.NoError(t, err)

	var rotated TokenResponse

	t.Run("success rotates the token", func(t *testing.T) {
		rr := doJSON(handler.Refresh, http.MethodPost, RefreshRequest{
			GrantType:    "refresh_token",
			RefreshToken: pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		require.NoError(t, json.NewDecoder(rr.Body).Decode(&rotated))
		assert.NotEmpty(t, rotated.RefreshToken)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	})

	t.Run("used token is rejected", func(t *testing.T) {
		rr := doJSON(handler.Refresh, http.MethodPost, RefreshRequest{
			GrantType:    "refresh_token",
			RefreshToken: pair.RefreshToken,
		}, nil)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "Invalid refresh token", decodeError(t, rr).Error)
	})

	t.Run("wrong grant type", func(t *testing.T) {
		rr := doJSON(handler.Refresh, http.MethodPost, RefreshRequest{
			GrantType:    "password",
			RefreshToken: rotated.RefreshToken,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := doJSON(handler.Refresh, http.MethodPost, RefreshRequest{
			GrantType: "refresh_token",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestAuthService(t)
	handler := NewAuthHandler(svc, nil)

	user, err := svc.Register(context.Background(), "alice@example.com", "Alice", "s3cret-password")
	require.NoError(t, err)
	pair, err := svc.Login(context.Background(), "alice@example.com", "s3cret-password")
	require.NoError(t, err)

	t.Run("without identity", func(t *testing.T) {
		rr := doJSON(handler.Logout, http.MethodDelete, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), shared.UserIDContextKey, uuid.New())
		rr := doJSON(handler.Logout, http.MethodDelete, nil, ctx)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("success kills the session", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), shared.UserIDContextKey, user.ID)
		rr := doJSON(handler.Logout, http.MethodDelete, nil, ctx)
		require.Equal(t, http.StatusOK, rr.Code)

		// The refresh token that was live before logout no longer works.
		rr = doJSON(handler.Refresh, http.MethodPost, RefreshRequest{
			GrantType:    "refresh_token",
			RefreshToken: pair.RefreshToken,
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
