package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"-"` // Not serialized to JSON, used for logging
	// RetryAfter is the number of seconds until a locked or rate-limited
	// operation may be retried. Zero values are omitted.
	RetryAfter int    `json:"retry_after,omitempty"`
	TraceID    string `json:"trace_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response with the given status code
// and message. It also sets the TraceID from the request context if available.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	traceID := GetTraceID(r.Context())

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"trace_id", traceID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   message,
		Code:    status,
		TraceID: traceID,
	})
}

// RespondWithLocked writes the 423 Locked response carrying the number of
// seconds until the account may be retried, mirrored in the Retry-After
// header for well-behaved clients.
func RespondWithLocked(w http.ResponseWriter, r *http.Request, retryAfterSeconds int, message string) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	RespondWithJSON(w, r, http.StatusLocked, ErrorResponse{
		Error:      message,
		Code:       http.StatusLocked,
		RetryAfter: retryAfterSeconds,
		TraceID:    GetTraceID(r.Context()),
	})
}
