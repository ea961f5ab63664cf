package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// EventKind enumerates the security-relevant events recorded by the audit sink.
type EventKind string

// Security event kinds.
const (
	EventLoginSuccess       EventKind = "LOGIN_SUCCESS"
	EventLoginFailed        EventKind = "LOGIN_FAILED"
	EventLogout             EventKind = "LOGOUT"
	EventRegister           EventKind = "REGISTER"
	EventTokenRefresh       EventKind = "TOKEN_REFRESH"
	EventTokenRefreshFailed EventKind = "TOKEN_REFRESH_FAILED"
	EventAccountLocked      EventKind = "ACCOUNT_LOCKED"
	EventUnauthorizedAccess EventKind = "UNAUTHORIZED_ACCESS"
)

// RequestMeta carries the network origin of the request being audited. The
// API middleware captures it into the context so the service layer never
// touches *http.Request directly.
type RequestMeta struct {
	IP        string
	UserAgent string
	Method    string
	Path      string
}

// requestMetaKey is the private context key for RequestMeta.
type requestMetaKey struct{}

// WithRequestMeta returns a new context carrying the given request metadata.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext retrieves request metadata from the context.
// Returns the zero value when none was captured (e.g. in tests).
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// Event is a single append-only audit record. Core logic only writes events,
// never reads them back; they are consumed by external monitoring.
type Event struct {
	Kind   EventKind
	UserID uuid.UUID // uuid.Nil when the subject is unknown
	Email  string
	Reason string
}

// AuditSink records security-relevant decisions. Implementations must be
// fire-and-forget: Record never returns an error and must never block or
// fail the parent operation. The primary request's correctness cannot depend
// on this observability path.
type AuditSink interface {
	Record(ctx context.Context, event Event)
}

// SlogAuditSink implements AuditSink on top of structured logging. Each event
// becomes one JSON log line tagged with the request metadata captured by the
// middleware.
type SlogAuditSink struct {
	logger *slog.Logger
}

// NewSlogAuditSink creates a new SlogAuditSink. If logger is nil, the process
// default logger is used.
func NewSlogAuditSink(logger *slog.Logger) *SlogAuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditSink{
		logger: logger.With(slog.String("component", "audit")),
	}
}

// Ensure SlogAuditSink implements AuditSink.
var _ AuditSink = (*SlogAuditSink)(nil)

// Record implements the AuditSink interface. Denials and lockouts are logged
// at WARN, everything else at INFO.
func (s *SlogAuditSink) Record(ctx context.Context, event Event) {
	meta := RequestMetaFromContext(ctx)

	attrs := []any{
		"event", string(event.Kind),
		"ip", meta.IP,
		"user_agent", meta.UserAgent,
		"method", meta.Method,
		"path", meta.Path,
	}
	if event.UserID != uuid.Nil {
		attrs = append(attrs, "user_id", event.UserID)
	}
	if event.Email != "" {
		attrs = append(attrs, "email", event.Email)
	}
	if event.Reason != "" {
		attrs = append(attrs, "reason", event.Reason)
	}

	switch event.Kind {
	case EventLoginFailed, EventTokenRefreshFailed, EventAccountLocked, EventUnauthorizedAccess:
		s.logger.WarnContext(ctx, "security event", attrs...)
	default:
		s.logger.InfoContext(ctx, "security event", attrs...)
	}
}
