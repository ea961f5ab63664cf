package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taskward/taskward-api/internal/api/shared"
	"github.com/taskward/taskward-api/internal/platform/logger"
	"github.com/taskward/taskward-api/internal/service/auth"
)

// Trace adds a trace ID and a request-scoped logger to the request context.
// It also captures the request metadata (origin IP, user agent, method and
// path) that the audit sink attaches to every security event, so the service
// layer never has to touch the raw request.
//
// This middleware should be applied early in the chain so that all
// subsequent handlers share the same trace ID.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := slog.With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, log)

		ctx = auth.WithRequestMeta(ctx, auth.RequestMeta{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			Method:    r.Method,
			Path:      r.URL.Path,
		})

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP resolves the request origin, preferring the first entry of
// X-Forwarded-For when a proxy is in front of us.
func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx >= 0 {
			forwarded = strings.TrimSpace(forwarded[:idx])
		}
		if forwarded != "" {
			return forwarded
		}
	}
	return r.RemoteAddr
}
