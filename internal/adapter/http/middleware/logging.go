package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const requestTenantKey ContextKey = "request_tenant"

// requestTenant is filled in by the tenant middlewares further down the chain
// so the access log can report who the request was served for.
type requestTenant struct {
	company string
	actor   string
}

// noteTenant records the resolved tenant of ctx for the access log.
func noteTenant(ctx context.Context) {
	note, ok := ctx.Value(requestTenantKey).(*requestTenant)
	if !ok {
		return
	}
	note.company, _ = CompanyFromContext(ctx)
	note.actor = ActorFromContext(ctx)
}

// LoggingMiddleware writes one access log line per request.
type LoggingMiddleware struct {
	logger zerolog.Logger
}

func NewLoggingMiddleware(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Wrap logs the request once the handler returns. The tenant is the one
// resolved by Authenticate or RequireCompany; an unvalidated X-Company-ID
// header is never logged as the tenant.
func (m *LoggingMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		note := &requestTenant{}
		r = r.WithContext(context.WithValue(r.Context(), requestTenantKey, note))

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		level := zerolog.InfoLevel
		switch {
		case wrapped.statusCode >= 500:
			level = zerolog.ErrorLevel
		case wrapped.statusCode >= 400:
			level = zerolog.WarnLevel
		}

		event := m.logger.WithLevel(level).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Int("bytes", wrapped.bytes).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr)
		if note.company != "" {
			event = event.Str("company_id", note.company)
		}
		if note.actor != "" {
			event = event.Str("actor", note.actor)
		}
		event.Msg("request completed")
	})
}

type statusRecorder struct {
	http.ResponseWriter

	statusCode int
	bytes      int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
