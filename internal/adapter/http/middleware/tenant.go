package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iho/finledger/internal/domain"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// CompanyContextKey is the context key for the tenant of a request
	CompanyContextKey ContextKey = "company"
	// ActorContextKey is the context key for the user acting on the tenant's behalf
	ActorContextKey ContextKey = "actor"
)

// Header names carrying the tenant and the acting user.
const (
	CompanyIDHeader = "X-Company-ID"
	ActorHeader     = "X-User-ID"
)

// RequireCompany rejects requests without a valid X-Company-ID header and
// stores the tenant and the optional actor in the request context. Requests
// already bound to a company by Authenticate pass through unchanged.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CompanyFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		companyID := strings.TrimSpace(r.Header.Get(CompanyIDHeader))
		if err := domain.ValidateCompanyID(companyID); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "missing or invalid " + CompanyIDHeader + " header",
				"message": err.Error(),
			})
			return
		}

		ctx := context.WithValue(r.Context(), CompanyContextKey, companyID)
		if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
			ctx = context.WithValue(ctx, ActorContextKey, actor)
		}
		noteTenant(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CompanyFromContext returns the tenant stored by RequireCompany.
func CompanyFromContext(ctx context.Context) (string, bool) {
	companyID, ok := ctx.Value(CompanyContextKey).(string)
	return companyID, ok && companyID != ""
}

// ActorFromContext returns the acting user, or an empty string.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(ActorContextKey).(string)
	return actor
}
