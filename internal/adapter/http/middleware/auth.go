package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iho/finledger/internal/infrastructure/auth"
)

// AuthorizationHeader carries the bearer token.
const AuthorizationHeader = "Authorization"

// authenticatedKey marks a tenant proven by a verified token rather than
// taken from a client-supplied header.
const authenticatedKey ContextKey = "authenticated_company"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token and stores the company and actor
// it names in the request context. The token's company takes precedence
// over the X-Company-ID header.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get(AuthorizationHeader), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				unauthorized(w, "missing authorization token")
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), CompanyContextKey, claims.CompanyID)
			ctx = context.WithValue(ctx, authenticatedKey, claims.CompanyID)
			if actor := claims.Actor(); actor != "" {
				ctx = context.WithValue(ctx, ActorContextKey, actor)
			}
			noteTenant(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}

// AuthenticatedCompany returns the tenant bound by a verified bearer token.
func AuthenticatedCompany(ctx context.Context) (string, bool) {
	companyID, ok := ctx.Value(authenticatedKey).(string)
	return companyID, ok && companyID != ""
}
