package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/infrastructure/auth"
)

func TestAuthenticate(t *testing.T) {
	manager := auth.NewTokenManager("secret", time.Minute)
	token, err := manager.Generate("acme", "alice")
	require.NoError(t, err)

	tests := []struct {
		name        string
		header      string
		company     string
		wantStatus  int
		wantCompany string
		wantActor   string
	}{
		{name: "valid", header: "Bearer " + token, wantStatus: http.StatusOK, wantCompany: "acme", wantActor: "alice"},
		{name: "token overrides header", header: "Bearer " + token, company: "globex", wantStatus: http.StatusOK, wantCompany: "acme", wantActor: "alice"},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCompany, gotActor string
			handler := Authenticate(manager)(RequireCompany(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCompany, _ = CompanyFromContext(r.Context())
				gotActor = ActorFromContext(r.Context())
			})))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set(AuthorizationHeader, tt.header)
			}
			if tt.company != "" {
				req.Header.Set(CompanyIDHeader, tt.company)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCompany, gotCompany)
			assert.Equal(t, tt.wantActor, gotActor)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
