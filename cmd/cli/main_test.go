package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/infrastructure/auth"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// apiStub serves canned JSON bodies keyed by "METHOD path" and records the
// tenant header of every request.
func apiStub(t *testing.T, routes map[string]string) (*httptest.Server, *[]string) {
	t.Helper()

	var companies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		companies = append(companies, r.Header.Get(middleware.CompanyIDHeader))

		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"failed to get account","message":"account not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, &companies
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "lon...", truncate("longerstring", 6))
	assert.Equal(t, "lo", truncate("longerstring", 2))
}

func TestBalancesRecomputeAll(t *testing.T) {
	srv, companies := apiStub(t, map[string]string{
		"POST /api/v1/balances/recompute": `{"results":[
			{"account_id":"A","previous_balance":"10","current_balance":"10","snapshots_rewritten":0},
			{"account_id":"B","previous_balance":"5","current_balance":"7.5","snapshots_rewritten":2}
		]}`,
	})

	out, err := execute(t, "--url", srv.URL, "--company", "acme", "balances", "recompute")

	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, *companies)
	assert.Contains(t, out, "B\t5 -> 7.5\tsnapshots_rewritten=2\tREPAIRED")
	assert.NotContains(t, out, "A\t10 -> 10\tsnapshots_rewritten=0\tREPAIRED")
	assert.Contains(t, out, "2 accounts, 1 repaired")
}

func TestBalancesRecomputeOneAccount(t *testing.T) {
	srv, _ := apiStub(t, map[string]string{
		"POST /api/v1/accounts/A/chain/recompute":   `{"account_id":"A","snapshots_rewritten":3}`,
		"POST /api/v1/accounts/A/balance/recompute": `{"id":"A","current_balance":"42"}`,
	})

	out, err := execute(t, "--url", srv.URL, "--company", "acme", "balances", "recompute", "--account", "A")

	require.NoError(t, err)
	assert.Contains(t, out, "A\tbalance=42\tsnapshots_rewritten=3")
}

func TestReconcileReport(t *testing.T) {
	srv, _ := apiStub(t, map[string]string{
		"GET /api/v1/reconciliation": `{"company_id":"acme","total_accounts":2,"reconciled_accounts":1,"discrepancies":[
			{"account_id":"B","recorded_balance":"9","calculated_balance":"10","difference":"-1","chain_breaks":[{"movement_id":"M"}],"is_reconciled":false}
		]}`,
	})

	out, err := execute(t, "--url", srv.URL, "--company", "acme", "reconcile")

	assert.ErrorIs(t, err, errUnreconciled)
	assert.Contains(t, out, "B\tMISMATCH\trecorded=9\tcalculated=10\tdifference=-1\tchain_breaks=1")
	assert.Contains(t, out, "1/2 accounts reconciled")
}

func TestReconcileAccount(t *testing.T) {
	srv, _ := apiStub(t, map[string]string{
		"GET /api/v1/accounts/A/reconciliation": `{"account_id":"A","recorded_balance":"10","calculated_balance":"10","difference":"0","chain_breaks":[],"is_reconciled":true}`,
	})

	out, err := execute(t, "--url", srv.URL, "--company", "acme", "reconcile", "--account", "A")

	require.NoError(t, err)
	assert.Contains(t, out, "A\tOK")
}

func TestAPIErrorIsReported(t *testing.T) {
	srv, _ := apiStub(t, nil)

	_, err := execute(t, "--url", srv.URL, "--company", "acme", "reconcile", "--account", "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "account not found")
}

func TestCompanyIsRequired(t *testing.T) {
	t.Setenv("FINLEDGER_COMPANY", "")

	_, err := execute(t, "reconcile")

	assert.ErrorContains(t, err, "--company")
}

func TestMigrateCommands(t *testing.T) {
	origUp, origDown := migrateUp, migrateDown
	t.Cleanup(func() { migrateUp, migrateDown = origUp, origDown })

	var calls []string
	migrateUp = func(url, path string, _ zerolog.Logger) error {
		calls = append(calls, "up "+url+" "+path)
		return nil
	}
	migrateDown = func(url, path string, _ zerolog.Logger) error {
		calls = append(calls, "down "+url+" "+path)
		return errors.New("no migration to roll back")
	}

	_, err := execute(t, "migrate", "up", "--database-url", "postgres://db", "--path", "sql")
	require.NoError(t, err)

	_, err = execute(t, "migrate", "down", "--database-url", "postgres://db", "--path", "sql")
	assert.ErrorContains(t, err, "no migration")

	assert.Equal(t, []string{"up postgres://db sql", "down postgres://db sql"}, calls)
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	out, err := execute(t, "migrate", "up")

	require.Error(t, err)
	assert.True(t, strings.Contains(out, "DATABASE_URL"))
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, "--company", "acme", "--actor", "alice", "token", "--secret", "s3cret", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.NewTokenManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "acme", claims.CompanyID)
	assert.Equal(t, "alice", claims.Actor())
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "--company", "acme", "token")

	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestBearerTokenIsSent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(middleware.AuthorizationHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"company_id":"acme","total_accounts":0,"reconciled_accounts":0,"discrepancies":[]}`))
	}))
	t.Cleanup(srv.Close)

	_, err := execute(t, "--url", srv.URL, "--company", "acme", "--token", "abc", "reconcile")
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", got)
}
