package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/adapter/http/handler"
	apimiddleware "github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/adapter/repository/memory"
	"github.com/iho/finledger/internal/infrastructure/idgen"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/usecase"
)

const testCompany = "acme"

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	store := memory.NewStore()
	ledger := usecase.NewLedger(
		store,
		memory.NewAccountRepository(store),
		memory.NewMovementRepository(store),
		memory.NewOutboxRepository(store),
		idgen.NewULIDGenerator(),
		nil,
		metrics.New(prometheus.NewRegistry()),
	)
	transfers := usecase.NewTransferUseCase(ledger)

	cfg := RouterConfig{
		AccountHandler:  handler.NewAccountHandler(usecase.NewAccountUseCase(ledger)),
		MovementHandler: handler.NewMovementHandler(usecase.NewMovementUseCase(ledger, transfers)),
		TransferHandler: handler.NewTransferHandler(transfers),
		BalanceHandler: handler.NewBalanceHandler(
			usecase.NewBalanceUseCase(ledger),
			usecase.NewReconciliationUseCase(ledger),
		),
		HealthHandler: handler.NewHealthHandler(nil),
		Logger:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func do(t *testing.T, router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set(apimiddleware.CompanyIDHeader, testCompany)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRouter_APIRequiresCompany(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = apimiddleware.NewRateLimiter(1, 1)
	}))

	send := func(path, company string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "1.2.3.4:1234"
		req.Header.Set(apimiddleware.CompanyIDHeader, company)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("/api/v1/accounts/", testCompany))
	assert.Equal(t, http.StatusTooManyRequests, send("/api/v1/accounts/", "another-company"))
	assert.Equal(t, http.StatusOK, send("/health", testCompany), "health checks are not limited")
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = apimiddleware.NewHTTPMetrics(reg)
		cfg.Gatherer = reg
	}))

	do(t, router, http.MethodGet, "/api/v1/accounts/", "", nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/v1/accounts/",status="200"} 1`)
}

func TestNewRouter_LedgerFlow(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := do(t, router, http.MethodPost, "/api/v1/accounts/",
		`{"type":"bank","description":"Checking","initial_balance":"100.00","opened_on":"2024-01-01"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	checking := decode(t, rec)["id"].(string)

	rec = do(t, router, http.MethodPost, "/api/v1/accounts/", `{"type":"cash","description":"Petty cash"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cash := decode(t, rec)["id"].(string)

	rec = do(t, router, http.MethodPost, "/api/v1/movements/",
		`{"account_id":"`+checking+`","type":"exit","exit_amount":"30","description":"Rent","posted_on":"2024-01-10","status":"settled"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "70", decode(t, rec)["balance_after"])

	rec = do(t, router, http.MethodPost, "/api/v1/transfers/",
		`{"source_account_id":"`+checking+`","destination_account_id":"`+cash+`","amount":"20","posted_on":"2024-01-15"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	transferID := decode(t, rec)["id"].(string)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/"+checking, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "50", decode(t, rec)["current_balance"])

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/"+cash+"/balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "20", decode(t, rec)["balance"])

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/"+checking+"/movements", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["count"])

	rec = do(t, router, http.MethodGet, "/api/v1/reconciliation", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode(t, rec)
	assert.EqualValues(t, 2, report["total_accounts"])
	assert.EqualValues(t, 2, report["reconciled_accounts"])

	rec = do(t, router, http.MethodDelete, "/api/v1/transfers/"+transferID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/"+cash, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", decode(t, rec)["current_balance"])

	rec = do(t, router, http.MethodDelete, "/api/v1/accounts/"+checking, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deactivated", decode(t, rec)["outcome"])

	rec = do(t, router, http.MethodDelete, "/api/v1/accounts/"+cash, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decode(t, rec)["outcome"])
}

func TestNewRouter_TenantIsolation(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := do(t, router, http.MethodPost, "/api/v1/accounts/", `{"type":"bank","description":"Checking"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["id"].(string)

	rec = do(t, router, http.MethodGet, "/api/v1/accounts/"+id, "", map[string]string{apimiddleware.CompanyIDHeader: "globex"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRouter_IdempotentReplay(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = newStubIdempotencyStore()
		cfg.IdempotencyTTL = time.Hour
	}))

	headers := map[string]string{apimiddleware.IdempotencyKeyHeader: "key-123"}
	body := `{"type":"bank","description":"Checking"}`

	first := do(t, router, http.MethodPost, "/api/v1/accounts/", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := do(t, router, http.MethodPost, "/api/v1/accounts/", body, headers)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(apimiddleware.IdempotencyReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := do(t, router, http.MethodGet, "/api/v1/accounts/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Routes)
	require.True(t, ok, "router does not implement chi.Routes")

	seen := map[string]bool{}
	require.NoError(t, chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}))

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/accounts/",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{id}",
		"PATCH /api/v1/accounts/{id}",
		"DELETE /api/v1/accounts/{id}",
		"GET /api/v1/accounts/{id}/balance",
		"POST /api/v1/accounts/{id}/chain/recompute",
		"POST /api/v1/movements/",
		"PATCH /api/v1/movements/{id}",
		"POST /api/v1/transfers/",
		"DELETE /api/v1/transfers/{id}",
		"POST /api/v1/balances/recompute",
		"GET /api/v1/reconciliation",
	}

	for _, route := range expected {
		assert.True(t, seen[route], "expected route %s to be registered", route)
	}
}

type stubIdempotencyStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{data: make(map[string][]byte)}
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.data[key]; ok {
		return true, existing, nil
	}
	s.data[key] = response
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = response
	return nil
}

func (s *stubIdempotencyStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}
