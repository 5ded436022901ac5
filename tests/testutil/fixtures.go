// Package testutil wires the ledger against a real PostgreSQL database for
// integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	postgresRepo "github.com/iho/finledger/internal/adapter/repository/postgres"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/idgen"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/infrastructure/postgres"
	"github.com/iho/finledger/internal/usecase"
)

// TestDB provides isolated test database connections.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies the migrations. The test is
// skipped in -short mode or when DATABASE_URL is unset.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, migrationsPath(), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, dbURL, 20, 2)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	db := &TestDB{Pool: pool, t: t}
	t.Cleanup(pool.Close)

	db.TruncateAll(ctx)
	return db
}

// migrationsPath resolves the migrations directory from this file so tests
// work from any package directory.
func migrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE outbox_events, movements, accounts CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Ledger bundles the use cases wired against the test database.
type Ledger struct {
	Accounts       *usecase.AccountUseCase
	Movements      *usecase.MovementUseCase
	Transfers      *usecase.TransferUseCase
	Balances       *usecase.BalanceUseCase
	Reconciliation *usecase.ReconciliationUseCase
	Outbox         *postgresRepo.OutboxRepository
	Metrics        *metrics.Metrics
}

// NewLedger wires every use case on the pool with the postgres retrier.
func (db *TestDB) NewLedger() *Ledger {
	outbox := postgresRepo.NewOutboxRepository(db.Pool)
	m := metrics.New(prometheus.NewRegistry())

	retryCfg := postgresRepo.DefaultRetryConfig()
	retryCfg.MaxRetries = 10

	core := usecase.NewLedger(
		postgresRepo.NewTxManager(db.Pool),
		postgresRepo.NewAccountRepository(db.Pool),
		postgresRepo.NewMovementRepository(db.Pool),
		outbox,
		idgen.NewULIDGenerator(),
		postgresRepo.NewRetrier(retryCfg, zerolog.Nop()),
		m,
	)
	transfers := usecase.NewTransferUseCase(core)

	return &Ledger{
		Accounts:       usecase.NewAccountUseCase(core),
		Movements:      usecase.NewMovementUseCase(core, transfers),
		Transfers:      transfers,
		Balances:       usecase.NewBalanceUseCase(core),
		Reconciliation: usecase.NewReconciliationUseCase(core),
		Outbox:         outbox,
		Metrics:        m,
	}
}

// CreateAccount creates an active bank account through the use case.
func (l *Ledger) CreateAccount(t *testing.T, companyID string, initial decimal.Decimal) *domain.Account {
	t.Helper()

	opened := Date(2024, 1, 1)
	account, err := l.Accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID:      companyID,
		Type:           domain.AccountTypeBank,
		Description:    "test account",
		InitialBalance: initial,
		OpenedOn:       &opened,
		CreatedBy:      "tester",
	})
	if err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// Post posts a settled movement and fails the test on error.
func (l *Ledger) Post(t *testing.T, companyID, accountID string, typ domain.MovementType, amount decimal.Decimal, postedOn time.Time) *domain.Movement {
	t.Helper()

	input := usecase.PostMovementInput{
		CompanyID:   companyID,
		AccountID:   accountID,
		Type:        typ,
		Description: string(typ),
		PostedOn:    postedOn,
		Status:      domain.MovementStatusSettled,
		CreatedBy:   "tester",
	}
	if typ == domain.MovementTypeEntry {
		input.EntryAmount = amount
	} else {
		input.ExitAmount = amount
	}

	m, err := l.Movements.PostMovement(context.Background(), input)
	if err != nil {
		t.Fatalf("failed to post movement: %v", err)
	}
	return m
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
