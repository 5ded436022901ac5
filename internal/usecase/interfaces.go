package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// Repository methods that take a Transaction accept nil to run outside of a
// transaction.

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, tx Transaction, companyID, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, companyID, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, companyID string, ids []string) ([]*domain.Account, error)
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	UpdateCurrentBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, recalculatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
	List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
	ListIDs(ctx context.Context, companyID string) ([]string, error)
}

// MovementRepository defines data access for movements.
type MovementRepository interface {
	Create(ctx context.Context, tx Transaction, movement *domain.Movement) error
	GetByID(ctx context.Context, tx Transaction, companyID, id string) (*domain.Movement, error)
	GetByTransfer(ctx context.Context, tx Transaction, companyID, transferID string) ([]*domain.Movement, error)
	Update(ctx context.Context, tx Transaction, movement *domain.Movement) error
	Delete(ctx context.Context, tx Transaction, id string) error
	UpdateSnapshots(ctx context.Context, tx Transaction, snapshots []domain.BalanceSnapshot) error
	ListSettledByAccount(ctx context.Context, tx Transaction, accountID string) ([]*domain.Movement, error)
	CountByAccount(ctx context.Context, tx Transaction, accountID string) (int64, error)
	List(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation when the storage reports a transient conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Delete releases a key whose request did not complete.
	Delete(ctx context.Context, key string) error
}
