package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/metrics"
)

// Ledger bundles the ports shared by the use cases that write movements and
// owns the posting and recomputation steps they all run inside a transaction.
//
// Every writing transaction locks the rows of the accounts it touches before
// reading their movements, so writers on one account are serialized while
// writers on different accounts proceed in parallel.
type Ledger struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	movementRepo MovementRepository
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	retrier      Retrier
	metrics      *metrics.Metrics
	txTimeout    time.Duration
}

// NewLedger creates a new Ledger. outboxRepo, retrier and metrics may be nil.
func NewLedger(
	txManager TransactionManager,
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics *metrics.Metrics,
) *Ledger {
	return &Ledger{
		txManager:    txManager,
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		retrier:      retrier,
		metrics:      metrics,
		txTimeout:    DefaultTransactionTimeout,
	}
}

// WithTransactionTimeout overrides DefaultTransactionTimeout.
func (l *Ledger) WithTransactionTimeout(timeout time.Duration) *Ledger {
	if timeout > 0 {
		l.txTimeout = timeout
	}
	return l
}

// inTx runs fn in a transaction bounded by the ledger timeout and commits it
// when fn succeeds. With a retrier configured the whole transaction is re-run
// on transient storage conflicts, so fn must not leak state between attempts.
func (l *Ledger) inTx(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, l.txTimeout)
		defer cancel()

		tx, err := l.txManager.Begin(txCtx)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		if err := tx.Commit(txCtx); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}

		return nil
	}

	if l.retrier == nil {
		return attempt()
	}

	return l.retrier.Retry(ctx, attempt)
}

// lockAccounts locks the given accounts in ascending ID order and returns
// them by ID. Duplicates are ignored.
func (l *Ledger) lockAccounts(ctx context.Context, tx Transaction, companyID string, ids ...string) (map[string]*domain.Account, error) {
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(unique, id) {
			unique = append(unique, id)
		}
	}
	slices.Sort(unique)

	accounts, err := l.accountRepo.GetByIDsForUpdate(ctx, tx, companyID, unique)
	if err != nil {
		return nil, fmt.Errorf("lock accounts: %w", err)
	}

	if len(accounts) != len(unique) {
		return nil, domain.ErrAccountNotFound
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, acc := range accounts {
		byID[acc.ID] = acc
	}

	return byID, nil
}

// post inserts m against a locked account. The snapshots are taken from the
// account's cached balance and then corrected by the chain recomputation,
// which also refreshes the cache.
func (l *Ledger) post(ctx context.Context, tx Transaction, account *domain.Account, m *domain.Movement) error {
	m.BalanceBefore = account.CurrentBalance
	m.BalanceAfter = account.CurrentBalance.Add(m.SignedEffect())

	if err := l.movementRepo.Create(ctx, tx, m); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	if _, err := l.repair(ctx, tx, account, "post"); err != nil {
		return err
	}

	// Re-read the snapshots the recomputation settled on.
	if m.IsSettled() {
		stored, err := l.movementRepo.GetByID(ctx, tx, m.CompanyID, m.ID)
		if err != nil {
			return fmt.Errorf("reload movement %s: %w", m.ID, err)
		}
		m.BalanceBefore, m.BalanceAfter = stored.BalanceBefore, stored.BalanceAfter
	}

	return nil
}

// repair rebuilds the running-balance chain of a locked account and rewrites
// its cached balance from the settled movements. It returns the number of
// snapshots rewritten.
func (l *Ledger) repair(ctx context.Context, tx Transaction, account *domain.Account, trigger string) (int, error) {
	start := time.Now()

	movements, err := l.movementRepo.ListSettledByAccount(ctx, tx, account.ID)
	if err != nil {
		return 0, fmt.Errorf("list movements of account %s: %w", account.ID, err)
	}

	rewritten, err := l.rewriteChain(ctx, tx, movements)
	if err != nil {
		return 0, fmt.Errorf("recompute chain of account %s: %w", account.ID, err)
	}

	if err := l.storeBalance(ctx, tx, account, movements); err != nil {
		return 0, fmt.Errorf("recompute balance of account %s: %w", account.ID, err)
	}

	if l.metrics != nil {
		l.metrics.Recomputations.WithLabelValues(trigger).Inc()
		l.metrics.SnapshotsRewritten.Add(float64(rewritten))
		l.metrics.ChainLength.Observe(float64(len(movements)))
		l.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	}

	return rewritten, nil
}

func (l *Ledger) rewriteChain(ctx context.Context, tx Transaction, movements []*domain.Movement) (int, error) {
	changed, _ := domain.RecomputeChain(movements)
	if len(changed) == 0 {
		return 0, nil
	}

	if err := l.movementRepo.UpdateSnapshots(ctx, tx, changed); err != nil {
		return 0, err
	}

	return len(changed), nil
}

func (l *Ledger) storeBalance(ctx context.Context, tx Transaction, account *domain.Account, movements []*domain.Movement) error {
	balance := domain.CalculateBalance(movements)
	at := now()

	if err := l.accountRepo.UpdateCurrentBalance(ctx, tx, account.ID, balance, at); err != nil {
		return err
	}

	account.CurrentBalance = balance
	account.LastRecalculatedAt = &at

	return nil
}

// deleteMovements removes the given movements and repairs every account
// they belonged to. The accounts must already be locked.
func (l *Ledger) deleteMovements(ctx context.Context, tx Transaction, accounts map[string]*domain.Account, movements []*domain.Movement) error {
	for _, m := range movements {
		if err := l.movementRepo.Delete(ctx, tx, m.ID); err != nil {
			return fmt.Errorf("delete movement %s: %w", m.ID, err)
		}
	}

	return l.repairAll(ctx, tx, accounts, "delete")
}

// repairAll repairs the locked accounts in ascending ID order.
func (l *Ledger) repairAll(ctx context.Context, tx Transaction, accounts map[string]*domain.Account, trigger string) error {
	ids := make([]string, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, err := l.repair(ctx, tx, accounts[id], trigger); err != nil {
			return err
		}
	}

	return nil
}

// emit writes an outbox event in the current transaction.
func (l *Ledger) emit(ctx context.Context, tx Transaction, companyID, aggregateType, aggregateID, eventType string, payload map[string]any) error {
	if l.outboxRepo == nil {
		return nil
	}

	event := &domain.OutboxEvent{
		ID:            l.idGen.Generate(),
		CompanyID:     companyID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}

	if err := l.outboxRepo.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("write %s event: %w", eventType, err)
	}

	return nil
}

// now returns the timestamp stored as CreatedAt and UpdatedAt. It is
// truncated to microseconds so values survive a round-trip through the
// database unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func actor(createdBy string) string {
	if createdBy == "" {
		return SystemActor
	}
	return createdBy
}
