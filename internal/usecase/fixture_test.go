package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/adapter/repository/memory"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/idgen"
	"github.com/iho/finledger/internal/infrastructure/metrics"
	"github.com/iho/finledger/internal/usecase"
)

const (
	testCompany  = "acme"
	otherCompany = "globex"
)

type fixture struct {
	store     *memory.Store
	accounts  *memory.AccountRepository
	movements *memory.MovementRepository
	outbox    *memory.OutboxRepository
	metrics   *metrics.Metrics

	accountUC        *usecase.AccountUseCase
	movementUC       *usecase.MovementUseCase
	transferUC       *usecase.TransferUseCase
	balanceUC        *usecase.BalanceUseCase
	reconciliationUC *usecase.ReconciliationUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store:     store,
		accounts:  memory.NewAccountRepository(store),
		movements: memory.NewMovementRepository(store),
		outbox:    memory.NewOutboxRepository(store),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}

	ledger := usecase.NewLedger(store, f.accounts, f.movements, f.outbox, idgen.NewULIDGenerator(), nil, f.metrics)

	f.accountUC = usecase.NewAccountUseCase(ledger)
	f.transferUC = usecase.NewTransferUseCase(ledger)
	f.movementUC = usecase.NewMovementUseCase(ledger, f.transferUC)
	f.balanceUC = usecase.NewBalanceUseCase(ledger)
	f.reconciliationUC = usecase.NewReconciliationUseCase(ledger)

	return f
}

func (f *fixture) createAccount(t *testing.T, initial string) *domain.Account {
	t.Helper()

	openedOn := day("2024-01-01")
	acc, err := f.accountUC.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID:      testCompany,
		Type:           domain.AccountTypeBank,
		Description:    "operating account",
		InitialBalance: dec(initial),
		OpenedOn:       &openedOn,
	})
	require.NoError(t, err)

	return acc
}

func (f *fixture) post(t *testing.T, accountID string, typ domain.MovementType, amount, postedOn string) *domain.Movement {
	t.Helper()

	input := usecase.PostMovementInput{
		CompanyID:   testCompany,
		AccountID:   accountID,
		Type:        typ,
		Description: string(typ) + " " + amount,
		PostedOn:    day(postedOn),
		Status:      domain.MovementStatusSettled,
	}
	if typ == domain.MovementTypeExit {
		input.ExitAmount = dec(amount)
	} else {
		input.EntryAmount = dec(amount)
	}

	m, err := f.movementUC.PostMovement(context.Background(), input)
	require.NoError(t, err)

	return m
}

func (f *fixture) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()

	acc, err := f.accountUC.GetAccount(context.Background(), testCompany, accountID)
	require.NoError(t, err)

	return acc.CurrentBalance
}

// requireConsistent checks that the cached balance and every snapshot of the
// account agree with its movement history.
func (f *fixture) requireConsistent(t *testing.T, accountID string) {
	t.Helper()

	result, err := f.reconciliationUC.ReconcileAccount(context.Background(), testCompany, accountID)
	require.NoError(t, err)
	require.Empty(t, result.ChainBreaks)
	require.True(t, result.IsReconciled, "recorded %s calculated %s", result.RecordedBalance, result.CalculatedBalance)
}

func (f *fixture) settled(t *testing.T, accountID string) []*domain.Movement {
	t.Helper()

	movements, err := f.movements.ListSettledByAccount(context.Background(), nil, accountID)
	require.NoError(t, err)

	return movements
}

func (f *fixture) events(t *testing.T) []string {
	t.Helper()

	events, err := f.outbox.GetUnpublished(context.Background(), 0)
	require.NoError(t, err)

	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T {
	return &v
}
