package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
	"github.com/iho/finledger/internal/usecase/mocks"
)

const (
	lowID  = "01ARZ3NDEKTSV4RRFFQ69G5FAV"
	highID = "01BX5ZZKBKACTAV9WEVGEMMVRZ"
)

type mockPorts struct {
	txManager *mocks.MockTransactionManager
	tx        *mocks.MockTransaction
	accounts  *mocks.MockAccountRepository
	movements *mocks.MockMovementRepository
	idGen     *mocks.MockIDGenerator
	retrier   *mocks.MockRetrier
}

func newMockPorts(t *testing.T) *mockPorts {
	ctrl := gomock.NewController(t)

	p := &mockPorts{
		txManager: mocks.NewMockTransactionManager(ctrl),
		tx:        mocks.NewMockTransaction(ctrl),
		accounts:  mocks.NewMockAccountRepository(ctrl),
		movements: mocks.NewMockMovementRepository(ctrl),
		idGen:     mocks.NewMockIDGenerator(ctrl),
		retrier:   mocks.NewMockRetrier(ctrl),
	}
	p.idGen.EXPECT().Generate().Return(highID).AnyTimes()

	return p
}

func (p *mockPorts) ledger(withRetrier bool) *usecase.Ledger {
	var retrier usecase.Retrier
	if withRetrier {
		retrier = p.retrier
	}
	return usecase.NewLedger(p.txManager, p.accounts, p.movements, nil, p.idGen, retrier, nil)
}

func TestLedger_BeginFailure(t *testing.T) {
	p := newMockPorts(t)
	p.txManager.EXPECT().Begin(gomock.Any()).Return(nil, errors.New("connection refused"))

	uc := usecase.NewAccountUseCase(p.ledger(false))
	_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID: testCompany, Type: domain.AccountTypeBank, Description: "main",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
}

func TestLedger_CommitFailureRollsBack(t *testing.T) {
	p := newMockPorts(t)

	gomock.InOrder(
		p.txManager.EXPECT().Begin(gomock.Any()).Return(p.tx, nil),
		p.accounts.EXPECT().Create(gomock.Any(), p.tx, gomock.Any()).Return(nil),
		p.tx.EXPECT().Commit(gomock.Any()).Return(errors.New("serialization failure")),
		p.tx.EXPECT().Rollback(gomock.Any()).Return(nil),
	)

	uc := usecase.NewAccountUseCase(p.ledger(false))
	_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID: testCompany, Type: domain.AccountTypeBank, Description: "main",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit transaction")
}

func TestLedger_RepositoryFailureRollsBack(t *testing.T) {
	p := newMockPorts(t)

	p.txManager.EXPECT().Begin(gomock.Any()).Return(p.tx, nil)
	p.accounts.EXPECT().Create(gomock.Any(), p.tx, gomock.Any()).Return(errors.New("unique violation"))
	p.tx.EXPECT().Commit(gomock.Any()).Times(0)
	p.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	uc := usecase.NewAccountUseCase(p.ledger(false))
	_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID: testCompany, Type: domain.AccountTypeBank, Description: "main",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert account")
}

func TestLedger_RetrierWrapsTransaction(t *testing.T) {
	p := newMockPorts(t)

	attempts := 0
	p.retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, op func() error) error {
		for {
			attempts++
			err := op()
			if err == nil || attempts == 2 {
				return err
			}
		}
	})
	p.txManager.EXPECT().Begin(gomock.Any()).Return(p.tx, nil).Times(2)
	p.accounts.EXPECT().Create(gomock.Any(), p.tx, gomock.Any()).Return(nil).Times(2)
	p.tx.EXPECT().Commit(gomock.Any()).Return(errors.New("deadlock detected"))
	p.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	p.tx.EXPECT().Rollback(gomock.Any()).Return(nil).Times(2)

	uc := usecase.NewAccountUseCase(p.ledger(true))
	account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID: testCompany, Type: domain.AccountTypeBank, Description: "main",
	})

	require.NoError(t, err)
	assert.Equal(t, highID, account.ID)
	assert.Equal(t, 2, attempts)
}

func TestLedger_LocksAccountsInIDOrder(t *testing.T) {
	p := newMockPorts(t)

	p.txManager.EXPECT().Begin(gomock.Any()).Return(p.tx, nil)
	p.accounts.EXPECT().
		GetByIDsForUpdate(gomock.Any(), p.tx, testCompany, []string{lowID, highID}).
		Return([]*domain.Account{{ID: lowID, CompanyID: testCompany, Status: domain.AccountStatusActive}}, nil)
	p.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	uc := usecase.NewTransferUseCase(p.ledger(false))
	_, err := uc.PostTransfer(context.Background(), usecase.PostTransferInput{
		CompanyID:            testCompany,
		SourceAccountID:      highID,
		DestinationAccountID: lowID,
		Amount:               dec("10"),
		Description:          "sweep",
	})

	require.ErrorIs(t, err, domain.ErrTransferFailed)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestLedger_TransactionTimeout(t *testing.T) {
	p := newMockPorts(t)

	p.txManager.EXPECT().Begin(gomock.Any()).DoAndReturn(func(ctx context.Context) (usecase.Transaction, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ledger := p.ledger(false).WithTransactionTimeout(10 * time.Millisecond)
	uc := usecase.NewAccountUseCase(ledger)
	_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		CompanyID: testCompany, Type: domain.AccountTypeBank, Description: "main",
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
