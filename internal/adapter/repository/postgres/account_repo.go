package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/postgres/generated"
	"github.com/iho/finledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository. db serves the calls
// made outside a transaction.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	return q.CreateAccount(ctx, generated.CreateAccountParams{
		ID:             account.ID,
		CompanyID:      account.CompanyID,
		Type:           string(account.Type),
		Description:    account.Description,
		BankCode:       account.BankCode,
		InitialBalance: decimalToNumeric(account.InitialBalance),
		CurrentBalance: decimalToNumeric(account.CurrentBalance),
		Status:         string(account.Status),
		OpenedOn:       timeToPgDate(account.OpenedOn),
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})
}

// GetByID retrieves an account of a company by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tx usecase.Transaction, companyID, id string) (*domain.Account, error) {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return nil, err
	}

	row, err := q.GetAccountByID(ctx, generated.GetAccountByIDParams{CompanyID: companyID, ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, companyID, id string) (*domain.Account, error) {
	if tx == nil {
		return nil, fmt.Errorf("lock account %s: %w", id, ErrForeignTx)
	}

	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return nil, err
	}

	row, err := q.GetAccountByIDForUpdate(ctx, generated.GetAccountByIDForUpdateParams{CompanyID: companyID, ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks
// taken in ID order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, companyID string, ids []string) ([]*domain.Account, error) {
	if tx == nil {
		return nil, fmt.Errorf("lock accounts: %w", ErrForeignTx)
	}

	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.GetAccountsByIDsForUpdate(ctx, generated.GetAccountsByIDsForUpdateParams{
		CompanyID: companyID,
		Ids:       ids,
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// Update stores the mutable fields of an account.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	n, err := q.UpdateAccount(ctx, generated.UpdateAccountParams{
		ID:          account.ID,
		Type:        string(account.Type),
		Description: account.Description,
		BankCode:    account.BankCode,
		Status:      string(account.Status),
		UpdatedAt:   timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// UpdateCurrentBalance stores the cached balance of an account.
func (r *AccountRepository) UpdateCurrentBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, recalculatedAt time.Time) error {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	n, err := q.UpdateAccountCurrentBalance(ctx, generated.UpdateAccountCurrentBalanceParams{
		ID:                 id,
		CurrentBalance:     decimalToNumeric(balance),
		LastRecalculatedAt: timeToPgTimestamptz(recalculatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	n, err := q.DeleteAccount(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists the accounts matching filter ordered by creation.
func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, listAccountsParams(filter))
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// ListIDs returns the IDs of every account of a company in ascending order.
func (r *AccountRepository) ListIDs(ctx context.Context, companyID string) ([]string, error) {
	return r.queries.ListAccountIDs(ctx, companyID)
}

func listAccountsParams(filter domain.AccountFilter) generated.ListAccountsParams {
	params := generated.ListAccountsParams{
		CompanyID: filter.CompanyID,
		BankCode:  optionalText(filter.BankCode),
		Search:    searchText(filter.Search),
		Limit:     int32(filter.Limit),
		Offset:    int32(filter.Offset),
	}

	if filter.Type != nil {
		params.Type = optionalText(string(*filter.Type))
	}
	if filter.Status != nil {
		params.Status = optionalText(string(*filter.Status))
	}

	return params
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:                 row.ID,
		CompanyID:          row.CompanyID,
		Type:               domain.AccountType(row.Type),
		Description:        row.Description,
		BankCode:           row.BankCode,
		InitialBalance:     numericToDecimal(row.InitialBalance),
		CurrentBalance:     numericToDecimal(row.CurrentBalance),
		Status:             domain.AccountStatus(row.Status),
		OpenedOn:           pgDateToTime(row.OpenedOn),
		LastRecalculatedAt: pgTimestamptzToPtr(row.LastRecalculatedAt),
		CreatedAt:          row.CreatedAt.Time.UTC(),
		UpdatedAt:          row.UpdatedAt.Time.UTC(),
	}
}
