package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.update(tx, func(st *state) error {
		if _, ok := st.accounts[account.ID]; ok {
			return fmt.Errorf("%w: account %s", ErrDuplicateKey, account.ID)
		}
		st.accounts[account.ID] = *account
		return nil
	})
}

// GetByID retrieves an account of a company by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tx usecase.Transaction, companyID, id string) (*domain.Account, error) {
	var found *domain.Account
	err := r.store.view(tx, func(st *state) error {
		acc, ok := st.accounts[id]
		if !ok || acc.CompanyID != companyID {
			return domain.ErrAccountNotFound
		}
		found = &acc
		return nil
	})
	return found, err
}

// GetByIDForUpdate retrieves an account inside a transaction. The store
// serializes transactions, so no row lock is needed.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, companyID, id string) (*domain.Account, error) {
	return r.GetByID(ctx, tx, companyID, id)
}

// GetByIDsForUpdate retrieves the accounts of a company with the given IDs.
// Unknown IDs are skipped.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, companyID string, ids []string) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.store.view(tx, func(st *state) error {
		for _, id := range ids {
			acc, ok := st.accounts[id]
			if !ok || acc.CompanyID != companyID {
				continue
			}
			accounts = append(accounts, &acc)
		}
		return nil
	})
	return accounts, err
}

// Update stores the mutable fields of an account.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.update(tx, func(st *state) error {
		stored, ok := st.accounts[account.ID]
		if !ok {
			return domain.ErrAccountNotFound
		}
		stored.Type = account.Type
		stored.Description = account.Description
		stored.BankCode = account.BankCode
		stored.Status = account.Status
		stored.UpdatedAt = account.UpdatedAt
		st.accounts[account.ID] = stored
		return nil
	})
}

// UpdateCurrentBalance stores the cached balance of an account.
func (r *AccountRepository) UpdateCurrentBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, recalculatedAt time.Time) error {
	return r.store.update(tx, func(st *state) error {
		stored, ok := st.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		stored.CurrentBalance = balance
		stored.LastRecalculatedAt = &recalculatedAt
		st.accounts[id] = stored
		return nil
	})
}

// Delete removes an account.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return r.store.update(tx, func(st *state) error {
		if _, ok := st.accounts[id]; !ok {
			return domain.ErrAccountNotFound
		}
		for _, m := range st.movements {
			if m.AccountID == id {
				return fmt.Errorf("account %s still has movements", id)
			}
		}
		delete(st.accounts, id)
		return nil
	})
}

// List lists the accounts matching filter ordered by creation.
func (r *AccountRepository) List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	var matched []*domain.Account
	err := r.store.view(nil, func(st *state) error {
		for _, id := range sortedKeys(st.accounts) {
			acc := st.accounts[id]
			if matchesAccount(&filter, &acc) {
				matched = append(matched, &acc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

// ListIDs returns the IDs of every account of a company in ascending order.
func (r *AccountRepository) ListIDs(ctx context.Context, companyID string) ([]string, error) {
	var ids []string
	err := r.store.view(nil, func(st *state) error {
		for _, id := range sortedKeys(st.accounts) {
			if st.accounts[id].CompanyID == companyID {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func matchesAccount(f *domain.AccountFilter, a *domain.Account) bool {
	if a.CompanyID != f.CompanyID {
		return false
	}
	if f.Type != nil && a.Type != *f.Type {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.BankCode != "" && a.BankCode != f.BankCode {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(a.Description), strings.ToLower(f.Search)) {
		return false
	}
	return true
}
