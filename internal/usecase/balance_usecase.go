package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// BalanceUseCase derives account balances from movement history and repairs
// cached balances and running-balance chains.
type BalanceUseCase struct {
	ledger *Ledger
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(ledger *Ledger) *BalanceUseCase {
	return &BalanceUseCase{ledger: ledger}
}

// CalculateCurrentBalance folds the account's settled movements from zero.
// It reads only and never touches the cached balance.
func (uc *BalanceUseCase) CalculateCurrentBalance(ctx context.Context, companyID, accountID string) (decimal.Decimal, error) {
	if err := validateScope(companyID, accountID); err != nil {
		return decimal.Zero, err
	}

	if _, err := uc.ledger.accountRepo.GetByID(ctx, nil, companyID, accountID); err != nil {
		return decimal.Zero, err
	}

	movements, err := uc.ledger.movementRepo.ListSettledByAccount(ctx, nil, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list movements of account %s: %w", accountID, err)
	}

	return domain.CalculateBalance(movements), nil
}

// RecomputeCurrentBalance rewrites the cached balance of an account from its
// movements and stamps the recalculation time.
func (uc *BalanceUseCase) RecomputeCurrentBalance(ctx context.Context, companyID, accountID string) (*domain.Account, error) {
	if err := validateScope(companyID, accountID); err != nil {
		return nil, err
	}

	var account *domain.Account
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		account, err = uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, companyID, accountID)
		if err != nil {
			return err
		}

		movements, err := uc.ledger.movementRepo.ListSettledByAccount(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("list movements of account %s: %w", accountID, err)
		}

		return uc.ledger.storeBalance(ctx, tx, account, movements)
	})
	if err != nil {
		return nil, err
	}

	if uc.ledger.metrics != nil {
		uc.ledger.metrics.Recomputations.WithLabelValues("balance").Inc()
	}

	return account, nil
}

// RecomputeChain rewrites the balance snapshots of an account's settled
// movements and returns how many were rewritten.
func (uc *BalanceUseCase) RecomputeChain(ctx context.Context, companyID, accountID string) (int, error) {
	if err := validateScope(companyID, accountID); err != nil {
		return 0, err
	}

	rewritten := 0
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		if _, err := uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, companyID, accountID); err != nil {
			return err
		}

		movements, err := uc.ledger.movementRepo.ListSettledByAccount(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("list movements of account %s: %w", accountID, err)
		}

		rewritten, err = uc.ledger.rewriteChain(ctx, tx, movements)
		return err
	})
	if err != nil {
		return 0, err
	}

	if uc.ledger.metrics != nil {
		uc.ledger.metrics.Recomputations.WithLabelValues("chain").Inc()
		uc.ledger.metrics.SnapshotsRewritten.Add(float64(rewritten))
	}

	return rewritten, nil
}

// RecomputeResult summarizes the repair of one account.
type RecomputeResult struct {
	AccountID          string
	PreviousBalance    decimal.Decimal
	CurrentBalance     decimal.Decimal
	SnapshotsRewritten int
}

// Changed reports whether the repair altered anything.
func (r *RecomputeResult) Changed() bool {
	return !r.PreviousBalance.Equal(r.CurrentBalance) || r.SnapshotsRewritten > 0
}

// RecomputeAllBalances repairs the chain and cached balance of every account
// of a company, inactive ones included. Each account is repaired in its own
// transaction; on failure the results gathered so far are returned with the
// error.
func (uc *BalanceUseCase) RecomputeAllBalances(ctx context.Context, companyID string) ([]*RecomputeResult, error) {
	if err := domain.ValidateCompanyID(companyID); err != nil {
		return nil, err
	}

	ids, err := uc.ledger.accountRepo.ListIDs(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list accounts of company %s: %w", companyID, err)
	}

	results := make([]*RecomputeResult, 0, len(ids))
	for _, id := range ids {
		result, err := uc.recomputeAccount(ctx, companyID, id)
		if err != nil {
			return results, fmt.Errorf("failed to recompute account %s: %w", id, err)
		}
		results = append(results, result)
	}

	return results, nil
}

func (uc *BalanceUseCase) recomputeAccount(ctx context.Context, companyID, accountID string) (*RecomputeResult, error) {
	var result *RecomputeResult
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, companyID, accountID)
		if err != nil {
			return err
		}

		result = &RecomputeResult{AccountID: accountID, PreviousBalance: account.CurrentBalance}

		result.SnapshotsRewritten, err = uc.ledger.repair(ctx, tx, account, "batch")
		if err != nil {
			return err
		}
		result.CurrentBalance = account.CurrentBalance

		if !result.Changed() {
			return nil
		}

		return uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeAccount, accountID, domain.EventTypeBalanceRecomputed,
			map[string]any{
				"account_id":          accountID,
				"company_id":          companyID,
				"previous_balance":    result.PreviousBalance.String(),
				"current_balance":     result.CurrentBalance.String(),
				"snapshots_rewritten": result.SnapshotsRewritten,
			})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
