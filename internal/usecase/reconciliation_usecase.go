package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// ReconciliationUseCase checks cached balances and running-balance chains
// against movement history without repairing anything.
type ReconciliationUseCase struct {
	ledger *Ledger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(ledger *Ledger) *ReconciliationUseCase {
	return &ReconciliationUseCase{ledger: ledger}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	ChainBreaks       []domain.ChainBreak
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount compares the cached balance of an account with the
// balance derived from its movements and verifies its snapshot chain. The
// account is locked while it is read so writers cannot interleave.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, companyID, accountID string) (*ReconciliationResult, error) {
	if err := validateScope(companyID, accountID); err != nil {
		return nil, err
	}

	var result *ReconciliationResult
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, companyID, accountID)
		if err != nil {
			return err
		}

		movements, err := uc.ledger.movementRepo.ListSettledByAccount(ctx, tx, accountID)
		if err != nil {
			return fmt.Errorf("list movements of account %s: %w", accountID, err)
		}

		calculated := domain.CalculateBalance(movements)
		breaks := domain.VerifyChain(movements)

		result = &ReconciliationResult{
			AccountID:         accountID,
			RecordedBalance:   account.CurrentBalance,
			CalculatedBalance: calculated,
			Difference:        account.CurrentBalance.Sub(calculated),
			ChainBreaks:       breaks,
			IsReconciled:      account.CurrentBalance.Equal(calculated) && len(breaks) == 0,
			LastChecked:       time.Now().UTC(),
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.IsReconciled && uc.ledger.metrics != nil {
		uc.ledger.metrics.ReconciliationDiscrepancies.Inc()
	}

	return result, nil
}

// ReconcileAllAccounts reconciles every account of a company
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context, companyID string) ([]*ReconciliationResult, error) {
	if err := domain.ValidateCompanyID(companyID); err != nil {
		return nil, err
	}

	ids, err := uc.ledger.accountRepo.ListIDs(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list accounts of company %s: %w", companyID, err)
	}

	results := make([]*ReconciliationResult, 0, len(ids))
	for _, id := range ids {
		result, err := uc.ReconcileAccount(ctx, companyID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile account %s: %w", id, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CompanyID          string
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// GenerateReconciliationReport reconciles every account of a company and
// collects the ones that are out of balance.
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context, companyID string) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx, companyID)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		CompanyID:     companyID,
		TotalAccounts: len(results),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
