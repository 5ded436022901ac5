package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	ledger *Ledger
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(ledger *Ledger) *AccountUseCase {
	return &AccountUseCase{ledger: ledger}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	CompanyID      string
	Type           domain.AccountType
	Description    string
	BankCode       string
	InitialBalance decimal.Decimal
	OpenedOn       *time.Time
	CreatedBy      string
}

// CreateAccount creates a new account. A positive initial balance is booked
// as a settled opening entry dated on the opening day, in the same
// transaction as the account itself.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	createdAt := now()

	openedOn := domain.Today()
	if input.OpenedOn != nil {
		openedOn = domain.DateOnly(*input.OpenedOn)
	}

	template := domain.Account{
		ID:             uc.ledger.idGen.Generate(),
		CompanyID:      input.CompanyID,
		Type:           input.Type,
		Description:    input.Description,
		BankCode:       input.BankCode,
		InitialBalance: input.InitialBalance,
		CurrentBalance: decimal.Zero,
		Status:         domain.AccountStatusActive,
		OpenedOn:       openedOn,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	if err := template.Validate(); err != nil {
		return nil, err
	}

	openingID := uc.ledger.idGen.Generate()

	var account *domain.Account
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		acc := template
		account = &acc

		if err := uc.ledger.accountRepo.Create(ctx, tx, account); err != nil {
			return fmt.Errorf("insert account: %w", err)
		}

		if account.InitialBalance.IsPositive() {
			opening := &domain.Movement{
				ID:          openingID,
				CompanyID:   account.CompanyID,
				AccountID:   account.ID,
				Type:        domain.MovementTypeEntry,
				EntryAmount: account.InitialBalance,
				ExitAmount:  decimal.Zero,
				Description: domain.OpeningBalanceDescription,
				PostedOn:    account.OpenedOn,
				Status:      domain.MovementStatusSettled,
				CreatedBy:   actor(input.CreatedBy),
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			}

			if err := uc.ledger.post(ctx, tx, account, opening); err != nil {
				return fmt.Errorf("post opening balance: %w", err)
			}
		}

		return uc.ledger.emit(ctx, tx, account.CompanyID, domain.AggregateTypeAccount, account.ID,
			domain.EventTypeAccountCreated, domain.AccountEventPayload(account))
	})
	if err != nil {
		return nil, err
	}

	if uc.ledger.metrics != nil {
		uc.ledger.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, companyID, id string) (*domain.Account, error) {
	if err := validateScope(companyID, id); err != nil {
		return nil, err
	}

	return uc.ledger.accountRepo.GetByID(ctx, nil, companyID, id)
}

// ListAccounts lists the accounts of a company.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	return uc.ledger.accountRepo.List(ctx, filter)
}

// UpdateAccount applies a partial update to an account.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, companyID, id string, patch domain.AccountPatch) (*domain.Account, error) {
	if err := validateScope(companyID, id); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}

	var account *domain.Account
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		account, err = uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, companyID, id)
		if err != nil {
			return err
		}

		wasActive := account.IsActive()
		if err := patch.Apply(account); err != nil {
			return err
		}
		account.UpdatedAt = now()

		if err := uc.ledger.accountRepo.Update(ctx, tx, account); err != nil {
			return fmt.Errorf("update account %s: %w", id, err)
		}

		eventType := domain.EventTypeAccountUpdated
		if wasActive && !account.IsActive() {
			eventType = domain.EventTypeAccountDeactivated
		}

		return uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeAccount, id, eventType, domain.AccountEventPayload(account))
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// DeleteAccount removes an account that has never had movements. An account
// with history is deactivated instead, and the outcome says which happened.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, companyID, id string) (domain.DeleteOutcome, error) {
	if err := validateScope(companyID, id); err != nil {
		return "", err
	}

	var outcome domain.DeleteOutcome
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, companyID, id)
		if err != nil {
			return err
		}

		count, err := uc.ledger.movementRepo.CountByAccount(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count movements of account %s: %w", id, err)
		}

		if count == 0 {
			if err := uc.ledger.accountRepo.Delete(ctx, tx, id); err != nil {
				return fmt.Errorf("delete account %s: %w", id, err)
			}
			outcome = domain.DeleteOutcomeDeleted

			return uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeAccount, id,
				domain.EventTypeAccountDeleted, domain.AccountEventPayload(account))
		}

		outcome = domain.DeleteOutcomeDeactivated
		if !account.IsActive() {
			return nil
		}

		account.Status = domain.AccountStatusInactive
		account.UpdatedAt = now()
		if err := uc.ledger.accountRepo.Update(ctx, tx, account); err != nil {
			return fmt.Errorf("deactivate account %s: %w", id, err)
		}

		return uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeAccount, id,
			domain.EventTypeAccountDeactivated, domain.AccountEventPayload(account))
	})
	if err != nil {
		return "", err
	}

	if uc.ledger.metrics != nil {
		if outcome == domain.DeleteOutcomeDeleted {
			uc.ledger.metrics.AccountsDeleted.Inc()
		} else {
			uc.ledger.metrics.AccountsDeactivated.Inc()
		}
	}

	return outcome, nil
}

func validateScope(companyID, id string) error {
	if err := domain.ValidateCompanyID(companyID); err != nil {
		return err
	}

	return domain.ValidateID(id)
}
