package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// TransferUseCase moves money between two accounts of the same company as
// one unit of work: both legs are written and both accounts repaired in a
// single transaction, or nothing is.
type TransferUseCase struct {
	ledger *Ledger
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(ledger *Ledger) *TransferUseCase {
	return &TransferUseCase{ledger: ledger}
}

// PostTransferInput represents input for posting a transfer.
type PostTransferInput struct {
	CompanyID            string
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	PostedOn             time.Time
	Description          string
	Status               domain.MovementStatus
	Category             string
	CreatedBy            string
}

// PostTransfer books a transfer. The source account gets an exit leg and the
// destination an entry leg, both sharing the transfer ID. Status defaults to
// settled. Invalid input is rejected before any write; failures after that
// are reported as domain.ErrTransferFailed wrapping the cause.
func (uc *TransferUseCase) PostTransfer(ctx context.Context, input PostTransferInput) (*domain.Transfer, error) {
	start := time.Now()

	// 0. Validate inputs before starting transaction
	if input.Status == "" {
		input.Status = domain.MovementStatusSettled
	}

	postedOn := domain.Today()
	if !input.PostedOn.IsZero() {
		postedOn = domain.DateOnly(input.PostedOn)
	}

	createdAt := now()
	transfer := &domain.Transfer{
		ID:                   uc.ledger.idGen.Generate(),
		CompanyID:            input.CompanyID,
		SourceAccountID:      input.SourceAccountID,
		DestinationAccountID: input.DestinationAccountID,
		Amount:               input.Amount,
		PostedOn:             postedOn,
		Description:          input.Description,
		Status:               input.Status,
		CreatedAt:            createdAt,
	}

	if err := transfer.Validate(); err != nil {
		uc.recordFailure(err)
		return nil, err
	}

	// IDs are generated in order so the source leg sorts first on ties.
	sourceLegID := uc.ledger.idGen.Generate()
	destinationLegID := uc.ledger.idGen.Generate()

	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		// 1. Lock both accounts in ID order
		accounts, err := uc.ledger.lockAccounts(ctx, tx, transfer.CompanyID, transfer.SourceAccountID, transfer.DestinationAccountID)
		if err != nil {
			return err
		}

		source := accounts[transfer.SourceAccountID]
		destination := accounts[transfer.DestinationAccountID]

		for _, acc := range []*domain.Account{source, destination} {
			if !acc.IsActive() {
				return fmt.Errorf("%w: %s", domain.ErrAccountInactive, acc.ID)
			}
		}

		// 2. Write both legs
		transfer.SourceLeg = uc.leg(transfer, sourceLegID, source.ID, destination.ID, input, createdAt)
		transfer.SourceLeg.ExitAmount = transfer.Amount

		transfer.DestinationLeg = uc.leg(transfer, destinationLegID, destination.ID, source.ID, input, createdAt)
		transfer.DestinationLeg.EntryAmount = transfer.Amount

		if err := uc.ledger.post(ctx, tx, source, transfer.SourceLeg); err != nil {
			return fmt.Errorf("post source leg: %w", err)
		}

		if err := uc.ledger.post(ctx, tx, destination, transfer.DestinationLeg); err != nil {
			return fmt.Errorf("post destination leg: %w", err)
		}

		return uc.ledger.emit(ctx, tx, transfer.CompanyID, domain.AggregateTypeTransfer, transfer.ID,
			domain.EventTypeTransferPosted, domain.TransferEventPayload(transfer))
	})
	if err != nil {
		uc.recordFailure(err)
		return nil, fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
	}

	if uc.ledger.metrics != nil {
		uc.ledger.metrics.TransfersPosted.Inc()
		uc.ledger.metrics.MovementsPosted.WithLabelValues(string(domain.MovementTypeTransfer)).Add(2)
		uc.ledger.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}

	return transfer, nil
}

func (uc *TransferUseCase) leg(transfer *domain.Transfer, id, accountID, counterpartID string, input PostTransferInput, createdAt time.Time) *domain.Movement {
	transferID := transfer.ID

	return &domain.Movement{
		ID:                   id,
		CompanyID:            transfer.CompanyID,
		AccountID:            accountID,
		Type:                 domain.MovementTypeTransfer,
		EntryAmount:          decimal.Zero,
		ExitAmount:           decimal.Zero,
		Description:          transfer.Description,
		PostedOn:             transfer.PostedOn,
		Status:               transfer.Status,
		CounterpartAccountID: &counterpartID,
		TransferID:           &transferID,
		Category:             input.Category,
		CreatedBy:            actor(input.CreatedBy),
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
}

// GetTransfer retrieves a transfer and both of its legs.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, companyID, transferID string) (*domain.Transfer, error) {
	if err := validateScope(companyID, transferID); err != nil {
		return nil, err
	}

	legs, err := uc.ledger.movementRepo.GetByTransfer(ctx, nil, companyID, transferID)
	if err != nil {
		return nil, err
	}

	return domain.TransferFromLegs(legs)
}

// DeleteTransfer deletes both legs of a transfer and repairs both accounts.
// It returns false when the transfer does not exist.
func (uc *TransferUseCase) DeleteTransfer(ctx context.Context, companyID, transferID string) (bool, error) {
	if err := validateScope(companyID, transferID); err != nil {
		return false, err
	}

	deleted := false
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		deleted = false

		legs, err := uc.ledger.movementRepo.GetByTransfer(ctx, tx, companyID, transferID)
		if err != nil {
			return err
		}
		if len(legs) == 0 {
			return nil
		}

		lockIDs := make([]string, 0, len(legs))
		for _, leg := range legs {
			lockIDs = append(lockIDs, leg.AccountID)
		}

		accounts, err := uc.ledger.lockAccounts(ctx, tx, companyID, lockIDs...)
		if err != nil {
			return err
		}

		legs, err = uc.ledger.movementRepo.GetByTransfer(ctx, tx, companyID, transferID)
		if err != nil {
			return err
		}
		if len(legs) == 0 {
			return nil
		}

		if err := uc.ledger.deleteMovements(ctx, tx, accounts, legs); err != nil {
			return err
		}
		deleted = true

		return uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeTransfer, transferID,
			domain.EventTypeTransferDeleted, map[string]any{"transfer_id": transferID, "company_id": companyID})
	})
	if err != nil {
		return false, err
	}

	if deleted && uc.ledger.metrics != nil {
		uc.ledger.metrics.TransfersDeleted.Inc()
	}

	return deleted, nil
}

func (uc *TransferUseCase) recordFailure(err error) {
	if uc.ledger.metrics == nil {
		return
	}

	reason := "internal"
	switch {
	case domain.IsValidation(err):
		reason = "validation"
	case domain.IsNotFound(err):
		reason = "not_found"
	case errors.Is(err, domain.ErrAccountInactive):
		reason = "inactive_account"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	}

	uc.ledger.metrics.TransferErrors.WithLabelValues(reason).Inc()
}
