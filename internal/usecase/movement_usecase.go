package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
)

// MovementUseCase posts, edits and removes movements. Every mutation rebuilds
// the running-balance chain and the cached balance of each affected account
// before the transaction commits.
type MovementUseCase struct {
	ledger    *Ledger
	transfers *TransferUseCase
}

// NewMovementUseCase creates a new MovementUseCase.
func NewMovementUseCase(ledger *Ledger, transfers *TransferUseCase) *MovementUseCase {
	return &MovementUseCase{
		ledger:    ledger,
		transfers: transfers,
	}
}

// PostMovementInput represents input for posting a movement.
type PostMovementInput struct {
	CompanyID            string
	AccountID            string
	Type                 domain.MovementType
	EntryAmount          decimal.Decimal
	ExitAmount           decimal.Decimal
	Description          string
	DetailedDescription  string
	PostedOn             time.Time
	Status               domain.MovementStatus
	Category             string
	CounterpartAccountID *string
	CreatedBy            string
}

// PostMovement posts a movement and returns it with its balance snapshots.
// Status defaults to pending. A transfer-type movement is booked as a full
// transfer with the counterpart account and this account's leg is returned.
func (uc *MovementUseCase) PostMovement(ctx context.Context, input PostMovementInput) (*domain.Movement, error) {
	if input.Status == "" {
		input.Status = domain.MovementStatusPending
	}

	if input.Type == domain.MovementTypeTransfer {
		return uc.postTransferLeg(ctx, input)
	}

	createdAt := now()
	m := &domain.Movement{
		ID:                  uc.ledger.idGen.Generate(),
		CompanyID:           input.CompanyID,
		AccountID:           input.AccountID,
		Type:                input.Type,
		EntryAmount:         input.EntryAmount,
		ExitAmount:          input.ExitAmount,
		Description:         input.Description,
		DetailedDescription: input.DetailedDescription,
		PostedOn:            domain.DateOnly(input.PostedOn),
		Status:              input.Status,
		Category:            input.Category,
		CreatedBy:           actor(input.CreatedBy),
		CreatedAt:           createdAt,
		UpdatedAt:           createdAt,
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		account, err := uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, m.CompanyID, m.AccountID)
		if err != nil {
			return err
		}

		if !account.IsActive() {
			return fmt.Errorf("%w: %s", domain.ErrAccountInactive, account.ID)
		}

		if err := uc.ledger.post(ctx, tx, account, m); err != nil {
			return err
		}

		return uc.ledger.emit(ctx, tx, m.CompanyID, domain.AggregateTypeMovement, m.ID,
			domain.EventTypeMovementPosted, domain.MovementEventPayload(m))
	})
	if err != nil {
		return nil, err
	}

	if uc.ledger.metrics != nil {
		uc.ledger.metrics.MovementsPosted.WithLabelValues(string(m.Type)).Inc()
		uc.ledger.metrics.MovementAmount.Observe(m.Amount().InexactFloat64())
	}

	return m, nil
}

func (uc *MovementUseCase) postTransferLeg(ctx context.Context, input PostMovementInput) (*domain.Movement, error) {
	if input.CounterpartAccountID == nil {
		return nil, fmt.Errorf("%w: counterpart account", domain.ErrMissingField)
	}

	if err := domain.ValidateAmounts(domain.MovementTypeTransfer, input.EntryAmount, input.ExitAmount); err != nil {
		return nil, err
	}

	transferInput := PostTransferInput{
		CompanyID:   input.CompanyID,
		Description: input.Description,
		PostedOn:    input.PostedOn,
		Status:      input.Status,
		Category:    input.Category,
		CreatedBy:   input.CreatedBy,
	}

	receiving := input.EntryAmount.IsPositive()
	if receiving {
		transferInput.SourceAccountID = *input.CounterpartAccountID
		transferInput.DestinationAccountID = input.AccountID
		transferInput.Amount = input.EntryAmount
	} else {
		transferInput.SourceAccountID = input.AccountID
		transferInput.DestinationAccountID = *input.CounterpartAccountID
		transferInput.Amount = input.ExitAmount
	}

	transfer, err := uc.transfers.PostTransfer(ctx, transferInput)
	if err != nil {
		return nil, err
	}

	if receiving {
		return transfer.DestinationLeg, nil
	}
	return transfer.SourceLeg, nil
}

// GetMovement retrieves a movement by ID.
func (uc *MovementUseCase) GetMovement(ctx context.Context, companyID, id string) (*domain.Movement, error) {
	if err := validateScope(companyID, id); err != nil {
		return nil, err
	}

	return uc.ledger.movementRepo.GetByID(ctx, nil, companyID, id)
}

// ListMovements lists movements ordered by posting date then creation time.
func (uc *MovementUseCase) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}

	return uc.ledger.movementRepo.List(ctx, filter)
}

// UpdateMovement applies a partial update to a movement and repairs the
// accounts it leaves and joins. Amount, date and status changes on a transfer
// leg are mirrored on the other leg; its account and type cannot change.
func (uc *MovementUseCase) UpdateMovement(ctx context.Context, companyID, id string, patch domain.MovementPatch) (*domain.Movement, error) {
	if err := validateScope(companyID, id); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		return nil, domain.ErrEmptyPatch
	}

	if patch.AccountID != nil {
		if err := domain.ValidateID(*patch.AccountID); err != nil {
			return nil, fmt.Errorf("account id: %w", err)
		}
	}

	var updated *domain.Movement
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		current, err := uc.ledger.movementRepo.GetByID(ctx, tx, companyID, id)
		if err != nil {
			return err
		}

		var mirror *domain.Movement
		if current.IsTransferLeg() {
			if patch.TouchesLegShape(current) {
				return domain.ErrTransferLegImmutable
			}

			mirror, err = uc.mirrorLeg(ctx, tx, current)
			if err != nil {
				return err
			}
		}

		lockIDs := []string{current.AccountID}
		if patch.AccountID != nil {
			lockIDs = append(lockIDs, *patch.AccountID)
		}
		if mirror != nil {
			lockIDs = append(lockIDs, mirror.AccountID)
		}

		accounts, err := uc.ledger.lockAccounts(ctx, tx, companyID, lockIDs...)
		if err != nil {
			return err
		}

		// The movement may have changed between the first read and the lock.
		locked, err := uc.ledger.movementRepo.GetByID(ctx, tx, companyID, id)
		if err != nil {
			return err
		}
		if locked.AccountID != current.AccountID || !locked.UpdatedAt.Equal(current.UpdatedAt) {
			return domain.ErrConcurrentUpdate
		}
		if mirror != nil {
			if mirror, err = uc.mirrorLeg(ctx, tx, locked); err != nil {
				return err
			}
		}

		next := *locked
		if err := patch.Apply(&next); err != nil {
			return err
		}

		if next.IsTransferLeg() && next.ExitAmount.IsPositive() != locked.ExitAmount.IsPositive() {
			return domain.ErrTransferLegImmutable
		}

		if next.AccountID != locked.AccountID {
			if !accounts[next.AccountID].IsActive() {
				return fmt.Errorf("%w: %s", domain.ErrAccountInactive, next.AccountID)
			}
			if next.CounterpartAccountID != nil && *next.CounterpartAccountID == next.AccountID {
				return domain.ErrSameAccount
			}
			next.BalanceBefore = accounts[next.AccountID].CurrentBalance
		}
		if !next.IsSettled() {
			next.BalanceAfter = next.BalanceBefore.Add(next.SignedEffect())
		}
		next.UpdatedAt = now()

		if err := uc.ledger.movementRepo.Update(ctx, tx, &next); err != nil {
			return fmt.Errorf("update movement %s: %w", id, err)
		}

		if mirror != nil {
			if err := uc.mirrorUpdate(ctx, tx, &next, mirror, patch); err != nil {
				return err
			}
		}

		if err := uc.ledger.repairAll(ctx, tx, accounts, "update"); err != nil {
			return err
		}

		updated, err = uc.ledger.movementRepo.GetByID(ctx, tx, companyID, id)
		if err != nil {
			return err
		}

		return uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeMovement, id,
			domain.EventTypeMovementUpdated, domain.MovementEventPayload(updated))
	})
	if err != nil {
		return nil, err
	}

	if uc.ledger.metrics != nil {
		uc.ledger.metrics.MovementsUpdated.Inc()
	}

	return updated, nil
}

func (uc *MovementUseCase) mirrorLeg(ctx context.Context, tx Transaction, leg *domain.Movement) (*domain.Movement, error) {
	legs, err := uc.ledger.movementRepo.GetByTransfer(ctx, tx, leg.CompanyID, *leg.TransferID)
	if err != nil {
		return nil, fmt.Errorf("load transfer %s: %w", *leg.TransferID, err)
	}

	for _, other := range legs {
		if other.ID != leg.ID {
			return other, nil
		}
	}

	return nil, fmt.Errorf("%w: %s has a single leg", domain.ErrTransferNotFound, *leg.TransferID)
}

// mirrorUpdate copies the amount, date and status of an edited transfer leg
// onto its counterpart.
func (uc *MovementUseCase) mirrorUpdate(ctx context.Context, tx Transaction, leg, mirror *domain.Movement, patch domain.MovementPatch) error {
	changed := false

	if patch.EntryAmount != nil || patch.ExitAmount != nil {
		amount := leg.Amount()
		if mirror.ExitAmount.IsPositive() {
			changed = changed || !mirror.ExitAmount.Equal(amount)
			mirror.ExitAmount = amount
		} else {
			changed = changed || !mirror.EntryAmount.Equal(amount)
			mirror.EntryAmount = amount
		}
	}

	if patch.PostedOn != nil && !mirror.PostedOn.Equal(leg.PostedOn) {
		mirror.PostedOn = leg.PostedOn
		changed = true
	}

	if patch.Status != nil && mirror.Status != leg.Status {
		mirror.Status = leg.Status
		changed = true
	}

	if !changed {
		return nil
	}

	if !mirror.IsSettled() {
		mirror.BalanceAfter = mirror.BalanceBefore.Add(mirror.SignedEffect())
	}
	mirror.UpdatedAt = leg.UpdatedAt

	if err := uc.ledger.movementRepo.Update(ctx, tx, mirror); err != nil {
		return fmt.Errorf("update transfer leg %s: %w", mirror.ID, err)
	}

	return nil
}

// DeleteMovement deletes a movement and repairs its account. Deleting a
// transfer leg deletes the whole transfer. It returns false when the movement
// does not exist.
func (uc *MovementUseCase) DeleteMovement(ctx context.Context, companyID, id string) (bool, error) {
	if err := validateScope(companyID, id); err != nil {
		return false, err
	}

	var deleted *domain.Movement
	err := uc.ledger.inTx(ctx, func(ctx context.Context, tx Transaction) error {
		deleted = nil

		m, err := uc.ledger.movementRepo.GetByID(ctx, tx, companyID, id)
		if errors.Is(err, domain.ErrMovementNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		targets := []*domain.Movement{m}
		if m.IsTransferLeg() {
			targets, err = uc.ledger.movementRepo.GetByTransfer(ctx, tx, companyID, *m.TransferID)
			if err != nil {
				return fmt.Errorf("load transfer %s: %w", *m.TransferID, err)
			}
		}

		lockIDs := make([]string, 0, len(targets))
		for _, t := range targets {
			lockIDs = append(lockIDs, t.AccountID)
		}

		accounts, err := uc.ledger.lockAccounts(ctx, tx, companyID, lockIDs...)
		if err != nil {
			return err
		}

		locked, err := uc.ledger.movementRepo.GetByID(ctx, tx, companyID, id)
		if errors.Is(err, domain.ErrMovementNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if locked.AccountID != m.AccountID {
			return domain.ErrConcurrentUpdate
		}

		if err := uc.ledger.deleteMovements(ctx, tx, accounts, targets); err != nil {
			return err
		}
		deleted = m

		for _, t := range targets {
			if err := uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeMovement, t.ID,
				domain.EventTypeMovementDeleted, domain.MovementEventPayload(t)); err != nil {
				return err
			}
		}

		if m.IsTransferLeg() {
			return uc.ledger.emit(ctx, tx, companyID, domain.AggregateTypeTransfer, *m.TransferID,
				domain.EventTypeTransferDeleted, map[string]any{"transfer_id": *m.TransferID, "company_id": companyID})
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted == nil {
		return false, nil
	}

	if uc.ledger.metrics != nil {
		uc.ledger.metrics.MovementsDeleted.Inc()
	}

	return true, nil
}
