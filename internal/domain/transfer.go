package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer groups the two movements that move money between two accounts of
// the same company.
type Transfer struct {
	ID                   string
	CompanyID            string
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	PostedOn             time.Time
	Description          string
	Status               MovementStatus
	SourceLeg            *Movement
	DestinationLeg       *Movement
	CreatedAt            time.Time
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if err := ValidateCompanyID(t.CompanyID); err != nil {
		return err
	}

	if err := ValidateID(t.SourceAccountID); err != nil {
		return err
	}

	if err := ValidateID(t.DestinationAccountID); err != nil {
		return err
	}

	if t.SourceAccountID == t.DestinationAccountID {
		return ErrSameAccount
	}

	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}

	if !t.Status.Valid() {
		return ErrInvalidStatus
	}

	return ValidateDescription(t.Description)
}

// TransferFromLegs rebuilds a transfer from its stored movements. It returns
// ErrTransferNotFound unless exactly one exit leg and one entry leg are given.
func TransferFromLegs(legs []*Movement) (*Transfer, error) {
	if len(legs) != 2 {
		return nil, ErrTransferNotFound
	}

	var source, destination *Movement
	for _, leg := range legs {
		if !leg.IsTransferLeg() {
			return nil, ErrTransferNotFound
		}
		if leg.ExitAmount.IsPositive() {
			source = leg
		} else {
			destination = leg
		}
	}

	if source == nil || destination == nil {
		return nil, ErrTransferNotFound
	}

	return &Transfer{
		ID:                   *source.TransferID,
		CompanyID:            source.CompanyID,
		SourceAccountID:      source.AccountID,
		DestinationAccountID: destination.AccountID,
		Amount:               source.ExitAmount,
		PostedOn:             source.PostedOn,
		Description:          source.Description,
		Status:               source.Status,
		SourceLeg:            source,
		DestinationLeg:       destination,
		CreatedAt:            source.CreatedAt,
	}, nil
}
