package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = time.DateOnly

// ParseDate parses a YYYY-MM-DD date. An empty value yields nil.
func ParseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}

	return &t, nil
}

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	BankCode       string          `json:"bank_code,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	OpenedOn       string          `json:"opened_on,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput(companyID, actor string) (usecase.CreateAccountInput, error) {
	openedOn, err := ParseDate("opened_on", r.OpenedOn)
	if err != nil {
		return usecase.CreateAccountInput{}, err
	}

	return usecase.CreateAccountInput{
		CompanyID:      companyID,
		Type:           domain.AccountType(r.Type),
		Description:    r.Description,
		BankCode:       r.BankCode,
		InitialBalance: r.InitialBalance,
		OpenedOn:       openedOn,
		CreatedBy:      actor,
	}, nil
}

// UpdateAccountRequest represents a partial update of an account. Omitted
// fields are left unchanged.
type UpdateAccountRequest struct {
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
	BankCode    *string `json:"bank_code,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ToPatch converts to a domain patch.
func (r *UpdateAccountRequest) ToPatch() domain.AccountPatch {
	var patch domain.AccountPatch
	if r.Type != nil {
		t := domain.AccountType(*r.Type)
		patch.Type = &t
	}
	if r.Status != nil {
		s := domain.AccountStatus(*r.Status)
		patch.Status = &s
	}
	patch.Description = r.Description
	patch.BankCode = r.BankCode
	return patch
}

// PostMovementRequest represents a request to post a movement.
type PostMovementRequest struct {
	AccountID            string          `json:"account_id"`
	Type                 string          `json:"type"`
	EntryAmount          decimal.Decimal `json:"entry_amount"`
	ExitAmount           decimal.Decimal `json:"exit_amount"`
	Description          string          `json:"description"`
	DetailedDescription  string          `json:"detailed_description,omitempty"`
	PostedOn             string          `json:"posted_on"`
	Status               string          `json:"status,omitempty"`
	Category             string          `json:"category,omitempty"`
	CounterpartAccountID *string         `json:"counterpart_account_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostMovementRequest) ToUseCaseInput(companyID, actor string) (usecase.PostMovementInput, error) {
	postedOn, err := ParseDate("posted_on", r.PostedOn)
	if err != nil {
		return usecase.PostMovementInput{}, err
	}
	if postedOn == nil {
		return usecase.PostMovementInput{}, fmt.Errorf("posted_on is required")
	}

	return usecase.PostMovementInput{
		CompanyID:            companyID,
		AccountID:            r.AccountID,
		Type:                 domain.MovementType(r.Type),
		EntryAmount:          r.EntryAmount,
		ExitAmount:           r.ExitAmount,
		Description:          r.Description,
		DetailedDescription:  r.DetailedDescription,
		PostedOn:             *postedOn,
		Status:               domain.MovementStatus(r.Status),
		Category:             r.Category,
		CounterpartAccountID: r.CounterpartAccountID,
		CreatedBy:            actor,
	}, nil
}

// UpdateMovementRequest represents a partial update of a movement.
type UpdateMovementRequest struct {
	AccountID           *string          `json:"account_id,omitempty"`
	Type                *string          `json:"type,omitempty"`
	EntryAmount         *decimal.Decimal `json:"entry_amount,omitempty"`
	ExitAmount          *decimal.Decimal `json:"exit_amount,omitempty"`
	Description         *string          `json:"description,omitempty"`
	DetailedDescription *string          `json:"detailed_description,omitempty"`
	PostedOn            *string          `json:"posted_on,omitempty"`
	Status              *string          `json:"status,omitempty"`
	Category            *string          `json:"category,omitempty"`
}

// ToPatch converts to a domain patch.
func (r *UpdateMovementRequest) ToPatch() (domain.MovementPatch, error) {
	patch := domain.MovementPatch{
		AccountID:           r.AccountID,
		EntryAmount:         r.EntryAmount,
		ExitAmount:          r.ExitAmount,
		Description:         r.Description,
		DetailedDescription: r.DetailedDescription,
		Category:            r.Category,
	}

	if r.Type != nil {
		t := domain.MovementType(*r.Type)
		patch.Type = &t
	}
	if r.Status != nil {
		s := domain.MovementStatus(*r.Status)
		patch.Status = &s
	}
	if r.PostedOn != nil {
		postedOn, err := ParseDate("posted_on", *r.PostedOn)
		if err != nil {
			return domain.MovementPatch{}, err
		}
		if postedOn == nil {
			return domain.MovementPatch{}, fmt.Errorf("posted_on cannot be empty")
		}
		patch.PostedOn = postedOn
	}

	return patch, nil
}

// PostTransferRequest represents a request to move money between two
// accounts of the same company.
type PostTransferRequest struct {
	SourceAccountID      string          `json:"source_account_id"`
	DestinationAccountID string          `json:"destination_account_id"`
	Amount               decimal.Decimal `json:"amount"`
	PostedOn             string          `json:"posted_on,omitempty"`
	Description          string          `json:"description"`
	Status               string          `json:"status,omitempty"`
	Category             string          `json:"category,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostTransferRequest) ToUseCaseInput(companyID, actor string) (usecase.PostTransferInput, error) {
	postedOn, err := ParseDate("posted_on", r.PostedOn)
	if err != nil {
		return usecase.PostTransferInput{}, err
	}

	input := usecase.PostTransferInput{
		CompanyID:            companyID,
		SourceAccountID:      r.SourceAccountID,
		DestinationAccountID: r.DestinationAccountID,
		Amount:               r.Amount,
		Description:          r.Description,
		Status:               domain.MovementStatus(r.Status),
		Category:             r.Category,
		CreatedBy:            actor,
	}
	if postedOn != nil {
		input.PostedOn = *postedOn
	}

	return input, nil
}
