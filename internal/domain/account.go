package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies where the money of an account is held.
type AccountType string

const (
	AccountTypeBank       AccountType = "bank"
	AccountTypeCash       AccountType = "cash"
	AccountTypeCard       AccountType = "card"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBank, AccountTypeCash, AccountTypeCard, AccountTypeInvestment, AccountTypeOther:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
)

// Valid reports whether s is a known account status.
func (s AccountStatus) Valid() bool {
	return s == AccountStatusActive || s == AccountStatusInactive
}

// Account is a financial account owned by a company.
//
// CurrentBalance is a cache of the balance derived from the account's settled
// movements and is rewritten every time the movement history changes.
type Account struct {
	ID                 string
	CompanyID          string
	Type               AccountType
	Description        string
	BankCode           string
	InitialBalance     decimal.Decimal
	CurrentBalance     decimal.Decimal
	Status             AccountStatus
	OpenedOn           time.Time
	LastRecalculatedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsActive reports whether the account accepts new movements.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// Validate checks the fields required to create an account.
func (a *Account) Validate() error {
	if err := ValidateCompanyID(a.CompanyID); err != nil {
		return err
	}

	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidAccountType, a.Type)
	}

	if err := ValidateDescription(a.Description); err != nil {
		return err
	}

	if a.InitialBalance.IsNegative() {
		return fmt.Errorf("%w: initial balance", ErrNegativeAmount)
	}

	if a.InitialBalance.IsPositive() {
		if err := ValidateAmount(a.InitialBalance); err != nil {
			return fmt.Errorf("initial balance: %w", err)
		}
	}

	return nil
}

// AccountPatch holds a partial update of an account. Nil fields are left untouched.
type AccountPatch struct {
	Type        *AccountType
	Description *string
	BankCode    *string
	Status      *AccountStatus
}

// IsEmpty reports whether the patch changes nothing.
func (p AccountPatch) IsEmpty() bool {
	return p.Type == nil && p.Description == nil && p.BankCode == nil && p.Status == nil
}

// Apply validates the patch and applies it to the account.
func (p AccountPatch) Apply(a *Account) error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}

	if p.Type != nil {
		if !p.Type.Valid() {
			return fmt.Errorf("%w: unknown account type %q", ErrInvalidAccountType, *p.Type)
		}
		a.Type = *p.Type
	}

	if p.Description != nil {
		if err := ValidateDescription(*p.Description); err != nil {
			return err
		}
		a.Description = strings.TrimSpace(*p.Description)
	}

	if p.BankCode != nil {
		a.BankCode = strings.TrimSpace(*p.BankCode)
	}

	if p.Status != nil {
		if !p.Status.Valid() {
			return fmt.Errorf("%w: unknown account status %q", ErrInvalidStatus, *p.Status)
		}
		a.Status = *p.Status
	}

	return nil
}

// AccountFilter narrows an account listing. Inactive accounts are hidden
// unless IncludeInactive is set or Status asks for them explicitly.
type AccountFilter struct {
	CompanyID       string
	Type            *AccountType
	Status          *AccountStatus
	IncludeInactive bool
	BankCode        string
	Search          string
	Limit           int
	Offset          int
}

// Normalize applies pagination bounds and the default status visibility.
func (f *AccountFilter) Normalize() error {
	if err := ValidateCompanyID(f.CompanyID); err != nil {
		return err
	}

	if f.Type != nil && !f.Type.Valid() {
		return fmt.Errorf("%w: unknown account type %q", ErrInvalidAccountType, *f.Type)
	}

	if f.Status != nil && !f.Status.Valid() {
		return fmt.Errorf("%w: unknown account status %q", ErrInvalidStatus, *f.Status)
	}

	if f.Status == nil && !f.IncludeInactive {
		active := AccountStatusActive
		f.Status = &active
	}

	f.Search = strings.TrimSpace(f.Search)
	f.Limit, f.Offset = ValidatePagination(f.Limit, f.Offset)

	return nil
}

// DeleteOutcome tells whether an account deletion removed the row or only
// deactivated an account that still has movement history.
type DeleteOutcome string

const (
	DeleteOutcomeDeleted     DeleteOutcome = "deleted"
	DeleteOutcomeDeactivated DeleteOutcome = "deactivated"
)
