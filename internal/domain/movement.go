package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementType is the kind of a movement.
type MovementType string

const (
	MovementTypeEntry    MovementType = "entry"
	MovementTypeExit     MovementType = "exit"
	MovementTypeTransfer MovementType = "transfer"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeEntry, MovementTypeExit, MovementTypeTransfer:
		return true
	}
	return false
}

// MovementStatus tells whether a movement affects balances yet.
type MovementStatus string

const (
	MovementStatusPending MovementStatus = "pending"
	MovementStatusSettled MovementStatus = "settled"
)

// Valid reports whether s is a known movement status.
func (s MovementStatus) Valid() bool {
	return s == MovementStatusPending || s == MovementStatusSettled
}

// OpeningBalanceDescription is the description of the movement seeded when an
// account is created with a positive initial balance.
const OpeningBalanceDescription = "opening balance"

// Movement is a single ledger line posted against one account.
//
// A transfer is stored as two movements of type transfer that share a
// TransferID: the source leg carries ExitAmount and the destination leg
// carries EntryAmount, each pointing at the other's account through
// CounterpartAccountID.
type Movement struct {
	ID                   string
	CompanyID            string
	AccountID            string
	Type                 MovementType
	EntryAmount          decimal.Decimal
	ExitAmount           decimal.Decimal
	Description          string
	DetailedDescription  string
	PostedOn             time.Time
	BalanceBefore        decimal.Decimal
	BalanceAfter         decimal.Decimal
	Status               MovementStatus
	CounterpartAccountID *string
	TransferID           *string
	Category             string
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsSettled reports whether the movement contributes to balances.
func (m *Movement) IsSettled() bool {
	return m.Status == MovementStatusSettled
}

// IsTransferLeg reports whether the movement is one side of a transfer.
func (m *Movement) IsTransferLeg() bool {
	return m.Type == MovementTypeTransfer && m.TransferID != nil
}

// SignedEffect returns the amount the movement adds to its account balance.
// Transfer legs add the entry side on the receiving account and subtract the
// exit side on the sending one.
func (m *Movement) SignedEffect() decimal.Decimal {
	switch m.Type {
	case MovementTypeEntry:
		return m.EntryAmount
	case MovementTypeExit:
		return m.ExitAmount.Neg()
	case MovementTypeTransfer:
		if m.EntryAmount.IsPositive() {
			return m.EntryAmount
		}
		return m.ExitAmount.Neg()
	}
	return decimal.Zero
}

// Amount returns the non-zero side of the movement.
func (m *Movement) Amount() decimal.Decimal {
	if m.EntryAmount.IsPositive() {
		return m.EntryAmount
	}
	return m.ExitAmount
}

// Validate checks the movement fields and the consistency of its type with
// its amounts.
func (m *Movement) Validate() error {
	if err := ValidateCompanyID(m.CompanyID); err != nil {
		return err
	}

	if err := ValidateID(m.AccountID); err != nil {
		return fmt.Errorf("account id: %w", err)
	}

	if !m.Type.Valid() {
		return fmt.Errorf("%w: unknown movement type %q", ErrInvalidMovementType, m.Type)
	}

	if !m.Status.Valid() {
		return fmt.Errorf("%w: unknown movement status %q", ErrInvalidStatus, m.Status)
	}

	if m.PostedOn.IsZero() {
		return fmt.Errorf("%w: posted on", ErrMissingField)
	}

	if err := ValidateDescription(m.Description); err != nil {
		return err
	}

	if err := ValidateAmounts(m.Type, m.EntryAmount, m.ExitAmount); err != nil {
		return err
	}

	if m.Type == MovementTypeTransfer && m.CounterpartAccountID == nil {
		return fmt.Errorf("%w: counterpart account", ErrMissingField)
	}

	if m.CounterpartAccountID != nil && *m.CounterpartAccountID == m.AccountID {
		return ErrSameAccount
	}

	return nil
}

// ValidateAmounts checks that the amounts of a movement match its type.
func ValidateAmounts(t MovementType, entry, exit decimal.Decimal) error {
	if entry.IsNegative() || exit.IsNegative() {
		return ErrNegativeAmount
	}

	if entry.GreaterThan(maxAmount) || exit.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	if err := checkScale(entry); err != nil {
		return fmt.Errorf("entry amount: %w", err)
	}
	if err := checkScale(exit); err != nil {
		return fmt.Errorf("exit amount: %w", err)
	}

	switch t {
	case MovementTypeEntry:
		if !entry.IsPositive() {
			return fmt.Errorf("%w: entry requires a positive entry amount", ErrInvalidAmount)
		}
		if !exit.IsZero() {
			return fmt.Errorf("%w: entry cannot carry an exit amount", ErrInconsistentAmounts)
		}
	case MovementTypeExit:
		if !exit.IsPositive() {
			return fmt.Errorf("%w: exit requires a positive exit amount", ErrInvalidAmount)
		}
		if !entry.IsZero() {
			return fmt.Errorf("%w: exit cannot carry an entry amount", ErrInconsistentAmounts)
		}
	case MovementTypeTransfer:
		if entry.IsPositive() == exit.IsPositive() {
			return fmt.Errorf("%w: transfer leg needs exactly one side", ErrInconsistentAmounts)
		}
	default:
		return fmt.Errorf("%w: unknown movement type %q", ErrInvalidMovementType, t)
	}

	return nil
}

// MovementPatch holds a partial update of a movement. Nil fields are left untouched.
type MovementPatch struct {
	AccountID           *string
	Type                *MovementType
	EntryAmount         *decimal.Decimal
	ExitAmount          *decimal.Decimal
	Description         *string
	DetailedDescription *string
	PostedOn            *time.Time
	Status              *MovementStatus
	Category            *string
}

// IsEmpty reports whether the patch changes nothing.
func (p MovementPatch) IsEmpty() bool {
	return p.AccountID == nil && p.Type == nil && p.EntryAmount == nil && p.ExitAmount == nil &&
		p.Description == nil && p.DetailedDescription == nil && p.PostedOn == nil &&
		p.Status == nil && p.Category == nil
}

// TouchesLegShape reports whether the patch tries to change fields that tie a
// transfer leg to its counterpart.
func (p MovementPatch) TouchesLegShape(m *Movement) bool {
	if p.AccountID != nil && *p.AccountID != m.AccountID {
		return true
	}
	return p.Type != nil && *p.Type != m.Type
}

// Apply applies the patch to m and revalidates the result.
func (p MovementPatch) Apply(m *Movement) error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}

	if p.AccountID != nil {
		m.AccountID = *p.AccountID
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.EntryAmount != nil {
		m.EntryAmount = *p.EntryAmount
	}
	if p.ExitAmount != nil {
		m.ExitAmount = *p.ExitAmount
	}
	if p.Description != nil {
		m.Description = strings.TrimSpace(*p.Description)
	}
	if p.DetailedDescription != nil {
		m.DetailedDescription = *p.DetailedDescription
	}
	if p.PostedOn != nil {
		m.PostedOn = DateOnly(*p.PostedOn)
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.Category != nil {
		m.Category = *p.Category
	}

	return m.Validate()
}

// MovementFilter narrows a movement listing.
type MovementFilter struct {
	CompanyID string
	AccountID string
	Types     []MovementType
	Statuses  []MovementStatus
	From      *time.Time
	To        *time.Time
	// Period is a YYYY-MM month; it overrides From and To.
	Period    string
	Search    string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Limit     int
	Offset    int
}

// Normalize validates the filter, resolves Period into a date range and
// applies pagination bounds.
func (f *MovementFilter) Normalize() error {
	if err := ValidateCompanyID(f.CompanyID); err != nil {
		return err
	}

	if f.AccountID != "" {
		if err := ValidateID(f.AccountID); err != nil {
			return fmt.Errorf("account id: %w", err)
		}
	}

	for _, t := range f.Types {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown movement type %q", ErrInvalidMovementType, t)
		}
	}

	for _, s := range f.Statuses {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown movement status %q", ErrInvalidStatus, s)
		}
	}

	if f.Period != "" {
		start, err := time.Parse("2006-01", f.Period)
		if err != nil {
			return fmt.Errorf("%w: period must be YYYY-MM", ErrInvalidFilter)
		}
		end := start.AddDate(0, 1, -1)
		f.From, f.To = &start, &end
	}

	if f.From != nil {
		from := DateOnly(*f.From)
		f.From = &from
	}
	if f.To != nil {
		to := DateOnly(*f.To)
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("%w: date range ends before it starts", ErrInvalidFilter)
	}

	if f.MinAmount != nil && f.MaxAmount != nil && f.MaxAmount.LessThan(*f.MinAmount) {
		return fmt.Errorf("%w: max amount below min amount", ErrInvalidFilter)
	}

	f.Search = strings.TrimSpace(f.Search)
	f.Limit, f.Offset = ValidatePagination(f.Limit, f.Offset)

	return nil
}

// Matches reports whether m passes every criterion of the filter except
// pagination.
func (f *MovementFilter) Matches(m *Movement) bool {
	if m.CompanyID != f.CompanyID {
		return false
	}
	if f.AccountID != "" && m.AccountID != f.AccountID {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, m.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, m.Status) {
		return false
	}
	if f.From != nil && m.PostedOn.Before(*f.From) {
		return false
	}
	if f.To != nil && m.PostedOn.After(*f.To) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(m.Description), needle) &&
			!strings.Contains(strings.ToLower(m.DetailedDescription), needle) {
			return false
		}
	}
	if f.MinAmount != nil && m.EntryAmount.LessThan(*f.MinAmount) && m.ExitAmount.LessThan(*f.MinAmount) {
		return false
	}
	if f.MaxAmount != nil && !(m.EntryAmount.IsPositive() && m.EntryAmount.LessThanOrEqual(*f.MaxAmount)) &&
		!(m.ExitAmount.IsPositive() && m.ExitAmount.LessThanOrEqual(*f.MaxAmount)) {
		return false
	}
	return true
}
