package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidID          = errors.New("invalid ID format")
	ErrInvalidCompanyID   = errors.New("invalid company id")
	ErrMissingField       = errors.New("missing required field")
	ErrEmptyPatch         = errors.New("update contains no fields")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall     = errors.New("amount below minimum allowed")
)

// Validation constants
const (
	MaxCompanyIDLength   = 64
	MaxDescriptionLength = 255
	MaxAmount            = "1000000000000" // 1 trillion
	MinAmount            = "0.01"
	AmountScale          = 2 // matches NUMERIC(20, 2)
	DefaultPageSize      = 100
	MaxPageSize          = 1000
)

var (
	maxAmount = decimal.RequireFromString(MaxAmount)
	minAmount = decimal.RequireFromString(MinAmount)
)

// ValidateID checks that id is a well-formed ULID.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}

	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	return nil
}

// ValidateCompanyID checks the tenant identifier.
func ValidateCompanyID(companyID string) error {
	companyID = strings.TrimSpace(companyID)

	if companyID == "" {
		return fmt.Errorf("%w: company id", ErrMissingField)
	}

	if len(companyID) > MaxCompanyIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidCompanyID, MaxCompanyIDLength)
	}

	return nil
}

// ValidateDescription validates a free-text description
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)

	if description == "" {
		return fmt.Errorf("%w: description", ErrMissingField)
	}

	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}

// ValidateAmount validates a positive amount: a transfer or an opening balance.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}

	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	if err := checkScale(amount); err != nil {
		return err
	}

	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	return nil
}

// checkScale rejects amounts the storage would round. Trailing zeros are fine.
func checkScale(amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(AmountScale)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, AmountScale)
	}
	return nil
}

// ValidatePagination limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC date.
func Today() time.Time {
	return DateOnly(time.Now().UTC())
}
