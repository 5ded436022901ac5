package domain

import "errors"

var (
	// Not found errors
	ErrAccountNotFound  = errors.New("account not found")
	ErrMovementNotFound = errors.New("movement not found")
	ErrTransferNotFound = errors.New("transfer not found")

	// Movement errors
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrNegativeAmount       = errors.New("amounts cannot be negative")
	ErrInconsistentAmounts  = errors.New("amounts do not match movement type")
	ErrInvalidMovementType  = errors.New("invalid movement type")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrTransferLegImmutable = errors.New("transfer leg account and type cannot change")

	// Transfer errors
	ErrSameAccount    = errors.New("cannot transfer to same account")
	ErrTransferFailed = errors.New("transfer failed")

	// Concurrency errors
	ErrConcurrentUpdate = errors.New("record changed during update")
)

// IsNotFound reports whether err means the requested record does not exist
// for the caller's company.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrMovementNotFound) ||
		errors.Is(err, ErrTransferNotFound)
}

// IsValidation reports whether err was caused by invalid input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount,
		ErrNegativeAmount,
		ErrInconsistentAmounts,
		ErrInvalidMovementType,
		ErrSameAccount,
		ErrInvalidID,
		ErrInvalidCompanyID,
		ErrMissingField,
		ErrEmptyPatch,
		ErrInvalidAccountType,
		ErrInvalidStatus,
		ErrInvalidDescription,
		ErrInvalidFilter,
		ErrAmountTooLarge,
		ErrAmountTooSmall,
		ErrTransferLegImmutable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
