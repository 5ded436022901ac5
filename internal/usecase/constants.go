package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction.
	// Past it the transaction is rolled back and nothing it wrote survives.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// SystemActor is recorded as CreatedBy when the caller is unknown.
	SystemActor = "system"
)
