package domain

import "time"

// Event types
const (
	EventTypeAccountCreated     = "account.created"
	EventTypeAccountUpdated     = "account.updated"
	EventTypeAccountDeactivated = "account.deactivated"
	EventTypeAccountDeleted     = "account.deleted"
	EventTypeMovementPosted     = "movement.posted"
	EventTypeMovementUpdated    = "movement.updated"
	EventTypeMovementDeleted    = "movement.deleted"
	EventTypeTransferPosted     = "transfer.posted"
	EventTypeTransferDeleted    = "transfer.deleted"
	EventTypeBalanceRecomputed  = "balance.recomputed"
)

// Aggregate types
const (
	AggregateTypeAccount  = "account"
	AggregateTypeMovement = "movement"
	AggregateTypeTransfer = "transfer"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	CompanyID     string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// AccountEventPayload builds the payload of account lifecycle events.
func AccountEventPayload(a *Account) map[string]any {
	return map[string]any{
		"account_id":      a.ID,
		"company_id":      a.CompanyID,
		"type":            string(a.Type),
		"status":          string(a.Status),
		"current_balance": a.CurrentBalance.String(),
	}
}

// MovementEventPayload builds the payload of movement lifecycle events.
func MovementEventPayload(m *Movement) map[string]any {
	payload := map[string]any{
		"movement_id":  m.ID,
		"company_id":   m.CompanyID,
		"account_id":   m.AccountID,
		"type":         string(m.Type),
		"status":       string(m.Status),
		"entry_amount": m.EntryAmount.String(),
		"exit_amount":  m.ExitAmount.String(),
		"posted_on":    m.PostedOn.Format(time.DateOnly),
	}
	if m.TransferID != nil {
		payload["transfer_id"] = *m.TransferID
	}
	return payload
}

// TransferEventPayload builds the payload of transfer lifecycle events.
func TransferEventPayload(t *Transfer) map[string]any {
	return map[string]any{
		"transfer_id":            t.ID,
		"company_id":             t.CompanyID,
		"source_account_id":      t.SourceAccountID,
		"destination_account_id": t.DestinationAccountID,
		"amount":                 t.Amount.String(),
		"posted_on":              t.PostedOn.Format(time.DateOnly),
	}
}
