package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID                 string          `json:"id"`
	CompanyID          string          `json:"company_id"`
	Type               string          `json:"type"`
	Description        string          `json:"description"`
	BankCode           string          `json:"bank_code,omitempty"`
	InitialBalance     decimal.Decimal `json:"initial_balance"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	Status             string          `json:"status"`
	OpenedOn           string          `json:"opened_on"`
	LastRecalculatedAt *time.Time      `json:"last_recalculated_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:                 a.ID,
		CompanyID:          a.CompanyID,
		Type:               string(a.Type),
		Description:        a.Description,
		BankCode:           a.BankCode,
		InitialBalance:     a.InitialBalance,
		CurrentBalance:     a.CurrentBalance,
		Status:             string(a.Status),
		OpenedOn:           a.OpenedOn.Format(DateLayout),
		LastRecalculatedAt: a.LastRecalculatedAt,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Count    int                `json:"count"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// DeleteAccountResponse tells whether the account was removed or only
// deactivated.
type DeleteAccountResponse struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
}

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID                   string          `json:"id"`
	CompanyID            string          `json:"company_id"`
	AccountID            string          `json:"account_id"`
	Type                 string          `json:"type"`
	EntryAmount          decimal.Decimal `json:"entry_amount"`
	ExitAmount           decimal.Decimal `json:"exit_amount"`
	Description          string          `json:"description"`
	DetailedDescription  string          `json:"detailed_description,omitempty"`
	PostedOn             string          `json:"posted_on"`
	BalanceBefore        decimal.Decimal `json:"balance_before"`
	BalanceAfter         decimal.Decimal `json:"balance_after"`
	Status               string          `json:"status"`
	CounterpartAccountID *string         `json:"counterpart_account_id,omitempty"`
	TransferID           *string         `json:"transfer_id,omitempty"`
	Category             string          `json:"category,omitempty"`
	CreatedBy            string          `json:"created_by"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// MovementFromDomain converts domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:                   m.ID,
		CompanyID:            m.CompanyID,
		AccountID:            m.AccountID,
		Type:                 string(m.Type),
		EntryAmount:          m.EntryAmount,
		ExitAmount:           m.ExitAmount,
		Description:          m.Description,
		DetailedDescription:  m.DetailedDescription,
		PostedOn:             m.PostedOn.Format(DateLayout),
		BalanceBefore:        m.BalanceBefore,
		BalanceAfter:         m.BalanceAfter,
		Status:               string(m.Status),
		CounterpartAccountID: m.CounterpartAccountID,
		TransferID:           m.TransferID,
		Category:             m.Category,
		CreatedBy:            m.CreatedBy,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// ListMovementsResponse represents a page of movements.
type ListMovementsResponse struct {
	Movements []*MovementResponse `json:"movements"`
	Count     int                 `json:"count"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// TransferResponse represents a transfer and its two legs.
type TransferResponse struct {
	ID                   string            `json:"id"`
	SourceAccountID      string            `json:"source_account_id"`
	DestinationAccountID string            `json:"destination_account_id"`
	Amount               decimal.Decimal   `json:"amount"`
	PostedOn             string            `json:"posted_on"`
	Description          string            `json:"description"`
	Status               string            `json:"status"`
	SourceLeg            *MovementResponse `json:"source_leg,omitempty"`
	DestinationLeg       *MovementResponse `json:"destination_leg,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.Transfer) *TransferResponse {
	resp := &TransferResponse{
		ID:                   t.ID,
		SourceAccountID:      t.SourceAccountID,
		DestinationAccountID: t.DestinationAccountID,
		Amount:               t.Amount,
		PostedOn:             t.PostedOn.Format(DateLayout),
		Description:          t.Description,
		Status:               string(t.Status),
		CreatedAt:            t.CreatedAt,
	}
	if t.SourceLeg != nil {
		resp.SourceLeg = MovementFromDomain(t.SourceLeg)
	}
	if t.DestinationLeg != nil {
		resp.DestinationLeg = MovementFromDomain(t.DestinationLeg)
	}
	return resp
}

// BalanceResponse represents a derived balance.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// ChainRecomputeResponse reports how many snapshots a chain repair rewrote.
type ChainRecomputeResponse struct {
	AccountID          string `json:"account_id"`
	SnapshotsRewritten int    `json:"snapshots_rewritten"`
}

// RecomputeResultResponse represents the repair of one account.
type RecomputeResultResponse struct {
	AccountID          string          `json:"account_id"`
	PreviousBalance    decimal.Decimal `json:"previous_balance"`
	CurrentBalance     decimal.Decimal `json:"current_balance"`
	SnapshotsRewritten int             `json:"snapshots_rewritten"`
}

// RecomputeResultsFromUseCase converts recompute results to responses.
func RecomputeResultsFromUseCase(results []*usecase.RecomputeResult) []*RecomputeResultResponse {
	out := make([]*RecomputeResultResponse, len(results))
	for i, r := range results {
		out[i] = &RecomputeResultResponse{
			AccountID:          r.AccountID,
			PreviousBalance:    r.PreviousBalance,
			CurrentBalance:     r.CurrentBalance,
			SnapshotsRewritten: r.SnapshotsRewritten,
		}
	}
	return out
}

// ChainBreakResponse represents a movement whose stored snapshots disagree
// with the recomputed chain.
type ChainBreakResponse struct {
	MovementID     string          `json:"movement_id"`
	StoredBefore   decimal.Decimal `json:"stored_before"`
	StoredAfter    decimal.Decimal `json:"stored_after"`
	ExpectedBefore decimal.Decimal `json:"expected_before"`
	ExpectedAfter  decimal.Decimal `json:"expected_after"`
}

// ReconciliationResponse represents the reconciliation of one account.
type ReconciliationResponse struct {
	AccountID         string                `json:"account_id"`
	RecordedBalance   decimal.Decimal       `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal       `json:"calculated_balance"`
	Difference        decimal.Decimal       `json:"difference"`
	ChainBreaks       []*ChainBreakResponse `json:"chain_breaks"`
	IsReconciled      bool                  `json:"is_reconciled"`
	LastChecked       time.Time             `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	breaks := make([]*ChainBreakResponse, len(r.ChainBreaks))
	for i, b := range r.ChainBreaks {
		breaks[i] = &ChainBreakResponse{
			MovementID:     b.MovementID,
			StoredBefore:   b.StoredBefore,
			StoredAfter:    b.StoredAfter,
			ExpectedBefore: b.ExpectedBefore,
			ExpectedAfter:  b.ExpectedAfter,
		}
	}

	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		ChainBreaks:       breaks,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse represents a company-wide reconciliation.
type ReconciliationReportResponse struct {
	CompanyID          string                    `json:"company_id"`
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}

	return &ReconciliationReportResponse{
		CompanyID:          r.CompanyID,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
