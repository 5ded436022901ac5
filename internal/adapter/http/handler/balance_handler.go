package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	CalculateCurrentBalance(ctx context.Context, companyID, accountID string) (decimal.Decimal, error)
	RecomputeCurrentBalance(ctx context.Context, companyID, accountID string) (*domain.Account, error)
	RecomputeChain(ctx context.Context, companyID, accountID string) (int, error)
	RecomputeAllBalances(ctx context.Context, companyID string) ([]*usecase.RecomputeResult, error)
}

// ReconciliationService defines the behavior needed by BalanceHandler for
// read-only verification.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, companyID, accountID string) (*usecase.ReconciliationResult, error)
	GenerateReconciliationReport(ctx context.Context, companyID string) (*usecase.ReconciliationReport, error)
}

// BalanceHandler serves balance derivation, repair and reconciliation.
type BalanceHandler struct {
	balanceUC        BalanceService
	reconciliationUC ReconciliationService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService, reconciliationUC ReconciliationService) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC, reconciliationUC: reconciliationUC}
}

// Calculate derives the balance of an account from its settled movements
// without touching the stored cache.
func (h *BalanceHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	balance, err := h.balanceUC.CalculateCurrentBalance(r.Context(), companyID(r), accountID)
	if err != nil {
		writeDomainError(w, "failed to calculate balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: accountID, Balance: balance})
}

// Recompute rewrites the cached balance of an account.
func (h *BalanceHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	account, err := h.balanceUC.RecomputeCurrentBalance(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to recompute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// RecomputeChain rewrites the running-balance snapshots of an account.
func (h *BalanceHandler) RecomputeChain(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	rewritten, err := h.balanceUC.RecomputeChain(r.Context(), companyID(r), accountID)
	if err != nil {
		writeDomainError(w, "failed to recompute chain", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChainRecomputeResponse{AccountID: accountID, SnapshotsRewritten: rewritten})
}

// RecomputeAll repairs every account of the company.
func (h *BalanceHandler) RecomputeAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.balanceUC.RecomputeAllBalances(r.Context(), companyID(r))
	if err != nil {
		writeDomainError(w, "failed to recompute balances", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": dto.RecomputeResultsFromUseCase(results)})
}

// Reconcile verifies one account without repairing it.
func (h *BalanceHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliationUC.ReconcileAccount(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Report reconciles every account of the company.
func (h *BalanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.GenerateReconciliationReport(r.Context(), companyID(r))
	if err != nil {
		writeDomainError(w, "failed to generate reconciliation report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}
