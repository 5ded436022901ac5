package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, companyID, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, companyID, id string, patch domain.AccountPatch) (*domain.Account, error)
	DeleteAccount(ctx context.Context, companyID, id string) (domain.DeleteOutcome, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(companyID(r), middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.GetAccount(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts. Inactive accounts are hidden unless include_inactive
// or an explicit status is given.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AccountFilter{
		CompanyID:       companyID(r),
		IncludeInactive: parseBoolQuery(r, "include_inactive"),
		BankCode:        q.Get("bank_code"),
		Search:          q.Get("search"),
		Limit:           parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:          parseIntQuery(r, "offset", 0),
	}
	if v := q.Get("type"); v != "" {
		t := domain.AccountType(v)
		filter.Type = &t
	}
	if v := q.Get("status"); v != "" {
		s := domain.AccountStatus(v)
		filter.Status = &s
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	limit, offset := domain.ValidatePagination(filter.Limit, filter.Offset)
	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Count:    len(accounts),
		Limit:    limit,
		Offset:   offset,
	})
}

// Update applies a partial update to an account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.UpdateAccount(r.Context(), companyID(r), chi.URLParam(r, "id"), req.ToPatch())
	if err != nil {
		writeDomainError(w, "failed to update account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Delete removes an account, or deactivates it when it has movements.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	outcome, err := h.accountUC.DeleteAccount(r.Context(), companyID(r), id)
	if err != nil {
		writeDomainError(w, "failed to delete account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteAccountResponse{ID: id, Outcome: string(outcome)})
}
