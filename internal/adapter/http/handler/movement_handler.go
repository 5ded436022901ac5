package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// MovementService defines the behavior needed by MovementHandler.
type MovementService interface {
	PostMovement(ctx context.Context, input usecase.PostMovementInput) (*domain.Movement, error)
	GetMovement(ctx context.Context, companyID, id string) (*domain.Movement, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error)
	UpdateMovement(ctx context.Context, companyID, id string, patch domain.MovementPatch) (*domain.Movement, error)
	DeleteMovement(ctx context.Context, companyID, id string) (bool, error)
}

// MovementHandler handles movement-related HTTP requests.
type MovementHandler struct {
	movementUC MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementUC MovementService) *MovementHandler {
	return &MovementHandler{movementUC: movementUC}
}

// Create posts a movement.
func (h *MovementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PostMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(companyID(r), middleware.ActorFromContext(r.Context()))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	movement, err := h.movementUC.PostMovement(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to post movement", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.MovementFromDomain(movement))
}

// Get retrieves a movement by ID.
func (h *MovementHandler) Get(w http.ResponseWriter, r *http.Request) {
	movement, err := h.movementUC.GetMovement(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// List lists movements in chronological order.
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := movementFilterFromQuery(r, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	movements, err := h.movementUC.ListMovements(r.Context(), filter)
	if err != nil {
		writeDomainError(w, "failed to list movements", err)
		return
	}

	limit, offset := domain.ValidatePagination(filter.Limit, filter.Offset)
	writeJSON(w, http.StatusOK, dto.ListMovementsResponse{
		Movements: dto.MovementsFromDomain(movements),
		Count:     len(movements),
		Limit:     limit,
		Offset:    offset,
	})
}

// Update applies a partial update to a movement.
func (h *MovementHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMovementRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	patch, err := req.ToPatch()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	movement, err := h.movementUC.UpdateMovement(r.Context(), companyID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, "failed to update movement", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementFromDomain(movement))
}

// Delete removes a movement. Deleting an unknown movement is not an error.
func (h *MovementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.movementUC.DeleteMovement(r.Context(), companyID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to delete movement", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// movementFilterFromQuery builds a filter from query parameters. accountID,
// when set from the route, overrides the account_id parameter.
func movementFilterFromQuery(r *http.Request, accountID string) (domain.MovementFilter, error) {
	q := r.URL.Query()
	filter := domain.MovementFilter{
		CompanyID: companyID(r),
		AccountID: q.Get("account_id"),
		Period:    q.Get("period"),
		Search:    q.Get("search"),
		Limit:     parseIntQuery(r, "limit", domain.DefaultPageSize),
		Offset:    parseIntQuery(r, "offset", 0),
	}
	if accountID != "" {
		filter.AccountID = accountID
	}

	for _, t := range parseListQuery(r, "type") {
		filter.Types = append(filter.Types, domain.MovementType(t))
	}
	for _, s := range parseListQuery(r, "status") {
		filter.Statuses = append(filter.Statuses, domain.MovementStatus(s))
	}

	var err error
	if filter.From, err = dto.ParseDate("from", q.Get("from")); err != nil {
		return filter, err
	}
	if filter.To, err = dto.ParseDate("to", q.Get("to")); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = parseDecimalQuery(r, "min_amount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = parseDecimalQuery(r, "max_amount"); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseDecimalQuery(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
