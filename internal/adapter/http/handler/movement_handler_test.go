package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

const testMovementID = "01BX5ZZKBKACTAV9WEVGEMMVRZ"

type movementServiceStub struct {
	postFn   func(ctx context.Context, input usecase.PostMovementInput) (*domain.Movement, error)
	getFn    func(ctx context.Context, companyID, id string) (*domain.Movement, error)
	listFn   func(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error)
	updateFn func(ctx context.Context, companyID, id string, patch domain.MovementPatch) (*domain.Movement, error)
	deleteFn func(ctx context.Context, companyID, id string) (bool, error)
}

func (s *movementServiceStub) PostMovement(ctx context.Context, input usecase.PostMovementInput) (*domain.Movement, error) {
	return s.postFn(ctx, input)
}

func (s *movementServiceStub) GetMovement(ctx context.Context, companyID, id string) (*domain.Movement, error) {
	return s.getFn(ctx, companyID, id)
}

func (s *movementServiceStub) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
	return s.listFn(ctx, filter)
}

func (s *movementServiceStub) UpdateMovement(ctx context.Context, companyID, id string, patch domain.MovementPatch) (*domain.Movement, error) {
	return s.updateFn(ctx, companyID, id, patch)
}

func (s *movementServiceStub) DeleteMovement(ctx context.Context, companyID, id string) (bool, error) {
	return s.deleteFn(ctx, companyID, id)
}

func mountMovements(h *MovementHandler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/movements", h.Create)
		r.Get("/movements", h.List)
		r.Get("/movements/{id}", h.Get)
		r.Patch("/movements/{id}", h.Update)
		r.Delete("/movements/{id}", h.Delete)
		r.Get("/accounts/{id}/movements", h.List)
	}
}

func sampleMovement() *domain.Movement {
	return &domain.Movement{
		ID:            testMovementID,
		CompanyID:     testCompany,
		AccountID:     testAccountID,
		Type:          domain.MovementTypeEntry,
		EntryAmount:   decimal.NewFromInt(40),
		Description:   "Invoice 12",
		PostedOn:      time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		BalanceBefore: decimal.NewFromInt(100),
		BalanceAfter:  decimal.NewFromInt(140),
		Status:        domain.MovementStatusSettled,
	}
}

func TestMovementHandler_Create(t *testing.T) {
	var captured usecase.PostMovementInput
	h := NewMovementHandler(&movementServiceStub{
		postFn: func(ctx context.Context, input usecase.PostMovementInput) (*domain.Movement, error) {
			captured = input
			return sampleMovement(), nil
		},
	})

	rec := serve(t, mountMovements(h), http.MethodPost, "/movements",
		`{"account_id":"`+testAccountID+`","type":"entry","entry_amount":"40","exit_amount":"0","description":"Invoice 12","posted_on":"2024-03-05"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testCompany, captured.CompanyID)
	assert.Equal(t, testActor, captured.CreatedBy)
	assert.Equal(t, domain.MovementTypeEntry, captured.Type)
	assert.True(t, captured.EntryAmount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "2024-03-05", captured.PostedOn.Format(dto.DateLayout))

	resp := decodeBody[dto.MovementResponse](t, rec)
	assert.Equal(t, testMovementID, resp.ID)
	assert.Equal(t, "140", resp.BalanceAfter.String())
}

func TestMovementHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		expected int
	}{
		{"missing posted_on", `{"account_id":"` + testAccountID + `","type":"entry","entry_amount":"1"}`, nil, http.StatusBadRequest},
		{"inconsistent amounts", `{"account_id":"` + testAccountID + `","type":"entry","exit_amount":"1","posted_on":"2024-03-05"}`, domain.ErrInconsistentAmounts, http.StatusBadRequest},
		{"inactive account", `{"account_id":"` + testAccountID + `","type":"entry","entry_amount":"1","posted_on":"2024-03-05"}`, domain.ErrAccountInactive, http.StatusUnprocessableEntity},
		{"unknown account", `{"account_id":"` + testAccountID + `","type":"entry","entry_amount":"1","posted_on":"2024-03-05"}`, domain.ErrAccountNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMovementHandler(&movementServiceStub{
				postFn: func(ctx context.Context, input usecase.PostMovementInput) (*domain.Movement, error) {
					return nil, tt.err
				},
			})

			rec := serve(t, mountMovements(h), http.MethodPost, "/movements", tt.body)
			assert.Equal(t, tt.expected, rec.Code, rec.Body.String())
		})
	}
}

func TestMovementHandler_List(t *testing.T) {
	var captured domain.MovementFilter
	h := NewMovementHandler(&movementServiceStub{
		listFn: func(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
			captured = filter
			return []*domain.Movement{sampleMovement()}, nil
		},
	})

	rec := serve(t, mountMovements(h), http.MethodGet,
		"/movements?account_id="+testAccountID+"&type=entry,transfer&status=settled&from=2024-03-01&to=2024-03-31&min_amount=10.5&max_amount=99&search=invoice&limit=20", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testCompany, captured.CompanyID)
	assert.Equal(t, testAccountID, captured.AccountID)
	assert.Equal(t, []domain.MovementType{domain.MovementTypeEntry, domain.MovementTypeTransfer}, captured.Types)
	assert.Equal(t, []domain.MovementStatus{domain.MovementStatusSettled}, captured.Statuses)
	require.NotNil(t, captured.From)
	require.NotNil(t, captured.To)
	assert.Equal(t, "2024-03-31", captured.To.Format(dto.DateLayout))
	require.NotNil(t, captured.MinAmount)
	assert.Equal(t, "10.5", captured.MinAmount.String())
	require.NotNil(t, captured.MaxAmount)
	assert.Equal(t, "invoice", captured.Search)
	assert.Equal(t, 20, captured.Limit)

	resp := decodeBody[dto.ListMovementsResponse](t, rec)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 20, resp.Limit)
}

func TestMovementHandler_ListByAccountRoute(t *testing.T) {
	var captured domain.MovementFilter
	h := NewMovementHandler(&movementServiceStub{
		listFn: func(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
			captured = filter
			return nil, nil
		},
	})

	rec := serve(t, mountMovements(h), http.MethodGet, "/accounts/"+testAccountID+"/movements?account_id=other&period=2024-03", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testAccountID, captured.AccountID)
	assert.Equal(t, "2024-03", captured.Period)
}

func TestMovementHandler_List_InvalidQuery(t *testing.T) {
	h := NewMovementHandler(&movementServiceStub{})

	for _, query := range []string{"from=03/01/2024", "to=yesterday", "min_amount=ten", "max_amount=abc"} {
		t.Run(query, func(t *testing.T) {
			rec := serve(t, mountMovements(h), http.MethodGet, "/movements?"+query, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestMovementHandler_Update(t *testing.T) {
	var captured domain.MovementPatch
	h := NewMovementHandler(&movementServiceStub{
		updateFn: func(ctx context.Context, companyID, id string, patch domain.MovementPatch) (*domain.Movement, error) {
			captured = patch
			return sampleMovement(), nil
		},
	})

	rec := serve(t, mountMovements(h), http.MethodPatch, "/movements/"+testMovementID, `{"status":"pending","posted_on":"2024-03-07"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, captured.Status)
	assert.Equal(t, domain.MovementStatusPending, *captured.Status)
	require.NotNil(t, captured.PostedOn)
	assert.Equal(t, "2024-03-07", captured.PostedOn.Format(dto.DateLayout))
}

func TestMovementHandler_Update_TransferLeg(t *testing.T) {
	h := NewMovementHandler(&movementServiceStub{
		updateFn: func(ctx context.Context, companyID, id string, patch domain.MovementPatch) (*domain.Movement, error) {
			return nil, domain.ErrTransferLegImmutable
		},
	})

	rec := serve(t, mountMovements(h), http.MethodPatch, "/movements/"+testMovementID, `{"description":"x"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMovementHandler_GetAndDelete(t *testing.T) {
	h := NewMovementHandler(&movementServiceStub{
		getFn: func(ctx context.Context, companyID, id string) (*domain.Movement, error) {
			return nil, domain.ErrMovementNotFound
		},
		deleteFn: func(ctx context.Context, companyID, id string) (bool, error) {
			return false, nil
		},
	})

	rec := serve(t, mountMovements(h), http.MethodGet, "/movements/"+testMovementID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, mountMovements(h), http.MethodDelete, "/movements/"+testMovementID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[map[string]bool](t, rec)["deleted"])
}
