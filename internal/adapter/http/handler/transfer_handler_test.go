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

const (
	testTransferID  = "01H8XGJWBWBAQ4DZ5B5V9N5G1W"
	testDestination = "01H8XGJWBWBAQ4DZ5B5V9N5G1X"
)

type transferServiceStub struct {
	postFn   func(ctx context.Context, input usecase.PostTransferInput) (*domain.Transfer, error)
	getFn    func(ctx context.Context, companyID, transferID string) (*domain.Transfer, error)
	deleteFn func(ctx context.Context, companyID, transferID string) (bool, error)
}

func (s *transferServiceStub) PostTransfer(ctx context.Context, input usecase.PostTransferInput) (*domain.Transfer, error) {
	return s.postFn(ctx, input)
}

func (s *transferServiceStub) GetTransfer(ctx context.Context, companyID, transferID string) (*domain.Transfer, error) {
	return s.getFn(ctx, companyID, transferID)
}

func (s *transferServiceStub) DeleteTransfer(ctx context.Context, companyID, transferID string) (bool, error) {
	return s.deleteFn(ctx, companyID, transferID)
}

func mountTransfers(h *TransferHandler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/transfers", h.Create)
		r.Get("/transfers/{id}", h.Get)
		r.Delete("/transfers/{id}", h.Delete)
	}
}

func sampleTransfer() *domain.Transfer {
	postedOn := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)
	id := testTransferID
	return &domain.Transfer{
		ID:                   testTransferID,
		CompanyID:            testCompany,
		SourceAccountID:      testAccountID,
		DestinationAccountID: testDestination,
		Amount:               decimal.NewFromInt(75),
		PostedOn:             postedOn,
		Status:               domain.MovementStatusSettled,
		SourceLeg: &domain.Movement{
			ID: "01H8XGJWBWBAQ4DZ5B5V9N5G1Y", AccountID: testAccountID, Type: domain.MovementTypeTransfer,
			ExitAmount: decimal.NewFromInt(75), PostedOn: postedOn, TransferID: &id, Status: domain.MovementStatusSettled,
		},
		DestinationLeg: &domain.Movement{
			ID: "01H8XGJWBWBAQ4DZ5B5V9N5G1Z", AccountID: testDestination, Type: domain.MovementTypeTransfer,
			EntryAmount: decimal.NewFromInt(75), PostedOn: postedOn, TransferID: &id, Status: domain.MovementStatusSettled,
		},
	}
}

func TestTransferHandler_Create(t *testing.T) {
	var captured usecase.PostTransferInput
	h := NewTransferHandler(&transferServiceStub{
		postFn: func(ctx context.Context, input usecase.PostTransferInput) (*domain.Transfer, error) {
			captured = input
			return sampleTransfer(), nil
		},
	})

	rec := serve(t, mountTransfers(h), http.MethodPost, "/transfers",
		`{"source_account_id":"`+testAccountID+`","destination_account_id":"`+testDestination+`","amount":"75","posted_on":"2024-04-02"}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, testCompany, captured.CompanyID)
	assert.Equal(t, testActor, captured.CreatedBy)
	assert.Equal(t, testAccountID, captured.SourceAccountID)
	assert.Equal(t, testDestination, captured.DestinationAccountID)
	assert.True(t, captured.Amount.Equal(decimal.NewFromInt(75)))

	resp := decodeBody[dto.TransferResponse](t, rec)
	assert.Equal(t, testTransferID, resp.ID)
	require.NotNil(t, resp.SourceLeg)
	require.NotNil(t, resp.DestinationLeg)
	assert.Equal(t, "75", resp.SourceLeg.ExitAmount.String())
	assert.Equal(t, "75", resp.DestinationLeg.EntryAmount.String())
}

func TestTransferHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"inactive account", domain.ErrAccountInactive, http.StatusUnprocessableEntity},
		{"unknown account", domain.ErrAccountNotFound, http.StatusNotFound},
		{"failed", domain.ErrTransferFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransferHandler(&transferServiceStub{
				postFn: func(ctx context.Context, input usecase.PostTransferInput) (*domain.Transfer, error) {
					return nil, tt.err
				},
			})

			rec := serve(t, mountTransfers(h), http.MethodPost, "/transfers",
				`{"source_account_id":"`+testAccountID+`","destination_account_id":"`+testAccountID+`","amount":"1","posted_on":"2024-04-02"}`)
			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}

func TestTransferHandler_Create_InvalidBody(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{})

	rec := serve(t, mountTransfers(h), http.MethodPost, "/transfers", `{"amount":"1","posted_on":"April"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransferHandler_GetAndDelete(t *testing.T) {
	h := NewTransferHandler(&transferServiceStub{
		getFn: func(ctx context.Context, companyID, transferID string) (*domain.Transfer, error) {
			if transferID != testTransferID {
				return nil, domain.ErrTransferNotFound
			}
			return sampleTransfer(), nil
		},
		deleteFn: func(ctx context.Context, companyID, transferID string) (bool, error) {
			return transferID == testTransferID, nil
		},
	})

	rec := serve(t, mountTransfers(h), http.MethodGet, "/transfers/"+testTransferID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-04-02", decodeBody[dto.TransferResponse](t, rec).PostedOn)

	rec = serve(t, mountTransfers(h), http.MethodGet, "/transfers/"+testMovementID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, mountTransfers(h), http.MethodDelete, "/transfers/"+testTransferID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[map[string]bool](t, rec)["deleted"])
}
