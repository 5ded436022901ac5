package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/finledger/internal/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    *time.Time
		wantErr bool
	}{
		{name: "empty", value: "", want: nil},
		{name: "blank", value: "  ", want: nil},
		{name: "valid", value: "2024-02-29", want: ptr(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))},
		{name: "not a date", value: "2024-02-30", wantErr: true},
		{name: "timestamp", value: "2024-02-01T10:00:00Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate("posted_on", tt.value)
			if tt.wantErr {
				assert.ErrorContains(t, err, "posted_on")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateAccountRequest_ToUseCaseInput(t *testing.T) {
	var req CreateAccountRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"type": "bank",
		"description": "Operating",
		"bank_code": "001",
		"initial_balance": "1000.50",
		"opened_on": "2024-01-15"
	}`), &req))

	got, err := req.ToUseCaseInput("acme", "alice")
	require.NoError(t, err)

	assert.Equal(t, "acme", got.CompanyID)
	assert.Equal(t, domain.AccountTypeBank, got.Type)
	assert.Equal(t, "001", got.BankCode)
	assert.True(t, got.InitialBalance.Equal(decimal.RequireFromString("1000.50")))
	require.NotNil(t, got.OpenedOn)
	assert.Equal(t, "2024-01-15", got.OpenedOn.Format(DateLayout))
	assert.Equal(t, "alice", got.CreatedBy)

	req.OpenedOn = "15/01/2024"
	_, err = req.ToUseCaseInput("acme", "")
	assert.Error(t, err)
}

func TestUpdateAccountRequest_ToPatch(t *testing.T) {
	var req UpdateAccountRequest
	require.NoError(t, json.Unmarshal([]byte(`{"status":"inactive","description":"Closed"}`), &req))

	patch := req.ToPatch()
	require.NotNil(t, patch.Status)
	assert.Equal(t, domain.AccountStatusInactive, *patch.Status)
	assert.Equal(t, "Closed", *patch.Description)
	assert.Nil(t, patch.Type)
	assert.Nil(t, patch.BankCode)

	assert.True(t, (&UpdateAccountRequest{}).ToPatch().IsEmpty())
}

func TestPostMovementRequest_ToUseCaseInput(t *testing.T) {
	req := &PostMovementRequest{
		AccountID:   "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Type:        "exit",
		ExitAmount:  decimal.NewFromInt(50),
		Description: "Rent",
		PostedOn:    "2024-03-01",
	}

	got, err := req.ToUseCaseInput("acme", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.MovementTypeExit, got.Type)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), got.PostedOn)
	assert.Equal(t, domain.MovementStatus(""), got.Status, "status defaulting is left to the ledger")

	req.PostedOn = ""
	_, err = req.ToUseCaseInput("acme", "bob")
	assert.ErrorContains(t, err, "posted_on is required")
}

func TestUpdateMovementRequest_ToPatch(t *testing.T) {
	var req UpdateMovementRequest
	require.NoError(t, json.Unmarshal([]byte(`{"entry_amount":"350","posted_on":"2024-03-02","status":"settled"}`), &req))

	patch, err := req.ToPatch()
	require.NoError(t, err)
	require.NotNil(t, patch.EntryAmount)
	assert.True(t, patch.EntryAmount.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, "2024-03-02", patch.PostedOn.Format(DateLayout))
	assert.Equal(t, domain.MovementStatusSettled, *patch.Status)
	assert.Nil(t, patch.ExitAmount)

	empty := ""
	_, err = (&UpdateMovementRequest{PostedOn: &empty}).ToPatch()
	assert.Error(t, err)
}

func TestPostTransferRequest_ToUseCaseInput(t *testing.T) {
	req := &PostTransferRequest{
		SourceAccountID:      "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		DestinationAccountID: "01BX5ZZKBKACTAV9WEVGEMMVRZ",
		Amount:               decimal.NewFromInt(300),
		Description:          "Sweep",
	}

	got, err := req.ToUseCaseInput("acme", "carol")
	require.NoError(t, err)
	assert.True(t, got.PostedOn.IsZero(), "empty date defaults in the ledger")
	assert.Equal(t, "carol", got.CreatedBy)

	req.PostedOn = "2024-05-05"
	got, err = req.ToUseCaseInput("acme", "carol")
	require.NoError(t, err)
	assert.Equal(t, 5, got.PostedOn.Day())
}

func ptr[T any](v T) *T {
	return &v
}
