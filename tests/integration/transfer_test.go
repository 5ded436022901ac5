package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
	"github.com/iho/finledger/tests/testutil"
)

func TestTransfers(t *testing.T) {
	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	ledger := testDB.NewLedger()

	t.Run("transfer books two legs and moves the balance", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := ledger.CreateAccount(t, company, decimal.NewFromInt(100))
		dest := ledger.CreateAccount(t, company, decimal.Zero)

		transfer, err := ledger.Transfers.PostTransfer(ctx, usecase.PostTransferInput{
			CompanyID:            company,
			SourceAccountID:      source.ID,
			DestinationAccountID: dest.ID,
			Amount:               decimal.NewFromInt(40),
			PostedOn:             testutil.Date(2024, 4, 1),
			Description:          "move",
			CreatedBy:            "tester",
		})
		if err != nil {
			t.Fatalf("failed to post transfer: %v", err)
		}

		got, err := ledger.Transfers.GetTransfer(ctx, company, transfer.ID)
		if err != nil {
			t.Fatalf("failed to get transfer: %v", err)
		}
		if got.SourceLeg == nil || got.DestinationLeg == nil {
			t.Fatal("expected both legs")
		}
		if !got.SourceLeg.ExitAmount.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected source exit 40, got %s", got.SourceLeg.ExitAmount)
		}
		if !got.DestinationLeg.EntryAmount.Equal(decimal.NewFromInt(40)) {
			t.Errorf("expected destination entry 40, got %s", got.DestinationLeg.EntryAmount)
		}

		assertBalance(t, ledger, source.ID, 60)
		assertBalance(t, ledger, dest.ID, 40)
	})

	t.Run("deleting a transfer removes both legs", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := ledger.CreateAccount(t, company, decimal.NewFromInt(100))
		dest := ledger.CreateAccount(t, company, decimal.Zero)

		transfer, err := ledger.Transfers.PostTransfer(ctx, usecase.PostTransferInput{
			CompanyID:            company,
			SourceAccountID:      source.ID,
			DestinationAccountID: dest.ID,
			Amount:               decimal.NewFromInt(25),
			PostedOn:             testutil.Date(2024, 4, 2),
			CreatedBy:            "tester",
		})
		if err != nil {
			t.Fatalf("failed to post transfer: %v", err)
		}

		deleted, err := ledger.Transfers.DeleteTransfer(ctx, company, transfer.ID)
		if err != nil {
			t.Fatalf("failed to delete transfer: %v", err)
		}
		if !deleted {
			t.Fatal("expected transfer deleted")
		}

		assertBalance(t, ledger, source.ID, 100)
		assertBalance(t, ledger, dest.ID, 0)
	})

	t.Run("transfer to an inactive account leaves no trace", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		source := ledger.CreateAccount(t, company, decimal.NewFromInt(100))
		dest := ledger.CreateAccount(t, company, decimal.Zero)

		inactive := domain.AccountStatusInactive
		if _, err := ledger.Accounts.UpdateAccount(ctx, company, dest.ID, domain.AccountPatch{Status: &inactive}); err != nil {
			t.Fatalf("failed to deactivate account: %v", err)
		}

		_, err := ledger.Transfers.PostTransfer(ctx, usecase.PostTransferInput{
			CompanyID:            company,
			SourceAccountID:      source.ID,
			DestinationAccountID: dest.ID,
			Amount:               decimal.NewFromInt(10),
			PostedOn:             testutil.Date(2024, 4, 3),
			CreatedBy:            "tester",
		})
		if !errors.Is(err, domain.ErrAccountInactive) {
			t.Fatalf("expected ErrAccountInactive, got %v", err)
		}

		assertBalance(t, ledger, source.ID, 100)

		movements, err := ledger.Movements.ListMovements(ctx, domain.MovementFilter{CompanyID: company, AccountID: source.ID})
		if err != nil {
			t.Fatalf("failed to list movements: %v", err)
		}
		if len(movements) != 1 {
			t.Errorf("expected only the opening movement, got %d", len(movements))
		}
	})
}

func assertBalance(t *testing.T, ledger *testutil.Ledger, accountID string, want int64) {
	t.Helper()

	got, err := ledger.Balances.CalculateCurrentBalance(context.Background(), company, accountID)
	if err != nil {
		t.Fatalf("failed to calculate balance: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(want)) {
		t.Errorf("account %s: expected balance %d, got %s", accountID, want, got)
	}
}
