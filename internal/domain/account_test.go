package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name      string
		account   Account
		expectErr error
	}{
		{
			name: "valid bank account",
			account: Account{
				CompanyID:      "acme",
				Type:           AccountTypeBank,
				Description:    "Main checking",
				InitialBalance: decimal.NewFromInt(1000),
			},
		},
		{
			name: "zero initial balance allowed",
			account: Account{
				CompanyID:   "acme",
				Type:        AccountTypeCash,
				Description: "Petty cash",
			},
		},
		{
			name: "missing company",
			account: Account{
				Type:        AccountTypeBank,
				Description: "Main checking",
			},
			expectErr: ErrMissingField,
		},
		{
			name: "unknown type",
			account: Account{
				CompanyID:   "acme",
				Type:        AccountType("crypto"),
				Description: "Wallet",
			},
			expectErr: ErrInvalidAccountType,
		},
		{
			name: "blank description",
			account: Account{
				CompanyID:   "acme",
				Type:        AccountTypeBank,
				Description: "   ",
			},
			expectErr: ErrMissingField,
		},
		{
			name: "negative initial balance",
			account: Account{
				CompanyID:      "acme",
				Type:           AccountTypeBank,
				Description:    "Main checking",
				InitialBalance: decimal.NewFromInt(-1),
			},
			expectErr: ErrNegativeAmount,
		},
		{
			name: "initial balance above maximum",
			account: Account{
				CompanyID:      "acme",
				Type:           AccountTypeBank,
				Description:    "Main checking",
				InitialBalance: decimal.NewFromInt(5000000000000),
			},
			expectErr: ErrAmountTooLarge,
		},
		{
			name: "sub-cent initial balance",
			account: Account{
				CompanyID:      "acme",
				Type:           AccountTypeBank,
				Description:    "Main checking",
				InitialBalance: decimal.RequireFromString("100.005"),
			},
			expectErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()

			if tt.expectErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.expectErr != nil && !errors.Is(err, tt.expectErr) {
				t.Fatalf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestAccountPatch_Apply(t *testing.T) {
	t.Parallel()

	t.Run("empty patch rejected", func(t *testing.T) {
		acc := &Account{Description: "Main"}
		if err := (AccountPatch{}).Apply(acc); !errors.Is(err, ErrEmptyPatch) {
			t.Fatalf("expected ErrEmptyPatch, got %v", err)
		}
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		acc := &Account{Type: AccountTypeBank, Description: "Main", BankCode: "001", Status: AccountStatusActive}
		desc := "  Operating account "

		if err := (AccountPatch{Description: &desc}).Apply(acc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if acc.Description != "Operating account" {
			t.Errorf("expected trimmed description, got %q", acc.Description)
		}
		if acc.BankCode != "001" || acc.Type != AccountTypeBank {
			t.Errorf("untouched fields changed: %+v", acc)
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		acc := &Account{Status: AccountStatusActive}
		status := AccountStatus("closed")

		if err := (AccountPatch{Status: &status}).Apply(acc); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("expected ErrInvalidStatus, got %v", err)
		}
	})
}

func TestAccountFilter_Normalize(t *testing.T) {
	t.Parallel()

	t.Run("defaults to active accounts", func(t *testing.T) {
		f := AccountFilter{CompanyID: "acme"}
		if err := f.Normalize(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Status == nil || *f.Status != AccountStatusActive {
			t.Fatalf("expected active status filter, got %v", f.Status)
		}
		if f.Limit != DefaultPageSize {
			t.Errorf("expected default limit %d, got %d", DefaultPageSize, f.Limit)
		}
	})

	t.Run("include inactive leaves status open", func(t *testing.T) {
		f := AccountFilter{CompanyID: "acme", IncludeInactive: true, Limit: 5000}
		if err := f.Normalize(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Status != nil {
			t.Errorf("expected no status filter, got %v", *f.Status)
		}
		if f.Limit != MaxPageSize {
			t.Errorf("expected limit capped at %d, got %d", MaxPageSize, f.Limit)
		}
	})

	t.Run("explicit inactive status", func(t *testing.T) {
		inactive := AccountStatusInactive
		f := AccountFilter{CompanyID: "acme", Status: &inactive}
		if err := f.Normalize(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *f.Status != AccountStatusInactive {
			t.Errorf("expected inactive filter, got %v", *f.Status)
		}
	})
}
