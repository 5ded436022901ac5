package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BalanceSnapshot is the pair of running balances stored on a movement.
type BalanceSnapshot struct {
	MovementID string
	Before     decimal.Decimal
	After      decimal.Decimal
}

// ChainBreak describes a settled movement whose stored snapshot disagrees
// with the running balance derived from the movements before it.
type ChainBreak struct {
	MovementID     string
	StoredBefore   decimal.Decimal
	StoredAfter    decimal.Decimal
	ExpectedBefore decimal.Decimal
	ExpectedAfter  decimal.Decimal
}

// SortChronological orders movements by posting date, then creation time,
// then ID so that the order is total.
func SortChronological(movements []*Movement) {
	sort.SliceStable(movements, func(i, j int) bool {
		a, b := movements[i], movements[j]
		if !a.PostedOn.Equal(b.PostedOn) {
			return a.PostedOn.Before(b.PostedOn)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// CalculateBalance folds the signed effects of the settled movements starting
// from zero. Pending movements are ignored.
func CalculateBalance(movements []*Movement) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range chronologicalSettled(movements) {
		balance = balance.Add(m.SignedEffect())
	}
	return balance
}

// RecomputeChain walks the settled movements in chronological order from a
// zero balance and returns the snapshots that differ from what is stored,
// together with the final balance. The input is not modified.
func RecomputeChain(movements []*Movement) ([]BalanceSnapshot, decimal.Decimal) {
	var changed []BalanceSnapshot

	running := decimal.Zero
	for _, m := range chronologicalSettled(movements) {
		before := running
		after := before.Add(m.SignedEffect())

		if !m.BalanceBefore.Equal(before) || !m.BalanceAfter.Equal(after) {
			changed = append(changed, BalanceSnapshot{MovementID: m.ID, Before: before, After: after})
		}

		running = after
	}

	return changed, running
}

// VerifyChain reports every settled movement whose snapshot breaks the chain.
func VerifyChain(movements []*Movement) []ChainBreak {
	var breaks []ChainBreak

	running := decimal.Zero
	for _, m := range chronologicalSettled(movements) {
		expectedAfter := running.Add(m.SignedEffect())

		if !m.BalanceBefore.Equal(running) || !m.BalanceAfter.Equal(expectedAfter) {
			breaks = append(breaks, ChainBreak{
				MovementID:     m.ID,
				StoredBefore:   m.BalanceBefore,
				StoredAfter:    m.BalanceAfter,
				ExpectedBefore: running,
				ExpectedAfter:  expectedAfter,
			})
		}

		running = expectedAfter
	}

	return breaks
}

func chronologicalSettled(movements []*Movement) []*Movement {
	settled := make([]*Movement, 0, len(movements))
	for _, m := range movements {
		if m.IsSettled() {
			settled = append(settled, m)
		}
	}
	SortChronological(settled)
	return settled
}
