package memory

import (
	"context"
	"fmt"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	store *Store
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(store *Store) *MovementRepository {
	return &MovementRepository{store: store}
}

// Create creates a new movement.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	return r.store.update(tx, func(st *state) error {
		if _, ok := st.movements[movement.ID]; ok {
			return fmt.Errorf("%w: movement %s", ErrDuplicateKey, movement.ID)
		}
		if _, ok := st.accounts[movement.AccountID]; !ok {
			return domain.ErrAccountNotFound
		}
		st.movements[movement.ID] = *movement
		return nil
	})
}

// GetByID retrieves a movement of a company by ID.
func (r *MovementRepository) GetByID(ctx context.Context, tx usecase.Transaction, companyID, id string) (*domain.Movement, error) {
	var found *domain.Movement
	err := r.store.view(tx, func(st *state) error {
		m, ok := st.movements[id]
		if !ok || m.CompanyID != companyID {
			return domain.ErrMovementNotFound
		}
		found = &m
		return nil
	})
	return found, err
}

// GetByTransfer retrieves the legs of a transfer ordered by ID.
func (r *MovementRepository) GetByTransfer(ctx context.Context, tx usecase.Transaction, companyID, transferID string) ([]*domain.Movement, error) {
	legs := []*domain.Movement{}
	err := r.store.view(tx, func(st *state) error {
		for _, id := range sortedKeys(st.movements) {
			m := st.movements[id]
			if m.CompanyID == companyID && m.TransferID != nil && *m.TransferID == transferID {
				legs = append(legs, &m)
			}
		}
		return nil
	})
	return legs, err
}

// Update stores every mutable field of a movement, snapshots included.
func (r *MovementRepository) Update(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	return r.store.update(tx, func(st *state) error {
		stored, ok := st.movements[movement.ID]
		if !ok {
			return domain.ErrMovementNotFound
		}
		if _, ok := st.accounts[movement.AccountID]; !ok {
			return domain.ErrAccountNotFound
		}
		updated := *movement
		updated.CompanyID = stored.CompanyID
		updated.CreatedAt = stored.CreatedAt
		updated.CreatedBy = stored.CreatedBy
		st.movements[movement.ID] = updated
		return nil
	})
}

// Delete removes a movement.
func (r *MovementRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return r.store.update(tx, func(st *state) error {
		if _, ok := st.movements[id]; !ok {
			return domain.ErrMovementNotFound
		}
		delete(st.movements, id)
		return nil
	})
}

// UpdateSnapshots rewrites the running balances of the given movements.
func (r *MovementRepository) UpdateSnapshots(ctx context.Context, tx usecase.Transaction, snapshots []domain.BalanceSnapshot) error {
	return r.store.update(tx, func(st *state) error {
		for _, snap := range snapshots {
			m, ok := st.movements[snap.MovementID]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrMovementNotFound, snap.MovementID)
			}
			m.BalanceBefore = snap.Before
			m.BalanceAfter = snap.After
			st.movements[snap.MovementID] = m
		}
		return nil
	})
}

// ListSettledByAccount returns the settled movements of an account in
// chronological order.
func (r *MovementRepository) ListSettledByAccount(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Movement, error) {
	var movements []*domain.Movement
	err := r.store.view(tx, func(st *state) error {
		for _, m := range st.movements {
			if m.AccountID == accountID && m.IsSettled() {
				movements = append(movements, &m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	domain.SortChronological(movements)
	return movements, nil
}

// CountByAccount counts the movements of an account, pending ones included.
func (r *MovementRepository) CountByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	var count int64
	err := r.store.view(tx, func(st *state) error {
		for _, m := range st.movements {
			if m.AccountID == accountID {
				count++
			}
		}
		return nil
	})
	return count, err
}

// List lists the movements matching filter in chronological order.
func (r *MovementRepository) List(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
	var matched []*domain.Movement
	err := r.store.view(nil, func(st *state) error {
		for _, m := range st.movements {
			if filter.Matches(&m) {
				matched = append(matched, &m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	domain.SortChronological(matched)
	return paginate(matched, filter.Limit, filter.Offset), nil
}
