package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/postgres/generated"
	"github.com/iho/finledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	queries *generated.Queries
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(db generated.DBTX) *MovementRepository {
	return &MovementRepository{
		queries: generated.New(db),
	}
}

// Create creates a new movement.
func (r *MovementRepository) Create(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	return q.CreateMovement(ctx, generated.CreateMovementParams{
		ID:                   m.ID,
		CompanyID:            m.CompanyID,
		AccountID:            m.AccountID,
		Type:                 string(m.Type),
		EntryAmount:          decimalToNumeric(m.EntryAmount),
		ExitAmount:           decimalToNumeric(m.ExitAmount),
		Description:          m.Description,
		DetailedDescription:  m.DetailedDescription,
		PostedOn:             timeToPgDate(m.PostedOn),
		BalanceBefore:        decimalToNumeric(m.BalanceBefore),
		BalanceAfter:         decimalToNumeric(m.BalanceAfter),
		Status:               string(m.Status),
		CounterpartAccountID: stringPtrToPgText(m.CounterpartAccountID),
		TransferID:           stringPtrToPgText(m.TransferID),
		Category:             m.Category,
		CreatedBy:            m.CreatedBy,
		CreatedAt:            timeToPgTimestamptz(m.CreatedAt),
		UpdatedAt:            timeToPgTimestamptz(m.UpdatedAt),
	})
}

// GetByID retrieves a movement of a company by ID.
func (r *MovementRepository) GetByID(ctx context.Context, tx usecase.Transaction, companyID, id string) (*domain.Movement, error) {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return nil, err
	}

	row, err := q.GetMovementByID(ctx, generated.GetMovementByIDParams{CompanyID: companyID, ID: id})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}

		return nil, err
	}

	return rowToMovement(row), nil
}

// GetByTransfer retrieves the legs of a transfer ordered by ID.
func (r *MovementRepository) GetByTransfer(ctx context.Context, tx usecase.Transaction, companyID, transferID string) ([]*domain.Movement, error) {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.GetMovementsByTransfer(ctx, generated.GetMovementsByTransferParams{
		CompanyID:  companyID,
		TransferID: pgtype.Text{String: transferID, Valid: true},
	})
	if err != nil {
		return nil, err
	}

	return rowsToMovements(rows), nil
}

// Update stores every mutable field of a movement, snapshots included.
func (r *MovementRepository) Update(ctx context.Context, tx usecase.Transaction, m *domain.Movement) error {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	n, err := q.UpdateMovement(ctx, generated.UpdateMovementParams{
		ID:                  m.ID,
		AccountID:           m.AccountID,
		Type:                string(m.Type),
		EntryAmount:         decimalToNumeric(m.EntryAmount),
		ExitAmount:          decimalToNumeric(m.ExitAmount),
		Description:         m.Description,
		DetailedDescription: m.DetailedDescription,
		PostedOn:            timeToPgDate(m.PostedOn),
		BalanceBefore:       decimalToNumeric(m.BalanceBefore),
		BalanceAfter:        decimalToNumeric(m.BalanceAfter),
		Status:              string(m.Status),
		Category:            m.Category,
		UpdatedAt:           timeToPgTimestamptz(m.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMovementNotFound
	}

	return nil
}

// Delete removes a movement.
func (r *MovementRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	n, err := q.DeleteMovement(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrMovementNotFound
	}

	return nil
}

// UpdateSnapshots rewrites the running balances of the given movements in a
// single statement.
func (r *MovementRepository) UpdateSnapshots(ctx context.Context, tx usecase.Transaction, snapshots []domain.BalanceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return err
	}

	params := generated.UpdateMovementSnapshotsParams{
		Ids:     make([]string, 0, len(snapshots)),
		Befores: make([]pgtype.Numeric, 0, len(snapshots)),
		Afters:  make([]pgtype.Numeric, 0, len(snapshots)),
	}
	for _, s := range snapshots {
		params.Ids = append(params.Ids, s.MovementID)
		params.Befores = append(params.Befores, decimalToNumeric(s.Before))
		params.Afters = append(params.Afters, decimalToNumeric(s.After))
	}

	n, err := q.UpdateMovementSnapshots(ctx, params)
	if err != nil {
		return err
	}
	if n != int64(len(snapshots)) {
		return fmt.Errorf("%w: updated %d of %d snapshots", domain.ErrMovementNotFound, n, len(snapshots))
	}

	return nil
}

// ListSettledByAccount returns the settled movements of an account in
// chronological order.
func (r *MovementRepository) ListSettledByAccount(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Movement, error) {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.ListSettledMovementsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return rowsToMovements(rows), nil
}

// CountByAccount counts the movements of an account, pending ones included.
func (r *MovementRepository) CountByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (int64, error) {
	q, err := queriesFor(r.queries, tx)
	if err != nil {
		return 0, err
	}

	return q.CountMovementsByAccount(ctx, accountID)
}

// List lists the movements matching filter in chronological order.
func (r *MovementRepository) List(ctx context.Context, filter domain.MovementFilter) ([]*domain.Movement, error) {
	rows, err := r.queries.ListMovements(ctx, listMovementsParams(filter))
	if err != nil {
		return nil, err
	}

	return rowsToMovements(rows), nil
}

func listMovementsParams(filter domain.MovementFilter) generated.ListMovementsParams {
	params := generated.ListMovementsParams{
		CompanyID: filter.CompanyID,
		AccountID: optionalText(filter.AccountID),
		Types:     make([]string, 0, len(filter.Types)),
		Statuses:  make([]string, 0, len(filter.Statuses)),
		FromDate:  timePtrToPgDate(filter.From),
		ToDate:    timePtrToPgDate(filter.To),
		Search:    searchText(filter.Search),
		MinAmount: decimalPtrToNumeric(filter.MinAmount),
		MaxAmount: decimalPtrToNumeric(filter.MaxAmount),
		Limit:     int32(filter.Limit),
		Offset:    int32(filter.Offset),
	}

	for _, t := range filter.Types {
		params.Types = append(params.Types, string(t))
	}
	for _, s := range filter.Statuses {
		params.Statuses = append(params.Statuses, string(s))
	}

	return params
}

func rowsToMovements(rows []generated.Movement) []*domain.Movement {
	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, rowToMovement(row))
	}
	return movements
}

func rowToMovement(row generated.Movement) *domain.Movement {
	return &domain.Movement{
		ID:                   row.ID,
		CompanyID:            row.CompanyID,
		AccountID:            row.AccountID,
		Type:                 domain.MovementType(row.Type),
		EntryAmount:          numericToDecimal(row.EntryAmount),
		ExitAmount:           numericToDecimal(row.ExitAmount),
		Description:          row.Description,
		DetailedDescription:  row.DetailedDescription,
		PostedOn:             pgDateToTime(row.PostedOn),
		BalanceBefore:        numericToDecimal(row.BalanceBefore),
		BalanceAfter:         numericToDecimal(row.BalanceAfter),
		Status:               domain.MovementStatus(row.Status),
		CounterpartAccountID: pgTextToStringPtr(row.CounterpartAccountID),
		TransferID:           pgTextToStringPtr(row.TransferID),
		Category:             row.Category,
		CreatedBy:            row.CreatedBy,
		CreatedAt:            row.CreatedAt.Time.UTC(),
		UpdatedAt:            row.UpdatedAt.Time.UTC(),
	}
}
