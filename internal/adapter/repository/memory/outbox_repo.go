package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return r.store.update(tx, func(st *state) error {
		if _, ok := st.events[event.ID]; ok {
			return fmt.Errorf("%w: event %s", ErrDuplicateKey, event.ID)
		}
		stored := *event
		stored.Payload = maps.Clone(event.Payload)
		st.events[event.ID] = stored
		return nil
	})
}

// GetUnpublished retrieves unpublished events oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	err := r.store.view(nil, func(st *state) error {
		for _, e := range st.events {
			if !e.Published {
				events = append(events, &e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})

	return paginate(events, limit, 0), nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	return r.store.update(nil, func(st *state) error {
		e, ok := st.events[id]
		if !ok {
			return fmt.Errorf("outbox event %s not found", id)
		}
		e.Published = true
		e.PublishedAt = &publishedAt
		st.events[id] = e
		return nil
	})
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return r.store.update(nil, func(st *state) error {
		for id, e := range st.events {
			if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
				delete(st.events, id)
			}
		}
		return nil
	})
}
