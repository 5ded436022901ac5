// Package memory implements the repository ports on an in-process store.
//
// Transactions are fully serialized: Begin takes the single writer slot and
// works on a private copy of the committed state, Commit publishes the copy
// and Rollback drops it. Reads outside a transaction see the last committed
// state.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction already finished")
	// ErrDuplicateKey is returned when a record with the same ID exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrForeignTx is returned when a transaction from another store is passed in.
	ErrForeignTx = errors.New("transaction does not belong to this store")
)

type state struct {
	accounts  map[string]domain.Account
	movements map[string]domain.Movement
	events    map[string]domain.OutboxEvent
}

func newState() *state {
	return &state{
		accounts:  make(map[string]domain.Account),
		movements: make(map[string]domain.Movement),
		events:    make(map[string]domain.OutboxEvent),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:  make(map[string]domain.Account, len(s.accounts)),
		movements: make(map[string]domain.Movement, len(s.movements)),
		events:    make(map[string]domain.OutboxEvent, len(s.events)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// Store holds the committed state shared by the memory repositories.
type Store struct {
	writer    chan struct{}
	mu        sync.RWMutex
	committed *state
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		writer:    make(chan struct{}, 1),
		committed: newState(),
	}
}

// Begin waits for the writer slot and starts a transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	return &Tx{store: s, work: work}, nil
}

// Tx is a memory transaction.
type Tx struct {
	store *Store
	work  *state
	done  bool
}

// Commit publishes the transaction's changes. A transaction whose context
// has expired is rolled back instead.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}

	if err := ctx.Err(); err != nil {
		t.release()
		return err
	}

	t.store.mu.Lock()
	t.store.committed = t.work
	t.store.mu.Unlock()

	t.release()
	return nil
}

// Rollback discards the transaction's changes. It is a no-op after Commit.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.release()
	return nil
}

func (t *Tx) release() {
	t.done = true
	t.work = nil
	<-t.store.writer
}

// view runs fn against the transaction's working copy, or against the
// committed state under a read lock when tx is nil.
func (s *Store) view(tx usecase.Transaction, fn func(st *state) error) error {
	if tx == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(s.committed)
	}

	st, err := s.working(tx)
	if err != nil {
		return err
	}
	return fn(st)
}

// update runs fn against the working copy of tx. Writes outside a
// transaction take the writer slot and apply to the committed state directly.
func (s *Store) update(tx usecase.Transaction, fn func(st *state) error) error {
	if tx == nil {
		s.writer <- struct{}{}
		defer func() { <-s.writer }()

		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.committed)
	}

	st, err := s.working(tx)
	if err != nil {
		return err
	}
	return fn(st)
}

func (s *Store) working(tx usecase.Transaction) (*state, error) {
	mt, ok := tx.(*Tx)
	if !ok || mt.store != s {
		return nil, ErrForeignTx
	}
	if mt.done {
		return nil, ErrTxDone
	}
	return mt.work, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
