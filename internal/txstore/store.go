// Package txstore is the simulation's single logical transaction store
// (spec.md §3 "owned by the simulation state, a single logical store
// indexed by ID"). Parents are never removed when split; they stay
// referenceable and their remaining_amount is kept coherent by whichever
// settlement path reduces a child (spec.md §9: "walk parent updates on
// each child settlement — do not reconstruct from children at query
// time").
package txstore

import (
	"github.com/google/uuid"

	"rtgssim/pkg/domain"
	coreerrors "rtgssim/pkg/errors"
)

// Store is a flat, ID-keyed map of every transaction ever created in the
// simulation, parents and children alike.
type Store struct {
	byID map[uuid.UUID]*domain.Transaction
	// children indexes a parent's child IDs in creation order, so parent
	// aggregate queries never need a full scan of byID.
	children map[uuid.UUID][]uuid.UUID
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:     make(map[uuid.UUID]*domain.Transaction),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Add registers a newly created transaction (arrival or split child).
func (s *Store) Add(tx *domain.Transaction) {
	s.byID[tx.ID] = tx
	if tx.ParentID != nil {
		s.children[*tx.ParentID] = append(s.children[*tx.ParentID], tx.ID)
	}
}

// Get looks up a transaction by ID.
func (s *Store) Get(id uuid.UUID) (*domain.Transaction, bool) {
	tx, ok := s.byID[id]
	return tx, ok
}

// MustGet looks up a transaction by ID, returning ErrUnknownTransaction
// (spec.md §7) if absent.
func (s *Store) MustGet(id uuid.UUID) (*domain.Transaction, error) {
	tx, ok := s.byID[id]
	if !ok {
		return nil, coreerrors.ErrUnknownTransaction
	}
	return tx, nil
}

// Children returns a parent's child transactions in creation order.
func (s *Store) Children(parentID uuid.UUID) []*domain.Transaction {
	ids := s.children[parentID]
	out := make([]*domain.Transaction, 0, len(ids))
	for _, id := range ids {
		if tx, ok := s.byID[id]; ok {
			out = append(out, tx)
		}
	}
	return out
}

// All returns every transaction in the store. Order is unspecified.
func (s *Store) All() []*domain.Transaction {
	out := make([]*domain.Transaction, 0, len(s.byID))
	for _, tx := range s.byID {
		out = append(out, tx)
	}
	return out
}

// ApplySettlement records a settlement of `amount` cents against tx at
// `tick`, propagating the reduction to a split parent when present
// (spec.md §4.5 "split-parent settlement invariant"). Returns an
// InvariantViolation if the settlement would push remaining_amount
// negative.
func (s *Store) ApplySettlement(tx *domain.Transaction, amount domain.Cents, tick int64) error {
	if amount > tx.RemainingAmount {
		return coreerrors.NewInvariantViolation(tick, "settlement of %d cents exceeds remaining_amount %d on tx %s", amount, tx.RemainingAmount, tx.ID)
	}
	tx.RemainingAmount -= amount
	tx.SettledAmount += amount
	tx.LastSettledTick = tick
	if tx.RemainingAmount == 0 {
		tx.Status = domain.StatusSettled
	} else {
		tx.Status = domain.StatusPartiallySettled
	}

	if tx.ParentID == nil {
		return nil
	}
	parent, ok := s.byID[*tx.ParentID]
	if !ok {
		return coreerrors.NewInvariantViolation(tick, "tx %s references missing parent %s", tx.ID, *tx.ParentID)
	}
	return s.ApplySettlement(parent, amount, tick)
}

// ParentConsistent reports whether a parent's remaining_amount equals the
// sum of its children's remaining_amount (spec.md §8 property 4).
func (s *Store) ParentConsistent(parentID uuid.UUID) bool {
	parent, ok := s.byID[parentID]
	if !ok {
		return true
	}
	var sum domain.Cents
	for _, child := range s.Children(parentID) {
		sum += child.RemainingAmount
	}
	return parent.RemainingAmount == sum
}
