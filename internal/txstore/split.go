package txstore

import (
	"fmt"

	"rtgssim/pkg/domain"
)

// Split partitions parent's remaining_amount into n children with
// approximately equal integer-cent shares; the last child absorbs the
// rounding remainder so the sum is exact (spec.md §4.4). Each child
// inherits sender, receiver, deadline, and current priority from parent
// and has ParentID set. Split is only valid on a transaction that has not
// yet settled any amount (remaining_amount == original_amount) — in
// practice this always holds because payment_tree only evaluates
// Queue-1 transactions, which never carry prior settlement.
func (s *Store) Split(parent *domain.Transaction, n int, arrivalTick int64) ([]*domain.Transaction, error) {
	if !parent.Divisible {
		return nil, fmt.Errorf("transaction %s is not divisible", parent.ID)
	}
	if n < 2 {
		return nil, fmt.Errorf("split count must be >= 2, got %d", n)
	}
	if parent.RemainingAmount != parent.OriginalAmount {
		return nil, fmt.Errorf("transaction %s has already settled %d cents, cannot split", parent.ID, parent.SettledAmount)
	}

	share := parent.RemainingAmount / domain.Cents(n)
	if share < 1 {
		return nil, fmt.Errorf("transaction %s of %d cents cannot be split into %d non-zero shares", parent.ID, parent.RemainingAmount, n)
	}

	children := make([]*domain.Transaction, 0, n)
	allocated := domain.Cents(0)
	for i := 0; i < n; i++ {
		amount := share
		if i == n-1 {
			amount = parent.RemainingAmount - allocated
		}
		child := domain.NewTransaction(parent.SenderID, parent.ReceiverID, amount, arrivalTick, parent.DeadlineTick, parent.CurrentPriority, parent.Divisible)
		child.ParentID = &parent.ID
		children = append(children, child)
		s.Add(child)
		allocated += amount
	}
	return children, nil
}
