// Package escalation implements the configurable priority-escalation
// curve (spec.md §4.8): as a transaction's deadline approaches, its
// current_priority may be boosted upward, never lowered, and never past
// the original_priority's cap of 10.
package escalation

import (
	"math"

	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
)

// Apply scans txs (every still-open transaction in either queue) and
// boosts current_priority according to cfg's linear curve, emitting a
// PriorityEscalated event only when the priority actually changes.
func Apply(tick int64, cfg config.PriorityEscalationConfig, txs []*domain.Transaction, emit func(domain.Event)) {
	if !cfg.Enabled {
		return
	}
	for _, tx := range txs {
		if tx.Status == domain.StatusSettled {
			continue
		}
		r := tx.DeadlineTick - tick
		if r < 0 || r >= cfg.StartEscalatingAtTicks {
			continue
		}
		boost := int(math.Floor(float64(cfg.MaxBoost) * (1 - float64(r)/float64(cfg.StartEscalatingAtTicks))))
		newPriority := tx.OriginalPriority + boost
		if newPriority > 10 {
			newPriority = 10
		}
		if newPriority <= tx.CurrentPriority {
			continue
		}
		old := tx.CurrentPriority
		tx.CurrentPriority = newPriority

		ev := domain.NewEvent(tick, 0, domain.EventPriorityEscalated)
		ev.SenderID = tx.SenderID
		ev.TxID = tx.ID
		ev.OldPriority = old
		ev.NewPriority = newPriority
		emit(ev)
	}
}
