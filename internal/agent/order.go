// Package agent implements per-agent Queue-1 ordering, evaluation
// context construction, and policy-driven transaction release/splitting
// (spec.md §4.3, §4.4).
package agent

import (
	"sort"

	"github.com/google/uuid"

	"rtgssim/internal/txstore"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
)

// SortQueue1 reorders queue in place according to ordering (spec.md §3):
// FIFO by arrival_tick, or priority-deadline (current_priority DESC,
// deadline_tick ASC, arrival_tick ASC).
func SortQueue1(queue []uuid.UUID, ordering config.Queue1Ordering, store *txstore.Store) {
	get := func(id uuid.UUID) *domain.Transaction {
		tx, _ := store.Get(id)
		return tx
	}
	switch ordering {
	case config.QueueOrderPriorityDeadline:
		sort.SliceStable(queue, func(i, j int) bool {
			ti, tj := get(queue[i]), get(queue[j])
			if ti.CurrentPriority != tj.CurrentPriority {
				return ti.CurrentPriority > tj.CurrentPriority
			}
			if ti.DeadlineTick != tj.DeadlineTick {
				return ti.DeadlineTick < tj.DeadlineTick
			}
			return ti.ArrivalTick < tj.ArrivalTick
		})
	default: // QueueOrderFIFO
		sort.SliceStable(queue, func(i, j int) bool {
			ti, tj := get(queue[i]), get(queue[j])
			return ti.ArrivalTick < tj.ArrivalTick
		})
	}
}
