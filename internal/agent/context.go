package agent

import (
	"rtgssim/internal/policy"
	"rtgssim/internal/txstore"
	"rtgssim/pkg/domain"
)

// BankFields builds the bank-level evaluation context shared by
// bank_tree, strategic_collateral_tree, and end_of_tick_collateral_tree
// (spec.md §4.3): agent-state, system-state, time, collateral, and
// throughput fields. bank_state_* registers are folded in by the caller
// via policy.BankContext.
func BankFields(tick, day, ticksPerDay int64, queue2Size int, a *domain.Agent) map[string]float64 {
	return map[string]float64{
		"tick":                    float64(tick),
		"day":                     float64(day),
		"tick_in_day":             float64(tick % ticksPerDay),
		"balance":                 float64(a.Balance),
		"opening_balance":         float64(a.OpeningBalance),
		"unsecured_cap":           float64(a.UnsecuredCap),
		"posted_collateral":       float64(a.PostedCollateral),
		"max_collateral_capacity": float64(a.MaxCollateralCapacity),
		"credit_used":             float64(a.CreditUsed()),
		"allowed_overdraft_limit": float64(a.AllowedOverdraftLimit()),
		"available_liquidity":     float64(a.AvailableLiquidity()),
		"queue1_size":             float64(len(a.Queue1)),
		"queue2_size":             float64(queue2Size),
		"sent_today":              float64(a.Daily.Sent),
		"received_today":          float64(a.Daily.Received),
		"settled_today":           float64(a.Daily.Settled),
		"overdue_today":           float64(a.Daily.Overdue),
		"costs_today":             float64(a.Daily.Costs),
	}
}

// TxFields builds the per-transaction fields payment_tree's context adds
// on top of the bank-level context (spec.md §4.3).
func TxFields(tick int64, tx *domain.Transaction, a *domain.Agent, store *txstore.Store) map[string]float64 {
	isPastDeadline := tick >= tx.DeadlineTick
	overdueDuration := 0.0
	if tx.Overdue {
		overdueDuration = float64(tick - tx.OverdueSinceTick)
	}
	ticksToDeadline := float64(tx.DeadlineTick - tick)

	isTopCounterparty := 0.0
	if isTopCounterpartyOf(a, tx.ReceiverID) {
		isTopCounterparty = 1.0
	}

	isSplit := 0.0
	if tx.IsSplitChild() {
		isSplit = 1.0
	}
	isOverdue := 0.0
	if tx.Overdue {
		isOverdue = 1.0
	}
	isPastDeadlineF := 0.0
	if isPastDeadline {
		isPastDeadlineF = 1.0
	}

	return map[string]float64{
		"amount":                 float64(tx.OriginalAmount),
		"remaining_amount":       float64(tx.RemainingAmount),
		"settled_amount":         float64(tx.SettledAmount),
		"arrival_tick":           float64(tx.ArrivalTick),
		"deadline_tick":          float64(tx.DeadlineTick),
		"priority":               float64(tx.CurrentPriority),
		"original_priority":      float64(tx.OriginalPriority),
		"is_split":               isSplit,
		"is_past_deadline":       isPastDeadlineF,
		"is_overdue":             isOverdue,
		"overdue_duration":       overdueDuration,
		"ticks_to_deadline":      ticksToDeadline,
		"queue_age":              float64(tick - tx.ArrivalTick),
		"tx_counterparty_id":     float64(tx.CounterpartyHash),
		"tx_is_top_counterparty": isTopCounterparty,
	}
}

// isTopCounterpartyOf reports whether receiverID is the agent's
// highest-volume counterparty by cumulative sent amount so far.
func isTopCounterpartyOf(a *domain.Agent, receiverID string) bool {
	var top string
	var topVolume domain.Cents = -1
	for id, v := range a.CounterpartyVolume {
		if v > topVolume {
			topVolume = v
			top = id
		}
	}
	return top == receiverID
}

// Context builds the bank-level read-only Context for bank_tree,
// strategic_collateral_tree, and end_of_tick_collateral_tree.
func Context(tick, day, ticksPerDay int64, queue2Size int, a *domain.Agent) policy.Context {
	return policy.BankContext(BankFields(tick, day, ticksPerDay, queue2Size, a), a.StateRegister)
}

// TxContext extends bank with a transaction's fields for payment_tree.
func TxContext(bank policy.Context, tick int64, tx *domain.Transaction, a *domain.Agent, store *txstore.Store) policy.Context {
	return policy.TxContext(bank, TxFields(tick, tx, a, store))
}
