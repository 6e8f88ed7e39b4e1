package policy

// Context is the read-only mapping of named fields to numeric values that
// an Expr is evaluated against (spec.md §4.3). Booleans are encoded as
// 1.0/0.0.
type Context map[string]float64

// BankContext builds the evaluation context shared by bank_tree,
// strategic_collateral_tree, and end_of_tick_collateral_tree: agent-state,
// system-state, time, collateral, and throughput fields, plus the agent's
// own bank_state_* registers folded in verbatim.
func BankContext(fields map[string]float64, stateRegister map[string]float64) Context {
	ctx := make(Context, len(fields)+len(stateRegister))
	for k, v := range fields {
		ctx[k] = v
	}
	for k, v := range stateRegister {
		ctx[k] = v
	}
	return ctx
}

// TxContext extends a bank Context with the per-transaction fields used by
// payment_tree evaluation (spec.md §4.3): amount, remaining_amount,
// settled_amount, arrival_tick, deadline_tick, priority, original_priority,
// is_split, is_past_deadline, is_overdue, overdue_duration,
// ticks_to_deadline, queue_age, tx_counterparty_id, tx_is_top_counterparty.
func TxContext(bank Context, txFields map[string]float64) Context {
	ctx := make(Context, len(bank)+len(txFields))
	for k, v := range bank {
		ctx[k] = v
	}
	for k, v := range txFields {
		ctx[k] = v
	}
	return ctx
}
