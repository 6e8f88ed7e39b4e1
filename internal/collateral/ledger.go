// Package collateral implements the per-agent collateral ledger
// (spec.md §4.7): posting and withdrawing collateral against an agent's
// max_collateral_capacity, which in turn expands or contracts the
// agent's allowed_overdraft_limit in the same tick it changes.
package collateral

import (
	"rtgssim/pkg/domain"
)

// Post adds min(x, remaining_capacity) to agent's posted collateral and
// emits CollateralPosted. A request that exceeds remaining capacity is
// partially satisfied, never rejected outright (spec.md §4.7).
func Post(agent *domain.Agent, x domain.Cents, trigger string, tick int64, emit func(domain.Event)) {
	if x <= 0 {
		return
	}
	remainingCapacity := agent.MaxCollateralCapacity - agent.PostedCollateral
	if remainingCapacity <= 0 {
		return
	}
	add := x
	if add > remainingCapacity {
		add = remainingCapacity
	}
	agent.PostedCollateral += add

	ev := domain.NewEvent(tick, 0, domain.EventCollateralPosted)
	ev.AgentID = agent.ID
	ev.Amount = add
	ev.NewTotal = agent.PostedCollateral
	ev.Trigger = trigger
	emit(ev)
}

// Withdraw subtracts min(x, excess_collateral) from agent's posted
// collateral and emits CollateralWithdrawn. A request that would force
// credit_used above allowed_overdraft_limit is partially satisfied up to
// the safe amount (spec.md §4.7).
func Withdraw(agent *domain.Agent, x domain.Cents, trigger string, tick int64, emit func(domain.Event)) {
	if x <= 0 {
		return
	}
	excess := agent.ExcessCollateral()
	if excess <= 0 {
		return
	}
	sub := x
	if sub > excess {
		sub = excess
	}
	agent.PostedCollateral -= sub

	ev := domain.NewEvent(tick, 0, domain.EventCollateralWithdrawn)
	ev.AgentID = agent.ID
	ev.Amount = sub
	ev.NewTotal = agent.PostedCollateral
	ev.Trigger = trigger
	emit(ev)
}
