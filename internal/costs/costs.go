// Package costs implements per-tick cost accrual (spec.md §4.9): pending
// delay cost, overdue delay cost (at a multiplier), a one-shot deadline
// penalty the first tick a transaction goes overdue, and overdraft
// interest on drawn credit.
package costs

import (
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
)

// Accruer charges one agent's CostRatesConfig-driven costs each tick.
type Accruer struct {
	delayRate         float64
	overdueMultiplier float64
	deadlinePenalty   domain.Cents
	overdraftRate     float64
	debitFromBalance  bool
}

// New builds an Accruer from CostRatesConfig, pre-converting the
// decimal.Decimal rate fields to float64 once.
func New(cfg config.CostRatesConfig) *Accruer {
	delayRate, _ := cfg.DelayCostPerTickPerCent.Float64()
	overdueMultiplier, _ := cfg.OverdueDelayMultiplier.Float64()
	overdraftRate, _ := cfg.OverdraftRate.Float64()
	return &Accruer{
		delayRate:         delayRate,
		overdueMultiplier: overdueMultiplier,
		deadlinePenalty:   domain.Cents(cfg.DeadlinePenaltyCents),
		overdraftRate:     overdraftRate,
		debitFromBalance:  cfg.DebitCostsFromBalance,
	}
}

// Accrue charges agent for outstanding (its own, as sender), the
// transactions it still owes on, plus any newly
// overdue count for this tick's one-shot penalties, and emits a single
// CostAccrual event. It returns the amount actually debited from
// agent.Balance (zero unless DebitCostsFromBalance is set), so the
// caller can net it out of the balance-conservation invariant.
func (a *Accruer) Accrue(tick int64, agent *domain.Agent, outstanding []*domain.Transaction, newlyOverdueCount int, emit func(domain.Event)) domain.Cents {
	var pendingDelayCost, overdueDelayCost float64
	for _, tx := range outstanding {
		if tx.Status == domain.StatusSettled {
			continue
		}
		remaining := float64(tx.RemainingAmount)
		if tx.Overdue {
			overdueDelayCost += a.overdueMultiplier * a.delayRate * remaining
		} else {
			pendingDelayCost += a.delayRate * remaining
		}
	}

	delayCost := domain.RoundCents(pendingDelayCost)
	overdueCost := domain.RoundCents(overdueDelayCost)
	deadlinePenalty := a.deadlinePenalty * domain.Cents(newlyOverdueCount)
	overdraftInterest := domain.RoundCents(a.overdraftRate * float64(agent.CreditUsed()))

	total := delayCost + overdueCost + deadlinePenalty + overdraftInterest
	agent.Daily.Costs += total
	var debited domain.Cents
	if a.debitFromBalance {
		agent.Balance -= total
		debited = total
	}

	ev := domain.NewEvent(tick, 0, domain.EventCostAccrual)
	ev.AgentID = agent.ID
	ev.DelayCost = delayCost
	ev.OverdueCost = overdueCost
	ev.DeadlinePenalty = deadlinePenalty
	ev.OverdraftInterest = overdraftInterest
	emit(ev)
	return debited
}
