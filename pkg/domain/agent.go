// ==============================================================================
// AGENT - pkg/domain/agent.go
// ==============================================================================
package domain

import "github.com/google/uuid"

// PolicyTree is the minimal shape the domain package needs from a compiled
// policy tree: just enough for an Agent to hold a reference to its four
// trees without importing internal/policy (which itself depends on this
// package for its evaluation context types). Concrete trees are built and
// evaluated by internal/policy; Agent only carries the pointer.
type PolicyTree interface {
	Name() string
}

// DailyCounters are the per-agent cumulative counters reset at the start of
// each simulated day (spec.md §3).
type DailyCounters struct {
	Sent     Cents
	Received Cents
	Settled  Cents
	Overdue  int
	Costs    Cents
}

// Agent is one participant bank in the network (spec.md §3).
type Agent struct {
	ID string

	OpeningBalance Cents
	Balance        Cents // signed; negative means overdraft in use

	UnsecuredCap          Cents
	PostedCollateral      Cents
	MaxCollateralCapacity Cents

	Queue1 []uuid.UUID // ordered Pending transaction IDs owned as sender

	// StateRegister holds bank_state_* scratch values written by SetState/
	// AddState bank_tree actions and read back by later policy evaluations.
	StateRegister map[string]float64

	// CounterpartyVolume tracks cumulative sent amount per receiver,
	// feeding the payment_tree context's tx_is_top_counterparty field.
	CounterpartyVolume map[string]Cents

	Daily DailyCounters

	BankTree                PolicyTree
	StrategicCollateralTree PolicyTree
	PaymentTree             PolicyTree
	EndOfTickCollateralTree PolicyTree
}

// NewAgent builds an Agent with zeroed counters and an empty queue/register.
func NewAgent(id string, openingBalance, unsecuredCap, maxCollateralCapacity, initialPostedCollateral Cents) *Agent {
	return &Agent{
		ID:                    id,
		OpeningBalance:        openingBalance,
		Balance:               openingBalance,
		UnsecuredCap:          unsecuredCap,
		PostedCollateral:      initialPostedCollateral,
		MaxCollateralCapacity: maxCollateralCapacity,
		Queue1:                make([]uuid.UUID, 0),
		StateRegister:         make(map[string]float64),
		CounterpartyVolume:    make(map[string]Cents),
	}
}

// CreditUsed is the non-negative overdraft currently drawn.
func (a *Agent) CreditUsed() Cents {
	if a.Balance >= 0 {
		return 0
	}
	return -a.Balance
}

// AllowedOverdraftLimit is the total overdraft an agent may draw: its
// unsecured cap plus whatever collateral it currently has posted.
func (a *Agent) AllowedOverdraftLimit() Cents {
	return a.UnsecuredCap + a.PostedCollateral
}

// AvailableLiquidity is balance plus remaining overdraft headroom
// (spec.md §4.5).
func (a *Agent) AvailableLiquidity() Cents {
	return a.Balance + (a.AllowedOverdraftLimit() - a.CreditUsed())
}

// ExcessCollateral is the posted collateral not currently backing drawn
// credit, and therefore safe to withdraw (spec.md §4.7).
func (a *Agent) ExcessCollateral() Cents {
	excess := a.PostedCollateral - a.CreditUsed()
	if excess < 0 {
		return 0
	}
	return excess
}

// RemoveFromQueue1 removes id from Queue1, preserving order, and reports
// whether it was present.
func (a *Agent) RemoveFromQueue1(id uuid.UUID) bool {
	for i, q := range a.Queue1 {
		if q == id {
			a.Queue1 = append(a.Queue1[:i], a.Queue1[i+1:]...)
			return true
		}
	}
	return false
}

// ResetDaily zeroes the per-day cumulative counters at a day boundary.
func (a *Agent) ResetDaily() {
	a.Daily = DailyCounters{}
}
