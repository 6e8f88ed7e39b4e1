// Package lsm implements the Liquidity-Saving Mechanism (spec.md §4.6):
// bilateral offsetting first, then multilateral cycle settlement, run
// each tick against Queue-2's residual (whatever the RTGS settlement
// pass in internal/rtgs could not clear outright).
//
// The bilateral phase is grounded on the teacher's
// internal/blockchain/banking/lsm.go GridlockResolver, generalized from
// its greedy most-insolvent-sender removal into the pairwise netting
// spec.md actually requires; the cycle phase generalizes the same file's
// obligation graph into a proper depth-bounded DFS over simple cycles,
// since the teacher's Resolve() never searched for cycles longer than
// the pair it happened to be looking at.
package lsm

import (
	"sort"

	"github.com/google/uuid"

	"rtgssim/internal/rtgs"
	"rtgssim/internal/txstore"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
)

// Stats is a running telemetry snapshot of the LSM's activity across the
// simulation, in the style of the teacher's RiskMetrics snapshot struct —
// useful to a collaborator rendering a dashboard, not required by any
// settlement path.
type Stats struct {
	BilateralOffsets int
	CyclesFound      int
	CyclesSettled    int
	TotalValueNetted domain.Cents
}

// Engine runs the two LSM phases against Queue-2's residual each tick.
type Engine struct {
	cfg   config.LSMConfig
	stats Stats
}

// NewEngine builds an Engine from lsm_config.
func NewEngine(cfg config.LSMConfig) *Engine {
	if cfg.MinCycleLength == 0 {
		cfg.MinCycleLength = 3
	}
	return &Engine{cfg: cfg}
}

// Stats returns a snapshot of this Engine's cumulative telemetry.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Run executes bilateral offsetting then multilateral cycle settlement
// against q2's current residual.
func (e *Engine) Run(tick int64, q2 *rtgs.Queue2, agents map[string]*domain.Agent, store *txstore.Store, emit func(domain.Event)) error {
	if e.cfg.EnableBilateral {
		if err := e.runBilateral(tick, q2, agents, store, emit); err != nil {
			return err
		}
	}
	if e.cfg.EnableCycles {
		if err := e.runCycles(tick, q2, agents, store, emit); err != nil {
			return err
		}
	}
	return nil
}

type directedPair struct {
	from, to string
}

// liveQueue returns, for every still-open transaction currently in q2,
// the FIFO-ordered id list grouped by directed (sender, receiver) pair.
func liveQueue(q2 *rtgs.Queue2, store *txstore.Store) map[directedPair][]uuid.UUID {
	byPair := make(map[directedPair][]uuid.UUID)
	for _, id := range q2.AllOrdered() {
		tx, ok := store.Get(id)
		if !ok || tx.Status == domain.StatusSettled {
			continue
		}
		key := directedPair{tx.SenderID, tx.ReceiverID}
		byPair[key] = append(byPair[key], id)
	}
	return byPair
}

// runBilateral repeatedly nets the FIFO heads of every opposing pair of
// directed queues until a full pass makes no further progress
// (spec.md §4.6). It returns immediately with any InvariantViolation
// ApplySettlement reports, the same way runCycles does.
func (e *Engine) runBilateral(tick int64, q2 *rtgs.Queue2, agents map[string]*domain.Agent, store *txstore.Store, emit func(domain.Event)) error {
	for {
		byPair := liveQueue(q2, store)
		progressed := false
		done := make(map[directedPair]bool)

		var keys []directedPair
		for k := range byPair {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].from != keys[j].from {
				return keys[i].from < keys[j].from
			}
			return keys[i].to < keys[j].to
		})

		for _, key := range keys {
			if done[key] {
				continue
			}
			reverse := directedPair{key.to, key.from}
			done[key] = true
			done[reverse] = true

			abIDs := byPair[key]
			baIDs := byPair[reverse]
			if len(abIDs) == 0 || len(baIDs) == 0 {
				continue
			}

			txAB, _ := store.Get(abIDs[0])
			txBA, _ := store.Get(baIDs[0])
			m := txAB.RemainingAmount
			if txBA.RemainingAmount < m {
				m = txBA.RemainingAmount
			}
			if m <= 0 {
				continue
			}

			wasOverdueAB, wasOverdueBA := txAB.Overdue, txBA.Overdue
			// Both legs settle the same m in opposing directions, so the
			// obligations cancel without moving either agent's balance —
			// that cancellation is the entire point of bilateral netting.
			if err := store.ApplySettlement(txAB, m, tick); err != nil {
				return err
			}
			if err := store.ApplySettlement(txBA, m, tick); err != nil {
				return err
			}
			if txAB.Status == domain.StatusSettled {
				q2.Remove(txAB.ID)
			}
			if txBA.Status == domain.StatusSettled {
				q2.Remove(txBA.ID)
			}

			ev := domain.NewEvent(tick, 0, domain.EventLsmBilateralOffset)
			ev.AgentA = key.from
			ev.AgentB = key.to
			ev.AmountA = m
			ev.AmountB = m
			ev.TxIDs = []uuid.UUID{txAB.ID, txBA.ID}
			emit(ev)

			for _, leg := range []struct {
				tx         *domain.Transaction
				wasOverdue bool
			}{{txAB, wasOverdueAB}, {txBA, wasOverdueBA}} {
				release := domain.NewEvent(tick, 0, domain.EventQueue2LiquidityRelease)
				release.SenderID = leg.tx.SenderID
				release.ReceiverID = leg.tx.ReceiverID
				release.TxID = leg.tx.ID
				release.Amount = m
				emit(release)

				if leg.wasOverdue {
					settled := domain.NewEvent(tick, 0, domain.EventOverdueTransactionSettled)
					settled.SenderID = leg.tx.SenderID
					settled.ReceiverID = leg.tx.ReceiverID
					settled.TxID = leg.tx.ID
					settled.Amount = m
					emit(settled)
				}
			}

			e.stats.BilateralOffsets++
			e.stats.TotalValueNetted += 2 * m
			progressed = true
		}

		if !progressed {
			return nil
		}
	}
}
