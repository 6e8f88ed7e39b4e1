package lsm

import (
	"sort"

	"github.com/google/uuid"

	"rtgssim/internal/rtgs"
	"rtgssim/internal/txstore"
	"rtgssim/pkg/domain"
	coreerrors "rtgssim/pkg/errors"
)

// foundCycle is one candidate simple cycle discovered by the DFS search,
// with its chosen (FIFO-head) transaction per edge already resolved.
type foundCycle struct {
	agents []string    // A1, A2, ..., Ak, in cycle order
	txIDs  []uuid.UUID // chosen tx for edge Ai -> Ai+1, same order
}

// runCycles repeatedly finds the best simple cycle of length in
// [MinCycleLength, MaxCycleLength] in Queue-2's directed multigraph and
// settles it, until no cycle remains (spec.md §4.6).
func (e *Engine) runCycles(tick int64, q2 *rtgs.Queue2, agents map[string]*domain.Agent, store *txstore.Store, emit func(domain.Event)) error {
	maxIterations := q2.Size() + 1
	for iter := 0; iter < maxIterations; iter++ {
		byPair := liveQueue(q2, store)
		if len(byPair) == 0 {
			return nil
		}

		cycles := findSimpleCycles(byPair, e.cfg.MinCycleLength, e.cfg.MaxCycleLength)
		if len(cycles) == 0 {
			return nil
		}
		e.stats.CyclesFound += len(cycles)

		best, m, err := bestCycle(cycles, store)
		if err != nil {
			return err
		}
		if best == nil || m <= 0 {
			return nil
		}

		wasOverdue := make([]bool, len(best.txIDs))
		for i, txID := range best.txIDs {
			if tx, ok := store.Get(txID); ok {
				wasOverdue[i] = tx.Overdue
			}
		}

		if err := settleCycle(tick, best, m, agents, store, q2); err != nil {
			return err
		}

		var legEvents []domain.Event
		for i, txID := range best.txIDs {
			sender := best.agents[i]
			receiver := best.agents[(i+1)%len(best.agents)]

			release := domain.NewEvent(tick, 0, domain.EventQueue2LiquidityRelease)
			release.SenderID = sender
			release.ReceiverID = receiver
			release.TxID = txID
			release.Amount = m
			legEvents = append(legEvents, release)

			if wasOverdue[i] {
				settled := domain.NewEvent(tick, 0, domain.EventOverdueTransactionSettled)
				settled.SenderID = sender
				settled.ReceiverID = receiver
				settled.TxID = txID
				settled.Amount = m
				legEvents = append(legEvents, settled)
			}
		}

		// A pure cycle nets every participant's flow to 0: each agent is
		// sender on exactly one edge and receiver on exactly one edge,
		// both of amount m (spec.md §4.6).
		netPositions := make(map[string]domain.Cents, len(best.agents))
		for _, a := range best.agents {
			netPositions[a] = 0
		}

		ev := domain.NewEvent(tick, 0, domain.EventLsmCycleSettlement)
		ev.Agents = append([]string(nil), best.agents...)
		ev.Amounts = make([]domain.Cents, len(best.txIDs))
		for i := range best.txIDs {
			ev.Amounts[i] = m
		}
		ev.NetPositions = netPositions
		ev.MaxNetOutflow = 0
		ev.MaxNetOutflowAgent = best.agents[0]
		ev.TxIDs = append([]uuid.UUID(nil), best.txIDs...)
		emit(ev)
		for _, le := range legEvents {
			emit(le)
		}

		e.stats.CyclesSettled++
		e.stats.TotalValueNetted += m * domain.Cents(len(best.txIDs))
	}
	return nil
}

// findSimpleCycles runs a depth-bounded DFS from every node, returning
// every simple directed cycle of length in [minLen, maxLen].
func findSimpleCycles(byPair map[directedPair][]uuid.UUID, minLen, maxLen int) []foundCycle {
	adj := make(map[string][]string)
	nodeSet := make(map[string]bool)
	for pair := range byPair {
		adj[pair.from] = append(adj[pair.from], pair.to)
		nodeSet[pair.from] = true
		nodeSet[pair.to] = true
	}
	for from := range adj {
		sort.Strings(adj[from])
	}

	var nodes []string
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	if maxLen <= 0 {
		maxLen = len(nodes)
	}

	var cycles []foundCycle
	seen := make(map[string]bool) // dedup by canonical rotation signature

	for _, start := range nodes {
		path := []string{start}
		onPath := map[string]bool{start: true}
		var dfs func(current string)
		dfs = func(current string) {
			if len(path) > maxLen {
				return
			}
			for _, next := range adj[current] {
				if next == start {
					if len(path) >= minLen {
						sig := canonicalCycleSignature(path)
						if !seen[sig] {
							seen[sig] = true
							cycles = append(cycles, foundCycle{agents: append([]string(nil), path...)})
						}
					}
					continue
				}
				if onPath[next] {
					continue
				}
				if len(path) >= maxLen {
					continue
				}
				path = append(path, next)
				onPath[next] = true
				dfs(next)
				onPath[next] = false
				path = path[:len(path)-1]
			}
		}
		dfs(start)
	}

	for i := range cycles {
		for j, a := range cycles[i].agents {
			next := cycles[i].agents[(j+1)%len(cycles[i].agents)]
			ids := byPair[directedPair{a, next}]
			if len(ids) > 0 {
				cycles[i].txIDs = append(cycles[i].txIDs, ids[0])
			}
		}
	}
	return cycles
}

// canonicalCycleSignature rotates path to start at its lexicographically
// smallest node, so the same cycle discovered from different start nodes
// dedupes to one entry.
func canonicalCycleSignature(path []string) string {
	minIdx := 0
	for i, n := range path {
		if n < path[minIdx] {
			minIdx = i
		}
	}
	sig := ""
	for i := 0; i < len(path); i++ {
		sig += path[(minIdx+i)%len(path)] + ">"
	}
	return sig
}

// bestCycle picks the settleable amount m for each candidate cycle (the
// minimum remaining_amount over its chosen edges) and returns the one
// maximizing total settled value (m * length); ties break on the
// lexicographically smallest sorted tx-id list (spec.md §4.6).
func bestCycle(cycles []foundCycle, store *txstore.Store) (*foundCycle, domain.Cents, error) {
	type scored struct {
		cycle foundCycle
		m     domain.Cents
		value domain.Cents
		ids   []string
	}
	var candidates []scored

	for _, c := range cycles {
		if len(c.txIDs) != len(c.agents) {
			continue // a chosen edge disappeared since byPair was snapshotted
		}
		var m domain.Cents = -1
		for _, txID := range c.txIDs {
			tx, ok := store.Get(txID)
			if !ok {
				return nil, 0, coreerrors.NewInvariantViolation(0, "cycle references missing transaction %s", txID)
			}
			if m < 0 || tx.RemainingAmount < m {
				m = tx.RemainingAmount
			}
		}
		if m <= 0 {
			continue
		}
		ids := make([]string, len(c.txIDs))
		for i, id := range c.txIDs {
			ids[i] = id.String()
		}
		sort.Strings(ids)
		candidates = append(candidates, scored{cycle: c, m: m, value: m * domain.Cents(len(c.txIDs)), ids: ids})
	}

	if len(candidates) == 0 {
		return nil, 0, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].value != candidates[j].value {
			return candidates[i].value > candidates[j].value
		}
		for k := 0; k < len(candidates[i].ids) && k < len(candidates[j].ids); k++ {
			if candidates[i].ids[k] != candidates[j].ids[k] {
				return candidates[i].ids[k] < candidates[j].ids[k]
			}
		}
		return len(candidates[i].ids) < len(candidates[j].ids)
	})

	best := candidates[0]
	return &best.cycle, best.m, nil
}

// settleCycle atomically applies m cents of settlement to every edge of
// cycle: each participant's balance decreases by m as sender and
// increases by m as receiver, netting to zero over the whole cycle
// (spec.md §4.6).
func settleCycle(tick int64, cycle *foundCycle, m domain.Cents, agents map[string]*domain.Agent, store *txstore.Store, q2 *rtgs.Queue2) error {
	for i, txID := range cycle.txIDs {
		tx, err := store.MustGet(txID)
		if err != nil {
			return coreerrors.NewInvariantViolation(tick, "cycle references missing transaction %s", txID)
		}
		sender := cycle.agents[i]
		receiver := cycle.agents[(i+1)%len(cycle.agents)]

		agents[sender].Balance -= m
		agents[receiver].Balance += m

		if err := store.ApplySettlement(tx, m, tick); err != nil {
			return err
		}
		if tx.Status == domain.StatusSettled {
			q2.Remove(tx.ID)
		}
	}
	return nil
}
