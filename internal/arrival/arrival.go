// Package arrival implements the per-tick stochastic arrival generator
// (spec.md §4.2): for every agent, sample a Poisson arrival count, then
// for each arrival sample an amount and a counterparty and enqueue a new
// Pending transaction into the sender's Queue-1.
package arrival

import (
	"sort"

	"rtgssim/internal/rng"
	"rtgssim/internal/txstore"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
)

// Generator owns every agent's arrival configuration, indexed by
// agent ID for deterministic, sorted-order iteration (spec.md §4.1:
// "arrivals per agent in agent-id sorted order").
type Generator struct {
	ticksPerDay           int64
	defaultDeadlineOffset int64
	configs               map[string]config.ArrivalConfig
	priorityConfigs       map[string]config.PriorityDistributionConfig
	agentIDs              []string // sorted
}

// New builds a Generator from the full agent configuration list.
func New(agents []config.AgentConfig, ticksPerDay, defaultDeadlineOffset int64) *Generator {
	g := &Generator{
		ticksPerDay:           ticksPerDay,
		defaultDeadlineOffset: defaultDeadlineOffset,
		configs:               make(map[string]config.ArrivalConfig, len(agents)),
		priorityConfigs:       make(map[string]config.PriorityDistributionConfig, len(agents)),
	}
	for _, a := range agents {
		g.configs[a.ID] = a.Arrival
		g.priorityConfigs[a.ID] = a.PriorityDistribution
		g.agentIDs = append(g.agentIDs, a.ID)
	}
	sort.Strings(g.agentIDs)
	return g
}

// Generate samples this tick's arrivals for every agent in sorted-ID
// order and appends the resulting transactions to each sender's Queue-1.
// emit is called once per created Arrival event, in creation order.
func (g *Generator) Generate(tick int64, agents map[string]*domain.Agent, store *txstore.Store, stream *rng.Stream, emit func(domain.Event)) {
	for _, senderID := range g.agentIDs {
		sender, ok := agents[senderID]
		if !ok {
			continue
		}
		cfg := g.configs[senderID]
		lambda := g.effectiveRate(cfg, tick)
		n := stream.Poisson(lambda)
		for i := int64(0); i < n; i++ {
			amount := g.sampleAmount(cfg, stream)
			receiverID := g.sampleCounterparty(senderID, cfg, stream)
			if receiverID == "" {
				continue // no eligible counterparty (single-agent configuration)
			}
			priority := g.samplePriority(g.priorityConfigs[senderID], stream)
			tx := domain.NewTransaction(senderID, receiverID, amount, tick, tick+g.defaultDeadlineOffset, priority, true)
			store.Add(tx)
			sender.Queue1 = append(sender.Queue1, tx.ID)

			ev := domain.NewEvent(tick, 0, domain.EventArrival)
			ev.SenderID = senderID
			ev.ReceiverID = receiverID
			ev.TxID = tx.ID
			ev.Amount = amount
			ev.DeadlineTick = tx.DeadlineTick
			ev.Priority = priority
			emit(ev)
		}
	}
}

// effectiveRate applies the first matching non-overlapping time window's
// rate_multiplier to the base rate, else returns the base rate
// (spec.md §4.2).
func (g *Generator) effectiveRate(cfg config.ArrivalConfig, tick int64) float64 {
	base, _ := cfg.RatePerTick.Float64()
	tickInDay := tick % g.ticksPerDay
	for _, w := range cfg.TimeWindows {
		if tickInDay >= w.StartTick && tickInDay < w.EndTick {
			mult, _ := w.RateMultiplier.Float64()
			return base * mult
		}
	}
	return base
}

func (g *Generator) sampleAmount(cfg config.ArrivalConfig, stream *rng.Stream) domain.Cents {
	d := cfg.AmountDistribution
	var v float64
	switch d.Variant {
	case config.AmountNormal:
		mu, _ := d.Mu.Float64()
		sigma, _ := d.Sigma.Float64()
		v = stream.Normal(mu, sigma)
	case config.AmountLogNormal:
		mu, _ := d.Mu.Float64()
		sigma, _ := d.Sigma.Float64()
		v = stream.LogNormal(mu, sigma)
	case config.AmountUniform:
		min, _ := d.Min.Float64()
		max, _ := d.Max.Float64()
		v = min + stream.Uniform01()*(max-min)
	case config.AmountExponential:
		lambda, _ := d.Lambda.Float64()
		v = stream.Exponential(lambda)
	}
	return domain.RoundCentsFloorAt1(v)
}

// sampleCounterparty selects a receiver by weighted sample, excluding
// sender; missing receivers (not present in counterparty_weights) are
// chosen uniformly from the remaining agents (spec.md §4.2).
func (g *Generator) sampleCounterparty(senderID string, cfg config.ArrivalConfig, stream *rng.Stream) string {
	type candidate struct {
		id     string
		weight float64
	}
	var candidates []candidate
	var totalWeighted float64
	weighted := make(map[string]bool, len(cfg.CounterpartyWeights))
	for id, w := range cfg.CounterpartyWeights {
		if id == senderID {
			continue
		}
		wf, _ := w.Float64()
		if wf < 0 {
			wf = 0
		}
		candidates = append(candidates, candidate{id: id, weight: wf})
		totalWeighted += wf
		weighted[id] = true
	}
	for _, id := range g.agentIDs {
		if id == senderID || weighted[id] {
			continue
		}
		candidates = append(candidates, candidate{id: id, weight: 0})
	}
	if len(candidates) == 0 {
		return ""
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].id < candidates[j].id })

	if totalWeighted <= 0 {
		idx := stream.UniformInt(0, int64(len(candidates)-1))
		return candidates[idx].id
	}

	// Unweighted candidates share the remaining probability mass equally,
	// so every agent remains reachable even with a partial weights map.
	unweightedCount := 0
	for _, c := range candidates {
		if !weighted[c.id] {
			unweightedCount++
		}
	}
	fallbackShare := 0.0
	if unweightedCount > 0 {
		fallbackShare = totalWeighted / float64(len(weighted)+unweightedCount) / float64(unweightedCount)
	}

	r := stream.Uniform01() * (totalWeighted + fallbackShare*float64(unweightedCount))
	cum := 0.0
	for _, c := range candidates {
		w := c.weight
		if !weighted[c.id] {
			w = fallbackShare
		}
		cum += w
		if r < cum {
			return c.id
		}
	}
	return candidates[len(candidates)-1].id
}

func (g *Generator) samplePriority(cfg config.PriorityDistributionConfig, stream *rng.Stream) int {
	switch cfg.Variant {
	case config.PriorityUniform:
		lo, hi := int64(cfg.UniformMin), int64(cfg.UniformMax)
		return int(stream.UniformInt(lo, hi))
	case config.PriorityCategorical:
		total := 0.0
		for _, w := range cfg.CategoricalWeights {
			wf, _ := w.Float64()
			total += wf
		}
		if total <= 0 {
			return 0
		}
		priorities := make([]int, 0, len(cfg.CategoricalWeights))
		for p := range cfg.CategoricalWeights {
			priorities = append(priorities, p)
		}
		sort.Ints(priorities)
		r := stream.Uniform01() * total
		cum := 0.0
		for _, p := range priorities {
			wf, _ := cfg.CategoricalWeights[p].Float64()
			cum += wf
			if r < cum {
				return p
			}
		}
		return priorities[len(priorities)-1]
	case config.PriorityFixed:
		fallthrough
	default:
		return cfg.Fixed
	}
}
