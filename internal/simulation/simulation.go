// Package simulation is the orchestrator: it owns every agent, the
// transaction store, both queues, the RNG stream, and the event log, and
// runs the fixed twelve-step per-tick pipeline of spec.md §2. It is the
// only package that calls into every other internal package.
package simulation

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"rtgssim/internal/agent"
	"rtgssim/internal/arrival"
	"rtgssim/internal/costs"
	"rtgssim/internal/escalation"
	"rtgssim/internal/eventlog"
	"rtgssim/internal/lsm"
	"rtgssim/internal/policy"
	"rtgssim/internal/rng"
	"rtgssim/internal/rtgs"
	"rtgssim/internal/txstore"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
	coreerrors "rtgssim/pkg/errors"
	"rtgssim/pkg/logger"
)

// TickResult summarizes one completed tick.
type TickResult struct {
	Tick        int64
	Day         int64
	EventsCount int
}

// Simulation is one configured, running simulation instance.
type Simulation struct {
	cfg    config.Config
	logger logger.Logger

	agents   map[string]*domain.Agent
	agentIDs []string // sorted

	store  *txstore.Store
	q2     *rtgs.Queue2
	rng    *rng.Stream
	events *eventlog.Log

	arrivalGen   *arrival.Generator
	evaluator    *agent.Evaluator
	settleEngine *rtgs.Engine
	lsmEngine    *lsm.Engine
	costAccruer  *costs.Accruer

	tick         int64
	openingTotal domain.Cents

	// cumulativeCostDebits tracks every cent costAccruer has ever debited
	// directly from a balance (CostRatesConfig.DebitCostsFromBalance), so
	// checkInvariants can net it out of conservation: that money left the
	// simulation via cost accrual, not a settlement transfer.
	cumulativeCostDebits domain.Cents

	halted  bool
	haltErr error
}

// New validates cfg, compiles every agent's four policy trees, and
// builds a Simulation ready to Tick. Returns a ConfigError listing every
// problem found, including any tree that failed to compile.
func New(cfg config.Config, lg logger.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if lg == nil {
		lg = logger.NewNop()
	}

	sim := &Simulation{
		cfg:          cfg,
		logger:       lg,
		store:        txstore.New(),
		events:       eventlog.New(),
		agents:       make(map[string]*domain.Agent, len(cfg.Agents)),
		q2:           rtgs.NewQueue2(cfg.Simulation.RtgsPriorityMode),
		rng:          rng.NewStream(cfg.Simulation.RngSeed),
		evaluator:    agent.NewEvaluator(cfg.Simulation.Queue1Ordering, cfg.Simulation.TicksPerDay),
		settleEngine: rtgs.NewEngine(),
		lsmEngine:    lsm.NewEngine(cfg.LSM),
		costAccruer:  costs.New(cfg.CostRates),
	}

	var problems []string
	for _, ac := range cfg.Agents {
		a := domain.NewAgent(ac.ID, domain.Cents(ac.OpeningBalance), domain.Cents(ac.UnsecuredCap), domain.Cents(ac.MaxCollateralCapacity), domain.Cents(ac.InitialPostedCollateral))

		for _, t := range []struct {
			kind string
			cfg  config.PolicyTreeConfig
			dst  *domain.PolicyTree
		}{
			{"bank_tree", ac.BankTree, &a.BankTree},
			{"strategic_collateral_tree", ac.StrategicCollateralTree, &a.StrategicCollateralTree},
			{"payment_tree", ac.PaymentTree, &a.PaymentTree},
			{"end_of_tick_collateral_tree", ac.EndOfTickCollateralTree, &a.EndOfTickCollateralTree},
		} {
			tree, err := policy.Compile(t.kind, t.cfg)
			if err != nil {
				problems = append(problems, fmt.Sprintf("agent %q: %s", ac.ID, err.Error()))
				continue
			}
			*t.dst = tree
		}

		sim.agents[ac.ID] = a
		sim.agentIDs = append(sim.agentIDs, ac.ID)
		sim.openingTotal += a.OpeningBalance
	}
	if err := coreerrors.NewConfigError(problems); err != nil {
		return nil, err
	}
	sort.Strings(sim.agentIDs)

	sim.arrivalGen = arrival.New(cfg.Agents, cfg.Simulation.TicksPerDay, cfg.Simulation.DefaultDeadlineOffset)
	return sim, nil
}

// TotalTicks is the configured run length (ticks_per_day * num_days), a
// convenience for a caller driving the per-tick loop.
func (s *Simulation) TotalTicks() int64 {
	return s.cfg.Simulation.TicksPerDay * s.cfg.Simulation.NumDays
}

// Tick advances the simulation by exactly one tick, running the fixed
// pipeline of spec.md §2, and returns a summary of what happened. Once
// an InvariantViolation has halted the simulation, every subsequent call
// returns the same error without mutating state further.
func (s *Simulation) Tick() (TickResult, error) {
	if s.halted {
		return TickResult{}, s.haltErr
	}

	tick := s.tick
	day := tick / s.cfg.Simulation.TicksPerDay

	var emitted []domain.Event
	emit := func(ev domain.Event) {
		ev.Tick = tick
		emitted = append(emitted, ev)
	}

	if tick%s.cfg.Simulation.TicksPerDay == 0 {
		for _, id := range s.agentIDs {
			s.agents[id].ResetDaily()
		}
	}

	// 2. Arrival generator.
	s.arrivalGen.Generate(tick, s.agents, s.store, s.rng, emit)

	// 3. Priority escalator.
	escalation.Apply(tick, s.cfg.Simulation.PriorityEscalation, s.openTransactions(), emit)

	// 4-6. Per-agent bank_tree, strategic_collateral_tree, payment_tree.
	for _, id := range s.agentIDs {
		a := s.agents[id]
		budget := s.evaluator.RunBankTree(tick, day, s.q2.Size(), a, emit)
		s.evaluator.RunStrategicCollateralTree(tick, day, s.q2.Size(), a, emit)
		s.evaluator.RunPaymentTree(tick, day, s.q2.Size(), a, s.q2, s.store, budget, emit)
	}

	// 7. RTGS settlement.
	if err := s.settleEngine.SettleTick(tick, s.q2, s.agents, s.store, emit); err != nil {
		return TickResult{}, s.halt(tick, err)
	}

	// 8. LSM.
	if err := s.lsmEngine.Run(tick, s.q2, s.agents, s.store, emit); err != nil {
		return TickResult{}, s.halt(tick, err)
	}
	s.settleEngine.ReconcileWithdrawals(tick, s.q2, s.store, emit)

	// 9. Deadline enforcement for transactions still sitting in Queue-1
	// (Queue-2 residents are already handled inside step 7).
	s.markQueue1Overdue(tick, emit)

	// 10. End-of-tick collateral policy.
	for _, id := range s.agentIDs {
		s.evaluator.RunEndOfTickCollateralTree(tick, day, s.q2.Size(), s.agents[id], emit)
	}

	// 11. Cost accrual.
	newlyOverdue := make(map[string]int, len(s.agentIDs))
	for _, ev := range emitted {
		if ev.EventType == domain.EventTransactionWentOverdue {
			newlyOverdue[ev.SenderID]++
		}
	}
	for _, id := range s.agentIDs {
		s.cumulativeCostDebits += s.costAccruer.Accrue(tick, s.agents[id], s.outstandingForAgent(id), newlyOverdue[id], emit)
	}

	tlog := logger.WithTick(s.logger, tick)
	for _, ev := range emitted {
		if ev.EventType == domain.EventPolicyEvaluationError {
			tlog.Warn(ev.Message, logger.EventFields(ev))
		}
	}

	if err := s.checkInvariants(tick); err != nil {
		for _, ev := range emitted {
			s.events.Append(ev)
		}
		return TickResult{}, s.halt(tick, err)
	}

	// 12. Event flush.
	for _, ev := range emitted {
		s.events.Append(ev)
	}

	s.tick++
	return TickResult{Tick: tick, Day: day, EventsCount: len(emitted)}, nil
}

func (s *Simulation) halt(tick int64, err error) error {
	s.halted = true
	s.haltErr = err
	logger.WithTick(s.logger, tick).Error("simulation halted", map[string]interface{}{"error": err})
	return err
}

// openTransactions returns every still-open transaction currently sitting
// in any agent's Queue-1 or in Queue-2, deduplicated, for the priority
// escalator (spec.md §4.8: "every Pending/Overdue transaction in either
// queue").
func (s *Simulation) openTransactions() []*domain.Transaction {
	seen := make(map[uuid.UUID]bool)
	var out []*domain.Transaction
	add := func(id uuid.UUID) {
		if seen[id] {
			return
		}
		if tx, ok := s.store.Get(id); ok {
			seen[id] = true
			out = append(out, tx)
		}
	}
	for _, id := range s.agentIDs {
		for _, txID := range s.agents[id].Queue1 {
			add(txID)
		}
	}
	for _, txID := range s.q2.AllOrdered() {
		add(txID)
	}
	return out
}

// outstandingForAgent returns every not-yet-settled transaction id
// sends, for cost accrual. Split parents are left out: their children
// carry the same remaining amount.
func (s *Simulation) outstandingForAgent(id string) []*domain.Transaction {
	var out []*domain.Transaction
	for _, tx := range s.store.All() {
		if tx.SenderID == id && tx.Status != domain.StatusSettled && len(s.store.Children(tx.ID)) == 0 {
			out = append(out, tx)
		}
	}
	return out
}

func (s *Simulation) markQueue1Overdue(tick int64, emit func(domain.Event)) {
	for _, id := range s.agentIDs {
		for _, txID := range s.agents[id].Queue1 {
			tx, ok := s.store.Get(txID)
			if !ok || tx.Status == domain.StatusSettled || tx.Overdue {
				continue
			}
			if tick < tx.DeadlineTick {
				continue
			}
			tx.Overdue = true
			tx.OverdueSinceTick = tick

			ev := domain.NewEvent(tick, 0, domain.EventTransactionWentOverdue)
			ev.SenderID = tx.SenderID
			ev.ReceiverID = tx.ReceiverID
			ev.TxID = tx.ID
			ev.DeadlineTick = tx.DeadlineTick
			emit(ev)
		}
	}
}

// checkInvariants verifies the conservation laws that must hold at every
// tick boundary (spec.md §3, §8 properties 2 and 6). Conservation holds
// across settlement transfers, which only move money between agents; it
// does not hold in the raw sum once CostRatesConfig.DebitCostsFromBalance
// has pulled cost charges out of the agents' balances, so that cumulative
// amount is added back before comparing against openingTotal.
func (s *Simulation) checkInvariants(tick int64) error {
	var total domain.Cents
	for _, id := range s.agentIDs {
		a := s.agents[id]
		total += a.Balance
		if a.CreditUsed() > a.AllowedOverdraftLimit() {
			return coreerrors.NewInvariantViolation(tick, "agent %s credit_used %d exceeds allowed_overdraft_limit %d", id, a.CreditUsed(), a.AllowedOverdraftLimit())
		}
	}
	adjustedTotal := total + s.cumulativeCostDebits
	if adjustedTotal != s.openingTotal {
		return coreerrors.NewInvariantViolation(tick, "balance conservation violated: total=%d cost_debits=%d opening_total=%d", total, s.cumulativeCostDebits, s.openingTotal)
	}
	return nil
}

// SubmitTransaction is the external API for injecting a transaction
// outside the stochastic arrival generator (spec.md §6).
func (s *Simulation) SubmitTransaction(senderID, receiverID string, amountCents int64, deadlineTick int64, priority int, divisible bool) (uuid.UUID, error) {
	sender, ok := s.agents[senderID]
	if !ok {
		return uuid.Nil, coreerrors.ErrUnknownAgent
	}
	if _, ok := s.agents[receiverID]; !ok {
		return uuid.Nil, coreerrors.ErrUnknownAgent
	}
	if amountCents <= 0 {
		return uuid.Nil, coreerrors.ErrInvalidAmount
	}
	if deadlineTick <= s.tick {
		return uuid.Nil, coreerrors.ErrInvalidDeadline
	}
	if priority < 0 || priority > 10 {
		return uuid.Nil, coreerrors.ErrInvalidPriority
	}

	tx := domain.NewTransaction(senderID, receiverID, domain.Cents(amountCents), s.tick, deadlineTick, priority, divisible)
	s.store.Add(tx)
	sender.Queue1 = append(sender.Queue1, tx.ID)
	return tx.ID, nil
}

// CurrentTick returns the tick about to run next.
func (s *Simulation) CurrentTick() int64 { return s.tick }

// CurrentDay returns the day the next tick belongs to.
func (s *Simulation) CurrentDay() int64 { return s.tick / s.cfg.Simulation.TicksPerDay }

// GetAgentBalance returns id's current signed balance.
func (s *Simulation) GetAgentBalance(id string) (domain.Cents, error) {
	a, ok := s.agents[id]
	if !ok {
		return 0, coreerrors.ErrUnknownAgent
	}
	return a.Balance, nil
}

// GetAgentIDs returns every configured agent id, sorted.
func (s *Simulation) GetAgentIDs() []string {
	out := make([]string, len(s.agentIDs))
	copy(out, s.agentIDs)
	return out
}

// GetQueue1Size returns the number of Pending transactions id is
// currently holding as sender.
func (s *Simulation) GetQueue1Size(id string) (int, error) {
	a, ok := s.agents[id]
	if !ok {
		return 0, coreerrors.ErrUnknownAgent
	}
	return len(a.Queue1), nil
}

// GetQueue2Size returns the total number of transactions currently
// queued in the central RTGS queue.
func (s *Simulation) GetQueue2Size() int { return s.q2.Size() }

// GetTickEvents returns every event emitted during tick, in emission
// order.
func (s *Simulation) GetTickEvents(tick int64) []domain.Event { return s.events.TickEvents(tick) }

// GetAllEvents returns the complete event stream recorded so far.
func (s *Simulation) GetAllEvents() []domain.Event { return s.events.All() }

// Events exposes the underlying log for a collaborator that wants to
// Subscribe to live events rather than poll GetTickEvents.
func (s *Simulation) Events() *eventlog.Log { return s.events }

// LSMStats returns the LSM engine's cumulative telemetry.
func (s *Simulation) LSMStats() lsm.Stats { return s.lsmEngine.Stats() }
