package config

import (
	"fmt"
	"strings"

	coreerrors "rtgssim/pkg/errors"
)

// Validate checks c for the problems listed in spec.md §7's ConfigError
// kind: missing required fields, out-of-range values, duplicate agent
// ids, counterparty references to unknown agents, invalid distribution
// parameters. It accumulates every problem found rather than stopping at
// the first, mirroring the teacher's ValidateCore pattern.
func (c *Config) Validate() error {
	var problems []string

	if c.Simulation.TicksPerDay <= 0 {
		problems = append(problems, "simulation.ticks_per_day must be > 0")
	}
	if c.Simulation.NumDays <= 0 {
		problems = append(problems, "simulation.num_days must be > 0")
	}
	switch c.Simulation.Queue1Ordering {
	case QueueOrderFIFO, QueueOrderPriorityDeadline:
	default:
		problems = append(problems, fmt.Sprintf("simulation.queue1_ordering %q is not one of fifo, priority_deadline", c.Simulation.Queue1Ordering))
	}
	if c.Simulation.DefaultDeadlineOffset <= 0 {
		problems = append(problems, "simulation.default_deadline_offset must be > 0")
	}
	if c.Simulation.PriorityEscalation.Enabled && c.Simulation.PriorityEscalation.StartEscalatingAtTicks <= 0 {
		problems = append(problems, "simulation.priority_escalation.start_escalating_at_ticks must be > 0 when enabled")
	}

	if c.LSM.MinCycleLength == 0 {
		c.LSM.MinCycleLength = 3
	}
	if c.LSM.EnableCycles && c.LSM.MaxCycleLength < c.LSM.MinCycleLength {
		problems = append(problems, fmt.Sprintf("lsm_config.max_cycle_length (%d) must be >= min_cycle_length (%d)", c.LSM.MaxCycleLength, c.LSM.MinCycleLength))
	}

	if len(c.Agents) == 0 {
		problems = append(problems, "at least one agent is required")
	}

	seen := make(map[string]bool, len(c.Agents))
	ids := make(map[string]bool, len(c.Agents))
	for _, a := range c.Agents {
		ids[a.ID] = true
	}

	for _, a := range c.Agents {
		if strings.TrimSpace(a.ID) == "" {
			problems = append(problems, "agent id must not be blank")
			continue
		}
		if seen[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate agent id %q", a.ID))
		}
		seen[a.ID] = true

		if a.UnsecuredCap < 0 {
			problems = append(problems, fmt.Sprintf("agent %q: unsecured_cap must be >= 0", a.ID))
		}
		if a.MaxCollateralCapacity < 0 {
			problems = append(problems, fmt.Sprintf("agent %q: max_collateral_capacity must be >= 0", a.ID))
		}
		if a.InitialPostedCollateral < 0 || a.InitialPostedCollateral > a.MaxCollateralCapacity {
			problems = append(problems, fmt.Sprintf("agent %q: initial_posted_collateral must be in [0, max_collateral_capacity]", a.ID))
		}
		if a.Arrival.RatePerTick.IsNegative() {
			problems = append(problems, fmt.Sprintf("agent %q: arrival_config.rate_per_tick must be >= 0", a.ID))
		}

		switch a.Arrival.AmountDistribution.Variant {
		case AmountNormal, AmountLogNormal:
			if !a.Arrival.AmountDistribution.Sigma.IsPositive() {
				problems = append(problems, fmt.Sprintf("agent %q: amount_distribution.sigma must be > 0", a.ID))
			}
		case AmountUniform:
			if !a.Arrival.AmountDistribution.Max.GreaterThan(a.Arrival.AmountDistribution.Min) {
				problems = append(problems, fmt.Sprintf("agent %q: amount_distribution.max must be > min", a.ID))
			}
		case AmountExponential:
			if !a.Arrival.AmountDistribution.Lambda.IsPositive() {
				problems = append(problems, fmt.Sprintf("agent %q: amount_distribution.lambda must be > 0", a.ID))
			}
		default:
			problems = append(problems, fmt.Sprintf("agent %q: amount_distribution.variant %q is not recognized", a.ID, a.Arrival.AmountDistribution.Variant))
		}

		for receiver := range a.Arrival.CounterpartyWeights {
			if !ids[receiver] {
				problems = append(problems, fmt.Sprintf("agent %q: counterparty_weights references unknown agent %q", a.ID, receiver))
			}
		}

		for _, w := range a.Arrival.TimeWindows {
			if w.EndTick <= w.StartTick {
				problems = append(problems, fmt.Sprintf("agent %q: time window [%d,%d) is empty or inverted", a.ID, w.StartTick, w.EndTick))
			}
		}

		switch a.PriorityDistribution.Variant {
		case PriorityFixed:
			if a.PriorityDistribution.Fixed < 0 || a.PriorityDistribution.Fixed > 10 {
				problems = append(problems, fmt.Sprintf("agent %q: priority_distribution.fixed must be in [0,10]", a.ID))
			}
		case PriorityUniform:
			if a.PriorityDistribution.UniformMin < 0 || a.PriorityDistribution.UniformMax > 10 || a.PriorityDistribution.UniformMin > a.PriorityDistribution.UniformMax {
				problems = append(problems, fmt.Sprintf("agent %q: priority_distribution uniform range must satisfy 0 <= min <= max <= 10", a.ID))
			}
		case PriorityCategorical:
			if len(a.PriorityDistribution.CategoricalWeights) == 0 {
				problems = append(problems, fmt.Sprintf("agent %q: priority_distribution.categorical_weights must not be empty", a.ID))
			}
		default:
			problems = append(problems, fmt.Sprintf("agent %q: priority_distribution.variant %q is not recognized", a.ID, a.PriorityDistribution.Variant))
		}

		for _, tree := range []struct {
			name string
			cfg  PolicyTreeConfig
		}{
			{"bank_tree", a.BankTree},
			{"strategic_collateral_tree", a.StrategicCollateralTree},
			{"payment_tree", a.PaymentTree},
			{"end_of_tick_collateral_tree", a.EndOfTickCollateralTree},
		} {
			if tree.cfg.Root == nil {
				problems = append(problems, fmt.Sprintf("agent %q: %s.root must not be empty", a.ID, tree.name))
			}
		}
	}

	return coreerrors.NewConfigError(problems)
}
