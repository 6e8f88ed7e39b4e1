// ==============================================================================
// CONFIG PACKAGE - pkg/config/config.go
// ==============================================================================
//
// Package config is the structural contract an external collaborator
// populates (typically by unmarshaling YAML) and passes to
// simulation.New. The core never reads environment variables or files
// itself — loading and parsing are explicitly an external concern.
package config

import (
	"github.com/shopspring/decimal"
)

// Config is the complete configuration for one simulation run (spec.md §6).
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	CostRates  CostRatesConfig  `yaml:"cost_rates"`
	LSM        LSMConfig        `yaml:"lsm_config"`
	Agents     []AgentConfig    `yaml:"agents"`
}

// SimulationConfig holds the run's top-level timing and mode settings.
type SimulationConfig struct {
	TicksPerDay           int64                    `yaml:"ticks_per_day"`
	NumDays               int64                    `yaml:"num_days"`
	RngSeed               uint64                   `yaml:"rng_seed"`
	Queue1Ordering        Queue1Ordering           `yaml:"queue1_ordering"`
	RtgsPriorityMode      bool                     `yaml:"rtgs_priority_mode"`
	PriorityEscalation    PriorityEscalationConfig `yaml:"priority_escalation"`
	DefaultDeadlineOffset int64                    `yaml:"default_deadline_offset"`
}

// Queue1Ordering selects how each agent's Queue-1 is ordered (spec.md §3).
type Queue1Ordering string

const (
	QueueOrderFIFO            Queue1Ordering = "fifo"
	QueueOrderPriorityDeadline Queue1Ordering = "priority_deadline"
)

// PriorityEscalationConfig configures the escalation curve (spec.md §4.8).
type PriorityEscalationConfig struct {
	Enabled                bool   `yaml:"enabled"`
	Curve                  string `yaml:"curve"` // "linear" is the only curve currently implemented
	StartEscalatingAtTicks int64  `yaml:"start_escalating_at_ticks"`
	MaxBoost               int    `yaml:"max_boost"`
}

// CostRatesConfig configures per-tick cost accrual (spec.md §4.9, §6).
type CostRatesConfig struct {
	DelayCostPerTickPerCent  decimal.Decimal `yaml:"delay_cost_per_tick_per_cent"`
	OverdueDelayMultiplier   decimal.Decimal `yaml:"overdue_delay_multiplier"`   // default 5.0
	DeadlinePenaltyCents     int64           `yaml:"deadline_penalty"`          // default 100_000
	OverdraftRate            decimal.Decimal `yaml:"overdraft_rate"`
	EodPenaltyPerTransaction int64           `yaml:"eod_penalty_per_transaction"`
	DebitCostsFromBalance    bool            `yaml:"debit_costs_from_balance"` // default false: counter-only (spec.md §9 Open Question)
}

// LSMConfig configures the Liquidity-Saving Mechanism (spec.md §4.6, §6).
type LSMConfig struct {
	EnableBilateral bool `yaml:"enable_bilateral"`
	EnableCycles    bool `yaml:"enable_cycles"`
	MinCycleLength  int  `yaml:"min_cycle_length"` // default 3
	MaxCycleLength  int  `yaml:"max_cycle_length"`
}

// AgentConfig configures a single participant bank (spec.md §6).
type AgentConfig struct {
	ID                      string                     `yaml:"id"`
	OpeningBalance          int64                      `yaml:"opening_balance"`
	UnsecuredCap            int64                      `yaml:"unsecured_cap"`
	MaxCollateralCapacity   int64                      `yaml:"max_collateral_capacity"`
	InitialPostedCollateral int64                      `yaml:"initial_posted_collateral"`
	Arrival                 ArrivalConfig              `yaml:"arrival_config"`
	PriorityDistribution    PriorityDistributionConfig `yaml:"priority_distribution"`
	BankTree                PolicyTreeConfig           `yaml:"bank_tree"`
	StrategicCollateralTree PolicyTreeConfig           `yaml:"strategic_collateral_tree"`
	PaymentTree             PolicyTreeConfig           `yaml:"payment_tree"`
	EndOfTickCollateralTree PolicyTreeConfig           `yaml:"end_of_tick_collateral_tree"`
}

// ArrivalConfig configures one agent's stochastic arrival stream
// (spec.md §4.2).
type ArrivalConfig struct {
	RatePerTick         decimal.Decimal           `yaml:"rate_per_tick"`
	AmountDistribution  AmountDistributionConfig  `yaml:"amount_distribution"`
	CounterpartyWeights map[string]decimal.Decimal `yaml:"counterparty_weights"`
	TimeWindows         []TimeWindowConfig        `yaml:"time_windows"`
}

// AmountDistributionVariant selects an arrival amount distribution.
type AmountDistributionVariant string

const (
	AmountNormal      AmountDistributionVariant = "normal"
	AmountLogNormal   AmountDistributionVariant = "lognormal"
	AmountUniform     AmountDistributionVariant = "uniform"
	AmountExponential AmountDistributionVariant = "exponential"
)

// AmountDistributionConfig holds the parameters for whichever Variant is
// selected; unused fields for the chosen variant are ignored.
type AmountDistributionConfig struct {
	Variant AmountDistributionVariant `yaml:"variant"`
	Mu      decimal.Decimal           `yaml:"mu"`
	Sigma   decimal.Decimal           `yaml:"sigma"`
	Min     decimal.Decimal           `yaml:"min"`
	Max     decimal.Decimal           `yaml:"max"`
	Lambda  decimal.Decimal           `yaml:"lambda"`
}

// TimeWindowConfig scales an agent's effective arrival rate over
// [StartTick, EndTick) within a day (spec.md §4.2).
type TimeWindowConfig struct {
	StartTick      int64           `yaml:"start_tick"`
	EndTick        int64           `yaml:"end_tick"`
	RateMultiplier decimal.Decimal `yaml:"rate_multiplier"`
}

// PriorityDistributionVariant selects how an arrival's priority is drawn.
type PriorityDistributionVariant string

const (
	PriorityFixed       PriorityDistributionVariant = "fixed"
	PriorityCategorical PriorityDistributionVariant = "categorical"
	PriorityUniform     PriorityDistributionVariant = "uniform"
)

// PriorityDistributionConfig configures arrival priority sampling
// (spec.md §4.2).
type PriorityDistributionConfig struct {
	Variant            PriorityDistributionVariant `yaml:"variant"`
	Fixed              int                         `yaml:"fixed"`
	CategoricalWeights map[int]decimal.Decimal     `yaml:"categorical_weights"`
	UniformMin         int                         `yaml:"uniform_min"`
	UniformMax         int                         `yaml:"uniform_max"`
}

// PolicyTreeConfig is the JSON/YAML-serializable form of one compiled
// policy tree (spec.md §4.3, §9): a Root node and a named parameter map.
// internal/policy.Compile turns this into an executable *policy.Tree.
type PolicyTreeConfig struct {
	Root   *NodeConfig        `yaml:"root"`
	Params map[string]float64 `yaml:"params"`
}

// NodeConfig is one node of a serialized policy tree: either a Condition
// with two branches, or a terminal Action.
type NodeConfig struct {
	Condition *ExprConfig   `yaml:"condition,omitempty"`
	True      *NodeConfig   `yaml:"true,omitempty"`
	False     *NodeConfig   `yaml:"false,omitempty"`
	Action    *ActionConfig `yaml:"action,omitempty"`
}

// ExprConfig is one node of a serialized expression tree (spec.md §4.3):
// a literal, a field reference, a parameter reference, or an operator
// applied to Args in order.
type ExprConfig struct {
	Kind  string       `yaml:"kind"` // "literal" | "field" | "param" | "op"
	Value float64      `yaml:"value,omitempty"`
	Field string       `yaml:"field,omitempty"`
	Param string       `yaml:"param,omitempty"`
	Op    string       `yaml:"op,omitempty"`
	Args  []ExprConfig `yaml:"args,omitempty"`
}

// ActionConfig is the serialized form of a policy action (spec.md §4.3's
// per-tree action table). Only the fields relevant to Kind are expected
// to be populated.
type ActionConfig struct {
	Kind             string       `yaml:"kind"`
	AmountExpr       *ExprConfig  `yaml:"amount_expr,omitempty"`
	Key              string       `yaml:"key,omitempty"`
	ValueExpr        *ExprConfig  `yaml:"value_expr,omitempty"`
	NExpr            *ExprConfig  `yaml:"n_expr,omitempty"`
	WeightsExpr      []ExprConfig `yaml:"weights_expr,omitempty"`
	SubmitAfterSplit bool         `yaml:"submit_after_split,omitempty"`
	NewPriorityExpr  *ExprConfig  `yaml:"new_priority_expr,omitempty"`
}
