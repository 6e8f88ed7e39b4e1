package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	tree := PolicyTreeConfig{Root: &NodeConfig{Action: &ActionConfig{Kind: "NoOp"}}}
	return Config{
		Simulation: SimulationConfig{
			TicksPerDay:           100,
			NumDays:               1,
			Queue1Ordering:        QueueOrderFIFO,
			DefaultDeadlineOffset: 10,
		},
		LSM: LSMConfig{EnableCycles: true, MinCycleLength: 3, MaxCycleLength: 5},
		Agents: []AgentConfig{
			{
				ID: "Bank_A",
				Arrival: ArrivalConfig{
					RatePerTick: decimal.NewFromFloat(0.1),
					AmountDistribution: AmountDistributionConfig{
						Variant: AmountUniform,
						Min:     decimal.NewFromInt(100),
						Max:     decimal.NewFromInt(200),
					},
				},
				PriorityDistribution:   PriorityDistributionConfig{Variant: PriorityFixed, Fixed: 5},
				BankTree:                tree,
				StrategicCollateralTree: tree,
				PaymentTree:             tree,
				EndOfTickCollateralTree: tree,
			},
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsZeroTicksPerDay(t *testing.T) {
	cfg := validConfig()
	cfg.Simulation.TicksPerDay = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ticks_per_day")
}

func TestValidateRejectsNoAgents(t *testing.T) {
	cfg := validConfig()
	cfg.Agents = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one agent")
}

func TestValidateRejectsDuplicateAgentID(t *testing.T) {
	cfg := validConfig()
	cfg.Agents = append(cfg.Agents, cfg.Agents[0])
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate agent id")
}

func TestValidateRejectsUnknownCounterparty(t *testing.T) {
	cfg := validConfig()
	cfg.Agents[0].Arrival.CounterpartyWeights = map[string]decimal.Decimal{"Bank_Z": decimal.NewFromInt(1)}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
}

func TestValidateRejectsInvertedTimeWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Agents[0].Arrival.TimeWindows = []TimeWindowConfig{{StartTick: 5, EndTick: 5}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time window")
}

func TestValidateRejectsMissingPolicyTreeRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Agents[0].PaymentTree = PolicyTreeConfig{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment_tree.root")
}

func TestValidateRejectsCycleLengthBounds(t *testing.T) {
	cfg := validConfig()
	cfg.LSM.MaxCycleLength = 2
	cfg.LSM.MinCycleLength = 3
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_cycle_length")
}

func TestValidateAccumulatesMultipleProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Simulation.TicksPerDay = 0
	cfg.Simulation.NumDays = 0
	cfg.Agents = nil
	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "ticks_per_day")
	assert.Contains(t, msg, "num_days")
	assert.Contains(t, msg, "at least one agent")
}
