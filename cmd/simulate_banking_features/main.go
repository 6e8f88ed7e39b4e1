package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"rtgssim/internal/simulation"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
	"rtgssim/pkg/logger"
)

// Two independent scenarios from spec.md §8, run back to back: splitting a
// divisible payment into even children under a payment_tree policy, and
// accruing pending/overdue/deadline-penalty costs against a transaction
// whose sender never has enough liquidity to pay it.
func main() {
	splitParentSettlement()
	fmt.Println()
	overdueAccrual()
}

// splitParentSettlement demonstrates a payment_tree that splits the first
// evaluation of a divisible transaction into four equal children and
// submits them immediately; well-funded counterparties should settle all
// four in the same tick.
func splitParentSettlement() {
	fmt.Println("=========================================================")
	fmt.Println("SCENARIO 1 - SPLIT PARENT SETTLEMENT")
	fmt.Println("=========================================================")

	cfg := config.Config{
		Simulation: config.SimulationConfig{
			TicksPerDay:           1000,
			NumDays:               1,
			RngSeed:               11,
			Queue1Ordering:        config.QueueOrderFIFO,
			RtgsPriorityMode:      false,
			DefaultDeadlineOffset: 20,
		},
		CostRates: config.CostRatesConfig{
			DelayCostPerTickPerCent: decimal.Zero,
			OverdueDelayMultiplier:  decimal.NewFromFloat(5.0),
			DeadlinePenaltyCents:    10_000,
			OverdraftRate:           decimal.Zero,
		},
		LSM: config.LSMConfig{EnableBilateral: true, EnableCycles: true, MinCycleLength: 3, MaxCycleLength: 4},
		Agents: []config.AgentConfig{
			quietAgent("Bank_C", 200_000, splitFourThenSubmitTree()),
			quietAgent("Bank_D", 200_000, alwaysSubmitTree()),
		},
	}

	sim, err := simulation.New(cfg, logger.New("simulate_banking_features"))
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		return
	}

	parentID, err := sim.SubmitTransaction("Bank_C", "Bank_D", 100_000, 20, 5, true)
	if err != nil {
		fmt.Printf("submit error: %v\n", err)
		return
	}
	fmt.Printf("Submitted parent %s: Bank_C -> Bank_D, 100,000 cents, divisible\n", parentID)

	result, err := sim.Tick()
	if err != nil {
		fmt.Printf("tick error: %v\n", err)
		return
	}

	var childIDs []uuid.UUID
	var childAmounts []domain.Cents
	settled := map[uuid.UUID]domain.Cents{}

	for _, ev := range sim.GetTickEvents(result.Tick) {
		switch ev.EventType {
		case domain.EventPolicySplit:
			if ev.TxID == parentID {
				childIDs = ev.ChildIDs
				childAmounts = ev.Amounts
				fmt.Printf("Split event: parent=%s children=%v amounts=%v\n", ev.TxID, ev.ChildIDs, ev.Amounts)
			}
		case domain.EventRtgsImmediateSettlement:
			settled[ev.TxID] += ev.Amount
		case domain.EventLsmBilateralOffset:
			for _, id := range ev.TxIDs {
				settled[id] += ev.AmountA
			}
		}
	}

	total := domain.Cents(0)
	allSettled := len(childIDs) == 4
	for i, id := range childIDs {
		got := settled[id]
		total += got
		fmt.Printf("  child %d: id=%s expected=%d settled=%d\n", i+1, id, childAmounts[i], got)
		if got != childAmounts[i] {
			allSettled = false
		}
	}

	if allSettled && total == 100_000 {
		fmt.Println("[SUCCESS] All four split children settled for the full parent amount.")
	} else {
		fmt.Println("[FAIL] Split children did not fully settle this tick.")
	}
}

// overdueAccrual demonstrates a transaction whose sender can never cover
// it: five ticks of pending delay cost, ten ticks of overdue delay cost
// at the overdue multiplier, and a one-shot deadline penalty once it
// crosses its deadline tick.
func overdueAccrual() {
	fmt.Println("=========================================================")
	fmt.Println("SCENARIO 2 - OVERDUE ACCRUAL")
	fmt.Println("=========================================================")

	const deadline = 5
	const runTicks = 15

	cfg := config.Config{
		Simulation: config.SimulationConfig{
			TicksPerDay:           1000,
			NumDays:               1,
			RngSeed:               13,
			Queue1Ordering:        config.QueueOrderFIFO,
			RtgsPriorityMode:      false,
			DefaultDeadlineOffset: deadline,
		},
		CostRates: config.CostRatesConfig{
			DelayCostPerTickPerCent: decimal.NewFromFloat(0.0001),
			OverdueDelayMultiplier:  decimal.NewFromFloat(5.0),
			DeadlinePenaltyCents:    100_000,
			OverdraftRate:           decimal.Zero,
		},
		LSM: config.LSMConfig{EnableBilateral: true, EnableCycles: true, MinCycleLength: 3, MaxCycleLength: 4},
		Agents: []config.AgentConfig{
			quietAgent("Bank_E", 0, alwaysSubmitTree()),
			quietAgent("Bank_F", 0, alwaysSubmitTree()),
		},
	}

	sim, err := simulation.New(cfg, logger.New("simulate_banking_features"))
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		return
	}

	txID, err := sim.SubmitTransaction("Bank_E", "Bank_F", 1_000_000, deadline, 5, false)
	if err != nil {
		fmt.Printf("submit error: %v\n", err)
		return
	}
	fmt.Printf("Submitted %s: Bank_E -> Bank_F, 1,000,000 cents, deadline tick %d, Bank_E has no liquidity\n", txID, deadline)

	var totalDelay, totalOverdue, totalPenalty domain.Cents
	for i := 0; i < runTicks; i++ {
		result, err := sim.Tick()
		if err != nil {
			fmt.Printf("tick error at %d: %v\n", i, err)
			return
		}
		for _, ev := range sim.GetTickEvents(result.Tick) {
			if ev.EventType == domain.EventCostAccrual && ev.AgentID == "Bank_E" {
				totalDelay += ev.DelayCost
				totalOverdue += ev.OverdueCost
				totalPenalty += ev.DeadlinePenalty
			}
		}
	}

	total := totalDelay + totalOverdue + totalPenalty
	fmt.Println("---------------------------------------------------------")
	fmt.Printf("Pending delay cost:   %d\n", totalDelay)
	fmt.Printf("Overdue delay cost:   %d\n", totalOverdue)
	fmt.Printf("Deadline penalty:     %d\n", totalPenalty)
	fmt.Printf("Total cost:           %d\n", total)

	if total == 105_500 {
		fmt.Println("[SUCCESS] Total accrued cost matches the reference scenario exactly.")
	} else {
		fmt.Println("[INFO] Total cost differs from the reference scenario; check cost rates/ticks.")
	}
}

func quietAgent(id string, openingBalance int64, paymentTree config.PolicyTreeConfig) config.AgentConfig {
	return config.AgentConfig{
		ID:             id,
		OpeningBalance: openingBalance,
		Arrival: config.ArrivalConfig{
			RatePerTick: decimal.Zero,
			AmountDistribution: config.AmountDistributionConfig{
				Variant: config.AmountUniform,
				Min:     decimal.NewFromInt(100),
				Max:     decimal.NewFromInt(200),
			},
		},
		PriorityDistribution:    config.PriorityDistributionConfig{Variant: config.PriorityFixed, Fixed: 5},
		BankTree:                hugeBudgetTree(),
		StrategicCollateralTree: noOpTree(),
		PaymentTree:             paymentTree,
		EndOfTickCollateralTree: noOpTree(),
	}
}

func hugeBudgetTree() config.PolicyTreeConfig {
	return config.PolicyTreeConfig{
		Root: &config.NodeConfig{
			Action: &config.ActionConfig{
				Kind:       "SetReleaseBudget",
				AmountExpr: &config.ExprConfig{Kind: "literal", Value: 1_000_000_000},
			},
		},
	}
}

func noOpTree() config.PolicyTreeConfig {
	return config.PolicyTreeConfig{Root: &config.NodeConfig{Action: &config.ActionConfig{Kind: "NoOp"}}}
}

func alwaysSubmitTree() config.PolicyTreeConfig {
	return config.PolicyTreeConfig{Root: &config.NodeConfig{Action: &config.ActionConfig{Kind: "SubmitFull"}}}
}

// splitFourThenSubmitTree splits a fresh (non-child) transaction into four
// equal parts and submits each immediately; split children skip the
// condition on their next evaluation since is_split is then 1.
func splitFourThenSubmitTree() config.PolicyTreeConfig {
	return config.PolicyTreeConfig{
		Root: &config.NodeConfig{
			Condition: &config.ExprConfig{
				Kind: "op",
				Op:   "==",
				Args: []config.ExprConfig{
					{Kind: "field", Field: "is_split"},
					{Kind: "literal", Value: 0},
				},
			},
			True: &config.NodeConfig{
				Action: &config.ActionConfig{
					Kind:             "Split",
					NExpr:            &config.ExprConfig{Kind: "literal", Value: 4},
					SubmitAfterSplit: true,
				},
			},
			False: &config.NodeConfig{
				Action: &config.ActionConfig{Kind: "SubmitFull"},
			},
		},
	}
}
