// ==============================================================================
// EVENT - pkg/domain/event.go
// ==============================================================================
package domain

import "github.com/google/uuid"

// EventType tags the kind of record in the event stream (spec.md §6). The
// replayer dispatches on this field alone.
type EventType string

const (
	EventArrival                   EventType = "Arrival"
	EventPolicySubmit              EventType = "PolicySubmit"
	EventPolicyHold                EventType = "Hold"
	EventPolicySplit               EventType = "Split"
	EventPolicyDrop                EventType = "Drop"
	EventTransactionReprioritized  EventType = "TransactionReprioritized"
	EventPriorityEscalated         EventType = "PriorityEscalated"
	EventQueuedRtgs                EventType = "QueuedRtgs"
	EventRtgsImmediateSettlement   EventType = "RtgsImmediateSettlement"
	EventRtgsSubmission            EventType = "RtgsSubmission"
	EventRtgsWithdrawal            EventType = "RtgsWithdrawal"
	EventRtgsResubmission          EventType = "RtgsResubmission"
	EventQueue2LiquidityRelease    EventType = "Queue2LiquidityRelease"
	EventLsmBilateralOffset        EventType = "LsmBilateralOffset"
	EventLsmCycleSettlement        EventType = "LsmCycleSettlement"
	EventTransactionWentOverdue    EventType = "TransactionWentOverdue"
	EventOverdueTransactionSettled EventType = "OverdueTransactionSettled"
	EventCostAccrual               EventType = "CostAccrual"
	EventCollateralPosted          EventType = "CollateralPosted"
	EventCollateralWithdrawn       EventType = "CollateralWithdrawn"
	EventStateRegisterSet          EventType = "StateRegisterSet"
	EventBankBudgetSet             EventType = "BankBudgetSet"
	EventPolicyEvaluationError     EventType = "PolicyEvaluationError"
)

// Event is a single tagged record in the append-only event log (spec.md
// §3, §6). It is a flat struct with many optional fields rather than a
// map[string]interface{}: every event type's required fields (per the
// table in spec.md §6) land in a dedicated, typed field, which makes
// field-by-field replay comparison (spec.md §8 property 9) exact rather
// than dependent on map key/type agreement.
type Event struct {
	Tick      int64
	Seq       int64 // emission order within the tick
	EventType EventType

	// Agent/party identifiers. Not every event uses every identifier; see
	// the table in spec.md §6 for which fields a given EventType requires.
	AgentID    string
	SenderID   string
	ReceiverID string
	AgentA     string
	AgentB     string

	Agents             []string // ordered participant list (LsmCycleSettlement)
	MaxNetOutflowAgent string

	TxID     uuid.UUID
	ChildIDs []uuid.UUID
	TxIDs    []uuid.UUID

	Amount   Cents
	AmountA  Cents
	AmountB  Cents
	Amounts  []Cents // Split children amounts / LsmCycleSettlement tx_amounts
	NewTotal Cents

	NetPositions  map[string]Cents
	MaxNetOutflow Cents

	DeadlineTick int64
	OldPriority  int
	NewPriority  int
	Priority     int

	DelayCost         Cents
	OverdueCost       Cents
	DeadlinePenalty   Cents
	OverdraftInterest Cents

	StateKey   string
	StateValue float64
	HasValue   bool

	Trigger string // "strategic" | "end_of_tick" | "policy" for collateral events

	Message string // PolicyEvaluationError diagnostic text
	Tree    string
}

// NewEvent returns a zero-value Event stamped with tick/seq/type; callers
// fill in the type-specific fields before appending it to the log.
func NewEvent(tick, seq int64, eventType EventType) Event {
	return Event{Tick: tick, Seq: seq, EventType: eventType}
}
