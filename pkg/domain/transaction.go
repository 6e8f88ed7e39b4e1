// ==============================================================================
// TRANSACTION - pkg/domain/transaction.go
// ==============================================================================
package domain

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// TxStatusKind is the transaction lifecycle status (spec.md §3). Overdue is
// tracked as an orthogonal, set-once flag on Transaction rather than as a
// branch of this enum, since a transaction can be PartiallySettled and
// Overdue at the same time (spec.md §8 "Overdue idempotence").
type TxStatusKind int

const (
	StatusPending TxStatusKind = iota
	StatusPartiallySettled
	StatusSettled
)

func (k TxStatusKind) String() string {
	switch k {
	case StatusPending:
		return "Pending"
	case StatusPartiallySettled:
		return "PartiallySettled"
	case StatusSettled:
		return "Settled"
	default:
		return "Unknown"
	}
}

// Transaction is a single interbank payment, or a split child of one
// (spec.md §3). Parents are never destroyed when split; their
// RemainingAmount/SettledAmount are kept coherent by whoever settles a
// child (see internal/txstore).
type Transaction struct {
	ID         uuid.UUID
	SenderID   string
	ReceiverID string

	OriginalAmount  Cents // immutable once created
	RemainingAmount Cents
	SettledAmount   Cents

	ArrivalTick  int64
	DeadlineTick int64

	OriginalPriority int // 0-10, immutable
	CurrentPriority  int // 0-10, may be escalated upward only

	Status          TxStatusKind
	LastSettledTick int64 // tick of most recent settlement (partial or full)

	Overdue          bool
	OverdueSinceTick int64

	ParentID  *uuid.UUID
	Divisible bool

	CounterpartyHash uint64 // hash of ReceiverID, used by policy top-counterparty checks
}

// NewTransaction builds a Pending transaction with a fresh, stable ID.
func NewTransaction(sender, receiver string, amount Cents, arrivalTick, deadlineTick int64, priority int, divisible bool) *Transaction {
	return &Transaction{
		ID:               uuid.New(),
		SenderID:         sender,
		ReceiverID:       receiver,
		OriginalAmount:   amount,
		RemainingAmount:  amount,
		SettledAmount:    0,
		ArrivalTick:      arrivalTick,
		DeadlineTick:     deadlineTick,
		OriginalPriority: priority,
		CurrentPriority:  priority,
		Status:           StatusPending,
		Divisible:        divisible,
		CounterpartyHash: HashCounterparty(receiver),
	}
}

// HashCounterparty derives the tx_counterparty_id field from a receiver
// agent ID (spec.md §3 "hash used by policy").
func HashCounterparty(agentID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(agentID))
	return h.Sum64()
}

// IsSplitChild reports whether this transaction was produced by a split
// or partial-submit action.
func (t *Transaction) IsSplitChild() bool {
	return t.ParentID != nil
}

// Conserved reports whether the per-transaction conservation invariant
// (spec.md §3, §8.3) holds: original == settled + remaining.
func (t *Transaction) Conserved() bool {
	return t.OriginalAmount == t.SettledAmount+t.RemainingAmount
}
