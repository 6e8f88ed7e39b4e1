package rtgs

import (
	"github.com/google/uuid"

	"rtgssim/internal/txstore"
	"rtgssim/pkg/domain"
	coreerrors "rtgssim/pkg/errors"
)

// Engine runs the RTGS immediate-settlement pass over Queue-2
// (spec.md §4.5): band by band, FIFO within band, settling a
// transaction outright when the sender's available liquidity covers it,
// else marking it Overdue once its deadline tick is reached.
//
// It also tracks which transactions it currently considers resident in
// Queue-2 (seen), so it can tell a first submission from a retried
// resubmission, and so ReconcileWithdrawals can later notice one that
// left the queue from under it (settled by the LSM instead).
type Engine struct {
	seen map[uuid.UUID]bool
}

// NewEngine builds a settlement Engine.
func NewEngine() *Engine {
	return &Engine{seen: make(map[uuid.UUID]bool)}
}

// SettleTick processes every band of q2 in order, mutating agents and
// store in place, and emitting RtgsSubmission / RtgsResubmission /
// RtgsImmediateSettlement / Queue2LiquidityRelease /
// OverdueTransactionSettled / TransactionWentOverdue events through emit.
func (e *Engine) SettleTick(tick int64, q2 *Queue2, agents map[string]*domain.Agent, store *txstore.Store, emit func(domain.Event)) error {
	for b := Band(0); b < numBands; b++ {
		for _, txID := range q2.BandIDs(b) {
			tx, err := store.MustGet(txID)
			if err != nil {
				return coreerrors.NewInvariantViolation(tick, "queue-2 references missing transaction %s", txID)
			}
			if tx.Status == domain.StatusSettled {
				q2.Remove(txID)
				delete(e.seen, txID)
				continue
			}

			if e.seen[txID] {
				ev := domain.NewEvent(tick, 0, domain.EventRtgsResubmission)
				ev.SenderID = tx.SenderID
				ev.TxID = txID
				emit(ev)
			} else {
				e.seen[txID] = true
				ev := domain.NewEvent(tick, 0, domain.EventRtgsSubmission)
				ev.SenderID = tx.SenderID
				ev.TxID = txID
				emit(ev)
			}

			sender, ok := agents[tx.SenderID]
			if !ok {
				return coreerrors.NewInvariantViolation(tick, "transaction %s references unknown sender %s", txID, tx.SenderID)
			}
			receiver, ok := agents[tx.ReceiverID]
			if !ok {
				return coreerrors.NewInvariantViolation(tick, "transaction %s references unknown receiver %s", txID, tx.ReceiverID)
			}

			amount := tx.RemainingAmount
			if sender.AvailableLiquidity() >= amount {
				wasOverdue := tx.Overdue
				sender.Balance -= amount
				receiver.Balance += amount
				if err := store.ApplySettlement(tx, amount, tick); err != nil {
					return err
				}
				q2.Remove(txID)
				delete(e.seen, txID)

				ev := domain.NewEvent(tick, 0, domain.EventRtgsImmediateSettlement)
				ev.SenderID = tx.SenderID
				ev.ReceiverID = tx.ReceiverID
				ev.TxID = txID
				ev.Amount = amount
				emit(ev)

				release := domain.NewEvent(tick, 0, domain.EventQueue2LiquidityRelease)
				release.SenderID = tx.SenderID
				release.ReceiverID = tx.ReceiverID
				release.TxID = txID
				release.Amount = amount
				emit(release)

				if wasOverdue {
					settled := domain.NewEvent(tick, 0, domain.EventOverdueTransactionSettled)
					settled.SenderID = tx.SenderID
					settled.ReceiverID = tx.ReceiverID
					settled.TxID = txID
					settled.Amount = amount
					emit(settled)
				}
				continue
			}

			if tick >= tx.DeadlineTick && !tx.Overdue {
				tx.Overdue = true
				tx.OverdueSinceTick = tick

				ev := domain.NewEvent(tick, 0, domain.EventTransactionWentOverdue)
				ev.SenderID = tx.SenderID
				ev.ReceiverID = tx.ReceiverID
				ev.TxID = txID
				ev.DeadlineTick = tx.DeadlineTick
				emit(ev)
			}
		}
	}
	return nil
}

// ReconcileWithdrawals drops from e.seen every transaction SettleTick was
// tracking as Queue-2-resident that has since left q2 by some mechanism
// other than SettleTick's own settlement branch — in practice, the LSM
// phase running later in the same tick. Each one emits RtgsWithdrawal,
// completing the RtgsSubmission/RtgsResubmission lifecycle for a
// transaction RTGS never got to settle itself (spec.md §6).
func (e *Engine) ReconcileWithdrawals(tick int64, q2 *Queue2, store *txstore.Store, emit func(domain.Event)) {
	for txID := range e.seen {
		if q2.Contains(txID) {
			continue
		}
		delete(e.seen, txID)
		tx, ok := store.Get(txID)
		if !ok {
			continue
		}
		ev := domain.NewEvent(tick, 0, domain.EventRtgsWithdrawal)
		ev.SenderID = tx.SenderID
		ev.TxID = txID
		emit(ev)
	}
}
