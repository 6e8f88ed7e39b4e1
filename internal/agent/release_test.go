package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtgssim/internal/policy"
	"rtgssim/internal/rtgs"
	"rtgssim/internal/txstore"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
)

func leafTree(kind string, act policy.Action) *policy.Tree {
	return &policy.Tree{TreeKind: kind, Root: policy.Leaf(act), Params: map[string]float64{}}
}

func TestRunBankTreeSetsReleaseBudget(t *testing.T) {
	a := domain.NewAgent("Bank_A", 0, 0, 0, 0)
	a.BankTree = leafTree("bank_tree", policy.Action{Kind: policy.ActionSetReleaseBudget, AmountExpr: policy.Literal(5000)})

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	budget := ev.RunBankTree(0, 0, 0, a, func(e domain.Event) { events = append(events, e) })

	assert.Equal(t, domain.Cents(5000), budget)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventBankBudgetSet, events[0].EventType)
}

func TestRunBankTreeSetState(t *testing.T) {
	a := domain.NewAgent("Bank_A", 0, 0, 0, 0)
	a.BankTree = leafTree("bank_tree", policy.Action{Kind: policy.ActionSetState, Key: "foo", ValueExpr: policy.Literal(42)})

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	budget := ev.RunBankTree(0, 0, 0, a, func(e domain.Event) { events = append(events, e) })

	assert.Equal(t, domain.Cents(0), budget)
	assert.Equal(t, float64(42), a.StateRegister["foo"])
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventStateRegisterSet, events[0].EventType)
}

func TestRunBankTreeNilTreeReturnsZero(t *testing.T) {
	a := domain.NewAgent("Bank_A", 0, 0, 0, 0)
	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	budget := ev.RunBankTree(0, 0, 0, a, func(domain.Event) {})
	assert.Equal(t, domain.Cents(0), budget)
}

func TestRunStrategicCollateralTreePostsCollateral(t *testing.T) {
	a := domain.NewAgent("Bank_A", 0, 0, 1000, 0)
	a.StrategicCollateralTree = leafTree("strategic_collateral_tree", policy.Action{Kind: policy.ActionPostCollateral, AmountExpr: policy.Literal(300)})

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	ev.RunStrategicCollateralTree(0, 0, 0, a, func(e domain.Event) { events = append(events, e) })

	assert.Equal(t, domain.Cents(300), a.PostedCollateral)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventCollateralPosted, events[0].EventType)
}

func TestRunEndOfTickCollateralTreeWithdraws(t *testing.T) {
	a := domain.NewAgent("Bank_A", 0, 0, 1000, 500)
	a.EndOfTickCollateralTree = leafTree("end_of_tick_collateral_tree", policy.Action{Kind: policy.ActionWithdrawCollateral, AmountExpr: policy.Literal(200)})

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	ev.RunEndOfTickCollateralTree(0, 0, 0, a, func(e domain.Event) { events = append(events, e) })

	assert.Equal(t, domain.Cents(300), a.PostedCollateral)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventCollateralWithdrawn, events[0].EventType)
}

func TestRunPaymentTreeSubmitFullWithinBudget(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionSubmitFull})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	remaining := ev.RunPaymentTree(0, 0, 0, a, q2, store, 1000, func(e domain.Event) { events = append(events, e) })

	assert.Equal(t, domain.Cents(0), remaining)
	assert.Empty(t, a.Queue1)
	assert.Equal(t, 1, q2.Size())
	assert.Equal(t, domain.Cents(1000), a.Daily.Sent)
}

func TestRunPaymentTreeSubmitFullExceedsBudgetStaysQueued(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionSubmitFull})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	remaining := ev.RunPaymentTree(0, 0, 0, a, q2, store, 500, func(domain.Event) {})

	assert.Equal(t, domain.Cents(500), remaining)
	assert.Len(t, a.Queue1, 1)
	assert.Equal(t, 0, q2.Size())
}

func TestRunPaymentTreeHoldLeavesTransactionQueued(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionHold})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	remaining := ev.RunPaymentTree(0, 0, 0, a, q2, store, 1000, func(e domain.Event) { events = append(events, e) })

	assert.Equal(t, domain.Cents(1000), remaining)
	assert.Len(t, a.Queue1, 1)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPolicyHold, events[0].EventType)
	assert.Equal(t, "Bank_A", events[0].AgentID)
	assert.Equal(t, tx.ID, events[0].TxID)
}

func TestRunPaymentTreeDropIfOverdueRemovesOverdueOnly(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	tx.Overdue = true
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionDropIfOverdue})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	ev.RunPaymentTree(0, 0, 0, a, q2, store, 1000, func(e domain.Event) { events = append(events, e) })

	assert.Empty(t, a.Queue1)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPolicyDrop, events[0].EventType)
}

func TestRunPaymentTreeReprioritizeNeverLowersBelowOriginal(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionReprioritize, NewPriorityExpr: policy.Literal(2)})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	ev.RunPaymentTree(0, 0, 0, a, q2, store, 0, func(domain.Event) {})

	assert.Equal(t, 5, tx.CurrentPriority)
}

func TestRunPaymentTreeSplitSubmitsChildrenImmediately(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{
		Kind:             policy.ActionSplit,
		NExpr:            policy.Literal(4),
		SubmitAfterSplit: true,
	})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	ev.RunPaymentTree(0, 0, 0, a, q2, store, 1000, func(e domain.Event) { events = append(events, e) })

	assert.Empty(t, a.Queue1)
	assert.Equal(t, 4, q2.Size())
	found := false
	for _, e := range events {
		if e.EventType == domain.EventPolicySplit {
			found = true
			assert.Len(t, e.ChildIDs, 4)
		}
	}
	assert.True(t, found)
}

func TestRunPaymentTreeSubmitPartialRejectsNonDivisible(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, false)
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionSubmitPartial, AmountExpr: policy.Literal(400)})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	var events []domain.Event
	ev.RunPaymentTree(0, 0, 0, a, q2, store, 1000, func(e domain.Event) { events = append(events, e) })

	assert.Len(t, a.Queue1, 1)
	assert.Equal(t, 0, q2.Size())
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPolicyEvaluationError, events[0].EventType)
}

func TestRunPaymentTreeSubmitPartialSplitsRemainderBackIntoQueue(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionSubmitPartial, AmountExpr: policy.Literal(400)})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	remaining := ev.RunPaymentTree(0, 0, 0, a, q2, store, 1000, func(domain.Event) {})

	assert.Equal(t, domain.Cents(600), remaining)
	assert.Len(t, a.Queue1, 1)
	assert.Equal(t, 1, q2.Size())
	kept, _ := store.Get(a.Queue1[0])
	assert.Equal(t, domain.Cents(600), kept.RemainingAmount)
}

func TestRunPaymentTreeRemovesAlreadySettledTransactions(t *testing.T) {
	a := domain.NewAgent("Bank_A", 10_000, 0, 0, 0)
	tx := domain.NewTransaction("Bank_A", "Bank_B", 1000, 0, 10, 5, true)
	tx.Status = domain.StatusSettled
	store := txstore.New()
	store.Add(tx)
	a.Queue1 = append(a.Queue1, tx.ID)
	a.PaymentTree = leafTree("payment_tree", policy.Action{Kind: policy.ActionHold})
	q2 := rtgs.NewQueue2(true)

	ev := NewEvaluator(config.QueueOrderFIFO, 100)
	ev.RunPaymentTree(0, 0, 0, a, q2, store, 1000, func(domain.Event) {})

	assert.Empty(t, a.Queue1)
}
