package agent

import (
	stderrors "errors"

	"github.com/google/uuid"

	"rtgssim/internal/collateral"
	"rtgssim/internal/policy"
	"rtgssim/internal/rtgs"
	"rtgssim/internal/txstore"
	"rtgssim/pkg/config"
	"rtgssim/pkg/domain"
	coreerrors "rtgssim/pkg/errors"
)

// Evaluator runs the four per-agent policy trees each tick, in the order
// the orchestrator's pipeline calls them (spec.md §2 steps 4-6, 10).
type Evaluator struct {
	queue1Ordering config.Queue1Ordering
	ticksPerDay    int64
}

// NewEvaluator builds an Evaluator bound to the run's Queue-1 ordering
// and day length.
func NewEvaluator(queue1Ordering config.Queue1Ordering, ticksPerDay int64) *Evaluator {
	return &Evaluator{queue1Ordering: queue1Ordering, ticksPerDay: ticksPerDay}
}

func emitDiagnostic(tick int64, err error, emit func(domain.Event)) {
	if err == nil {
		return
	}
	var pe *coreerrors.PolicyEvaluationError
	if stderrors.As(err, &pe) {
		ev := domain.NewEvent(tick, 0, domain.EventPolicyEvaluationError)
		ev.AgentID = pe.AgentID
		ev.Tree = pe.Tree
		ev.Message = pe.Message
		emit(ev)
	}
}

func asTree(t domain.PolicyTree) *policy.Tree {
	pt, _ := t.(*policy.Tree)
	return pt
}

// RunBankTree evaluates bank_tree once for a, returning the tick's
// release budget (spec.md §2 step 4, §4.3's bank_tree action table).
func (ev *Evaluator) RunBankTree(tick, day int64, queue2Size int, a *domain.Agent, emit func(domain.Event)) domain.Cents {
	tree := asTree(a.BankTree)
	if tree == nil {
		return 0
	}
	ctx := Context(tick, day, ev.ticksPerDay, queue2Size, a)
	act, err := tree.EvaluateSafe(a.ID, ctx)
	emitDiagnostic(tick, err, emit)

	switch act.Kind {
	case policy.ActionSetReleaseBudget:
		amt, rerr := policy.ResolveAmount(a.ID, tree.TreeKind, act.AmountExpr, ctx, tree.Params)
		emitDiagnostic(tick, rerr, emit)

		budgetEv := domain.NewEvent(tick, 0, domain.EventBankBudgetSet)
		budgetEv.AgentID = a.ID
		budgetEv.StateValue = float64(amt)
		emit(budgetEv)
		return amt
	case policy.ActionSetState, policy.ActionAddState:
		applyStateAction(tick, a, tree, act, ctx, emit)
		return 0
	default:
		return 0
	}
}

func applyStateAction(tick int64, a *domain.Agent, tree *policy.Tree, act policy.Action, ctx policy.Context, emit func(domain.Event)) {
	v, err := act.ValueExpr.Eval(ctx, tree.Params)
	if err != nil {
		emitDiagnostic(tick, coreerrors.NewPolicyEvaluationError(a.ID, tree.TreeKind, "%s", err.Error()), emit)
		return
	}
	if act.Kind == policy.ActionAddState {
		a.StateRegister[act.Key] += v
	} else {
		a.StateRegister[act.Key] = v
	}

	stateEv := domain.NewEvent(tick, 0, domain.EventStateRegisterSet)
	stateEv.AgentID = a.ID
	stateEv.StateKey = act.Key
	stateEv.StateValue = a.StateRegister[act.Key]
	stateEv.HasValue = true
	emit(stateEv)
}

// RunStrategicCollateralTree evaluates strategic_collateral_tree once
// for a (spec.md §2 step 5).
func (ev *Evaluator) RunStrategicCollateralTree(tick, day int64, queue2Size int, a *domain.Agent, emit func(domain.Event)) {
	ev.runCollateralTree(tick, day, queue2Size, a, a.StrategicCollateralTree, "strategic", emit)
}

// RunEndOfTickCollateralTree evaluates end_of_tick_collateral_tree once
// for a (spec.md §2 step 10).
func (ev *Evaluator) RunEndOfTickCollateralTree(tick, day int64, queue2Size int, a *domain.Agent, emit func(domain.Event)) {
	ev.runCollateralTree(tick, day, queue2Size, a, a.EndOfTickCollateralTree, "end_of_tick", emit)
}

func (ev *Evaluator) runCollateralTree(tick, day int64, queue2Size int, a *domain.Agent, treeIface domain.PolicyTree, trigger string, emit func(domain.Event)) {
	tree := asTree(treeIface)
	if tree == nil {
		return
	}
	ctx := Context(tick, day, ev.ticksPerDay, queue2Size, a)
	act, err := tree.EvaluateSafe(a.ID, ctx)
	emitDiagnostic(tick, err, emit)

	switch act.Kind {
	case policy.ActionPostCollateral:
		amt, rerr := policy.ResolveAmount(a.ID, tree.TreeKind, act.AmountExpr, ctx, tree.Params)
		emitDiagnostic(tick, rerr, emit)
		collateral.Post(a, amt, trigger, tick, emit)
	case policy.ActionWithdrawCollateral:
		amt, rerr := policy.ResolveAmount(a.ID, tree.TreeKind, act.AmountExpr, ctx, tree.Params)
		emitDiagnostic(tick, rerr, emit)
		collateral.Withdraw(a, amt, trigger, tick, emit)
	}
}

// RunPaymentTree walks a's Queue-1 in the configured order, evaluating
// payment_tree once per transaction subject to releaseBudget, and
// returns the unspent remainder (spec.md §2 step 6, §4.4).
func (ev *Evaluator) RunPaymentTree(tick, day int64, queue2Size int, a *domain.Agent, q2 *rtgs.Queue2, store *txstore.Store, releaseBudget domain.Cents, emit func(domain.Event)) domain.Cents {
	tree := asTree(a.PaymentTree)
	if tree == nil {
		return releaseBudget
	}

	SortQueue1(a.Queue1, ev.queue1Ordering, store)
	queue := append([]uuid.UUID(nil), a.Queue1...)
	bankCtx := Context(tick, day, ev.ticksPerDay, queue2Size, a)

	for _, txID := range queue {
		tx, ok := store.Get(txID)
		if !ok || tx.Status == domain.StatusSettled {
			a.RemoveFromQueue1(txID)
			continue
		}

		ctx := TxContext(bankCtx, tick, tx, a, store)
		act, err := tree.EvaluateSafe(a.ID, ctx)
		emitDiagnostic(tick, err, emit)

		switch act.Kind {
		case policy.ActionNoOp:
			continue

		case policy.ActionHold:
			holdEv := domain.NewEvent(tick, 0, domain.EventPolicyHold)
			holdEv.AgentID = a.ID
			holdEv.TxID = tx.ID
			emit(holdEv)

		case policy.ActionSubmitFull:
			cost := tx.RemainingAmount
			if cost > releaseBudget {
				continue
			}
			releaseBudget -= cost
			ev.submit(tick, a, tx, q2, emit)

		case policy.ActionSubmitPartial:
			ev.submitPartial(tick, a, tree, act, ctx, tx, q2, store, &releaseBudget, emit)

		case policy.ActionSplit:
			ev.split(tick, a, tree, act, ctx, tx, q2, store, &releaseBudget, emit)

		case policy.ActionReprioritize:
			newPriority, rerr := policy.ResolvePriority(a.ID, tree.TreeKind, act.NewPriorityExpr, ctx, tree.Params)
			emitDiagnostic(tick, rerr, emit)
			if newPriority < tx.OriginalPriority {
				newPriority = tx.OriginalPriority
			}
			if newPriority > 10 {
				newPriority = 10
			}
			if newPriority != tx.CurrentPriority {
				old := tx.CurrentPriority
				tx.CurrentPriority = newPriority
				rpEv := domain.NewEvent(tick, 0, domain.EventTransactionReprioritized)
				rpEv.AgentID = a.ID
				rpEv.TxID = tx.ID
				rpEv.OldPriority = old
				rpEv.NewPriority = newPriority
				emit(rpEv)
			}

		case policy.ActionDropIfOverdue:
			if !tx.Overdue || tx.RemainingAmount == 0 {
				continue
			}
			a.RemoveFromQueue1(tx.ID)
			dropEv := domain.NewEvent(tick, 0, domain.EventPolicyDrop)
			dropEv.AgentID = a.ID
			dropEv.TxID = tx.ID
			emit(dropEv)
		}
	}

	return releaseBudget
}

func (ev *Evaluator) submit(tick int64, a *domain.Agent, tx *domain.Transaction, q2 *rtgs.Queue2, emit func(domain.Event)) {
	a.RemoveFromQueue1(tx.ID)
	q2.Enqueue(tx.ID, tx.CurrentPriority)
	a.CounterpartyVolume[tx.ReceiverID] += tx.RemainingAmount
	a.Daily.Sent += tx.RemainingAmount

	subEv := domain.NewEvent(tick, 0, domain.EventPolicySubmit)
	subEv.AgentID = a.ID
	subEv.TxID = tx.ID
	emit(subEv)

	qEv := domain.NewEvent(tick, 0, domain.EventQueuedRtgs)
	qEv.SenderID = a.ID
	qEv.TxID = tx.ID
	emit(qEv)
}

func (ev *Evaluator) submitPartial(tick int64, a *domain.Agent, tree *policy.Tree, act policy.Action, ctx policy.Context, tx *domain.Transaction, q2 *rtgs.Queue2, store *txstore.Store, releaseBudget *domain.Cents, emit func(domain.Event)) {
	if !tx.Divisible {
		emitDiagnostic(tick, coreerrors.NewPolicyEvaluationError(a.ID, tree.TreeKind, "SubmitPartial rejected: transaction %s is not divisible", tx.ID), emit)
		return
	}
	amt, rerr := policy.ResolveAmount(a.ID, tree.TreeKind, act.AmountExpr, ctx, tree.Params)
	if rerr != nil {
		emitDiagnostic(tick, rerr, emit)
		return
	}
	if amt <= 0 || amt >= tx.RemainingAmount {
		emitDiagnostic(tick, coreerrors.NewPolicyEvaluationError(a.ID, tree.TreeKind, "SubmitPartial amount %d out of range for remaining_amount %d", amt, tx.RemainingAmount), emit)
		return
	}
	if amt > *releaseBudget {
		return
	}

	remainder := tx.RemainingAmount - amt
	submitted := domain.NewTransaction(tx.SenderID, tx.ReceiverID, amt, tx.ArrivalTick, tx.DeadlineTick, tx.CurrentPriority, tx.Divisible)
	submitted.ParentID = &tx.ID
	kept := domain.NewTransaction(tx.SenderID, tx.ReceiverID, remainder, tx.ArrivalTick, tx.DeadlineTick, tx.CurrentPriority, tx.Divisible)
	kept.ParentID = &tx.ID
	store.Add(submitted)
	store.Add(kept)

	a.RemoveFromQueue1(tx.ID)
	a.Queue1 = append(a.Queue1, kept.ID)
	q2.Enqueue(submitted.ID, submitted.CurrentPriority)
	*releaseBudget -= amt
	a.CounterpartyVolume[tx.ReceiverID] += amt
	a.Daily.Sent += amt

	subEv := domain.NewEvent(tick, 0, domain.EventPolicySubmit)
	subEv.AgentID = a.ID
	subEv.TxID = tx.ID
	emit(subEv)

	qEv := domain.NewEvent(tick, 0, domain.EventQueuedRtgs)
	qEv.SenderID = a.ID
	qEv.TxID = submitted.ID
	emit(qEv)
}

func (ev *Evaluator) split(tick int64, a *domain.Agent, tree *policy.Tree, act policy.Action, ctx policy.Context, tx *domain.Transaction, q2 *rtgs.Queue2, store *txstore.Store, releaseBudget *domain.Cents, emit func(domain.Event)) {
	if !tx.Divisible {
		emitDiagnostic(tick, coreerrors.NewPolicyEvaluationError(a.ID, tree.TreeKind, "Split rejected: transaction %s is not divisible", tx.ID), emit)
		return
	}

	var children []*domain.Transaction
	if act.NExpr != nil {
		n, nerr := policy.ResolveSplitCount(a.ID, tree.TreeKind, act.NExpr, ctx, tree.Params)
		if nerr != nil {
			emitDiagnostic(tick, nerr, emit)
			return
		}
		kids, serr := store.Split(tx, n, tick)
		if serr != nil {
			emitDiagnostic(tick, coreerrors.NewPolicyEvaluationError(a.ID, tree.TreeKind, "%s", serr.Error()), emit)
			return
		}
		children = kids
	} else if len(act.WeightsExpr) >= 2 {
		kids, serr := splitByWeights(store, tx, act.WeightsExpr, ctx, tree.Params, tick)
		if serr != nil {
			emitDiagnostic(tick, coreerrors.NewPolicyEvaluationError(a.ID, tree.TreeKind, "%s", serr.Error()), emit)
			return
		}
		children = kids
	} else {
		emitDiagnostic(tick, coreerrors.NewPolicyEvaluationError(a.ID, tree.TreeKind, "Split action has neither n_expr nor weights_expr"), emit)
		return
	}

	a.RemoveFromQueue1(tx.ID)
	childIDs := make([]uuid.UUID, len(children))
	amounts := make([]domain.Cents, len(children))
	for i, child := range children {
		childIDs[i] = child.ID
		amounts[i] = child.RemainingAmount
		if act.SubmitAfterSplit && child.RemainingAmount <= *releaseBudget {
			*releaseBudget -= child.RemainingAmount
			q2.Enqueue(child.ID, child.CurrentPriority)
			a.CounterpartyVolume[child.ReceiverID] += child.RemainingAmount
			a.Daily.Sent += child.RemainingAmount
			qEv := domain.NewEvent(tick, 0, domain.EventQueuedRtgs)
			qEv.SenderID = a.ID
			qEv.TxID = child.ID
			emit(qEv)
		} else {
			a.Queue1 = append(a.Queue1, child.ID)
		}
	}

	splitEv := domain.NewEvent(tick, 0, domain.EventPolicySplit)
	splitEv.AgentID = a.ID
	splitEv.TxID = tx.ID
	splitEv.ChildIDs = childIDs
	splitEv.Amounts = amounts
	emit(splitEv)
}

func splitByWeights(store *txstore.Store, parent *domain.Transaction, weightExprs []policy.Expr, ctx policy.Context, params map[string]float64, tick int64) ([]*domain.Transaction, error) {
	weights := make([]float64, len(weightExprs))
	var total float64
	for i, e := range weightExprs {
		v, err := e.Eval(ctx, params)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			v = 0
		}
		weights[i] = v
		total += v
	}
	if total <= 0 {
		return nil, stderrors.New("weights_expr evaluated to a non-positive total")
	}

	children := make([]*domain.Transaction, 0, len(weights))
	allocated := domain.Cents(0)
	for i, w := range weights {
		var amount domain.Cents
		if i == len(weights)-1 {
			amount = parent.RemainingAmount - allocated
		} else {
			amount = domain.RoundCents(float64(parent.RemainingAmount) * w / total)
		}
		if amount < 1 {
			amount = 1
		}
		child := domain.NewTransaction(parent.SenderID, parent.ReceiverID, amount, tick, parent.DeadlineTick, parent.CurrentPriority, parent.Divisible)
		child.ParentID = &parent.ID
		store.Add(child)
		children = append(children, child)
		allocated += amount
	}
	return children, nil
}
