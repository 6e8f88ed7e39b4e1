// Package policy implements the simulation core's policy tree evaluator
// (spec.md §4.3): JSON-serializable trees of Condition and Action nodes,
// compiled once at load, evaluated as pure recursive traversals over a
// read-only Context.
package policy

import (
	coreerrors "rtgssim/pkg/errors"
)

// ActionKind enumerates every action any of the four trees may emit
// (spec.md §4.3's per-tree action table). A given Tree only ever produces
// the subset valid for its own kind; the orchestrator rejects the rest as
// a PolicyEvaluationError if a misconfigured tree somehow returns one.
type ActionKind string

const (
	ActionNoOp               ActionKind = "NoOp"
	ActionSetReleaseBudget   ActionKind = "SetReleaseBudget"
	ActionSetState           ActionKind = "SetState"
	ActionAddState           ActionKind = "AddState"
	ActionPostCollateral     ActionKind = "PostCollateral"
	ActionWithdrawCollateral ActionKind = "WithdrawCollateral"
	ActionSubmitFull         ActionKind = "SubmitFull"
	ActionSubmitPartial      ActionKind = "SubmitPartial"
	ActionSplit              ActionKind = "Split"
	ActionHold               ActionKind = "Hold"
	ActionReprioritize       ActionKind = "Reprioritize"
	ActionDropIfOverdue      ActionKind = "DropIfOverdue"
)

// Action is the result of one tree traversal. Only the fields relevant to
// Kind are populated; the rest are nil/zero.
type Action struct {
	Kind ActionKind

	AmountExpr Expr // SetReleaseBudget, PostCollateral, WithdrawCollateral, SubmitPartial

	Key       string // SetState, AddState
	ValueExpr Expr   // SetState, AddState

	NExpr            Expr   // Split: split into n roughly-equal children
	WeightsExpr      []Expr // Split: split by explicit weights, alternative to NExpr
	SubmitAfterSplit bool   // Split: submit children to Queue-2 immediately rather than re-enqueue

	NewPriorityExpr Expr // Reprioritize
}

// NoOp is the zero action every unmatched tree traversal returns.
var NoOp = Action{Kind: ActionNoOp}

// Node is one node of a compiled policy tree: either a condition (Expr +
// two branches) or a leaf carrying an Action. A nil Node is treated as an
// implicit NoOp leaf — exactly spec.md §4.3's "an unmatched tree returns
// NoOp".
type Node struct {
	Expr  Expr  // non-nil for a condition node
	True  *Node // taken when Expr evaluates truthy (!= 0)
	False *Node // taken otherwise

	Action *Action // non-nil for a leaf node; Expr/True/False are nil
}

// Leaf builds a terminal Node wrapping a single Action.
func Leaf(a Action) *Node {
	return &Node{Action: &a}
}

// Cond builds a branching Node.
func Cond(expr Expr, ifTrue, ifFalse *Node) *Node {
	return &Node{Expr: expr, True: ifTrue, False: ifFalse}
}

func evalNode(n *Node, ctx Context, params map[string]float64) (Action, error) {
	if n == nil {
		return NoOp, nil
	}
	if n.Action != nil {
		return *n.Action, nil
	}
	v, err := n.Expr.Eval(ctx, params)
	if err != nil {
		return NoOp, err
	}
	if v != 0 {
		return evalNode(n.True, ctx, params)
	}
	return evalNode(n.False, ctx, params)
}

// Tree is one compiled, named policy tree belonging to an agent. TreeKind
// identifies which of the four trees it is, purely for diagnostics
// (PolicyEvaluationError's Tree field) — the permitted-action contract is
// enforced by whoever builds the tree, not by Tree itself.
type Tree struct {
	TreeKind string
	Root     *Node
	Params   map[string]float64
}

// Name satisfies domain.PolicyTree.
func (t *Tree) Name() string {
	return t.TreeKind
}

// Evaluate traverses the tree against ctx, returning the first action
// reached on a true branch, or NoOp if nothing matched.
func (t *Tree) Evaluate(ctx Context) (Action, error) {
	if t == nil || t.Root == nil {
		return NoOp, nil
	}
	return evalNode(t.Root, ctx, t.Params)
}

// EvaluateSafe wraps Evaluate for the orchestrator: on any evaluation
// error it never aborts the tick (spec.md §4.3, §7) — it returns NoOp
// plus a PolicyEvaluationError the caller should log and emit as a
// diagnostic event.
func (t *Tree) EvaluateSafe(agentID string, ctx Context) (Action, error) {
	act, err := t.Evaluate(ctx)
	if err != nil {
		return NoOp, coreerrors.NewPolicyEvaluationError(agentID, t.TreeKind, "%s", err.Error())
	}
	return act, nil
}
