package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateNilTreeReturnsNoOp(t *testing.T) {
	var tr *Tree
	act, err := tr.Evaluate(Context{})
	require.NoError(t, err)
	assert.Equal(t, NoOp, act)

	tr = &Tree{TreeKind: "payment_tree"}
	act, err = tr.Evaluate(Context{})
	require.NoError(t, err)
	assert.Equal(t, NoOp, act)
}

func TestEvaluateBranches(t *testing.T) {
	tree := &Tree{
		TreeKind: "payment_tree",
		Root: Cond(
			BinaryExpr{Op: OpGt, X: Field("amount"), Y: Literal(1000)},
			Leaf(Action{Kind: ActionHold}),
			Leaf(Action{Kind: ActionSubmitFull}),
		),
	}

	act, err := tree.Evaluate(Context{"amount": 2000})
	require.NoError(t, err)
	assert.Equal(t, ActionHold, act.Kind)

	act, err = tree.Evaluate(Context{"amount": 500})
	require.NoError(t, err)
	assert.Equal(t, ActionSubmitFull, act.Kind)
}

func TestEvaluateUnmatchedBranchIsNoOp(t *testing.T) {
	tree := &Tree{
		TreeKind: "payment_tree",
		Root:     Cond(Literal(0), Leaf(Action{Kind: ActionSubmitFull}), nil),
	}
	act, err := tree.Evaluate(Context{})
	require.NoError(t, err)
	assert.Equal(t, NoOp, act)
}

func TestEvaluateSafeWrapsErrorAsPolicyEvaluationError(t *testing.T) {
	tree := &Tree{
		TreeKind: "payment_tree",
		Root:     Leaf(Action{Kind: ActionSubmitPartial, AmountExpr: Field("missing")}),
	}
	// A leaf action's AmountExpr is not evaluated by Evaluate itself (that
	// happens downstream via ResolveAmount), so force an evaluation error
	// through a condition instead.
	tree.Root = Cond(Field("missing"), Leaf(Action{Kind: ActionSubmitFull}), nil)

	act, err := tree.EvaluateSafe("Bank_A", Context{})
	assert.Equal(t, NoOp, act)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bank_A")
}

func TestName(t *testing.T) {
	tree := &Tree{TreeKind: "bank_tree"}
	assert.Equal(t, "bank_tree", tree.Name())
}
