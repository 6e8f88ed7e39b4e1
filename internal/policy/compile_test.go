package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtgssim/pkg/config"
)

func TestCompileLiteralLeaf(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{Action: &config.ActionConfig{Kind: "SubmitFull"}},
	}
	tree, err := Compile("payment_tree", cfg)
	require.NoError(t, err)

	act, err := tree.Evaluate(Context{})
	require.NoError(t, err)
	assert.Equal(t, ActionSubmitFull, act.Kind)
}

func TestCompileConditionBranches(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{
			Condition: &config.ExprConfig{
				Kind: "op", Op: ">",
				Args: []config.ExprConfig{
					{Kind: "field", Field: "amount"},
					{Kind: "literal", Value: 1000},
				},
			},
			True:  &config.NodeConfig{Action: &config.ActionConfig{Kind: "Hold"}},
			False: &config.NodeConfig{Action: &config.ActionConfig{Kind: "SubmitFull"}},
		},
	}
	tree, err := Compile("payment_tree", cfg)
	require.NoError(t, err)

	act, err := tree.Evaluate(Context{"amount": 2000})
	require.NoError(t, err)
	assert.Equal(t, ActionHold, act.Kind)

	act, err = tree.Evaluate(Context{"amount": 100})
	require.NoError(t, err)
	assert.Equal(t, ActionSubmitFull, act.Kind)
}

func TestCompileSetReleaseBudgetRequiresAmountExpr(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{Action: &config.ActionConfig{Kind: "SetReleaseBudget"}},
	}
	_, err := Compile("bank_tree", cfg)
	assert.Error(t, err)
}

func TestCompileSetStateRequiresKeyAndValueExpr(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{Action: &config.ActionConfig{Kind: "SetState", ValueExpr: &config.ExprConfig{Kind: "literal", Value: 1}}},
	}
	_, err := Compile("bank_tree", cfg)
	assert.Error(t, err, "missing key should fail")

	cfg.Root.Action.Key = "flag"
	tree, err := Compile("bank_tree", cfg)
	require.NoError(t, err)

	act, err := tree.Evaluate(Context{})
	require.NoError(t, err)
	assert.Equal(t, ActionSetState, act.Kind)
	assert.Equal(t, "flag", act.Key)
}

func TestCompileSplitRequiresNOrWeights(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{Action: &config.ActionConfig{Kind: "Split"}},
	}
	_, err := Compile("payment_tree", cfg)
	assert.Error(t, err)

	cfg.Root.Action.NExpr = &config.ExprConfig{Kind: "literal", Value: 4}
	tree, err := Compile("payment_tree", cfg)
	require.NoError(t, err)

	act, err := tree.Evaluate(Context{})
	require.NoError(t, err)
	assert.Equal(t, ActionSplit, act.Kind)
	require.NotNil(t, act.NExpr)
}

func TestCompileSplitByWeights(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{
			Action: &config.ActionConfig{
				Kind: "Split",
				WeightsExpr: []config.ExprConfig{
					{Kind: "literal", Value: 1},
					{Kind: "literal", Value: 3},
				},
			},
		},
	}
	tree, err := Compile("payment_tree", cfg)
	require.NoError(t, err)

	act, err := tree.Evaluate(Context{})
	require.NoError(t, err)
	assert.Len(t, act.WeightsExpr, 2)
}

func TestCompileUnrecognizedActionKind(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{Action: &config.ActionConfig{Kind: "DoSomethingMade Up"}},
	}
	_, err := Compile("payment_tree", cfg)
	assert.Error(t, err)
}

func TestCompileOperatorArityValidation(t *testing.T) {
	cfg := config.PolicyTreeConfig{
		Root: &config.NodeConfig{
			Condition: &config.ExprConfig{
				Kind: "op", Op: "+",
				Args: []config.ExprConfig{{Kind: "literal", Value: 1}},
			},
			Action: nil,
		},
	}
	_, err := Compile("payment_tree", cfg)
	assert.Error(t, err)
}

func TestCompileNodeMissingActionAndCondition(t *testing.T) {
	cfg := config.PolicyTreeConfig{Root: &config.NodeConfig{}}
	_, err := Compile("payment_tree", cfg)
	assert.Error(t, err)
}

func TestCompileNilRootIsValid(t *testing.T) {
	tree, err := Compile("payment_tree", config.PolicyTreeConfig{})
	require.NoError(t, err)

	act, err := tree.Evaluate(Context{})
	require.NoError(t, err)
	assert.Equal(t, NoOp, act)
}
