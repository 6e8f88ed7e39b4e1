package policy

import (
	"fmt"

	"rtgssim/pkg/config"
)

// Compile builds an executable Tree from its serialized config form
// (spec.md §4.3, §9: "policy trees ... built at config load"). kind
// labels which of the four trees this is, purely for diagnostics.
func Compile(kind string, cfg config.PolicyTreeConfig) (*Tree, error) {
	root, err := compileNode(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	params := cfg.Params
	if params == nil {
		params = map[string]float64{}
	}
	return &Tree{TreeKind: kind, Root: root, Params: params}, nil
}

func compileNode(n *config.NodeConfig) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	if n.Action != nil {
		act, err := compileAction(n.Action)
		if err != nil {
			return nil, err
		}
		return Leaf(act), nil
	}
	if n.Condition == nil {
		return nil, fmt.Errorf("node has neither action nor condition")
	}
	expr, err := compileExpr(n.Condition)
	if err != nil {
		return nil, err
	}
	trueBranch, err := compileNode(n.True)
	if err != nil {
		return nil, err
	}
	falseBranch, err := compileNode(n.False)
	if err != nil {
		return nil, err
	}
	return Cond(expr, trueBranch, falseBranch), nil
}

func compileExpr(e *config.ExprConfig) (Expr, error) {
	if e == nil {
		return nil, fmt.Errorf("expression must not be empty")
	}
	switch e.Kind {
	case "literal":
		return Literal(e.Value), nil
	case "field":
		return Field(e.Field), nil
	case "param":
		return Param(e.Param), nil
	case "op":
		return compileOp(Op(e.Op), e.Args)
	default:
		return nil, fmt.Errorf("unrecognized expression kind %q", e.Kind)
	}
}

func compileOp(op Op, args []config.ExprConfig) (Expr, error) {
	switch op {
	case OpAbs, OpNot:
		if len(args) != 1 {
			return nil, fmt.Errorf("operator %q takes exactly 1 argument, got %d", op, len(args))
		}
		x, err := compileExpr(&args[0])
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: op, X: x}, nil
	case OpIfThenElse:
		if len(args) != 3 {
			return nil, fmt.Errorf("operator %q takes exactly 3 arguments, got %d", op, len(args))
		}
		cond, err := compileExpr(&args[0])
		if err != nil {
			return nil, err
		}
		then, err := compileExpr(&args[1])
		if err != nil {
			return nil, err
		}
		els, err := compileExpr(&args[2])
		if err != nil {
			return nil, err
		}
		return IfThenElseExpr{Cond: cond, Then: then, Else: els}, nil
	case OpAdd, OpSub, OpMul, OpDiv, OpMin, OpMax, OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpAnd, OpOr:
		if len(args) != 2 {
			return nil, fmt.Errorf("operator %q takes exactly 2 arguments, got %d", op, len(args))
		}
		x, err := compileExpr(&args[0])
		if err != nil {
			return nil, err
		}
		y, err := compileExpr(&args[1])
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: op, X: x, Y: y}, nil
	default:
		return nil, fmt.Errorf("unrecognized operator %q", op)
	}
}

func compileAction(a *config.ActionConfig) (Action, error) {
	switch ActionKind(a.Kind) {
	case ActionNoOp, ActionHold, ActionSubmitFull, ActionDropIfOverdue:
		return Action{Kind: ActionKind(a.Kind)}, nil
	case ActionSetReleaseBudget, ActionPostCollateral, ActionWithdrawCollateral, ActionSubmitPartial:
		expr, err := compileExpr(a.AmountExpr)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionKind(a.Kind), AmountExpr: expr}, nil
	case ActionSetState, ActionAddState:
		if a.Key == "" {
			return Action{}, fmt.Errorf("%s action requires a key", a.Kind)
		}
		expr, err := compileExpr(a.ValueExpr)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionKind(a.Kind), Key: a.Key, ValueExpr: expr}, nil
	case ActionReprioritize:
		expr, err := compileExpr(a.NewPriorityExpr)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: ActionKind(a.Kind), NewPriorityExpr: expr}, nil
	case ActionSplit:
		act := Action{Kind: ActionKind(a.Kind), SubmitAfterSplit: a.SubmitAfterSplit}
		if a.NExpr != nil {
			expr, err := compileExpr(a.NExpr)
			if err != nil {
				return Action{}, err
			}
			act.NExpr = expr
		}
		for i := range a.WeightsExpr {
			expr, err := compileExpr(&a.WeightsExpr[i])
			if err != nil {
				return Action{}, err
			}
			act.WeightsExpr = append(act.WeightsExpr, expr)
		}
		if act.NExpr == nil && len(act.WeightsExpr) == 0 {
			return Action{}, fmt.Errorf("split action requires n_expr or weights_expr")
		}
		return act, nil
	default:
		return Action{}, fmt.Errorf("unrecognized action kind %q", a.Kind)
	}
}
