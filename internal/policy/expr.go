package policy

import "math"

// Op is an operator over Expr operands (spec.md §4.3).
type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMin Op = "min"
	OpMax Op = "max"
	OpAbs Op = "abs"

	OpEq  Op = "=="
	OpNeq Op = "!="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="

	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"

	OpIfThenElse Op = "if"
)

// Expr is a node in a policy expression tree (spec.md §4.3): a literal, a
// field reference, a parameter reference, or an operator over child
// expressions. Expressions are pure: evaluating one never mutates Context.
type Expr interface {
	Eval(ctx Context, params map[string]float64) (float64, error)
}

// Literal is a constant numeric value.
type Literal float64

func (l Literal) Eval(Context, map[string]float64) (float64, error) {
	return float64(l), nil
}

// Field references a named evaluation-context field (spec.md §4.3's
// enumerated bank-level and transaction-level fields).
type Field string

func (f Field) Eval(ctx Context, _ map[string]float64) (float64, error) {
	v, ok := ctx[string(f)]
	if !ok {
		return 0, &UnknownFieldError{Field: string(f)}
	}
	return v, nil
}

// Param references a value from the policy's own named parameter map.
type Param string

func (p Param) Eval(_ Context, params map[string]float64) (float64, error) {
	v, ok := params[string(p)]
	if !ok {
		return 0, &UnknownParamError{Param: string(p)}
	}
	return v, nil
}

// UnaryExpr applies a unary operator (abs, not) to one operand.
type UnaryExpr struct {
	Op Op
	X  Expr
}

func (u UnaryExpr) Eval(ctx Context, params map[string]float64) (float64, error) {
	x, err := u.X.Eval(ctx, params)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case OpAbs:
		return math.Abs(x), nil
	case OpNot:
		return boolToFloat(x == 0), nil
	default:
		return 0, &UnknownFieldError{Field: string(u.Op)}
	}
}

// BinaryExpr applies a binary or comparison operator to two operands.
// Division by zero yields 0.0, per spec.md §4.3.
type BinaryExpr struct {
	Op   Op
	X, Y Expr
}

func (b BinaryExpr) Eval(ctx Context, params map[string]float64) (float64, error) {
	x, err := b.X.Eval(ctx, params)
	if err != nil {
		return 0, err
	}
	y, err := b.Y.Eval(ctx, params)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case OpAdd:
		return x + y, nil
	case OpSub:
		return x - y, nil
	case OpMul:
		return x * y, nil
	case OpDiv:
		if y == 0 {
			return 0, nil
		}
		return x / y, nil
	case OpMin:
		return math.Min(x, y), nil
	case OpMax:
		return math.Max(x, y), nil
	case OpEq:
		return boolToFloat(x == y), nil
	case OpNeq:
		return boolToFloat(x != y), nil
	case OpLt:
		return boolToFloat(x < y), nil
	case OpLte:
		return boolToFloat(x <= y), nil
	case OpGt:
		return boolToFloat(x > y), nil
	case OpGte:
		return boolToFloat(x >= y), nil
	case OpAnd:
		return boolToFloat(x != 0 && y != 0), nil
	case OpOr:
		return boolToFloat(x != 0 || y != 0), nil
	default:
		return 0, &UnknownFieldError{Field: string(b.Op)}
	}
}

// IfThenElseExpr evaluates Cond and returns Then's value if truthy
// (non-zero), else Else's value.
type IfThenElseExpr struct {
	Cond, Then, Else Expr
}

func (i IfThenElseExpr) Eval(ctx Context, params map[string]float64) (float64, error) {
	c, err := i.Cond.Eval(ctx, params)
	if err != nil {
		return 0, err
	}
	if c != 0 {
		return i.Then.Eval(ctx, params)
	}
	return i.Else.Eval(ctx, params)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

// UnknownFieldError reports a Field reference with no entry in the
// evaluation context.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return "unknown field: " + e.Field
}

// UnknownParamError reports a Param reference with no entry in the
// policy's parameter map.
type UnknownParamError struct {
	Param string
}

func (e *UnknownParamError) Error() string {
	return "unknown parameter: " + e.Param
}
