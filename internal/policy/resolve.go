package policy

import (
	"rtgssim/pkg/domain"
	coreerrors "rtgssim/pkg/errors"
)

// ResolveAmount evaluates an amount_expr to a Cents value, rounding
// half-away-from-zero (spec.md §4.1). A negative result is clamped to 0
// and reported as a PolicyEvaluationError, per spec.md §4.3 ("negative
// amount from expression" is a clamp-or-skip case, never fatal).
func ResolveAmount(agentID, treeKind string, expr Expr, ctx Context, params map[string]float64) (domain.Cents, error) {
	if expr == nil {
		return 0, nil
	}
	v, err := expr.Eval(ctx, params)
	if err != nil {
		return 0, coreerrors.NewPolicyEvaluationError(agentID, treeKind, "%s", err.Error())
	}
	amount := domain.RoundCents(v)
	if amount < 0 {
		return 0, coreerrors.NewPolicyEvaluationError(agentID, treeKind, "amount expression evaluated negative (%d cents), clamped to 0", amount)
	}
	return amount, nil
}

// ResolvePriority evaluates new_priority_expr to an integer priority,
// clamping to [0,10] (spec.md §4.4 "cap 10"; floor of 0 is implied by the
// priority band range).
func ResolvePriority(agentID, treeKind string, expr Expr, ctx Context, params map[string]float64) (int, error) {
	if expr == nil {
		return 0, nil
	}
	v, err := expr.Eval(ctx, params)
	if err != nil {
		return 0, coreerrors.NewPolicyEvaluationError(agentID, treeKind, "%s", err.Error())
	}
	p := int(v + 0.5)
	if p > 10 {
		return 10, coreerrors.NewPolicyEvaluationError(agentID, treeKind, "priority expression evaluated above 10 (%d), clamped", p)
	}
	if p < 0 {
		return 0, coreerrors.NewPolicyEvaluationError(agentID, treeKind, "priority expression evaluated below 0 (%d), clamped", p)
	}
	return p, nil
}

// ResolveSplitCount evaluates n_expr to a split count ≥ 2. A value < 2 is
// a misconfigured Split action: it is rejected with a PolicyEvaluationError
// rather than silently producing a single child.
func ResolveSplitCount(agentID, treeKind string, expr Expr, ctx Context, params map[string]float64) (int, error) {
	v, err := expr.Eval(ctx, params)
	if err != nil {
		return 0, coreerrors.NewPolicyEvaluationError(agentID, treeKind, "%s", err.Error())
	}
	n := int(v + 0.5)
	if n < 2 {
		return 0, coreerrors.NewPolicyEvaluationError(agentID, treeKind, "split count expression evaluated below 2 (%d)", n)
	}
	return n, nil
}
