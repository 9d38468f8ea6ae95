package optimizer

import (
	"sql-explain/expression"
	"sql-explain/plan"
)

// foldExpressions folds constants in every expression of the tree. Filter
// predicates are split into conjuncts, see expression.FoldPredicates.
type foldExpressions struct{}

func (foldExpressions) Name() string { return "FoldExpressions" }

func (foldExpressions) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		var err error
		switch t := p.(type) {
		case *plan.Filter:
			t.Predicates, err = expression.FoldPredicates(t.Predicates)
		case *plan.TableScan:
			t.PushDown.Filters, err = expression.FoldPredicates(t.PushDown.Filters)
		case *plan.EvalScalar:
			for i := range t.Items {
				if t.Items[i].Expr, err = expression.Fold(t.Items[i].Expr); err != nil {
					return nil, err
				}
			}
		case *plan.Join:
			if t.LeftKeys, err = foldList(t.LeftKeys); err != nil {
				return nil, err
			}
			if t.RightKeys, err = foldList(t.RightKeys); err != nil {
				return nil, err
			}
			t.Others, err = expression.FoldPredicates(t.Others)
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

func foldList(exprs []expression.Expression) ([]expression.Expression, error) {
	result := make([]expression.Expression, len(exprs))
	for i, e := range exprs {
		folded, err := expression.Fold(e)
		if err != nil {
			return nil, err
		}
		result[i] = folded
	}
	return result, nil
}

// mergeFilters combines a Filter directly over another Filter.
type mergeFilters struct{}

func (mergeFilters) Name() string { return "MergeFilters" }

func (mergeFilters) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		upper, ok := p.(*plan.Filter)
		if !ok {
			return p, nil
		}
		lower, ok := upper.Child.(*plan.Filter)
		if !ok {
			return p, nil
		}
		preds := append(append([]expression.Expression(nil), lower.Predicates...), upper.Predicates...)
		merged, err := expression.FoldPredicates(preds)
		if err != nil {
			return nil, err
		}
		return &plan.Filter{Predicates: merged, Child: lower.Child}, nil
	})
}
