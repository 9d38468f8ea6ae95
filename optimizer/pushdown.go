package optimizer

import (
	"math"

	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/source"
	"sql-explain/util/pointer"
)

// splitPredicates 按 canPush 把谓词分成可以下推的和必须留在原处的两部分
func splitPredicates(preds []expression.Expression, canPush func(cols plan.ColumnSet) bool) (pushed, kept []expression.Expression) {
	for _, pred := range preds {
		if canPush(plan.MakeColumnSet(expression.UsedColumns(pred)...)) {
			pushed = append(pushed, pred)
		} else {
			kept = append(kept, pred)
		}
	}
	return pushed, kept
}

// withFilter puts preds above child. No Filter is created for an empty list.
func withFilter(child plan.Plan, preds []expression.Expression) plan.Plan {
	if len(preds) == 0 {
		return child
	}
	return &plan.Filter{Predicates: preds, Child: child}
}

// pushFilterThroughEvalScalar moves the conjuncts that do not use a column
// computed by the EvalScalar below it.
type pushFilterThroughEvalScalar struct{}

func (pushFilterThroughEvalScalar) Name() string { return "PushFilterThroughEvalScalar" }

func (pushFilterThroughEvalScalar) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		filter, ok := p.(*plan.Filter)
		if !ok {
			return p, nil
		}
		eval, ok := filter.Child.(*plan.EvalScalar)
		if !ok {
			return p, nil
		}
		var computed plan.ColumnSet
		for _, item := range eval.Items {
			computed.Add(item.ID)
		}
		pushed, kept := splitPredicates(filter.Predicates, func(cols plan.ColumnSet) bool {
			return !cols.Intersects(computed)
		})
		if len(pushed) == 0 {
			return p, nil
		}
		eval.Child = withFilter(eval.Child, pushed)
		return withFilter(eval, kept), nil
	})
}

type pushFilterThroughSort struct{}

func (pushFilterThroughSort) Name() string { return "PushFilterThroughSort" }

func (pushFilterThroughSort) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		filter, ok := p.(*plan.Filter)
		if !ok {
			return p, nil
		}
		sort, ok := filter.Child.(*plan.Sort)
		if !ok {
			return p, nil
		}
		sort.Child = withFilter(sort.Child, filter.Predicates)
		return sort, nil
	})
}

// pushFilterThroughJoin sends every conjunct to the side producing all of its
// columns. A left join only accepts conjuncts over its left side, filtering
// the right side would turn dropped matches into NULL rows.
type pushFilterThroughJoin struct{}

func (pushFilterThroughJoin) Name() string { return "PushFilterThroughJoin" }

func (pushFilterThroughJoin) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		filter, ok := p.(*plan.Filter)
		if !ok {
			return p, nil
		}
		join, ok := filter.Child.(*plan.Join)
		if !ok {
			return p, nil
		}
		left, right := plan.OutputColumns(join.Left), plan.OutputColumns(join.Right)
		toLeft, rest := splitPredicates(filter.Predicates, func(cols plan.ColumnSet) bool {
			return cols.SubsetOf(left)
		})
		var toRight, kept []expression.Expression
		if join.Kind == plan.LeftJoin {
			kept = rest
		} else {
			toRight, kept = splitPredicates(rest, func(cols plan.ColumnSet) bool {
				return cols.SubsetOf(right)
			})
		}
		if len(toLeft) == 0 && len(toRight) == 0 {
			return p, nil
		}
		join.Left = withFilter(join.Left, toLeft)
		join.Right = withFilter(join.Right, toRight)
		return withFilter(join, kept), nil
	})
}

// pushFilterThroughAggregate moves conjuncts over group keys below a grouped
// aggregate. A scalar aggregate returns one row even for empty input, so
// nothing passes it.
type pushFilterThroughAggregate struct{}

func (pushFilterThroughAggregate) Name() string { return "PushFilterThroughAggregate" }

func (pushFilterThroughAggregate) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		filter, ok := p.(*plan.Filter)
		if !ok {
			return p, nil
		}
		agg, ok := filter.Child.(*plan.Aggregate)
		if !ok || len(agg.GroupBy) == 0 {
			return p, nil
		}
		keys := plan.MakeColumnSet(agg.GroupBy...)
		pushed, kept := splitPredicates(filter.Predicates, func(cols plan.ColumnSet) bool {
			return cols.SubsetOf(keys)
		})
		if len(pushed) == 0 {
			return p, nil
		}
		agg.Child = withFilter(agg.Child, pushed)
		return withFilter(agg, kept), nil
	})
}

// pushFilterIntoScan hands the conjuncts of a Filter over a TableScan to the
// source. The Filter is only removed when the source applies them exactly.
type pushFilterIntoScan struct{}

func (pushFilterIntoScan) Name() string { return "PushFilterIntoScan" }

func (pushFilterIntoScan) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		filter, ok := p.(*plan.Filter)
		if !ok {
			return p, nil
		}
		scan, ok := filter.Child.(*plan.TableScan)
		if !ok {
			return p, nil
		}
		capability := scan.Source.Capabilities().Filter
		if capability == source.None || isTrueFilter(filter.Predicates) {
			return p, nil
		}
		for _, pred := range filter.Predicates {
			for _, id := range expression.UsedColumns(pred) {
				if !scan.Columns.Contains(id) {
					return nil, errcode.AssertionFailedf("cannot push %s into %s: column #%d is not read by the scan",
						pred.Print(), source.FullName(scan.Source), id)
				}
			}
		}
		filters := append(append([]expression.Expression(nil), scan.PushDown.Filters...), filter.Predicates...)
		filters, err := expression.FoldPredicates(filters)
		if err != nil {
			return nil, err
		}
		scan.PushDown.Filters = filters
		if capability == source.Exact {
			return scan, nil
		}
		return filter, nil
	})
}

func isTrueFilter(preds []expression.Expression) bool {
	if len(preds) != 1 {
		return false
	}
	lit, ok := preds[0].(*expression.Literal)
	return ok && lit.IsTrue()
}

// pushLimitIntoScan tells a source without pushed filters to stop after
// limit+offset rows. The Limit stays, the source only bounds the read.
type pushLimitIntoScan struct{}

func (pushLimitIntoScan) Name() string { return "PushLimitIntoScan" }

func (pushLimitIntoScan) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		limit, ok := p.(*plan.Limit)
		if !ok || limit.Limit == nil {
			return p, nil
		}
		child := limit.Child
		if eval, ok := child.(*plan.EvalScalar); ok {
			child = eval.Child
		}
		scan, ok := child.(*plan.TableScan)
		if !ok || len(scan.PushDown.Filters) > 0 || !scan.Source.Capabilities().Limit {
			return p, nil
		}
		n := *limit.Limit + limit.Offset
		if n < *limit.Limit {
			n = math.MaxUint64
		}
		if scan.PushDown.Limit == nil || n < *scan.PushDown.Limit {
			scan.PushDown.Limit = pointer.Uint64(n)
		}
		return p, nil
	})
}
