package optimizer

import (
	"sql-explain/expression"
	"sql-explain/plan"
)

// pruneColumns walks the tree top-down with the set of columns the parent
// needs. Unneeded EvalScalar items and aggregate functions are dropped and
// scans read only the needed columns.
type pruneColumns struct{}

func (pruneColumns) Name() string { return "PruneColumns" }

func (pruneColumns) Apply(q *plan.Query) (plan.Plan, error) {
	required := plan.MakeColumnSet(q.Output...)
	if len(q.Output) == 0 {
		// 没有声明输出列时保留根节点的全部输出
		required = plan.OutputColumns(q.Root)
	}
	return prune(q.Root, required), nil
}

func usedColumns(exprs ...expression.Expression) plan.ColumnSet {
	return plan.MakeColumnSet(expression.UsedColumns(exprs...)...)
}

func prune(p plan.Plan, required plan.ColumnSet) plan.Plan {
	switch t := p.(type) {
	case *plan.TableScan:
		columns := usedColumns(t.PushDown.Filters...)
		for _, id := range t.TableColumns {
			if required.Contains(id) {
				columns.Add(id)
			}
		}
		if columns.Empty() && len(t.TableColumns) > 0 {
			// 至少读一列，否则无法知道行数
			columns.Add(t.TableColumns[0])
		}
		t.Columns = columns
		return t
	case *plan.DummyTableScan:
		return t
	case *plan.Filter:
		t.Child = prune(t.Child, required.Union(usedColumns(t.Predicates...)))
		return t
	case *plan.EvalScalar:
		var items []plan.ScalarItem
		childRequired := required.Copy()
		for _, item := range t.Items {
			if required.Contains(item.ID) {
				items = append(items, item)
				childRequired.UnionWith(usedColumns(item.Expr))
			}
		}
		child := prune(t.Child, childRequired)
		if len(items) == 0 {
			return child
		}
		t.Items = items
		t.Child = child
		return t
	case *plan.Limit:
		t.Child = prune(t.Child, required)
		return t
	case *plan.Sort:
		childRequired := required.Copy()
		for _, key := range t.Keys {
			childRequired.Add(key.ID)
		}
		t.Child = prune(t.Child, childRequired)
		return t
	case *plan.Aggregate:
		childRequired := plan.MakeColumnSet(t.GroupBy...)
		var functions []plan.AggregateFunction
		for _, f := range t.Functions {
			if required.Contains(f.ID) {
				functions = append(functions, f)
				childRequired.UnionWith(plan.MakeColumnSet(f.Args...))
			}
		}
		t.Functions = functions
		t.Child = prune(t.Child, childRequired)
		return t
	case *plan.Join:
		childRequired := required.Union(usedColumns(t.LeftKeys...)).
			Union(usedColumns(t.RightKeys...)).
			Union(usedColumns(t.Others...))
		t.Left = prune(t.Left, childRequired.Intersection(plan.OutputColumns(t.Left)))
		t.Right = prune(t.Right, childRequired.Intersection(plan.OutputColumns(t.Right)))
		return t
	case *plan.UnionAll:
		var pairs []plan.UnionPair
		for _, pair := range t.Pairs {
			if required.Contains(pair.Left) {
				pairs = append(pairs, pair)
			}
		}
		if len(pairs) == 0 && len(t.Pairs) > 0 {
			pairs = t.Pairs[:1]
		}
		var left, right plan.ColumnSet
		for _, pair := range pairs {
			left.Add(pair.Left)
			right.Add(pair.Right)
		}
		t.Pairs = pairs
		t.Left = prune(t.Left, left)
		t.Right = prune(t.Right, right)
		return t
	}
	panic("unknown plan variant")
}
