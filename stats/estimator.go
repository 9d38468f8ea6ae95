// Package stats annotates plans with estimated row counts.
package stats

import (
	"math"

	"sql-explain/config"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/source"
)

type columnStat struct {
	distinct     float64 // 0 表示未知
	nullFraction float64
	known        bool
}

type Estimator struct {
	conf config.EstimatorConf
}

func NewEstimator(conf config.EstimatorConf) *Estimator {
	return &Estimator{conf: conf}
}

// Annotate sets EstimatedRows on every node of q, children first.
func (e *Estimator) Annotate(q *plan.Query) {
	b := &builder{conf: e.conf, cols: make(map[plan.ColumnID]columnStat)}
	b.collect(q.Root)
	b.estimate(q.Root)
}

type builder struct {
	conf config.EstimatorConf
	cols map[plan.ColumnID]columnStat
}

// collect gathers the column statistics provided by the sources, and
// propagates them through EvalScalar items that only rename a column.
func (b *builder) collect(root plan.Plan) {
	plan.Walk(root, func(p plan.Plan) {
		scan, ok := p.(*plan.TableScan)
		if !ok {
			return
		}
		numRows := float64(scan.Source.NumRows())
		for i, id := range scan.TableColumns {
			s, ok := scan.Source.ColumnStatistics(i)
			if !ok {
				continue
			}
			stat := columnStat{distinct: s.DistinctCount, known: true}
			if numRows > 0 {
				stat.nullFraction = float64(s.NullCount) / numRows
			}
			b.cols[id] = stat
		}
	})
	plan.Walk(root, func(p plan.Plan) {
		eval, ok := p.(*plan.EvalScalar)
		if !ok {
			return
		}
		for _, item := range eval.Items {
			if ref, ok := expression.StripCasts(item.Expr).(*expression.ColumnRef); ok {
				if stat, ok := b.cols[ref.ID]; ok {
					b.cols[item.ID] = stat
				}
			}
		}
	})
}

func (b *builder) estimate(p plan.Plan) float64 {
	for _, child := range p.GetChildren() {
		b.estimate(*child)
	}
	var rows float64
	switch t := p.(type) {
	case *plan.TableScan:
		rows = float64(t.Source.NumRows())
		// 只有精确下推时，过滤后的行数才由 scan 自己体现
		if t.Source.Capabilities().Filter == source.Exact && len(t.PushDown.Filters) > 0 {
			rows = clamp(rows*b.conjunction(t.PushDown.Filters), 0, rows)
		}
	case *plan.DummyTableScan:
		rows = 1
	case *plan.Filter:
		child := t.Child.EstimatedRows()
		rows = clamp(child*b.conjunction(t.Predicates), 0, child)
	case *plan.EvalScalar:
		rows = t.Child.EstimatedRows()
	case *plan.Sort:
		rows = t.Child.EstimatedRows()
	case *plan.Limit:
		rows = math.Max(t.Child.EstimatedRows()-float64(t.Offset), 0)
		if t.Limit != nil {
			rows = math.Min(rows, float64(*t.Limit))
		}
	case *plan.Aggregate:
		rows = b.aggregateRows(t)
	case *plan.Join:
		rows = b.joinRows(t)
	case *plan.UnionAll:
		rows = t.Left.EstimatedRows() + t.Right.EstimatedRows()
	default:
		panic("unknown plan variant")
	}
	p.SetEstimatedRows(rows)
	return rows
}

func (b *builder) aggregateRows(a *plan.Aggregate) float64 {
	child := a.Child.EstimatedRows()
	// 没有分组的聚合总是返回一行
	if len(a.GroupBy) == 0 {
		return 1
	}
	groups := 1.0
	for _, id := range a.GroupBy {
		stat, ok := b.cols[id]
		if !ok || stat.distinct <= 0 {
			groups = child * b.conf.UnknownDistinctRatio
			break
		}
		groups *= stat.distinct
	}
	return clamp(groups, math.Min(1, child), child)
}

func (b *builder) joinRows(j *plan.Join) float64 {
	left, right := j.Left.EstimatedRows(), j.Right.EstimatedRows()
	rows := left * right
	if j.Kind != plan.CrossJoin {
		for i := range j.LeftKeys {
			ndv := math.Max(b.distinct(j.LeftKeys[i]), b.distinct(j.RightKeys[i]))
			if ndv > 0 {
				rows /= ndv
			} else {
				rows *= b.conf.DefaultSelectivity
			}
		}
		rows *= b.conjunction(j.Others)
	}
	if j.Kind == plan.LeftJoin {
		rows = math.Max(rows, left)
	}
	return rows
}

func (b *builder) distinct(e expression.Expression) float64 {
	if ref, ok := expression.StripCasts(e).(*expression.ColumnRef); ok {
		if stat, ok := b.cols[ref.ID]; ok {
			return stat.distinct
		}
	}
	return 0
}

// conjunction multiplies the selectivities of independent predicates.
func (b *builder) conjunction(preds []expression.Expression) float64 {
	sel := 1.0
	for _, p := range preds {
		sel *= b.selectivity(p)
	}
	return sel
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
