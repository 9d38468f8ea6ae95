package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-explain/config"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/source"
	"sql-explain/util/pointer"
)

func memoryTable(t *testing.T, filter string) source.Source {
	s, err := source.NewMemory(config.TableConf{
		Name:     "t",
		Database: "default",
		Columns:  []config.ColumnConf{{Name: "a", Type: "bigint"}, {Name: "b", Type: "bigint"}},
		Rows: [][]interface{}{
			{1, 1}, {2, 1}, {3, nil}, {4, 2}, {5, 2},
			{6, 1}, {7, 1}, {8, 2}, {9, nil}, {10, 1},
		},
		FilterPushDown: filter,
	})
	require.NoError(t, err)
	return s
}

func estimator() *Estimator {
	return NewEstimator(config.Default().Estimator)
}

func ref(t *testing.T, md *plan.Metadata, id plan.ColumnID) expression.Expression {
	r, err := md.ColumnRef(id)
	require.NoError(t, err)
	return r
}

func TestFilterSelectivity(t *testing.T) {
	md := plan.NewMetadata()
	scan := plan.NewScan(md, source.NewNumbers(1, 65536), "")
	number := ref(t, md, 0)
	eq := func(v uint64) expression.Expression {
		return expression.MustFunction("eq", number, expression.NewLiteral(v))
	}
	cases := []struct {
		preds []expression.Expression
		want  float64
	}{
		{[]expression.Expression{expression.True()}, 1},
		{[]expression.Expression{expression.False()}, 0},
		{[]expression.Expression{expression.Null()}, 0},
		{[]expression.Expression{eq(1)}, 1.0 / 3},
		{[]expression.Expression{eq(1), eq(2)}, 1.0 / 9},
		{[]expression.Expression{expression.MustFunction("noteq", number, expression.NewLiteral(uint64(1)))}, 2.0 / 3},
		{[]expression.Expression{expression.MustFunction("or", eq(1), eq(2))}, 1.0/3 + 1.0/3 - 1.0/9},
		{[]expression.Expression{expression.MustFunction("not", eq(1))}, 2.0 / 3},
		{[]expression.Expression{expression.MustFunction("is_null", number)}, 0.01},
	}
	for _, c := range cases {
		filter := &plan.Filter{Predicates: c.preds, Child: plan.Clone(scan)}
		estimator().Annotate(&plan.Query{Root: filter, Metadata: md})
		assert.InDelta(t, c.want, filter.EstimatedRows(), 1e-9, expression.PrintList(c.preds))
		assert.Equal(t, 1.0, filter.Child.EstimatedRows())
	}
}

func TestStatisticsFromSource(t *testing.T) {
	md := plan.NewMetadata()
	scan := plan.NewScan(md, memoryTable(t, "none"), "")
	a, b := ref(t, md, 0), ref(t, md, 1)

	filter := &plan.Filter{Predicates: []expression.Expression{
		expression.MustFunction("eq", a, expression.NewLiteral(int64(3))),
	}, Child: scan}
	estimator().Annotate(&plan.Query{Root: filter, Metadata: md})
	assert.InDelta(t, 1, filter.EstimatedRows(), 1e-9)

	filter.Predicates = []expression.Expression{expression.MustFunction("is_null", b)}
	estimator().Annotate(&plan.Query{Root: filter, Metadata: md})
	assert.InDelta(t, 2, filter.EstimatedRows(), 1e-9)

	agg := &plan.Aggregate{GroupBy: []plan.ColumnID{1}, Child: scan}
	estimator().Annotate(&plan.Query{Root: agg, Metadata: md})
	assert.InDelta(t, 2, agg.EstimatedRows(), 1e-9)
}

func TestExactScanEstimate(t *testing.T) {
	md := plan.NewMetadata()
	scan := plan.NewScan(md, memoryTable(t, "exact"), "")
	a := ref(t, md, 0)
	scan.PushDown.Filters = []expression.Expression{expression.MustFunction("eq", a, expression.NewLiteral(int64(3)))}
	estimator().Annotate(&plan.Query{Root: scan, Metadata: md})
	assert.InDelta(t, 1, scan.EstimatedRows(), 1e-9)

	scan.PushDown.Filters = []expression.Expression{expression.False()}
	estimator().Annotate(&plan.Query{Root: scan, Metadata: md})
	assert.Equal(t, 0.0, scan.EstimatedRows())

	inexact := plan.NewScan(md, memoryTable(t, "inexact"), "")
	inexact.PushDown.Filters = []expression.Expression{expression.False()}
	estimator().Annotate(&plan.Query{Root: inexact, Metadata: md})
	assert.Equal(t, 10.0, inexact.EstimatedRows())
}

func TestOperatorEstimates(t *testing.T) {
	md := plan.NewMetadata()
	scan := plan.NewScan(md, source.NewNumbers(100, 65536), "")
	number := ref(t, md, 0)

	limit := plan.NewLimit(scan, pointer.Uint64(10), 95)
	estimator().Annotate(&plan.Query{Root: limit, Metadata: md})
	assert.Equal(t, 5.0, limit.EstimatedRows())

	limit = plan.NewLimit(plan.Clone(scan), nil, 200)
	estimator().Annotate(&plan.Query{Root: limit, Metadata: md})
	assert.Equal(t, 0.0, limit.EstimatedRows())

	scalar := &plan.Aggregate{Child: plan.Clone(scan)}
	estimator().Annotate(&plan.Query{Root: scalar, Metadata: md})
	assert.Equal(t, 1.0, scalar.EstimatedRows())

	grouped := &plan.Aggregate{GroupBy: []plan.ColumnID{0}, Child: plan.Clone(scan)}
	estimator().Annotate(&plan.Query{Root: grouped, Metadata: md})
	assert.InDelta(t, 10, grouped.EstimatedRows(), 1e-9)

	empty := &plan.Aggregate{GroupBy: []plan.ColumnID{0}, Child: &plan.Filter{Predicates: []expression.Expression{expression.False()}, Child: plan.Clone(scan)}}
	estimator().Annotate(&plan.Query{Root: empty, Metadata: md})
	assert.Equal(t, 0.0, empty.EstimatedRows())

	right := plan.NewScan(md, source.NewNumbers(10, 65536), "r")
	other := ref(t, md, 1)
	cross := &plan.Join{Kind: plan.CrossJoin, Left: plan.Clone(scan), Right: plan.Clone(right)}
	estimator().Annotate(&plan.Query{Root: cross, Metadata: md})
	assert.Equal(t, 1000.0, cross.EstimatedRows())

	inner := &plan.Join{Kind: plan.InnerJoin,
		LeftKeys: []expression.Expression{number}, RightKeys: []expression.Expression{other},
		Left: plan.Clone(scan), Right: plan.Clone(right)}
	estimator().Annotate(&plan.Query{Root: inner, Metadata: md})
	assert.InDelta(t, 1000.0/3, inner.EstimatedRows(), 1e-9)

	union := &plan.UnionAll{Left: plan.Clone(scan), Right: &plan.DummyTableScan{}}
	estimator().Annotate(&plan.Query{Root: union, Metadata: md})
	assert.Equal(t, 101.0, union.EstimatedRows())

	sort := &plan.Sort{Keys: []plan.SortKey{{ID: 0, Asc: true}}, Child: plan.Clone(scan)}
	estimator().Annotate(&plan.Query{Root: sort, Metadata: md})
	assert.Equal(t, 100.0, sort.EstimatedRows())
}
