package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-explain/config"
	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/rows"
	"sql-explain/source"
)

func parse(t *testing.T, text string) *plan.Query {
	q, err := Parse(text, catalog(t))
	require.NoError(t, err)
	return q
}

func catalog(t *testing.T) *source.Catalog {
	c, err := source.NewCatalog(config.Default())
	require.NoError(t, err)
	return c
}

func TestScanner(t *testing.T) {
	tokens, err := newScanner("filter t.a#0 <> 'x y', #1 >= 1.5 -- note", 3, 2).tokens()
	require.NoError(t, err)
	var types []tokenType
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []tokenType{_Name, _Name, _Hash, _IntLit, _Neq, _StringLit, _Comma, _Hash, _IntLit, _Geq, _FloatLit}, types)
	assert.Equal(t, "x y", tokens[5].Value)
	assert.Equal(t, pos{row: 3, col: 3}, tokens[0].pos)
	assert.Equal(t, pos{row: 3, col: 10}, tokens[1].pos)

	_, err = newScanner("filter 'x", 1, 0).tokens()
	assert.Equal(t, errcode.SemanticError, errcode.Of(err))
	_, err = newScanner("filter 1.", 1, 0).tokens()
	assert.Equal(t, errcode.SemanticError, errcode.Of(err))
	_, err = newScanner("filter ?", 1, 0).tokens()
	assert.Equal(t, errcode.SemanticError, errcode.Of(err))
}

func TestParse(t *testing.T) {
	q := parse(t, `
-- 计算列在 scan 之后分配 id
project #0, #1
filter numbers.number#0 = 1
  eval numbers.number#0 + 1 as b
    scan numbers(1)
`)
	assert.Equal(t, []plan.ColumnID{0, 1}, q.Output)
	filter := q.Root.(*plan.Filter)
	assert.Equal(t, "numbers.number (#0) = 1", expression.PrintList(filter.Predicates))
	eval := filter.Child.(*plan.EvalScalar)
	require.Len(t, eval.Items, 1)
	assert.Equal(t, plan.ColumnID(1), eval.Items[0].ID)
	assert.Equal(t, "numbers.number (#0) + 1", eval.Items[0].Expr.Print())
	c, ok := q.Metadata.Column(1)
	require.True(t, ok)
	assert.Equal(t, "b", c.DisplayName())
	assert.Equal(t, rows.UInt64, c.Type)
	assert.IsType(t, &plan.TableScan{}, eval.Child)
}

func TestProjectWithChild(t *testing.T) {
	q := parse(t, "project numbers.number#0\n\tscan numbers(2)")
	assert.Equal(t, []plan.ColumnID{0}, q.Output)
	assert.IsType(t, &plan.TableScan{}, q.Root)

	q = parse(t, "scan numbers(2)")
	assert.Nil(t, q.Output)
}

func TestExpressions(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"#0 + 1 * 2 = 3", "(numbers.number (#0) + (1 * 2)) = 3"},
		{"(#0 + 1) * 2 = 3", "((numbers.number (#0) + 1) * 2) = 3"},
		{"not #0 = 1 and #0 is not null", "(NOT (numbers.number (#0) = 1)) AND is_not_null(numbers.number (#0))"},
		{"#0 = 1 or #0 = 2 and true", "(numbers.number (#0) = 1) OR ((numbers.number (#0) = 2) AND true)"},
		{"#0 + 1 is null", "is_null(numbers.number (#0) + 1)"},
		{"cast(#0 as double) = pow(1, 1 + 1)", "to_float64(numbers.number (#0)) = pow(to_float64(1), to_float64(1 + 1))"},
		{"#0 = to_uint64('1')", "numbers.number (#0) = to_uint64('1')"},
		{"#0 <> 1", "numbers.number (#0) <> 1"},
		{"-1.5 < 2.5", "-1.5 < 2.5"},
		{"null", "NULL"},
	}
	for _, c := range cases {
		q := parse(t, "filter "+c.expr+"\n  scan numbers(1)")
		assert.Equal(t, c.want, expression.PrintList(q.Root.(*plan.Filter).Predicates), c.expr)
	}
}

func TestOperators(t *testing.T) {
	q := parse(t, `
limit 10 offset 2
  sort #0 desc nulls first, #2
    aggregate by #0 compute count() as c, sum(#0)
      scan numbers(3)
`)
	limit := q.Root.(*plan.Limit)
	assert.Equal(t, uint64(10), *limit.Limit)
	assert.Equal(t, uint64(2), limit.Offset)
	sort := limit.Child.(*plan.Sort)
	assert.Equal(t, []plan.SortKey{{ID: 0, Asc: false, NullsFirst: true}, {ID: 2, Asc: true}}, sort.Keys)
	agg := sort.Child.(*plan.Aggregate)
	assert.Equal(t, []plan.ColumnID{0}, agg.GroupBy)
	assert.Equal(t, []plan.AggregateFunction{
		{Func: "count", ID: 1},
		{Func: "sum", Args: []plan.ColumnID{0}, ID: 2},
	}, agg.Functions)
	sum, _ := q.Metadata.Column(2)
	assert.Equal(t, "sum(number)", sum.Name)
	assert.Equal(t, rows.UInt64, sum.Type)

	q = parse(t, "limit none offset 3\n  dummy")
	assert.Nil(t, q.Root.(*plan.Limit).Limit)
	assert.IsType(t, &plan.DummyTableScan{}, q.Root.(*plan.Limit).Child)
}

func TestJoinAndUnion(t *testing.T) {
	for _, cond := range []string{"l.number#0 = r.number#1", "r.number#1 = l.number#0"} {
		q := parse(t, "join inner on "+cond+", l.number#0 > 1\n  scan numbers(10) as l\n  scan numbers(5) as r")
		join := q.Root.(*plan.Join)
		assert.Equal(t, plan.InnerJoin, join.Kind)
		assert.Equal(t, "l.number (#0)", expression.PrintList(join.LeftKeys))
		assert.Equal(t, "r.number (#1)", expression.PrintList(join.RightKeys))
		assert.Equal(t, "l.number (#0) > 1", expression.PrintList(join.Others))
	}

	q := parse(t, "join cross\n  scan numbers(1) as a\n  scan numbers(1) as b")
	assert.Equal(t, plan.CrossJoin, q.Root.(*plan.Join).Kind)

	q = parse(t, "union\n  scan numbers(1) as a\n  scan numbers(2) as b")
	assert.Equal(t, []plan.UnionPair{{Left: 0, Right: 1}}, q.Root.(*plan.UnionAll).Pairs)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		text string
		code errcode.Code
	}{
		{"", errcode.SemanticError},
		{"frobnicate\n  scan numbers(1)", errcode.SemanticError},
		{"scan nowhere", errcode.UnknownTable},
		{"filter #5 = 1\n  scan numbers(1)", errcode.SemanticError},
		{"filter #0 = 1\n  scan numbers(1)\n  scan numbers(1)", errcode.SemanticError},
		{"scan numbers(1)\nscan numbers(1)", errcode.SemanticError},
		{"scan numbers(1)\n  dummy", errcode.SemanticError},
		{"filter foo(#0)\n  scan numbers(1)", errcode.UnknownFunction},
		{"filter #0 +\n  scan numbers(1)", errcode.SemanticError},
		{"filter #0 + 1\n  scan numbers(1)", errcode.IllegalDataType},
		{"filter (#0 = 1\n  scan numbers(1)", errcode.SemanticError},
		{"filter #0 = 'x\n  scan numbers(1)", errcode.SemanticError},
		{"filter cast(#0 as blob) = 1\n  scan numbers(1)", errcode.IllegalDataType},
		{"eval #0 + 1\n  scan numbers(1)", errcode.SemanticError},
		{"join cross on a.number#0 = b.number#1\n  scan numbers(1) as a\n  scan numbers(1) as b", errcode.SemanticError},
		{"join outer\n  scan numbers(1) as a\n  scan numbers(1) as b", errcode.SemanticError},
		{"aggregate compute median(#0)\n  scan numbers(1)", errcode.UnknownFunction},
		{"limit ten\n  scan numbers(1)", errcode.SemanticError},
		{"project #1\nscan numbers(1)", errcode.SemanticError},
		// 子节点不能引用兄弟节点的列
		{"join inner\n  scan numbers(1) as a\n  filter a.number#0 = 1\n    scan numbers(1) as b", errcode.SemanticError},
	}
	for _, c := range cases {
		_, err := Parse(c.text, catalog(t))
		require.Error(t, err, c.text)
		assert.Equal(t, c.code, errcode.Of(err), "%s: %v", c.text, err)
	}
}
