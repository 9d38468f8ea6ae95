package plan

import (
	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/rows"
	"sql-explain/source"
	"sql-explain/util/pointer"
)

type ColumnID = expression.ColumnID

// Plan is a closed set of relational operators. Every consumer switches over
// the variants and panics on an unknown one.
type Plan interface {
	GetChildren() []*Plan // 使用指针，让 Transform 可以替换子节点
	EstimatedRows() float64
	SetEstimatedRows(rows float64)
	isPlan()
}

type annotation struct {
	estimatedRows float64
}

func (a *annotation) EstimatedRows() float64 { return a.estimatedRows }

func (a *annotation) SetEstimatedRows(rows float64) {
	if rows < 0 {
		rows = 0
	}
	a.estimatedRows = rows
}

type (
	TableScan struct {
		annotation
		Source source.Source
		Alias  string
		// TableColumns 与 Source.Schema() 一一对应
		TableColumns []ColumnID
		Columns      ColumnSet // 实际读取的列
		PushDown     source.PushDownInfo
		Statistics   source.PartStatistics
	}

	// DummyTableScan produces one row without columns.
	DummyTableScan struct {
		annotation
	}

	Filter struct {
		annotation
		Predicates []expression.Expression
		Child      Plan
	}

	EvalScalar struct {
		annotation
		Items []ScalarItem
		Child Plan
	}

	Limit struct {
		annotation
		Limit  *uint64 // nil 表示没有限制
		Offset uint64
		Child  Plan
	}

	Sort struct {
		annotation
		Keys  []SortKey
		Child Plan
	}

	Aggregate struct {
		annotation
		GroupBy   []ColumnID
		Functions []AggregateFunction
		Child     Plan
	}

	Join struct {
		annotation
		Kind JoinKind
		// LeftKeys[i] = RightKeys[i]
		LeftKeys  []expression.Expression
		RightKeys []expression.Expression
		Others    []expression.Expression
		Left      Plan
		Right     Plan
	}

	// UnionAll outputs the left column of every pair.
	UnionAll struct {
		annotation
		Pairs []UnionPair
		Left  Plan
		Right Plan
	}
)

type ScalarItem struct {
	Expr expression.Expression
	ID   ColumnID
}

type SortKey struct {
	ID         ColumnID
	Asc        bool
	NullsFirst bool
}

type AggregateFunction struct {
	Func string
	Args []ColumnID
	ID   ColumnID
}

type UnionPair struct {
	Left, Right ColumnID
}

type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	CrossJoin
)

func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "INNER"
	case LeftJoin:
		return "LEFT OUTER"
	case CrossJoin:
		return "CROSS"
	}
	return "UNKNOWN"
}

func (*TableScan) isPlan()      {}
func (*DummyTableScan) isPlan() {}
func (*Filter) isPlan()         {}
func (*EvalScalar) isPlan()     {}
func (*Limit) isPlan()          {}
func (*Sort) isPlan()           {}
func (*Aggregate) isPlan()      {}
func (*Join) isPlan()           {}
func (*UnionAll) isPlan()       {}

func (s *TableScan) GetChildren() []*Plan      { return []*Plan{} }
func (d *DummyTableScan) GetChildren() []*Plan { return []*Plan{} }
func (f *Filter) GetChildren() []*Plan         { return []*Plan{&f.Child} }
func (e *EvalScalar) GetChildren() []*Plan     { return []*Plan{&e.Child} }
func (l *Limit) GetChildren() []*Plan          { return []*Plan{&l.Child} }
func (s *Sort) GetChildren() []*Plan           { return []*Plan{&s.Child} }
func (a *Aggregate) GetChildren() []*Plan      { return []*Plan{&a.Child} }
func (j *Join) GetChildren() []*Plan           { return []*Plan{&j.Left, &j.Right} }
func (u *UnionAll) GetChildren() []*Plan       { return []*Plan{&u.Left, &u.Right} }

// Transform rewrites plan bottom-up, replacing children in place. Only call
// it on a tree the caller owns, see Clone.
func Transform(plan Plan, fn func(p Plan) (Plan, error)) (Plan, error) {
	children := plan.GetChildren()
	for _, child := range children {
		c, err := Transform(*child, fn)
		if err != nil {
			return nil, err
		}
		*child = c
	}
	return fn(plan)
}

// Walk visits plan in pre-order.
func Walk(plan Plan, fn func(p Plan)) {
	fn(plan)
	for _, child := range plan.GetChildren() {
		Walk(*child, fn)
	}
}

// Clone deep-copies the tree. Expressions are immutable and shared.
func Clone(plan Plan) Plan {
	var c Plan
	switch t := plan.(type) {
	case *TableScan:
		n := *t
		n.TableColumns = append([]ColumnID(nil), t.TableColumns...)
		n.Columns = t.Columns.Copy()
		n.PushDown = t.PushDown.Clone()
		c = &n
	case *DummyTableScan:
		n := *t
		c = &n
	case *Filter:
		n := *t
		n.Predicates = append([]expression.Expression(nil), t.Predicates...)
		c = &n
	case *EvalScalar:
		n := *t
		n.Items = append([]ScalarItem(nil), t.Items...)
		c = &n
	case *Limit:
		n := *t
		n.Limit = pointer.CloneUint64(t.Limit)
		c = &n
	case *Sort:
		n := *t
		n.Keys = append([]SortKey(nil), t.Keys...)
		c = &n
	case *Aggregate:
		n := *t
		n.GroupBy = append([]ColumnID(nil), t.GroupBy...)
		n.Functions = make([]AggregateFunction, len(t.Functions))
		for i, f := range t.Functions {
			f.Args = append([]ColumnID(nil), f.Args...)
			n.Functions[i] = f
		}
		c = &n
	case *Join:
		n := *t
		n.LeftKeys = append([]expression.Expression(nil), t.LeftKeys...)
		n.RightKeys = append([]expression.Expression(nil), t.RightKeys...)
		n.Others = append([]expression.Expression(nil), t.Others...)
		c = &n
	case *UnionAll:
		n := *t
		n.Pairs = append([]UnionPair(nil), t.Pairs...)
		c = &n
	default:
		panic("unknown plan variant")
	}
	for _, child := range c.GetChildren() {
		*child = Clone(*child)
	}
	return c
}

// NewFilter checks that every predicate is boolean.
func NewFilter(child Plan, preds []expression.Expression) (*Filter, error) {
	for _, p := range preds {
		if t := p.DataType(); t != rows.Boolean && t != rows.Null {
			return nil, errcode.Newf(errcode.IllegalDataType, "filter predicate %s has type %s, want Boolean", p.Print(), t)
		}
	}
	return &Filter{Predicates: preds, Child: child}, nil
}

// NewEvalScalar checks that the item ids are unique and not produced by the
// child.
func NewEvalScalar(child Plan, items []ScalarItem) (*EvalScalar, error) {
	produced := OutputColumns(child)
	seen := make(map[ColumnID]bool)
	for _, item := range items {
		if seen[item.ID] || produced.Contains(item.ID) {
			return nil, errcode.AssertionFailedf("column #%d is defined twice", item.ID)
		}
		seen[item.ID] = true
	}
	return &EvalScalar{Items: items, Child: child}, nil
}

func NewLimit(child Plan, limit *uint64, offset uint64) *Limit {
	return &Limit{Limit: limit, Offset: offset, Child: child}
}
