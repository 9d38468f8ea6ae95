package expression

import (
	"sql-explain/rows"
)

// ColumnID identifies an output column across the whole plan. It is assigned
// once, when the column is produced, and never reused.
type ColumnID int

// Expression is a closed set of variants: *ColumnRef, *Literal, *FunctionCall
// and *Cast. Consumers switch over them exhaustively.
type Expression interface {
	Print() string
	DataType() rows.DataType
	GetChildren() []*Expression // 使用指针，让 Transform 可以替换子节点
	isExpression()
}

type (
	ColumnRef struct {
		ID        ColumnID
		Qualifier string // 表名或别名，只用于展示
		Name      string
		Type      rows.DataType
	}

	Literal struct {
		Value interface{} // bool, int64, uint64, float64, string or nil
		Type  rows.DataType
	}

	FunctionCall struct {
		Name       string
		Args       []Expression
		ReturnType rows.DataType
	}

	Cast struct {
		Child  Expression
		Target rows.DataType
	}
)

func (*ColumnRef) isExpression()    {}
func (*Literal) isExpression()      {}
func (*FunctionCall) isExpression() {}
func (*Cast) isExpression()         {}

func (c *ColumnRef) DataType() rows.DataType    { return c.Type }
func (l *Literal) DataType() rows.DataType      { return l.Type }
func (f *FunctionCall) DataType() rows.DataType { return f.ReturnType }
func (c *Cast) DataType() rows.DataType         { return c.Target }

func (c *ColumnRef) GetChildren() []*Expression { return []*Expression{} }
func (l *Literal) GetChildren() []*Expression   { return []*Expression{} }
func (c *Cast) GetChildren() []*Expression      { return []*Expression{&c.Child} }

func (f *FunctionCall) GetChildren() []*Expression {
	result := make([]*Expression, 0, len(f.Args))
	for i := range f.Args {
		result = append(result, &f.Args[i])
	}
	return result
}

// NewLiteral infers the literal type from the Go value.
func NewLiteral(v interface{}) *Literal {
	switch actual := v.(type) {
	case nil:
		return &Literal{Type: rows.Null}
	case bool:
		return &Literal{Value: actual, Type: rows.Boolean}
	case int:
		return &Literal{Value: int64(actual), Type: rows.Int64}
	case int64:
		return &Literal{Value: actual, Type: rows.Int64}
	case uint64:
		return &Literal{Value: actual, Type: rows.UInt64}
	case float64:
		return &Literal{Value: actual, Type: rows.Float64}
	case string:
		return &Literal{Value: actual, Type: rows.String}
	}
	panic("unsupported literal value")
}

func True() *Literal  { return &Literal{Value: true, Type: rows.Boolean} }
func False() *Literal { return &Literal{Value: false, Type: rows.Boolean} }
func Null() *Literal  { return &Literal{Type: rows.Null} }

func (l *Literal) IsNull() bool { return l.Value == nil }

func (l *Literal) IsTrue() bool {
	b, ok := l.Value.(bool)
	return ok && b
}

func (l *Literal) IsFalse() bool {
	b, ok := l.Value.(bool)
	return ok && !b
}

// Equal reports structural equality. Column references are compared by id
// only, their display names are irrelevant.
func Equal(a, b Expression) bool {
	switch x := a.(type) {
	case *ColumnRef:
		y, ok := b.(*ColumnRef)
		return ok && x.ID == y.ID
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Type == y.Type && x.Value == y.Value
	case *Cast:
		y, ok := b.(*Cast)
		return ok && x.Target == y.Target && Equal(x.Child, y.Child)
	case *FunctionCall:
		y, ok := b.(*FunctionCall)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	panic("unknown expression variant")
}

// Contains reports whether list holds an expression structurally equal to e.
func Contains(list []Expression, e Expression) bool {
	for _, item := range list {
		if Equal(item, e) {
			return true
		}
	}
	return false
}

// Walk visits expr in pre-order until fn returns false.
func Walk(expr Expression, fn func(Expression) bool) {
	if !fn(expr) {
		return
	}
	for _, child := range expr.GetChildren() {
		Walk(*child, fn)
	}
}

// UsedColumns returns the ids referenced by expr in order of first appearance.
func UsedColumns(exprs ...Expression) []ColumnID {
	var result []ColumnID
	seen := make(map[ColumnID]bool)
	for _, expr := range exprs {
		Walk(expr, func(e Expression) bool {
			if ref, ok := e.(*ColumnRef); ok && !seen[ref.ID] {
				seen[ref.ID] = true
				result = append(result, ref.ID)
			}
			return true
		})
	}
	return result
}

// IsConstant reports whether expr references no column.
func IsConstant(expr Expression) bool {
	return len(UsedColumns(expr)) == 0
}

// Transform rewrites expr bottom-up. Nodes are copied before their children
// are replaced, so the input tree is never modified and may be shared.
func Transform(expr Expression, fn func(Expression) (Expression, error)) (Expression, error) {
	expr = shallowCopy(expr)
	for _, child := range expr.GetChildren() {
		c, err := Transform(*child, fn)
		if err != nil {
			return nil, err
		}
		*child = c
	}
	return fn(expr)
}

func shallowCopy(expr Expression) Expression {
	switch t := expr.(type) {
	case *ColumnRef:
		c := *t
		return &c
	case *Literal:
		c := *t
		return &c
	case *Cast:
		c := *t
		return &c
	case *FunctionCall:
		c := *t
		c.Args = append([]Expression(nil), t.Args...)
		return &c
	}
	panic("unknown expression variant")
}

// SplitConjunctions flattens nested AND calls into a list of conjuncts.
func SplitConjunctions(expr Expression) []Expression {
	if f, ok := expr.(*FunctionCall); ok && f.Name == "and" {
		var result []Expression
		for _, arg := range f.Args {
			result = append(result, SplitConjunctions(arg)...)
		}
		return result
	}
	return []Expression{expr}
}

// StripCasts returns the innermost non-cast expression.
func StripCasts(expr Expression) Expression {
	for {
		c, ok := expr.(*Cast)
		if !ok {
			return expr
		}
		expr = c.Child
	}
}
