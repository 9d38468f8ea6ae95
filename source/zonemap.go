package source

import (
	"sql-explain/expression"
)

// 比较运算交换左右两边后对应的运算
var flipped = map[string]string{
	"eq":  "eq",
	"lt":  "gt",
	"lte": "gte",
	"gt":  "lt",
	"gte": "lte",
}

type columnComparison struct {
	column expression.ColumnID
	op     string
	value  *expression.Literal
}

// asColumnComparison recognizes `column <op> literal` and `literal <op>
// column`, the column possibly wrapped in casts.
func asColumnComparison(e expression.Expression) (columnComparison, bool) {
	f, ok := e.(*expression.FunctionCall)
	if !ok || len(f.Args) != 2 {
		return columnComparison{}, false
	}
	if _, ok := flipped[f.Name]; !ok {
		return columnComparison{}, false
	}
	if ref, ok := orderPreservingColumn(f.Args[0]); ok {
		if lit, ok := f.Args[1].(*expression.Literal); ok {
			return columnComparison{column: ref.ID, op: f.Name, value: lit}, true
		}
	}
	if ref, ok := orderPreservingColumn(f.Args[1]); ok {
		if lit, ok := f.Args[0].(*expression.Literal); ok {
			return columnComparison{column: ref.ID, op: flipped[f.Name], value: lit}, true
		}
	}
	return columnComparison{}, false
}

// orderPreservingColumn unwraps casts between numeric types, which keep the
// order of values. Any other cast hides the column.
func orderPreservingColumn(e expression.Expression) (*expression.ColumnRef, bool) {
	for {
		switch t := e.(type) {
		case *expression.ColumnRef:
			return t, true
		case *expression.Cast:
			if !t.Target.IsNumeric() || !t.Child.DataType().IsNumeric() {
				return nil, false
			}
			e = t.Child
		default:
			return nil, false
		}
	}
}

// mayMatch reports whether some value in [min, max] can satisfy the
// comparison. A partition with only NULLs in the column never matches.
func (c columnComparison) mayMatch(min, max interface{}) bool {
	if c.value.IsNull() || min == nil {
		return false
	}
	lo, err := expression.ConvertValue(min, c.value.Type)
	if err != nil {
		return true
	}
	hi, err := expression.ConvertValue(max, c.value.Type)
	if err != nil {
		return true
	}
	cmpLo, err := expression.CompareValues(c.value.Value, lo)
	if err != nil {
		return true
	}
	cmpHi, err := expression.CompareValues(c.value.Value, hi)
	if err != nil {
		return true
	}
	switch c.op {
	case "eq":
		return cmpLo >= 0 && cmpHi <= 0
	case "lt": // column < v
		return cmpLo > 0
	case "lte":
		return cmpLo >= 0
	case "gt":
		return cmpHi < 0
	case "gte":
		return cmpHi <= 0
	}
	return true
}
