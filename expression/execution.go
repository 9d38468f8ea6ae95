package expression

import (
	"sql-explain/errcode"
	"sql-explain/rows"
)

// Binding supplies column values while evaluating an expression on a row.
type Binding interface {
	Lookup(id ColumnID) (interface{}, bool)
}

// MapBinding is a Binding over a plain map.
type MapBinding map[ColumnID]interface{}

func (m MapBinding) Lookup(id ColumnID) (interface{}, bool) {
	v, ok := m[id]
	return v, ok
}

// Eval computes expr for one row. NULL is represented by nil.
func Eval(expr Expression, b Binding) (interface{}, error) {
	switch t := expr.(type) {
	case *ColumnRef:
		v, ok := b.Lookup(t.ID)
		if !ok {
			return nil, errcode.AssertionFailedf("column #%d is not bound", t.ID)
		}
		return v, nil
	case *Literal:
		return t.Value, nil
	case *Cast:
		v, err := Eval(t.Child, b)
		if err != nil {
			return nil, err
		}
		return castValue(v, t.Target)
	case *FunctionCall:
		fn, err := LookupFunction(t.Name)
		if err != nil {
			return nil, err
		}
		if fn.Kind == Aggregate {
			return nil, errcode.AssertionFailedf("aggregate %s evaluated as a scalar", t.Name)
		}
		switch t.Name {
		case "and", "or", "if":
			return evalShortCircuit(t, b)
		}
		values := make([]interface{}, len(t.Args))
		types := make([]rows.DataType, len(t.Args))
		for i, arg := range t.Args {
			if values[i], err = Eval(arg, b); err != nil {
				return nil, err
			}
			types[i] = arg.DataType()
		}
		return invoke(fn, types, values)
	}
	panic("unknown expression variant")
}

// evalShortCircuit evaluates AND/OR left to right and stops at the first
// operand that decides the result. if evaluates only the selected branch.
func evalShortCircuit(f *FunctionCall, b Binding) (interface{}, error) {
	if f.Name == "if" {
		cond, err := Eval(f.Args[0], b)
		if err != nil {
			return nil, err
		}
		branch := f.Args[2]
		if c, ok := cond.(bool); ok && c {
			branch = f.Args[1]
		}
		v, err := Eval(branch, b)
		if err != nil {
			return nil, err
		}
		return castValue(v, f.ReturnType)
	}
	absorbing := f.Name == "or"
	hasNull := false
	for _, arg := range f.Args {
		v, err := Eval(arg, b)
		if err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case nil:
			hasNull = true
		case bool:
			if x == absorbing {
				return absorbing, nil
			}
		default:
			return nil, illegalArgs(f.Name, []rows.DataType{arg.DataType()})
		}
	}
	if hasNull {
		return nil, nil
	}
	return !absorbing, nil
}

// EvalPredicate evaluates a boolean expression with WHERE semantics: NULL is
// false.
func EvalPredicate(expr Expression, b Binding) (bool, error) {
	v, err := Eval(expr, b)
	if err != nil {
		return false, err
	}
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	}
	return false, errcode.Newf(errcode.IllegalDataType, "predicate %s is not boolean", expr.Print())
}
