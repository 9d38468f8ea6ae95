package expression

import (
	"sql-explain/errcode"
	"sql-explain/rows"
)

// Fold evaluates every sub-expression that references no column. Casts of
// literals become literals of the target type. AND and OR are simplified even
// when only some of their operands are constant. Operands that a constant
// AND, OR or if condition skips are not evaluated.
func Fold(expr Expression) (Expression, error) {
	expr = shallowCopy(expr)
	if f, ok := expr.(*FunctionCall); ok {
		switch f.Name {
		case "and":
			return foldShortCircuit(f, false)
		case "or":
			return foldShortCircuit(f, true)
		case "if":
			return foldIf(f)
		}
	}
	for _, child := range expr.GetChildren() {
		c, err := Fold(*child)
		if err != nil {
			return nil, err
		}
		*child = c
	}
	return foldNode(expr)
}

// foldShortCircuit folds the operands of AND/OR. An operand that folds to the
// absorbing value wins over an error in any other operand.
func foldShortCircuit(f *FunctionCall, absorbing bool) (Expression, error) {
	var firstErr error
	for i, arg := range f.Args {
		folded, err := Fold(arg)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if lit, ok := folded.(*Literal); ok {
			if b, ok := lit.Value.(bool); ok && b == absorbing {
				return &Literal{Value: absorbing, Type: rows.Boolean}, nil
			}
		}
		f.Args[i] = folded
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return foldConnective(f, absorbing)
}

// foldIf folds only the branch a constant condition selects.
func foldIf(f *FunctionCall) (Expression, error) {
	cond, err := Fold(f.Args[0])
	if err != nil {
		return nil, err
	}
	lit, ok := cond.(*Literal)
	if !ok {
		f.Args[0] = cond
		for i := 1; i < len(f.Args); i++ {
			if f.Args[i], err = Fold(f.Args[i]); err != nil {
				return nil, err
			}
		}
		return foldNode(f)
	}
	chosen := f.Args[2]
	if lit.IsTrue() {
		chosen = f.Args[1]
	}
	if chosen.DataType() != f.ReturnType {
		chosen = &Cast{Child: chosen, Target: f.ReturnType}
	}
	return Fold(chosen)
}

func foldNode(e Expression) (Expression, error) {
	switch t := e.(type) {
	case *ColumnRef, *Literal:
		return e, nil
	case *Cast:
		lit, ok := t.Child.(*Literal)
		if !ok {
			return e, nil
		}
		v, err := castValue(lit.Value, t.Target)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: v, Type: t.Target}, nil
	case *FunctionCall:
		return foldCall(t)
	}
	panic("unknown expression variant")
}

// foldConnective simplifies AND (absorbing == false) and OR (absorbing ==
// true): an absorbing literal decides the result, neutral literals are dropped.
func foldConnective(f *FunctionCall, absorbing bool) (Expression, error) {
	var rest []Expression
	for _, arg := range f.Args {
		lit, ok := arg.(*Literal)
		if !ok {
			rest = append(rest, arg)
			continue
		}
		if lit.IsNull() {
			rest = append(rest, arg)
			continue
		}
		b, ok := lit.Value.(bool)
		if !ok {
			return nil, illegalArgs(f.Name, []rows.DataType{lit.Type})
		}
		if b == absorbing {
			return &Literal{Value: absorbing, Type: rows.Boolean}, nil
		}
	}
	switch len(rest) {
	case 0:
		return &Literal{Value: !absorbing, Type: rows.Boolean}, nil
	case 1:
		if lit, ok := rest[0].(*Literal); ok && lit.IsNull() {
			return &Literal{Type: rows.Boolean}, nil
		}
		return rest[0], nil
	}
	for _, arg := range rest {
		if _, ok := arg.(*Literal); !ok {
			return &FunctionCall{Name: f.Name, Args: rest, ReturnType: f.ReturnType}, nil
		}
	}
	// NULL AND NULL, NULL OR NULL
	return &Literal{Type: rows.Boolean}, nil
}

func foldCall(f *FunctionCall) (Expression, error) {
	fn, err := LookupFunction(f.Name)
	if err != nil {
		return nil, err
	}
	if fn.Kind == Aggregate {
		return f, nil
	}
	values := make([]interface{}, len(f.Args))
	types := make([]rows.DataType, len(f.Args))
	for i, arg := range f.Args {
		lit, ok := arg.(*Literal)
		if !ok {
			return f, nil
		}
		if !valueMatches(lit.Value, lit.Type) {
			return nil, errcode.Newf(errcode.BadArguments, "%s: literal %s does not match type %s",
				f.Name, rows.FormatValue(lit.Value), lit.Type)
		}
		values[i] = lit.Value
		types[i] = lit.Type
	}
	v, err := invoke(fn, types, values)
	if err != nil {
		return nil, err
	}
	return &Literal{Value: v, Type: f.ReturnType}, nil
}

// invoke checks types against the signature, converts the values to the
// parameter types and calls the function. Shared by folding and row
// evaluation.
func invoke(fn *Function, types []rows.DataType, values []interface{}) (interface{}, error) {
	params, _, err := fn.Resolve(types)
	if err != nil {
		return nil, err
	}
	args := make([]interface{}, len(values))
	for i, v := range values {
		if v == nil {
			if !fn.PassNull {
				return nil, nil
			}
			continue
		}
		if args[i], err = castValue(v, params[i]); err != nil {
			return nil, err
		}
	}
	return fn.Eval(args)
}

// FoldPredicates folds a filter's predicate list and splits it into
// conjuncts. NULL counts as false. A list containing a false conjunct becomes
// exactly [false]; true conjuncts are dropped, and a list of nothing but true
// becomes exactly [true]. Duplicates are removed keeping the first one.
func FoldPredicates(preds []Expression) ([]Expression, error) {
	if len(preds) == 0 {
		return preds, nil
	}
	var result []Expression
	for _, pred := range preds {
		folded, err := Fold(pred)
		if err != nil {
			return nil, err
		}
		for _, conj := range SplitConjunctions(folded) {
			if lit, ok := conj.(*Literal); ok {
				if lit.IsNull() || lit.IsFalse() {
					return []Expression{False()}, nil
				}
				if lit.IsTrue() {
					continue
				}
			}
			if !Contains(result, conj) {
				result = append(result, conj)
			}
		}
	}
	if len(result) == 0 {
		return []Expression{True()}, nil
	}
	return result, nil
}

// IsFalsePredicates reports whether preds is the folded form of an
// unsatisfiable filter.
func IsFalsePredicates(preds []Expression) bool {
	if len(preds) != 1 {
		return false
	}
	lit, ok := preds[0].(*Literal)
	return ok && (lit.IsFalse() || lit.IsNull())
}
