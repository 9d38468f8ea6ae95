package expression

import (
	"math"
	"math/bits"
	"strings"

	"sql-explain/errcode"
	"sql-explain/rows"
)

type FunctionKind int

const (
	Scalar FunctionKind = iota
	Aggregate
)

// Function describes a built-in. Resolve checks the argument types and
// returns the parameter types the arguments have to be cast to, together with
// the return type.
type Function struct {
	Name    string
	Infix   string // 非空时以中缀运算符展示
	Kind    FunctionKind
	MinArgs int
	MaxArgs int // -1 表示可变参数
	// PassNull hands NULL arguments to Eval instead of returning NULL directly.
	PassNull bool
	Resolve  func(args []rows.DataType) (params []rows.DataType, ret rows.DataType, err error)
	Eval     func(args []interface{}) (interface{}, error)
}

var FuncMap = map[string]*Function{}

func register(fn *Function) {
	FuncMap[fn.Name] = fn
}

func init() {
	register(arithmetic("plus", "+", rows.UInt64, addInt64,
		func(a, b uint64) (interface{}, error) {
			sum, carry := bits.Add64(a, b, 0)
			if carry != 0 {
				return nil, errOverflow("plus")
			}
			return sum, nil
		},
		func(a, b float64) (float64, error) { return a + b, nil }))
	// 无符号相减的结果可能为负，返回 Int64
	register(arithmetic("minus", "-", rows.Int64, subInt64,
		func(a, b uint64) (interface{}, error) {
			if a >= b {
				if a-b > math.MaxInt64 {
					return nil, errOverflow("minus")
				}
				return int64(a - b), nil
			}
			if b-a > 1<<63 {
				return nil, errOverflow("minus")
			}
			return int64(-(b - a)), nil
		},
		func(a, b float64) (float64, error) { return a - b, nil }))
	register(arithmetic("multiply", "*", rows.UInt64, mulInt64,
		func(a, b uint64) (interface{}, error) {
			hi, lo := bits.Mul64(a, b)
			if hi != 0 {
				return nil, errOverflow("multiply")
			}
			return lo, nil
		},
		func(a, b float64) (float64, error) { return a * b, nil }))
	register(arithmetic("modulo", "%", rows.UInt64, func(a, b int64) (int64, error) {
		if b == 0 {
			return 0, errDivideByZero()
		}
		return a % b, nil
	}, func(a, b uint64) (interface{}, error) {
		if b == 0 {
			return nil, errDivideByZero()
		}
		return a % b, nil
	}, func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errDivideByZero()
		}
		return math.Mod(a, b), nil
	}))
	register(&Function{
		Name: "divide", Infix: "/", MinArgs: 2, MaxArgs: 2,
		Resolve: floatArgs("divide", 2),
		Eval: func(args []interface{}) (interface{}, error) {
			a, b := args[0].(float64), args[1].(float64)
			if b == 0 {
				return nil, errDivideByZero()
			}
			return a / b, nil
		},
	})

	register(comparison("eq", "=", func(c int) bool { return c == 0 }))
	register(comparison("noteq", "<>", func(c int) bool { return c != 0 }))
	register(comparison("lt", "<", func(c int) bool { return c < 0 }))
	register(comparison("lte", "<=", func(c int) bool { return c <= 0 }))
	register(comparison("gt", ">", func(c int) bool { return c > 0 }))
	register(comparison("gte", ">=", func(c int) bool { return c >= 0 }))

	register(&Function{
		Name: "and", Infix: "AND", MinArgs: 2, MaxArgs: 2, PassNull: true,
		Resolve: booleanArgs("and", 2),
		Eval: func(args []interface{}) (interface{}, error) {
			// false 优先，其次 null
			hasNull := false
			for _, arg := range args {
				if arg == nil {
					hasNull = true
				} else if !arg.(bool) {
					return false, nil
				}
			}
			if hasNull {
				return nil, nil
			}
			return true, nil
		},
	})
	register(&Function{
		Name: "or", Infix: "OR", MinArgs: 2, MaxArgs: 2, PassNull: true,
		Resolve: booleanArgs("or", 2),
		Eval: func(args []interface{}) (interface{}, error) {
			hasNull := false
			for _, arg := range args {
				if arg == nil {
					hasNull = true
				} else if arg.(bool) {
					return true, nil
				}
			}
			if hasNull {
				return nil, nil
			}
			return false, nil
		},
	})
	register(&Function{
		Name: "not", Infix: "NOT", MinArgs: 1, MaxArgs: 1,
		Resolve: booleanArgs("not", 1),
		Eval: func(args []interface{}) (interface{}, error) {
			return !args[0].(bool), nil
		},
	})
	register(&Function{
		Name: "is_null", MinArgs: 1, MaxArgs: 1, PassNull: true,
		Resolve: anyArg(rows.Boolean),
		Eval: func(args []interface{}) (interface{}, error) {
			return args[0] == nil, nil
		},
	})
	register(&Function{
		Name: "is_not_null", MinArgs: 1, MaxArgs: 1, PassNull: true,
		Resolve: anyArg(rows.Boolean),
		Eval: func(args []interface{}) (interface{}, error) {
			return args[0] != nil, nil
		},
	})

	register(&Function{
		Name: "pow", MinArgs: 2, MaxArgs: 2,
		Resolve: floatArgs("pow", 2),
		Eval: func(args []interface{}) (interface{}, error) {
			return math.Pow(args[0].(float64), args[1].(float64)), nil
		},
	})
	register(&Function{
		Name: "abs", MinArgs: 1, MaxArgs: 1,
		Resolve: func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
			t := args[0]
			if t == rows.Null {
				t = rows.Int64
			}
			if !t.IsNumeric() {
				return nil, 0, illegalArgs("abs", args)
			}
			return []rows.DataType{t}, t, nil
		},
		Eval: func(args []interface{}) (interface{}, error) {
			switch v := args[0].(type) {
			case int64:
				if v < 0 {
					return -v, nil
				}
				return v, nil
			case float64:
				return math.Abs(v), nil
			}
			return args[0], nil
		},
	})
	register(&Function{
		Name: "if", MinArgs: 3, MaxArgs: 3, PassNull: true,
		Resolve: func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
			if args[0] != rows.Boolean && args[0] != rows.Null {
				return nil, 0, illegalArgs("if", args)
			}
			t, ok := CommonSuperType(args[1], args[2])
			if !ok {
				return nil, 0, illegalArgs("if", args)
			}
			return []rows.DataType{rows.Boolean, t, t}, t, nil
		},
		Eval: func(args []interface{}) (interface{}, error) {
			if b, ok := args[0].(bool); ok && b {
				return args[1], nil
			}
			return args[2], nil
		},
	})
	register(&Function{
		Name: "concat", MinArgs: 1, MaxArgs: -1,
		Resolve: func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
			params := make([]rows.DataType, len(args))
			for i, t := range args {
				if t != rows.String && t != rows.Null {
					return nil, 0, illegalArgs("concat", args)
				}
				params[i] = rows.String
			}
			return params, rows.String, nil
		},
		Eval: func(args []interface{}) (interface{}, error) {
			sb := strings.Builder{}
			for _, arg := range args {
				sb.WriteString(arg.(string))
			}
			return sb.String(), nil
		},
	})
	register(&Function{
		Name: "length", MinArgs: 1, MaxArgs: 1,
		Resolve: func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
			if args[0] != rows.String && args[0] != rows.Null {
				return nil, 0, illegalArgs("length", args)
			}
			return []rows.DataType{rows.String}, rows.UInt64, nil
		},
		Eval: func(args []interface{}) (interface{}, error) {
			return uint64(len(args[0].(string))), nil
		},
	})

	for _, name := range []string{"count", "sum", "min", "max", "avg"} {
		register(&Function{Name: name, Kind: Aggregate, MinArgs: 0, MaxArgs: 1})
	}
}

// LookupFunction finds a built-in by (case-insensitive) name.
func LookupFunction(name string) (*Function, error) {
	fn, ok := FuncMap[strings.ToLower(name)]
	if !ok {
		return nil, errcode.Newf(errcode.UnknownFunction, "unknown function %s", name)
	}
	return fn, nil
}

// AggregateReturnType resolves the output type of an aggregate function over
// an argument of type arg. count takes no argument or any type.
func AggregateReturnType(name string, arg rows.DataType, hasArg bool) (rows.DataType, error) {
	switch strings.ToLower(name) {
	case "count":
		return rows.UInt64, nil
	case "sum":
		if !hasArg || !(arg.IsNumeric() || arg == rows.Null) {
			return 0, illegalArgs(name, []rows.DataType{arg})
		}
		if arg == rows.Null {
			return rows.Int64, nil
		}
		return arg, nil
	case "min", "max":
		if !hasArg {
			return 0, errcode.Newf(errcode.NumberArgumentsNotMatch, "%s expects 1 argument", name)
		}
		return arg, nil
	case "avg":
		if !hasArg || !(arg.IsNumeric() || arg == rows.Null) {
			return 0, illegalArgs(name, []rows.DataType{arg})
		}
		return rows.Float64, nil
	}
	return 0, errcode.Newf(errcode.UnknownFunction, "unknown aggregate function %s", name)
}

// arithmetic registers a binary numeric operator. unsignedRet is the return
// type when both arguments are UInt64; uintFunc returns a value of that type.
func arithmetic(name, infix string, unsignedRet rows.DataType,
	intFunc func(int64, int64) (int64, error),
	uintFunc func(uint64, uint64) (interface{}, error),
	floatFunc func(float64, float64) (float64, error)) *Function {
	return &Function{
		Name: name, Infix: infix, MinArgs: 2, MaxArgs: 2,
		Resolve: func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
			t, ok := CommonSuperType(args[0], args[1])
			if t == rows.Null {
				t = rows.Int64
			}
			if !ok || !t.IsNumeric() {
				return nil, 0, illegalArgs(name, args)
			}
			if t == rows.UInt64 {
				return []rows.DataType{t, t}, unsignedRet, nil
			}
			return []rows.DataType{t, t}, t, nil
		},
		Eval: func(args []interface{}) (interface{}, error) {
			switch a := args[0].(type) {
			case int64:
				return intFunc(a, args[1].(int64))
			case uint64:
				return uintFunc(a, args[1].(uint64))
			case float64:
				return floatFunc(a, args[1].(float64))
			}
			return nil, errcode.Newf(errcode.BadArguments, "%s: unexpected argument %v", name, args[0])
		},
	}
}

func addInt64(a, b int64) (int64, error) {
	c := a + b
	if (c > a) != (b > 0) {
		return 0, errOverflow("plus")
	}
	return c, nil
}

func subInt64(a, b int64) (int64, error) {
	c := a - b
	if (c < a) != (b > 0) {
		return 0, errOverflow("minus")
	}
	return c, nil
}

func mulInt64(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, errOverflow("multiply")
	}
	return c, nil
}

func comparison(name, infix string, test func(int) bool) *Function {
	return &Function{
		Name: name, Infix: infix, MinArgs: 2, MaxArgs: 2,
		Resolve: func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
			t, ok := CommonSuperType(args[0], args[1])
			if !ok {
				return nil, 0, illegalArgs(name, args)
			}
			return []rows.DataType{t, t}, rows.Boolean, nil
		},
		Eval: func(args []interface{}) (interface{}, error) {
			c, err := compareValues(args[0], args[1])
			if err != nil {
				return nil, err
			}
			return test(c), nil
		},
	}
}

func floatArgs(name string, n int) func([]rows.DataType) ([]rows.DataType, rows.DataType, error) {
	return func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
		params := make([]rows.DataType, n)
		for i, t := range args {
			if !t.IsNumeric() && t != rows.Null {
				return nil, 0, illegalArgs(name, args)
			}
			params[i] = rows.Float64
		}
		return params, rows.Float64, nil
	}
}

func booleanArgs(name string, n int) func([]rows.DataType) ([]rows.DataType, rows.DataType, error) {
	return func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
		params := make([]rows.DataType, n)
		for i, t := range args {
			if t != rows.Boolean && t != rows.Null {
				return nil, 0, illegalArgs(name, args)
			}
			params[i] = rows.Boolean
		}
		return params, rows.Boolean, nil
	}
}

func anyArg(ret rows.DataType) func([]rows.DataType) ([]rows.DataType, rows.DataType, error) {
	return func(args []rows.DataType) ([]rows.DataType, rows.DataType, error) {
		return []rows.DataType{args[0]}, ret, nil
	}
}

// CommonSuperType returns the type both a and b can be cast to without losing
// the ability to compare them. NULL is compatible with everything.
func CommonSuperType(a, b rows.DataType) (rows.DataType, bool) {
	if a == b {
		return a, true
	}
	if a == rows.Null {
		return b, true
	}
	if b == rows.Null {
		return a, true
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a == rows.Float64 || b == rows.Float64 {
			return rows.Float64, true
		}
		return rows.Int64, true
	}
	return rows.Null, false
}

func compareValues(a, b interface{}) (int, error) {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return compareOrdered(x, y), nil
		}
	case uint64:
		if y, ok := b.(uint64); ok {
			return compareOrdered(x, y), nil
		}
	case float64:
		if y, ok := b.(float64); ok {
			return compareOrdered(x, y), nil
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case bool:
		y, ok := b.(bool)
		if !ok {
			break
		}
		if x == y {
			return 0, nil
		} else if !x {
			return -1, nil
		}
		return 1, nil
	}
	return 0, errcode.Newf(errcode.BadArguments, "cannot compare %v with %v", a, b)
}

func compareOrdered[T int64 | uint64 | float64](x, y T) int {
	if x < y {
		return -1
	} else if x > y {
		return 1
	}
	return 0
}

func illegalArgs(name string, args []rows.DataType) error {
	names := make([]string, len(args))
	for i, t := range args {
		names[i] = t.String()
	}
	return errcode.Newf(errcode.IllegalDataType, "%s does not accept argument types (%s)", name, strings.Join(names, ", "))
}

func errDivideByZero() error {
	return errcode.Newf(errcode.BadArguments, "divided by zero")
}

func errOverflow(name string) error {
	return errcode.Newf(errcode.BadArguments, "%s: number overflow", name)
}

// CompareValues orders two non-NULL values of the same type.
func CompareValues(a, b interface{}) (int, error) {
	return compareValues(a, b)
}
