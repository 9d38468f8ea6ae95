package expression

import (
	"math"
	"strconv"
	"strings"

	"sql-explain/errcode"
	"sql-explain/rows"
)

// NewFunction resolves name against the registry, checks the argument types
// and wraps every argument whose type differs from the parameter type in a
// Cast. Names of the form to_<type> build a Cast directly.
func NewFunction(name string, args ...Expression) (Expression, error) {
	lname := strings.ToLower(name)
	if target, ok := castTarget(lname); ok {
		if len(args) != 1 {
			return nil, errcode.Newf(errcode.NumberArgumentsNotMatch, "%s expects 1 argument, got %d", lname, len(args))
		}
		return NewCast(args[0], target), nil
	}

	fn, err := LookupFunction(lname)
	if err != nil {
		return nil, err
	}
	if fn.Kind == Aggregate {
		return nil, errcode.Newf(errcode.SemanticError, "aggregate function %s is only allowed in an aggregate", lname)
	}
	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		return nil, errcode.Newf(errcode.NumberArgumentsNotMatch, "%s: wrong number of arguments %d", lname, len(args))
	}

	types := make([]rows.DataType, len(args))
	for i, arg := range args {
		types[i] = arg.DataType()
	}
	params, ret, err := fn.Resolve(types)
	if err != nil {
		return nil, err
	}

	wrapped := make([]Expression, len(args))
	for i, arg := range args {
		if types[i] != rows.Null && types[i] != params[i] {
			wrapped[i] = NewCast(arg, params[i])
		} else {
			wrapped[i] = arg
		}
	}
	return &FunctionCall{Name: fn.Name, Args: wrapped, ReturnType: ret}, nil
}

// MustFunction is NewFunction for statically known arguments.
func MustFunction(name string, args ...Expression) Expression {
	e, err := NewFunction(name, args...)
	if err != nil {
		panic(err)
	}
	return e
}

// NewCast wraps e in a cast to target unless it already has that type.
func NewCast(e Expression, target rows.DataType) Expression {
	if e.DataType() == target {
		return e
	}
	return &Cast{Child: e, Target: target}
}

func castTarget(name string) (rows.DataType, bool) {
	if !strings.HasPrefix(name, "to_") {
		return rows.Null, false
	}
	t, err := rows.ParseDataType(strings.TrimPrefix(name, "to_"))
	if err != nil {
		return rows.Null, false
	}
	return t, true
}

// castValue converts a runtime value to target. NULL stays NULL.
func castValue(v interface{}, target rows.DataType) (interface{}, error) {
	if v == nil || target == rows.Null {
		return v, nil
	}
	switch target {
	case rows.Boolean:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		case uint64:
			return x != 0, nil
		case float64:
			return x != 0, nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, badCast(v, target)
			}
			return b, nil
		}
	case rows.UInt64:
		switch x := v.(type) {
		case bool:
			if x {
				return uint64(1), nil
			}
			return uint64(0), nil
		case int64:
			if x < 0 {
				return nil, badCast(v, target)
			}
			return uint64(x), nil
		case uint64:
			return x, nil
		case float64:
			if x < 0 || x >= 1<<64 || math.IsNaN(x) {
				return nil, badCast(v, target)
			}
			return uint64(x), nil
		case string:
			u, err := strconv.ParseUint(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, badCast(v, target)
			}
			return u, nil
		}
	case rows.Int64:
		switch x := v.(type) {
		case bool:
			if x {
				return int64(1), nil
			}
			return int64(0), nil
		case int64:
			return x, nil
		case uint64:
			if x > math.MaxInt64 {
				return nil, badCast(v, target)
			}
			return int64(x), nil
		case float64:
			if x < math.MinInt64 || x >= 1<<63 || math.IsNaN(x) {
				return nil, badCast(v, target)
			}
			return int64(x), nil
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, badCast(v, target)
			}
			return i, nil
		}
	case rows.Float64:
		switch x := v.(type) {
		case bool:
			if x {
				return float64(1), nil
			}
			return float64(0), nil
		case int64:
			return float64(x), nil
		case uint64:
			return float64(x), nil
		case float64:
			return x, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				return nil, badCast(v, target)
			}
			return f, nil
		}
	case rows.String:
		if s, ok := v.(string); ok {
			return s, nil
		}
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return rows.FormatValue(v), nil
	}
	return nil, badCast(v, target)
}

// valueMatches reports whether the Go value of a literal agrees with its
// declared type.
func valueMatches(v interface{}, t rows.DataType) bool {
	if v == nil {
		return true
	}
	switch v.(type) {
	case bool:
		return t == rows.Boolean
	case uint64:
		return t == rows.UInt64
	case int64:
		return t == rows.Int64
	case float64:
		return t == rows.Float64
	case string:
		return t == rows.String
	}
	return false
}

func badCast(v interface{}, target rows.DataType) error {
	return errcode.Newf(errcode.BadArguments, "cannot cast %s to %s", rows.FormatValue(v), target)
}

// ConvertValue converts a runtime value to t, with the same rules as a Cast.
func ConvertValue(v interface{}, t rows.DataType) (interface{}, error) {
	return castValue(normalizeValue(v), t)
}

// normalizeValue maps the Go integer kinds produced by decoders onto the
// value representation used by literals.
func normalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return uint64(x)
	case uint32:
		return uint64(x)
	case float32:
		return float64(x)
	}
	return v
}
