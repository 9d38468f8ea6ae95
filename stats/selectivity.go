package stats

import (
	"sql-explain/expression"
)

// selectivity estimates the fraction of rows satisfying pred, in [0, 1].
func (b *builder) selectivity(pred expression.Expression) float64 {
	switch t := pred.(type) {
	case *expression.Literal:
		if t.IsTrue() {
			return 1
		}
		if t.IsFalse() || t.IsNull() {
			return 0
		}
		return b.conf.DefaultSelectivity
	case *expression.FunctionCall:
		return clamp(b.callSelectivity(t), 0, 1)
	case *expression.ColumnRef, *expression.Cast:
		return b.conf.DefaultSelectivity
	}
	panic("unknown expression variant")
}

func (b *builder) callSelectivity(f *expression.FunctionCall) float64 {
	switch f.Name {
	case "and":
		return b.conjunction(f.Args)
	case "or":
		sel := 0.0
		for _, arg := range f.Args {
			s := b.selectivity(arg)
			sel = sel + s - sel*s
		}
		return sel
	case "not":
		return 1 - b.selectivity(f.Args[0])
	case "eq":
		return b.equality(f.Args[0], f.Args[1])
	case "noteq":
		return 1 - b.equality(f.Args[0], f.Args[1])
	case "is_null":
		return b.nullFraction(f.Args[0])
	case "is_not_null":
		return 1 - b.nullFraction(f.Args[0])
	}
	return b.conf.DefaultSelectivity
}

// equality is 1/NDV for a column compared with a constant, 1/max(NDV) for two
// columns, and the default selectivity when the distinct count is unknown.
func (b *builder) equality(l, r expression.Expression) float64 {
	var ndv float64
	switch {
	case expression.IsConstant(r):
		ndv = b.distinct(l)
	case expression.IsConstant(l):
		ndv = b.distinct(r)
	default:
		ndv = max(b.distinct(l), b.distinct(r))
	}
	if ndv <= 0 {
		return b.conf.DefaultSelectivity
	}
	return 1 / max(ndv, 1)
}

func (b *builder) nullFraction(e expression.Expression) float64 {
	if ref, ok := expression.StripCasts(e).(*expression.ColumnRef); ok {
		if stat, ok := b.cols[ref.ID]; ok && stat.known {
			return stat.nullFraction
		}
	}
	return b.conf.UnknownNullFraction
}
