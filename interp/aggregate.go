package interp

import (
	"strings"

	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/rows"
)

type group struct {
	key     record // group by 列的值
	records []record
}

// aggregate 按分组列的值分组，分组顺序为第一次出现的顺序
func aggregate(input []record, a *plan.Aggregate) ([]record, error) {
	var groups []*group
	index := make(map[string]*group)
	for _, r := range input {
		k := groupKey(r, a.GroupBy)
		g, ok := index[k]
		if !ok {
			g = &group{key: make(record, len(a.GroupBy))}
			for _, id := range a.GroupBy {
				g.key[id] = r[id]
			}
			index[k] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, r)
	}
	// 没有 group by 时空输入也要输出一行
	if len(a.GroupBy) == 0 && len(groups) == 0 {
		groups = append(groups, &group{key: record{}})
	}
	result := make([]record, 0, len(groups))
	for _, g := range groups {
		r := make(record, len(a.GroupBy)+len(a.Functions))
		for id, v := range g.key {
			r[id] = v
		}
		for _, f := range a.Functions {
			v, err := evalAggregate(f, g.records)
			if err != nil {
				return nil, err
			}
			r[f.ID] = v
		}
		result = append(result, r)
	}
	return result, nil
}

func evalAggregate(f plan.AggregateFunction, input []record) (interface{}, error) {
	name := strings.ToLower(f.Func)
	if len(f.Args) == 0 {
		if name != "count" {
			return nil, errcode.Newf(errcode.NumberArgumentsNotMatch, "%s expects 1 argument", f.Func)
		}
		return uint64(len(input)), nil
	}
	// 聚合函数忽略 NULL
	var values []interface{}
	for _, r := range input {
		if v := r[f.Args[0]]; v != nil {
			values = append(values, v)
		}
	}
	switch name {
	case "count":
		return uint64(len(values)), nil
	case "sum":
		return sum(values)
	case "min", "max":
		var result interface{}
		for _, v := range values {
			if result == nil {
				result = v
				continue
			}
			c, err := expression.CompareValues(v, result)
			if err != nil {
				return nil, err
			}
			if (name == "min" && c < 0) || (name == "max" && c > 0) {
				result = v
			}
		}
		return result, nil
	case "avg":
		total, err := sum(values)
		if err != nil || total == nil {
			return nil, err
		}
		avg, err := expression.ConvertValue(total, rows.Float64)
		if err != nil {
			return nil, err
		}
		return avg.(float64) / float64(len(values)), nil
	}
	return nil, errcode.Newf(errcode.UnknownFunction, "unknown aggregate function %s", f.Func)
}

func sum(values []interface{}) (interface{}, error) {
	if len(values) == 0 {
		return nil, nil
	}
	switch first := values[0].(type) {
	case uint64:
		var total uint64
		for _, v := range values {
			total += v.(uint64)
		}
		return total, nil
	case int64:
		var total int64
		for _, v := range values {
			total += v.(int64)
		}
		return total, nil
	case float64:
		var total float64
		for _, v := range values {
			total += v.(float64)
		}
		return total, nil
	default:
		return nil, errcode.Newf(errcode.IllegalDataType, "sum: unexpected value %v", first)
	}
}
