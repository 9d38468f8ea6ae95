package interp

import (
	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/plan"
)

// join 使用嵌套循环，只用于验证结果
func join(j *plan.Join) ([]record, error) {
	left, err := execute(j.Left)
	if err != nil {
		return nil, err
	}
	right, err := execute(j.Right)
	if err != nil {
		return nil, err
	}
	if len(j.LeftKeys) != len(j.RightKeys) {
		return nil, errcode.AssertionFailedf("join has %d left keys and %d right keys", len(j.LeftKeys), len(j.RightKeys))
	}
	rightColumns := plan.OutputColumns(j.Right).Ordered()

	var result []record
	for _, l := range left {
		matched := false
		for _, r := range right {
			merged := make(record, len(l)+len(r))
			for id, v := range l {
				merged[id] = v
			}
			for id, v := range r {
				merged[id] = v
			}
			ok, err := joinMatches(j, l, r, merged)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				result = append(result, merged)
			}
		}
		if !matched && j.Kind == plan.LeftJoin {
			merged := make(record, len(l)+len(rightColumns))
			for id, v := range l {
				merged[id] = v
			}
			for _, id := range rightColumns {
				merged[id] = nil
			}
			result = append(result, merged)
		}
	}
	return result, nil
}

func joinMatches(j *plan.Join, l, r, merged record) (bool, error) {
	for i := range j.LeftKeys {
		lv, err := expression.Eval(j.LeftKeys[i], l)
		if err != nil {
			return false, err
		}
		rv, err := expression.Eval(j.RightKeys[i], r)
		if err != nil {
			return false, err
		}
		// NULL 不等于任何值
		if lv == nil || rv == nil {
			return false, nil
		}
		c, err := expression.CompareValues(lv, rv)
		if err != nil {
			return false, err
		}
		if c != 0 {
			return false, nil
		}
	}
	for _, other := range j.Others {
		ok, err := expression.EvalPredicate(other, merged)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
