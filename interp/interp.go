// Package interp evaluates a bound plan row by row. It reads the same sources
// the optimizer plans against and is used to check that a rewritten plan
// returns the same rows as the original one.
package interp

import (
	"strings"

	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/rows"
	"sql-explain/util/pointer"
)

// record 以列 id 为 key，NULL 为 nil
type record = expression.MapBinding

// Execute runs q and returns the Output columns (all root columns in id order
// when Output is empty).
func Execute(q *plan.Query) (rows.Dataset, error) {
	records, err := execute(q.Root)
	if err != nil {
		return rows.Dataset{}, err
	}
	output := q.Output
	if len(output) == 0 {
		output = plan.OutputColumns(q.Root).Ordered()
	}
	var schema []rows.StructField
	for _, id := range output {
		c, ok := q.Metadata.Column(id)
		if !ok {
			return rows.Dataset{}, errcode.AssertionFailedf("output column #%d has no metadata", id)
		}
		schema = append(schema, rows.StructField{Name: c.DisplayName(), DataType: c.Type})
	}
	var data []rows.Row
	for _, r := range records {
		values := make([]interface{}, len(output))
		for i, id := range output {
			v, ok := r[id]
			if !ok {
				return rows.Dataset{}, errcode.AssertionFailedf("output column #%d is not produced", id)
			}
			values[i] = v
		}
		data = append(data, rows.New(values))
	}
	return rows.Dataset{Data: data, Schema: schema}, nil
}

func execute(p plan.Plan) ([]record, error) {
	switch t := p.(type) {
	case *plan.TableScan:
		return scan(t)
	case *plan.DummyTableScan:
		return []record{{}}, nil
	case *plan.Filter:
		input, err := execute(t.Child)
		if err != nil {
			return nil, err
		}
		return filter(input, t.Predicates)
	case *plan.EvalScalar:
		input, err := execute(t.Child)
		if err != nil {
			return nil, err
		}
		result := make([]record, 0, len(input))
		for _, r := range input {
			n := make(record, len(r)+len(t.Items))
			for id, v := range r {
				n[id] = v
			}
			for _, item := range t.Items {
				v, err := expression.Eval(item.Expr, r)
				if err != nil {
					return nil, err
				}
				n[item.ID] = v
			}
			result = append(result, n)
		}
		return result, nil
	case *plan.Limit:
		input, err := execute(t.Child)
		if err != nil {
			return nil, err
		}
		if t.Offset >= uint64(len(input)) {
			return nil, nil
		}
		input = input[t.Offset:]
		if n := pointer.Uint64Or(t.Limit, uint64(len(input))); n < uint64(len(input)) {
			input = input[:n]
		}
		return input, nil
	case *plan.Sort:
		input, err := execute(t.Child)
		if err != nil {
			return nil, err
		}
		return sortRecords(input, t.Keys)
	case *plan.Aggregate:
		input, err := execute(t.Child)
		if err != nil {
			return nil, err
		}
		return aggregate(input, t)
	case *plan.Join:
		return join(t)
	case *plan.UnionAll:
		left, err := execute(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := execute(t.Right)
		if err != nil {
			return nil, err
		}
		result := make([]record, 0, len(left)+len(right))
		for _, r := range left {
			n := make(record, len(t.Pairs))
			for _, pair := range t.Pairs {
				n[pair.Left] = r[pair.Left]
			}
			result = append(result, n)
		}
		// 右侧的列按位置映射到左侧的 id
		for _, r := range right {
			n := make(record, len(t.Pairs))
			for _, pair := range t.Pairs {
				n[pair.Left] = r[pair.Right]
			}
			result = append(result, n)
		}
		return result, nil
	}
	panic("unknown plan variant")
}

func scan(t *plan.TableScan) ([]record, error) {
	req := t.ScanRequest()
	data, err := t.Source.Read(req)
	if err != nil {
		return nil, err
	}
	result := make([]record, 0, len(data))
	for _, row := range data {
		r := make(record, len(req.Columns))
		for i, idx := range req.Columns {
			r[t.TableColumns[idx]] = row.IndexOf(i)
		}
		result = append(result, r)
	}
	return result, nil
}

func filter(input []record, preds []expression.Expression) ([]record, error) {
	var result []record
	for _, r := range input {
		matched := true
		for _, pred := range preds {
			ok, err := expression.EvalPredicate(pred, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				matched = false
				break
			}
		}
		if matched {
			result = append(result, r)
		}
	}
	return result, nil
}

// groupKey 把分组列的值拼成 map 的 key，同一列的值类型相同
func groupKey(r record, ids []plan.ColumnID) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(rows.FormatValue(r[id]))
		sb.WriteByte(0)
	}
	return sb.String()
}
