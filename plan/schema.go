package plan

import (
	"sql-explain/source"
)

// OutputColumns returns the ids a node produces.
func OutputColumns(p Plan) ColumnSet {
	switch t := p.(type) {
	case *TableScan:
		return t.Columns.Copy()
	case *DummyTableScan:
		return ColumnSet{}
	case *Filter:
		return OutputColumns(t.Child)
	case *Sort:
		return OutputColumns(t.Child)
	case *Limit:
		return OutputColumns(t.Child)
	case *EvalScalar:
		result := OutputColumns(t.Child)
		for _, item := range t.Items {
			result.Add(item.ID)
		}
		return result
	case *Aggregate:
		result := MakeColumnSet(t.GroupBy...)
		for _, f := range t.Functions {
			result.Add(f.ID)
		}
		return result
	case *Join:
		return OutputColumns(t.Left).Union(OutputColumns(t.Right))
	case *UnionAll:
		var result ColumnSet
		for _, pair := range t.Pairs {
			result.Add(pair.Left)
		}
		return result
	}
	panic("unknown plan variant")
}

// Ordinal returns the position of id in the table schema.
func (s *TableScan) Ordinal(id ColumnID) (int, bool) {
	for i, c := range s.TableColumns {
		if c == id {
			return i, true
		}
	}
	return 0, false
}

// ReadsAllColumns reports whether no column has been pruned.
func (s *TableScan) ReadsAllColumns() bool {
	return s.Columns.Len() == len(s.TableColumns)
}

// ScanRequest describes the read this scan asks its source for.
func (s *TableScan) ScanRequest() source.ScanRequest {
	req := source.ScanRequest{
		PushDown: s.PushDown,
		Ordinals: make(map[ColumnID]int, len(s.TableColumns)),
	}
	for i, id := range s.TableColumns {
		req.Ordinals[id] = i
		if s.Columns.Contains(id) {
			req.Columns = append(req.Columns, i)
		}
	}
	return req
}
