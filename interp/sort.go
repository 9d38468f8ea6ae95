package interp

import (
	"sort"

	"sql-explain/expression"
	"sql-explain/plan"
)

type sorter struct {
	keys    []plan.SortKey
	records []record
	err     error
}

func sortRecords(input []record, keys []plan.SortKey) ([]record, error) {
	s := &sorter{keys: keys, records: input}
	sort.Stable(s)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *sorter) Len() int {
	return len(s.records)
}

func (s *sorter) Less(i, j int) bool {
	for _, key := range s.keys {
		v1 := s.records[i][key.ID]
		v2 := s.records[j][key.ID]
		if v1 == nil && v2 == nil {
			continue
		} else if v1 == nil {
			return key.NullsFirst
		} else if v2 == nil {
			return !key.NullsFirst
		}
		c, err := expression.CompareValues(v1, v2)
		if err != nil {
			s.err = err
			return false
		}
		if c == 0 {
			continue
		}
		if key.Asc {
			return c < 0
		}
		return c > 0
	}
	return false
}

func (s *sorter) Swap(i, j int) {
	s.records[i], s.records[j] = s.records[j], s.records[i]
}
