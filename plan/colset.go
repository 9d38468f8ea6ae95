package plan

import (
	"strconv"
	"strings"

	"github.com/tidwall/btree"
)

// ColumnSet stores a set of column ids in increasing order. The zero value is
// an empty set. Sets share storage when copied by value, use Copy before
// modifying a set obtained from somewhere else.
type ColumnSet struct {
	set *btree.Set[ColumnID]
}

// MakeColumnSet returns a set initialized with the given ids.
func MakeColumnSet(ids ...ColumnID) ColumnSet {
	var s ColumnSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add adds a column to the set. No-op if the column is already in the set.
func (s *ColumnSet) Add(id ColumnID) {
	if s.set == nil {
		s.set = &btree.Set[ColumnID]{}
	}
	s.set.Insert(id)
}

func (s ColumnSet) Contains(id ColumnID) bool {
	return s.set != nil && s.set.Contains(id)
}

func (s ColumnSet) Len() int {
	if s.set == nil {
		return 0
	}
	return s.set.Len()
}

func (s ColumnSet) Empty() bool { return s.Len() == 0 }

// ForEach calls f for each column in increasing order.
func (s ColumnSet) ForEach(f func(id ColumnID)) {
	if s.set == nil {
		return
	}
	s.set.Scan(func(id ColumnID) bool {
		f(id)
		return true
	})
}

// Ordered returns the ids in increasing order.
func (s ColumnSet) Ordered() []ColumnID {
	result := make([]ColumnID, 0, s.Len())
	s.ForEach(func(id ColumnID) { result = append(result, id) })
	return result
}

// Copy returns a copy of s which can be modified independently.
func (s ColumnSet) Copy() ColumnSet {
	var c ColumnSet
	s.ForEach(c.Add)
	return c
}

// UnionWith adds all the columns from rhs to this set.
func (s *ColumnSet) UnionWith(rhs ColumnSet) {
	rhs.ForEach(s.Add)
}

// Union returns the union of s and rhs as a new set.
func (s ColumnSet) Union(rhs ColumnSet) ColumnSet {
	c := s.Copy()
	c.UnionWith(rhs)
	return c
}

// Intersection returns the columns of s that are also in rhs.
func (s ColumnSet) Intersection(rhs ColumnSet) ColumnSet {
	var c ColumnSet
	s.ForEach(func(id ColumnID) {
		if rhs.Contains(id) {
			c.Add(id)
		}
	})
	return c
}

// Intersects returns true if s has any elements in common with rhs.
func (s ColumnSet) Intersects(rhs ColumnSet) bool {
	return !s.Intersection(rhs).Empty()
}

// SubsetOf returns true if rhs contains all the elements in s.
func (s ColumnSet) SubsetOf(rhs ColumnSet) bool {
	ok := true
	s.ForEach(func(id ColumnID) {
		if !rhs.Contains(id) {
			ok = false
		}
	})
	return ok
}

func (s ColumnSet) Equals(rhs ColumnSet) bool {
	return s.Len() == rhs.Len() && s.SubsetOf(rhs)
}

// String returns a list representation such as "(0,3,4)".
func (s ColumnSet) String() string {
	parts := make([]string, 0, s.Len())
	s.ForEach(func(id ColumnID) { parts = append(parts, strconv.Itoa(int(id))) })
	return "(" + strings.Join(parts, ",") + ")"
}
