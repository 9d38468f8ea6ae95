package source

import (
	"strings"

	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/rows"
	"sql-explain/util/pointer"
)

// PushDownCapability tells the optimizer how a source treats pushed filters.
type PushDownCapability int

const (
	// None: filters are never handed to the source.
	None PushDownCapability = iota
	// Inexact: the source uses filters to skip data but may return rows that
	// do not match, the Filter above the scan is kept.
	Inexact
	// Exact: the source returns only matching rows, pushed conjuncts are
	// removed from the Filter above the scan.
	Exact
)

func (c PushDownCapability) String() string {
	switch c {
	case None:
		return "none"
	case Inexact:
		return "inexact"
	case Exact:
		return "exact"
	}
	return "unknown"
}

func ParseCapability(s string) (PushDownCapability, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "inexact":
		return Inexact, nil
	case "exact":
		return Exact, nil
	}
	return None, errcode.Newf(errcode.BadArguments, "unknown push down capability %q", s)
}

type Capabilities struct {
	Filter PushDownCapability
	Limit  bool
}

// PushDownInfo is what a TableScan asks its source to apply while reading.
// Filters reference plan column ids.
type PushDownInfo struct {
	Filters []expression.Expression
	Limit   *uint64
}

func (p PushDownInfo) Clone() PushDownInfo {
	return PushDownInfo{
		Filters: append([]expression.Expression(nil), p.Filters...),
		Limit:   pointer.CloneUint64(p.Limit),
	}
}

// IsEmptyResult reports whether the pushed filters are provably false.
func (p PushDownInfo) IsEmptyResult() bool {
	return expression.IsFalsePredicates(p.Filters)
}

func (p PushDownInfo) String() string {
	return "[filters: [" + expression.PrintList(p.Filters) + "], limit: " + pointer.Uint64String(p.Limit) + "]"
}

// PartStatistics describes how much data a scan reads after push-down.
type PartStatistics struct {
	ReadRows          uint64
	ReadBytes         uint64
	PartitionsTotal   uint64
	PartitionsScanned uint64
}

// ColumnStatistics are optional per-column statistics. A zero DistinctCount
// means unknown.
type ColumnStatistics struct {
	DistinctCount float64
	NullCount     uint64
	Min           interface{}
	Max           interface{}
}

// ScanRequest describes a read: the table columns to produce, what is pushed
// down and how the plan column ids used by the filters map onto table
// columns.
type ScanRequest struct {
	Columns  []int
	PushDown PushDownInfo
	Ordinals map[expression.ColumnID]int
}

// Binding returns a binding of the plan column ids over a full table row.
func (r ScanRequest) Binding(row []interface{}) expression.Binding {
	return ordinalBinding{row: row, ordinals: r.Ordinals}
}

type ordinalBinding struct {
	row      []interface{}
	ordinals map[expression.ColumnID]int
}

func (b ordinalBinding) Lookup(id expression.ColumnID) (interface{}, bool) {
	idx, ok := b.ordinals[id]
	if !ok || idx >= len(b.row) {
		return nil, false
	}
	return b.row[idx], true
}

type Source interface {
	Catalog() string
	Database() string
	Name() string
	Schema() []rows.StructField
	NumRows() uint64
	NumPartitions() uint64
	Capabilities() Capabilities
	ColumnStatistics(idx int) (ColumnStatistics, bool)
	PartStatistics(req ScanRequest) PartStatistics
	// Read returns the requested columns of every row the source would
	// produce under req's push-down.
	Read(req ScanRequest) ([]rows.Row, error)
}

// FullName is catalog.database.table.
func FullName(s Source) string {
	return s.Catalog() + "." + s.Database() + "." + s.Name()
}

// RowWidth is the number of bytes one row of the given columns occupies.
func RowWidth(s Source, columns []int) uint64 {
	schema := s.Schema()
	var width uint64
	for _, idx := range columns {
		width += schema[idx].DataType.Width()
	}
	return width
}

func buildSchema(names []string, types []rows.DataType) []rows.StructField {
	if len(names) != len(types) {
		panic("schema name and type length don't equal")
	}
	var res []rows.StructField
	for i, name := range names {
		res = append(res, rows.StructField{
			Name:     name,
			DataType: types[i],
		})
	}
	return res
}

// filterRows keeps the rows matching every pushed filter, applies the pushed
// limit and projects the requested columns.
func filterRows(data [][]interface{}, req ScanRequest) ([]rows.Row, error) {
	var result []rows.Row
	for _, row := range data {
		if req.PushDown.Limit != nil && uint64(len(result)) >= *req.PushDown.Limit {
			break
		}
		binding := req.Binding(row)
		matched := true
		for _, f := range req.PushDown.Filters {
			ok, err := expression.EvalPredicate(f, binding)
			if err != nil {
				return nil, err
			}
			if !ok {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		projected := make([]interface{}, len(req.Columns))
		for i, idx := range req.Columns {
			projected[i] = row[idx]
		}
		result = append(result, rows.New(projected))
	}
	return result, nil
}
