package plan

import (
	"github.com/tidwall/btree"

	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/rows"
	"sql-explain/source"
)

// ColumnEntry is the display side of a column id.
type ColumnEntry struct {
	ID        ColumnID
	Qualifier string // 表名或别名，派生列为空
	Name      string
	Type      rows.DataType
	// Ordinal is the position in the table schema, -1 for derived columns.
	Ordinal int
}

func (c ColumnEntry) DisplayName() string {
	if c.Qualifier == "" {
		return c.Name
	}
	return c.Qualifier + "." + c.Name
}

// Metadata allocates column ids and keeps their display information.
type Metadata struct {
	columns btree.Map[ColumnID, ColumnEntry]
	next    ColumnID
}

func NewMetadata() *Metadata {
	return &Metadata{}
}

// AddColumn allocates the next id.
func (m *Metadata) AddColumn(qualifier, name string, t rows.DataType, ordinal int) ColumnID {
	id := m.next
	m.next++
	m.columns.Set(id, ColumnEntry{ID: id, Qualifier: qualifier, Name: name, Type: t, Ordinal: ordinal})
	return id
}

func (m *Metadata) Column(id ColumnID) (ColumnEntry, bool) {
	return m.columns.Get(id)
}

// ColumnRef builds a reference to id carrying its display name.
func (m *Metadata) ColumnRef(id ColumnID) (*expression.ColumnRef, error) {
	c, ok := m.columns.Get(id)
	if !ok {
		return nil, errcode.Newf(errcode.SemanticError, "unknown column #%d", id)
	}
	return &expression.ColumnRef{ID: id, Qualifier: c.Qualifier, Name: c.Name, Type: c.Type}, nil
}

func (m *Metadata) Len() int {
	return m.columns.Len()
}

// Columns returns all entries in id order.
func (m *Metadata) Columns() []ColumnEntry {
	result := make([]ColumnEntry, 0, m.columns.Len())
	m.columns.Scan(func(_ ColumnID, c ColumnEntry) bool {
		result = append(result, c)
		return true
	})
	return result
}

// Query is a bound plan together with its column metadata. Output lists the
// columns the client reads, in order.
type Query struct {
	Root     Plan
	Metadata *Metadata
	Output   []ColumnID
}

// Clone copies the plan tree. Metadata is shared, it is never modified after
// binding.
func (q *Query) Clone() *Query {
	return &Query{
		Root:     Clone(q.Root),
		Metadata: q.Metadata,
		Output:   append([]ColumnID(nil), q.Output...),
	}
}

// NewScan allocates ids for every column of s and returns a scan reading all
// of them.
func NewScan(md *Metadata, s source.Source, alias string) *TableScan {
	qualifier := s.Name()
	if alias != "" {
		qualifier = alias
	}
	scan := &TableScan{Source: s, Alias: alias}
	for i, field := range s.Schema() {
		id := md.AddColumn(qualifier, field.Name, field.DataType, i)
		scan.TableColumns = append(scan.TableColumns, id)
		scan.Columns.Add(id)
	}
	return scan
}
