package source

import (
	hll "github.com/axiomhq/hyperloglog"

	"sql-explain/config"
	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/rows"
)

// partition 内每列的 min/max，用于过滤分区
type zoneMap struct {
	min, max []interface{}
}

type partition struct {
	start, end int // data[start:end]
	zone       zoneMap
}

type memorySource struct {
	database     string
	name         string
	schema       []rows.StructField
	data         [][]interface{}
	partitions   []partition
	stats        []ColumnStatistics
	capabilities Capabilities
}

// NewMemory builds an in-memory table from its declaration. Values are
// converted to the declared column types.
func NewMemory(conf config.TableConf) (Source, error) {
	filter, err := ParseCapability(conf.FilterPushDown)
	if err != nil {
		return nil, err
	}
	m := &memorySource{
		database:     conf.Database,
		name:         conf.Name,
		capabilities: Capabilities{Filter: filter, Limit: conf.LimitPushDown},
	}
	if m.database == "" {
		m.database = config.DefaultDatabase
	}
	for _, c := range conf.Columns {
		t, err := rows.ParseDataType(c.Type)
		if err != nil {
			return nil, errcode.Wrap(err, errcode.IllegalDataType)
		}
		m.schema = append(m.schema, rows.StructField{Name: c.Name, DataType: t})
	}
	for i, raw := range conf.Rows {
		if len(raw) != len(m.schema) {
			return nil, errcode.Newf(errcode.BadArguments, "table %s: row %d has %d values, want %d",
				m.name, i, len(raw), len(m.schema))
		}
		row := make([]interface{}, len(raw))
		for j, v := range raw {
			if row[j], err = expression.ConvertValue(v, m.schema[j].DataType); err != nil {
				return nil, err
			}
		}
		m.data = append(m.data, row)
	}

	size := conf.PartitionSize
	if size <= 0 {
		size = len(m.data)
	}
	for start := 0; start < len(m.data); start += size {
		end := min(start+size, len(m.data))
		m.partitions = append(m.partitions, partition{start: start, end: end, zone: m.buildZoneMap(start, end)})
	}
	m.stats = m.buildStatistics()
	return m, nil
}

func (m *memorySource) buildZoneMap(start, end int) zoneMap {
	zone := zoneMap{min: make([]interface{}, len(m.schema)), max: make([]interface{}, len(m.schema))}
	for _, row := range m.data[start:end] {
		for i, v := range row {
			if v == nil {
				continue
			}
			if zone.min[i] == nil {
				zone.min[i], zone.max[i] = v, v
				continue
			}
			if c, err := expression.CompareValues(v, zone.min[i]); err == nil && c < 0 {
				zone.min[i] = v
			}
			if c, err := expression.CompareValues(v, zone.max[i]); err == nil && c > 0 {
				zone.max[i] = v
			}
		}
	}
	return zone
}

// 每列一个 hll sketch 估计不同值个数
func (m *memorySource) buildStatistics() []ColumnStatistics {
	stats := make([]ColumnStatistics, len(m.schema))
	sks := make([]*hll.Sketch, len(m.schema))
	for i := range sks {
		sks[i] = hll.New()
	}
	for _, row := range m.data {
		for i, v := range row {
			if v == nil {
				stats[i].NullCount++
				continue
			}
			sks[i].Insert([]byte(rows.FormatValue(v)))
		}
	}
	for i := range stats {
		stats[i].DistinctCount = float64(sks[i].Estimate())
		for _, p := range m.partitions {
			if p.zone.min[i] == nil {
				continue
			}
			if stats[i].Min == nil {
				stats[i].Min, stats[i].Max = p.zone.min[i], p.zone.max[i]
				continue
			}
			if c, err := expression.CompareValues(p.zone.min[i], stats[i].Min); err == nil && c < 0 {
				stats[i].Min = p.zone.min[i]
			}
			if c, err := expression.CompareValues(p.zone.max[i], stats[i].Max); err == nil && c > 0 {
				stats[i].Max = p.zone.max[i]
			}
		}
	}
	return stats
}

func (m *memorySource) Catalog() string            { return "default" }
func (m *memorySource) Database() string           { return m.database }
func (m *memorySource) Name() string               { return m.name }
func (m *memorySource) Schema() []rows.StructField { return m.schema }
func (m *memorySource) NumRows() uint64            { return uint64(len(m.data)) }
func (m *memorySource) NumPartitions() uint64      { return uint64(len(m.partitions)) }
func (m *memorySource) Capabilities() Capabilities { return m.capabilities }

func (m *memorySource) ColumnStatistics(idx int) (ColumnStatistics, bool) {
	if idx < 0 || idx >= len(m.stats) || len(m.data) == 0 {
		return ColumnStatistics{}, false
	}
	return m.stats[idx], true
}

func (m *memorySource) PartStatistics(req ScanRequest) PartStatistics {
	if req.PushDown.IsEmptyResult() {
		return PartStatistics{}
	}
	var readRows, scanned uint64
	for _, p := range m.partitions {
		if !m.mayMatch(p, req) {
			continue
		}
		scanned++
		readRows += uint64(p.end - p.start)
		if req.PushDown.Limit != nil && len(req.PushDown.Filters) == 0 && readRows >= *req.PushDown.Limit {
			readRows = *req.PushDown.Limit
			break
		}
	}
	return PartStatistics{
		ReadRows:          readRows,
		ReadBytes:         readRows * RowWidth(m, req.Columns),
		PartitionsTotal:   m.NumPartitions(),
		PartitionsScanned: scanned,
	}
}

// mayMatch checks the pushed conjuncts of the form column <op> constant
// against the partition's zone map.
func (m *memorySource) mayMatch(p partition, req ScanRequest) bool {
	for _, f := range req.PushDown.Filters {
		cmp, ok := asColumnComparison(f)
		if !ok {
			continue
		}
		idx, ok := req.Ordinals[cmp.column]
		if !ok {
			continue
		}
		if !cmp.mayMatch(p.zone.min[idx], p.zone.max[idx]) {
			return false
		}
	}
	return true
}

func (m *memorySource) Read(req ScanRequest) ([]rows.Row, error) {
	var data [][]interface{}
	for _, p := range m.partitions {
		if m.mayMatch(p, req) {
			data = append(data, m.data[p.start:p.end]...)
		}
	}
	return filterRows(data, req)
}
