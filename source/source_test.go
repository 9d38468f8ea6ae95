package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-explain/config"
	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/rows"
	"sql-explain/util/pointer"
)

func testConf() config.SQLConf {
	conf := config.Default()
	conf.Tables = []config.TableConf{{
		Name:     "t",
		Database: "default",
		Columns: []config.ColumnConf{
			{Name: "a", Type: "bigint"},
			{Name: "s", Type: "varchar"},
		},
		Rows: [][]interface{}{
			{1, "x"}, {2, "y"}, {3, nil},
			{10, "x"}, {11, "z"}, {12, "x"},
		},
		PartitionSize:  3,
		FilterPushDown: "exact",
		LimitPushDown:  true,
	}}
	return conf
}

func TestNumbers(t *testing.T) {
	c, err := NewCatalog(config.Default())
	require.NoError(t, err)
	s, err := c.Resolve("numbers(1)")
	require.NoError(t, err)

	assert.Equal(t, "default.system.numbers", FullName(s))
	assert.Equal(t, uint64(1), s.NumRows())
	assert.Equal(t, uint64(1), s.NumPartitions())
	assert.Equal(t, Capabilities{Filter: Inexact, Limit: true}, s.Capabilities())
	_, ok := s.ColumnStatistics(0)
	assert.False(t, ok)

	req := ScanRequest{Columns: []int{0}}
	assert.Equal(t, PartStatistics{ReadRows: 1, ReadBytes: 8, PartitionsTotal: 1, PartitionsScanned: 1}, s.PartStatistics(req))

	req.PushDown.Filters = []expression.Expression{expression.False()}
	assert.Equal(t, PartStatistics{}, s.PartStatistics(req))
}

func TestNumbersLimit(t *testing.T) {
	s := NewNumbers(200000, 65536)
	assert.Equal(t, uint64(4), s.NumPartitions())

	req := ScanRequest{Columns: []int{0}, PushDown: PushDownInfo{Limit: pointer.Uint64(10)}}
	stats := s.PartStatistics(req)
	assert.Equal(t, uint64(10), stats.ReadRows)
	assert.Equal(t, uint64(80), stats.ReadBytes)
	assert.Equal(t, uint64(4), stats.PartitionsTotal)
	assert.Equal(t, uint64(1), stats.PartitionsScanned)
}

func TestNumbersRead(t *testing.T) {
	s := NewNumbers(5, 2)
	number := &expression.ColumnRef{ID: 7, Name: "number", Type: rows.UInt64}
	req := ScanRequest{
		Columns:  []int{0},
		PushDown: PushDownInfo{Filters: []expression.Expression{expression.MustFunction("gt", number, expression.NewLiteral(uint64(2)))}},
		Ordinals: map[expression.ColumnID]int{7: 0},
	}
	result, err := s.Read(req)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, uint64(3), result[0].IndexOf(0))
	assert.Equal(t, uint64(4), result[1].IndexOf(0))
}

func TestResolveErrors(t *testing.T) {
	c, err := NewCatalog(config.Default())
	require.NoError(t, err)

	_, err = c.Resolve("missing")
	assert.Equal(t, errcode.UnknownTable, errcode.Of(err))
	_, err = c.Resolve("nope(1)")
	assert.Equal(t, errcode.UnknownTable, errcode.Of(err))
	_, err = c.Resolve("numbers(x)")
	assert.Equal(t, errcode.BadArguments, errcode.Of(err))
	_, err = c.Resolve("numbers()")
	assert.Equal(t, errcode.BadArguments, errcode.Of(err))
}

func TestMemoryTable(t *testing.T) {
	c, err := NewCatalog(testConf())
	require.NoError(t, err)
	s, err := c.Resolve("default.t")
	require.NoError(t, err)
	same, err := c.Resolve("t")
	require.NoError(t, err)
	assert.Same(t, s, same)

	assert.Equal(t, uint64(6), s.NumRows())
	assert.Equal(t, uint64(2), s.NumPartitions())
	assert.Equal(t, Capabilities{Filter: Exact, Limit: true}, s.Capabilities())

	a, ok := s.ColumnStatistics(0)
	require.True(t, ok)
	assert.InDelta(t, 6, a.DistinctCount, 0.5)
	assert.Equal(t, int64(1), a.Min)
	assert.Equal(t, int64(12), a.Max)

	str, ok := s.ColumnStatistics(1)
	require.True(t, ok)
	assert.InDelta(t, 3, str.DistinctCount, 0.5)
	assert.Equal(t, uint64(1), str.NullCount)

	require.Len(t, c.Tables(), 1)
}

func TestZoneMapPruning(t *testing.T) {
	c, err := NewCatalog(testConf())
	require.NoError(t, err)
	s, err := c.Resolve("t")
	require.NoError(t, err)

	a := &expression.ColumnRef{ID: 3, Qualifier: "t", Name: "a", Type: rows.Int64}
	req := func(filters ...expression.Expression) ScanRequest {
		return ScanRequest{
			Columns:  []int{0, 1},
			PushDown: PushDownInfo{Filters: filters},
			Ordinals: map[expression.ColumnID]int{3: 0},
		}
	}

	stats := s.PartStatistics(req(expression.MustFunction("gte", a, expression.NewLiteral(int64(10)))))
	assert.Equal(t, PartStatistics{ReadRows: 3, ReadBytes: 3 * 24, PartitionsTotal: 2, PartitionsScanned: 1}, stats)

	// literal on the left side
	stats = s.PartStatistics(req(expression.MustFunction("gt", expression.NewLiteral(int64(5)), a)))
	assert.Equal(t, uint64(1), stats.PartitionsScanned)

	stats = s.PartStatistics(req(expression.MustFunction("eq", a, expression.NewLiteral(int64(7)))))
	assert.Equal(t, uint64(0), stats.PartitionsScanned)
	assert.Equal(t, uint64(0), stats.ReadRows)

	// through a numeric cast
	stats = s.PartStatistics(req(expression.MustFunction("eq", a, expression.NewLiteral(2.0))))
	assert.Equal(t, uint64(1), stats.PartitionsScanned)

	stats = s.PartStatistics(req(expression.MustFunction("noteq", a, expression.NewLiteral(int64(7)))))
	assert.Equal(t, uint64(2), stats.PartitionsScanned)

	result, err := s.Read(req(expression.MustFunction("gte", a, expression.NewLiteral(int64(11)))))
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, []interface{}{int64(11), "z"}, rows.Values(result[0]))
}

func TestMemoryLimit(t *testing.T) {
	c, err := NewCatalog(testConf())
	require.NoError(t, err)
	s, err := c.Resolve("t")
	require.NoError(t, err)

	stats := s.PartStatistics(ScanRequest{Columns: []int{0}, PushDown: PushDownInfo{Limit: pointer.Uint64(2)}})
	assert.Equal(t, PartStatistics{ReadRows: 2, ReadBytes: 16, PartitionsTotal: 2, PartitionsScanned: 1}, stats)

	result, err := s.Read(ScanRequest{Columns: []int{1}, PushDown: PushDownInfo{Limit: pointer.Uint64(2)}})
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestMemoryErrors(t *testing.T) {
	conf := testConf()
	conf.Tables[0].Columns[0].Type = "geometry"
	_, err := NewCatalog(conf)
	assert.Equal(t, errcode.IllegalDataType, errcode.Of(err))

	conf = testConf()
	conf.Tables[0].Rows[0][0] = "not a number"
	_, err = NewCatalog(conf)
	assert.Equal(t, errcode.BadArguments, errcode.Of(err))

	conf = testConf()
	conf.Tables[0].FilterPushDown = "sometimes"
	_, err = NewCatalog(conf)
	assert.Equal(t, errcode.BadArguments, errcode.Of(err))

	conf = testConf()
	conf.Tables = append(conf.Tables, conf.Tables[0])
	_, err = NewCatalog(conf)
	assert.Error(t, err)
}

func TestPushDownInfoString(t *testing.T) {
	number := &expression.ColumnRef{ID: 0, Qualifier: "numbers", Name: "number", Type: rows.UInt64}
	p := PushDownInfo{Filters: []expression.Expression{expression.MustFunction("eq", number, expression.NewLiteral(uint64(1)))}}
	assert.Equal(t, "[filters: [numbers.number (#0) = 1], limit: NONE]", p.String())

	p = PushDownInfo{Limit: pointer.Uint64(3)}
	assert.Equal(t, "[filters: [], limit: 3]", p.String())

	clone := p.Clone()
	*clone.Limit = 4
	assert.Equal(t, uint64(3), *p.Limit)
}
