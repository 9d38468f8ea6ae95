package source

import (
	"strings"

	"sql-explain/config"
	"sql-explain/errcode"
	"sql-explain/rows"
	"sql-explain/util/conv"
)

// numbers 的数据按需生成，Read 时限制最大行数
const maxGeneratedRows = 1 << 20

type numbersSource struct {
	count     uint64
	blockSize uint64
}

// newNumbers builds numbers(N): one UInt64 column holding 0..N-1.
func newNumbers(args []string, conf config.SQLConf) (Source, error) {
	if len(args) != 1 {
		return nil, errcode.Newf(errcode.BadArguments, "numbers expects 1 argument, got %d", len(args))
	}
	count, ok := conv.Uint64(strings.TrimSpace(args[0]))
	if !ok {
		return nil, errcode.Newf(errcode.BadArguments, "numbers: invalid row count %q", args[0])
	}
	return NewNumbers(count, conf.Numbers.BlockSize), nil
}

func NewNumbers(count, blockSize uint64) Source {
	if blockSize == 0 {
		blockSize = 1
	}
	return &numbersSource{count: count, blockSize: blockSize}
}

func (n *numbersSource) Catalog() string  { return "default" }
func (n *numbersSource) Database() string { return "system" }
func (n *numbersSource) Name() string     { return "numbers" }

func (n *numbersSource) Schema() []rows.StructField {
	return buildSchema([]string{"number"}, []rows.DataType{rows.UInt64})
}

func (n *numbersSource) NumRows() uint64       { return n.count }
func (n *numbersSource) NumPartitions() uint64 { return conv.CeilDiv(n.count, n.blockSize) }

// 过滤条件只用于提示，不保证结果精确
func (n *numbersSource) Capabilities() Capabilities {
	return Capabilities{Filter: Inexact, Limit: true}
}

// numbers 不提供列统计信息
func (n *numbersSource) ColumnStatistics(int) (ColumnStatistics, bool) {
	return ColumnStatistics{}, false
}

func (n *numbersSource) PartStatistics(req ScanRequest) PartStatistics {
	if req.PushDown.IsEmptyResult() {
		return PartStatistics{}
	}
	readRows := n.count
	if req.PushDown.Limit != nil && len(req.PushDown.Filters) == 0 && *req.PushDown.Limit < readRows {
		readRows = *req.PushDown.Limit
	}
	return PartStatistics{
		ReadRows:          readRows,
		ReadBytes:         readRows * RowWidth(n, req.Columns),
		PartitionsTotal:   n.NumPartitions(),
		PartitionsScanned: conv.CeilDiv(readRows, n.blockSize),
	}
}

func (n *numbersSource) Read(req ScanRequest) ([]rows.Row, error) {
	if n.count > maxGeneratedRows {
		return nil, errcode.Newf(errcode.BadArguments, "numbers(%d) is too large to read", n.count)
	}
	data := make([][]interface{}, n.count)
	for i := range data {
		data[i] = []interface{}{uint64(i)}
	}
	return filterRows(data, req)
}
