package rows

import (
	"fmt"
	"strconv"
	"strings"
)

type DataType int

const (
	Null DataType = iota // type of a bare NULL literal, compatible with every type
	Boolean
	UInt64
	Int64
	Float64
	String
)

var DataTypeName = map[DataType]string{
	Null:    "NULL",
	Boolean: "Boolean",
	UInt64:  "UInt64",
	Int64:   "Int64",
	Float64: "Float64",
	String:  "String",
}

// 用于 cast 函数名: to_float64, to_int64 ...
var castSuffix = map[DataType]string{
	Boolean: "boolean",
	UInt64:  "uint64",
	Int64:   "int64",
	Float64: "float64",
	String:  "string",
}

func (t DataType) String() string {
	if name, ok := DataTypeName[t]; ok {
		return name
	}
	return "DataType(" + strconv.Itoa(int(t)) + ")"
}

// CastFunctionName returns the name a cast to t is rendered with.
func (t DataType) CastFunctionName() string {
	return "to_" + castSuffix[t]
}

func (t DataType) IsNumeric() bool {
	return t == UInt64 || t == Int64 || t == Float64
}

// Width is the fixed number of bytes a value occupies when read from storage.
// Strings have no fixed width, an average is used.
func (t DataType) Width() uint64 {
	switch t {
	case Boolean:
		return 1
	case UInt64, Int64, Float64:
		return 8
	case String:
		return 16
	}
	return 0
}

// ParseDataType accepts both the canonical names and the short aliases used by
// the plan notation and configuration files.
func ParseDataType(s string) (DataType, error) {
	switch strings.ToLower(s) {
	case "boolean", "bool":
		return Boolean, nil
	case "uint64", "ubigint":
		return UInt64, nil
	case "int64", "bigint", "int":
		return Int64, nil
	case "float64", "double", "float":
		return Float64, nil
	case "string", "varchar":
		return String, nil
	}
	return Null, fmt.Errorf("unknown data type %q", s)
}

type StructField struct {
	Name     string
	DataType DataType
}

type Dataset struct {
	Data   []Row
	Schema []StructField
}

func (d *Dataset) String() string {
	sb := strings.Builder{}
	for _, row := range d.Data {
		for i, field := range d.Schema {
			sb.WriteString(field.Name + ": ")
			sb.WriteString(FormatValue(row.IndexOf(i)))
			if i != len(d.Schema)-1 {
				sb.WriteString(", ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatValue renders a scalar the way literals are displayed in plans.
func FormatValue(v interface{}) string {
	switch actual := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + actual + "'"
	case bool:
		if actual {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(actual, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(actual, 10)
	case uint64:
		return strconv.FormatUint(actual, 10)
	}
	return fmt.Sprintf("%v", v)
}
