package parser

type tokenType int

const (
	_EOF tokenType = iota
	_IntLit
	_FloatLit
	_StringLit
	_BooleanLit
	_Comment
	_Comma
	_Name
	_Hash // #

	_Lparen // (
	_Rparen // )
	_Add
	_Sub
	_Mul
	_Div
	_Rem // %
	_Eql // =
	_Neq // != 或 <>
	_Lss // <
	_Gtr // >
	_Leq // <=
	_Geq // >=

	// 只出现在表达式栈里，由 is [not] null 生成
	_IsNull
	_IsNotNull

	// keywords
	_As
	_By
	_On
	_Cast
	_Compute
	_Offset
	_Is
	_Not
	_Null
	_Or
	_And
	_Asc
	_Desc
	_Nulls
	_First
	_Last
	_True
	_False
)

type pos struct {
	row int
	col int
}

type token struct {
	pos
	Type  tokenType
	Value string
}

// 运算符优先级
var opPriority = map[tokenType]int{
	_Or:  1,
	_And: 2,
	_Not: 3,

	_Leq:       4,
	_Lss:       4,
	_Eql:       4,
	_Gtr:       4,
	_Geq:       4,
	_Neq:       4,
	_Is:        4,
	_IsNull:    4,
	_IsNotNull: 4,

	_Add: 5,
	_Sub: 5,
	_Mul: 6,
	_Div: 6,
	_Rem: 6,
}

func opGreat(op1, op2 tokenType) bool {
	return opPriority[op1] > opPriority[op2]
}

// 运算符对应的函数
var opFunction = map[tokenType]string{
	_Or:        "or",
	_And:       "and",
	_Not:       "not",
	_Leq:       "lte",
	_Lss:       "lt",
	_Eql:       "eq",
	_Gtr:       "gt",
	_Geq:       "gte",
	_Neq:       "noteq",
	_Add:       "plus",
	_Sub:       "minus",
	_Mul:       "multiply",
	_Div:       "divide",
	_Rem:       "modulo",
	_IsNull:    "is_null",
	_IsNotNull: "is_not_null",
}

func isBinaryOperator(t tokenType) bool {
	_, ok := opFunction[t]
	return ok && t != _Not && t != _IsNull && t != _IsNotNull
}

var keywordMap = map[string]tokenType{
	"as":      _As,
	"by":      _By,
	"on":      _On,
	"cast":    _Cast,
	"compute": _Compute,
	"offset":  _Offset,
	"is":      _Is,
	"not":     _Not,
	"null":    _Null,
	"or":      _Or,
	"and":     _And,
	"asc":     _Asc,
	"desc":    _Desc,
	"nulls":   _Nulls,
	"first":   _First,
	"last":    _Last,
	"true":    _True,
	"false":   _False,
}

var tokensName = map[tokenType]string{
	_Name:       "name",
	_IntLit:     "intLit",
	_FloatLit:   "floatLit",
	_StringLit:  "stringLit",
	_BooleanLit: "booleanLit",
	_Comment:    "--",
	_Comma:      ",",
	_Hash:       "#",
	_EOF:        "EOF",
	_Lparen:     "(",
	_Rparen:     ")",
	_Add:        "+",
	_Sub:        "-",
	_Mul:        "*",
	_Div:        "/",
	_Rem:        "%",
	_Eql:        "=",
	_Neq:        "!=",
	_Lss:        "<",
	_Gtr:        ">",
	_Leq:        "<=",
	_Geq:        ">=",
	_IsNull:     "is null",
	_IsNotNull:  "is not null",
	_As:         "as",
	_By:         "by",
	_On:         "on",
	_Cast:       "cast",
	_Compute:    "compute",
	_Offset:     "offset",
	_Is:         "is",
	_Not:        "not",
	_Null:       "null",
	_Or:         "or",
	_And:        "and",
	_Asc:        "asc",
	_Desc:       "desc",
	_Nulls:      "nulls",
	_First:      "first",
	_Last:       "last",
	_True:       "true",
	_False:      "false",
}
