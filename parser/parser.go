package parser

import (
	"strconv"
	"strings"

	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/rows"
	"sql-explain/util/conv"
)

// parser 解析一行 plan 文本。出错时 panic 一个 error，由 Parse 统一 recover
type parser struct {
	index  int // 识别的 token 位置
	tokens []token
	md     *plan.Metadata
	// 表达式只能引用子节点输出的列
	input plan.ColumnSet
}

func newParser(tokens []token, md *plan.Metadata, input plan.ColumnSet) *parser {
	return &parser{
		tokens: tokens,
		md:     md,
		input:  input,
	}
}

func (p *parser) wantExpressionList() []expression.Expression {
	result := []expression.Expression{p.wantExpression()}
	for p.got(_Comma) {
		result = append(result, p.wantExpression())
	}
	return result
}

// wantExpression 用调度场算法把中缀表达式转为逆波兰队列，再构建表达式树
func (p *parser) wantExpression() expression.Expression {
	var ops stack[token]
	var queue []queueItem
	startPos := p.peek().pos
	expectOperand := true
	depth := 0
loop:
	for {
		if expectOperand {
			if lit := p.wantLit(false); lit != nil {
				queue = append(queue, queueItem{expr: lit})
			} else if p.got(_Name) || p.got(_Hash) {
				queue = append(queue, queueItem{expr: p.wantOperand()})
			} else if p.got(_Cast) {
				queue = append(queue, queueItem{expr: p.wantCast()})
			} else if p.got(_Lparen) {
				ops.push(p.tok())
				depth++
				continue
			} else if p.got(_Not) {
				// 前缀运算符直接入栈
				ops.push(p.tok())
				continue
			} else {
				p.expectPanic("expression", p.peek())
			}
			expectOperand = false
			continue
		}
		switch {
		case p.got(_Rparen):
			if depth == 0 {
				// ')' 属于外层的函数调用
				p.back()
				break loop
			}
			queue = popOperators(&ops, _Lparen, queue)
			ops.pop()
			depth--
		case p.got(_Is):
			t := _IsNull
			if p.got(_Not) {
				t = _IsNotNull
			}
			p.want(_Null)
			queue = popOperators(&ops, t, queue)
			queue = append(queue, queueItem{op: t})
		case isBinaryOperator(p.peek().Type):
			p.index++
			t := p.tok()
			queue = popOperators(&ops, t.Type, queue)
			ops.push(t)
			expectOperand = true
		default:
			break loop
		}
	}
	if depth != 0 {
		p.expectPanic(")", p.peek())
	}
	// 栈中剩下的运算符依次加入队列
	for {
		top, ok := ops.pop()
		if !ok {
			break
		}
		queue = append(queue, queueItem{op: top.Type})
	}

	// 转为树结构
	var operands stack[expression.Expression]
	for _, item := range queue {
		if item.expr != nil {
			operands.push(item.expr)
			continue
		}
		arity := 2
		if item.op == _Not || item.op == _IsNull || item.op == _IsNotNull {
			arity = 1
		}
		args := make([]expression.Expression, arity)
		for i := arity - 1; i >= 0; i-- {
			arg, ok := operands.pop()
			if !ok {
				p.panicAt("expression is illegal", startPos)
			}
			args[i] = arg
		}
		operands.push(p.newFunction(opFunction[item.op], args...))
	}
	if operands.size() != 1 {
		p.panicAt("expression is illegal", startPos)
	}
	result, _ := operands.pop()
	return result
}

// wantOperand 解析列引用或函数调用，当前 token 是名字或 '#'
func (p *parser) wantOperand() expression.Expression {
	if p.tok().Type == _Name && p.peek().Type == _Lparen {
		return p.wantFunction()
	}
	p.back()
	return p.wantColumnRef()
}

// wantColumnRef 解析 #id 或 display#id，display 只用于阅读，以元数据为准
func (p *parser) wantColumnRef() *expression.ColumnRef {
	p.got(_Name)
	p.want(_Hash)
	p.want(_IntLit)
	at := p.tok()
	id := conv.IntDefault(at.Value, -1)
	if id < 0 {
		p.panicAt("illegal column id "+at.Value, at.pos)
	}
	ref, err := p.md.ColumnRef(plan.ColumnID(id))
	if err != nil {
		panic(err)
	}
	if !p.input.Contains(ref.ID) {
		panic(errcode.Newf(errcode.SemanticError, "column %s is not produced by the input at (%d, %d)",
			ref.Print(), at.row, at.col))
	}
	return ref
}

func (p *parser) wantFunction() expression.Expression {
	funcName := strings.ToLower(p.tok().Value)
	p.want(_Lparen)
	var args []expression.Expression
	if !p.got(_Rparen) {
		args = p.wantExpressionList()
		p.want(_Rparen)
	}
	return p.newFunction(funcName, args...)
}

func (p *parser) newFunction(name string, args ...expression.Expression) expression.Expression {
	f, err := expression.NewFunction(name, args...)
	if err != nil {
		panic(err)
	}
	return f
}

func (p *parser) wantCast() expression.Expression {
	p.want(_Lparen)
	expr := p.wantExpression()
	p.want(_As)
	p.want(_Name)
	dataType, err := rows.ParseDataType(p.tok().Value)
	if err != nil {
		panic(errcode.Wrap(err, errcode.IllegalDataType))
	}
	p.want(_Rparen)
	return expression.NewCast(expr, dataType)
}

// wantLit 非负整数为 UInt64，负整数为 Int64
func (p *parser) wantLit(needPanic bool) *expression.Literal {
	if p.got(_Null) {
		return expression.Null()
	}
	negative := false
	if p.peek().Type == _Sub && p.index+1 < len(p.tokens) {
		if next := p.tokens[p.index+1].Type; next == _IntLit || next == _FloatLit {
			p.index++
			negative = true
		}
	}
	if p.got(_IntLit) {
		value := p.tok().Value
		if negative {
			n, err := strconv.ParseInt("-"+value, 10, 64)
			if err != nil {
				p.panicAt("integer out of range: -"+value, p.tok().pos)
			}
			return expression.NewLiteral(n)
		}
		n, ok := conv.Uint64(value)
		if !ok {
			p.panicAt("integer out of range: "+value, p.tok().pos)
		}
		return expression.NewLiteral(n)
	} else if p.got(_FloatLit) {
		n, _ := strconv.ParseFloat(p.tok().Value, 64)
		if negative {
			n = -n
		}
		return expression.NewLiteral(n)
	} else if p.got(_StringLit) {
		return expression.NewLiteral(p.tok().Value)
	} else if p.got(_BooleanLit) {
		return expression.NewLiteral(strings.ToLower(p.tok().Value) == "true")
	}
	if needPanic {
		p.expectPanic("literal", p.peek())
	}
	return nil
}

// wantUint 解析一个非负整数
func (p *parser) wantUint() uint64 {
	p.want(_IntLit)
	n, ok := conv.Uint64(p.tok().Value)
	if !ok {
		p.panicAt("integer out of range: "+p.tok().Value, p.tok().pos)
	}
	return n
}

// wantAlias 解析 as 之后的名字，qualifier.name 或者带引号的任意名字
func (p *parser) wantAlias() (qualifier, name string) {
	p.want(_As)
	if p.got(_StringLit) {
		return "", p.tok().Value
	}
	p.want(_Name)
	name = p.tok().Value
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func (p *parser) got(tok tokenType) bool {
	if p.peek().Type == tok {
		p.index += 1
		return true
	}
	return false
}

func (p *parser) want(tok tokenType) {
	if !p.got(tok) {
		p.expectPanic(tokensName[tok], p.peek())
	}
}

func (p *parser) back() {
	if p.index != 0 {
		p.index -= 1
	}
}

func (p *parser) tok() token {
	if p.index < 1 || p.index > len(p.tokens) {
		return token{
			Type:  _EOF,
			Value: "EOF",
		}
	}
	return p.tokens[p.index-1]
}

func (p *parser) peek() token {
	if p.index < 0 || p.index >= len(p.tokens) {
		var at pos
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			at = pos{row: last.row, col: last.col + len(last.Value)}
		}
		return token{
			pos:   at,
			Type:  _EOF,
			Value: "EOF",
		}
	}
	return p.tokens[p.index]
}

func (p *parser) expectPanic(msg string, tok token) {
	panic(errcode.Newf(errcode.SemanticError, "expect %s, got (%s: %s) at (%d, %d)",
		msg, tok.Value, tokensName[tok.Type], tok.row, tok.col))
}

func (p *parser) panicAt(msg string, position pos) {
	panic(errcode.Newf(errcode.SemanticError, "%s at (%d, %d)", msg, position.row, position.col))
}
