// Package parser reads bound logical plans written in the plan notation:
//
//	project #0, #1
//	filter numbers.number#0 = 1
//	  eval numbers.number#0 + 1 as b
//	    scan numbers(1)
//
// One operator per line, children indented below their parent. Column ids are
// allocated while binding, children before their parent, so the ids in the
// text must follow that order. Lines starting with -- are comments.
package parser

import (
	"runtime"
	"strings"

	"sql-explain/errcode"
	"sql-explain/expression"
	"sql-explain/plan"
	"sql-explain/rows"
	"sql-explain/source"
)

type node struct {
	indent   int
	tokens   []token
	children []*node
}

func (n *node) op() string {
	return strings.ToLower(n.tokens[0].Value)
}

// Parse binds text against catalog.
func Parse(text string, catalog *source.Catalog) (q *plan.Query, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if _, isRuntime := r.(runtime.Error); !ok || isRuntime {
				panic(r)
			}
			q, err = nil, e
		}
	}()
	roots, err := buildTree(text)
	if err != nil {
		return nil, err
	}
	var project *node
	if len(roots) > 0 && roots[0].op() == "project" {
		project = roots[0]
		if len(project.children) > 0 {
			roots = append(project.children, roots[1:]...)
		} else {
			roots = roots[1:]
		}
	}
	if len(roots) != 1 {
		return nil, errcode.Newf(errcode.SemanticError, "plan must have exactly one root operator, got %d", len(roots))
	}

	b := &binder{md: plan.NewMetadata(), catalog: catalog}
	q = &plan.Query{Metadata: b.md}
	q.Root = b.bind(roots[0])
	if project != nil {
		p := b.lineParser(project, plan.OutputColumns(q.Root))
		for {
			q.Output = append(q.Output, p.wantColumnRef().ID)
			if !p.got(_Comma) {
				break
			}
		}
		p.want(_EOF)
	}
	return q, nil
}

// buildTree 按缩进把行组织成树
func buildTree(text string) ([]*node, error) {
	var roots, stack []*node
	for i, raw := range strings.Split(text, "\n") {
		// \t 都换为 4 个空格
		raw = strings.TrimRight(strings.ReplaceAll(raw, "\t", "    "), " \r")
		content := strings.TrimLeft(raw, " ")
		if content == "" {
			continue
		}
		indent := len(raw) - len(content)
		tokens, err := newScanner(content, i+1, indent).tokens()
		if err != nil {
			return nil, err
		}
		if len(tokens) == 0 {
			continue
		}
		if tokens[0].Type != _Name {
			return nil, errcode.Newf(errcode.SemanticError, "expect operator name, got %q at (%d, %d)",
				tokens[0].Value, tokens[0].row, tokens[0].col)
		}
		n := &node{indent: indent, tokens: tokens}
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}
	return roots, nil
}

type binder struct {
	md      *plan.Metadata
	catalog *source.Catalog
}

// lineParser 返回跳过操作符名字的解析器
func (b *binder) lineParser(n *node, input plan.ColumnSet) *parser {
	p := newParser(n.tokens, b.md, input)
	p.want(_Name)
	return p
}

func (b *binder) wantChildren(n *node, count int) []plan.Plan {
	if len(n.children) != count {
		head := n.tokens[0]
		panic(errcode.Newf(errcode.SemanticError, "%s expects %d input(s), got %d at (%d, %d)",
			n.op(), count, len(n.children), head.row, head.col))
	}
	children := make([]plan.Plan, count)
	for i, child := range n.children {
		children[i] = b.bind(child)
	}
	return children
}

func (b *binder) bind(n *node) plan.Plan {
	var result plan.Plan
	var err error
	switch n.op() {
	case "scan":
		b.wantChildren(n, 0)
		result = b.bindScan(n)
	case "dummy":
		b.wantChildren(n, 0)
		b.lineParser(n, plan.ColumnSet{}).want(_EOF)
		result = &plan.DummyTableScan{}
	case "filter":
		child := b.wantChildren(n, 1)[0]
		p := b.lineParser(n, plan.OutputColumns(child))
		preds := p.wantExpressionList()
		p.want(_EOF)
		result, err = plan.NewFilter(child, preds)
	case "eval":
		child := b.wantChildren(n, 1)[0]
		result, err = b.bindEvalScalar(n, child)
	case "limit":
		child := b.wantChildren(n, 1)[0]
		result = b.bindLimit(n, child)
	case "sort":
		child := b.wantChildren(n, 1)[0]
		result = b.bindSort(n, child)
	case "aggregate":
		child := b.wantChildren(n, 1)[0]
		result = b.bindAggregate(n, child)
	case "join":
		children := b.wantChildren(n, 2)
		result = b.bindJoin(n, children[0], children[1])
	case "union":
		children := b.wantChildren(n, 2)
		result, err = b.bindUnion(n, children[0], children[1])
	default:
		head := n.tokens[0]
		err = errcode.Newf(errcode.SemanticError, "unknown operator %s at (%d, %d)", head.Value, head.row, head.col)
	}
	if err != nil {
		panic(err)
	}
	return result
}

// scan <table>|numbers(N) [as alias]
func (b *binder) bindScan(n *node) plan.Plan {
	p := b.lineParser(n, plan.ColumnSet{})
	p.want(_Name)
	input := p.tok().Value
	if p.got(_Lparen) {
		var args []string
		for !p.got(_Rparen) {
			if len(args) > 0 {
				p.want(_Comma)
			}
			p.want(_IntLit)
			args = append(args, p.tok().Value)
		}
		input += "(" + strings.Join(args, ",") + ")"
	}
	alias := ""
	if p.peek().Type == _As {
		_, alias = p.wantAlias()
	}
	p.want(_EOF)
	s, err := b.catalog.Resolve(input)
	if err != nil {
		panic(err)
	}
	return plan.NewScan(b.md, s, alias)
}

// eval <expr> as <name>, ...
func (b *binder) bindEvalScalar(n *node, child plan.Plan) (plan.Plan, error) {
	p := b.lineParser(n, plan.OutputColumns(child))
	var items []plan.ScalarItem
	for {
		expr := p.wantExpression()
		qualifier, name := p.wantAlias()
		id := b.md.AddColumn(qualifier, name, expr.DataType(), -1)
		items = append(items, plan.ScalarItem{Expr: expr, ID: id})
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_EOF)
	return plan.NewEvalScalar(child, items)
}

// limit N|none [offset M]
func (b *binder) bindLimit(n *node, child plan.Plan) plan.Plan {
	p := b.lineParser(n, plan.ColumnSet{})
	var limit *uint64
	if p.got(_Name) {
		if strings.ToLower(p.tok().Value) != "none" {
			p.expectPanic("count or none", p.tok())
		}
	} else {
		count := p.wantUint()
		limit = &count
	}
	var offset uint64
	if p.got(_Offset) {
		offset = p.wantUint()
	}
	p.want(_EOF)
	return plan.NewLimit(child, limit, offset)
}

// sort <ref> [asc|desc] [nulls first|last], ...
func (b *binder) bindSort(n *node, child plan.Plan) plan.Plan {
	p := b.lineParser(n, plan.OutputColumns(child))
	var keys []plan.SortKey
	for {
		key := plan.SortKey{ID: p.wantColumnRef().ID, Asc: true}
		if p.got(_Desc) {
			key.Asc = false
		} else {
			p.got(_Asc)
		}
		if p.got(_Nulls) {
			if p.got(_First) {
				key.NullsFirst = true
			} else {
				p.want(_Last)
			}
		}
		keys = append(keys, key)
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_EOF)
	return &plan.Sort{Keys: keys, Child: child}
}

// aggregate [by <ref>, ...] [compute <func>([<ref>]) [as <name>], ...]
func (b *binder) bindAggregate(n *node, child plan.Plan) plan.Plan {
	p := b.lineParser(n, plan.OutputColumns(child))
	agg := &plan.Aggregate{Child: child}
	if p.got(_By) {
		for {
			agg.GroupBy = append(agg.GroupBy, p.wantColumnRef().ID)
			if !p.got(_Comma) {
				break
			}
		}
	}
	if p.got(_Compute) {
		for {
			agg.Functions = append(agg.Functions, b.wantAggregateFunction(p))
			if !p.got(_Comma) {
				break
			}
		}
	}
	p.want(_EOF)
	return agg
}

func (b *binder) wantAggregateFunction(p *parser) plan.AggregateFunction {
	p.want(_Name)
	f := plan.AggregateFunction{Func: strings.ToLower(p.tok().Value)}
	p.want(_Lparen)
	var argNames []string
	argType := rows.Null
	if !p.got(_Rparen) {
		ref := p.wantColumnRef()
		f.Args = []plan.ColumnID{ref.ID}
		argType = ref.Type
		argNames = append(argNames, ref.Name)
		p.want(_Rparen)
	}
	ret, err := expression.AggregateReturnType(f.Func, argType, len(f.Args) > 0)
	if err != nil {
		panic(err)
	}
	qualifier, name := "", f.Func+"("+strings.Join(argNames, ", ")+")"
	if p.peek().Type == _As {
		qualifier, name = p.wantAlias()
	}
	f.ID = b.md.AddColumn(qualifier, name, ret, -1)
	return f
}

// join inner|left|cross [on <expr>, ...]，第一个子节点为左表
func (b *binder) bindJoin(n *node, left, right plan.Plan) plan.Plan {
	leftCols, rightCols := plan.OutputColumns(left), plan.OutputColumns(right)
	p := b.lineParser(n, leftCols.Union(rightCols))
	join := &plan.Join{Left: left, Right: right}
	p.want(_Name)
	switch kind := strings.ToLower(p.tok().Value); kind {
	case "inner":
		join.Kind = plan.InnerJoin
	case "left":
		join.Kind = plan.LeftJoin
	case "cross":
		join.Kind = plan.CrossJoin
	default:
		p.expectPanic("inner, left or cross", p.tok())
	}
	if p.got(_On) {
		if join.Kind == plan.CrossJoin {
			p.panicAt("cross join does not take conditions", p.tok().pos)
		}
		for _, cond := range p.wantExpressionList() {
			l, r, ok := equiCondition(cond, leftCols, rightCols)
			if ok {
				join.LeftKeys = append(join.LeftKeys, l)
				join.RightKeys = append(join.RightKeys, r)
			} else {
				join.Others = append(join.Others, cond)
			}
		}
	}
	p.want(_EOF)
	return join
}

// equiCondition 识别 l = r，其中两边各自只引用一侧的列
func equiCondition(cond expression.Expression, left, right plan.ColumnSet) (l, r expression.Expression, ok bool) {
	f, isCall := cond.(*expression.FunctionCall)
	if !isCall || f.Name != "eq" {
		return nil, nil, false
	}
	sideOf := func(e expression.Expression) int {
		cols := plan.MakeColumnSet(expression.UsedColumns(e)...)
		switch {
		case cols.Empty():
			return 0
		case cols.SubsetOf(left):
			return 1
		case cols.SubsetOf(right):
			return 2
		}
		return 0
	}
	switch a, c := sideOf(f.Args[0]), sideOf(f.Args[1]); {
	case a == 1 && c == 2:
		return f.Args[0], f.Args[1], true
	case a == 2 && c == 1:
		return f.Args[1], f.Args[0], true
	}
	return nil, nil, false
}

// union 按列 id 顺序一一配对左右两边的输出列
func (b *binder) bindUnion(n *node, left, right plan.Plan) (plan.Plan, error) {
	b.lineParser(n, plan.ColumnSet{}).want(_EOF)
	l, r := plan.OutputColumns(left).Ordered(), plan.OutputColumns(right).Ordered()
	if len(l) != len(r) {
		return nil, errcode.Newf(errcode.SemanticError, "union inputs have %d and %d columns", len(l), len(r))
	}
	union := &plan.UnionAll{Left: left, Right: right}
	for i := range l {
		lc, _ := b.md.Column(l[i])
		rc, _ := b.md.Column(r[i])
		if lc.Type != rc.Type {
			return nil, errcode.Newf(errcode.IllegalDataType, "union column %s has type %s, %s has type %s",
				lc.DisplayName(), lc.Type, rc.DisplayName(), rc.Type)
		}
		union.Pairs = append(union.Pairs, plan.UnionPair{Left: l[i], Right: r[i]})
	}
	return union, nil
}
