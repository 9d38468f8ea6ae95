package expression

import (
	"strconv"
	"strings"

	"sql-explain/rows"
)

func (c *ColumnRef) Print() string {
	name := c.Name
	if c.Qualifier != "" {
		name = c.Qualifier + "." + c.Name
	}
	return name + " (#" + strconv.Itoa(int(c.ID)) + ")"
}

func (l *Literal) Print() string {
	return rows.FormatValue(l.Value)
}

func (c *Cast) Print() string {
	return c.Target.CastFunctionName() + "(" + c.Child.Print() + ")"
}

func (f *FunctionCall) Print() string {
	fn := FuncMap[f.Name]
	if fn != nil && fn.Infix != "" {
		switch len(f.Args) {
		case 1:
			return fn.Infix + " " + printOperand(f.Args[0])
		case 2:
			return printOperand(f.Args[0]) + " " + fn.Infix + " " + printOperand(f.Args[1])
		}
	}
	sb := strings.Builder{}
	sb.WriteString(f.Name)
	sb.WriteString("(")
	for i, arg := range f.Args {
		sb.WriteString(arg.Print())
		if i != len(f.Args)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString(")")
	return sb.String()
}

// 中缀运算符作为操作数时加括号
func printOperand(e Expression) string {
	if f, ok := e.(*FunctionCall); ok {
		if fn := FuncMap[f.Name]; fn != nil && fn.Infix != "" {
			return "(" + f.Print() + ")"
		}
	}
	return e.Print()
}

// PrintList joins expressions with ", ".
func PrintList(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.Print()
	}
	return strings.Join(parts, ", ")
}
