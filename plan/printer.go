package plan

import (
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"sql-explain/expression"
	"sql-explain/source"
	"sql-explain/util/pointer"
)

// Explain renders the annotated plan as an indented tree.
func Explain(q *Query) string {
	p := &printer{md: q.Metadata}
	return p.asTree(q.Root, nil, "").String()
}

type printer struct {
	md *Metadata
}

// asTree adds p below root, or starts a new tree when root is nil. suffix is
// appended to the node label.
func (pr *printer) asTree(p Plan, root treeprint.Tree, suffix string) treeprint.Tree {
	label, attrs := pr.describe(p)
	label += suffix
	var branch treeprint.Tree
	if root == nil {
		branch = treeprint.NewWithRoot(label)
	} else {
		branch = root.AddBranch(label)
	}
	for _, attr := range attrs {
		branch.AddNode(attr)
	}
	if _, ok := p.(*DummyTableScan); !ok {
		branch.AddNode(fmt.Sprintf("estimated rows: %.2f", p.EstimatedRows()))
	}
	if j, ok := p.(*Join); ok {
		pr.asTree(j.Right, branch, "(Build)")
		pr.asTree(j.Left, branch, "(Probe)")
		return branch
	}
	for _, child := range p.GetChildren() {
		pr.asTree(*child, branch, "")
	}
	return branch
}

func (pr *printer) describe(p Plan) (string, []string) {
	switch t := p.(type) {
	case *TableScan:
		attrs := []string{
			"table: " + source.FullName(t.Source),
			fmt.Sprintf("read rows: %d", t.Statistics.ReadRows),
			fmt.Sprintf("read bytes: %d", t.Statistics.ReadBytes),
			fmt.Sprintf("partitions total: %d", t.Statistics.PartitionsTotal),
			fmt.Sprintf("partitions scanned: %d", t.Statistics.PartitionsScanned),
			"push downs: " + t.PushDown.String(),
		}
		if !t.ReadsAllColumns() {
			attrs = append(attrs, "output columns: ["+pr.names(t.Columns.Ordered(), false)+"]")
		}
		return "TableScan", attrs
	case *DummyTableScan:
		return "DummyTableScan", nil
	case *Filter:
		return "Filter", []string{"filters: [" + expression.PrintList(t.Predicates) + "]"}
	case *EvalScalar:
		exprs := make([]expression.Expression, len(t.Items))
		for i, item := range t.Items {
			exprs[i] = item.Expr
		}
		return "EvalScalar", []string{"expressions: [" + expression.PrintList(exprs) + "]"}
	case *Limit:
		return "Limit", []string{
			"limit: " + pointer.Uint64String(t.Limit),
			fmt.Sprintf("offset: %d", t.Offset),
		}
	case *Sort:
		keys := make([]string, len(t.Keys))
		for i, k := range t.Keys {
			order, nulls := "ASC", "NULLS LAST"
			if !k.Asc {
				order = "DESC"
			}
			if k.NullsFirst {
				nulls = "NULLS FIRST"
			}
			keys[i] = pr.name(k.ID, false) + " " + order + " " + nulls
		}
		return "Sort", []string{"sort keys: [" + strings.Join(keys, ", ") + "]"}
	case *Aggregate:
		funcs := make([]string, len(t.Functions))
		for i, f := range t.Functions {
			funcs[i] = f.Func + "(" + pr.names(f.Args, true) + ")"
		}
		return "Aggregate", []string{
			"group by: [" + pr.names(t.GroupBy, false) + "]",
			"aggregate functions: [" + strings.Join(funcs, ", ") + "]",
		}
	case *Join:
		return "HashJoin", []string{
			"join type: " + t.Kind.String(),
			"build keys: [" + expression.PrintList(t.RightKeys) + "]",
			"probe keys: [" + expression.PrintList(t.LeftKeys) + "]",
			"filters: [" + expression.PrintList(t.Others) + "]",
		}
	case *UnionAll:
		return "UnionAll", nil
	}
	panic("unknown plan variant")
}

// name 只显示列名，qualified 时带上表名
func (pr *printer) name(id ColumnID, qualified bool) string {
	c, ok := pr.md.Column(id)
	if !ok {
		return fmt.Sprintf("#%d", id)
	}
	if qualified {
		return c.DisplayName()
	}
	return c.Name
}

func (pr *printer) names(ids []ColumnID, qualified bool) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = pr.name(id, qualified)
	}
	return strings.Join(parts, ", ")
}
