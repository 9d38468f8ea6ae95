package planner

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-explain/config"
	"sql-explain/errcode"
	"sql-explain/plan"
)

func testConf() config.SQLConf {
	conf := config.Default()
	conf.Tables = []config.TableConf{{
		Name:           "t",
		Database:       config.DefaultDatabase,
		Columns:        []config.ColumnConf{{Name: "a", Type: "bigint"}, {Name: "b", Type: "bigint"}},
		Rows:           [][]interface{}{{1, 10}, {2, 20}, {3, 30}, {4, 40}},
		PartitionSize:  2,
		FilterPushDown: "exact",
		LimitPushDown:  true,
	}}
	return conf
}

func TestExplain(t *testing.T) {
	p, err := New(testConf())
	require.NoError(t, err)

	datadriven.RunTest(t, "testdata/explain", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "explain":
			opts := Options{Raw: d.HasArg("raw")}
			q, err := p.Plan(d.Input, opts)
			if err != nil {
				d.Fatalf(t, "%v", err)
			}
			out := plan.Explain(q)
			if !opts.Raw {
				// 优化结果再优化一次不应有变化
				again, err := p.PlanQuery(q, opts)
				require.NoError(t, err)
				if diff := cmp.Diff(out, plan.Explain(again)); diff != "" {
					t.Errorf("optimizer is not idempotent (-first +second):\n%s", diff)
				}
			}
			return out

		case "error":
			_, err := p.Explain(d.Input, Options{})
			if err == nil {
				d.Fatalf(t, "expected an error")
			}
			return fmt.Sprintf("error: %s", errcode.Of(err))

		default:
			d.Fatalf(t, "unsupported command %s", d.Cmd)
			return ""
		}
	})
}

func TestPlanDoesNotModifyInput(t *testing.T) {
	p, err := New(config.Default())
	require.NoError(t, err)
	q, err := p.Plan("filter numbers.number#0 = 1\n  eval numbers.number#0 + 1 as b\n    scan numbers(1)", Options{Raw: true})
	require.NoError(t, err)
	before := plan.Explain(q)

	optimized, err := p.PlanQuery(q, Options{})
	require.NoError(t, err)
	assert.Equal(t, before, plan.Explain(q))
	assert.IsType(t, &plan.EvalScalar{}, optimized.Root)
}

func TestNewRejectsBadTables(t *testing.T) {
	conf := config.Default()
	conf.Tables = []config.TableConf{{
		Name:    "t",
		Columns: []config.ColumnConf{{Name: "a", Type: "blob"}},
	}}
	_, err := New(conf)
	require.Error(t, err)
	assert.Equal(t, errcode.IllegalDataType, errcode.Of(err))
}
