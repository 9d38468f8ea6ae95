// Package optimizer rewrites a bound plan with heuristic push-down rules.
package optimizer

import (
	"log/slog"

	"sql-explain/config"
	"sql-explain/plan"
)

type Strategy int

const (
	Once Strategy = iota
	// FixedPoint 重复执行直到没有规则修改计划，最多 max_iterations 次
	FixedPoint
)

func (s Strategy) String() string {
	if s == Once {
		return "once"
	}
	return "fixed_point"
}

// Rule rewrites the tree of q and returns the new root. A rule may modify the
// tree in place, the optimizer only hands it a private clone.
type Rule interface {
	Name() string
	Apply(q *plan.Query) (plan.Plan, error)
}

type Batch struct {
	Name     string
	Strategy Strategy
	Rules    []Rule
}

type Optimizer struct {
	conf    config.OptimizerConf
	batches []Batch
	logger  *slog.Logger
}

func New(conf config.OptimizerConf) *Optimizer {
	pushDown := []Rule{mergeFilters{}, pushFilterThroughEvalScalar{}, pushFilterThroughSort{},
		pushFilterThroughJoin{}, pushFilterThroughAggregate{}}
	if conf.EnableFilterPushDown {
		pushDown = append(pushDown, pushFilterIntoScan{})
	}
	if conf.EnableLimitPushDown {
		pushDown = append(pushDown, pushLimitIntoScan{})
	}
	batches := []Batch{
		{Name: "normalize", Strategy: Once, Rules: []Rule{foldExpressions{}, mergeFilters{}}},
		{Name: "push_down", Strategy: FixedPoint, Rules: pushDown},
	}
	if conf.EnableColumnPruning {
		batches = append(batches, Batch{Name: "prune", Strategy: Once, Rules: []Rule{pruneColumns{}}})
	}
	batches = append(batches, Batch{Name: "scan_statistics", Strategy: Once, Rules: []Rule{scanStatistics{}}})
	return &Optimizer{
		conf:    conf,
		batches: batches,
		logger:  slog.Default().With("component", "optimizer"),
	}
}

// NewRaw returns an optimizer that keeps the plan as written and only fills in
// the scan statistics.
func NewRaw() *Optimizer {
	return &Optimizer{
		batches: []Batch{{Name: "scan_statistics", Strategy: Once, Rules: []Rule{scanStatistics{}}}},
		logger:  slog.Default().With("component", "optimizer"),
	}
}

// Optimize returns an optimized copy of q. q itself is never modified.
func (o *Optimizer) Optimize(q *plan.Query) (*plan.Query, error) {
	q = q.Clone()
	for _, batch := range o.batches {
		if err := o.executeBatch(q, batch); err != nil {
			return nil, err
		}
	}
	return q, nil
}

func (o *Optimizer) executeBatch(q *plan.Query, batch Batch) error {
	maxIterations := 1
	if batch.Strategy == FixedPoint {
		maxIterations = max(o.conf.MaxIterations, 1)
	}
	for i := 1; i <= maxIterations; i++ {
		changed := false
		for _, rule := range batch.Rules {
			before := fingerprint(q)
			root, err := rule.Apply(q)
			if err != nil {
				return err
			}
			q.Root = root
			if fingerprint(q) != before {
				changed = true
				o.logger.Debug("rule applied", "batch", batch.Name, "rule", rule.Name(), "iteration", i)
			}
		}
		if !changed {
			return nil
		}
	}
	if batch.Strategy == FixedPoint {
		o.logger.Warn("batch did not reach a fixed point", "batch", batch.Name, "max_iterations", maxIterations)
	}
	return nil
}

func fingerprint(q *plan.Query) string {
	return plan.Explain(q)
}
