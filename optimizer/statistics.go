package optimizer

import (
	"sql-explain/plan"
	"sql-explain/source"
)

// scanStatistics asks every source how much it reads under the final
// push-down and column set.
type scanStatistics struct{}

func (scanStatistics) Name() string { return "ScanStatistics" }

func (scanStatistics) Apply(q *plan.Query) (plan.Plan, error) {
	return plan.Transform(q.Root, func(p plan.Plan) (plan.Plan, error) {
		scan, ok := p.(*plan.TableScan)
		if !ok {
			return p, nil
		}
		if scan.PushDown.IsEmptyResult() {
			scan.Statistics = source.PartStatistics{}
		} else {
			scan.Statistics = scan.Source.PartStatistics(scan.ScanRequest())
		}
		return scan, nil
	})
}
