// Package planner runs the explain pipeline: read a bound plan, optimize it,
// estimate every node and render the result.
package planner

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"sql-explain/config"
	"sql-explain/optimizer"
	"sql-explain/parser"
	"sql-explain/plan"
	"sql-explain/source"
	"sql-explain/stats"
)

type Options struct {
	// Raw 跳过优化，只补充 scan 统计信息和估算行数
	Raw bool
}

// Planner is safe to share between goroutines, every call works on its own
// copy of the plan.
type Planner struct {
	catalog   *source.Catalog
	optimizer *optimizer.Optimizer
	raw       *optimizer.Optimizer
	estimator *stats.Estimator
	logger    *slog.Logger
}

func New(conf config.SQLConf) (*Planner, error) {
	catalog, err := source.NewCatalog(conf)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog")
	}
	return &Planner{
		catalog:   catalog,
		optimizer: optimizer.New(conf.Optimizer),
		raw:       optimizer.NewRaw(),
		estimator: stats.NewEstimator(conf.Estimator),
		logger:    slog.Default().With("component", "planner"),
	}, nil
}

func (p *Planner) Catalog() *source.Catalog {
	return p.catalog
}

// Plan reads text and returns the optimized, annotated query.
func (p *Planner) Plan(text string, opts Options) (*plan.Query, error) {
	start := time.Now()
	q, err := parser.Parse(text, p.catalog)
	if err != nil {
		return nil, errors.Wrap(err, "read plan")
	}
	p.logger.Debug("plan read", "columns", q.Metadata.Len(), "elapsed", time.Since(start))
	return p.PlanQuery(q, opts)
}

// PlanQuery optimizes and annotates an already bound query. q is not
// modified.
func (p *Planner) PlanQuery(q *plan.Query, opts Options) (*plan.Query, error) {
	start := time.Now()
	o := p.optimizer
	if opts.Raw {
		o = p.raw
	}
	optimized, err := o.Optimize(q)
	if err != nil {
		return nil, errors.Wrap(err, "optimize")
	}
	p.logger.Debug("plan optimized", "raw", opts.Raw, "elapsed", time.Since(start))
	p.estimator.Annotate(optimized)
	return optimized, nil
}

// Explain returns the EXPLAIN text of the plan written in text.
func (p *Planner) Explain(text string, opts Options) (string, error) {
	q, err := p.Plan(text, opts)
	if err != nil {
		return "", err
	}
	return plan.Explain(q), nil
}
