package report

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Engine compiles and executes report specs. It is stateless between calls:
// all per-request state is passed as arguments, so concurrent report
// requests execute independently. It performs 2-3 sequential storage round
// trips per generation and takes no locks; read skew between the count and
// the page fetch is accepted.
type Engine struct {
	store    Store
	registry *Registry
	logger   *zap.Logger
}

// NewEngine creates a report engine over the given storage capability and
// entity registry.
func NewEngine(store Store, registry *Registry, logger *zap.Logger) *Engine {
	return &Engine{store: store, registry: registry, logger: logger}
}

// Registry exposes the entity configurations, used by the fields endpoint.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Generate runs one paginated report generation: filter compilation,
// dimension/measure resolution, grouped pagination, and result formatting.
func (e *Engine) Generate(ctx context.Context, scope AccessScope, spec *Spec) (*Result, error) {
	return e.generate(ctx, scope, spec, false)
}

// GenerateAll runs the unpaginated "for-save" variant used when persisting a
// snapshot alongside a report config. The series shape is identical to
// Generate's; PageInfo collapses to a single page holding every group.
func (e *Engine) GenerateAll(ctx context.Context, scope AccessScope, spec *Spec) (*Result, error) {
	return e.generate(ctx, scope, spec, true)
}

func (e *Engine) generate(ctx context.Context, scope AccessScope, spec *Spec, all bool) (*Result, error) {
	if spec.Dimension == "" {
		return nil, ErrMissingDimension
	}
	if spec.Measure == "" {
		return nil, ErrMissingMeasure
	}

	cfg, err := e.registry.Get(spec.Entity)
	if err != nil {
		return nil, err
	}

	page, pageSize := normalizePage(spec.Page, spec.PageSize)
	dialect := e.store.Dialect()
	joins := newJoinSet()

	dim, err := resolveDimension(cfg, dialect, spec.Dimension, spec.DateBucket, joins)
	if err != nil {
		return nil, err
	}

	var seg *resolvedDimension
	if spec.SegmentBy != "" {
		seg, err = resolveDimension(cfg, dialect, spec.SegmentBy, BucketNone, joins)
		if err != nil {
			return nil, err
		}
	}

	measure, err := planMeasure(cfg, dialect, spec.Measure)
	if err != nil {
		return nil, err
	}

	filter, err := buildFilter(cfg, spec.Filter, joins)
	if err != nil {
		return nil, err
	}

	// Ownership scope first, then the compiled filter, then the
	// unconditional null exclusion on the dimension column.
	where := scope.predicate(cfg).And(filter).And(dim.notNull())

	rows, pageInfo, err := e.fetchGroups(ctx, groupPage{
		cfg:      cfg,
		dim:      dim,
		seg:      seg,
		measure:  measure,
		where:    where,
		joins:    joins.clauses,
		page:     page,
		pageSize: pageSize,
		all:      all,
	})
	if err != nil {
		return nil, err
	}

	totalRecords, err := e.store.CountDistinct(ctx, CountQuery{
		Table: cfg.Table,
		Expr:  cfg.PrimaryKey,
		Joins: joins.clauses,
		Where: where,
	})
	if err != nil {
		return nil, fmt.Errorf("counting report records: %w", err)
	}

	var series []SeriesPoint
	var total float64
	if seg != nil {
		series, total = formatSegmented(rows, dim.HasID, dim.IsDate)
	} else {
		series, total = formatFlat(rows, dim.HasID)
	}

	e.logger.Debug("report generated",
		zap.String("entity", spec.Entity),
		zap.String("dimension", spec.Dimension),
		zap.String("measure", spec.Measure),
		zap.Bool("segmented", seg != nil),
		zap.Int64("groups", pageInfo.TotalItems),
		zap.Int("points", len(series)),
	)

	return &Result{
		Series:     series,
		PageInfo:   pageInfo,
		TotalValue: round2(total),
		Summary:    summarize(series, totalRecords, pageInfo.TotalItems, total),
	}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
