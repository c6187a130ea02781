package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/straye-as/insight-api/internal/report"
	"gorm.io/gorm"
)

// ReportStore implements the engine's storage capability on GORM. It only
// composes the two grouped-aggregation calls the engine needs; everything
// query-shaped (expressions, predicates, joins) arrives prebuilt.
type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Dialect reports the connected database's dialect name.
func (s *ReportStore) Dialect() string {
	return s.db.Dialector.Name()
}

// CountDistinct counts distinct values of the group expression matching the
// filter.
func (s *ReportStore) CountDistinct(ctx context.Context, q report.CountQuery) (int64, error) {
	query := s.db.WithContext(ctx).
		Table(q.Table).
		Select("COUNT(DISTINCT " + q.Expr + ")")
	query = applyQueryParts(query, q.Joins, q.Where)

	var total int64
	if err := query.Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count distinct groups: %w", err)
	}
	return total, nil
}

// FindGrouped executes one grouped aggregation round trip and scans the raw
// grouped rows.
func (s *ReportStore) FindGrouped(ctx context.Context, q report.GroupQuery) ([]report.GroupRow, error) {
	query := s.db.WithContext(ctx).
		Table(q.Table).
		Select(strings.Join(q.Selects, ", "))
	query = applyQueryParts(query, q.Joins, q.Where)

	if len(q.GroupBy) > 0 {
		query = query.Group(strings.Join(q.GroupBy, ", "))
	}
	if q.Order != "" {
		query = query.Order(q.Order)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit).Offset(q.Offset)
	}

	var rows []report.GroupRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch grouped rows: %w", err)
	}
	return rows, nil
}

func applyQueryParts(query *gorm.DB, joins []string, where report.Predicate) *gorm.DB {
	for _, join := range joins {
		query = query.Joins(join)
	}
	if !where.IsZero() {
		query = query.Where(where.SQL, where.Args...)
	}
	return query
}
