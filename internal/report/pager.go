package report

import (
	"context"
	"fmt"
)

// DefaultPageSize is used when a spec does not set one.
const DefaultPageSize = 20

// MaxPageSize is the maximum allowed page size for paginated report queries.
const MaxPageSize = 200

// groupPage is the input to one grouped-pager run.
type groupPage struct {
	cfg      *EntityConfig
	dim      *resolvedDimension
	seg      *resolvedDimension
	measure  string
	where    Predicate
	joins    []string
	page     int
	pageSize int
	all      bool // unpaginated "for-save" variant
}

// fetchGroups paginates over distinct group keys. Unsegmented reports run a
// single grouped query with LIMIT/OFFSET; segmented reports must first fetch
// the page of dimension keys and then re-query restricted to those keys,
// because one group fans out into one row per segment value and a direct
// LIMIT/OFFSET on the grouped query would cut groups mid-way.
func (e *Engine) fetchGroups(ctx context.Context, in groupPage) ([]GroupRow, PageInfo, error) {
	totalItems, err := e.store.CountDistinct(ctx, CountQuery{
		Table: in.cfg.Table,
		Expr:  in.dim.KeyExpr,
		Joins: in.joins,
		Where: in.where,
	})
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("counting report groups: %w", err)
	}

	info := buildPageInfo(totalItems, in.page, in.pageSize, in.all)
	if totalItems == 0 {
		return nil, info, nil
	}

	order := e.orderClause(in.dim, in.measure)

	if in.seg == nil {
		rows, err := e.store.FindGrouped(ctx, GroupQuery{
			Table:   in.cfg.Table,
			Selects: selectList(in.dim, nil, in.measure),
			Joins:   in.joins,
			Where:   in.where,
			GroupBy: []string{in.dim.KeyExpr},
			Order:   order,
			Limit:   in.limit(),
			Offset:  in.offset(),
		})
		if err != nil {
			return nil, PageInfo{}, fmt.Errorf("fetching report groups: %w", err)
		}
		return rows, info, nil
	}

	where := in.where
	if !in.all {
		// Segmented: fetch this page's distinct dimension keys first.
		keyRows, err := e.store.FindGrouped(ctx, GroupQuery{
			Table:   in.cfg.Table,
			Selects: []string{in.dim.KeyExpr + " AS x_key"},
			Joins:   in.joins,
			Where:   in.where,
			GroupBy: []string{in.dim.KeyExpr},
			Order:   order,
			Limit:   in.limit(),
			Offset:  in.offset(),
		})
		if err != nil {
			return nil, PageInfo{}, fmt.Errorf("fetching report page keys: %w", err)
		}
		if len(keyRows) == 0 {
			return nil, info, nil
		}

		keys := make([]string, 0, len(keyRows))
		hasNull := false
		for _, row := range keyRows {
			if row.XKey.Valid {
				keys = append(keys, row.XKey.String)
			} else {
				hasNull = true
			}
		}
		where = in.where.And(keyRestriction(in.dim.KeyExpr, keys, hasNull))
	}

	rows, err := e.store.FindGrouped(ctx, GroupQuery{
		Table:   in.cfg.Table,
		Selects: selectList(in.dim, in.seg, in.measure),
		Joins:   in.joins,
		Where:   where,
		GroupBy: []string{in.dim.KeyExpr, in.seg.KeyExpr},
		Order:   order,
	})
	if err != nil {
		return nil, PageInfo{}, fmt.Errorf("fetching segmented report groups: %w", err)
	}
	return rows, info, nil
}

func (in groupPage) limit() int {
	if in.all {
		return 0
	}
	return in.pageSize
}

func (in groupPage) offset() int {
	if in.all {
		return 0
	}
	return (in.page - 1) * in.pageSize
}

// orderClause orders non-date dimensions by measure value descending.
// Date-bucketed dimensions always order chronologically ascending on the raw
// date column, never by measure, so trend charts read left-to-right in time.
func (e *Engine) orderClause(dim *resolvedDimension, measure string) string {
	if dim.IsDate {
		return "MIN(" + dim.DateColumn + ") ASC"
	}
	return measure + " DESC"
}

// selectList builds the select expressions for a grouped query. Column
// aliases match the GroupRow scan targets.
func selectList(dim, seg *resolvedDimension, measure string) []string {
	selects := []string{
		dim.KeyExpr + " AS x_key",
		dim.LabelExpr + " AS x_label",
	}
	if seg != nil {
		selects = append(selects, seg.KeyExpr+" AS segment_value")
	}
	return append(selects, measure+" AS y_value")
}

// keyRestriction restricts the data query to the page's group keys. The
// null key is matched explicitly since IN never matches NULL.
func keyRestriction(expr string, keys []string, hasNull bool) Predicate {
	switch {
	case len(keys) == 0 && hasNull:
		return Predicate{SQL: expr + " IS NULL"}
	case hasNull:
		return Predicate{
			SQL:  "(" + expr + " IN ? OR " + expr + " IS NULL)",
			Args: []interface{}{keys},
		}
	default:
		return Predicate{SQL: expr + " IN ?", Args: []interface{}{keys}}
	}
}

// buildPageInfo computes page metadata over distinct group keys.
func buildPageInfo(totalItems int64, page, pageSize int, all bool) PageInfo {
	if all {
		return PageInfo{
			CurrentPage:  1,
			TotalPages:   1,
			TotalItems:   totalItems,
			ItemsPerPage: int(totalItems),
		}
	}
	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	return PageInfo{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   totalItems,
		ItemsPerPage: pageSize,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}
