package report

import "fmt"

// resolvedDimension is a dimension key resolved into concrete SQL. KeyExpr
// is the group key used for GROUP BY, distinct counting and page-key
// restriction; LabelExpr carries the display label when it differs from the
// key (aggregate-wrapped so it stays out of GROUP BY). RawColumn is the
// underlying column used for the null-exclusion predicate, and DateColumn
// the raw date column date-bucketed dimensions order by.
type resolvedDimension struct {
	KeyExpr    string
	LabelExpr  string
	RawColumn  string
	DateColumn string
	IsDate     bool
	HasID      bool
}

// resolveDimension maps a dimension key (and optional date bucket) to its
// SQL expressions, registering the related-entity join when the dimension
// lives on a related entity. The null-exclusion predicate on RawColumn is
// the engine's responsibility, not the resolver's.
func resolveDimension(cfg *EntityConfig, dialect, key string, bucket DateBucket, joins *joinSet) (*resolvedDimension, error) {
	dim, ok := cfg.Dimensions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q for entity %q", ErrUnknownDimension, key, cfg.Entity)
	}

	if dim.Related != "" {
		related, found := cfg.Related[dim.Related]
		if !found {
			return nil, fmt.Errorf("dimension %q references missing related entity %q", key, dim.Related)
		}
		joins.add(related.Join)
	}

	resolved := &resolvedDimension{
		KeyExpr:   dim.Column,
		LabelExpr: dim.Column,
		RawColumn: dim.Column,
	}

	if dim.LabelColumn != "" {
		// Key by identity, label by name. MAX keeps the label out of the
		// GROUP BY clause; the key determines it uniquely.
		resolved.LabelExpr = "MAX(" + dim.LabelColumn + ")"
		resolved.HasID = true
	}

	if dim.IsDate && bucket != "" && bucket != BucketNone {
		resolved.KeyExpr = dateBucketExpr(dialect, dim.Column, bucket)
		resolved.LabelExpr = resolved.KeyExpr
		resolved.DateColumn = dim.Column
		resolved.IsDate = true
	}

	return resolved, nil
}

// dateBucketExpr returns the dialect-specific expression folding a date
// column into period labels: daily dd/mm/yyyy, weekly "w<week> <year>",
// monthly mm/yyyy, quarterly "Q<quarter> <year>", yearly yyyy. The same
// expression is used for both GROUP BY and the selected value.
func dateBucketExpr(dialect, column string, bucket DateBucket) string {
	if dialect == "sqlite" {
		return sqliteBucketExpr(column, bucket)
	}
	return postgresBucketExpr(column, bucket)
}

func postgresBucketExpr(column string, bucket DateBucket) string {
	switch bucket {
	case BucketDaily:
		return "TO_CHAR(" + column + ", 'DD/MM/YYYY')"
	case BucketWeekly:
		return "TO_CHAR(" + column + ", '\"w\"IW IYYY')"
	case BucketMonthly:
		return "TO_CHAR(" + column + ", 'MM/YYYY')"
	case BucketQuarterly:
		return "TO_CHAR(" + column + ", '\"Q\"Q YYYY')"
	case BucketYearly:
		return "TO_CHAR(" + column + ", 'YYYY')"
	default:
		return column
	}
}

func sqliteBucketExpr(column string, bucket DateBucket) string {
	switch bucket {
	case BucketDaily:
		return "strftime('%d/%m/%Y', " + column + ")"
	case BucketWeekly:
		// ISO week, to match postgres IW/IYYY. strftime's %W is Monday-based
		// but not ISO, and %V/%G need a newer sqlite than the driver bundles;
		// the Thursday of a date's week determines both its ISO week and year.
		thursday := "date(" + column + ", '-3 days', 'weekday 4')"
		return "'w' || printf('%02d', (CAST(strftime('%j', " + thursday + ") AS INTEGER) - 1) / 7 + 1)" +
			" || ' ' || strftime('%Y', " + thursday + ")"
	case BucketMonthly:
		return "strftime('%m/%Y', " + column + ")"
	case BucketQuarterly:
		return "'Q' || ((CAST(strftime('%m', " + column + ") AS INTEGER) + 2) / 3) || ' ' || strftime('%Y', " + column + ")"
	case BucketYearly:
		return "strftime('%Y', " + column + ")"
	default:
		return column
	}
}

// notNull is the unconditional null-exclusion predicate added for the
// resolved dimension column: rows with an unset dimension value are excluded
// from both the distinct-group count and the series.
func (d *resolvedDimension) notNull() Predicate {
	return Predicate{SQL: d.RawColumn + " IS NOT NULL"}
}
