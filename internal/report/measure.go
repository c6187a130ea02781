package report

import "fmt"

// planMeasure maps a measure name to its aggregation expression. The
// expression is selected as y_value and, for non-date dimensions, also
// drives the descending result order.
//
// Conversion-style ratio measures wrap the denominator in NULLIF and the
// whole expression in COALESCE so an empty matching set yields 0 rather
// than a division error or a non-finite value.
func planMeasure(cfg *EntityConfig, dialect, key string) (string, error) {
	m, ok := cfg.Measures[key]
	if !ok {
		return "", fmt.Errorf("%w: %q for entity %q", ErrUnknownMeasure, key, cfg.Entity)
	}

	switch m.Kind {
	case MeasureCount:
		return "COUNT(" + cfg.PrimaryKey + ")", nil
	case MeasureSum:
		return "COALESCE(SUM(" + m.Column + "), 0)", nil
	case MeasureAvgDuration:
		return durationExpr(dialect, m.StartColumn, m.EndColumn), nil
	case MeasureCountRatio:
		return fmt.Sprintf(
			"COALESCE(COUNT(CASE WHEN %s THEN 1 END) * 100.0 / NULLIF(COUNT(%s), 0), 0)",
			m.When, cfg.PrimaryKey,
		), nil
	case MeasureSumRatio:
		return fmt.Sprintf(
			"COALESCE(SUM(CASE WHEN %s THEN %s ELSE 0 END) * 100.0 / NULLIF(SUM(%s), 0), 0)",
			m.When, m.Column, m.Column,
		), nil
	default:
		return "", fmt.Errorf("%w: %q has unsupported kind", ErrUnknownMeasure, key)
	}
}

// durationExpr averages (end - start) in hours for the given dialect.
func durationExpr(dialect, start, end string) string {
	if dialect == "sqlite" {
		return fmt.Sprintf(
			"COALESCE(AVG((julianday(%s) - julianday(%s)) * 24.0), 0)",
			end, start,
		)
	}
	return fmt.Sprintf(
		"COALESCE(AVG(EXTRACT(EPOCH FROM (%s - %s)) / 3600.0), 0)",
		end, start,
	)
}
