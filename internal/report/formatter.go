package report

import (
	"math"
	"sort"
)

// UnknownLabel replaces null group keys in the public series.
const UnknownLabel = "Unknown"

// formatFlat maps unsegmented grouped rows to {label, value} points and the
// grand total. Rows arrive already ordered by the pager.
func formatFlat(rows []GroupRow, hasID bool) ([]SeriesPoint, float64) {
	series := make([]SeriesPoint, 0, len(rows))
	total := 0.0
	for _, row := range rows {
		point := SeriesPoint{
			Label: labelOf(row.XLabel.String, row.XLabel.Valid),
			Value: row.YValue.Float64,
		}
		if hasID && row.XKey.Valid {
			point.ID = row.XKey.String
		}
		total += point.Value
		series = append(series, point)
	}
	return series, total
}

// formatSegmented buckets rows by dimension key, collecting one segment per
// (key, segment value) row. Buckets sort by total segment value descending
// unless the dimension is date-bucketed, which preserves the pager's
// chronological order.
func formatSegmented(rows []GroupRow, hasID, dateOrdered bool) ([]SeriesPoint, float64) {
	series := make([]SeriesPoint, 0)
	index := make(map[string]int)
	total := 0.0

	for _, row := range rows {
		key := UnknownLabel
		if row.XKey.Valid {
			key = row.XKey.String
		}
		i, seen := index[key]
		if !seen {
			point := SeriesPoint{
				Label:    labelOf(row.XLabel.String, row.XLabel.Valid),
				Segments: []SegmentPoint{},
			}
			if hasID && row.XKey.Valid {
				point.ID = row.XKey.String
			}
			series = append(series, point)
			i = len(series) - 1
			index[key] = i
		}
		value := row.YValue.Float64
		series[i].Segments = append(series[i].Segments, SegmentPoint{
			LabelType: labelOf(row.Segment.String, row.Segment.Valid),
			Value:     value,
		})
		series[i].TotalSegmentValue += value
		series[i].Value += value
		total += value
	}

	if !dateOrdered {
		sort.SliceStable(series, func(a, b int) bool {
			return series[a].TotalSegmentValue > series[b].TotalSegmentValue
		})
	}
	return series, total
}

func labelOf(s string, valid bool) string {
	if !valid || s == "" {
		return UnknownLabel
	}
	return s
}

// summarize derives the summary statistics callers consume alongside the
// series. Averages divide by the number of points on the page; segmented
// series average their per-bucket totals.
func summarize(series []SeriesPoint, totalRecords, totalCategories int64, grandTotal float64) Summary {
	summary := Summary{
		TotalRecords:    totalRecords,
		TotalCategories: totalCategories,
		TotalValue:      round2(grandTotal),
	}
	if len(series) == 0 {
		return summary
	}

	maxValue := math.Inf(-1)
	minValue := math.Inf(1)
	for _, point := range series {
		v := point.Value
		if v > maxValue {
			maxValue = v
		}
		if v < minValue {
			minValue = v
		}
	}
	summary.AvgValue = round2(grandTotal / float64(len(series)))
	summary.MaxValue = round2(maxValue)
	summary.MinValue = round2(minValue)
	return summary
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
