// Package report implements the analytics aggregation query engine behind
// report generation: it compiles a report spec (entity, dimension, measure,
// optional segmentation and date bucketing, a flat AND/OR filter chain, and
// pagination) into grouped aggregation queries, paginates over distinct group
// keys, and shapes the raw grouped rows into chart series with totals.
package report

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Operator is a filter condition operator as sent by the report builder UI.
type Operator string

const (
	OpGreaterThan Operator = ">"
	OpLessThan    Operator = "<"
	OpEquals      Operator = "="
	OpNotEquals   Operator = "!="
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpIsEmpty     Operator = "isEmpty"
	OpIsNotEmpty  Operator = "isNotEmpty"
	OpBetween     Operator = "between"
	OpNotBetween  Operator = "notBetween"
	OpIs          Operator = "is"
	OpIsNot       Operator = "is not"
)

// Connector joins a condition to the accumulated filter to its left.
type Connector string

const (
	ConnectorAnd Connector = "AND"
	ConnectorOr  Connector = "OR"
)

// Condition is one filter condition. Column is either a bare field name on
// the report's entity or "<Related>.<field>" for a related entity's field.
type Condition struct {
	Column   string      `json:"column"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
}

// FilterSpec is an ordered list of conditions combined left-to-right by the
// connectors between them: connectors[i-1] joins condition i to the
// accumulator, so "A AND B OR C" means "(A AND B) OR C".
type FilterSpec struct {
	Conditions []Condition `json:"conditions"`
	Connectors []Connector `json:"connectors"`
}

// DateBucket folds a date dimension into discrete period labels.
type DateBucket string

const (
	BucketNone      DateBucket = "none"
	BucketDaily     DateBucket = "daily"
	BucketWeekly    DateBucket = "weekly"
	BucketMonthly   DateBucket = "monthly"
	BucketQuarterly DateBucket = "quarterly"
	BucketYearly    DateBucket = "yearly"
)

// Spec is one report request. It is built fresh per generate call, either
// from the request body or from a saved report's deserialized config, and is
// consumed entirely within one engine invocation.
type Spec struct {
	Entity     string      `json:"entity"`
	Dimension  string      `json:"dimension"`
	Measure    string      `json:"measure"`
	SegmentBy  string      `json:"segmentBy,omitempty"`
	DateBucket DateBucket  `json:"dateBucket,omitempty"`
	Filter     *FilterSpec `json:"filter,omitempty"`
	Page       int         `json:"page,omitempty"`
	PageSize   int         `json:"pageSize,omitempty"`
}

// ParseSpec deserializes a saved report config blob back into a Spec.
func ParseSpec(config string) (*Spec, error) {
	var spec Spec
	if err := json.Unmarshal([]byte(config), &spec); err != nil {
		return nil, fmt.Errorf("invalid report config: %w", err)
	}
	return &spec, nil
}

// Serialize renders the spec as the config blob persisted on a saved report.
// Pagination is a per-request concern and is not stored.
func (s *Spec) Serialize() (string, error) {
	stored := *s
	stored.Page = 0
	stored.PageSize = 0
	data, err := json.Marshal(&stored)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report config: %w", err)
	}
	return string(data), nil
}

// SegmentPoint is one nested sub-series value inside a segmented series point.
type SegmentPoint struct {
	LabelType string  `json:"labeltype"`
	Value     float64 `json:"value"`
}

// SeriesPoint is one point of the generated series. Flat series carry Label
// and Value; segmented series additionally carry Segments and
// TotalSegmentValue. ID is set when the dimension groups by an identifier
// (for example the owner dimension, which labels by user name but keys by id).
type SeriesPoint struct {
	Label             string         `json:"label"`
	Value             float64        `json:"value"`
	Segments          []SegmentPoint `json:"segments,omitempty"`
	TotalSegmentValue float64        `json:"totalSegmentValue,omitempty"`
	ID                string         `json:"id,omitempty"`
}

// PageInfo describes pagination over distinct group keys, not raw rows.
type PageInfo struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
	HasNextPage  bool  `json:"hasNextPage"`
	HasPrevPage  bool  `json:"hasPrevPage"`
}

// Summary holds the summary statistics derived from a generated series.
type Summary struct {
	TotalRecords    int64   `json:"totalRecords"`
	TotalCategories int64   `json:"totalCategories"`
	TotalValue      float64 `json:"totalValue"`
	AvgValue        float64 `json:"avgValue"`
	MaxValue        float64 `json:"maxValue"`
	MinValue        float64 `json:"minValue"`
}

// Result is the public contract of one report generation.
type Result struct {
	Series     []SeriesPoint `json:"series"`
	PageInfo   PageInfo      `json:"pageInfo"`
	TotalValue float64       `json:"totalValue"`
	Summary    Summary       `json:"summary"`
}

// GroupRow is one raw grouped row as returned by storage: one row per
// (dimension key, segment value) pair. Never exposed outside the engine and
// its storage implementation.
type GroupRow struct {
	XKey    sql.NullString  `gorm:"column:x_key"`
	XLabel  sql.NullString  `gorm:"column:x_label"`
	Segment sql.NullString  `gorm:"column:segment_value"`
	YValue  sql.NullFloat64 `gorm:"column:y_value"`
}
